package settings

import "strconv"

// вид шага опроса
type StepKind string

const (
	// свободный ввод текста
	StepCustom StepKind = "custom"
	// выбор из каскадного списка вариантов
	StepPreset StepKind = "preset"
)

// ключ под которым сохраняется ответ завершающего шага "опишите проблему"
const ProblemFieldKey = "problem"

type (
	// QuestionStep — один шаг опроса. Order назначается позицией в
	// итоговом списке, значение из настроек администратора игнорируется.
	QuestionStep struct {
		ID     string   `json:"id"`
		Kind   StepKind `json:"type"`
		Prompt string   `json:"prompt_text"`
		Order  int      `json:"order"`

		// только для preset-шагов
		PresetGroup     string   `json:"preset_group,omitempty"`
		PresetField     string   `json:"preset_field,omitempty"`
		ExcludedOptions []string `json:"excluded_options,omitempty"`
	}

	// QuestionTemplate — именованный упорядоченный набор шагов.
	// Пересоздаётся целиком при каждом сохранении настроек.
	QuestionTemplate struct {
		ID          string         `json:"id"`
		Name        string         `json:"name"`
		Description string         `json:"description,omitempty"`
		Flow        []QuestionStep `json:"question_flow"`
	}

	// RatingTemplate — шкала оценки с плотным набором ответов 1..Scale.
	RatingTemplate struct {
		ID          string         `json:"id"`
		Name        string         `json:"name"`
		Description string         `json:"description,omitempty"`
		Prompt      string         `json:"prompt_text"`
		Scale       int            `json:"scale_size"`
		Responses   map[int]string `json:"responses"`
	}

	// Model — канонический результат санитизации настроек.
	Model struct {
		Templates        []QuestionTemplate `json:"question_templates"`
		ActiveTemplateID string             `json:"active_template_id"`

		RatingTemplates        []RatingTemplate `json:"rating_templates"`
		ActiveRatingTemplateID string           `json:"active_rating_template_id"`

		// сплющенные шаги активного шаблона для простых потребителей
		Flow []QuestionStep `json:"question_flow"`

		UnblockCooldownMinutes int `json:"unblock_request_cooldown_minutes"`
	}
)

// FieldKey возвращает ключ под которым сохраняется ответ шага:
// имя preset-поля либо id самого шага.
func (s QuestionStep) FieldKey() string {
	if s.Kind == StepPreset {
		return s.PresetField
	}
	return s.ID
}

// ActiveTemplate возвращает активный шаблон вопросов.
func (m *Model) ActiveTemplate() *QuestionTemplate {
	for i := range m.Templates {
		if m.Templates[i].ID == m.ActiveTemplateID {
			return &m.Templates[i]
		}
	}
	if len(m.Templates) > 0 {
		return &m.Templates[0]
	}
	return nil
}

// ActiveRating возвращает активный шаблон оценки.
func (m *Model) ActiveRating() *RatingTemplate {
	for i := range m.RatingTemplates {
		if m.RatingTemplates[i].ID == m.ActiveRatingTemplateID {
			return &m.RatingTemplates[i]
		}
	}
	if len(m.RatingTemplates) > 0 {
		return &m.RatingTemplates[0]
	}
	return nil
}

// Raw отдаёт модель в канонической «сырой» форме для сохранения в
// SettingsStore. Санитизация этой формы возвращает ту же модель.
func (m *Model) Raw() map[string]interface{} {
	templates := make([]interface{}, 0, len(m.Templates))
	for _, t := range m.Templates {
		templates = append(templates, rawTemplate(t))
	}

	ratings := make([]interface{}, 0, len(m.RatingTemplates))
	for _, r := range m.RatingTemplates {
		ratings = append(ratings, rawRating(r))
	}

	return map[string]interface{}{
		"question_templates":               templates,
		"active_template_id":               m.ActiveTemplateID,
		"rating_templates":                 ratings,
		"active_rating_template_id":        m.ActiveRatingTemplateID,
		"unblock_request_cooldown_minutes": m.UnblockCooldownMinutes,
	}
}

func rawTemplate(t QuestionTemplate) map[string]interface{} {
	flow := make([]interface{}, 0, len(t.Flow))
	for _, step := range t.Flow {
		flow = append(flow, rawStep(step))
	}

	raw := map[string]interface{}{
		"id":            t.ID,
		"name":          t.Name,
		"question_flow": flow,
	}
	if t.Description != "" {
		raw["description"] = t.Description
	}
	return raw
}

func rawStep(s QuestionStep) map[string]interface{} {
	raw := map[string]interface{}{
		"id":          s.ID,
		"type":        string(s.Kind),
		"prompt_text": s.Prompt,
		"order":       s.Order,
	}
	if s.Kind == StepPreset {
		raw["preset_group"] = s.PresetGroup
		raw["preset_field"] = s.PresetField
		if len(s.ExcludedOptions) > 0 {
			excluded := make([]interface{}, 0, len(s.ExcludedOptions))
			for _, option := range s.ExcludedOptions {
				excluded = append(excluded, option)
			}
			raw["excluded_options"] = excluded
		}
	}
	return raw
}

func rawRating(r RatingTemplate) map[string]interface{} {
	responses := make(map[string]interface{}, len(r.Responses))
	for value, text := range r.Responses {
		responses[strconv.Itoa(value)] = text
	}

	raw := map[string]interface{}{
		"id":          r.ID,
		"name":        r.Name,
		"scale_size":  r.Scale,
		"prompt_text": r.Prompt,
		"responses":   responses,
	}
	if r.Description != "" {
		raw["description"] = r.Description
	}
	return raw
}
