package settings

import (
	"fmt"
	"strings"

	"support-flow-bot/internal/presets"
	"support-flow-bot/internal/rawjson"

	"github.com/google/uuid"
)

const (
	// DefaultScale — размер шкалы оценки по умолчанию.
	DefaultScale = 5
	// DefaultMaxScale — потолок шкалы если он не задан в конфигурации.
	DefaultMaxScale = 5
	// DefaultCooldownMinutes — задержка повторного запроса разблокировки.
	DefaultCooldownMinutes = 60
)

// зарезервированные ключи ответов: произвольный шаг не может иметь такой
// id, иначе его ответ столкнётся с ответом preset-шага
var reservedFieldKeys = map[string]bool{
	presets.FieldBusiness:     true,
	presets.FieldLocationType: true,
	presets.FieldCity:         true,
	presets.FieldLocationName: true,
	ProblemFieldKey:           true,
}

// Sanitize приводит сырые настройки администратора к канонической
// модели. Функция тотальна: любые битые, частичные или отсутствующие
// данные заменяются вычисленными значениями по умолчанию, ошибок и
// паник не бывает. Повторная санитизация собственного результата
// возвращает ту же модель.
func Sanitize(raw map[string]interface{}, catalog *presets.Catalog, maxScale int) *Model {
	if raw == nil {
		raw = map[string]interface{}{}
	}
	if maxScale < 1 {
		maxScale = DefaultMaxScale
	}

	model := &Model{}

	model.Templates = sanitizeTemplates(rawjson.List(raw["question_templates"]), catalog)

	// legacy: плоский question_flow на верхнем уровне импортируется
	// как единственный шаблон
	if len(model.Templates) == 0 {
		if flow := sanitizeFlow(rawjson.List(raw["question_flow"]), catalog); len(flow) > 0 {
			model.Templates = []QuestionTemplate{{
				ID:   uuid.NewString(),
				Name: "Импортированный шаблон",
				Flow: flow,
			}}
		}
	}
	if len(model.Templates) == 0 {
		model.Templates = defaultTemplates(catalog)
	}

	model.ActiveTemplateID = resolveActiveID(
		rawjson.FirstKey(raw, "active_template_id", "activeTemplateId"),
		templateIDs(model.Templates),
	)

	model.RatingTemplates = sanitizeRatings(rawjson.List(raw["rating_templates"]), maxScale)

	// legacy: одиночный объект rating_system вместо списка шаблонов
	if len(model.RatingTemplates) == 0 {
		if legacy := rawjson.Map(raw["rating_system"]); len(legacy) > 0 {
			model.RatingTemplates = []RatingTemplate{
				sanitizeRating(legacy, 1, maxScale, map[string]bool{}),
			}
		}
	}
	if len(model.RatingTemplates) == 0 {
		model.RatingTemplates = []RatingTemplate{defaultRatingTemplate(maxScale)}
	}

	model.ActiveRatingTemplateID = resolveActiveID(
		rawjson.FirstKey(raw, "active_rating_template_id", "activeRatingTemplateId"),
		ratingIDs(model.RatingTemplates),
	)

	cooldown, ok := rawjson.FirstIntKey(raw, "unblock_request_cooldown_minutes", "unblockRequestCooldownMinutes")
	if !ok {
		cooldown = DefaultCooldownMinutes
	}
	if cooldown < 0 {
		cooldown = 0
	}
	model.UnblockCooldownMinutes = cooldown

	if active := model.ActiveTemplate(); active != nil {
		model.Flow = append([]QuestionStep(nil), active.Flow...)
	}

	return model
}

func sanitizeTemplates(items []interface{}, catalog *presets.Catalog) []QuestionTemplate {
	var result []QuestionTemplate
	seen := map[string]bool{}

	for _, item := range items {
		entry := rawjson.Map(item)
		if len(entry) == 0 {
			continue
		}

		flow := sanitizeFlow(rawjson.List(entry["question_flow"]), catalog)
		// шаблон без единого валидного шага бесполезен
		if len(flow) == 0 {
			continue
		}

		id := rawjson.String(entry["id"])
		if id == "" || seen[id] {
			id = uuid.NewString()
		}
		seen[id] = true

		result = append(result, QuestionTemplate{
			ID:          id,
			Name:        rawjson.StringOr(entry["name"], fmt.Sprintf("Шаблон %d", len(result)+1)),
			Description: rawjson.String(entry["description"]),
			Flow:        flow,
		})
	}

	return result
}

// sanitizeFlow нормализует список шагов. Применяется и к плоскому
// question_flow, и к потоку внутри шаблона.
func sanitizeFlow(items []interface{}, catalog *presets.Catalog) []QuestionStep {
	var result []QuestionStep
	seen := map[string]bool{}

	for _, item := range items {
		// строка — сокращённая запись произвольного вопроса
		if text, ok := item.(string); ok {
			text = strings.TrimSpace(text)
			if text == "" {
				continue
			}
			result = append(result, QuestionStep{
				ID:     newStepID(seen),
				Kind:   StepCustom,
				Prompt: text,
			})
			continue
		}

		entry := rawjson.Map(item)
		if len(entry) == 0 {
			continue
		}

		declaredType := strings.ToLower(rawjson.String(entry["type"]))
		field := rawjson.String(entry["preset_field"])
		group := rawjson.String(entry["preset_group"])

		// preset распознаётся по явному типу либо по самому факту
		// ссылки на preset-поле (старые формы конфигурации)
		isPreset := declaredType == string(StepPreset) || (declaredType == "" && field != "")

		if isPreset {
			if group == "" {
				if known, ok := catalog.Fields[field]; ok {
					group = known.Group
				}
			}
			// неразрешимая ссылка хуже отсутствия шага
			if field == "" || !catalog.Has(group, field) {
				continue
			}

			step := QuestionStep{
				Kind:            StepPreset,
				PresetGroup:     group,
				PresetField:     field,
				Prompt:          rawjson.FirstKey(entry, "prompt_text", "promptText", "text"),
				ExcludedOptions: sanitizeExcluded(rawjson.StringList(entry["excluded_options"]), catalog.AllOptions(field)),
			}
			if step.Prompt == "" {
				step.Prompt = catalog.Label(field)
			}

			step.ID = rawjson.String(entry["id"])
			if step.ID == "" || seen[step.ID] {
				step.ID = newStepID(seen)
			}
			seen[step.ID] = true

			result = append(result, step)
			continue
		}

		// любой другой заявленный тип сводится к произвольному вопросу
		prompt := rawjson.FirstKey(entry, "prompt_text", "promptText", "text")
		if prompt == "" {
			continue
		}

		id := rawjson.String(entry["id"])
		// id произвольного шага не должен совпадать с ключом ответа
		// preset-поля
		if id == "" || seen[id] || reservedFieldKeys[id] {
			id = newStepID(seen)
		}
		seen[id] = true

		result = append(result, QuestionStep{
			ID:     id,
			Kind:   StepCustom,
			Prompt: prompt,
		})
	}

	// порядок задаётся позицией, входные значения order отбрасываются
	for i := range result {
		result[i].Order = i + 1
	}

	return result
}

// sanitizeExcluded ограничивает исключения известным набором вариантов
// поля; если набор неизвестен — исключения принимаются как есть.
func sanitizeExcluded(excluded, allowed []string) []string {
	if len(excluded) == 0 {
		return nil
	}
	if len(allowed) == 0 {
		return excluded
	}

	allowedSet := make(map[string]bool, len(allowed))
	for _, option := range allowed {
		allowedSet[option] = true
	}

	var result []string
	for _, option := range excluded {
		if allowedSet[option] {
			result = append(result, option)
		}
	}
	return result
}

func sanitizeRatings(items []interface{}, maxScale int) []RatingTemplate {
	var result []RatingTemplate
	seen := map[string]bool{}

	for _, item := range items {
		entry := rawjson.Map(item)
		if len(entry) == 0 {
			continue
		}
		result = append(result, sanitizeRating(entry, len(result)+1, maxScale, seen))
	}

	return result
}

func sanitizeRating(entry map[string]interface{}, position, maxScale int, seen map[string]bool) RatingTemplate {
	id := rawjson.String(entry["id"])
	if id == "" || seen[id] {
		id = uuid.NewString()
	}
	seen[id] = true

	scale, ok := rawjson.FirstIntKey(entry, "scale_size", "scaleSize", "scale")
	if !ok {
		scale = DefaultScale
	}
	if scale < 1 {
		scale = 1
	}

	// таблица ответов относится к заявленной шкале: при срезании
	// шкалы до потолка таблица отбрасывается и генерируется заново
	rawResponses := entry["responses"]
	if scale > maxScale {
		scale = maxScale
		rawResponses = nil
	}

	prompt := rawjson.FirstKey(entry, "prompt_text", "promptText", "prompt")
	if prompt == "" {
		prompt = defaultRatingPrompt(scale)
	}

	return RatingTemplate{
		ID:          id,
		Name:        rawjson.StringOr(entry["name"], fmt.Sprintf("Шкала оценки %d", position)),
		Description: rawjson.String(entry["description"]),
		Prompt:      prompt,
		Scale:       scale,
		Responses:   sanitizeResponses(rawResponses, scale),
	}
}

// sanitizeResponses принимает ответы в виде карты, списка пар или списка
// объектов {value, text}. Значения вне 1..scale отбрасываются,
// недостающие добиваются сгенерированными по умолчанию — на выходе
// всегда плотный набор 1..scale.
func sanitizeResponses(raw interface{}, scale int) map[int]string {
	result := make(map[int]string, scale)

	switch source := raw.(type) {
	case map[string]interface{}:
		for key, value := range source {
			n, ok := rawjson.Int(key)
			if !ok {
				continue
			}
			setResponse(result, n, rawjson.String(value), scale)
		}
	case []interface{}:
		for _, item := range source {
			if pair := rawjson.List(item); len(pair) == 2 {
				if n, ok := rawjson.Int(pair[0]); ok {
					setResponse(result, n, rawjson.String(pair[1]), scale)
				}
				continue
			}
			entry := rawjson.Map(item)
			if len(entry) == 0 {
				continue
			}
			if n, ok := rawjson.Int(entry["value"]); ok {
				setResponse(result, n, rawjson.String(entry["text"]), scale)
			}
		}
	}

	for n := 1; n <= scale; n++ {
		if result[n] == "" {
			result[n] = defaultRatingResponse(n)
		}
	}

	return result
}

func setResponse(responses map[int]string, value int, text string, scale int) {
	if value < 1 || value > scale || text == "" {
		return
	}
	responses[value] = text
}

func defaultRatingPrompt(scale int) string {
	return fmt.Sprintf("Оцените качество обслуживания от 1 до %d", scale)
}

func defaultRatingResponse(value int) string {
	return fmt.Sprintf("Спасибо за оценку %d!", value)
}

func defaultRatingTemplate(maxScale int) RatingTemplate {
	scale := DefaultScale
	if scale > maxScale {
		scale = maxScale
	}
	return RatingTemplate{
		ID:        uuid.NewString(),
		Name:      "Стандартная шкала",
		Prompt:    defaultRatingPrompt(scale),
		Scale:     scale,
		Responses: sanitizeResponses(nil, scale),
	}
}

// defaultTemplates — ручной шаблон: четыре каскадных preset-шага.
func defaultTemplates(catalog *presets.Catalog) []QuestionTemplate {
	flow := make([]QuestionStep, 0, len(presets.LocationFields))
	for i, field := range presets.LocationFields {
		flow = append(flow, QuestionStep{
			ID:          fmt.Sprintf("default_%s", field),
			Kind:        StepPreset,
			PresetGroup: presets.GroupLocations,
			PresetField: field,
			Prompt:      catalog.Label(field),
			Order:       i + 1,
		})
	}

	return []QuestionTemplate{{
		ID:   uuid.NewString(),
		Name: "Стандартный шаблон",
		Flow: flow,
	}}
}

func resolveActiveID(requested string, ids []string) string {
	for _, id := range ids {
		if id == requested {
			return id
		}
	}
	if len(ids) > 0 {
		return ids[0]
	}
	return ""
}

func templateIDs(templates []QuestionTemplate) []string {
	ids := make([]string, 0, len(templates))
	for _, t := range templates {
		ids = append(ids, t.ID)
	}
	return ids
}

func ratingIDs(templates []RatingTemplate) []string {
	ids := make([]string, 0, len(templates))
	for _, t := range templates {
		ids = append(ids, t.ID)
	}
	return ids
}

func newStepID(seen map[string]bool) string {
	for {
		id := uuid.NewString()
		if !seen[id] && !reservedFieldKeys[id] {
			return id
		}
	}
}
