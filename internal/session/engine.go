package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"support-flow-bot/internal/config"
	"support-flow-bot/internal/logger"
	"support-flow-bot/internal/presets"
	"support-flow-bot/internal/settings"
)

// фиксированные команды диалога
const (
	CommandCancel = "/cancel"
	CommandBack   = "назад"
)

// варианты ответа на предложение повторить данные прошлой заявки
var reuseOptions = []string{"Да", "Нет"}

type (
	// Messenger — исходящие сообщения пользователю. Ошибка доставки
	// логируется и не откатывает состояние диалога: записанный переход
	// авторитетен независимо от доставки.
	Messenger interface {
		Prompt(ctx context.Context, userID, text string, options []string, allowBack bool) error
	}

	// TicketFinalizer превращает собранные ответы в заявку.
	// Вызывается ровно один раз на завершённый диалог.
	TicketFinalizer interface {
		Create(ctx context.Context, userID string, answers map[string]string, attachments []Attachment, summary string) (string, error)
	}

	// AttachmentSink сохраняет файл пользователя и возвращает ссылку.
	AttachmentSink interface {
		Store(ctx context.Context, userID, kind string, data []byte) (string, error)
	}

	// LastAnswersSource отдаёт ответы прошлой заявки пользователя
	// (пусто если заявок ещё не было).
	LastAnswersSource interface {
		LastAnswers(userID string) map[string]string
	}

	// SettingsProvider отдаёт актуальную модель настроек.
	SettingsProvider interface {
		Model() *settings.Model
	}

	// CatalogProvider отдаёт актуальный каталог вариантов.
	CatalogProvider interface {
		Catalog() *presets.Catalog
	}

	// Deps — зависимости движка диалогов.
	Deps struct {
		Sessions    *Manager
		Settings    SettingsProvider
		Presets     CatalogProvider
		Messenger   Messenger
		Tickets     TicketFinalizer
		LastAnswers LastAnswersSource
		Attachments AttachmentSink
		Notices     config.Notices
	}

	// Engine ведёт пользователя по шагам активного шаблона:
	// подсказка, проверка ответа, переход вперёд/назад, завершение.
	Engine struct {
		deps Deps
	}
)

func NewEngine(deps Deps) *Engine {
	return &Engine{deps: deps}
}

// Start начинает новую заявку. Если диалог уже идёт — существующая
// сессия не трогается, пользователь получает короткое уведомление.
func (e *Engine) Start(ctx context.Context, userID string) error {
	model := e.deps.Settings.Model()

	// снимок активного шаблона плюс завершающий свободный шаг
	flow := append([]settings.QuestionStep(nil), model.Flow...)
	flow = append(flow, settings.QuestionStep{
		ID:     settings.ProblemFieldKey,
		Kind:   settings.StepCustom,
		Prompt: "Опишите вашу проблему",
		Order:  len(flow) + 1,
	})

	s, err := e.deps.Sessions.Create(userID, flow)
	if err != nil {
		e.send(ctx, userID, e.deps.Notices.SessionBusy, nil, false)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.appendEvent("start", "")
	e.send(ctx, userID, e.deps.Notices.Greeting, nil, false)

	if candidates := locationAnswers(e.deps.LastAnswers.LastAnswers(userID)); len(candidates) > 0 {
		s.ReusePending = true
		s.ReuseCandidates = candidates
		e.send(ctx, userID, e.deps.Notices.ReusePrompt, reuseOptions, false)
		return nil
	}

	e.promptCurrent(ctx, s)
	return nil
}

// HandleText обрабатывает текстовое сообщение пользователя.
func (e *Engine) HandleText(ctx context.Context, userID, text string) error {
	s, ok := e.deps.Sessions.Get(userID)
	if !ok {
		e.send(ctx, userID, e.deps.Notices.NoSession, nil, false)
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.appendEvent("text", text)

	command := strings.ToLower(strings.TrimSpace(text))

	if command == CommandCancel || command == "отмена" {
		return e.cancelLocked(ctx, s)
	}

	if s.ReusePending {
		return e.handleReuseDecision(ctx, s, command)
	}

	if command == CommandBack || command == "/back" {
		e.stepBack(ctx, s)
		return nil
	}

	return e.handleAnswer(ctx, s, text)
}

// HandleAttachment сохраняет файл присланный посреди диалога. Файл не
// влияет на продвижение по шагам.
func (e *Engine) HandleAttachment(ctx context.Context, userID, kind string, data []byte) error {
	s, ok := e.deps.Sessions.Get(userID)
	if !ok {
		logger.Debug("Вложение без активной сессии:", userID)
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ref, err := e.deps.Attachments.Store(ctx, userID, kind, data)
	if err != nil {
		logger.Warning("Не удалось сохранить вложение:", userID, err)
		return err
	}

	s.Attachments = append(s.Attachments, Attachment{Kind: kind, Ref: ref, At: time.Now()})
	s.appendEvent("attachment", ref)
	e.send(ctx, userID, e.deps.Notices.AttachmentSaved, nil, false)
	return nil
}

// Cancel прекращает диалог без создания заявки.
func (e *Engine) Cancel(ctx context.Context, userID string) error {
	s, ok := e.deps.Sessions.Get(userID)
	if !ok {
		e.send(ctx, userID, e.deps.Notices.NoSession, nil, false)
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return e.cancelLocked(ctx, s)
}

func (e *Engine) cancelLocked(ctx context.Context, s *Session) error {
	e.deps.Sessions.Delete(s.UserID)
	e.send(ctx, s.UserID, e.deps.Notices.Cancelled, nil, false)
	return nil
}

// handleReuseDecision принимает да/нет на предложение повторить данные
// прошлой заявки. Утвердительный ответ заполняет непрерывный префикс
// шагов для которых есть кешированные значения.
func (e *Engine) handleReuseDecision(ctx context.Context, s *Session, command string) error {
	switch {
	case strings.HasPrefix(command, "д") || strings.HasPrefix(command, "y"):
		for !s.Completed() {
			key := s.Current().FieldKey()
			value, ok := s.ReuseCandidates[key]
			if !ok {
				break
			}
			s.Answers[key] = value
			s.Index++
		}
	case strings.HasPrefix(command, "н") || strings.HasPrefix(command, "n"):
		// начинаем с первого шага, кеш не применяется
	default:
		e.send(ctx, s.UserID, e.deps.Notices.ReuseRepeat, reuseOptions, false)
		return nil
	}

	s.ReusePending = false

	if s.Completed() {
		return e.finalize(ctx, s)
	}
	e.promptCurrent(ctx, s)
	return nil
}

// stepBack возвращает на предыдущий шаг и стирает его ответ, чтобы
// повторный ответ лёг чисто.
func (e *Engine) stepBack(ctx context.Context, s *Session) {
	if s.Index == 0 {
		e.send(ctx, s.UserID, e.deps.Notices.NothingBack, nil, false)
		return
	}

	s.Index--
	delete(s.Answers, s.Current().FieldKey())
	e.promptCurrent(ctx, s)
}

func (e *Engine) handleAnswer(ctx context.Context, s *Session, text string) error {
	step := s.Current()
	if step == nil {
		// опрос уже завершён, гонок тут нет — защитимся от двойного сообщения
		return nil
	}

	switch step.Kind {
	case settings.StepPreset:
		options := e.stepOptions(step, s.Answers)
		if len(options) == 0 {
			e.send(ctx, s.UserID, e.deps.Notices.NoOptions, nil, s.Index > 0)
			return nil
		}

		answer := strings.TrimSpace(text)
		if !contains(options, answer) {
			e.send(ctx, s.UserID, e.deps.Notices.InvalidOption, options, s.Index > 0)
			return nil
		}

		s.Answers[step.PresetField] = answer

	default:
		// свободный текст записывается безусловно, включая пустой
		s.Answers[step.ID] = text
	}

	s.Index++

	if s.Completed() {
		return e.finalize(ctx, s)
	}
	e.promptCurrent(ctx, s)
	return nil
}

// finalize передаёт собранные ответы на регистрацию заявки и удаляет
// сессию.
func (e *Engine) finalize(ctx context.Context, s *Session) error {
	ticketID, err := e.deps.Tickets.Create(ctx, s.UserID, s.Answers, s.Attachments, e.summary(s))

	// прогресс диалога авторитетен: сессия удаляется даже если
	// регистрация не удалась, повтор заявки остаётся за пользователем
	e.deps.Sessions.Delete(s.UserID)

	if err != nil {
		logger.Warning("Ошибка регистрации заявки:", s.UserID, err)
		e.send(ctx, s.UserID, e.deps.Notices.TicketFailed, nil, false)
		return err
	}

	notice := e.deps.Notices.TicketCreated
	if strings.Contains(notice, "%s") {
		notice = fmt.Sprintf(notice, ticketID)
	}
	e.send(ctx, s.UserID, notice, nil, false)
	return nil
}

// promptCurrent отправляет вопрос текущего шага.
func (e *Engine) promptCurrent(ctx context.Context, s *Session) {
	step := s.Current()
	if step == nil {
		return
	}

	var options []string
	if step.Kind == settings.StepPreset {
		options = e.stepOptions(step, s.Answers)
		if len(options) == 0 {
			e.send(ctx, s.UserID, e.deps.Notices.NoOptions, nil, s.Index > 0)
			return
		}
	}

	e.send(ctx, s.UserID, step.Prompt, options, s.Index > 0)
}

// stepOptions возвращает живой список вариантов preset-шага: каскад по
// уже данным ответам минус исключённые администратором варианты.
func (e *Engine) stepOptions(step *settings.QuestionStep, answers map[string]string) []string {
	options := e.deps.Presets.Catalog().Options(step.PresetField, answers)
	if len(step.ExcludedOptions) == 0 {
		return options
	}

	excluded := make(map[string]bool, len(step.ExcludedOptions))
	for _, option := range step.ExcludedOptions {
		excluded[option] = true
	}

	result := options[:0]
	for _, option := range options {
		if !excluded[option] {
			result = append(result, option)
		}
	}
	return result
}

// summary собирает человекочитаемое описание заявки для оператора.
func (e *Engine) summary(s *Session) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Новая заявка от %s\n", s.UserID)
	for _, step := range s.Flow {
		if answer, ok := s.Answers[step.FieldKey()]; ok {
			fmt.Fprintf(&b, "%s: %s\n", step.Prompt, answer)
		}
	}
	if len(s.Attachments) > 0 {
		fmt.Fprintf(&b, "Вложений: %d\n", len(s.Attachments))
	}
	return b.String()
}

func (e *Engine) send(ctx context.Context, userID, text string, options []string, allowBack bool) {
	if err := e.deps.Messenger.Prompt(ctx, userID, text, options, allowBack); err != nil {
		logger.Warning("Не удалось доставить сообщение:", userID, err)
	}
}

// locationAnswers оставляет только четыре поля локации из ответов
// прошлой заявки.
func locationAnswers(answers map[string]string) map[string]string {
	if len(answers) == 0 {
		return nil
	}
	result := make(map[string]string, len(presets.LocationFields))
	for _, field := range presets.LocationFields {
		if value, ok := answers[field]; ok && value != "" {
			result[field] = value
		}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

func contains(items []string, target string) bool {
	for _, item := range items {
		if item == target {
			return true
		}
	}
	return false
}
