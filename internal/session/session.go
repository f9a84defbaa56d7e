package session

import (
	"sync"
	"time"

	"support-flow-bot/internal/settings"
)

type (
	// Attachment — ссылка на сохранённый файл пользователя.
	Attachment struct {
		Kind string    `json:"kind"`
		Ref  string    `json:"ref"`
		At   time.Time `json:"at"`
	}

	// Event — сырое событие диалога для журнала.
	Event struct {
		At   time.Time `json:"at"`
		Kind string    `json:"kind"`
		Text string    `json:"text,omitempty"`
	}

	// Session — живое состояние одной заявки пользователя.
	// Flow — неизменяемый снимок активного шаблона на момент старта,
	// изменение настроек не затрагивает начатый диалог.
	Session struct {
		mu sync.Mutex

		UserID string
		Flow   []settings.QuestionStep
		// 0..len(Flow); len(Flow) означает что опрос завершён
		Index   int
		Answers map[string]string

		Attachments []Attachment
		History     []Event

		// ожидается ответ да/нет на предложение повторить данные
		ReusePending bool
		// ответы прошлой заявки по четырём полям локации
		ReuseCandidates map[string]string

		StartedAt time.Time
	}
)

func newSession(userID string, flow []settings.QuestionStep) *Session {
	return &Session{
		UserID:    userID,
		Flow:      flow,
		Answers:   make(map[string]string),
		StartedAt: time.Now(),
	}
}

// Completed сообщает что все шаги отвечены.
func (s *Session) Completed() bool {
	return s.Index >= len(s.Flow)
}

// Current возвращает текущий шаг.
func (s *Session) Current() *settings.QuestionStep {
	if s.Completed() {
		return nil
	}
	return &s.Flow[s.Index]
}

func (s *Session) appendEvent(kind, text string) {
	s.History = append(s.History, Event{At: time.Now(), Kind: kind, Text: text})
}
