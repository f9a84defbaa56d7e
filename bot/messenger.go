package bot

import (
	"context"
	"fmt"
	"strings"

	"support-flow-bot/internal/session"
)

// Mux маршрутизирует исходящие сообщения по каналу из префикса id
// пользователя ("tg:123", "vk:456").
type Mux struct {
	channels map[string]session.Messenger
}

func NewMux() *Mux {
	return &Mux{channels: make(map[string]session.Messenger)}
}

// Register привязывает канал к префиксу.
func (m *Mux) Register(prefix string, messenger session.Messenger) {
	m.channels[prefix] = messenger
}

func (m *Mux) Prompt(ctx context.Context, userID, text string, options []string, allowBack bool) error {
	prefix, _, ok := strings.Cut(userID, ":")
	if !ok {
		return fmt.Errorf("id пользователя без префикса канала: %s", userID)
	}

	messenger, ok := m.channels[prefix]
	if !ok {
		return fmt.Errorf("неизвестный канал: %s", prefix)
	}
	return messenger.Prompt(ctx, userID, text, options, allowBack)
}
