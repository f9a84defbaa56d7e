package ticket

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"support-flow-bot/internal/logger"
	"support-flow-bot/internal/presets"
	"support-flow-bot/internal/session"

	"github.com/allegro/bigcache/v3"
	"github.com/google/uuid"
	"github.com/kballard/go-shellquote"
)

// Record — строка журнала заявок.
type Record struct {
	ID          string               `json:"id"`
	UserID      string               `json:"user_id"`
	CreatedAt   time.Time            `json:"created_at"`
	Answers     map[string]string    `json:"answers"`
	Attachments []session.Attachment `json:"attachments,omitempty"`
	Summary     string               `json:"summary"`
}

// Finalizer пишет заявки в jsonl-журнал, запоминает ответы пользователя
// для предложения «повторить данные» и запускает настроенную команду
// после регистрации.
type Finalizer struct {
	path    string
	command string
	cache   *bigcache.BigCache

	mu sync.Mutex
}

func NewFinalizer(path, command string, cache *bigcache.BigCache) *Finalizer {
	return &Finalizer{path: path, command: command, cache: cache}
}

// Create регистрирует заявку и возвращает её номер.
func (f *Finalizer) Create(ctx context.Context, userID string, answers map[string]string, attachments []session.Attachment, summary string) (string, error) {
	record := Record{
		ID:          uuid.NewString(),
		UserID:      userID,
		CreatedAt:   time.Now(),
		Answers:     answers,
		Attachments: attachments,
		Summary:     summary,
	}

	if err := f.appendRecord(record); err != nil {
		return "", err
	}

	f.rememberAnswers(userID, answers)

	if f.command != "" {
		go f.runHook(record.ID)
	}

	logger.Event("Зарегистрирована заявка", record.ID, "от", userID)
	return record.ID, nil
}

func (f *Finalizer) appendRecord(record Record) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("не удалось сериализовать заявку: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
		return err
	}

	file, err := os.OpenFile(f.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("не удалось открыть журнал заявок: %w", err)
	}
	defer file.Close()

	_, err = file.Write(append(data, '\n'))
	return err
}

// rememberAnswers кладёт ответы по полям локации в кеш для следующего
// диалога этого пользователя.
func (f *Finalizer) rememberAnswers(userID string, answers map[string]string) {
	if f.cache == nil {
		return
	}

	last := make(map[string]string, len(presets.LocationFields))
	for _, field := range presets.LocationFields {
		if value, ok := answers[field]; ok && value != "" {
			last[field] = value
		}
	}
	if len(last) == 0 {
		return
	}

	data, err := json.Marshal(last)
	if err != nil {
		logger.Warning("Не удалось сериализовать прошлые ответы:", userID, err)
		return
	}
	if err := f.cache.Set(lastKey(userID), data); err != nil {
		logger.Warning("Не удалось записать прошлые ответы в кеш:", userID, err)
	}
}

// LastAnswers возвращает ответы прошлой заявки пользователя или nil.
func (f *Finalizer) LastAnswers(userID string) map[string]string {
	if f.cache == nil {
		return nil
	}

	data, err := f.cache.Get(lastKey(userID))
	if err != nil {
		return nil
	}

	var last map[string]string
	if err := json.Unmarshal(data, &last); err != nil {
		logger.Warning("Битые прошлые ответы в кеше:", userID, err)
		return nil
	}
	return last
}

// runHook выполняет настроенную команду, передавая номер заявки
// последним аргументом. Ошибки только логируются.
func (f *Finalizer) runHook(ticketID string) {
	args, err := shellquote.Split(f.command)
	if err != nil || len(args) == 0 {
		logger.Warning("Не корректная команда on_ticket_command:", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, args[0], append(args[1:], ticketID)...)
	if out, err := cmd.CombinedOutput(); err != nil {
		logger.Warning("Команда on_ticket_command завершилась с ошибкой:", err, string(out))
	}
}

func lastKey(userID string) string {
	return "last:" + userID
}
