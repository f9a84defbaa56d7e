package session

import (
	"errors"
	"hash/fnv"
	"sync"

	"support-flow-bot/internal/settings"
)

// ErrSessionExists возвращается при попытке начать вторую заявку.
var ErrSessionExists = errors.New("у пользователя уже есть активная сессия")

const shardCount = 16

type (
	// Manager — процессная таблица сессий с шардированием по id
	// пользователя: сообщения разных пользователей не конкурируют
	// за общий замок.
	Manager struct {
		shards [shardCount]shard
	}

	shard struct {
		mu       sync.RWMutex
		sessions map[string]*Session
	}
)

func NewManager() *Manager {
	m := &Manager{}
	for i := range m.shards {
		m.shards[i].sessions = make(map[string]*Session)
	}
	return m
}

func (m *Manager) shard(userID string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return &m.shards[h.Sum32()%shardCount]
}

// Create регистрирует новую сессию. Если сессия уже есть — возвращает
// её и ErrSessionExists, существующее состояние не трогается.
func (m *Manager) Create(userID string, flow []settings.QuestionStep) (*Session, error) {
	sh := m.shard(userID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if existing, ok := sh.sessions[userID]; ok {
		return existing, ErrSessionExists
	}

	s := newSession(userID, flow)
	sh.sessions[userID] = s
	return s, nil
}

// Get возвращает активную сессию пользователя.
func (m *Manager) Get(userID string) (*Session, bool) {
	sh := m.shard(userID)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	s, ok := sh.sessions[userID]
	return s, ok
}

// Delete удаляет сессию (завершение или отмена).
func (m *Manager) Delete(userID string) {
	sh := m.shard(userID)
	sh.mu.Lock()
	delete(sh.sessions, userID)
	sh.mu.Unlock()
}

// Len возвращает количество активных сессий.
func (m *Manager) Len() int {
	total := 0
	for i := range m.shards {
		m.shards[i].mu.RLock()
		total += len(m.shards[i].sessions)
		m.shards[i].mu.RUnlock()
	}
	return total
}
