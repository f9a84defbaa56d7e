package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"support-flow-bot/internal/logger"
)

// Store — персистентность сырых настроек админ-панели.
type Store interface {
	LoadRaw() (map[string]interface{}, error)
	SaveRaw(raw map[string]interface{}) error
}

// FileStore хранит настройки в json-файле. Отсутствующий файл и битый
// json считаются пустой конфигурацией — санитизатор подставит дефолты.
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) LoadRaw() (map[string]interface{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]interface{}{}, nil
		}
		return map[string]interface{}{}, fmt.Errorf("не удалось прочитать настройки: %w", err)
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		logger.Warning("Не корректный json настроек, используются значения по умолчанию:", err)
		return map[string]interface{}{}, nil
	}
	if raw == nil {
		raw = map[string]interface{}{}
	}
	return raw, nil
}

func (s *FileStore) SaveRaw(raw map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("не удалось сериализовать настройки: %w", err)
	}

	// пишем во временный файл чтобы не оставить настройки полузаписанными
	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
