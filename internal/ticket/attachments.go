package ticket

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// DirSink сохраняет вложения пользователей в файловый каталог.
type DirSink struct {
	dir string
}

func NewDirSink(dir string) *DirSink {
	return &DirSink{dir: dir}
}

// Store пишет файл в подкаталог пользователя и возвращает путь к нему.
func (s *DirSink) Store(ctx context.Context, userID, kind string, data []byte) (string, error) {
	userDir := filepath.Join(s.dir, sanitizeName(userID))
	if err := os.MkdirAll(userDir, 0755); err != nil {
		return "", fmt.Errorf("не удалось создать каталог вложений: %w", err)
	}

	name := fmt.Sprintf("%s_%s%s", time.Now().Format("20060102_150405"), uuid.NewString()[:8], extFor(kind))
	path := filepath.Join(userDir, name)

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("не удалось сохранить вложение: %w", err)
	}
	return path, nil
}

func extFor(kind string) string {
	switch kind {
	case "photo", "image":
		return ".jpg"
	case "voice", "audio":
		return ".ogg"
	case "video":
		return ".mp4"
	default:
		return ".bin"
	}
}

// sanitizeName убирает из id пользователя символы опасные для пути.
func sanitizeName(name string) string {
	result := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			result = append(result, r)
		default:
			result = append(result, '_')
		}
	}
	return string(result)
}
