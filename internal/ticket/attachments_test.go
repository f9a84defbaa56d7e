package ticket

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDirSinkStore(t *testing.T) {
	dir := t.TempDir()
	sink := NewDirSink(dir)

	ref, err := sink.Store(context.Background(), "tg:42", "photo", []byte("jpeg-bytes"))
	if err != nil {
		t.Fatalf("Store: %v", err)
	}

	data, err := os.ReadFile(ref)
	if err != nil {
		t.Fatalf("файл не записан: %v", err)
	}
	if string(data) != "jpeg-bytes" {
		t.Errorf("содержимое = %q", data)
	}
	if !strings.HasSuffix(ref, ".jpg") {
		t.Errorf("ref = %q, ожидалось расширение .jpg", ref)
	}
	// двоеточие из id не должно попасть в путь
	if got := filepath.Base(filepath.Dir(ref)); got != "tg_42" {
		t.Errorf("каталог пользователя = %q", got)
	}
}

func TestDirSinkUnknownKind(t *testing.T) {
	sink := NewDirSink(t.TempDir())

	ref, err := sink.Store(context.Background(), "vk:1", "sticker", []byte{1})
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if !strings.HasSuffix(ref, ".bin") {
		t.Errorf("ref = %q", ref)
	}
}
