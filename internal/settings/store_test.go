package settings

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"support-flow-bot/internal/presets"
)

func TestFileStoreMissingFile(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "settings.json"))

	raw, err := s.LoadRaw()
	if err != nil {
		t.Fatalf("LoadRaw: %v", err)
	}
	if len(raw) != 0 {
		t.Errorf("raw = %v, want пустую конфигурацию", raw)
	}
}

func TestFileStoreBrokenJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte("{не json"), 0644); err != nil {
		t.Fatal(err)
	}

	raw, err := NewFileStore(path).LoadRaw()
	if err != nil {
		t.Fatalf("LoadRaw: %v", err)
	}
	if len(raw) != 0 {
		t.Errorf("raw = %v", raw)
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.json")
	s := NewFileStore(path)

	in := map[string]interface{}{
		"active_template_id":       "tpl",
		"unblock_cooldown_minutes": float64(30),
	}
	if err := s.SaveRaw(in); err != nil {
		t.Fatalf("SaveRaw: %v", err)
	}

	out, err := s.LoadRaw()
	if err != nil {
		t.Fatalf("LoadRaw: %v", err)
	}
	if !reflect.DeepEqual(out, in) {
		t.Errorf("round trip: %v != %v", out, in)
	}
}

func TestManagerSaveUpdatesCache(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "settings.json"))
	m := NewManager(store, staticTestCatalog{testCatalog()}, DefaultMaxScale)

	before := m.Model()
	if before.ActiveTemplate() == nil {
		t.Fatal("пустое хранилище должно дать шаблон по умолчанию")
	}

	raw := map[string]interface{}{
		"question_templates": []interface{}{
			map[string]interface{}{
				"id":            "mine",
				"name":          "Мой шаблон",
				"question_flow": []interface{}{"Опишите срочность"},
			},
		},
		"active_template_id": "mine",
	}
	saved, err := m.Save(raw)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if saved.ActiveTemplateID != "mine" {
		t.Errorf("ActiveTemplateID = %q", saved.ActiveTemplateID)
	}
	if len(saved.Templates) != 1 || saved.Templates[0].Name != "Мой шаблон" {
		t.Errorf("templates = %+v, ожидался заданный шаблон", saved.Templates)
	}
	if m.Model() != saved {
		t.Error("Model должен отдавать сохранённую модель без перечитывания")
	}

	// на диске лежит каноническая форма, после сброса кеша она
	// перечитывается в эквивалентную модель
	m.Invalidate()
	reread := m.Model()
	if reread.ActiveTemplateID != "mine" {
		t.Errorf("после Invalidate: ActiveTemplateID = %q", reread.ActiveTemplateID)
	}
	if !reflect.DeepEqual(reread.Raw(), saved.Raw()) {
		t.Error("каноническая форма изменилась при перечитывании")
	}
}

type staticTestCatalog struct {
	c *presets.Catalog
}

func (s staticTestCatalog) Catalog() *presets.Catalog { return s.c }
