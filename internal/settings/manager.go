package settings

import (
	"sync"

	"support-flow-bot/internal/logger"
	"support-flow-bot/internal/presets"
)

// CatalogProvider отдаёт актуальный каталог вариантов.
type CatalogProvider interface {
	Catalog() *presets.Catalog
}

// Manager кеширует каноническую модель настроек и пересобирает её после
// Invalidate (fsnotify на файле настроек или сохранение из админки).
type Manager struct {
	store    Store
	catalog  CatalogProvider
	maxScale int

	mu    sync.RWMutex
	model *Model
}

func NewManager(store Store, catalog CatalogProvider, maxScale int) *Manager {
	return &Manager{store: store, catalog: catalog, maxScale: maxScale}
}

// Model возвращает актуальную каноническую модель.
func (m *Manager) Model() *Model {
	m.mu.RLock()
	model := m.model
	m.mu.RUnlock()
	if model != nil {
		return model
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.model == nil {
		raw, err := m.store.LoadRaw()
		if err != nil {
			logger.Warning("Ошибка чтения настроек:", err)
		}
		m.model = Sanitize(raw, m.catalog.Catalog(), m.maxScale)
	}
	return m.model
}

// Save санитизирует присланные админкой настройки, сохраняет
// каноническую форму и обновляет кеш.
func (m *Manager) Save(raw map[string]interface{}) (*Model, error) {
	model := Sanitize(raw, m.catalog.Catalog(), m.maxScale)

	if err := m.store.SaveRaw(model.Raw()); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.model = model
	m.mu.Unlock()

	return model, nil
}

// Invalidate сбрасывает кеш, следующий Model перечитает настройки.
// Уже начатые диалоги держат собственный снимок шагов и изменений
// не видят.
func (m *Manager) Invalidate() {
	m.mu.Lock()
	m.model = nil
	m.mu.Unlock()
}
