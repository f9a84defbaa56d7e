package presets

import (
	"encoding/json"
	"os"
	"sync"

	"support-flow-bot/internal/logger"
)

type (
	// LocationTreeSource отдаёт сырое дерево локаций.
	LocationTreeSource interface {
		Load() map[string]interface{}
	}

	// DefinitionsSource отдаёт сырые описания полей.
	DefinitionsSource interface {
		Load() map[string]interface{}
	}
)

// FileSource читает json-файл администратора. Отсутствующий или битый
// файл — пустая карта, это штатная ситуация.
type FileSource struct {
	Path string
}

func (s FileSource) Load() map[string]interface{} {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		logger.Debug("Файл данных не прочитан:", s.Path)
		return map[string]interface{}{}
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		logger.Warning("Не корректный json в файле:", s.Path, err)
		return map[string]interface{}{}
	}
	return raw
}

// Provider кеширует собранный каталог и перечитывает источники после
// Invalidate (срабатывает по fsnotify или после сохранения настроек).
type Provider struct {
	tree   LocationTreeSource
	fields DefinitionsSource

	mu      sync.RWMutex
	catalog *Catalog
}

func NewProvider(tree LocationTreeSource, fields DefinitionsSource) *Provider {
	return &Provider{tree: tree, fields: fields}
}

// Catalog возвращает актуальный каталог, при необходимости собирая его.
func (p *Provider) Catalog() *Catalog {
	p.mu.RLock()
	catalog := p.catalog
	p.mu.RUnlock()
	if catalog != nil {
		return catalog
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.catalog == nil {
		p.catalog = BuildCatalog(p.tree.Load(), p.fields.Load())
	}
	return p.catalog
}

// Invalidate сбрасывает кеш, следующий Catalog соберёт каталог заново.
func (p *Provider) Invalidate() {
	p.mu.Lock()
	p.catalog = nil
	p.mu.Unlock()
}
