package presets

// Фиксированные поля каскадного дерева локаций.
const (
	GroupLocations = "locations"

	FieldBusiness     = "business"
	FieldLocationType = "location_type"
	FieldCity         = "city"
	FieldLocationName = "location_name"
)

// LocationFields перечисляет каскадные поля в порядке вложенности дерева.
var LocationFields = []string{FieldBusiness, FieldLocationType, FieldCity, FieldLocationName}

// подписи по умолчанию для каскадных полей
var defaultLabels = map[string]string{
	FieldBusiness:     "Выберите бизнес",
	FieldLocationType: "Выберите тип объекта",
	FieldCity:         "Выберите город",
	FieldLocationName: "Выберите объект",
}

type (
	// Catalog — результат разбора дерева локаций и описаний полей.
	// Строится заново при каждом запросе, состояния не несёт.
	Catalog struct {
		// описания полей по имени
		Fields map[string]*Field
		// нормализованное дерево бизнес -> тип -> город -> объекты
		Tree map[string]map[string]map[string][]string
	}

	// Field — плоский список вариантов одного поля плюс индекс зависимостей.
	Field struct {
		Name  string `json:"name"`
		Group string `json:"group"`
		Label string `json:"label"`
		// участвует ли поле в каскаде локаций
		Cascade bool `json:"cascade"`
		// отсортированные уникальные варианты
		Options []string `json:"options"`
		// зависимости по варианту
		Dependencies map[string]*Dependency `json:"dependencies,omitempty"`
	}

	// Dependency описывает под какими родительскими значениями
	// встречается вариант.
	Dependency struct {
		// поле родителя -> отсортированные значения
		Parents map[string][]string `json:"parents,omitempty"`
		// полные кортежи родительских значений
		Paths [][]string `json:"paths,omitempty"`
	}
)

// Has сообщает допустима ли пара (группа, поле) для preset-шага.
func (c *Catalog) Has(group, field string) bool {
	f, ok := c.Fields[field]
	return ok && f.Group == group
}

// Label возвращает подпись поля либо само имя поля.
func (c *Catalog) Label(field string) string {
	if f, ok := c.Fields[field]; ok && f.Label != "" {
		return f.Label
	}
	if label, ok := defaultLabels[field]; ok {
		return label
	}
	return field
}

// AllOptions возвращает полный список вариантов поля без учёта каскада.
func (c *Catalog) AllOptions(field string) []string {
	if f, ok := c.Fields[field]; ok {
		return f.Options
	}
	return nil
}

func isLocationField(name string) bool {
	for _, f := range LocationFields {
		if f == name {
			return true
		}
	}
	return false
}
