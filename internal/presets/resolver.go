package presets

import (
	"sort"
	"strings"

	"support-flow-bot/internal/rawjson"
)

// BuildCatalog строит каталог из сырого дерева локаций и сырых описаний
// полей. Данные администратора считаются недоверенными: узлы неожиданной
// формы пропускаются, пустые строки отбрасываются, ошибок не бывает.
func BuildCatalog(locationTree, fieldDefs map[string]interface{}) *Catalog {
	catalog := &Catalog{
		Fields: make(map[string]*Field),
		Tree:   normalizeTree(locationTree),
	}

	business := &Field{Name: FieldBusiness, Group: GroupLocations, Cascade: true}
	locationType := &Field{Name: FieldLocationType, Group: GroupLocations, Cascade: true, Dependencies: map[string]*Dependency{}}
	city := &Field{Name: FieldCity, Group: GroupLocations, Cascade: true, Dependencies: map[string]*Dependency{}}
	locationName := &Field{Name: FieldLocationName, Group: GroupLocations, Cascade: true, Dependencies: map[string]*Dependency{}}

	typeParents := map[string]map[string]bool{}
	cityParents := map[string]map[string]bool{}
	cityPaths := map[string]map[string]bool{}
	namePaths := map[string]map[string]bool{}

	for biz, types := range catalog.Tree {
		business.Options = append(business.Options, biz)

		for typ, cities := range types {
			appendSet(typeParents, typ, biz)

			for cityName, names := range cities {
				appendSet(cityParents, cityName, biz)
				appendSet(cityPaths, cityName, pathKey(biz, typ))

				for _, name := range names {
					appendSet(namePaths, name, pathKey(biz, typ, cityName))
				}
			}
		}
	}

	sort.Strings(business.Options)

	for typ, parents := range typeParents {
		locationType.Options = append(locationType.Options, typ)
		locationType.Dependencies[typ] = &Dependency{
			Parents: map[string][]string{FieldBusiness: setToSorted(parents)},
		}
	}
	sort.Strings(locationType.Options)

	// у города храним и родительские бизнесы, и пары (бизнес, тип):
	// один город достижим через несколько веток типов
	for cityName, parents := range cityParents {
		city.Options = append(city.Options, cityName)
		city.Dependencies[cityName] = &Dependency{
			Parents: map[string][]string{FieldBusiness: setToSorted(parents)},
			Paths:   setToPaths(cityPaths[cityName]),
		}
	}
	sort.Strings(city.Options)

	// объект привязан только к полному кортежу (бизнес, тип, город):
	// одноимённые объекты в разных ветках различаются валидностью
	for name, paths := range namePaths {
		locationName.Options = append(locationName.Options, name)
		locationName.Dependencies[name] = &Dependency{Paths: setToPaths(paths)}
	}
	sort.Strings(locationName.Options)

	catalog.Fields[FieldBusiness] = business
	catalog.Fields[FieldLocationType] = locationType
	catalog.Fields[FieldCity] = city
	catalog.Fields[FieldLocationName] = locationName

	// произвольные поля администратора: варианты берутся напрямую
	// из описания, каскада нет
	for rawName, rawDef := range fieldDefs {
		name := strings.TrimSpace(rawName)
		if name == "" || isLocationField(name) {
			// для каскадных полей описание может переопределить подпись
			if name != "" {
				def := rawjson.Map(rawDef)
				if label := rawjson.String(def["label"]); label != "" {
					catalog.Fields[name].Label = label
				}
			}
			continue
		}

		def := rawjson.Map(rawDef)
		field := &Field{
			Name:    name,
			Group:   rawjson.StringOr(def["group"], "custom"),
			Label:   rawjson.String(def["label"]),
			Options: dedupeSorted(rawjson.StringList(def["options"])),
		}
		catalog.Fields[name] = field
	}

	return catalog
}

// Options возвращает живой список вариантов поля с учётом уже данных
// ответов. Без ответа по бизнесу зависимые поля пустые; город при
// выбранном бизнесе резолвится и без типа (объединение по веткам),
// объект — только по полному кортежу.
func (c *Catalog) Options(field string, answers map[string]string) []string {
	switch field {
	case FieldBusiness:
		return append([]string(nil), c.AllOptions(FieldBusiness)...)

	case FieldLocationType:
		types, ok := c.Tree[answers[FieldBusiness]]
		if !ok {
			return nil
		}
		return sortedKeys(types)

	case FieldCity:
		types, ok := c.Tree[answers[FieldBusiness]]
		if !ok {
			return nil
		}
		if typ, answered := answers[FieldLocationType]; answered {
			cities, ok := types[typ]
			if !ok {
				return nil
			}
			return sortedKeys(cities)
		}
		// тип ещё не выбран: города берутся объединением по всем
		// веткам типов этого бизнеса
		union := make(map[string]bool)
		for _, cities := range types {
			for cityName := range cities {
				union[cityName] = true
			}
		}
		return setToSorted(union)

	case FieldLocationName:
		types, ok := c.Tree[answers[FieldBusiness]]
		if !ok {
			return nil
		}
		cities, ok := types[answers[FieldLocationType]]
		if !ok {
			return nil
		}
		names, ok := cities[answers[FieldCity]]
		if !ok {
			return nil
		}
		return append([]string(nil), names...)

	default:
		return append([]string(nil), c.AllOptions(field)...)
	}
}

// normalizeTree приводит произвольную вложенную структуру к форме
// бизнес -> тип -> город -> отсортированные объекты.
func normalizeTree(raw map[string]interface{}) map[string]map[string]map[string][]string {
	tree := make(map[string]map[string]map[string][]string)

	for rawBiz, rawTypes := range raw {
		biz := strings.TrimSpace(rawBiz)
		types := rawjson.Map(rawTypes)
		if biz == "" || len(types) == 0 {
			continue
		}

		for rawType, rawCities := range types {
			typ := strings.TrimSpace(rawType)
			cities := rawjson.Map(rawCities)
			if typ == "" || len(cities) == 0 {
				continue
			}

			for rawCity, rawNames := range cities {
				cityName := strings.TrimSpace(rawCity)
				names := dedupeSorted(rawjson.StringList(rawNames))
				if cityName == "" || len(names) == 0 {
					continue
				}

				if tree[biz] == nil {
					tree[biz] = make(map[string]map[string][]string)
				}
				if tree[biz][typ] == nil {
					tree[biz][typ] = make(map[string][]string)
				}
				tree[biz][typ][cityName] = mergeSorted(tree[biz][typ][cityName], names)
			}
		}
	}

	return tree
}

const pathSeparator = "\x1f"

func pathKey(parts ...string) string {
	return strings.Join(parts, pathSeparator)
}

func appendSet(sets map[string]map[string]bool, key, value string) {
	if sets[key] == nil {
		sets[key] = make(map[string]bool)
	}
	sets[key][value] = true
}

func setToSorted(set map[string]bool) []string {
	result := make([]string, 0, len(set))
	for v := range set {
		result = append(result, v)
	}
	sort.Strings(result)
	return result
}

func setToPaths(set map[string]bool) [][]string {
	keys := setToSorted(set)
	result := make([][]string, 0, len(keys))
	for _, key := range keys {
		result = append(result, strings.Split(key, pathSeparator))
	}
	return result
}

func sortedKeys[V any](m map[string]V) []string {
	result := make([]string, 0, len(m))
	for k := range m {
		result = append(result, k)
	}
	sort.Strings(result)
	return result
}

func dedupeSorted(items []string) []string {
	if len(items) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(items))
	result := make([]string, 0, len(items))
	for _, item := range items {
		if !seen[item] {
			seen[item] = true
			result = append(result, item)
		}
	}
	sort.Strings(result)
	return result
}

func mergeSorted(existing, extra []string) []string {
	if len(existing) == 0 {
		return extra
	}
	return dedupeSorted(append(existing, extra...))
}
