package presets

import (
	"reflect"
	"testing"
)

func testTree() map[string]interface{} {
	return map[string]interface{}{
		"CafeA": map[string]interface{}{
			"Restaurant": map[string]interface{}{
				"Moscow": []interface{}{"Branch1", "Branch2"},
				"Kazan":  []interface{}{"Branch3"},
			},
			"Bar": map[string]interface{}{
				"Moscow": []interface{}{"Branch4"},
			},
		},
		"CafeB": map[string]interface{}{
			"Restaurant": map[string]interface{}{
				"Moscow": []interface{}{"Branch1"},
			},
		},
	}
}

func TestBuildCatalogOptionLists(t *testing.T) {
	catalog := BuildCatalog(testTree(), nil)

	cases := []struct {
		field string
		want  []string
	}{
		{FieldBusiness, []string{"CafeA", "CafeB"}},
		{FieldLocationType, []string{"Bar", "Restaurant"}},
		{FieldCity, []string{"Kazan", "Moscow"}},
		{FieldLocationName, []string{"Branch1", "Branch2", "Branch3", "Branch4"}},
	}

	for _, tc := range cases {
		if got := catalog.AllOptions(tc.field); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("AllOptions(%s) = %v, want %v", tc.field, got, tc.want)
		}
	}
}

func TestBuildCatalogSkipsMalformedNodes(t *testing.T) {
	tree := map[string]interface{}{
		"CafeA": map[string]interface{}{
			"Restaurant": "не карта",
			"Bar": map[string]interface{}{
				"Moscow": []interface{}{"Branch1"},
				" ":      []interface{}{"Branch2"},
				"Kazan":  []interface{}{"", "  "},
			},
		},
		"":      map[string]interface{}{"X": map[string]interface{}{}},
		"CafeB": 42,
	}

	catalog := BuildCatalog(tree, nil)

	if got := catalog.AllOptions(FieldBusiness); !reflect.DeepEqual(got, []string{"CafeA"}) {
		t.Errorf("businesses = %v, want [CafeA]", got)
	}
	if got := catalog.AllOptions(FieldLocationType); !reflect.DeepEqual(got, []string{"Bar"}) {
		t.Errorf("types = %v, want [Bar]", got)
	}
	if got := catalog.AllOptions(FieldCity); !reflect.DeepEqual(got, []string{"Moscow"}) {
		t.Errorf("cities = %v, want [Moscow]", got)
	}
}

func TestCityDependencyCarriesParentsAndPaths(t *testing.T) {
	catalog := BuildCatalog(testTree(), nil)

	dep := catalog.Fields[FieldCity].Dependencies["Moscow"]
	if dep == nil {
		t.Fatal("нет зависимости для Moscow")
	}

	if got := dep.Parents[FieldBusiness]; !reflect.DeepEqual(got, []string{"CafeA", "CafeB"}) {
		t.Errorf("parents = %v, want [CafeA CafeB]", got)
	}

	wantPaths := [][]string{{"CafeA", "Bar"}, {"CafeA", "Restaurant"}, {"CafeB", "Restaurant"}}
	if !reflect.DeepEqual(dep.Paths, wantPaths) {
		t.Errorf("paths = %v, want %v", dep.Paths, wantPaths)
	}
}

func TestLocationNameDependencyIsFullPathOnly(t *testing.T) {
	catalog := BuildCatalog(testTree(), nil)

	dep := catalog.Fields[FieldLocationName].Dependencies["Branch1"]
	if dep == nil {
		t.Fatal("нет зависимости для Branch1")
	}
	if len(dep.Parents) != 0 {
		t.Errorf("у location_name не должно быть одноуровневых родителей: %v", dep.Parents)
	}

	wantPaths := [][]string{{"CafeA", "Restaurant", "Moscow"}, {"CafeB", "Restaurant", "Moscow"}}
	if !reflect.DeepEqual(dep.Paths, wantPaths) {
		t.Errorf("paths = %v, want %v", dep.Paths, wantPaths)
	}
}

func TestOptionsCascade(t *testing.T) {
	catalog := BuildCatalog(testTree(), nil)

	cases := []struct {
		name    string
		field   string
		answers map[string]string
		want    []string
	}{
		{"business without answers", FieldBusiness, nil, []string{"CafeA", "CafeB"}},
		{"types under CafeA", FieldLocationType, map[string]string{FieldBusiness: "CafeA"}, []string{"Bar", "Restaurant"}},
		{"type before business", FieldLocationType, nil, nil},
		{"city under pair", FieldCity, map[string]string{FieldBusiness: "CafeA", FieldLocationType: "Restaurant"}, []string{"Kazan", "Moscow"}},
		{"city under nonexistent type", FieldCity, map[string]string{FieldBusiness: "CafeA", FieldLocationType: "Club"}, nil},
		{"city under business only", FieldCity, map[string]string{FieldBusiness: "CafeA"}, []string{"Kazan", "Moscow"}},
		{"city before business", FieldCity, nil, nil},
		{"names under triple", FieldLocationName, map[string]string{FieldBusiness: "CafeA", FieldLocationType: "Restaurant", FieldCity: "Moscow"}, []string{"Branch1", "Branch2"}},
		{"names without city", FieldLocationName, map[string]string{FieldBusiness: "CafeA", FieldLocationType: "Restaurant"}, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := catalog.Options(tc.field, tc.answers); !reflect.DeepEqual(got, tc.want) {
				t.Errorf("Options(%s, %v) = %v, want %v", tc.field, tc.answers, got, tc.want)
			}
		})
	}
}

func TestCityResolvesByBusinessAlone(t *testing.T) {
	catalog := BuildCatalog(map[string]interface{}{
		"CafeA": map[string]interface{}{
			"Restaurant": map[string]interface{}{
				"Moscow": []interface{}{"Branch1", "Branch2"},
			},
		},
	}, nil)

	if got := catalog.Options(FieldCity, map[string]string{FieldBusiness: "CafeA"}); !reflect.DeepEqual(got, []string{"Moscow"}) {
		t.Errorf("город по одному бизнесу = %v, want [Moscow]", got)
	}
	// явно выбранный несуществующий тип не расширяется до объединения
	if got := catalog.Options(FieldCity, map[string]string{FieldBusiness: "CafeA", FieldLocationType: "Bar"}); len(got) != 0 {
		t.Errorf("город под несуществующим типом = %v, want пусто", got)
	}
}

func TestFallbackFieldFromDefinitions(t *testing.T) {
	defs := map[string]interface{}{
		"urgency": map[string]interface{}{
			"label":   "Срочность",
			"options": []interface{}{"Высокая", "Низкая", "Высокая", " "},
		},
		FieldBusiness: map[string]interface{}{
			"label": "Сеть заведений",
		},
	}

	catalog := BuildCatalog(testTree(), defs)

	if got := catalog.Options("urgency", nil); !reflect.DeepEqual(got, []string{"Высокая", "Низкая"}) {
		t.Errorf("urgency options = %v", got)
	}
	if !catalog.Has("custom", "urgency") {
		t.Error("(custom, urgency) должно быть допустимой парой")
	}
	if catalog.Has(GroupLocations, "urgency") {
		t.Error("(locations, urgency) не должно быть допустимой парой")
	}

	// описание каскадного поля переопределяет подпись, но не варианты
	if got := catalog.Label(FieldBusiness); got != "Сеть заведений" {
		t.Errorf("label = %q", got)
	}
	if got := catalog.Label(FieldCity); got != "Выберите город" {
		t.Errorf("default label = %q", got)
	}
}

func TestBuildCatalogOnEmptyInputs(t *testing.T) {
	catalog := BuildCatalog(nil, nil)

	for _, field := range LocationFields {
		if got := catalog.AllOptions(field); len(got) != 0 {
			t.Errorf("AllOptions(%s) = %v, want empty", field, got)
		}
		if !catalog.Has(GroupLocations, field) {
			t.Errorf("(locations, %s) должна оставаться допустимой парой", field)
		}
	}
}
