package rawjson

import (
	"reflect"
	"testing"
)

func TestString(t *testing.T) {
	cases := []struct {
		name string
		in   interface{}
		want string
	}{
		{"trimmed", "  привет  ", "привет"},
		{"int float", float64(42), "42"},
		{"fraction", 4.5, "4.5"},
		{"bool", true, "true"},
		{"nil", nil, ""},
		{"map", map[string]interface{}{}, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := String(tc.in); got != tc.want {
				t.Errorf("String(%v) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestInt(t *testing.T) {
	cases := []struct {
		name string
		in   interface{}
		want int
		ok   bool
	}{
		{"float", float64(10), 10, true},
		{"string", " 7 ", 7, true},
		{"bad string", "abc", 0, false},
		{"nil", nil, 0, false},
		{"list", []interface{}{1}, 0, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := Int(tc.in)
			if got != tc.want || ok != tc.ok {
				t.Errorf("Int(%v) = (%d, %v), want (%d, %v)", tc.in, got, ok, tc.want, tc.ok)
			}
		})
	}
}

func TestMapAndListAreTotal(t *testing.T) {
	if got := Map("не карта"); len(got) != 0 {
		t.Errorf("Map on non-map should be empty, got %v", got)
	}
	if got := List(42); got != nil {
		t.Errorf("List on non-list should be nil, got %v", got)
	}
}

func TestStringList(t *testing.T) {
	in := []interface{}{" a ", "", 5, nil, "b"}
	want := []string{"a", "5", "b"}
	if got := StringList(in); !reflect.DeepEqual(got, want) {
		t.Errorf("StringList = %v, want %v", got, want)
	}
}

func TestFirstKey(t *testing.T) {
	m := map[string]interface{}{"scaleSize": "", "scale": 3}
	if got := FirstKey(m, "scale_size", "scaleSize", "scale"); got != "3" {
		t.Errorf("FirstKey = %q, want %q", got, "3")
	}

	if n, ok := FirstIntKey(m, "scale_size", "scaleSize", "scale"); !ok || n != 3 {
		t.Errorf("FirstIntKey = (%d, %v), want (3, true)", n, ok)
	}
}
