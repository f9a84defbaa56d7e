// Пакет rawjson содержит тотальные преобразователи для работы с
// произвольными данными после json.Unmarshal в interface{}.
// Функции никогда не паникуют и на неожиданных типах возвращают
// нулевые значения — настройки администратора считаются недоверенными.
package rawjson

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Map приводит значение к map[string]interface{}.
func Map(v interface{}) map[string]interface{} {
	m, ok := v.(map[string]interface{})
	if !ok {
		return map[string]interface{}{}
	}
	return m
}

// List приводит значение к []interface{}.
func List(v interface{}) []interface{} {
	l, ok := v.([]interface{})
	if !ok {
		return nil
	}
	return l
}

// String приводит значение к строке с обрезкой пробелов.
// Числа форматируются, всё остальное превращается в "".
func String(v interface{}) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	case json.Number:
		return t.String()
	default:
		return ""
	}
}

// StringOr возвращает строку или def если после обрезки строка пустая.
func StringOr(v interface{}, def string) string {
	if s := String(v); s != "" {
		return s
	}
	return def
}

// Int пытается получить целое из числа или строки.
func Int(v interface{}) (int, bool) {
	switch t := v.(type) {
	case float64:
		return int(t), true
	case int:
		return t, true
	case int64:
		return int(t), true
	case json.Number:
		n, err := t.Int64()
		if err != nil {
			return 0, false
		}
		return int(n), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// IntOr возвращает целое или def если значение нельзя разобрать.
func IntOr(v interface{}, def int) int {
	if n, ok := Int(v); ok {
		return n
	}
	return def
}

// StringList собирает непустые строки из списка произвольных значений.
func StringList(v interface{}) []string {
	items := List(v)
	if len(items) == 0 {
		return nil
	}
	result := make([]string, 0, len(items))
	for _, item := range items {
		if s := String(item); s != "" {
			result = append(result, s)
		}
	}
	return result
}

// FirstKey возвращает первое непустое строковое значение
// среди перечисленных ключей (legacy-написания одного поля).
func FirstKey(m map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if s := String(m[key]); s != "" {
			return s
		}
	}
	return ""
}

// FirstIntKey возвращает первое разбираемое целое среди ключей.
func FirstIntKey(m map[string]interface{}, keys ...string) (int, bool) {
	for _, key := range keys {
		if _, exist := m[key]; !exist {
			continue
		}
		if n, ok := Int(m[key]); ok {
			return n, true
		}
	}
	return 0, false
}
