package nussbaum

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case float64:
		return t, true
	case int:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func floatOr(v any, def float64) float64 {
	if f, ok := asFloat(v); ok {
		return f
	}
	return def
}

func asBool(v any) (bool, bool) {
	switch t := v.(type) {
	case bool:
		return t, true
	case json.Number, float64, int:
		f, _ := asFloat(t)
		return f != 0, true
	case string:
		b, err := strconv.ParseBool(t)
		return b, err == nil
	default:
		return false, false
	}
}

func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// formValue renders a decoded JSON value the way the controller expects it back in a form.
func formValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case []any:
		// arrays are posted comma-joined, nested objects as JSON
		parts := make([]string, len(t))
		for i, e := range t {
			parts[i] = formValue(e)
		}
		return strings.Join(parts, ",")
	case map[string]any:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	default:
		return fmt.Sprint(t)
	}
}

// roomList accepts both a bare array and a {"rooms": [...]} wrapper.
func roomList(v any) []map[string]any {
	var items []any
	switch t := v.(type) {
	case []any:
		items = t
	case map[string]any:
		items, _ = t["rooms"].([]any)
	}
	out := make([]map[string]any, 0, len(items))
	for _, it := range items {
		if m, ok := it.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func parseRoomID(m map[string]any) (int, bool) {
	f, ok := asFloat(m["id"])
	return int(f), ok
}

// levelToPercent converts the 0..3 battery scale.
func levelToPercent(level int) int {
	switch level {
	case 1:
		return 33
	case 2:
		return 66
	case 3:
		return 100
	default:
		return 0
	}
}
