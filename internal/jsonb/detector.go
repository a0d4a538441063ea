package jsonb

import (
	"encoding/json"
	"strings"
)

// IsJSON checks if a string value looks like a JSON document
func IsJSON(value string) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return false
	}
	var parsed interface{}
	return json.Unmarshal([]byte(value), &parsed) == nil
}

// DecodeList reads an option list leniently: a JSON array, a JSON string,
// or a comma separated string. Empty items are dropped.
func DecodeList(value string) []string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}

	if strings.HasPrefix(value, "[") && IsJSON(value) {
		var items []interface{}
		if err := json.Unmarshal([]byte(value), &items); err == nil {
			out := make([]string, 0, len(items))
			for _, item := range items {
				s, ok := item.(string)
				if !ok {
					b, err := json.Marshal(item)
					if err != nil {
						continue
					}
					s = string(b)
				}
				if s = strings.TrimSpace(s); s != "" {
					out = append(out, s)
				}
			}
			return out
		}
	}

	if strings.HasPrefix(value, `"`) {
		var s string
		if err := json.Unmarshal([]byte(value), &s); err == nil {
			if s = strings.TrimSpace(s); s != "" {
				return []string{s}
			}
			return nil
		}
	}

	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
