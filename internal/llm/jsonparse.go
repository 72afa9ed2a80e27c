package llm

import (
	"encoding/json"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// ParseObject extracts a JSON object from model output. It tries the text
// as-is, then the span between the first '{' and the last '}', then a
// repaired version of that span. ok is false when nothing yields an object.
//
// The repair step goes further than snipping: a truncated or garbled reply
// can come back as a partial object instead of ok=false, so callers that
// fill defaults with EnsureKeys may see some model-supplied keys next to
// defaulted ones.
func ParseObject(text string) (map[string]any, bool) {
	text = strings.TrimSpace(text)
	if obj, ok := decodeObject(text); ok {
		return obj, true
	}

	snip := text
	if start, end := strings.Index(text, "{"), strings.LastIndex(text, "}"); start != -1 && end > start {
		snip = text[start : end+1]
		if obj, ok := decodeObject(snip); ok {
			return obj, true
		}
	}

	if strings.TrimSpace(snip) == "" {
		return nil, false
	}
	repaired, err := jsonrepair.JSONRepair(snip)
	if err != nil {
		return nil, false
	}
	return decodeObject(repaired)
}

func decodeObject(s string) (map[string]any, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}

// EnsureKeys adds every key of defaults that obj lacks. Slice and map
// defaults are copied so callers never share them.
func EnsureKeys(obj, defaults map[string]any) map[string]any {
	if obj == nil {
		obj = make(map[string]any, len(defaults))
	}
	for k, v := range defaults {
		if _, ok := obj[k]; ok {
			continue
		}
		obj[k] = cloneDefault(v)
	}
	return obj
}

func cloneDefault(v any) any {
	switch t := v.(type) {
	case []any:
		return append([]any{}, t...)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, x := range t {
			out[k] = cloneDefault(x)
		}
		return out
	default:
		return v
	}
}
