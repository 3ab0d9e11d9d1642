package app

import (
	"encoding/json"
	"regexp"
	"strings"
)

var codeFence = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(.*?)```")

var listMarker = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s*`)

// extractJSON returns the outermost span delimited by open and close, looking inside a
// fenced code block first. Models often wrap JSON in prose or markdown.
func extractJSON(text string, open, close byte) (string, bool) {
	if m := codeFence.FindStringSubmatch(text); m != nil {
		text = m[1]
	}
	start := strings.IndexByte(text, open)
	end := strings.LastIndexByte(text, close)
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

// parseStringList reads key from a JSON object, a bare JSON array, or failing both, one
// item per bullet or numbered line.
func parseStringList(text, key string) ([]string, bool) {
	if obj, ok := extractJSON(text, '{', '}'); ok {
		var m map[string]json.RawMessage
		if json.Unmarshal([]byte(obj), &m) == nil {
			if raw, ok := m[key]; ok {
				var items []string
				if json.Unmarshal(raw, &items) == nil {
					return cleanList(items), true
				}
			}
		}
	}
	if arr, ok := extractJSON(text, '[', ']'); ok {
		var items []string
		if json.Unmarshal([]byte(arr), &items) == nil {
			return cleanList(items), true
		}
	}

	var items []string
	for _, line := range strings.Split(text, "\n") {
		if !listMarker.MatchString(line) {
			continue
		}
		items = append(items, listMarker.ReplaceAllString(line, ""))
	}
	return cleanList(items), false
}

func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		it = strings.Trim(strings.TrimSpace(it), `"`)
		if it == "" {
			continue
		}
		key := strings.ToLower(it)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, it)
	}
	return out
}
