package classify

import (
	"regexp"
	"sort"
	"strings"
)

// Conventional payload keys, probed before any other mapping field.
var priorityKeys = []string{"text", "content", "message", "output_text"}

var thinkBlock = regexp.MustCompile(`(?s)<think>.*?</think>`)

// ExtractText walks a decoded JSON response depth-first and returns the
// first non-empty string leaf. Mapping nodes probe the conventional payload
// keys first, then the remaining keys in sorted order so the walk is
// deterministic. Thinking blocks some models prepend are stripped before a
// leaf is judged non-empty.
func ExtractText(node any) string {
	switch v := node.(type) {
	case string:
		return stripThinking(v)
	case []any:
		for _, item := range v {
			if s := ExtractText(item); s != "" {
				return s
			}
		}
	case map[string]any:
		for _, key := range priorityKeys {
			if child, ok := v[key]; ok {
				if s := ExtractText(child); s != "" {
					return s
				}
			}
		}
		rest := make([]string, 0, len(v))
		for key := range v {
			if isPriorityKey(key) {
				continue
			}
			rest = append(rest, key)
		}
		sort.Strings(rest)
		for _, key := range rest {
			if s := ExtractText(v[key]); s != "" {
				return s
			}
		}
	}
	return ""
}

func isPriorityKey(key string) bool {
	for _, p := range priorityKeys {
		if key == p {
			return true
		}
	}
	return false
}

func stripThinking(s string) string {
	return strings.TrimSpace(thinkBlock.ReplaceAllString(s, ""))
}
