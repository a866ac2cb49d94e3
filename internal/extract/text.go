package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// PlainText renders HTML down to normalized lowercase text for
// containment comparisons.
func PlainText(html string) string {
	if strings.TrimSpace(html) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return strings.ToLower(strings.Join(strings.Fields(html), " "))
	}
	doc.Find("script, style, meta").Remove()
	text := doc.Text()
	return strings.ToLower(strings.Join(strings.Fields(text), " "))
}

// AsText coerces an extracted value to a string. LLM replies sometimes
// return list-shaped fields; those are joined line by line.
func AsText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []string:
		return strings.Join(t, "\n")
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			if s := AsText(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "\n")
	default:
		return fmt.Sprint(t)
	}
}

// IsEmpty reports whether an extracted value counts as missing.
func IsEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []string:
		return len(t) == 0
	case []any:
		return len(t) == 0
	default:
		return false
	}
}
