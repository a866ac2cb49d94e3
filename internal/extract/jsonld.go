package extract

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var rawNewlines = regexp.MustCompile(`[\r\n]+`)

// JSONLD returns the first embedded JSON-LD JobPosting payload in the
// document, or nil when none parses. Some boards emit JSON-LD with raw
// newlines inside string values; a cleanup pass makes those decodable.
func JSONLD(doc *goquery.Document) map[string]any {
	var out map[string]any

	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		raw := strings.TrimSpace(s.Text())
		if raw == "" {
			return true
		}

		if m := decodeJobPosting(raw); m != nil {
			out = m
			return false
		}

		// Retry with illegal raw newlines collapsed; decode only the
		// first top-level value so trailing garbage is ignored.
		safe := rawNewlines.ReplaceAllString(raw, " ")
		if m := decodeJobPosting(safe); m != nil {
			out = m
			return false
		}
		return true
	})

	return out
}

func decodeJobPosting(raw string) map[string]any {
	dec := json.NewDecoder(strings.NewReader(raw))
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil
	}
	if t, _ := m["@type"].(string); t != "JobPosting" {
		return nil
	}
	return m
}
