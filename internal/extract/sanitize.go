package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

// Rich-text fields keep basic formatting only. Attribute-free on purpose:
// the sanitized HTML is persisted and later rendered by the UI.
var richTextPolicy = func() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("p", "br", "ul", "ol", "li", "b", "strong", "em", "h3", "h4")
	p.SkipElementsContent("script", "style")
	return p
}()

// Sanitize reduces HTML to the allow-listed formatting tags, stripping
// everything else while keeping the visible text.
func Sanitize(html string) string {
	if html == "" {
		return ""
	}
	return strings.TrimSpace(richTextPolicy.Sanitize(html))
}

// StripWordSpans unwraps Microsoft Word-style <span> wrappers (TextRun,
// ccp* classes) that Greenhouse job content frequently carries.
func StripWordSpans(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}
	doc.Find("span[class]").Each(func(_ int, s *goquery.Selection) {
		cls, _ := s.Attr("class")
		if !strings.Contains(cls, "TextRun") && !strings.Contains(cls, "ccp") {
			return
		}
		if inner, err := s.Html(); err == nil {
			s.ReplaceWithHtml(inner)
		}
	})
	out, err := doc.Find("body").Html()
	if err != nil {
		return html
	}
	return out
}
