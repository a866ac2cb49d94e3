package validate

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/eladitzhak/JobIntel-job-validator-microservice/internal/domain"
	"github.com/eladitzhak/JobIntel-job-validator-microservice/internal/extract"
)

// AllowedFields is the default mutation surface a validation pass may
// touch on a posting.
var AllowedFields = []string{
	"title", "company", "location", "posted_time",
	"description", "requirements", "responsibilities",
	"keywords", "link",
}

// knownFields is the strict schema: anything outside it is rejected.
var knownFields = map[string]bool{
	"title": true, "company": true, "location": true, "posted_time": true,
	"description": true, "requirements": true, "responsibilities": true,
	"keywords": true, "link": true, "snippet": true,
}

// richTextFields are scanned for disallowed markup before persisting.
var richTextFields = map[string]bool{
	"description": true, "requirements": true, "responsibilities": true,
}

// ApplyMetadata filters extracted down to allowed non-empty values,
// validates the filtered mapping, then writes each changed field onto p,
// recording the touched names in FieldsUpdated. Validation happens
// before any mutation so a schema failure leaves the business fields
// untouched. A link change preserves OriginalLink once, on the first
// rewrite.
func ApplyMetadata(p *domain.JobPosting, extracted map[string]any, allowed []string) error {
	filtered := make(map[string]any, len(extracted))
	for _, key := range allowed {
		v, ok := extracted[key]
		if !ok || extract.IsEmpty(v) {
			continue
		}
		filtered[key] = v
	}

	if err := validateSchema(filtered); err != nil {
		return err
	}

	p.FieldsUpdated = nil
	for _, key := range allowed {
		v, ok := filtered[key]
		if !ok {
			continue
		}
		if applyField(p, key, v) {
			p.FieldsUpdated = append(p.FieldsUpdated, key)
		}
	}
	return nil
}

func validateSchema(filtered map[string]any) error {
	for key, v := range filtered {
		if !knownFields[key] {
			return &domain.SchemaValidationError{Field: key, Reason: "unknown field"}
		}
		if richTextFields[key] {
			if strings.Contains(strings.ToLower(extract.AsText(v)), "<script") {
				return &domain.SchemaValidationError{Field: key, Reason: "disallowed markup detected"}
			}
		}
		switch key {
		case "title":
			if len(strings.TrimSpace(extract.AsText(v))) < 4 {
				return &domain.SchemaValidationError{Field: key, Reason: "title too short"}
			}
		case "link":
			u, err := url.Parse(extract.AsText(v))
			if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
				return &domain.SchemaValidationError{Field: key, Reason: "not an absolute http(s) URL"}
			}
		case "posted_time":
			if _, ok := coerceTime(v); !ok {
				return &domain.SchemaValidationError{Field: key, Reason: "unparseable timestamp"}
			}
		}
	}
	return nil
}

// applyField writes one validated value, returning true when the stored
// value actually changed.
func applyField(p *domain.JobPosting, key string, v any) bool {
	switch key {
	case "title":
		return setString(&p.Title, extract.AsText(v))
	case "company":
		return setString(&p.Company, extract.AsText(v))
	case "location":
		return setString(&p.Location, extract.AsText(v))
	case "description":
		return setString(&p.Description, extract.AsText(v))
	case "requirements":
		return setString(&p.Requirements, extract.AsText(v))
	case "responsibilities":
		return setString(&p.Responsibilities, extract.AsText(v))
	case "snippet":
		return setString(&p.Snippet, extract.AsText(v))
	case "posted_time":
		t, _ := coerceTime(v)
		if p.PostedTime != nil && p.PostedTime.Equal(t) {
			return false
		}
		p.PostedTime = &t
		return true
	case "keywords":
		kw := toStringSlice(v)
		if equalStrings(p.Keywords, kw) {
			return false
		}
		p.Keywords = kw
		return true
	case "link":
		next := extract.AsText(v)
		if next == p.Link {
			return false
		}
		if p.OriginalLink == "" {
			p.OriginalLink = p.Link
		}
		p.Link = next
		return true
	}
	return false
}

func setString(dst *string, v string) bool {
	v = strings.TrimSpace(v)
	if *dst == v {
		return false
	}
	*dst = v
	return true
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func coerceTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, true
	case string:
		s := strings.TrimSpace(t)
		for _, layout := range timeLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed, true
			}
		}
	}
	return time.Time{}, false
}

func toStringSlice(v any) []string {
	switch t := v.(type) {
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s := strings.TrimSpace(fmt.Sprint(item)); s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if s := strings.TrimSpace(t); s != "" {
			return []string{s}
		}
	}
	return nil
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
