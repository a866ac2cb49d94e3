package extract

import (
	"context"
	"log/slog"
	"strings"

	"github.com/eladitzhak/JobIntel-job-validator-microservice/internal/ai"
)

// Chain is the extraction fallback chain: given a validator's
// deterministic output, it fills still-missing fields with a single
// scoped LLM call, retries once for location alone, then drops
// responsibilities/requirements that merely duplicate the description.
type Chain struct {
	Provider     ai.Provider
	MaxHTMLBytes int
	Log          *slog.Logger
}

func NewChain(provider ai.Provider, maxHTMLBytes int, log *slog.Logger) *Chain {
	return &Chain{Provider: provider, MaxHTMLBytes: maxHTMLBytes, Log: log}
}

// Complete mutates fields in place and returns it. A deterministically
// found value is never overwritten.
func (c *Chain) Complete(ctx context.Context, fields map[string]any, required []string, html string) map[string]any {
	missing := MissingFields(fields, required)

	if len(missing) > 0 && c.Provider != nil {
		c.fillFromLLM(ctx, fields, missing, html)
	}

	if contains(required, "location") && IsEmpty(fields["location"]) && c.Provider != nil {
		c.retryLocation(ctx, fields, html)
	}

	Dedup(fields)
	return fields
}

// MissingFields lists required fields that are nil or empty, preserving
// the required order so prompts stay deterministic.
func MissingFields(fields map[string]any, required []string) []string {
	var missing []string
	for _, f := range required {
		if IsEmpty(fields[f]) {
			missing = append(missing, f)
		}
	}
	return missing
}

func (c *Chain) fillFromLLM(ctx context.Context, fields map[string]any, missing []string, html string) {
	res, err := c.Provider.Complete(ctx, ai.ExtractFieldsRequest(missing, html, c.MaxHTMLBytes))
	if err != nil {
		c.Log.Warn("llm field extraction failed", "missing", strings.Join(missing, ","), "err", err)
		return
	}
	parsed, err := ai.ParseJSONObject(res.Content)
	if err != nil {
		c.Log.Warn("llm field extraction returned unparseable JSON", "err", err)
		return
	}
	for _, f := range missing {
		if !IsEmpty(fields[f]) {
			continue // deterministic value arrived first, keep it
		}
		if v, ok := parsed[f]; ok && !IsEmpty(v) {
			fields[f] = v
		}
	}
}

func (c *Chain) retryLocation(ctx context.Context, fields map[string]any, html string) {
	res, err := c.Provider.Complete(ctx, ai.LocationOnlyRequest(html, c.MaxHTMLBytes))
	if err != nil {
		c.Log.Warn("llm location retry failed", "err", err)
		return
	}
	parsed, err := ai.ParseJSONObject(res.Content)
	if err != nil {
		c.Log.Warn("llm location retry returned unparseable JSON", "err", err)
		return
	}
	if v, ok := parsed["location"]; ok && !IsEmpty(v) {
		fields["location"] = v
	}
}

// Dedup nulls responsibilities/requirements whose plain text is wholly
// contained in the description's plain text.
func Dedup(fields map[string]any) {
	descText := PlainText(AsText(fields["description"]))
	if descText == "" {
		return
	}
	for _, f := range []string{"responsibilities", "requirements"} {
		t := PlainText(AsText(fields[f]))
		if t != "" && strings.Contains(descText, t) {
			fields[f] = nil
		}
	}
}

func contains(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}
