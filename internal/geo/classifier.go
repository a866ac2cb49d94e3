package geo

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/eladitzhak/JobIntel-job-validator-microservice/internal/ai"
)

// Classifier decides whether a free-text location refers to the target
// region. Three tiers, each consulted only when the prior one is
// inconclusive: literal token match, geocoding lookup, LLM yes/no.
type Classifier struct {
	country  string // e.g. "Israel"
	code     string // e.g. "IL"
	geocoder *OpenCageClient
	ai       ai.Provider
	log      *slog.Logger
}

func NewClassifier(country, code string, geocoder *OpenCageClient, provider ai.Provider, log *slog.Logger) *Classifier {
	return &Classifier{
		country:  strings.TrimSpace(country),
		code:     strings.ToLower(strings.TrimSpace(code)),
		geocoder: geocoder,
		ai:       provider,
		log:      log,
	}
}

func (c *Classifier) Country() string { return c.country }

var noiseWords = regexp.MustCompile(`(?i)\b(remote|hybrid|onsite|relocation)\b`)

// CleanLocation strips work-mode noise and dashes before matching.
func CleanLocation(location string) string {
	location = noiseWords.ReplaceAllString(location, "")
	location = strings.ReplaceAll(location, "-", " ")
	return strings.Join(strings.Fields(location), " ")
}

// IsInTargetRegion runs the cascade. An empty location is never in
// region. A geocoding transport failure means "unknown" and resolves to
// false without asking the LLM.
func (c *Classifier) IsInTargetRegion(ctx context.Context, location string) bool {
	if strings.TrimSpace(location) == "" {
		return false
	}
	location = CleanLocation(location)

	// Tier 1: literal country name or ISO code as a discrete token.
	if c.literalMatch(location) {
		return true
	}

	// Tier 2: geocoding.
	country, found, err := c.geocoder.Country(ctx, location)
	if err != nil {
		// Transport failure means unknown, not "ask the AI".
		c.log.Warn("geocoding failed, treating location as out of region", "location", location, "err", err)
		return false
	}
	if found {
		return strings.Contains(strings.ToLower(country), strings.ToLower(c.country))
	}

	// Tier 3: geocoder resolved nothing; the LLM's answer is authoritative.
	if c.ai == nil {
		return false
	}
	res, err := c.ai.Complete(ctx, ai.RegionQuestionRequest(location, c.country))
	if err != nil {
		c.log.Warn("llm region classification failed", "location", location, "err", err)
		return false
	}
	in := ai.IsYes(res.Content)
	c.log.Info("llm region classification", "location", location, "in_region", in)
	return in
}

func (c *Classifier) literalMatch(location string) bool {
	low := strings.ToLower(location)

	countryToken := regexp.MustCompile(`\b` + regexp.QuoteMeta(strings.ToLower(c.country)) + `\b`)
	if countryToken.MatchString(low) {
		return true
	}

	// Two-letter code counts only as the trailing comma part
	// ("Tel Aviv-Yafo, Tel Aviv District, IL").
	parts := strings.Split(low, ",")
	if len(parts) > 1 {
		last := strings.TrimSpace(parts[len(parts)-1])
		if last == c.code {
			return true
		}
	}
	return false
}
