// Package comeet validates postings hosted on Comeet career pages.
// Comeet renders job pages client-side, so validation drives a real
// browser session and scrapes the rendered DOM.
package comeet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/eladitzhak/JobIntel-job-validator-microservice/internal/browser"
	"github.com/eladitzhak/JobIntel-job-validator-microservice/internal/domain"
	"github.com/eladitzhak/JobIntel-job-validator-microservice/internal/extract"
	"github.com/eladitzhak/JobIntel-job-validator-microservice/internal/geo"
)

// readySelector is present on every rendered Comeet job page. Company
// landing pages render it too, which is why Validate also inspects the
// final URL shape.
const readySelector = "button"

var requiredFields = []string{"title", "company", "location", "description", "requirements"}

// Deps are the collaborators a Comeet validator needs.
type Deps struct {
	Classifier      *geo.Classifier
	Chain           *extract.Chain
	KnownLocations  map[string]string
	PageLoadTimeout time.Duration
	Log             *slog.Logger
}

// Validator drives a shared browser session against one Comeet link.
type Validator struct {
	link         string
	originalLink string
	deps         Deps
	session      browser.Session
	attempt      domain.ValidationAttempt
	doc          *goquery.Document
}

func New(link string, deps Deps) *Validator {
	return &Validator{link: link, originalLink: link, deps: deps}
}

func (v *Validator) Name() string                       { return "comeet" }
func (v *Validator) Link() string                       { return v.originalLink }
func (v *Validator) UsesSession() bool                  { return true }
func (v *Validator) SetSession(s browser.Session)       { v.session = s }
func (v *Validator) Attempt() *domain.ValidationAttempt { return &v.attempt }
func (v *Validator) CanonicalLink() string              { return v.link }

// NewSession satisfies the session factory used by the pool.
func (v *Validator) NewSession(ctx context.Context) (browser.Session, error) {
	return browser.NewChromeSession(ctx)
}

// Validate navigates to the link and waits for the page to render. The
// resolved URL is checked against the landing-page shape whether the
// wait succeeds or times out: Comeet redirects dead links to the
// company careers index, sometimes after the readiness marker appears.
func (v *Validator) Validate(ctx context.Context) (bool, error) {
	if v.session == nil {
		v.attempt = domain.ValidationAttempt{
			JobStatus:   domain.StatusDriverError,
			ErrorReason: "no browser session attached",
		}
		return false, nil
	}

	if err := v.session.Navigate(ctx, v.link); err != nil {
		v.attempt = domain.ValidationAttempt{
			JobStatus:   domain.StatusError,
			ErrorReason: fmt.Sprintf("navigate failed: %v", err),
		}
		return false, nil
	}

	if err := v.session.WaitVisible(ctx, readySelector, v.deps.PageLoadTimeout); err != nil {
		if !errors.Is(err, context.DeadlineExceeded) {
			v.attempt = domain.ValidationAttempt{
				JobStatus:   domain.StatusDriverError,
				ErrorReason: fmt.Sprintf("wait for page render failed: %v", err),
			}
			return false, nil
		}
		if v.resolvedToLandingPage(ctx) {
			return false, nil
		}
		v.attempt = domain.ValidationAttempt{
			JobStatus:   domain.StatusError,
			ErrorReason: fmt.Sprintf("timeout after %s, not a landing page", v.deps.PageLoadTimeout),
		}
		return false, nil
	}

	// The readiness marker renders on landing pages too, so a redirect
	// that lands on the careers index still looks "ready" here.
	if v.resolvedToLandingPage(ctx) {
		return false, nil
	}

	src, err := v.session.PageSource(ctx)
	if err != nil {
		v.attempt = domain.ValidationAttempt{
			JobStatus:   domain.StatusDriverError,
			ErrorReason: fmt.Sprintf("read page source failed: %v", err),
		}
		return false, nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(src))
	if err != nil {
		return false, fmt.Errorf("parse comeet page: %w", err)
	}
	v.doc = doc
	return true, nil
}

// resolvedToLandingPage checks where the browser actually ended up and,
// on a company landing page, records the terminal attempt.
func (v *Validator) resolvedToLandingPage(ctx context.Context) bool {
	current, err := v.session.CurrentURL(ctx)
	if err != nil || !isLandingPage(current) {
		return false
	}
	v.attempt = domain.ValidationAttempt{
		JobStatus:   domain.StatusCompanyPage,
		ErrorReason: "link resolves to a company landing page, not a job",
	}
	return true
}

// isLandingPage reports whether a Comeet URL points at a company careers
// index rather than an individual job. Job URLs carry extra path
// segments beyond /careers/<company>/<token>.
func isLandingPage(u string) bool {
	parsed, err := url.Parse(u)
	if err != nil {
		return false
	}
	parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	return len(parts) == 3
}

// ExtractMetadata scrapes the rendered DOM, preferring structured
// JSON-LD data over CSS heuristics. The location gate runs before the
// fallback chain so out-of-region jobs never pay for an AI call, and
// again after in case the chain was what supplied the location.
func (v *Validator) ExtractMetadata(ctx context.Context) (map[string]any, error) {
	if v.doc == nil {
		return nil, fmt.Errorf("extract called before a successful validate")
	}

	// Re-read the page: client-side rendering can keep settling after
	// the readiness marker appears. The snapshot taken during Validate
	// is the fallback if the session has gone away.
	doc := v.doc
	if v.session != nil {
		if src, err := v.session.PageSource(ctx); err == nil {
			if fresh, perr := goquery.NewDocumentFromReader(strings.NewReader(src)); perr == nil {
				doc = fresh
				v.doc = fresh
			}
		}
	}

	meta := v.scrape(doc)

	if loc, _ := meta["location"].(string); loc != "" {
		loc = v.normalizeLocation(loc)
		meta["location"] = loc
		if !v.deps.Classifier.IsInTargetRegion(ctx, loc) {
			return nil, &domain.RegionRejectedError{Location: loc, Region: v.deps.Classifier.Country()}
		}
	}

	htmlBody, err := doc.Html()
	if err != nil {
		return nil, fmt.Errorf("serialize comeet page: %w", err)
	}
	v.deps.Chain.Complete(ctx, meta, requiredFields, htmlBody)

	if loc, _ := meta["location"].(string); loc != "" {
		loc = v.normalizeLocation(loc)
		meta["location"] = loc
		if !v.deps.Classifier.IsInTargetRegion(ctx, loc) {
			return nil, &domain.RegionRejectedError{Location: loc, Region: v.deps.Classifier.Country()}
		}
	}
	return meta, nil
}

func (v *Validator) scrape(doc *goquery.Document) map[string]any {
	meta := map[string]any{}

	ld := extract.JSONLD(doc)

	if title := extract.AsText(ld["title"]); title != "" {
		meta["title"] = strings.Join(strings.Fields(title), " ")
	} else if t := strings.TrimSpace(doc.Find("h1").First().Text()); t != "" {
		meta["title"] = strings.Join(strings.Fields(t), " ")
	}

	if org, ok := ld["hiringOrganization"].(map[string]any); ok {
		if name := extract.AsText(org["name"]); name != "" {
			meta["company"] = name
		}
	}
	if _, ok := meta["company"]; !ok {
		if c := strings.TrimSpace(doc.Find(".careerHeroHeader__title").First().Text()); c != "" {
			meta["company"] = c
		}
	}

	if loc := ldLocality(ld); loc != "" {
		meta["location"] = loc
	} else if loc := domLocation(doc); loc != "" {
		meta["location"] = loc
	}

	if desc := extract.AsText(ld["description"]); desc != "" {
		meta["description"] = extract.Sanitize(desc)
	} else if s := sectionByKeywords(doc, "description", "about the", "the role", "the position"); s != "" {
		meta["description"] = s
	}
	if s := sectionByKeywords(doc, "requirements", "qualifications", "good fit"); s != "" {
		meta["requirements"] = s
	}
	if s := sectionByKeywords(doc, "responsibilities", "what you'll do", "day-to-day"); s != "" {
		meta["responsibilities"] = s
	}
	return meta
}

func ldLocality(ld map[string]any) string {
	loc, ok := ld["jobLocation"].(map[string]any)
	if !ok {
		// Some boards publish jobLocation as a single-element array.
		if arr, ok := ld["jobLocation"].([]any); ok && len(arr) > 0 {
			loc, _ = arr[0].(map[string]any)
		}
	}
	if loc == nil {
		return ""
	}
	addr, ok := loc["address"].(map[string]any)
	if !ok {
		return ""
	}
	return extract.AsText(addr["addressLocality"])
}

// domLocation tries the CSS shapes Comeet has shipped over the years,
// newest first.
func domLocation(doc *goquery.Document) string {
	if item := doc.Find("ul.positionDetails li").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.Find("i.fa-map-marker").Length() > 0
	}); item.Length() > 0 {
		if t := strings.TrimSpace(item.First().Text()); t != "" {
			return t
		}
	}
	if t := strings.TrimSpace(doc.Find("div.location").First().Text()); t != "" {
		return t
	}
	if t := strings.TrimSpace(doc.Find(".careerHeroHeader__subheader span").First().Text()); t != "" {
		return t
	}
	return ""
}

// sectionByKeywords finds a heading whose text mentions one of the
// keywords, then collects the list or block that follows it.
func sectionByKeywords(doc *goquery.Document, keywords ...string) string {
	var out string
	doc.Find("h2, h3, h4, strong").EachWithBreak(func(_ int, h *goquery.Selection) bool {
		text := strings.ToLower(strings.TrimSpace(h.Text()))
		if text == "" {
			return true
		}
		for _, kw := range keywords {
			if !strings.Contains(text, kw) {
				continue
			}
			next := h.NextAllFiltered("ul").First()
			if next.Length() == 0 {
				next = h.NextAllFiltered("div, p").First()
			}
			if next.Length() == 0 {
				return true
			}
			if html, err := goquery.OuterHtml(next); err == nil {
				out = extract.Sanitize(html)
				return false
			}
		}
		return true
	})
	return out
}

// normalizeLocation maps raw scraped location strings through the
// configured known-locations table, falling back to title case.
func (v *Validator) normalizeLocation(raw string) string {
	loc := geo.CleanLocation(raw)
	if loc == "" {
		return ""
	}
	if known, ok := v.deps.KnownLocations[strings.ToLower(loc)]; ok {
		return known
	}
	return titleCase(loc)
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
