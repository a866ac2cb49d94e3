// Package greenhouse validates postings whose links point at a
// Greenhouse board. Greenhouse exposes a JSON API behind every rendered
// job page, so no browser session is needed.
package greenhouse

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/eladitzhak/JobIntel-job-validator-microservice/internal/browser"
	"github.com/eladitzhak/JobIntel-job-validator-microservice/internal/domain"
	"github.com/eladitzhak/JobIntel-job-validator-microservice/internal/extract"
	"github.com/eladitzhak/JobIntel-job-validator-microservice/internal/geo"
	"github.com/eladitzhak/JobIntel-job-validator-microservice/internal/netutil"
)

const (
	defaultAPIBase    = "https://boards-api.greenhouse.io/v1/boards"
	defaultBoardsBase = "https://boards.greenhouse.io"
)

// requiredFields drive the fallback chain. Greenhouse job content is one
// HTML blob; responsibilities/requirements are not listed because the
// dedup pass would null them anyway when they repeat the description.
var requiredFields = []string{"title", "company", "location", "description"}

// Deps are the collaborators a Greenhouse validator needs.
type Deps struct {
	HTTP       *http.Client
	Limiter    *netutil.HostLimiter
	Classifier *geo.Classifier
	Chain      *extract.Chain
	Log        *slog.Logger

	// Test seams; empty means production Greenhouse endpoints.
	APIBase    string
	BoardsBase string
}

type jobResponse struct {
	Error          string `json:"error"`
	Title          string `json:"title"`
	Content        string `json:"content"`
	CompanyName    string `json:"company_name"`
	AbsoluteURL    string `json:"absolute_url"`
	UpdatedAt      string `json:"updated_at"`
	FirstPublished string `json:"first_published"`
	Location       struct {
		Name string `json:"name"`
	} `json:"location"`
}

// Validator is the API-backed validator for one Greenhouse link.
type Validator struct {
	link         string
	originalLink string
	deps         Deps
	apiBase      string
	boardsBase   string
	attempt      domain.ValidationAttempt
	job          *jobResponse
}

func New(link string, deps Deps) *Validator {
	v := &Validator{
		link:         link,
		originalLink: link,
		deps:         deps,
		apiBase:      deps.APIBase,
		boardsBase:   deps.BoardsBase,
	}
	if v.apiBase == "" {
		v.apiBase = defaultAPIBase
	}
	if v.boardsBase == "" {
		v.boardsBase = defaultBoardsBase
	}
	return v
}

func (v *Validator) Name() string                       { return "greenhouse" }
func (v *Validator) Link() string                       { return v.originalLink }
func (v *Validator) UsesSession() bool                  { return false }
func (v *Validator) SetSession(browser.Session)         {}
func (v *Validator) Attempt() *domain.ValidationAttempt { return &v.attempt }
func (v *Validator) CanonicalLink() string              { return v.link }

// Validate loads the job through the Greenhouse JSON API. Not-found and
// out-of-region postings are classified terminally; transport failures
// count as a transient load failure, terminal for this run only.
func (v *Validator) Validate(ctx context.Context) (bool, error) {
	board, jobID := ParseBoardJob(v.link)
	if board == "" || jobID == "" {
		v.attempt = domain.ValidationAttempt{
			JobStatus:   domain.StatusError,
			ErrorReason: "could not parse board token or job id from link",
		}
		return false, nil
	}

	job, status, err := v.fetchJob(ctx, board, jobID)
	if err != nil {
		v.attempt = domain.ValidationAttempt{
			JobStatus:   domain.StatusError,
			ErrorReason: fmt.Sprintf("greenhouse api fetch failed: %v", err),
		}
		return false, nil
	}
	if status == http.StatusNotFound || strings.EqualFold(job.Error, "job not found") {
		v.attempt = domain.ValidationAttempt{
			JobStatus:   domain.StatusValidationFailed,
			ErrorReason: "job not found (404 from API)",
		}
		return false, nil
	}
	if status != http.StatusOK {
		v.attempt = domain.ValidationAttempt{
			JobStatus:   domain.StatusError,
			ErrorReason: fmt.Sprintf("greenhouse api status %d", status),
		}
		return false, nil
	}

	content := strings.TrimSpace(job.Content)
	if content == "" || strings.Contains(strings.ToLower(content), "<html>") {
		// A full document in the content field means we were redirected
		// somewhere that is not a job.
		v.attempt = domain.ValidationAttempt{
			JobStatus:   domain.StatusError,
			ErrorReason: "empty or redirect-shaped greenhouse job content",
		}
		return false, nil
	}

	if loc := job.Location.Name; !v.deps.Classifier.IsInTargetRegion(ctx, loc) {
		v.attempt = domain.ValidationAttempt{
			JobStatus:   domain.StatusValidationFailed,
			ErrorReason: fmt.Sprintf("job location %q is not in %s", loc, v.deps.Classifier.Country()),
		}
		return false, nil
	}

	v.job = job
	return true, nil
}

func (v *Validator) fetchJob(ctx context.Context, board, jobID string) (*jobResponse, int, error) {
	apiURL := fmt.Sprintf("%s/%s/jobs/%s", v.apiBase, board, jobID)
	if v.deps.Limiter != nil {
		if err := v.deps.Limiter.WaitURL(ctx, apiURL); err != nil {
			return nil, 0, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, 0, err
	}
	resp, err := v.deps.HTTP.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	var job jobResponse
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("decode greenhouse response: %w", err)
	}
	return &job, resp.StatusCode, nil
}

// ExtractMetadata builds the field mapping from the already-fetched API
// payload, rewrites embed links to the canonical board URL, and lets the
// fallback chain fill whatever the payload lacked.
func (v *Validator) ExtractMetadata(ctx context.Context) (map[string]any, error) {
	if v.job == nil {
		return nil, fmt.Errorf("extract called before a successful validate")
	}
	job := v.job

	raw := html.UnescapeString(job.Content)
	cleaned := extract.StripWordSpans(raw)
	description := extract.Sanitize(cleaned)

	meta := map[string]any{
		"title":            strings.Join(strings.Fields(job.Title), " "),
		"company":          job.CompanyName,
		"location":         job.Location.Name,
		"description":      description,
		"responsibilities": nil,
		"requirements":     nil,
	}

	if posted := firstNonEmpty(job.UpdatedAt, job.FirstPublished); posted != "" {
		if t, err := time.Parse(time.RFC3339, posted); err == nil {
			meta["posted_time"] = t
		}
	}

	v.rewriteEmbedLink(ctx)
	if v.link != v.originalLink {
		meta["link"] = v.link
	}

	v.deps.Chain.Complete(ctx, meta, requiredFields, cleaned)
	return meta, nil
}

// rewriteEmbedLink upgrades an embed-style link to the canonical
// boards.greenhouse.io job URL when that URL is actually reachable,
// falling back to the API's absolute_url.
func (v *Validator) rewriteEmbedLink(ctx context.Context) {
	if v.job == nil || !strings.Contains(v.link, "embed") {
		return
	}

	board, jobID := ParseBoardJob(v.link)
	if board != "" && jobID != "" {
		canonical := fmt.Sprintf("%s/%s/jobs/%s", v.boardsBase, board, jobID)
		if v.probe(ctx, canonical) {
			v.deps.Log.Info("replaced embed link with canonical url", "canonical", canonical)
			v.link = canonical
			return
		}
		v.deps.Log.Warn("canonical greenhouse url not reachable", "url", canonical)
	}

	if abs := v.job.AbsoluteURL; abs != "" && abs != v.link {
		v.deps.Log.Info("falling back to absolute_url for embed link", "url", abs)
		v.link = abs
	}
}

func (v *Validator) probe(ctx context.Context, u string) bool {
	if v.deps.Limiter != nil {
		if err := v.deps.Limiter.WaitURL(ctx, u); err != nil {
			return false
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, u, nil)
	if err != nil {
		return false
	}
	resp, err := v.deps.HTTP.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusFound
}

func firstNonEmpty(xs ...string) string {
	for _, x := range xs {
		if strings.TrimSpace(x) != "" {
			return x
		}
	}
	return ""
}
