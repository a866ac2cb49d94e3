package ai

import (
	"encoding/json"
	"fmt"
	"strings"
)

const extractorSystem = "You extract structured job data from HTML."

// sectionHints maps a field name to the alternate headings it may hide
// under on job boards.
var sectionHints = map[string]string{
	"requirements":     "- 'requirements' may appear under headings like 'Are you a good fit?', 'Qualifications', 'Skills', or similar.",
	"responsibilities": "- 'responsibilities' may appear under 'What you'll do', 'Your day-to-day', etc.",
}

// ExtractFieldsRequest builds the single scoped request for the fields a
// deterministic pass could not resolve.
func ExtractFieldsRequest(missing []string, html string, maxHTMLBytes int) Request {
	var hints []string
	for _, f := range missing {
		if h, ok := sectionHints[f]; ok {
			hints = append(hints, h)
		}
	}
	var b strings.Builder
	fmt.Fprintf(&b, "From the following HTML, extract ONLY the following fields: %s.\n", strings.Join(missing, ", "))
	b.WriteString("Respond in JSON with exactly those keys.\n")
	if len(hints) > 0 {
		b.WriteString("\n")
		b.WriteString(strings.Join(hints, "\n"))
		b.WriteString("\n")
	}
	b.WriteString("\nHTML:\n")
	b.WriteString(truncate(html, maxHTMLBytes))

	return Request{System: extractorSystem, User: b.String()}
}

// LocationOnlyRequest is the narrow retry used when location is still
// unknown: the job's own location, never the company HQ or a contact
// address.
func LocationOnlyRequest(html string, maxHTMLBytes int) Request {
	user := `From the following HTML, extract ONLY the **location of the job**.
Only return the place where the job itself is located — not the company HQ, contact address, or offices in other countries.

Respond in JSON like:
{ "location": "Tel Aviv, Israel" }

HTML:
` + truncate(html, maxHTMLBytes)

	return Request{System: extractorSystem, User: user}
}

// RegionQuestionRequest asks a strict yes/no about a location string.
func RegionQuestionRequest(location, country string) Request {
	user := fmt.Sprintf(
		"Is the location %q in %s? Answer with exactly one word: yes or no.",
		location, country,
	)
	return Request{
		System: "You are a precise geography classifier. Answer only yes or no.",
		User:   user,
	}
}

// SummarizeRequest produces a friendly one-paragraph job summary for
// listing previews.
func SummarizeRequest(title, company, descriptionText string) Request {
	user := fmt.Sprintf(`Summarize the following job posting into a clear and friendly paragraph (max 200 words).
Mention that it's for the role of %q at %q.
Include what the company does, what the role involves, and what kind of candidate would be a good fit.
Write for a job seeker browsing job listings.
Do not include any bullet points, formatting, or headings — return just one paragraph.

Job Description:
%s`, title, company, descriptionText)

	return Request{
		System:      "You are a helpful assistant that summarizes job listings for job seekers.",
		Temperature: 0.7,
		MaxTokens:   400,
		User:        user,
	}
}

// ParseJSONObject decodes a JSON object reply, tolerating markdown code
// fences some models wrap around it.
func ParseJSONObject(content string) (map[string]any, error) {
	s := strings.TrimSpace(content)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	var out map[string]any
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, fmt.Errorf("parse llm JSON reply: %w", err)
	}
	return out, nil
}

// IsYes reports whether a yes/no reply affirms.
func IsYes(content string) bool {
	s := strings.ToLower(strings.TrimSpace(content))
	s = strings.Trim(s, ".!\"' ")
	return s == "yes" || strings.HasPrefix(s, "yes")
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n]
}
