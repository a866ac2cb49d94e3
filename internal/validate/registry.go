package validate

import (
	"net/url"
	"strings"

	"github.com/eladitzhak/JobIntel-job-validator-microservice/internal/domain"
	"github.com/eladitzhak/JobIntel-job-validator-microservice/internal/validate/comeet"
	"github.com/eladitzhak/JobIntel-job-validator-microservice/internal/validate/greenhouse"
)

var (
	_ Validator = (*greenhouse.Validator)(nil)
	_ Validator = (*comeet.Validator)(nil)

	_ SessionFactory = (*comeet.Validator)(nil)
)

// Rule pairs a host predicate with a validator constructor.
type Rule struct {
	Name  string
	Match func(host string) bool
	Build func(link string) Validator
}

// Registry resolves a posting link to the validator that can handle it.
type Registry struct {
	rules []Rule
}

// NewRegistry wires the built-in rules. Matching goes by hostname, so a
// greenhouse link pasted with tracking params still resolves.
func NewRegistry(gh greenhouse.Deps, cm comeet.Deps) *Registry {
	return &Registry{rules: []Rule{
		{
			Name:  "greenhouse",
			Match: func(host string) bool { return strings.Contains(host, "greenhouse.io") },
			Build: func(link string) Validator { return greenhouse.New(link, gh) },
		},
		{
			Name:  "comeet",
			Match: func(host string) bool { return strings.Contains(host, "comeet") },
			Build: func(link string) Validator { return comeet.New(link, cm) },
		},
	}}
}

// For returns a fresh validator for the link, or
// *domain.UnsupportedSourceError when no rule matches.
func (r *Registry) For(link string) (Validator, error) {
	u, err := url.Parse(link)
	if err != nil || u.Hostname() == "" {
		return nil, &domain.UnsupportedSourceError{Domain: link}
	}
	host := strings.ToLower(u.Hostname())
	for _, rule := range r.rules {
		if rule.Match(host) {
			return rule.Build(link), nil
		}
	}
	return nil, &domain.UnsupportedSourceError{Domain: host}
}
