package authority

import (
	"context"

	"github.com/lehigh-university-libraries/mods-enricher/internal/fetch"
	"github.com/lehigh-university-libraries/mods-enricher/internal/vocabulary"
)

// Method names the tier that produced a result
type Method string

const (
	MethodNone       Method = "none"
	MethodDictionary Method = "dictionary"
	MethodDerived    Method = "derived"
	MethodCode       Method = "code"
	MethodCache      Method = "cache"
	MethodRemote     Method = "remote"
)

// Result is the outcome of resolving one term. When Resolved is false,
// MatchCount carries the number of candidates the service reported.
type Result struct {
	Resolved     bool   `json:"resolved"`
	URI          string `json:"uri,omitempty"`
	AuthorityURI string `json:"authorityURI,omitempty"`
	DisplayForm  string `json:"displayForm,omitempty"`
	MatchCount   int    `json:"matchCount"`
	Method       Method `json:"method"`
	// Query is the normalized key that was looked up
	Query string `json:"query"`
}

// Outcome returns "resolved" or "unresolved"
func (r Result) Outcome() string {
	if r.Resolved {
		return "resolved"
	}
	return "unresolved"
}

// Cache stores definitive remote results by domain and normalized key.
// Implementations must be safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, domain vocabulary.Domain, key string) (Result, bool, error)
	Put(ctx context.Context, domain vocabulary.Domain, key string, r Result) error
}

// Fetcher is the remote lookup the resolver depends on
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string, expectStructured bool) fetch.Outcome
}
