package fetch

import (
	"fmt"
	"net/url"
	"strings"
)

// Kind tags a fetch outcome. Transient failures never leave the fetcher.
type Kind int

const (
	Success Kind = iota
	TerminalFailure
)

func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case TerminalFailure:
		return "terminal"
	default:
		return "unknown"
	}
}

// Outcome is the result of one Fetch call, after all retries
type Outcome struct {
	Kind     Kind
	Body     []byte
	Status   int
	Attempts int
	// Err explains a terminal failure
	Err error
}

// OK reports whether the outcome carries a usable body
func (o Outcome) OK() bool {
	return o.Kind == Success
}

// StatusError is returned for HTTP statuses that end retrying (403, 404)
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("lookup %s returned status %d", e.URL, e.StatusCode)
}

type transientError struct {
	reason string
	status int
	err    error
}

func (e *transientError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.reason, e.err)
	}
	if e.status != 0 {
		return fmt.Sprintf("%s (status %d)", e.reason, e.status)
	}
	return e.reason
}

func (e *transientError) Unwrap() error { return e.err }

// Family selects the error-sentinel strategy for an endpoint
type Family string

const (
	// NameAuthority endpoints answer with JSON; a markup body is an error page
	NameAuthority Family = "name-authority"
	// VocabularyTerm endpoints answer with HTML and flag outages with a marker page
	VocabularyTerm Family = "vocabulary-term"
)

// UnavailableMarker appears in id.loc.gov bodies while the service is down
const UnavailableMarker = "<title>Temporarily out of service</title>"

func classify(rawURL string, nameAuthorityHosts []string) Family {
	host := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		host = u.Host
	}
	for _, h := range nameAuthorityHosts {
		if h != "" && (host == h || strings.HasSuffix(host, "."+h)) {
			return NameAuthority
		}
	}
	return VocabularyTerm
}

func sentinelFlagged(family Family, body []byte) bool {
	switch family {
	case NameAuthority:
		return len(body) > 0 && body[0] == '<'
	default:
		return strings.Contains(string(body), UnavailableMarker)
	}
}
