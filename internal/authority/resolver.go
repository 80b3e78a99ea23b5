package authority

import (
	"context"
	"html"
	"log/slog"
	"net/url"
	"unicode/utf8"

	"github.com/lehigh-university-libraries/mods-enricher/internal/vocabulary"
)

// Resolver maps raw labels to at most one controlled identifier. It checks
// the dictionary, then derives code and base-path identifiers, then the
// optional cache, and finally asks the remote service.
type Resolver struct {
	registry *vocabulary.Registry
	fetcher  Fetcher
	cache    Cache
	metrics  *Metrics
}

// Option configures a Resolver
type Option func(*Resolver)

// WithCache stores definitive remote answers
func WithCache(c Cache) Option {
	return func(r *Resolver) { r.cache = c }
}

// WithMetrics records resolution counters
func WithMetrics(m *Metrics) Option {
	return func(r *Resolver) { r.metrics = m }
}

// New creates a resolver over an immutable registry
func New(registry *vocabulary.Registry, fetcher Fetcher, opts ...Option) *Resolver {
	r := &Resolver{
		registry: registry,
		fetcher:  fetcher,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Registry returns the vocabularies the resolver was built with
func (r *Resolver) Registry() *vocabulary.Registry {
	return r.registry
}

// Resolve never fails: every problem along the way becomes an unresolved
// result with the best match count available.
func (r *Resolver) Resolve(ctx context.Context, domain vocabulary.Domain, raw string) Result {
	res := r.resolve(ctx, domain, raw)
	r.metrics.observe(string(domain), res)
	slog.Debug("Resolved term",
		"domain", domain,
		"query", res.Query,
		"method", res.Method,
		"resolved", res.Resolved,
		"uri", res.URI,
		"matchCount", res.MatchCount,
	)
	return res
}

func (r *Resolver) resolve(ctx context.Context, domain vocabulary.Domain, raw string) Result {
	key := vocabulary.Normalize(raw)
	miss := Result{Method: MethodNone, Query: key}

	vocab, ok := r.registry.Get(domain)
	if !ok {
		slog.Warn("No vocabulary configured", "domain", domain)
		return miss
	}
	if key == "" {
		return miss
	}

	if uri, ok := vocab.Lookup(key); ok {
		return resolvedAs(vocab, MethodDictionary, key, uri, "")
	}

	if vocab.Shape() == vocabulary.Code {
		uri, ok := deriveCode(vocab, key)
		if !ok {
			miss.Method = MethodCode
			return miss
		}
		return resolvedAs(vocab, MethodCode, key, uri, "")
	}

	if base := vocab.BasePath(); base != "" && vocab.HasValue(base+key) {
		return resolvedAs(vocab, MethodDerived, key, base+key, "")
	}

	if r.cache != nil {
		cached, found, err := r.cache.Get(ctx, domain, key)
		if err != nil {
			slog.Warn("Cache lookup failed", "domain", domain, "query", key, "err", err)
		} else if found {
			cached.Method = MethodCache
			cached.Query = key
			return cached
		}
	}

	res, definitive := r.remote(ctx, vocab, key)
	if definitive && r.cache != nil {
		if err := r.cache.Put(ctx, domain, key, res); err != nil {
			slog.Warn("Failed to cache result", "domain", domain, "query", key, "err", err)
		}
	}
	return res
}

// remote queries the vocabulary's service. definitive is false when the
// answer came from a failed fetch or an unreadable body.
func (r *Resolver) remote(ctx context.Context, vocab *vocabulary.Vocabulary, key string) (Result, bool) {
	miss := Result{Method: MethodRemote, Query: key}
	if r.fetcher == nil {
		return miss, false
	}

	structured := vocab.Shape() == vocabulary.StructuredJSON
	out := r.fetcher.Fetch(ctx, queryURL(vocab, key), structured)
	if !out.OK() {
		slog.Info("Lookup failed, leaving term unresolved",
			"domain", vocab.Domain(),
			"query", key,
			"status", out.Status,
			"attempts", out.Attempts,
			"err", out.Err,
		)
		return miss, false
	}

	if structured {
		match, total, err := parseSuggestions(out.Body)
		if err != nil {
			slog.Warn("Unreadable name authority response", "query", key, "err", err)
			return miss, false
		}
		if match == nil {
			miss.MatchCount = total
			return miss, true
		}
		return resolvedAs(vocab, MethodRemote, key, vocab.RecordBase()+match.VIAFID, match.DisplayForm), true
	}

	href, rows, err := parseResultTable(out.Body)
	if err != nil {
		slog.Warn("Unreadable vocabulary response", "domain", vocab.Domain(), "query", key, "err", err)
		return miss, false
	}
	if href == "" {
		miss.MatchCount = rows
		return miss, true
	}
	return resolvedAs(vocab, MethodRemote, key, vocab.RecordBase()+href, ""), true
}

func queryURL(vocab *vocabulary.Vocabulary, key string) string {
	if vocab.Shape() == vocabulary.StructuredJSON {
		return vocab.QueryURL() + url.QueryEscape(html.UnescapeString(key))
	}
	return vocab.QueryURL() + url.QueryEscape(`"`+key+`"`)
}

// deriveCode builds identifiers for code vocabularies. Language codes pick
// the ISO 639 part by length; other code vocabularies append the code as is.
func deriveCode(vocab *vocabulary.Vocabulary, key string) (string, bool) {
	if vocab.Domain() != vocabulary.Language {
		return vocab.BasePath() + key, true
	}
	switch utf8.RuneCountInString(key) {
	case 3:
		return vocab.BasePath() + "iso639-2/" + key, true
	case 2:
		return vocab.BasePath() + "iso639-1/" + key, true
	default:
		return "", false
	}
}

func resolvedAs(vocab *vocabulary.Vocabulary, method Method, key, uri, displayForm string) Result {
	return Result{
		Resolved:     true,
		URI:          uri,
		AuthorityURI: vocab.AuthorityURI(),
		DisplayForm:  displayForm,
		MatchCount:   1,
		Method:       method,
		Query:        key,
	}
}
