package vocabulary

import (
	"fmt"
	"sort"
	"strings"
)

// Domain identifies a controlled vocabulary a term can be resolved against
type Domain string

const (
	Role        Domain = "role"
	Subject     Domain = "subject"
	Place       Domain = "place"
	Language    Domain = "language"
	Genre       Domain = "genre"
	Name        Domain = "name"
	Country     Domain = "country"
	NameSubject Domain = "name-subject"
)

// Shape describes how a vocabulary answers a remote lookup
type Shape string

const (
	// ScrapedTable is the id.loc.gov search results page
	ScrapedTable Shape = "scraped-table"
	// StructuredJSON is the VIAF AutoSuggest JSON body
	StructuredJSON Shape = "structured-json"
	// Code vocabularies are resolved by appending the code to a base path
	Code Shape = "code"
)

// ParseDomain converts user input into a known Domain
func ParseDomain(s string) (Domain, error) {
	d := Domain(strings.ToLower(strings.TrimSpace(s)))
	switch d {
	case Role, Subject, Place, Language, Genre, Name, Country, NameSubject:
		return d, nil
	default:
		return "", fmt.Errorf("unknown vocabulary domain: %q", s)
	}
}

// Definition is the mutable input used to build a Vocabulary
type Definition struct {
	Domain       Domain
	AuthorityURI string
	BasePath     string
	QueryURL     string
	RecordBase   string
	Shape        Shape
	Dictionary   map[string]string
}

// Vocabulary is the read-only configuration of one domain.
// Dictionary keys are stored normalized.
type Vocabulary struct {
	domain       Domain
	authorityURI string
	basePath     string
	queryURL     string
	recordBase   string
	shape        Shape
	dictionary   map[string]string
	values       map[string]struct{}
}

func newVocabulary(def Definition) (*Vocabulary, error) {
	switch def.Shape {
	case ScrapedTable, StructuredJSON:
		if def.QueryURL == "" {
			return nil, fmt.Errorf("vocabulary %s: query url is required for shape %s", def.Domain, def.Shape)
		}
	case Code:
		if def.BasePath == "" {
			return nil, fmt.Errorf("vocabulary %s: base path is required for code vocabularies", def.Domain)
		}
	default:
		return nil, fmt.Errorf("vocabulary %s: unsupported shape %q", def.Domain, def.Shape)
	}

	v := &Vocabulary{
		domain:       def.Domain,
		authorityURI: def.AuthorityURI,
		basePath:     def.BasePath,
		queryURL:     def.QueryURL,
		recordBase:   def.RecordBase,
		shape:        def.Shape,
		dictionary:   make(map[string]string, len(def.Dictionary)),
		values:       make(map[string]struct{}, len(def.Dictionary)),
	}
	for term, uri := range def.Dictionary {
		key := Normalize(term)
		if key == "" || uri == "" {
			continue
		}
		v.dictionary[key] = uri
		v.values[uri] = struct{}{}
	}
	return v, nil
}

func (v *Vocabulary) Domain() Domain       { return v.domain }
func (v *Vocabulary) AuthorityURI() string { return v.authorityURI }
func (v *Vocabulary) BasePath() string     { return v.basePath }
func (v *Vocabulary) QueryURL() string     { return v.queryURL }
func (v *Vocabulary) RecordBase() string   { return v.recordBase }
func (v *Vocabulary) Shape() Shape         { return v.shape }
func (v *Vocabulary) Len() int             { return len(v.dictionary) }

// Lookup returns the URI mapped to an already normalized key
func (v *Vocabulary) Lookup(key string) (string, bool) {
	uri, ok := v.dictionary[key]
	return uri, ok
}

// HasValue reports whether uri is one of the dictionary's mapped values
func (v *Vocabulary) HasValue(uri string) bool {
	_, ok := v.values[uri]
	return ok
}

// Registry holds one Vocabulary per domain. It is built once and never mutated,
// so it can be shared between workers without locking.
type Registry struct {
	vocabs map[Domain]*Vocabulary
}

// NewRegistry builds a registry from definitions. Later definitions for the
// same domain replace earlier ones.
func NewRegistry(defs ...Definition) (*Registry, error) {
	r := &Registry{vocabs: make(map[Domain]*Vocabulary, len(defs))}
	for _, def := range defs {
		if _, err := ParseDomain(string(def.Domain)); err != nil {
			return nil, err
		}
		v, err := newVocabulary(def)
		if err != nil {
			return nil, err
		}
		r.vocabs[def.Domain] = v
	}
	return r, nil
}

// Get returns the vocabulary configured for d
func (r *Registry) Get(d Domain) (*Vocabulary, bool) {
	v, ok := r.vocabs[d]
	return v, ok
}

// Domains lists the configured domains in a stable order
func (r *Registry) Domains() []Domain {
	out := make([]Domain, 0, len(r.vocabs))
	for d := range r.vocabs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
