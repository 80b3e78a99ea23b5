package annotate

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lehigh-university-libraries/mods-enricher/internal/audit"
	"github.com/lehigh-university-libraries/mods-enricher/internal/authority"
	"github.com/lehigh-university-libraries/mods-enricher/internal/mods"
	"github.com/lehigh-university-libraries/mods-enricher/internal/vocabulary"
)

// Resolver maps a raw label in a domain to a resolution result
type Resolver interface {
	Resolve(ctx context.Context, domain vocabulary.Domain, raw string) authority.Result
}

// Candidate is one term queued for resolution. Target is the node that
// receives the identifier, which for names inside subjects is the subject.
type Candidate struct {
	Domain vocabulary.Domain
	Raw    string
	Target mods.Node
}

// Annotator writes resolved identifiers into documents
type Annotator struct {
	resolver Resolver
}

// New creates an annotator
func New(r Resolver) *Annotator {
	return &Annotator{resolver: r}
}

// Annotate resolves every candidate term of doc in place and returns one audit
// record per resolution attempt. Nodes that already carry a valueURI are not
// attempted. Records are visited in document order and within each record
// languages, places, subjects and names are handled in that order.
func (a *Annotator) Annotate(ctx context.Context, doc *mods.Document, label string) ([]audit.Record, error) {
	records, err := doc.Records()
	if err != nil {
		return nil, err
	}

	p := &pass{resolver: a.resolver, label: label}
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return p.trail, fmt.Errorf("annotation of %s interrupted: %w", label, err)
		}
		p.record(ctx, rec)
	}

	slog.Info("Annotated document",
		"label", label,
		"records", len(records),
		"attempts", len(p.trail),
		"resolved", p.resolved,
	)
	return p.trail, nil
}

// pass holds the state of one Annotate call
type pass struct {
	resolver Resolver
	label    string
	trail    []audit.Record
	resolved int
}

func (p *pass) record(ctx context.Context, rec mods.Record) {
	for _, lang := range rec.Languages {
		p.node(ctx, vocabulary.Language, lang)
	}
	for _, place := range rec.Places {
		p.node(ctx, vocabulary.Country, place)
	}
	for i := range rec.Subjects {
		p.subject(ctx, &rec.Subjects[i])
	}
	for i := range rec.Names {
		p.name(ctx, &rec.Names[i])
	}
}

// node resolves a node's own text unless it is already identified
func (p *pass) node(ctx context.Context, domain vocabulary.Domain, n mods.Node) {
	if n.HasValueURI() || n.Text() == "" {
		return
	}
	p.attempt(ctx, Candidate{Domain: domain, Raw: n.Text(), Target: n})
}

func (p *pass) subject(ctx context.Context, sub *mods.Subject) {
	if !sub.HasValueURI() {
		if heading, ok := compoundHeading(sub.Components); ok {
			p.attempt(ctx, Candidate{Domain: vocabulary.Subject, Raw: heading, Target: sub.Node})
		}
	}

	if len(sub.Components) > 1 {
		for _, c := range sub.Components {
			if domain, ok := partDomains[c.Tag()]; ok {
				p.node(ctx, domain, c.Node)
			}
		}
	}

	for _, c := range sub.Components {
		if !c.IsName() || c.HasValueURI() || sub.HasValueURI() {
			continue
		}
		query := nameSubjectQuery(c.NameParts)
		if query == "" {
			continue
		}
		p.attempt(ctx, Candidate{Domain: vocabulary.NameSubject, Raw: query, Target: sub.Node})
	}
}

func (p *pass) name(ctx context.Context, n *mods.Name) {
	if n.HasValueURI() {
		return
	}

	current, hasDisplay := n.DisplayForm()
	if query := nameQuery(current, n.Parts); query != "" {
		res := p.attempt(ctx, Candidate{Domain: vocabulary.Name, Raw: query, Target: n.Node})
		if res.Resolved && res.DisplayForm != "" {
			n.SetDisplayForm(res.DisplayForm)
			slog.Debug("Replaced display form",
				"label", p.label,
				"previous", current,
				"had_display_form", hasDisplay,
				"display_form", res.DisplayForm,
			)
		}
	}

	// roles are only resolved for names that arrived without an identifier
	for _, role := range n.Roles {
		p.node(ctx, vocabulary.Role, role)
	}
}

// attempt resolves one candidate, writes the identifier on success and
// appends the audit record
func (p *pass) attempt(ctx context.Context, c Candidate) authority.Result {
	res := p.resolver.Resolve(ctx, c.Domain, c.Raw)

	rec := audit.Record{
		DocumentLabel: p.label,
		QueriedTerm:   res.Query,
		MatchCount:    res.MatchCount,
		Domain:        string(c.Domain),
		Method:        string(res.Method),
	}
	if res.Resolved {
		if c.Target.SetIdentifier(res.AuthorityURI, res.URI) {
			rec.ResolvedURI = res.URI
			p.resolved++
		} else {
			slog.Warn("Kept existing identifier",
				"label", p.label,
				"domain", c.Domain,
				"existing", c.Target.ValueURI(),
				"suggested", res.URI,
			)
			res.Resolved = false
		}
	}
	p.trail = append(p.trail, rec)
	return res
}
