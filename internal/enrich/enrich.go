package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lehigh-university-libraries/mods-enricher/internal/annotate"
	"github.com/lehigh-university-libraries/mods-enricher/internal/audit"
	"github.com/lehigh-university-libraries/mods-enricher/internal/mods"
	"github.com/lehigh-university-libraries/mods-enricher/internal/source"
)

// Loader reads the raw bytes of a source
type Loader interface {
	Load(ctx context.Context, s source.Source) ([]byte, error)
}

// Orchestrator runs annotation over whole documents and stamps every audit
// record with the run id
type Orchestrator struct {
	annotator     *annotate.Annotator
	loader        Loader
	runID         string
	upgradeSchema bool
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithLoader sets how EnrichBatch reads sources
func WithLoader(l Loader) Option {
	return func(o *Orchestrator) { o.loader = l }
}

// WithRunID replaces the generated run id
func WithRunID(id string) Option {
	return func(o *Orchestrator) { o.runID = id }
}

// WithSchemaUpgrade moves enriched documents to MODS 3.7 schema locations
func WithSchemaUpgrade(enabled bool) Option {
	return func(o *Orchestrator) { o.upgradeSchema = enabled }
}

// New creates an orchestrator around a resolver
func New(r annotate.Resolver, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		annotator: annotate.New(r),
		loader:    source.NewLoader(nil),
		runID:     uuid.NewString(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// RunID identifies the audit records produced by this orchestrator
func (o *Orchestrator) RunID() string {
	return o.runID
}

// Enrich annotates doc in place and returns it with its audit trail
func (o *Orchestrator) Enrich(ctx context.Context, doc *mods.Document, label string) (*mods.Document, []audit.Record, error) {
	records, err := o.annotator.Annotate(ctx, doc, label)
	for i := range records {
		records[i].RunID = o.runID
	}
	if err != nil {
		return doc, records, err
	}

	if o.upgradeSchema {
		doc.UpgradeSchema()
	}
	return doc, records, nil
}

// Result is the outcome of enriching one source
type Result struct {
	Source   source.Source
	Kind     mods.Kind
	Output   []byte
	Records  []audit.Record
	Duration time.Duration
	Err      error
}

// OutputName is the file name the enriched document is written under
func (r Result) OutputName() string {
	return OutputName(r.Source.Label, r.Kind)
}

// EnrichBatch enriches sources with at most workers documents in flight.
// Results come back in source order. A failing document only fails its own
// result.
func (o *Orchestrator) EnrichBatch(ctx context.Context, sources []source.Source, workers int) []Result {
	if workers < 1 {
		workers = 1
	}
	slog.Info("Processing sources", "sources", len(sources), "concurrency", workers, "run", o.runID)

	results := make([]Result, len(sources))
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, workers)

	for i, src := range sources {
		wg.Add(1)
		go func(idx int, src source.Source) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			slog.Info("Processing source", "label", src.Label, "progress", fmt.Sprintf("%d/%d", idx+1, len(sources)))
			results[idx] = o.enrichSource(ctx, src)
		}(i, src)
	}
	wg.Wait()

	return results
}

func (o *Orchestrator) enrichSource(ctx context.Context, src source.Source) (res Result) {
	start := time.Now()
	res.Source = src
	defer func() { res.Duration = time.Since(start) }()

	if err := ctx.Err(); err != nil {
		res.Err = fmt.Errorf("skipped %s: %w", src.Label, err)
		return res
	}

	data, err := o.loader.Load(ctx, src)
	if err != nil {
		res.Err = err
		slog.Error("Failed to load source", "label", src.Label, "err", err)
		return res
	}

	doc, err := mods.Parse(data)
	if err != nil {
		res.Err = fmt.Errorf("failed to parse %s: %w", src.Label, err)
		slog.Error("Failed to parse source", "label", src.Label, "err", err)
		return res
	}
	res.Kind = doc.Kind()

	_, res.Records, err = o.Enrich(ctx, doc, src.Label)
	if err != nil {
		res.Err = err
		slog.Error("Failed to enrich source", "label", src.Label, "err", err)
		return res
	}

	res.Output, err = doc.Bytes()
	if err != nil {
		res.Err = err
	}
	return res
}

// OutputName returns <label>_spine.xml for emblem book descriptions,
// <label>_mods.xml for bare MODS and <label>.xml otherwise
func OutputName(label string, kind mods.Kind) string {
	switch kind {
	case mods.KindSpine:
		return label + "_spine.xml"
	case mods.KindMODS:
		return label + "_mods.xml"
	default:
		return label + ".xml"
	}
}
