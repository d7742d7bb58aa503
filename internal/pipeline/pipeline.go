// Package pipeline orchestrates one acquisition run: fetch every
// configured source, extract candidates, reconcile against the known set,
// and persist the result.
package pipeline

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sells-group/moverscan/internal/extract"
	"github.com/sells-group/moverscan/internal/fetch"
	"github.com/sells-group/moverscan/internal/merge"
	"github.com/sells-group/moverscan/internal/model"
	"github.com/sells-group/moverscan/internal/store"
)

// Options tunes orchestrator behavior.
type Options struct {
	// MaxConcurrent bounds how many sources run at once.
	MaxConcurrent int
	// PerHostInterval is the minimum spacing between requests to one host.
	PerHostInterval time.Duration
}

// Pipeline wires fetchers, extractors and the store for one deployment.
// All collaborators are constructor-injected; the pipeline owns no global
// state.
type Pipeline struct {
	sources    []model.SourceDescriptor
	pages      fetch.PageFetcher
	listings   fetch.ListingFetcher
	extractors map[model.Strategy]extract.Extractor
	store      store.Store
	opts       Options
	now        func() time.Time

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// New creates a Pipeline.
func New(sources []model.SourceDescriptor, pages fetch.PageFetcher, listings fetch.ListingFetcher, extractors map[model.Strategy]extract.Extractor, st store.Store, opts Options) *Pipeline {
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 4
	}
	if opts.PerHostInterval <= 0 {
		opts.PerHostInterval = 2 * time.Second
	}
	return &Pipeline{
		sources:    sources,
		pages:      pages,
		listings:   listings,
		extractors: extractors,
		store:      st,
		opts:       opts,
		now:        time.Now,
		limiters:   make(map[string]*rate.Limiter),
	}
}

// RunResult summarizes one completed run.
type RunResult struct {
	RunID         string        `json:"run_id"`
	Sources       int           `json:"sources"`
	FailedSources int           `json:"failed_sources"`
	Candidates    int           `json:"candidates"`
	Records       int           `json:"records"`
	Duration      time.Duration `json:"duration"`
}

// Run executes one pipeline run. Per-source failures degrade that source
// to zero candidates; only a persistence failure fails the run. Merge
// happens strictly after all sources have completed.
func (p *Pipeline) Run(ctx context.Context) (*RunResult, error) {
	start := p.now()
	runID := uuid.New().String()
	log := zap.L().With(zap.String("run_id", runID))

	existing, err := p.store.LoadAll(ctx)
	if err != nil {
		var cse *store.CorruptStoreError
		if !errors.As(err, &cse) {
			return nil, eris.Wrap(err, "pipeline: load existing records")
		}
		// Data loss risk: proceed as a fresh-build run.
		log.Error("pipeline: durable store corrupt, rebuilding from empty", zap.Error(err))
		existing = nil
	}

	batches := make([]model.CandidateBatch, len(p.sources))
	failed := 0
	var failedMu sync.Mutex

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.MaxConcurrent)

	for i, src := range p.sources {
		g.Go(func() error {
			batch, ok := p.collectSource(gCtx, log, src)
			batches[i] = batch
			if !ok {
				failedMu.Lock()
				failed++
				failedMu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	var incoming model.CandidateBatch
	for _, b := range batches {
		incoming = append(incoming, b...)
	}

	records := merge.Reconcile(existing, incoming)

	if err := p.store.SaveAll(ctx, records); err != nil {
		// The run's record set is not durably committed; report failure.
		return nil, eris.Wrap(err, "pipeline: save records")
	}

	result := &RunResult{
		RunID:         runID,
		Sources:       len(p.sources),
		FailedSources: failed,
		Candidates:    len(incoming),
		Records:       len(records),
		Duration:      p.now().Sub(start),
	}
	log.Info("pipeline: run complete",
		zap.Int("sources", result.Sources),
		zap.Int("failed_sources", result.FailedSources),
		zap.Int("candidates", result.Candidates),
		zap.Int("records", result.Records),
		zap.Duration("duration", result.Duration),
	)
	return result, nil
}

// collectSource runs fetch+extract for one source. It never returns an
// error: failures are logged and degrade the source. The second return is
// false when the source produced nothing because of a failure (as opposed
// to a clean empty result).
func (p *Pipeline) collectSource(ctx context.Context, log *zap.Logger, src model.SourceDescriptor) (model.CandidateBatch, bool) {
	if src.IsListing() {
		return p.collectListing(ctx, log, src)
	}
	return p.collectPage(ctx, log, src)
}

func (p *Pipeline) collectPage(ctx context.Context, log *zap.Logger, src model.SourceDescriptor) (model.CandidateBatch, bool) {
	if err := p.waitHost(ctx, src.URL); err != nil {
		return nil, false
	}
	body, err := p.pages.FetchPage(ctx, src.Name, src.URL)
	if err != nil {
		log.Warn("pipeline: source fetch failed",
			zap.String("source", src.Name),
			zap.String("url", src.URL),
			zap.Error(err),
		)
		return nil, false
	}

	batch, ok := p.extractContent(ctx, log, src, extract.Content{
		Source: src.Name,
		URL:    src.URL,
		Body:   body,
	})
	return batch, ok
}

func (p *Pipeline) collectListing(ctx context.Context, log *zap.Logger, src model.SourceDescriptor) (model.CandidateBatch, bool) {
	listings, err := p.listings.FetchListing(ctx, src.Name, src.Query, src.MaxResults)
	if err != nil {
		log.Warn("pipeline: listing fetch failed",
			zap.String("source", src.Name),
			zap.String("query", src.Query),
			zap.Error(err),
		)
		return nil, false
	}

	var batch model.CandidateBatch
	for _, l := range listings {
		if err := p.waitHost(ctx, l.URL); err != nil {
			return batch, false
		}

		body, err := p.pages.FetchPage(ctx, src.Name, l.URL)
		if err != nil {
			log.Warn("pipeline: listing page fetch failed, using search snippet",
				zap.String("source", src.Name),
				zap.String("url", l.URL),
				zap.Error(err),
			)
			batch = append(batch, snippetCandidate(src, l, p.now().UTC()))
			continue
		}

		extracted, ok := p.extractContent(ctx, log, src, extract.Content{
			Source: src.Name,
			URL:    l.URL,
			Body:   body,
		})
		if !ok {
			// Extraction failed outright; fall back to the search snippet
			// so the company is not lost entirely.
			batch = append(batch, snippetCandidate(src, l, p.now().UTC()))
			continue
		}
		batch = append(batch, extracted...)
	}
	return batch, true
}

// extractContent applies the source's strategy. A parse failure degrades
// to an empty batch (ok=false); a clean empty result is ok=true.
func (p *Pipeline) extractContent(ctx context.Context, log *zap.Logger, src model.SourceDescriptor, content extract.Content) (model.CandidateBatch, bool) {
	ex, found := p.extractors[src.Strategy]
	if !found {
		log.Error("pipeline: no extractor for strategy",
			zap.String("source", src.Name),
			zap.String("strategy", string(src.Strategy)),
		)
		return nil, false
	}

	batch, err := ex.Extract(ctx, content)
	if err != nil {
		var pe *extract.ExtractionParseError
		if errors.As(err, &pe) {
			log.Warn("pipeline: model output unparseable",
				zap.String("source", src.Name),
				zap.String("url", content.URL),
				zap.Error(err),
			)
		} else {
			log.Warn("pipeline: extraction failed",
				zap.String("source", src.Name),
				zap.String("url", content.URL),
				zap.Error(err),
			)
		}
		return nil, false
	}
	return batch, true
}

// snippetCandidate builds a degraded record from a search result when the
// underlying page could not be used.
func snippetCandidate(src model.SourceDescriptor, l fetch.Listing, now time.Time) model.CompanyRecord {
	return model.CompanyRecord{
		Name:        l.Title,
		Website:     l.URL,
		Phone:       "N/A",
		Description: l.Snippet,
		Source:      src.Name,
		LastUpdated: now,
	}
}

// waitHost enforces the per-host politeness interval.
func (p *Pipeline) waitHost(ctx context.Context, rawURL string) error {
	host := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		host = u.Host
	}

	p.mu.Lock()
	lim, ok := p.limiters[host]
	if !ok {
		lim = rate.NewLimiter(rate.Every(p.opts.PerHostInterval), 1)
		p.limiters[host] = lim
	}
	p.mu.Unlock()

	return lim.Wait(ctx)
}
