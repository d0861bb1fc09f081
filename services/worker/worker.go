package worker

import (
	"context"
	"time"

	"sjsage522/shiftcodeworker/helpers"
	"sjsage522/shiftcodeworker/internal/crawler"
	"sjsage522/shiftcodeworker/logger"
	perrors "sjsage522/shiftcodeworker/pkg/errors"
	"sjsage522/shiftcodeworker/services/publisher"
	"sjsage522/shiftcodeworker/services/store"
)

// Fetcher downloads the source page
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*helpers.Page, error)
}

// Store is the persisted record of known codes
type Store interface {
	EnsureInitialized() error
	LoadExistingCodes() (map[string]struct{}, []error, error)
	Append(records []store.CodeRecord) error
}

// Guard keeps runs away from a source that rate limited an earlier run
type Guard interface {
	Check(url string) error
	Block(url string) error
}

// Options configures a run
type Options struct {
	URL     string
	DryRun  bool
	Extract crawler.ExtractConfig
}

// Summary describes the outcome of a run
type Summary struct {
	// Added holds the new codes, in page order. In a dry run nothing was written.
	Added           []string
	SkippedExisting int
	ExpiredExcluded int
	Strategy        crawler.Strategy
	FallbackUsed    bool
	DryRun          bool
	Warnings        []error
}

// Worker runs fetch, extract, dedup and persist once
type Worker struct {
	fetcher    Fetcher
	store      Store
	publishers []publisher.Publisher
	guard      Guard
	opts       Options
	now        func() time.Time
	log        *logger.Logger
}

// NewWorker creates a new worker
func NewWorker(fetcher Fetcher, st Store, publishers []publisher.Publisher, opts Options) *Worker {
	return &Worker{
		fetcher:    fetcher,
		store:      st,
		publishers: publishers,
		opts:       opts,
		now:        time.Now,
		log:        logger.ForWorker(),
	}
}

// WithGuard enables the rate-limit block check
func (w *Worker) WithGuard(guard Guard) *Worker {
	w.guard = guard
	return w
}

// Run executes one collection pass. Fetch, parse and store failures abort the
// run before anything is written; publisher failures only add warnings.
func (w *Worker) Run(ctx context.Context) (*Summary, error) {
	summary := &Summary{DryRun: w.opts.DryRun}

	// A dry run leaves a missing store missing
	if !w.opts.DryRun {
		if err := w.store.EnsureInitialized(); err != nil {
			return nil, err
		}
	}

	existing, warnings, err := w.store.LoadExistingCodes()
	if err != nil {
		return nil, err
	}
	summary.Warnings = append(summary.Warnings, warnings...)
	w.log.Info().Int("existing", len(existing)).Msg("Loaded existing codes")

	page, err := w.fetch(ctx)
	if err != nil {
		return nil, err
	}

	doc, err := crawler.NewDocument(page.URL, page.Reader())
	if err != nil {
		return nil, err
	}

	result := crawler.Extract(doc, w.opts.Extract)
	summary.Strategy = result.Strategy
	summary.FallbackUsed = result.FallbackUsed
	summary.ExpiredExcluded = len(result.ExpiredExcluded)
	summary.Warnings = append(summary.Warnings, result.Warnings...)
	for _, warning := range result.Warnings {
		w.log.Warn().Err(warning).Msg("Extraction warning")
	}
	if len(result.ExpiredExcluded) > 0 {
		w.log.Info().Strs("codes", result.ExpiredExcluded).Msg("Excluded expired codes")
	}

	for _, code := range result.Codes {
		if _, ok := existing[code]; ok {
			summary.SkippedExisting++
			continue
		}
		summary.Added = append(summary.Added, code)
	}

	w.log.Info().
		Str("strategy", string(result.Strategy)).
		Int("found", len(result.Codes)).
		Int("new", len(summary.Added)).
		Int("existing", summary.SkippedExisting).
		Msg("Extracted codes")

	if w.opts.DryRun {
		for _, code := range summary.Added {
			w.log.Info().Str("code", code).Str("expires", result.Expirations[code]).Msg("Would add code")
		}
		return summary, nil
	}

	if len(summary.Added) == 0 {
		return summary, nil
	}

	records := store.NewRecords(summary.Added, w.now())
	for i := range records {
		records[i].Expiration = result.Expirations[records[i].Code]
	}
	if err := w.store.Append(records); err != nil {
		return nil, err
	}

	summary.Warnings = append(summary.Warnings, w.publish(ctx, records)...)
	return summary, nil
}

// fetch downloads the page, honouring and recording rate-limit blocks
func (w *Worker) fetch(ctx context.Context) (*helpers.Page, error) {
	if w.guard != nil {
		if err := w.guard.Check(w.opts.URL); err != nil {
			return nil, err
		}
	}

	page, err := w.fetcher.Fetch(ctx, w.opts.URL)
	if err != nil {
		if w.guard != nil && perrors.Is(err, perrors.ErrorTypeRateLimit) {
			if blockErr := w.guard.Block(w.opts.URL); blockErr != nil {
				w.log.Warn().Err(blockErr).Msg("Failed to record rate limit block")
			}
		}
		return nil, err
	}
	return page, nil
}

// publish announces records through every publisher; failures become warnings
func (w *Worker) publish(ctx context.Context, records []store.CodeRecord) []error {
	var warnings []error
	for _, p := range w.publishers {
		if err := p.Publish(ctx, records); err != nil {
			w.log.Warn().Err(err).Str("publisher", p.Name()).Msg("Failed to publish codes")
			warnings = append(warnings, err)
		}
	}
	return warnings
}
