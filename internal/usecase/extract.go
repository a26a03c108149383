// Package usecase orchestrates batch extraction of point samples from grid
// datasets.
package usecase

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"go.ngs.io/extract-api/internal/adapter/store"
	"go.ngs.io/extract-api/internal/domain"
)

// DatasetSpec pairs a dataset identifier with the output name its results are
// written under. Ordered sequence; pairing is by construction, not by two
// parallel lists.
type DatasetSpec struct {
	ID         string
	OutputName string
}

// Request is one batch extraction run.
type Request struct {
	Datasets []DatasetSpec
	// Variables is the default variable list; a query may carry its own.
	Variables []string
	Queries   []domain.PointQuery
}

// OutputVariables returns the batch variable list unioned with every per-query
// override, in first-seen order. Result tables must carry a column for each so
// an override's sampled values are never dropped on write.
func (r Request) OutputVariables() []string {
	seen := make(map[string]bool, len(r.Variables))
	var out []string
	add := func(names []string) {
		for _, name := range names {
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	add(r.Variables)
	for _, q := range r.Queries {
		add(q.Variables)
	}
	return out
}

// Failure records one skipped (dataset, query) pair. Silent data loss is
// disallowed: every skipped pair is reported alongside the results.
type Failure struct {
	DatasetID string
	QueryID   string
	Reason    string
	Detail    string
}

// Failure reason codes.
const (
	ReasonFetch           = "provider_fetch"
	ReasonNormalization   = "normalization"
	ReasonOutOfRange      = "out_of_range"
	ReasonMissingDepth    = "missing_depth"
	ReasonUnknownVariable = "unknown_variable"
	ReasonSample          = "sample"
)

// DatasetResult collects the successful samples for one dataset. Instant rows
// and interval series keep the input query order.
type DatasetResult struct {
	DatasetID  string
	OutputName string
	Instant    []*domain.SampleResult
	Series     []*domain.SampleSeries
}

// Result is the outcome of a batch run.
type Result struct {
	Datasets []DatasetResult
	Failures []Failure
}

// Extractor runs point queries against grid datasets resolved through a
// provider. Sampling within a dataset is sharded across at most workers
// goroutines; the provider delivers grids normalized and read-only, so
// workers share them without coordination.
type Extractor struct {
	provider store.Provider
	workers  int
	log      zerolog.Logger
}

// NewExtractor creates a batch extractor. workers < 1 means sequential.
func NewExtractor(provider store.Provider, workers int, log zerolog.Logger) *Extractor {
	if workers < 1 {
		workers = 1
	}
	return &Extractor{provider: provider, workers: workers, log: log}
}

// Run processes datasets in caller order. A failure on one (dataset, query)
// pair never aborts the rest of the batch; a dataset the provider cannot
// deliver is skipped whole, with one failure per query. Only context
// cancellation returns an error, with whatever results accumulated so far.
func (e *Extractor) Run(ctx context.Context, req Request) (*Result, error) {
	log := e.log.With().Str("run_id", uuid.NewString()).Logger()
	res := &Result{}

	for _, ds := range req.Datasets {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		// The provider returns grids normalized and read-only, so the
		// shared copy is safe to sample from every worker below.
		grid, err := e.provider.Fetch(ctx, ds.ID)
		if err != nil {
			log.Error().Err(err).Str("dataset", ds.ID).Msg("dataset unavailable, skipping")
			res.Failures = append(res.Failures, skipAll(ds.ID, req.Queries, fetchReason(err), err)...)
			continue
		}

		log.Info().
			Str("dataset", ds.ID).
			Int("queries", len(req.Queries)).
			Msg("sampling dataset")

		samples := make([]domain.Sampled, len(req.Queries))
		sampleErrs := make([]error, len(req.Queries))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(e.workers)
		for i := range req.Queries {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					sampleErrs[i] = err
					return nil
				}
				q := req.Queries[i]
				vars := q.Variables
				if vars == nil {
					vars = req.Variables
				}
				samples[i], sampleErrs[i] = grid.Sample(q, vars)
				return nil
			})
		}
		_ = g.Wait()
		if err := ctx.Err(); err != nil {
			return res, err
		}

		dr := DatasetResult{DatasetID: ds.ID, OutputName: ds.OutputName}
		for i, q := range req.Queries {
			if err := sampleErrs[i]; err != nil {
				f := Failure{
					DatasetID: ds.ID,
					QueryID:   q.ID,
					Reason:    reasonFor(err),
					Detail:    err.Error(),
				}
				res.Failures = append(res.Failures, f)
				log.Warn().
					Str("dataset", ds.ID).
					Str("query", q.ID).
					Str("reason", f.Reason).
					Msg(f.Detail)
				continue
			}
			switch s := samples[i].(type) {
			case *domain.SampleResult:
				dr.Instant = append(dr.Instant, s)
			case *domain.SampleSeries:
				dr.Series = append(dr.Series, s)
			}
		}
		res.Datasets = append(res.Datasets, dr)
	}
	return res, nil
}

func skipAll(datasetID string, queries []domain.PointQuery, reason string, err error) []Failure {
	failures := make([]Failure, 0, len(queries))
	for _, q := range queries {
		failures = append(failures, Failure{
			DatasetID: datasetID,
			QueryID:   q.ID,
			Reason:    reason,
			Detail:    err.Error(),
		})
	}
	return failures
}

// fetchReason distinguishes a dataset whose axes could not be normalized from
// one the provider could not deliver at all.
func fetchReason(err error) string {
	var normErr *domain.NormalizationError
	if errors.As(err, &normErr) {
		return ReasonNormalization
	}
	return ReasonFetch
}

// reasonFor classifies a sampling error into the failure taxonomy.
func reasonFor(err error) string {
	var oor *domain.OutOfRangeError
	var unknown *domain.UnknownVariableError
	switch {
	case errors.Is(err, domain.ErrMissingDepth):
		return ReasonMissingDepth
	case errors.As(err, &oor):
		return ReasonOutOfRange
	case errors.As(err, &unknown):
		return ReasonUnknownVariable
	default:
		return ReasonSample
	}
}
