package features

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/davidleathers/fraud-feature-engine/internal/domain/feature"
	"github.com/davidleathers/fraud-feature-engine/internal/domain/transaction"
	"github.com/davidleathers/fraud-feature-engine/internal/infrastructure/dataset"
	"github.com/davidleathers/fraud-feature-engine/internal/service/profiling"
)

// service implements the Service interface
type service struct {
	cfg        Config
	normalizer Normalizer
	aggregator Aggregator
	tracker    Tracker
	profiler   Profiler
	assembler  Assembler
}

// NewService creates a new feature engine from its stage collaborators
func NewService(
	cfg Config,
	normalizer Normalizer,
	aggregator Aggregator,
	tracker Tracker,
	profiler Profiler,
	assembler Assembler,
) Service {
	return &service{
		cfg:        cfg,
		normalizer: normalizer,
		aggregator: aggregator,
		tracker:    tracker,
		profiler:   profiler,
		assembler:  assembler,
	}
}

// ComputeFeatures runs the pipeline: normalize, compute the three partial
// stages per entity, and assemble the final records. Entities are
// independent, so they fan out across workers; the merge preserves the
// canonical order regardless of completion order.
func (s *service) ComputeFeatures(ctx context.Context, table *dataset.Table) (*feature.Table, error) {
	started := transaction.Now()

	res, err := s.normalizer.Normalize(ctx, table)
	if err != nil {
		return nil, err
	}

	// The one cross-entity index, built once over the whole batch and read
	// concurrently by the workers.
	fanOut := profiling.ComputeIPFanOut(res.Events)

	records, err := s.computeEntities(ctx, res.Histories, fanOut)
	if err != nil {
		return nil, err
	}

	return &feature.Table{
		RunID:    uuid.New(),
		Records:  records,
		Warnings: res.Warnings,
		Summary: feature.Summary{
			RowsIn:      res.RowsIn,
			RowsDropped: res.RowsDropped(),
			RowsOut:     len(records),
			Entities:    len(res.Histories),
			DropReasons: res.Dropped,
			StartedAt:   started,
			Duration:    transaction.Now().Sub(started),
		},
	}, nil
}

// computeEntities fans the histories out over a bounded worker pool. Each
// worker owns whole entities; results land in a preallocated slot per
// history, so the flattened output is in history order no matter which
// worker finished first.
func (s *service) computeEntities(ctx context.Context, histories []*transaction.History, fanOut profiling.IPFanOut) ([]*feature.Record, error) {
	if len(histories) == 0 {
		return []*feature.Record{}, nil
	}

	results := make([][]*feature.Record, len(histories))
	workers := s.cfg.workerCount()
	if workers > len(histories) {
		workers = len(histories)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				records, err := s.computeEntity(histories[idx], fanOut)
				if err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
					continue
				}
				results[idx] = records
			}
		}()
	}

dispatch:
	for idx := range histories {
		select {
		case <-ctx.Done():
			break dispatch
		case jobs <- idx:
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if firstErr != nil {
		return nil, firstErr
	}

	total := 0
	for _, r := range results {
		total += len(r)
	}
	out := make([]*feature.Record, 0, total)
	for _, r := range results {
		out = append(out, r...)
	}
	return out, nil
}

func (s *service) computeEntity(history *transaction.History, fanOut profiling.IPFanOut) ([]*feature.Record, error) {
	windows := s.aggregator.Compute(history)
	scans := s.tracker.Scan(history)
	profiles := s.profiler.Build(history, fanOut)
	return s.assembler.Assemble(history, windows, scans, profiles)
}
