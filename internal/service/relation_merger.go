package service

import (
	"context"

	"github.com/locvowork/workforce_dashboard/internal/domain"
	"github.com/locvowork/workforce_dashboard/internal/logger"
	"github.com/locvowork/workforce_dashboard/pkg/aggregate"
)

// ============================================================================
// Left join: workers ⟕ bonuses ⟕ titles
// ============================================================================

// MergeRelations left-joins workers with bonuses and titles on the worker id.
// Rows follow worker order, then bonus order, then title order. A worker with
// N bonuses and M titles yields max(N,1)*max(M,1) rows; unmatched sides are
// nil with Seq -1. Bonuses and titles of unknown workers are ignored.
func MergeRelations(workers []domain.Worker, bonuses []domain.Bonus, titles []domain.Title) []domain.MergedRow {
	bonusIndex := buildRefIndex(len(bonuses), func(i int) int64 { return bonuses[i].WorkerRefID })
	titleIndex := buildRefIndex(len(titles), func(i int) int64 { return titles[i].WorkerRefID })

	out := make([]domain.MergedRow, 0, len(workers))
	for _, w := range workers {
		bSeqs := bonusIndex[w.ID]
		tSeqs := titleIndex[w.ID]
		if len(bSeqs) == 0 {
			bSeqs = missing
		}
		if len(tSeqs) == 0 {
			tSeqs = missing
		}

		for _, bi := range bSeqs {
			for _, ti := range tSeqs {
				row := domain.MergedRow{Worker: w, BonusSeq: bi, TitleSeq: ti}
				if bi >= 0 {
					b := bonuses[bi]
					row.Bonus = &b
				}
				if ti >= 0 {
					t := titles[ti]
					row.Title = &t
				}
				out = append(out, row)
			}
		}
	}
	return out
}

var missing = []int{-1}

// buildRefIndex creates index: worker_ref_id -> source positions, in order
func buildRefIndex(n int, ref func(i int) int64) map[int64][]int {
	index := make(map[int64][]int, n)
	for i := 0; i < n; i++ {
		index[ref(i)] = append(index[ref(i)], i)
	}
	return index
}

// ============================================================================
// Snapshot
// ============================================================================

// Snapshot holds the immutable relations one dashboard session queries.
type Snapshot struct {
	Workers *aggregate.Relation[domain.Worker]
	Bonuses *aggregate.Relation[domain.Bonus]
	Titles  *aggregate.Relation[domain.Title]
	Merged  *aggregate.Relation[domain.MergedRow]
}

// NewSnapshot merges a dataset and wraps every relation for querying.
func NewSnapshot(ctx context.Context, ds *domain.Dataset) *Snapshot {
	merged := MergeRelations(ds.Workers, ds.Bonuses, ds.Titles)
	if fanout := len(merged) - len(ds.Workers); fanout > 0 {
		logger.DebugLog(ctx, "Join fan-out added %d rows to %d workers", fanout, len(ds.Workers))
	}
	return &Snapshot{
		Workers: aggregate.New(domain.WorkerSchema, ds.Workers),
		Bonuses: aggregate.New(domain.BonusSchema, ds.Bonuses),
		Titles:  aggregate.New(domain.TitleSchema, ds.Titles),
		Merged:  aggregate.New(domain.MergedSchema, merged),
	}
}

// LoadSnapshot loads a source and builds its snapshot.
func LoadSnapshot(ctx context.Context, src domain.Source) (*Snapshot, error) {
	ds, err := src.Load(ctx)
	if err != nil {
		return nil, err
	}
	snap := NewSnapshot(ctx, ds)
	logger.InfoLog(ctx, "Snapshot ready: %d merged rows", snap.Merged.Len())
	return snap, nil
}
