package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/locvowork/workforce_dashboard/internal/domain"
)

func TestMergeRelationsEmptyJoins(t *testing.T) {
	workers := []domain.Worker{
		{ID: 1, Salary: decimal.NewFromInt(100), Department: "Eng"},
		{ID: 2, Salary: decimal.NewFromInt(200), Department: "Eng"},
	}

	rows := MergeRelations(workers, nil, nil)

	require.Len(t, rows, len(workers))
	for i, r := range rows {
		assert.Equal(t, workers[i].ID, r.ID)
		assert.Nil(t, r.Bonus)
		assert.Nil(t, r.Title)
		assert.Equal(t, -1, r.BonusSeq)
		assert.Equal(t, -1, r.TitleSeq)
	}
}

func TestMergeRelationsCrossProductOrder(t *testing.T) {
	workers := []domain.Worker{{ID: 2}, {ID: 1}}
	bonuses := []domain.Bonus{
		{WorkerRefID: 1, Amount: decimal.NewFromInt(10)},
		{WorkerRefID: 2, Amount: decimal.NewFromInt(99)},
		{WorkerRefID: 1, Amount: decimal.NewFromInt(20)},
		{WorkerRefID: 42, Amount: decimal.NewFromInt(1)},
	}
	titles := []domain.Title{
		{WorkerRefID: 1, Title: "Lead"},
		{WorkerRefID: 1, Title: "Manager"},
	}

	rows := MergeRelations(workers, bonuses, titles)

	// worker 2: one bonus, no title; worker 1: 2 bonuses x 2 titles
	require.Len(t, rows, 5)

	assert.Equal(t, int64(2), rows[0].ID)
	assert.Equal(t, 1, rows[0].BonusSeq)
	assert.Nil(t, rows[0].Title)

	type pair struct {
		bonus int
		title string
	}
	var got []pair
	for _, r := range rows[1:] {
		assert.Equal(t, int64(1), r.ID)
		got = append(got, pair{int(r.Bonus.Amount.IntPart()), r.Title.Title})
	}
	assert.Equal(t, []pair{{10, "Lead"}, {10, "Manager"}, {20, "Lead"}, {20, "Manager"}}, got)
	assert.Equal(t, []int{0, 0, 2, 2}, []int{rows[1].BonusSeq, rows[2].BonusSeq, rows[3].BonusSeq, rows[4].BonusSeq})
}

func TestNewSnapshot(t *testing.T) {
	ds := &domain.Dataset{
		Workers: []domain.Worker{{ID: 1, Salary: decimal.NewFromInt(100), Department: "Eng"}},
		Bonuses: []domain.Bonus{
			{WorkerRefID: 1, Amount: decimal.NewFromInt(10)},
			{WorkerRefID: 1, Amount: decimal.NewFromInt(20)},
		},
	}

	snap := NewSnapshot(context.Background(), ds)
	assert.Equal(t, 1, snap.Workers.Len())
	assert.Equal(t, 2, snap.Bonuses.Len())
	assert.Equal(t, 0, snap.Titles.Len())
	assert.Equal(t, 2, snap.Merged.Len())

	n, err := snap.Bonuses.DistinctCount(domain.FieldWorkerRefID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	sum, err := snap.Bonuses.Sum(domain.FieldBonusAmount)
	require.NoError(t, err)
	assert.True(t, sum.Equal(decimal.NewFromInt(30)))
}
