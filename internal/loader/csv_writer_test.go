package loader

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/locvowork/workforce_dashboard/internal/domain"
)

func TestWriteCSVRoundTrip(t *testing.T) {
	joined := time.Date(2014, 2, 20, 9, 0, 0, 0, time.UTC)
	want := &domain.Dataset{
		Workers: []domain.Worker{
			{ID: 1, FirstName: "Monika", LastName: "Arora", Salary: decimal.NewFromInt(100000), JoiningDate: joined, Department: "HR"},
			{ID: 2, Salary: decimal.RequireFromString("80000.25"), JoiningDate: joined, Department: "Admin, Ops"},
		},
		Bonuses: []domain.Bonus{
			{WorkerRefID: 2, Amount: decimal.NewFromInt(3000), Date: joined.AddDate(2, 0, 0)},
			{WorkerRefID: 1, Amount: decimal.NewFromInt(5000), Date: joined.AddDate(2, 1, 0)},
		},
		Titles: []domain.Title{
			{WorkerRefID: 1, Title: "Manager", AffectedFrom: joined.AddDate(1, 0, 0)},
			{WorkerRefID: 2, Title: "Executive"},
		},
	}

	dir := filepath.Join(t.TempDir(), "data")
	require.NoError(t, WriteCSV(dir, want))

	raw, err := os.ReadFile(filepath.Join(dir, WorkerFile))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "WORKER_ID,FIRST_NAME,LAST_NAME,SALARY,JOINING_DATE,DEPARTMENT"))

	got, err := NewDirSource(dir).Load(context.Background())
	require.NoError(t, err)

	require.Len(t, got.Workers, 2)
	assert.Equal(t, "Monika", got.Workers[0].FirstName)
	assert.Equal(t, "", got.Workers[1].FirstName)
	assert.Equal(t, "Admin, Ops", got.Workers[1].Department)
	assert.True(t, got.Workers[1].Salary.Equal(want.Workers[1].Salary))
	assert.Equal(t, joined, got.Workers[0].JoiningDate)

	require.Len(t, got.Bonuses, 2)
	assert.Equal(t, int64(2), got.Bonuses[0].WorkerRefID)
	assert.Equal(t, want.Bonuses[1].Date, got.Bonuses[1].Date)

	require.Len(t, got.Titles, 2)
	assert.Equal(t, want.Titles[0].AffectedFrom, got.Titles[0].AffectedFrom)
	assert.True(t, got.Titles[1].AffectedFrom.IsZero())
}

func TestWriteCSVEmptyJoinRelations(t *testing.T) {
	dir := t.TempDir()
	ds := &domain.Dataset{Workers: []domain.Worker{
		{ID: 9, Salary: decimal.NewFromInt(1), JoiningDate: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), Department: "HR"},
	}}
	require.NoError(t, WriteCSV(dir, ds))

	raw, err := os.ReadFile(filepath.Join(dir, BonusFile))
	require.NoError(t, err)
	assert.Equal(t, "WORKER_REF_ID,BONUS_AMOUNT,BONUS_DATE\n", string(raw))

	got, err := NewDirSource(dir).Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, got.Workers, 1)
	assert.Empty(t, got.Bonuses)
	assert.Empty(t, got.Titles)
}
