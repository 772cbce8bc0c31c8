package loader

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/locvowork/workforce_dashboard/internal/domain"
)

const (
	workerCSV = `WORKER_ID,FIRST_NAME,LAST_NAME,SALARY,JOINING_DATE,DEPARTMENT
1,Monika,Arora,100000,2014-02-20 09:00:00,HR
2,Niharika,Verma,80000,2014-06-11 09:00:00,Admin
3,Vishal,Singhal,300000,2014-02-20 09:00:00,HR
`
	bonusCSV = `WORKER_REF_ID,BONUS_AMOUNT,BONUS_DATE
1,5000,2016-02-20 00:00:00
2,3000,2016-06-11 00:00:00
1,4000.50,2016-02-20
`
	titleCSV = `WORKER_REF_ID,WORKER_TITLE,AFFECTED_FROM
1,Manager,2016-02-20 00:00:00
2,Executive,2016-06-11 00:00:00
`
)

func writeFiles(t *testing.T, worker, bonus, title string) *CSVSource {
	t.Helper()
	dir := t.TempDir()
	paths := make([]string, 3)
	for i, content := range []string{worker, bonus, title} {
		paths[i] = filepath.Join(dir, []string{"worker.csv", "bonus.csv", "title.csv"}[i])
		require.NoError(t, os.WriteFile(paths[i], []byte(content), 0o644))
	}
	return NewCSVSource(paths[0], paths[1], paths[2])
}

func TestCSVSourceLoad(t *testing.T) {
	src := writeFiles(t, workerCSV, bonusCSV, titleCSV)

	ds, err := src.Load(context.Background())
	require.NoError(t, err)

	require.Len(t, ds.Workers, 3)
	assert.Equal(t, int64(1), ds.Workers[0].ID)
	assert.Equal(t, "Monika", ds.Workers[0].FirstName)
	assert.True(t, ds.Workers[2].Salary.Equal(decimal.NewFromInt(300000)))
	assert.Equal(t, time.Date(2014, 2, 20, 9, 0, 0, 0, time.UTC), ds.Workers[0].JoiningDate)
	assert.Equal(t, "Admin", ds.Workers[1].Department)

	require.Len(t, ds.Bonuses, 3)
	assert.True(t, ds.Bonuses[2].Amount.Equal(decimal.RequireFromString("4000.5")))
	assert.Equal(t, time.Date(2016, 2, 20, 0, 0, 0, 0, time.UTC), ds.Bonuses[2].Date)

	require.Len(t, ds.Titles, 2)
	assert.Equal(t, "Executive", ds.Titles[1].Title)
	assert.False(t, ds.Titles[1].AffectedFrom.IsZero())
}

func TestCSVSourceHeaderOnlyJoinFiles(t *testing.T) {
	src := writeFiles(t, workerCSV, "worker_ref_id,bonus_amount,bonus_date\n", "worker_ref_id,worker_title\n")

	ds, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, ds.Workers, 3)
	assert.Empty(t, ds.Bonuses)
	assert.Empty(t, ds.Titles)
}

func TestCSVSourceLoadErrors(t *testing.T) {
	tests := []struct {
		name   string
		worker string
		bonus  string
		title  string
		source string
		column string
		row    int
	}{
		{
			name:   "missing column",
			worker: "worker_id,salary,joining_date\n1,100,2014-02-20\n",
			bonus:  bonusCSV, title: titleCSV,
			source: "worker", column: "department",
		},
		{
			name:   "malformed amount",
			worker: workerCSV,
			bonus:  "worker_ref_id,bonus_amount,bonus_date\n1,lots,2016-02-20\n",
			title:  titleCSV,
			source: "bonus", column: "bonus_amount", row: 1,
		},
		{
			name:   "malformed date",
			worker: "worker_id,salary,joining_date,department\n1,100,yesterday,HR\n",
			bonus:  bonusCSV, title: titleCSV,
			source: "worker", column: "joining_date", row: 1,
		},
		{
			name:   "blank title",
			worker: workerCSV, bonus: bonusCSV,
			title:  "worker_ref_id,worker_title\n1,Manager\n2,\n",
			source: "title", column: "worker_title", row: 2,
		},
		{
			name:   "duplicate worker",
			worker: "worker_id,salary,joining_date,department\n1,100,2014-02-20,HR\n1,200,2014-02-20,HR\n",
			bonus:  bonusCSV, title: titleCSV,
			source: "worker", column: "worker_id", row: 2,
		},
		{
			name:   "empty worker file",
			worker: "",
			bonus:  bonusCSV, title: titleCSV,
			source: "worker",
		},
		{
			name:   "worker file without rows",
			worker: "worker_id,salary,joining_date,department\n",
			bonus:  bonusCSV, title: titleCSV,
			source: "worker",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := writeFiles(t, tt.worker, tt.bonus, tt.title)

			_, err := src.Load(context.Background())
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrLoad))

			var lerr *domain.LoadError
			require.True(t, errors.As(err, &lerr))
			assert.Equal(t, tt.source, lerr.Source)
			assert.Equal(t, tt.column, lerr.Column)
			assert.Equal(t, tt.row, lerr.Row)
		})
	}
}

func TestCSVSourceMissingFile(t *testing.T) {
	src := writeFiles(t, workerCSV, bonusCSV, titleCSV)
	src.TitlePath = filepath.Join(t.TempDir(), "nope.csv")

	_, err := src.Load(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrLoad)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestCSVSourceCustomDateLayout(t *testing.T) {
	src := writeFiles(t,
		"worker_id,salary,joining_date,department\n7,100,20.03.2015,HR\n",
		"worker_ref_id,bonus_amount,bonus_date\n",
		"worker_ref_id,worker_title\n")
	src.DateLayouts = []string{"02.01.2006"}

	ds, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, time.Date(2015, 3, 20, 0, 0, 0, 0, time.UTC), ds.Workers[0].JoiningDate)
}
