package database

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"github.com/locvowork/workforce_dashboard/internal/domain"
	"github.com/locvowork/workforce_dashboard/internal/logger"
	"github.com/locvowork/workforce_dashboard/internal/repository/builder"
)

// Presets
type SeedPreset string

const (
	PresetSmall  SeedPreset = "small"
	PresetMedium SeedPreset = "medium"
	PresetLarge  SeedPreset = "large"
)

// GetPresetConfig returns the number of workers and the max bonuses and
// titles per worker for a preset.
func GetPresetConfig(preset SeedPreset) (numWorkers, maxBonuses, maxTitles int) {
	switch preset {
	case PresetSmall:
		return 10, 2, 1
	case PresetLarge:
		return 50000, 4, 3
	default:
		return 1000, 3, 2
	}
}

var (
	departments = []string{"HR", "Admin", "Account", "Engineering", "Sales", "Support"}
	titleNames  = []string{"Manager", "Lead", "Executive", "Asst. Manager", "Engineer", "Analyst"}
	firstNames  = []string{"Monika", "Niharika", "Vishal", "Amitabh", "Vivek", "Vipul", "Satish", "Geetika"}
	lastNames   = []string{"Arora", "Verma", "Singhal", "Singh", "Bhati", "Diwan", "Kumar", "Chauhan"}
)

// GenerateDataset builds a synthetic dataset. The same seed always yields the
// same data. Some workers get no bonus or no title so the left join has
// something to fill.
func GenerateDataset(numWorkers, maxBonuses, maxTitles int, seed int64) *domain.Dataset {
	r := rand.New(rand.NewSource(seed))
	base := time.Date(2014, 1, 1, 9, 0, 0, 0, time.UTC)
	ds := &domain.Dataset{}

	for i := 1; i <= numWorkers; i++ {
		joined := base.AddDate(0, r.Intn(36), r.Intn(28))
		w := domain.Worker{
			ID:          int64(i),
			FirstName:   firstNames[r.Intn(len(firstNames))],
			LastName:    lastNames[r.Intn(len(lastNames))],
			Salary:      decimal.NewFromInt(int64(50+r.Intn(450)) * 1000),
			JoiningDate: joined,
			Department:  departments[r.Intn(len(departments))],
		}
		ds.Workers = append(ds.Workers, w)

		for b := r.Intn(maxBonuses + 1); b > 0; b-- {
			ds.Bonuses = append(ds.Bonuses, domain.Bonus{
				WorkerRefID: w.ID,
				Amount:      decimal.NewFromInt(int64(1+r.Intn(10)) * 500),
				Date:        joined.AddDate(1+r.Intn(2), r.Intn(12), 0).Truncate(24 * time.Hour),
			})
		}
		for t := r.Intn(maxTitles + 1); t > 0; t-- {
			ds.Titles = append(ds.Titles, domain.Title{
				WorkerRefID:  w.ID,
				Title:        titleNames[r.Intn(len(titleNames))],
				AffectedFrom: joined.AddDate(1, 0, 0).Truncate(24 * time.Hour),
			})
		}
	}
	return ds
}

// DataSeeder writes datasets into the workforce tables.
type DataSeeder struct {
	db        *sql.DB
	dialect   Dialect
	batchSize int
}

func NewDataSeeder(db *sql.DB, dialect Dialect) *DataSeeder {
	return &DataSeeder{db: db, dialect: dialect, batchSize: 200}
}

// SeedData creates the schema and inserts the dataset in one transaction.
func (ds *DataSeeder) SeedData(ctx context.Context, data *domain.Dataset) error {
	start := time.Now()
	if err := EnsureSchema(ctx, ds.db, ds.dialect); err != nil {
		return err
	}

	tx, err := ds.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	err = insertBatches(ctx, tx, ds, WorkerTable,
		[]string{"worker_id", "first_name", "last_name", "salary", "joining_date", "department"},
		len(data.Workers), func(i int) []interface{} {
			w := data.Workers[i]
			return []interface{}{w.ID, w.FirstName, w.LastName, w.Salary, w.JoiningDate, w.Department}
		})
	if err != nil {
		return fmt.Errorf("failed to insert workers: %w", err)
	}

	err = insertBatches(ctx, tx, ds, BonusTable,
		[]string{"worker_ref_id", "bonus_amount", "bonus_date"},
		len(data.Bonuses), func(i int) []interface{} {
			b := data.Bonuses[i]
			return []interface{}{b.WorkerRefID, b.Amount, b.Date}
		})
	if err != nil {
		return fmt.Errorf("failed to insert bonuses: %w", err)
	}

	err = insertBatches(ctx, tx, ds, TitleTable,
		[]string{"worker_ref_id", "worker_title", "affected_from"},
		len(data.Titles), func(i int) []interface{} {
			t := data.Titles[i]
			var from interface{}
			if !t.AffectedFrom.IsZero() {
				from = t.AffectedFrom
			}
			return []interface{}{t.WorkerRefID, t.Title, from}
		})
	if err != nil {
		return fmt.Errorf("failed to insert titles: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	logger.InfoLog(ctx, "Seeded %d workers, %d bonuses, %d titles in %v",
		len(data.Workers), len(data.Bonuses), len(data.Titles), time.Since(start))
	return nil
}

func insertBatches(ctx context.Context, tx *sql.Tx, ds *DataSeeder, table string, cols []string, n int, row func(int) []interface{}) error {
	for start := 0; start < n; start += ds.batchSize {
		end := start + ds.batchSize
		if end > n {
			end = n
		}
		b := builder.NewSQLBuilderFor(ds.dialect.Placeholder()).Insert(table, cols...)
		for i := start; i < end; i++ {
			b.Values(row(i)...)
		}
		query, args, err := b.BuildSafe()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}
	return nil
}

// ClearData deletes every row of the workforce tables.
func (ds *DataSeeder) ClearData(ctx context.Context) error {
	for _, table := range []string{TitleTable, BonusTable, WorkerTable} {
		query, _ := builder.NewSQLBuilderFor(ds.dialect.Placeholder()).Delete(table).Build()
		if _, err := ds.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to delete %s: %w", table, err)
		}
	}
	logger.InfoLog(ctx, "Cleared workforce tables")
	return nil
}
