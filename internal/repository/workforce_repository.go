package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/locvowork/workforce_dashboard/internal/database"
	"github.com/locvowork/workforce_dashboard/internal/domain"
	"github.com/locvowork/workforce_dashboard/internal/logger"
	"github.com/locvowork/workforce_dashboard/internal/repository/builder"
)

// WorkforceRepository reads the worker, bonus and title tables.
type WorkforceRepository struct {
	db      *sql.DB
	dialect database.Dialect
}

// NewWorkforceRepository creates a new instance of WorkforceRepository
func NewWorkforceRepository(db *sql.DB, dialect database.Dialect) *WorkforceRepository {
	return &WorkforceRepository{db: db, dialect: dialect}
}

var _ domain.Source = (*WorkforceRepository)(nil)

func (r *WorkforceRepository) sqlBuilder() *builder.SQLBuilder {
	return builder.NewSQLBuilderFor(r.dialect.Placeholder())
}

// Load reads the three tables concurrently. Row-level failures are reported
// as *domain.LoadError.
func (r *WorkforceRepository) Load(ctx context.Context) (*domain.Dataset, error) {
	ds := &domain.Dataset{}
	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() (err error) {
		ds.Workers, err = r.ListWorkers(egCtx)
		return err
	})
	eg.Go(func() (err error) {
		ds.Bonuses, err = r.ListBonuses(egCtx)
		return err
	})
	eg.Go(func() (err error) {
		ds.Titles, err = r.ListTitles(egCtx)
		return err
	})

	if err := eg.Wait(); err != nil {
		logger.ErrorLog(ctx, "Failed to load workforce tables: %v", err)
		return nil, err
	}
	if len(ds.Workers) == 0 {
		return nil, &domain.LoadError{Source: "worker", Path: database.WorkerTable, Err: fmt.Errorf("no worker rows")}
	}

	logger.InfoLog(ctx, "Loaded %d workers, %d bonuses, %d titles from %s",
		len(ds.Workers), len(ds.Bonuses), len(ds.Titles), r.dialect)
	return ds, nil
}

func (r *WorkforceRepository) ListWorkers(ctx context.Context) ([]domain.Worker, error) {
	query, args := r.sqlBuilder().
		Select("worker_id", "first_name", "last_name", "salary", "joining_date", "department").
		From(database.WorkerTable).
		OrderBy("seq ASC").
		Build()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, tableError("worker", 0, "", err)
	}
	defer rows.Close()

	var workers []domain.Worker
	for n := 1; rows.Next(); n++ {
		var (
			w           domain.Worker
			first, last sql.NullString
			joined      flexTime
		)
		if err := rows.Scan(&w.ID, &first, &last, &w.Salary, &joined, &w.Department); err != nil {
			return nil, tableError("worker", n, "", err)
		}
		w.FirstName, w.LastName, w.JoiningDate = first.String, last.String, joined.Time
		workers = append(workers, w)
	}
	if err := rows.Err(); err != nil {
		return nil, tableError("worker", 0, "", err)
	}
	return workers, nil
}

func (r *WorkforceRepository) ListBonuses(ctx context.Context) ([]domain.Bonus, error) {
	query, args := r.sqlBuilder().
		Select("worker_ref_id", "bonus_amount", "bonus_date").
		From(database.BonusTable).
		OrderBy("seq ASC").
		Build()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, tableError("bonus", 0, "", err)
	}
	defer rows.Close()

	var bonuses []domain.Bonus
	for n := 1; rows.Next(); n++ {
		var (
			b    domain.Bonus
			date flexTime
		)
		if err := rows.Scan(&b.WorkerRefID, &b.Amount, &date); err != nil {
			return nil, tableError("bonus", n, "", err)
		}
		b.Date = date.Time
		bonuses = append(bonuses, b)
	}
	if err := rows.Err(); err != nil {
		return nil, tableError("bonus", 0, "", err)
	}
	return bonuses, nil
}

func (r *WorkforceRepository) ListTitles(ctx context.Context) ([]domain.Title, error) {
	query, args := r.sqlBuilder().
		Select("worker_ref_id", "worker_title", "affected_from").
		From(database.TitleTable).
		OrderBy("seq ASC").
		Build()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, tableError("title", 0, "", err)
	}
	defer rows.Close()

	var titles []domain.Title
	for n := 1; rows.Next(); n++ {
		var (
			t    domain.Title
			from flexTime
		)
		if err := rows.Scan(&t.WorkerRefID, &t.Title, &from); err != nil {
			return nil, tableError("title", n, "", err)
		}
		t.AffectedFrom = from.Time
		titles = append(titles, t)
	}
	if err := rows.Err(); err != nil {
		return nil, tableError("title", 0, "", err)
	}
	return titles, nil
}

func tableError(source string, row int, column string, err error) error {
	return &domain.LoadError{Source: source, Path: source, Row: row, Column: column, Err: err}
}

// flexTime scans timestamps from drivers that return time.Time as well as
// from drivers that return text. NULL scans to the zero time.
type flexTime struct {
	Time time.Time
}

var flexLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func (f *flexTime) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		f.Time = time.Time{}
		return nil
	case time.Time:
		f.Time = v.UTC()
		return nil
	case []byte:
		return f.parse(string(v))
	case string:
		return f.parse(v)
	}
	return fmt.Errorf("cannot scan %T into a timestamp", src)
}

func (f *flexTime) parse(s string) error {
	s = strings.TrimSpace(s)
	for _, layout := range flexLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			f.Time = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("invalid timestamp %q", s)
}
