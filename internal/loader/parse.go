package loader

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/locvowork/workforce_dashboard/internal/domain"
)

// DefaultDateLayouts are tried in order for every date cell.
var DefaultDateLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
}

var (
	workerColumns = []string{domain.FieldWorkerID, domain.FieldSalary, domain.FieldDepartment, domain.FieldJoiningDate}
	bonusColumns  = []string{domain.FieldWorkerRefID, domain.FieldBonusAmount, domain.FieldBonusDate}
	titleColumns  = []string{domain.FieldWorkerRefID, domain.FieldWorkerTitle}
)

type parser struct {
	layouts []string
}

func (p parser) workers(f *frame) ([]domain.Worker, error) {
	out := make([]domain.Worker, 0, f.rows)
	seen := make(map[int64]int, f.rows)
	for i := 0; i < f.rows; i++ {
		id, err := p.id(f, i, domain.FieldWorkerID)
		if err != nil {
			return nil, err
		}
		if first, dup := seen[id]; dup {
			return nil, f.errorf(i+1, domain.FieldWorkerID, "duplicate worker_id %d (first at row %d)", id, first)
		}
		seen[id] = i + 1

		salary, err := p.amount(f, i, domain.FieldSalary)
		if err != nil {
			return nil, err
		}
		joined, err := p.date(f, i, domain.FieldJoiningDate)
		if err != nil {
			return nil, err
		}
		dept, err := f.required(i, domain.FieldDepartment)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.Worker{
			ID:          id,
			FirstName:   f.cell(i, domain.FieldFirstName),
			LastName:    f.cell(i, domain.FieldLastName),
			Salary:      salary,
			JoiningDate: joined,
			Department:  dept,
		})
	}
	return out, nil
}

func (p parser) bonuses(f *frame) ([]domain.Bonus, error) {
	out := make([]domain.Bonus, 0, f.rows)
	for i := 0; i < f.rows; i++ {
		ref, err := p.id(f, i, domain.FieldWorkerRefID)
		if err != nil {
			return nil, err
		}
		amount, err := p.amount(f, i, domain.FieldBonusAmount)
		if err != nil {
			return nil, err
		}
		date, err := p.date(f, i, domain.FieldBonusDate)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.Bonus{WorkerRefID: ref, Amount: amount, Date: date})
	}
	return out, nil
}

func (p parser) titles(f *frame) ([]domain.Title, error) {
	out := make([]domain.Title, 0, f.rows)
	for i := 0; i < f.rows; i++ {
		ref, err := p.id(f, i, domain.FieldWorkerRefID)
		if err != nil {
			return nil, err
		}
		title, err := f.required(i, domain.FieldWorkerTitle)
		if err != nil {
			return nil, err
		}
		t := domain.Title{WorkerRefID: ref, Title: title}
		if v := f.cell(i, domain.FieldAffectedFrom); v != "" {
			if t.AffectedFrom, err = p.parseDate(v); err != nil {
				return nil, f.errorf(i+1, domain.FieldAffectedFrom, "invalid date %q", v)
			}
		}
		out = append(out, t)
	}
	return out, nil
}

func (p parser) id(f *frame, row int, column string) (int64, error) {
	v, err := f.required(row, column)
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, f.errorf(row+1, column, "invalid identifier %q", v)
	}
	return id, nil
}

func (p parser) amount(f *frame, row int, column string) (decimal.Decimal, error) {
	v, err := f.required(row, column)
	if err != nil {
		return decimal.Zero, err
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, f.errorf(row+1, column, "invalid number %q", v)
	}
	return d, nil
}

func (p parser) date(f *frame, row int, column string) (time.Time, error) {
	v, err := f.required(row, column)
	if err != nil {
		return time.Time{}, err
	}
	t, err := p.parseDate(v)
	if err != nil {
		return time.Time{}, f.errorf(row+1, column, "invalid date %q", v)
	}
	return t, nil
}

// parseDate tries every layout; dates without a zone are read as UTC.
func (p parser) parseDate(v string) (time.Time, error) {
	var lastErr error
	for _, layout := range p.layouts {
		t, err := time.Parse(layout, v)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
