package domain

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/locvowork/workforce_dashboard/pkg/aggregate"
)

// Field names shared by the CSV headers, the SQL columns and the relations.
const (
	FieldWorkerID     = "worker_id"
	FieldFirstName    = "first_name"
	FieldLastName     = "last_name"
	FieldSalary       = "salary"
	FieldJoiningDate  = "joining_date"
	FieldDepartment   = "department"
	FieldWorkerRefID  = "worker_ref_id"
	FieldBonusAmount  = "bonus_amount"
	FieldBonusDate    = "bonus_date"
	FieldWorkerTitle  = "worker_title"
	FieldAffectedFrom = "affected_from"
	FieldBonusSeq     = "bonus_seq"
	FieldTitleSeq     = "title_seq"
)

// Relation names.
const (
	RelationWorkers = "workers"
	RelationBonuses = "bonuses"
	RelationTitles  = "titles"
	RelationMerged  = "merged"
)

func idLabel(id int64) (string, bool) { return strconv.FormatInt(id, 10), true }

func optionalLabel(s string) (string, bool) { return s, s != "" }

func optionalDate(t time.Time) (time.Time, bool) { return t, !t.IsZero() }

func always(v decimal.Decimal) (decimal.Decimal, bool) { return v, true }

// WorkerSchema exposes Worker. Identifiers are labels: they group and count,
// they never sum.
var WorkerSchema = aggregate.NewSchema[Worker](RelationWorkers).
	Label(FieldWorkerID, func(w Worker) (string, bool) { return idLabel(w.ID) }).
	Label(FieldFirstName, func(w Worker) (string, bool) { return optionalLabel(w.FirstName) }).
	Label(FieldLastName, func(w Worker) (string, bool) { return optionalLabel(w.LastName) }).
	Label(FieldDepartment, func(w Worker) (string, bool) { return optionalLabel(w.Department) }).
	Numeric(FieldSalary, func(w Worker) (decimal.Decimal, bool) { return always(w.Salary) }).
	Date(FieldJoiningDate, func(w Worker) (time.Time, bool) { return optionalDate(w.JoiningDate) })

var BonusSchema = aggregate.NewSchema[Bonus](RelationBonuses).
	Label(FieldWorkerRefID, func(b Bonus) (string, bool) { return idLabel(b.WorkerRefID) }).
	Numeric(FieldBonusAmount, func(b Bonus) (decimal.Decimal, bool) { return always(b.Amount) }).
	Date(FieldBonusDate, func(b Bonus) (time.Time, bool) { return optionalDate(b.Date) })

var TitleSchema = aggregate.NewSchema[Title](RelationTitles).
	Label(FieldWorkerRefID, func(t Title) (string, bool) { return idLabel(t.WorkerRefID) }).
	Label(FieldWorkerTitle, func(t Title) (string, bool) { return optionalLabel(t.Title) }).
	Date(FieldAffectedFrom, func(t Title) (time.Time, bool) { return optionalDate(t.AffectedFrom) })

// MergedSchema exposes the left-joined rows. Bonus and title fields are
// missing on rows without a match.
var MergedSchema = aggregate.NewSchema[MergedRow](RelationMerged).
	Label(FieldWorkerID, func(r MergedRow) (string, bool) { return idLabel(r.ID) }).
	Label(FieldFirstName, func(r MergedRow) (string, bool) { return optionalLabel(r.FirstName) }).
	Label(FieldLastName, func(r MergedRow) (string, bool) { return optionalLabel(r.LastName) }).
	Label(FieldDepartment, func(r MergedRow) (string, bool) { return optionalLabel(r.Department) }).
	Numeric(FieldSalary, func(r MergedRow) (decimal.Decimal, bool) { return always(r.Salary) }).
	Date(FieldJoiningDate, func(r MergedRow) (time.Time, bool) { return optionalDate(r.JoiningDate) }).
	Numeric(FieldBonusAmount, func(r MergedRow) (decimal.Decimal, bool) {
		if r.Bonus == nil {
			return decimal.Zero, false
		}
		return r.Bonus.Amount, true
	}).
	Date(FieldBonusDate, func(r MergedRow) (time.Time, bool) {
		if r.Bonus == nil {
			return time.Time{}, false
		}
		return optionalDate(r.Bonus.Date)
	}).
	Label(FieldWorkerTitle, func(r MergedRow) (string, bool) {
		if r.Title == nil {
			return "", false
		}
		return optionalLabel(r.Title.Title)
	}).
	Date(FieldAffectedFrom, func(r MergedRow) (time.Time, bool) {
		if r.Title == nil {
			return time.Time{}, false
		}
		return optionalDate(r.Title.AffectedFrom)
	}).
	Label(FieldBonusSeq, func(r MergedRow) (string, bool) {
		return strconv.Itoa(r.BonusSeq), r.BonusSeq >= 0
	}).
	Label(FieldTitleSeq, func(r MergedRow) (string, bool) {
		return strconv.Itoa(r.TitleSeq), r.TitleSeq >= 0
	})
