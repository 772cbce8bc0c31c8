package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ==================== SOURCE RECORDS ====================

// Worker represents one row of the worker table / worker.csv
type Worker struct {
	ID          int64           `json:"worker_id" db:"worker_id"`
	FirstName   string          `json:"first_name,omitempty" db:"first_name"`
	LastName    string          `json:"last_name,omitempty" db:"last_name"`
	Salary      decimal.Decimal `json:"salary" db:"salary"`
	JoiningDate time.Time       `json:"joining_date" db:"joining_date"`
	Department  string          `json:"department" db:"department"`
}

// Bonus represents one bonus payment. A worker has zero or many.
type Bonus struct {
	WorkerRefID int64           `json:"worker_ref_id" db:"worker_ref_id"`
	Amount      decimal.Decimal `json:"bonus_amount" db:"bonus_amount"`
	Date        time.Time       `json:"bonus_date" db:"bonus_date"`
}

// Title represents one title assignment. AffectedFrom is zero when unknown.
type Title struct {
	WorkerRefID  int64     `json:"worker_ref_id" db:"worker_ref_id"`
	Title        string    `json:"worker_title" db:"worker_title"`
	AffectedFrom time.Time `json:"affected_from,omitempty" db:"affected_from"`
}

// Dataset is the immutable input of one dashboard snapshot.
type Dataset struct {
	Workers []Worker
	Bonuses []Bonus
	Titles  []Title
}

// ==================== JOINED VIEW ====================

// MergedRow is one row of workers ⟕ bonuses ⟕ titles.
// Bonus/Title are nil when the worker has no match; the matching Seq is then -1.
// BonusSeq/TitleSeq are the source positions of the matched records.
type MergedRow struct {
	Worker
	Bonus    *Bonus `json:"bonus,omitempty"`
	Title    *Title `json:"title,omitempty"`
	BonusSeq int    `json:"bonus_seq"`
	TitleSeq int    `json:"title_seq"`
}

// JoinMode selects how merged-relation metrics treat the join fan-out.
type JoinMode string

const (
	// JoinRaw aggregates the merged rows as they are; a worker with N bonuses
	// and M titles weighs N*M times.
	JoinRaw JoinMode = "raw"
	// JoinDedup counts every worker (or bonus) once per group.
	JoinDedup JoinMode = "dedup"
)

// ParseJoinMode defaults to JoinRaw for an empty string.
func ParseJoinMode(s string) (JoinMode, bool) {
	switch JoinMode(s) {
	case "", JoinRaw:
		return JoinRaw, true
	case JoinDedup:
		return JoinDedup, true
	}
	return "", false
}
