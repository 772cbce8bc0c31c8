package domain

import (
	"github.com/shopspring/decimal"

	"github.com/locvowork/workforce_dashboard/pkg/aggregate"
)

// ==================== DASHBOARD VIEWS ====================

// View names, used by the HTTP routes, the CLI and the workbook sheets.
const (
	ViewKeyMetrics      = "key-metrics"
	ViewSalaryBreakdown = "salary"
	ViewBonusAllocation = "bonus"
	ViewTitleComparison = "titles"
)

// Distribution choices of the salary and bonus views.
const (
	DistributionDepartment = "department"
	DistributionTitle      = "title"
	DistributionAll        = "all"
)

// KeyMetricsView is the headline KPI panel.
type KeyMetricsView struct {
	Mode          JoinMode                 `json:"mode"`
	TotalSalary   decimal.Decimal          `json:"total_salary"`
	AverageSalary decimal.Decimal          `json:"average_salary"`
	HighestSalary decimal.Decimal          `json:"highest_salary"`
	LowestSalary  decimal.Decimal          `json:"lowest_salary"`
	Departments   int                      `json:"departments"`
	Workers       int                      `json:"workers"`
	SalaryVsBonus []aggregate.ScatterPoint `json:"salary_vs_bonus"`
	// Salary and bonus summed per bonus month over the joined rows.
	MonthlySalary aggregate.TimeSeries `json:"monthly_salary"`
	MonthlyBonus  aggregate.TimeSeries `json:"monthly_bonus"`
}

// SalaryBreakdownView breaks salary down by department and/or title.
// Exactly one of ByDepartment, ByTitle or Matrix is set, per Distribution.
type SalaryBreakdownView struct {
	Mode           JoinMode             `json:"mode"`
	Distribution   string               `json:"distribution"`
	Summary        aggregate.Summary    `json:"summary"`
	ByDepartment   aggregate.Series     `json:"by_department,omitempty"`
	ByTitle        aggregate.Series     `json:"by_title,omitempty"`
	Matrix         *aggregate.Matrix    `json:"matrix,omitempty"`
	ByJoiningMonth aggregate.TimeSeries `json:"by_joining_month"`
	TopDepartments aggregate.Series     `json:"top_departments"`
	TopTitles      aggregate.Series     `json:"top_titles"`
}

// BonusAllocationView describes how bonus money is spread.
type BonusAllocationView struct {
	Mode                  JoinMode             `json:"mode"`
	Distribution          string               `json:"distribution"`
	TotalBonus            decimal.Decimal      `json:"total_bonus"`
	AverageBonusPerWorker decimal.Decimal      `json:"average_bonus_per_worker"`
	Transactions          int                  `json:"transactions"`
	Share                 aggregate.Series     `json:"share"`
	Monthly               aggregate.TimeSeries `json:"monthly"`
	TopTitles             aggregate.Series     `json:"top_titles"`
	TopDepartments        aggregate.Series     `json:"top_departments"`
}

// TitleComparisonView compares titles by pay.
type TitleComparisonView struct {
	Mode               JoinMode             `json:"mode"`
	Titles             int                  `json:"titles"`
	HighestAvgSalary   *aggregate.Point     `json:"highest_avg_salary,omitempty"`
	LowestAvgSalary    *aggregate.Point     `json:"lowest_avg_salary,omitempty"`
	SalaryDistribution []aggregate.BoxStats `json:"salary_distribution"`
	MeanSalary         aggregate.Series     `json:"mean_salary"`
	MeanBonus          aggregate.Series     `json:"mean_bonus"`
}

// Overview bundles every view. Errors maps a view name to its failure; the
// other views are still filled.
type Overview struct {
	Mode       JoinMode             `json:"mode"`
	KeyMetrics *KeyMetricsView      `json:"key_metrics,omitempty"`
	Salary     *SalaryBreakdownView `json:"salary,omitempty"`
	Bonus      *BonusAllocationView `json:"bonus,omitempty"`
	Titles     *TitleComparisonView `json:"titles,omitempty"`
	Errors     map[string]string    `json:"errors,omitempty"`
}
