package service

import (
	"context"
	"fmt"
	"time"

	"github.com/locvowork/workforce_dashboard/internal/domain"
	"github.com/locvowork/workforce_dashboard/internal/logger"
	"github.com/locvowork/workforce_dashboard/pkg/aggregate"
	"github.com/locvowork/workforce_dashboard/pkg/dataflow"
)

// Identity fields the dedup mode keeps one merged row per.
var (
	workerIdentity = []string{domain.FieldWorkerID}
	bonusIdentity  = []string{domain.FieldWorkerID, domain.FieldBonusSeq}
)

// DashboardService computes the four dashboard views over a snapshot.
// Scalar salary metrics always come from the worker relation; group
// metrics over the joined rows honour the requested JoinMode.
type DashboardService struct {
	snap        *Snapshot
	topN        int
	viewWorkers int
}

// NewDashboardService creates a service. topN bounds the "top" series and
// viewWorkers the concurrency of Overview.
func NewDashboardService(snap *Snapshot, topN, viewWorkers int) *DashboardService {
	if topN <= 0 {
		topN = 5
	}
	if viewWorkers <= 0 {
		viewWorkers = 1
	}
	return &DashboardService{snap: snap, topN: topN, viewWorkers: viewWorkers}
}

// Snapshot returns the relations the service queries.
func (s *DashboardService) Snapshot() *Snapshot {
	return s.snap
}

// merged returns the joined relation for one query. In dedup mode the rows
// are reduced to one per identity and grouping key combination.
func (s *DashboardService) merged(mode domain.JoinMode, identity []string, keys ...string) (*aggregate.Relation[domain.MergedRow], error) {
	if mode != domain.JoinDedup {
		return s.snap.Merged, nil
	}
	fields := append(append([]string{}, identity...), keys...)
	return s.snap.Merged.DistinctBy(fields...)
}

func checkMode(mode domain.JoinMode) (domain.JoinMode, error) {
	m, ok := domain.ParseJoinMode(string(mode))
	if !ok {
		return "", fmt.Errorf("%w: join mode %q", domain.ErrInvalidArgument, mode)
	}
	return m, nil
}

// ============================================================================
// Key Metrics
// ============================================================================

func (s *DashboardService) KeyMetrics(ctx context.Context, mode domain.JoinMode) (*domain.KeyMetricsView, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	mode, err := checkMode(mode)
	if err != nil {
		return nil, err
	}

	summary, err := s.snap.Workers.Describe(domain.FieldSalary)
	if err != nil {
		return nil, err
	}
	view := &domain.KeyMetricsView{
		Mode:          mode,
		TotalSalary:   summary.Sum,
		AverageSalary: summary.Mean,
		HighestSalary: summary.Max,
		LowestSalary:  summary.Min,
	}
	if view.Departments, err = s.snap.Workers.DistinctCount(domain.FieldDepartment); err != nil {
		return nil, err
	}
	if view.Workers, err = s.snap.Workers.DistinctCount(domain.FieldWorkerID); err != nil {
		return nil, err
	}

	rel, err := s.merged(mode, bonusIdentity, domain.FieldWorkerTitle)
	if err != nil {
		return nil, err
	}
	if view.SalaryVsBonus, err = rel.Points(domain.FieldSalary, domain.FieldBonusAmount, domain.FieldWorkerTitle); err != nil {
		return nil, err
	}

	rel, err = s.merged(mode, bonusIdentity)
	if err != nil {
		return nil, err
	}
	if view.MonthlySalary, err = rel.TimeBucket(domain.FieldBonusDate, aggregate.Month, domain.FieldSalary, aggregate.OpSum); err != nil {
		return nil, err
	}
	if view.MonthlyBonus, err = rel.TimeBucket(domain.FieldBonusDate, aggregate.Month, domain.FieldBonusAmount, aggregate.OpSum); err != nil {
		return nil, err
	}
	return view, nil
}

// ============================================================================
// Salary Breakdown
// ============================================================================

// SalaryBreakdown groups salary by department, title or both ("all").
// An empty distribution means department.
func (s *DashboardService) SalaryBreakdown(ctx context.Context, distribution string, mode domain.JoinMode) (*domain.SalaryBreakdownView, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	mode, err := checkMode(mode)
	if err != nil {
		return nil, err
	}
	if distribution == "" {
		distribution = domain.DistributionDepartment
	}

	view := &domain.SalaryBreakdownView{Mode: mode, Distribution: distribution}
	if view.Summary, err = s.snap.Workers.Describe(domain.FieldSalary); err != nil {
		return nil, err
	}

	switch distribution {
	case domain.DistributionDepartment:
		view.ByDepartment, err = s.meanSalaryBy(mode, domain.FieldDepartment)
	case domain.DistributionTitle:
		view.ByTitle, err = s.meanSalaryBy(mode, domain.FieldWorkerTitle)
	case domain.DistributionAll:
		var rel *aggregate.Relation[domain.MergedRow]
		if rel, err = s.merged(mode, workerIdentity, domain.FieldDepartment, domain.FieldWorkerTitle); err != nil {
			return nil, err
		}
		var m aggregate.Matrix
		if m, err = rel.Pivot(domain.FieldDepartment, domain.FieldWorkerTitle, domain.FieldSalary, aggregate.OpMean); err == nil {
			view.Matrix = &m
		}
	default:
		return nil, fmt.Errorf("%w: salary distribution %q", domain.ErrInvalidArgument, distribution)
	}
	if err != nil {
		return nil, err
	}

	rel, err := s.merged(mode, workerIdentity)
	if err != nil {
		return nil, err
	}
	if view.ByJoiningMonth, err = rel.TimeBucket(domain.FieldJoiningDate, aggregate.Month, domain.FieldSalary, aggregate.OpMean); err != nil {
		return nil, err
	}
	if view.TopDepartments, err = s.top(mode, workerIdentity, domain.FieldDepartment, domain.FieldSalary, aggregate.OpMean); err != nil {
		return nil, err
	}
	if view.TopTitles, err = s.top(mode, workerIdentity, domain.FieldWorkerTitle, domain.FieldSalary, aggregate.OpMean); err != nil {
		return nil, err
	}
	return view, nil
}

// meanSalaryBy returns mean salary per key, largest first.
func (s *DashboardService) meanSalaryBy(mode domain.JoinMode, key string) (aggregate.Series, error) {
	rel, err := s.merged(mode, workerIdentity, key)
	if err != nil {
		return nil, err
	}
	series, err := rel.GroupBy(key, domain.FieldSalary, aggregate.OpMean)
	if err != nil {
		return nil, err
	}
	aggregate.SortDescending(series)
	return series, nil
}

func (s *DashboardService) top(mode domain.JoinMode, identity []string, key, metric string, op aggregate.Op) (aggregate.Series, error) {
	rel, err := s.merged(mode, identity, key)
	if err != nil {
		return nil, err
	}
	return rel.TopN(key, metric, op, s.topN)
}

func hasTitle(row domain.MergedRow) bool { return row.Title != nil }

// titledBonuses is the merged relation the bonus split works on: rows of
// untitled workers are left out of both the title and the department split.
func (s *DashboardService) titledBonuses(mode domain.JoinMode, key string) (*aggregate.Relation[domain.MergedRow], error) {
	rel, err := s.merged(mode, bonusIdentity, key)
	if err != nil {
		return nil, err
	}
	return rel.Where(hasTitle), nil
}

// ============================================================================
// Bonus Allocation
// ============================================================================

// BonusAllocation splits bonus money by title or department. An empty
// distribution means title.
func (s *DashboardService) BonusAllocation(ctx context.Context, distribution string, mode domain.JoinMode) (*domain.BonusAllocationView, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	mode, err := checkMode(mode)
	if err != nil {
		return nil, err
	}
	if distribution == "" {
		distribution = domain.DistributionTitle
	}

	var shareKey string
	switch distribution {
	case domain.DistributionTitle:
		shareKey = domain.FieldWorkerTitle
	case domain.DistributionDepartment:
		shareKey = domain.FieldDepartment
	default:
		return nil, fmt.Errorf("%w: bonus distribution %q", domain.ErrInvalidArgument, distribution)
	}

	bonuses := s.snap.Bonuses
	view := &domain.BonusAllocationView{Mode: mode, Distribution: distribution}
	if view.TotalBonus, err = bonuses.Sum(domain.FieldBonusAmount); err != nil {
		return nil, err
	}
	if view.Transactions, err = bonuses.Count(domain.FieldBonusAmount); err != nil {
		return nil, err
	}
	perWorker, err := bonuses.GroupBy(domain.FieldWorkerRefID, domain.FieldBonusAmount, aggregate.OpSum)
	if err != nil {
		return nil, err
	}
	view.AverageBonusPerWorker = perWorker.Mean()

	rel, err := s.titledBonuses(mode, shareKey)
	if err != nil {
		return nil, err
	}
	if view.Share, err = rel.GroupBy(shareKey, domain.FieldBonusAmount, aggregate.OpSum); err != nil {
		return nil, err
	}
	if view.Monthly, err = bonuses.TimeBucket(domain.FieldBonusDate, aggregate.Month, domain.FieldBonusAmount, aggregate.OpSum); err != nil {
		return nil, err
	}
	for _, t := range []struct {
		key string
		dst *aggregate.Series
	}{
		{domain.FieldWorkerTitle, &view.TopTitles},
		{domain.FieldDepartment, &view.TopDepartments},
	} {
		rel, err := s.titledBonuses(mode, t.key)
		if err != nil {
			return nil, err
		}
		if *t.dst, err = rel.TopN(t.key, domain.FieldBonusAmount, aggregate.OpSum, s.topN); err != nil {
			return nil, err
		}
	}
	return view, nil
}

// ============================================================================
// Title & Salary Comparison
// ============================================================================

func (s *DashboardService) TitleComparison(ctx context.Context, mode domain.JoinMode) (*domain.TitleComparisonView, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	mode, err := checkMode(mode)
	if err != nil {
		return nil, err
	}

	view := &domain.TitleComparisonView{Mode: mode}
	if view.Titles, err = s.snap.Merged.DistinctCount(domain.FieldWorkerTitle); err != nil {
		return nil, err
	}

	rel, err := s.merged(mode, workerIdentity, domain.FieldWorkerTitle)
	if err != nil {
		return nil, err
	}
	if view.MeanSalary, err = rel.GroupBy(domain.FieldWorkerTitle, domain.FieldSalary, aggregate.OpMean); err != nil {
		return nil, err
	}
	if p, ok := aggregate.ArgMax(view.MeanSalary); ok {
		view.HighestAvgSalary = &p
	}
	if p, ok := aggregate.ArgMin(view.MeanSalary); ok {
		view.LowestAvgSalary = &p
	}
	if view.SalaryDistribution, err = rel.Quantiles(domain.FieldWorkerTitle, domain.FieldSalary); err != nil {
		return nil, err
	}

	rel, err = s.merged(mode, bonusIdentity, domain.FieldWorkerTitle)
	if err != nil {
		return nil, err
	}
	if view.MeanBonus, err = rel.GroupBy(domain.FieldWorkerTitle, domain.FieldBonusAmount, aggregate.OpMean); err != nil {
		return nil, err
	}
	return view, nil
}

// ============================================================================
// Overview: every view, computed concurrently
// ============================================================================

type viewResult struct {
	name  string
	value interface{}
	err   error
}

// Overview computes the four views with the default distributions. A failing
// view is reported in Errors; the others are still returned.
func (s *DashboardService) Overview(ctx context.Context, mode domain.JoinMode) (*domain.Overview, error) {
	mode, err := checkMode(mode)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	names := dataflow.From(ctx, domain.ViewKeyMetrics, domain.ViewSalaryBreakdown, domain.ViewBonusAllocation, domain.ViewTitleComparison)
	results := dataflow.Map(ctx, names, func(ctx context.Context, name string) (viewResult, error) {
		v, err := s.View(ctx, name, "", mode)
		return viewResult{name: name, value: v, err: err}, nil
	}, dataflow.WithWorkers(s.viewWorkers))

	collected, err := dataflow.Collect(ctx, results)
	if err != nil {
		return nil, err
	}

	out := &domain.Overview{Mode: mode}
	for _, r := range collected {
		if r.err != nil {
			if out.Errors == nil {
				out.Errors = make(map[string]string)
			}
			out.Errors[r.name] = r.err.Error()
			logger.WarnLog(ctx, "View %s failed: %v", r.name, r.err)
			continue
		}
		switch v := r.value.(type) {
		case *domain.KeyMetricsView:
			out.KeyMetrics = v
		case *domain.SalaryBreakdownView:
			out.Salary = v
		case *domain.BonusAllocationView:
			out.Bonus = v
		case *domain.TitleComparisonView:
			out.Titles = v
		}
	}
	logger.DebugLog(ctx, "Overview (%s) computed in %s", mode, time.Since(start))
	return out, nil
}

// View computes one view by name. distribution is ignored by the views that
// have none.
func (s *DashboardService) View(ctx context.Context, name, distribution string, mode domain.JoinMode) (interface{}, error) {
	switch name {
	case domain.ViewKeyMetrics:
		return s.KeyMetrics(ctx, mode)
	case domain.ViewSalaryBreakdown:
		return s.SalaryBreakdown(ctx, distribution, mode)
	case domain.ViewBonusAllocation:
		return s.BonusAllocation(ctx, distribution, mode)
	case domain.ViewTitleComparison:
		return s.TitleComparison(ctx, mode)
	}
	return nil, fmt.Errorf("%w: view %q", domain.ErrInvalidArgument, name)
}
