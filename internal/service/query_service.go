package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/locvowork/workforce_dashboard/internal/domain"
	"github.com/locvowork/workforce_dashboard/pkg/aggregate"
)

// Query operations beyond the scalar aggregate.Op reductions.
const (
	QueryDistinct   = "distinct"
	QueryDescribe   = "describe"
	QueryGroup      = "group"
	QueryPivot      = "pivot"
	QueryTopN       = "topn"
	QueryTimeBucket = "timebucket"
	QueryQuantiles  = "quantiles"
	QueryPoints     = "points"
)

// QueryRequest addresses the aggregation engine directly.
//
// Field is the scalar field (sum..count, distinct, describe), the date field
// (timebucket) or the x field (points). Key is the grouping key (group, topn,
// quantiles, pivot rows) or the point label. Metric and Agg describe the
// reduced value of grouped operations.
type QueryRequest struct {
	Relation    string   `json:"relation" query:"relation"`
	Op          string   `json:"op" query:"op"`
	Field       string   `json:"field,omitempty" query:"field"`
	Key         string   `json:"key,omitempty" query:"key"`
	ColKey      string   `json:"col_key,omitempty" query:"col_key"`
	Metric      string   `json:"metric,omitempty" query:"metric"`
	Agg         string   `json:"agg,omitempty" query:"agg"`
	N           int      `json:"n,omitempty" query:"n"`
	Granularity string   `json:"granularity,omitempty" query:"granularity"`
	ZeroFill    bool     `json:"zero_fill,omitempty" query:"zero_fill"`
	DistinctBy  []string `json:"distinct_by,omitempty" query:"distinct_by"`
}

// QueryResult echoes the request next to its value.
type QueryResult struct {
	Request QueryRequest `json:"request"`
	Value   interface{}  `json:"value"`
}

// Query runs one engine operation against a named relation.
func (s *DashboardService) Query(ctx context.Context, req QueryRequest) (*QueryResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	req.Op = strings.ToLower(strings.TrimSpace(req.Op))
	if req.N == 0 {
		req.N = s.topN
	}

	var (
		value interface{}
		err   error
	)
	switch req.Relation {
	case domain.RelationWorkers:
		value, err = runQuery(s.snap.Workers, req)
	case domain.RelationBonuses:
		value, err = runQuery(s.snap.Bonuses, req)
	case domain.RelationTitles:
		value, err = runQuery(s.snap.Titles, req)
	case domain.RelationMerged, "":
		req.Relation = domain.RelationMerged
		value, err = runQuery(s.snap.Merged, req)
	default:
		return nil, &aggregate.AggregationError{Field: req.Relation, Op: "query relation"}
	}
	if err != nil {
		return nil, fmt.Errorf("query %s %s: %w", req.Relation, req.Op, err)
	}
	return &QueryResult{Request: req, Value: value}, nil
}

func runQuery[R any](rel *aggregate.Relation[R], req QueryRequest) (interface{}, error) {
	if len(req.DistinctBy) > 0 {
		var err error
		if rel, err = rel.DistinctBy(req.DistinctBy...); err != nil {
			return nil, err
		}
	}

	agg := aggregate.OpSum
	if req.Agg != "" {
		var err error
		if agg, err = aggregate.ParseOp(req.Agg); err != nil {
			return nil, err
		}
	}

	switch req.Op {
	case QueryDistinct:
		return rel.DistinctCount(req.Field)
	case QueryDescribe:
		return rel.Describe(req.Field)
	case QueryGroup:
		return rel.GroupBy(req.Key, req.Metric, agg)
	case QueryPivot:
		return rel.Pivot(req.Key, req.ColKey, req.Metric, agg)
	case QueryTopN:
		return rel.TopN(req.Key, req.Metric, agg, req.N)
	case QueryTimeBucket:
		g, err := aggregate.ParseGranularity(req.Granularity)
		if err != nil {
			return nil, err
		}
		var opts []aggregate.BucketOption
		if req.ZeroFill {
			opts = append(opts, aggregate.WithZeroFill())
		}
		return rel.TimeBucket(req.Field, g, req.Metric, agg, opts...)
	case QueryQuantiles:
		return rel.Quantiles(req.Key, req.Metric)
	case QueryPoints:
		return rel.Points(req.Field, req.Metric, req.Key)
	}

	op, err := aggregate.ParseOp(req.Op)
	if err != nil {
		return nil, err
	}
	if op == aggregate.OpCount {
		return rel.Count(req.Field)
	}
	return rel.Aggregate(req.Field, op)
}
