package dataflow_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/locvowork/workforce_dashboard/pkg/dataflow"
)

func TestPipelineWithRetry(t *testing.T) {
	ctx := context.Background()

	source := dataflow.From(ctx, "1,Alice", "2,Bob", "retry,Charlie", "broken")

	type Row struct {
		ID   string
		Name string
	}

	var dropped int32
	parsed := dataflow.Map(ctx, source, func(_ context.Context, s string) (Row, error) {
		parts := strings.Split(s, ",")
		if len(parts) != 2 {
			return Row{}, fmt.Errorf("invalid format")
		}
		return Row{ID: parts[0], Name: parts[1]}, nil
	}, dataflow.WithWorkers(2), dataflow.WithErrorHandler(func(error) bool {
		atomic.AddInt32(&dropped, 1)
		return true
	}))

	var attempts int32
	saved := dataflow.Map(ctx, parsed, func(_ context.Context, row Row) (Row, error) {
		if row.ID == "retry" {
			if atomic.AddInt32(&attempts, 1) < 3 {
				return Row{}, fmt.Errorf("transient error")
			}
		}
		return row, nil
	}, dataflow.WithRetry(3, func(int) time.Duration { return time.Millisecond }))

	results, err := dataflow.Collect(ctx, saved)
	if err != nil {
		t.Fatalf("Pipeline failed: %v", err)
	}
	if len(results) != 3 {
		t.Errorf("Expected 3 results, got %d", len(results))
	}
	if dropped != 1 {
		t.Errorf("Expected 1 dropped item, got %d", dropped)
	}

	foundRetry := false
	for _, r := range results {
		if r.ID == "retry" {
			foundRetry = true
		}
	}
	if !foundRetry {
		t.Error("Did not find retried item")
	}
}

func TestForEachReturnsFirstError(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")

	err := dataflow.ForEach(ctx, dataflow.From(ctx, 1, 2, 3), func(_ context.Context, v int) error {
		if v == 2 {
			return boom
		}
		return nil
	})
	if !errors.Is(err, boom) {
		t.Errorf("Expected boom, got %v", err)
	}
}

func TestForEachCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := dataflow.ForEach(ctx, dataflow.New(make(chan int)), func(context.Context, int) error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestExponentialBackoff(t *testing.T) {
	b := dataflow.ExponentialBackoff(10*time.Millisecond, 50*time.Millisecond)
	want := []time.Duration{10 * time.Millisecond, 20 * time.Millisecond, 40 * time.Millisecond, 50 * time.Millisecond, 50 * time.Millisecond}
	for i, w := range want {
		if got := b(i + 1); got != w {
			t.Errorf("attempt %d: expected %v, got %v", i+1, w, got)
		}
	}
}
