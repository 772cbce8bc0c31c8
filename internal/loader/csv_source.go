// Package loader reads the worker, bonus and title relations from CSV files.
package loader

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/locvowork/workforce_dashboard/internal/domain"
	"github.com/locvowork/workforce_dashboard/internal/logger"
)

// CSVSource loads a Dataset from three CSV files.
type CSVSource struct {
	WorkerPath string
	BonusPath  string
	TitlePath  string
	// DateLayouts are tried before DefaultDateLayouts.
	DateLayouts []string
}

var _ domain.Source = (*CSVSource)(nil)

// NewCSVSource creates a CSV source.
func NewCSVSource(workerPath, bonusPath, titlePath string, layouts ...string) *CSVSource {
	return &CSVSource{
		WorkerPath:  workerPath,
		BonusPath:   bonusPath,
		TitlePath:   titlePath,
		DateLayouts: layouts,
	}
}

// Load reads the three files concurrently. The first failure cancels the
// others and is returned as a *domain.LoadError.
func (s *CSVSource) Load(ctx context.Context) (*domain.Dataset, error) {
	p := parser{layouts: append(append([]string{}, s.DateLayouts...), DefaultDateLayouts...)}
	ds := &domain.Dataset{}

	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		f, err := readWhenLive(egCtx, "worker", s.WorkerPath, workerColumns)
		if err != nil {
			return err
		}
		if f.rows == 0 {
			return f.errorf(0, "", "no worker rows")
		}
		ds.Workers, err = p.workers(f)
		return err
	})

	eg.Go(func() error {
		f, err := readWhenLive(egCtx, "bonus", s.BonusPath, bonusColumns)
		if err != nil {
			return err
		}
		ds.Bonuses, err = p.bonuses(f)
		return err
	})

	eg.Go(func() error {
		f, err := readWhenLive(egCtx, "title", s.TitlePath, titleColumns)
		if err != nil {
			return err
		}
		ds.Titles, err = p.titles(f)
		return err
	})

	if err := eg.Wait(); err != nil {
		logger.ErrorLog(ctx, "Failed to load CSV sources: %v", err)
		return nil, err
	}

	logger.InfoLog(ctx, "Loaded %d workers, %d bonuses, %d titles from CSV",
		len(ds.Workers), len(ds.Bonuses), len(ds.Titles))
	return ds, nil
}

func readWhenLive(ctx context.Context, source, path string, required []string) (*frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return readFrame(source, path, required)
}
