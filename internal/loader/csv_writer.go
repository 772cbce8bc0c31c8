package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/locvowork/workforce_dashboard/internal/domain"
)

// Default file names inside a data directory.
const (
	WorkerFile = "worker.csv"
	BonusFile  = "bonus.csv"
	TitleFile  = "title.csv"
)

// WriteLayout is the date layout used by WriteCSV. DefaultDateLayouts reads it.
const WriteLayout = "2006-01-02 15:04:05"

// NewDirSource reads the default file names from dir.
func NewDirSource(dir string, layouts ...string) *CSVSource {
	return NewCSVSource(filepath.Join(dir, WorkerFile), filepath.Join(dir, BonusFile), filepath.Join(dir, TitleFile), layouts...)
}

// WriteCSV writes ds into dir as worker.csv, bonus.csv and title.csv with
// upper-case headers. The directory is created when missing.
func WriteCSV(dir string, ds *domain.Dataset) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	workers := make([][]string, 0, len(ds.Workers))
	for _, w := range ds.Workers {
		workers = append(workers, []string{
			strconv.FormatInt(w.ID, 10), w.FirstName, w.LastName,
			w.Salary.String(), formatDate(w.JoiningDate), w.Department,
		})
	}
	bonuses := make([][]string, 0, len(ds.Bonuses))
	for _, b := range ds.Bonuses {
		bonuses = append(bonuses, []string{
			strconv.FormatInt(b.WorkerRefID, 10), b.Amount.String(), formatDate(b.Date),
		})
	}
	titles := make([][]string, 0, len(ds.Titles))
	for _, t := range ds.Titles {
		titles = append(titles, []string{
			strconv.FormatInt(t.WorkerRefID, 10), t.Title, formatDate(t.AffectedFrom),
		})
	}

	files := []struct {
		name   string
		header []string
		rows   [][]string
	}{
		{WorkerFile, []string{domain.FieldWorkerID, domain.FieldFirstName, domain.FieldLastName, domain.FieldSalary, domain.FieldJoiningDate, domain.FieldDepartment}, workers},
		{BonusFile, []string{domain.FieldWorkerRefID, domain.FieldBonusAmount, domain.FieldBonusDate}, bonuses},
		{TitleFile, []string{domain.FieldWorkerRefID, domain.FieldWorkerTitle, domain.FieldAffectedFrom}, titles},
	}
	for _, f := range files {
		if err := writeFrame(filepath.Join(dir, f.name), f.header, f.rows); err != nil {
			return err
		}
	}
	return nil
}

func writeFrame(path string, header []string, rows [][]string) error {
	upper := make([]string, len(header))
	for i, h := range header {
		upper[i] = strings.ToUpper(h)
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer out.Close()

	// gota cannot build a frame without rows
	if len(rows) == 0 {
		if _, err := out.WriteString(strings.Join(upper, ",") + "\n"); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		return out.Close()
	}

	df := dataframe.LoadRecords(append([][]string{upper}, rows...),
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues([]string{}),
	)
	if df.Err != nil {
		return fmt.Errorf("failed to build %s: %w", path, df.Err)
	}
	if err := df.WriteCSV(out); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return out.Close()
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(WriteLayout)
}
