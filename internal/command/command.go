package command

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/locvowork/workforce_dashboard/internal/bootstrap"
	"github.com/locvowork/workforce_dashboard/internal/domain"
	"github.com/locvowork/workforce_dashboard/internal/report"
	"github.com/locvowork/workforce_dashboard/internal/service"
)

// Execute runs the root command with the process arguments.
func Execute() error {
	return NewRootCommand().Execute()
}

// NewRootCommand builds the command tree. Running the root command alone
// starts the HTTP server.
func NewRootCommand() *cobra.Command {
	var envFiles []string

	load := func(cmd *cobra.Command) (*bootstrap.App, error) {
		app := bootstrap.NewApp()
		if err := app.LoadDashboard(cmd.Context(), envFiles...); err != nil {
			return nil, err
		}
		return app, nil
	}

	serve := func(cmd *cobra.Command, args []string) error {
		app := bootstrap.NewApp()
		if err := app.Initialize(cmd.Context(), envFiles...); err != nil {
			return err
		}
		return app.Run()
	}

	rootCmd := &cobra.Command{
		Use:           "workforce-dashboard",
		Short:         "Workforce compensation dashboard",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve,
	}
	rootCmd.PersistentFlags().StringSliceVarP(&envFiles, "env", "e", nil, "Environment file(s), e.g. --env .env")

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Start the HTTP API",
			RunE:  serve,
		},
		newReportCommand(load),
		newExportCommand(load),
		newQueryCommand(load),
	)
	return rootCmd
}

type loadFunc func(cmd *cobra.Command) (*bootstrap.App, error)

func newReportCommand(load loadFunc) *cobra.Command {
	var distribution, mode string

	cmd := &cobra.Command{
		Use:       "report [key-metrics|salary|bonus|titles]",
		Short:     "Print one view, or the whole dashboard, as JSON",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{domain.ViewKeyMetrics, domain.ViewSalaryBreakdown, domain.ViewBonusAllocation, domain.ViewTitleComparison},
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := load(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			joinMode, err := resolveMode(app, mode)
			if err != nil {
				return err
			}

			var out interface{}
			if len(args) == 0 {
				out, err = app.Service.Overview(cmd.Context(), joinMode)
			} else {
				out, err = app.Service.View(cmd.Context(), args[0], distribution, joinMode)
			}
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVarP(&distribution, "distribution", "d", "", "Distribution of the salary and bonus views: department, title or all")
	cmd.Flags().StringVarP(&mode, "mode", "m", "", "Join mode: raw or dedup (default from JOIN_MODE)")
	return cmd
}

func newExportCommand(load loadFunc) *cobra.Command {
	var out, mode string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the dashboard workbook; the --out extension picks xlsx or csv",
		RunE: func(cmd *cobra.Command, args []string) error {
			write := report.WriteXLSX
			switch strings.ToLower(filepath.Ext(out)) {
			case ".xlsx":
			case ".csv":
				write = report.WriteCSV
			default:
				return fmt.Errorf("%w: output %q must end in .xlsx or .csv", domain.ErrInvalidArgument, out)
			}

			app, err := load(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			joinMode, err := resolveMode(app, mode)
			if err != nil {
				return err
			}
			ov, err := app.Service.Overview(cmd.Context(), joinMode)
			if err != nil {
				return err
			}
			return writeFile(out, func(w io.Writer) error { return write(w, ov, app.Template) })
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "dashboard.xlsx", "Output file")
	cmd.Flags().StringVarP(&mode, "mode", "m", "", "Join mode: raw or dedup (default from JOIN_MODE)")
	return cmd
}

func newQueryCommand(load loadFunc) *cobra.Command {
	var req service.QueryRequest

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Run one aggregation against a relation",
		Example: `  workforce-dashboard query --relation workers --op sum --field salary
  workforce-dashboard query --relation merged --op group --key department --metric salary --agg mean --distinct-by worker_id,department`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := load(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			res, err := app.Service.Query(cmd.Context(), req)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), res)
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.Relation, "relation", domain.RelationMerged, "Relation: workers, bonuses, titles or merged")
	f.StringVar(&req.Op, "op", "", "Operation: sum, mean, min, max, count, distinct, describe, group, pivot, topn, timebucket, quantiles, points")
	f.StringVar(&req.Field, "field", "", "Reduced, date or x field")
	f.StringVar(&req.Key, "key", "", "Grouping key")
	f.StringVar(&req.ColKey, "col-key", "", "Pivot column key")
	f.StringVar(&req.Metric, "metric", "", "Metric field of grouped operations")
	f.StringVar(&req.Agg, "agg", "", "Reduction of grouped operations (default sum)")
	f.IntVar(&req.N, "n", 0, "Number of groups kept by topn")
	f.StringVar(&req.Granularity, "granularity", "month", "Time bucket: day, month, quarter or year")
	f.BoolVar(&req.ZeroFill, "zero-fill", false, "Emit empty periods as zero")
	f.StringSliceVar(&req.DistinctBy, "distinct-by", nil, "Deduplicate rows on these fields first")
	_ = cmd.MarkFlagRequired("op")
	return cmd
}

func resolveMode(app *bootstrap.App, flag string) (domain.JoinMode, error) {
	if flag == "" {
		return app.JoinMode, nil
	}
	mode, ok := domain.ParseJoinMode(flag)
	if !ok {
		return "", fmt.Errorf("%w: join mode %q", domain.ErrInvalidArgument, flag)
	}
	return mode, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeFile(path string, write func(w io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
