package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"millreport/internal/archive"
	"millreport/internal/dataset"
	"millreport/internal/domain"
	"millreport/internal/report"
)

func newGenerateCmd() *cobra.Command {
	var (
		cfgFlags   configFlags
		department string
		types      []string
		category   string
		input      string
		query      string
		outDir     string
		substitute bool
		sentinel   float64
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate reports from a CSV or SQLite dataset",
		Long: "Loads the report configuration, reads the input dataset, and generates " +
			"one report per requested type. Types run concurrently; any failure aborts the run.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := cfgFlags.load()
			if err != nil {
				return err
			}

			ds, err := readDataset(cmd.Context(), input, query)
			if err != nil {
				return err
			}

			opts := report.Options{}
			if substitute {
				opts.Policy = report.Substitute
				opts.Sentinel = sentinel
			}

			svc := report.NewService(nil)
			results := make([]*domain.Report, len(types))
			var g errgroup.Group
			for i, rt := range types {
				i, rt := i, rt
				g.Go(func() error {
					rpt, err := svc.Generate(ds, cfg, domain.Filter{
						DepartmentID: department,
						ReportType:   rt,
						Category:     category,
					}, opts)
					if err != nil {
						return fmt.Errorf("%s: %w", rt, err)
					}
					results[i] = rpt
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			if outDir != "" {
				if err := os.MkdirAll(outDir, 0o755); err != nil {
					return fmt.Errorf("create output directory: %w", err)
				}
				for i, rpt := range results {
					path := filepath.Join(outDir, fmt.Sprintf("%s_%s.json", department, types[i]))
					f, err := os.Create(path) //nolint:gosec // caller-controlled output dir
					if err != nil {
						return fmt.Errorf("create %s: %w", path, err)
					}
					if err := printJSON(f, rpt); err != nil {
						_ = f.Close()
						return err
					}
					if err := f.Close(); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
				}
				return nil
			}

			if len(results) == 1 {
				return printJSON(cmd.OutOrStdout(), results[0])
			}
			byType := make(map[string]*domain.Report, len(results))
			for i, rpt := range results {
				byType[types[i]] = rpt
			}
			return printJSON(cmd.OutOrStdout(), byType)
		},
	}

	addConfigFlags(cmd, &cfgFlags)
	cmd.Flags().StringVarP(&department, "department", "d", "", "Department to report on")
	cmd.Flags().StringSliceVarP(&types, "type", "t", []string{"daywise"}, "Report type(s) to generate")
	cmd.Flags().StringVar(&category, "category", "", "Report category (countwise, hankwise, lotwise, machinewise)")
	cmd.Flags().StringVarP(&input, "input", "i", "", "Input dataset: .csv file or .sqlite/.db database")
	cmd.Flags().StringVar(&query, "query", "", "SQL query selecting the dataset rows (SQLite input only)")
	cmd.Flags().StringVar(&outDir, "out", "", "Directory to write one JSON file per report (default: stdout)")
	cmd.Flags().BoolVar(&substitute, "substitute", false, "Record a sentinel for failed formulas instead of aborting")
	cmd.Flags().Float64Var(&sentinel, "sentinel", 0, "Sentinel value used with --substitute")
	_ = cmd.MarkFlagRequired("department")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

// readDataset loads rows from a CSV file or a SQLite database, picked by
// file extension.
func readDataset(ctx context.Context, input, query string) (*dataset.Dataset, error) {
	switch ext := strings.ToLower(filepath.Ext(input)); ext {
	case ".csv":
		f, err := os.Open(input) //nolint:gosec // caller-controlled input path
		if err != nil {
			return nil, fmt.Errorf("open dataset: %w", err)
		}
		defer f.Close() //nolint:errcheck
		return dataset.ReadCSV(f)
	case ".sqlite", ".db":
		if query == "" {
			return nil, fmt.Errorf("--query is required for SQLite input")
		}
		db, err := archive.OpenSQLite(input, "read", 0)
		if err != nil {
			return nil, err
		}
		defer db.Close() //nolint:errcheck
		return dataset.ReadSQL(ctx, db, query)
	default:
		return nil, fmt.Errorf("unsupported dataset extension %q in %s", ext, input)
	}
}
