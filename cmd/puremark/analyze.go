package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cognicore/puremark/internal/scanfile"
	"github.com/cognicore/puremark/pkg/puremark"
	"github.com/cognicore/puremark/pkg/puremark/allergen"
	"github.com/cognicore/puremark/pkg/puremark/diet"
	"github.com/cognicore/puremark/pkg/puremark/metrics"
	"github.com/cognicore/puremark/pkg/puremark/ocrtext"
	"github.com/cognicore/puremark/pkg/puremark/report"
	"github.com/cognicore/puremark/pkg/puremark/store"
	"github.com/cognicore/puremark/pkg/puremark/store/sqlite"
)

func newSegmentCmd(a *app) *cobra.Command {
	var isHTML bool
	cmd := &cobra.Command{
		Use:   "segment [file]",
		Short: "Split label text into header, ingredient and advisory zones",
		Long:  "Reads label text from file, or stdin when no file is given, and prints the zone result as JSON.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			if isHTML {
				if raw, err = ocrtext.FromHTML(strings.NewReader(raw)); err != nil {
					return err
				}
			}
			e, err := a.engine(engineOptions{})
			if err != nil {
				return err
			}
			defer e.Close()
			return writeJSON(cmd.OutOrStdout(), e.Segment(raw))
		},
	}
	cmd.Flags().BoolVar(&isHTML, "html", false, "Input is HTML or hOCR")
	return cmd
}

// dietReport is the classify output for one diet.
type dietReport struct {
	Diet            diet.Diet             `json:"diet"`
	Classifications []diet.Classification `json:"classifications"`
	Verdict         diet.Verdict          `json:"verdict"`
}

func newClassifyCmd(a *app) *cobra.Command {
	var (
		diets  []string
		claims []string
	)
	cmd := &cobra.Command{
		Use:   "classify <ingredient>...",
		Short: "Classify ingredients and aggregate a verdict per diet",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			selected := diet.All()
			if len(diets) > 0 {
				var err error
				if selected, err = diet.ParseList(diets); err != nil {
					return err
				}
			}
			e, err := a.engine(engineOptions{})
			if err != nil {
				return err
			}
			defer e.Close()

			out := make([]dietReport, 0, len(selected))
			for _, d := range selected {
				dr := dietReport{Diet: d}
				for _, in := range args {
					c, err := e.Classify(diet.NewIngredient(in), d, claims...)
					if err != nil {
						return err
					}
					dr.Classifications = append(dr.Classifications, c)
				}
				if dr.Verdict, err = e.Aggregate(dr.Classifications, d); err != nil {
					return err
				}
				out = append(out, dr)
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringSliceVar(&diets, "diet", nil, "Diets to evaluate (default all)")
	cmd.Flags().StringSliceVar(&claims, "claim", nil, "Product label claims, such as a certification caption")
	return cmd
}

// allergyReport is the allergy output for one ingredient.
type allergyReport struct {
	Ingredient string `json:"ingredient"`
	allergen.Match
}

func newAllergyCmd(a *app) *cobra.Command {
	var allergies []string
	cmd := &cobra.Command{
		Use:   "allergy <ingredient>...",
		Short: "Check ingredients against user allergies",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.engine(engineOptions{})
			if err != nil {
				return err
			}
			defer e.Close()

			out := make([]allergyReport, 0, len(args))
			for _, in := range args {
				out = append(out, allergyReport{Ingredient: in, Match: e.CheckAllergyDetailed(in, allergies)})
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringSliceVar(&allergies, "allergies", nil, "Allergies to check, such as soy,milk")
	_ = cmd.MarkFlagRequired("allergies")
	return cmd
}

func newScanCmd(a *app) *cobra.Command {
	var (
		input      string
		output     string
		dbPath     string
		workers    int
		metricsOut string
	)
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Analyze a batch of JSONL scan records",
		Long:  "Reads one scan per line and writes one report per line. Reports are journaled when a database is given.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if dbPath == "" {
				dbPath = a.settings.Store.Path
			}
			if workers <= 0 {
				workers = a.settings.Scan.Workers
			}

			var (
				scans []puremark.Scan
				err   error
			)
			if input == "-" {
				scans, err = scanfile.Read(cmd.InOrStdin(), "stdin", a.logger)
			} else {
				scans, err = scanfile.LoadFromJSONL(input, a.logger)
			}
			if err != nil {
				return err
			}

			var eo engineOptions
			reg := prometheus.NewRegistry()
			if metricsOut != "" {
				m, err := metrics.New(reg)
				if err != nil {
					return err
				}
				eo.metrics = m
			}
			if dbPath != "" {
				st, err := sqlite.OpenSQLite(ctx, dbPath)
				if err != nil {
					return err
				}
				eo.store = st
			}
			e, err := a.engine(eo)
			if err != nil {
				if eo.store != nil {
					_ = eo.store.Close()
				}
				return err
			}
			defer e.Close()
			stop := a.watch(ctx, e)
			defer stop()

			start := time.Now()
			reports, err := e.AnalyzeBatch(ctx, scans, workers)
			if err != nil {
				return err
			}
			a.logger.Info("batch analyzed",
				zap.Int("scans", len(scans)),
				zap.Int("rejected", countRejected(reports)),
				zap.Int("workers", workers),
				zap.Duration("took", time.Since(start)))

			w := cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create %s: %w", output, err)
				}
				defer f.Close()
				w = f
			}
			if err := scanfile.WriteJSONL(w, reports); err != nil {
				return err
			}
			if metricsOut != "" {
				return metrics.WriteTextfile(metricsOut, reg)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "JSONL scan file, or - for stdin")
	cmd.Flags().StringVar(&output, "output", "", "Report file (default stdout)")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite report journal (default store.path)")
	cmd.Flags().IntVar(&workers, "workers", 0, "Concurrent scans (default scan.workers)")
	cmd.Flags().StringVar(&metricsOut, "metrics-out", "", "Write Prometheus metrics to this textfile")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func newReportsCmd(a *app) *cobra.Command {
	var (
		dbPath  string
		outcome string
		since   time.Duration
		limit   int
	)
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "List journaled reports, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd, a, dbPath)
			if err != nil {
				return err
			}
			defer st.Close()

			f := store.ReportFilter{Outcome: report.Outcome(strings.ToUpper(outcome)), Limit: limit}
			if since > 0 {
				f.Since = time.Now().Add(-since)
			}
			reports, err := st.ListReports(cmd.Context(), f)
			if err != nil {
				return err
			}
			return scanfile.WriteJSONL(cmd.OutOrStdout(), reports)
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite report journal (default store.path)")
	cmd.Flags().StringVar(&outcome, "outcome", "", "Only ANALYZED or REJECTED reports")
	cmd.Flags().DurationVar(&since, "since", 0, "Only reports newer than this")
	cmd.Flags().IntVar(&limit, "limit", store.DefaultListLimit, "Maximum reports")
	return cmd
}

func readInput(cmd *cobra.Command, args []string) (string, error) {
	var (
		data []byte
		err  error
	)
	if len(args) == 0 || args[0] == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return string(data), nil
}

func countRejected(reports []report.Report) int {
	n := 0
	for _, r := range reports {
		if r.Rejected() {
			n++
		}
	}
	return n
}
