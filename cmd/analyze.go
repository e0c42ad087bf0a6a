package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"policymetrics/internal/charts"
	"policymetrics/internal/pipeline"
	"policymetrics/internal/report"
	"policymetrics/internal/ui"
)

func newAnalyzeCmd(a *app) *cobra.Command {
	var (
		noCharts   bool
		showStarts bool
		format     = newChartFormatValue(charts.FormatPNG)
		exports    = &exportFormatsValue{}
	)

	cmd := &cobra.Command{
		Use:   "analyze [input.json]",
		Short: "Compute monthly metrics, render charts and write reports",
		Long: `Load a policy dataset, repair misnamed columns, convert the date columns and
compute the monthly metrics. The metrics are printed as tables; two chart
figures and any requested report files are written to the output directory.`,
		Example: `  policymetrics analyze policies.json
  policymetrics analyze policies.json -o out --format svg --export json,xlsx
  policymetrics analyze --no-charts --coerce policies.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			cfg.Input = a.input(args)
			if noCharts {
				cfg.Charts.Enabled = false
			}

			out := cmd.OutOrStdout()
			errOut := cmd.ErrOrStderr()

			if !a.quiet {
				ui.ShowHeader(out, "Policy Metrics")
			}

			reporter := ui.NewStepReporter(errOut, a.quiet)
			res, err := pipeline.Run(cmd.Context(), cfg, pipeline.Options{
				Logger:   a.logger,
				Reporter: reporter,
			})
			reporter.Finish()
			if err != nil {
				return err
			}

			if !a.quiet {
				fmt.Fprintln(out)
			}
			printer := report.NewPrinter(out, ui.ColorEnabled())
			printer.PrintSummary(res.Summary)
			if showStarts {
				fmt.Fprintln(out)
				printer.PrintStarts(res.Summary)
			}

			if len(res.Stats.Duplicates) > 0 {
				ui.ShowWarning(errOut, fmt.Sprintf("%d policy numbers occur more than once", len(res.Stats.Duplicates)))
			}
			if len(res.Stats.MissingColumns) > 0 && a.verbose {
				ui.ShowInfo(errOut, fmt.Sprintf("columns not in dataset: %v", res.Stats.MissingColumns))
			}

			if a.quiet {
				return nil
			}
			fmt.Fprintln(out)
			ui.ShowList(out, "Charts:", res.ChartFiles)
			ui.ShowList(out, "Reports:", res.ExportFiles)
			ui.ShowSuccess(out, fmt.Sprintf("Analyzed %d policies across %d months", res.Summary.Records, len(res.Summary.Months())))
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringP("output-dir", "o", ".", "directory for charts and reports")
	flags.Var(format, "format", "chart format: png, svg or pdf")
	flags.Var(exports, "export", "report formats to write: json, yaml, csv, markdown, xlsx (comma separated)")
	flags.Bool("coerce", false, "treat unparseable dates and numbers as missing instead of failing")
	flags.BoolVar(&noCharts, "no-charts", false, "skip chart rendering")
	flags.BoolVar(&showStarts, "starts", false, "also list the policy numbers starting in each month")

	a.bindFlag(cmd, "output_dir", "output-dir")
	a.bindFlag(cmd, "charts.format", "format")
	a.bindFlag(cmd, "report.formats", "export")
	a.bindFlag(cmd, "coerce_invalid", "coerce")

	return cmd
}
