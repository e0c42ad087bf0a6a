package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"policymetrics/internal/common"
	"policymetrics/internal/dataset"
	"policymetrics/internal/pipeline"
	"policymetrics/internal/ui"
	apperrors "policymetrics/pkg/errors"
)

func newCleanCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "clean [input.json]",
		Short: "Repair columns and normalize dates without computing metrics",
		Long: `Load a policy dataset, merge the misnamed columns into their correct names and
convert the date columns to RFC 3339 timestamps. The cleaned records are
written as JSON to stdout or to --output; a summary of the repairs goes to
stderr.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			cfg.Input = a.input(args)

			errOut := cmd.ErrOrStderr()
			reporter := ui.NewStepReporter(errOut, a.quiet)
			cleaned, err := pipeline.Clean(cmd.Context(), cfg, pipeline.Options{
				Logger:   a.logger,
				Reporter: reporter,
			})
			reporter.Finish()
			if err != nil {
				return err
			}

			if err := writeCleaned(cmd.OutOrStdout(), output, cleaned.Table); err != nil {
				return err
			}

			if !a.quiet {
				printRepairSummary(errOut, cleaned)
				if output != "" {
					ui.ShowSuccess(errOut, fmt.Sprintf("Wrote %d records to %s", cleaned.Table.Len(), output))
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&output, "output", "", "write the cleaned dataset to this file instead of stdout")
	cmd.Flags().Bool("coerce", false, "treat unparseable dates as missing instead of failing")
	a.bindFlag(cmd, "coerce_invalid", "coerce")

	return cmd
}

func writeCleaned(stdout io.Writer, output string, table *dataset.Table) error {
	if output == "" {
		if err := table.WriteJSON(stdout); err != nil {
			return apperrors.Wrap(err, apperrors.ErrCodeFileOperation, "failed to write cleaned dataset")
		}
		return nil
	}

	path, err := common.CleanPath(output)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInvalidInput, "invalid output path").
			WithContext("path", output)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, common.FilePermissionNormal)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeFilePermission, "failed to create output file").
			WithContext("path", path)
	}
	if err := table.WriteJSON(f); err != nil {
		f.Close()
		return apperrors.Wrap(err, apperrors.ErrCodeFileOperation, "failed to write cleaned dataset").
			WithContext("path", path)
	}
	if err := f.Close(); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeFileOperation, "failed to close output file").
			WithContext("path", path)
	}
	return nil
}

func printRepairSummary(w io.Writer, cleaned *pipeline.Cleaned) {
	var lines []string
	for _, r := range cleaned.Repairs {
		switch r.Action {
		case dataset.RepairMerged:
			lines = append(lines, fmt.Sprintf("%s -> %s: merged, %d cells filled", r.From, r.To, r.Filled))
		case dataset.RepairRenamed:
			lines = append(lines, fmt.Sprintf("%s -> %s: renamed", r.From, r.To))
		default:
			lines = append(lines, fmt.Sprintf("%s -> %s: not present", r.From, r.To))
		}
	}
	showBox(w, "Column repairs", lines)

	lines = lines[:0]
	for _, d := range cleaned.Dates {
		if d.Skipped {
			lines = append(lines, fmt.Sprintf("%s: not present", d.Column))
			continue
		}
		line := fmt.Sprintf("%s: %d converted, %d empty", d.Column, d.Converted, d.Nulls)
		if d.Coerced > 0 {
			line += fmt.Sprintf(", %d invalid set to empty", d.Coerced)
		}
		lines = append(lines, line)
	}
	showBox(w, "Date columns", lines)
}

func showBox(w io.Writer, title string, lines []string) {
	if len(lines) == 0 {
		return
	}
	ui.Box(w, title, strings.Join(lines, "\n"))
}
