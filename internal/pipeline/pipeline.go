// Package pipeline runs the load, clean, aggregate and render stages in order.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"policymetrics/internal/charts"
	"policymetrics/internal/dataset"
	"policymetrics/internal/metrics"
	"policymetrics/internal/observability"
	"policymetrics/internal/policy"
	"policymetrics/internal/report"
	apperrors "policymetrics/pkg/errors"
	"policymetrics/pkg/models"
)

// Reporter is notified as each stage starts and ends
type Reporter interface {
	Start(step string)
	Done(detail string)
	Fail(err error)
}

type nopReporter struct{}

func (nopReporter) Start(string) {}
func (nopReporter) Done(string)  {}
func (nopReporter) Fail(error)   {}

// Options carry the collaborators of a run
type Options struct {
	Logger   *observability.Logger
	Reporter Reporter
	// Location is used for dates without a zone. Defaults to UTC.
	Location *time.Location
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = observability.GetDefaultLogger()
	}
	if o.Reporter == nil {
		o.Reporter = nopReporter{}
	}
	if o.Location == nil {
		o.Location = time.UTC
	}
	return o
}

// Cleaned is the outcome of the load, repair and date stages
type Cleaned struct {
	Table   *dataset.Table
	Repairs []dataset.RepairResult
	Dates   []dataset.DateResult
}

// Result is the outcome of a full run
type Result struct {
	Cleaned
	Stats       policy.Stats
	Summary     *metrics.Summary
	ChartFiles  []string
	ExportFiles []string
}

type stage struct {
	name string
	run  func() (string, error)
}

func runStages(ctx context.Context, opts Options, stages []stage) error {
	for _, s := range stages {
		if err := ctx.Err(); err != nil {
			return apperrors.Wrap(err, apperrors.ErrCodeInternal, "run cancelled").
				WithContext("stage", s.name)
		}

		opts.Reporter.Start(s.name)
		start := time.Now()
		detail, err := s.run()
		if err != nil {
			opts.Reporter.Fail(err)
			opts.Logger.WithFields(map[string]interface{}{
				"stage": s.name,
				"code":  string(apperrors.GetErrorCode(err)),
			}).Debug("stage failed")
			return err
		}
		opts.Reporter.Done(detail)
		opts.Logger.InfoWithFields("stage completed", map[string]interface{}{
			"stage":       s.name,
			"duration_ms": time.Since(start).Milliseconds(),
		})
	}
	return nil
}

// Clean loads cfg.Input, merges misnamed columns and converts the date
// columns to timestamps
func Clean(ctx context.Context, cfg *models.Config, opts Options) (*Cleaned, error) {
	opts = opts.withDefaults()
	out := &Cleaned{}
	if err := runStages(ctx, opts, cleanStages(cfg, opts, out)); err != nil {
		return out, err
	}
	return out, nil
}

func cleanStages(cfg *models.Config, opts Options, out *Cleaned) []stage {
	log := opts.Logger
	return []stage{
		{
			name: "Loading dataset",
			run: func() (string, error) {
				if strings.TrimSpace(cfg.Input) == "" {
					return "", apperrors.New(apperrors.ErrCodeInvalidInput, "no input file given").
						WithSuggestions("Pass the dataset path as an argument or set 'input' in the config file")
				}
				t, err := dataset.LoadFile(cfg.Input)
				if err != nil {
					return "", err
				}
				out.Table = t
				log.InfoWithFields("dataset loaded", map[string]interface{}{
					"path":    cfg.Input,
					"rows":    t.Len(),
					"columns": len(t.Columns()),
				})
				return fmt.Sprintf("%d rows, %d columns", t.Len(), len(t.Columns())), nil
			},
		},
		{
			name: "Repairing columns",
			run: func() (string, error) {
				results, err := dataset.ApplyRepairs(out.Table, cfg.Repairs)
				out.Repairs = results
				if err != nil {
					return "", apperrors.Wrap(err, apperrors.ErrCodeValidationFailed, "column repair failed")
				}
				var merged, filled int
				for _, r := range results {
					fields := map[string]interface{}{"from": r.From, "to": r.To, "action": string(r.Action)}
					switch r.Action {
					case dataset.RepairSkipped:
						log.Debugf("repair skipped: column %q not present", r.From)
					default:
						merged++
						filled += r.Filled
						fields["filled"] = r.Filled
						log.InfoWithFields("column repaired", fields)
					}
				}
				return fmt.Sprintf("%d of %d repairs applied, %d cells filled", merged, len(results), filled), nil
			},
		},
		{
			name: "Converting dates",
			run: func() (string, error) {
				dateOpts := dataset.DateOptions{Coerce: cfg.CoerceInvalid, Location: opts.Location}
				var converted, coerced int
				for _, column := range cfg.DateColumns {
					res, err := dataset.ConvertDates(out.Table, column, dateOpts)
					out.Dates = append(out.Dates, res)
					if err != nil {
						return "", err
					}
					if res.Skipped {
						log.WarnWithFields("date column missing", map[string]interface{}{"column": column})
						continue
					}
					if res.Coerced > 0 {
						log.WarnWithFields("invalid dates set to missing", map[string]interface{}{
							"column": column,
							"cells":  res.Coerced,
						})
					}
					converted += res.Converted
					coerced += res.Coerced
				}
				detail := fmt.Sprintf("%d dates in %d columns", converted, len(cfg.DateColumns))
				if coerced > 0 {
					detail += fmt.Sprintf(", %d coerced", coerced)
				}
				return detail, nil
			},
		},
	}
}

// Run executes the whole pipeline: clean, extract policies, compute the
// monthly metrics, render charts when enabled and write the requested
// report exports
func Run(ctx context.Context, cfg *models.Config, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	log := opts.Logger
	res := &Result{}

	var policies []models.Policy
	stages := cleanStages(cfg, opts, &res.Cleaned)
	stages = append(stages,
		stage{
			name: "Reading policies",
			run: func() (string, error) {
				var err error
				policies, res.Stats, err = policy.Extract(res.Table, policy.Options{
					Columns:  cfg.Columns,
					Coerce:   cfg.CoerceInvalid,
					Location: opts.Location,
				})
				if err != nil {
					return "", err
				}
				if len(res.Stats.MissingColumns) > 0 {
					log.WarnWithFields("configured columns missing from dataset", map[string]interface{}{
						"columns": strings.Join(res.Stats.MissingColumns, ","),
					})
				}
				if len(res.Stats.Duplicates) > 0 {
					log.WarnWithFields("duplicate policy numbers", map[string]interface{}{
						"count":   len(res.Stats.Duplicates),
						"numbers": strings.Join(res.Stats.Duplicates, ","),
					})
				}
				if res.Stats.Coerced > 0 {
					log.WarnWithFields("invalid values set to missing", map[string]interface{}{"cells": res.Stats.Coerced})
				}
				return fmt.Sprintf("%d policies", len(policies)), nil
			},
		},
		stage{
			name: "Computing metrics",
			run: func() (string, error) {
				res.Summary = metrics.Compute(policies)
				months := res.Summary.Months()
				log.InfoWithFields("metrics computed", map[string]interface{}{
					"months":   len(months),
					"products": len(res.Summary.Products()),
				})
				if len(months) == 0 {
					return "no dated policies", nil
				}
				return fmt.Sprintf("%d months from %s to %s", len(months), months[0], months[len(months)-1]), nil
			},
		},
	)

	if cfg.Charts.Enabled {
		stages = append(stages, stage{
			name: "Rendering charts",
			run: func() (string, error) {
				chartOpts, err := charts.OptionsFromConfig(cfg.Charts, cfg.OutputDir)
				if err != nil {
					return "", err
				}
				res.ChartFiles, err = charts.Render(res.Summary, chartOpts)
				if err != nil {
					return "", err
				}
				return fmt.Sprintf("%d figures", len(res.ChartFiles)), nil
			},
		})
	}

	if len(cfg.Report.Formats) > 0 {
		stages = append(stages, stage{
			name: "Writing reports",
			run: func() (string, error) {
				formats, err := report.ParseFormats(cfg.Report.Formats)
				if err != nil {
					return "", err
				}
				exporter := report.NewExporter(cfg.OutputDir, cfg.Report.Basename, cfg.Input)
				res.ExportFiles, err = exporter.Export(res.Summary, formats)
				if err != nil {
					return "", err
				}
				return fmt.Sprintf("%d files", len(res.ExportFiles)), nil
			},
		})
	}

	if err := runStages(ctx, opts, stages); err != nil {
		return res, err
	}
	return res, nil
}
