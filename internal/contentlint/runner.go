// Package contentlint checks content files the way the loader would read
// them and reports every validation issue.
package contentlint

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/lodge/internal/adapters/source"
	"github.com/okian/lodge/internal/domain/dedupe"
	"github.com/okian/lodge/internal/domain/frontmatter"
	"github.com/okian/lodge/internal/domain/model"
	"github.com/okian/lodge/internal/domain/recurrence"
	"github.com/okian/lodge/internal/domain/transform"
	"github.com/okian/lodge/pkg/logger"
)

// Run lints every selected category read from src.
func Run(ctx context.Context, src source.Source, cfg *Config, tr *transform.Transformer) (*Report, error) {
	if tr == nil {
		tr = transform.New()
	}
	cats := cfg.Categories
	if len(cats) == 0 {
		cats = model.Categories()
	}

	start := time.Now()
	logger.Get().Info(ctx, "starting content lint",
		logger.String("dir", cfg.Dir),
		logger.Int("categories", len(cats)),
		logger.Bool("strict", cfg.Strict))

	report := &Report{Findings: []Finding{}}
	for _, c := range cats {
		raws, err := src.Fetch(ctx, c)
		if errors.Is(err, source.ErrCategoryUnavailable) {
			report.add(Finding{Category: c, File: string(c), Severity: model.SeverityWarning, Message: "category directory is missing"})
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", c, err)
		}
		report.Files += len(raws)

		switch c {
		case model.CategoryEvents:
			lintCategory(report, c, raws, tr.ToEvent, checkEvent)
		case model.CategoryGameMasters:
			lintCategory(report, c, raws, tr.ToGameMaster, nil)
		case model.CategoryNews:
			lintCategory(report, c, raws, tr.ToNewsArticle, nil)
		default:
			return nil, fmt.Errorf("%w: %s", model.ErrUnknownCategory, c)
		}
	}

	logger.Get().Info(ctx, "content lint finished",
		logger.Int("files", report.Files),
		logger.Int("errors", report.Errors),
		logger.Int("warnings", report.Warnings),
		logger.Duration("took", time.Since(start)))
	return report, nil
}

// lintCategory transforms every record and collects issues plus duplicate ids.
func lintCategory[T model.Identifiable](
	report *Report,
	c model.Category,
	raws []model.RawRecord,
	build func(model.ParsedRecord, string) (transform.Result[T], error),
	extra func(T) []Finding,
) {
	ids := dedupe.New(dedupe.WithCapacity(len(raws)))
	for _, raw := range raws {
		res, err := build(frontmatter.Parse(raw), raw.Filename)
		if err != nil {
			report.add(Finding{Category: c, File: raw.Filename, Severity: model.SeverityError, Message: err.Error()})
			continue
		}
		for _, is := range res.Issues() {
			report.add(Finding{Category: c, File: raw.Filename, Field: is.Field, Severity: is.Severity, Message: is.Message})
		}

		id := res.Record.RecordID()
		if first, dup := ids.SeenAndRecord(id, raw.Filename); dup {
			report.add(Finding{
				Category: c,
				File:     raw.Filename,
				Field:    "id",
				Severity: model.SeverityError,
				Message:  fmt.Sprintf("id %q already used by %s", id, first),
			})
		}

		if extra != nil {
			for _, f := range extra(res.Record) {
				f.Category, f.File = c, raw.Filename
				report.add(f)
			}
		}
	}
}

// checkEvent flags recurrence rules that produce no occurrences.
func checkEvent(ev model.CalendarEvent) []Finding {
	if ev.Recurrence == "" || !model.ValidDate(ev.Date) {
		return nil
	}
	w := recurrence.Window{Start: ev.Date, End: ev.Date.AddDate(1, 0, 0)}
	occ, err := recurrence.Expand(ev, w, 2)
	if err != nil {
		return []Finding{{Field: "recurrence", Severity: model.SeverityWarning, Message: err.Error()}}
	}
	if len(occ) < 2 {
		return []Finding{{Field: "recurrence", Severity: model.SeverityWarning, Message: "rule yields a single occurrence within a year"}}
	}
	return nil
}
