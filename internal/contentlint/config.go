package contentlint

import (
	"github.com/okian/lodge/internal/domain/model"
)

// Config holds the options of one lint run.
type Config struct {
	Dir        string           // Content root with one directory per category
	Categories []model.Category // Categories to check; empty means all
	Strict     bool             // Treat warnings as failures
	JSON       bool             // Emit the report as JSON
}

// Finding is one problem found in a content file.
type Finding struct {
	Category model.Category `json:"category"`
	File     string         `json:"file"`
	Field    string         `json:"field,omitempty"`
	Severity model.Severity `json:"severity"`
	Message  string         `json:"message"`
}

// Report summarizes a lint run.
type Report struct {
	Files    int       `json:"files"`
	Errors   int       `json:"errors"`
	Warnings int       `json:"warnings"`
	Findings []Finding `json:"findings"`
}

// Failed reports whether the run should exit non-zero.
func (r *Report) Failed(strict bool) bool {
	return r.Errors > 0 || (strict && r.Warnings > 0)
}

func (r *Report) add(f Finding) {
	switch f.Severity {
	case model.SeverityError:
		r.Errors++
	case model.SeverityWarning:
		r.Warnings++
	}
	r.Findings = append(r.Findings, f)
}
