package contentlint

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
)

// Write prints the report as text, or as JSON when asJSON is set.
func Write(w io.Writer, r *Report, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}

	findings := append([]Finding(nil), r.Findings...)
	sort.SliceStable(findings, func(i, j int) bool {
		if findings[i].Category != findings[j].Category {
			return findings[i].Category < findings[j].Category
		}
		return findings[i].File < findings[j].File
	})
	for _, f := range findings {
		field := f.Field
		if field == "" {
			field = "-"
		}
		if _, err := fmt.Fprintf(w, "%s: %s: %s: %s\n", f.File, f.Severity, field, f.Message); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "%d files, %d errors, %d warnings\n", r.Files, r.Errors, r.Warnings)
	return err
}
