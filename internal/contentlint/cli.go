package contentlint

import (
	"io"
)

// ShowHelp prints usage information for the content lint tool.
func ShowHelp(w io.Writer) {
	_, _ = io.WriteString(w, `Lodge Content Lint
==================

Checks event, game master and news files the same way the content service
loads them and reports every validation issue.

Usage:
  go run ./cmd/content-lint -dir <path> [options]

Options:
  -dir string
        Content root containing events/, gamemasters/ and news/
        (default: the embedded seed content)
  -category string
        Only check one category: events, gamemasters or news
  -strict
        Exit non-zero on warnings as well as errors
  -json
        Print the report as JSON
  -help
        Show this help message

Examples:
  # Check the embedded seed content
  go run ./cmd/content-lint

  # Check a checkout of the site content, failing on warnings
  go run ./cmd/content-lint -dir ./site/content -strict
`)
}
