package transform

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const ellipsis = "..."

var (
	fencedCode = regexp.MustCompile("(?s)```.*?```")
	imageRef   = regexp.MustCompile(`!\[([^\]]*)\]\([^)]*\)`)
	linkRef    = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	htmlTag    = regexp.MustCompile(`<[^>]+>`)
	lineMarker = regexp.MustCompile(`(?m)^\s{0,3}(#{1,6}\s+|>\s?|[-*+]\s+|\d+\.\s+)`)
	emphasis   = regexp.MustCompile("[*_~`]+")
	whitespace = regexp.MustCompile(`\s+`)
)

// StripMarkdown reduces markdown to plain prose on a single line.
func StripMarkdown(md string) string {
	s := fencedCode.ReplaceAllString(md, " ")
	s = imageRef.ReplaceAllString(s, "$1")
	s = linkRef.ReplaceAllString(s, "$1")
	s = htmlTag.ReplaceAllString(s, " ")
	s = lineMarker.ReplaceAllString(s, "")
	s = emphasis.ReplaceAllString(s, "")
	s = whitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Excerpt returns the first n characters of the stripped content, followed by
// "..." when anything was cut.
func Excerpt(md string, n int) string {
	if n <= 0 {
		n = DefaultExcerptLength
	}
	plain := StripMarkdown(md)
	if utf8.RuneCountInString(plain) <= n {
		return plain
	}
	runes := []rune(plain)
	return strings.TrimRight(string(runes[:n]), " ") + ellipsis
}
