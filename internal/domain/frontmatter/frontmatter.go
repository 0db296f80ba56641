// Package frontmatter splits content records into a YAML header and a body.
//
// A record looks like
//
//	---
//	title: Pathfinder Society Night
//	date: 2025-03-14
//	---
//	Free text body...
//
// Parsing never fails: a record without a terminated header comes back with
// an empty header and the original content as its body.
package frontmatter

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/okian/lodge/internal/domain/model"
)

const (
	delimiter     = "---"
	altTerminator = "..."
	byteOrderMark = "\ufeff"
)

// Parse splits raw into its header and body.
func Parse(raw model.RawRecord) (out model.ParsedRecord) {
	fallback := model.ParsedRecord{Header: map[string]model.Value{}, Body: raw.Content}
	defer func() {
		if r := recover(); r != nil {
			out = fallback
		}
	}()

	text := strings.TrimPrefix(raw.Content, byteOrderMark)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimLeft(text, " \t\n")

	lines := strings.Split(text, "\n")
	if len(lines) == 0 || strings.TrimRight(lines[0], " \t") != delimiter {
		return fallback
	}

	end := -1
	for i := 1; i < len(lines); i++ {
		l := strings.TrimRight(lines[i], " \t")
		if l == delimiter || l == altTerminator {
			end = i
			break
		}
	}
	if end < 0 {
		return fallback
	}

	headerText := strings.Join(lines[1:end], "\n")
	body := strings.TrimSpace(strings.Join(lines[end+1:], "\n"))

	if strings.TrimSpace(headerText) == "" {
		return model.ParsedRecord{Header: map[string]model.Value{}, Body: body}
	}

	header, err := decodeYAML(headerText)
	if err != nil {
		header = scanLines(headerText)
		if len(header) == 0 {
			return fallback
		}
	}
	return model.ParsedRecord{Header: header, Body: body}
}

func decodeYAML(text string) (map[string]model.Value, error) {
	var doc map[string]any
	if err := yaml.Unmarshal([]byte(text), &doc); err != nil {
		return nil, fmt.Errorf("decode header: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("decode header: not a mapping")
	}
	header := make(map[string]model.Value, len(doc))
	for k, v := range doc {
		header[strings.TrimSpace(k)] = toValue(v)
	}
	return header, nil
}

// scanLines reads "key: value" pairs from a header that is not valid YAML,
// e.g. one with an unquoted colon inside a title.
func scanLines(text string) map[string]model.Value {
	header := map[string]model.Value{}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, val, ok := strings.Cut(line, ":")
		key = strings.TrimSpace(key)
		if !ok || key == "" || strings.ContainsAny(key, " \t") {
			continue
		}
		val = strings.Trim(strings.TrimSpace(val), `"'`)
		header[key] = model.StringValue(val)
	}
	return header
}

func toValue(v any) model.Value {
	switch x := v.(type) {
	case nil:
		return model.Value{}
	case string:
		return model.StringValue(x)
	case bool:
		return model.BoolValue(x)
	case int:
		return model.NumberValue(float64(x))
	case int64:
		return model.NumberValue(float64(x))
	case uint64:
		return model.NumberValue(float64(x))
	case float64:
		return model.NumberValue(x)
	case time.Time:
		return model.TimeValue(x)
	case []any:
		items := make([]string, 0, len(x))
		for _, item := range x {
			if item == nil {
				continue
			}
			items = append(items, toValue(item).String())
		}
		return model.ListValue(items)
	default:
		return model.StringValue(fmt.Sprint(x))
	}
}
