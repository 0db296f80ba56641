// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Category groups raw records by the kind of content they describe.
type Category string

// Known content categories.
const (
	CategoryEvents      Category = "events"
	CategoryGameMasters Category = "gamemasters"
	CategoryNews        Category = "news"
)

// Categories lists every category in load order.
func Categories() []Category {
	return []Category{CategoryEvents, CategoryGameMasters, CategoryNews}
}

// ParseCategory maps a string such as "events" or "game-masters" to a Category.
func ParseCategory(s string) (Category, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "events", "event", "calendar":
		return CategoryEvents, true
	case "gamemasters", "game-masters", "gamemaster", "gms":
		return CategoryGameMasters, true
	case "news", "articles":
		return CategoryNews, true
	default:
		return "", false
	}
}

// RawRecord is a source blob: front matter plus body text.
type RawRecord struct {
	Filename string
	Content  string
}

// ParsedRecord is a RawRecord split into its header and body.
type ParsedRecord struct {
	Header map[string]Value
	Body   string
}

// Lookup returns a header value by key, ignoring case.
func (p ParsedRecord) Lookup(key string) (Value, bool) {
	if v, ok := p.Header[key]; ok {
		return v, true
	}
	for k, v := range p.Header {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return Value{}, false
}

// Kind tags the dynamic type held in a Value.
type Kind uint8

// Value kinds.
const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindList
	KindTime
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindList:
		return "list"
	case KindTime:
		return "time"
	default:
		return "null"
	}
}

// Value is a front-matter header value: string | number | bool | []string | time.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
	list []string
	t    time.Time
}

// StringValue, NumberValue, BoolValue, ListValue and TimeValue build Values.
func StringValue(s string) Value  { return Value{kind: KindString, str: s} }
func NumberValue(n float64) Value { return Value{kind: KindNumber, num: n} }
func BoolValue(b bool) Value      { return Value{kind: KindBool, b: b} }
func TimeValue(t time.Time) Value { return Value{kind: KindTime, t: t} }
func ListValue(items []string) Value {
	return Value{kind: KindList, list: append([]string(nil), items...)}
}

// Kind reports the dynamic type.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is absent or explicitly null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// String coerces the value to text. Lists are comma-joined.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindList:
		return strings.Join(v.list, ", ")
	case KindTime:
		return v.t.Format(time.RFC3339)
	default:
		return ""
	}
}

// Number coerces the value to a float. Strings are parsed.
func (v Value) Number() (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.num, true
	case KindString:
		n, err := strconv.ParseFloat(strings.TrimSpace(v.str), 64)
		return n, err == nil
	default:
		return 0, false
	}
}

// Int coerces the value to an integer; fractional numbers are rejected.
func (v Value) Int() (int, bool) {
	n, ok := v.Number()
	if !ok || n != float64(int(n)) {
		return 0, false
	}
	return int(n), true
}

// Bool coerces the value to a boolean.
func (v Value) Bool() (bool, bool) {
	switch v.kind {
	case KindBool:
		return v.b, true
	case KindString:
		b, err := strconv.ParseBool(strings.TrimSpace(v.str))
		return b, err == nil
	default:
		return false, false
	}
}

// List coerces the value to a list. A string is split on commas.
func (v Value) List() []string {
	switch v.kind {
	case KindList:
		return append([]string(nil), v.list...)
	case KindString:
		var out []string
		for _, part := range strings.Split(v.str, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
		return out
	case KindNull:
		return nil
	default:
		return []string{v.String()}
	}
}

// Time returns the value when it already holds a timestamp.
func (v Value) Time() (time.Time, bool) {
	if v.kind != KindTime {
		return time.Time{}, false
	}
	return v.t, true
}

// GoString keeps %#v output readable in test failures.
func (v Value) GoString() string {
	return fmt.Sprintf("model.Value{%s: %q}", v.kind, v.String())
}

// Equal reports deep equality of two values.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if v.list[i] != o.list[i] {
				return false
			}
		}
		return true
	case KindTime:
		return v.t.Equal(o.t)
	default:
		return v.str == o.str && v.num == o.num && v.b == o.b
	}
}
