package model

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for content loading.
var (
	ErrNoValidRecords  = errors.New("no record in category could be transformed")
	ErrUnknownCategory = errors.New("unknown content category")
)

// Severity grades a validation Issue.
type Severity string

// Issue severities.
const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is a field-level validation finding recorded during transformation.
// Errors concern required fields, warnings recommended ones; neither stops a
// record from being produced.
type Issue struct {
	File     string   `json:"file"`
	Field    string   `json:"field"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s [%s] %s", i.File, i.Field, i.Severity, i.Message)
}

// ParseError reports a record that could not be processed at all.
type ParseError struct {
	File string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.File, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// LoadFailure reports that a whole category could not be loaded.
type LoadFailure struct {
	Category Category
	Err      error
}

func (e *LoadFailure) Error() string {
	return fmt.Sprintf("load %s: %v", e.Category, e.Err)
}

func (e *LoadFailure) Unwrap() error { return e.Err }
