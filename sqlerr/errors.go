// Package sqlerr defines the error taxonomy shared by the template compiler,
// the fluent builders and the statement assembler. Every error is raised at
// compile or assembly time and wraps one of the sentinels below, so callers
// can branch with errors.Is and inspect details with errors.As.
package sqlerr

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the four failure families.
var (
	// ErrParse indicates malformed placeholder or rule syntax.
	ErrParse = errors.New("sql template parse error")

	// ErrBinding indicates a value that could not be resolved or bound.
	ErrBinding = errors.New("sql binding error")

	// ErrSafetyGuard indicates an UPDATE or DELETE without a WHERE clause.
	ErrSafetyGuard = errors.New("sql safety guard")

	// ErrUnsupportedShape indicates a statement shape the dialect cannot express.
	ErrUnsupportedShape = errors.New("unsupported statement shape")
)

// ParseError reports a malformed placeholder or rule block.
type ParseError struct {
	Fragment string
	Offset   int
	Reason   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s at offset %d near %q", ErrParse, e.Reason, e.Offset, e.Fragment)
}

func (e *ParseError) Unwrap() error { return ErrParse }

// NewParseError builds a ParseError. The fragment is clipped to keep messages short.
func NewParseError(text string, offset int, reason string) *ParseError {
	end := offset + 24
	if end > len(text) {
		end = len(text)
	}
	start := offset
	if start > len(text) {
		start = len(text)
	}
	return &ParseError{Fragment: text[start:end], Offset: offset, Reason: reason}
}

// BindingError reports a path that could not be resolved, an empty IN list,
// or a value no type handler accepts.
type BindingError struct {
	Path   string
	Kind   string
	Reason string
}

func (e *BindingError) Error() string {
	var sb strings.Builder
	sb.WriteString(ErrBinding.Error())
	sb.WriteString(": ")
	sb.WriteString(e.Reason)
	if e.Path != "" {
		sb.WriteString(" (path ")
		sb.WriteString(e.Path)
		if e.Kind != "" {
			sb.WriteString(", kind ")
			sb.WriteString(e.Kind)
		}
		sb.WriteString(")")
	} else if e.Kind != "" {
		sb.WriteString(" (kind ")
		sb.WriteString(e.Kind)
		sb.WriteString(")")
	}
	return sb.String()
}

func (e *BindingError) Unwrap() error { return ErrBinding }

// Unresolved reports a path missing from the argument source.
func Unresolved(path string) *BindingError {
	return &BindingError{Path: path, Reason: "unresolved parameter"}
}

// EmptyIn reports an IN operand list without elements.
func EmptyIn(path string) *BindingError {
	return &BindingError{Path: path, Reason: "IN list is empty"}
}

// SafetyGuardError reports an UPDATE or DELETE whose WHERE clause is empty.
type SafetyGuardError struct {
	Statement string
	Override  string
}

func (e *SafetyGuardError) Error() string {
	return fmt.Sprintf("%s: Where clause is empty for %s, call %s to target all rows",
		ErrSafetyGuard, e.Statement, e.Override)
}

func (e *SafetyGuardError) Unwrap() error { return ErrSafetyGuard }

// UnsupportedShapeError reports a strategy, metric or paging form the dialect lacks.
type UnsupportedShapeError struct {
	Dialect string
	Feature string
	Detail  string
}

func (e *UnsupportedShapeError) Error() string {
	msg := fmt.Sprintf("%s: %s is not supported by dialect %s", ErrUnsupportedShape, e.Feature, e.Dialect)
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

func (e *UnsupportedShapeError) Unwrap() error { return ErrUnsupportedShape }
