package template

import (
	"strings"

	"github.com/Konsultn-Engineering/sqlkit/args"
	"github.com/Konsultn-Engineering/sqlkit/types"
)

type SegmentKind int

const (
	SegmentLiteral SegmentKind = iota
	SegmentPositional
	SegmentNamed
	SegmentInject
	SegmentRule
)

func (k SegmentKind) String() string {
	switch k {
	case SegmentLiteral:
		return "literal"
	case SegmentPositional:
		return "positional"
	case SegmentNamed:
		return "named"
	case SegmentInject:
		return "inject"
	case SegmentRule:
		return "rule"
	}
	return "unknown"
}

// ParamMode is the direction of a bound parameter.
type ParamMode int

const (
	ModeIn ParamMode = iota
	ModeOut
	ModeInOut
)

func (m ParamMode) String() string {
	switch m {
	case ModeOut:
		return "out"
	case ModeInOut:
		return "inout"
	}
	return "in"
}

// ParamOptions are the per-occurrence hints written inside #{...}.
type ParamOptions struct {
	SQLType types.SQLType
	Handler string
	Mode    ParamMode
}

// Segment is one piece of a parsed template.
type Segment struct {
	Kind SegmentKind
	// Text is the literal text, or the placeholder source as written.
	Text    string
	Path    args.Path
	Options ParamOptions

	Rule    string
	Leading []string
	Body    *Template
}

// Template is the parsed, immutable form of one SQL text.
type Template struct {
	text     string
	segments []Segment
}

// Text returns the source text.
func (t *Template) Text() string { return t.text }

// Segments returns the parsed segments. Callers must not modify them.
func (t *Template) Segments() []Segment { return t.segments }

// IsEmpty reports whether the template renders nothing but whitespace.
func (t *Template) IsEmpty() bool {
	if t == nil {
		return true
	}
	for _, s := range t.segments {
		if s.Kind != SegmentLiteral || strings.TrimSpace(s.Text) != "" {
			return false
		}
	}
	return true
}

// NamedPaths returns the paths of the named and injected parameters that
// appear directly in the template, in order of appearance.
func (t *Template) NamedPaths() []args.Path {
	if t == nil {
		return nil
	}
	var out []args.Path
	for _, s := range t.segments {
		if s.Kind == SegmentNamed || s.Kind == SegmentInject {
			out = append(out, s.Path)
		}
	}
	return out
}
