// Package args provides the argument sources templates and fluent builders
// resolve parameter paths against: maps, positional lists and records
// exposed through registered field accessors.
package args

import (
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/Konsultn-Engineering/sqlkit/types"
)

// Source resolves a dotted/indexed path. The boolean is false when the path
// is absent; a present path may still hold nil.
type Source interface {
	Resolve(path string) (any, bool)
}

// PathSource is implemented by sources that can resolve an already parsed
// path without re-parsing it.
type PathSource interface {
	ResolvePath(p Path) (any, bool)
}

// Positional is implemented by sources that back '?' placeholders.
type Positional interface {
	Len() int
	At(i int) (any, bool)
}

// Record exposes named fields of a structured value.
type Record interface {
	Field(name string) (any, bool)
	Fields() []string
}

// Typed carries binding hints alongside a value. Sources may return it in
// place of a bare value; the compiler unwraps it into the bound value.
type Typed struct {
	Value      any
	SQLType    types.SQLType
	Handler    string
	ColumnType types.SQLType
}

// Underlying returns the wrapped value.
func (t Typed) Underlying() any { return t.Value }

// Unwrap strips a Typed wrapper.
func Unwrap(v any) any {
	if t, ok := v.(Typed); ok {
		return t.Value
	}
	return v
}

// Lookup resolves p against src, using ResolvePath when available.
func Lookup(src Source, p Path) (any, bool) {
	if src == nil {
		return nil, false
	}
	if ps, ok := src.(PathSource); ok {
		return ps.ResolvePath(p)
	}
	return src.Resolve(p.String())
}

// MapSource resolves paths against a map of values.
type MapSource map[string]any

func (m MapSource) Resolve(path string) (any, bool) {
	p, err := ParsePath(path)
	if err != nil {
		return nil, false
	}
	return m.ResolvePath(p)
}

func (m MapSource) ResolvePath(p Path) (any, bool) {
	steps := p.Steps()
	if len(steps) == 0 {
		return nil, false
	}
	v, ok := m[steps[0].Name]
	if !ok {
		return nil, false
	}
	return walk(v, steps[1:])
}

// Keys returns the map keys in sorted order.
func (m MapSource) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// PositionalSource backs '?' placeholders. Named lookups accept argN or N as
// the root step, so arg0.name addresses a field of the first value.
type PositionalSource []any

// Positionals builds a PositionalSource.
func Positionals(values ...any) PositionalSource { return PositionalSource(values) }

func (s PositionalSource) Len() int { return len(s) }

func (s PositionalSource) At(i int) (any, bool) {
	if i < 0 || i >= len(s) {
		return nil, false
	}
	return s[i], true
}

func (s PositionalSource) Resolve(path string) (any, bool) {
	p, err := ParsePath(path)
	if err != nil {
		return nil, false
	}
	return s.ResolvePath(p)
}

func (s PositionalSource) ResolvePath(p Path) (any, bool) {
	steps := p.Steps()
	if len(steps) == 0 {
		return nil, false
	}
	idx, ok := positionalIndex(steps[0].Name)
	if !ok {
		return nil, false
	}
	v, ok := s.At(idx)
	if !ok {
		return nil, false
	}
	return walk(v, steps[1:])
}

func positionalIndex(name string) (int, bool) {
	name = strings.TrimPrefix(name, "arg")
	n, err := strconv.Atoi(name)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// RecordSource resolves paths whose root is a field of a record.
type RecordSource struct {
	Record Record
}

// FromRecord wraps r as a Source.
func FromRecord(r Record) RecordSource { return RecordSource{Record: r} }

func (s RecordSource) Resolve(path string) (any, bool) {
	p, err := ParsePath(path)
	if err != nil {
		return nil, false
	}
	return s.ResolvePath(p)
}

func (s RecordSource) ResolvePath(p Path) (any, bool) {
	steps := p.Steps()
	if len(steps) == 0 || s.Record == nil {
		return nil, false
	}
	v, ok := s.Record.Field(steps[0].Name)
	if !ok {
		return nil, false
	}
	return walk(v, steps[1:])
}

// walk follows the remaining steps through maps, records, nested sources and slices.
func walk(v any, steps []Step) (any, bool) {
	for _, step := range steps {
		v = Unwrap(v)
		if v == nil {
			return nil, false
		}
		var ok bool
		if step.IsIdx {
			v, ok = index(v, step.Index)
		} else {
			v, ok = field(v, step.Name)
		}
		if !ok {
			return nil, false
		}
	}
	return v, true
}

func field(v any, name string) (any, bool) {
	switch t := v.(type) {
	case map[string]any:
		out, ok := t[name]
		return out, ok
	case Record:
		return t.Field(name)
	case MapSource:
		out, ok := t[name]
		return out, ok
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	if rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String {
		out := rv.MapIndex(reflect.ValueOf(name).Convert(rv.Type().Key()))
		if !out.IsValid() {
			return nil, false
		}
		return out.Interface(), true
	}
	return nil, false
}

func index(v any, i int) (any, bool) {
	if s, ok := v.([]any); ok {
		if i >= len(s) {
			return nil, false
		}
		return s[i], true
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if i >= rv.Len() {
			return nil, false
		}
		return rv.Index(i).Interface(), true
	}
	return nil, false
}
