// Package template parses SQL texts with positional, named, injected and rule
// placeholders and compiles them against an argument source into plain SQL
// plus an ordered list of bound values.
//
// Parsing is pure and cached by text; compiling is per call and never mutates
// the parsed template, so one template may be compiled concurrently.
package template

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/Konsultn-Engineering/sqlkit/args"
	"github.com/Konsultn-Engineering/sqlkit/cache"
	"github.com/Konsultn-Engineering/sqlkit/internal/debug"
	"github.com/Konsultn-Engineering/sqlkit/sqlerr"
	"github.com/Konsultn-Engineering/sqlkit/types"
)

// BoundValue is one value bound to one placeholder of a compiled statement.
type BoundValue struct {
	// Ordinal is the 1-based position of the placeholder.
	Ordinal int
	Path    string
	Value   any

	SQLType     types.SQLType
	HandlerName string
	ColumnType  types.SQLType
	Mode        ParamMode

	// Handler is the handler dispatch picked at compile time.
	Handler types.Handler
}

func (b BoundValue) binding() types.Binding {
	return types.Binding{
		Path:       b.Path,
		Value:      b.Value,
		Handler:    b.HandlerName,
		SQLType:    b.SQLType,
		ColumnType: b.ColumnType,
	}
}

// Encode converts the value with its handler into a driver value.
func (b BoundValue) Encode() (any, error) {
	value := types.Indirect(b.Value)
	out, err := b.Handler.Encode(value)
	if err != nil {
		return nil, &sqlerr.BindingError{Path: b.Path, Kind: fmt.Sprintf("%T", value), Reason: err.Error()}
	}
	return out, nil
}

// Statement is the output of compilation. The number of placeholders in SQL
// equals len(Values).
type Statement struct {
	SQL    string
	Values []BoundValue
}

// Args encodes every bound value into a driver argument list.
func (s *Statement) Args() ([]any, error) {
	out := make([]any, len(s.Values))
	for i, v := range s.Values {
		enc, err := v.Encode()
		if err != nil {
			return nil, err
		}
		out[i] = enc
	}
	return out, nil
}

// RawValues returns the bound values without encoding.
func (s *Statement) RawValues() []any {
	out := make([]any, len(s.Values))
	for i, v := range s.Values {
		out[i] = v.Value
	}
	return out
}

type Compiler struct {
	registry *types.Registry
	rules    *RuleRegistry
	cache    *cache.TemplateCache[*Template]
}

type Option func(*Compiler)

func WithRegistry(r *types.Registry) Option {
	return func(c *Compiler) { c.registry = r }
}

func WithRules(r *RuleRegistry) Option {
	return func(c *Compiler) { c.rules = r }
}

// WithCacheSize bounds the parsed-template cache. Zero uses the default.
func WithCacheSize(n int) Option {
	return func(c *Compiler) { c.cache = cache.NewTemplateCache[*Template](n) }
}

func NewCompiler(opts ...Option) *Compiler {
	c := &Compiler{}
	for _, opt := range opts {
		opt(c)
	}
	if c.registry == nil {
		c.registry = types.NewRegistry()
	}
	if c.rules == nil {
		c.rules = NewRuleRegistry()
	}
	if c.cache == nil {
		c.cache = cache.NewTemplateCache[*Template](cache.DefaultTemplateCacheSize)
	}
	return c
}

func (c *Compiler) Registry() *types.Registry { return c.registry }

func (c *Compiler) Rules() *RuleRegistry { return c.rules }

// CacheStats reports hits and misses of the parsed-template cache.
func (c *Compiler) CacheStats() (hits, misses uint64) { return c.cache.Stats() }

// Parse parses text, reusing a cached template for identical text.
func (c *Compiler) Parse(text string) (*Template, error) {
	return c.cache.GetOrSet(text, func() (*Template, error) {
		return parseTemplate(text, c.rules)
	})
}

type compileConfig struct {
	placeholder func(n int) string
	inline      func(v any) string
	open        map[string]bool
}

type CompileOption func(*compileConfig)

// WithPlaceholder renders the n-th placeholder (1-based). The default is "?".
func WithPlaceholder(f func(n int) string) CompileOption {
	return func(cfg *compileConfig) { cfg.placeholder = f }
}

// WithInlineValues writes rendered literals in place of placeholders. The
// values are still collected. Use it for logs, never for execution.
func WithInlineValues(render func(v any) string) CompileOption {
	return func(cfg *compileConfig) { cfg.inline = render }
}

// WithOpenClause compiles the text as if it followed an already open clause
// such as "where" or "set", e.g. a fragment spliced into a WHERE tree.
func WithOpenClause(keyword string) CompileOption {
	return func(cfg *compileConfig) {
		if cfg.open == nil {
			cfg.open = make(map[string]bool)
		}
		cfg.open[strings.ToLower(keyword)] = true
	}
}

// Compile renders t against src.
func (c *Compiler) Compile(t *Template, src args.Source, opts ...CompileOption) (*Statement, error) {
	cfg := compileConfig{placeholder: func(int) string { return "?" }}
	for _, opt := range opts {
		opt(&cfg)
	}
	st := &compileState{c: c, src: src, cfg: cfg}
	if err := st.run(t); err != nil {
		return nil, err
	}
	debug.Debug("template compiled", "sql", st.sb.String(), "values", len(st.values))
	return &Statement{SQL: st.sb.String(), Values: st.values}, nil
}

// CompileText parses and compiles in one step.
func (c *Compiler) CompileText(text string, src args.Source, opts ...CompileOption) (*Statement, error) {
	t, err := c.Parse(text)
	if err != nil {
		return nil, err
	}
	return c.Compile(t, src, opts...)
}

type compileState struct {
	c      *Compiler
	src    args.Source
	cfg    compileConfig
	sb     strings.Builder
	values []BoundValue
	next   int
}

func (st *compileState) run(t *Template) error {
	if t == nil {
		return nil
	}
	for _, seg := range t.segments {
		switch seg.Kind {
		case SegmentLiteral:
			st.sb.WriteString(seg.Text)
		case SegmentPositional:
			name, v, ok := st.positional()
			if !ok {
				return sqlerr.Unresolved(name)
			}
			if err := st.bind(name, v, ParamOptions{}); err != nil {
				return err
			}
		case SegmentNamed:
			v, ok := args.Lookup(st.src, seg.Path)
			if !ok {
				return sqlerr.Unresolved(seg.Path.String())
			}
			if err := st.bind(seg.Path.String(), v, seg.Options); err != nil {
				return err
			}
		case SegmentInject:
			v, ok := args.Lookup(st.src, seg.Path)
			if !ok {
				return sqlerr.Unresolved(seg.Path.String())
			}
			if v = args.Unwrap(v); v != nil {
				st.sb.WriteString(fmt.Sprint(v))
			}
		case SegmentRule:
			rule, ok := st.c.rules.Get(seg.Rule)
			if !ok {
				return &sqlerr.BindingError{Reason: "rule " + seg.Rule + " is no longer registered"}
			}
			if err := rule.Expand(&RuleContext{st: st}, seg.Leading, seg.Body); err != nil {
				return err
			}
		}
	}
	return nil
}

// positional resolves the next '?' from a positional source, or from "argN"
// on any other source.
func (st *compileState) positional() (string, any, bool) {
	i := st.next
	st.next++
	name := "arg" + strconv.Itoa(i)
	if p, ok := st.src.(args.Positional); ok {
		v, ok := p.At(i)
		return name, v, ok
	}
	if st.src == nil {
		return name, nil, false
	}
	v, ok := st.src.Resolve(name)
	return name, v, ok
}

func (st *compileState) bind(path string, v any, opts ParamOptions) error {
	bv := BoundValue{
		Ordinal:     len(st.values) + 1,
		Path:        path,
		Value:       v,
		SQLType:     opts.SQLType,
		HandlerName: opts.Handler,
		Mode:        opts.Mode,
	}
	if typed, ok := v.(args.Typed); ok {
		bv.Value = typed.Value
		bv.ColumnType = typed.ColumnType
		if bv.SQLType == types.Unknown {
			bv.SQLType = typed.SQLType
		}
		if bv.HandlerName == "" {
			bv.HandlerName = typed.Handler
		}
	}

	h, err := st.c.registry.Lookup(bv.binding())
	if err != nil {
		return err
	}
	bv.Handler = h
	st.values = append(st.values, bv)

	if st.cfg.inline != nil {
		st.sb.WriteString(st.cfg.inline(bv.Value))
	} else {
		st.sb.WriteString(st.cfg.placeholder(bv.Ordinal))
	}
	return nil
}

// RuleContext is the view of an in-progress compilation handed to rules.
type RuleContext struct {
	st *compileState
}

// Output returns the SQL emitted so far.
func (ctx *RuleContext) Output() string { return ctx.st.sb.String() }

// Write appends raw SQL.
func (ctx *RuleContext) Write(s string) { ctx.st.sb.WriteString(s) }

// Emit compiles t in place.
func (ctx *RuleContext) Emit(t *Template) error { return ctx.st.run(t) }

// ClauseOpen reports whether keyword already opened a clause at the current
// nesting level. Closed parentheses are skipped, so a WHERE inside a
// subquery does not count. A parenthesized level that is not a subquery sees
// the clauses of its parent.
func (ctx *RuleContext) ClauseOpen(keyword string) bool {
	keyword = strings.ToLower(keyword)
	levels := splitLevels(ctx.Output())
	for i := len(levels) - 1; i >= 0; i-- {
		switch {
		case containsWord(levels[i], keyword):
			return true
		case containsWord(levels[i], "select"):
			return false
		}
	}
	return ctx.st.cfg.open[keyword]
}

// Tail returns the output of the current nesting level. Quoted text and the
// contents of closed parentheses are dropped.
func (ctx *RuleContext) Tail() string {
	levels := splitLevels(ctx.Output())
	return levels[len(levels)-1]
}

// Resolve looks p up in the argument source.
func (ctx *RuleContext) Resolve(p args.Path) (any, bool) {
	return args.Lookup(ctx.st.src, p)
}

// Bind appends a placeholder for v.
func (ctx *RuleContext) Bind(path string, v any, opts ParamOptions) error {
	return ctx.st.bind(path, v, opts)
}

// Test evaluates "path" or "!path" for truthiness. An absent path is false.
func (ctx *RuleContext) Test(expr string) (bool, error) {
	p, negate, err := parseTest(expr)
	if err != nil {
		return false, err
	}
	v, _ := ctx.Resolve(p)
	return Truthy(v) != negate, nil
}

// Present reports whether t has a parameter worth emitting: a positional
// placeholder, or a named one resolving to a non-nil value.
func (ctx *RuleContext) Present(t *Template) bool {
	if t == nil {
		return false
	}
	for _, seg := range t.segments {
		switch seg.Kind {
		case SegmentPositional:
			return true
		case SegmentNamed, SegmentInject:
			if v, ok := ctx.Resolve(seg.Path); ok && args.Unwrap(v) != nil {
				return true
			}
		case SegmentRule:
			if ctx.Present(seg.Body) {
				return true
			}
		}
	}
	return false
}

// bindList expands a collection parameter into "(?, ?, ?)". A scalar binds
// as a single element list. Nil and empty collections are errors.
func (ctx *RuleContext) bindList(seg Segment) error {
	path := seg.Path.String()
	v, ok := ctx.Resolve(seg.Path)
	if !ok {
		return sqlerr.Unresolved(path)
	}
	v = args.Unwrap(v)
	rv := reflect.ValueOf(v)
	if v == nil || (rv.Kind() == reflect.Ptr && rv.IsNil()) {
		return sqlerr.EmptyIn(path)
	}

	var items []any
	if (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array) && rv.Type().Elem().Kind() != reflect.Uint8 {
		items = make([]any, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}
	} else {
		items = []any{v}
	}
	if len(items) == 0 {
		return sqlerr.EmptyIn(path)
	}

	ctx.Write("(")
	for i, item := range items {
		if i > 0 {
			ctx.Write(", ")
		}
		if err := ctx.Bind(path+"["+strconv.Itoa(i)+"]", item, seg.Options); err != nil {
			return err
		}
	}
	ctx.Write(")")
	return nil
}

// splitLevels splits sql into the text of each open parenthesis level,
// outermost first. Quoted text is dropped and a closed "(...)" is kept as
// "()" in its parent.
func splitLevels(sql string) []string {
	levels := []*strings.Builder{{}}
	var quote byte
	for i := 0; i < len(sql); i++ {
		c := sql[i]
		top := levels[len(levels)-1]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
				top.WriteByte(c)
			}
		case c == '\'' || c == '"' || c == '`':
			quote = c
			top.WriteByte(c)
		case c == '(':
			top.WriteByte(c)
			levels = append(levels, &strings.Builder{})
		case c == ')' && len(levels) > 1:
			levels = levels[:len(levels)-1]
			levels[len(levels)-1].WriteByte(c)
		default:
			top.WriteByte(c)
		}
	}
	out := make([]string, len(levels))
	for i, b := range levels {
		out[i] = b.String()
	}
	return out
}
