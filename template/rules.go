package template

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/Konsultn-Engineering/sqlkit/args"
	"github.com/Konsultn-Engineering/sqlkit/internal/debug"
	"github.com/Konsultn-Engineering/sqlkit/sqlerr"
)

// Rule expands a @{name, ...} block. Leading is the number of comma separated
// arguments taken before the body; everything after them is parsed as a
// template and handed to Expand.
type Rule interface {
	Leading() int
	Expand(ctx *RuleContext, leading []string, body *Template) error
}

// Validator is implemented by rules that check their arguments at parse time.
type Validator interface {
	Validate(leading []string, body string) error
}

type ruleFunc struct {
	leading int
	expand  func(ctx *RuleContext, leading []string, body *Template) error
}

func (r ruleFunc) Leading() int { return r.leading }

func (r ruleFunc) Expand(ctx *RuleContext, leading []string, body *Template) error {
	return r.expand(ctx, leading, body)
}

// Validate checks that every leading argument is a test expression.
func (r ruleFunc) Validate(leading []string, _ string) error {
	for _, expr := range leading {
		if _, _, err := parseTest(expr); err != nil {
			return err
		}
	}
	return nil
}

// NewRule builds a rule from a function. Leading arguments are validated as
// test expressions.
func NewRule(leading int, expand func(ctx *RuleContext, leading []string, body *Template) error) Rule {
	return ruleFunc{leading: leading, expand: expand}
}

// RuleRegistry maps rule names to rules. Registration is insert-if-absent.
type RuleRegistry struct {
	mu    sync.RWMutex
	rules map[string]Rule
}

// NewRuleRegistry returns a registry holding the built-in rules.
func NewRuleRegistry() *RuleRegistry {
	r := &RuleRegistry{rules: make(map[string]Rule)}
	r.Register("and", NewRule(0, connectiveRule("where", "and", true)))
	r.Register("or", NewRule(0, connectiveRule("where", "or", true)))
	r.Register("ifand", NewRule(1, guarded(connectiveRule("where", "and", false))))
	r.Register("ifor", NewRule(1, guarded(connectiveRule("where", "or", false))))
	r.Register("set", NewRule(0, setRule(true)))
	r.Register("ifset", NewRule(1, guarded(setRule(false))))
	r.Register("in", NewRule(0, inRule))
	r.Register("ifin", NewRule(1, guarded(inRule)))
	r.Register("if", NewRule(1, guarded(emitBody)))
	r.Register("arg", argRule{})
	return r
}

// Register stores rule under name unless the name is taken.
func (r *RuleRegistry) Register(name string, rule Rule) bool {
	name = strings.ToLower(strings.TrimSpace(name))
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.rules[name]; exists {
		debug.Debug("rule already registered", "rule", name)
		return false
	}
	r.rules[name] = rule
	return true
}

// Get returns the rule registered under name.
func (r *RuleRegistry) Get(name string) (Rule, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rule, ok := r.rules[strings.ToLower(name)]
	return rule, ok
}

// guarded runs next only when the first leading argument tests true. The
// remaining leading arguments are passed through.
func guarded(next func(ctx *RuleContext, leading []string, body *Template) error) func(*RuleContext, []string, *Template) error {
	return func(ctx *RuleContext, leading []string, body *Template) error {
		ok, err := ctx.Test(leading[0])
		if err != nil || !ok {
			return err
		}
		return next(ctx, leading[1:], body)
	}
}

func emitBody(ctx *RuleContext, _ []string, body *Template) error {
	return ctx.Emit(body)
}

// connectiveRule emits the body behind the clause keyword when the clause is
// not open yet at this nesting level, behind nothing when the output already
// ends with the keyword or a connective, and behind the connective otherwise.
// With skipAbsent, a body whose parameters all resolve to nil is dropped.
func connectiveRule(clause, connective string, skipAbsent bool) func(*RuleContext, []string, *Template) error {
	return func(ctx *RuleContext, _ []string, body *Template) error {
		if body.IsEmpty() || (skipAbsent && !ctx.Present(body)) {
			return nil
		}
		tail := strings.TrimRight(ctx.Tail(), " \t\r\n")
		switch {
		case !ctx.ClauseOpen(clause):
			spaceBefore(ctx)
			ctx.Write(clause + " ")
		case tail == "" || hasWordSuffix(tail, clause) || hasWordSuffix(tail, "and") || hasWordSuffix(tail, "or"):
		default:
			spaceBefore(ctx)
			ctx.Write(connective + " ")
		}
		return ctx.Emit(body)
	}
}

// setRule works like connectiveRule for "set" with a comma as separator.
func setRule(skipAbsent bool) func(*RuleContext, []string, *Template) error {
	return func(ctx *RuleContext, _ []string, body *Template) error {
		if body.IsEmpty() || (skipAbsent && !ctx.Present(body)) {
			return nil
		}
		tail := strings.TrimRight(ctx.Tail(), " \t\r\n")
		switch {
		case !ctx.ClauseOpen("set"):
			spaceBefore(ctx)
			ctx.Write("set ")
		case tail == "" || hasWordSuffix(tail, "set") || strings.HasSuffix(tail, ","):
		default:
			ctx.Write(", ")
		}
		return ctx.Emit(body)
	}
}

func spaceBefore(ctx *RuleContext) {
	if out := ctx.Output(); len(out) > 0 && !isSpace(out[len(out)-1]) {
		ctx.Write(" ")
	}
}

// inRule expands the single named parameter of its body into a
// parenthesized placeholder list. Text around the parameter is kept.
func inRule(ctx *RuleContext, _ []string, body *Template) error {
	if body == nil {
		return nil
	}
	for _, seg := range body.Segments() {
		switch seg.Kind {
		case SegmentLiteral:
			ctx.Write(seg.Text)
		case SegmentNamed:
			if err := ctx.bindList(seg); err != nil {
				return err
			}
		default:
			return &sqlerr.BindingError{Reason: "in rule takes one named parameter, got " + seg.Kind.String()}
		}
	}
	return nil
}

// argRule binds its body as one parameter expression: @{arg, :name, jdbcType=VARCHAR}.
type argRule struct{}

func (argRule) Leading() int { return 0 }

func (argRule) Validate(_ []string, body string) error {
	_, _, err := parseParamExpr(body)
	return err
}

func (argRule) Expand(ctx *RuleContext, _ []string, body *Template) error {
	if body == nil {
		return nil
	}
	p, opts, err := parseParamExpr(body.Text())
	if err != nil {
		return err
	}
	v, ok := ctx.Resolve(p)
	if !ok {
		return sqlerr.Unresolved(p.String())
	}
	return ctx.Bind(p.String(), v, opts)
}

// parseTest parses "path" or "!path".
func parseTest(expr string) (args.Path, bool, error) {
	expr = strings.TrimSpace(expr)
	negate := strings.HasPrefix(expr, "!")
	if negate {
		expr = expr[1:]
	}
	p, err := args.ParsePath(stripPrefix(expr))
	if err != nil {
		return args.Path{}, false, fmt.Errorf("invalid test expression: %w", err)
	}
	return p, negate, nil
}

// Truthy reports whether v counts as true in a test expression: not nil,
// not false, not an empty string or collection. Zero numbers are true.
func Truthy(v any) bool {
	v = args.Unwrap(v)
	if v == nil {
		return false
	}
	switch val := v.(type) {
	case bool:
		return val
	case string:
		return val != ""
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return false
		}
		return Truthy(rv.Elem().Interface())
	case reflect.Slice, reflect.Map, reflect.Array, reflect.Chan:
		return rv.Len() > 0
	}
	return true
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}

func isWordByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// containsWord reports whether word occurs in s as a whole word, ignoring case.
func containsWord(s, word string) bool {
	lower := strings.ToLower(s)
	from := 0
	for {
		i := strings.Index(lower[from:], word)
		if i < 0 {
			return false
		}
		i += from
		end := i + len(word)
		if (i == 0 || !isWordByte(lower[i-1])) && (end == len(lower) || !isWordByte(lower[end])) {
			return true
		}
		from = i + 1
	}
}

func hasWordSuffix(s, word string) bool {
	if len(s) < len(word) || !strings.EqualFold(s[len(s)-len(word):], word) {
		return false
	}
	i := len(s) - len(word)
	return i == 0 || !isWordByte(s[i-1])
}
