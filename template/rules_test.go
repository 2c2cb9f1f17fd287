package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Konsultn-Engineering/sqlkit/args"
	"github.com/Konsultn-Engineering/sqlkit/sqlerr"
)

type ruleCase struct {
	name   string
	text   string
	src    args.Source
	want   string
	values []any
}

func runRuleCases(t *testing.T, cases []ruleCase) {
	t.Helper()
	c := NewCompiler()
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			stmt, err := c.CompileText(tt.text, tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.want, stmt.SQL)
			if len(tt.values) == 0 {
				assert.Empty(t, stmt.Values)
			} else {
				assert.Equal(t, tt.values, stmt.RawValues())
			}
		})
	}
}

func TestAndRule(t *testing.T) {
	named := args.MapSource{"name": "abc"}
	pos := args.Positionals("123")

	runRuleCases(t, []ruleCase{
		{"opens where", "@{and,name = :name}", named, "where name = ?", []any{"abc"}},
		{"keeps body spacing", "@{and, name = :name}", named, "where  name = ?", []any{"abc"}},
		{"positional body", "@{and,name = ?}", pos, "where name = ?", []any{"123"}},
		{"after where", "where  @{and,name = :name}", named, "where  name = ?", []any{"abc"}},
		{"after where with spacing", "where  @{and, name = :name}", named, "where   name = ?", []any{"abc"}},
		{"after predicate", "where 1=1 @{and,name = :name}", named, "where 1=1 and name = ?", []any{"abc"}},
		{"after predicate with spacing", "where 1=1 @{and, name = :name}", named, "where 1=1 and  name = ?", []any{"abc"}},
		{"no space before", "where 1=1@{and,name = :name}", named, "where 1=1 and name = ?", []any{"abc"}},
		{"upper case where", "SELECT * FROM t WHERE 1=1 @{and,name = :name}", named, "SELECT * FROM t WHERE 1=1 and name = ?", []any{"abc"}},
		{"empty body", "@{and}", named, "", nil},
		{"body without params", "@{and,abc}", named, "", nil},
		{"bare param", "@{and,:name}", named, "where ?", []any{"abc"}},
		{"nil value skipped", "where 1=1 @{and,name = :name}", args.MapSource{"name": nil}, "where 1=1 ", nil},
		{"absent value skipped", "where 1=1 @{and,name = :name}", args.MapSource{}, "where 1=1 ", nil},
		{"column named whereabouts", "SELECT whereabouts FROM t @{and,a = :name}", named, "SELECT whereabouts FROM t where a = ?", []any{"abc"}},
		{"nested in", "SELECT * FROM tb_user @{and, id IN @{in, :idList}}",
			args.MapSource{"idList": []int{1, 2, 3}},
			"SELECT * FROM tb_user where  id IN  (?, ?, ?)", []any{1, 2, 3}},
		{"chained", "@{and,name = :name} @{and,age = :age}", args.MapSource{"name": "abc", "age": 3},
			"where name = ? and age = ?", []any{"abc", 3}},
		{"written connective absorbed", "@{and,name = :name} and @{and,age = ?}", args.MapSource{"name": "abc", "arg0": 3},
			"where name = ? and age = ?", []any{"abc", 3}},
		{"written or absorbed", "where name = :name or @{and,age = :age}", args.MapSource{"name": "abc", "age": 3},
			"where name = ? or age = ?", []any{"abc", 3}},
		{"where in subquery ignored", "SELECT * FROM (SELECT * FROM u WHERE x = 1) t @{and, a = :name}", named,
			"SELECT * FROM (SELECT * FROM u WHERE x = 1) t where  a = ?", []any{"abc"}},
		{"where in literal ignored", "SELECT 'where' FROM t @{and,a = :name}", named,
			"SELECT 'where' FROM t where a = ?", []any{"abc"}},
		{"subquery opens its own where", "SELECT * FROM t WHERE id IN (SELECT id FROM u @{and,a = :name})", named,
			"SELECT * FROM t WHERE id IN (SELECT id FROM u where a = ?)", []any{"abc"}},
		{"parenthesized predicate sees outer where", "SELECT * FROM t WHERE x = 1 AND (y = 2 @{or,a = :name})", named,
			"SELECT * FROM t WHERE x = 1 AND (y = 2 or a = ?)", []any{"abc"}},
	})
}

func TestOpenClause(t *testing.T) {
	c := NewCompiler()
	tests := []struct {
		name   string
		text   string
		src    args.Source
		want   string
		values []any
	}{
		{"predicate then rule", "name = :n @{and, kind = :kind}", args.MapSource{"n": "x", "kind": "k"}, "name = ? and  kind = ?", []any{"x", "k"}},
		{"leading rule", "@{and,kind = :kind}", args.MapSource{"kind": "k"}, "kind = ?", []any{"k"}},
		{"nothing rendered", "@{and,kind = :kind}", args.MapSource{}, "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt, err := c.CompileText(tt.text, tt.src, WithOpenClause("where"))
			require.NoError(t, err)
			assert.Equal(t, tt.want, stmt.SQL)
			if tt.values == nil {
				assert.Empty(t, stmt.Values)
			} else {
				assert.Equal(t, tt.values, stmt.RawValues())
			}
		})
	}
}

func TestOrRule(t *testing.T) {
	named := args.MapSource{"name": "abc"}
	runRuleCases(t, []ruleCase{
		{"opens where", "@{or,name = :name}", named, "where name = ?", []any{"abc"}},
		{"after predicate", "where 1=1 @{or,name = :name}", named, "where 1=1 or name = ?", []any{"abc"}},
		{"after where", "where @{or,name = :name}", named, "where name = ?", []any{"abc"}},
		{"nil skipped", "where 1=1 @{or,name = :name}", args.MapSource{"name": nil}, "where 1=1 ", nil},
	})
}

func TestGuardedRules(t *testing.T) {
	on := args.MapSource{"test": true, "name": "abc", "array": []string{"a", "b", "c"}}
	off := args.MapSource{"test": false, "name": "abc", "array": []string{"a", "b", "c"}}

	runRuleCases(t, []ruleCase{
		{"ifand true", "@{ifand,test,name = :name}", on, "where name = ?", []any{"abc"}},
		{"ifand true spacing", "@{ifand,test, name = :name}", on, "where  name = ?", []any{"abc"}},
		{"ifand false", "@{ifand,test,name = :name}", off, "", nil},
		{"ifand nil value still emitted", "@{ifand,test,name = :name}", args.MapSource{"test": true, "name": nil}, "where name = ?", []any{nil}},
		{"ifor", "where 1=1 @{ifor,test,name = :name}", on, "where 1=1 or name = ?", []any{"abc"}},
		{"negated test", "@{ifand,!test,name = :name}", off, "where name = ?", []any{"abc"}},
		{"absent test is false", "@{if,missing, x = 1}", on, "", nil},
		{"if emits body", "SELECT 1 @{if, test, FOR UPDATE}", on, "SELECT 1  FOR UPDATE", nil},
		{"ifin true", "@{ifin,test,:array}", on, "(?, ?, ?)", []any{"a", "b", "c"}},
		{"ifin spacing", "@{ ifin , test , :array }", on, " (?, ?, ?) ", []any{"a", "b", "c"}},
		{"ifin false", "@{ifin,test,:array}", off, "", nil},
		{"ifset true", "update t @{ifset,test,name = :name}", on, "update t set name = ?", []any{"abc"}},
		{"ifset false", "update t @{ifset,test,name = :name}", off, "update t ", nil},
		{"ifand zero is true", "@{ifand, age, age = :age}", args.MapSource{"age": 0}, "where  age = ?", []any{0}},
	})
}

func TestInRule(t *testing.T) {
	src := args.MapSource{"array": []string{"a", "b", "c"}, "one": 5, "empty": []string{}, "bytes": []byte("ab")}

	runRuleCases(t, []ruleCase{
		{"list", "@{in,:array}", src, "(?, ?, ?)", []any{"a", "b", "c"}},
		{"leading space", "@{in , :array}", src, " (?, ?, ?)", []any{"a", "b", "c"}},
		{"both spaces", "@{ in , :array }", src, " (?, ?, ?) ", []any{"a", "b", "c"}},
		{"scalar", "id IN @{in,:one}", src, "id IN (?)", []any{5}},
		{"bytes are one value", "b IN @{in,:bytes}", src, "b IN (?)", []any{[]byte("ab")}},
		{"braced", "@{in,#{array}}", src, "(?, ?, ?)", []any{"a", "b", "c"}},
	})

	c := NewCompiler()
	_, err := c.CompileText("id IN @{in,:empty}", src)
	var be *sqlerr.BindingError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, "empty", be.Path)

	_, err = c.CompileText("id IN @{in,:missing}", src)
	require.ErrorIs(t, err, sqlerr.ErrBinding)

	for name, v := range map[string]any{"untyped nil": nil, "nil slice": []int(nil), "nil pointer": (*int)(nil)} {
		_, err = c.CompileText("id IN @{in,:ids}", args.MapSource{"ids": v})
		require.ErrorAs(t, err, &be, name)
		assert.Equal(t, "ids", be.Path, name)
	}

	_, err = c.CompileText("id IN @{in, ? }", args.Positionals(1))
	require.ErrorIs(t, err, sqlerr.ErrBinding)

	stmt, err := c.CompileText("id IN @{in,:array}", src)
	require.NoError(t, err)
	assert.Equal(t, "array[2]", stmt.Values[2].Path)
}

func TestSetRule(t *testing.T) {
	named := args.MapSource{"name": "abc", "age": 3, "email": nil}
	runRuleCases(t, []ruleCase{
		{"opens set", "@{set,name = :name}", named, "set name = ?", []any{"abc"}},
		{"keeps spacing", "@{set, name = :name}", named, "set  name = ?", []any{"abc"}},
		{"after set", "set  @{set,name = :name}", named, "set  name = ?", []any{"abc"}},
		{"after assignment", "set 1=1 @{set,name = :name}", named, "set 1=1 , name = ?", []any{"abc"}},
		{"skips nil", "UPDATE u @{set,name = :name} @{set,email = :email} @{set,age = :age} WHERE id = 1",
			named, "UPDATE u set name = ?  , age = ? WHERE id = 1", []any{"abc", 3}},
		{"offset is not set", "SELECT 1 OFFSET 2 @{set,name = :name}", named, "SELECT 1 OFFSET 2 set name = ?", []any{"abc"}},
		{"written comma absorbed", "@{set,name = :name} , @{set,age = ?}", args.MapSource{"name": "abc", "arg0": 3},
			"set name = ? , age = ?", []any{"abc", 3}},
		{"comma added between rules", "@{set,name = :name} @{set,age = :age}", named,
			"set name = ? , age = ?", []any{"abc", 3}},
	})
}

func TestArgRule(t *testing.T) {
	c := NewCompiler()
	stmt, err := c.CompileText("x = @{arg, :name, jdbcType=VARCHAR}", args.MapSource{"name": 9})
	require.NoError(t, err)
	assert.Equal(t, "x = ?", stmt.SQL)

	encoded, err := stmt.Args()
	require.NoError(t, err)
	assert.Equal(t, []any{"9"}, encoded)

	_, err = c.Parse("x = @{arg, :name, jdbcType=NOPE}")
	require.ErrorIs(t, err, sqlerr.ErrParse)
}

func TestCustomRule(t *testing.T) {
	rules := NewRuleRegistry()
	limit := NewRule(1, func(ctx *RuleContext, leading []string, body *Template) error {
		ok, err := ctx.Test(leading[0])
		if err != nil || !ok {
			return err
		}
		ctx.Write(" LIMIT ")
		return ctx.Emit(body)
	})
	require.True(t, rules.Register("limit", limit))
	assert.False(t, rules.Register("LIMIT", limit))
	assert.False(t, rules.Register("and", limit))

	c := NewCompiler(WithRules(rules))
	assert.Same(t, rules, c.Rules())
	stmt, err := c.CompileText("SELECT * FROM t@{limit, max, :max}", args.MapSource{"max": 10})
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM t LIMIT  ?", stmt.SQL)
	assert.Equal(t, []any{10}, stmt.RawValues())
}

func TestTruthy(t *testing.T) {
	var nilPtr *int
	one := 1
	tests := []struct {
		v    any
		want bool
	}{
		{nil, false},
		{false, false},
		{true, true},
		{"", false},
		{"x", true},
		{0, true},
		{3, true},
		{0.0, true},
		{[]int{}, false},
		{[]int{1}, true},
		{map[string]int{}, false},
		{nilPtr, false},
		{&one, true},
		{struct{}{}, true},
		{args.Typed{Value: false}, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Truthy(tt.v), "%#v", tt.v)
	}
}
