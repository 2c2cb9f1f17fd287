package args

import (
	"testing"

	"github.com/Konsultn-Engineering/sqlkit/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type address struct {
	City string
}

type user struct {
	Name      string
	Addresses []address
	Tags      map[string]string
}

var userAccessors = NewAccessors[user]().
	Field("name", func(u user) any { return u.Name }).
	Field("addresses", func(u user) any { return u.Addresses }).
	Field("tags", func(u user) any { return u.Tags })

var addressAccessors = NewAccessors[address]().
	Field("city", func(a address) any { return a.City })

func TestParsePath(t *testing.T) {
	tests := []struct {
		expr    string
		want    []Step
		wantErr bool
	}{
		{expr: "name", want: []Step{{Name: "name"}}},
		{expr: "user.address[0].city", want: []Step{{Name: "user"}, {Name: "address"}, {Index: 0, IsIdx: true}, {Name: "city"}}},
		{expr: " items[12] ", want: []Step{{Name: "items"}, {Index: 12, IsIdx: true}}},
		{expr: "m[1][2]", want: []Step{{Name: "m"}, {Index: 1, IsIdx: true}, {Index: 2, IsIdx: true}}},
		{expr: "", wantErr: true},
		{expr: "a.", wantErr: true},
		{expr: ".a", wantErr: true},
		{expr: "a[", wantErr: true},
		{expr: "a[x]", wantErr: true},
		{expr: "[0]", wantErr: true},
		{expr: "a b", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			p, err := ParsePath(tt.expr)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Steps())
		})
	}

	assert.Equal(t, "user", MustParsePath("user.name").Root())
	assert.Panics(t, func() { MustParsePath("..") })
}

func TestMapSource(t *testing.T) {
	src := MapSource{
		"min":  20,
		"none": nil,
		"user": map[string]any{
			"address": []any{map[string]any{"city": "Oslo"}},
		},
		"ids":    []int{4, 5, 6},
		"labels": map[string]string{"env": "prod"},
	}

	tests := []struct {
		path    string
		want    any
		present bool
	}{
		{"min", 20, true},
		{"none", nil, true},
		{"missing", nil, false},
		{"user.address[0].city", "Oslo", true},
		{"user.address[1].city", nil, false},
		{"ids[2]", 6, true},
		{"labels.env", "prod", true},
		{"none.child", nil, false},
		{"min.child", nil, false},
		{"bad..path", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := src.Resolve(tt.path)
			assert.Equal(t, tt.present, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Equal(t, []string{"ids", "labels", "min", "none", "user"}, src.Keys())
}

func TestPositionalSource(t *testing.T) {
	src := Positionals("abc", map[string]any{"id": 7})

	assert.Equal(t, 2, src.Len())
	v, ok := src.At(0)
	assert.True(t, ok)
	assert.Equal(t, "abc", v)
	_, ok = src.At(2)
	assert.False(t, ok)

	v, ok = src.Resolve("arg1.id")
	assert.True(t, ok)
	assert.Equal(t, 7, v)

	v, ok = src.Resolve("0")
	assert.True(t, ok)
	assert.Equal(t, "abc", v)

	_, ok = src.Resolve("name")
	assert.False(t, ok)
}

func TestRecordSource(t *testing.T) {
	u := user{
		Name:      "ada",
		Addresses: []address{{City: "London"}},
		Tags:      map[string]string{"role": "admin"},
	}
	src := userAccessors.Source(u)

	v, ok := src.Resolve("name")
	assert.True(t, ok)
	assert.Equal(t, "ada", v)

	v, ok = src.Resolve("tags.role")
	assert.True(t, ok)
	assert.Equal(t, "admin", v)

	// nested structs are reached through their own accessors only
	_, ok = src.Resolve("addresses[0].City")
	assert.False(t, ok)

	nested := MapSource{"home": addressAccessors.Bind(u.Addresses[0])}
	v, ok = nested.Resolve("home.city")
	assert.True(t, ok)
	assert.Equal(t, "London", v)

	assert.Equal(t, []string{"name", "addresses", "tags"}, userAccessors.Bind(u).Fields())
}

func TestAccessorsKeepFirstRegistration(t *testing.T) {
	acc := NewAccessors[address]().
		Field("city", func(a address) any { return a.City }).
		Field("city", func(address) any { return "other" })

	v, ok := acc.Bind(address{City: "Rome"}).Field("city")
	assert.True(t, ok)
	assert.Equal(t, "Rome", v)
	assert.Len(t, acc.Names(), 1)
}

func TestTypedUnwrap(t *testing.T) {
	typed := Typed{Value: "x", SQLType: types.Varchar}
	assert.Equal(t, "x", Unwrap(typed))
	assert.Equal(t, 3, Unwrap(3))

	src := MapSource{"wrapped": Typed{Value: map[string]any{"k": 1}}}
	v, ok := src.Resolve("wrapped.k")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	v, ok = Lookup(src, MustParsePath("wrapped"))
	assert.True(t, ok)
	require.IsType(t, Typed{}, v)
	assert.Equal(t, types.SQLType(0), v.(Typed).SQLType)
}
