package types

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/Konsultn-Engineering/sqlkit/sqlerr"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Color int

const (
	Red Color = iota + 1
	Green
	Blue
)

func (c Color) Name() string {
	return [...]string{"", "RED", "GREEN", "BLUE"}[c]
}

type Point struct{ X, Y int }

type Age int

func TestParseSQLType(t *testing.T) {
	tests := []struct {
		in   string
		want SQLType
		ok   bool
	}{
		{"varchar(64)", Varchar, true},
		{"VARCHAR2", Varchar, true},
		{"int8", BigInt, true},
		{"text[]", Array, true},
		{"timestamp with time zone", TimestampTZ, true},
		{"numeric(10, 2)", Decimal, true},
		{"jsonb", JSON, true},
		{"vector(3)", Vector, true},
		{"", Unknown, false},
		{"geometry", Unknown, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseSQLType(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
	assert.Equal(t, "VARCHAR", Varchar.String())
	assert.Equal(t, "UNKNOWN", SQLType(999).String())
}

func TestLookupDispatchOrder(t *testing.T) {
	r := NewRegistry()

	t.Run("explicit handler wins", func(t *testing.T) {
		h, err := r.Lookup(Binding{Value: 42, Handler: "string"})
		require.NoError(t, err)
		assert.Equal(t, Varchar, h.SQLType())
	})

	t.Run("explicit sql type before runtime kind", func(t *testing.T) {
		out, err := r.Encode(Binding{Value: 42, SQLType: Varchar})
		require.NoError(t, err)
		assert.Equal(t, "42", out)
	})

	t.Run("runtime kind", func(t *testing.T) {
		out, err := r.Encode(Binding{Value: int32(7)})
		require.NoError(t, err)
		assert.Equal(t, int64(7), out)
	})

	t.Run("named basic type falls back to kind", func(t *testing.T) {
		out, err := r.Encode(Binding{Value: Age(30)})
		require.NoError(t, err)
		assert.Equal(t, int64(30), out)
	})

	t.Run("declared column type", func(t *testing.T) {
		out, err := r.Encode(Binding{Value: Point{1, 2}, ColumnType: JSON})
		require.NoError(t, err)
		assert.Equal(t, `{"X":1,"Y":2}`, out)
	})

	t.Run("unresolvable fails with path and kind", func(t *testing.T) {
		_, err := r.Lookup(Binding{Path: "user.location", Value: Point{1, 2}})
		require.ErrorIs(t, err, sqlerr.ErrBinding)
		assert.Contains(t, err.Error(), "user.location")
		assert.Contains(t, err.Error(), "types.Point")
	})

	t.Run("unknown explicit handler", func(t *testing.T) {
		_, err := r.Lookup(Binding{Path: "x", Value: 1, Handler: "nope"})
		require.ErrorIs(t, err, sqlerr.ErrBinding)
	})
}

func TestEncodeNilAndPointers(t *testing.T) {
	r := NewRegistry()

	out, err := r.Encode(Binding{Value: nil})
	require.NoError(t, err)
	assert.Nil(t, out)

	var p *string
	out, err = r.Encode(Binding{Value: p})
	require.NoError(t, err)
	assert.Nil(t, out)

	s := "hello"
	out, err = r.Encode(Binding{Value: &s})
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
}

func TestValuerPassThrough(t *testing.T) {
	r := NewRegistry()
	out, err := r.Encode(Binding{Value: sql.NullString{String: "x", Valid: true}})
	require.NoError(t, err)
	assert.Equal(t, "x", out)

	out, err = r.Encode(Binding{Value: sql.NullInt64{}})
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestRegisterInsertIfAbsent(t *testing.T) {
	r := NewRegistry()
	assert.False(t, Register[time.Time](r, StringHandler{}))
	assert.True(t, Register[Point](r, JSONHandler{}))

	h, ok := r.Resolve(reflect.TypeOf(Point{}))
	require.True(t, ok)
	assert.Equal(t, JSON, h.SQLType())

	assert.True(t, r.RegisterNamed("point", JSONHandler{}))
	assert.False(t, r.RegisterNamed("point", StringHandler{}))
	assert.False(t, r.RegisterSQLType(JSON, StringHandler{}))
}

func TestRegistryConcurrentAccess(t *testing.T) {
	r := NewEmptyRegistry()
	var wg sync.WaitGroup
	wins := make(chan bool, 16)

	for i := 0; i < 16; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			wins <- Register[Point](r, JSONHandler{})
		}()
		go func() {
			defer wg.Done()
			r.Resolve(reflect.TypeOf(Point{}))
		}()
	}
	wg.Wait()
	close(wins)

	count := 0
	for w := range wins {
		if w {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestScalarHandlers(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)

	tests := []struct {
		name    string
		handler Handler
		src     any
		want    any
	}{
		{"int from bytes", IntHandler{}, []byte("12"), int64(12)},
		{"float from string", FloatHandler{}, "1.5", 1.5},
		{"bool from t", BoolHandler{}, "t", true},
		{"time from string", TimeHandler{}, "2024-03-01 12:30:00", ts},
		{"bytes copy", BytesHandler{}, []byte("ab"), []byte("ab")},
		{"json raw", JSONHandler{}, `{"a":1}`, json.RawMessage(`{"a":1}`)},
		{"string from int", StringHandler{}, int64(9), "9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.handler.Decode(tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := IntHandler{}.Encode(uint64(1 << 63))
	assert.Error(t, err)
	_, err = IntHandler{}.Encode(1.5)
	assert.Error(t, err)
}

func TestArrayHandler(t *testing.T) {
	h := ArrayHandler[int64]{}

	enc, err := h.Encode([]int64{1, 2, 3})
	require.NoError(t, err)
	valuer, ok := enc.(driver.Valuer)
	require.True(t, ok)
	wire, err := valuer.Value()
	require.NoError(t, err)
	assert.Equal(t, "{1,2,3}", wire)

	dec, err := h.Decode("{4,5}")
	require.NoError(t, err)
	assert.Equal(t, []int64{4, 5}, dec)

	_, err = h.Encode(42)
	assert.Error(t, err)
}

func TestVectorHandler(t *testing.T) {
	h := VectorHandler{Dim: 3}

	enc, err := h.Encode([]float32{1, 0.5, -2})
	require.NoError(t, err)
	assert.Equal(t, "[1,0.5,-2]", enc)

	_, err = h.Encode([]float32{1, 2})
	assert.ErrorContains(t, err, "expected 3")

	dec, err := h.Decode([]byte("[0.25, 1, 2]"))
	require.NoError(t, err)
	assert.Equal(t, []float32{0.25, 1, 2}, dec)

	_, err = VectorHandler{}.Decode("1,2")
	assert.ErrorContains(t, err, "malformed")
}

func TestIdentifierHandlers(t *testing.T) {
	id := uuid.MustParse("8c1c7a8e-7b53-4d8a-9b3f-0a0e5c2b1d11")
	enc, err := UUIDHandler{}.Encode(id)
	require.NoError(t, err)
	assert.Equal(t, id.String(), enc)

	dec, err := UUIDHandler{}.Decode(id[:])
	require.NoError(t, err)
	assert.Equal(t, id, dec)

	u := ulid.Make()
	enc, err = ULIDHandler{}.Encode(u)
	require.NoError(t, err)
	assert.Equal(t, u.String(), enc)

	back, err := ULIDHandler{}.Decode(u.String())
	require.NoError(t, err)
	assert.Equal(t, u, back)

	_, err = UUIDHandler{}.Encode("not-a-uuid")
	assert.Error(t, err)
}

func TestEnumHandler(t *testing.T) {
	values := []Color{Red, Green, Blue}
	code := func(c Color) int64 { return int64(c) * 10 }

	byName := NewEnumHandler(EnumByName, values, Color.Name, nil)
	byCode := NewEnumHandler(EnumByCode, values, Color.Name, code)
	byOrd := NewEnumHandler(EnumByOrdinal, values, Color.Name, nil)

	enc, err := byName.Encode(Green)
	require.NoError(t, err)
	assert.Equal(t, "GREEN", enc)
	enc, err = byCode.Encode(Blue)
	require.NoError(t, err)
	assert.Equal(t, int64(30), enc)
	enc, err = byOrd.Encode(Red)
	require.NoError(t, err)
	assert.Equal(t, int64(0), enc)

	dec, err := byName.Decode([]byte("BLUE"))
	require.NoError(t, err)
	assert.Equal(t, Blue, dec)
	dec, err = byCode.Decode(int64(20))
	require.NoError(t, err)
	assert.Equal(t, Green, dec)
	dec, err = byOrd.Decode(int64(2))
	require.NoError(t, err)
	assert.Equal(t, Blue, dec)

	_, err = byOrd.Decode(int64(9))
	assert.Error(t, err)
	_, err = byName.Encode("GREEN")
	assert.Error(t, err)

	assert.Equal(t, Varchar, byName.SQLType())
	assert.Equal(t, Integer, byCode.SQLType())

	r := NewRegistry()
	require.True(t, Register[Color](r, byName))
	out, err := r.Encode(Binding{Value: Red})
	require.NoError(t, err)
	assert.Equal(t, "RED", out)
}
