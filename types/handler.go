package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/lib/pq"
	"github.com/oklog/ulid/v2"
)

// Handler is the codec for one value kind. Encode produces the value handed
// to the driver for a bound parameter, Decode converts a column value read
// back from a result set. Both must map nil to nil.
type Handler interface {
	Encode(value any) (any, error)
	Decode(src any) (any, error)
	SQLType() SQLType
}

type nullHandler struct{}

func (nullHandler) Encode(any) (any, error) { return nil, nil }
func (nullHandler) Decode(any) (any, error) { return nil, nil }
func (nullHandler) SQLType() SQLType        { return Null }

type StringHandler struct{ Type SQLType }

func (h StringHandler) Encode(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	return asString(value)
}

func (h StringHandler) Decode(src any) (any, error) {
	if src == nil {
		return nil, nil
	}
	return asString(src)
}

func (h StringHandler) SQLType() SQLType {
	if h.Type == Unknown {
		return Varchar
	}
	return h.Type
}

type IntHandler struct{ Type SQLType }

func (h IntHandler) Encode(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	return asInt64(value)
}

func (h IntHandler) Decode(src any) (any, error) {
	if src == nil {
		return nil, nil
	}
	return asInt64(src)
}

func (h IntHandler) SQLType() SQLType {
	if h.Type == Unknown {
		return BigInt
	}
	return h.Type
}

type FloatHandler struct{ Type SQLType }

func (h FloatHandler) Encode(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	return asFloat64(value)
}

func (h FloatHandler) Decode(src any) (any, error) {
	if src == nil {
		return nil, nil
	}
	return asFloat64(src)
}

func (h FloatHandler) SQLType() SQLType {
	if h.Type == Unknown {
		return Double
	}
	return h.Type
}

type BoolHandler struct{}

func (BoolHandler) Encode(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	return asBool(value)
}

func (BoolHandler) Decode(src any) (any, error) {
	if src == nil {
		return nil, nil
	}
	return asBool(src)
}

func (BoolHandler) SQLType() SQLType { return Boolean }

type TimeHandler struct{ Type SQLType }

func (h TimeHandler) Encode(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	return asTime(value)
}

func (h TimeHandler) Decode(src any) (any, error) {
	if src == nil {
		return nil, nil
	}
	return asTime(src)
}

func (h TimeHandler) SQLType() SQLType {
	if h.Type == Unknown {
		return Timestamp
	}
	return h.Type
}

type BytesHandler struct{}

func (BytesHandler) Encode(value any) (any, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
		return rv.Bytes(), nil
	}
	return nil, fmt.Errorf("cannot encode %T as bytes", value)
}

func (BytesHandler) Decode(src any) (any, error) {
	switch v := src.(type) {
	case nil:
		return nil, nil
	case []byte:
		out := make([]byte, len(v))
		copy(out, v)
		return out, nil
	case string:
		return []byte(v), nil
	}
	return nil, fmt.Errorf("cannot decode %T as bytes", src)
}

func (BytesHandler) SQLType() SQLType { return Binary }

// JSONHandler binds any Go value as a JSON document.
type JSONHandler struct{}

func (JSONHandler) Encode(value any) (any, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		return string(v), nil
	case []byte:
		return string(v), nil
	case string:
		return v, nil
	}
	b, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (JSONHandler) Decode(src any) (any, error) {
	switch v := src.(type) {
	case nil:
		return nil, nil
	case []byte:
		return json.RawMessage(append([]byte(nil), v...)), nil
	case string:
		return json.RawMessage(v), nil
	}
	return nil, fmt.Errorf("cannot decode %T as json", src)
}

func (JSONHandler) SQLType() SQLType { return JSON }

// ArrayHandler binds Go slices as SQL arrays. Encoding goes through pq.Array
// so the value works with both lib/pq and pgx stdlib connections; decoding
// parses the array text form with pgtype.
type ArrayHandler[T any] struct{}

func (ArrayHandler[T]) Encode(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("cannot encode %T as array", value)
	}
	return pq.Array(value), nil
}

func (ArrayHandler[T]) Decode(src any) (any, error) {
	if src == nil {
		return []T(nil), nil
	}
	var out []T
	// pgtype.Map memoizes scan plans and is not safe for concurrent use.
	if err := pgtype.NewMap().SQLScanner(&out).Scan(src); err != nil {
		return nil, fmt.Errorf("decode array: %w", err)
	}
	return out, nil
}

func (ArrayHandler[T]) SQLType() SQLType { return Array }

// VectorHandler binds float slices as pgvector/TiDB vector literals
// ("[1,2,3]"). A non-zero Dim enforces a fixed dimension.
type VectorHandler struct {
	Dim int
}

func (h VectorHandler) Encode(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	if s, ok := value.(string); ok {
		vec, err := parseVector(s)
		if err != nil {
			return nil, err
		}
		return h.format(vec)
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("cannot encode %T as vector", value)
	}
	vec := make([]float64, rv.Len())
	for i := range vec {
		f, err := asFloat64(rv.Index(i).Interface())
		if err != nil {
			return nil, fmt.Errorf("vector element %d: %w", i, err)
		}
		vec[i] = f
	}
	return h.format(vec)
}

func (h VectorHandler) format(vec []float64) (string, error) {
	if h.Dim > 0 && len(vec) != h.Dim {
		return "", fmt.Errorf("vector has %d dimensions, expected %d", len(vec), h.Dim)
	}
	var sb strings.Builder
	sb.WriteByte('[')
	for i, f := range vec {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatFloat(f, 'f', -1, 32))
	}
	sb.WriteByte(']')
	return sb.String(), nil
}

func (h VectorHandler) Decode(src any) (any, error) {
	var s string
	switch v := src.(type) {
	case nil:
		return []float32(nil), nil
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return nil, fmt.Errorf("cannot decode %T as vector", src)
	}
	vec, err := parseVector(s)
	if err != nil {
		return nil, err
	}
	if h.Dim > 0 && len(vec) != h.Dim {
		return nil, fmt.Errorf("vector has %d dimensions, expected %d", len(vec), h.Dim)
	}
	out := make([]float32, len(vec))
	for i, f := range vec {
		out[i] = float32(f)
	}
	return out, nil
}

func (VectorHandler) SQLType() SQLType { return Vector }

func parseVector(s string) ([]float64, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '[' || s[len(s)-1] != ']' {
		return nil, fmt.Errorf("malformed vector literal %q", s)
	}
	body := strings.TrimSpace(s[1 : len(s)-1])
	if body == "" {
		return []float64{}, nil
	}
	parts := strings.Split(body, ",")
	out := make([]float64, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("vector element %d: %w", i, err)
		}
		out[i] = f
	}
	return out, nil
}

type UUIDHandler struct{}

func (UUIDHandler) Encode(value any) (any, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case uuid.UUID:
		return v.String(), nil
	case string:
		id, err := uuid.Parse(v)
		if err != nil {
			return nil, err
		}
		return id.String(), nil
	case [16]byte:
		return uuid.UUID(v).String(), nil
	}
	return nil, fmt.Errorf("cannot encode %T as uuid", value)
}

func (UUIDHandler) Decode(src any) (any, error) {
	switch v := src.(type) {
	case nil:
		return nil, nil
	case string:
		return uuid.Parse(v)
	case []byte:
		if len(v) == 16 {
			return uuid.FromBytes(v)
		}
		return uuid.ParseBytes(v)
	}
	return nil, fmt.Errorf("cannot decode %T as uuid", src)
}

func (UUIDHandler) SQLType() SQLType { return UUID }

type ULIDHandler struct{}

func (ULIDHandler) Encode(value any) (any, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case ulid.ULID:
		return v.String(), nil
	case string:
		id, err := ulid.Parse(v)
		if err != nil {
			return nil, err
		}
		return id.String(), nil
	}
	return nil, fmt.Errorf("cannot encode %T as ulid", value)
}

func (ULIDHandler) Decode(src any) (any, error) {
	switch v := src.(type) {
	case nil:
		return nil, nil
	case string:
		return ulid.Parse(v)
	case []byte:
		if len(v) == 16 {
			var id ulid.ULID
			copy(id[:], v)
			return id, nil
		}
		return ulid.Parse(string(v))
	}
	return nil, fmt.Errorf("cannot decode %T as ulid", src)
}

func (ULIDHandler) SQLType() SQLType { return Char }

// valuerHandler passes driver.Valuer implementations (sql.NullString and
// friends) straight through to the driver.
type valuerHandler struct{}

func (valuerHandler) Encode(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	if v, ok := value.(driver.Valuer); ok {
		return v.Value()
	}
	return nil, fmt.Errorf("%T does not implement driver.Valuer", value)
}

func (valuerHandler) Decode(src any) (any, error) { return src, nil }
func (valuerHandler) SQLType() SQLType            { return Other }

var (
	_ Handler = StringHandler{}
	_ Handler = IntHandler{}
	_ Handler = FloatHandler{}
	_ Handler = BoolHandler{}
	_ Handler = TimeHandler{}
	_ Handler = BytesHandler{}
	_ Handler = JSONHandler{}
	_ Handler = ArrayHandler[string]{}
	_ Handler = VectorHandler{}
	_ Handler = UUIDHandler{}
	_ Handler = ULIDHandler{}
)
