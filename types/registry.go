package types

import (
	"database/sql/driver"
	"encoding/json"
	"reflect"
	"sync"
	"time"

	"github.com/Konsultn-Engineering/sqlkit/internal/debug"
	"github.com/Konsultn-Engineering/sqlkit/sqlerr"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// Binding describes one value to be bound together with the hints that
// steer handler dispatch.
type Binding struct {
	Path  string
	Value any

	// Handler names a registered handler explicitly (handler=...).
	Handler string
	// SQLType is an explicit per-occurrence type hint (sqlType=...).
	SQLType SQLType
	// ColumnType is the declared column type from schema metadata. It is
	// only consulted when the runtime kind has no handler.
	ColumnType SQLType
}

// Registry maps value kinds to handlers. It is read-mostly: registration
// is insert-if-absent and entries are never replaced once stored.
type Registry struct {
	mu     sync.RWMutex
	byType map[reflect.Type]Handler
	byKind map[reflect.Kind]Handler
	byName map[string]Handler
	bySQL  map[SQLType]Handler
}

var valuerType = reflect.TypeOf((*driver.Valuer)(nil)).Elem()

// NewRegistry returns a registry preloaded with the built-in handlers.
func NewRegistry() *Registry {
	r := NewEmptyRegistry()
	r.registerDefaults()
	return r
}

// NewEmptyRegistry returns a registry without any handlers.
func NewEmptyRegistry() *Registry {
	return &Registry{
		byType: make(map[reflect.Type]Handler, 32),
		byKind: make(map[reflect.Kind]Handler, 16),
		byName: make(map[string]Handler, 16),
		bySQL:  make(map[SQLType]Handler, 24),
	}
}

func (r *Registry) registerDefaults() {
	str := StringHandler{}
	i64 := IntHandler{}
	f64 := FloatHandler{}
	bl := BoolHandler{}
	tm := TimeHandler{}
	by := BytesHandler{}

	for _, k := range []reflect.Kind{reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64} {
		r.byKind[k] = i64
	}
	r.byKind[reflect.Float32] = f64
	r.byKind[reflect.Float64] = f64
	r.byKind[reflect.String] = str
	r.byKind[reflect.Bool] = bl

	Register[[]byte](r, by)
	Register[json.RawMessage](r, JSONHandler{})
	Register[time.Time](r, tm)
	Register[uuid.UUID](r, UUIDHandler{})
	Register[ulid.ULID](r, ULIDHandler{})
	Register[[]string](r, ArrayHandler[string]{})
	Register[[]int64](r, ArrayHandler[int64]{})
	Register[[]int32](r, ArrayHandler[int32]{})
	Register[[]float64](r, ArrayHandler[float64]{})
	Register[[]bool](r, ArrayHandler[bool]{})
	Register[[]float32](r, VectorHandler{})

	for name, h := range map[string]Handler{
		"string": str,
		"int":    i64,
		"float":  f64,
		"bool":   bl,
		"time":   tm,
		"bytes":  by,
		"json":   JSONHandler{},
		"uuid":   UUIDHandler{},
		"ulid":   ULIDHandler{},
		"vector": VectorHandler{},
		"array":  ArrayHandler[string]{},
	} {
		r.byName[name] = h
	}

	for _, t := range []SQLType{Char, Varchar, Text, Decimal} {
		r.bySQL[t] = StringHandler{Type: t}
	}
	for _, t := range []SQLType{SmallInt, Integer, BigInt} {
		r.bySQL[t] = IntHandler{Type: t}
	}
	r.bySQL[Real] = FloatHandler{Type: Real}
	r.bySQL[Double] = f64
	r.bySQL[Boolean] = bl
	for _, t := range []SQLType{Date, Time, Timestamp, TimestampTZ} {
		r.bySQL[t] = TimeHandler{Type: t}
	}
	r.bySQL[Binary] = by
	r.bySQL[Blob] = by
	r.bySQL[JSON] = JSONHandler{}
	r.bySQL[UUID] = UUIDHandler{}
	r.bySQL[Array] = ArrayHandler[string]{}
	r.bySQL[Vector] = VectorHandler{}
	r.bySQL[Null] = nullHandler{}
}

// Register stores h for values of exactly kind. It reports false when a
// handler was already registered, in which case the existing one is kept.
func (r *Registry) Register(kind reflect.Type, h Handler) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byType[kind]; exists {
		debug.Debug("type handler already registered", "kind", kind.String())
		return false
	}
	r.byType[kind] = h
	return true
}

// Register is the generic form of Registry.Register.
func Register[T any](r *Registry, h Handler) bool {
	return r.Register(reflect.TypeOf((*T)(nil)).Elem(), h)
}

// RegisterNamed stores h under name for explicit typeHandler= references.
func (r *Registry) RegisterNamed(name string, h Handler) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[name]; exists {
		debug.Debug("named type handler already registered", "name", name)
		return false
	}
	r.byName[name] = h
	return true
}

// RegisterSQLType stores h for an explicit or declared SQL type.
func (r *Registry) RegisterSQLType(t SQLType, h Handler) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.bySQL[t]; exists {
		debug.Debug("sql type handler already registered", "sql_type", t.String())
		return false
	}
	r.bySQL[t] = h
	return true
}

// Resolve finds the handler for a runtime kind: exact type first, then
// driver.Valuer implementations, then the basic-kind fallback.
func (r *Registry) Resolve(kind reflect.Type) (Handler, bool) {
	if kind == nil {
		return nullHandler{}, true
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if h, ok := r.byType[kind]; ok {
		return h, true
	}
	if kind.Implements(valuerType) {
		return valuerHandler{}, true
	}
	if kind.Kind() == reflect.Slice && kind.Elem().Kind() == reflect.Uint8 {
		if h, ok := r.byType[reflect.TypeOf([]byte(nil))]; ok {
			return h, true
		}
	}
	if h, ok := r.byKind[kind.Kind()]; ok {
		return h, true
	}
	return nil, false
}

// Named returns the handler registered under name.
func (r *Registry) Named(name string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.byName[name]
	return h, ok
}

// ForSQLType returns the handler registered for t.
func (r *Registry) ForSQLType(t SQLType) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.bySQL[t]
	return h, ok
}

// Lookup dispatches a binding to its handler. The order is: explicit handler
// name, explicit SQL type, runtime kind, declared column type. A binding
// nothing matches fails with a BindingError naming the path and kind.
func (r *Registry) Lookup(b Binding) (Handler, error) {
	if b.Handler != "" {
		h, ok := r.Named(b.Handler)
		if !ok {
			return nil, &sqlerr.BindingError{Path: b.Path, Reason: "unknown type handler " + b.Handler}
		}
		return h, nil
	}
	if b.SQLType != Unknown {
		h, ok := r.ForSQLType(b.SQLType)
		if !ok {
			return nil, &sqlerr.BindingError{Path: b.Path, Reason: "no type handler for sql type " + b.SQLType.String()}
		}
		return h, nil
	}

	value, kind := indirect(b.Value)
	if value == nil {
		if b.ColumnType != Unknown {
			if h, ok := r.ForSQLType(b.ColumnType); ok {
				return h, nil
			}
		}
		return nullHandler{}, nil
	}

	if h, ok := r.Resolve(kind); ok {
		return h, nil
	}
	if b.ColumnType != Unknown {
		if h, ok := r.ForSQLType(b.ColumnType); ok {
			return h, nil
		}
	}
	return nil, &sqlerr.BindingError{Path: b.Path, Kind: kind.String(), Reason: "no type handler"}
}

// Encode resolves the handler for b and returns the driver value.
func (r *Registry) Encode(b Binding) (any, error) {
	h, err := r.Lookup(b)
	if err != nil {
		return nil, err
	}
	value, _ := indirect(b.Value)
	out, err := h.Encode(value)
	if err != nil {
		return nil, &sqlerr.BindingError{Path: b.Path, Kind: kindName(value), Reason: err.Error()}
	}
	return out, nil
}

// Indirect unwraps pointers the way handler dispatch does. A nil pointer
// yields nil; pointers implementing driver.Valuer are kept.
func Indirect(v any) any {
	value, _ := indirect(v)
	return value
}

// indirect unwraps pointers. A nil pointer yields a nil value.
func indirect(v any) (any, reflect.Type) {
	if v == nil {
		return nil, nil
	}
	t := reflect.TypeOf(v)
	if t.Kind() != reflect.Ptr || t.Implements(valuerType) {
		return v, t
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil, nil
		}
		rv = rv.Elem()
	}
	return rv.Interface(), rv.Type()
}

func kindName(v any) string {
	if v == nil {
		return "nil"
	}
	return reflect.TypeOf(v).String()
}
