package args

import "sync"

// Accessors is the field table for a record type T. Fields are registered
// once at startup; binding a value afterwards costs no reflection.
type Accessors[T any] struct {
	mu      sync.RWMutex
	names   []string
	getters map[string]func(T) any
}

// NewAccessors creates an empty field table.
func NewAccessors[T any]() *Accessors[T] {
	return &Accessors[T]{getters: make(map[string]func(T) any, 8)}
}

// Field registers a getter under name. A name registered twice keeps its
// first getter.
func (a *Accessors[T]) Field(name string, get func(T) any) *Accessors[T] {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, exists := a.getters[name]; exists {
		return a
	}
	a.names = append(a.names, name)
	a.getters[name] = get
	return a
}

// Names returns registered field names in registration order.
func (a *Accessors[T]) Names() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]string, len(a.names))
	copy(out, a.names)
	return out
}

// Bind returns a Record view of v.
func (a *Accessors[T]) Bind(v T) Record {
	return &boundRecord[T]{acc: a, value: v}
}

// Source is shorthand for FromRecord(a.Bind(v)).
func (a *Accessors[T]) Source(v T) RecordSource {
	return FromRecord(a.Bind(v))
}

type boundRecord[T any] struct {
	acc   *Accessors[T]
	value T
}

func (r *boundRecord[T]) Field(name string) (any, bool) {
	r.acc.mu.RLock()
	get, ok := r.acc.getters[name]
	r.acc.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return get(r.value), true
}

func (r *boundRecord[T]) Fields() []string { return r.acc.Names() }
