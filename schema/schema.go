// Package schema derives table metadata and argument records from tagged
// Go structs. Introspection runs once per type and is cached.
package schema

import (
	"fmt"
	"reflect"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// TableNamer lets a type choose its own table name.
type TableNamer interface {
	TableName() string
}

type Context struct {
	naming     NamingStrategy
	tagName    string
	cacheSize  int
	generators map[string]IDGenerator

	once     sync.Once
	entities *lru.Cache[reflect.Type, any]
	mu       sync.Mutex
}

type Option func(*Context)

// WithNamingStrategy sets the naming strategy for columns and tables.
func WithNamingStrategy(strategy NamingStrategy) Option {
	return func(c *Context) { c.naming = strategy }
}

// WithTagName reads mapping from a struct tag other than `db`.
func WithTagName(tagName string) Option {
	return func(c *Context) { c.tagName = tagName }
}

// WithCacheSize bounds the number of introspected types kept.
func WithCacheSize(size int) Option {
	return func(c *Context) { c.cacheSize = size }
}

// WithGenerator registers an ID generator under name.
func WithGenerator(name string, g IDGenerator) Option {
	return func(c *Context) { c.generators[name] = g }
}

func New(options ...Option) *Context {
	c := &Context{
		naming:     DefaultNamingStrategy(),
		tagName:    "db",
		cacheSize:  256,
		generators: defaultGenerators(),
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

var defaultContext = New()

// Default returns the package level context used by Introspect.
func Default() *Context { return defaultContext }

func (c *Context) cache() *lru.Cache[reflect.Type, any] {
	c.once.Do(func() {
		size := c.cacheSize
		if size <= 0 {
			size = 256
		}
		// lru.New only fails on a non-positive size.
		c.entities, _ = lru.New[reflect.Type, any](size)
	})
	return c.entities
}

// Introspect returns the cached Entity for T using the default context.
func Introspect[T any]() (*Entity[T], error) {
	return IntrospectWith[T](defaultContext)
}

// MustIntrospect is Introspect that panics on a malformed type.
func MustIntrospect[T any]() *Entity[T] {
	e, err := Introspect[T]()
	if err != nil {
		panic(err)
	}
	return e
}

// IntrospectWith returns the cached Entity for T under c.
func IntrospectWith[T any](c *Context) (*Entity[T], error) {
	typ := reflect.TypeOf((*T)(nil)).Elem()
	cache := c.cache()
	if v, ok := cache.Get(typ); ok {
		return v.(*Entity[T]), nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := cache.Get(typ); ok {
		return v.(*Entity[T]), nil
	}

	e, err := buildEntity[T](c, typ)
	if err != nil {
		return nil, err
	}
	cache.Add(typ, e)
	return e, nil
}

func buildEntity[T any](c *Context, typ reflect.Type) (*Entity[T], error) {
	if typ.Kind() != reflect.Struct {
		return nil, fmt.Errorf("schema: %s is not a struct", typ)
	}

	fields, err := c.collectFields(typ, nil, nil)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("schema: %s has no mapped fields", typ)
	}

	e := &Entity[T]{name: typ.Name(), fields: fields, byColumn: make(map[string]int, len(fields))}
	for i, f := range fields {
		if _, dup := e.byColumn[f.Column]; dup {
			return nil, fmt.Errorf("schema: %s maps column %s twice", typ, f.Column)
		}
		e.byColumn[f.Column] = i
	}

	var zero T
	if namer, ok := any(zero).(TableNamer); ok {
		e.table = namer.TableName()
	} else if namer, ok := any(&zero).(TableNamer); ok {
		e.table = namer.TableName()
	} else {
		e.table = c.naming.TableName(typ.Name())
	}

	for _, f := range e.fields {
		if f.Primary {
			e.primaryKeys = append(e.primaryKeys, f.Column)
		}
		if f.Generator == "" {
			continue
		}
		g, ok := c.generators[f.Generator]
		if !ok {
			return nil, fmt.Errorf("schema: field %s: unknown generator %q", f.Name, f.Generator)
		}
		e.generated = append(e.generated, generatedField{index: f.Index, gen: g})
	}
	e.accessors = newAccessors[T](e.fields)
	return e, nil
}

// collectFields walks exported fields, flattening anonymous embedded structs.
func (c *Context) collectFields(typ reflect.Type, parent []int, out []Field) ([]Field, error) {
	for i := 0; i < typ.NumField(); i++ {
		sf := typ.Field(i)
		index := append(append([]int(nil), parent...), i)

		tagValue, tagged := sf.Tag.Lookup(c.tagName)
		if sf.Anonymous && !tagged {
			ft := sf.Type
			if ft.Kind() == reflect.Struct {
				var err error
				if out, err = c.collectFields(ft, index, out); err != nil {
					return nil, err
				}
				continue
			}
		}
		if !sf.IsExported() {
			continue
		}

		tag, err := ParseTag(sf.Name, tagValue, c.naming)
		if err != nil {
			return nil, err
		}
		if tag.Skip {
			continue
		}
		out = append(out, Field{
			Name:      sf.Name,
			Column:    tag.Column,
			Index:     index,
			Type:      sf.Type,
			Primary:   tag.Primary,
			SQLType:   tag.Type,
			Handler:   tag.Handler,
			Generator: tag.Generator,
		})
	}
	return out, nil
}
