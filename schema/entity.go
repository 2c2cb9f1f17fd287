package schema

import (
	"fmt"
	"reflect"

	"github.com/Konsultn-Engineering/sqlkit/args"
	"github.com/Konsultn-Engineering/sqlkit/types"
)

// Field is one mapped struct field.
type Field struct {
	Name      string
	Column    string
	Index     []int
	Type      reflect.Type
	Primary   bool
	SQLType   types.SQLType // declared column type, Unknown when untagged
	Handler   string
	Generator string
}

// hinted reports whether values of f carry binding hints.
func (f Field) hinted() bool {
	return f.SQLType != types.Unknown || f.Handler != ""
}

type generatedField struct {
	index []int
	gen   IDGenerator
}

// Entity is the introspected mapping of struct type T.
type Entity[T any] struct {
	name        string
	table       string
	fields      []Field
	byColumn    map[string]int
	primaryKeys []string
	generated   []generatedField
	accessors   *args.Accessors[T]
}

func (e *Entity[T]) Name() string  { return e.name }
func (e *Entity[T]) Table() string { return e.table }

// PrimaryKeys returns primary key columns in field order.
func (e *Entity[T]) PrimaryKeys() []string {
	out := make([]string, len(e.primaryKeys))
	copy(out, e.primaryKeys)
	return out
}

func (e *Entity[T]) Fields() []Field {
	out := make([]Field, len(e.fields))
	copy(out, e.fields)
	return out
}

func (e *Entity[T]) Columns() []string {
	return e.accessors.Names()
}

// Field looks a field up by column name.
func (e *Entity[T]) Field(column string) (Field, bool) {
	i, ok := e.byColumn[column]
	if !ok {
		return Field{}, false
	}
	return e.fields[i], true
}

// Record exposes v by column name. Fields with a declared type or handler
// yield args.Typed so binding can use the hint.
func (e *Entity[T]) Record(v T) args.Record {
	return e.accessors.Bind(v)
}

// Source exposes v as an argument source for templates.
func (e *Entity[T]) Source(v T) args.RecordSource {
	return e.accessors.Source(v)
}

// GenerateIDs fills zero valued generated fields of v.
func (e *Entity[T]) GenerateIDs(v *T) error {
	if v == nil {
		return fmt.Errorf("schema: GenerateIDs on nil %s", e.name)
	}
	rv := reflect.ValueOf(v).Elem()
	for _, g := range e.generated {
		fv := rv.FieldByIndex(g.index)
		if !fv.IsZero() {
			continue
		}
		id, err := g.gen.Generate()
		if err != nil {
			return err
		}
		if err := assign(fv, id); err != nil {
			return fmt.Errorf("schema: %s.%s: %w", e.name, rv.Type().FieldByIndex(g.index).Name, err)
		}
	}
	return nil
}

func assign(dst reflect.Value, id any) error {
	src := reflect.ValueOf(id)
	switch {
	case src.Type().AssignableTo(dst.Type()):
		dst.Set(src)
	case dst.Kind() == reflect.String:
		dst.SetString(fmt.Sprint(id))
	case src.Type().ConvertibleTo(dst.Type()):
		dst.Set(src.Convert(dst.Type()))
	default:
		return fmt.Errorf("cannot store %T in %s", id, dst.Type())
	}
	return nil
}

func newAccessors[T any](fields []Field) *args.Accessors[T] {
	acc := args.NewAccessors[T]()
	for _, f := range fields {
		f := f
		get := func(v T) any {
			fv, err := reflect.ValueOf(v).FieldByIndexErr(f.Index)
			if err != nil {
				return nil
			}
			return fv.Interface()
		}
		if f.hinted() {
			plain := get
			get = func(v T) any {
				return args.Typed{Value: plain(v), ColumnType: f.SQLType, Handler: f.Handler}
			}
		}
		acc.Field(f.Column, get)
	}
	return acc
}

// Rows is the part of *sql.Rows and *sqlx.Rows that ScanRow needs.
type Rows interface {
	Columns() ([]string, error)
	Scan(dest ...any) error
}

// ScanRow scans the current row of rows into dest, matching result columns
// to mapped fields by name.
func (e *Entity[T]) ScanRow(rows Rows, dest *T) error {
	cols, err := rows.Columns()
	if err != nil {
		return err
	}
	targets, err := e.ScanTargets(dest, cols)
	if err != nil {
		return err
	}
	return rows.Scan(targets...)
}

// ScanTargets returns field pointers of dest in columns order.
func (e *Entity[T]) ScanTargets(dest *T, columns []string) ([]any, error) {
	rv := reflect.ValueOf(dest).Elem()
	targets := make([]any, len(columns))
	for i, col := range columns {
		f, ok := e.Field(col)
		if !ok {
			return nil, fmt.Errorf("schema: %s has no field for column %s", e.name, col)
		}
		targets[i] = rv.FieldByIndex(f.Index).Addr().Interface()
	}
	return targets, nil
}
