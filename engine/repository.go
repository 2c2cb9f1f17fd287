// Package engine offers entity level persistence on top of the fluent
// builders: introspected structs go in, rows come back as structs.
package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/Konsultn-Engineering/sqlkit/args"
	"github.com/Konsultn-Engineering/sqlkit/database"
	"github.com/Konsultn-Engineering/sqlkit/query"
	"github.com/Konsultn-Engineering/sqlkit/schema"
)

// ErrNotFound is returned by Get when no row matches the key.
var ErrNotFound = errors.New("engine: not found")

// ErrNoPrimaryKey is returned by key based operations on entities without
// a primary key.
var ErrNoPrimaryKey = errors.New("engine: entity has no primary key")

type Repository[T any] struct {
	exec   *database.Executor
	q      *query.Builder
	entity *schema.Entity[T]
}

// NewRepository introspects T with the default schema context.
func NewRepository[T any](exec *database.Executor) (*Repository[T], error) {
	entity, err := schema.Introspect[T]()
	if err != nil {
		return nil, err
	}
	return &Repository[T]{exec: exec, q: exec.Builder(), entity: entity}, nil
}

func (r *Repository[T]) Entity() *schema.Entity[T] { return r.entity }

// Create generates missing keys and inserts each value.
func (r *Repository[T]) Create(ctx context.Context, values ...*T) error {
	if len(values) == 0 {
		return nil
	}
	ins := r.q.Insert(r.entity.Table())
	for _, v := range values {
		if err := r.entity.GenerateIDs(v); err != nil {
			return err
		}
		ins.Record(r.entity.Record(*v))
	}
	_, err := ins.Exec(ctx)
	return err
}

// Save inserts v or, when its primary key exists, overwrites the stored
// row. Nil fields keep their stored value.
func (r *Repository[T]) Save(ctx context.Context, v *T) error {
	keys := r.entity.PrimaryKeys()
	if len(keys) == 0 {
		return ErrNoPrimaryKey
	}
	if err := r.entity.GenerateIDs(v); err != nil {
		return err
	}
	_, err := r.q.Insert(r.entity.Table()).
		Record(r.entity.Record(*v)).
		OnDuplicateUpdate(keys...).
		Exec(ctx)
	return err
}

// Update writes every non-key column of v to the row matching its key.
func (r *Repository[T]) Update(ctx context.Context, v T) (int64, error) {
	rec := r.entity.Record(v)
	upd := r.q.Update(r.entity.Table())
	for _, f := range r.entity.Fields() {
		if f.Primary {
			continue
		}
		val, _ := rec.Field(f.Column)
		upd.Set(f.Column, val)
	}
	keys, err := r.keyValues(rec)
	if err != nil {
		return 0, err
	}
	for i, pk := range r.entity.PrimaryKeys() {
		upd.Eq(pk, keys[i])
	}
	return affected(upd.Exec(ctx))
}

// Delete removes the row matching the key of v.
func (r *Repository[T]) Delete(ctx context.Context, v T) (int64, error) {
	keys, err := r.keyValues(r.entity.Record(v))
	if err != nil {
		return 0, err
	}
	del := r.q.Delete(r.entity.Table())
	for i, pk := range r.entity.PrimaryKeys() {
		del.Eq(pk, keys[i])
	}
	return affected(del.Exec(ctx))
}

// Get loads the row whose primary key columns equal keys, in key order.
func (r *Repository[T]) Get(ctx context.Context, keys ...any) (T, error) {
	var zero T
	pks := r.entity.PrimaryKeys()
	if len(pks) == 0 {
		return zero, ErrNoPrimaryKey
	}
	if len(keys) != len(pks) {
		return zero, fmt.Errorf("engine: %s has %d key columns, got %d values", r.entity.Name(), len(pks), len(keys))
	}

	found, err := r.Find(ctx, func(s *query.SelectBuilder) {
		for i, pk := range pks {
			s.Eq(pk, keys[i])
		}
		s.Limit(1)
	})
	if err != nil {
		return zero, err
	}
	if len(found) == 0 {
		return zero, ErrNotFound
	}
	return found[0], nil
}

// FindBySample returns rows equal to every non-null field of sample.
func (r *Repository[T]) FindBySample(ctx context.Context, sample T) ([]T, error) {
	return r.Find(ctx, func(s *query.SelectBuilder) {
		s.EqBySample(r.entity.Record(sample))
	})
}

// Find runs a select over every mapped column; build adds conditions,
// ordering and paging.
func (r *Repository[T]) Find(ctx context.Context, build func(*query.SelectBuilder)) ([]T, error) {
	sel := r.q.Select(r.entity.Table()).Columns(r.entity.Columns()...)
	if build != nil {
		build(sel)
	}
	stmt, err := sel.Build()
	if err != nil {
		return nil, err
	}

	var out []T
	err = r.exec.Each(ctx, stmt, func(rows *sqlx.Rows) error {
		var v T
		if err := r.entity.ScanRow(rows, &v); err != nil {
			return err
		}
		out = append(out, v)
		return nil
	})
	return out, err
}

func (r *Repository[T]) keyValues(rec args.Record) ([]any, error) {
	pks := r.entity.PrimaryKeys()
	if len(pks) == 0 {
		return nil, ErrNoPrimaryKey
	}
	out := make([]any, len(pks))
	for i, pk := range pks {
		out[i], _ = rec.Field(pk)
	}
	return out, nil
}

func affected(res interface{ RowsAffected() (int64, error) }, err error) (int64, error) {
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
