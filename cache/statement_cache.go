package cache

import (
	"context"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/jmoiron/sqlx"

	"github.com/Konsultn-Engineering/sqlkit/internal/debug"
	"github.com/Konsultn-Engineering/sqlkit/utils"
)

// Preparer is satisfied by *sqlx.DB, *sqlx.Conn and *sqlx.Tx.
type Preparer interface {
	PreparexContext(ctx context.Context, query string) (*sqlx.Stmt, error)
}

// StatementCache keeps prepared statements keyed by their SQL text.
// Evicted and invalidated statements are closed.
type StatementCache struct {
	stmts *lru.Cache[string, *sqlx.Stmt]
	// serializes prepares so one text is prepared once
	prepare sync.Mutex

	hits   atomic.Uint64
	misses atomic.Uint64
}

func NewStatementCache(size int) *StatementCache {
	if size <= 0 {
		size = 1
	}
	stmts, _ := lru.NewWithEvict(size, func(query string, stmt *sqlx.Stmt) {
		debug.Debug("closing statement", "fingerprint", utils.FingerprintString(query))
		_ = stmt.Close()
	})
	return &StatementCache{stmts: stmts}
}

// Get returns the statement prepared for query.
func (s *StatementCache) Get(query string) (*sqlx.Stmt, bool) {
	return s.stmts.Get(query)
}

// GetOrPrepare returns the cached statement for query, preparing it on db
// when absent.
func (s *StatementCache) GetOrPrepare(ctx context.Context, db Preparer, query string) (*sqlx.Stmt, error) {
	if stmt, ok := s.stmts.Get(query); ok {
		s.hits.Add(1)
		return stmt, nil
	}

	s.prepare.Lock()
	defer s.prepare.Unlock()

	if stmt, ok := s.stmts.Peek(query); ok {
		s.hits.Add(1)
		return stmt, nil
	}
	s.misses.Add(1)

	stmt, err := db.PreparexContext(ctx, query)
	if err != nil {
		return nil, err
	}
	s.stmts.Add(query, stmt)
	return stmt, nil
}

// Invalidate closes and drops the statement for query, e.g. after a schema
// change made it stale.
func (s *StatementCache) Invalidate(query string) bool {
	return s.stmts.Remove(query)
}

func (s *StatementCache) Len() int { return s.stmts.Len() }

// Stats returns hit and miss counters of GetOrPrepare.
func (s *StatementCache) Stats() (hits, misses uint64) {
	return s.hits.Load(), s.misses.Load()
}

// Close closes every cached statement.
func (s *StatementCache) Close() error {
	s.stmts.Purge()
	return nil
}
