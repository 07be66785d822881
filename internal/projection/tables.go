package projection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/pokerledger/platform/internal/domain"
	"github.com/pokerledger/platform/internal/guard"
)

const (
	tablesKey      = "projection:tables"
	generationKey  = "projection:tables:generation"
	breakerKey     = "projection"
	defaultTTL     = 5 * time.Second
	breakerFails   = 3
	breakerTimeout = 30 * time.Second
)

// TableCache holds the enriched table list. Errors from the backing store trip a
// circuit breaker, and callers fall back to the database on any miss.
//
// The generation lives in the store next to the snapshot, so caches on several
// replicas sharing one Redis agree on it. A snapshot is served only while its
// generation is still the current one.
type TableCache struct {
	store   Store
	breaker *guard.CircuitBreaker
	ttl     time.Duration
	logger  *slog.Logger
}

type snapshot struct {
	Generation int64          `json:"generation"`
	Tables     []domain.Table `json:"tables"`
}

// NewTableCache creates a cache over store. A zero ttl selects the default.
func NewTableCache(store Store, ttl time.Duration, logger *slog.Logger) *TableCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &TableCache{
		store:   store,
		breaker: guard.NewCircuitBreaker(breakerFails, breakerTimeout),
		ttl:     ttl,
		logger:  logger,
	}
}

// Generation returns the token to pass to Put. Take it before reading the database.
// ok is false when the store cannot be read; skip Put then.
func (c *TableCache) Generation(ctx context.Context) (gen int64, ok bool) {
	err := c.breaker.Do(ctx, breakerKey, func() error {
		var err error
		gen, err = c.generation(ctx)
		return err
	})
	if err != nil {
		c.logFailure("generation", err)
		return 0, false
	}
	return gen, true
}

// Get returns the cached table list.
func (c *TableCache) Get(ctx context.Context) ([]domain.Table, bool) {
	var snap snapshot
	var found bool
	err := c.breaker.Do(ctx, breakerKey, func() error {
		var err error
		snap, err = getJSON[snapshot](ctx, c.store, tablesKey)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		current, err := c.generation(ctx)
		if err != nil {
			return err
		}
		found = snap.Generation == current && snap.Tables != nil
		return nil
	})
	if err != nil {
		c.logFailure("get", err)
		return nil, false
	}
	if !found {
		return nil, false
	}
	return snap.Tables, true
}

// Put stores tables read under gen. A snapshot taken before a later Invalidate is
// written but never served.
func (c *TableCache) Put(ctx context.Context, gen int64, tables []domain.Table) {
	err := c.breaker.Do(ctx, breakerKey, func() error {
		return putJSON(ctx, c.store, tablesKey, snapshot{Generation: gen, Tables: tables}, c.ttl)
	})
	if err != nil {
		c.logFailure("put", err)
	}
}

// Invalidate advances the generation and drops the cached list. Call it after
// every committed mutation.
func (c *TableCache) Invalidate(ctx context.Context) {
	// bypasses the breaker: a stale entry must not survive an open circuit
	if _, err := c.store.Incr(ctx, generationKey); err != nil {
		c.breaker.RecordFailure(breakerKey)
		c.logFailure("invalidate", err)
	}
	if err := c.store.Delete(ctx, tablesKey); err != nil {
		c.breaker.RecordFailure(breakerKey)
		c.logFailure("invalidate", err)
	}
}

// State reports the circuit state of the backing store.
func (c *TableCache) State() guard.CircuitState {
	return c.breaker.State(breakerKey)
}

func (c *TableCache) generation(ctx context.Context) (int64, error) {
	data, err := c.store.Get(ctx, generationKey)
	if errors.Is(err, ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	gen, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", generationKey, err)
	}
	return gen, nil
}

func (c *TableCache) logFailure(op string, err error) {
	if c.logger != nil {
		c.logger.Warn("table cache "+op+" failed", "error", err, "circuit", c.State().String())
	}
}
