package recordstore

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Backend persists whole tables. Implementations need not be safe for
// concurrent mutation of the same table; Table provides that guarantee.
type Backend interface {
	// Initialize creates the table with the schema header if it does not
	// exist. An existing table is left untouched, whatever its header.
	Initialize(ctx context.Context, s Schema) error
	// Load returns every record in stored order. A missing table or a table
	// holding only a header yields an empty slice.
	Load(ctx context.Context, s Schema) ([]Record, error)
	// Save replaces the table content with the header and the given records.
	Save(ctx context.Context, s Schema, records []Record) error
}

// Table is the durable, keyed view of one schema on a backend.
//
// All mutations go through a per-table mutex, so ReadAll -> mutate ->
// WriteAll done via Update is a single critical section. Readers use the last
// committed snapshot and only take the lock for the very first load.
type Table struct {
	schema  Schema
	backend Backend
	logger  *slog.Logger

	mu   sync.Mutex
	snap atomic.Pointer[[]Record]
}

// NewTable validates the schema and binds it to a backend.
func NewTable(s Schema, b Backend, logger *slog.Logger) (*Table, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if b == nil {
		return nil, fmt.Errorf("table %s: nil backend", s.Name)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Table{schema: s, backend: b, logger: logger.With(slog.String("table", s.Name))}, nil
}

// Schema returns the table schema.
func (t *Table) Schema() Schema { return t.schema }

// Name returns the schema name.
func (t *Table) Name() string { return t.schema.Name }

// Initialize makes sure the backing table exists.
func (t *Table) Initialize(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.backend.Initialize(ctx, t.schema); err != nil {
		return fmt.Errorf("initialize %s: %w", t.schema.Name, err)
	}
	return nil
}

// ReadAll returns a copy of every record in store order.
func (t *Table) ReadAll(ctx context.Context) ([]Record, error) {
	if p := t.snap.Load(); p != nil {
		return cloneAll(*p), nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	records, err := t.current(ctx)
	if err != nil {
		return nil, err
	}
	return cloneAll(records), nil
}

// WriteAll replaces the whole table with records, in the given order.
func (t *Table) WriteAll(ctx context.Context, records []Record) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.commit(ctx, cloneAll(records))
}

// Lookup returns the first record whose key fields equal key.
func (t *Table) Lookup(ctx context.Context, key ...string) (Record, bool, error) {
	records, err := t.snapshot(ctx)
	if err != nil {
		return nil, false, err
	}
	for _, r := range records {
		if t.schema.Matches(r, key) {
			return r.Clone(), true, nil
		}
	}
	return nil, false, nil
}

// Update runs fn on a private copy of the table and commits what it returns.
// No other mutation of this table runs between the read and the write. If fn
// fails nothing is written and its error is returned as is.
func (t *Table) Update(ctx context.Context, fn func(records []Record) ([]Record, error)) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	records, err := t.current(ctx)
	if err != nil {
		return err
	}
	next, err := fn(cloneAll(records))
	if err != nil {
		return err
	}
	return t.commit(ctx, next)
}

// snapshot returns the shared committed slice; callers must not modify it.
func (t *Table) snapshot(ctx context.Context) ([]Record, error) {
	if p := t.snap.Load(); p != nil {
		return *p, nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current(ctx)
}

// current must be called with mu held.
func (t *Table) current(ctx context.Context) ([]Record, error) {
	if p := t.snap.Load(); p != nil {
		return *p, nil
	}
	records, err := t.backend.Load(ctx, t.schema)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", t.schema.Name, err)
	}
	for _, r := range records {
		t.schema.Normalize(r)
	}
	t.snap.Store(&records)
	t.logger.Debug("table loaded", slog.Int("records", len(records)))
	return records, nil
}

// commit must be called with mu held.
func (t *Table) commit(ctx context.Context, records []Record) error {
	if records == nil {
		records = []Record{}
	}
	for _, r := range records {
		t.schema.Normalize(r)
	}
	if err := t.backend.Save(ctx, t.schema, records); err != nil {
		return fmt.Errorf("save %s: %w", t.schema.Name, err)
	}
	t.snap.Store(&records)
	return nil
}
