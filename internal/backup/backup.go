// Package backup copies record-store tables to and from CSV snapshots.
// Snapshots go through the tables themselves, so they are consistent per
// table and work for every storage backend.
package backup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/garnizeh/jobboard/internal/recordstore"
)

const layout = "20060102T150405.000000000Z"

// Service writes snapshots under Dir, one sub-directory per snapshot.
type Service struct {
	Dir    string
	tables []*recordstore.Table
	logger *slog.Logger
	now    func() time.Time
}

func New(dir string, tables []*recordstore.Table, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{Dir: dir, tables: tables, logger: logger, now: time.Now}
}

// SetClock replaces the time source. Used by tests.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// Snapshot writes every table to a new snapshot directory and returns its
// name.
func (s *Service) Snapshot(ctx context.Context) (string, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", err
	}
	name := s.now().UTC().Format(layout)
	dir := filepath.Join(s.Dir, name)
	if err := os.Mkdir(dir, 0o755); err != nil {
		return "", fmt.Errorf("create snapshot %s: %w", name, err)
	}

	out := recordstore.NewCSVBackend(dir, recordstore.RejectMalformed, s.logger)
	for _, t := range s.tables {
		recs, err := t.ReadAll(ctx)
		if err == nil {
			err = out.Save(ctx, t.Schema(), recs)
		}
		if err != nil {
			os.RemoveAll(dir)
			return "", fmt.Errorf("snapshot %s: %w", t.Name(), err)
		}
	}
	s.logger.Info("snapshot written", slog.String("snapshot", name), slog.Int("tables", len(s.tables)))
	return name, nil
}

// Restore replaces every table with the content of the named snapshot. All
// snapshot files are read and checked before any table is written.
func (s *Service) Restore(ctx context.Context, name string) error {
	dir := filepath.Join(s.Dir, filepath.Base(name))
	in := recordstore.NewCSVBackend(dir, recordstore.RejectMalformed, s.logger)

	loaded := make([][]recordstore.Record, len(s.tables))
	for i, t := range s.tables {
		if _, err := os.Stat(in.Path(t.Schema())); err != nil {
			return fmt.Errorf("snapshot %s: table %s: %w", name, t.Name(), err)
		}
		recs, err := in.Load(ctx, t.Schema())
		if err != nil {
			return fmt.Errorf("snapshot %s: %w", name, err)
		}
		loaded[i] = recs
	}
	for i, t := range s.tables {
		if err := t.WriteAll(ctx, loaded[i]); err != nil {
			return fmt.Errorf("restore %s: %w", t.Name(), err)
		}
	}
	s.logger.Info("snapshot restored", slog.String("snapshot", name))
	return nil
}

// List returns snapshot names, oldest first.
func (s *Service) List() ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := time.Parse(layout, e.Name()); err == nil {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Prune removes all but the newest keep snapshots. keep <= 0 keeps all.
func (s *Service) Prune(keep int) error {
	if keep <= 0 {
		return nil
	}
	names, err := s.List()
	if err != nil {
		return err
	}
	for len(names) > keep {
		if err := os.RemoveAll(filepath.Join(s.Dir, names[0])); err != nil {
			return err
		}
		s.logger.Debug("snapshot pruned", slog.String("snapshot", names[0]))
		names = names[1:]
	}
	return nil
}
