package recordstore

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// CSVBackend stores each schema as <Dir>/<schema name>.csv with a header row.
type CSVBackend struct {
	Dir       string
	Malformed MalformedPolicy
	Logger    *slog.Logger
}

// NewCSVBackend returns a backend rooted at dir.
func NewCSVBackend(dir string, policy MalformedPolicy, logger *slog.Logger) *CSVBackend {
	if logger == nil {
		logger = slog.Default()
	}
	if policy == "" {
		policy = RejectMalformed
	}
	return &CSVBackend{Dir: dir, Malformed: policy, Logger: logger}
}

var _ Backend = (*CSVBackend)(nil)

// Path returns the file backing schema s.
func (b *CSVBackend) Path(s Schema) string {
	return filepath.Join(b.Dir, s.Name+".csv")
}

func (b *CSVBackend) Initialize(ctx context.Context, s Schema) error {
	path := b.Path(s)
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return b.Save(ctx, s, nil)
}

func (b *CSVBackend) Load(ctx context.Context, s Schema) ([]Record, error) {
	f, err := os.Open(b.Path(s))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []Record{}, nil
		}
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(bufio.NewReader(f))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return []Record{}, nil
	}
	if err != nil {
		return nil, b.parseError(s, err)
	}

	records := []Record{}
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			merr := b.parseError(s, err)
			var pe *csv.ParseError
			if b.Malformed == SkipMalformed && errors.As(err, &pe) {
				b.Logger.Warn("skipping malformed record", slog.String("table", s.Name), slog.Any("err", merr))
				continue
			}
			return nil, merr
		}
		if len(row) != len(header) {
			line, _ := r.FieldPos(0)
			merr := &MalformedRecordError{Table: s.Name, Line: line, Want: len(header), Got: len(row)}
			if b.Malformed == SkipMalformed {
				b.Logger.Warn("skipping malformed record", slog.String("table", s.Name), slog.Any("err", merr))
				continue
			}
			return nil, merr
		}

		rec := make(Record, len(header))
		for i, col := range header {
			rec[col] = row[i]
		}
		records = append(records, rec)
	}
	return records, nil
}

// Save writes to a temporary file next to the target and renames it into
// place, so readers of the file never observe a partially written table.
func (b *CSVBackend) Save(ctx context.Context, s Schema, records []Record) error {
	if err := os.MkdirAll(b.Dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(b.Dir, "."+s.Name+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		if tmpName != "" {
			os.Remove(tmpName)
		}
	}()

	bw := bufio.NewWriter(tmp)
	w := csv.NewWriter(bw)
	if err := w.Write(s.Fields); err != nil {
		tmp.Close()
		return err
	}
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			tmp.Close()
			return err
		}
		if err := w.Write(s.Row(rec)); err != nil {
			tmp.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, b.Path(s)); err != nil {
		return err
	}
	tmpName = ""
	return nil
}

func (b *CSVBackend) parseError(s Schema, err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &MalformedRecordError{Table: s.Name, Line: pe.Line, Detail: pe.Err.Error()}
	}
	return fmt.Errorf("read %s: %w", b.Path(s), err)
}
