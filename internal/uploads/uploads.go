// Package uploads stores verification photos on the local filesystem.
package uploads

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrTooLarge is returned when an upload exceeds the configured limit.
var ErrTooLarge = errors.New("upload too large")

// Store writes files under Dir/kyc.
type Store struct {
	Dir      string
	MaxBytes int64
	now      func() time.Time
}

func New(dir string, maxBytes int64) *Store {
	return &Store{Dir: dir, MaxBytes: maxBytes, now: time.Now}
}

// SetClock replaces the time source. Used by tests.
func (s *Store) SetClock(now func() time.Time) { s.now = now }

// SaveKYC copies r to <Dir>/kyc/<contractor>_<kind>_<unix micros>.jpg and
// returns the stored path with forward slashes.
func (s *Store) SaveKYC(contractorID, kind string, r io.Reader) (string, error) {
	dir := filepath.Join(s.Dir, "kyc")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	f, path, err := create(dir, sanitize(contractorID)+"_"+sanitize(kind), s.now().UnixMicro())
	if err != nil {
		return "", err
	}
	src := r
	if s.MaxBytes > 0 {
		src = io.LimitReader(r, s.MaxBytes+1)
	}
	n, err := io.Copy(f, src)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && s.MaxBytes > 0 && n > s.MaxBytes {
		err = fmt.Errorf("%s photo: %w", kind, ErrTooLarge)
	}
	if err != nil {
		os.Remove(path)
		return "", err
	}
	return filepath.ToSlash(path), nil
}

// create opens a new file named <prefix>_<ts>.jpg, moving ts forward while
// the name is taken.
func create(dir, prefix string, ts int64) (*os.File, string, error) {
	for i := 0; ; i++ {
		path := filepath.Join(dir, fmt.Sprintf("%s_%d.jpg", prefix, ts+int64(i)))
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) && i < 100 {
			continue
		}
		return f, path, err
	}
}

// Remove deletes stored files, ignoring ones already gone.
func (s *Store) Remove(paths ...string) {
	for _, p := range paths {
		if p != "" {
			_ = os.Remove(filepath.FromSlash(p))
		}
	}
}

// sanitize keeps ids from escaping the upload directory.
func sanitize(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, s)
	if s == "" {
		return "unknown"
	}
	return s
}
