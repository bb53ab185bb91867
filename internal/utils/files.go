package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// EnsureDir ensures the provided directory exists.
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0o755)
}

// SafeWriteFile writes data to a temp file and atomically renames it into place.
func SafeWriteFile(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("atomic rename: %w", err)
	}
	return nil
}

// PrettyJSON marshals a value as indented JSON.
func PrettyJSON(v any) ([]byte, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal json: %w", err)
	}
	return b, nil
}

// TempSink is a temporary file that exists only until Release.
type TempSink struct {
	f        *os.File
	path     string
	released bool
}

// NewTempSink creates an empty temp file in dir ("" means os.TempDir()).
func NewTempSink(dir, pattern string) (*TempSink, error) {
	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	return &TempSink{f: f, path: f.Name()}, nil
}

func (s *TempSink) Write(p []byte) (int, error) {
	if s.f == nil {
		return 0, os.ErrClosed
	}
	return s.f.Write(p)
}

func (s *TempSink) Path() string { return s.path }

// Flush syncs and closes the write handle so the file can be reopened by path.
func (s *TempSink) Flush() error {
	if s.f == nil {
		return nil
	}
	f := s.f
	s.f = nil
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Release closes and removes the file. It is safe to call more than once.
func (s *TempSink) Release() error {
	if s.released {
		return nil
	}
	s.released = true
	var errs []error
	if s.f != nil {
		errs = append(errs, s.f.Close())
		s.f = nil
	}
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// WithTempFile streams r into a temp file named like "<prefix>*<ext>", calls
// fn with its path, and removes the file whether fn succeeds, fails or panics.
func WithTempFile(dir, prefix, ext string, r io.Reader, fn func(path string) error) (err error) {
	sink, err := NewTempSink(dir, prefix+"*"+filepath.Ext("x"+ext))
	if err != nil {
		return err
	}
	defer func() {
		if rerr := sink.Release(); rerr != nil && err == nil {
			err = rerr
		}
	}()
	if _, err := io.Copy(sink, r); err != nil {
		return fmt.Errorf("stream to temp file: %w", err)
	}
	if err := sink.Flush(); err != nil {
		return fmt.Errorf("flush temp file: %w", err)
	}
	return fn(sink.Path())
}
