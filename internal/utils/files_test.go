package utils_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KaramelBytes/aistudio/internal/utils"
)

func TestWithTempFile_RemovedOnSuccessAndFailure(t *testing.T) {
	dir := t.TempDir()
	var seen string
	err := utils.WithTempFile(dir, "upload-", ".csv", strings.NewReader("a,b\n1,2\n"), func(path string) error {
		seen = path
		if filepath.Ext(path) != ".csv" {
			t.Fatalf("extension not kept: %s", path)
		}
		b, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if string(b) != "a,b\n1,2\n" {
			t.Fatalf("content: %q", b)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected: %v", err)
	}
	if _, err := os.Stat(seen); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("temp file survived success: %v", err)
	}

	boom := errors.New("boom")
	err = utils.WithTempFile(dir, "upload-", ".json", strings.NewReader("{}"), func(path string) error {
		seen = path
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("want boom, got %v", err)
	}
	if _, err := os.Stat(seen); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("temp file survived failure: %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("dir not empty: %v", entries)
	}
}

func TestWithTempFile_RemovedOnPanic(t *testing.T) {
	dir := t.TempDir()
	func() {
		defer func() { _ = recover() }()
		_ = utils.WithTempFile(dir, "p-", "", strings.NewReader("x"), func(string) error {
			panic("handler blew up")
		})
	}()
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("temp file survived panic: %v", entries)
	}
}

func TestTempSink_ReleaseIdempotent(t *testing.T) {
	s, err := utils.NewTempSink(t.TempDir(), "sink-*")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Write([]byte("hi")); err != nil {
		t.Fatal(err)
	}
	if err := s.Release(); err != nil {
		t.Fatal(err)
	}
	if err := s.Release(); err != nil {
		t.Fatalf("second release: %v", err)
	}
	if _, err := s.Write([]byte("x")); err == nil {
		t.Fatalf("write after release should fail")
	}
}

func TestSafeWriteFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "out.txt")
	if err := utils.SafeWriteFile(p, []byte("v1")); err != nil {
		t.Fatal(err)
	}
	if err := utils.SafeWriteFile(p, []byte("v2")); err != nil {
		t.Fatal(err)
	}
	b, _ := os.ReadFile(p)
	if string(b) != "v2" {
		t.Fatalf("got %q", b)
	}
	if _, err := os.Stat(p + ".tmp"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("tmp left behind")
	}
}
