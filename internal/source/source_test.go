package source

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/klauspost/pgzip"
)

const dump = "INSERT INTO a (id) VALUES (1);\nINSERT INTO b (id) VALUES ('x;y');\n"

func TestInputRead(t *testing.T) {
	ctx := context.Background()

	t.Run("InlineSQL", func(t *testing.T) {
		got, err := Input{SQL: "INSERT INTO a (id) VALUES (1)", Path: "ignored.sql"}.Read(ctx)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if got != "INSERT INTO a (id) VALUES (1)" {
			t.Errorf("Unexpected text %q", got)
		}
	})

	t.Run("NoInput", func(t *testing.T) {
		_, err := Input{}.Read(ctx)
		if !errors.Is(err, ErrNoInput) {
			t.Errorf("Expected ErrNoInput, got %v", err)
		}
	})

	t.Run("MissingFile", func(t *testing.T) {
		_, err := Input{Path: filepath.Join(t.TempDir(), "missing.sql")}.Read(ctx)
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("Expected os.ErrNotExist, got %v", err)
		}
	})
}

func TestReadFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	t.Run("Plain", func(t *testing.T) {
		path := filepath.Join(dir, "dump.sql")
		if err := os.WriteFile(path, []byte(dump), 0o644); err != nil {
			t.Fatal(err)
		}
		got, err := ReadFile(ctx, path)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if got != dump {
			t.Errorf("Expected %q, got %q", dump, got)
		}
	})

	t.Run("Gzip", func(t *testing.T) {
		path := filepath.Join(dir, "dump.sql.gz")
		writeGzip(t, path)
		got, err := ReadFile(ctx, path)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if got != dump {
			t.Errorf("Expected %q, got %q", dump, got)
		}
	})

	t.Run("GzipWithoutExtension", func(t *testing.T) {
		path := filepath.Join(dir, "dump.bin")
		writeGzip(t, path)
		got, err := ReadFile(ctx, path)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if got != dump {
			t.Errorf("Expected %q, got %q", dump, got)
		}
	})

	t.Run("XZ", func(t *testing.T) {
		if _, err := exec.LookPath("xz"); err != nil {
			t.Skip("xz not installed")
		}
		plain := filepath.Join(dir, "xz.sql")
		if err := os.WriteFile(plain, []byte(dump), 0o644); err != nil {
			t.Fatal(err)
		}
		if out, err := exec.Command("xz", "-z", "-k", plain).CombinedOutput(); err != nil {
			t.Fatalf("xz -z failed: %v: %s", err, out)
		}
		got, err := ReadFile(ctx, plain+".xz")
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if got != dump {
			t.Errorf("Expected %q, got %q", dump, got)
		}
	})

	t.Run("Cancelled", func(t *testing.T) {
		path := filepath.Join(dir, "cancel.sql")
		if err := os.WriteFile(path, []byte(dump), 0o644); err != nil {
			t.Fatal(err)
		}
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		if _, err := ReadFile(cctx, path); !errors.Is(err, context.Canceled) {
			t.Errorf("Expected context.Canceled, got %v", err)
		}
	})
}

func TestInputName(t *testing.T) {
	if got := (Input{Path: "/tmp/x/dump.sql"}).Name(); got != "dump.sql" {
		t.Errorf("Expected 'dump.sql', got '%s'", got)
	}
	if got := (Input{SQL: "INSERT"}).Name(); got != "--sql" {
		t.Errorf("Expected '--sql', got '%s'", got)
	}
}

func writeGzip(t *testing.T, path string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	zw := pgzip.NewWriter(f)
	if _, err := zw.Write([]byte(dump)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
}
