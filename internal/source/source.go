// Package source reads SQL dump text from a file or an inline statement.
//
// Files ending in .gz (or starting with the gzip magic) are decompressed with
// pgzip. Files ending in .xz are piped through the external xz binary, the
// same way the CSV loader used to handle compressed exports.
package source

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/klauspost/pgzip"
)

// ErrNoInput is returned when neither a path nor a statement was given.
var ErrNoInput = errors.New("no input: pass a dump file or --sql")

var (
	gzipMagic = []byte{0x1f, 0x8b}
	xzMagic   = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}
)

// Input names where the dump comes from. SQL wins over Path when both are set.
type Input struct {
	Path string
	SQL  string
}

// Name returns a short label for logs and reports.
func (in Input) Name() string {
	switch {
	case in.SQL != "":
		return "--sql"
	case in.Path != "":
		return filepath.Base(in.Path)
	default:
		return "<none>"
	}
}

// Read returns the full dump text.
func (in Input) Read(ctx context.Context) (string, error) {
	if in.SQL != "" {
		return in.SQL, nil
	}
	if in.Path == "" {
		return "", ErrNoInput
	}
	return ReadFile(ctx, in.Path)
}

// ReadFile reads path, decompressing it when needed.
func ReadFile(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	head, _ := br.Peek(len(xzMagic))

	switch {
	case strings.HasSuffix(path, ".xz") || bytes.HasPrefix(head, xzMagic):
		return readXZ(ctx, path)
	case strings.HasSuffix(path, ".gz") || bytes.HasPrefix(head, gzipMagic):
		zr, err := pgzip.NewReader(br)
		if err != nil {
			return "", fmt.Errorf("open gzip %s: %w", path, err)
		}
		defer zr.Close()
		return readAll(ctx, zr, path)
	default:
		return readAll(ctx, br, path)
	}
}

func readAll(ctx context.Context, r io.Reader, path string) (string, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, &ctxReader{ctx: ctx, r: r}); err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return buf.String(), nil
}

func readXZ(ctx context.Context, path string) (string, error) {
	if _, err := exec.LookPath("xz"); err != nil {
		return "", fmt.Errorf("xz not found, install xz-utils (Linux) or xz (macOS via Homebrew) to read %s: %w", path, err)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "xz", "-d", "-c", path)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("xz decompression of %s failed: %s: %w", path, msg, err)
		}
		return "", fmt.Errorf("xz decompression of %s failed: %w", path, err)
	}
	return stdout.String(), nil
}

// ctxReader stops a long read once ctx is cancelled.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
