package clarity

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// TempSpace materialises uploads on disk for the duration of one adapter call.
type TempSpace struct {
	// Dir is the parent for per-call directories; "" uses os.TempDir.
	Dir string
	// Grace delays removal so provider libraries can release file handles.
	Grace  time.Duration
	Logger *zap.Logger
}

// Do writes r to a sanitized filename inside a fresh directory, calls fn with
// the file path and removes the directory afterwards. Removal failures are
// logged and never replace fn's result.
func (t TempSpace) Do(ctx context.Context, r io.Reader, filename string, fn func(path string) error) error {
	dir, err := os.MkdirTemp(t.Dir, "clarity-upload-")
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	defer t.cleanup(ctx, dir)

	path := filepath.Join(dir, SanitizeFilename(filename))
	if err := writeFile(path, r); err != nil {
		return err
	}
	return fn(path)
}

func (t TempSpace) cleanup(ctx context.Context, dir string) {
	if t.Grace > 0 {
		timer := time.NewTimer(t.Grace)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
		}
	}
	if err := os.RemoveAll(dir); err != nil && t.Logger != nil {
		t.Logger.Warn("temp dir cleanup failed", zap.String("dir", dir), zap.Error(err))
	}
}

func writeFile(path string, r io.Reader) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	return f.Close()
}

// SanitizeFilename reduces a client supplied filename to a safe base name made
// of ASCII letters, digits, '.', '-' and '_'.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = name[strings.LastIndex(name, "/")+1:]

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ' || r == '\t':
			b.WriteRune('_')
		}
	}
	s := b.String()
	out := strings.TrimLeft(s, "._")
	if out == "" || (!strings.Contains(out, ".") && strings.Contains(s, ".")) {
		// keep the extension so MIME detection still works
		if ext := filepath.Ext(s); len(ext) > 1 {
			return "upload" + ext
		}
		return "upload"
	}
	return out
}
