package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNotFound is returned by Load and Delete for a key that has never been saved.
var ErrNotFound = errors.New("not found")

// Storage is the durable key/value area the project and provider keys live in.
// Keys are slash separated relative paths.
type Storage interface {
	Save(ctx context.Context, key string, data []byte) error
	Load(ctx context.Context, key string) ([]byte, error)
	List(ctx context.Context, pattern string) ([]string, error)
	Exists(ctx context.Context, key string) bool
	Delete(ctx context.Context, key string) error
}

type FileSystem struct {
	baseDir string
}

func NewFileSystem(baseDir string) *FileSystem {
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		abs = filepath.Clean(baseDir)
	}
	return &FileSystem{baseDir: abs}
}

func (f *FileSystem) BaseDir() string { return f.baseDir }

// resolve maps a key onto a file below baseDir, refusing anything that would
// escape it.
func (f *FileSystem) resolve(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", errors.New("invalid key: empty")
	}
	cleaned := filepath.Clean(filepath.FromSlash(key))
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("invalid key %q: absolute paths not allowed", key)
	}
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid key %q: parent directory reference", key)
	}
	full := filepath.Join(f.baseDir, cleaned)
	if !strings.HasPrefix(full, f.baseDir+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid key %q: outside base directory", key)
	}
	return full, nil
}

func (f *FileSystem) Save(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full, err := f.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	mode := os.FileMode(0o644)
	if isSecret(key) {
		mode = 0o600
	}

	// write-then-rename so a crash never leaves a half written blob
	tmp, err := os.CreateTemp(filepath.Dir(full), ".tmp-"+filepath.Base(full)+"-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", key, err)
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		return fmt.Errorf("chmod %s: %w", key, err)
	}
	if err := os.Rename(tmpName, full); err != nil {
		return fmt.Errorf("rename %s: %w", key, err)
	}
	return nil
}

func (f *FileSystem) Load(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	full, err := f.resolve(key)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	return b, nil
}

// List returns the keys matching a glob pattern, sorted.
func (f *FileSystem) List(ctx context.Context, pattern string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	full, err := f.resolve(pattern)
	if err != nil {
		return nil, err
	}
	matches, err := filepath.Glob(full)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", pattern, err)
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if !strings.HasPrefix(m, f.baseDir+string(filepath.Separator)) {
			continue
		}
		if strings.HasPrefix(filepath.Base(m), ".tmp-") {
			continue
		}
		rel, err := filepath.Rel(f.baseDir, m)
		if err != nil {
			continue
		}
		out = append(out, filepath.ToSlash(rel))
	}
	sort.Strings(out)
	return out, nil
}

func (f *FileSystem) Exists(ctx context.Context, key string) bool {
	full, err := f.resolve(key)
	if err != nil {
		return false
	}
	_, err = os.Stat(full)
	return err == nil
}

func (f *FileSystem) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full, err := f.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("delete %s: %w", key, ErrNotFound)
		}
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func isSecret(key string) bool {
	k := strings.ToLower(key)
	return strings.HasPrefix(k, "keys/") || strings.Contains(k, ".env")
}
