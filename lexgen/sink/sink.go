// Package sink provides output destinations for rendered units.
package sink

import (
	"context"
	"errors"
	"fmt"
	iofs "io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/afero"
)

// OutputSink receives rendered file content.
// Implementations must be safe for concurrent calls.
type OutputSink interface {
	// WriteFile writes content to the specified path.
	// The path is relative and slash-separated; the sink determines the actual location.
	WriteFile(ctx context.Context, path string, content []byte) error
}

// FilesystemSink writes below a root directory of an afero filesystem.
type FilesystemSink struct {
	// Fs is the target filesystem (default: the OS filesystem).
	Fs afero.Fs

	// Root is the base directory for all writes.
	Root string

	// Mode is the file permission mode (default: 0644).
	Mode os.FileMode

	// Overwrite controls behavior for existing files.
	// If false, returns an error when a file exists, including one created
	// by a concurrent WriteFile for the same path.
	Overwrite bool
}

// NewFilesystemSink creates a FilesystemSink writing to root on the OS filesystem.
func NewFilesystemSink(root string) *FilesystemSink {
	return NewFsSink(afero.NewOsFs(), root)
}

// NewFsSink creates a FilesystemSink writing to root on fs.
func NewFsSink(fs afero.Fs, root string) *FilesystemSink {
	return &FilesystemSink{
		Fs:        fs,
		Root:      root,
		Mode:      0644,
		Overwrite: true,
	}
}

// WriteFile writes content to p within the root directory.
// It creates parent directories as needed and writes through a temp file
// that is renamed into place.
func (s *FilesystemSink) WriteFile(ctx context.Context, p string, content []byte) error {
	if err := ValidatePath(p); err != nil {
		return fmt.Errorf("invalid path %q: %w", p, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	fs := s.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	fullPath := filepath.Join(s.Root, filepath.FromSlash(p))
	rel, err := filepath.Rel(s.Root, fullPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("path escapes root directory: %q", p)
	}

	dir := filepath.Dir(fullPath)
	if err := fs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}

	// Without Overwrite the name is claimed with O_EXCL before the temp
	// file is written, so concurrent writers cannot both succeed.
	claimed := false
	if !s.Overwrite {
		f, err := fs.OpenFile(fullPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
		if errors.Is(err, iofs.ErrExist) {
			return fmt.Errorf("file already exists: %q", p)
		}
		if err != nil {
			return fmt.Errorf("failed to create %q: %w", p, err)
		}
		if err := f.Close(); err != nil {
			_ = fs.Remove(fullPath)
			return fmt.Errorf("failed to create %q: %w", p, err)
		}
		claimed = true
	}

	mode := s.Mode
	if mode == 0 {
		mode = 0644
	}

	tempFile, err := afero.TempFile(fs, dir, ".lexgen-*.tmp")
	if err != nil {
		if claimed {
			_ = fs.Remove(fullPath)
		}
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := tempFile.Name()
	_, writeErr := tempFile.Write(content)
	closeErr := tempFile.Close()

	// Leftover temp files carry the .lexgen-*.tmp prefix.
	cleanup := func() {
		_ = fs.Remove(tempPath)
		if claimed {
			_ = fs.Remove(fullPath)
		}
	}

	if writeErr != nil {
		cleanup()
		return fmt.Errorf("failed to write temp file: %w", writeErr)
	}
	if closeErr != nil {
		cleanup()
		return fmt.Errorf("failed to close temp file: %w", closeErr)
	}
	if err := fs.Chmod(tempPath, mode); err != nil {
		cleanup()
		return fmt.Errorf("failed to set file mode: %w", err)
	}
	if err := ctx.Err(); err != nil {
		cleanup()
		return err
	}
	if err := fs.Rename(tempPath, fullPath); err != nil {
		cleanup()
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// MemorySink stores rendered files in memory.
// All operations are thread-safe.
type MemorySink struct {
	mu    sync.RWMutex
	files map[string][]byte
}

// NewMemorySink creates a new MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{
		files: make(map[string][]byte),
	}
}

// WriteFile writes content to the in-memory store.
func (s *MemorySink) WriteFile(ctx context.Context, p string, content []byte) error {
	if err := ValidatePath(p); err != nil {
		return fmt.Errorf("invalid path %q: %w", p, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[p] = append([]byte(nil), content...)
	return nil
}

// Files returns a copy of all written files.
func (s *MemorySink) Files() map[string][]byte {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string][]byte, len(s.files))
	for p, content := range s.files {
		result[p] = append([]byte(nil), content...)
	}
	return result
}

// Paths returns the written paths, sorted.
func (s *MemorySink) Paths() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	paths := make([]string, 0, len(s.files))
	for p := range s.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Get returns the content of a single file, or nil if not found.
func (s *MemorySink) Get(p string) []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()

	content, ok := s.files[p]
	if !ok {
		return nil
	}
	return append([]byte(nil), content...)
}

// Reset clears all stored files.
func (s *MemorySink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files = make(map[string][]byte)
}

// ValidatePath checks if a path is valid for output.
// Paths must be relative, use / as separator, contain no .. components,
// and be clean.
func ValidatePath(p string) error {
	if p == "" {
		return errors.New("path is empty")
	}
	if strings.HasPrefix(p, "/") || filepath.IsAbs(p) {
		return errors.New("absolute paths not allowed")
	}
	// Windows drive letters, even on Unix
	if len(p) >= 2 && p[1] == ':' && ((p[0] >= 'A' && p[0] <= 'Z') || (p[0] >= 'a' && p[0] <= 'z')) {
		return errors.New("absolute paths not allowed")
	}
	if strings.Contains(p, "\\") {
		return errors.New("path must use / as separator")
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return errors.New("path traversal not allowed")
		}
	}
	if cleaned := path.Clean(p); cleaned != p {
		return fmt.Errorf("path is not clean (expected %q, got %q)", cleaned, p)
	}
	return nil
}
