package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNew_RequiresRoots(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("New() with no roots succeeded, want error")
	}
}

func TestNew_MissingRoot(t *testing.T) {
	if _, err := New(Config{Roots: []string{filepath.Join(t.TempDir(), "missing")}}); err == nil {
		t.Error("New() with missing root succeeded, want error")
	}
}

func TestRun_DebouncesMatchingChanges(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "com", "example")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}

	w, err := New(Config{
		Roots:    []string{dir},
		Match:    func(p string) bool { return strings.HasSuffix(p, ".json") },
		Debounce: 50 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	runs := make(chan []string, 4)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(_ context.Context, changed []string) error {
			runs <- changed
			return nil
		})
	}()

	write := func(name string) {
		if err := os.WriteFile(filepath.Join(sub, name), []byte("{}"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("notes.txt")
	write("a.json")
	write("b.json")

	select {
	case changed := <-runs:
		for _, p := range changed {
			if !strings.HasSuffix(p, ".json") {
				t.Errorf("changed includes unmatched file %s", p)
			}
		}
		if len(changed) == 0 {
			t.Error("action called with no changes")
		}
	case <-ctx.Done():
		t.Fatal("action not called before timeout")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run() error = %v", err)
	}
}
