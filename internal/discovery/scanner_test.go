package discovery

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFiles(t *testing.T, root string, files []string) {
	t.Helper()
	for _, file := range files {
		fullPath := filepath.Join(root, file)
		if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
			t.Fatalf("failed to create dir for %s: %v", file, err)
		}
		if err := os.WriteFile(fullPath, []byte("{}"), 0644); err != nil {
			t.Fatalf("failed to create file %s: %v", file, err)
		}
	}
}

func TestScanner_Scan(t *testing.T) {
	tmpDir := t.TempDir()
	writeFiles(t, tmpDir, []string{
		"e2e/cart/checkout.events.jsonl",
		"e2e/auth/login.events.yml",
		"e2e/auth/logout.events.YAML",
		"e2e/auth/notes.yml",
		"node_modules/pkg/fixture.events.jsonl",
		"output/old.events.jsonl",
		".cache/hidden.events.jsonl",
		"events.jsonl",
	})

	scanner := NewScanner([]string{"node_modules", "output"})

	t.Run("finds event logs in order", func(t *testing.T) {
		results, err := scanner.Scan(tmpDir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		expected := []string{
			filepath.Join(tmpDir, "e2e/auth/login.events.yml"),
			filepath.Join(tmpDir, "e2e/auth/logout.events.YAML"),
			filepath.Join(tmpDir, "e2e/cart/checkout.events.jsonl"),
		}
		if len(results) != len(expected) {
			t.Fatalf("expected %d logs, got %d: %v", len(expected), len(results), results)
		}
		for i := range expected {
			if results[i] != expected[i] {
				t.Errorf("result %d: expected %s, got %s", i, expected[i], results[i])
			}
		}
	})

	t.Run("scanning from a hidden root still works", func(t *testing.T) {
		results, err := scanner.Scan(filepath.Join(tmpDir, ".cache"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(results) != 1 {
			t.Errorf("expected 1 log, got %d", len(results))
		}
	})

	t.Run("empty directory reports no logs", func(t *testing.T) {
		_, err := scanner.Scan(t.TempDir())
		if !errors.Is(err, ErrNoLogs) {
			t.Errorf("expected ErrNoLogs, got %v", err)
		}
	})

	t.Run("returns error for non-existent directory", func(t *testing.T) {
		_, err := scanner.Scan("/non/existent/path")
		if err == nil {
			t.Error("expected error for non-existent directory")
		}
	})

	t.Run("returns error for file instead of directory", func(t *testing.T) {
		_, err := scanner.Scan(filepath.Join(tmpDir, "events.jsonl"))
		if err == nil {
			t.Error("expected error for file path")
		}
	})
}

func TestIsEventLog(t *testing.T) {
	tests := map[string]bool{
		"a.events.jsonl": true,
		"a.events.yml":   true,
		"a.events.yaml":  true,
		"a.jsonl":        false,
		"a.events.json":  false,
		"events.jsonl":   false,
	}
	for name, expected := range tests {
		if got := IsEventLog(name); got != expected {
			t.Errorf("IsEventLog(%q) = %v, expected %v", name, got, expected)
		}
	}
}
