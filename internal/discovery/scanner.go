package discovery

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNoLogs is returned when a scan finds no event logs
var ErrNoLogs = errors.New("no event logs found")

// LogSuffixes are the file name endings recognized as event logs
var LogSuffixes = []string{".events.jsonl", ".events.yml", ".events.yaml"}

// Scanner finds event logs under a directory
type Scanner struct {
	skipDirs map[string]bool
}

// NewScanner creates a new Scanner with the given directories to skip
func NewScanner(skipDirs []string) *Scanner {
	skipMap := make(map[string]bool, len(skipDirs))
	for _, dir := range skipDirs {
		skipMap[dir] = true
	}
	return &Scanner{skipDirs: skipMap}
}

// Scan returns the event logs under root in lexical order
func (s *Scanner) Scan(root string) ([]string, error) {
	root = filepath.Clean(root)
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("log path does not exist: %s", root)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("log path is not a directory: %s", root)
	}

	var logs []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if path == root {
				return nil
			}
			name := d.Name()
			if strings.HasPrefix(name, ".") || s.skipDirs[name] {
				return filepath.SkipDir
			}
			return nil
		}

		if IsEventLog(d.Name()) {
			logs = append(logs, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}
	if len(logs) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoLogs, root)
	}

	sort.Strings(logs)
	return logs, nil
}

// IsEventLog reports whether name has an event log suffix
func IsEventLog(name string) bool {
	lower := strings.ToLower(name)
	for _, suffix := range LogSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}
