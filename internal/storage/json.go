package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"stepagg/internal/domain"
)

// Save writes the replay output to the configured JSON output file.
func (s *JSONStorage) Save(_ context.Context, output *domain.ReplayOutput) error {
	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}

	path := s.cfg.GetOutputPath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	return nil
}

// Load reads the last replay output from the configured JSON output file.
func (s *JSONStorage) Load(_ context.Context) (*domain.ReplayOutput, error) {
	path := s.cfg.GetOutputPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoResults, path)
		}
		return nil, fmt.Errorf("read results file: %w", err)
	}

	var output domain.ReplayOutput
	if err := json.Unmarshal(data, &output); err != nil {
		return nil, fmt.Errorf("parse results: %w", err)
	}
	return &output, nil
}

// RegistryFileName is the registry file kept next to the output file
const RegistryFileName = "autotests.json"

func (s *JSONStorage) registryPath() string {
	return filepath.Join(filepath.Dir(s.cfg.GetOutputPath()), RegistryFileName)
}

// Registered reads the registry file. A missing file is an empty registry.
func (s *JSONStorage) Registered(_ context.Context) (map[string]bool, error) {
	registered := make(map[string]bool)
	data, err := os.ReadFile(s.registryPath())
	if errors.Is(err, os.ErrNotExist) {
		return registered, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read registry: %w", err)
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("parse registry: %w", err)
	}
	for _, id := range ids {
		registered[id] = true
	}
	return registered, nil
}

// Register merges ids into the registry file
func (s *JSONStorage) Register(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	registered, err := s.Registered(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		registered[id] = true
	}

	all := make([]string, 0, len(registered))
	for id := range registered {
		all = append(all, id)
	}
	sort.Strings(all)

	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal registry: %w", err)
	}
	path := s.registryPath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write registry: %w", err)
	}
	return nil
}
