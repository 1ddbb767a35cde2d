package storage

import (
	"context"
	"errors"

	"stepagg/internal/config"
	"stepagg/internal/domain"
)

// ErrNoResults is returned by Load when nothing has been stored yet
var ErrNoResults = errors.New("no stored replay results")

// Storage persists and loads replay outputs (used by show and view) and the
// autotest registry that outlives single replays.
type Storage interface {
	Save(ctx context.Context, output *domain.ReplayOutput) error
	Load(ctx context.Context) (*domain.ReplayOutput, error)

	// Registered returns the external ids of every autotest registered so far
	Registered(ctx context.Context) (map[string]bool, error)
	// Register adds external ids to the registry. Known ids are ignored.
	Register(ctx context.Context, ids []string) error
}

// RegisteredIDs returns the external ids of the autotests an output registers
func RegisteredIDs(output *domain.ReplayOutput) []string {
	var ids []string
	for _, report := range output.Reports {
		if report.Autotest != nil {
			ids = append(ids, report.Autotest.ExternalID)
		}
	}
	return ids
}

var (
	_ Storage = (*JSONStorage)(nil)
	_ Storage = (*MySQLStorage)(nil)
)

// JSONStorage stores results in a JSON file under the configured output path.
type JSONStorage struct {
	cfg *config.Config
}

// NewJSONStorage returns a Storage that reads/writes the config's output JSON path.
func NewJSONStorage(cfg *config.Config) *JSONStorage {
	return &JSONStorage{cfg: cfg}
}

// Open picks the MySQL store when requested by flag, the JSON file otherwise.
// The returned close function is never nil.
func Open(ctx context.Context, cfg *config.Config) (Storage, func() error, error) {
	if !cfg.Flags.MySQL {
		return NewJSONStorage(cfg), func() error { return nil }, nil
	}
	st, err := OpenMySQL(ctx, cfg.DSN(true))
	if err != nil {
		return nil, func() error { return nil }, err
	}
	return st, st.Close, nil
}
