package cli

import (
	"time"

	"stepagg/internal/config"
)

// Flags holds command-line flags
type Flags struct {
	ProjectPath     string
	LogLevel        string
	Processors      int
	LogPath         string
	NameFilter      string
	FailFast        bool
	MySQL           bool
	Strict          bool
	OpenViewer      bool
	Definitions     bool
	ShowTests       bool
	ShowSchedule    bool
	Debounce        time.Duration
	ProjectID       string
	ConfigurationID string
}

// ToConfigFlags converts CLI flags to config flags
func (f *Flags) ToConfigFlags() config.Flags {
	return config.Flags{
		Processors:      f.Processors,
		LogPath:         f.LogPath,
		NameFilter:      f.NameFilter,
		FailFast:        f.FailFast,
		MySQL:           f.MySQL,
		Strict:          f.Strict,
		OpenViewer:      f.OpenViewer,
		Definitions:     f.Definitions,
		ShowTests:       f.ShowTests,
		ShowSchedule:    f.ShowSchedule,
		Debounce:        f.Debounce,
		LogLevel:        f.LogLevel,
		ProjectID:       f.ProjectID,
		ConfigurationID: f.ConfigurationID,
	}
}
