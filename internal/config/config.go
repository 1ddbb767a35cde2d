package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"stepagg/internal/logging"
)

// Config holds all configuration for the application
type Config struct {
	// Project settings
	ProjectPath string `yaml:"-"`
	LogPath     string `yaml:"log_path"`

	// Output settings
	OutputJSONFile string `yaml:"output_json_file"`
	OutputJSONDir  string `yaml:"output_json_dir"`

	// Execution settings
	Processors int    `yaml:"processors"`
	LogLevel   string `yaml:"log_level"`

	// Paths to ignore when scanning
	PathsToIgnore []string `yaml:"paths_to_ignore"`

	Reporter ReporterConfig `yaml:"reporter"`
	Database DatabaseConfig `yaml:"-"`

	// Command flags
	Flags Flags `yaml:"-"`
}

// ReporterConfig carries the test-management identifiers written into payloads
type ReporterConfig struct {
	URL             string `yaml:"url"`
	ProjectID       string `yaml:"project_id"`
	ConfigurationID string `yaml:"configuration_id"`
	Namespace       string `yaml:"namespace"`
}

// DatabaseConfig holds MySQL connection settings sourced from the environment
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

// Flags holds command-line flags
type Flags struct {
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
	LogLevel        string
	ProjectID       string
	ConfigurationID string
}

// New creates a new Config with defaults
func New() *Config {
	cfg := &Config{
		ProjectPath:    DefaultProjectPath,
		LogPath:        DefaultLogPath,
		OutputJSONFile: DefaultOutputJSONFile,
		OutputJSONDir:  DefaultOutputJSONDir,
		Processors:     DefaultProcessors,
		LogLevel:       DefaultLogLevel,
		Reporter:       ReporterConfig{Namespace: DefaultNamespace},
		Database: DatabaseConfig{
			Host: DefaultDBHost,
			Port: DefaultDBPort,
			User: DefaultDBUser,
			Name: DefaultDBName,
		},
	}
	// Copy default paths to ignore
	cfg.PathsToIgnore = make([]string, len(DefaultPathsToIgnore))
	copy(cfg.PathsToIgnore, DefaultPathsToIgnore)
	return cfg
}

// Load reads .stepagg.yml and .env from projectPath when present and merges
// them over the defaults. Missing files are ignored.
func Load(projectPath string) (*Config, error) {
	cfg := New()
	cfg.ProjectPath = projectPath

	path := filepath.Join(projectPath, FileName)
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		var fileCfg Config
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return cfg, fmt.Errorf("parse config %q: %w", path, err)
		}
		cfg.merge(fileCfg)
	case errors.Is(err, os.ErrNotExist):
	default:
		return cfg, fmt.Errorf("read config %q: %w", path, err)
	}

	if err := cfg.loadDatabaseEnv(filepath.Join(projectPath, EnvFileName)); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) merge(override Config) {
	if override.LogPath != "" {
		c.LogPath = override.LogPath
	}
	if override.OutputJSONFile != "" {
		c.OutputJSONFile = override.OutputJSONFile
	}
	if override.OutputJSONDir != "" {
		c.OutputJSONDir = override.OutputJSONDir
	}
	if override.Processors > 0 {
		c.Processors = override.Processors
	}
	if override.LogLevel != "" {
		c.LogLevel = override.LogLevel
	}
	if len(override.PathsToIgnore) > 0 {
		c.PathsToIgnore = append([]string{}, override.PathsToIgnore...)
	}
	if override.Reporter.URL != "" {
		c.Reporter.URL = override.Reporter.URL
	}
	if override.Reporter.ProjectID != "" {
		c.Reporter.ProjectID = override.Reporter.ProjectID
	}
	if override.Reporter.ConfigurationID != "" {
		c.Reporter.ConfigurationID = override.Reporter.ConfigurationID
	}
	if override.Reporter.Namespace != "" {
		c.Reporter.Namespace = override.Reporter.Namespace
	}
}

// loadDatabaseEnv fills database settings. Process environment wins over .env,
// which wins over defaults.
func (c *Config) loadDatabaseEnv(envPath string) error {
	fileEnv, err := godotenv.Read(envPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("read env file %q: %w", envPath, err)
		}
		fileEnv = map[string]string{}
	}

	lookup := func(key, fallback string) string {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			return v
		}
		if v := fileEnv[key]; v != "" {
			return v
		}
		return fallback
	}

	c.Database.Host = lookup("DB_HOST", c.Database.Host)
	c.Database.Port = lookup("DB_PORT", c.Database.Port)
	c.Database.User = lookup("DB_USERNAME", c.Database.User)
	c.Database.Password = lookup("DB_PASSWORD", c.Database.Password)
	c.Database.Name = lookup("DB_DATABASE", c.Database.Name)
	return nil
}

// ApplyFlags overrides file settings with explicitly set CLI flags
func (c *Config) ApplyFlags(flags Flags) {
	c.Flags = flags
	if flags.Processors > 0 {
		c.Processors = flags.Processors
	}
	if flags.LogPath != "" {
		c.LogPath = flags.LogPath
	}
	if flags.LogLevel != "" {
		c.LogLevel = flags.LogLevel
	}
	if flags.ProjectID != "" {
		c.Reporter.ProjectID = flags.ProjectID
	}
	if flags.ConfigurationID != "" {
		c.Reporter.ConfigurationID = flags.ConfigurationID
	}
}

// Validate reports every missing or invalid setting in one error
func (c *Config) Validate() error {
	var missing []string
	if c.Reporter.ProjectID == "" {
		missing = append(missing, "project_id")
	}
	if c.Reporter.ConfigurationID == "" {
		missing = append(missing, "configuration_id")
	}
	if c.Reporter.Namespace == "" {
		missing = append(missing, "namespace")
	}
	if len(missing) > 0 {
		return fmt.Errorf("invalid reporter config, following properties are required: %s", strings.Join(missing, ", "))
	}
	if c.Processors <= 0 {
		return fmt.Errorf("processors must be positive, got %d", c.Processors)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// GetLogPath returns the directory scanned for event logs
func (c *Config) GetLogPath() string {
	if filepath.IsAbs(c.LogPath) {
		return c.LogPath
	}
	return filepath.Join(c.ProjectPath, c.LogPath)
}

// GetOutputPath returns the full path to the output JSON file.
// Resolves to an absolute path so replay and show always use the same file regardless of cwd.
func (c *Config) GetOutputPath() string {
	p := filepath.Join(c.ProjectPath, c.OutputJSONDir, c.OutputJSONFile)
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

// DSN returns the MySQL data source name. Without a database name it connects
// to the server only, which is what schema setup needs.
func (c *Config) DSN(withDatabase bool) string {
	db := ""
	if withDatabase {
		db = c.Database.Name
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true", c.Database.User, c.Database.Password, c.Database.Host, c.Database.Port, db)
}
