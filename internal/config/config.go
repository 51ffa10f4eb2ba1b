package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// Config holds application configuration.
type Config struct {
	// Workspace is the root directory under which all project files and
	// resource directories live. Defaults to baseDir/workspace.
	Workspace string `json:"workspace,omitempty"`

	// AutosaveSeconds is the fixed autosave interval. 0 disables autosave.
	AutosaveSeconds int `json:"autosave_seconds,omitempty"`

	// TemplatePath points at an empty-project template file.
	// Empty means the built-in template is used.
	TemplatePath string `json:"template_path,omitempty"`

	// DBMaxOpenConns limits the maximum number of open catalog connections.
	// If set to 1, all catalog access is serialized (reduces "database is
	// locked" errors). 0 means use sql.DB default.
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle catalog connections.
	// 0 means use sql.DB default. Typically set equal to DBMaxOpenConns.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty"`
}

// DefaultAutosaveSeconds is used when the config file sets no interval.
const DefaultAutosaveSeconds = 60

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		AutosaveSeconds: DefaultAutosaveSeconds,
	}
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist. A missing workspace
// defaults to baseDir/workspace. The baseDir parameter allows tests to use
// t.TempDir() instead of ~/.playscribe.
func Load(baseDir string) (*Config, error) {
	cfg, err := loadFileRaw(filepath.Join(baseDir, "config.json"))
	if err != nil {
		return nil, err
	}
	merged := Merge(DefaultConfig(), cfg)
	if merged.Workspace == "" {
		merged.Workspace = filepath.Join(baseDir, "workspace")
	}
	return merged, nil
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	result.Workspace = overlay.Workspace
	if result.Workspace == "" {
		result.Workspace = base.Workspace
	}

	result.TemplatePath = overlay.TemplatePath
	if result.TemplatePath == "" {
		result.TemplatePath = base.TemplatePath
	}

	result.AutosaveSeconds = overlay.AutosaveSeconds
	if result.AutosaveSeconds == 0 {
		result.AutosaveSeconds = base.AutosaveSeconds
	}

	result.DBMaxOpenConns = overlay.DBMaxOpenConns
	if result.DBMaxOpenConns == 0 {
		result.DBMaxOpenConns = base.DBMaxOpenConns
	}

	result.DBMaxIdleConns = overlay.DBMaxIdleConns
	if result.DBMaxIdleConns == 0 {
		result.DBMaxIdleConns = base.DBMaxIdleConns
	}

	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)

	return result
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range a {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	for _, s := range b {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
