package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tailscale/hujson"
)

// Config holds all configuration options.
type Config struct {
	// From config files (serialized)
	BaseDir   string   `json:"base_dir"`
	IndexPath string   `json:"index_path,omitempty"`
	CachePath string   `json:"cache_path,omitempty"`
	SortTags  []string `json:"sort_tags,omitempty"`
	UsedTag   string   `json:"used_tag,omitempty"`
	UsagePath string   `json:"usage_path,omitempty"`
	Separator string   `json:"separator,omitempty"`
	Extension string   `json:"extension,omitempty"`
	LogFile   string   `json:"log_file,omitempty"`
	LogLevel  string   `json:"log_level,omitempty"`
	Editor    string   `json:"editor,omitempty"`

	// Resolved paths (computed, not serialized)
	EffectiveCwd string `json:"-"`
	BaseDirAbs   string `json:"-"`
	IndexPathAbs string `json:"-"`
	CachePathAbs string `json:"-"`
	UsagePathAbs string `json:"-"`
	LogFileAbs   string `json:"-"`

	// Sources tracks which config files were loaded (for diagnostics)
	Sources ConfigSources `json:"-"`
}

// ConfigSources tracks which config files were loaded.
type ConfigSources struct {
	Global  string // Path to global config if loaded, empty otherwise
	Project string // Path to project config if loaded, empty otherwise
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		BaseDir:   ".",
		IndexPath: filepath.Join(".probcat", "index"),
		CachePath: filepath.Join(".probcat", "cache"),
		SortTags:  []string{"alg", "nt", "combo", "geo"},
		UsedTag:   "waltz",
		Separator: "---",
		Extension: ".tex",
		LogLevel:  "warn",
	}
}

// ConfigFileName is the default project config file name.
const ConfigFileName = ".probcat.json"

// getGlobalConfigPath returns $XDG_CONFIG_HOME/probcat/config.json, falling
// back to ~/.config/probcat/config.json. Empty if neither can be determined.
func getGlobalConfigPath(env map[string]string) string {
	if xdgConfig := env["XDG_CONFIG_HOME"]; xdgConfig != "" {
		return filepath.Join(xdgConfig, "probcat", "config.json")
	}

	if home := env["HOME"]; home != "" {
		return filepath.Join(home, ".config", "probcat", "config.json")
	}

	return ""
}

// LoadConfigInput holds the inputs for LoadConfig.
type LoadConfigInput struct {
	WorkDirOverride string            // -C/--cwd flag value; if empty, os.Getwd() is used
	ConfigPath      string            // -c/--config flag value
	BaseDirOverride string            // --base-dir flag value; empty means no override
	Env             map[string]string // environment variables
}

// LoadConfig loads configuration with the following precedence (highest wins):
// 1. Defaults
// 2. Global user config
// 3. Project config file (.probcat.json in the working directory, if present)
// 4. Explicit config file via ConfigPath (replaces 3)
// 5. CLI overrides.
//
// The base directory resolves against the working directory; store, usage
// and log paths resolve against the base directory.
func LoadConfig(input LoadConfigInput) (Config, error) {
	workDir := input.WorkDirOverride
	if workDir == "" {
		var err error

		workDir, err = os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("cannot get working directory: %w", err)
		}
	}

	cfg := DefaultConfig()

	globalPath := getGlobalConfigPath(input.Env)
	if globalPath != "" {
		globalCfg, loaded, err := loadConfigFile(globalPath, false)
		if err != nil {
			return Config{}, err
		}

		if loaded {
			cfg.Sources.Global = globalPath
			cfg = mergeConfig(cfg, globalCfg)
		}
	}

	projectPath := filepath.Join(workDir, ConfigFileName)
	mustExist := false

	if input.ConfigPath != "" {
		projectPath = input.ConfigPath
		if !filepath.IsAbs(projectPath) {
			projectPath = filepath.Join(workDir, projectPath)
		}

		mustExist = true
	}

	projectCfg, loaded, err := loadConfigFile(projectPath, mustExist)
	if err != nil {
		return Config{}, err
	}

	if loaded {
		cfg.Sources.Project = projectPath
		cfg = mergeConfig(cfg, projectCfg)
	}

	if input.BaseDirOverride != "" {
		cfg.BaseDir = input.BaseDirOverride
	}

	cfg.EffectiveCwd = workDir
	cfg.BaseDirAbs = resolve(workDir, cfg.BaseDir)
	cfg.IndexPathAbs = resolve(cfg.BaseDirAbs, cfg.IndexPath)
	cfg.CachePathAbs = resolve(cfg.BaseDirAbs, cfg.CachePath)

	if cfg.UsagePath != "" {
		cfg.UsagePathAbs = resolve(cfg.BaseDirAbs, cfg.UsagePath)
	}

	if cfg.LogFile != "" {
		cfg.LogFileAbs = resolve(cfg.BaseDirAbs, cfg.LogFile)
	}

	return cfg, nil
}

func resolve(base, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}

	return filepath.Join(base, path)
}

// loadConfigFile loads a config file. If mustExist is false, a missing file
// is not an error and reports loaded=false.
func loadConfigFile(path string, mustExist bool) (Config, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if mustExist {
				return Config{}, false, fmt.Errorf("%w: %s", ErrConfigFileNotFound, path)
			}

			return Config{}, false, nil
		}

		return Config{}, false, fmt.Errorf("%w: %s", ErrConfigFileRead, path)
	}

	cfg, parseErr := parseConfig(data)
	if parseErr != nil {
		return Config{}, false, fmt.Errorf("%w %s: %w", ErrConfigInvalid, path, parseErr)
	}

	return cfg, true, nil
}

func parseConfig(data []byte) (Config, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	var cfg Config

	unmarshalErr := json.Unmarshal(standardized, &cfg)
	if unmarshalErr != nil {
		return Config{}, fmt.Errorf("invalid JSON: %w", unmarshalErr)
	}

	// base_dir: "" is a mistake, not "use the default".
	var raw map[string]any

	_ = json.Unmarshal(standardized, &raw)

	if val, exists := raw["base_dir"]; exists {
		if str, ok := val.(string); ok && str == "" {
			return Config{}, ErrBaseDirEmpty
		}
	}

	return cfg, nil
}

func mergeConfig(base, overlay Config) Config {
	if overlay.BaseDir != "" {
		base.BaseDir = overlay.BaseDir
	}

	if overlay.IndexPath != "" {
		base.IndexPath = overlay.IndexPath
	}

	if overlay.CachePath != "" {
		base.CachePath = overlay.CachePath
	}

	if overlay.SortTags != nil {
		base.SortTags = overlay.SortTags
	}

	if overlay.UsedTag != "" {
		base.UsedTag = overlay.UsedTag
	}

	if overlay.UsagePath != "" {
		base.UsagePath = overlay.UsagePath
	}

	if overlay.Separator != "" {
		base.Separator = overlay.Separator
	}

	if overlay.Extension != "" {
		base.Extension = overlay.Extension
	}

	if overlay.LogFile != "" {
		base.LogFile = overlay.LogFile
	}

	if overlay.LogLevel != "" {
		base.LogLevel = overlay.LogLevel
	}

	if overlay.Editor != "" {
		base.Editor = overlay.Editor
	}

	return base
}

// FormatConfig renders the serializable part of cfg as indented JSON.
func FormatConfig(cfg Config) (string, error) {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return "", fmt.Errorf("formatting config: %w", err)
	}

	return string(data), nil
}
