// Package config loads scm configuration from YAML, git config and CLI overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google-code-export/editra-plugins-sub001/internal/models"
	"github.com/google-code-export/editra-plugins-sub001/internal/theme"
	"gopkg.in/yaml.v3"
)

const (
	appName = "scm"

	defaultCommandTimeout = 60 * time.Second
	defaultWatchDebounce  = 600 * time.Millisecond
)

// AppConfig defines the scm configuration options.
type AppConfig struct {
	Backend         string // Backend tag ("cvs", "svn", "git"); empty means detect per path
	CVSPath         string
	SVNPath         string
	GitPath         string
	Filters         []string      // Exclusion globs applied to every path list
	CommandTimeout  time.Duration // Upper bound for one tool invocation; 0 disables it
	CVSRootOption   bool          // Prepend -d <CVS/Root> to cvs invocations
	CVSRSH          string        // Remote shell forced for cvs through CVS_RSH
	RecursiveStatus bool
	DebugLog        string
	LogLevel        string
	Theme           string
	ShowIcons       bool
	WatchDebounce   time.Duration
}

// DefaultConfig returns the default configuration values.
func DefaultConfig() *AppConfig {
	return &AppConfig{
		CVSPath:         "cvs",
		SVNPath:         "svn",
		GitPath:         "git",
		Filters:         []string{"CVS", ".svn", ".git"},
		CommandTimeout:  defaultCommandTimeout,
		CVSRootOption:   true,
		CVSRSH:          "ssh",
		RecursiveStatus: false,
		LogLevel:        "debug",
		Theme:           theme.DraculaName,
		ShowIcons:       true,
		WatchDebounce:   defaultWatchDebounce,
	}
}

// CommandFor returns the configured executable for a backend.
func (c *AppConfig) CommandFor(kind models.BackendKind) string {
	switch kind {
	case models.BackendCVS:
		return c.CVSPath
	case models.BackendSVN:
		return c.SVNPath
	case models.BackendGit:
		return c.GitPath
	}
	return ""
}

// normalizeFilterList accepts a list of globs or a single string separated by
// colons or whitespace.
func normalizeFilterList(value any) []string {
	if value == nil {
		return []string{}
	}

	split := func(text string) []string {
		return strings.FieldsFunc(text, func(r rune) bool {
			return r == ':' || r == ' ' || r == '\t' || r == '\n'
		})
	}

	switch v := value.(type) {
	case string:
		return split(v)
	case []any:
		filters := []string{}
		for _, item := range v {
			if item == nil {
				continue
			}
			filters = append(filters, split(fmt.Sprintf("%v", item))...)
		}
		return filters
	}
	return []string{}
}

func coerceBool(value any, defaultVal bool) bool {
	if value == nil {
		return defaultVal
	}

	switch v := value.(type) {
	case bool:
		return v
	case int:
		return v != 0
	case string:
		text := strings.ToLower(strings.TrimSpace(v))
		switch text {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return defaultVal
}

// coerceDuration reads plain numbers as seconds (or as unit when given) and
// strings as Go durations.
func coerceDuration(value any, unit, defaultVal time.Duration) time.Duration {
	if value == nil {
		return defaultVal
	}

	switch v := value.(type) {
	case int:
		return time.Duration(v) * unit
	case float64:
		return time.Duration(v * float64(unit))
	case string:
		text := strings.TrimSpace(v)
		if text == "" {
			return defaultVal
		}
		if n, err := strconv.Atoi(text); err == nil {
			return time.Duration(n) * unit
		}
		if d, err := time.ParseDuration(text); err == nil {
			return d
		}
	}
	return defaultVal
}

func stringValue(data map[string]any, key string) (string, bool) {
	raw, ok := data[key]
	if !ok || raw == nil {
		return "", false
	}
	text := strings.TrimSpace(fmt.Sprintf("%v", raw))
	return text, text != ""
}

// normalizeKey maps "Command-Timeout" style keys (git config forbids
// underscores) onto the YAML spelling.
func normalizeKey(key string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(key)), "-", "_")
}

func normalizeKeys(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[normalizeKey(k)] = v
	}
	return out
}

// applyConfig overlays data onto cfg. Keys absent from data leave cfg untouched.
func applyConfig(cfg *AppConfig, data map[string]any) {
	data = normalizeKeys(data)

	if backend, ok := stringValue(data, "backend"); ok {
		backend = strings.ToLower(backend)
		if backend == "auto" {
			cfg.Backend = ""
		} else if kind, err := models.ParseBackendKind(backend); err == nil {
			cfg.Backend = string(kind)
		}
	}

	if v, ok := stringValue(data, "cvs_path"); ok {
		cfg.CVSPath = v
	}
	if v, ok := stringValue(data, "svn_path"); ok {
		cfg.SVNPath = v
	}
	if v, ok := stringValue(data, "git_path"); ok {
		cfg.GitPath = v
	}
	if v, ok := stringValue(data, "cvs_rsh"); ok {
		cfg.CVSRSH = v
	}
	if v, ok := stringValue(data, "debug_log"); ok {
		cfg.DebugLog = v
	}
	if v, ok := stringValue(data, "log_level"); ok {
		cfg.LogLevel = strings.ToLower(v)
	}

	if _, ok := data["filters"]; ok {
		cfg.Filters = normalizeFilterList(data["filters"])
	}

	cfg.CommandTimeout = coerceDuration(data["command_timeout"], time.Second, cfg.CommandTimeout)
	cfg.WatchDebounce = coerceDuration(data["watch_debounce_ms"], time.Millisecond, cfg.WatchDebounce)
	cfg.CVSRootOption = coerceBool(data["cvs_root_option"], cfg.CVSRootOption)
	cfg.RecursiveStatus = coerceBool(data["recursive_status"], cfg.RecursiveStatus)
	cfg.ShowIcons = coerceBool(data["show_icons"], cfg.ShowIcons)

	if themeName, ok := data["theme"].(string); ok {
		if normalized := theme.NormalizeName(themeName); normalized != "" {
			cfg.Theme = normalized
		}
	}

	if cfg.CommandTimeout < 0 {
		cfg.CommandTimeout = 0
	}
	if cfg.WatchDebounce < 0 {
		cfg.WatchDebounce = defaultWatchDebounce
	}
}

func parseConfig(data map[string]any) *AppConfig {
	cfg := DefaultConfig()
	applyConfig(cfg, data)
	return cfg
}

// ApplyCLIOverrides applies --config=scm.key=value overrides on top of cfg.
func (c *AppConfig) ApplyCLIOverrides(overrides []string) error {
	data, err := parseCLIConfigOverrides(overrides)
	if err != nil {
		return err
	}
	applyConfig(c, data)
	return nil
}

func getConfigDir() string {
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return xdgConfigHome
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config")
}

// LoadConfig reads the YAML configuration, then overlays global and
// repository-local `git config scm.*` values.
func LoadConfig(configPath string) (*AppConfig, error) {
	configBase := filepath.Clean(filepath.Join(getConfigDir(), appName))

	var paths []string
	if configPath != "" {
		expanded, err := expandPath(configPath)
		if err != nil {
			return DefaultConfig(), err
		}
		absPath, err := filepath.Abs(expanded)
		if err != nil {
			return DefaultConfig(), err
		}
		if !isPathWithin(configBase, absPath) {
			return DefaultConfig(), fmt.Errorf("config path must reside inside %s", configBase)
		}
		paths = []string{absPath}
	} else {
		paths = []string{
			filepath.Join(configBase, "config.yaml"),
			filepath.Join(configBase, "config.yml"),
		}
	}

	cfg := DefaultConfig()
	for _, path := range paths {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		// #nosec G304 -- path is constrained to the config directory after validation
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}

		var yamlData map[string]any
		if err := yaml.Unmarshal(data, &yamlData); err != nil {
			return DefaultConfig(), fmt.Errorf("failed to parse %s: %w", path, err)
		}
		applyConfig(cfg, yamlData)
		break
	}

	if globalCfg, err := loadGitConfig(true, ""); err == nil {
		applyConfig(cfg, globalCfg)
	}
	if repoPath := determineRepoPath(); repoPath != "" {
		if localCfg, err := loadGitConfig(false, repoPath); err == nil {
			applyConfig(cfg, localCfg)
		}
	}

	return cfg, nil
}

func expandPath(path string) (string, error) {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(home, path[1:])
	}
	return os.ExpandEnv(path), nil
}

func isPathWithin(base, target string) bool {
	base = filepath.Clean(base)
	target = filepath.Clean(target)

	rel, err := filepath.Rel(base, target)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return false
	}
	return true
}
