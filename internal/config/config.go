/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/zalando/go-keyring"
	"gopkg.in/yaml.v3"

	applog "chartmaker/internal/log"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are read-only overrides applied at load time.
//
// config_version: bump when the structure changes in a backward-incompatible way.

type EditorConfig struct {
	IndentSize  int `yaml:"indent_size"`
	BackupsKeep int `yaml:"backups_keep"`
}

type LibraryConfig struct {
	// Path of the recent-songs database. Empty means <config dir>/library.sqlite.
	Path          string `yaml:"path"`
	RecentLimit   int    `yaml:"recent_limit"`
	ThumbSize     int    `yaml:"thumb_size"`
	MaxThumbBytes int64  `yaml:"max_thumb_bytes"`
}

type CatalogConfig struct {
	DatabaseURL string `yaml:"database_url"`
	TimeoutMs   int    `yaml:"timeout_ms"`
	// The password is not stored on disk; it lives in the OS keychain.
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	Editor        EditorConfig  `yaml:"editor"`
	Library       LibraryConfig `yaml:"library"`
	Catalog       CatalogConfig `yaml:"catalog"`
	Logging       LoggingConfig `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		Editor:        EditorConfig{IndentSize: 2, BackupsKeep: 10},
		Library:       LibraryConfig{RecentLimit: 20, ThumbSize: 128, MaxThumbBytes: 16 * 1024 * 1024},
		Catalog:       CatalogConfig{DatabaseURL: "", TimeoutMs: 15000},
		Logging:       LoggingConfig{Level: "info", Format: "console", Source: false, File: ""},
	}
}

// Env var names used as overrides.
const (
	EnvConfigDir        = "CMK_CONFIG_DIR"
	EnvIndentSize       = "CMK_INDENT_SIZE"
	EnvLibraryPath      = "CMK_LIBRARY_PATH"
	EnvRecentLimit      = "CMK_RECENT_LIMIT"
	EnvCatalogURL       = "CMK_CATALOG_URL"
	EnvCatalogTimeoutMs = "CMK_CATALOG_TIMEOUT_MS"
	// EnvLogLevel Logging envs
	EnvLogLevel  = "CMK_LOG_LEVEL"
	EnvLogFormat = "CMK_LOG_FORMAT"
	EnvLogSource = "CMK_LOG_SOURCE"
	EnvLogFile   = "CMK_LOG_FILE"
)

// Service/keys for OS keyring.
const (
	keyringService  = "Chartmaker"
	keyringPassword = "catalog_password"
)

// secretStore abstracts the keyring, so we can stub it in tests.
var secretStore SecretStore = osKeyring{}

type SecretStore interface {
	Get(service, key string) (string, error)
	Set(service, key, value string) error
	Delete(service, key string) error
}

// osKeyring implements SecretStore using the OS keyring via github.com/zalando/go-keyring.
type osKeyring struct{}

func (osKeyring) Get(service, key string) (string, error) { return keyring.Get(service, key) }
func (osKeyring) Set(service, key, value string) error    { return keyring.Set(service, key, value) }
func (osKeyring) Delete(service, key string) error        { return keyring.Delete(service, key) }

// Dir returns the per-user config directory.
func Dir() (string, error) {
	if v := strings.TrimSpace(os.Getenv(EnvConfigDir)); v != "" {
		return v, nil
	}
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "Chartmaker")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "Chartmaker")
	default: // linux and others
		if x := os.Getenv("XDG_CONFIG_HOME"); x != "" {
			base = filepath.Join(x, "chartmaker")
		} else if h := os.Getenv("HOME"); h != "" {
			base = filepath.Join(h, ".config", "chartmaker")
		}
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return base, nil
}

// ConfigPath returns the per-user config file path.
func ConfigPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads the user config file (if present), applies defaults, and merges environment overrides.
// It also loads the catalog password from the keyring (returned separately, never kept in the struct).
func Load() (AppConfig, string, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, "", err
	}
	if data, err := os.ReadFile(path); err == nil {
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			applog.WithComponent("config").Warn("ignoring unreadable config file", "path", path, "err", err)
		} else {
			mergeInto(&cfg, &fileCfg)
		}
	}
	applyEnvOverrides(&cfg)
	secret, err := secretStore.Get(keyringService, keyringPassword)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		applog.WithComponent("config").Debug("keyring unavailable", "err", err)
	}
	return cfg, secret, nil
}

// Save writes the user config YAML and persists the catalog password into the OS keyring (if non-empty).
func Save(cfg AppConfig, secret string) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}
	if secret != "" {
		if err := secretStore.Set(keyringService, keyringPassword, secret); err != nil {
			return err
		}
	}
	return nil
}

// ForgetSecret removes the catalog password from the keyring.
func ForgetSecret() error {
	err := secretStore.Delete(keyringService, keyringPassword)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

// LibraryPath resolves the recent-songs database location.
func (c AppConfig) LibraryPath() (string, error) {
	if p := strings.TrimSpace(c.Library.Path); p != "" {
		return p, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "library.sqlite"), nil
}

// Timeout returns the catalog timeout, falling back to the default.
func (c CatalogConfig) Timeout() time.Duration {
	ms := c.TimeoutMs
	if ms <= 0 {
		ms = Defaults().Catalog.TimeoutMs
	}
	return time.Duration(ms) * time.Millisecond
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if src.Editor.IndentSize != 0 {
		dst.Editor.IndentSize = src.Editor.IndentSize
	}
	if src.Editor.BackupsKeep != 0 {
		dst.Editor.BackupsKeep = src.Editor.BackupsKeep
	}
	if strings.TrimSpace(src.Library.Path) != "" {
		dst.Library.Path = strings.TrimSpace(src.Library.Path)
	}
	if src.Library.RecentLimit != 0 {
		dst.Library.RecentLimit = src.Library.RecentLimit
	}
	if src.Library.ThumbSize != 0 {
		dst.Library.ThumbSize = src.Library.ThumbSize
	}
	if src.Library.MaxThumbBytes != 0 {
		dst.Library.MaxThumbBytes = src.Library.MaxThumbBytes
	}
	if src.Catalog.DatabaseURL != "" {
		dst.Catalog.DatabaseURL = src.Catalog.DatabaseURL
	}
	if src.Catalog.TimeoutMs != 0 {
		dst.Catalog.TimeoutMs = src.Catalog.TimeoutMs
	}
	// logging
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
}

func parseBool(v string) bool {
	lv := strings.ToLower(v)
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvIndentSize)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.Editor.IndentSize = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvLibraryPath)); v != "" {
		cfg.Library.Path = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvRecentLimit)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Library.RecentLimit = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvCatalogURL)); v != "" {
		cfg.Catalog.DatabaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvCatalogTimeoutMs)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Catalog.TimeoutMs = n
		}
	}
	// logging overrides
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

var envKeys = map[string]string{
	"editor.indent_size":   EnvIndentSize,
	"library.path":         EnvLibraryPath,
	"library.recent_limit": EnvRecentLimit,
	"catalog.database_url": EnvCatalogURL,
	"catalog.timeout_ms":   EnvCatalogTimeoutMs,
	"logging.level":        EnvLogLevel,
	"logging.format":       EnvLogFormat,
	"logging.source":       EnvLogSource,
	"logging.file":         EnvLogFile,
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	env, ok := envKeys[key]
	if !ok || os.Getenv(env) == "" {
		return "", false
	}
	return env, true
}
