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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/zalando/go-keyring"
)

type memStore map[string]string

func (m memStore) Get(service, key string) (string, error) {
	v, ok := m[service+"/"+key]
	if !ok {
		return "", keyring.ErrNotFound
	}
	return v, nil
}
func (m memStore) Set(service, key, value string) error { m[service+"/"+key] = value; return nil }
func (m memStore) Delete(service, key string) error {
	if _, ok := m[service+"/"+key]; !ok {
		return keyring.ErrNotFound
	}
	delete(m, service+"/"+key)
	return nil
}

// isolate points the config dir at a temp dir and stubs the keyring.
func isolate(t *testing.T) memStore {
	t.Helper()
	t.Setenv(EnvConfigDir, t.TempDir())
	store := memStore{}
	old := secretStore
	secretStore = store
	t.Cleanup(func() { secretStore = old })
	return store
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	isolate(t)
	cfg, secret, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if secret != "" {
		t.Fatalf("unexpected secret %q", secret)
	}
	if cfg.Editor.IndentSize != 2 || cfg.Editor.BackupsKeep != 10 || cfg.Library.RecentLimit != 20 {
		t.Fatalf("defaults not applied: %#v", cfg)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	store := isolate(t)
	cfg := Defaults()
	cfg.Editor.IndentSize = 4
	cfg.Catalog.DatabaseURL = "postgres://charts@db.test/catalog"
	cfg.Logging.Level = "debug"
	if err := Save(cfg, "hunter2"); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	path, _ := ConfigPath()
	if fi, err := os.Stat(path); err != nil || fi.Mode().Perm() != 0o600 {
		t.Fatalf("config file not written privately: %v", err)
	}
	if len(store) != 1 {
		t.Fatalf("secret not stored in keyring: %v", store)
	}

	got, secret, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if secret != "hunter2" {
		t.Fatalf("secret = %q", secret)
	}
	if got.Editor.IndentSize != 4 || got.Catalog.DatabaseURL != cfg.Catalog.DatabaseURL || got.Logging.Level != "debug" {
		t.Fatalf("round trip mismatch: %#v", got)
	}

	if err := ForgetSecret(); err != nil {
		t.Fatalf("ForgetSecret() error: %v", err)
	}
	if err := ForgetSecret(); err != nil {
		t.Fatalf("second ForgetSecret() error: %v", err)
	}
}

func TestPartialFileKeepsDefaults(t *testing.T) {
	isolate(t)
	path, _ := ConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("logging:\n  level: WARN\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Logging.Level != "warn" {
		t.Fatalf("level = %q", cfg.Logging.Level)
	}
	if cfg.Editor.IndentSize != 2 || cfg.Library.ThumbSize != 128 {
		t.Fatalf("defaults lost: %#v", cfg)
	}
}

func TestEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv(EnvIndentSize, "0")
	t.Setenv(EnvCatalogURL, "postgres://override")
	t.Setenv(EnvCatalogTimeoutMs, "250")
	t.Setenv(EnvRecentLimit, "5")
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Editor.IndentSize != 0 {
		t.Fatalf("IndentSize = %d, want 0", cfg.Editor.IndentSize)
	}
	if cfg.Catalog.DatabaseURL != "postgres://override" || cfg.Catalog.Timeout() != 250*time.Millisecond {
		t.Fatalf("catalog overrides not applied: %#v", cfg.Catalog)
	}
	if cfg.Library.RecentLimit != 5 {
		t.Fatalf("RecentLimit = %d", cfg.Library.RecentLimit)
	}
	if env, ok := EnvOverrideFor("catalog.database_url"); !ok || env != EnvCatalogURL {
		t.Fatalf("EnvOverrideFor catalog.database_url = %q %v", env, ok)
	}
	if _, ok := EnvOverrideFor("library.path"); ok {
		t.Fatalf("library.path is not overridden")
	}
}

func TestEnvOverridesLogging(t *testing.T) {
	isolate(t)
	t.Setenv(EnvLogLevel, "ERROR")
	t.Setenv(EnvLogFormat, "json")
	t.Setenv(EnvLogSource, "1")
	t.Setenv(EnvLogFile, "X:/cmk.log")
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Logging.Level != "error" || cfg.Logging.Format != "json" || !cfg.Logging.Source || cfg.Logging.File != "X:/cmk.log" {
		t.Fatalf("env overrides not applied to logging: %#v", cfg.Logging)
	}
}

func TestMergeIncludesLogging(t *testing.T) {
	dst := Defaults()
	src := Defaults()
	src.Logging.Level = "debug"
	src.Logging.Format = "json"
	src.Logging.Source = true
	src.Logging.File = "C:/tmp/cmk.log"
	mergeInto(&dst, &src)
	if dst.Logging.Level != "debug" || dst.Logging.Format != "json" || !dst.Logging.Source || dst.Logging.File != "C:/tmp/cmk.log" {
		t.Fatalf("logging fields not merged correctly: %#v", dst.Logging)
	}
}

func TestLibraryPath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvConfigDir, dir)
	cfg := Defaults()
	if p, err := cfg.LibraryPath(); err != nil || p != filepath.Join(dir, "library.sqlite") {
		t.Fatalf("default library path = %q, %v", p, err)
	}
	cfg.Library.Path = "/data/lib.sqlite"
	if p, _ := cfg.LibraryPath(); p != "/data/lib.sqlite" {
		t.Fatalf("explicit library path = %q", p)
	}
}
