/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"chartmaker/internal/chart"
	"chartmaker/internal/codec"
	"chartmaker/internal/domain"
	applog "chartmaker/internal/log"
	"chartmaker/internal/song"
)

const (
	SongExt        = ".japs"
	ChartExt       = ".jac"
	BackupsDirName = "backups"

	// DefaultBackupsKeep is how many backups of each file survive a save.
	DefaultBackupsKeep = 10

	backupSuffix = ".bak"
	crashSuffix  = ".crash"
	stampLayout  = "20060102-150405.000"
)

// now is swapped in tests to get distinct backup names.
var now = time.Now

// SongHandle keeps track of a song index loaded from disk.
// Charts are resolved relative to the directory of Path.
type SongHandle struct {
	Path string
	Song *domain.PlayableSong
	// Indent is the number of spaces per nesting level used when saving.
	Indent int
	// BackupsKeep limits the backups kept per file. Zero or less keeps all.
	BackupsKeep int
}

// Dir returns the directory holding the song and its charts.
func (h *SongHandle) Dir() string { return filepath.Dir(h.Path) }

// NewSong returns a handle for a song that has not been written yet.
func NewSong(path string, s *domain.PlayableSong) *SongHandle {
	if s == nil {
		s = domain.NewPlayableSong()
	}
	return &SongHandle{Path: path, Song: s, Indent: codec.DefaultIndent, BackupsKeep: DefaultBackupsKeep}
}

// OpenSong loads a song index. If the file cannot be read or decoded,
// the latest backup is tried before giving up.
func OpenSong(path string) (*SongHandle, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("song path is required")
	}
	s, err := openDocument(path, song.Decode)
	if err != nil {
		return nil, err
	}
	h := NewSong(path, s)
	return h, nil
}

// SaveSong writes the song with transactional semantics and a timestamped
// backup of the previous file (if present).
func SaveSong(h *SongHandle) error {
	if h == nil {
		return errors.New("nil SongHandle")
	}
	if h.Path == "" || h.Song == nil {
		return errors.New("invalid SongHandle: missing path or song")
	}
	text := song.EncodeWith(h.Song, song.Options{Indent: h.Indent})
	return WriteDocument(h.Path, text, h.BackupsKeep)
}

// ChartPath resolves the chart file referenced by meta.
func ChartPath(h *SongHandle, meta *domain.ExternalChartMeta) string {
	return filepath.Join(h.Dir(), meta.Target+ChartExt)
}

// OpenChart loads the chart referenced by meta, falling back to its latest backup.
func OpenChart(h *SongHandle, meta *domain.ExternalChartMeta) (*domain.Chart, error) {
	if h == nil || meta == nil {
		return nil, errors.New("song handle and chart reference are required")
	}
	if strings.TrimSpace(meta.Target) == "" {
		return nil, fmt.Errorf("chart %q has no target", meta.DifficultyName)
	}
	return openDocument(ChartPath(h, meta), chart.Decode)
}

// SaveChart writes c to the file referenced by meta.
func SaveChart(h *SongHandle, meta *domain.ExternalChartMeta, c *domain.Chart) error {
	if h == nil || meta == nil || c == nil {
		return errors.New("song handle, chart reference and chart are required")
	}
	if strings.TrimSpace(meta.Target) == "" {
		return fmt.Errorf("chart %q has no target", meta.DifficultyName)
	}
	text := chart.EncodeWith(c, chart.Options{Indent: h.Indent})
	return WriteDocument(ChartPath(h, meta), text, h.BackupsKeep)
}

// AutosaveCrashSnapshot writes the in-memory song next to the backups without
// touching the primary file. It returns the snapshot path.
func AutosaveCrashSnapshot(h *SongHandle) (string, error) {
	if h == nil || h.Song == nil {
		return "", errors.New("nil SongHandle")
	}
	bdir := filepath.Join(h.Dir(), BackupsDirName)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return "", fmt.Errorf("ensure backups dir: %w", err)
	}
	name := fmt.Sprintf("%s.%s%s", filepath.Base(h.Path), now().Format(stampLayout), crashSuffix)
	path := filepath.Join(bdir, name)
	text := song.EncodeWith(h.Song, song.Options{Indent: h.Indent})
	if err := writeFileSync(path, []byte(text)); err != nil {
		return "", fmt.Errorf("write crash snapshot: %w", err)
	}
	return path, nil
}

// WriteDocument replaces path with text: the current file is copied to
// <dir>/backups/<name>.<stamp>.bak, text goes to a temp file which is then
// renamed over path, and old backups beyond keep are removed.
func WriteDocument(path, text string, keep int) error {
	l := applog.WithOperation(applog.WithComponent("storage"), "save").With(slog.String("path", path))
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	bdir := filepath.Join(dir, BackupsDirName)

	if _, statErr := os.Stat(path); statErr == nil {
		if err := os.MkdirAll(bdir, 0o755); err != nil {
			return fmt.Errorf("ensure backups dir: %w", err)
		}
		bpath := filepath.Join(bdir, fmt.Sprintf("%s.%s%s", base, now().Format(stampLayout), backupSuffix))
		if err := copyFile(path, bpath); err != nil {
			return fmt.Errorf("backup current file: %w", err)
		}
	} else if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	temp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d-%d", base, os.Getpid(), rand.Int()))
	if err := writeFileSync(temp, []byte(text)); err != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("write temp file: %w", err)
	}
	// Windows refuses to rename over an existing file.
	if runtime.GOOS == "windows" {
		if _, err := os.Stat(path); err == nil {
			_ = os.Remove(path)
		}
	}
	if err := os.Rename(temp, path); err != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("replace %s: %w", base, err)
	}

	if keep > 0 {
		removed, err := pruneBackups(bdir, base, keep)
		if err != nil {
			l.Warn("prune backups failed", slog.Any("err", err))
		} else if removed > 0 {
			l.Debug("pruned backups", slog.Int("removed", removed))
		}
	}
	l.Info("saved", slog.Int("bytes", len(text)))
	return nil
}

// Backups lists the backups of the file at path, oldest first.
func Backups(path string) ([]string, error) {
	bdir := filepath.Join(filepath.Dir(path), BackupsDirName)
	names, err := backupNames(bdir, filepath.Base(path))
	if err != nil {
		return nil, err
	}
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = filepath.Join(bdir, n)
	}
	return out, nil
}

func backupNames(bdir, base string) ([]string, error) {
	ents, err := os.ReadDir(bdir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range ents {
		name := e.Name()
		if !e.IsDir() && strings.HasPrefix(name, base+".") && strings.HasSuffix(name, backupSuffix) {
			names = append(names, name)
		}
	}
	// the stamp sorts lexicographically
	sort.Strings(names)
	return names, nil
}

func pruneBackups(bdir, base string, keep int) (int, error) {
	names, err := backupNames(bdir, base)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}
	removed := 0
	for len(names)-removed > keep {
		if err := os.Remove(filepath.Join(bdir, names[removed])); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

// openDocument reads and decodes path, trying the latest backup when that fails.
func openDocument[T any](path string, decode func(string) (T, error)) (T, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "open").With(slog.String("path", path))
	doc, err := readDocument(path, decode)
	if err == nil {
		return doc, nil
	}
	backups, berr := Backups(path)
	if berr == nil && len(backups) == 0 {
		berr = errors.New("no backups found")
	}
	if berr != nil {
		var zero T
		return zero, fmt.Errorf("open %s: %w; backup attempt: %v", filepath.Base(path), err, berr)
	}
	latest := backups[len(backups)-1]
	doc, berr = readDocument(latest, decode)
	if berr != nil {
		var zero T
		return zero, fmt.Errorf("open %s: %w; backup attempt: %v", filepath.Base(path), err, berr)
	}
	l.Warn("opened from backup", slog.String("backup", latest), slog.Any("err", err))
	return doc, nil
}

func readDocument[T any](path string, decode func(string) (T, error)) (T, error) {
	var zero T
	text, err := ReadText(path)
	if err != nil {
		return zero, err
	}
	doc, err := decode(text)
	if err != nil {
		return zero, err
	}
	return doc, nil
}

// writeFileSync writes data to a file and flushes it to disk.
func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}

// copyFile copies src to dst, overwriting dst.
func copyFile(src, dst string) (err error) {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sf.Close()
	df, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := df.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := io.Copy(df, sf); err != nil {
		return err
	}
	return df.Sync()
}
