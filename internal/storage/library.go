/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"chartmaker/internal/codec"
	"chartmaker/internal/domain"
	applog "chartmaker/internal/log"
	"chartmaker/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	LibraryFileName = "library.sqlite"

	// schemaVersion tracks the library schema. Bump it together with a new
	// case in runMigrations.
	schemaVersion = 2

	DefaultThumbSize     = 128
	DefaultMaxThumbBytes = 16 * 1024 * 1024
)

// LibraryOptions tune the thumbnail cache.
type LibraryOptions struct {
	// ThumbSize is the edge of the square box thumbnails are fitted into.
	ThumbSize int
	// MaxThumbBytes caps the cached PNG bytes. Zero or less disables eviction.
	MaxThumbBytes int64
}

// Library is the per-user index of recently opened songs.
type Library struct {
	db   *sql.DB
	path string
	opts LibraryOptions
}

// OpenLibrary opens (creating if needed) the library database at path,
// enables WAL mode and brings the schema up to date.
func OpenLibrary(ctx context.Context, path string, opts LibraryOptions) (*Library, error) {
	l := applog.WithOperation(applog.WithComponent("library"), "open").With(slog.String("path", path))
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("library path is required")
	}
	if opts.ThumbSize <= 0 {
		opts.ThumbSize = DefaultThumbSize
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create library dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if err := ensureVersion(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := ensureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		l.Error("run migrations failed", slog.Any("err", err))
		return nil, err
	}
	l.Debug("library ready")
	return &Library{db: db, path: path, opts: opts}, nil
}

// Close releases the database.
func (lib *Library) Close() error {
	if lib == nil || lib.db == nil {
		return nil
	}
	return lib.db.Close()
}

// Path returns the database file path.
func (lib *Library) Path() string { return lib.path }

func ensureVersion(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS version (
		id          INTEGER PRIMARY KEY CHECK(id=1),
		schema      INTEGER NOT NULL,
		app         TEXT,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	);`); err != nil {
		return fmt.Errorf("create version table: %w", err)
	}
	stamp := time.Now().UTC().Format(time.RFC3339)
	appv := version.String()
	var cur int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, ?, ?, ?, ?)`, schemaVersion, appv, stamp, stamp); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		if _, err := db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, appv, stamp); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

// ensureSchema creates the current schema on a fresh database.
func ensureSchema(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS recent_songs (
			path        TEXT    PRIMARY KEY,
			icon_path   TEXT    NOT NULL DEFAULT '',
			song_name   TEXT    NOT NULL DEFAULT '',
			song_artist TEXT    NOT NULL DEFAULT '',
			background  TEXT    NOT NULL DEFAULT '',
			interface   TEXT    NOT NULL DEFAULT '',
			opened_at   INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_recent_opened ON recent_songs(opened_at);`,
		`CREATE TABLE IF NOT EXISTS thumbs (
			path        TEXT    NOT NULL,
			size        INTEGER NOT NULL,
			src_mod     INTEGER NOT NULL DEFAULT 0,
			png         BLOB    NOT NULL,
			bytes       INTEGER NOT NULL DEFAULT 0,
			updated_at  INTEGER NOT NULL,
			last_access INTEGER NOT NULL,
			PRIMARY KEY(path, size)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_thumbs_access ON thumbs(last_access);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure library schema: %w", err)
		}
	}
	return nil
}

// runMigrations applies incremental schema migrations up to schemaVersion.
func runMigrations(ctx context.Context, db *sql.DB) error {
	var cur int
	if err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	for cur < schemaVersion {
		next := cur + 1
		var stmts []string
		switch next {
		case 2:
			// version 1 had no access indexes
			stmts = []string{
				`CREATE INDEX IF NOT EXISTS idx_recent_opened ON recent_songs(opened_at);`,
				`CREATE INDEX IF NOT EXISTS idx_thumbs_access ON thumbs(last_access);`,
			}
		}
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", next, err)
		}
		for _, q := range stmts {
			if _, err := tx.ExecContext(ctx, q); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d stmt failed: %w", next, err)
			}
		}
		if _, err := tx.ExecContext(ctx, `UPDATE version SET schema=?, updated_at=? WHERE id=1`, next, time.Now().UTC().Format(time.RFC3339)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d update version: %w", next, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d commit: %w", next, err)
		}
		cur = next
	}
	return nil
}

// SchemaVersion reports the schema version stored in the database.
func (lib *Library) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	err := lib.db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&v)
	return v, err
}

// RecentFromHandle describes an opened song for the library.
func RecentFromHandle(h *SongHandle) domain.RecentSong {
	rs := domain.RecentSong{
		Path:            h.Path,
		SongName:        h.Song.SongName,
		SongArtist:      h.Song.SongArtist,
		BackgroundColor: h.Song.BackgroundColor,
		InterfaceColor:  h.Song.InterfaceColor,
	}
	if abs, err := filepath.Abs(h.Path); err == nil {
		rs.Path = abs
	}
	if icon := strings.TrimSpace(h.Song.Cover.IconTarget); icon != "" {
		rs.IconPath = filepath.Join(filepath.Dir(rs.Path), icon)
	}
	return rs
}

// Touch records rs as opened. A zero OpenedAt means now.
func (lib *Library) Touch(ctx context.Context, rs domain.RecentSong) error {
	if strings.TrimSpace(rs.Path) == "" {
		return errors.New("recent song path is required")
	}
	if rs.OpenedAt.IsZero() {
		rs.OpenedAt = now()
	}
	_, err := lib.db.ExecContext(ctx, `INSERT INTO recent_songs(path, icon_path, song_name, song_artist, background, interface, opened_at)
		VALUES(?,?,?,?,?,?,?)
		ON CONFLICT(path) DO UPDATE SET icon_path=excluded.icon_path, song_name=excluded.song_name,
			song_artist=excluded.song_artist, background=excluded.background, interface=excluded.interface,
			opened_at=excluded.opened_at`,
		rs.Path, rs.IconPath, rs.SongName, rs.SongArtist,
		codec.FormatColor(rs.BackgroundColor), codec.FormatColor(rs.InterfaceColor), rs.OpenedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("touch recent song: %w", err)
	}
	return nil
}

// Recent returns up to limit songs, most recently opened first.
// A limit of zero or less returns all of them.
func (lib *Library) Recent(ctx context.Context, limit int) ([]domain.RecentSong, error) {
	q := `SELECT path, icon_path, song_name, song_artist, background, interface, opened_at
		FROM recent_songs ORDER BY opened_at DESC, path ASC`
	var args []any
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := lib.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query recent songs: %w", err)
	}
	defer rows.Close()
	var out []domain.RecentSong
	for rows.Next() {
		var rs domain.RecentSong
		var bg, ui string
		var opened int64
		if err := rows.Scan(&rs.Path, &rs.IconPath, &rs.SongName, &rs.SongArtist, &bg, &ui, &opened); err != nil {
			return nil, err
		}
		// colors written by older builds may be empty
		if c, err := codec.ParseColor(bg); err == nil {
			rs.BackgroundColor = c
		}
		if c, err := codec.ParseColor(ui); err == nil {
			rs.InterfaceColor = c
		}
		rs.OpenedAt = time.Unix(0, opened)
		out = append(out, rs)
	}
	return out, rows.Err()
}

// Forget removes a song and its cached thumbnails from the library.
func (lib *Library) Forget(ctx context.Context, path string) error {
	var icon string
	err := lib.db.QueryRowContext(ctx, `SELECT icon_path FROM recent_songs WHERE path=?`, path).Scan(&icon)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("lookup recent song: %w", err)
	}
	if _, err := lib.db.ExecContext(ctx, `DELETE FROM recent_songs WHERE path=?`, path); err != nil {
		return fmt.Errorf("forget recent song: %w", err)
	}
	if icon != "" {
		if _, err := lib.db.ExecContext(ctx, `DELETE FROM thumbs WHERE path=?`, icon); err != nil {
			return fmt.Errorf("forget thumbnails: %w", err)
		}
	}
	return nil
}
