/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package catalog publishes song indexes to a shared PostgreSQL catalog and searches it.
package catalog

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"chartmaker/internal/domain"
	applog "chartmaker/internal/log"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Catalog is a handle on the shared catalog database.
type Catalog struct {
	db *sql.DB
}

// Open connects to the catalog at dsn and applies pending migrations.
// A non-empty password replaces the one in dsn.
func Open(ctx context.Context, dsn, password string) (*Catalog, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("catalog database url is required")
	}
	cfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse catalog url: %w", err)
	}
	if password != "" {
		cfg.Password = password
	}
	db := stdlib.OpenDB(*cfg)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping catalog: %w", err)
	}
	if err := applyMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Catalog{db: db}, nil
}

// Close releases the connection pool.
func (c *Catalog) Close() error { return c.db.Close() }

// ChartSummary is a published chart reference.
type ChartSummary struct {
	Target          string
	DifficultyIndex int
	DifficultyName  string
	CharterName     string
	DifficultyLevel string
	ChartConstant   float64
}

// SongSummary is one search hit.
type SongSummary struct {
	ID         int64
	SongName   string
	SongArtist string
	Genre      string
	BPMMin     float64
	BPMMax     float64
	Version    int64
	Charts     []ChartSummary
}

// PublishSong upserts s, keyed by name and artist, together with its chart
// references in one transaction. Charts no longer listed are removed.
// It returns the catalog id of the song.
func (c *Catalog) PublishSong(ctx context.Context, s *domain.PlayableSong) (int64, error) {
	l := applog.WithOperation(applog.WithComponent("catalog"), "publish").With(slog.String("song", s.SongName))
	if strings.TrimSpace(s.SongName) == "" || strings.TrimSpace(s.SongArtist) == "" {
		return 0, errors.New("song name and artist are required to publish")
	}
	lo, hi := bpmRange(s.Timing)

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin publish: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var id int64
	err = tx.QueryRowContext(ctx, `INSERT INTO songs (song_name, alt_song_name, song_artist, alt_song_artist, genre, location,
			clip_path, cover_artist, preview_start, preview_end, bpm_min, bpm_max)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		ON CONFLICT (song_name, song_artist) DO UPDATE SET
			alt_song_name = EXCLUDED.alt_song_name, alt_song_artist = EXCLUDED.alt_song_artist,
			genre = EXCLUDED.genre, location = EXCLUDED.location, clip_path = EXCLUDED.clip_path,
			cover_artist = EXCLUDED.cover_artist, preview_start = EXCLUDED.preview_start,
			preview_end = EXCLUDED.preview_end, bpm_min = EXCLUDED.bpm_min, bpm_max = EXCLUDED.bpm_max,
			version = songs.version + 1, published_at = now()
		RETURNING id`,
		s.SongName, s.AltSongName, s.SongArtist, s.AltSongArtist, s.Genre, s.Location,
		s.ClipPath, s.Cover.ArtistName, s.PreviewRange.X, s.PreviewRange.Y, lo, hi).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert song: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM charts WHERE song_id = $1`, id); err != nil {
		return 0, fmt.Errorf("clear charts: %w", err)
	}
	for _, m := range s.Charts {
		if _, err := tx.ExecContext(ctx, `INSERT INTO charts (song_id, target, difficulty_index, difficulty_name,
				charter_name, difficulty_level, chart_constant)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
			ON CONFLICT (song_id, target) DO NOTHING`,
			id, m.Target, m.DifficultyIndex, m.DifficultyName, m.CharterName, m.DifficultyLevel, m.ChartConstant); err != nil {
			return 0, fmt.Errorf("insert chart %q: %w", m.Target, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit publish: %w", err)
	}
	l.Info("published", slog.Int64("id", id), slog.Int("charts", len(s.Charts)))
	return id, nil
}

// SearchSongs runs a full-text search over names, artists and genre.
// Empty text lists the most recently published songs.
func (c *Catalog) SearchSongs(ctx context.Context, text string, limit int) ([]SongSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	var (
		q    string
		args []any
	)
	if strings.TrimSpace(text) != "" {
		q = `SELECT id, song_name, song_artist, genre, bpm_min, bpm_max, version FROM songs
			WHERE search_vector @@ plainto_tsquery('simple', $1)
			ORDER BY ts_rank(search_vector, plainto_tsquery('simple', $1)) DESC, song_name
			LIMIT $2`
		args = []any{text, limit}
	} else {
		q = `SELECT id, song_name, song_artist, genre, bpm_min, bpm_max, version FROM songs
			ORDER BY published_at DESC, id DESC LIMIT $1`
		args = []any{limit}
	}
	rows, err := c.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("search songs: %w", err)
	}
	var out []SongSummary
	byID := map[int64]int{}
	for rows.Next() {
		var s SongSummary
		if err := rows.Scan(&s.ID, &s.SongName, &s.SongArtist, &s.Genre, &s.BPMMin, &s.BPMMax, &s.Version); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan song: %w", err)
		}
		byID[s.ID] = len(out)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()
	if len(out) == 0 {
		return out, nil
	}

	ids := make([]int64, len(out))
	for i, s := range out {
		ids[i] = s.ID
	}
	crows, err := c.db.QueryContext(ctx, `SELECT song_id, target, difficulty_index, difficulty_name, charter_name,
			difficulty_level, chart_constant
		FROM charts WHERE song_id = ANY($1) ORDER BY song_id, difficulty_index, target`, ids)
	if err != nil {
		return nil, fmt.Errorf("load charts: %w", err)
	}
	defer func() { _ = crows.Close() }()
	for crows.Next() {
		var songID int64
		var cs ChartSummary
		if err := crows.Scan(&songID, &cs.Target, &cs.DifficultyIndex, &cs.DifficultyName, &cs.CharterName,
			&cs.DifficultyLevel, &cs.ChartConstant); err != nil {
			return nil, fmt.Errorf("scan chart: %w", err)
		}
		if i, ok := byID[songID]; ok {
			out[i].Charts = append(out[i].Charts, cs)
		}
	}
	return out, crows.Err()
}

// bpmRange returns the lowest and highest tempo of the map, or zeros.
func bpmRange(tm domain.TempoMap) (lo, hi float64) {
	for i, st := range tm.Stops {
		if i == 0 || st.BPM < lo {
			lo = st.BPM
		}
		if i == 0 || st.BPM > hi {
			hi = st.BPM
		}
	}
	return lo, hi
}

// applyMigrations applies embedded SQL migrations in filename order and
// records each in schema_migrations.
func applyMigrations(ctx context.Context, db *sql.DB) error {
	l := applog.WithOperation(applog.WithComponent("catalog"), "migrate")
	files, err := migrationFiles()
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version BIGINT PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}

	applied := map[int64]bool{}
	rows, err := db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return fmt.Errorf("select schema_migrations: %w", err)
	}
	for rows.Next() {
		var v int64
		if err := rows.Scan(&v); err != nil {
			_ = rows.Close()
			return err
		}
		applied[v] = true
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return err
	}
	_ = rows.Close()

	for _, fname := range files {
		version, err := parseVersion(fname)
		if err != nil {
			return err
		}
		if applied[version] {
			continue
		}
		b, err := migrationsFS.ReadFile(path.Join("migrations", fname))
		if err != nil {
			return err
		}
		l.Info("applying migration", slog.String("file", fname))
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, string(b)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply %s: %w", fname, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`, version, fname); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record %s: %w", fname, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit %s: %w", fname, err)
		}
	}
	return nil
}

func migrationFiles() ([]string, error) {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(strings.ToLower(e.Name()), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

func parseVersion(name string) (int64, error) {
	base := path.Base(name)
	prefix, _, ok := strings.Cut(base, "_")
	if !ok {
		return 0, errors.New("invalid migration filename: " + name)
	}
	v, err := strconv.ParseInt(prefix, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse version from %s: %w", name, err)
	}
	return v, nil
}
