/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */

package storage

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"os"
	"strings"

	"golang.org/x/image/draw"

	// cover art is often shipped in these
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// MakeThumbnail decodes an image and scales it to fit a size x size box,
// keeping the aspect ratio. The result is PNG encoded.
func MakeThumbnail(r io.Reader, size int) ([]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid thumbnail size %d", size)
	}
	src, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil, errors.New("empty image")
	}
	tw, th := size, size
	if w >= h {
		th = max(1, h*size/w)
	} else {
		tw = max(1, w*size/h)
	}
	dst := image.NewNRGBA(image.Rect(0, 0, tw, th))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

// Thumbnail returns the cached thumbnail of the image at path, generating
// it when missing or older than the file. The cache is then trimmed to
// MaxThumbBytes, least recently used first.
func (lib *Library) Thumbnail(ctx context.Context, path string) ([]byte, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("image path is required")
	}
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	mod := fi.ModTime().UnixNano()
	size := lib.opts.ThumbSize

	var blob []byte
	var cachedMod int64
	err = lib.db.QueryRowContext(ctx, `SELECT png, src_mod FROM thumbs WHERE path=? AND size=?`, path, size).Scan(&blob, &cachedMod)
	switch {
	case err == nil && cachedMod >= mod:
		_, _ = lib.db.ExecContext(ctx, `UPDATE thumbs SET last_access=? WHERE path=? AND size=?`, now().UnixNano(), path, size)
		return blob, nil
	case err != nil && !errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("query thumbnail: %w", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	blob, err = MakeThumbnail(f, size)
	if err != nil {
		return nil, err
	}
	if err := lib.putThumb(ctx, path, size, mod, blob); err != nil {
		return nil, err
	}
	return blob, nil
}

func (lib *Library) putThumb(ctx context.Context, path string, size int, mod int64, blob []byte) error {
	ts := now().UnixNano()
	_, err := lib.db.ExecContext(ctx, `INSERT INTO thumbs(path,size,src_mod,png,bytes,updated_at,last_access)
		VALUES(?,?,?,?,?,?,?)
		ON CONFLICT(path,size) DO UPDATE SET src_mod=excluded.src_mod, png=excluded.png, bytes=excluded.bytes,
			updated_at=excluded.updated_at, last_access=excluded.last_access`,
		path, size, mod, blob, len(blob), ts, ts)
	if err != nil {
		return fmt.Errorf("upsert thumbnail: %w", err)
	}
	if lib.opts.MaxThumbBytes > 0 {
		return lib.evictThumbs(ctx, lib.opts.MaxThumbBytes)
	}
	return nil
}

// evictThumbs deletes least recently used thumbnails until the total is within capBytes.
func (lib *Library) evictThumbs(ctx context.Context, capBytes int64) error {
	total, err := lib.ThumbBytes(ctx)
	if err != nil {
		return err
	}
	if total <= capBytes {
		return nil
	}
	rows, err := lib.db.QueryContext(ctx, `SELECT rowid, bytes FROM thumbs ORDER BY last_access ASC, rowid ASC`)
	if err != nil {
		return fmt.Errorf("select victims: %w", err)
	}
	var victims []any
	cur := total
	for rows.Next() && cur > capBytes {
		var id, n int64
		if err := rows.Scan(&id, &n); err != nil {
			_ = rows.Close()
			return err
		}
		victims = append(victims, id)
		cur -= n
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return err
	}
	// the single connection must be free before writing
	if err := rows.Close(); err != nil {
		return err
	}
	if len(victims) == 0 {
		return nil
	}
	q := `DELETE FROM thumbs WHERE rowid IN (?` + strings.Repeat(",?", len(victims)-1) + `)`
	if _, err := lib.db.ExecContext(ctx, q, victims...); err != nil {
		return fmt.Errorf("evict thumbnails: %w", err)
	}
	return nil
}

// ThumbBytes returns the total size of cached thumbnails.
func (lib *Library) ThumbBytes(ctx context.Context) (int64, error) {
	var total int64
	if err := lib.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(bytes),0) FROM thumbs`).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum thumbnail bytes: %w", err)
	}
	return total, nil
}
