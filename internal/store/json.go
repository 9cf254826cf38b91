// Package store persists an imported content.Database and loads it back,
// either as a SQLite file or as JSON (zstd compressed for .zst paths).
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/appengine-ltd/dailysim/internal/content"
)

type Format int

const (
	FormatJSON Format = iota
	FormatJSONZstd
	FormatSQLite
)

// FormatFor picks the storage format from the path extension.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zst", ".zstd":
		return FormatJSONZstd
	case ".db", ".sqlite", ".sqlite3":
		return FormatSQLite
	default:
		return FormatJSON
	}
}

// WriteJSON replaces path with db. The file is written to a temp file in
// the same directory and renamed into place.
func WriteJSON(path string, db content.Database) error {
	data, err := json.MarshalIndent(db, "", "  ")
	if err != nil {
		return err
	}
	if FormatFor(path) == FormatJSONZstd {
		var buf bytes.Buffer
		enc, err := zstd.NewWriter(&buf, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return err
		}
		if _, err := enc.Write(data); err != nil {
			_ = enc.Close()
			return err
		}
		if err := enc.Close(); err != nil {
			return err
		}
		data = buf.Bytes()
	}
	return writeAtomic(path, data)
}

func ReadJSON(path string) (content.Database, error) {
	var db content.Database
	f, err := os.Open(path)
	if err != nil {
		return db, err
	}
	defer f.Close()

	var r io.Reader = f
	if FormatFor(path) == FormatJSONZstd {
		dec, err := zstd.NewReader(f)
		if err != nil {
			return db, err
		}
		defer dec.Close()
		r = dec
	}
	if err := json.NewDecoder(r).Decode(&db); err != nil {
		return db, fmt.Errorf("decode %s: %w", path, err)
	}
	return db, nil
}

// Save writes db to path in the format its extension selects, replacing
// any previous content.
func Save(ctx context.Context, path string, db content.Database) error {
	if FormatFor(path) != FormatSQLite {
		return WriteJSON(path, db)
	}
	s, err := OpenSQLite(ctx, path)
	if err != nil {
		return err
	}
	defer s.Close()
	return s.Save(ctx, db)
}

func Load(ctx context.Context, path string) (content.Database, error) {
	if FormatFor(path) != FormatSQLite {
		return ReadJSON(path)
	}
	if _, err := os.Stat(path); err != nil {
		return content.Database{}, err
	}
	s, err := OpenSQLite(ctx, path)
	if err != nil {
		return content.Database{}, err
	}
	defer s.Close()
	return s.Load(ctx)
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "dailysim-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return err
	}

	cleanup = false
	return nil
}
