package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	_ "modernc.org/sqlite"

	"github.com/appengine-ltd/dailysim/internal/content"
)

const schemaVersion = 1

type SQLite struct {
	db *sql.DB
}

func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if err := initPragmas(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func initPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS days (
			ord INTEGER PRIMARY KEY,
			id INTEGER NOT NULL,
			day_number INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS blocks (
			day_ord INTEGER NOT NULL REFERENCES days(ord) ON DELETE CASCADE,
			idx INTEGER NOT NULL,
			time TEXT NOT NULL,
			name TEXT NOT NULL,
			location_id INTEGER NOT NULL,
			start_dialogue_id INTEGER NOT NULL,
			end_dialogue_id INTEGER NOT NULL,
			PRIMARY KEY (day_ord, idx)
		);`,
		`CREATE TABLE IF NOT EXISTS placement_sets (
			ord INTEGER PRIMARY KEY,
			id INTEGER NOT NULL,
			note TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS placements (
			set_ord INTEGER NOT NULL REFERENCES placement_sets(ord) ON DELETE CASCADE,
			idx INTEGER NOT NULL,
			npc_id TEXT NOT NULL,
			anchor_id TEXT NOT NULL,
			event_id INTEGER NOT NULL,
			PRIMARY KEY (set_ord, idx)
		);`,
		`CREATE TABLE IF NOT EXISTS dialogue (
			ord INTEGER PRIMARY KEY,
			dialogue_id INTEGER NOT NULL,
			time TEXT NOT NULL,
			speaker TEXT NOT NULL,
			text TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS dialogue_by_id ON dialogue(dialogue_id, ord);`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// Save replaces the stored database with db in one transaction. Source
// order is kept through the ord columns.
func (s *SQLite) Save(ctx context.Context, db content.Database) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, table := range []string{"blocks", "days", "placements", "placement_sets", "dialogue"} {
		if _, err = tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for ord, d := range db.Days {
		if _, err = tx.ExecContext(ctx, `INSERT INTO days(ord, id, day_number) VALUES (?, ?, ?)`, ord, d.ID, d.DayNumber); err != nil {
			return fmt.Errorf("insert day %d: %w", d.DayNumber, err)
		}
		for idx, b := range d.Blocks {
			_, err = tx.ExecContext(ctx, `INSERT INTO blocks(day_ord, idx, time, name, location_id, start_dialogue_id, end_dialogue_id)
				VALUES (?, ?, ?, ?, ?, ?, ?)`, ord, idx, b.Time, b.Name, b.LocationID, b.StartDialogueID, b.EndDialogueID)
			if err != nil {
				return fmt.Errorf("insert block %d/%d: %w", d.DayNumber, idx, err)
			}
		}
	}
	for ord, set := range db.PlacementSets {
		if _, err = tx.ExecContext(ctx, `INSERT INTO placement_sets(ord, id, note) VALUES (?, ?, ?)`, ord, set.ID, set.Note); err != nil {
			return fmt.Errorf("insert placement set %d: %w", set.ID, err)
		}
		for idx, p := range set.Placements {
			_, err = tx.ExecContext(ctx, `INSERT INTO placements(set_ord, idx, npc_id, anchor_id, event_id) VALUES (?, ?, ?, ?, ?)`,
				ord, idx, p.NPCID, p.AnchorID, p.EventID)
			if err != nil {
				return fmt.Errorf("insert placement %d/%d: %w", set.ID, idx, err)
			}
		}
	}
	for ord, line := range db.Dialogue {
		_, err = tx.ExecContext(ctx, `INSERT INTO dialogue(ord, dialogue_id, time, speaker, text) VALUES (?, ?, ?, ?, ?)`,
			ord, line.DialogueID, line.Time, line.Speaker, line.Text)
		if err != nil {
			return fmt.Errorf("insert dialogue %d: %w", line.DialogueID, err)
		}
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO meta(key, value) VALUES ('schema_version', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, strconv.Itoa(schemaVersion))
	if err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLite) Load(ctx context.Context) (content.Database, error) {
	var out content.Database

	days, err := s.loadDays(ctx)
	if err != nil {
		return out, err
	}
	sets, err := s.loadPlacementSets(ctx)
	if err != nil {
		return out, err
	}
	lines, err := s.loadDialogue(ctx)
	if err != nil {
		return out, err
	}
	out.Days, out.PlacementSets, out.Dialogue = days, sets, lines
	return out, nil
}

func (s *SQLite) loadDays(ctx context.Context) ([]content.Day, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT ord, id, day_number FROM days ORDER BY ord`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var days []content.Day
	byOrd := map[int]int{}
	for rows.Next() {
		var ord int
		var d content.Day
		if err := rows.Scan(&ord, &d.ID, &d.DayNumber); err != nil {
			return nil, err
		}
		d.Blocks = []content.Block{}
		byOrd[ord] = len(days)
		days = append(days, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	brows, err := s.db.QueryContext(ctx, `SELECT day_ord, time, name, location_id, start_dialogue_id, end_dialogue_id
		FROM blocks ORDER BY day_ord, idx`)
	if err != nil {
		return nil, err
	}
	defer brows.Close()
	for brows.Next() {
		var ord int
		var b content.Block
		if err := brows.Scan(&ord, &b.Time, &b.Name, &b.LocationID, &b.StartDialogueID, &b.EndDialogueID); err != nil {
			return nil, err
		}
		if i, ok := byOrd[ord]; ok {
			days[i].Blocks = append(days[i].Blocks, b)
		}
	}
	return days, brows.Err()
}

func (s *SQLite) loadPlacementSets(ctx context.Context) ([]content.PlacementSet, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT ord, id, note FROM placement_sets ORDER BY ord`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sets []content.PlacementSet
	byOrd := map[int]int{}
	for rows.Next() {
		var ord int
		var set content.PlacementSet
		if err := rows.Scan(&ord, &set.ID, &set.Note); err != nil {
			return nil, err
		}
		set.Placements = []content.Placement{}
		byOrd[ord] = len(sets)
		sets = append(sets, set)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	prows, err := s.db.QueryContext(ctx, `SELECT set_ord, npc_id, anchor_id, event_id FROM placements ORDER BY set_ord, idx`)
	if err != nil {
		return nil, err
	}
	defer prows.Close()
	for prows.Next() {
		var ord int
		var p content.Placement
		if err := prows.Scan(&ord, &p.NPCID, &p.AnchorID, &p.EventID); err != nil {
			return nil, err
		}
		if i, ok := byOrd[ord]; ok {
			sets[i].Placements = append(sets[i].Placements, p)
		}
	}
	return sets, prows.Err()
}

func (s *SQLite) loadDialogue(ctx context.Context) ([]content.DialogueLine, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT dialogue_id, time, speaker, text FROM dialogue ORDER BY ord`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []content.DialogueLine
	for rows.Next() {
		var l content.DialogueLine
		if err := rows.Scan(&l.DialogueID, &l.Time, &l.Speaker, &l.Text); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}
