package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"codechunk/internal/chunk"
	"codechunk/internal/graph"
	"codechunk/internal/index"
)

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates or opens a SQLite database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var _ Store = (*SQLiteStore)(nil)

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS chunks (
			id TEXT PRIMARY KEY,
			type TEXT NOT NULL,
			name TEXT NOT NULL,
			content TEXT,
			path TEXT,
			start_line INTEGER,
			end_line INTEGER,
			metadata JSON
		);`,
		`CREATE TABLE IF NOT EXISTS relationships (
			source TEXT NOT NULL,
			target TEXT NOT NULL,
			kind TEXT NOT NULL,
			confidence REAL NOT NULL,
			PRIMARY KEY (source, target, kind)
		);`,
		`CREATE TABLE IF NOT EXISTS diagnostics (
			path TEXT NOT NULL,
			line INTEGER,
			message TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS unresolved (
			source TEXT NOT NULL,
			target TEXT NOT NULL,
			kind TEXT NOT NULL,
			reason TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_path ON chunks(path);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// SaveSnapshot replaces the stored run with snap inside one transaction.
func (s *SQLiteStore) SaveSnapshot(ctx context.Context, snap index.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"chunks", "relationships", "diagnostics", "unresolved", "meta"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}

	chunkStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, type, name, content, path, start_line, end_line, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer chunkStmt.Close()

	for _, c := range snap.Chunks {
		meta, err := json.Marshal(c.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata of %s: %w", c.ID, err)
		}
		var path, start, end any
		if c.Location != nil {
			path, start, end = c.Location.Path, c.Location.StartLine, c.Location.EndLine
		}
		if _, err := chunkStmt.ExecContext(ctx, c.ID, string(c.Type), c.Name, c.Content, path, start, end, meta); err != nil {
			return err
		}
	}

	relStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO relationships (source, target, kind, confidence) VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer relStmt.Close()

	for _, rel := range snap.Relationships {
		if _, err := relStmt.ExecContext(ctx, rel.Source, rel.Target, string(rel.Kind), rel.Confidence); err != nil {
			return err
		}
	}

	for _, d := range snap.Diagnostics {
		if _, err := tx.ExecContext(ctx, "INSERT INTO diagnostics (path, line, message) VALUES (?, ?, ?)", d.Path, d.Line, d.Message); err != nil {
			return err
		}
	}
	for _, u := range snap.Unresolved {
		if _, err := tx.ExecContext(ctx, "INSERT INTO unresolved (source, target, kind, reason) VALUES (?, ?, ?, ?)", u.Source, u.Target, string(u.Kind), string(u.Reason)); err != nil {
			return err
		}
	}

	for key, value := range map[string]string{
		"version": snap.Version,
		"root":    snap.Root,
		"commit":  snap.Commit,
	} {
		if _, err := tx.ExecContext(ctx, "INSERT INTO meta (key, value) VALUES (?, ?)", key, value); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// LoadSnapshot reads the stored run back. Row order follows insertion
// order, so a loaded snapshot matches the saved one exactly.
func (s *SQLiteStore) LoadSnapshot(ctx context.Context) (index.Snapshot, error) {
	var snap index.Snapshot

	metaRows, err := s.db.QueryContext(ctx, "SELECT key, value FROM meta")
	if err != nil {
		return snap, fmt.Errorf("query meta: %w", err)
	}
	defer metaRows.Close()
	for metaRows.Next() {
		var key, value string
		if err := metaRows.Scan(&key, &value); err != nil {
			return snap, err
		}
		switch key {
		case "version":
			snap.Version = value
		case "root":
			snap.Root = value
		case "commit":
			snap.Commit = value
		}
	}
	if err := metaRows.Err(); err != nil {
		return snap, err
	}

	rows, err := s.db.QueryContext(ctx, "SELECT id, type, name, content, path, start_line, end_line, metadata FROM chunks ORDER BY rowid")
	if err != nil {
		return snap, fmt.Errorf("query chunks: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		c, err := scanChunk(rows)
		if err != nil {
			return snap, err
		}
		snap.Chunks = append(snap.Chunks, c)
	}
	if err := rows.Err(); err != nil {
		return snap, err
	}

	relRows, err := s.db.QueryContext(ctx, "SELECT source, target, kind, confidence FROM relationships ORDER BY rowid")
	if err != nil {
		return snap, fmt.Errorf("query relationships: %w", err)
	}
	defer relRows.Close()
	for relRows.Next() {
		var rel chunk.Relationship
		var kind string
		if err := relRows.Scan(&rel.Source, &rel.Target, &kind, &rel.Confidence); err != nil {
			return snap, err
		}
		rel.Kind = chunk.RelationKind(kind)
		snap.Relationships = append(snap.Relationships, rel)
	}
	if err := relRows.Err(); err != nil {
		return snap, err
	}

	diagRows, err := s.db.QueryContext(ctx, "SELECT path, line, message FROM diagnostics ORDER BY rowid")
	if err != nil {
		return snap, fmt.Errorf("query diagnostics: %w", err)
	}
	defer diagRows.Close()
	for diagRows.Next() {
		var d chunk.Diagnostic
		if err := diagRows.Scan(&d.Path, &d.Line, &d.Message); err != nil {
			return snap, err
		}
		snap.Diagnostics = append(snap.Diagnostics, d)
	}
	if err := diagRows.Err(); err != nil {
		return snap, err
	}

	unresolvedRows, err := s.db.QueryContext(ctx, "SELECT source, target, kind, reason FROM unresolved ORDER BY rowid")
	if err != nil {
		return snap, fmt.Errorf("query unresolved: %w", err)
	}
	defer unresolvedRows.Close()
	for unresolvedRows.Next() {
		var u graph.Unresolved
		var kind, reason string
		if err := unresolvedRows.Scan(&u.Source, &u.Target, &kind, &reason); err != nil {
			return snap, err
		}
		u.Kind = chunk.RelationKind(kind)
		u.Reason = graph.UnresolvedReason(reason)
		snap.Unresolved = append(snap.Unresolved, u)
	}
	if err := unresolvedRows.Err(); err != nil {
		return snap, err
	}

	snap.TotalChunks = len(snap.Chunks)
	snap.TotalRelationships = len(snap.Relationships)
	return snap, nil
}

// GetChunk retrieves one chunk by id.
func (s *SQLiteStore) GetChunk(ctx context.Context, id string) (chunk.Chunk, error) {
	row := s.db.QueryRowContext(ctx, "SELECT id, type, name, content, path, start_line, end_line, metadata FROM chunks WHERE id = ?", id)
	return scanChunk(row)
}

// FindChunksByFile retrieves every chunk extracted from one file.
func (s *SQLiteStore) FindChunksByFile(ctx context.Context, path string) ([]chunk.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, type, name, content, path, start_line, end_line, metadata FROM chunks WHERE path = ? ORDER BY rowid", path)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []chunk.Chunk
	for rows.Next() {
		c, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanChunk(row rowScanner) (chunk.Chunk, error) {
	var c chunk.Chunk
	var ctype string
	var path sql.NullString
	var start, end sql.NullInt64
	var meta []byte

	if err := row.Scan(&c.ID, &ctype, &c.Name, &c.Content, &path, &start, &end, &meta); err != nil {
		return c, err
	}
	c.Type = chunk.Type(ctype)
	if path.Valid {
		c.Location = &chunk.Location{Path: path.String, StartLine: int(start.Int64), EndLine: int(end.Int64)}
	}

	decoded, err := chunk.DecodeMetadata(c.Type, meta)
	if err != nil {
		return c, fmt.Errorf("chunk %s: %w", c.ID, err)
	}
	c.Metadata = decoded
	return c, nil
}
