package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

// upsert writes payload under key in one of the record tables
func (s *SQLiteStore) upsert(ctx context.Context, table, key string, v VersionedRecord, payload []byte) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO `+table+` (id, schema_version, codec_version, payload)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			schema_version = excluded.schema_version,
			codec_version = excluded.codec_version,
			payload = excluded.payload
	`, key, v.SchemaVersion, v.CodecVersion, payload)
	return err
}

func (s *SQLiteStore) payload(ctx context.Context, table, key string) ([]byte, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, false, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM `+table+` WHERE id = ?`, key).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return payload, true, nil
}

func (s *SQLiteStore) ids(ctx context.Context, table string) ([]string, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT id FROM `+table+` ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) SaveTemplate(ctx context.Context, tpl TemplateRecord) error {
	payload, err := EncodeTemplate(tpl)
	if err != nil {
		return err
	}
	return s.upsert(ctx, "templates", tpl.Name, tpl.VersionedRecord, payload)
}

func (s *SQLiteStore) GetTemplate(ctx context.Context, name string) (TemplateRecord, bool, error) {
	payload, ok, err := s.payload(ctx, "templates", name)
	if err != nil || !ok {
		return TemplateRecord{}, false, err
	}
	rec, err := DecodeTemplate(payload)
	if err != nil {
		return TemplateRecord{}, false, fmt.Errorf("decode template %s: %w", name, err)
	}
	return rec, true, nil
}

func (s *SQLiteStore) ListTemplates(ctx context.Context) ([]string, error) {
	return s.ids(ctx, "templates")
}

func (s *SQLiteStore) SaveState(ctx context.Context, st StateRecord) error {
	payload, err := EncodeStateRecord(st)
	if err != nil {
		return err
	}
	return s.upsert(ctx, "states", st.ID, st.VersionedRecord, payload)
}

func (s *SQLiteStore) GetState(ctx context.Context, id string) (StateRecord, bool, error) {
	payload, ok, err := s.payload(ctx, "states", id)
	if err != nil || !ok {
		return StateRecord{}, false, err
	}
	rec, err := DecodeStateRecord(payload)
	if err != nil {
		return StateRecord{}, false, fmt.Errorf("decode state %s: %w", id, err)
	}
	return rec, true, nil
}

func (s *SQLiteStore) SaveSnapshot(ctx context.Context, snap Snapshot) error {
	payload, err := EncodeSnapshot(snap)
	if err != nil {
		return err
	}
	return s.upsert(ctx, "snapshots", snap.ID, snap.VersionedRecord, payload)
}

func (s *SQLiteStore) GetSnapshot(ctx context.Context, id string) (Snapshot, bool, error) {
	payload, ok, err := s.payload(ctx, "snapshots", id)
	if err != nil || !ok {
		return Snapshot{}, false, err
	}
	snap, err := DecodeSnapshot(payload)
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("decode snapshot %s: %w", id, err)
	}
	return snap, true, nil
}

func (s *SQLiteStore) ListSnapshots(ctx context.Context) ([]string, error) {
	return s.ids(ctx, "snapshots")
}

func (s *SQLiteStore) DeleteSnapshot(ctx context.Context, id string) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `DELETE FROM snapshots WHERE id = ?`, id)
	return err
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, ErrNotInitialized
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	for _, table := range []string{"templates", "states", "snapshots"} {
		_, err := db.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS `+table+` (
				id TEXT PRIMARY KEY,
				schema_version INTEGER NOT NULL,
				codec_version INTEGER NOT NULL,
				payload BLOB NOT NULL
			)
		`)
		if err != nil {
			return fmt.Errorf("create %s table: %w", table, err)
		}
	}
	return nil
}
