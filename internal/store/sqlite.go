package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/i474232898/tray-weather/internal/weather"
)

const schema = `
CREATE TABLE IF NOT EXISTS records (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    city TEXT NOT NULL,
    fetched_at TEXT NOT NULL,
    data TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_records_city ON records(city, id);`

// SQLiteStore implements weather.Store on a SQLite file so last-known
// conditions survive a restart. Records are stored as JSON.
type SQLiteStore struct {
	db         *sql.DB
	maxHistory int
}

// NewSQLite opens (or creates) the database at path and applies the schema.
// If maxHistory is <= 0, history is unlimited.
func NewSQLite(path string, maxHistory int) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLiteStore{db: db, maxHistory: maxHistory}, nil
}

func (s *SQLiteStore) Save(city string, rec weather.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT INTO records(city, fetched_at, data) VALUES(?,?,?)`,
		city, rec.FetchedAt.UTC().Format(time.RFC3339), string(data)); err != nil {
		return err
	}

	if s.maxHistory > 0 {
		if _, err := tx.Exec(`DELETE FROM records WHERE city = ? AND id NOT IN (
			SELECT id FROM records WHERE city = ? ORDER BY id DESC LIMIT ?)`,
			city, city, s.maxHistory); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) Latest(city string) (weather.Record, error) {
	var data string
	err := s.db.QueryRow(`SELECT data FROM records WHERE city = ? ORDER BY id DESC LIMIT 1`, city).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return weather.Record{}, ErrNotFound
	}
	if err != nil {
		return weather.Record{}, err
	}

	var rec weather.Record
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return weather.Record{}, fmt.Errorf("decode record: %w", err)
	}
	return rec, nil
}

// History returns up to limit records for a city, newest first.
func (s *SQLiteStore) History(city string, limit int) ([]weather.Record, error) {
	if limit <= 0 {
		limit = -1 // no limit in SQLite
	}
	rows, err := s.db.Query(`SELECT data FROM records WHERE city = ? ORDER BY id DESC LIMIT ?`, city, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []weather.Record
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var rec weather.Record
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			return nil, fmt.Errorf("decode record: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return out, nil
}

func (s *SQLiteStore) Delete(city string) error {
	_, err := s.db.Exec(`DELETE FROM records WHERE city = ?`, city)
	return err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
