package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/contactmerge/backend/internal/domain"
)

const contactsSchema = `
CREATE TABLE IF NOT EXISTS contacts (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	id         TEXT NOT NULL UNIQUE,
	fields     TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
)`

// SQLiteStore is a contact repository backed by a SQLite database.
// Fields are stored as a JSON object; seq keeps first-insertion order.
type SQLiteStore struct {
	conn *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path and initializes the schema
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single connection; SQLite allows one writer at a time
	conn.SetMaxOpenConns(1)
	conn.SetConnMaxLifetime(5 * time.Minute)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := conn.Exec(contactsSchema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{conn: conn}, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}

// List returns every contact in insertion order
func (s *SQLiteStore) List(ctx context.Context) ([]domain.ContactRecord, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT id, fields FROM contacts ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to query contacts: %w", err)
	}
	defer rows.Close()

	records := []domain.ContactRecord{}
	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		record, err := decodeContact(id, raw)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate contacts: %w", err)
	}

	return records, nil
}

// Get retrieves a contact by id
func (s *SQLiteStore) Get(ctx context.Context, id string) (domain.ContactRecord, error) {
	var raw string
	err := s.conn.QueryRowContext(ctx, `SELECT fields FROM contacts WHERE id = ?`, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ContactRecord{}, fmt.Errorf("%w: %q", domain.ErrContactNotFound, id)
	}
	if err != nil {
		return domain.ContactRecord{}, fmt.Errorf("failed to query contact %q: %w", id, err)
	}
	return decodeContact(id, raw)
}

// Save inserts or replaces a contact, keeping its original position
func (s *SQLiteStore) Save(ctx context.Context, record domain.ContactRecord) error {
	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("%w: contact id is required", domain.ErrInvalidRequest)
	}

	fields := record.Fields
	if fields == nil {
		fields = map[string]string{}
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to encode contact %q: %w", record.ID, err)
	}

	_, err = s.conn.ExecContext(ctx, `
		INSERT INTO contacts (id, fields, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET fields = excluded.fields, updated_at = excluded.updated_at`,
		record.ID, string(raw), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save contact %q: %w", record.ID, err)
	}
	return nil
}

// Delete removes contacts in a single transaction; unknown ids are ignored
func (s *SQLiteStore) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `DELETE FROM contacts WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare delete: %w", err)
	}
	defer stmt.Close()

	for _, id := range ids {
		if _, err := stmt.ExecContext(ctx, id); err != nil {
			return fmt.Errorf("failed to delete contact %q: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit delete: %w", err)
	}
	return nil
}

func decodeContact(id, raw string) (domain.ContactRecord, error) {
	var fields map[string]string
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return domain.ContactRecord{}, fmt.Errorf("failed to decode contact %q: %w", id, err)
	}
	return domain.NewContactRecord(id, fields), nil
}
