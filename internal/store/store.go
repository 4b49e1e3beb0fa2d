// Package store keeps an optional SQLite translation memory for the CLI.
// The remote clients never consult it; the command layer decides when to
// read from and write to it.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned by Delete when no entry has the given ID.
var ErrNotFound = errors.New("entry not found")

type Store struct {
	db *sql.DB
}

type Entry struct {
	ID             string
	SourceText     string
	SourceLang     string
	TargetLang     string
	TranslatedText string
	Service        string
	UsageCount     int
	LastUsed       time.Time
	CreatedAt      time.Time
}

type Stats struct {
	TotalEntries int
	TotalUsage   int
	Services     map[string]int
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS translation_memory (
		id TEXT PRIMARY KEY,
		source_text TEXT NOT NULL,
		source_lang TEXT NOT NULL,
		target_lang TEXT NOT NULL,
		translated_text TEXT NOT NULL,
		service TEXT NOT NULL,
		usage_count INTEGER DEFAULT 1,
		last_used TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(source_text, source_lang, target_lang, service)
	);

	CREATE INDEX IF NOT EXISTS idx_translation_memory_last_used ON translation_memory(last_used);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Get returns the remembered translation for the key and bumps its usage.
func (s *Store) Get(ctx context.Context, sourceText, sourceLang, targetLang, service string) (string, bool, error) {
	key := normalizeText(sourceText)

	var translated string
	err := s.db.QueryRowContext(ctx,
		`SELECT translated_text FROM translation_memory WHERE source_text = ? AND source_lang = ? AND target_lang = ? AND service = ?`,
		key, sourceLang, targetLang, service).Scan(&translated)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE translation_memory SET usage_count = usage_count + 1, last_used = ? WHERE source_text = ? AND source_lang = ? AND target_lang = ? AND service = ?`,
		time.Now().UTC(), key, sourceLang, targetLang, service)

	return translated, true, err
}

// Put stores a translation, replacing any previous one for the same key.
func (s *Store) Put(ctx context.Context, sourceText, sourceLang, targetLang, service, translated string) (string, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO translation_memory (id, source_text, source_lang, target_lang, translated_text, service, usage_count, last_used, created_at)
		VALUES (?, ?, ?, ?, ?, ?, 1, ?, ?)
		ON CONFLICT(source_text, source_lang, target_lang, service) DO UPDATE SET
			id = excluded.id,
			translated_text = excluded.translated_text,
			last_used = excluded.last_used`,
		id, normalizeText(sourceText), sourceLang, targetLang, translated, service, now, now)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source_text, source_lang, target_lang, translated_text, service, usage_count, last_used, created_at FROM translation_memory ORDER BY last_used DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.SourceText, &e.SourceLang, &e.TargetLang, &e.TranslatedText, &e.Service, &e.UsageCount, &e.LastUsed, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{Services: map[string]int{}}

	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(usage_count), 0) FROM translation_memory`).Scan(&stats.TotalEntries, &stats.TotalUsage)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT service, COUNT(*) FROM translation_memory GROUP BY service`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var service string
		var n int
		if err := rows.Scan(&service, &n); err != nil {
			return nil, err
		}
		stats.Services[service] = n
	}

	return stats, rows.Err()
}

func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM translation_memory WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM translation_memory`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) Close() error {
	return s.db.Close()
}

// normalizeText makes canonically equivalent inputs share one cache key.
// Whitespace is significant.
func normalizeText(text string) string {
	return norm.NFC.String(text)
}
