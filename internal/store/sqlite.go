package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/MarcoLSC/echo-emergent/internal/types"
	_ "modernc.org/sqlite"
)

// Compile-time interface check
var _ Store = (*SQLiteStore)(nil)

// SQLiteStore keeps the preference record as a single JSON document in a
// keyed row. Every mutation is a read-modify-write cycle; the mutex makes
// the single-writer assumption explicit within this process. Across
// processes the semantics stay last-writer-wins.
type SQLiteStore struct {
	db   *sql.DB
	name string

	mu sync.Mutex
}

// NewSQLiteStore opens (or creates) the database at dbPath and binds the
// store to the record stored under name. It enables WAL mode and runs the
// embedded migrations.
func NewSQLiteStore(dbPath, name string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := enablePragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable pragmas: %w", err)
	}

	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	if name == "" {
		name = DefaultRecordName
	}

	return &SQLiteStore{db: db, name: name}, nil
}

// enablePragmas sets SQLite pragmas for performance and safety.
func enablePragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %s: %w", pragma, err)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// History returns the current preference record.
func (s *SQLiteStore) History(ctx context.Context) types.PreferenceRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// RecordInteraction accumulates preference weight for category. Accepted
// suggestions weigh double. Retained text is truncated to keep the record
// small.
func (s *SQLiteStore) RecordInteraction(ctx context.Context, category types.Category, text string, accepted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.load(ctx)
	if !rec.DataCollectionEnabled {
		return
	}

	weight := recordedWeight
	if accepted {
		weight = acceptedWeight
	}
	rec.CategoryPreferences[category] += weight

	entry := types.RecentInteraction{
		Category:  category,
		Timestamp: time.Now().UTC(),
		Text:      truncate(text, maxRecentTextLen),
	}
	rec.LastInteractions = append([]types.RecentInteraction{entry}, rec.LastInteractions...)
	if len(rec.LastInteractions) > maxRecentInteractions {
		rec.LastInteractions = rec.LastInteractions[:maxRecentInteractions]
	}

	rec.TotalInteractions++

	s.save(ctx, rec)
}

// ToggleDataCollection flips the flag. Disabling is destructive: all
// accumulated weights, the recent log, and the total counter are wiped
// immediately. Re-enabling restores nothing.
func (s *SQLiteStore) ToggleDataCollection(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.load(ctx)
	rec.DataCollectionEnabled = !rec.DataCollectionEnabled

	if !rec.DataCollectionEnabled {
		defaults := types.DefaultPreferenceRecord()
		rec.CategoryPreferences = defaults.CategoryPreferences
		rec.LastInteractions = defaults.LastInteractions
		rec.TotalInteractions = 0
	}

	s.save(ctx, rec)
	return rec.DataCollectionEnabled
}

// ClearHistory resets the record to defaults, collection enabled.
func (s *SQLiteStore) ClearHistory(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.save(ctx, types.DefaultPreferenceRecord())
}

// PreferredCategories returns every category sorted by descending weight,
// ties resolved by the fixed enumeration order.
func (s *SQLiteStore) PreferredCategories(ctx context.Context) []types.Category {
	rec := s.History(ctx)

	order := make(map[types.Category]int, len(types.Categories))
	for i, c := range types.Categories {
		order[c] = i
	}

	out := append([]types.Category(nil), types.Categories...)
	sort.SliceStable(out, func(i, j int) bool {
		wi, wj := rec.CategoryPreferences[out[i]], rec.CategoryPreferences[out[j]]
		if wi != wj {
			return wi > wj
		}
		return order[out[i]] < order[out[j]]
	})

	return out
}

// load reads the record, degrading to the zeroed default on any failure.
func (s *SQLiteStore) load(ctx context.Context) types.PreferenceRecord {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT record FROM preference_records WHERE name = ?`, s.name,
	).Scan(&raw)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			slog.Warn("preference record read failed, using defaults", "error", err, "name", s.name)
		}
		return types.DefaultPreferenceRecord()
	}

	var rec types.PreferenceRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		slog.Warn("preference record malformed, using defaults", "error", err, "name", s.name)
		return types.DefaultPreferenceRecord()
	}

	// Fill gaps left by older or hand-edited rows.
	if rec.CategoryPreferences == nil {
		rec.CategoryPreferences = make(map[types.Category]int, len(types.Categories))
	}
	for _, c := range types.Categories {
		if _, ok := rec.CategoryPreferences[c]; !ok {
			rec.CategoryPreferences[c] = 0
		}
	}
	if rec.LastInteractions == nil {
		rec.LastInteractions = []types.RecentInteraction{}
	}

	return rec
}

// save writes the record. Failures are logged and swallowed; no retry.
func (s *SQLiteStore) save(ctx context.Context, rec types.PreferenceRecord) {
	data, err := json.Marshal(rec)
	if err != nil {
		slog.Error("preference record encode failed", "error", err, "name", s.name)
		return
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO preference_records (name, record, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET record = excluded.record, updated_at = excluded.updated_at
	`, s.name, string(data), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		slog.Error("preference record write failed", "error", err, "name", s.name)
	}
}

// truncate limits s to max runes.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
