// Package journal keeps an optional local record of completed evaluations.
// It is append-only from the desk's point of view and never consulted to
// skip an evaluation.
package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/dyike/CortexReview/models"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

type Store struct {
	db  *sql.DB
	now func() time.Time
}

func Open(dbPath string) (*Store, error) {
	if strings.TrimSpace(dbPath) == "" {
		return nil, fmt.Errorf("db path is required")
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA busy_timeout=3000;",
		"PRAGMA synchronous=NORMAL;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set pragma %s: %w", p, err)
		}
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func initSchema(db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS evaluations (
    id TEXT PRIMARY KEY,
    image_id TEXT NOT NULL,
    source TEXT,
    provider TEXT,
    model TEXT,
    is_setup_valid INTEGER NOT NULL,
    verdict TEXT NOT NULL,
    setup_type TEXT NOT NULL,
    confluence_score INTEGER NOT NULL,
    result TEXT NOT NULL,
    created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_evaluations_setup ON evaluations(setup_type);
`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// Append stores the analysed image. Images without an analysis are refused.
func (s *Store) Append(ctx context.Context, img *models.TradeImage, provider, model string) (*models.JournalEntry, error) {
	if !img.HasAnalysis() {
		return nil, fmt.Errorf("image has no analysis to journal")
	}
	a := img.Analysis
	payload, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("encode analysis: %w", err)
	}

	entry := &models.JournalEntry{
		ID:              uuid.NewString(),
		ImageID:         img.ID,
		Source:          img.Source,
		Provider:        provider,
		Model:           model,
		IsSetupValid:    a.IsSetupValid,
		Verdict:         a.Verdict,
		SetupType:       a.SetupType,
		ConfluenceScore: a.ConfluenceScore,
		Result:          string(payload),
		CreatedAt:       s.now(),
	}

	res, err := s.db.ExecContext(ctx, `
INSERT INTO evaluations (id, image_id, source, provider, model, is_setup_valid, verdict, setup_type, confluence_score, result, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, entry.ID, entry.ImageID, entry.Source, entry.Provider, entry.Model, entry.IsSetupValid,
		entry.Verdict, entry.SetupType, entry.ConfluenceScore, entry.Result,
		entry.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("insert evaluation: %w", err)
	}
	entry.RowID, _ = res.LastInsertId()
	return entry, nil
}

const entryColumns = `rowid, id, image_id, source, provider, model, is_setup_valid, verdict, setup_type, confluence_score, result, created_at`

// ErrNotFound is returned by Get for an unknown row id.
var ErrNotFound = errors.New("journal entry not found")

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (models.JournalEntry, error) {
	var (
		rec       models.JournalEntry
		createdAt string
	)
	if err := row.Scan(&rec.RowID, &rec.ID, &rec.ImageID, &rec.Source, &rec.Provider, &rec.Model,
		&rec.IsSetupValid, &rec.Verdict, &rec.SetupType, &rec.ConfluenceScore, &rec.Result, &createdAt); err != nil {
		return rec, err
	}
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return rec, nil
}

// List 按 rowid 倒序分页列出评估记录
func (s *Store) List(ctx context.Context, params models.HistoryParams) ([]models.JournalEntry, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT `+entryColumns+`
FROM evaluations
WHERE (? = 0 OR rowid < ?)
ORDER BY rowid DESC
LIMIT ?
`, params.Cursor, params.Cursor, limit)
	if err != nil {
		return nil, fmt.Errorf("list evaluations: %w", err)
	}
	defer rows.Close()

	var entries []models.JournalEntry
	for rows.Next() {
		rec, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan evaluation: %w", err)
		}
		entries = append(entries, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list evaluations rows: %w", err)
	}
	return entries, nil
}

// Get returns the entry stored under rowID.
func (s *Store) Get(ctx context.Context, rowID int64) (*models.JournalEntry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM evaluations WHERE rowid = ?`, rowID)
	rec, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: #%d", ErrNotFound, rowID)
	}
	if err != nil {
		return nil, fmt.Errorf("get evaluation: %w", err)
	}
	return &rec, nil
}

// Decode returns the stored AnalysisResult of an entry.
func Decode(entry models.JournalEntry) (*models.AnalysisResult, error) {
	var r models.AnalysisResult
	if err := json.Unmarshal([]byte(entry.Result), &r); err != nil {
		return nil, fmt.Errorf("decode journal entry %s: %w", entry.ID, err)
	}
	return &r, nil
}
