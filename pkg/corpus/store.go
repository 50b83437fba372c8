package corpus

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/hazyhaar/amyloid-notes/pkg/keywords"
	_ "modernc.org/sqlite"
)

// Source represents a row from the dataset_sources table.
type Source struct {
	DatasetID   string
	Prefix      string
	Description string
	Path        string
	LastCheck   *int64
	LastStatus  *int
	LastError   *string
	UpdatedAt   int64
}

// Flag is one keyword group hit persisted for a document.
type Flag struct {
	DocumentID int64
	GroupID    string
	Keywords   []string
}

// Store keeps dataset sources, cleaned documents and keyword flags in SQLite.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS dataset_sources (
	dataset_id   TEXT PRIMARY KEY,
	prefix       TEXT NOT NULL DEFAULT '',
	description  TEXT NOT NULL,
	path         TEXT NOT NULL,
	last_check   INTEGER,
	last_status  INTEGER,
	last_error   TEXT,
	updated_at   INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS documents (
	dataset_id   TEXT NOT NULL,
	document_id  INTEGER NOT NULL,
	ir_id        INTEGER NOT NULL,
	doc_date     INTEGER,
	raw          TEXT NOT NULL,
	text         TEXT NOT NULL,
	ingested_at  INTEGER NOT NULL,
	PRIMARY KEY (dataset_id, document_id)
);
CREATE TABLE IF NOT EXISTS keyword_flags (
	dataset_id   TEXT NOT NULL,
	document_id  INTEGER NOT NULL,
	group_id     TEXT NOT NULL,
	keywords     TEXT NOT NULL,
	PRIMARY KEY (dataset_id, document_id, group_id)
);
CREATE INDEX IF NOT EXISTS idx_keyword_flags_group ON keyword_flags (dataset_id, group_id);
`

// OpenStore opens (or creates) the SQLite database at path and ensures the
// tables exist.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open corpus db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create corpus tables: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Seed inserts a row for each dataset with its default document path.
// Existing rows are left untouched so path overrides survive restarts.
func (s *Store) Seed(ds []Dataset) error {
	const q = `INSERT OR IGNORE INTO dataset_sources
		(dataset_id, prefix, description, path, updated_at)
		VALUES (?, ?, ?, ?, ?)`

	now := time.Now().Unix()
	for _, d := range ds {
		if _, err := s.db.Exec(q, d.ID(), d.Prefix(), d.Description(), d.DefaultPaths().Documents, now); err != nil {
			return fmt.Errorf("seed %s: %w", d.ID(), err)
		}
	}
	return nil
}

// GetPath returns the current document path for a dataset.
func (s *Store) GetPath(datasetID string) (string, error) {
	var path string
	err := s.db.QueryRow(`SELECT path FROM dataset_sources WHERE dataset_id = ?`, datasetID).Scan(&path)
	if err != nil {
		return "", fmt.Errorf("get path for %s: %w", datasetID, err)
	}
	return path, nil
}

// SetPath overrides the document path of a dataset.
func (s *Store) SetPath(datasetID, path string) error {
	res, err := s.db.Exec(
		`UPDATE dataset_sources SET path = ?, updated_at = ? WHERE dataset_id = ?`,
		path, time.Now().Unix(), datasetID,
	)
	if err != nil {
		return fmt.Errorf("set path for %s: %w", datasetID, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("dataset %s not found in dataset_sources", datasetID)
	}
	return nil
}

// UpdateCheck persists the result of an availability check.
func (s *Store) UpdateCheck(datasetID string, status int, checkErr string) error {
	now := time.Now().Unix()
	var errPtr *string
	if checkErr != "" {
		errPtr = &checkErr
	}
	_, err := s.db.Exec(
		`UPDATE dataset_sources SET last_check = ?, last_status = ?, last_error = ? WHERE dataset_id = ?`,
		now, status, errPtr, datasetID,
	)
	if err != nil {
		return fmt.Errorf("update check for %s: %w", datasetID, err)
	}
	return nil
}

// ListSources returns all rows from dataset_sources ordered by dataset_id.
func (s *Store) ListSources() ([]Source, error) {
	rows, err := s.db.Query(`SELECT dataset_id, prefix, description, path,
		last_check, last_status, last_error, updated_at
		FROM dataset_sources ORDER BY dataset_id`)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	defer rows.Close()

	var sources []Source
	for rows.Next() {
		var src Source
		if err := rows.Scan(&src.DatasetID, &src.Prefix, &src.Description, &src.Path,
			&src.LastCheck, &src.LastStatus, &src.LastError, &src.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		sources = append(sources, src)
	}
	return sources, rows.Err()
}

// PutDocuments replaces the given documents of a dataset and their keyword
// flags in one transaction. flags is keyed by document ID.
func (s *Store) PutDocuments(ctx context.Context, datasetID string, docs []Document, flags map[int64][]keywords.Hit) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	docStmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO documents
		(dataset_id, document_id, ir_id, doc_date, raw, text, ingested_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare documents: %w", err)
	}
	defer docStmt.Close()

	clearStmt, err := tx.PrepareContext(ctx, `DELETE FROM keyword_flags WHERE dataset_id = ? AND document_id = ?`)
	if err != nil {
		return fmt.Errorf("prepare flag cleanup: %w", err)
	}
	defer clearStmt.Close()

	flagStmt, err := tx.PrepareContext(ctx, `INSERT INTO keyword_flags
		(dataset_id, document_id, group_id, keywords) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare flags: %w", err)
	}
	defer flagStmt.Close()

	now := time.Now().Unix()
	for _, d := range docs {
		var date *int64
		if !d.Date.IsZero() {
			u := d.Date.Unix()
			date = &u
		}
		if _, err := docStmt.ExecContext(ctx, datasetID, d.DocumentID, d.IRID, date, d.Raw, d.Text, now); err != nil {
			return fmt.Errorf("insert document %d: %w", d.DocumentID, err)
		}
		if _, err := clearStmt.ExecContext(ctx, datasetID, d.DocumentID); err != nil {
			return fmt.Errorf("clear flags %d: %w", d.DocumentID, err)
		}
		for _, h := range flags[d.DocumentID] {
			if _, err := flagStmt.ExecContext(ctx, datasetID, d.DocumentID, h.GroupID, strings.Join(h.Keywords, "|")); err != nil {
				return fmt.Errorf("insert flag %d/%s: %w", d.DocumentID, h.GroupID, err)
			}
		}
	}
	return tx.Commit()
}

// Documents returns the stored documents of a dataset ordered by document ID.
func (s *Store) Documents(ctx context.Context, datasetID string) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT document_id, ir_id, doc_date, raw, text
		FROM documents WHERE dataset_id = ? ORDER BY document_id`, datasetID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var (
			d    Document
			date *int64
		)
		if err := rows.Scan(&d.DocumentID, &d.IRID, &date, &d.Raw, &d.Text); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		if date != nil {
			d.Date = time.Unix(*date, 0).UTC()
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// CountDocuments returns the number of stored documents of a dataset.
func (s *Store) CountDocuments(ctx context.Context, datasetID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents WHERE dataset_id = ?`, datasetID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count documents %s: %w", datasetID, err)
	}
	return n, nil
}

// Flags returns the keyword flags stored for one document, by group ID.
func (s *Store) Flags(ctx context.Context, datasetID string, documentID int64) ([]Flag, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT group_id, keywords FROM keyword_flags
		WHERE dataset_id = ? AND document_id = ? ORDER BY group_id`, datasetID, documentID)
	if err != nil {
		return nil, fmt.Errorf("list flags: %w", err)
	}
	defer rows.Close()

	var flags []Flag
	for rows.Next() {
		f := Flag{DocumentID: documentID}
		var kws string
		if err := rows.Scan(&f.GroupID, &kws); err != nil {
			return nil, fmt.Errorf("scan flag: %w", err)
		}
		f.Keywords = strings.Split(kws, "|")
		flags = append(flags, f)
	}
	return flags, rows.Err()
}

// FlaggedDocuments returns the IDs of the documents of a dataset that
// keyword group groupID flagged.
func (s *Store) FlaggedDocuments(ctx context.Context, datasetID, groupID string) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT document_id FROM keyword_flags
		WHERE dataset_id = ? AND group_id = ? ORDER BY document_id`, datasetID, groupID)
	if err != nil {
		return nil, fmt.Errorf("list flagged documents: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan document id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
