package corpus

import (
	"context"
	"fmt"
	"time"

	"github.com/hazyhaar/amyloid-notes/pkg/textnorm"
)

// Document is one report of a dataset.
type Document struct {
	DocumentID int64     `json:"document_id"`
	IRID       int64     `json:"ir_id"`
	Date       time.Time `json:"date"`
	Raw        string    `json:"raw"`
	Text       string    `json:"text"`
}

// LoadResult holds the documents read from an extract.
type LoadResult struct {
	Documents []Document
	// Skipped counts rows with an empty document column.
	Skipped int
}

// LoadDocuments reads the extract at path and cleans each document with the
// dataset's mode.
func LoadDocuments(ctx context.Context, ds Dataset, path string, n *textnorm.Normalizer) (*LoadResult, error) {
	res, err := readDocuments(ctx, ds, path)
	if err != nil {
		return nil, err
	}
	clean, err := n.Func(ds.Mode())
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", ds.ID(), err)
	}
	for i := range res.Documents {
		if i%1000 == 0 && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		res.Documents[i].Text = clean(res.Documents[i].Raw)
	}
	return res, nil
}

// readDocuments parses the extract without cleaning.
func readDocuments(ctx context.Context, ds Dataset, path string) (*LoadResult, error) {
	if !ds.Preprocessed() {
		return nil, fmt.Errorf("%w: %s", ErrNotPreprocessed, ds.ID())
	}
	t, err := ReadTable(ctx, path, ds.ReadOptions())
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", ds.ID(), err)
	}
	if err := t.require("document_ID", "ir_id", ds.DateColumn(), ds.DocumentColumn()); err != nil {
		return nil, fmt.Errorf("dataset %s: %w", ds.ID(), err)
	}

	res := &LoadResult{Documents: make([]Document, 0, len(t.Rows))}
	for i, row := range t.Rows {
		raw := t.Value(row, ds.DocumentColumn())
		if raw == "" {
			res.Skipped++
			continue
		}
		doc := Document{Raw: raw}
		if doc.DocumentID, err = parseID(t.Value(row, "document_ID")); err != nil {
			return nil, fmt.Errorf("dataset %s row %d: document_ID: %w", ds.ID(), i+2, err)
		}
		if doc.IRID, err = parseID(t.Value(row, "ir_id")); err != nil {
			return nil, fmt.Errorf("dataset %s row %d: ir_id: %w", ds.ID(), i+2, err)
		}
		if doc.Date, err = parseDate(t.Value(row, ds.DateColumn())); err != nil {
			return nil, fmt.Errorf("dataset %s row %d: %s: %w", ds.ID(), i+2, ds.DateColumn(), err)
		}
		res.Documents = append(res.Documents, doc)
	}
	return res, nil
}

// LoadRaw reads a dataset extract as a table with the dataset's read
// options. It works for datasets that are not preprocessed.
func LoadRaw(ctx context.Context, ds Dataset, path string) (*Table, error) {
	t, err := ReadTable(ctx, path, ds.ReadOptions())
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", ds.ID(), err)
	}
	return t, nil
}

// Annotation is one human-labelled document. Labels holds every column
// besides the identifiers and the date.
type Annotation struct {
	DocumentID int64             `json:"document_id"`
	IRID       int64             `json:"ir_id"`
	Date       time.Time         `json:"date"`
	Labels     map[string]string `json:"labels"`
}

// LoadAnnotations reads the annotation file of a dataset.
func LoadAnnotations(ctx context.Context, ds Dataset, path string) ([]Annotation, error) {
	if path == "" || ds.DateColumn() == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoAnnotations, ds.ID())
	}
	t, err := ReadTable(ctx, path, ReadOptions{})
	if err != nil {
		return nil, fmt.Errorf("annotations %s: %w", ds.ID(), err)
	}
	if err := t.require("document_ID", "ir_id", ds.DateColumn()); err != nil {
		return nil, fmt.Errorf("annotations %s: %w", ds.ID(), err)
	}

	fixed := map[string]bool{"document_ID": true, "ir_id": true, ds.DateColumn(): true}
	out := make([]Annotation, 0, len(t.Rows))
	for i, row := range t.Rows {
		var a Annotation
		if a.DocumentID, err = parseID(t.Value(row, "document_ID")); err != nil {
			return nil, fmt.Errorf("annotations %s row %d: document_ID: %w", ds.ID(), i+2, err)
		}
		if a.IRID, err = parseID(t.Value(row, "ir_id")); err != nil {
			return nil, fmt.Errorf("annotations %s row %d: ir_id: %w", ds.ID(), i+2, err)
		}
		if a.Date, err = parseDate(t.Value(row, ds.DateColumn())); err != nil {
			return nil, fmt.Errorf("annotations %s row %d: %w", ds.ID(), i+2, err)
		}
		a.Labels = make(map[string]string)
		for j, h := range t.Header {
			if fixed[h] || j >= len(row) {
				continue
			}
			a.Labels[h] = row[j]
		}
		out = append(out, a)
	}
	return out, nil
}

// PatientDiagnosis is the patient-level amyloidosis label of a dataset.
type PatientDiagnosis struct {
	IRID      int64      `json:"ir_id"`
	Diagnosis int64      `json:"diagnosis"`
	Date      *time.Time `json:"date,omitempty"`
}

// DiagnosisColumns returns the diagnosis and diagnosis-date column names
// for a dataset prefix.
func DiagnosisColumns(prefix string) (diagnosis, date string) {
	diagnosis = prefix + "__amyloid_diagnosis"
	return diagnosis, diagnosis + "_date"
}

// LoadPatientDiagnosis reads the patient diagnosis file of a dataset.
func LoadPatientDiagnosis(ctx context.Context, ds Dataset, path string) ([]PatientDiagnosis, error) {
	if path == "" || ds.Prefix() == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoDiagnosis, ds.ID())
	}
	diagCol, dateCol := DiagnosisColumns(ds.Prefix())

	t, err := ReadTable(ctx, path, ReadOptions{})
	if err != nil {
		return nil, fmt.Errorf("diagnosis %s: %w", ds.ID(), err)
	}
	if err := t.require("ir_id", diagCol, dateCol); err != nil {
		return nil, fmt.Errorf("diagnosis %s: %w", ds.ID(), err)
	}

	out := make([]PatientDiagnosis, 0, len(t.Rows))
	for i, row := range t.Rows {
		var p PatientDiagnosis
		if p.IRID, err = parseID(t.Value(row, "ir_id")); err != nil {
			return nil, fmt.Errorf("diagnosis %s row %d: ir_id: %w", ds.ID(), i+2, err)
		}
		if p.Diagnosis, err = parseID(t.Value(row, diagCol)); err != nil {
			return nil, fmt.Errorf("diagnosis %s row %d: %s: %w", ds.ID(), i+2, diagCol, err)
		}
		d, err := parseDate(t.Value(row, dateCol))
		if err != nil {
			return nil, fmt.Errorf("diagnosis %s row %d: %s: %w", ds.ID(), i+2, dateCol, err)
		}
		if !d.IsZero() {
			p.Date = &d
		}
		out = append(out, p)
	}
	return out, nil
}
