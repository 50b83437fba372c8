package corpus

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/hazyhaar/amyloid-notes/pkg/textnorm"
)

var (
	// ErrNotPreprocessed is returned when documents are requested from a
	// dataset whose extract has no cleaning path yet.
	ErrNotPreprocessed = errors.New("dataset not preprocessed")
	// ErrNoAnnotations is returned for datasets without an annotation file.
	ErrNoAnnotations = errors.New("no annotations for dataset")
	// ErrNoDiagnosis is returned for datasets without patient-level diagnoses.
	ErrNoDiagnosis = errors.New("no diagnosis data for dataset")
)

// Paths are the locations of a dataset's files. Empty means not available.
type Paths struct {
	Documents        string `json:"documents" yaml:"documents"`
	Annotations      string `json:"annotations,omitempty" yaml:"annotations,omitempty"`
	PatientDiagnosis string `json:"patient_diagnosis,omitempty" yaml:"patient_diagnosis,omitempty"`
}

// ReadOptions describes the layout of a dataset extract.
type ReadOptions struct {
	// Delimiter defaults to a comma.
	Delimiter rune
	// Encoding is an htmlindex name; empty means UTF-8.
	Encoding string
	// DropTrailer is the number of trailing rows to discard, e.g. the
	// "(n rows affected)" footer of a SQL export.
	DropTrailer int
}

// Dataset is one document source of the study.
type Dataset interface {
	// ID returns the unique identifier (e.g. "cardiac_path_reports").
	ID() string
	// Prefix is prepended to derived column names (e.g. "cp").
	Prefix() string
	Description() string
	// DocumentColumn names the column holding the free-text report.
	DocumentColumn() string
	// DateColumn names the column holding the document date.
	DateColumn() string
	// Mode selects the cleaner applied to the document column.
	Mode() textnorm.Mode
	// Preprocessed reports whether documents can be loaded from the extract.
	Preprocessed() bool
	DefaultPaths() Paths
	ReadOptions() ReadOptions
}

var (
	registryMu sync.RWMutex
	datasets   = make(map[string]Dataset)
)

// Register adds a dataset to the global registry.
func Register(d Dataset) {
	registryMu.Lock()
	defer registryMu.Unlock()
	datasets[d.ID()] = d
}

// Get returns a registered dataset by ID, or an error if not found.
func Get(id string) (Dataset, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	d, ok := datasets[id]
	if !ok {
		return nil, fmt.Errorf("unknown dataset: %q", id)
	}
	return d, nil
}

// All returns all registered datasets sorted by ID.
func All() []Dataset {
	registryMu.RLock()
	defer registryMu.RUnlock()
	result := make([]Dataset, 0, len(datasets))
	for _, d := range datasets {
		result = append(result, d)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID() < result[j].ID() })
	return result
}
