package corpus

import (
	"path/filepath"

	"github.com/hazyhaar/amyloid-notes/pkg/textnorm"
)

// DataRoot is where the study extracts live unless overridden per dataset.
const DataRoot = "/data/datasets/Amyloidosis"

func init() {
	Register(&builtin{
		id:          "cardiac_path_reports",
		prefix:      "cp",
		description: "Cardiac pathology reports",
		document:    "cardiac_path_report",
		date:        "report_date",
		mode:        textnorm.ModeCardiacPath,
		paths: Paths{
			Documents:        filepath.Join(DataRoot, "datasets", "cardiac_path_reports", "Amyloidosis Patients Cardiac Path.csv"),
			Annotations:      filepath.Join(DataRoot, "annotations", "cardiac_path_reports", "cardiac_path_annotations_v12.csv"),
			PatientDiagnosis: filepath.Join(DataRoot, "patient_amyloid_diagnosis", "cardiac_path_reports", "patient_amyloid_diagnosis.csv"),
		},
	})
	Register(&builtin{
		id:          "pyp_reports",
		prefix:      "pyp",
		description: "Technetium pyrophosphate scan reports",
		document:    "reg1",
		date:        "created_date_key",
		mode:        textnorm.ModePYP,
		paths: Paths{
			Documents:        filepath.Join(DataRoot, "datasets", "pyp_reports", "Amyloidosis Patients PYP Reports.csv"),
			Annotations:      filepath.Join(DataRoot, "annotations", "pyp_reports", "pyp_annotations_v6.csv"),
			PatientDiagnosis: filepath.Join(DataRoot, "patient_amyloid_diagnosis", "pyp_reports", "patient_amyloid_diagnosis.csv"),
		},
	})
	Register(&builtin{
		id:          "mayo_labs",
		prefix:      "mayo",
		description: "Mayo lab result notes grouped with cp/pyp labels",
		document:    "result_note",
		date:        "order_date_key",
		mode:        textnorm.ModeNone,
		paths: Paths{
			Documents:   filepath.Join(DataRoot, "datasets", "mayo_labs", "Amyloidosis Patients Mayo Lab Results - GROUPED - cp_pyp labels.csv"),
			Annotations: filepath.Join(DataRoot, "annotations", "mayo_labs", "mayo_labs_annotations_v14.csv"),
		},
	})
	Register(&builtin{
		id:          "hf_subtype",
		description: "Heart failure subtype extract",
		raw:         true,
		paths: Paths{
			Documents: filepath.Join(DataRoot, "datasets", "Amyloidosis Patients HF_Subtype.csv"),
		},
		read: ReadOptions{Delimiter: '|', Encoding: "utf-8", DropTrailer: 2},
	})
}

// builtin is a dataset whose layout is fixed at compile time.
type builtin struct {
	id, prefix, description string
	document, date          string
	mode                    textnorm.Mode
	raw                     bool
	paths                   Paths
	read                    ReadOptions
}

func (b *builtin) ID() string               { return b.id }
func (b *builtin) Prefix() string           { return b.prefix }
func (b *builtin) Description() string      { return b.description }
func (b *builtin) DocumentColumn() string   { return b.document }
func (b *builtin) DateColumn() string       { return b.date }
func (b *builtin) Mode() textnorm.Mode      { return b.mode }
func (b *builtin) Preprocessed() bool       { return !b.raw }
func (b *builtin) DefaultPaths() Paths      { return b.paths }
func (b *builtin) ReadOptions() ReadOptions { return b.read }
