package keywords

import (
	"fmt"
	"path/filepath"
)

const defaultsVersion = "2023-v14"

// DefaultGroups returns the keyword groups used to flag amyloidosis reports.
// Keywords with a leading or trailing space only match at a word edge.
func DefaultGroups() []*Manifest {
	return []*Manifest{
		substring("amyloid", "diagnosis", "Any mention of amyloid deposits or amyloidosis",
			"amyloid", "amyloidosis", "cardiac amyloid", "cardiac amyloidosis"),
		substring("ttr", "subtype", "Transthyretin (ATTR) amyloidosis",
			"attr", " ttr", "transthyretin", "prealbumin", "httr", "hereditary", "familial",
			"wttr", "wild type", "wild-type", "wtattr", "hattr"),
		substring("al", "subtype", "Light chain (AL) amyloidosis",
			" al", "lambda light chain", "light chain", "kappa light chain", "al type",
			"al (lambda) type", "al (lambda)-type", "al lambda type", "lambda", "al "),
		substring("wttr", "subtype", "Wild-type (senile) ATTR",
			"wild type", "wild-type", "wttr", "wtattr", "agerelated", "age-related",
			"age related", "senile"),
		substring("httr", "subtype", "Hereditary ATTR",
			"hereditary", "httr", "hattr", "familial"),
		substring("congo-red-stain", "stain", "Congo red staining",
			"congo", "congo red", "congo red stain"),
		substring("heart-biopsy", "specimen", "Specimen taken from the heart",
			"endomyocardial tissue", "cardiac", "endomyocardial biopsy", "endomyocardium"),
		substring("not-heart-biopsy", "specimen", "Specimen not from a heart biopsy",
			"autopsy", "valve"),
		substring("bkr", "review", "Reviewed by the BKR pathologist", "bkr"),
		substring("formal-diagnosis", "review", "Formal diagnosis statement", "formal diagnosis"),
		substring("attr-annotation", "subtype", "Subtype terms used by the annotation guide",
			"transthyretin", "prealbumin", "attr", "amyloidosis, al (lambda) type",
			"lambda light chain", "kappa light chain", "light chain"),
		{
			ID:          "report-dates",
			Version:     defaultsVersion,
			Category:    "date",
			Description: "Slash-separated calendar dates (m/d/yy, mm/dd/yyyy)",
			Source:      "built-in",
			Method:      MethodPattern,
			Patterns: []PatternSpec{{
				Name:      "mdy",
				Regex:     `\b(?:1[0-2]|0?[1-9])/(?:3[01]|[12][0-9]|0?[1-9])/(?:[0-9]{2})?[0-9]{2}\b`,
				Validator: "mdy_date",
			}},
		},
	}
}

func substring(id, category, description string, kws ...string) *Manifest {
	return &Manifest{
		ID:          id,
		Version:     defaultsVersion,
		Category:    category,
		Description: description,
		Source:      "built-in",
		Method:      MethodSubstring,
		Keywords:    kws,
	}
}

// ExportDefaults writes every default group as dir/<id>/manifest.yaml so the
// lists can be edited and loaded back with a Registry on dir.
func ExportDefaults(dir string) error {
	for _, m := range DefaultGroups() {
		if err := WriteManifest(filepath.Join(dir, m.ID), m); err != nil {
			return fmt.Errorf("export %s: %w", m.ID, err)
		}
	}
	return nil
}
