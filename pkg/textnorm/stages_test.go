package textnorm

import "testing"

func TestReplaceUnicodeNewlines(t *testing.T) {
	tests := []struct {
		input, want string
	}{
		{"a\x0bb", "a\nb"},
		{"café ✓", "caf "},
		{"naïve text", "navetext"},
		{"ok\xffok", "okok"},
		{"plain ascii", "plain ascii"},
		{"", ""},
	}
	for _, tt := range tests {
		got := ReplaceUnicodeNewlines(tt.input)
		if got != tt.want {
			t.Errorf("ReplaceUnicodeNewlines(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestFixDoubleDashes(t *testing.T) {
	tests := []struct {
		input, want string
	}{
		{"a--b", "a\nb"},
		{"a---b----c", "a\nb\nc"},
		{"left-ventricle", "left-ventricle"},
	}
	for _, tt := range tests {
		got := FixDoubleDashes(tt.input)
		if got != tt.want {
			t.Errorf("FixDoubleDashes(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestFixQuestionMarks(t *testing.T) {
	tests := []struct {
		input, want string
	}{
		{"positive.?Next", "positive. Next"},
		{"DIAGNOSIS?Amyloid", "DIAGNOSIS\nAmyloid"},
		{"a?b?c", "a\nb\nc"},
		{"end ?\nnext", "end \nnext"},
		{"end\n? next", "end\n next"},
		{"really?", "really?"},
		{"why? because", "why? because"},
	}
	for _, tt := range tests {
		got := FixQuestionMarks(tt.input)
		if got != tt.want {
			t.Errorf("FixQuestionMarks(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestFixClinical(t *testing.T) {
	tests := []struct {
		input, want string
	}{
		{"see commentClinical history", "see comment. Clinical history"},
		{"REVIEWCLINICAL", "REVIEW. CLINICAL"},
		{"Clinical history", "Clinical history"},
		{"has Clinical", "has Clinical"},
	}
	for _, tt := range tests {
		got := FixClinical(tt.input)
		if got != tt.want {
			t.Errorf("FixClinical(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestFixAmyloid(t *testing.T) {
	tests := []struct {
		input, want string
	}{
		{"AMYLOIDOSISA. type", "AMYLOIDOSIS . A. type"},
		{"amyloidx. seen", "amyloid . x. seen"},
		{"cardiac amyoidosis", "cardiac amyloidosis"},
		{"CARDIAC AMYOIDOSIS", "CARDIAC AMYLOIDOSIS"},
		{"amyloidosis.", "amyloidosis."},
		{"AMYLOID deposits", "AMYLOID deposits"},
	}
	for _, tt := range tests {
		got := FixAmyloid(tt.input)
		if got != tt.want {
			t.Errorf("FixAmyloid(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestRemoveExtraSpaces(t *testing.T) {
	tests := []struct {
		input, want string
	}{
		{"a\n\n\nb", "a\nb"},
		{"a  \t b", "a b"},
		{"a\n \nb", "a b"},
		{"a\n\n\tb", "a b"},
		{"a  b", "a b"},
		{"a\x0b\x0bb", "a b"},
		{"single space", "single space"},
	}
	for _, tt := range tests {
		got := RemoveExtraSpaces(tt.input)
		if got != tt.want {
			t.Errorf("RemoveExtraSpaces(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

// A bare newline pair must survive as one newline, not become a space; the
// later newline-to-period stage depends on it.
func TestRemoveExtraSpaces_NewlinePassFirst(t *testing.T) {
	got := NewlinesToPeriods(RemoveExtraSpaces("FINAL DIAGNOSIS\n\nHeart"))
	if got != "FINAL DIAGNOSIS. Heart" {
		t.Errorf("got %q, want %q", got, "FINAL DIAGNOSIS. Heart")
	}
}

func TestNewlinesToPeriods(t *testing.T) {
	if got := NewlinesToPeriods("a\nb\nc"); got != "a. b. c" {
		t.Errorf("NewlinesToPeriods = %q, want %q", got, "a. b. c")
	}
}

func TestFixPeriods(t *testing.T) {
	tests := []struct {
		input, want string
	}{
		{"verified.A. next", "verified. A. next"},
		{"end.THE", "end. THE"},
		{"end.The", "end. The"},
		{"end.No", "end.No"},
		{"wait...what", "wait.what"},
		{"x..ABC", "x. ABC"},
		{"3.5 cm", "3.5 cm"},
	}
	for _, tt := range tests {
		got := FixPeriods(tt.input)
		if got != tt.want {
			t.Errorf("FixPeriods(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestFixColons(t *testing.T) {
	tests := []struct {
		input, want string
	}{
		{"findings:-normal", "findings: normal"},
		{"note:.x", "note: x"},
		{"a: b", "a: b"},
		{"10:30", "10:30"},
	}
	for _, tt := range tests {
		got := FixColons(tt.input)
		if got != tt.want {
			t.Errorf("FixColons(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
