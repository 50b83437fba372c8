package textnorm

import "testing"

func TestSplitCamelCase(t *testing.T) {
	tests := []struct {
		input, want string
	}{
		{"LeftVentricle", "Left Ventricle"},
		{"A", "A"},
		{"", ""},
		{"congoRedStain", "congo Red Stain"},
		{"wtATTR", "wt ATTR"},
		{"ATTRcm", "ATTRcm"},
		{"already split", "already split"},
		{"lowercase", "lowercase"},
	}
	for _, tt := range tests {
		got := SplitCamelCase(tt.input)
		if got != tt.want {
			t.Errorf("SplitCamelCase(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestExtractDates(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"1/2/21", true},
		{"01/31/2021", true},
		{"12/1/1999", true},
		{"13/1/2021", false},
		{"1/32/2021", false},
		{"seen on 1/2/21", false},
		{"", false},
	}
	for _, tt := range tests {
		got := ExtractDates(tt.input)
		if (len(got) == 1) != tt.want {
			t.Errorf("ExtractDates(%q) = %v, want match=%v", tt.input, got, tt.want)
		}
	}
}
