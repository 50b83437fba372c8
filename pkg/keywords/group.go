package keywords

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// Entry is one keyword with optional metadata.
type Entry struct {
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Group is one loaded keyword group.
type Group struct {
	Manifest  *Manifest         `json:"manifest"`
	Entries   map[string]*Entry `json:"-"`
	normalize Normalizer
	patterns  *patternMatcher
	sorted    []string
}

// LoadGroup reads dir/manifest.yaml and loads the group's keywords from the
// manifest itself, data.gob or the CSV data file, in that order.
func LoadGroup(dir string) (*Group, error) {
	manifest, err := LoadManifest(filepath.Join(dir, "manifest.yaml"))
	if err != nil {
		return nil, err
	}
	if manifest.Method == MethodPattern || len(manifest.Keywords) > 0 {
		return NewGroup(manifest)
	}

	g := newGroup(manifest)
	gobPath := filepath.Join(dir, "data.gob")
	if _, err := os.Stat(gobPath); err == nil {
		if err := g.loadGob(gobPath); err != nil {
			return nil, fmt.Errorf("group %s: %w", manifest.ID, err)
		}
		g.index()
		return g, nil
	}

	if err := g.loadCSV(filepath.Join(dir, manifest.DataFile)); err != nil {
		return nil, fmt.Errorf("group %s: %w", manifest.ID, err)
	}
	g.index()
	return g, nil
}

// NewGroup builds a group from a manifest carrying inline keywords or patterns.
func NewGroup(m *Manifest) (*Group, error) {
	if m.ID == "" {
		return nil, fmt.Errorf("group: missing id")
	}
	g := newGroup(m)

	switch m.Method {
	case MethodPattern:
		pm, err := compilePatterns(m.Patterns)
		if err != nil {
			return nil, fmt.Errorf("group %s: %w", m.ID, err)
		}
		g.patterns = pm
	case MethodSubstring, "":
		for _, kw := range m.Keywords {
			key := g.normalize(kw)
			if strings.TrimSpace(key) == "" {
				continue
			}
			g.Entries[key] = &Entry{}
		}
		if len(g.Entries) == 0 {
			return nil, fmt.Errorf("group %s: no keywords", m.ID)
		}
		g.index()
	default:
		return nil, fmt.Errorf("group %s: unknown method %q", m.ID, m.Method)
	}
	return g, nil
}

func newGroup(m *Manifest) *Group {
	return &Group{
		Manifest:  m,
		Entries:   make(map[string]*Entry),
		normalize: GetNormalizer(m.Format.Normalize),
	}
}

// index caches the keywords in sorted order so matches come out stable.
func (g *Group) index() {
	g.sorted = make([]string, 0, len(g.Entries))
	for kw := range g.Entries {
		g.sorted = append(g.sorted, kw)
	}
	sort.Strings(g.sorted)
}

// Match returns every keyword of the group that occurs in text, or for
// pattern groups every validated pattern match, with its metadata.
func (g *Group) Match(text string) ([]string, map[string]map[string]string) {
	if g.patterns != nil {
		return g.patterns.find(text)
	}

	folded := g.normalize(text)
	var found []string
	var meta map[string]map[string]string
	for _, kw := range g.sorted {
		if !strings.Contains(folded, kw) {
			continue
		}
		found = append(found, kw)
		if md := g.Entries[kw].Metadata; len(md) > 0 {
			if meta == nil {
				meta = make(map[string]map[string]string)
			}
			meta[kw] = md
		}
	}
	return found, meta
}

// Has reports whether any keyword of the group occurs in text.
func (g *Group) Has(text string) bool {
	if g.patterns != nil {
		found, _ := g.patterns.find(text)
		return len(found) > 0
	}
	folded := g.normalize(text)
	for _, kw := range g.sorted {
		if strings.Contains(folded, kw) {
			return true
		}
	}
	return false
}

// Size is the number of keywords, or patterns for pattern groups.
func (g *Group) Size() int {
	if g.patterns != nil {
		return len(g.patterns.patterns)
	}
	return len(g.Entries)
}

func (g *Group) loadCSV(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open data file: %w", err)
	}
	defer f.Close()

	var reader io.Reader = f
	if enc := g.Manifest.Format.Encoding; enc != "" && !isUTF8(enc) {
		e, err := htmlindex.Get(enc)
		if err != nil {
			return fmt.Errorf("unsupported encoding %q: %w", enc, err)
		}
		reader = transform.NewReader(f, e.NewDecoder())
	}

	r := csv.NewReader(reader)
	if delim := g.Manifest.Format.Delimiter; delim != "" {
		r.Comma = []rune(delim)[0]
	}
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	var header []string
	if g.Manifest.Format.HasHeader {
		header, err = r.Read()
		if err != nil {
			return fmt.Errorf("read header: %w", err)
		}
		for i := range header {
			header[i] = strings.TrimSpace(header[i])
		}
	}

	keyIdx := 0
	if col := g.Manifest.Format.KeyColumn; col != "" && header != nil {
		keyIdx = indexOf(header, col)
		if keyIdx < 0 {
			return fmt.Errorf("key column %q not found in header %v", col, header)
		}
	}

	metaIdx := make(map[string]int)
	for _, mc := range g.Manifest.MetadataCols {
		if i := indexOf(header, mc.Column); i >= 0 {
			metaIdx[mc.Name] = i
		}
	}

	// Keyword cells are not trimmed: " al" and "al " are distinct keywords.
	var duplicates int
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read row: %w", err)
		}
		if keyIdx >= len(record) {
			continue
		}

		key := g.normalize(record[keyIdx])
		if strings.TrimSpace(key) == "" {
			continue
		}

		entry := &Entry{}
		if len(metaIdx) > 0 {
			entry.Metadata = make(map[string]string, len(metaIdx))
			for name, idx := range metaIdx {
				if idx < len(record) {
					entry.Metadata[name] = strings.TrimSpace(record[idx])
				}
			}
		}
		if _, exists := g.Entries[key]; exists {
			duplicates++
		}
		g.Entries[key] = entry
	}

	if duplicates > 0 {
		slog.Warn("duplicate keywords after normalization", "group", g.Manifest.ID, "duplicates", duplicates)
	}
	return nil
}

func indexOf(header []string, col string) int {
	for i, h := range header {
		if h == col {
			return i
		}
	}
	return -1
}

func isUTF8(enc string) bool {
	e := strings.ToLower(strings.ReplaceAll(enc, "-", ""))
	return e == "utf8" || e == ""
}
