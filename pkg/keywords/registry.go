package keywords

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// Registry holds the loaded keyword groups and answers flag queries.
type Registry struct {
	mu        sync.RWMutex
	groups    map[string]*Group
	groupsDir string
}

// NewRegistry creates an empty registry for the given directory. An empty
// directory means the built-in study groups.
func NewRegistry(groupsDir string) *Registry {
	return &Registry{
		groups:    make(map[string]*Group),
		groupsDir: groupsDir,
	}
}

// Load scans the groups directory, or builds the defaults, and swaps the
// result in atomically.
func (r *Registry) Load() error {
	var (
		newGroups map[string]*Group
		err       error
	)
	if r.groupsDir == "" {
		newGroups, err = buildGroups(DefaultGroups())
	} else {
		newGroups, err = loadDir(r.groupsDir)
	}
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.groups = newGroups
	r.mu.Unlock()
	return nil
}

// Reload reloads every group (hot reload).
func (r *Registry) Reload() error {
	return r.Load()
}

func buildGroups(manifests []*Manifest) (map[string]*Group, error) {
	out := make(map[string]*Group, len(manifests))
	for _, m := range manifests {
		g, err := NewGroup(m)
		if err != nil {
			return nil, err
		}
		out[m.ID] = g
	}
	return out, nil
}

func loadDir(dir string) (map[string]*Group, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read keywords dir %s: %w", dir, err)
	}

	out := make(map[string]*Group)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		sub := filepath.Join(dir, entry.Name())
		if _, err := os.Stat(filepath.Join(sub, "manifest.yaml")); err != nil {
			continue
		}
		g, err := LoadGroup(sub)
		if err != nil {
			return nil, fmt.Errorf("load group %s: %w", entry.Name(), err)
		}
		out[g.Manifest.ID] = g
	}
	return out, nil
}

// Hit is the set of keywords one group found in a text.
type Hit struct {
	GroupID  string                       `json:"group_id"`
	Category string                       `json:"category"`
	Keywords []string                     `json:"keywords"`
	Metadata map[string]map[string]string `json:"metadata,omitempty"`
}

// FlagResult is the response for one flagged text.
type FlagResult struct {
	Hits []Hit `json:"hits"`
}

// Flagged reports whether group id found anything.
func (fr *FlagResult) Flagged(id string) bool {
	for _, h := range fr.Hits {
		if h.GroupID == id {
			return true
		}
	}
	return false
}

// FlagOptions restricts which groups are consulted.
type FlagOptions struct {
	Groups     []string
	Categories []string
}

// Flag searches text with every (or every selected) group. Groups are
// visited in sorted ID order for deterministic results.
func (r *Registry) Flag(text string, opts *FlagOptions) *FlagResult {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := &FlagResult{Hits: []Hit{}}
	for _, id := range r.sortedIDs() {
		g := r.groups[id]
		if opts != nil {
			if len(opts.Groups) > 0 && !contains(opts.Groups, g.Manifest.ID) {
				continue
			}
			if len(opts.Categories) > 0 && !contains(opts.Categories, g.Manifest.Category) {
				continue
			}
		}

		found, meta := g.Match(text)
		if len(found) == 0 {
			continue
		}
		result.Hits = append(result.Hits, Hit{
			GroupID:  g.Manifest.ID,
			Category: g.Manifest.Category,
			Keywords: found,
			Metadata: meta,
		})
	}
	return result
}

// Has reports whether group id finds any keyword in text. Unknown groups
// are an error.
func (r *Registry) Has(text, id string) (bool, error) {
	r.mu.RLock()
	g, ok := r.groups[id]
	r.mu.RUnlock()
	if !ok {
		return false, fmt.Errorf("unknown keyword group %q", id)
	}
	return g.Has(text), nil
}

// GroupInfo is the public metadata for a loaded group.
type GroupInfo struct {
	ID          string `json:"id"`
	Version     string `json:"version"`
	Category    string `json:"category"`
	Description string `json:"description,omitempty"`
	Source      string `json:"source,omitempty"`
	Method      string `json:"method"`
	Size        int    `json:"size"`
}

// ListGroups returns metadata for all loaded groups, sorted by ID.
func (r *Registry) ListGroups() []GroupInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]GroupInfo, 0, len(r.groups))
	for _, id := range r.sortedIDs() {
		g := r.groups[id]
		infos = append(infos, GroupInfo{
			ID:          g.Manifest.ID,
			Version:     g.Manifest.Version,
			Category:    g.Manifest.Category,
			Description: g.Manifest.Description,
			Source:      g.Manifest.Source,
			Method:      g.Manifest.Method,
			Size:        g.Size(),
		})
	}
	return infos
}

// GroupCount returns the number of loaded groups.
func (r *Registry) GroupCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.groups)
}

// TotalKeywords returns the number of keywords and patterns across groups.
func (r *Registry) TotalKeywords() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	total := 0
	for _, g := range r.groups {
		total += g.Size()
	}
	return total
}

// sortedIDs must be called with r.mu held.
func (r *Registry) sortedIDs() []string {
	ids := make([]string, 0, len(r.groups))
	for id := range r.groups {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func contains(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}
