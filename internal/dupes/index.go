package dupes

import (
	"slices"
	"sort"
)

// Index accumulates digest to file mappings for a single scan. It is not
// safe for concurrent use; the scan goroutine owns it.
type Index struct {
	order   []string
	entries map[string][]FileRecord
	records int
}

// NewIndex returns an empty index
func NewIndex() *Index {
	return &Index{entries: make(map[string][]FileRecord)}
}

// Add appends rec under digest. Keys remember their first insertion.
func (ix *Index) Add(digest string, rec FileRecord) {
	list, ok := ix.entries[digest]
	if !ok {
		ix.order = append(ix.order, digest)
	}
	ix.entries[digest] = append(list, rec)
	ix.records++
}

// Len returns the number of distinct digests
func (ix *Index) Len() int {
	return len(ix.order)
}

// Records returns the number of indexed files
func (ix *Index) Records() int {
	return ix.records
}

// Groups builds one Group per digest with at least two members, sorted by
// wasted space descending. Ties keep digest insertion order. Group sizes
// come from the recorded hash-time sizes; nothing is re-read from disk.
func (ix *Index) Groups() []Group {
	groups := make([]Group, 0)
	for _, digest := range ix.order {
		files := ix.entries[digest]
		if len(files) < 2 {
			continue
		}
		groups = append(groups, Group{
			Digest: digest,
			Size:   files[0].Size,
			Files:  slices.Clone(files),
		})
	}

	sortByWaste(groups)
	return groups
}

func sortByWaste(groups []Group) {
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].WastedSpace() > groups[j].WastedSpace()
	})
}

// Prune removes deleted paths from groups. A group keeps its place while it
// still has two or more members and is dropped otherwise. The input slice
// and its groups are left untouched.
func Prune(groups []Group, deleted []string) []Group {
	if len(deleted) == 0 {
		return groups
	}

	gone := make(map[string]struct{}, len(deleted))
	for _, p := range deleted {
		gone[p] = struct{}{}
	}

	out := make([]Group, 0, len(groups))
	for _, g := range groups {
		kept := make([]FileRecord, 0, len(g.Files))
		for _, f := range g.Files {
			if _, ok := gone[f.Path]; !ok {
				kept = append(kept, f)
			}
		}
		if len(kept) < 2 {
			continue
		}
		g.Files = kept
		out = append(out, g)
	}
	return out
}

// Without returns groups minus the one with the given digest
func Without(groups []Group, digest string) []Group {
	out := make([]Group, 0, len(groups))
	for _, g := range groups {
		if g.Digest != digest {
			out = append(out, g)
		}
	}
	return out
}

// FindGroup returns the group with the given digest
func FindGroup(groups []Group, digest string) (Group, bool) {
	for _, g := range groups {
		if g.Digest == digest {
			return g, true
		}
	}
	return Group{}, false
}
