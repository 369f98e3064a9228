package trace

import "fmt"

const (
	AppPrefix      = "app"
	FunctionPrefix = "fun"
)

// RenameMap maps original identifiers to prefix_<n> in first-seen order.
type RenameMap struct {
	originals []string
	renamed   map[string]string
}

// NewRenameMap assigns prefix_1, prefix_2, ... to names in first-seen order.
// Repeated names keep their first assignment.
func NewRenameMap(prefix string, names []string) RenameMap {
	m := RenameMap{renamed: make(map[string]string)}
	for _, name := range names {
		if _, seen := m.renamed[name]; seen {
			continue
		}
		m.originals = append(m.originals, name)
		m.renamed[name] = fmt.Sprintf("%s_%d", prefix, len(m.originals))
	}
	return m
}

func (m RenameMap) Len() int { return len(m.originals) }

// Get returns the renamed identifier for original.
func (m RenameMap) Get(original string) (string, bool) {
	v, ok := m.renamed[original]
	return v, ok
}

// Originals returns the original identifiers in first-seen order.
func (m RenameMap) Originals() []string {
	return append([]string(nil), m.originals...)
}

// Renamed returns the new identifiers in first-seen order.
func (m RenameMap) Renamed() []string {
	out := make([]string, len(m.originals))
	for i, o := range m.originals {
		out[i] = m.renamed[o]
	}
	return out
}

// RenameApps anonymizes app identifiers to app_<n> by first appearance. The input
// table is left untouched; the returned table is the state later stages must use.
func RenameApps(t *Table) (*Table, RenameMap) {
	apps := make([]string, len(t.Invocations))
	for i, inv := range t.Invocations {
		apps[i] = inv.App
	}
	m := NewRenameMap(AppPrefix, apps)

	out := t.Clone()
	for i := range out.Invocations {
		out.Invocations[i].App, _ = m.Get(out.Invocations[i].App)
	}
	return out, m
}
