// Package registry catalogs the types a compilation unit exposes and
// the native types it may refer to.
package registry

import (
	"errors"
	"sort"
	"strings"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("clif.registry")

var (
	// ErrUnpairedBaseAlias is returned when an alias placeholder in a base
	// list is not immediately followed by its resolved entry.
	ErrUnpairedBaseAlias = errors.New("base alias without resolved entry")
	// ErrUnknownName is returned when an alias names a type that neither
	// the namemap nor this unit declares.
	ErrUnknownName = errors.New("unknown type name")
)

// Kind classifies a registry entry.
type Kind int

const (
	KindClass Kind = iota + 1
	KindEnum
	KindCapsule
)

func (k Kind) String() string {
	switch k {
	case KindClass:
		return "class"
	case KindEnum:
		return "enum"
	case KindCapsule:
		return "capsule"
	}
	return "unknown"
}

// Entry describes one exposed class, enum or opaque type.
type Entry struct {
	Path             string   // dotted exposed path, reflects nesting
	Native           string   // fully qualified C++ name
	Namespace        string   // owning C++ namespace
	Bases            []string // exposed names of aliased bases
	PublicDestructor bool
	Kind             Kind
}

// Name returns the last segment of the exposed path.
func (e Entry) Name() string {
	if i := strings.LastIndex(e.Path, "."); i >= 0 {
		return e.Path[i+1:]
	}
	return e.Path
}

// NamemapItem is the resolved form of a namemap entry.
type NamemapItem struct {
	FullPath string // dotted exposed path in its owning module
	Native   string // filled in by alias resolution; may stay empty
}

// Module returns the owning module of the entry (the path minus its
// last segment).
func (n NamemapItem) Module() string {
	if i := strings.LastIndex(n.FullPath, "."); i >= 0 {
		return n.FullPath[:i]
	}
	return ""
}

// Registry is the frozen result of a Builder.
type Registry struct {
	entries    []Entry
	namemap    map[string]NamemapItem
	capsules   map[string]bool
	registered map[string]bool
}

// Entries returns the entries sorted by native name.
func (r *Registry) Entries() []Entry {
	return append([]Entry(nil), r.entries...)
}

// Lookup returns the namemap item for an exposed top-level identifier.
func (r *Registry) Lookup(exposed string) (NamemapItem, bool) {
	it, ok := r.namemap[exposed]
	return it, ok
}

// IsCapsule reports whether the exposed type name is an opaque type.
func (r *Registry) IsCapsule(exposed string) bool {
	return r.capsules[exposed]
}

// IsRegistered reports whether a native type may appear in a generated
// inheritance list.
func (r *Registry) IsRegistered(native string) bool {
	return r.registered[native]
}

// RegisteredTypes returns the registered-type set, sorted.
func (r *Registry) RegisteredTypes() []string {
	return sortedKeys(r.registered)
}

// Group is a run of entries sharing one namespace.
type Group struct {
	Namespace string // without leading/trailing "::"
	Entries   []Entry
}

// Groups partitions the sorted entries by namespace. Groups appear in
// order of first occurrence and each namespace forms exactly one group,
// even when its entries are not contiguous in native-name order.
func (r *Registry) Groups() []Group {
	var groups []Group
	index := map[string]int{}
	for _, e := range r.entries {
		ns := strings.Trim(e.Namespace, ":")
		i, ok := index[ns]
		if !ok {
			i = len(groups)
			index[ns] = i
			groups = append(groups, Group{Namespace: ns})
		}
		groups[i].Entries = append(groups[i].Entries, e)
	}
	return groups
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
