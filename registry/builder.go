package registry

import (
	"sort"

	"github.com/malkia/clif/decl"
)

// Builder accumulates registry entries during one walk of the tree. It
// owns the namemap while aliases are being resolved; Build freezes it.
type Builder struct {
	entries []Entry
	namemap map[string]*NamemapItem
	known   []string
	aliases []pendingAlias
}

type pendingAlias struct {
	class   string
	exposed string
}

// NewBuilder starts a registry from the unit's namemap. Known lists
// native types registered by other compilation units.
func NewBuilder(namemaps []decl.NamemapEntry, known ...string) *Builder {
	b := &Builder{
		namemap: make(map[string]*NamemapItem, len(namemaps)),
		known:   known,
	}
	for _, m := range namemaps {
		b.namemap[m.Name] = &NamemapItem{FullPath: m.FullPath}
	}
	return b
}

// Build walks every top-level declaration of u and returns the frozen
// registry.
func Build(u *decl.Unit, known ...string) (*Registry, error) {
	b := NewBuilder(u.Namemaps, append(append([]string(nil), u.KnownTypes...), known...)...)
	for _, d := range u.Decls {
		if err := b.Add(d); err != nil {
			return nil, err
		}
	}
	return b.Build()
}

// Add registers d and, for classes, everything nested inside it.
func (b *Builder) Add(d decl.Decl) error {
	return b.walk(d, "", "")
}

func (b *Builder) walk(d decl.Decl, parent, namespace string) error {
	if ns := decl.MetaOf(d).Namespace; ns != "" {
		namespace = ns
	}
	switch d := d.(type) {
	case *decl.Class:
		path := joinPath(parent, d.Name.Exposed)
		e := Entry{
			Path:             path,
			Native:           d.Name.Native,
			Namespace:        namespace,
			PublicDestructor: d.PublicDestructor,
			Kind:             KindClass,
		}
		for i := 0; i < len(d.Bases); i++ {
			base := d.Bases[i]
			if !base.IsAlias() {
				continue
			}
			e.Bases = append(e.Bases, base.Exposed)
			if d.SuppressUpcasts {
				continue
			}
			resolved, err := resolveAlias(d.Bases, i)
			if err != nil {
				return decl.Errorf(path, err, "base %q", base.Exposed)
			}
			if it, ok := b.namemap[base.Exposed]; ok {
				it.Native = resolved.Native
			}
			b.aliases = append(b.aliases, pendingAlias{class: path, exposed: base.Exposed})
			i++
		}
		b.entries = append(b.entries, e)
		for _, m := range d.Members {
			if err := b.walk(m, path, namespace); err != nil {
				return err
			}
		}
	case *decl.Enum:
		b.entries = append(b.entries, Entry{
			Path:      joinPath(parent, d.Name.Exposed),
			Native:    d.Name.Native,
			Namespace: namespace,
			Kind:      KindEnum,
		})
	case *decl.Opaque:
		b.entries = append(b.entries, Entry{
			Path:      joinPath(parent, d.Name.Exposed),
			Native:    d.Name.Native,
			Namespace: namespace,
			Kind:      KindCapsule,
		})
	case *decl.Func, *decl.Const, *decl.Var:
		// Not types.
	default:
		return decl.Errorf(parent, decl.ErrUnhandled, "%T", d)
	}
	return nil
}

// resolveAlias returns the entry that resolves the alias placeholder at
// bases[i]. The upstream matcher emits the resolved base immediately
// after its alias; this is the only place that relies on that layout.
func resolveAlias(bases []decl.Base, i int) (decl.Base, error) {
	if i+1 >= len(bases) || bases[i+1].Native == "" {
		return decl.Base{}, ErrUnpairedBaseAlias
	}
	return bases[i+1], nil
}

// Build sorts the entries and derives the capsule and registered-type
// sets. The builder must not be used afterwards.
func (b *Builder) Build() (*Registry, error) {
	sort.SliceStable(b.entries, func(i, j int) bool {
		return b.entries[i].Native < b.entries[j].Native
	})

	local := map[string]bool{}
	for _, e := range b.entries {
		local[e.Path] = true
		local[e.Name()] = true
	}
	for _, a := range b.aliases {
		if _, ok := b.namemap[a.exposed]; ok || local[a.exposed] {
			continue
		}
		return nil, decl.Errorf(a.class, ErrUnknownName, "base %q", a.exposed)
	}

	r := &Registry{
		entries:    b.entries,
		namemap:    make(map[string]NamemapItem, len(b.namemap)),
		capsules:   map[string]bool{},
		registered: map[string]bool{},
	}
	for name, it := range b.namemap {
		r.namemap[name] = *it
		if it.Native != "" {
			r.registered[it.Native] = true
		}
	}
	for _, e := range b.entries {
		r.registered[e.Native] = true
		if e.Kind == KindCapsule {
			r.capsules[e.Path] = true
		}
	}
	for _, k := range b.known {
		if k != "" {
			r.registered[k] = true
		}
	}
	log.Debugf("registry: %d entries, %d capsule types, %d registered types",
		len(r.entries), len(r.capsules), len(r.registered))
	return r, nil
}

func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}
