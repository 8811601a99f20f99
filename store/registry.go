package store

import "github.com/jacentio/sammy/internal/shard"

// Registry holds the known record kinds. Stream consumers use it to tell
// record items apart from other items in the records table.
type Registry struct {
	kinds  []string
	byKind map[string]bool
}

// NewRegistry creates a Registry holding the kinds of recs.
func NewRegistry(recs ...Record) *Registry {
	r := &Registry{
		kinds:  []string{},
		byKind: make(map[string]bool),
	}
	r.Register(recs...)
	return r
}

// Register adds the kinds of recs. Registering a kind twice is a no-op.
func (r *Registry) Register(recs ...Record) {
	for _, rec := range recs {
		kind := rec.Kind()
		if r.byKind[kind] {
			continue
		}
		r.byKind[kind] = true
		r.kinds = append(r.kinds, kind)
	}
}

// Kinds returns all registered kinds in registration order.
func (r *Registry) Kinds() []string {
	return r.kinds
}

// Has returns true if kind is registered.
func (r *Registry) Has(kind string) bool {
	return r.byKind[kind]
}

// KindOfPartition returns the registered kind stored under a records table
// partition key.
func (r *Registry) KindOfPartition(pk string) (string, bool) {
	kind, ok := shard.KindOf(pk)
	if !ok || !r.byKind[kind] {
		return "", false
	}
	return kind, true
}
