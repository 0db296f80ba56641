// Package dedupe tracks record ids already seen during one load pass.
package dedupe

import (
	"sync"

	"github.com/okian/lodge/internal/domain/model"
)

// Deduper remembers the first origin (usually a filename) of every id.
// It is safe for concurrent use.
type Deduper struct {
	mu   sync.Mutex
	seen map[string]string
	hint int
}

// New creates an empty Deduper.
func New(opts ...Option) *Deduper {
	d := &Deduper{}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]string, d.hint)
	return d
}

// SeenAndRecord atomically checks if id was seen and records it if not.
// When id was already seen it returns the origin it was first recorded with.
func (d *Deduper) SeenAndRecord(id, origin string) (first string, seen bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if first, ok := d.seen[id]; ok {
		return first, true
	}
	d.seen[id] = origin
	return "", false
}

// Size returns the number of recorded ids.
func (d *Deduper) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}

// Unique keeps the first item for every id, preserving order, and returns
// the later duplicates separately.
func Unique[T model.Identifiable](items []T) (kept, dropped []T) {
	d := New(WithCapacity(len(items)))
	kept = make([]T, 0, len(items))
	for _, it := range items {
		if _, dup := d.SeenAndRecord(it.RecordID(), ""); dup {
			dropped = append(dropped, it)
			continue
		}
		kept = append(kept, it)
	}
	return kept, dropped
}
