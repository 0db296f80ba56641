// Package source provides the raw content blobs the loader works on.
package source

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/okian/lodge/internal/domain/model"
)

// Source yields every raw record of a category.
type Source interface {
	Fetch(ctx context.Context, c model.Category) ([]model.RawRecord, error)
}

// Func adapts a function to Source.
type Func func(ctx context.Context, c model.Category) ([]model.RawRecord, error)

// Fetch calls f.
func (f Func) Fetch(ctx context.Context, c model.Category) ([]model.RawRecord, error) {
	return f(ctx, c)
}

// Registry is an in-memory Source. Records and failures can be swapped at
// runtime, which makes it the natural Source for tests and previews.
type Registry struct {
	mu      sync.RWMutex
	records map[model.Category]map[string]model.RawRecord
	errs    map[model.Category]error
	offline bool
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		records: make(map[model.Category]map[string]model.RawRecord),
		errs:    make(map[model.Category]error),
	}
}

// Put adds or replaces records in category c, keyed by filename.
func (r *Registry) Put(c model.Category, recs ...model.RawRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.records[c]
	if !ok {
		m = make(map[string]model.RawRecord)
		r.records[c] = m
	}
	for _, rec := range recs {
		m[rec.Filename] = rec
	}
}

// Remove deletes one record.
func (r *Registry) Remove(c model.Category, filename string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records[c], filename)
}

// Fail makes every Fetch of c return err until it is called again with nil.
func (r *Registry) Fail(c model.Category, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err == nil {
		delete(r.errs, c)
		return
	}
	r.errs[c] = err
}

// SetOffline makes every Fetch return ErrOffline.
func (r *Registry) SetOffline(offline bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.offline = offline
}

// Online reports whether the registry is reachable. It satisfies the
// service's connectivity probe.
func (r *Registry) Online() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return !r.offline
}

// Fetch returns the records of c ordered by filename.
func (r *Registry) Fetch(ctx context.Context, c model.Category) ([]model.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.offline {
		return nil, ErrOffline
	}
	if err := r.errs[c]; err != nil {
		return nil, fmt.Errorf("fetch %s: %w", c, err)
	}
	m := r.records[c]
	out := make([]model.RawRecord, 0, len(m))
	for _, rec := range m {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Filename < out[j].Filename })
	return out, nil
}
