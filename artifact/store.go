// Package artifact records which artifacts have been produced successfully,
// in memory for a single run or in a YAML manifest that later invocations of
// individual stages can gate on.
package artifact

import (
	"context"
	"sort"
	"sync"

	"github.com/kbukum/powerflow/stage"
)

// Record is one successfully produced artifact.
type Record struct {
	Ref  stage.ArtifactRef `yaml:"ref" json:"ref"`
	Kind stage.Kind        `yaml:"kind" json:"kind"`
	Path string            `yaml:"path,omitempty" json:"path,omitempty"`
	// Unit is the executable unit that produced the artifact.
	Unit string `yaml:"unit" json:"unit"`
	// RunID identifies the flow run that produced the artifact.
	RunID string `yaml:"run_id,omitempty" json:"run_id,omitempty"`
}

// Store holds success-produced artifacts. Only units that finished with
// status success may write to it.
type Store interface {
	// Put records an artifact, replacing an earlier record of the same ref.
	Put(ctx context.Context, rec Record) error
	// Get returns the record for ref, or (nil, nil) if none exists.
	Get(ctx context.Context, ref stage.ArtifactRef) (*Record, error)
	// List returns every record ordered by stage then name.
	List(ctx context.Context) ([]Record, error)
	// Delete removes a record.
	Delete(ctx context.Context, ref stage.ArtifactRef) error
}

// MemoryStore is an in-memory Store for a single run and for tests.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[stage.ArtifactRef]Record
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[stage.ArtifactRef]Record)}
}

// Put records an artifact.
func (s *MemoryStore) Put(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[rec.Ref] = rec
	return nil
}

// Get returns the record for ref, or (nil, nil).
func (s *MemoryStore) Get(_ context.Context, ref stage.ArtifactRef) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.items[ref]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

// List returns every record in a stable order.
func (s *MemoryStore) List(_ context.Context) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, 0, len(s.items))
	for _, rec := range s.items {
		out = append(out, rec)
	}
	sortRecords(out)
	return out, nil
}

// Delete removes a record.
func (s *MemoryStore) Delete(_ context.Context, ref stage.ArtifactRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, ref)
	return nil
}

// Len returns the number of records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func sortRecords(recs []Record) {
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Ref.Stage != recs[j].Ref.Stage {
			return recs[i].Ref.Stage < recs[j].Ref.Stage
		}
		return recs[i].Ref.Name < recs[j].Ref.Name
	})
}

var _ Store = (*MemoryStore)(nil)
