package artifact

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.yaml.in/yaml/v3"

	"github.com/kbukum/powerflow/stage"
)

// ManifestName is the manifest file name inside a run directory.
const ManifestName = "manifest.yaml"

// manifest is the on-disk layout.
type manifest struct {
	Version   int      `yaml:"version"`
	Artifacts []Record `yaml:"artifacts"`
}

const manifestVersion = 1

// ManifestStore is a Store persisted as YAML. Every write rewrites the file
// through a temporary file and a rename.
type ManifestStore struct {
	path string
	mem  *MemoryStore
	mu   sync.Mutex
}

// OpenManifest loads the manifest at path, or starts an empty one.
func OpenManifest(path string) (*ManifestStore, error) {
	s := &ManifestStore{path: path, mem: NewMemoryStore()}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("artifact: reading manifest: %w", err)
	}
	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("artifact: parsing %s: %w", path, err)
	}
	if m.Version != 0 && m.Version != manifestVersion {
		return nil, fmt.Errorf("artifact: %s: unsupported manifest version %d", path, m.Version)
	}
	for _, rec := range m.Artifacts {
		s.mem.items[rec.Ref] = rec
	}
	return s, nil
}

// Path returns the manifest file path.
func (s *ManifestStore) Path() string { return s.path }

// Put records an artifact and rewrites the manifest.
func (s *ManifestStore) Put(ctx context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.mem.Put(ctx, rec); err != nil {
		return err
	}
	return s.flush(ctx)
}

// Get returns the record for ref, or (nil, nil).
func (s *ManifestStore) Get(ctx context.Context, ref stage.ArtifactRef) (*Record, error) {
	return s.mem.Get(ctx, ref)
}

// List returns every record in a stable order.
func (s *ManifestStore) List(ctx context.Context) ([]Record, error) {
	return s.mem.List(ctx)
}

// Delete removes a record and rewrites the manifest.
func (s *ManifestStore) Delete(ctx context.Context, ref stage.ArtifactRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.mem.Delete(ctx, ref); err != nil {
		return err
	}
	return s.flush(ctx)
}

func (s *ManifestStore) flush(ctx context.Context) error {
	recs, err := s.mem.List(ctx)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(manifest{Version: manifestVersion, Artifacts: recs})
	if err != nil {
		return fmt.Errorf("artifact: encoding manifest: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("artifact: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".manifest-*")
	if err != nil {
		return fmt.Errorf("artifact: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("artifact: writing manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("artifact: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("artifact: %w", err)
	}
	return nil
}

var _ Store = (*ManifestStore)(nil)
