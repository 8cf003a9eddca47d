package artifact

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/kbukum/powerflow/stage"
)

var (
	designRef = stage.ArtifactRef{Stage: "init_design", Name: "design"}
	synthRef  = stage.ArtifactRef{Stage: "synthesize_design", Name: "synth"}
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if rec, err := s.Get(ctx, designRef); rec != nil || err != nil {
		t.Fatalf("Get(missing) = %v, %v", rec, err)
	}
	s.Put(ctx, Record{Ref: synthRef, Kind: stage.KindDesignDB, Unit: "synthesize_design"})
	s.Put(ctx, Record{Ref: designRef, Kind: stage.KindDesignDB, Unit: "init_design", Path: "/db/a"})
	s.Put(ctx, Record{Ref: designRef, Kind: stage.KindDesignDB, Unit: "init_design", Path: "/db/b"})

	rec, _ := s.Get(ctx, designRef)
	if rec == nil || rec.Path != "/db/b" {
		t.Errorf("Get() = %+v, want latest record", rec)
	}
	list, _ := s.List(ctx)
	if len(list) != 2 || list[0].Ref != designRef {
		t.Errorf("List() = %+v", list)
	}
	s.Delete(ctx, designRef)
	if s.Len() != 1 {
		t.Errorf("Len() = %d after delete", s.Len())
	}
}

func TestManifestStorePersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "run", ManifestName)

	s, err := OpenManifest(path)
	if err != nil {
		t.Fatalf("OpenManifest(new) = %v", err)
	}
	rec := Record{Ref: designRef, Kind: stage.KindDesignDB, Path: "/run/db/init_design.design", Unit: "init_design", RunID: "r1"}
	if err := s.Put(ctx, rec); err != nil {
		t.Fatalf("Put() = %v", err)
	}

	reopened, err := OpenManifest(path)
	if err != nil {
		t.Fatalf("OpenManifest(existing) = %v", err)
	}
	got, _ := reopened.Get(ctx, designRef)
	if got == nil || *got != rec {
		t.Errorf("reloaded record = %+v, want %+v", got, rec)
	}

	if err := reopened.Delete(ctx, designRef); err != nil {
		t.Fatalf("Delete() = %v", err)
	}
	again, _ := OpenManifest(path)
	if list, _ := again.List(ctx); len(list) != 0 {
		t.Errorf("List() after delete = %+v", list)
	}
}

func TestOpenManifestRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), ManifestName)
	os.WriteFile(path, []byte("version: 7\n"), 0o644)
	if _, err := OpenManifest(path); err == nil {
		t.Error("expected unsupported version error")
	}
	os.WriteFile(path, []byte("artifacts: [unclosed\n"), 0o644)
	if _, err := OpenManifest(path); err == nil {
		t.Error("expected parse error")
	}
}
