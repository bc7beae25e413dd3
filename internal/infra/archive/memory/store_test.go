package memory

import (
	"context"
	"testing"

	"diagramcore/pkg/scene"
)

func TestSaveLoadIsolation(t *testing.T) {
	st := NewStore()
	ctx := context.Background()

	if _, found, err := st.Load(ctx); err != nil || found {
		t.Fatalf("fresh archive must be empty, found=%v err=%v", found, err)
	}

	sc := scene.Scene{Nodes: []scene.Node{{ID: "n1", Label: "api"}}}
	if err := st.Save(ctx, sc); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Mutating the caller's scene after save must not reach the archive.
	sc.Nodes[0].Label = "mutated"
	got, found, err := st.Load(ctx)
	if err != nil || !found {
		t.Fatalf("load: found=%v err=%v", found, err)
	}
	if got.Nodes[0].Label != "api" {
		t.Fatalf("archive aliases caller scene: %+v", got.Nodes)
	}

	// Mutating the loaded copy must not reach the archive either.
	got.Nodes[0].Label = "mutated"
	again, _, _ := st.Load(ctx)
	if again.Nodes[0].Label != "api" {
		t.Fatalf("load returned a live view: %+v", again.Nodes)
	}

	if err := st.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestSaveReplacesSnapshot(t *testing.T) {
	st := NewStore()
	ctx := context.Background()
	if err := st.Save(ctx, scene.Scene{Nodes: []scene.Node{{ID: "a"}}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := st.Save(ctx, scene.Scene{Rectangles: []scene.Rectangle{{ID: "r"}}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, found, err := st.Load(ctx)
	if err != nil || !found {
		t.Fatalf("load: found=%v err=%v", found, err)
	}
	if len(got.Nodes) != 0 || len(got.Rectangles) != 1 {
		t.Fatalf("expected replacement snapshot, got %+v", got)
	}
}
