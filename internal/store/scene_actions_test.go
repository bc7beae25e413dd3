package store

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"diagramcore/pkg/scene"
)

func TestSetSceneReplacesDocument(t *testing.T) {
	st, _, _ := newTestStore(t)
	ctx := context.Background()
	if _, err := st.CreateNode(ctx, scene.Node{ID: "old"}); err != nil {
		t.Fatalf("create node: %v", err)
	}

	raw := []byte(`{
		"nodes": [{"id": "n1", "position": {"x": 1, "y": 2}, "size": {"width": 3, "height": 4}}],
		"rectangles": [{"id": "r1", "position": {"x": 0, "y": 0}, "size": {"width": 1, "height": 1}}]
	}`)
	if err := st.SetScene(ctx, raw); err != nil {
		t.Fatalf("set scene: %v", err)
	}
	sc := st.Scene()
	if _, ok := sc.Node("old"); ok {
		t.Fatalf("previous document must be fully replaced")
	}
	if _, ok := sc.Node("n1"); !ok {
		t.Fatalf("loaded node missing")
	}
	if _, ok := sc.Rectangle("r1"); !ok {
		t.Fatalf("loaded rectangle missing")
	}
}

func TestSetSceneInvalidKeepsPriorScene(t *testing.T) {
	st, _, _ := newTestStore(t)
	ctx := context.Background()
	if _, err := st.CreateNode(ctx, scene.Node{ID: "keep"}); err != nil {
		t.Fatalf("create node: %v", err)
	}
	notified := 0
	_, cancel := Subscribe(st, func(sc scene.Scene) int { return len(sc.Nodes) }, nil, func(int) {
		notified++
	})
	defer cancel()
	before := st.Version()

	raw := []byte(`{"nodes": [{"id": "dup"}, {"id": "dup"}]}`)
	err := st.SetScene(ctx, raw)
	var ve scene.ValidationError
	if !errors.As(err, &ve) || len(ve.Issues) == 0 {
		t.Fatalf("expected validation error, got %v", err)
	}
	if st.Version() != before {
		t.Fatalf("rejected document must not publish")
	}
	if _, ok := st.Scene().Node("keep"); !ok {
		t.Fatalf("prior scene must be retained after rejection")
	}
	if notified != 0 {
		t.Fatalf("rejected document must not notify")
	}
}

func TestUpdateSceneReplacesOnlySuppliedSequences(t *testing.T) {
	st, router, _ := newTestStore(t)
	ctx := context.Background()
	st.ImportScene(scene.Scene{
		Icons:     []scene.Icon{{ID: "i1"}},
		Nodes:     []scene.Node{{ID: "n1"}},
		TextBoxes: []scene.TextBox{{ID: "t1", Text: "x"}},
	})
	routed := router.calls

	stale := scene.Path{{X: 1, Y: 1}, {X: 2, Y: 2}}
	err := st.UpdateScene(ctx, SceneUpdate{
		Nodes: []scene.Node{{ID: "n2", Position: scene.Point{X: 9, Y: 9}}},
		Connectors: []scene.Connector{{ID: "c1", Path: stale, Anchors: []scene.Anchor{
			boundAnchor("n2", scene.Point{}), {Point: scene.Point{X: 5, Y: 5}},
		}}},
	})
	if err != nil {
		t.Fatalf("update scene: %v", err)
	}

	sc := st.Scene()
	if _, ok := sc.Node("n1"); ok {
		t.Fatalf("nodes sequence must be replaced wholesale")
	}
	if _, ok := sc.Node("n2"); !ok {
		t.Fatalf("supplied node missing")
	}
	// Bulk updates are trusted: no validation, no path recompute.
	got, _ := sc.Connector("c1")
	if !reflect.DeepEqual(got.Path, stale) {
		t.Fatalf("bulk update must keep caller paths verbatim, got %+v", got.Path)
	}
	if router.calls != routed {
		t.Fatalf("bulk update must not route")
	}
	// Omitted sequences carry over untouched.
	if _, ok := sc.Icon("i1"); !ok {
		t.Fatalf("icons must be preserved")
	}
	if _, ok := sc.TextBox("t1"); !ok {
		t.Fatalf("text boxes must be preserved")
	}
	if len(sc.Rectangles) != 0 {
		t.Fatalf("unexpected rectangles: %+v", sc.Rectangles)
	}
}

func TestUpdateSceneDoesNotAliasCallerSlices(t *testing.T) {
	st, _, _ := newTestStore(t)
	ctx := context.Background()
	nodes := []scene.Node{{ID: "n1", Label: "a"}}
	if err := st.UpdateScene(ctx, SceneUpdate{Nodes: nodes}); err != nil {
		t.Fatalf("update scene: %v", err)
	}
	nodes[0].Label = "mutated"
	if got, _ := st.Scene().Node("n1"); got.Label != "a" {
		t.Fatalf("store aliases caller slice: %+v", got)
	}
}

func TestImportSceneResetsAndNotifies(t *testing.T) {
	st, _, _ := newTestStore(t)
	var seen []int
	_, cancel := Subscribe(st, func(sc scene.Scene) int { return len(sc.Nodes) }, nil, func(n int) {
		seen = append(seen, n)
	})
	defer cancel()

	st.ImportScene(scene.Scene{Nodes: []scene.Node{{ID: "a"}, {ID: "b"}}})
	if st.Version() != 1 {
		t.Fatalf("import must publish, version %d", st.Version())
	}
	if len(seen) != 1 || seen[0] != 2 {
		t.Fatalf("expected one notification with 2 nodes, got %v", seen)
	}
	if _, ok := st.Scene().Node("a"); !ok {
		t.Fatalf("imported node missing")
	}
}
