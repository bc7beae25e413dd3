package store

import (
	"context"
	"slices"
	"testing"

	"diagramcore/pkg/scene"
)

func nodeIDs(sc scene.Scene) []string {
	ids := make([]string, 0, len(sc.Nodes))
	for _, n := range sc.Nodes {
		ids = append(ids, n.ID)
	}
	return ids
}

func TestSubscribeReturnsCurrentProjection(t *testing.T) {
	st, _, _ := newTestStore(t)
	st.ImportScene(scene.Scene{Nodes: []scene.Node{{ID: "a"}, {ID: "b"}}})

	initial, cancel := Subscribe(st, func(sc scene.Scene) int { return len(sc.Nodes) }, nil, func(int) {})
	defer cancel()
	if initial != 2 {
		t.Fatalf("expected initial projection 2, got %d", initial)
	}
}

func TestSubscribeNotifiesOnlyOnProjectionChange(t *testing.T) {
	st, _, _ := newTestStore(t)
	ctx := context.Background()
	if _, err := st.CreateNode(ctx, scene.Node{ID: "a"}); err != nil {
		t.Fatalf("create node: %v", err)
	}

	var seen []int
	_, cancel := Subscribe(st, func(sc scene.Scene) int { return len(sc.Nodes) }, nil, func(n int) {
		seen = append(seen, n)
	})
	defer cancel()

	// Count unchanged: no notification.
	if _, err := st.UpdateNode(ctx, "a", func(n *scene.Node) error {
		n.Position = scene.Point{X: 5, Y: 5}
		return nil
	}); err != nil {
		t.Fatalf("update node: %v", err)
	}
	if len(seen) != 0 {
		t.Fatalf("projection unchanged, expected no notification, got %v", seen)
	}

	if _, err := st.CreateNode(ctx, scene.Node{ID: "b"}); err != nil {
		t.Fatalf("create node: %v", err)
	}
	if err := st.DeleteNode(ctx, "a"); err != nil {
		t.Fatalf("delete node: %v", err)
	}
	if !slices.Equal(seen, []int{2, 1}) {
		t.Fatalf("expected notifications [2 1], got %v", seen)
	}
}

func TestSubscribeNonComparableProjectionAlwaysNotifies(t *testing.T) {
	st, _, _ := newTestStore(t)
	ctx := context.Background()
	if _, err := st.CreateNode(ctx, scene.Node{ID: "a"}); err != nil {
		t.Fatalf("create node: %v", err)
	}

	notified := 0
	_, cancel := Subscribe(st, nodeIDs, nil, func([]string) { notified++ })
	defer cancel()

	// Slices are not comparable, so without a custom equality every publish
	// counts as a change even though the ids are identical.
	if _, err := st.UpdateNode(ctx, "a", func(n *scene.Node) error {
		n.Label = "renamed"
		return nil
	}); err != nil {
		t.Fatalf("update node: %v", err)
	}
	if notified != 1 {
		t.Fatalf("expected conservative notification, got %d", notified)
	}
}

func TestSubscribeCustomEquality(t *testing.T) {
	st, _, _ := newTestStore(t)
	ctx := context.Background()
	if _, err := st.CreateNode(ctx, scene.Node{ID: "a"}); err != nil {
		t.Fatalf("create node: %v", err)
	}

	notified := 0
	_, cancel := Subscribe(st, nodeIDs, slices.Equal, func([]string) { notified++ })
	defer cancel()

	if _, err := st.UpdateNode(ctx, "a", func(n *scene.Node) error {
		n.Label = "renamed"
		return nil
	}); err != nil {
		t.Fatalf("update node: %v", err)
	}
	if notified != 0 {
		t.Fatalf("ids unchanged, expected no notification, got %d", notified)
	}

	if _, err := st.CreateNode(ctx, scene.Node{ID: "b"}); err != nil {
		t.Fatalf("create node: %v", err)
	}
	if notified != 1 {
		t.Fatalf("expected one notification after id change, got %d", notified)
	}
}

func TestSubscribeCancelStopsNotifications(t *testing.T) {
	st, _, _ := newTestStore(t)
	ctx := context.Background()
	notified := 0
	_, cancel := Subscribe(st, func(sc scene.Scene) int { return len(sc.Nodes) }, nil, func(int) {
		notified++
	})

	if _, err := st.CreateNode(ctx, scene.Node{ID: "a"}); err != nil {
		t.Fatalf("create node: %v", err)
	}
	cancel()
	if _, err := st.CreateNode(ctx, scene.Node{ID: "b"}); err != nil {
		t.Fatalf("create node: %v", err)
	}
	if notified != 1 {
		t.Fatalf("expected notifications to stop after cancel, got %d", notified)
	}
	cancel() // second cancel is a no-op
}

func TestHandlerObservesPublishedScene(t *testing.T) {
	st, _, _ := newTestStore(t)
	ctx := context.Background()

	var observed int
	_, cancel := Subscribe(st, func(sc scene.Scene) int { return len(sc.Nodes) }, nil, func(int) {
		// Handlers run after the snapshot swap, so reads see the new scene.
		observed = len(st.Scene().Nodes)
	})
	defer cancel()

	if _, err := st.CreateNode(ctx, scene.Node{ID: "a"}); err != nil {
		t.Fatalf("create node: %v", err)
	}
	if observed != 1 {
		t.Fatalf("handler saw stale scene, nodes=%d", observed)
	}
}

func TestSubscribersNotifiedInRegistrationOrder(t *testing.T) {
	st, _, _ := newTestStore(t)
	ctx := context.Background()
	var order []string
	_, cancelA := Subscribe(st, func(sc scene.Scene) int { return len(sc.Nodes) }, nil, func(int) {
		order = append(order, "a")
	})
	defer cancelA()
	_, cancelB := Subscribe(st, func(sc scene.Scene) int { return len(sc.Nodes) }, nil, func(int) {
		order = append(order, "b")
	})
	defer cancelB()

	if _, err := st.CreateNode(ctx, scene.Node{ID: "n"}); err != nil {
		t.Fatalf("create node: %v", err)
	}
	if !slices.Equal(order, []string{"a", "b"}) {
		t.Fatalf("expected registration order, got %v", order)
	}
}

func TestHandlerMayIssueActions(t *testing.T) {
	st, _, _ := newTestStore(t)
	ctx := context.Background()

	reacted := false
	_, cancel := Subscribe(st, func(sc scene.Scene) int { return len(sc.Nodes) }, nil, func(int) {
		if reacted {
			return
		}
		reacted = true
		// Handlers run outside the store lock, so follow-up actions are safe.
		if _, err := st.CreateRectangle(ctx, scene.Rectangle{ID: "auto"}); err != nil {
			t.Errorf("create rectangle from handler: %v", err)
		}
	})
	defer cancel()

	if _, err := st.CreateNode(ctx, scene.Node{ID: "n"}); err != nil {
		t.Fatalf("create node: %v", err)
	}
	if _, ok := st.Scene().Rectangle("auto"); !ok {
		t.Fatalf("handler action not applied")
	}
}
