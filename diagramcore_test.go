package diagramcore

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"diagramcore/internal/assets"
	archivememory "diagramcore/internal/infra/archive/memory"
	"diagramcore/pkg/scene"
)

func TestNewSessionZeroConfig(t *testing.T) {
	ctx := context.Background()
	sess, err := NewSession(ctx, Config{})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	defer func() { _ = sess.Close() }()

	node, err := sess.Store().CreateNode(ctx, scene.Node{Label: "db", Position: scene.Point{X: 1, Y: 2}, Size: scene.Size{Width: 10, Height: 5}})
	if err != nil {
		t.Fatalf("create node: %v", err)
	}
	if node.ID == "" {
		t.Fatalf("expected generated id")
	}
	if got := sess.Scene(); len(got.Nodes) != 1 || got.Nodes[0].Label != "db" {
		t.Fatalf("unexpected scene %+v", got)
	}
	if err := sess.VerifyIcons(ctx); err != nil {
		t.Fatalf("verify icons on icon-free scene: %v", err)
	}
	if err := sess.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestNewSessionRestoresArchivedScene(t *testing.T) {
	ctx := context.Background()
	arc := archivememory.NewStore()
	saved := scene.Scene{
		Nodes: []scene.Node{{ID: "n1", Label: "api", Size: scene.Size{Width: 4, Height: 2}}},
		Icons: []scene.Icon{{ID: "i1", AssetKey: "icons/api.svg"}},
	}
	if err := arc.Save(ctx, saved); err != nil {
		t.Fatalf("seed archive: %v", err)
	}

	sess, err := NewSession(ctx, Config{Archive: arc, Restore: true})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	defer func() { _ = sess.Close() }()

	got := sess.Scene()
	if len(got.Nodes) != 1 || got.Nodes[0].ID != "n1" || len(got.Icons) != 1 {
		t.Fatalf("restore lost entities: %+v", got)
	}

	// Restored icons reference assets the session cannot see.
	err = sess.VerifyIcons(ctx)
	if err == nil || !strings.Contains(err.Error(), "no asset store") {
		t.Fatalf("expected missing asset store error, got %v", err)
	}
}

func TestNewSessionSkipsRestoreWhenDisabled(t *testing.T) {
	ctx := context.Background()
	arc := archivememory.NewStore()
	if err := arc.Save(ctx, scene.Scene{Nodes: []scene.Node{{ID: "n1"}}}); err != nil {
		t.Fatalf("seed archive: %v", err)
	}
	sess, err := NewSession(ctx, Config{Archive: arc})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	defer func() { _ = sess.Close() }()
	if got := sess.Scene(); len(got.Nodes) != 0 {
		t.Fatalf("scene restored despite Restore=false: %+v", got)
	}
}

func TestSessionMirrorsActionsIntoArchive(t *testing.T) {
	ctx := context.Background()
	arc := archivememory.NewStore()
	sess, err := NewSession(ctx, Config{Archive: arc})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	if _, err := sess.Store().CreateRectangle(ctx, scene.Rectangle{ID: "r1", Size: scene.Size{Width: 3, Height: 3}}); err != nil {
		t.Fatalf("create rectangle: %v", err)
	}
	mirrored, found, err := arc.Load(ctx)
	if err != nil || !found {
		t.Fatalf("load mirrored scene: found=%v err=%v", found, err)
	}
	if len(mirrored.Rectangles) != 1 || mirrored.Rectangles[0].ID != "r1" {
		t.Fatalf("mirror missed action: %+v", mirrored)
	}

	if err := sess.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	// Detached after close: new actions stay out of the archive.
	if _, err := sess.Store().CreateRectangle(ctx, scene.Rectangle{ID: "r2"}); err != nil {
		t.Fatalf("create after close: %v", err)
	}
	mirrored, _, err = arc.Load(ctx)
	if err != nil {
		t.Fatalf("load after close: %v", err)
	}
	if len(mirrored.Rectangles) != 1 {
		t.Fatalf("mirror still attached after close: %+v", mirrored.Rectangles)
	}
}

func TestSessionVerifyIconsAgainstAssetStore(t *testing.T) {
	ctx := context.Background()
	assetStore := assets.NewMemory()
	arc := archivememory.NewStore()
	if err := arc.Save(ctx, scene.Scene{Icons: []scene.Icon{{ID: "i1", AssetKey: "icons/db.svg"}}}); err != nil {
		t.Fatalf("seed archive: %v", err)
	}
	sess, err := NewSession(ctx, Config{Archive: arc, Assets: assetStore, Restore: true})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	defer func() { _ = sess.Close() }()

	if err := sess.VerifyIcons(ctx); err == nil {
		t.Fatalf("expected missing asset error")
	}
	if _, err := assetStore.Put(ctx, "icons/db.svg", bytes.NewReader([]byte("<svg/>")), assets.PutOptions{ContentType: "image/svg+xml"}); err != nil {
		t.Fatalf("put asset: %v", err)
	}
	if err := sess.VerifyIcons(ctx); err != nil {
		t.Fatalf("verify after upload: %v", err)
	}
	if sess.Assets() != assetStore {
		t.Fatalf("asset store accessor mismatch")
	}
}

func TestOpenSessionFromEnvironment(t *testing.T) {
	t.Setenv("DIAGRAMCORE_ARCHIVE_DRIVER", "memory")
	t.Setenv("DIAGRAMCORE_ASSET_DRIVER", "memory")

	ctx := context.Background()
	sess, err := OpenSession(ctx)
	if err != nil {
		t.Fatalf("OpenSession: %v", err)
	}
	if _, err := sess.Store().CreateNode(ctx, scene.Node{Label: "svc"}); err != nil {
		t.Fatalf("create node: %v", err)
	}
	if sess.Assets() == nil {
		t.Fatalf("expected asset store from environment")
	}
	if err := sess.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}
