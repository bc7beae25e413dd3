package assets

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"diagramcore/pkg/scene"
)

func TestVerifyIconsPassesWhenAssetsExist(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	for _, key := range []string{"icons/db.svg", "icons/queue.svg"} {
		if _, err := store.Put(ctx, key, bytes.NewReader([]byte("<svg/>")), PutOptions{ContentType: "image/svg+xml"}); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}
	sc := scene.Scene{Icons: []scene.Icon{
		{ID: "i1", AssetKey: "icons/db.svg"},
		{ID: "i2", AssetKey: "icons/queue.svg"},
		{ID: "i3", AssetKey: "icons/db.svg"}, // shared artwork
	}}
	if err := VerifyIcons(ctx, store, sc); err != nil {
		t.Fatalf("verify: %v", err)
	}
}

func TestVerifyIconsReportsEveryMissingAsset(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	if _, err := store.Put(ctx, "icons/db.svg", bytes.NewReader([]byte("<svg/>")), PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	sc := scene.Scene{Icons: []scene.Icon{
		{ID: "i1", AssetKey: "icons/db.svg"},
		{ID: "i2", AssetKey: "icons/gone.svg"},
		{ID: "i3", AssetKey: "icons/also-gone.svg"},
	}}
	err := VerifyIcons(ctx, store, sc)
	if err == nil {
		t.Fatalf("expected verification failure")
	}
	msg := err.Error()
	for _, want := range []string{"icon i2", "icons/gone.svg", "icon i3", "icons/also-gone.svg"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("error %q missing %q", msg, want)
		}
	}
	if strings.Contains(msg, "i1") {
		t.Fatalf("healthy icon reported: %q", msg)
	}
}

func TestVerifyIconsSkipsIconsWithoutAssets(t *testing.T) {
	sc := scene.Scene{Icons: []scene.Icon{{ID: "plain"}}}
	if err := VerifyIcons(context.Background(), NewMemory(), sc); err != nil {
		t.Fatalf("verify: %v", err)
	}
}
