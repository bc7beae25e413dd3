package archive

import (
	"context"

	"diagramcore/internal/store"
	"diagramcore/pkg/scene"
)

// Attach mirrors every published snapshot of st into arc. The mirror runs in
// the subscriber notification path, so saves happen synchronously after each
// successful action; a failed save is logged and does not undo or block the
// action that triggered it. The returned cancel detaches the mirror without
// closing the archive.
func Attach(ctx context.Context, st *store.Store, arc Archive, logger store.Logger) store.CancelFunc {
	_, cancel := store.Subscribe(st,
		func(sc scene.Scene) scene.Scene { return sc },
		func(scene.Scene, scene.Scene) bool { return false },
		func(sc scene.Scene) {
			if err := arc.Save(ctx, sc); err != nil && logger != nil {
				logger.Warn("scene archive save failed", "error", err)
			}
		})
	return cancel
}
