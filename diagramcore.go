// Package diagramcore assembles an editing session for a 2-D diagram scene:
// the consistency store wired to its routing, text measurement and document
// codec collaborators, plus optional archive persistence and icon asset
// storage.
package diagramcore

import (
	"context"
	"fmt"

	"diagramcore/internal/archive"
	"diagramcore/internal/assets"
	"diagramcore/internal/route"
	"diagramcore/internal/scenedoc"
	"diagramcore/internal/store"
	"diagramcore/internal/textmetrics"
	"diagramcore/pkg/scene"
)

// Convenience aliases so embedding applications can depend on the root
// package alone.
type (
	// SceneStore is the consistency engine behind a session.
	SceneStore = store.Store
	// Archive persists the latest scene snapshot.
	Archive = archive.Archive
	// AssetStore holds icon payloads referenced by AssetKey.
	AssetStore = assets.Store
)

// Config configures a session. The zero value yields a fully in-memory
// session with no persistence and no asset backend.
type Config struct {
	Archive Archive    // optional scene persistence backend, closed by Session.Close
	Assets  AssetStore // optional icon asset backend
	Restore bool       // start from the archived scene when one exists

	// Logger is shared by the store and the archive mirror.
	Logger store.Logger
	// StoreOptions carries further store instrumentation (metrics, tracing,
	// audit, clock, id generation).
	StoreOptions []store.Option
}

// Session owns one scene store and its attached backends.
type Session struct {
	store   *store.Store
	archive Archive
	assets  AssetStore
	detach  store.CancelFunc
}

// NewSession builds the default collaborators, opens the store and attaches
// the configured backends. When cfg.Restore is set and the archive holds a
// scene, the store starts from that snapshot; the snapshot is trusted as-is,
// matching the bulk-replace contract of UpdateScene.
func NewSession(ctx context.Context, cfg Config) (*Session, error) {
	router := route.New()
	measurer := textmetrics.New()
	codec, err := scenedoc.New(router, measurer)
	if err != nil {
		return nil, err
	}
	opts := cfg.StoreOptions
	if cfg.Logger != nil {
		opts = append([]store.Option{store.WithLogger(cfg.Logger)}, opts...)
	}
	st, err := store.New(store.Collaborators{Router: router, Measurer: measurer, Codec: codec}, opts...)
	if err != nil {
		return nil, err
	}
	sess := &Session{store: st, archive: cfg.Archive, assets: cfg.Assets}
	if cfg.Archive != nil {
		if cfg.Restore {
			sc, found, err := cfg.Archive.Load(ctx)
			if err != nil {
				return nil, fmt.Errorf("restore archived scene: %w", err)
			}
			if found {
				st.ImportScene(sc)
			}
		}
		sess.detach = archive.Attach(ctx, st, cfg.Archive, cfg.Logger)
	}
	return sess, nil
}

// OpenSession builds a session entirely from environment configuration: the
// archive per DIAGRAMCORE_ARCHIVE_DRIVER and the asset store per
// DIAGRAMCORE_ASSET_DRIVER. The archived scene, when present, is restored.
func OpenSession(ctx context.Context) (*Session, error) {
	arc, err := archive.Open()
	if err != nil {
		return nil, err
	}
	assetStore, err := assets.Open(ctx)
	if err != nil {
		_ = arc.Close()
		return nil, err
	}
	sess, err := NewSession(ctx, Config{Archive: arc, Assets: assetStore, Restore: true})
	if err != nil {
		_ = arc.Close()
		return nil, err
	}
	return sess, nil
}

// Store returns the scene store. All scene actions and subscriptions go
// through it.
func (s *Session) Store() *store.Store { return s.store }

// Scene returns the current published snapshot.
func (s *Session) Scene() scene.Scene { return s.store.Scene() }

// Assets returns the configured asset store, nil when the session has none.
func (s *Session) Assets() AssetStore { return s.assets }

// VerifyIcons checks every icon asset reference in the current scene against
// the session's asset store. A scene without asset references passes even
// when no asset store is configured.
func (s *Session) VerifyIcons(ctx context.Context) error {
	sc := s.store.Scene()
	if s.assets == nil {
		for _, icon := range sc.Icons {
			if icon.AssetKey != "" {
				return fmt.Errorf("icon %s references asset %s but the session has no asset store", icon.ID, icon.AssetKey)
			}
		}
		return nil
	}
	return assets.VerifyIcons(ctx, s.assets, sc)
}

// Close detaches the archive mirror and closes the archive. The store itself
// holds no resources and stays usable for in-memory work after Close.
func (s *Session) Close() error {
	if s.detach != nil {
		s.detach()
		s.detach = nil
	}
	if s.archive != nil {
		err := s.archive.Close()
		s.archive = nil
		return err
	}
	return nil
}
