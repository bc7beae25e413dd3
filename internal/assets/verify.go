package assets

import (
	"context"
	"errors"
	"fmt"

	"diagramcore/pkg/scene"
)

// VerifyIcons checks that every icon asset referenced by the scene exists in
// the store. Icons without an AssetKey have no payload and are skipped. All
// failures are reported together so a caller sees the full set of broken
// references at once.
func VerifyIcons(ctx context.Context, store Store, sc scene.Scene) error {
	var errs []error
	for _, icon := range sc.Icons {
		if icon.AssetKey == "" {
			continue
		}
		if _, err := store.Head(ctx, icon.AssetKey); err != nil {
			errs = append(errs, fmt.Errorf("icon %s: asset %s: %w", icon.ID, icon.AssetKey, err))
		}
	}
	return errors.Join(errs...)
}
