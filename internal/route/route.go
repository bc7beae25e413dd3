// Package route computes connector polylines from anchor sequences and the
// current node set. The router is pure: identical inputs yield identical
// paths and no input slice is mutated.
package route

import (
	"math"

	"diagramcore/pkg/scene"
)

// Router renders orthogonal (Manhattan) polylines. Consecutive anchor points
// that do not share an axis are joined through a single mid-axis elbow on the
// dominant direction; collinear runs collapse to their endpoints.
type Router struct{}

// New returns the default router.
func New() *Router { return &Router{} }

// ComputePath implements scene.PathRouter. The global anchor set is accepted
// for interface compatibility; this router does not use it.
func (r *Router) ComputePath(anchors []scene.Anchor, nodes []scene.Node, _ []scene.Anchor) scene.Path {
	if len(anchors) == 0 {
		return nil
	}
	points := make([]scene.Point, 0, len(anchors))
	for _, a := range anchors {
		points = append(points, Resolve(a, nodes))
	}
	path := make(scene.Path, 0, 3*len(points))
	path = append(path, points[0])
	for _, p := range points[1:] {
		path = appendOrthogonal(path, p)
	}
	return collapse(path)
}

// Resolve maps one anchor to its scene position. Free anchors sit at their
// point. Bound anchors attach to the referenced node's box at the offset
// scaled by the node size; the zero offset attaches at the center. A bound
// anchor whose node id does not resolve falls back to its offset read as an
// absolute point.
func Resolve(a scene.Anchor, nodes []scene.Node) scene.Point {
	if !a.Bound() {
		return a.Point
	}
	for _, n := range nodes {
		if n.ID != a.Ref.ID {
			continue
		}
		off := a.Offset
		if off == (scene.Point{}) {
			off = scene.Point{X: 0.5, Y: 0.5}
		}
		return scene.Point{
			X: n.Position.X + off.X*n.Size.Width,
			Y: n.Position.Y + off.Y*n.Size.Height,
		}
	}
	return a.Offset
}

func appendOrthogonal(path scene.Path, to scene.Point) scene.Path {
	from := path[len(path)-1]
	if from == to {
		return path
	}
	if from.X == to.X || from.Y == to.Y {
		return append(path, to)
	}
	if math.Abs(to.X-from.X) >= math.Abs(to.Y-from.Y) {
		mid := (from.X + to.X) / 2
		return append(path,
			scene.Point{X: mid, Y: from.Y},
			scene.Point{X: mid, Y: to.Y},
			to,
		)
	}
	mid := (from.Y + to.Y) / 2
	return append(path,
		scene.Point{X: from.X, Y: mid},
		scene.Point{X: to.X, Y: mid},
		to,
	)
}

// collapse removes repeated points and merges collinear runs so every
// remaining vertex is a corner or an endpoint.
func collapse(path scene.Path) scene.Path {
	if len(path) < 3 {
		return path
	}
	out := make(scene.Path, 0, len(path))
	out = append(out, path[0])
	for _, p := range path[1:] {
		if p == out[len(out)-1] {
			continue
		}
		if len(out) >= 2 && collinear(out[len(out)-2], out[len(out)-1], p) {
			out[len(out)-1] = p
			continue
		}
		out = append(out, p)
	}
	return out
}

func collinear(a, b, c scene.Point) bool {
	return (a.X == b.X && b.X == c.X) || (a.Y == b.Y && b.Y == c.Y)
}
