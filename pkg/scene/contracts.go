package scene

// PathRouter computes the drawn geometry of a connector from its anchors, the
// current node set, and the flattened anchor set of every connector (global
// routing context). Implementations must be pure and total over anchor sets
// whose node references resolve within nodes; behavior for dangling
// references is the router's policy. The engine never invokes a router with a
// node that is being deleted in the same cascade step.
type PathRouter interface {
	ComputePath(anchors []Anchor, nodes []Node, allAnchors []Anchor) Path
}

// RouteFunc adapts a plain routing function to PathRouter.
type RouteFunc func(anchors []Anchor, nodes []Node, allAnchors []Anchor) Path

// ComputePath calls f.
func (f RouteFunc) ComputePath(anchors []Anchor, nodes []Node, allAnchors []Anchor) Path {
	return f(anchors, nodes, allAnchors)
}

// TextMeasurer measures rendered text width under a style. Implementations
// must be pure and deterministic for identical inputs.
type TextMeasurer interface {
	MeasureTextWidth(text string, style TextStyle) float64
}

// MeasureFunc adapts a plain measuring function to TextMeasurer.
type MeasureFunc func(text string, style TextStyle) float64

// MeasureTextWidth calls f.
func (f MeasureFunc) MeasureTextWidth(text string, style TextStyle) float64 {
	return f(text, style)
}

// DocumentCodec validates and normalizes externally sourced scene documents.
// Validate returns a ValidationError when the document is malformed.
// Normalize decodes a validated document into a Scene and derives every
// cached value: connector paths through the router, text box sizes through
// the measurer.
type DocumentCodec interface {
	Validate(raw []byte) error
	Normalize(raw []byte) (Scene, error)
}
