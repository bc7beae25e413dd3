// Package scene defines the entity model, reference scheme, and collaborator
// contracts for the diagramcore scene store.
package scene

// Kind identifies the entity sequence a record belongs to.
type Kind string

// Supported entity kind identifiers used in errors, audit records and
// persistence buckets.
const (
	// KindIcon identifies an icon record.
	KindIcon Kind = "icon"
	// KindNode identifies a node record.
	KindNode Kind = "node"
	// KindConnector identifies a connector record.
	KindConnector Kind = "connector"
	// KindTextBox identifies a text box record.
	KindTextBox Kind = "text_box"
	// KindRectangle identifies a rectangle record.
	KindRectangle Kind = "rectangle"
)

// RefKind identifies what an anchor reference points at.
type RefKind string

// Supported reference kinds. Only node references exist today; the type is
// open for future reference targets.
const (
	// RefNode marks a reference to a node's attachment point.
	RefNode RefKind = "NODE"
)

// Point is a 2-D coordinate in scene units.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is a 2-D extent in scene units.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Path is the rendered polyline of a connector, derived from its anchors and
// the referenced node geometry at the last successful recompute.
type Path []Point

// Ref is a weak reference to another entity, resolved by id lookup. A ref
// never owns its target.
type Ref struct {
	Kind RefKind `json:"type"`
	ID   string  `json:"id"`
}

// Anchor is one endpoint of a connector: either free floating at Point, or
// bound to a node through Ref with Offset as the relative attachment point
// within the node's bounds (0..1 per axis).
type Anchor struct {
	Point  Point `json:"point"`
	Ref    Ref   `json:"ref,omitzero"`
	Offset Point `json:"offset,omitzero"`
}

// Bound reports whether the anchor references a node rather than a free
// coordinate.
func (a Anchor) Bound() bool { return a.Ref.Kind != "" }

// BoundTo reports whether the anchor references the node with the given id.
func (a Anchor) BoundTo(id string) bool { return a.Ref.Kind == RefNode && a.Ref.ID == id }

// Node is a positioned, sized shape owned by the scene and referenced weakly
// by connector anchors.
type Node struct {
	ID       string `json:"id"`
	Position Point  `json:"position"`
	Size     Size   `json:"size"`
	Label    string `json:"label,omitempty"`
}

// Connector is an ordered run of at least two anchors plus the cached Path
// derived from them.
type Connector struct {
	ID      string   `json:"id"`
	Anchors []Anchor `json:"anchors"`
	Path    Path     `json:"path,omitempty"`
}

// References reports whether any anchor of the connector is bound to the node
// with the given id.
func (c Connector) References(nodeID string) bool {
	for _, a := range c.Anchors {
		if a.BoundTo(nodeID) {
			return true
		}
	}
	return false
}

// Rectangle is a plain positioned, sized shape. It participates in no
// references.
type Rectangle struct {
	ID       string `json:"id"`
	Position Point  `json:"position"`
	Size     Size   `json:"size"`
}

// TextBox is a positioned run of text. Size is derived: width from the text
// measurer, height fixed at DerivedTextHeight.
type TextBox struct {
	ID       string  `json:"id"`
	Position Point   `json:"position"`
	Text     string  `json:"text"`
	FontSize float64 `json:"fontSize,omitempty"`
	Size     Size    `json:"size"`
}

// Style returns the effective text style of the box under the fixed
// family/weight policy.
func (t TextBox) Style() TextStyle {
	size := t.FontSize
	if size == 0 {
		size = DefaultFontSize
	}
	return TextStyle{FontSize: size, FontFamily: FontFamily, FontWeight: FontWeight}
}

// Icon is an opaque positioned entity. Icons enter the scene only at load
// time; AssetKey names the icon payload in the configured asset store.
type Icon struct {
	ID       string `json:"id"`
	Position Point  `json:"position"`
	Size     Size   `json:"size"`
	AssetKey string `json:"assetKey,omitempty"`
}

// TextStyle carries the inputs of text measurement.
type TextStyle struct {
	FontSize   float64 `json:"fontSize"`
	FontFamily string  `json:"fontFamily"`
	FontWeight string  `json:"fontWeight"`
}

// Fixed typography policy. Family and weight are constant for every text box;
// only the size varies per entity.
const (
	FontFamily      = "sans-serif"
	FontWeight      = "normal"
	DefaultFontSize = 14.0
	// DerivedTextHeight is the layout height of every text box in scene
	// units. A layout convention, not a pixel measurement.
	DerivedTextHeight = 1.0
)

// Scene is the root aggregate: five ordered entity sequences. Insertion order
// is preserved for stable iteration and rendering. Every entity id is unique
// within its own sequence; ids are not required to be unique across
// sequences.
type Scene struct {
	Icons      []Icon      `json:"icons"`
	Nodes      []Node      `json:"nodes"`
	Connectors []Connector `json:"connectors"`
	TextBoxes  []TextBox   `json:"textBoxes"`
	Rectangles []Rectangle `json:"rectangles"`
}

// Node returns the node with the given id, if present.
func (s Scene) Node(id string) (Node, bool) {
	for _, n := range s.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Connector returns the connector with the given id, if present.
func (s Scene) Connector(id string) (Connector, bool) {
	for _, c := range s.Connectors {
		if c.ID == id {
			return c, true
		}
	}
	return Connector{}, false
}

// Rectangle returns the rectangle with the given id, if present.
func (s Scene) Rectangle(id string) (Rectangle, bool) {
	for _, r := range s.Rectangles {
		if r.ID == id {
			return r, true
		}
	}
	return Rectangle{}, false
}

// TextBox returns the text box with the given id, if present.
func (s Scene) TextBox(id string) (TextBox, bool) {
	for _, t := range s.TextBoxes {
		if t.ID == id {
			return t, true
		}
	}
	return TextBox{}, false
}

// Icon returns the icon with the given id, if present.
func (s Scene) Icon(id string) (Icon, bool) {
	for _, ic := range s.Icons {
		if ic.ID == id {
			return ic, true
		}
	}
	return Icon{}, false
}

// AllAnchors returns the flattened anchor set of every connector, in
// connector order. Routing consumes it as global context.
func (s Scene) AllAnchors() []Anchor {
	n := 0
	for _, c := range s.Connectors {
		n += len(c.Anchors)
	}
	if n == 0 {
		return nil
	}
	all := make([]Anchor, 0, n)
	for _, c := range s.Connectors {
		all = append(all, c.Anchors...)
	}
	return all
}

// Clone returns a deep copy of the scene. Consumers that retain scenes across
// store publishes do not need this; it exists for layers that must own an
// isolated value, such as archives.
func (s Scene) Clone() Scene {
	out := Scene{}
	if s.Icons != nil {
		out.Icons = append([]Icon(nil), s.Icons...)
	}
	if s.Nodes != nil {
		out.Nodes = append([]Node(nil), s.Nodes...)
	}
	if s.Connectors != nil {
		out.Connectors = make([]Connector, len(s.Connectors))
		for i, c := range s.Connectors {
			out.Connectors[i] = c.Clone()
		}
	}
	if s.TextBoxes != nil {
		out.TextBoxes = append([]TextBox(nil), s.TextBoxes...)
	}
	if s.Rectangles != nil {
		out.Rectangles = append([]Rectangle(nil), s.Rectangles...)
	}
	return out
}

// Clone returns a deep copy of the connector, including its anchor and path
// slices.
func (c Connector) Clone() Connector {
	out := c
	if c.Anchors != nil {
		out.Anchors = append([]Anchor(nil), c.Anchors...)
	}
	if c.Path != nil {
		out.Path = append(Path(nil), c.Path...)
	}
	return out
}
