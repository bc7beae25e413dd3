package store

import (
	"context"
	"fmt"
	"time"

	"diagramcore/pkg/scene"
)

// Operation identifiers used by metrics, traces and audit records.
const (
	opSetScene        = "set_scene"
	opUpdateScene     = "update_scene"
	opCreateNode      = "create_node"
	opUpdateNode      = "update_node"
	opDeleteNode      = "delete_node"
	opCreateConnector = "create_connector"
	opUpdateConnector = "update_connector"
	opDeleteConnector = "delete_connector"
	opCreateRectangle = "create_rectangle"
	opUpdateRectangle = "update_rectangle"
	opDeleteRectangle = "delete_rectangle"
	opCreateTextBox   = "create_text_box"
	opUpdateTextBox   = "update_text_box"
	opDeleteTextBox   = "delete_text_box"
)

type auditMeta struct {
	kind   scene.Kind
	action Action
}

// auditMetadata maps operations to their audit classification. Operations
// absent from the table produce no audit entry.
var auditMetadata = map[string]auditMeta{
	opSetScene:        {action: ActionReplace},
	opUpdateScene:     {action: ActionReplace},
	opCreateNode:      {kind: scene.KindNode, action: ActionCreate},
	opUpdateNode:      {kind: scene.KindNode, action: ActionUpdate},
	opDeleteNode:      {kind: scene.KindNode, action: ActionDelete},
	opCreateConnector: {kind: scene.KindConnector, action: ActionCreate},
	opUpdateConnector: {kind: scene.KindConnector, action: ActionUpdate},
	opDeleteConnector: {kind: scene.KindConnector, action: ActionDelete},
	opCreateRectangle: {kind: scene.KindRectangle, action: ActionCreate},
	opUpdateRectangle: {kind: scene.KindRectangle, action: ActionUpdate},
	opDeleteRectangle: {kind: scene.KindRectangle, action: ActionDelete},
	opCreateTextBox:   {kind: scene.KindTextBox, action: ActionCreate},
	opUpdateTextBox:   {kind: scene.KindTextBox, action: ActionUpdate},
	opDeleteTextBox:   {kind: scene.KindTextBox, action: ActionDelete},
}

func (s *Store) recordAudit(ctx context.Context, op, entityID string, err error, duration time.Duration) {
	meta, ok := auditMetadata[op]
	if !ok {
		return
	}
	status := AuditStatusSuccess
	if err != nil {
		status = AuditStatusError
	}
	s.audit.Record(ctx, AuditEntry{
		Operation: op,
		Kind:      meta.kind,
		Action:    meta.action,
		EntityID:  entityID,
		Status:    status,
		Duration:  duration,
		Timestamp: s.clock.Now().UTC(),
	})
}

// SetScene ingests an untrusted scene document: the raw bytes pass through
// the codec's validation (failures surface as scene.ValidationError and leave
// the published scene untouched), are normalized into a full Scene with all
// derived values computed, and replace the published scene wholesale.
func (s *Store) SetScene(ctx context.Context, raw []byte) error {
	return s.apply(ctx, opSetScene, func() (string, func(), error) {
		if err := s.codec.Validate(raw); err != nil {
			return "", nil, err
		}
		next, err := s.codec.Normalize(raw)
		if err != nil {
			return "", nil, err
		}
		return "", s.publishLocked(next), nil
	})
}

// SceneUpdate carries wholesale sequence replacements for UpdateScene. A nil
// slice leaves the corresponding sequence unchanged; a non-nil empty slice
// replaces it with an empty one.
type SceneUpdate struct {
	Nodes      []scene.Node
	Connectors []scene.Connector
	Rectangles []scene.Rectangle
}

// UpdateScene replaces the node, connector and rectangle sequences with the
// caller-supplied values, without validation, cascade, or path recomputation.
//
// Trust boundary: the caller is responsible for supplying a self-consistent
// sub-state. The intended callers are collaborators that have already derived
// consistent geometry, the routing layer above all; the engine deliberately
// does not re-derive connector paths here and will publish whatever it is
// given.
func (s *Store) UpdateScene(ctx context.Context, update SceneUpdate) error {
	return s.apply(ctx, opUpdateScene, func() (string, func(), error) {
		next := s.scene
		if update.Nodes != nil {
			next.Nodes = append([]scene.Node(nil), update.Nodes...)
		}
		if update.Connectors != nil {
			replaced := make([]scene.Connector, len(update.Connectors))
			for i, c := range update.Connectors {
				replaced[i] = c.Clone()
			}
			next.Connectors = replaced
		}
		if update.Rectangles != nil {
			next.Rectangles = append([]scene.Rectangle(nil), update.Rectangles...)
		}
		return "", s.publishLocked(next), nil
	})
}

// CreateNode appends a node. An empty id is assigned a generated one; a
// duplicate id fails the action. New nodes have no bound connectors, so no
// cascade runs.
func (s *Store) CreateNode(ctx context.Context, input scene.Node) (scene.Node, error) {
	var created scene.Node
	err := s.apply(ctx, opCreateNode, func() (string, func(), error) {
		node := input
		if node.ID == "" {
			node.ID = s.newID()
		}
		if _, exists := s.nodes[node.ID]; exists {
			return node.ID, nil, fmt.Errorf("node %q already exists", node.ID)
		}
		next := s.scene
		next.Nodes = appendEntity(s.scene.Nodes, node)
		created = node
		return node.ID, s.publishLocked(next), nil
	})
	return created, err
}

// UpdateNode applies the mutator to a copy of the node (any field may be set,
// including to a zero value; the id is preserved) and then recomputes the
// path of every connector with an anchor bound to the node, routing against
// the updated node set and the flattened anchor set of all connectors.
func (s *Store) UpdateNode(ctx context.Context, id string, mutate func(*scene.Node) error) (scene.Node, error) {
	var updated scene.Node
	err := s.apply(ctx, opUpdateNode, func() (string, func(), error) {
		idx, ok := s.nodes[id]
		if !ok {
			return id, nil, scene.NotFoundError{Kind: scene.KindNode, ID: id}
		}
		node := s.scene.Nodes[idx]
		if err := mutate(&node); err != nil {
			return id, nil, err
		}
		node.ID = id

		next := s.scene
		next.Nodes = replaceEntity(s.scene.Nodes, idx, node)

		var routed []scene.Connector
		var all []scene.Anchor
		for i, c := range s.scene.Connectors {
			if !c.References(id) {
				continue
			}
			if routed == nil {
				routed = append([]scene.Connector(nil), s.scene.Connectors...)
				all = next.AllAnchors()
			}
			rc := c
			rc.Path = s.router.ComputePath(c.Anchors, next.Nodes, all)
			routed[i] = rc
		}
		if routed != nil {
			next.Connectors = routed
		}

		updated = node
		return id, s.publishLocked(next), nil
	})
	return updated, err
}

// DeleteNode removes the node and every connector that has at least one
// anchor bound to it. A connector with one endpoint on a deleted node is not
// salvageable and is dropped whole, never re-anchored.
func (s *Store) DeleteNode(ctx context.Context, id string) error {
	return s.apply(ctx, opDeleteNode, func() (string, func(), error) {
		idx, ok := s.nodes[id]
		if !ok {
			return id, nil, scene.NotFoundError{Kind: scene.KindNode, ID: id}
		}
		next := s.scene
		next.Nodes = removeEntity(s.scene.Nodes, idx)

		dropped := 0
		for _, c := range s.scene.Connectors {
			if c.References(id) {
				dropped++
			}
		}
		if dropped > 0 {
			kept := make([]scene.Connector, 0, len(s.scene.Connectors)-dropped)
			for _, c := range s.scene.Connectors {
				if !c.References(id) {
					kept = append(kept, c)
				}
			}
			next.Connectors = kept
		}
		return id, s.publishLocked(next), nil
	})
}

// CreateConnector normalizes the input (id assignment, anchor arity check),
// computes the initial path against the current node set and the global
// anchor context, and appends. Anchors referencing unknown nodes are the
// router's concern and are not re-validated here.
func (s *Store) CreateConnector(ctx context.Context, input scene.Connector) (scene.Connector, error) {
	var created scene.Connector
	err := s.apply(ctx, opCreateConnector, func() (string, func(), error) {
		c := input.Clone()
		if c.ID == "" {
			c.ID = s.newID()
		}
		if _, exists := s.connectors[c.ID]; exists {
			return c.ID, nil, fmt.Errorf("connector %q already exists", c.ID)
		}
		if len(c.Anchors) < 2 {
			return c.ID, nil, fmt.Errorf("connector %q requires at least two anchors, got %d", c.ID, len(c.Anchors))
		}
		all := append(s.scene.AllAnchors(), c.Anchors...)
		c.Path = s.router.ComputePath(c.Anchors, s.scene.Nodes, all)

		next := s.scene
		next.Connectors = appendEntity(s.scene.Connectors, c)
		created = c
		return c.ID, s.publishLocked(next), nil
	})
	return created, err
}

// UpdateConnector applies the mutator to a deep copy of the connector. The
// path is NOT recomputed: a caller that touches anchors owns the matching
// path, mirroring the shallow-merge contract of UpdateNode.
func (s *Store) UpdateConnector(ctx context.Context, id string, mutate func(*scene.Connector) error) (scene.Connector, error) {
	var updated scene.Connector
	err := s.apply(ctx, opUpdateConnector, func() (string, func(), error) {
		idx, ok := s.connectors[id]
		if !ok {
			return id, nil, scene.NotFoundError{Kind: scene.KindConnector, ID: id}
		}
		c := s.scene.Connectors[idx].Clone()
		if err := mutate(&c); err != nil {
			return id, nil, err
		}
		c.ID = id

		next := s.scene
		next.Connectors = replaceEntity(s.scene.Connectors, idx, c)
		updated = c
		return id, s.publishLocked(next), nil
	})
	return updated, err
}

// DeleteConnector removes the connector. Nothing references connectors, so
// no cascade runs.
func (s *Store) DeleteConnector(ctx context.Context, id string) error {
	return s.apply(ctx, opDeleteConnector, func() (string, func(), error) {
		idx, ok := s.connectors[id]
		if !ok {
			return id, nil, scene.NotFoundError{Kind: scene.KindConnector, ID: id}
		}
		next := s.scene
		next.Connectors = removeEntity(s.scene.Connectors, idx)
		return id, s.publishLocked(next), nil
	})
}

// CreateRectangle appends a rectangle. Rectangles participate in no
// references.
func (s *Store) CreateRectangle(ctx context.Context, input scene.Rectangle) (scene.Rectangle, error) {
	var created scene.Rectangle
	err := s.apply(ctx, opCreateRectangle, func() (string, func(), error) {
		r := input
		if r.ID == "" {
			r.ID = s.newID()
		}
		if _, exists := s.rectangles[r.ID]; exists {
			return r.ID, nil, fmt.Errorf("rectangle %q already exists", r.ID)
		}
		next := s.scene
		next.Rectangles = appendEntity(s.scene.Rectangles, r)
		created = r
		return r.ID, s.publishLocked(next), nil
	})
	return created, err
}

// UpdateRectangle applies the mutator to a copy of the rectangle.
func (s *Store) UpdateRectangle(ctx context.Context, id string, mutate func(*scene.Rectangle) error) (scene.Rectangle, error) {
	var updated scene.Rectangle
	err := s.apply(ctx, opUpdateRectangle, func() (string, func(), error) {
		idx, ok := s.rectangles[id]
		if !ok {
			return id, nil, scene.NotFoundError{Kind: scene.KindRectangle, ID: id}
		}
		r := s.scene.Rectangles[idx]
		if err := mutate(&r); err != nil {
			return id, nil, err
		}
		r.ID = id

		next := s.scene
		next.Rectangles = replaceEntity(s.scene.Rectangles, idx, r)
		updated = r
		return id, s.publishLocked(next), nil
	})
	return updated, err
}

// DeleteRectangle removes the rectangle.
func (s *Store) DeleteRectangle(ctx context.Context, id string) error {
	return s.apply(ctx, opDeleteRectangle, func() (string, func(), error) {
		idx, ok := s.rectangles[id]
		if !ok {
			return id, nil, scene.NotFoundError{Kind: scene.KindRectangle, ID: id}
		}
		next := s.scene
		next.Rectangles = removeEntity(s.scene.Rectangles, idx)
		return id, s.publishLocked(next), nil
	})
}

// CreateTextBox normalizes the input and appends it. Size is always derived
// at creation: width from the measurer, height fixed by the layout policy.
func (s *Store) CreateTextBox(ctx context.Context, input scene.TextBox) (scene.TextBox, error) {
	var created scene.TextBox
	err := s.apply(ctx, opCreateTextBox, func() (string, func(), error) {
		t := input
		if t.ID == "" {
			t.ID = s.newID()
		}
		if _, exists := s.textBoxes[t.ID]; exists {
			return t.ID, nil, fmt.Errorf("text box %q already exists", t.ID)
		}
		t.Size = s.measureTextBox(t)

		next := s.scene
		next.TextBoxes = appendEntity(s.scene.TextBoxes, t)
		created = t
		return t.ID, s.publishLocked(next), nil
	})
	return created, err
}

// UpdateTextBox applies the mutator to a copy of the text box. When the
// effective text or font size differs from the previous value, the size is
// recomputed from the effective values and overrides anything the mutator
// assigned: a stale size inside an update can never clobber the derived one.
func (s *Store) UpdateTextBox(ctx context.Context, id string, mutate func(*scene.TextBox) error) (scene.TextBox, error) {
	var updated scene.TextBox
	err := s.apply(ctx, opUpdateTextBox, func() (string, func(), error) {
		idx, ok := s.textBoxes[id]
		if !ok {
			return id, nil, scene.NotFoundError{Kind: scene.KindTextBox, ID: id}
		}
		prev := s.scene.TextBoxes[idx]
		t := prev
		if err := mutate(&t); err != nil {
			return id, nil, err
		}
		t.ID = id
		if t.Text != prev.Text || t.FontSize != prev.FontSize {
			t.Size = s.measureTextBox(t)
		}

		next := s.scene
		next.TextBoxes = replaceEntity(s.scene.TextBoxes, idx, t)
		updated = t
		return id, s.publishLocked(next), nil
	})
	return updated, err
}

// DeleteTextBox removes the text box.
func (s *Store) DeleteTextBox(ctx context.Context, id string) error {
	return s.apply(ctx, opDeleteTextBox, func() (string, func(), error) {
		idx, ok := s.textBoxes[id]
		if !ok {
			return id, nil, scene.NotFoundError{Kind: scene.KindTextBox, ID: id}
		}
		next := s.scene
		next.TextBoxes = removeEntity(s.scene.TextBoxes, idx)
		return id, s.publishLocked(next), nil
	})
}

func (s *Store) measureTextBox(t scene.TextBox) scene.Size {
	return scene.Size{
		Width:  s.measurer.MeasureTextWidth(t.Text, t.Style()),
		Height: scene.DerivedTextHeight,
	}
}
