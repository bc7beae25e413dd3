// Package scenedoc validates and normalizes untrusted scene documents. Raw
// bytes pass a JSON Schema shape check plus the structural rules the schema
// cannot express (id uniqueness per sequence), then decode into a scene whose
// derived values are recomputed from scratch. Inbound connector paths and
// text box sizes are never trusted.
package scenedoc

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"diagramcore/pkg/scene"
)

type schemaRegistry struct {
	once    sync.Once
	initErr error
	scene   *jsonschema.Schema
}

var schemas schemaRegistry

func initSchemas() error {
	schemas.once.Do(func() {
		compiled, err := jsonschema.CompileString("scene_document", sceneDocumentSchema)
		if err != nil {
			schemas.initErr = err
			return
		}
		schemas.scene = compiled
	})
	return schemas.initErr
}

// Codec is the default scene.DocumentCodec. Normalization derives connector
// paths through the router and text box sizes through the measurer.
type Codec struct {
	router   scene.PathRouter
	measurer scene.TextMeasurer
}

// New constructs a codec around the geometry collaborators.
func New(router scene.PathRouter, measurer scene.TextMeasurer) (*Codec, error) {
	if router == nil {
		return nil, errors.New("scenedoc: nil path router")
	}
	if measurer == nil {
		return nil, errors.New("scenedoc: nil text measurer")
	}
	return &Codec{router: router, measurer: measurer}, nil
}

// Validate implements scene.DocumentCodec. Shape and structural violations
// surface as scene.ValidationError; only schema compilation failures, which
// indicate a broken build, surface as plain errors.
func (c *Codec) Validate(raw []byte) error {
	if err := initSchemas(); err != nil {
		return err
	}

	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return scene.ValidationError{Issues: []string{fmt.Sprintf("document is not valid JSON: %v", err)}}
	}
	if err := schemas.scene.Validate(payload); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return scene.ValidationError{Issues: flattenSchemaError(ve)}
		}
		return scene.ValidationError{Issues: []string{err.Error()}}
	}

	var doc scene.Scene
	if err := json.Unmarshal(raw, &doc); err != nil {
		return scene.ValidationError{Issues: []string{fmt.Sprintf("document does not decode as a scene: %v", err)}}
	}
	if issues := structuralIssues(doc); len(issues) > 0 {
		return scene.ValidationError{Issues: issues}
	}
	return nil
}

// Normalize implements scene.DocumentCodec. The caller is expected to have
// validated raw first; decode failures still come back as ValidationError.
func (c *Codec) Normalize(raw []byte) (scene.Scene, error) {
	var doc scene.Scene
	if err := json.Unmarshal(raw, &doc); err != nil {
		return scene.Scene{}, scene.ValidationError{Issues: []string{fmt.Sprintf("document does not decode as a scene: %v", err)}}
	}

	all := doc.AllAnchors()
	for i, conn := range doc.Connectors {
		doc.Connectors[i].Path = c.router.ComputePath(conn.Anchors, doc.Nodes, all)
	}
	for i, t := range doc.TextBoxes {
		doc.TextBoxes[i].Size = scene.Size{
			Width:  c.measurer.MeasureTextWidth(t.Text, t.Style()),
			Height: scene.DerivedTextHeight,
		}
	}
	return doc, nil
}

// structuralIssues reports the rules the schema cannot express: every id is
// unique within its own sequence.
func structuralIssues(doc scene.Scene) []string {
	var issues []string
	check := func(kind scene.Kind, ids []string) {
		seen := make(map[string]bool, len(ids))
		for _, id := range ids {
			if seen[id] {
				issues = append(issues, fmt.Sprintf("duplicate %s id %q", kind, id))
				continue
			}
			seen[id] = true
		}
	}

	ids := make([]string, 0, len(doc.Icons))
	for _, e := range doc.Icons {
		ids = append(ids, e.ID)
	}
	check(scene.KindIcon, ids)

	ids = ids[:0]
	for _, e := range doc.Nodes {
		ids = append(ids, e.ID)
	}
	check(scene.KindNode, ids)

	ids = ids[:0]
	for _, e := range doc.Connectors {
		ids = append(ids, e.ID)
	}
	check(scene.KindConnector, ids)

	ids = ids[:0]
	for _, e := range doc.TextBoxes {
		ids = append(ids, e.ID)
	}
	check(scene.KindTextBox, ids)

	ids = ids[:0]
	for _, e := range doc.Rectangles {
		ids = append(ids, e.ID)
	}
	check(scene.KindRectangle, ids)

	return issues
}

func flattenSchemaError(err *jsonschema.ValidationError) []string {
	if len(err.Causes) == 0 {
		loc := err.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		return []string{fmt.Sprintf("%s: %s", loc, err.Message)}
	}
	var issues []string
	for _, cause := range err.Causes {
		issues = append(issues, flattenSchemaError(cause)...)
	}
	return issues
}

const sceneDocumentSchema = `{
  "type": "object",
  "properties": {
    "icons": { "type": "array", "items": { "$ref": "#/$defs/icon" } },
    "nodes": { "type": "array", "items": { "$ref": "#/$defs/node" } },
    "connectors": { "type": "array", "items": { "$ref": "#/$defs/connector" } },
    "textBoxes": { "type": "array", "items": { "$ref": "#/$defs/textBox" } },
    "rectangles": { "type": "array", "items": { "$ref": "#/$defs/rectangle" } }
  },
  "additionalProperties": true,
  "$defs": {
    "point": {
      "type": "object",
      "required": ["x", "y"],
      "properties": {
        "x": { "type": "number" },
        "y": { "type": "number" }
      },
      "additionalProperties": true
    },
    "size": {
      "type": "object",
      "required": ["width", "height"],
      "properties": {
        "width": { "type": "number" },
        "height": { "type": "number" }
      },
      "additionalProperties": true
    },
    "ref": {
      "type": "object",
      "required": ["type", "id"],
      "properties": {
        "type": { "const": "NODE" },
        "id": { "type": "string", "minLength": 1 }
      },
      "additionalProperties": true
    },
    "anchor": {
      "type": "object",
      "anyOf": [
        { "required": ["point"] },
        { "required": ["ref"] }
      ],
      "properties": {
        "point": { "$ref": "#/$defs/point" },
        "ref": { "$ref": "#/$defs/ref" },
        "offset": { "$ref": "#/$defs/point" }
      },
      "additionalProperties": true
    },
    "icon": {
      "type": "object",
      "required": ["id"],
      "properties": {
        "id": { "type": "string", "minLength": 1 },
        "position": { "$ref": "#/$defs/point" },
        "size": { "$ref": "#/$defs/size" },
        "assetKey": { "type": "string" }
      },
      "additionalProperties": true
    },
    "node": {
      "type": "object",
      "required": ["id"],
      "properties": {
        "id": { "type": "string", "minLength": 1 },
        "position": { "$ref": "#/$defs/point" },
        "size": { "$ref": "#/$defs/size" },
        "label": { "type": "string" }
      },
      "additionalProperties": true
    },
    "connector": {
      "type": "object",
      "required": ["id", "anchors"],
      "properties": {
        "id": { "type": "string", "minLength": 1 },
        "anchors": {
          "type": "array",
          "minItems": 2,
          "items": { "$ref": "#/$defs/anchor" }
        },
        "path": {
          "type": "array",
          "items": { "$ref": "#/$defs/point" }
        }
      },
      "additionalProperties": true
    },
    "textBox": {
      "type": "object",
      "required": ["id"],
      "properties": {
        "id": { "type": "string", "minLength": 1 },
        "position": { "$ref": "#/$defs/point" },
        "text": { "type": "string" },
        "fontSize": { "type": "number", "minimum": 0 },
        "size": { "$ref": "#/$defs/size" }
      },
      "additionalProperties": true
    },
    "rectangle": {
      "type": "object",
      "required": ["id"],
      "properties": {
        "id": { "type": "string", "minLength": 1 },
        "position": { "$ref": "#/$defs/point" },
        "size": { "$ref": "#/$defs/size" }
      },
      "additionalProperties": true
    }
  }
}`
