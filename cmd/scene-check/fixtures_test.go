package main

import (
	"os"
	"path/filepath"
	"testing"
)

// validDoc carries stale derived state (connector path, text box size) that
// normalization must rewrite.
const validDoc = `{
  "nodes": [
    {"id": "n1", "position": {"x": 0, "y": 0}, "size": {"width": 10, "height": 10}, "label": "api"},
    {"id": "n2", "position": {"x": 20, "y": 0}, "size": {"width": 10, "height": 10}, "label": "db"}
  ],
  "connectors": [
    {"id": "c1", "anchors": [{"ref": {"type": "NODE", "id": "n1"}}, {"ref": {"type": "NODE", "id": "n2"}}], "path": [{"x": 999, "y": 999}, {"x": 998, "y": 998}]}
  ],
  "rectangles": [
    {"id": "r1", "position": {"x": 1, "y": 1}, "size": {"width": 5, "height": 5}}
  ],
  "textBoxes": [
    {"id": "t1", "position": {"x": 2, "y": 2}, "text": "Hi", "fontSize": 10, "size": {"width": 500, "height": 500}}
  ],
  "icons": [
    {"id": "i1", "position": {"x": 3, "y": 3}, "size": {"width": 2, "height": 2}}
  ]
}`

const duplicateIDDoc = `{
  "nodes": [
    {"id": "n1", "position": {"x": 0, "y": 0}, "size": {"width": 1, "height": 1}},
    {"id": "n1", "position": {"x": 5, "y": 5}, "size": {"width": 1, "height": 1}}
  ]
}`

const singleAnchorDoc = `{
  "connectors": [
    {"id": "c1", "anchors": [{"point": {"x": 0, "y": 0}}]}
  ]
}`

const danglingRefDoc = `{
  "nodes": [
    {"id": "n1", "position": {"x": 0, "y": 0}, "size": {"width": 2, "height": 2}}
  ],
  "connectors": [
    {"id": "c1", "anchors": [{"ref": {"type": "NODE", "id": "n1"}}, {"ref": {"type": "NODE", "id": "ghost"}}]}
  ]
}`

const iconAssetDoc = `{
  "icons": [
    {"id": "i1", "position": {"x": 0, "y": 0}, "size": {"width": 2, "height": 2}, "assetKey": "icons/db.svg"}
  ]
}`

func writeSceneFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scene.json")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write scene file: %v", err)
	}
	return path
}
