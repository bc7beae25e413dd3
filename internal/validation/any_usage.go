// Package validation implements repository lint checks that go vet does not
// cover.
package validation

import (
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Error is a single lint finding in a source file.
type Error struct {
	File    string
	Line    int
	Message string
	Code    string
}

// ValidateAnyUsage reports any and interface{} uses in the exported surface
// of the Go packages under the given roots. Roots are resolved relative to
// baseDir unless absolute. Exported functions and methods are checked on
// their parameters and results, exported types and variables on their full
// definition. Type parameter constraints are exempt. There is no allowlist:
// the scene contract uses concrete types, so every hit is a finding.
func ValidateAnyUsage(baseDir string, roots []string) ([]Error, error) {
	if len(roots) == 0 {
		return nil, errors.New("no roots provided for any usage validation")
	}
	baseAbs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("resolve base dir: %w", err)
	}
	var findings []Error
	for _, root := range roots {
		root = strings.TrimSpace(root)
		if root == "" {
			continue
		}
		rootPath := root
		if !filepath.IsAbs(rootPath) {
			rootPath = filepath.Join(baseAbs, rootPath)
		}
		info, err := os.Stat(rootPath)
		if err != nil {
			return nil, fmt.Errorf("stat root %s: %w", root, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("root %s is not a directory", root)
		}
		walkErr := filepath.WalkDir(rootPath, func(path string, entry fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if entry.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
				return nil
			}
			rel, err := filepath.Rel(baseAbs, path)
			if err != nil {
				return err
			}
			fileFindings, err := lintFile(path, filepath.ToSlash(rel))
			if err != nil {
				return err
			}
			findings = append(findings, fileFindings...)
			return nil
		})
		if walkErr != nil {
			return nil, walkErr
		}
	}
	return findings, nil
}

func lintFile(path, relPath string) ([]Error, error) {
	content, err := os.ReadFile(path) // #nosec G304 -- path comes from walking validated roots
	if err != nil {
		return nil, err
	}
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, content, 0)
	if err != nil {
		return nil, err
	}
	var uses []token.Pos
	for _, decl := range file.Decls {
		switch node := decl.(type) {
		case *ast.FuncDecl:
			if !node.Name.IsExported() {
				continue
			}
			uses = append(uses, dynamicTypeUses(node.Type.Params)...)
			if node.Type.Results != nil {
				uses = append(uses, dynamicTypeUses(node.Type.Results)...)
			}
		case *ast.GenDecl:
			for _, spec := range node.Specs {
				switch s := spec.(type) {
				case *ast.TypeSpec:
					if !s.Name.IsExported() {
						continue
					}
					uses = append(uses, dynamicTypeUses(s.Type)...)
				case *ast.ValueSpec:
					if s.Type == nil || !hasExportedName(s.Names) {
						continue
					}
					uses = append(uses, dynamicTypeUses(s.Type)...)
				}
			}
		}
	}
	if len(uses) == 0 {
		return nil, nil
	}
	lines := strings.Split(string(content), "\n")
	findings := make([]Error, 0, len(uses))
	for _, pos := range uses {
		p := fset.Position(pos)
		code := ""
		if p.Line > 0 && p.Line <= len(lines) {
			code = strings.TrimSpace(lines[p.Line-1])
		}
		findings = append(findings, Error{
			File:    relPath,
			Line:    p.Line,
			Message: "exported declaration uses a dynamic type; use a concrete type instead",
			Code:    code,
		})
	}
	return findings, nil
}

func hasExportedName(names []*ast.Ident) bool {
	for _, name := range names {
		if name.IsExported() {
			return true
		}
	}
	return false
}

// dynamicTypeUses walks a type expression and returns the positions of any
// identifiers used as types and of empty interface literals. The root node
// itself counts, which covers declarations like `type Value any`.
func dynamicTypeUses(root ast.Node) []token.Pos {
	var (
		out   []token.Pos
		stack []ast.Node
	)
	ast.Inspect(root, func(n ast.Node) bool {
		if n == nil {
			stack = stack[:len(stack)-1]
			return true
		}
		stack = append(stack, n)
		switch node := n.(type) {
		case *ast.Ident:
			if node.Name == "any" && (len(stack) == 1 || inTypePosition(stack)) {
				out = append(out, node.Pos())
			}
		case *ast.InterfaceType:
			if node.Methods == nil || len(node.Methods.List) == 0 {
				out = append(out, node.Pos())
			}
		}
		return true
	})
	return out
}

func inTypePosition(stack []ast.Node) bool {
	if len(stack) < 2 {
		return false
	}
	child := stack[len(stack)-1]
	switch parent := stack[len(stack)-2].(type) {
	case *ast.Field:
		return parent.Type == child
	case *ast.ArrayType:
		return parent.Elt == child
	case *ast.MapType:
		return parent.Key == child || parent.Value == child
	case *ast.ChanType:
		return parent.Value == child
	case *ast.StarExpr:
		return parent.X == child
	case *ast.Ellipsis:
		return parent.Elt == child
	case *ast.TypeSpec:
		return parent.Type == child
	case *ast.IndexExpr:
		return parent.Index == child
	case *ast.IndexListExpr:
		for _, index := range parent.Indices {
			if index == child {
				return true
			}
		}
	}
	return false
}
