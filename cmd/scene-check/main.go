// Command scene-check validates a scene document file, reports entity counts
// and referential diagnostics, and optionally rewrites the document with its
// derived connector paths and text box sizes.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"diagramcore/internal/assets"
	"diagramcore/internal/route"
	"diagramcore/internal/scenedoc"
	"diagramcore/internal/textmetrics"
	"diagramcore/pkg/scene"
)

var exitFunc = os.Exit

func main() {
	exitFunc(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the check and returns the process exit code: 0 for a valid
// document, 1 for an invalid document or failed asset verification, 2 for
// usage, IO or configuration errors.
func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("scene-check", flag.ContinueOnError)
	fs.SetOutput(stderr)
	normalize := fs.Bool("normalize", false, "print the normalized document with derived paths and sizes")
	outPath := fs.String("o", "", "write normalized output to this file instead of stdout")
	verifyAssets := fs.Bool("assets", false, "verify icon asset keys against the configured asset store")
	quiet := fs.Bool("quiet", false, "suppress the summary line")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "usage: scene-check [flags] <scene-document.json>")
		fs.PrintDefaults()
		return 2
	}
	if *outPath != "" && !*normalize {
		fmt.Fprintln(stderr, "-o requires -normalize")
		return 2
	}

	raw, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(stderr, "read scene document: %v\n", err)
		return 2
	}

	codec, err := scenedoc.New(route.New(), textmetrics.New())
	if err != nil {
		fmt.Fprintf(stderr, "build codec: %v\n", err)
		return 2
	}
	if err := codec.Validate(raw); err != nil {
		var verr scene.ValidationError
		if errors.As(err, &verr) {
			fmt.Fprintln(stderr, "invalid scene document:")
			for _, issue := range verr.Issues {
				fmt.Fprintf(stderr, "  - %s\n", issue)
			}
			return 1
		}
		fmt.Fprintf(stderr, "validate scene document: %v\n", err)
		return 2
	}
	sc, err := codec.Normalize(raw)
	if err != nil {
		fmt.Fprintf(stderr, "normalize scene document: %v\n", err)
		return 2
	}

	for _, w := range danglingRefs(sc) {
		fmt.Fprintf(stderr, "warning: %s\n", w)
	}

	if *verifyAssets {
		ctx := context.Background()
		store, err := assets.Open(ctx)
		if err != nil {
			fmt.Fprintf(stderr, "open asset store: %v\n", err)
			return 2
		}
		if err := assets.VerifyIcons(ctx, store, sc); err != nil {
			fmt.Fprintf(stderr, "asset verification failed:\n%v\n", err)
			return 1
		}
	}

	if *normalize {
		doc, err := json.MarshalIndent(sc, "", "  ")
		if err != nil {
			fmt.Fprintf(stderr, "encode normalized document: %v\n", err)
			return 2
		}
		doc = append(doc, '\n')
		if *outPath != "" {
			if err := os.WriteFile(*outPath, doc, 0o644); err != nil {
				fmt.Fprintf(stderr, "write normalized document: %v\n", err)
				return 2
			}
		} else if _, err := stdout.Write(doc); err != nil {
			return 2
		}
	}

	if !*quiet {
		// Keep stdout clean when it carries the normalized document.
		summaryOut := stdout
		if *normalize && *outPath == "" {
			summaryOut = stderr
		}
		fmt.Fprintf(summaryOut, "scene OK: nodes=%d connectors=%d rectangles=%d textBoxes=%d icons=%d\n",
			len(sc.Nodes), len(sc.Connectors), len(sc.Rectangles), len(sc.TextBoxes), len(sc.Icons))
	}
	return 0
}

// danglingRefs lists bound anchors whose node is absent. The engine resolves
// such anchors as absolute points, so they are warnings, not failures.
func danglingRefs(sc scene.Scene) []string {
	ids := make(map[string]struct{}, len(sc.Nodes))
	for _, n := range sc.Nodes {
		ids[n.ID] = struct{}{}
	}
	var out []string
	for _, c := range sc.Connectors {
		for i, a := range c.Anchors {
			if !a.Bound() {
				continue
			}
			if _, ok := ids[a.Ref.ID]; !ok {
				out = append(out, fmt.Sprintf("connector %s anchor %d references missing node %q", c.ID, i, a.Ref.ID))
			}
		}
	}
	return out
}
