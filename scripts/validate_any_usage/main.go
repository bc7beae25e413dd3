// Command validate_any_usage checks that the public scene contract keeps
// dynamic types out of its exported surface.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"diagramcore/internal/validation"
)

const defaultRoots = "pkg/scene"

var (
	exitFunc     = os.Exit
	getwd        = os.Getwd
	validateFunc = validation.ValidateAnyUsage
)

func main() {
	exitFunc(run(os.Args, os.Stderr, validateFunc))
}

func run(args []string, stderr io.Writer, validate func(baseDir string, roots []string) ([]validation.Error, error)) int {
	if len(args) == 0 {
		return 1
	}
	flags := flag.NewFlagSet(args[0], flag.ContinueOnError)
	flags.SetOutput(stderr)
	rootsFlag := flags.String("roots", defaultRoots, "comma-separated package roots to scan")
	if err := flags.Parse(args[1:]); err != nil {
		return 1
	}

	roots := splitRoots(*rootsFlag)
	if len(roots) == 0 {
		fmt.Fprintln(stderr, "no roots provided for any usage validation")
		return 1
	}
	baseDir, err := getwd()
	if err != nil {
		fmt.Fprintf(stderr, "resolve working directory: %v\n", err)
		return 1
	}

	findings, err := validate(baseDir, roots)
	if err != nil {
		fmt.Fprintf(stderr, "any usage check failed: %v\n", err)
		return 1
	}
	if len(findings) == 0 {
		return 0
	}
	fmt.Fprintf(stderr, "found %d dynamic type uses in exported declarations:\n\n", len(findings))
	for _, f := range findings {
		fmt.Fprintf(stderr, "%s:%d\n", f.File, f.Line)
		if f.Message != "" {
			fmt.Fprintf(stderr, "  %s\n", f.Message)
		}
		if f.Code != "" {
			fmt.Fprintf(stderr, "  %s\n", f.Code)
		}
		fmt.Fprintln(stderr)
	}
	return 1
}

func splitRoots(value string) []string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	raw := strings.Split(value, ",")
	out := make([]string, 0, len(raw))
	for _, entry := range raw {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		out = append(out, entry)
	}
	return out
}
