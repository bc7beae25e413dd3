// Package textmetrics estimates rendered text width without a font engine.
// Widths are advance-class approximations, not pixel-accurate measurements;
// they only need to be deterministic and roughly proportional so text boxes
// get stable layout sizes.
package textmetrics

import (
	"strings"
	"unicode"

	"diagramcore/pkg/scene"
)

// Per-rune advance widths in em units at font size 1.
const (
	spaceEm   = 0.35
	narrowEm  = 0.4
	defaultEm = 0.6
	upperEm   = 0.72
	wideEm    = 0.95
)

const (
	narrowRunes = "iIl1!|.,:;'`jftr()[]{}"
	wideRunes   = "mwMW@%&"
)

// Measurer implements scene.TextMeasurer.
type Measurer struct{}

// New returns the default measurer.
func New() *Measurer { return &Measurer{} }

// MeasureTextWidth sums per-rune advances and scales by the style's font
// size. A non-positive font size falls back to the scene default.
func (m *Measurer) MeasureTextWidth(text string, style scene.TextStyle) float64 {
	size := style.FontSize
	if size <= 0 {
		size = scene.DefaultFontSize
	}
	var em float64
	for _, r := range text {
		em += advanceEm(r)
	}
	return em * size
}

func advanceEm(r rune) float64 {
	switch {
	case r == ' ' || r == '\t':
		return spaceEm
	case strings.ContainsRune(narrowRunes, r):
		return narrowEm
	case strings.ContainsRune(wideRunes, r):
		return wideEm
	case r >= 'A' && r <= 'Z' || r >= '0' && r <= '9':
		return upperEm
	case r > unicode.MaxASCII:
		// Treat non-ASCII as full width; CJK dominates that range in
		// diagram labels.
		return wideEm
	default:
		return defaultEm
	}
}
