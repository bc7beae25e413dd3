package textmetrics

import (
	"math"
	"testing"

	"diagramcore/pkg/scene"
)

func style(size float64) scene.TextStyle {
	return scene.TextStyle{FontSize: size, FontFamily: scene.FontFamily, FontWeight: scene.FontWeight}
}

func TestMeasureTextWidthScalesWithFontSize(t *testing.T) {
	m := New()
	at10 := m.MeasureTextWidth("Hello world", style(10))
	at20 := m.MeasureTextWidth("Hello world", style(20))
	if math.Abs(at20-2*at10) > 1e-9 {
		t.Fatalf("width must scale linearly: %v vs %v", at10, at20)
	}
}

func TestMeasureTextWidthGrowsWithText(t *testing.T) {
	m := New()
	short := m.MeasureTextWidth("ab", style(14))
	long := m.MeasureTextWidth("abab", style(14))
	if long <= short {
		t.Fatalf("longer text must be wider: %v <= %v", long, short)
	}
	if math.Abs(long-2*short) > 1e-9 {
		t.Fatalf("advance widths must be additive: %v vs %v", short, long)
	}
}

func TestMeasureTextWidthAdvanceClasses(t *testing.T) {
	m := New()
	s := style(14)
	narrow := m.MeasureTextWidth("iiii", s)
	normal := m.MeasureTextWidth("aaaa", s)
	upper := m.MeasureTextWidth("AAAA", s)
	wide := m.MeasureTextWidth("mmmm", s)
	if !(narrow < normal && normal < upper && upper < wide) {
		t.Fatalf("class ordering broken: %v %v %v %v", narrow, normal, upper, wide)
	}

	ascii := m.MeasureTextWidth("aa", s)
	cjk := m.MeasureTextWidth("漢字", s)
	if cjk <= ascii {
		t.Fatalf("full-width runes must be wider than ascii: %v <= %v", cjk, ascii)
	}
}

func TestMeasureTextWidthEdgeCases(t *testing.T) {
	m := New()
	if got := m.MeasureTextWidth("", style(14)); got != 0 {
		t.Fatalf("empty text must measure 0, got %v", got)
	}

	// Zero font size falls back to the scene default.
	fallback := m.MeasureTextWidth("abc", scene.TextStyle{})
	explicit := m.MeasureTextWidth("abc", style(scene.DefaultFontSize))
	if fallback != explicit {
		t.Fatalf("expected default font size fallback: %v vs %v", fallback, explicit)
	}

	// Deterministic across calls.
	if m.MeasureTextWidth("abc", style(14)) != m.MeasureTextWidth("abc", style(14)) {
		t.Fatalf("measurement must be deterministic")
	}
}
