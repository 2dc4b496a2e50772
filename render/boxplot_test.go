package render

import (
	"bytes"
	"image/color"
	"image/png"
	"testing"

	"airbnb-dashboard/models"
)

func sampleStats() []models.BoxplotSummary {
	return []models.BoxplotSummary{
		{Neighbourhood: "Back Bay", Count: 3, Min: 80, Q1: 90, Median: 100, Q3: 150, Max: 200,
			Mean: 126.67, WhiskerLow: 80, WhiskerHigh: 200, Color: "#3366cc"},
		{Neighbourhood: "Dorchester", Count: 1, Min: 45, Q1: 45, Median: 45, Q3: 45, Max: 45,
			Mean: 45, WhiskerLow: 45, WhiskerHigh: 45, Color: "#dc3912"},
	}
}

func TestRenderDrawsBoxes(t *testing.T) {
	r, err := NewBoxplotRenderer()
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	stats := sampleStats()
	if err := r.Render(&buf, stats); err != nil {
		t.Fatalf("render: %v", err)
	}

	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	l := newLayout(stats)
	if img.Bounds().Dx() != chartWidth || img.Bounds().Dy() != l.height() {
		t.Errorf("size: got %v", img.Bounds())
	}

	// Inside the Back Bay box, between Q1 and the median, above the whisker.
	x := (l.x(90) + l.x(100)) / 2
	y := l.y(0) - boxHalf/2 - 2
	got := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
	if got != (color.RGBA{0x33, 0x66, 0xcc, 0xff}) {
		t.Errorf("box fill at (%d,%d): got %v", x, y, got)
	}

	median := color.RGBAModel.Convert(img.At(l.x(100), l.y(0)-boxHalf+1)).(color.RGBA)
	if median != black {
		t.Errorf("median line: got %v", median)
	}
}

func TestRenderEmpty(t *testing.T) {
	r, err := NewBoxplotRenderer()
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := r.Render(&buf, nil); err != nil {
		t.Fatalf("render: %v", err)
	}
	if _, err := png.Decode(&buf); err != nil {
		t.Errorf("decode: %v", err)
	}
}

func TestLayoutScalesWhiskerRange(t *testing.T) {
	l := newLayout(sampleStats())
	if l.x(45) != l.left || l.x(200) != l.right {
		t.Errorf("axis ends: x(45)=%d x(200)=%d, want %d and %d", l.x(45), l.x(200), l.left, l.right)
	}
}

func TestParseHex(t *testing.T) {
	if got := parseHex("#ff8000"); got != (color.RGBA{0xff, 0x80, 0x00, 0xff}) {
		t.Errorf("parseHex: got %v", got)
	}
	if got := parseHex("orange"); got != grey {
		t.Errorf("invalid colour: got %v, want grey", got)
	}
}
