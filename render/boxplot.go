package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"

	"airbnb-dashboard/models"
)

const (
	chartWidth  = 800
	rowHeight   = 28
	marginTop   = 44
	marginBot   = 40
	marginRight = 24
	labelWidth  = 180
	boxHalf     = 9
	axisTicks   = 5
)

var (
	white = color.RGBA{0xff, 0xff, 0xff, 0xff}
	black = color.RGBA{0x00, 0x00, 0x00, 0xff}
	grey  = color.RGBA{0xcc, 0xcc, 0xcc, 0xff}
	ink   = color.RGBA{0x33, 0x33, 0x33, 0xff}
	red   = color.RGBA{0xff, 0x00, 0x00, 0xff}
)

// BoxplotRenderer draws price box plots as PNG images, one horizontal box
// per neighbourhood.
type BoxplotRenderer struct {
	face font.Face
}

// NewBoxplotRenderer parses the bundled Go font.
func NewBoxplotRenderer() (*BoxplotRenderer, error) {
	parsed, err := freetype.ParseFont(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("render: parse font: %w", err)
	}
	face := truetype.NewFace(parsed, &truetype.Options{
		Size:    12,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	return &BoxplotRenderer{face: face}, nil
}

// layout maps prices and rows to pixel coordinates.
type layout struct {
	lo, hi      float64
	left, right int
	rows        int
}

func newLayout(stats []models.BoxplotSummary) layout {
	l := layout{
		lo:    math.Inf(1),
		hi:    math.Inf(-1),
		left:  labelWidth,
		right: chartWidth - marginRight,
		rows:  len(stats),
	}
	for _, s := range stats {
		l.lo = math.Min(l.lo, s.WhiskerLow)
		l.hi = math.Max(l.hi, s.WhiskerHigh)
	}
	if len(stats) == 0 {
		l.lo, l.hi = 0, 1
	}
	if l.hi == l.lo {
		l.lo, l.hi = l.lo-1, l.hi+1
	}
	return l
}

func (l layout) height() int {
	return marginTop + max(l.rows, 1)*rowHeight + marginBot
}

func (l layout) x(v float64) int {
	return l.left + int(math.Round((v-l.lo)/(l.hi-l.lo)*float64(l.right-l.left)))
}

func (l layout) y(row int) int {
	return marginTop + row*rowHeight + rowHeight/2
}

// Render writes the chart for stats to w. Boxes span Q1 to Q3 with a line
// at the median, whiskers reach the 1.5·IQR ends and the mean is a small
// diamond. Outliers are not drawn.
func (r *BoxplotRenderer) Render(w io.Writer, stats []models.BoxplotSummary) error {
	l := newLayout(stats)
	img := image.NewRGBA(image.Rect(0, 0, chartWidth, l.height()))
	draw.Draw(img, img.Bounds(), image.NewUniform(white), image.Point{}, draw.Src)

	r.text(img, "Price per night by neighbourhood", 12, 24, ink)

	if len(stats) == 0 {
		r.text(img, "No listings", l.left, l.y(0)+4, ink)
		return png.Encode(w, img)
	}

	r.axis(img, l)

	for i, s := range stats {
		y := l.y(i)
		fill := parseHex(s.Color)

		r.text(img, truncate(s.Neighbourhood, 24), 12, y+4, ink)

		hline(img, l.x(s.WhiskerLow), l.x(s.Q1), y, black)
		hline(img, l.x(s.Q3), l.x(s.WhiskerHigh), y, black)
		vline(img, l.x(s.WhiskerLow), y-boxHalf/2, y+boxHalf/2, black)
		vline(img, l.x(s.WhiskerHigh), y-boxHalf/2, y+boxHalf/2, black)

		fillRect(img, l.x(s.Q1), y-boxHalf, l.x(s.Q3), y+boxHalf, fill)
		strokeRect(img, l.x(s.Q1), y-boxHalf, l.x(s.Q3), y+boxHalf, black)
		vline(img, l.x(s.Median), y-boxHalf, y+boxHalf, black)

		diamond(img, l.x(s.Mean), y, 3, red)
	}

	return png.Encode(w, img)
}

func (r *BoxplotRenderer) axis(img *image.RGBA, l layout) {
	base := marginTop + l.rows*rowHeight
	hline(img, l.left, l.right, base, ink)
	for i := 0; i <= axisTicks; i++ {
		v := l.lo + (l.hi-l.lo)*float64(i)/axisTicks
		x := l.x(v)
		vline(img, x, marginTop, base-1, grey)
		vline(img, x, base, base+4, ink)

		label := fmt.Sprintf("$%.0f", v)
		width := font.MeasureString(r.face, label).Ceil()
		r.text(img, label, x-width/2, base+18, ink)
	}
}

func (r *BoxplotRenderer) text(img *image.RGBA, s string, x, y int, c color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: r.face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

func hline(img *image.RGBA, x0, x1, y int, c color.Color) {
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	for x := x0; x <= x1; x++ {
		img.Set(x, y, c)
	}
}

func vline(img *image.RGBA, x, y0, y1 int, c color.Color) {
	for y := y0; y <= y1; y++ {
		img.Set(x, y, c)
	}
}

func fillRect(img *image.RGBA, x0, y0, x1, y1 int, c color.Color) {
	draw.Draw(img, image.Rect(x0, y0, x1+1, y1+1), image.NewUniform(c), image.Point{}, draw.Src)
}

func strokeRect(img *image.RGBA, x0, y0, x1, y1 int, c color.Color) {
	hline(img, x0, x1, y0, c)
	hline(img, x0, x1, y1, c)
	vline(img, x0, y0, y1, c)
	vline(img, x1, y0, y1, c)
}

func diamond(img *image.RGBA, cx, cy, size int, c color.Color) {
	for dy := -size; dy <= size; dy++ {
		span := size - abs(dy)
		hline(img, cx-span, cx+span, cy+dy, c)
	}
}

// parseHex reads "#rrggbb". Anything else falls back to grey.
func parseHex(s string) color.RGBA {
	var r, g, b uint8
	if _, err := fmt.Sscanf(s, "#%02x%02x%02x", &r, &g, &b); err != nil {
		return grey
	}
	return color.RGBA{r, g, b, 0xff}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}
