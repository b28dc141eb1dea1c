// Package chart renders the weekly-volume and weight-trend series as
// standalone SVG documents, and as one-line terminal sparklines.
//
// Each point carries a <title> element, which browsers show as a hover
// tooltip with the exact value and date. Resizing is a full re-render at the
// new width and height.
package chart

import (
	"fmt"
	"html"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/claude/ascend/internal/numfmt"
)

// Default canvas size used when a zero or negative size is requested.
const (
	DefaultWidth  = 600
	DefaultHeight = 300
)

// Messages rendered in place of a chart with no points.
const (
	EmptyVolumeMessage = "Log more workouts to see your volume trend."
	EmptyWeightMessage = "Not enough data to display a chart."
)

// Point is one sample of a time series.
type Point struct {
	Time  time.Time
	Value float64
}

type margin struct {
	top, right, bottom, left float64
}

// series describes how one of the two chart types is drawn.
type series struct {
	name    string
	margin  margin
	area    bool
	color   string
	empty   string
	domain  func(points []Point) (lo, hi float64)
	tooltip func(p Point) string
	xTicks  int
}

var volumeSeries = series{
	name:   "volume",
	margin: margin{top: 20, right: 30, bottom: 40, left: 60},
	area:   true,
	color:  "#10b981",
	empty:  EmptyVolumeMessage,
	domain: func(points []Point) (float64, float64) {
		_, hi := extent(points)
		if hi <= 0 {
			return 0, 1
		}
		return 0, hi * 1.1
	},
	tooltip: func(p Point) string {
		return fmt.Sprintf("%s lbs\nWeek of %s", numfmt.Thousands(p.Value), p.Time.Format("Jan 02"))
	},
	xTicks: 8,
}

var weightSeries = series{
	name:   "weight",
	margin: margin{top: 20, right: 30, bottom: 40, left: 50},
	color:  "#3498db",
	empty:  EmptyWeightMessage,
	domain: func(points []Point) (float64, float64) {
		lo, hi := extent(points)
		return lo - 5, hi + 5
	},
	tooltip: func(p Point) string {
		return fmt.Sprintf("%.1f lbs\n%s", p.Value, p.Time.Format("Jan 02, 2006"))
	},
	xTicks: 5,
}

// Volume renders the weekly training volume chart. The y axis spans
// [0, 1.1 × max].
func Volume(points []Point, width, height int) string {
	return render(volumeSeries, points, width, height)
}

// Weight renders the body-weight trend chart. The y axis spans
// [min − 5, max + 5].
func Weight(points []Point, width, height int) string {
	return render(weightSeries, points, width, height)
}

func render(s series, points []Point, width, height int) string {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" class="chart chart-%s" width="%d" height="%d" viewBox="0 0 %d %d">`,
		s.name, width, height, width, height)
	b.WriteString("\n")

	if len(points) == 0 {
		fmt.Fprintf(&b, `<text class="empty" x="50%%" y="50%%" text-anchor="middle" fill="grey">%s</text>`, html.EscapeString(s.empty))
		b.WriteString("\n</svg>\n")
		return b.String()
	}

	innerW := float64(width) - s.margin.left - s.margin.right
	innerH := float64(height) - s.margin.top - s.margin.bottom
	lo, hi := s.domain(points)
	x := timeScale(points, innerW)
	y := linearScale(lo, hi, innerH)

	fmt.Fprintf(&b, `<g transform="translate(%s,%s)">`, num(s.margin.left), num(s.margin.top))
	b.WriteString("\n")

	// Gridlines and y axis.
	b.WriteString(`<g class="grid">`)
	yTicks := linearTicks(lo, hi, 5)
	for _, v := range yTicks {
		fmt.Fprintf(&b, `<line x1="0" x2="%s" y1="%s" y2="%s" stroke="#888" stroke-opacity="0.1" stroke-dasharray="2,2"/>`,
			num(innerW), num(y(v)), num(y(v)))
	}
	b.WriteString("</g>\n")

	b.WriteString(`<g class="axis axis-y">`)
	fmt.Fprintf(&b, `<line x1="0" x2="0" y1="0" y2="%s" stroke="#444"/>`, num(innerH))
	for _, v := range yTicks {
		fmt.Fprintf(&b, `<text x="-8" y="%s" text-anchor="end" dominant-baseline="middle" fill="#888" font-size="11">%s</text>`,
			num(y(v)), numfmt.Thousands(v))
	}
	b.WriteString("</g>\n")

	b.WriteString(`<g class="axis axis-x">`)
	fmt.Fprintf(&b, `<line x1="0" x2="%s" y1="%s" y2="%s" stroke="#444"/>`, num(innerW), num(innerH), num(innerH))
	for _, p := range thin(points, s.xTicks) {
		fmt.Fprintf(&b, `<text x="%s" y="%s" text-anchor="middle" fill="#888" font-size="11">%s</text>`,
			num(x(p.Time)), num(innerH+20), p.Time.Format("Jan 02"))
	}
	b.WriteString("</g>\n")

	// A line needs at least two points.
	if len(points) >= 2 {
		var line strings.Builder
		for i, p := range points {
			if i == 0 {
				line.WriteString("M")
			} else {
				line.WriteString(" L")
			}
			fmt.Fprintf(&line, "%s,%s", num(x(p.Time)), num(y(p.Value)))
		}
		if s.area {
			first, last := points[0], points[len(points)-1]
			fmt.Fprintf(&b, `<path class="area" d="%s L%s,%s L%s,%s Z" fill="%s" fill-opacity="0.2"/>`,
				line.String(), num(x(last.Time)), num(y(lo)), num(x(first.Time)), num(y(lo)), s.color)
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, `<path class="line" d="%s" fill="none" stroke="%s" stroke-width="2.5"/>`, line.String(), s.color)
		b.WriteString("\n")
	}

	for _, p := range points {
		fmt.Fprintf(&b, `<circle class="point" cx="%s" cy="%s" r="5" fill="%s" stroke="#121212" stroke-width="2"><title>%s</title></circle>`,
			num(x(p.Time)), num(y(p.Value)), s.color, html.EscapeString(s.tooltip(p)))
		b.WriteString("\n")
	}

	b.WriteString("</g>\n</svg>\n")
	return b.String()
}

func extent(points []Point) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, p := range points {
		lo = math.Min(lo, p.Value)
		hi = math.Max(hi, p.Value)
	}
	return lo, hi
}

// timeScale maps the time extent of points onto [0, width]. A zero-length
// extent maps to the middle.
func timeScale(points []Point, width float64) func(time.Time) float64 {
	start, end := points[0].Time, points[0].Time
	for _, p := range points[1:] {
		if p.Time.Before(start) {
			start = p.Time
		}
		if p.Time.After(end) {
			end = p.Time
		}
	}
	span := end.Sub(start).Seconds()
	return func(t time.Time) float64 {
		if span == 0 {
			return width / 2
		}
		return t.Sub(start).Seconds() / span * width
	}
}

// linearScale maps [lo, hi] onto [height, 0].
func linearScale(lo, hi, height float64) func(float64) float64 {
	return func(v float64) float64 {
		if hi == lo {
			return height / 2
		}
		return height - (v-lo)/(hi-lo)*height
	}
}

// linearTicks returns about n round tick values within [lo, hi].
func linearTicks(lo, hi float64, n int) []float64 {
	if hi <= lo || n <= 0 {
		return []float64{lo}
	}
	raw := (hi - lo) / float64(n)
	mag := math.Pow(10, math.Floor(math.Log10(raw)))
	step := mag
	for _, m := range []float64{1, 2, 5, 10} {
		step = m * mag
		if step >= raw {
			break
		}
	}
	if step <= 0 || math.IsInf(step, 0) || math.IsNaN(step) {
		return []float64{lo}
	}
	// Index-derived so a step below the float spacing of lo still terminates.
	start := math.Ceil(lo/step) * step
	var ticks []float64
	for i := 0; i <= 2*n; i++ {
		v := start + float64(i)*step
		if v > hi+step*1e-9 {
			break
		}
		if len(ticks) > 0 && v == ticks[len(ticks)-1] {
			continue
		}
		ticks = append(ticks, v)
	}
	if len(ticks) == 0 {
		return []float64{lo}
	}
	return ticks
}

// thin keeps at most n evenly spaced points, always including the first.
func thin(points []Point, n int) []Point {
	if len(points) <= n {
		return points
	}
	stride := int(math.Ceil(float64(len(points)) / float64(n)))
	var out []Point
	for i := 0; i < len(points); i += stride {
		out = append(out, points[i])
	}
	return out
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

