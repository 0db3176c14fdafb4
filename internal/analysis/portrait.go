package analysis

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/condensim/internal/signal"
)

type Point struct{ X, Y float64 }

// Portrait is a two-signal phase portrait, e.g. (ρ, ρ′).
type Portrait struct {
	XName, YName string
	Points       []Point
}

func NewPortrait(x, y signal.Signal) (*Portrait, error) {
	if x.Len() != y.Len() {
		return nil, fmt.Errorf("%w: %s has %d samples, %s has %d", signal.ErrLengthMismatch, x.Name(), x.Len(), y.Name(), y.Len())
	}
	p := &Portrait{XName: x.Name(), YName: y.Name(), Points: make([]Point, 0, x.Len())}
	for i := 0; i < x.Len(); i++ {
		px, py := x.At(i), y.At(i)
		if math.IsNaN(px) || math.IsNaN(py) || math.IsInf(px, 0) || math.IsInf(py, 0) {
			continue
		}
		p.Points = append(p.Points, Point{X: px, Y: py})
	}
	return p, nil
}

// ASCII renders the portrait on a width×height character canvas with axes
// drawn where they cross the visible area.
func (p *Portrait) ASCII(width, height int) string {
	if p == nil || len(p.Points) == 0 || width < 2 || height < 2 {
		return ""
	}

	minX, maxX := p.Points[0].X, p.Points[0].X
	minY, maxY := p.Points[0].Y, p.Points[0].Y
	for _, pt := range p.Points {
		minX, maxX = math.Min(minX, pt.X), math.Max(maxX, pt.X)
		minY, maxY = math.Min(minY, pt.Y), math.Max(maxY, pt.Y)
	}

	rangeX, rangeY := maxX-minX, maxY-minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	minY -= rangeY * 0.1
	rangeX *= 1.2
	rangeY *= 1.2

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", width))
	}
	col := func(x float64) int { return int((x - minX) / rangeX * float64(width-1)) }
	row := func(y float64) int { return height - 1 - int((y-minY)/rangeY*float64(height-1)) }

	for _, pt := range p.Points {
		r, c := row(pt.Y), col(pt.X)
		if r >= 0 && r < height && c >= 0 && c < width {
			canvas[r][c] = '•'
		}
	}

	if minX <= 0 && minX+rangeX >= 0 {
		c := col(0)
		for r := 0; r < height; r++ {
			if canvas[r][c] == ' ' {
				canvas[r][c] = '│'
			}
		}
	}
	if minY <= 0 && minY+rangeY >= 0 {
		r := row(0)
		for c := 0; c < width; c++ {
			if canvas[r][c] == ' ' {
				canvas[r][c] = '─'
			}
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s vs %s\n", p.YName, p.XName)
	for _, line := range canvas {
		sb.WriteString(string(line))
		sb.WriteRune('\n')
	}
	return sb.String()
}

// Stroboscopic samples values once per phase revolution: every time phase
// crosses a multiple of 2π the value is linearly interpolated at the
// crossing. The result traces the secular trend without the oscillation.
func Stroboscopic(times []float64, phase, values signal.Signal) (ts, vs []float64, err error) {
	n := len(times)
	if phase.Len() != n || values.Len() != n {
		return nil, nil, fmt.Errorf("%w: times %d, %s %d, %s %d", signal.ErrLengthMismatch, n, phase.Name(), phase.Len(), values.Name(), values.Len())
	}
	for i := 1; i < n; i++ {
		p0, p1 := phase.At(i-1), phase.At(i)
		k0, k1 := math.Floor(p0/(2*math.Pi)), math.Floor(p1/(2*math.Pi))
		if k0 == k1 || math.IsNaN(k0) || math.IsNaN(k1) {
			continue
		}
		target := 2 * math.Pi * math.Max(k0, k1)
		frac := (target - p0) / (p1 - p0)
		if math.IsNaN(frac) || math.IsInf(frac, 0) {
			frac = 0.5
		}
		ts = append(ts, times[i-1]+frac*(times[i]-times[i-1]))
		vs = append(vs, values.At(i-1)+frac*(values.At(i)-values.At(i-1)))
	}
	return ts, vs, nil
}
