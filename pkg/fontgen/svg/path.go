// Package svg reduces SVG icon documents to outline paths and quadratic
// contours suitable for TrueType glyphs.
package svg

import (
	"fmt"
	"math"
)

// Point is a coordinate in user space
type Point struct {
	X, Y float64
}

func (p Point) add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }
func (p Point) sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }
func (p Point) scale(k float64) Point { return Point{p.X * k, p.Y * k} }
func (p Point) lerp(q Point, t float64) Point {
	return Point{p.X + (q.X-p.X)*t, p.Y + (q.Y-p.Y)*t}
}

// Op identifies a path segment kind
type Op uint8

const (
	MoveTo Op = iota
	LineTo
	QuadTo
	CubicTo
	Close
)

func (o Op) String() string {
	switch o {
	case MoveTo:
		return "M"
	case LineTo:
		return "L"
	case QuadTo:
		return "Q"
	case CubicTo:
		return "C"
	case Close:
		return "Z"
	}
	return fmt.Sprintf("Op(%d)", uint8(o))
}

// Segment is one absolute path command. MoveTo and LineTo use P[0];
// QuadTo uses P[0] (control) and P[1] (end); CubicTo uses all three.
type Segment struct {
	Op Op
	P  [3]Point
}

// Path is a sequence of absolute segments
type Path []Segment

// Transform returns a copy of p with every point mapped through m.
// Affine maps preserve Bézier curves, so control points map directly.
func (p Path) Transform(m Matrix) Path {
	out := make(Path, len(p))
	for i, seg := range p {
		out[i].Op = seg.Op
		for j := range seg.P {
			out[i].P[j] = m.Apply(seg.P[j])
		}
	}
	return out
}

// Bounds returns the box enclosing every point of p, control points
// included. ok is false for a path without points.
func (p Path) Bounds() (box Box, ok bool) {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, seg := range p {
		n := seg.Op.points()
		for _, pt := range seg.P[:n] {
			minX = math.Min(minX, pt.X)
			minY = math.Min(minY, pt.Y)
			maxX = math.Max(maxX, pt.X)
			maxY = math.Max(maxY, pt.Y)
			ok = true
		}
	}
	if !ok {
		return Box{}, false
	}
	return Box{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}, true
}

func (o Op) points() int {
	switch o {
	case MoveTo, LineTo:
		return 1
	case QuadTo:
		return 2
	case CubicTo:
		return 3
	}
	return 0
}

// builder appends absolute segments while tracking the pen
type builder struct {
	path  Path
	cur   Point
	start Point
	open  bool
}

func (b *builder) moveTo(p Point) {
	b.path = append(b.path, Segment{Op: MoveTo, P: [3]Point{p}})
	b.cur, b.start, b.open = p, p, true
}

// ensureOpen starts an implicit subpath at the pen after a close
func (b *builder) ensureOpen() {
	if !b.open {
		b.moveTo(b.cur)
	}
}

func (b *builder) lineTo(p Point) {
	b.ensureOpen()
	b.path = append(b.path, Segment{Op: LineTo, P: [3]Point{p}})
	b.cur = p
}

func (b *builder) quadTo(c, p Point) {
	b.ensureOpen()
	b.path = append(b.path, Segment{Op: QuadTo, P: [3]Point{c, p}})
	b.cur = p
}

func (b *builder) cubicTo(c1, c2, p Point) {
	b.ensureOpen()
	b.path = append(b.path, Segment{Op: CubicTo, P: [3]Point{c1, c2, p}})
	b.cur = p
}

func (b *builder) close() {
	if !b.open {
		return
	}
	b.path = append(b.path, Segment{Op: Close})
	b.cur, b.open = b.start, false
}

// arcTo appends an elliptical arc from the pen to p as cubic segments,
// following the endpoint parameterization of SVG arcs.
func (b *builder) arcTo(rx, ry, rotation float64, large, sweep bool, p Point) {
	p0 := b.cur
	if p0 == p {
		return
	}
	rx, ry = math.Abs(rx), math.Abs(ry)
	if rx == 0 || ry == 0 {
		b.lineTo(p)
		return
	}

	phi := rotation * math.Pi / 180
	cos, sin := math.Cos(phi), math.Sin(phi)

	dx2, dy2 := (p0.X-p.X)/2, (p0.Y-p.Y)/2
	x1 := cos*dx2 + sin*dy2
	y1 := -sin*dx2 + cos*dy2

	if lambda := (x1*x1)/(rx*rx) + (y1*y1)/(ry*ry); lambda > 1 {
		s := math.Sqrt(lambda)
		rx, ry = rx*s, ry*s
	}

	rx2, ry2 := rx*rx, ry*ry
	num := rx2*ry2 - rx2*y1*y1 - ry2*x1*x1
	den := rx2*y1*y1 + ry2*x1*x1
	coef := 0.0
	if den != 0 && num > 0 {
		coef = math.Sqrt(num / den)
	}
	if large == sweep {
		coef = -coef
	}
	cxp := coef * rx * y1 / ry
	cyp := -coef * ry * x1 / rx

	cx := cos*cxp - sin*cyp + (p0.X+p.X)/2
	cy := sin*cxp + cos*cyp + (p0.Y+p.Y)/2

	theta := vectorAngle(1, 0, (x1-cxp)/rx, (y1-cyp)/ry)
	delta := vectorAngle((x1-cxp)/rx, (y1-cyp)/ry, (-x1-cxp)/rx, (-y1-cyp)/ry)
	if !sweep && delta > 0 {
		delta -= 2 * math.Pi
	} else if sweep && delta < 0 {
		delta += 2 * math.Pi
	}

	n := int(math.Ceil(math.Abs(delta)/(math.Pi/2) - 1e-9))
	if n < 1 {
		n = 1
	}
	step := delta / float64(n)
	k := 4.0 / 3.0 * math.Tan(step/4)

	unit := func(ux, uy float64) Point {
		return Point{
			X: cx + rx*ux*cos - ry*uy*sin,
			Y: cy + rx*ux*sin + ry*uy*cos,
		}
	}

	t1 := theta
	for i := 0; i < n; i++ {
		t2 := t1 + step
		c1, s1 := math.Cos(t1), math.Sin(t1)
		c2, s2 := math.Cos(t2), math.Sin(t2)
		end := unit(c2, s2)
		if i == n-1 {
			end = p
		}
		b.cubicTo(unit(c1-k*s1, s1+k*c1), unit(c2+k*s2, s2-k*c2), end)
		t1 = t2
	}
}

func vectorAngle(ux, uy, vx, vy float64) float64 {
	return math.Atan2(ux*vy-uy*vx, ux*vx+uy*vy)
}
