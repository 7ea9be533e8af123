package svg

import "math"

// ContourPoint is a TrueType outline point: on-curve points are joined by
// lines, a single off-curve point between two on-curve points is a
// quadratic control point.
type ContourPoint struct {
	X, Y    float64
	OnCurve bool
}

// Contour is a closed outline
type Contour []ContourPoint

// maxSplit bounds cubic subdivision depth
const maxSplit = 8

// Contours converts p into closed quadratic contours. Cubic segments are
// approximated by quadratic ones until the estimated deviation is within
// tolerance (in the units of p). Contours with fewer than three points
// enclose no area and are dropped.
func (p Path) Contours(tolerance float64) []Contour {
	if tolerance <= 0 {
		tolerance = 0.5
	}

	var (
		out  []Contour
		cur  Contour
		pen  Point
		head Point
	)
	flush := func() {
		if n := len(cur); n > 1 {
			last := cur[n-1]
			if last.OnCurve && last.X == cur[0].X && last.Y == cur[0].Y {
				cur = cur[:n-1]
			}
		}
		if len(cur) >= 3 {
			out = append(out, cur)
		}
		cur = nil
	}
	on := func(pt Point) ContourPoint { return ContourPoint{X: pt.X, Y: pt.Y, OnCurve: true} }
	off := func(pt Point) ContourPoint { return ContourPoint{X: pt.X, Y: pt.Y} }
	begin := func() {
		if cur == nil {
			cur = Contour{on(pen)}
			head = pen
		}
	}

	for _, seg := range p {
		switch seg.Op {
		case MoveTo:
			flush()
			pen = seg.P[0]
			begin()
		case LineTo:
			begin()
			if seg.P[0] != pen {
				cur = append(cur, on(seg.P[0]))
			}
			pen = seg.P[0]
		case QuadTo:
			begin()
			cur = append(cur, off(seg.P[0]), on(seg.P[1]))
			pen = seg.P[1]
		case CubicTo:
			begin()
			for _, q := range cubicToQuads(pen, seg.P[0], seg.P[1], seg.P[2], tolerance, 0, nil) {
				cur = append(cur, off(q[0]), on(q[1]))
			}
			pen = seg.P[2]
		case Close:
			flush()
			pen = head
		}
	}
	flush()
	return out
}

// cubicToQuads approximates the cubic p0..p3 with quadratic segments
// [control, end], splitting at t=0.5 while the error bound exceeds tol.
func cubicToQuads(p0, p1, p2, p3 Point, tol float64, depth int, out [][2]Point) [][2]Point {
	// distance between the cubic and its best single quadratic is at most
	// sqrt(3)/36 * |p3 - 3p2 + 3p1 - p0|
	d := p3.sub(p2.scale(3)).add(p1.scale(3)).sub(p0)
	errBound := math.Sqrt(3) / 36 * math.Hypot(d.X, d.Y)
	if errBound <= tol || depth >= maxSplit {
		c := p1.add(p2).scale(3).sub(p0).sub(p3).scale(0.25)
		return append(out, [2]Point{c, p3})
	}

	p01 := p0.lerp(p1, 0.5)
	p12 := p1.lerp(p2, 0.5)
	p23 := p2.lerp(p3, 0.5)
	p012 := p01.lerp(p12, 0.5)
	p123 := p12.lerp(p23, 0.5)
	mid := p012.lerp(p123, 0.5)

	out = cubicToQuads(p0, p01, p012, mid, tol, depth+1, out)
	return cubicToQuads(mid, p123, p23, p3, tol, depth+1, out)
}
