package svg

import (
	"fmt"
	"strconv"
)

// ParsePathData parses the d attribute of a <path> element into absolute
// segments. Arcs become cubic segments; H and V become lines.
func ParsePathData(d string) (Path, error) {
	sc := &scanner{s: d}
	b := &builder{}

	// reflected control points for S and T
	var lastCubic, lastQuad Point
	var prev byte

	for {
		sc.skipSpace()
		if sc.eof() {
			break
		}
		cmd := sc.s[sc.i]
		if !isPathCommand(cmd) {
			return nil, fmt.Errorf("path data: unexpected %q at offset %d", cmd, sc.i)
		}
		sc.i++
		if prev == 0 && cmd != 'M' && cmd != 'm' {
			return nil, fmt.Errorf("path data: must start with moveto, got %q", cmd)
		}

	args:
		for {
			rel := cmd >= 'a'
			origin := Point{}
			if rel {
				origin = b.cur
			}

			switch cmd {
			case 'M', 'm':
				p, err := sc.point()
				if err != nil {
					return nil, err
				}
				b.moveTo(p.add(origin))
				// subsequent pairs are implicit lineto
				if cmd == 'M' {
					cmd = 'L'
				} else {
					cmd = 'l'
				}
				prev = 'M'
				if !sc.more() {
					break args
				}
				continue

			case 'Z', 'z':
				b.close()

			case 'L', 'l':
				p, err := sc.point()
				if err != nil {
					return nil, err
				}
				b.lineTo(p.add(origin))

			case 'H', 'h':
				x, err := sc.number()
				if err != nil {
					return nil, err
				}
				y := b.cur.Y
				if rel {
					x += b.cur.X
				}
				b.lineTo(Point{x, y})

			case 'V', 'v':
				y, err := sc.number()
				if err != nil {
					return nil, err
				}
				x := b.cur.X
				if rel {
					y += b.cur.Y
				}
				b.lineTo(Point{x, y})

			case 'C', 'c':
				pts, err := sc.points(3)
				if err != nil {
					return nil, err
				}
				c1, c2, p := pts[0].add(origin), pts[1].add(origin), pts[2].add(origin)
				b.cubicTo(c1, c2, p)
				lastCubic = c2

			case 'S', 's':
				pts, err := sc.points(2)
				if err != nil {
					return nil, err
				}
				c1 := b.cur
				if prev == 'C' || prev == 'S' {
					c1 = b.cur.scale(2).sub(lastCubic)
				}
				c2, p := pts[0].add(origin), pts[1].add(origin)
				b.cubicTo(c1, c2, p)
				lastCubic = c2

			case 'Q', 'q':
				pts, err := sc.points(2)
				if err != nil {
					return nil, err
				}
				c, p := pts[0].add(origin), pts[1].add(origin)
				b.quadTo(c, p)
				lastQuad = c

			case 'T', 't':
				p, err := sc.point()
				if err != nil {
					return nil, err
				}
				c := b.cur
				if prev == 'Q' || prev == 'T' {
					c = b.cur.scale(2).sub(lastQuad)
				}
				b.quadTo(c, p.add(origin))
				lastQuad = c

			case 'A', 'a':
				rx, err := sc.number()
				if err != nil {
					return nil, err
				}
				ry, err := sc.number()
				if err != nil {
					return nil, err
				}
				rot, err := sc.number()
				if err != nil {
					return nil, err
				}
				large, err := sc.flag()
				if err != nil {
					return nil, err
				}
				sweep, err := sc.flag()
				if err != nil {
					return nil, err
				}
				p, err := sc.point()
				if err != nil {
					return nil, err
				}
				b.arcTo(rx, ry, rot, large, sweep, p.add(origin))
			}

			prev = upper(cmd)
			if prev == 'Z' || !sc.more() {
				break
			}
		}
	}

	return b.path, nil
}

func isPathCommand(c byte) bool {
	switch upper(c) {
	case 'M', 'Z', 'L', 'H', 'V', 'C', 'S', 'Q', 'T', 'A':
		return true
	}
	return false
}

func upper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - 'a' + 'A'
	}
	return c
}

// scanner tokenizes SVG number lists: path data, points and transforms
type scanner struct {
	s string
	i int
}

func (sc *scanner) eof() bool { return sc.i >= len(sc.s) }

func (sc *scanner) skipSpace() {
	for !sc.eof() {
		switch sc.s[sc.i] {
		case ' ', '\t', '\n', '\r', '\f':
			sc.i++
		default:
			return
		}
	}
}

// skipSep skips whitespace and at most one comma
func (sc *scanner) skipSep() {
	sc.skipSpace()
	if !sc.eof() && sc.s[sc.i] == ',' {
		sc.i++
		sc.skipSpace()
	}
}

// more reports whether another number follows
func (sc *scanner) more() bool {
	sc.skipSep()
	if sc.eof() {
		return false
	}
	c := sc.s[sc.i]
	return c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9')
}

func (sc *scanner) number() (float64, error) {
	sc.skipSep()
	start := sc.i
	if !sc.eof() && (sc.s[sc.i] == '+' || sc.s[sc.i] == '-') {
		sc.i++
	}
	digits := sc.digits()
	if !sc.eof() && sc.s[sc.i] == '.' {
		sc.i++
		digits += sc.digits()
	}
	if digits == 0 {
		sc.i = start
		return 0, fmt.Errorf("expected number at offset %d", start)
	}
	if !sc.eof() && (sc.s[sc.i] == 'e' || sc.s[sc.i] == 'E') {
		mark := sc.i
		sc.i++
		if !sc.eof() && (sc.s[sc.i] == '+' || sc.s[sc.i] == '-') {
			sc.i++
		}
		if sc.digits() == 0 {
			sc.i = mark
		}
	}

	v, err := strconv.ParseFloat(sc.s[start:sc.i], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", sc.s[start:sc.i], err)
	}
	return v, nil
}

func (sc *scanner) digits() int {
	n := 0
	for !sc.eof() && sc.s[sc.i] >= '0' && sc.s[sc.i] <= '9' {
		sc.i++
		n++
	}
	return n
}

// flag reads an arc flag, which may be packed without separators ("a1 1 0 011 1")
func (sc *scanner) flag() (bool, error) {
	sc.skipSep()
	if sc.eof() {
		return false, fmt.Errorf("expected flag at offset %d", sc.i)
	}
	switch sc.s[sc.i] {
	case '0':
		sc.i++
		return false, nil
	case '1':
		sc.i++
		return true, nil
	}
	return false, fmt.Errorf("invalid flag %q at offset %d", sc.s[sc.i], sc.i)
}

func (sc *scanner) point() (Point, error) {
	x, err := sc.number()
	if err != nil {
		return Point{}, err
	}
	y, err := sc.number()
	if err != nil {
		return Point{}, err
	}
	return Point{x, y}, nil
}

func (sc *scanner) points(n int) ([]Point, error) {
	pts := make([]Point, n)
	for i := range pts {
		p, err := sc.point()
		if err != nil {
			return nil, err
		}
		pts[i] = p
	}
	return pts, nil
}

// numbers reads every remaining number in s
func numbers(s string) ([]float64, error) {
	sc := &scanner{s: s}
	var out []float64
	for sc.more() {
		v, err := sc.number()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	sc.skipSep()
	if !sc.eof() {
		return nil, fmt.Errorf("unexpected %q at offset %d", sc.s[sc.i], sc.i)
	}
	return out, nil
}
