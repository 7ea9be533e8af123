package svg

import (
	"fmt"
	"math"
	"strings"
)

// Matrix is an affine transform [a b c d e f]:
// x' = a*x + c*y + e, y' = b*x + d*y + f
type Matrix [6]float64

// Identity leaves points unchanged
var Identity = Matrix{1, 0, 0, 1, 0, 0}

// Translate returns a translation matrix
func Translate(tx, ty float64) Matrix { return Matrix{1, 0, 0, 1, tx, ty} }

// Scale returns a scaling matrix
func Scale(sx, sy float64) Matrix { return Matrix{sx, 0, 0, sy, 0, 0} }

// Rotate returns a rotation by deg degrees about the origin
func Rotate(deg float64) Matrix {
	r := deg * math.Pi / 180
	c, s := math.Cos(r), math.Sin(r)
	return Matrix{c, s, -s, c, 0, 0}
}

// Mul returns m·n, the transform that applies n first and then m
func (m Matrix) Mul(n Matrix) Matrix {
	return Matrix{
		m[0]*n[0] + m[2]*n[1],
		m[1]*n[0] + m[3]*n[1],
		m[0]*n[2] + m[2]*n[3],
		m[1]*n[2] + m[3]*n[3],
		m[0]*n[4] + m[2]*n[5] + m[4],
		m[1]*n[4] + m[3]*n[5] + m[5],
	}
}

// Apply maps p through m
func (m Matrix) Apply(p Point) Point {
	return Point{
		X: m[0]*p.X + m[2]*p.Y + m[4],
		Y: m[1]*p.X + m[3]*p.Y + m[5],
	}
}

// ParseTransform parses an SVG transform list such as
// "translate(10 20) rotate(45, 12 12)". Transforms compose left to right,
// so the rightmost one applies to the element first.
func ParseTransform(s string) (Matrix, error) {
	m := Identity
	rest := strings.TrimSpace(s)
	for rest != "" {
		open := strings.IndexByte(rest, '(')
		closing := strings.IndexByte(rest, ')')
		if open < 0 || closing < open {
			return Identity, fmt.Errorf("transform: malformed %q", s)
		}
		name := strings.TrimSpace(rest[:open])
		args, err := numbers(rest[open+1 : closing])
		if err != nil {
			return Identity, fmt.Errorf("transform %s: %w", name, err)
		}
		t, err := transformFunc(name, args)
		if err != nil {
			return Identity, err
		}
		m = m.Mul(t)
		rest = strings.TrimLeft(rest[closing+1:], " \t\r\n,")
	}
	return m, nil
}

func transformFunc(name string, a []float64) (Matrix, error) {
	argc := func(valid ...int) error {
		for _, n := range valid {
			if len(a) == n {
				return nil
			}
		}
		return fmt.Errorf("transform %s: unexpected %d arguments", name, len(a))
	}

	switch name {
	case "matrix":
		if err := argc(6); err != nil {
			return Identity, err
		}
		return Matrix{a[0], a[1], a[2], a[3], a[4], a[5]}, nil
	case "translate":
		if err := argc(1, 2); err != nil {
			return Identity, err
		}
		if len(a) == 1 {
			return Translate(a[0], 0), nil
		}
		return Translate(a[0], a[1]), nil
	case "scale":
		if err := argc(1, 2); err != nil {
			return Identity, err
		}
		if len(a) == 1 {
			return Scale(a[0], a[0]), nil
		}
		return Scale(a[0], a[1]), nil
	case "rotate":
		if err := argc(1, 3); err != nil {
			return Identity, err
		}
		if len(a) == 1 {
			return Rotate(a[0]), nil
		}
		return Translate(a[1], a[2]).Mul(Rotate(a[0])).Mul(Translate(-a[1], -a[2])), nil
	case "skewX":
		if err := argc(1); err != nil {
			return Identity, err
		}
		return Matrix{1, 0, math.Tan(a[0] * math.Pi / 180), 1, 0, 0}, nil
	case "skewY":
		if err := argc(1); err != nil {
			return Identity, err
		}
		return Matrix{1, math.Tan(a[0] * math.Pi / 180), 0, 1, 0, 0}, nil
	}
	return Identity, fmt.Errorf("transform: unknown function %q", name)
}
