package svg

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrNoDimensions is returned for documents with no viewBox, no size and
// no drawable content.
var ErrNoDimensions = errors.New("svg: document has no dimensions")

// Box is an axis-aligned rectangle in user space
type Box struct {
	X, Y, W, H float64
}

// Document is the filled outline of an SVG icon
type Document struct {
	// ViewBox is the root viewBox, falling back to width/height and
	// then to the outline bounds.
	ViewBox Box
	// Path holds every filled shape with transforms applied.
	Path Path
}

// containers whose children never paint directly
var skipped = map[string]bool{
	"defs":           true,
	"clipPath":       true,
	"mask":           true,
	"symbol":         true,
	"marker":         true,
	"pattern":        true,
	"linearGradient": true,
	"radialGradient": true,
	"title":          true,
	"desc":           true,
	"metadata":       true,
	"style":          true,
	"script":         true,
}

type frame struct {
	m        Matrix
	skip     bool
	fillNone bool
}

// Parse reads an SVG document and collects its filled shapes.
// Unknown elements are ignored; malformed geometry is an error.
func Parse(data []byte) (*Document, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false

	var (
		doc    Document
		stack  []frame
		root   = true
		hasBox bool
		width  float64
		height float64
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("svg: %w", err)
		}

		switch el := tok.(type) {
		case xml.StartElement:
			attrs := attrMap(el.Attr)
			name := el.Name.Local

			if root {
				if name != "svg" {
					return nil, fmt.Errorf("svg: root element is <%s>, want <svg>", name)
				}
				root = false
				if vb, ok := attrs["viewBox"]; ok {
					box, err := parseViewBox(vb)
					if err != nil {
						return nil, err
					}
					doc.ViewBox, hasBox = box, true
				}
				width, _ = parseLength(attrs["width"])
				height, _ = parseLength(attrs["height"])
				stack = append(stack, frame{m: Identity, fillNone: isFillNone(attrs, false)})
				continue
			}

			parent := frame{m: Identity}
			if len(stack) > 0 {
				parent = stack[len(stack)-1]
			}
			f := frame{m: parent.m, skip: parent.skip, fillNone: isFillNone(attrs, parent.fillNone)}
			if skipped[name] || attrs["display"] == "none" || styleValue(attrs["style"], "display") == "none" {
				f.skip = true
			}
			if t, ok := attrs["transform"]; ok && !f.skip {
				m, err := ParseTransform(t)
				if err != nil {
					return nil, fmt.Errorf("svg: <%s>: %w", name, err)
				}
				f.m = parent.m.Mul(m)
			}
			stack = append(stack, f)

			if f.skip || f.fillNone {
				continue
			}
			p, err := shape(name, attrs)
			if err != nil {
				return nil, fmt.Errorf("svg: <%s>: %w", name, err)
			}
			doc.Path = append(doc.Path, p.Transform(f.m)...)

		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}

	if root {
		return nil, errors.New("svg: empty document")
	}

	if !hasBox {
		switch {
		case width > 0 && height > 0:
			doc.ViewBox = Box{W: width, H: height}
		default:
			box, ok := doc.Path.Bounds()
			if !ok || box.H <= 0 {
				return nil, ErrNoDimensions
			}
			doc.ViewBox = box
		}
	}
	if doc.ViewBox.W <= 0 || doc.ViewBox.H <= 0 {
		return nil, ErrNoDimensions
	}
	return &doc, nil
}

// shape converts a drawable element into a path in its own user space.
// Non-drawable elements yield an empty path.
func shape(name string, attrs map[string]string) (Path, error) {
	num := func(key string) float64 {
		v, _ := parseLength(attrs[key])
		return v
	}

	b := &builder{}
	switch name {
	case "path":
		return ParsePathData(attrs["d"])

	case "rect":
		x, y, w, h := num("x"), num("y"), num("width"), num("height")
		if w <= 0 || h <= 0 {
			return nil, nil
		}
		rx, hasRX := parseLength(attrs["rx"])
		ry, hasRY := parseLength(attrs["ry"])
		switch {
		case hasRX && !hasRY:
			ry = rx
		case hasRY && !hasRX:
			rx = ry
		}
		rx = clamp(rx, 0, w/2)
		ry = clamp(ry, 0, h/2)

		if rx == 0 || ry == 0 {
			b.moveTo(Point{x, y})
			b.lineTo(Point{x + w, y})
			b.lineTo(Point{x + w, y + h})
			b.lineTo(Point{x, y + h})
			b.close()
			return b.path, nil
		}
		b.moveTo(Point{x + rx, y})
		b.lineTo(Point{x + w - rx, y})
		b.arcTo(rx, ry, 0, false, true, Point{x + w, y + ry})
		b.lineTo(Point{x + w, y + h - ry})
		b.arcTo(rx, ry, 0, false, true, Point{x + w - rx, y + h})
		b.lineTo(Point{x + rx, y + h})
		b.arcTo(rx, ry, 0, false, true, Point{x, y + h - ry})
		b.lineTo(Point{x, y + ry})
		b.arcTo(rx, ry, 0, false, true, Point{x + rx, y})
		b.close()
		return b.path, nil

	case "circle":
		r := num("r")
		if r <= 0 {
			return nil, nil
		}
		ellipse(b, num("cx"), num("cy"), r, r)
		return b.path, nil

	case "ellipse":
		rx, ry := num("rx"), num("ry")
		if rx <= 0 || ry <= 0 {
			return nil, nil
		}
		ellipse(b, num("cx"), num("cy"), rx, ry)
		return b.path, nil

	case "line":
		b.moveTo(Point{num("x1"), num("y1")})
		b.lineTo(Point{num("x2"), num("y2")})
		return b.path, nil

	case "polyline", "polygon":
		v, err := numbers(attrs["points"])
		if err != nil {
			return nil, fmt.Errorf("points: %w", err)
		}
		if len(v) < 4 {
			return nil, nil
		}
		// an odd trailing coordinate is dropped
		b.moveTo(Point{v[0], v[1]})
		for i := 2; i+1 < len(v); i += 2 {
			b.lineTo(Point{v[i], v[i+1]})
		}
		if name == "polygon" {
			b.close()
		}
		return b.path, nil
	}
	return nil, nil
}

func ellipse(b *builder, cx, cy, rx, ry float64) {
	b.moveTo(Point{cx + rx, cy})
	b.arcTo(rx, ry, 0, false, true, Point{cx, cy + ry})
	b.arcTo(rx, ry, 0, false, true, Point{cx - rx, cy})
	b.arcTo(rx, ry, 0, false, true, Point{cx, cy - ry})
	b.arcTo(rx, ry, 0, false, true, Point{cx + rx, cy})
	b.close()
}

func attrMap(attrs []xml.Attr) map[string]string {
	m := make(map[string]string, len(attrs))
	for _, a := range attrs {
		// xlink:href and friends keep their local name only
		m[a.Name.Local] = strings.TrimSpace(a.Value)
	}
	return m
}

func parseViewBox(s string) (Box, error) {
	v, err := numbers(s)
	if err != nil || len(v) != 4 {
		return Box{}, fmt.Errorf("svg: invalid viewBox %q", s)
	}
	return Box{X: v[0], Y: v[1], W: v[2], H: v[3]}, nil
}

// parseLength accepts unitless and px lengths; other units are rejected
func parseLength(s string) (float64, bool) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "px")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func isFillNone(attrs map[string]string, inherited bool) bool {
	fill, ok := attrs["fill"]
	if v := styleValue(attrs["style"], "fill"); v != "" {
		fill, ok = v, true
	}
	if !ok {
		return inherited
	}
	return fill == "none"
}

// styleValue extracts one property from an inline style attribute
func styleValue(style, property string) string {
	for _, decl := range strings.Split(style, ";") {
		k, v, ok := strings.Cut(decl, ":")
		if ok && strings.TrimSpace(k) == property {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
