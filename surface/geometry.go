package surface

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

const (
	SystemClass  = "system"
	MeasureClass = "measure"
	ScaleClass   = "definition-scale"
)

// SystemBox is one system found on the surface. Top is in pixels from the
// top of the surface.
type SystemBox struct {
	ID   string
	Page int
	Top  float64
}

// Systems measures every system in document order. Pages are stacked by
// the pixel height of their outer svg; border is subtracted from every top.
func (s *Surface) Systems(border float64) []SystemBox {
	boxes := []SystemBox{}
	pageTop := 0.0

	for i, wrapper := range s.pages {
		outer := firstElement(wrapper, func(n *html.Node) bool { return n.Data == "svg" })
		if outer == nil {
			continue
		}
		g := measurePage(outer)

		walk(outer, func(n *html.Node) {
			if n.Type != html.ElementNode || !hasClass(n, SystemClass) {
				return
			}
			id, _ := getAttr(n, "id")
			top := offsetY(n.Parent, g.inner) + topOf(n, 0)
			boxes = append(boxes, SystemBox{
				ID:   id,
				Page: i,
				Top:  pageTop + top*g.pixelsPerUnit() - border,
			})
		})

		pageTop += g.height
	}

	return boxes
}

// Target describes the object with the given id as a pointer target.
type Target struct {
	ID      string
	Page    int
	System  string
	Measure string

	// X and Y are the object position in content space.
	X float64
	Y float64

	// ScaleFactor converts a pointer displacement in pixels into content
	// units.
	ScaleFactor float64
}

func (s *Surface) Target(id string) (*Target, error) {
	n := s.find(id)
	if n == nil {
		return nil, fmt.Errorf("%w: '%s'", ErrNotFound, id)
	}

	leaf := firstElement(n, func(c *html.Node) bool {
		_, hasY := getAttr(c, "y")
		return hasY
	})
	if leaf == nil {
		return nil, fmt.Errorf("%w: '%s' has no positioned shape", ErrNotInteractive, id)
	}

	t := &Target{
		ID:          id,
		Page:        s.pageOf(n),
		System:      closestID(n, SystemClass),
		Measure:     closestID(n, MeasureClass),
		X:           number(leaf, "x"),
		Y:           number(leaf, "y"),
		ScaleFactor: 1,
	}

	for p := n.Parent; p != nil; p = p.Parent {
		if p.Data == "svg" && p.Parent != nil && hasClass(p.Parent, PageWrapperClass) {
			t.ScaleFactor = measurePage(p).unitsPerPixel()
			break
		}
	}

	return t, nil
}

type pageGeometry struct {
	inner     *html.Node
	height    float64
	boxHeight float64
}

func (g pageGeometry) pixelsPerUnit() float64 {
	if g.height <= 0 || g.boxHeight <= 0 {
		return 1
	}
	return g.height / g.boxHeight
}

func (g pageGeometry) unitsPerPixel() float64 {
	if g.height <= 0 || g.boxHeight <= 0 {
		return 1
	}
	return g.boxHeight / g.height
}

// measurePage reads the rendered height of an outer svg and the logical
// height of the viewBox it scales.
func measurePage(outer *html.Node) pageGeometry {
	g := pageGeometry{
		inner:  outer,
		height: number(outer, "height"),
	}

	if inner := firstElement(outer, func(n *html.Node) bool {
		return n.Data == "svg" && hasClass(n, ScaleClass)
	}); inner != nil {
		g.inner = inner
	}

	if viewBox, ok := getAttr(g.inner, "viewBox"); ok {
		fields := strings.Fields(strings.ReplaceAll(viewBox, ",", " "))
		if len(fields) == 4 {
			g.boxHeight, _ = strconv.ParseFloat(fields[3], 64)
		}
	}
	if g.boxHeight == 0 {
		g.boxHeight = g.height
	}

	return g
}

// offsetY sums the vertical translations from n up to, and excluding, stop.
func offsetY(n, stop *html.Node) float64 {
	total := 0.0
	for p := n; p != nil && p != stop; p = p.Parent {
		total += translateY(p)
	}
	return total
}

// topOf returns the smallest y of any shape under n, translations
// included. Zero when n holds no positioned shape.
func topOf(n *html.Node, base float64) float64 {
	top := math.Inf(1)

	var visit func(n *html.Node, base float64)
	visit = func(n *html.Node, base float64) {
		if n.Type != html.ElementNode {
			return
		}
		base += translateY(n)
		if y, ok := shapeY(n); ok {
			top = math.Min(top, base+y)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c, base)
		}
	}
	visit(n, base)

	if math.IsInf(top, 1) {
		return base
	}
	return top
}

func shapeY(n *html.Node) (float64, bool) {
	if v, ok := getAttr(n, "y"); ok {
		y, err := strconv.ParseFloat(strings.TrimSuffix(v, "px"), 64)
		return y, err == nil
	}
	if n.Data == "path" {
		d, _ := getAttr(n, "d")
		return pathStartY(d)
	}
	return 0, false
}

// pathStartY returns the y of the initial moveto of a path.
func pathStartY(d string) (float64, bool) {
	d = strings.TrimSpace(d)
	if len(d) == 0 || (d[0] != 'M' && d[0] != 'm') {
		return 0, false
	}
	fields := strings.FieldsFunc(d[1:], func(r rune) bool {
		return r == ' ' || r == ',' || r == '\n' || r == '\t'
	})
	if len(fields) < 2 {
		return 0, false
	}
	y, err := strconv.ParseFloat(strings.TrimRightFunc(fields[1], isCommand), 64)
	return y, err == nil
}

func isCommand(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// translateY reads the y of a translate(x, y) transform.
func translateY(n *html.Node) float64 {
	t, ok := getAttr(n, "transform")
	if !ok {
		return 0
	}
	start := strings.Index(t, "translate(")
	if start < 0 {
		return 0
	}
	rest := t[start+len("translate("):]
	end := strings.Index(rest, ")")
	if end < 0 {
		return 0
	}
	fields := strings.FieldsFunc(rest[:end], func(r rune) bool { return r == ' ' || r == ',' })
	if len(fields) < 2 {
		return 0
	}
	y, _ := strconv.ParseFloat(fields[1], 64)
	return y
}

func number(n *html.Node, key string) float64 {
	v, _ := getAttr(n, key)
	f, _ := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(v), "px"), 64)
	return f
}

func closestID(n *html.Node, class string) string {
	for p := n; p != nil; p = p.Parent {
		if hasClass(p, class) {
			id, _ := getAttr(p, "id")
			return id
		}
	}
	return ""
}

// firstElement returns the first element under n, n included, matching f.
func firstElement(n *html.Node, f func(n *html.Node) bool) *html.Node {
	var found *html.Node
	walk(n, func(c *html.Node) {
		if found == nil && c.Type == html.ElementNode && f(c) {
			found = c
		}
	})
	return found
}

// Enclosing returns the id of the closest element around id, id included,
// that carries class.
func (s *Surface) Enclosing(id, class string) (string, error) {
	n := s.find(id)
	if n == nil {
		return "", fmt.Errorf("%w: '%s'", ErrNotFound, id)
	}
	return closestID(n, class), nil
}
