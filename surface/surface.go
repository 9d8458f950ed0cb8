// Package surface keeps the markup a view displays as a tree of page
// wrappers, each holding the SVG markup of one rendered page.
//
// A view owns two surfaces: the content surface, which shows what the
// engine rendered, and the interaction overlay, a transparent copy of it
// that carries highlight styling and pointer listeners.
package surface

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const PageWrapperClass = "page-wrapper"

var ErrPageOutOfRange = errors.New("page out of range")
var ErrNotFound = errors.New("element not found")
var ErrNotInteractive = errors.New("element is not interactive")

type Surface struct {
	root  *html.Node
	pages []*html.Node

	listeners map[*html.Node]Handler
	capture   Handler
}

func New() *Surface {
	return &Surface{
		root:      element("div", "class", "surface"),
		listeners: map[*html.Node]Handler{},
	}
}

// EnsurePages leaves exactly n page wrappers. Existing wrappers keep their
// content.
func (s *Surface) EnsurePages(n int) {
	for len(s.pages) < n {
		wrapper := element("div",
			"class", PageWrapperClass,
			"data-index", strconv.Itoa(len(s.pages)),
		)
		s.root.AppendChild(wrapper)
		s.pages = append(s.pages, wrapper)
	}
	for len(s.pages) > n {
		last := s.pages[len(s.pages)-1]
		s.detachListeners(last)
		s.root.RemoveChild(last)
		s.pages = s.pages[:len(s.pages)-1]
	}
}

func (s *Surface) Pages() int {
	return len(s.pages)
}

// SetPage replaces the content of page i with markup.
func (s *Surface) SetPage(i int, markup string) error {
	if i < 0 || i >= len(s.pages) {
		return fmt.Errorf("%w: %d of %d", ErrPageOutOfRange, i, len(s.pages))
	}

	nodes, err := html.ParseFragment(strings.NewReader(markup), &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
	})
	if err != nil {
		return fmt.Errorf("parse page %d: %w", i, err)
	}

	wrapper := s.pages[i]
	s.detachListeners(wrapper)
	for wrapper.FirstChild != nil {
		wrapper.RemoveChild(wrapper.FirstChild)
	}
	for _, node := range nodes {
		wrapper.AppendChild(node)
	}

	return nil
}

// Rendered reports whether page i holds any markup.
func (s *Surface) Rendered(i int) bool {
	return i >= 0 && i < len(s.pages) && s.pages[i].FirstChild != nil
}

func (s *Surface) Clear() {
	s.EnsurePages(0)
	s.listeners = map[*html.Node]Handler{}
	s.capture = nil
}

func (s *Surface) Markup() string {
	b := &bytes.Buffer{}
	html.Render(b, s.root)
	return b.String()
}

func (s *Surface) PageMarkup(i int) (string, error) {
	if i < 0 || i >= len(s.pages) {
		return "", fmt.Errorf("%w: %d of %d", ErrPageOutOfRange, i, len(s.pages))
	}
	b := &bytes.Buffer{}
	for c := s.pages[i].FirstChild; c != nil; c = c.NextSibling {
		html.Render(b, c)
	}
	return b.String(), nil
}

func (s *Surface) Has(id string) bool {
	return s.find(id) != nil
}

// Style returns the inline style of the element with the given id.
func (s *Surface) Style(id string) (string, bool) {
	n := s.find(id)
	if n == nil {
		return "", false
	}
	return getAttr(n, "style")
}

func (s *Surface) SetStyle(id, style string) bool {
	n := s.find(id)
	if n == nil {
		return false
	}
	setAttr(n, "style", style)
	return true
}

// ClearStyle removes any inline style from the element.
func (s *Surface) ClearStyle(id string) bool {
	n := s.find(id)
	if n == nil {
		return false
	}
	removeAttr(n, "style")
	return true
}

func (s *Surface) SetTransform(id, transform string) bool {
	n := s.find(id)
	if n == nil {
		return false
	}
	if transform == "" {
		removeAttr(n, "transform")
	} else {
		setAttr(n, "transform", transform)
	}
	return true
}

func (s *Surface) Transform(id string) string {
	n := s.find(id)
	if n == nil {
		return ""
	}
	t, _ := getAttr(n, "transform")
	return t
}

// CloneFrom replaces the whole surface with a deep copy of other. Listeners
// belong to the old nodes and are dropped; pointer capture belongs to the
// surface and survives.
func (s *Surface) CloneFrom(other *Surface) {
	s.listeners = map[*html.Node]Handler{}
	s.root = clone(other.root)
	s.pages = s.pages[:0]
	for c := s.root.FirstChild; c != nil; c = c.NextSibling {
		if hasClass(c, PageWrapperClass) {
			s.pages = append(s.pages, c)
		}
	}
}

// SuppressPaint sets style on every group and path.
func (s *Surface) SuppressPaint(style string) {
	walk(s.root, func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "g" || n.Data == "path") {
			setAttr(n, "style", style)
		}
	})
}

// StripText removes every text element.
func (s *Surface) StripText() {
	var texts []*html.Node
	walk(s.root, func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "text" {
			texts = append(texts, n)
		}
	})
	for _, n := range texts {
		n.Parent.RemoveChild(n)
	}
}

// CountText returns how many text elements the surface holds.
func (s *Surface) CountText() int {
	count := 0
	walk(s.root, func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "text" {
			count++
		}
	})
	return count
}

// IDs returns the id of every element with class, in document order.
func (s *Surface) IDs(class string) []string {
	ids := []string{}
	walk(s.root, func(n *html.Node) {
		if n.Type != html.ElementNode || !hasClass(n, class) {
			return
		}
		if id, ok := getAttr(n, "id"); ok && id != "" {
			ids = append(ids, id)
		}
	})
	return ids
}

func (s *Surface) find(id string) *html.Node {
	if id == "" {
		return nil
	}
	var found *html.Node
	walk(s.root, func(n *html.Node) {
		if found != nil || n.Type != html.ElementNode {
			return
		}
		if v, ok := getAttr(n, "id"); ok && v == id {
			found = n
		}
	})
	return found
}

func (s *Surface) pageOf(n *html.Node) int {
	for p := n; p != nil; p = p.Parent {
		if hasClass(p, PageWrapperClass) {
			for i, wrapper := range s.pages {
				if wrapper == p {
					return i
				}
			}
		}
	}
	return -1
}

func element(tag string, attrs ...string) *html.Node {
	n := &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: attrs[i], Val: attrs[i+1]})
	}
	return n
}

func clone(n *html.Node) *html.Node {
	c := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
		Attr:      append([]html.Attribute(nil), n.Attr...),
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		c.AppendChild(clone(child))
	}
	return c
}

func walk(n *html.Node, f func(n *html.Node)) {
	f(n)
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		walk(c, f)
		c = next
	}
}

func getAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func removeAttr(n *html.Node, key string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			return
		}
	}
}

func hasClass(n *html.Node, class string) bool {
	v, ok := getAttr(n, "class")
	if !ok {
		return false
	}
	for _, c := range strings.Fields(v) {
		if c == class {
			return true
		}
	}
	return false
}
