// Package highlight keeps the set of selected objects and the styling of
// both surfaces of a view in step with it.
//
// An id is in the set iff it is painted active on the overlay and hidden on
// the content surface. Every other element shows baseline styling: no
// inline style on the content surface, HiddenStyle on the overlay.
package highlight

import (
	"slices"

	"github.com/fulldump/scorepane/surface"
)

const (
	ActiveStyle = "fill:#ff0000; stroke:#ff0000; fill-opacity:1.0; stroke-opacity:1.0;"
	HiddenStyle = "fill-opacity:0.0; stroke-opacity:0.0;"
)

type Coordinator struct {
	content *surface.Surface
	overlay *surface.Surface
	active  []string
}

func New(content, overlay *surface.Surface) *Coordinator {
	return &Coordinator{
		content: content,
		overlay: overlay,
		active:  []string{},
	}
}

// Activate selects id. It returns false if id was already active or is not
// on any surface.
func (c *Coordinator) Activate(id string) bool {
	if c.IsActive(id) {
		return false
	}
	if !c.content.Has(id) && !c.overlay.Has(id) {
		return false
	}

	c.active = append(c.active, id)
	for _, a := range c.active {
		c.overlay.SetStyle(a, ActiveStyle)
	}
	c.content.SetStyle(id, HiddenStyle)
	return true
}

// Deactivate restores id to baseline on both surfaces. It returns false if
// id was not active.
func (c *Coordinator) Deactivate(id string) bool {
	i := slices.Index(c.active, id)
	if i < 0 {
		return false
	}
	c.active = slices.Delete(c.active, i, i+1)
	c.restore(id)
	return true
}

func (c *Coordinator) ResetAll() {
	for _, id := range c.Active() {
		c.Deactivate(id)
	}
}

// Reapply paints the active set again after a surface changed underneath.
// Ids that no longer exist anywhere leave the set.
func (c *Coordinator) Reapply() {
	kept := c.active[:0]
	for _, id := range c.active {
		onContent := c.content.SetStyle(id, HiddenStyle)
		onOverlay := c.overlay.SetStyle(id, ActiveStyle)
		if onContent || onOverlay {
			kept = append(kept, id)
		}
	}
	c.active = kept
}

// RebuildOverlay makes the overlay a transparent copy of the content
// surface and attaches h to every element of the interactive class. It can
// be called any number of times; previous listeners are always detached.
func (c *Coordinator) RebuildOverlay(interactive string, h surface.Handler) int {
	c.overlay.Unlisten()
	c.overlay.CloneFrom(c.content)
	c.overlay.SuppressPaint(HiddenStyle)
	c.overlay.StripText()

	for _, id := range c.active {
		// the clone carries the hidden content style of the active ids
		c.overlay.SetStyle(id, ActiveStyle)
	}

	return c.overlay.Listen(interactive, h)
}

func (c *Coordinator) Active() []string {
	return slices.Clone(c.active)
}

func (c *Coordinator) IsActive(id string) bool {
	return slices.Contains(c.active, id)
}

func (c *Coordinator) restore(id string) {
	c.overlay.SetStyle(id, HiddenStyle)
	c.overlay.SetTransform(id, "")
	c.content.ClearStyle(id)
}
