// Package draft is a small built-in notation engine. It understands only
// measures and notes, lays them out into systems and pages and renders the
// same SVG structure a full engine produces, which is enough to run a view
// end to end without an external engine.
package draft

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/fulldump/scorepane/protocol"
	"github.com/fulldump/scorepane/toolkit"
)

const (
	// Layout sizes are in viewBox units; one page unit is unitsPerPage of them.
	unitsPerPage  = 10
	measureWidth  = 2400
	systemHeight  = 2000
	noteSpacing   = 400
	noteWidth     = 180
	noteHeight    = 140
	defaultNoteY  = 800
	labelBaseline = 200
)

var ErrNotLoaded = errors.New("no document loaded")
var ErrPageOutOfRange = errors.New("page out of range")
var ErrUnknownTarget = errors.New("unknown edit target")
var ErrUnsupportedAction = errors.New("unsupported edit action")

func init() {
	toolkit.Register("builtin", func(arg string) (toolkit.Toolkit, error) {
		if arg != "draft" {
			return nil, fmt.Errorf("builtin engine '%s' does not exist", arg)
		}
		return New(), nil
	})
}

type Draft struct {
	options  protocol.RenderOptions
	measures []*measure
	pages    []page
}

type page struct {
	systems []system
}

type system struct {
	measures []*measure
}

func New() *Draft {
	return &Draft{
		options: protocol.DefaultRenderOptions(),
	}
}

func (d *Draft) SetOptions(options protocol.RenderOptions) error {
	if err := options.Validate(); err != nil {
		return err
	}
	d.options = options
	d.layout()
	return nil
}

func (d *Draft) LoadData(document string) error {
	measures, err := parse(document)
	if err != nil {
		return err
	}
	d.measures = measures
	d.layout()
	return nil
}

func (d *Draft) PageCount() int {
	return len(d.pages)
}

func (d *Draft) RenderPage(n int) (string, error) {
	if d.measures == nil {
		return "", ErrNotLoaded
	}
	if n < 1 || n > len(d.pages) {
		return "", fmt.Errorf("%w: %d of %d", ErrPageOutOfRange, n, len(d.pages))
	}
	return d.render(n), nil
}

func (d *Draft) Edit(action protocol.EditAction) error {
	if d.measures == nil {
		return ErrNotLoaded
	}
	if action.Action != protocol.ActionDrag {
		return fmt.Errorf("%w: '%s'", ErrUnsupportedAction, action.Action)
	}

	for _, p := range d.pages {
		for s, sys := range p.systems {
			for _, m := range sys.measures {
				for _, n := range m.Notes {
					if n.ID != action.Target {
						continue
					}
					n.Y = action.Y - s*systemHeight
					return nil
				}
			}
		}
	}

	return fmt.Errorf("%w: '%s'", ErrUnknownTarget, action.Target)
}

func (d *Draft) Document() (string, error) {
	if d.measures == nil {
		return "", ErrNotLoaded
	}
	return serialize(d.measures), nil
}

func (d *Draft) margin() int {
	return d.options.Border * unitsPerPage
}

func (d *Draft) layout() {
	d.pages = nil
	if len(d.measures) == 0 {
		return
	}

	if d.options.Horizontal() {
		d.pages = []page{{systems: []system{{measures: d.measures}}}}
		return
	}

	usableWidth := d.options.PageWidth*unitsPerPage - 2*d.margin()
	perSystem := max(usableWidth/measureWidth, 1)

	usableHeight := d.options.PageHeight*unitsPerPage - 2*d.margin()
	perPage := max(usableHeight/systemHeight, 1)

	var systems []system
	for i := 0; i < len(d.measures); i += perSystem {
		end := min(i+perSystem, len(d.measures))
		systems = append(systems, system{measures: d.measures[i:end]})
	}

	for i := 0; i < len(systems); i += perPage {
		end := min(i+perPage, len(systems))
		d.pages = append(d.pages, page{systems: systems[i:end]})
	}
}

// size returns the page dimensions in viewBox units.
func (d *Draft) size(p page) (width, height int) {
	width = d.options.PageWidth * unitsPerPage
	height = d.options.PageHeight * unitsPerPage

	if d.options.Horizontal() {
		width = 2*d.margin() + len(d.measures)*measureWidth
	}
	if d.options.AdjustPageHeight == 1 || d.options.Horizontal() {
		height = 2*d.margin() + len(p.systems)*systemHeight
	}
	return
}

func (d *Draft) render(n int) string {
	p := d.pages[n-1]
	width, height := d.size(p)

	// pixels = units * scale / 100 / unitsPerPage
	pxWidth := width * d.options.Scale / 100 / unitsPerPage
	pxHeight := height * d.options.Scale / 100 / unitsPerPage

	b := &bytes.Buffer{}
	fmt.Fprintf(b, `<svg width="%dpx" height="%dpx" version="1.1" xmlns="http://www.w3.org/2000/svg">`, pxWidth, pxHeight)
	fmt.Fprintf(b, `<svg class="definition-scale" viewBox="0 0 %d %d">`, width, height)
	fmt.Fprintf(b, `<g class="page-margin" transform="translate(%d, %d)">`, d.margin(), d.margin())

	for s, sys := range p.systems {
		top := s * systemHeight
		fmt.Fprintf(b, `<g class="system" id="system-%d-%d">`, n, s+1)
		fmt.Fprintf(b, `<path class="staff" d="M0 %d L%d %d"/>`, top+labelBaseline, len(sys.measures)*measureWidth, top+labelBaseline)
		for i, m := range sys.measures {
			left := i * measureWidth
			fmt.Fprintf(b, `<g class="measure" id="%s">`, escape(m.ID))
			fmt.Fprintf(b, `<text class="label" x="%d" y="%d">%s</text>`, left, top+labelBaseline, escape(m.ID))
			for j, note := range m.Notes {
				fmt.Fprintf(b, `<g class="note" id="%s">`, escape(note.ID))
				fmt.Fprintf(b, `<rect class="notehead" x="%d" y="%d" width="%d" height="%d"/>`,
					left+noteSpacing*(j+1), top+note.Y, noteWidth, noteHeight)
				b.WriteString(`</g>`)
			}
			b.WriteString(`</g>`)
		}
		b.WriteString(`</g>`)
	}

	b.WriteString(`</g></svg></svg>`)
	return b.String()
}
