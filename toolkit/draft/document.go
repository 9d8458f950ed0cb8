package draft

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
)

var ErrEmptyDocument = errors.New("document has no measures")

type measure struct {
	ID    string
	Notes []*note
}

type note struct {
	ID string
	Y  int
}

// parse reads every <measure> and the <note>s inside it, wherever they are
// nested. Anything else in the document is ignored.
func parse(document string) ([]*measure, error) {
	decoder := xml.NewDecoder(bytes.NewBufferString(document))
	decoder.Strict = false

	var measures []*measure
	var current *measure
	notes := 0

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse document: %w", err)
		}

		switch element := token.(type) {
		case xml.StartElement:
			switch element.Name.Local {
			case "measure":
				current = &measure{
					ID: attr(element, "id", fmt.Sprintf("m%d", len(measures)+1)),
				}
				measures = append(measures, current)
			case "note":
				if current == nil {
					continue
				}
				notes++
				y, _ := strconv.Atoi(attr(element, "y", strconv.Itoa(defaultNoteY)))
				current.Notes = append(current.Notes, &note{
					ID: attr(element, "id", fmt.Sprintf("n%d", notes)),
					Y:  y,
				})
			}
		case xml.EndElement:
			if element.Name.Local == "measure" {
				current = nil
			}
		}
	}

	if len(measures) == 0 {
		return nil, ErrEmptyDocument
	}

	return measures, nil
}

func attr(element xml.StartElement, name, fallback string) string {
	for _, a := range element.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return fallback
}

func serialize(measures []*measure) string {
	b := &bytes.Buffer{}
	b.WriteString("<score>\n")
	for _, m := range measures {
		fmt.Fprintf(b, "  <measure xml:id=\"%s\">\n", escape(m.ID))
		for _, n := range m.Notes {
			fmt.Fprintf(b, "    <note xml:id=\"%s\" y=\"%d\"/>\n", escape(n.ID), n.Y)
		}
		b.WriteString("  </measure>\n")
	}
	b.WriteString("</score>\n")
	return b.String()
}

func escape(s string) string {
	b := &bytes.Buffer{}
	xml.EscapeText(b, []byte(s))
	return b.String()
}
