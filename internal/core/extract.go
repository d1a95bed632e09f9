package core

// extract.go turns KML document text into the fixed-schema homepass table.
//
// The extractor walks a generic XML node tree rather than binding to KML
// struct types: the documents in the wild carry vendor extensions and
// namespace prefixes that a rigid struct mapping would choke on. Tag matching
// on the local name keeps the walk tolerant of namespaces while staying
// case-sensitive, which is what KML requires.

import (
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"github.com/FadliGr1/abd-to-csv/internal/schema"
)

// xmlNode is a generic element tree node used for the document walk.
type xmlNode struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Children []xmlNode  `xml:",any"`
	Text     string     `xml:",chardata"`
}

// attr returns the value of the first attribute whose local name matches.
func (n *xmlNode) attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

// firstDescendant returns the first descendant element with the given local
// name in depth-first document order, or nil.
func (n *xmlNode) firstDescendant(name string) *xmlNode {
	for i := range n.Children {
		c := &n.Children[i]
		if c.XMLName.Local == name {
			return c
		}
		if found := c.firstDescendant(name); found != nil {
			return found
		}
	}
	return nil
}

// walkDescendants visits every descendant element with the given local name
// in document order.
func (n *xmlNode) walkDescendants(name string, visit func(*xmlNode)) {
	for i := range n.Children {
		c := &n.Children[i]
		if c.XMLName.Local == name {
			visit(c)
		}
		c.walkDescendants(name, visit)
	}
}

// parseXML parses text into a node tree and verifies the whole document is
// well-formed. xml.Decoder stops at the end of the root element, so the token
// stream is drained afterwards: trailing garbage such as a second root or
// stray text must fail rather than be silently ignored.
func parseXML(docName, text string) (*xmlNode, error) {
	dec := xml.NewDecoder(strings.NewReader(text))

	var root xmlNode
	if err := dec.Decode(&root); err != nil {
		return nil, &ParseError{DocName: docName, Err: err}
	}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &ParseError{DocName: docName, Err: err}
		}
		switch t := tok.(type) {
		case xml.CharData:
			if strings.TrimSpace(string(t)) != "" {
				return nil, &ParseError{DocName: docName, Err: errors.New("content after document element")}
			}
		case xml.StartElement:
			return nil, &ParseError{DocName: docName, Err: errors.New("multiple document elements")}
		}
	}

	return &root, nil
}

// ExtractTable parses KML text and produces the homepass table: the schema
// header plus one row per Placemark in document order. A document with no
// placemarks yields a header-only table. Returns *ParseError if the text is
// not well-formed XML.
func ExtractTable(docName, text string) (Table, error) {
	root, err := parseXML(docName, text)
	if err != nil {
		return Table{}, err
	}

	table := Table{Header: schema.Header()}

	visit := func(pm *xmlNode) {
		table.Rows = append(table.Rows, extractRow(pm))
	}
	if root.XMLName.Local == "Placemark" {
		visit(root)
	}
	root.walkDescendants("Placemark", visit)

	return table, nil
}

// extractRow builds one schema-ordered row from a Placemark element. Every
// field starts empty; SimpleData entries under the placemark's first
// ExtendedData overwrite matching fields, last occurrence wins. Names not in
// the schema are dropped.
func extractRow(pm *xmlNode) []string {
	values := make(map[string]string, schema.FieldCount())

	if ext := pm.firstDescendant("ExtendedData"); ext != nil {
		ext.walkDescendants("SimpleData", func(sd *xmlNode) {
			name, ok := sd.attr("name")
			if !ok || !schema.Contains(name) {
				return
			}
			values[name] = strings.TrimSpace(sd.Text)
		})
	}

	row := make([]string, schema.FieldCount())
	for i, field := range schema.Fields {
		row[i] = values[field]
	}
	return row
}
