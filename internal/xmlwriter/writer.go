// =============================================================================
// Manifest to Scale - XML Writer Module
// =============================================================================
//
// This module generates the Scale WMS interface documents for a manifest:
// one Receipt document per manifest and one Shipments document holding a
// Shipment per store order. It also writes the CSV mirror of the manifest.
//
// XML STRUCTURE:
//   Every element is written with the ns0 prefix and the root element
//   declares the interface namespace:
//
//   <?xml version="1.0" encoding="utf-8"?>
//   <ns0:Receipts xmlns:ns0="http://www.manh.com/ILSNET/Interface">
//     <ns0:Receipt>
//       <ns0:Action>NEW</ns0:Action>
//       ...
//     </ns0:Receipt>
//   </ns0:Receipts>
//
//   Empty leaves are written as an open and close pair, never self-closed.
//   The WMS importer compares element shapes exactly.
//
// =============================================================================

package xmlwriter

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"time"
)

// Namespace is the Scale interface namespace declared on every document.
const Namespace = "http://www.manh.com/ILSNET/Interface"

const (
	nsPrefix    = "ns0"
	declaration = `<?xml version="1.0" encoding="utf-8"?>` + "\n"
	indentUnit  = "  "

	// timestampLayout is the WMS date-time format, yyyy-MM-ddTHH:mm:ss.
	timestampLayout = "2006-01-02T15:04:05"

	// Fixed values of the interface contract.
	warehouse = "PER"
)

// =============================================================================
// GENERATOR
// =============================================================================

// Generator builds interface documents. The zero value is ready to use.
type Generator struct {
	// Now supplies creation timestamps. Defaults to time.Now.
	Now func() time.Time
}

// New returns a Generator that stamps documents with the current time.
func New() *Generator {
	return &Generator{Now: time.Now}
}

func (g *Generator) now() time.Time {
	if g == nil || g.Now == nil {
		return time.Now()
	}
	return g.Now()
}

// GenerationError reports a document that could not be produced.
type GenerationError struct {
	// Document is "receipt", "shipment" or "csv".
	Document string
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("failed to generate %s: %v", e.Document, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// =============================================================================
// XML DOCUMENT BUILDING
// =============================================================================

// XMLElement represents a generic XML element. Names are local names; the
// ns0 prefix is added when the element is written.
type XMLElement struct {
	XMLName    xml.Name
	Attributes []xml.Attr   `xml:",attr"`
	Value      string       `xml:",chardata"`
	Children   []XMLElement `xml:",any"`
}

// leaf creates an element holding a text value.
func leaf(name, value string) XMLElement {
	return XMLElement{XMLName: xml.Name{Local: name}, Value: value}
}

// group creates an element holding child elements.
func group(name string, children ...XMLElement) XMLElement {
	return XMLElement{XMLName: xml.Name{Local: name}, Children: children}
}

// Child returns the first direct child with the given local name.
func (e XMLElement) Child(name string) (XMLElement, bool) {
	for _, c := range e.Children {
		if c.XMLName.Local == name {
			return c, true
		}
	}
	return XMLElement{}, false
}

// Path follows a chain of child names, for example
// Path("Details", "ReceiptDetail", "SKU", "Quantity").
func (e XMLElement) Path(names ...string) (XMLElement, bool) {
	cur := e
	for _, n := range names {
		next, ok := cur.Child(n)
		if !ok {
			return XMLElement{}, false
		}
		cur = next
	}
	return cur, true
}

// marshalDocument writes the declaration and root element, with the namespace
// declared on the root.
func marshalDocument(root XMLElement) []byte {
	var buffer bytes.Buffer
	buffer.WriteString(declaration)

	root.Attributes = append([]xml.Attr{{
		Name:  xml.Name{Space: "xmlns", Local: nsPrefix},
		Value: Namespace,
	}}, root.Attributes...)

	writeElement(&buffer, root, indentUnit, 0)
	return buffer.Bytes()
}

// writeElement writes an XML element to the buffer with indentation.
func writeElement(buffer *bytes.Buffer, element XMLElement, indent string, level int) {
	for i := 0; i < level; i++ {
		buffer.WriteString(indent)
	}

	name := qualified(element.XMLName.Local)
	buffer.WriteString("<")
	buffer.WriteString(name)

	for _, attr := range element.Attributes {
		attrName := attr.Name.Local
		if attr.Name.Space != "" {
			attrName = attr.Name.Space + ":" + attrName
		}
		buffer.WriteString(fmt.Sprintf(" %s=\"%s\"", attrName, escapeXML(attr.Value)))
	}
	buffer.WriteString(">")

	if len(element.Children) > 0 {
		buffer.WriteString("\n")
		for _, child := range element.Children {
			writeElement(buffer, child, indent, level+1)
		}
		for i := 0; i < level; i++ {
			buffer.WriteString(indent)
		}
	} else {
		buffer.WriteString(escapeXML(element.Value))
	}

	buffer.WriteString("</")
	buffer.WriteString(name)
	buffer.WriteString(">\n")
}

func qualified(local string) string {
	return nsPrefix + ":" + local
}

// escapeXML escapes special characters for XML.
func escapeXML(s string) string {
	var buffer bytes.Buffer

	for _, r := range s {
		switch r {
		case '&':
			buffer.WriteString("&amp;")
		case '<':
			buffer.WriteString("&lt;")
		case '>':
			buffer.WriteString("&gt;")
		case '"':
			buffer.WriteString("&quot;")
		case '\'':
			buffer.WriteString("&apos;")
		default:
			buffer.WriteRune(r)
		}
	}

	return buffer.String()
}
