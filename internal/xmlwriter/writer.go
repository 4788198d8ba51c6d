// =============================================================================
// Avisos Generator - XML Writer Module
// =============================================================================
//
// This module serializes assembled documents. It writes the tree by hand
// instead of going through encoding/xml marshaling so that attribute order,
// prefixed attribute names (xmlns:xsi, xsi:schemaLocation) and indentation
// are exactly what the regulator's validator expects.
//
// OUTPUT CONVENTIONS:
//   - UTF-8 with an XML declaration
//   - Two-space indentation, one element per line
//   - Elements without value or children are self-closing (<rfc/>)
//   - Text and attribute values are escaped
//
// =============================================================================

package xmlwriter

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"unicode/utf8"
)

// =============================================================================
// GENERATION OPTIONS
// =============================================================================

// GenerateOptions contains options for XML serialization.
type GenerateOptions struct {
	// Indent is the string used for indentation.
	// Default: "  " (two spaces)
	Indent string

	// IncludeXMLDeclaration determines whether to include the XML declaration.
	// Default: true
	IncludeXMLDeclaration bool

	// XMLVersion is the XML version for the declaration.
	// Default: "1.0"
	XMLVersion string

	// Encoding is the encoding for the XML declaration.
	// Default: "UTF-8"
	Encoding string
}

// DefaultGenerateOptions returns the default generation options.
func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{
		Indent:                "  ",
		IncludeXMLDeclaration: true,
		XMLVersion:            "1.0",
		Encoding:              "UTF-8",
	}
}

// =============================================================================
// DOCUMENT TREE
// =============================================================================

// XMLDocument represents the root of the XML document.
type XMLDocument struct {
	XMLName    xml.Name
	Attributes []xml.Attr
	Children   []XMLElement
}

// XMLElement represents a generic XML element. An element has either a
// Value or Children.
type XMLElement struct {
	XMLName    xml.Name
	Attributes []xml.Attr
	Value      string
	Children   []XMLElement
}

// Find returns the first direct child named name.
func (e XMLElement) Find(name string) (XMLElement, bool) {
	for _, c := range e.Children {
		if c.XMLName.Local == name {
			return c, true
		}
	}
	return XMLElement{}, false
}

// createSimpleElement creates a simple XML element with a text value.
func createSimpleElement(name, value string) XMLElement {
	return XMLElement{
		XMLName: xml.Name{Local: name},
		Value:   value,
	}
}

// createParentElement creates an element wrapping children.
func createParentElement(name string, children ...XMLElement) XMLElement {
	return XMLElement{
		XMLName:  xml.Name{Local: name},
		Children: children,
	}
}

// =============================================================================
// SERIALIZATION
// =============================================================================

// Serialize writes doc as bytes. The output is either complete or an error
// is returned; partial documents are never produced.
func Serialize(doc *XMLDocument, options GenerateOptions) ([]byte, error) {
	if doc == nil || doc.XMLName.Local == "" {
		return nil, fmt.Errorf("document has no root element")
	}

	var buffer bytes.Buffer

	// Write XML declaration if requested.
	if options.IncludeXMLDeclaration {
		buffer.WriteString(fmt.Sprintf("<?xml version=\"%s\" encoding=\"%s\"?>\n",
			options.XMLVersion, options.Encoding))
	}

	if err := marshalWithIndent(&buffer, doc, options.Indent); err != nil {
		return nil, fmt.Errorf("failed to marshal XML: %w", err)
	}

	return buffer.Bytes(), nil
}

// marshalWithIndent writes the document with indentation.
func marshalWithIndent(buffer *bytes.Buffer, doc *XMLDocument, indent string) error {
	// Write the root element opening tag.
	buffer.WriteString("<")
	buffer.WriteString(doc.XMLName.Local)
	writeAttributes(buffer, doc.Attributes)

	if len(doc.Children) == 0 {
		buffer.WriteString("/>\n")
		return nil
	}
	buffer.WriteString(">\n")

	for _, child := range doc.Children {
		if err := writeElement(buffer, child, indent, 1); err != nil {
			return err
		}
	}

	// Write the root element closing tag.
	buffer.WriteString("</")
	buffer.WriteString(doc.XMLName.Local)
	buffer.WriteString(">\n")

	return nil
}

// writeElement writes an XML element to the buffer with indentation.
func writeElement(buffer *bytes.Buffer, element XMLElement, indent string, level int) error {
	if element.XMLName.Local == "" {
		return fmt.Errorf("element without name at depth %d", level)
	}
	if element.Value != "" && len(element.Children) > 0 {
		return fmt.Errorf("element %s has both a value and children", element.XMLName.Local)
	}
	if !utf8.ValidString(element.Value) {
		return fmt.Errorf("element %s has invalid UTF-8 content", element.XMLName.Local)
	}

	writeIndent(buffer, indent, level)

	// Write opening tag.
	buffer.WriteString("<")
	buffer.WriteString(element.XMLName.Local)
	writeAttributes(buffer, element.Attributes)

	// Check if element has children or value.
	if len(element.Children) == 0 && element.Value == "" {
		// Self-closing tag.
		buffer.WriteString("/>\n")
		return nil
	}

	buffer.WriteString(">")

	if element.Value != "" {
		// Simple element with text value.
		buffer.WriteString(escapeXML(element.Value))
	} else {
		// Element with children.
		buffer.WriteString("\n")

		for _, child := range element.Children {
			if err := writeElement(buffer, child, indent, level+1); err != nil {
				return err
			}
		}

		writeIndent(buffer, indent, level)
	}

	// Write closing tag.
	buffer.WriteString("</")
	buffer.WriteString(element.XMLName.Local)
	buffer.WriteString(">\n")
	return nil
}

func writeIndent(buffer *bytes.Buffer, indent string, level int) {
	for i := 0; i < level; i++ {
		buffer.WriteString(indent)
	}
}

// writeAttributes writes attributes in declaration order. A non-empty
// Name.Space is written as a prefix (xsi:schemaLocation).
func writeAttributes(buffer *bytes.Buffer, attrs []xml.Attr) {
	for _, attr := range attrs {
		name := attr.Name.Local
		if attr.Name.Space != "" {
			name = attr.Name.Space + ":" + name
		}
		buffer.WriteString(fmt.Sprintf(" %s=\"%s\"", name, escapeXML(attr.Value)))
	}
}

// escapeXML escapes special characters for XML and drops characters that
// are not allowed in XML 1.0 documents.
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
			if isXMLChar(r) {
				buffer.WriteRune(r)
			}
		}
	}

	return buffer.String()
}

// isXMLChar reports whether r is a legal XML 1.0 character.
func isXMLChar(r rune) bool {
	return r == 0x09 || r == 0x0A || r == 0x0D ||
		(r >= 0x20 && r <= 0xD7FF) ||
		(r >= 0xE000 && r <= 0xFFFD) ||
		(r >= 0x10000 && r <= 0x10FFFF)
}
