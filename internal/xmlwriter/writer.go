// =============================================================================
// Product Feed - XML Writer Module
// =============================================================================
//
// This module generates XML documents from evaluated product records and an
// XSD describing them. Element names are the catalog field names, in catalog
// order, so every raw and derived field appears in the output.
//
// XML STRUCTURE:
//
//   <products source="items.txt">              <!-- Root element -->
//     <product n="1" line="1">                 <!-- Record with index and source line -->
//       <product_id>80000001</product_id>
//       <description>Kimchi-flavored white rice</description>
//       ...
//       <regular_display_price>$5.67</regular_display_price>
//       <promotional_display_price/>           <!-- Empty values self-close -->
//       <tax_rate>0</tax_rate>
//     </product>
//     <product n="2" line="3">                 <!-- Line 2 was skipped -->
//       ...
//     </product>
//   </products>
//
// =============================================================================

package xmlwriter

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/popiel/code-exercise-services/internal/record"
	"github.com/shopspring/decimal"
)

// =============================================================================
// XML GENERATION OPTIONS
// =============================================================================

// GenerateOptions contains options for XML generation.
type GenerateOptions struct {
	// Indent is the string used for each level of indentation.
	Indent string

	// IncludeXMLDeclaration adds the <?xml ...?> header.
	IncludeXMLDeclaration bool

	// XMLVersion is the version written in the declaration.
	XMLVersion string

	// Encoding is the encoding written in the declaration.
	Encoding string

	// RootElement names the document element.
	RootElement string

	// RecordElement names the element wrapping one record.
	RecordElement string

	// RootAttributes are added to the root element, sorted by name.
	RootAttributes map[string]string

	// IndexAttribute holds the 1-based position of the record in the document.
	IndexAttribute string

	// LineAttribute holds the source line number. Empty omits it.
	LineAttribute string
}

// DefaultGenerateOptions returns the default generation options.
func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{
		Indent:                "  ",
		IncludeXMLDeclaration: true,
		XMLVersion:            "1.0",
		Encoding:              "UTF-8",
		RootElement:           "products",
		RecordElement:         "product",
		RootAttributes:        make(map[string]string),
		IndexAttribute:        "n",
		LineAttribute:         "line",
	}
}

// Row is one evaluated record and the line it came from.
type Row struct {
	Line   int
	Fields []record.FieldValue
}

// =============================================================================
// XML GENERATION
// =============================================================================

// Generate creates an XML document from evaluated rows using default options.
//
// PARAMETERS:
//   - rows: The evaluated records, in output order.
//
// RETURNS:
//   - The XML document as a byte slice.
//   - An error if generation fails.
func Generate(rows []Row) ([]byte, error) {
	return GenerateWithOptions(rows, DefaultGenerateOptions())
}

// GenerateWithOptions creates an XML document with custom options.
func GenerateWithOptions(rows []Row, options GenerateOptions) ([]byte, error) {
	if options.RootElement == "" || options.RecordElement == "" {
		return nil, fmt.Errorf("root and record element names are required")
	}

	var buffer bytes.Buffer

	if options.IncludeXMLDeclaration {
		buffer.WriteString(fmt.Sprintf("<?xml version=\"%s\" encoding=\"%s\"?>\n",
			options.XMLVersion, options.Encoding))
	}

	doc := buildDocument(rows, options)

	xmlBytes, err := marshalWithIndent(doc, options.Indent)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal XML: %w", err)
	}

	buffer.Write(xmlBytes)

	return buffer.Bytes(), nil
}

// =============================================================================
// XML DOCUMENT STRUCTURE
// =============================================================================

// XMLDocument represents the root of the XML document.
type XMLDocument struct {
	XMLName    xml.Name
	Attributes []xml.Attr
	Children   []XMLElement
}

// XMLElement represents a generic XML element.
type XMLElement struct {
	XMLName    xml.Name
	Attributes []xml.Attr
	Value      string
	Children   []XMLElement
}

// buildDocument builds the XML document structure from the rows.
func buildDocument(rows []Row, options GenerateOptions) *XMLDocument {
	doc := &XMLDocument{
		XMLName: xml.Name{Local: options.RootElement},
	}

	names := make([]string, 0, len(options.RootAttributes))
	for name := range options.RootAttributes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		doc.Attributes = append(doc.Attributes, xml.Attr{
			Name:  xml.Name{Local: name},
			Value: options.RootAttributes[name],
		})
	}

	for i, row := range rows {
		doc.Children = append(doc.Children, buildRecordElement(i+1, row, options))
	}

	return doc
}

// buildRecordElement builds the element of one record.
func buildRecordElement(index int, row Row, options GenerateOptions) XMLElement {
	element := XMLElement{
		XMLName: xml.Name{Local: options.RecordElement},
		Attributes: []xml.Attr{
			{
				Name:  xml.Name{Local: options.IndexAttribute},
				Value: fmt.Sprintf("%d", index),
			},
		},
	}
	if options.LineAttribute != "" && row.Line > 0 {
		element.Attributes = append(element.Attributes, xml.Attr{
			Name:  xml.Name{Local: options.LineAttribute},
			Value: fmt.Sprintf("%d", row.Line),
		})
	}

	for _, field := range row.Fields {
		element.Children = append(element.Children,
			createSimpleElement(field.Name, record.FormatValue(field.Value)))
	}

	return element
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// createSimpleElement creates a simple XML element with a text value.
func createSimpleElement(name, value string) XMLElement {
	return XMLElement{
		XMLName: xml.Name{Local: name},
		Value:   value,
	}
}

// marshalWithIndent writes the document with indentation.
func marshalWithIndent(doc *XMLDocument, indent string) ([]byte, error) {
	var buffer bytes.Buffer

	buffer.WriteString("<")
	buffer.WriteString(doc.XMLName.Local)

	for _, attr := range doc.Attributes {
		buffer.WriteString(fmt.Sprintf(" %s=\"%s\"", attr.Name.Local, escapeXML(attr.Value)))
	}

	if len(doc.Children) == 0 {
		buffer.WriteString("/>\n")
		return buffer.Bytes(), nil
	}

	buffer.WriteString(">\n")

	for _, child := range doc.Children {
		writeElement(&buffer, child, indent, 1)
	}

	buffer.WriteString("</")
	buffer.WriteString(doc.XMLName.Local)
	buffer.WriteString(">\n")

	return buffer.Bytes(), nil
}

// writeElement writes a single element with proper indentation.
func writeElement(buffer *bytes.Buffer, element XMLElement, indent string, level int) {
	for i := 0; i < level; i++ {
		buffer.WriteString(indent)
	}

	buffer.WriteString("<")
	buffer.WriteString(element.XMLName.Local)

	for _, attr := range element.Attributes {
		buffer.WriteString(fmt.Sprintf(" %s=\"%s\"", attr.Name.Local, escapeXML(attr.Value)))
	}

	// Self-closing tag if no content.
	if len(element.Children) == 0 && element.Value == "" {
		buffer.WriteString("/>\n")
		return
	}

	buffer.WriteString(">")

	if element.Value != "" {
		buffer.WriteString(escapeXML(element.Value))
	} else {
		buffer.WriteString("\n")

		for _, child := range element.Children {
			writeElement(buffer, child, indent, level+1)
		}

		for i := 0; i < level; i++ {
			buffer.WriteString(indent)
		}
	}

	buffer.WriteString("</")
	buffer.WriteString(element.XMLName.Local)
	buffer.WriteString(">\n")
}

// escapeXML escapes special characters in XML text and attribute values.
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

// =============================================================================
// XSD GENERATION
// =============================================================================

// GenerateXSD generates an XSD schema for documents built from catalog with
// the default options.
//
// PARAMETERS:
//   - catalog: The field catalog whose entries become record children.
//
// RETURNS:
//   - The XSD document as a byte slice.
//   - An error if generation fails.
func GenerateXSD(catalog *record.Catalog) ([]byte, error) {
	return GenerateXSDWithOptions(catalog, DefaultGenerateOptions())
}

// GenerateXSDWithOptions generates an XSD schema matching options.
func GenerateXSDWithOptions(catalog *record.Catalog, options GenerateOptions) ([]byte, error) {
	entries := catalog.Entries()
	if len(entries) == 0 {
		return nil, fmt.Errorf("catalog %s has no fields", catalog.Name())
	}

	var buffer bytes.Buffer

	buffer.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
`)

	// Root element.
	buffer.WriteString(fmt.Sprintf(`  <xs:element name="%s">
    <xs:complexType>
      <xs:sequence>
        <xs:element ref="%s" minOccurs="0" maxOccurs="unbounded"/>
      </xs:sequence>
`, options.RootElement, options.RecordElement))

	names := make([]string, 0, len(options.RootAttributes))
	for name := range options.RootAttributes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		buffer.WriteString(fmt.Sprintf(`      <xs:attribute name="%s" type="xs:string"/>
`, name))
	}

	buffer.WriteString(`    </xs:complexType>
  </xs:element>

`)

	// Record element.
	buffer.WriteString(fmt.Sprintf(`  <xs:element name="%s">
    <xs:complexType>
      <xs:sequence>
`, options.RecordElement))

	for _, entry := range entries {
		writeXSDElement(&buffer, entry, 4)
	}

	buffer.WriteString(fmt.Sprintf(`      </xs:sequence>
      <xs:attribute name="%s" type="xs:positiveInteger" use="required"/>
`, options.IndexAttribute))
	if options.LineAttribute != "" {
		buffer.WriteString(fmt.Sprintf(`      <xs:attribute name="%s" type="xs:positiveInteger"/>
`, options.LineAttribute))
	}
	buffer.WriteString(`    </xs:complexType>
  </xs:element>

</xs:schema>
`)

	return buffer.Bytes(), nil
}

// writeXSDElement writes an XSD element definition.
func writeXSDElement(buffer *bytes.Buffer, entry record.Entry, indentLevel int) {
	indent := strings.Repeat("  ", indentLevel)
	t := entry.Key.Type

	// Fixed-size boolean arrays are written as Y/N strings.
	if t.Kind() == reflect.Array && t.Elem().Kind() == reflect.Bool {
		buffer.WriteString(fmt.Sprintf(`%s<xs:element name="%s">
%s  <xs:simpleType>
%s    <xs:restriction base="xs:string">
%s      <xs:pattern value="[YN]{%d}"/>
%s    </xs:restriction>
%s  </xs:simpleType>
%s</xs:element>
`, indent, entry.Name(),
			indent, indent,
			indent, t.Len(),
			indent, indent, indent))
		return
	}

	buffer.WriteString(fmt.Sprintf(`%s<xs:element name="%s" type="%s"/>
`, indent, entry.Name(), getXSDType(t)))
}

var decimalType = reflect.TypeFor[decimal.Decimal]()

// getXSDType maps a field's Go type to an XSD type.
func getXSDType(t reflect.Type) string {
	if t == decimalType {
		return "xs:decimal"
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int64, reflect.Int32:
		return "xs:long"
	case reflect.Bool:
		return "xs:boolean"
	default:
		return "xs:string"
	}
}
