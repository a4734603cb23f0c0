package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/getsigsim/sigsim/pkg/simerr"
)

// ImportFieldsXML parses an XFA-style form template and returns definitions
// for every signature field it declares (fields whose <ui> contains a
// <signature> element). Top-level subforms map to pages in order; nested
// subforms flatten onto their page. Measurements accept pt, in, mm, and cm
// suffixes, defaulting to points.
func ImportFieldsXML(data []byte) ([]FieldDefinition, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, simerr.Newf(simerr.MockConfigurationError, "parsing form template XML: %v", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, simerr.New(simerr.MockConfigurationError, "form template is empty")
	}

	tmpl := root
	if localName(root.Tag) != "template" {
		tmpl = firstDescendant(root, "template")
		if tmpl == nil {
			return nil, simerr.Newf(simerr.MockConfigurationError,
				"expected a <template> element, found <%s>", root.Tag)
		}
	}

	pages := childElements(tmpl, "subform")
	if len(pages) == 0 {
		pages = []*etree.Element{tmpl}
	}

	var fields []FieldDefinition
	seen := make(map[string]int)
	for pageIdx, pageElem := range pages {
		for _, fe := range descendantElements(pageElem, "field") {
			def, ok, err := fieldFromElement(fe, pageIdx+1)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			seen[def.Name]++
			if n := seen[def.Name]; n > 1 {
				def.Name = fmt.Sprintf("%s_%d", def.Name, n)
			}
			fields = append(fields, def)
		}
	}

	if len(fields) == 0 {
		return nil, simerr.New(simerr.MockConfigurationError, "form template declares no signature fields")
	}
	return fields, nil
}

func fieldFromElement(fe *etree.Element, page int) (FieldDefinition, bool, error) {
	if !hasSignatureUI(fe) {
		return FieldDefinition{}, false, nil
	}
	name := fe.SelectAttrValue("name", "")
	if name == "" {
		return FieldDefinition{}, false, simerr.New(simerr.MockConfigurationError,
			"signature field is missing a name attribute")
	}

	bounds := Rect{}
	for _, m := range []struct {
		attr string
		dst  *float64
	}{
		{"x", &bounds.X},
		{"y", &bounds.Y},
		{"w", &bounds.Width},
		{"h", &bounds.Height},
	} {
		raw := fe.SelectAttrValue(m.attr, "")
		if raw == "" {
			continue
		}
		v, err := parseMeasurement(raw)
		if err != nil {
			return FieldDefinition{}, false, simerr.Newf(simerr.MockConfigurationError,
				"field %q attribute %s: %v", name, m.attr, err)
		}
		*m.dst = v
	}

	required := false
	if validate := childElement(fe, "validate"); validate != nil {
		required = validate.SelectAttrValue("nullTest", "") == "error"
	}

	return FieldDefinition{
		Name:     name,
		Page:     page,
		Bounds:   bounds,
		Required: required,
	}, true, nil
}

func hasSignatureUI(fe *etree.Element) bool {
	ui := childElement(fe, "ui")
	if ui == nil {
		return false
	}
	return childElement(ui, "signature") != nil
}

// parseMeasurement converts an XFA measurement like "72pt", "1in", or
// "25.4mm" to PDF points. Bare numbers are points.
func parseMeasurement(s string) (float64, error) {
	s = strings.TrimSpace(s)
	factor := 1.0
	switch {
	case strings.HasSuffix(s, "pt"):
		s = strings.TrimSuffix(s, "pt")
	case strings.HasSuffix(s, "in"):
		s = strings.TrimSuffix(s, "in")
		factor = 72
	case strings.HasSuffix(s, "mm"):
		s = strings.TrimSuffix(s, "mm")
		factor = 72.0 / 25.4
	case strings.HasSuffix(s, "cm"):
		s = strings.TrimSuffix(s, "cm")
		factor = 72.0 / 2.54
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid measurement %q", s)
	}
	return v * factor, nil
}

// localName strips any namespace prefix, for example "xfa:template" to
// "template".
func localName(tag string) string {
	if idx := strings.IndexByte(tag, ':'); idx >= 0 {
		return tag[idx+1:]
	}
	return tag
}

func childElements(parent *etree.Element, name string) []*etree.Element {
	var out []*etree.Element
	for _, child := range parent.ChildElements() {
		if localName(child.Tag) == name {
			out = append(out, child)
		}
	}
	return out
}

func childElement(parent *etree.Element, name string) *etree.Element {
	elems := childElements(parent, name)
	if len(elems) > 0 {
		return elems[0]
	}
	return nil
}

func descendantElements(parent *etree.Element, name string) []*etree.Element {
	var out []*etree.Element
	for _, child := range parent.ChildElements() {
		if localName(child.Tag) == name {
			out = append(out, child)
		}
		out = append(out, descendantElements(child, name)...)
	}
	return out
}

func firstDescendant(parent *etree.Element, name string) *etree.Element {
	elems := descendantElements(parent, name)
	if len(elems) > 0 {
		return elems[0]
	}
	return nil
}
