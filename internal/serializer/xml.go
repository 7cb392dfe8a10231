package serializer

import (
	"encoding/xml"
	"fmt"
	"sort"
	"strings"

	"apifuzz/internal/types"
)

// encodeXML renders a generated payload as an XML document, using the
// operation's payload schemas for element naming: the schema-level "xml"
// keyword picks the root tag and marks attribute properties, with the raw
// schema's title as a fallback.
func encodeXML(value interface{}, raw, resolved types.Schema) (string, error) {
	var b strings.Builder
	if err := writeElement(&b, rootTag(raw, resolved), value, resolved); err != nil {
		return "", err
	}
	return b.String(), nil
}

func rootTag(raw, resolved types.Schema) string {
	if name := xmlName(resolved); name != "" {
		return name
	}
	if raw != nil {
		if title, ok := raw["title"].(string); ok && title != "" {
			return sanitizeTag(title)
		}
	}
	return "data"
}

func xmlName(schema types.Schema) string {
	if schema == nil {
		return ""
	}
	meta, ok := schema["xml"].(map[string]interface{})
	if !ok {
		return ""
	}
	name, _ := meta["name"].(string)
	return sanitizeTag(name)
}

func isXMLAttribute(schema types.Schema) bool {
	if schema == nil {
		return false
	}
	meta, ok := schema["xml"].(map[string]interface{})
	if !ok {
		return false
	}
	attr, _ := meta["attribute"].(bool)
	return attr
}

func sanitizeTag(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '.':
			return r
		}
		return '_'
	}, name)
}

func writeElement(b *strings.Builder, tag string, value interface{}, schema types.Schema) error {
	switch v := value.(type) {
	case map[string]interface{}:
		return writeObject(b, tag, v, schema)
	case []interface{}:
		// Arrays repeat the element tag per item, matching how unwrapped XML
		// arrays are declared in OpenAPI.
		itemSchema := childSchema(schema, "items")
		for _, item := range v {
			if err := writeElement(b, tag, item, itemSchema); err != nil {
				return err
			}
		}
		return nil
	case nil:
		fmt.Fprintf(b, "<%s/>", tag)
		return nil
	default:
		b.WriteString("<" + tag + ">")
		if err := xml.EscapeText(b, []byte(fmt.Sprint(v))); err != nil {
			return fmt.Errorf("failed to escape XML text: %w", err)
		}
		b.WriteString("</" + tag + ">")
		return nil
	}
}

func writeObject(b *strings.Builder, tag string, value map[string]interface{}, schema types.Schema) error {
	names := make([]string, 0, len(value))
	for name := range value {
		names = append(names, name)
	}
	sort.Strings(names)

	b.WriteString("<" + tag)
	var children []string
	for _, name := range names {
		prop := propertySchema(schema, name)
		if !isXMLAttribute(prop) {
			children = append(children, name)
			continue
		}
		b.WriteString(" " + sanitizeTag(name) + `="`)
		if err := xml.EscapeText(b, []byte(fmt.Sprint(value[name]))); err != nil {
			return fmt.Errorf("failed to escape XML attribute: %w", err)
		}
		b.WriteString(`"`)
	}
	if len(children) == 0 {
		b.WriteString("/>")
		return nil
	}
	b.WriteString(">")
	for _, name := range children {
		prop := propertySchema(schema, name)
		childTag := xmlName(prop)
		if childTag == "" {
			childTag = sanitizeTag(name)
		}
		if err := writeElement(b, childTag, value[name], prop); err != nil {
			return err
		}
	}
	b.WriteString("</" + tag + ">")
	return nil
}

func propertySchema(schema types.Schema, name string) types.Schema {
	if schema == nil {
		return nil
	}
	props, ok := schema["properties"].(map[string]interface{})
	if !ok {
		return nil
	}
	prop, _ := props[name].(map[string]interface{})
	return prop
}

func childSchema(schema types.Schema, key string) types.Schema {
	if schema == nil {
		return nil
	}
	child, _ := schema[key].(map[string]interface{})
	return child
}
