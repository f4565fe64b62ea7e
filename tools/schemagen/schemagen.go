// Package main generates JSON schemas for the documents printed by
// `rbtree check --format json` and the tree statistics.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"github.com/NWuSunset/Red-Black-Tree/pkg/rbtree"
)

const draft07 = "http://json-schema.org/draft-07/schema#"

// Schema represents a JSON Schema.
type Schema struct {
	Schema      string             `json:"$schema,omitempty"`
	Title       string             `json:"title,omitempty"`
	Description string             `json:"description,omitempty"`
	Type        string             `json:"type,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Required    []string           `json:"required,omitempty"`
	Ref         string             `json:"$ref,omitempty"`
	Definitions map[string]*Schema `json:"definitions,omitempty"`
}

// document is one generated schema file.
type document struct {
	name        string
	title       string
	description string
	value       any
}

var documents = []document{
	{"report", "Validation Report", "Output of rbtree check --format json", rbtree.ValidationReport{}},
	{"stats", "Tree Statistics", "Summary printed by the shell stats command", rbtree.Stats{}},
}

func main() {
	outputDir := flag.String("o", "docs/schemas", "Output directory for schemas")
	flag.Parse()

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
		os.Exit(1)
	}

	for _, doc := range documents {
		if err := writeSchema(*outputDir, doc.name, generateSchema(doc)); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing schema for %s: %v\n", doc.name, err)
			os.Exit(1)
		}

		fmt.Printf("Generated schema for %s\n", doc.name)
	}
}

func generateSchema(doc document) *Schema {
	t := reflect.TypeOf(doc.value)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	defs := make(map[string]*Schema)
	props, required := structToProperties(t, defs)

	schema := &Schema{
		Schema:      draft07,
		Title:       doc.title,
		Description: doc.description,
		Type:        "object",
		Properties:  props,
		Required:    required,
	}

	if len(defs) > 0 {
		schema.Definitions = defs
	}

	return schema
}

func structToProperties(t reflect.Type, defs map[string]*Schema) (map[string]*Schema, []string) {
	props := make(map[string]*Schema)

	var required []string

	for i := range t.NumField() {
		field := t.Field(i)
		jsonTag := field.Tag.Get("json")

		if jsonTag == "-" || jsonTag == "" {
			continue
		}

		jsonName, opts, _ := strings.Cut(jsonTag, ",")

		props[jsonName] = typeToSchema(field.Type, defs)

		if opts != "omitempty" {
			required = append(required, jsonName)
		}
	}

	sort.Strings(required)

	return props, required
}

func typeToSchema(t reflect.Type, defs map[string]*Schema) *Schema {
	switch t.Kind() {
	case reflect.String:
		return &Schema{Type: "string"}

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &Schema{Type: "integer"}

	case reflect.Float32, reflect.Float64:
		return &Schema{Type: "number"}

	case reflect.Bool:
		return &Schema{Type: "boolean"}

	case reflect.Slice:
		return &Schema{Type: "array", Items: typeToSchema(t.Elem(), defs)}

	case reflect.Struct:
		defName := t.Name()
		if defName == "" {
			props, required := structToProperties(t, defs)

			return &Schema{Type: "object", Properties: props, Required: required}
		}

		if _, exists := defs[defName]; !exists {
			props, required := structToProperties(t, defs)
			defs[defName] = &Schema{Type: "object", Properties: props, Required: required}
		}

		return &Schema{Ref: "#/definitions/" + defName}

	case reflect.Ptr:
		return typeToSchema(t.Elem(), defs)

	default:
		return &Schema{Type: "object"}
	}
}

func writeSchema(dir, name string, schema *Schema) error {
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}

	return os.WriteFile(filepath.Join(dir, name+".json"), append(data, '\n'), 0o644) //nolint:gosec // schemas are public docs.
}
