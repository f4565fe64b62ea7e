package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xeipuuv/gojsonschema"

	"github.com/NWuSunset/Red-Black-Tree/internal/render"
	"github.com/NWuSunset/Red-Black-Tree/pkg/rbtree"
)

func TestGenerateSchema_Report(t *testing.T) {
	t.Parallel()

	schema := generateSchema(documents[0])

	assert.Equal(t, "object", schema.Type)
	assert.Equal(t,
		[]string{"black_height", "height", "nodes", "root_color", "valid", "violations"}, schema.Required)
	assert.Equal(t, "array", schema.Properties["violations"].Type)
	assert.Equal(t, "#/definitions/Violation", schema.Properties["violations"].Items.Ref)
	require.Contains(t, schema.Definitions, "Violation")
	assert.Equal(t, "integer", schema.Definitions["Violation"].Properties["key"].Type)
}

func TestGenerateSchema_Stats(t *testing.T) {
	t.Parallel()

	schema := generateSchema(documents[1])

	assert.Len(t, schema.Properties, 9)
	assert.Equal(t, "boolean", schema.Properties["hibernated"].Type)
	assert.Equal(t, "integer", schema.Properties["rotations"].Type)
	assert.Empty(t, schema.Definitions)
}

// The report printed by the CLI must validate against the generated schema.
func TestGenerateSchema_ValidatesReport(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, writeSchema(dir, "report", generateSchema(documents[0])))

	schemaBytes, err := os.ReadFile(filepath.Join(dir, "report.json"))
	require.NoError(t, err)

	tree := rbtree.New()
	for _, key := range []int{44, 17, 88, 8, 32} {
		require.NoError(t, tree.Insert(key))
	}

	report, err := tree.Validate()
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, render.EncodeReport(&out, report, render.FormatJSON))

	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(schemaBytes), gojsonschema.NewBytesLoader(out.Bytes()))
	require.NoError(t, err)
	assert.True(t, result.Valid(), "%v", result.Errors())

	broken := []byte(`{"valid": "yes"}`)

	result, err = gojsonschema.Validate(gojsonschema.NewBytesLoader(schemaBytes), gojsonschema.NewBytesLoader(broken))
	require.NoError(t, err)
	assert.False(t, result.Valid())
}
