package schema_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/reactiv/flowgraph/internal/schema"
)

const personSchema = `{
	"type": "object",
	"properties": {
		"name": {"type": "string"},
		"age": {"type": "integer"}
	},
	"required": ["name", "age"]
}`

func TestValidateAcceptsConformingInstance(t *testing.T) {
	desc, err := schema.Compile("person", []byte(personSchema))
	require.NoError(t, err)

	err = desc.Validate(map[string]any{"name": "Alice", "age": 30.0})
	require.NoError(t, err)
}

func TestValidateRejectsMissingField(t *testing.T) {
	desc, err := schema.Compile("person", []byte(personSchema))
	require.NoError(t, err)

	err = desc.Validate(map[string]any{"name": "Alice"})
	require.Error(t, err)
}

func TestHashIsStable(t *testing.T) {
	d1, err := schema.Compile("person", []byte(personSchema))
	require.NoError(t, err)
	d2, err := schema.Compile("person", []byte(`{
		"required": ["name", "age"],
		"type": "object",
		"properties": {
			"age": {"type": "integer"},
			"name": {"type": "string"}
		}
	}`))
	require.NoError(t, err)

	require.Equal(t, d1.Hash(), d2.Hash())
}
