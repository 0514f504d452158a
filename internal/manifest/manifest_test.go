package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validManifestJSON = `
{
  "name": "demo",
  "version": "1.0.0",
  "channels": {
    "default": {
      "commands": {
        "greet": {
          "description": "says hi",
          "arguments": {
            "name": {"type": "string", "required": true}
          }
        }
      }
    }
  }
}`

func TestParseJSONValid(t *testing.T) {
	m, err := ParseJSON([]byte(validManifestJSON))
	require.NoError(t, err)
	assert.Equal(t, "demo", m.Name)

	spec, err := m.Lookup("default", "greet")
	require.NoError(t, err)
	assert.True(t, spec.Arguments["name"].Required)
}

func TestParseJSONRejectsBuiltinRedefinition(t *testing.T) {
	doc := `
{
  "name": "demo",
  "version": "1.0.0",
  "channels": {
    "default": {"commands": {"echo": {"description": "nope"}}}
  }
}`
	_, err := ParseJSON([]byte(doc))
	require.Error(t, err)
}

func TestParseJSONRejectsUnknownType(t *testing.T) {
	doc := `
{
  "name": "demo",
  "version": "1.0.0",
  "channels": {
    "default": {
      "commands": {
        "greet": {"arguments": {"name": {"type": "wat"}}}
      }
    }
  }
}`
	_, err := ParseJSON([]byte(doc))
	require.Error(t, err)
}

func TestParseYAMLValid(t *testing.T) {
	doc := `
name: demo
version: "1.0.0"
channels:
  default:
    commands:
      greet:
        arguments:
          name:
            type: string
            required: true
`
	m, err := ParseYAML([]byte(doc))
	require.NoError(t, err)
	_, err = m.Lookup("default", "greet")
	require.NoError(t, err)
}

func TestLookupMissingChannelOrCommand(t *testing.T) {
	m, err := ParseJSON([]byte(validManifestJSON))
	require.NoError(t, err)

	_, err = m.Lookup("nope", "greet")
	assert.Error(t, err)

	_, err = m.Lookup("default", "nope")
	assert.Error(t, err)
}
