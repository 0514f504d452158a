package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const responseManifestJSON = `
{
  "name": "demo",
  "version": "1.0.0",
  "channels": {
    "default": {
      "commands": {
        "greet": {
          "response": {"type": "object", "required": ["message"], "properties": {"message": {"type": "string"}}}
        }
      }
    }
  }
}`

func TestResponseValidatorAcceptsConformingResult(t *testing.T) {
	m, err := ParseJSON([]byte(responseManifestJSON))
	require.NoError(t, err)

	rv := NewResponseValidator(m, nil)
	err = rv.Check("default", "greet", []byte(`{"message":"hi"}`))
	assert.NoError(t, err)
}

func TestResponseValidatorRejectsNonConformingResult(t *testing.T) {
	m, err := ParseJSON([]byte(responseManifestJSON))
	require.NoError(t, err)

	rv := NewResponseValidator(m, nil)
	err = rv.Check("default", "greet", []byte(`{}`))
	assert.Error(t, err)
}

func TestResponseValidatorPassesWhenNoSchemaDeclared(t *testing.T) {
	m, err := ParseJSON([]byte(validManifestJSON))
	require.NoError(t, err)

	rv := NewResponseValidator(m, nil)
	err = rv.Check("default", "greet", []byte(`{"anything":1}`))
	assert.NoError(t, err)
}
