package validate

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jowharshamshiri/janus-go/internal/manifest"
)

func rawArgs(t *testing.T, kv map[string]any) map[string]json.RawMessage {
	t.Helper()
	out := make(map[string]json.RawMessage, len(kv))
	for k, v := range kv {
		b, err := json.Marshal(v)
		require.NoError(t, err)
		out[k] = b
	}
	return out
}

func TestValidateRequiredMissing(t *testing.T) {
	spec := &manifest.CommandSpec{Arguments: map[string]manifest.ArgumentSpec{
		"name": {Type: manifest.TypeString, Required: true},
	}}
	v := New(nil)
	err := v.Validate(spec, rawArgs(t, map[string]any{}))
	require.Error(t, err)
}

func TestValidateUnknownArgumentRejected(t *testing.T) {
	spec := &manifest.CommandSpec{Arguments: map[string]manifest.ArgumentSpec{
		"name": {Type: manifest.TypeString},
	}}
	v := New(nil)
	err := v.Validate(spec, rawArgs(t, map[string]any{"extra": "x"}))
	require.Error(t, err)
}

func TestValidateTypeMismatch(t *testing.T) {
	spec := &manifest.CommandSpec{Arguments: map[string]manifest.ArgumentSpec{
		"count": {Type: manifest.TypeInteger},
	}}
	v := New(nil)
	err := v.Validate(spec, rawArgs(t, map[string]any{"count": "not a number"}))
	require.Error(t, err)
}

func TestValidateIntegerRejectsFraction(t *testing.T) {
	spec := &manifest.CommandSpec{Arguments: map[string]manifest.ArgumentSpec{
		"count": {Type: manifest.TypeInteger},
	}}
	v := New(nil)
	err := v.Validate(spec, rawArgs(t, map[string]any{"count": 1.5}))
	require.Error(t, err)
}

func TestValidatePatternMinMaxLength(t *testing.T) {
	minLen, maxLen := 2, 4
	spec := &manifest.CommandSpec{Arguments: map[string]manifest.ArgumentSpec{
		"code": {Type: manifest.TypeString, Pattern: `[a-z]+`, MinLength: &minLen, MaxLength: &maxLen},
	}}
	v := New(nil)
	assert.NoError(t, v.Validate(spec, rawArgs(t, map[string]any{"code": "abc"})))
	assert.Error(t, v.Validate(spec, rawArgs(t, map[string]any{"code": "A"})))
	assert.Error(t, v.Validate(spec, rawArgs(t, map[string]any{"code": "abcdefg"})))
}

func TestValidateMinMaxNumeric(t *testing.T) {
	min, max := 1.0, 10.0
	spec := &manifest.CommandSpec{Arguments: map[string]manifest.ArgumentSpec{
		"n": {Type: manifest.TypeNumber, Minimum: &min, Maximum: &max},
	}}
	v := New(nil)
	assert.NoError(t, v.Validate(spec, rawArgs(t, map[string]any{"n": 5})))
	assert.Error(t, v.Validate(spec, rawArgs(t, map[string]any{"n": 0})))
	assert.Error(t, v.Validate(spec, rawArgs(t, map[string]any{"n": 11})))
}

func TestValidateEnum(t *testing.T) {
	spec := &manifest.CommandSpec{Arguments: map[string]manifest.ArgumentSpec{
		"color": {Type: manifest.TypeString, Enum: []any{"red", "green", "blue"}},
	}}
	v := New(nil)
	assert.NoError(t, v.Validate(spec, rawArgs(t, map[string]any{"color": "green"})))
	assert.Error(t, v.Validate(spec, rawArgs(t, map[string]any{"color": "purple"})))
}

func TestValidateArrayItems(t *testing.T) {
	spec := &manifest.CommandSpec{Arguments: map[string]manifest.ArgumentSpec{
		"ids": {Type: manifest.TypeArray, Items: &manifest.ArgumentSpec{Type: manifest.TypeInteger}},
	}}
	v := New(nil)
	assert.NoError(t, v.Validate(spec, rawArgs(t, map[string]any{"ids": []any{1, 2, 3}})))
	assert.Error(t, v.Validate(spec, rawArgs(t, map[string]any{"ids": []any{1, "x", 3}})))
}

func TestValidateRejectsNulByte(t *testing.T) {
	spec := &manifest.CommandSpec{Arguments: map[string]manifest.ArgumentSpec{
		"name": {Type: manifest.TypeString},
	}}
	v := New(nil)
	err := v.Validate(spec, rawArgs(t, map[string]any{"name": "bad\x00value"}))
	require.Error(t, err)
}

// TestValidationEquivalenceAcrossIndependentValidators checks that two
// independently constructed Validators
// (standing in for the client's local copy and the server's authoritative
// one) must agree on every (command, args) pair checked against the same
// Manifest entry.
func TestValidationEquivalenceAcrossIndependentValidators(t *testing.T) {
	minLen := 1
	spec := &manifest.CommandSpec{Arguments: map[string]manifest.ArgumentSpec{
		"name":  {Type: manifest.TypeString, Required: true, MinLength: &minLen},
		"count": {Type: manifest.TypeInteger},
		"color": {Type: manifest.TypeString, Enum: []any{"red", "green", "blue"}},
	}}

	cases := []map[string]any{
		{"name": "ada", "count": 3, "color": "red"},
		{"count": 3, "color": "red"},               // missing required name
		{"name": "", "count": 3, "color": "red"},   // below min_length
		{"name": "ada", "count": 3.5, "color": "red"},
		{"name": "ada", "count": 3, "color": "purple"},
		{"name": "ada", "count": 3, "color": "red", "extra": true},
	}

	clientSide := New(nil)
	serverSide := New(nil)

	for i, args := range cases {
		encoded := rawArgs(t, args)
		clientErr := clientSide.Validate(spec, encoded)
		serverErr := serverSide.Validate(spec, encoded)
		assert.Equal(t, clientErr == nil, serverErr == nil, "case %d: client/server validation verdicts diverged", i)
	}
}
