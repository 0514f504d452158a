package janerr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToWireErrorCarriesCodeAndContext(t *testing.T) {
	err := NewValidationError("missing field", nil).WithContext("field", "channel")
	we := ToWireError(err)
	require.NotNil(t, we)
	assert.Equal(t, int(CodeValidationError), we.Code)
	assert.Contains(t, string(we.Data), "channel")
}

func TestToWireErrorFoldsUnknownErrors(t *testing.T) {
	we := ToWireError(&plainErr{"boom"})
	require.NotNil(t, we)
	assert.Equal(t, int(CodeInternalError), we.Code)
}

type plainErr struct{ msg string }

func (p *plainErr) Error() string { return p.msg }
