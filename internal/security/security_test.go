package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSocketPathGuardValidate(t *testing.T) {
	g := NewSocketPathGuard(nil)

	assert.NoError(t, g.Validate("/tmp/janus.sock"))
	assert.NoError(t, g.Validate("/var/run/janus.sock"))
	assert.Error(t, g.Validate("relative.sock"))
	assert.Error(t, g.Validate("/etc/janus.sock"))
	assert.Error(t, g.Validate(""))
}

func TestSocketPathGuardRejectsTooLong(t *testing.T) {
	g := NewSocketPathGuard(nil)
	longPath := "/tmp/" + strings.Repeat("a", PathMax)
	assert.Error(t, g.Validate(longPath))
}

func TestPayloadGuardCheckString(t *testing.T) {
	g := DefaultPayloadGuard()
	assert.NoError(t, g.CheckString("hello\tworld\n"))
	assert.Error(t, g.CheckString("bad\x00value"))
	assert.Error(t, g.CheckString("bad\x01value"))
}

func TestPayloadGuardCheckSize(t *testing.T) {
	g := &PayloadGuard{MaxPayloadSize: 10}
	assert.NoError(t, g.CheckSize([]byte("1234567890")))
	assert.Error(t, g.CheckSize([]byte("12345678901")))
}

func TestPayloadGuardCheckDepth(t *testing.T) {
	g := &PayloadGuard{MaxDepth: 2}
	assert.NoError(t, g.CheckDepth(2))
	assert.Error(t, g.CheckDepth(3))
}

func TestPeerLimiterAcquireRelease(t *testing.T) {
	l := NewPeerLimiter(2)
	require := assert.New(t)
	require.NoError(l.Acquire("peer-a"))
	require.NoError(l.Acquire("peer-a"))
	require.Error(l.Acquire("peer-a"))

	l.Release("peer-a")
	require.NoError(l.Acquire("peer-a"))
}
