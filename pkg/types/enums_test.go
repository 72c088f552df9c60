package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPeerState_String(t *testing.T) {
	assert.Equal(t, "NOT_CONNECTED", PeerStateNotConnected.String())
	assert.Equal(t, "CONNECTED", PeerStateConnected.String())
	assert.Equal(t, "DISCONNECTED", PeerStateDisconnected.String())
	assert.Equal(t, "UNKNOWN", PeerState(9).String())
}

func TestPeerEvent_Names(t *testing.T) {
	seen := make(map[string]bool)
	for _, e := range AllPeerEvents() {
		name := e.String()
		assert.NotEqual(t, "unknown", name, "event %d", e)
		assert.False(t, seen[name], "duplicate name %q", name)
		seen[name] = true
	}
	assert.Len(t, seen, 9)
	assert.Equal(t, "unknown", PeerEvent(-1).String())
}
