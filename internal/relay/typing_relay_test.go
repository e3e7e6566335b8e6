package relay

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypingRelay_ForwardsToOnlineRecipient(t *testing.T) {
	from := uuid.New()
	to := uuid.New()
	conn := &stubConn{open: true}
	relay := NewTypingRelay(stubLookup{to: conn})

	relay.RelayTyping(from, to, map[string]json.RawMessage{"isTyping": json.RawMessage(`true`)})

	require.Len(t, conn.frames, 1)
	var frame map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(conn.frames[0], &frame))
	assert.Equal(t, json.RawMessage(`"typing"`), frame["type"])
	assert.Equal(t, json.RawMessage(`true`), frame["isTyping"])

	var sender string
	require.NoError(t, json.Unmarshal(frame["fromUserId"], &sender))
	assert.Equal(t, from.String(), sender)
}

func TestTypingRelay_SessionIdentityOverridesPayload(t *testing.T) {
	from := uuid.New()
	to := uuid.New()
	conn := &stubConn{open: true}
	relay := NewTypingRelay(stubLookup{to: conn})

	// A spoofed sender id in the payload must be replaced.
	relay.RelayTyping(from, to, map[string]json.RawMessage{
		"fromUserId": json.RawMessage(`"` + uuid.NewString() + `"`),
	})

	require.Len(t, conn.frames, 1)
	var frame map[string]string
	require.NoError(t, json.Unmarshal(conn.frames[0], &frame))
	assert.Equal(t, from.String(), frame["fromUserId"])
}

func TestTypingRelay_DropsWhenOffline(t *testing.T) {
	relay := NewTypingRelay(stubLookup{})
	relay.RelayTyping(uuid.New(), uuid.New(), nil)
}

func TestTypingRelay_DropsWhenConnectionClosed(t *testing.T) {
	to := uuid.New()
	conn := &stubConn{open: false}
	relay := NewTypingRelay(stubLookup{to: conn})

	relay.RelayTyping(uuid.New(), to, nil)
	assert.Empty(t, conn.frames)
}
