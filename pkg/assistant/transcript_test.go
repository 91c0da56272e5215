package assistant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranscriptAppendOrder(t *testing.T) {
	l := NewTranscriptLog()

	l.Append(RoleUser, "where is my order?", false)
	l.Append(RoleAssistant, "it shipped yesterday", true)
	l.Append(RoleUser, "thanks", false)

	msgs := l.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, RoleUser, msgs[0].Role)
	assert.Equal(t, RoleAssistant, msgs[1].Role)
	assert.True(t, msgs[1].UsedTool)
	assert.Equal(t, "thanks", msgs[2].Text)
}

func TestTranscriptSeqMonotonic(t *testing.T) {
	l := NewTranscriptLog()

	// Rapid appends within the same millisecond must still order.
	seen := make(map[string]bool)
	var lastSeq int64
	for i := 0; i < 100; i++ {
		msg := l.Append(RoleUser, "x", false)
		assert.Greater(t, msg.Seq, lastSeq)
		lastSeq = msg.Seq

		require.False(t, seen[msg.ID], "duplicate message ID %s", msg.ID)
		seen[msg.ID] = true
	}
}

func TestTranscriptSnapshotIsolated(t *testing.T) {
	l := NewTranscriptLog()
	l.Append(RoleUser, "hello", false)

	msgs := l.Messages()
	msgs[0].Text = "mutated"

	assert.Equal(t, "hello", l.Messages()[0].Text)
	assert.Equal(t, 1, l.Len())
}
