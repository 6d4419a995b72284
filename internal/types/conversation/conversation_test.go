package conversation

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestIsSelfThread(t *testing.T) {
	u := uuid.New()

	assert.True(t, (&Conversation{Participant1: u, Participant2: u}).IsSelfThread())
	assert.False(t, (&Conversation{Participant1: u, Participant2: uuid.New()}).IsSelfThread())
}

func TestOtherParticipantID(t *testing.T) {
	a := uuid.New()
	b := uuid.New()
	c := &Conversation{Participant1: a, Participant2: b}

	assert.Equal(t, b, c.OtherParticipantID(a))
	assert.Equal(t, a, c.OtherParticipantID(b))
}

func TestPreview(t *testing.T) {
	t.Run("empty thread has no preview", func(t *testing.T) {
		assert.Nil(t, Preview(nil))
		assert.Nil(t, Preview([]*Message{}))
	})

	t.Run("preview is the newest message", func(t *testing.T) {
		sender := uuid.New()
		now := time.Now()
		messages := []*Message{
			{Content: "first", SenderID: sender, CreatedAt: now.Add(-2 * time.Minute)},
			{Content: "second", SenderID: sender, CreatedAt: now.Add(-time.Minute)},
			{Content: "third", SenderID: sender, CreatedAt: now},
		}

		p := Preview(messages)
		assert.NotNil(t, p)
		assert.Equal(t, "third", p.Content)
		assert.Equal(t, sender, p.SenderID)
		assert.Equal(t, now, p.CreatedAt)
	})
}
