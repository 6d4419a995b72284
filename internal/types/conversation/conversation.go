package conversation

import (
	"time"

	"github.com/google/uuid"

	"collabHubAPI/internal/types/profile"
)

type Conversation struct {
	ID            uuid.UUID `json:"id"`
	Participant1  uuid.UUID `json:"participant1"`
	Participant2  uuid.UUID `json:"participant2"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
	LastMessageAt time.Time `json:"lastMessageAt"`

	OtherParticipant *Participant    `json:"otherParticipant,omitempty"`
	LastMessage      *MessagePreview `json:"lastMessage,omitempty"`
}

// Participant is the resolved counterpart of a thread relative to the viewer.
type Participant struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	AvatarURL string    `json:"avatarUrl,omitempty"`
}

type MessagePreview struct {
	Content   string    `json:"content"`
	SenderID  uuid.UUID `json:"senderId"`
	CreatedAt time.Time `json:"createdAt"`
}

type Message struct {
	ID             uuid.UUID         `json:"id"`
	ConversationID uuid.UUID         `json:"conversationId"`
	SenderID       uuid.UUID         `json:"senderId"`
	Content        string            `json:"content"`
	IsRead         bool              `json:"isRead"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
	Sender         *profile.Snapshot `json:"sender,omitempty"`
}

type SendMessageRequest struct {
	Content string `json:"content" validate:"required"`
}

// IsSelfThread reports whether both participants are the same user. Such rows
// can appear from upsert races and must never be listed.
func (c *Conversation) IsSelfThread() bool {
	return c.Participant1 == c.Participant2
}

// OtherParticipantID returns the participant that is not the viewer.
func (c *Conversation) OtherParticipantID(viewerID uuid.UUID) uuid.UUID {
	if c.Participant1 == viewerID {
		return c.Participant2
	}
	return c.Participant1
}

// Preview picks the newest message of an ascending-ordered thread, or nil for
// an empty thread.
func Preview(messages []*Message) *MessagePreview {
	if len(messages) == 0 {
		return nil
	}
	last := messages[len(messages)-1]
	return &MessagePreview{
		Content:   last.Content,
		SenderID:  last.SenderID,
		CreatedAt: last.CreatedAt,
	}
}
