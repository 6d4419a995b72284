package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"collabHubAPI/internal/types/conversation"
	"collabHubAPI/internal/types/profile"
)

type ConversationService struct {
	db       *pgxpool.Pool
	profiles *ProfileService
	pairs    *pairGuard
}

func NewConversationService(db *pgxpool.Pool, profiles *ProfileService) *ConversationService {
	return &ConversationService{
		db:       db,
		profiles: profiles,
		pairs:    newPairGuard(),
	}
}

// ListConversations returns the viewer's threads ordered by most recent
// message, each annotated with the counterpart and a last-message preview.
// Self-threads and threads whose counterpart cannot be resolved are dropped.
func (s *ConversationService) ListConversations(ctx context.Context, clerkID string) ([]*conversation.Conversation, error) {
	userID, err := s.profiles.getUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT id, participant_1, participant_2, created_at, updated_at, last_message_at
		FROM conversations
		WHERE participant_1 = $1 OR participant_2 = $1
		ORDER BY last_message_at DESC
	`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch conversations: %w", err)
	}
	defer rows.Close()

	var raw []*conversation.Conversation
	for rows.Next() {
		c := &conversation.Conversation{}
		err := rows.Scan(&c.ID, &c.Participant1, &c.Participant2, &c.CreatedAt, &c.UpdatedAt, &c.LastMessageAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		raw = append(raw, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	conversations := []*conversation.Conversation{}
	for _, c := range raw {
		if c.IsSelfThread() {
			continue
		}

		otherID := c.OtherParticipantID(userID)
		if otherID == userID {
			continue
		}

		other, err := s.profiles.GetPublicProfile(ctx, otherID)
		if err != nil {
			log.Printf("ListConversations: failed to resolve participant %s: %v", otherID, err)
			continue
		}
		if other == nil || other.ID == userID {
			continue
		}

		c.OtherParticipant = &conversation.Participant{
			ID:        other.ID,
			Name:      other.Name,
			AvatarURL: other.AvatarURL,
		}

		preview, err := s.lastMessage(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		c.LastMessage = preview

		conversations = append(conversations, c)
	}

	return conversations, nil
}

func (s *ConversationService) lastMessage(ctx context.Context, conversationID uuid.UUID) (*conversation.MessagePreview, error) {
	query := `
		SELECT content, sender_id, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	p := &conversation.MessagePreview{}
	err := s.db.QueryRow(ctx, query, conversationID).Scan(&p.Content, &p.SenderID, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch last message: %w", err)
	}
	return p, nil
}

// CreateOrGetConversation returns the id of the thread between the viewer and
// the other user, creating one if none exists. Sequential calls with the same
// pair return the same id; the per-pair lock keeps concurrent callers in this
// process from double-inserting.
func (s *ConversationService) CreateOrGetConversation(ctx context.Context, clerkID string, otherID uuid.UUID) (uuid.UUID, error) {
	userID, err := s.profiles.getUserID(ctx, clerkID)
	if err != nil {
		return uuid.Nil, err
	}

	unlock := s.pairs.lock(userID, otherID)
	defer unlock()

	var id uuid.UUID
	lookupQuery := `
		SELECT id FROM conversations
		WHERE (participant_1 = $1 AND participant_2 = $2)
		   OR (participant_1 = $2 AND participant_2 = $1)
		LIMIT 1
	`
	err = s.db.QueryRow(ctx, lookupQuery, userID, otherID).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, fmt.Errorf("failed to look up conversation: %w", err)
	}

	insertQuery := `
		INSERT INTO conversations (participant_1, participant_2, created_at, updated_at, last_message_at)
		VALUES ($1, $2, NOW(), NOW(), NOW())
		RETURNING id
	`
	err = s.db.QueryRow(ctx, insertQuery, userID, otherID).Scan(&id)
	if err != nil {
		log.Printf("CreateOrGetConversation: failed to insert conversation: %v", err)
		return uuid.Nil, fmt.Errorf("failed to create conversation")
	}

	return id, nil
}

// ListMessages returns the full thread in ascending time order with sender
// snapshots attached. No pagination; threads are loaded whole.
func (s *ConversationService) ListMessages(ctx context.Context, conversationID uuid.UUID) ([]*conversation.Message, error) {
	query := `
		SELECT id, conversation_id, sender_id, content, is_read, created_at, updated_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC
	`

	rows, err := s.db.Query(ctx, query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}
	defer rows.Close()

	var messages []*conversation.Message
	for rows.Next() {
		m := &conversation.Message{}
		err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Content, &m.IsRead, &m.CreatedAt, &m.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	if messages == nil {
		messages = []*conversation.Message{}
	}

	// One snapshot lookup per distinct sender, not per message.
	snapshots := make(map[uuid.UUID]*profile.Snapshot)
	for _, m := range messages {
		snap, ok := snapshots[m.SenderID]
		if !ok {
			snap = s.profiles.Snapshot(ctx, m.SenderID)
			snapshots[m.SenderID] = snap
		}
		m.Sender = snap
	}

	return messages, nil
}

// SendMessage appends a message to the thread. Whitespace-only content is
// rejected before any write. The sender must be a participant.
func (s *ConversationService) SendMessage(ctx context.Context, clerkID string, conversationID uuid.UUID, content string) error {
	userID, err := s.profiles.getUserID(ctx, clerkID)
	if err != nil {
		return err
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return fmt.Errorf("message content is empty")
	}

	var p1, p2 uuid.UUID
	err = s.db.QueryRow(ctx,
		"SELECT participant_1, participant_2 FROM conversations WHERE id = $1",
		conversationID,
	).Scan(&p1, &p2)
	if err != nil {
		return fmt.Errorf("conversation not found: %w", err)
	}
	if userID != p1 && userID != p2 {
		return fmt.Errorf("not a participant of this conversation")
	}

	insertQuery := `
		INSERT INTO messages (conversation_id, sender_id, content, is_read, created_at, updated_at)
		VALUES ($1, $2, $3, false, NOW(), NOW())
	`
	if _, err := s.db.Exec(ctx, insertQuery, conversationID, userID, content); err != nil {
		log.Printf("SendMessage: failed to insert message: %v", err)
		return fmt.Errorf("failed to send message")
	}

	bumpQuery := `
		UPDATE conversations
		SET last_message_at = NOW(), updated_at = NOW()
		WHERE id = $1
	`
	if _, err := s.db.Exec(ctx, bumpQuery, conversationID); err != nil {
		log.Printf("SendMessage: failed to bump last_message_at for %s: %v", conversationID, err)
	}

	return nil
}

// MarkMessageAsRead flips the read flag, but never for the viewer's own
// messages: the sender filter sits in the statement itself. Marking an
// already-read or own message is a no-op, not an error.
func (s *ConversationService) MarkMessageAsRead(ctx context.Context, clerkID string, messageID uuid.UUID) error {
	userID, err := s.profiles.getUserID(ctx, clerkID)
	if err != nil {
		return err
	}

	query := `
		UPDATE messages
		SET is_read = true, updated_at = NOW()
		WHERE id = $1 AND sender_id != $2 AND is_read = false
	`
	if _, err := s.db.Exec(ctx, query, messageID, userID); err != nil {
		return fmt.Errorf("failed to mark message as read: %w", err)
	}

	return nil
}
