package services

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"collabHubAPI/internal/types/connection"
	"collabHubAPI/internal/types/notification"
)

type ConnectionService struct {
	db            *pgxpool.Pool
	profiles      *ProfileService
	notifications *NotificationService
	pairs         *pairGuard
}

func NewConnectionService(db *pgxpool.Pool, profiles *ProfileService, notifications *NotificationService) *ConnectionService {
	return &ConnectionService{
		db:            db,
		profiles:      profiles,
		notifications: notifications,
		pairs:         newPairGuard(),
	}
}

// ListConnections returns every connection row the viewer is part of, newest
// first, each annotated with both parties' profile snapshots. Both sides are
// resolved even though a caller typically needs only the counterpart; the
// redundant lookup is tolerated.
func (s *ConnectionService) ListConnections(ctx context.Context, clerkID string) ([]*connection.Connection, error) {
	userID, err := s.profiles.getUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	conns, err := s.fetchConnections(ctx, userID)
	if err != nil {
		return nil, err
	}

	for _, c := range conns {
		c.RequesterProfile = s.profiles.Snapshot(ctx, c.RequesterID)
		c.AddresseeProfile = s.profiles.Snapshot(ctx, c.AddresseeID)
	}

	return conns, nil
}

func (s *ConnectionService) fetchConnections(ctx context.Context, userID uuid.UUID) ([]*connection.Connection, error) {
	query := `
		SELECT id, requester_id, addressee_id, status, created_at, updated_at
		FROM connections
		WHERE requester_id = $1 OR addressee_id = $1
		ORDER BY created_at DESC
	`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch connections: %w", err)
	}
	defer rows.Close()

	var conns []*connection.Connection
	for rows.Next() {
		c := &connection.Connection{}
		err := rows.Scan(&c.ID, &c.RequesterID, &c.AddresseeID, &c.Status, &c.CreatedAt, &c.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan connection: %w", err)
		}
		conns = append(conns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	if conns == nil {
		conns = []*connection.Connection{}
	}
	return conns, nil
}

// ErrConnectionExists is returned when any row already links the pair.
var ErrConnectionExists = fmt.Errorf("connection request already exists")

// SendConnectionRequest creates a pending connection from the viewer to the
// addressee and notifies the addressee. The existence check and insert are
// serialized per pair in-process; a concurrent request from another instance
// can still slip through, which the unique-constraint question in the schema
// leaves to the database owner.
func (s *ConnectionService) SendConnectionRequest(ctx context.Context, clerkID string, addresseeID uuid.UUID) error {
	userID, err := s.profiles.getUserID(ctx, clerkID)
	if err != nil {
		return err
	}

	if userID == addresseeID {
		return fmt.Errorf("cannot send a connection request to yourself")
	}

	unlock := s.pairs.lock(userID, addresseeID)
	defer unlock()

	var exists bool
	checkQuery := `
		SELECT EXISTS(
			SELECT 1 FROM connections
			WHERE (requester_id = $1 AND addressee_id = $2)
			   OR (requester_id = $2 AND addressee_id = $1)
		)
	`
	err = s.db.QueryRow(ctx, checkQuery, userID, addresseeID).Scan(&exists)
	if err != nil {
		log.Printf("SendConnectionRequest: failed to check existing connection: %v", err)
		return fmt.Errorf("failed to check existing connection")
	}
	if exists {
		return ErrConnectionExists
	}

	insertQuery := `
		INSERT INTO connections (requester_id, addressee_id, status, created_at, updated_at)
		VALUES ($1, $2, 'pending', NOW(), NOW())
	`
	if _, err := s.db.Exec(ctx, insertQuery, userID, addresseeID); err != nil {
		log.Printf("SendConnectionRequest: failed to insert connection: %v", err)
		return fmt.Errorf("failed to create connection request")
	}

	requesterName := clerkID
	if snap := s.profiles.Snapshot(ctx, userID); snap != nil {
		requesterName = snap.Name
	}

	// The notification is a second independent write; a crash in between
	// leaves a pending request with no notification sent.
	_, err = s.notifications.CreateNotification(ctx, &notification.CreateNotificationRequest{
		UserID:  addresseeID,
		Type:    notification.TypeConnectionRequest,
		Message: fmt.Sprintf("%s sent you a connection request", requesterName),
		Link:    fmt.Sprintf("/user/%s", userID),
	})
	if err != nil {
		log.Printf("SendConnectionRequest: failed to create notification: %v", err)
	}

	return nil
}

// UpdateConnectionStatus transitions the row's status. The caller is trusted
// to be a party of the connection; which party may perform which transition
// is enforced by database policy, not here.
func (s *ConnectionService) UpdateConnectionStatus(ctx context.Context, clerkID string, connectionID uuid.UUID, status connection.Status) error {
	userID, err := s.profiles.getUserID(ctx, clerkID)
	if err != nil {
		return err
	}

	switch status {
	case connection.StatusAccepted, connection.StatusDeclined, connection.StatusBlocked:
	default:
		return fmt.Errorf("invalid status %q", status)
	}

	query := `
		UPDATE connections
		SET status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING requester_id, addressee_id
	`

	var requesterID, addresseeID uuid.UUID
	err = s.db.QueryRow(ctx, query, connectionID, status).Scan(&requesterID, &addresseeID)
	if err != nil {
		log.Printf("UpdateConnectionStatus: failed to update connection %s: %v", connectionID, err)
		return fmt.Errorf("failed to update connection status")
	}

	if status == connection.StatusAccepted {
		accepterName := clerkID
		if snap := s.profiles.Snapshot(ctx, userID); snap != nil {
			accepterName = snap.Name
		}

		_, err = s.notifications.CreateNotification(ctx, &notification.CreateNotificationRequest{
			UserID:  requesterID,
			Type:    notification.TypeConnectionAccepted,
			Message: fmt.Sprintf("%s accepted your connection request", accepterName),
			Link:    fmt.Sprintf("/user/%s", userID),
		})
		if err != nil {
			log.Printf("UpdateConnectionStatus: failed to create notification: %v", err)
		}
	}

	return nil
}

// GetConnectionStatus derives the viewer's relationship state toward another
// user from a fresh fetch of the viewer's rows.
func (s *ConnectionService) GetConnectionStatus(ctx context.Context, clerkID string, otherID uuid.UUID) (connection.DerivedStatus, error) {
	userID, err := s.profiles.getUserID(ctx, clerkID)
	if err != nil {
		return connection.DerivedNone, err
	}

	conns, err := s.fetchConnections(ctx, userID)
	if err != nil {
		return connection.DerivedNone, err
	}

	return connection.Derive(conns, userID, otherID), nil
}

// RemoveCollaborator deletes the pair's conversation (both participant
// orders) and then marks the connection declined. The two writes are
// independent; there is no rollback if the second fails.
func (s *ConnectionService) RemoveCollaborator(ctx context.Context, clerkID string, connectionID uuid.UUID) error {
	userID, err := s.profiles.getUserID(ctx, clerkID)
	if err != nil {
		return err
	}

	var requesterID, addresseeID uuid.UUID
	err = s.db.QueryRow(ctx,
		"SELECT requester_id, addressee_id FROM connections WHERE id = $1",
		connectionID,
	).Scan(&requesterID, &addresseeID)
	if err != nil {
		return fmt.Errorf("connection not found: %w", err)
	}

	otherID := requesterID
	if requesterID == userID {
		otherID = addresseeID
	}

	deleteQuery := `
		DELETE FROM conversations
		WHERE (participant_1 = $1 AND participant_2 = $2)
		   OR (participant_1 = $2 AND participant_2 = $1)
	`
	if _, err := s.db.Exec(ctx, deleteQuery, userID, otherID); err != nil {
		log.Printf("RemoveCollaborator: failed to delete conversation between %s and %s: %v", userID, otherID, err)
		return fmt.Errorf("failed to delete conversation")
	}

	return s.UpdateConnectionStatus(ctx, clerkID, connectionID, connection.StatusDeclined)
}
