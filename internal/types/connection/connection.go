package connection

import (
	"time"

	"github.com/google/uuid"

	"collabHubAPI/internal/types/profile"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusDeclined Status = "declined"
	StatusBlocked  Status = "blocked"
)

// DerivedStatus is the per-counterpart state a viewer sees, computed from the
// raw connection rows.
type DerivedStatus string

const (
	DerivedNone            DerivedStatus = "none"
	DerivedPendingSent     DerivedStatus = "pending_sent"
	DerivedPendingReceived DerivedStatus = "pending_received"
	DerivedConnected       DerivedStatus = "connected"
	DerivedBlocked         DerivedStatus = "blocked"
)

type Connection struct {
	ID               uuid.UUID         `json:"id"`
	RequesterID      uuid.UUID         `json:"requesterId"`
	AddresseeID      uuid.UUID         `json:"addresseeId"`
	Status           Status            `json:"status"`
	CreatedAt        time.Time         `json:"createdAt"`
	UpdatedAt        time.Time         `json:"updatedAt"`
	RequesterProfile *profile.Snapshot `json:"requesterProfile,omitempty"`
	AddresseeProfile *profile.Snapshot `json:"addresseeProfile,omitempty"`
}

type UpdateStatusRequest struct {
	Status Status `json:"status" validate:"required"`
}

// InvolvesPair reports whether the row links the two users, in either
// direction.
func (c *Connection) InvolvesPair(a, b uuid.UUID) bool {
	return (c.RequesterID == a && c.AddresseeID == b) ||
		(c.RequesterID == b && c.AddresseeID == a)
}

// Counterpart returns the other party of the row relative to the viewer.
func (c *Connection) Counterpart(viewerID uuid.UUID) uuid.UUID {
	if c.RequesterID == viewerID {
		return c.AddresseeID
	}
	return c.RequesterID
}

// Derive computes the viewer's relationship state toward otherID from an
// in-memory list of connection rows. A declined row reads as no relationship,
// which is what lets a new request be sent after a decline.
func Derive(conns []*Connection, viewerID, otherID uuid.UUID) DerivedStatus {
	if viewerID == uuid.Nil {
		return DerivedNone
	}

	for _, c := range conns {
		if !c.InvolvesPair(viewerID, otherID) {
			continue
		}
		switch c.Status {
		case StatusAccepted:
			return DerivedConnected
		case StatusBlocked:
			return DerivedBlocked
		case StatusPending:
			if c.RequesterID == viewerID {
				return DerivedPendingSent
			}
			return DerivedPendingReceived
		}
		return DerivedNone
	}

	return DerivedNone
}
