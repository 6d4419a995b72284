package connection

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestDerive(t *testing.T) {
	viewer := uuid.New()
	other := uuid.New()
	stranger := uuid.New()

	row := func(requester, addressee uuid.UUID, status Status) *Connection {
		return &Connection{
			ID:          uuid.New(),
			RequesterID: requester,
			AddresseeID: addressee,
			Status:      status,
		}
	}

	t.Run("no rows means none", func(t *testing.T) {
		assert.Equal(t, DerivedNone, Derive(nil, viewer, other))
	})

	t.Run("nil viewer means none", func(t *testing.T) {
		conns := []*Connection{row(viewer, other, StatusAccepted)}
		assert.Equal(t, DerivedNone, Derive(conns, uuid.Nil, other))
	})

	t.Run("accepted reads connected in both directions", func(t *testing.T) {
		assert.Equal(t, DerivedConnected, Derive([]*Connection{row(viewer, other, StatusAccepted)}, viewer, other))
		assert.Equal(t, DerivedConnected, Derive([]*Connection{row(other, viewer, StatusAccepted)}, viewer, other))
	})

	t.Run("pending depends on who asked", func(t *testing.T) {
		assert.Equal(t, DerivedPendingSent, Derive([]*Connection{row(viewer, other, StatusPending)}, viewer, other))
		assert.Equal(t, DerivedPendingReceived, Derive([]*Connection{row(other, viewer, StatusPending)}, viewer, other))
	})

	t.Run("blocked reads blocked", func(t *testing.T) {
		assert.Equal(t, DerivedBlocked, Derive([]*Connection{row(other, viewer, StatusBlocked)}, viewer, other))
	})

	t.Run("declined reads as no relationship", func(t *testing.T) {
		assert.Equal(t, DerivedNone, Derive([]*Connection{row(viewer, other, StatusDeclined)}, viewer, other))
	})

	t.Run("rows with third parties are ignored", func(t *testing.T) {
		conns := []*Connection{
			row(viewer, stranger, StatusAccepted),
			row(stranger, other, StatusPending),
		}
		assert.Equal(t, DerivedNone, Derive(conns, viewer, other))
	})

	t.Run("first matching row wins", func(t *testing.T) {
		conns := []*Connection{
			row(viewer, other, StatusDeclined),
			row(other, viewer, StatusAccepted),
		}
		assert.Equal(t, DerivedNone, Derive(conns, viewer, other))
	})
}

func TestCounterpart(t *testing.T) {
	a := uuid.New()
	b := uuid.New()
	c := &Connection{RequesterID: a, AddresseeID: b}

	assert.Equal(t, b, c.Counterpart(a))
	assert.Equal(t, a, c.Counterpart(b))
}

func TestInvolvesPair(t *testing.T) {
	a := uuid.New()
	b := uuid.New()
	c := &Connection{RequesterID: a, AddresseeID: b}

	assert.True(t, c.InvolvesPair(a, b))
	assert.True(t, c.InvolvesPair(b, a))
	assert.False(t, c.InvolvesPair(a, uuid.New()))
}
