package lobby

import (
	"time"

	"github.com/google/uuid"
)

// DefaultName is the display name used before a client joins the lobby
const DefaultName = "User"

// ConnID is the handle of a connection entry. Zero is never issued.
type ConnID uint64

// Conn is the transport handle of one client. Only the Manager writes to or
// closes it.
type Conn interface {
	Send(data []byte) error
	Close() error
}

// connection is the per-client record held in the connection table
type connection struct {
	id          ConnID
	conn        Conn
	traceID     string
	name        string
	joined      bool
	game        GameID
	connectedAt time.Time
}

func newConnection(id ConnID, conn Conn, now time.Time) *connection {
	return &connection{
		id:          id,
		conn:        conn,
		traceID:     uuid.NewString(),
		name:        DefaultName,
		connectedAt: now,
	}
}
