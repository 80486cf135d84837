package entity

import (
	"time"

	"github.com/google/uuid"
)

// Availability is the open/closed flag of one stall within one session.
// Revision grows by one on every committed write to the row.
type Availability struct {
	SessionId uuid.UUID
	StallId   uuid.UUID
	IsOpen    bool
	UpdatedBy string
	Revision  int64
	UpdatedAt time.Time
}

// CurrentChoice is the single persisted negotiation state of a session.
// A zero Revision means no row has been written yet.
type CurrentChoice struct {
	SessionId   uuid.UUID
	StallId     *uuid.UUID
	RequestText *string
	Revision    int64
	UpdatedAt   time.Time
}
