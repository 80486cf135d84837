// Package reconciler keeps one client's view of a session consistent with the
// durable store while two unordered producers feed it: durable-change
// notifications and ephemeral broadcasts.
//
// The view is a value. Apply never mutates its input; every transition
// returns a new View plus the effects the caller has to carry out.
package reconciler

import (
	"stallpick-be/internal/entity"

	"github.com/google/uuid"
)

type Role string

const (
	RoleBuyer Role = "buyer"
	RoleEater Role = "eater"
)

func (r Role) Peer() Role {
	if r == RoleBuyer {
		return RoleEater
	}
	return RoleBuyer
}

type View struct {
	Session           *entity.Session
	Stalls            []*entity.Stall
	Availability      map[uuid.UUID]bool
	SelectedStallId   *uuid.UUID
	LatestRequestText *string

	// Seeded is false until the first snapshot has been applied.
	Seeded bool

	availabilityRev map[uuid.UUID]int64
	durable         map[uuid.UUID]bool
	choiceRev       int64
	pending         map[uuid.UUID]bool
	buffered        []Signal
}

// IsOpen reports the displayed flag. A stall without a row is closed.
func (v View) IsOpen(stallId uuid.UUID) bool {
	return v.Availability[stallId]
}

// PendingValue is the optimistic value waiting to be written for stallId.
func (v View) PendingValue(stallId uuid.UUID) (bool, bool) {
	val, ok := v.pending[stallId]
	return val, ok
}

func (v View) HasPending() bool {
	return len(v.pending) > 0
}

func (v View) StallById(id uuid.UUID) *entity.Stall {
	for _, s := range v.Stalls {
		if s.Id == id {
			return s
		}
	}
	return nil
}

func (v View) SelectedStall() *entity.Stall {
	if v.SelectedStallId == nil {
		return nil
	}
	return v.StallById(*v.SelectedStallId)
}

func (v View) Code() string {
	if v.Session == nil {
		return ""
	}
	return v.Session.Code
}

func (v View) clone() View {
	out := v
	out.Availability = copyBoolMap(v.Availability)
	out.availabilityRev = make(map[uuid.UUID]int64, len(v.availabilityRev))
	for k, rev := range v.availabilityRev {
		out.availabilityRev[k] = rev
	}
	out.durable = copyBoolMap(v.durable)
	out.pending = copyBoolMap(v.pending)
	out.buffered = append([]Signal(nil), v.buffered...)
	return out
}

func copyBoolMap(in map[uuid.UUID]bool) map[uuid.UUID]bool {
	out := make(map[uuid.UUID]bool, len(in))
	for k, val := range in {
		out[k] = val
	}
	return out
}

func sameId(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func sameText(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
