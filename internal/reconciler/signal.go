package reconciler

import (
	"stallpick-be/internal/entity"

	"github.com/google/uuid"
)

// Signal is one input to Apply.
type Signal interface {
	signal()
}

// Snapshot seeds the view from the durable store.
type Snapshot struct {
	Session      *entity.Session
	Stalls       []*entity.Stall
	Availability []*entity.Availability
	Choice       *entity.CurrentChoice
}

// AvailabilityChanged is a durable-change notification for one stall.
type AvailabilityChanged struct {
	Row *entity.Availability
}

// ChoiceChanged is a durable-change notification carrying both fields.
type ChoiceChanged struct {
	Row *entity.CurrentChoice
}

type DecisionBroadcast struct {
	StallId   *uuid.UUID
	StallName string
}

type DishRequestBroadcast struct {
	Text string
}

// LocalToggle is a user flipping a stall on this client.
type LocalToggle struct {
	StallId uuid.UUID
	IsOpen  bool
}

// TogglePersisted reports the outcome of a debounced availability write.
type TogglePersisted struct {
	StallId uuid.UUID
	IsOpen  bool
	Row     *entity.Availability
	Err     error
}

func (Snapshot) signal()             {}
func (AvailabilityChanged) signal()  {}
func (ChoiceChanged) signal()        {}
func (DecisionBroadcast) signal()    {}
func (DishRequestBroadcast) signal() {}
func (LocalToggle) signal()          {}
func (TogglePersisted) signal()      {}

// Effect is work Apply asks the caller to do.
type Effect interface {
	effect()
}

// Render means the view changed in a way a user can see.
type Render struct{}

// ScheduleWrite asks for a debounced durable write of the pending value.
type ScheduleWrite struct {
	StallId uuid.UUID
}

// Decision is emitted once per change of the selected stall.
type Decision struct {
	StallId   uuid.UUID
	StallName string
}

type DishRequest struct {
	Text string
}

// Failure reports a durable write that did not happen.
type Failure struct {
	StallId uuid.UUID
	Err     error
}

func (Render) effect()        {}
func (ScheduleWrite) effect() {}
func (Decision) effect()      {}
func (DishRequest) effect()   {}
func (Failure) effect()       {}
