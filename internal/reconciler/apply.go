package reconciler

import (
	"strings"

	"stallpick-be/internal/entity"

	"github.com/google/uuid"
)

// Apply is the only transition function of the view.
func Apply(v View, sig Signal) (View, []Effect) {
	if snap, ok := sig.(Snapshot); ok {
		return applySnapshot(v, snap)
	}

	if !v.Seeded {
		switch sig.(type) {
		case AvailabilityChanged, ChoiceChanged, DecisionBroadcast, DishRequestBroadcast:
			out := v.clone()
			out.buffered = append(out.buffered, sig)
			return out, nil
		}
		return v, nil
	}

	switch s := sig.(type) {
	case AvailabilityChanged:
		return applyAvailabilityRow(v, s.Row)
	case ChoiceChanged:
		return applyChoiceRow(v, s.Row)
	case DecisionBroadcast:
		return applyDecisionBroadcast(v, s)
	case DishRequestBroadcast:
		return applyDishRequest(v, s.Text)
	case LocalToggle:
		return applyLocalToggle(v, s)
	case TogglePersisted:
		return applyTogglePersisted(v, s)
	}
	return v, nil
}

func applySnapshot(v View, s Snapshot) (View, []Effect) {
	resync := v.Seeded && v.Session != nil && s.Session != nil && v.Session.Id == s.Session.Id
	if !resync {
		v.pending = nil
		v.availabilityRev = nil
		v.choiceRev = 0
	}

	out := View{
		Session:         s.Session,
		Stalls:          append([]*entity.Stall(nil), s.Stalls...),
		Availability:    make(map[uuid.UUID]bool, len(s.Availability)),
		Seeded:          true,
		availabilityRev: make(map[uuid.UUID]int64, len(s.Availability)),
		durable:         make(map[uuid.UUID]bool, len(s.Availability)),
		pending:         copyBoolMap(v.pending),
	}

	for _, row := range s.Availability {
		out.availabilityRev[row.StallId] = row.Revision
		out.durable[row.StallId] = row.IsOpen
		out.Availability[row.StallId] = row.IsOpen
	}
	// On resync, rows already seen at a newer revision win over the
	// snapshot, which may have been read before they committed.
	for stallId, rev := range v.availabilityRev {
		if rev > out.availabilityRev[stallId] {
			out.availabilityRev[stallId] = rev
			out.durable[stallId] = v.durable[stallId]
			out.Availability[stallId] = v.durable[stallId]
		}
	}
	// A resync must not undo toggles that are still waiting to be written.
	for stallId, val := range out.pending {
		out.Availability[stallId] = val
	}

	if s.Choice != nil {
		out.SelectedStallId = s.Choice.StallId
		out.LatestRequestText = s.Choice.RequestText
		out.choiceRev = s.Choice.Revision
	}
	if v.choiceRev > out.choiceRev {
		out.SelectedStallId = v.SelectedStallId
		out.LatestRequestText = v.LatestRequestText
		out.choiceRev = v.choiceRev
	}

	effects := []Effect{Render{}}
	if resync && out.choiceRev > v.choiceRev {
		effects = append(effects, choiceEffects(v, out)...)
	}
	for _, buffered := range v.buffered {
		var more []Effect
		out, more = Apply(out, buffered)
		for _, e := range more {
			if _, ok := e.(Render); !ok {
				effects = append(effects, e)
			}
		}
	}
	return out, effects
}

func applyAvailabilityRow(v View, row *entity.Availability) (View, []Effect) {
	if row == nil {
		return v, nil
	}
	if v.Session != nil && row.SessionId != v.Session.Id {
		return v, nil
	}
	if applied, ok := v.availabilityRev[row.StallId]; ok && row.Revision <= applied {
		return v, nil
	}

	out := v.clone()
	out.availabilityRev[row.StallId] = row.Revision
	out.durable[row.StallId] = row.IsOpen

	if pendingVal, ok := out.pending[row.StallId]; ok && pendingVal != row.IsOpen {
		return out, nil
	}

	before, had := v.Availability[row.StallId]
	out.Availability[row.StallId] = row.IsOpen
	if had && before == row.IsOpen {
		return out, nil
	}
	return out, []Effect{Render{}}
}

func applyChoiceRow(v View, row *entity.CurrentChoice) (View, []Effect) {
	if row == nil {
		return v, nil
	}
	if v.Session != nil && row.SessionId != v.Session.Id {
		return v, nil
	}
	if row.Revision <= v.choiceRev {
		return v, nil
	}

	out := v.clone()
	out.choiceRev = row.Revision
	out.SelectedStallId = row.StallId
	out.LatestRequestText = row.RequestText

	var effects []Effect
	if !sameId(v.SelectedStallId, row.StallId) || !sameText(v.LatestRequestText, row.RequestText) {
		effects = append(effects, Render{})
	}
	return out, append(effects, choiceEffects(v, out)...)
}

// choiceEffects reports a selection or request text that differs between
// before and after.
func choiceEffects(before, after View) []Effect {
	var effects []Effect
	if !sameId(before.SelectedStallId, after.SelectedStallId) && after.SelectedStallId != nil {
		d := Decision{StallId: *after.SelectedStallId}
		if stall := after.StallById(*after.SelectedStallId); stall != nil {
			d.StallName = stall.Name
		}
		effects = append(effects, d)
	}
	if !sameText(before.LatestRequestText, after.LatestRequestText) && after.LatestRequestText != nil {
		effects = append(effects, DishRequest{Text: *after.LatestRequestText})
	}
	return effects
}

func applyDecisionBroadcast(v View, s DecisionBroadcast) (View, []Effect) {
	stall := resolveStall(v.Stalls, s.StallId, s.StallName)
	if stall == nil {
		return v, nil
	}
	if v.SelectedStallId != nil && *v.SelectedStallId == stall.Id {
		return v, nil
	}

	out := v.clone()
	id := stall.Id
	out.SelectedStallId = &id
	return out, []Effect{Render{}, Decision{StallId: stall.Id, StallName: stall.Name}}
}

func resolveStall(stalls []*entity.Stall, id *uuid.UUID, name string) *entity.Stall {
	if id != nil {
		for _, s := range stalls {
			if s.Id == *id {
				return s
			}
		}
	}
	if name == "" {
		return nil
	}
	for _, s := range stalls {
		if strings.EqualFold(s.Name, name) {
			return s
		}
	}
	return nil
}

func applyDishRequest(v View, text string) (View, []Effect) {
	if v.LatestRequestText != nil && *v.LatestRequestText == text {
		return v, nil
	}
	out := v.clone()
	t := text
	out.LatestRequestText = &t
	return out, []Effect{Render{}, DishRequest{Text: text}}
}

func applyLocalToggle(v View, s LocalToggle) (View, []Effect) {
	if v.StallById(s.StallId) == nil {
		return v, nil
	}

	out := v.clone()
	out.pending[s.StallId] = s.IsOpen
	effects := []Effect{ScheduleWrite{StallId: s.StallId}}

	before, had := v.Availability[s.StallId]
	out.Availability[s.StallId] = s.IsOpen
	if !had || before != s.IsOpen {
		effects = append([]Effect{Render{}}, effects...)
	}
	return out, effects
}

func applyTogglePersisted(v View, s TogglePersisted) (View, []Effect) {
	out := v.clone()
	pendingVal, isPending := out.pending[s.StallId]
	current := isPending && pendingVal == s.IsOpen

	if s.Err != nil {
		effects := []Effect{Failure{StallId: s.StallId, Err: s.Err}}
		if !current {
			// A newer toggle is already scheduled and will be written.
			return out, effects
		}
		delete(out.pending, s.StallId)
		before := out.Availability[s.StallId]
		if durable, ok := out.durable[s.StallId]; ok {
			out.Availability[s.StallId] = durable
		} else {
			delete(out.Availability, s.StallId)
		}
		if out.Availability[s.StallId] != before {
			effects = append(effects, Render{})
		}
		return out, effects
	}

	if current {
		delete(out.pending, s.StallId)
	}
	if s.Row == nil {
		return out, nil
	}

	next, effects := applyAvailabilityRow(out, s.Row)
	return next, effects
}
