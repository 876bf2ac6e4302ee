package domain

import (
	"errors"
)

// ErrActionIndexOutOfRange is returned when a state is requested for a
// position beyond the action log.
var ErrActionIndexOutOfRange = errors.New("action index out of range")

// State is the current state of an event as of one action
type State struct {
	// Declaration is the fold of every accepted declaration up to and
	// including the action.
	Declaration FieldMap
	// Annotation is the original action's annotation overlaid with the
	// action's own.
	Annotation FieldMap
	// Status is the lifecycle status after the action.
	Status EventStatus
}

// Replay folds an ordered action log one action at a time
type Replay struct {
	actions     []Action
	byID        map[string]int
	declaration FieldMap
	status      EventStatus
	pos         int
}

// NewReplay creates a replay over actions already in canonical order
func NewReplay(ordered []Action) *Replay {
	byID := make(map[string]int, len(ordered))
	for i, action := range ordered {
		if _, dup := byID[action.ID]; !dup {
			byID[action.ID] = i
		}
	}
	return &Replay{
		actions: ordered,
		byID:    byID,
	}
}

// Next folds the next action and returns it together with the state as of
// that action. It returns false once the log is exhausted.
func (r *Replay) Next() (Action, State, bool) {
	if r.pos >= len(r.actions) {
		return Action{}, State{}, false
	}
	action := r.actions[r.pos]
	r.pos++

	if action.ContributesDeclaration() {
		r.declaration.Merge(action.Declaration)
		r.status = nextStatus(r.status, action.Type)
	}

	return action, State{
		Declaration: r.declaration.Clone(),
		Annotation:  r.annotationFor(action),
		Status:      r.status,
	}, true
}

// Status returns the lifecycle status after the actions folded so far
func (r *Replay) Status() EventStatus {
	return r.status
}

func (r *Replay) annotationFor(action Action) FieldMap {
	var annotation FieldMap
	if action.OriginalActionID != nil {
		// a dangling reference leaves the base empty
		if i, ok := r.byID[*action.OriginalActionID]; ok {
			annotation = r.actions[i].Annotation.Clone()
		}
	}
	annotation.Merge(action.Annotation)
	return annotation
}

// CurrentStateAt returns the state of the event as of the action at index in
// canonical order.
func CurrentStateAt(doc EventDocument, index int) (State, error) {
	ordered := OrderActions(doc.Actions)
	if index < 0 || index >= len(ordered) {
		return State{}, ErrActionIndexOutOfRange
	}
	replay := NewReplay(ordered)
	var state State
	for i := 0; i <= index; i++ {
		_, state, _ = replay.Next()
	}
	return state, nil
}

func nextStatus(current EventStatus, actionType ActionType) EventStatus {
	switch actionType {
	case ActionCreate:
		return EventStatusCreated
	case ActionNotify:
		return EventStatusNotified
	case ActionDeclare:
		return EventStatusDeclared
	case ActionValidate:
		return EventStatusValidated
	case ActionRegister:
		return EventStatusRegistered
	case ActionArchive:
		return EventStatusArchived
	case ActionReject:
		return EventStatusRejected
	}
	return current
}
