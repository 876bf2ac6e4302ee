package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestReplay_LaterValuesOverrideEarlier(t *testing.T) {
	ordered := []Action{
		{ID: "create", Type: ActionCreate, CreatedAt: t0},
		{ID: "declare", Type: ActionDeclare, CreatedAt: t0.Add(time.Hour),
			Declaration: NewFieldMap("child.name", "Ada", "child.dob", "2020-01-01")},
		{ID: "validate", Type: ActionValidate, CreatedAt: t0.Add(2 * time.Hour),
			Declaration: NewFieldMap("child.name", "Ada L.")},
	}

	replay := NewReplay(ordered)

	_, state, ok := replay.Next()
	require.True(t, ok)
	require.Equal(t, 0, state.Declaration.Len())
	require.Equal(t, EventStatusCreated, state.Status)

	_, state, _ = replay.Next()
	name, _ := state.Declaration.Get("child.name")
	require.Equal(t, String("Ada"), name)
	require.Equal(t, EventStatusDeclared, state.Status)

	_, state, _ = replay.Next()
	name, _ = state.Declaration.Get("child.name")
	require.Equal(t, String("Ada L."), name)
	dob, ok := state.Declaration.Get("child.dob")
	require.True(t, ok, "untouched field is inherited")
	require.Equal(t, String("2020-01-01"), dob)
	require.Equal(t, []string{"child.name", "child.dob"}, state.Declaration.Keys())
	require.Equal(t, EventStatusValidated, state.Status)

	_, _, ok = replay.Next()
	require.False(t, ok)
}

func TestReplay_RequestedAndRejectedDoNotContribute(t *testing.T) {
	ordered := []Action{
		{ID: "create", Type: ActionCreate, CreatedAt: t0},
		{ID: "declare", Type: ActionDeclare, CreatedAt: t0.Add(time.Hour),
			Declaration: NewFieldMap("child.name", "Ada")},
		{ID: "validate-req", Type: ActionValidate, Status: StatusRequested, CreatedAt: t0.Add(2 * time.Hour),
			Declaration: NewFieldMap("child.name", "Requested Name")},
		{ID: "register-rej", Type: ActionRegister, Status: StatusRejected, CreatedAt: t0.Add(3 * time.Hour),
			Declaration: NewFieldMap("child.name", "Rejected Name", "child.weight", 3.2)},
		{ID: "print", Type: ActionPrintCertificate, CreatedAt: t0.Add(4 * time.Hour)},
	}

	replay := NewReplay(ordered)
	var states []State
	for {
		_, state, ok := replay.Next()
		if !ok {
			break
		}
		states = append(states, state)
	}

	require.Len(t, states, 5)
	for i := 2; i < 5; i++ {
		name, _ := states[i].Declaration.Get("child.name")
		require.Equal(t, String("Ada"), name, "state %d", i)
		require.False(t, states[i].Declaration.Has("child.weight"), "state %d", i)
		require.Equal(t, EventStatusDeclared, states[i].Status, "state %d", i)
	}
}

func TestReplay_ExplicitNullClearsField(t *testing.T) {
	ordered := []Action{
		{ID: "declare", Type: ActionDeclare, CreatedAt: t0,
			Declaration: NewFieldMap("informant.email", "a@example.com")},
		{ID: "validate", Type: ActionValidate, CreatedAt: t0.Add(time.Hour),
			Declaration: NewFieldMap("informant.email", nil)},
	}

	state, err := CurrentStateAt(EventDocument{Actions: ordered}, 1)
	require.NoError(t, err)
	email, ok := state.Declaration.Get("informant.email")
	require.True(t, ok)
	require.True(t, email.IsNull())
}

func TestReplay_AnnotationMergesOverOriginalAction(t *testing.T) {
	ordered := []Action{
		{ID: "create", Type: ActionCreate, CreatedAt: t0},
		{ID: "request", Type: ActionRequestCorrection, CreatedAt: t0.Add(time.Hour),
			Annotation: NewFieldMap("reason", "typo", "evidence", "doc-1")},
		{ID: "approve", Type: ActionApproveCorrection, CreatedAt: t0.Add(2 * time.Hour),
			OriginalActionID: strPtr("request"),
			Annotation:       NewFieldMap("reason", "clerical")},
	}

	state, err := CurrentStateAt(EventDocument{Actions: ordered}, 2)
	require.NoError(t, err)
	require.True(t, NewFieldMap("reason", "clerical", "evidence", "doc-1").Equal(state.Annotation))
}

func TestReplay_DanglingOriginalActionUsesEmptyBase(t *testing.T) {
	ordered := []Action{
		{ID: "correct", Type: ActionCorrect, CreatedAt: t0,
			OriginalActionID: strPtr("does-not-exist"),
			Annotation:       NewFieldMap("reason", "clerical")},
	}

	state, err := CurrentStateAt(EventDocument{Actions: ordered}, 0)
	require.NoError(t, err)
	require.True(t, NewFieldMap("reason", "clerical").Equal(state.Annotation))
}

func TestReplay_StatesAreIndependentSnapshots(t *testing.T) {
	ordered := []Action{
		{ID: "declare", Type: ActionDeclare, CreatedAt: t0, Declaration: NewFieldMap("a", "1")},
		{ID: "validate", Type: ActionValidate, CreatedAt: t0.Add(time.Hour), Declaration: NewFieldMap("a", "2")},
	}

	replay := NewReplay(ordered)
	_, first, _ := replay.Next()
	_, _, _ = replay.Next()

	a, _ := first.Declaration.Get("a")
	require.Equal(t, String("1"), a)
	// source actions are never mutated by the fold
	a, _ = ordered[0].Declaration.Get("a")
	require.Equal(t, String("1"), a)
}

func TestCurrentStateAt_OrdersBeforeFolding(t *testing.T) {
	doc := EventDocument{
		ID:   "e1",
		Type: EventTypeBirth,
		Actions: []Action{
			{ID: "validate", Type: ActionValidate, CreatedAt: t0.Add(2 * time.Hour), Declaration: NewFieldMap("x", "late")},
			{ID: "declare", Type: ActionDeclare, CreatedAt: t0.Add(time.Hour), Declaration: NewFieldMap("x", "early")},
			{ID: "create", Type: ActionCreate, CreatedAt: t0.Add(3 * time.Hour)},
		},
	}

	state, err := CurrentStateAt(doc, 2)
	require.NoError(t, err)
	x, _ := state.Declaration.Get("x")
	require.Equal(t, String("late"), x)
	require.Equal(t, EventStatusValidated, state.Status)

	_, err = CurrentStateAt(doc, 3)
	require.ErrorIs(t, err, ErrActionIndexOutOfRange)
	_, err = CurrentStateAt(EventDocument{}, 0)
	require.ErrorIs(t, err, ErrActionIndexOutOfRange)
}
