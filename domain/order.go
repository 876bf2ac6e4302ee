package domain

import (
	"slices"
)

// OrderActions returns the actions of one event in canonical order: CREATE
// actions first, then ascending createdAt. Actions that tie on both keys keep
// their input order, so the input must itself come from a deterministic
// source (e.g. storage insertion order). The input slice is not modified.
func OrderActions(actions []Action) []Action {
	ordered := slices.Clone(actions)
	slices.SortStableFunc(ordered, compareActions)
	return ordered
}

func compareActions(a, b Action) int {
	aCreate, bCreate := a.Type == ActionCreate, b.Type == ActionCreate
	switch {
	case aCreate && !bCreate:
		return -1
	case !aCreate && bCreate:
		return 1
	}
	return a.CreatedAt.Compare(b.CreatedAt)
}
