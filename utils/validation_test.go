package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"example.com/backstage/analytics/domain"
)

func validDocument() domain.EventDocument {
	return domain.EventDocument{
		ID:   "e1",
		Type: domain.EventTypeBirth,
		Actions: []domain.Action{
			{ID: "a1", Type: domain.ActionCreate, CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
			{ID: "a2", Type: domain.ActionDeclare, CreatedAt: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
		},
	}
}

func TestValidateEventDocument(t *testing.T) {
	assert.NoError(t, ValidateEventDocument(validDocument()))

	noID := validDocument()
	noID.ID = ""
	assert.Error(t, ValidateEventDocument(noID))

	badType := validDocument()
	badType.Type = "birth record"
	assert.Error(t, ValidateEventDocument(badType))

	missingActionID := validDocument()
	missingActionID.Actions[1].ID = ""
	assert.Error(t, ValidateEventDocument(missingActionID))

	missingTimestamp := validDocument()
	missingTimestamp.Actions[0].CreatedAt = time.Time{}
	assert.Error(t, ValidateEventDocument(missingTimestamp))

	duplicate := validDocument()
	duplicate.Actions[1].ID = "a1"
	assert.ErrorContains(t, ValidateEventDocument(duplicate), "duplicate action id a1")

	empty := validDocument()
	empty.Actions = nil
	assert.NoError(t, ValidateEventDocument(empty))
}

func TestIsValidEventType(t *testing.T) {
	assert.True(t, IsValidEventType("BIRTH"))
	assert.True(t, IsValidEventType("TENNIS_CLUB_MEMBERSHIP"))
	assert.False(t, IsValidEventType(""))
	assert.False(t, IsValidEventType("birth"))
}
