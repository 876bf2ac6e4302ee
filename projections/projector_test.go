package projections

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/backstage/analytics/domain"
	"example.com/backstage/analytics/eventconfig"
)

var (
	t0 = time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	t1 = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
)

func strPtr(s string) *string { return &s }

func birthConfig(t *testing.T) *eventconfig.EventConfig {
	t.Helper()
	reg, err := eventconfig.NewRegistry(eventconfig.Defaults()...)
	require.NoError(t, err)
	cfg, ok := reg.Lookup(domain.EventTypeBirth)
	require.True(t, ok)
	return cfg
}

// e1 is a birth created at t0 and registered at t1
func e1() domain.EventDocument {
	return domain.EventDocument{
		ID:         "E1",
		Type:       domain.EventTypeBirth,
		TrackingID: "TRK-E1",
		Actions: []domain.Action{
			{
				ID:        "register",
				Type:      domain.ActionRegister,
				Status:    domain.StatusAccepted,
				CreatedAt: t1,
			},
			{
				ID:        "create",
				Type:      domain.ActionCreate,
				CreatedAt: t0,
				Declaration: domain.NewFieldMap(
					"child.dob", "2020-01-01",
					"child.firstname", "Ada",
				),
			},
		},
	}
}

func TestProjectEvent_BirthDeclarationWithDerivedAge(t *testing.T) {
	projection, err := NewProjector(birthConfig(t)).ProjectEvent(e1(), "tx-1")
	require.NoError(t, err)

	require.Len(t, projection.Actions, 2)
	assert.Equal(t, "create", projection.Actions[0].ID)
	register := projection.Actions[1]
	assert.Equal(t, "register", register.ID)
	assert.Equal(t, "E1", register.EventID)
	assert.Equal(t, "BIRTH", register.EventType)
	assert.Equal(t, "register", register.TransactionID)

	dob, ok := register.Declaration.Get("child_dob")
	require.True(t, ok)
	assert.Equal(t, domain.String("2020-01-01"), dob)

	// 2020-01-01 to 2024-01-01 spans one leap year
	age, ok := register.Declaration.Get("child_age_days")
	require.True(t, ok)
	assert.Equal(t, domain.Number(1461), age)

	assert.False(t, register.Declaration.Has("child_firstname"), "non-analytics fields are dropped")
	assert.Equal(t, 0, register.Annotation.Len())

	assert.Equal(t, "tx-1", projection.Event.TransactionID)
	assert.Equal(t, "REGISTERED", projection.Event.Status)
	assert.Equal(t, t0, projection.Event.CreatedAt)
	assert.Equal(t, t1, projection.Event.UpdatedAt)
}

func TestProjectEvent_CorrectionAnnotationOverOriginal(t *testing.T) {
	doc := e1()
	doc.Actions = append(doc.Actions, domain.Action{
		ID:               "correct",
		Type:             domain.ActionCorrect,
		CreatedAt:        t1.Add(time.Hour),
		OriginalActionID: strPtr("register"),
		Annotation:       domain.NewFieldMap("reason", "clerical"),
	})

	projection, err := NewProjector(birthConfig(t)).ProjectEvent(doc, "tx-2")
	require.NoError(t, err)
	require.Len(t, projection.Actions, 3)

	correct := projection.Actions[2]
	assert.Equal(t, "correct", correct.ID)
	assert.True(t, correct.Annotation.Equal(domain.NewFieldMap("reason", "clerical")))
	require.NotNil(t, correct.OriginalActionID)
	assert.Equal(t, "register", *correct.OriginalActionID)
}

func TestProjectEvent_MissingSourceOmitsDerivedField(t *testing.T) {
	doc := e1()
	doc.Actions[1].Declaration = domain.NewFieldMap("child.gender", "female")

	projection, err := NewProjector(birthConfig(t)).ProjectEvent(doc, "tx-1")
	require.NoError(t, err)

	for _, action := range projection.Actions {
		assert.False(t, action.Declaration.Has("child_age_days"))
		assert.True(t, action.Declaration.Has("child_gender"))
	}
}

func TestProjectEvent_UnparseableSourceOmitsDerivedField(t *testing.T) {
	doc := e1()
	doc.Actions[1].Declaration = domain.NewFieldMap("child.dob", "unknown")

	projection, err := NewProjector(birthConfig(t)).ProjectEvent(doc, "tx-1")
	require.NoError(t, err)
	assert.False(t, projection.Actions[1].Declaration.Has("child_age_days"))
	assert.True(t, projection.Actions[1].Declaration.Has("child_dob"))
}

func TestProjectEvent_RequestedActionKeepsRowButNotState(t *testing.T) {
	doc := e1()
	doc.Actions = append(doc.Actions, domain.Action{
		ID:          "request",
		Type:        domain.ActionRequestCorrection,
		Status:      domain.StatusRequested,
		CreatedAt:   t1.Add(time.Hour),
		Declaration: domain.NewFieldMap("child.dob", "2019-06-30"),
		Annotation:  domain.NewFieldMap("reason", "typo", "correction.request.evidence", "scan.pdf"),
	})

	projection, err := NewProjector(birthConfig(t)).ProjectEvent(doc, "tx-1")
	require.NoError(t, err)
	require.Len(t, projection.Actions, 3)

	request := projection.Actions[2]
	assert.Equal(t, "Requested", request.Status)
	dob, _ := request.Declaration.Get("child_dob")
	assert.Equal(t, domain.String("2020-01-01"), dob)
	assert.True(t, request.Annotation.Equal(domain.NewFieldMap("reason", "typo")))
	assert.Equal(t, "REGISTERED", projection.Event.Status)
}

func TestProjectEvent_AnnotationWithoutActionConfigIsEmpty(t *testing.T) {
	doc := e1()
	doc.Actions[0].Annotation = domain.NewFieldMap("reason", "x")

	projection, err := NewProjector(birthConfig(t)).ProjectEvent(doc, "tx-1")
	require.NoError(t, err)
	assert.Equal(t, 0, projection.Actions[1].Annotation.Len())
}

func TestProjectEvent_PassthroughMetadataAndOptionalColumns(t *testing.T) {
	doc := e1()
	doc.Actions[0].RegistrationNumber = strPtr("REG-1")
	doc.Actions[0].CreatedBy = "registrar-1"
	doc.Actions[0].CreatedAtLocation = strPtr("office-1")
	doc.Actions[0].Content = []byte(`{"templateId":"birth-certificate"}`)

	projection, err := NewProjector(birthConfig(t)).ProjectEvent(doc, "tx-1")
	require.NoError(t, err)

	register := projection.Actions[1]
	assert.Equal(t, "registrar-1", register.CreatedBy)
	assert.Equal(t, "REG-1", *register.RegistrationNumber)
	assert.JSONEq(t, `{"templateId":"birth-certificate"}`, string(register.Content))
	assert.NotContains(t, register.OmittedColumns(), "RegistrationNumber")
	assert.Contains(t, register.OmittedColumns(), "AssignedTo")

	create := projection.Actions[0]
	assert.ElementsMatch(t, []string{
		"CreatedAtLocation", "OriginalActionID", "Content",
		"RegistrationNumber", "AssignedTo", "RequestID", "Reason",
	}, create.OmittedColumns())
}

func TestProjectEvent_KeyCollisionIsMalformed(t *testing.T) {
	reg, err := eventconfig.NewRegistry(eventconfig.EventConfig{
		ID: "CLASH",
		Declaration: []eventconfig.Page{{
			ID: "p",
			Fields: []eventconfig.FieldConfig{
				{ID: "a.b", Analytics: true},
				{ID: "a_b", Analytics: true},
			},
		}},
	})
	require.NoError(t, err)
	cfg, _ := reg.Lookup("CLASH")

	doc := domain.EventDocument{
		ID:   "e",
		Type: "CLASH",
		Actions: []domain.Action{{
			ID:          "a1",
			Type:        domain.ActionCreate,
			CreatedAt:   t0,
			Declaration: domain.NewFieldMap("a.b", 1, "a_b", 2),
		}},
	}
	_, err = NewProjector(cfg).ProjectEvent(doc, "tx")
	assert.ErrorIs(t, err, ErrKeyCollision)
}

func TestProjectEvent_EmptyLog(t *testing.T) {
	projection, err := NewProjector(birthConfig(t)).ProjectEvent(domain.EventDocument{ID: "e", Type: domain.EventTypeBirth}, "tx")
	require.NoError(t, err)
	assert.Empty(t, projection.Actions)
	assert.Equal(t, "", projection.Event.Status)
}
