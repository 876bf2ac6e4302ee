package projections

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"example.com/backstage/analytics/domain"
	"example.com/backstage/analytics/eventconfig"
	"example.com/backstage/analytics/models"
)

// Projection is the analytics projection of one event
type Projection struct {
	Event   models.AnalyticsEvent
	Actions []models.AnalyticsEventAction
}

// Projector turns an event document into analytics rows using the event
// type's configuration
type Projector struct {
	cfg *eventconfig.EventConfig
}

// NewProjector creates a projector for one event type
func NewProjector(cfg *eventconfig.EventConfig) *Projector {
	return &Projector{cfg: cfg}
}

// ProjectEvent orders the action log, replays it once and projects every
// action. transactionID identifies this import attempt on the event row.
func (p *Projector) ProjectEvent(doc domain.EventDocument, transactionID string) (*Projection, error) {
	ordered := domain.OrderActions(doc.Actions)

	replay := domain.NewReplay(ordered)
	actions := make([]models.AnalyticsEventAction, 0, len(ordered))
	for {
		action, state, ok := replay.Next()
		if !ok {
			break
		}
		record, err := p.Project(doc, action, state)
		if err != nil {
			return nil, err
		}
		actions = append(actions, record)
	}

	createdAt, updatedAt := doc.Timestamps(ordered)
	return &Projection{
		Event: models.AnalyticsEvent{
			ID:            doc.ID,
			EventType:     string(doc.Type),
			TransactionID: transactionID,
			TrackingID:    doc.TrackingID,
			Status:        string(replay.Status()),
			CreatedAt:     createdAt,
			UpdatedAt:     updatedAt,
		},
		Actions: actions,
	}, nil
}

// Project builds the row of one action from the state as of that action
func (p *Projector) Project(doc domain.EventDocument, action domain.Action, state domain.State) (models.AnalyticsEventAction, error) {
	declaration := withDerivedFields(state.Declaration, p.cfg.Derived, action.CreatedAt)
	declaration = declaration.Filter(p.cfg.IsDeclarationField)

	var annotation domain.FieldMap
	if fields, ok := p.cfg.AnnotationFields(action.Type); ok {
		annotation = state.Annotation.Filter(func(key string) bool {
			_, eligible := fields[key]
			return eligible
		})
	}

	sanitizedDeclaration, err := SanitizeFieldMap(declaration)
	if err != nil {
		return models.AnalyticsEventAction{}, fmt.Errorf("action %s declaration: %w", action.ID, err)
	}
	sanitizedAnnotation, err := SanitizeFieldMap(annotation)
	if err != nil {
		return models.AnalyticsEventAction{}, fmt.Errorf("action %s annotation: %w", action.ID, err)
	}

	var content datatypes.JSON
	if len(action.Content) > 0 && json.Valid(action.Content) {
		content = datatypes.JSON(action.Content)
	}

	return models.AnalyticsEventAction{
		ID:                 action.ID,
		EventID:            doc.ID,
		TransactionID:      action.IdempotencyKey(),
		ActionType:         string(action.Type),
		EventType:          string(doc.Type),
		Status:             string(action.EffectiveStatus()),
		CreatedAt:          action.CreatedAt,
		CreatedBy:          action.CreatedBy,
		CreatedByRole:      action.CreatedByRole,
		CreatedByUserType:  action.CreatedByUserType,
		CreatedAtLocation:  action.CreatedAtLocation,
		Declaration:        sanitizedDeclaration,
		Annotation:         sanitizedAnnotation,
		OriginalActionID:   action.OriginalActionID,
		Content:            content,
		RegistrationNumber: action.RegistrationNumber,
		AssignedTo:         action.AssignedTo,
		RequestID:          action.RequestID,
		Reason:             action.Reason,
	}, nil
}
