package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"example.com/backstage/analytics/domain"
	"example.com/backstage/analytics/projections"
	"example.com/backstage/analytics/utils"
)

// SourceHTTP tags inbox documents posted over the API
const SourceHTTP = "http"

// Context keys read by the request logger
const (
	LogEventID   = "analytics.event_id"
	LogBatchSize = "analytics.batch_size"
)

// Appender stores event documents for the worker to import
type Appender interface {
	Append(ctx context.Context, doc domain.EventDocument, source string) (string, error)
}

// BatchImporter imports a batch of event documents synchronously
type BatchImporter interface {
	ImportEvents(ctx context.Context, docs []domain.EventDocument) projections.BatchResult
}

// EventHandler accepts event documents
type EventHandler struct {
	inbox        Appender
	importer     BatchImporter
	maxBatchSize int
}

// NewEventHandler creates a new event handler
func NewEventHandler(inbox Appender, importer BatchImporter, maxBatchSize int) *EventHandler {
	return &EventHandler{inbox: inbox, importer: importer, maxBatchSize: maxBatchSize}
}

// HandleSubmitEvent appends one event document to the import inbox
func (h *EventHandler) HandleSubmitEvent(c *gin.Context) {
	var doc domain.EventDocument
	if err := c.ShouldBindJSON(&doc); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.Set(LogEventID, doc.ID)
	if err := utils.ValidateEventDocument(doc); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	documentID, err := h.inbox.Append(c.Request.Context(), doc, SourceHTTP)
	if err != nil {
		log.Error().Err(err).Str("event_id", doc.ID).Msg("Failed to store event document")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store event document"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"document_id": documentID, "event_id": doc.ID})
}

// HandleImportEvents imports a batch of event documents and reports the
// outcome of each. Invalid documents fail individually.
func (h *EventHandler) HandleImportEvents(c *gin.Context) {
	var docs []domain.EventDocument
	if err := c.ShouldBindJSON(&docs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.Set(LogBatchSize, len(docs))
	if h.maxBatchSize > 0 && len(docs) > h.maxBatchSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error":          "batch too large",
			"max_batch_size": h.maxBatchSize,
		})
		return
	}

	c.JSON(http.StatusOK, h.importer.ImportEvents(c.Request.Context(), docs))
}

// RegisterRoutes registers the event routes
func (h *EventHandler) RegisterRoutes(router gin.IRouter) {
	router.POST("/events", h.HandleSubmitEvent)
	router.POST("/events/import", h.HandleImportEvents)
}
