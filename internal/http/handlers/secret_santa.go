package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/wishlist-backend/internal/http/response"
	"github.com/yungbote/wishlist-backend/internal/pkg/logger"
	"github.com/yungbote/wishlist-backend/internal/services"
)

var (
	errNotAuthenticated = errors.New("not authenticated")
	errInvalidID        = errors.New("invalid id")
)

type SecretSantaHandler struct {
	log     *logger.Logger
	service services.SecretSantaService
}

func NewSecretSantaHandler(log *logger.Logger, service services.SecretSantaService) *SecretSantaHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &SecretSantaHandler{log: log.With("handler", "SecretSantaHandler"), service: service}
}

type secretSantaRequest struct {
	Budget      *float64 `json:"budget"`
	Description *string  `json:"description"`
}

type addParticipantsRequest struct {
	AttendeeIDs []uuid.UUID `json:"attendee_ids" binding:"required"`
}

type exclusionsRequest struct {
	ExcludedParticipantIDs []uuid.UUID `json:"excluded_participant_ids"`
}

func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil || id == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", errInvalidID)
		return uuid.Nil, false
	}
	return id, true
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return false
	}
	return true
}

// GET /api/events/:id/secret-santa
func (h *SecretSantaHandler) GetForEvent(c *gin.Context) {
	eventID, ok := pathID(c)
	if !ok {
		return
	}
	ss, err := h.service.GetForEvent(c.Request.Context(), eventID)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"secret_santa": ss})
}

// POST /api/events/:id/secret-santa
// body: { "budget": 20.5, "description": "..." }
func (h *SecretSantaHandler) Create(c *gin.Context) {
	eventID, ok := pathID(c)
	if !ok {
		return
	}
	var req secretSantaRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}
	ss, err := h.service.Create(c.Request.Context(), eventID, services.CreateSecretSantaParams{
		Budget:      req.Budget,
		Description: req.Description,
	})
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"secret_santa": ss})
}

// PATCH /api/secret-santas/:id
func (h *SecretSantaHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req secretSantaRequest
	if !bindJSON(c, &req) {
		return
	}
	ss, err := h.service.Update(c.Request.Context(), id, services.UpdateSecretSantaParams{
		Budget:      req.Budget,
		Description: req.Description,
	})
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"secret_santa": ss})
}

// DELETE /api/secret-santas/:id
func (h *SecretSantaHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /api/secret-santas/:id/start
func (h *SecretSantaHandler) Start(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	ss, err := h.service.Start(c.Request.Context(), id)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"secret_santa": ss})
}

// POST /api/secret-santas/:id/cancel
func (h *SecretSantaHandler) Cancel(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	ss, err := h.service.Cancel(c.Request.Context(), id)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"secret_santa": ss})
}

// POST /api/secret-santas/:id/participants
// body: { "attendee_ids": ["..."] }
func (h *SecretSantaHandler) AddParticipants(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req addParticipantsRequest
	if !bindJSON(c, &req) {
		return
	}
	ss, err := h.service.AddParticipants(c.Request.Context(), id, req.AttendeeIDs)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"secret_santa": ss})
}

// GET /api/secret-santas/:id/draw
func (h *SecretSantaHandler) GetMyDraw(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	draw, err := h.service.GetMyDraw(c.Request.Context(), id)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"draw": draw})
}

// PUT /api/secret-santa-participants/:id/exclusions
// body: { "excluded_participant_ids": ["..."] }
func (h *SecretSantaHandler) UpdateExclusions(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req exclusionsRequest
	if !bindJSON(c, &req) {
		return
	}
	ss, err := h.service.UpdateExclusions(c.Request.Context(), id, req.ExcludedParticipantIDs)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"secret_santa": ss})
}

// DELETE /api/secret-santa-participants/:id
func (h *SecretSantaHandler) RemoveParticipant(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	ss, err := h.service.RemoveParticipant(c.Request.Context(), id)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"secret_santa": ss})
}
