package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vusallyv/ds-practice-2025/internal/server/http/dto"
)

// ParticipantHandler exposes a local participant to a remote coordinator.
type ParticipantHandler struct {
	participant Participant
	logger      *slog.Logger
}

func NewParticipantHandler(participant Participant, logger *slog.Logger) *ParticipantHandler {
	return &ParticipantHandler{participant: participant, logger: logger}
}

// Prepare handles POST /rpc/{name}/prepare.
func (h *ParticipantHandler) Prepare(c *gin.Context) {
	var req dto.PrepareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}
	ready, err := h.participant.Prepare(c.Request.Context(), req.Reservation())
	if err != nil {
		h.logger.Warn("prepare failed",
			slog.String("participant", h.participant.Name()),
			slog.String("order_id", req.OrderID),
			slog.Int("caller", CallerID(c)),
			slog.String("error", err.Error()),
		)
		abortWithError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, dto.VoteResponse{Ready: ready})
}

// Commit handles POST /rpc/{name}/commit.
func (h *ParticipantHandler) Commit(c *gin.Context) {
	var req dto.DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}
	ok, err := h.participant.Commit(c.Request.Context(), req.OrderID, req.Title)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, dto.CommitResponse{Success: ok})
}

// Abort handles POST /rpc/{name}/abort.
func (h *ParticipantHandler) Abort(c *gin.Context) {
	var req dto.DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}
	if err := h.participant.Abort(c.Request.Context(), req.OrderID, req.Title); err != nil {
		abortWithError(c, http.StatusInternalServerError, err)
		return
	}
	c.Status(http.StatusNoContent)
}
