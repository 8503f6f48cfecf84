package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vusallyv/ds-practice-2025/internal/server/http/dto"
)

// ElectionHandler receives bully messages from executor replicas. Answering
// at all tells the sender this replica is alive.
type ElectionHandler struct {
	listener ElectionListener
}

func NewElectionHandler(listener ElectionListener) *ElectionHandler {
	return &ElectionHandler{listener: listener}
}

// DeclareElection handles POST /rpc/election/declare-election.
func (h *ElectionHandler) DeclareElection(c *gin.Context) {
	var req dto.ElectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}
	h.listener.HandleElection(req.SenderID)
	c.Status(http.StatusNoContent)
}

// DeclareVictory handles POST /rpc/election/declare-victory.
func (h *ElectionHandler) DeclareVictory(c *gin.Context) {
	var req dto.VictoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}
	h.listener.HandleVictory(req.LeaderID)
	c.Status(http.StatusNoContent)
}
