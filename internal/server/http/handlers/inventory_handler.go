package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vusallyv/ds-practice-2025/internal/server/http/dto"
)

// InventoryHandler serves stock reads and mutations to peers and backups.
type InventoryHandler struct {
	store StockStore
}

func NewInventoryHandler(store StockStore) *InventoryHandler {
	return &InventoryHandler{store: store}
}

// Read handles POST /rpc/inventory/read.
func (h *InventoryHandler) Read(c *gin.Context) {
	req, ok := bindStock(c)
	if !ok {
		return
	}
	stock, found := h.store.Read(req.Title)
	c.JSON(http.StatusOK, dto.StockResult{Title: req.Title, Stock: stock, Found: found, Success: found})
}

// Write handles POST /rpc/inventory/write. Backups receive replicated
// values through it.
func (h *InventoryHandler) Write(c *gin.Context) {
	req, ok := bindStock(c)
	if !ok {
		return
	}
	success := h.store.Write(c.Request.Context(), req.Title, req.Stock)
	h.respond(c, req.Title, success)
}

// Decrement handles POST /rpc/inventory/decrement.
func (h *InventoryHandler) Decrement(c *gin.Context) {
	req, ok := bindStock(c)
	if !ok {
		return
	}
	success := h.store.Decrement(c.Request.Context(), req.Title, req.Amount)
	h.respond(c, req.Title, success)
}

// Increment handles POST /rpc/inventory/increment.
func (h *InventoryHandler) Increment(c *gin.Context) {
	req, ok := bindStock(c)
	if !ok {
		return
	}
	success := h.store.Increment(c.Request.Context(), req.Title, req.Amount)
	h.respond(c, req.Title, success)
}

func (h *InventoryHandler) respond(c *gin.Context, title string, success bool) {
	stock, found := h.store.Read(title)
	c.JSON(http.StatusOK, dto.StockResult{Title: title, Stock: stock, Found: found, Success: success})
}

func bindStock(c *gin.Context) (dto.StockRequest, bool) {
	var req dto.StockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return req, false
	}
	return req, true
}
