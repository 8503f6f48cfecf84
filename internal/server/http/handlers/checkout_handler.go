package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/vusallyv/ds-practice-2025/internal/domain/errors"
	"github.com/vusallyv/ds-practice-2025/internal/domain/model"
	"github.com/vusallyv/ds-practice-2025/internal/server/http/dto"
)

// CheckoutHandler serves the public API.
type CheckoutHandler struct {
	facade CheckoutFacade
}

// NewCheckoutHandler constructs CheckoutHandler.
func NewCheckoutHandler(facade CheckoutFacade) *CheckoutHandler {
	return &CheckoutHandler{facade: facade}
}

// Checkout handles POST /api/checkout.
func (h *CheckoutHandler) Checkout(c *gin.Context) {
	var req dto.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}

	result, err := h.facade.Checkout(c.Request.Context(), req.ToOrder())
	if err != nil {
		switch {
		case errors.Is(err, domainErrors.ErrValidation):
			c.JSON(http.StatusBadRequest, toCheckoutResponse(result))
		case errors.Is(err, domainErrors.ErrParticipantUnavailable):
			abortWithError(c, http.StatusServiceUnavailable, err)
		default:
			abortWithError(c, http.StatusInternalServerError, err)
		}
		return
	}
	c.JSON(http.StatusOK, toCheckoutResponse(result))
}

// Result handles GET /api/orders/:id.
func (h *CheckoutHandler) Result(c *gin.Context) {
	result, err := h.facade.Result(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			abortWithError(c, http.StatusNotFound, err)
			return
		}
		abortWithError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Stock handles GET /api/stock/:title.
func (h *CheckoutHandler) Stock(c *gin.Context) {
	title := strings.TrimSpace(c.Param("title"))
	stock, ok, err := h.facade.Stock(c.Request.Context(), title)
	if err != nil {
		abortWithError(c, http.StatusServiceUnavailable, err)
		return
	}
	if !ok {
		abortWithError(c, http.StatusNotFound, domainErrors.ErrNotFound)
		return
	}
	c.JSON(http.StatusOK, dto.StockResponse{Title: title, Stock: stock})
}

// Health handles GET /healthz.
func (h *CheckoutHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, h.facade.Health(c.Request.Context()))
}

func toCheckoutResponse(result model.OrderResult) dto.CheckoutResponse {
	suggestions := result.Suggestions
	if suggestions == nil {
		suggestions = []model.Suggestion{}
	}
	return dto.CheckoutResponse{OrderID: result.OrderID, Status: result.Status, SuggestedBooks: suggestions}
}
