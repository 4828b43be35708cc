package handler

import (
	"github.com/gin-gonic/gin"

	catalogapp "github.com/shopledger/backend/internal/application/catalog"
)

// ConversionHandler converts quantities and rates between units
type ConversionHandler struct {
	BaseHandler
	conversionService *catalogapp.ConversionService
}

// NewConversionHandler creates a new ConversionHandler
func NewConversionHandler(conversionService *catalogapp.ConversionService) *ConversionHandler {
	return &ConversionHandler{conversionService: conversionService}
}

// Convert handles POST /conversions. Mode "quantity" (default) converts an
// amount of goods, "rate" converts a price or profit per unit.
func (h *ConversionHandler) Convert(c *gin.Context) {
	var req catalogapp.ConversionRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.conversionService.Convert(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, result)
}
