package handler

import (
	"github.com/gin-gonic/gin"

	tradeapp "github.com/shopledger/backend/internal/application/trade"
	"github.com/shopledger/backend/internal/interfaces/http/middleware"
)

// SaleHandler handles sale posting endpoints
type SaleHandler struct {
	BaseHandler
	saleService *tradeapp.SaleService
}

// NewSaleHandler creates a new SaleHandler
func NewSaleHandler(saleService *tradeapp.SaleService) *SaleHandler {
	return &SaleHandler{saleService: saleService}
}

// Create handles POST /sales. Selling more than is in stock answers
// INSUFFICIENT_STOCK and records nothing.
func (h *SaleHandler) Create(c *gin.Context) {
	var req tradeapp.CreateSaleRequest
	if !h.bindJSON(c, &req) {
		return
	}

	sale, err := h.saleService.Create(c.Request.Context(), req, middleware.GetIdempotencyKey(c))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, sale)
}

// List handles GET /sales?shop_id=&product_id=&from=&to=
func (h *SaleHandler) List(c *gin.Context) {
	filter, ok := bindPostingFilter(&h.BaseHandler, c)
	if !ok {
		return
	}

	sales, total, err := h.saleService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.SuccessWithMeta(c, sales, total, filter.Page, filter.PageSize)
}

// GetByID handles GET /sales/:id
func (h *SaleHandler) GetByID(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	sale, err := h.saleService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, sale)
}

// Update handles PUT /sales/:id
func (h *SaleHandler) Update(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req tradeapp.UpdateSaleRequest
	if !h.bindJSON(c, &req) {
		return
	}

	sale, err := h.saleService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, sale)
}

// Delete handles DELETE /sales/:id
func (h *SaleHandler) Delete(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.saleService.Delete(c.Request.Context(), id); err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.NoContent(c)
}

// PriceSuggestion handles GET /sales/price-suggestion?product_id=&unit_id=
func (h *SaleHandler) PriceSuggestion(c *gin.Context) {
	var query tradeapp.PriceSuggestionQuery
	var ok bool
	if query.ProductID, ok = h.queryUUID(c, "product_id"); !ok {
		return
	}
	if query.UnitID, ok = h.queryUUID(c, "unit_id"); !ok {
		return
	}

	suggestion, err := h.saleService.PriceSuggestion(c.Request.Context(), query)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, suggestion)
}
