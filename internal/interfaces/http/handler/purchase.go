package handler

import (
	"github.com/gin-gonic/gin"

	tradeapp "github.com/shopledger/backend/internal/application/trade"
	"github.com/shopledger/backend/internal/interfaces/http/middleware"
)

// PurchaseHandler handles purchase posting endpoints
type PurchaseHandler struct {
	BaseHandler
	purchaseService *tradeapp.PurchaseService
}

// NewPurchaseHandler creates a new PurchaseHandler
func NewPurchaseHandler(purchaseService *tradeapp.PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{purchaseService: purchaseService}
}

// Create handles POST /purchases. A repeated Idempotency-Key returns the
// purchase recorded the first time.
func (h *PurchaseHandler) Create(c *gin.Context) {
	var req tradeapp.CreatePurchaseRequest
	if !h.bindJSON(c, &req) {
		return
	}

	purchase, err := h.purchaseService.Create(c.Request.Context(), req, middleware.GetIdempotencyKey(c))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, purchase)
}

// List handles GET /purchases?shop_id=&product_id=&from=&to=
func (h *PurchaseHandler) List(c *gin.Context) {
	filter, ok := bindPostingFilter(&h.BaseHandler, c)
	if !ok {
		return
	}

	purchases, total, err := h.purchaseService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.SuccessWithMeta(c, purchases, total, filter.Page, filter.PageSize)
}

// Sources handles GET /purchases/sources?shop_id=
func (h *PurchaseHandler) Sources(c *gin.Context) {
	shopID, ok := h.optionalQueryUUID(c, "shop_id")
	if !ok {
		return
	}

	sources, err := h.purchaseService.Sources(c.Request.Context(), shopID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, sources)
}

// GetByID handles GET /purchases/:id
func (h *PurchaseHandler) GetByID(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	purchase, err := h.purchaseService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, purchase)
}

// Update handles PUT /purchases/:id
func (h *PurchaseHandler) Update(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req tradeapp.UpdatePurchaseRequest
	if !h.bindJSON(c, &req) {
		return
	}

	purchase, err := h.purchaseService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, purchase)
}

// Delete handles DELETE /purchases/:id
func (h *PurchaseHandler) Delete(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.purchaseService.Delete(c.Request.Context(), id); err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.NoContent(c)
}

// bindPostingFilter binds the list filter shared by purchases and sales
func bindPostingFilter(h *BaseHandler, c *gin.Context) (tradeapp.PostingListFilter, bool) {
	var filter tradeapp.PostingListFilter
	if !h.bindQuery(c, &filter) {
		return filter, false
	}
	var ok bool
	if filter.ShopID, ok = h.optionalQueryUUID(c, "shop_id"); !ok {
		return filter, false
	}
	if filter.ProductID, ok = h.optionalQueryUUID(c, "product_id"); !ok {
		return filter, false
	}
	if filter.From != nil && filter.To != nil && !filter.From.Before(*filter.To) {
		h.BadRequest(c, "from must be before to")
		return filter, false
	}
	return filter, true
}
