package handler

import (
	"github.com/gin-gonic/gin"

	inventoryapp "github.com/shopledger/backend/internal/application/inventory"
)

// InventoryHandler handles inventory record endpoints
type InventoryHandler struct {
	BaseHandler
	inventoryService *inventoryapp.InventoryService
}

// NewInventoryHandler creates a new InventoryHandler
func NewInventoryHandler(inventoryService *inventoryapp.InventoryService) *InventoryHandler {
	return &InventoryHandler{inventoryService: inventoryService}
}

// Setup handles POST /inventories
func (h *InventoryHandler) Setup(c *gin.Context) {
	var req inventoryapp.SetupInventoryRequest
	if !h.bindJSON(c, &req) {
		return
	}

	record, err := h.inventoryService.Setup(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, record)
}

// List handles GET /inventories?shop_id=&product_id=&low_stock=
func (h *InventoryHandler) List(c *gin.Context) {
	var filter inventoryapp.InventoryListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	var ok bool
	if filter.ShopID, ok = h.optionalQueryUUID(c, "shop_id"); !ok {
		return
	}
	if filter.ProductID, ok = h.optionalQueryUUID(c, "product_id"); !ok {
		return
	}

	records, total, err := h.inventoryService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.SuccessWithMeta(c, records, total, filter.Page, filter.PageSize)
}

// GetByID handles GET /inventories/:id
func (h *InventoryHandler) GetByID(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	record, err := h.inventoryService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, record)
}

// Reconcile handles POST /inventories/:id/reconcile
func (h *InventoryHandler) Reconcile(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req inventoryapp.ReconcileRequest
	if !h.bindJSON(c, &req) {
		return
	}

	record, err := h.inventoryService.Reconcile(c.Request.Context(), id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, record)
}

// SetStockLimit handles PUT /inventories/:id/stock-limit
func (h *InventoryHandler) SetStockLimit(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req inventoryapp.SetStockLimitRequest
	if !h.bindJSON(c, &req) {
		return
	}

	record, err := h.inventoryService.SetStockLimit(c.Request.Context(), id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, record)
}

// Display handles GET /inventories/:id/display?unit_id=
func (h *InventoryHandler) Display(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	unitID, ok := h.queryUUID(c, "unit_id")
	if !ok {
		return
	}

	display, err := h.inventoryService.ConvertDisplayUnit(c.Request.Context(), id, unitID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, display)
}

// Movements handles GET /inventories/:id/movements
func (h *InventoryHandler) Movements(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var filter inventoryapp.MovementListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	movements, total, err := h.inventoryService.Movements(c.Request.Context(), id, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.SuccessWithMeta(c, movements, total, filter.Page, filter.PageSize)
}

// Delete handles DELETE /inventories/:id
func (h *InventoryHandler) Delete(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.inventoryService.Delete(c.Request.Context(), id); err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.NoContent(c)
}
