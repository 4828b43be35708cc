package handler

import (
	"github.com/gin-gonic/gin"

	catalogapp "github.com/shopledger/backend/internal/application/catalog"
)

// UnitHandler handles unit and pairing endpoints
type UnitHandler struct {
	BaseHandler
	unitService *catalogapp.UnitService
}

// NewUnitHandler creates a new UnitHandler
func NewUnitHandler(unitService *catalogapp.UnitService) *UnitHandler {
	return &UnitHandler{unitService: unitService}
}

// CreatePair handles POST /units
func (h *UnitHandler) CreatePair(c *gin.Context) {
	var req catalogapp.CreateUnitPairRequest
	if !h.bindJSON(c, &req) {
		return
	}

	pair, err := h.unitService.CreatePair(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, pair)
}

// AddLinked handles POST /units/linked
func (h *UnitHandler) AddLinked(c *gin.Context) {
	var req catalogapp.AddLinkedUnitRequest
	if !h.bindJSON(c, &req) {
		return
	}

	unit, err := h.unitService.AddLinked(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, unit)
}

// List handles GET /units?product_id=&category=
func (h *UnitHandler) List(c *gin.Context) {
	var filter catalogapp.UnitListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	productID, ok := h.optionalQueryUUID(c, "product_id")
	if !ok {
		return
	}
	filter.ProductID = productID

	units, total, err := h.unitService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.SuccessWithMeta(c, units, total, filter.Page, filter.PageSize)
}

// GetByID handles GET /units/:id
func (h *UnitHandler) GetByID(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	unit, err := h.unitService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, unit)
}

// Paired handles GET /units/:id/paired
func (h *UnitHandler) Paired(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	unit, err := h.unitService.PairedUnit(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, unit)
}

// ListByProduct handles GET /units/product/:product_id
func (h *UnitHandler) ListByProduct(c *gin.Context) {
	productID, ok := h.pathUUID(c, "product_id")
	if !ok {
		return
	}

	units, err := h.unitService.ListByProduct(c.Request.Context(), productID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, units)
}

// Info handles GET /units/product/:product_id/info
func (h *UnitHandler) Info(c *gin.Context) {
	productID, ok := h.pathUUID(c, "product_id")
	if !ok {
		return
	}

	info, err := h.unitService.Info(c.Request.Context(), productID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, info)
}

// Update handles PUT /units/:id
func (h *UnitHandler) Update(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req catalogapp.UpdateUnitRequest
	if !h.bindJSON(c, &req) {
		return
	}

	unit, err := h.unitService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, unit)
}

// Delete handles DELETE /units/:id
func (h *UnitHandler) Delete(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.unitService.Delete(c.Request.Context(), id); err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.NoContent(c)
}
