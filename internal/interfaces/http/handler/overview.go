package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	reportapp "github.com/shopledger/backend/internal/application/report"
	"github.com/shopledger/backend/internal/domain/report"
)

// OverviewHandler serves profit reports
type OverviewHandler struct {
	BaseHandler
	profitService *reportapp.ProfitService
	now           func() time.Time
}

// NewOverviewHandler creates a new OverviewHandler
func NewOverviewHandler(profitService *reportapp.ProfitService) *OverviewHandler {
	return &OverviewHandler{profitService: profitService, now: time.Now}
}

// profitWindowQuery bounds a profit report; either end may be left open
type profitWindowQuery struct {
	From *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To   *time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
}

// Overview handles GET /overview?shop_id=
func (h *OverviewHandler) Overview(c *gin.Context) {
	shopID, ok := h.queryUUID(c, "shop_id")
	if !ok {
		return
	}

	overview, err := h.profitService.Overview(c.Request.Context(), shopID, h.now())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, overview)
}

// Profit handles GET /overview/profit?shop_id=&from=&to=
func (h *OverviewHandler) Profit(c *gin.Context) {
	shopID, ok := h.queryUUID(c, "shop_id")
	if !ok {
		return
	}
	var query profitWindowQuery
	if !h.bindQuery(c, &query) {
		return
	}

	window := report.Unbounded()
	if query.From != nil {
		window.Start = *query.From
	}
	if query.To != nil {
		window.End = *query.To
	}
	if query.From != nil && query.To != nil && !window.Start.Before(window.End) {
		h.BadRequest(c, "from must be before to")
		return
	}

	result, err := h.profitService.Profit(c.Request.Context(), shopID, window)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, result)
}

// ProfitConversion handles
// GET /overview/profit-conversion?profit=&inventory_unit_id=&target_unit_id=
func (h *OverviewHandler) ProfitConversion(c *gin.Context) {
	var query reportapp.ProfitConversionQuery
	if !h.bindQuery(c, &query) {
		return
	}
	var ok bool
	if query.InventoryUnitID, ok = h.queryUUID(c, "inventory_unit_id"); !ok {
		return
	}
	if query.TargetUnitID, ok = h.queryUUID(c, "target_unit_id"); !ok {
		return
	}

	result, err := h.profitService.ConvertProfitToUnit(c.Request.Context(), query)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, result)
}
