package report

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/catalog"
	"github.com/shopledger/backend/internal/domain/inventory"
	"github.com/shopledger/backend/internal/domain/report"
	"github.com/shopledger/backend/internal/domain/trade"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProfitService builds profit reports for a shop from its postings
type ProfitService struct {
	productRepo   catalog.ProductRepository
	unitRepo      catalog.UnitRepository
	inventoryRepo inventory.InventoryRecordRepository
	purchaseRepo  trade.PurchaseRepository
	saleRepo      trade.SaleRepository
	weekStart     time.Weekday
	location      *time.Location
	logger        *zap.Logger
}

// NewProfitService creates a new ProfitService. Weeks start on Monday in
// UTC unless configured otherwise.
func NewProfitService(
	productRepo catalog.ProductRepository,
	unitRepo catalog.UnitRepository,
	inventoryRepo inventory.InventoryRecordRepository,
	purchaseRepo trade.PurchaseRepository,
	saleRepo trade.SaleRepository,
	logger *zap.Logger,
) *ProfitService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfitService{
		productRepo:   productRepo,
		unitRepo:      unitRepo,
		inventoryRepo: inventoryRepo,
		purchaseRepo:  purchaseRepo,
		saleRepo:      saleRepo,
		weekStart:     time.Monday,
		location:      time.UTC,
		logger:        logger,
	}
}

// WithCalendar sets the first day of the week and the time zone weeks are cut in
func (s *ProfitService) WithCalendar(weekStart time.Weekday, location *time.Location) *ProfitService {
	s.weekStart = weekStart
	if location != nil {
		s.location = location
	}
	return s
}

// ProductTotals are the all-time quantities of one product in its inventory unit
type ProductTotals struct {
	ProductID         uuid.UUID       `json:"product_id"`
	ProductName       string          `json:"product_name"`
	InventoryUnitID   uuid.UUID       `json:"inventory_unit_id"`
	PurchasedQuantity decimal.Decimal `json:"purchased_quantity"`
	SoldQuantity      decimal.Decimal `json:"sold_quantity"`
}

// OverviewResponse compares the current week with the one before and
// lists all-time quantities per product
type OverviewResponse struct {
	ShopID       uuid.UUID            `json:"shop_id"`
	GeneratedAt  time.Time            `json:"generated_at"`
	ThisWeek     report.ProfitReport  `json:"this_week"`
	PreviousWeek report.ProfitReport  `json:"previous_week"`
	Totals       []ProductTotals      `json:"totals"`
	Errors       []report.ProfitError `json:"errors"`
}

// ProfitConversionQuery asks for a profit per inventory unit in another unit
type ProfitConversionQuery struct {
	Profit          decimal.Decimal `form:"profit" binding:"required"`
	InventoryUnitID uuid.UUID       `form:"-"`
	TargetUnitID    uuid.UUID       `form:"-"`
}

// ProfitConversionResponse is a profit re-expressed per target unit
type ProfitConversionResponse struct {
	Profit          decimal.Decimal `json:"profit"`
	InventoryUnitID uuid.UUID       `json:"inventory_unit_id"`
	TargetUnitID    uuid.UUID       `json:"target_unit_id"`
	ConvertedProfit decimal.Decimal `json:"converted_profit"`
}

// Overview returns the profit of the week containing now, the week before
// it, and the all-time purchased and sold quantities of every product of
// the shop. Products that cannot be converted are reported in Errors.
func (s *ProfitService) Overview(ctx context.Context, shopID uuid.UUID, now time.Time) (*OverviewResponse, error) {
	in, err := s.load(ctx, shopID)
	if err != nil {
		return nil, err
	}

	thisWeek := report.CalendarWeek(now.In(s.location), s.weekStart)
	allTime := report.Aggregate(report.Unbounded(), in)

	overview := &OverviewResponse{
		ShopID:       shopID,
		GeneratedAt:  now,
		ThisWeek:     report.Aggregate(thisWeek, in),
		PreviousWeek: report.Aggregate(thisWeek.Previous(), in),
		Totals:       make([]ProductTotals, 0, len(allTime.Entries)),
		Errors:       allTime.Errors,
	}
	for _, e := range allTime.Entries {
		overview.Totals = append(overview.Totals, ProductTotals{
			ProductID:         e.ProductID,
			ProductName:       e.ProductName,
			InventoryUnitID:   e.InventoryUnitID,
			PurchasedQuantity: e.PurchasedQuantity,
			SoldQuantity:      e.SoldQuantity,
		})
	}

	if len(allTime.Errors) > 0 {
		s.logger.Warn("products left out of profit overview",
			zap.String("shop_id", shopID.String()),
			zap.Int("count", len(allTime.Errors)),
		)
	}
	return overview, nil
}

// Profit aggregates one window for a shop
func (s *ProfitService) Profit(ctx context.Context, shopID uuid.UUID, window report.Window) (*report.ProfitReport, error) {
	in, err := s.load(ctx, shopID)
	if err != nil {
		return nil, err
	}
	result := report.Aggregate(window, in)
	return &result, nil
}

// ConvertProfitToUnit re-expresses a profit per inventory unit per target unit
func (s *ProfitService) ConvertProfitToUnit(ctx context.Context, query ProfitConversionQuery) (*ProfitConversionResponse, error) {
	unit, err := s.unitRepo.FindByID(ctx, query.InventoryUnitID)
	if err != nil {
		return nil, err
	}
	units, err := s.unitRepo.FindByProductID(ctx, unit.ProductID)
	if err != nil {
		return nil, err
	}
	converted, err := report.ConvertProfitToUnit(catalog.NewUnitGraph(units), query.Profit, query.InventoryUnitID, query.TargetUnitID)
	if err != nil {
		return nil, err
	}
	return &ProfitConversionResponse{
		Profit:          query.Profit,
		InventoryUnitID: query.InventoryUnitID,
		TargetUnitID:    query.TargetUnitID,
		ConvertedProfit: converted,
	}, nil
}

func (s *ProfitService) load(ctx context.Context, shopID uuid.UUID) (report.AggregateInput, error) {
	var in report.AggregateInput
	var err error

	if in.Inventories, err = s.inventoryRepo.FindByShop(ctx, shopID); err != nil {
		return in, err
	}
	if in.Purchases, err = s.purchaseRepo.FindByShop(ctx, shopID); err != nil {
		return in, err
	}
	if in.Sales, err = s.saleRepo.FindByShop(ctx, shopID); err != nil {
		return in, err
	}

	seen := make(map[uuid.UUID]bool)
	productIDs := make([]uuid.UUID, 0, len(in.Inventories))
	add := func(id uuid.UUID) {
		if !seen[id] {
			seen[id] = true
			productIDs = append(productIDs, id)
		}
	}
	for _, r := range in.Inventories {
		add(r.ProductID)
	}
	for _, p := range in.Purchases {
		add(p.ProductID)
	}
	for _, sale := range in.Sales {
		add(sale.ProductID)
	}
	if len(productIDs) == 0 {
		in.Graph = catalog.NewUnitGraph(nil)
		return in, nil
	}

	if in.Products, err = s.productRepo.FindByIDs(ctx, productIDs); err != nil {
		return in, err
	}
	units, err := s.unitRepo.FindByProductIDs(ctx, productIDs)
	if err != nil {
		return in, err
	}
	in.Graph = catalog.NewUnitGraph(units)
	return in, nil
}
