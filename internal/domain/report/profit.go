package report

import (
	"errors"
	"sort"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/catalog"
	"github.com/shopledger/backend/internal/domain/inventory"
	"github.com/shopledger/backend/internal/domain/shared"
	"github.com/shopledger/backend/internal/domain/trade"
	"github.com/shopspring/decimal"
)

// ProfitEntry is the profit of one product over a window. Quantities are in
// the product's inventory unit; money values are totals.
type ProfitEntry struct {
	ProductID         uuid.UUID       `json:"product_id"`
	ProductName       string          `json:"product_name"`
	InventoryUnitID   uuid.UUID       `json:"inventory_unit_id"`
	Revenue           decimal.Decimal `json:"revenue"`
	Cost              decimal.Decimal `json:"cost"`
	Profit            decimal.Decimal `json:"profit"`
	SoldQuantity      decimal.Decimal `json:"sold_quantity"`
	PurchasedQuantity decimal.Decimal `json:"purchased_quantity"`
	// MarginPerUnit is the average sale price minus the average purchase
	// price per inventory unit, zero unless both sides have activity
	MarginPerUnit decimal.Decimal `json:"margin_per_unit"`
}

// ProfitError explains why a product was left out of a report
type ProfitError struct {
	ProductID uuid.UUID `json:"product_id"`
	Code      string    `json:"code"`
	Message   string    `json:"message"`
}

// ProfitReport is a partial-failure result: products that could not be
// computed are listed in Errors and skipped, the rest are in Entries.
type ProfitReport struct {
	Window      Window          `json:"window"`
	Entries     []ProfitEntry   `json:"entries"`
	Errors      []ProfitError   `json:"errors"`
	TotalProfit decimal.Decimal `json:"total_profit"`
}

// AggregateInput is everything the aggregator reads for one shop
type AggregateInput struct {
	Products    []catalog.Product
	Inventories []inventory.InventoryRecord
	Graph       *catalog.UnitGraph
	Purchases   []trade.Purchase
	Sales       []trade.Sale
}

type accumulator struct {
	entry ProfitEntry
	err   error
}

// Aggregate computes per-product profit over w. Every product with an
// inventory record or activity in the window gets either an entry or an
// error; products without activity report zero.
func Aggregate(w Window, in AggregateInput) ProfitReport {
	names := make(map[uuid.UUID]string, len(in.Products))
	for i := range in.Products {
		names[in.Products[i].ID] = in.Products[i].DisplayName()
	}
	inventoryUnit := make(map[uuid.UUID]uuid.UUID, len(in.Inventories))
	for _, r := range in.Inventories {
		inventoryUnit[r.ProductID] = r.UnitID
	}

	acc := make(map[uuid.UUID]*accumulator)
	get := func(productID uuid.UUID) *accumulator {
		a, ok := acc[productID]
		if ok {
			return a
		}
		a = &accumulator{entry: ProfitEntry{
			ProductID:         productID,
			ProductName:       names[productID],
			Revenue:           decimal.Zero,
			Cost:              decimal.Zero,
			SoldQuantity:      decimal.Zero,
			PurchasedQuantity: decimal.Zero,
		}}
		unitID, ok := inventoryUnit[productID]
		if !ok {
			a.err = shared.ErrUnitNotDefined
		}
		a.entry.InventoryUnitID = unitID
		acc[productID] = a
		return a
	}

	for productID := range inventoryUnit {
		get(productID)
	}

	for _, p := range in.Purchases {
		if !w.Contains(p.Date) {
			continue
		}
		a := get(p.ProductID)
		if a.err != nil {
			continue
		}
		qty, err := convertQuantity(in.Graph, p.Quantity, p.UnitID, a.entry.InventoryUnitID)
		if err != nil {
			a.err = err
			continue
		}
		a.entry.PurchasedQuantity = a.entry.PurchasedQuantity.Add(qty)
		a.entry.Cost = a.entry.Cost.Add(p.TotalCost())
	}

	for _, s := range in.Sales {
		if !w.Contains(s.Date) {
			continue
		}
		a := get(s.ProductID)
		if a.err != nil {
			continue
		}
		qty, err := convertQuantity(in.Graph, s.Quantity, s.UnitID, a.entry.InventoryUnitID)
		if err != nil {
			a.err = err
			continue
		}
		a.entry.SoldQuantity = a.entry.SoldQuantity.Add(qty)
		a.entry.Revenue = a.entry.Revenue.Add(s.Revenue())
	}

	report := ProfitReport{
		Window:      w,
		Entries:     make([]ProfitEntry, 0, len(acc)),
		Errors:      make([]ProfitError, 0),
		TotalProfit: decimal.Zero,
	}
	for productID, a := range acc {
		if a.err != nil {
			report.Errors = append(report.Errors, newProfitError(productID, a.err))
			continue
		}
		e := a.entry
		e.Profit = e.Revenue.Sub(e.Cost)
		e.MarginPerUnit = decimal.Zero
		if e.SoldQuantity.IsPositive() && e.PurchasedQuantity.IsPositive() {
			e.MarginPerUnit = e.Revenue.Div(e.SoldQuantity).Sub(e.Cost.Div(e.PurchasedQuantity)).Round(inventory.QuantityScale)
		}
		report.TotalProfit = report.TotalProfit.Add(e.Profit)
		report.Entries = append(report.Entries, e)
	}

	sort.Slice(report.Entries, func(i, j int) bool {
		if report.Entries[i].ProductName != report.Entries[j].ProductName {
			return report.Entries[i].ProductName < report.Entries[j].ProductName
		}
		return report.Entries[i].ProductID.String() < report.Entries[j].ProductID.String()
	})
	sort.Slice(report.Errors, func(i, j int) bool {
		return report.Errors[i].ProductID.String() < report.Errors[j].ProductID.String()
	})
	return report
}

// ConvertProfitToUnit re-expresses a profit per inventory unit as a profit
// per target unit. Profit is a rate, so it scales inversely to quantity.
func ConvertProfitToUnit(g *catalog.UnitGraph, profitPerInventoryUnit decimal.Decimal, inventoryUnitID, targetUnitID uuid.UUID) (decimal.Decimal, error) {
	if g == nil {
		return decimal.Zero, shared.ErrUnitNotDefined
	}
	return g.ConvertRate(profitPerInventoryUnit, inventoryUnitID, targetUnitID)
}

func convertQuantity(g *catalog.UnitGraph, q decimal.Decimal, from, to uuid.UUID) (decimal.Decimal, error) {
	if g == nil {
		return decimal.Zero, shared.ErrUnitNotDefined
	}
	converted, err := g.ConvertQuantity(q, from, to)
	if err != nil {
		return decimal.Zero, err
	}
	return inventory.RoundQuantity(converted), nil
}

func newProfitError(productID uuid.UUID, err error) ProfitError {
	pe := ProfitError{ProductID: productID, Code: shared.CodeInvalidInput, Message: err.Error()}
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		pe.Code = domainErr.Code
	}
	return pe
}
