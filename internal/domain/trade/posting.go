package trade

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PriceScale is the number of fractional digits kept for stored prices.
const PriceScale = 4

// Posting holds the fields shared by purchases and sales: a quantity of a
// product in one of its units, at a price per that unit, on a date.
type Posting struct {
	ProductID uuid.UUID
	ShopID    uuid.UUID
	UnitID    uuid.UUID
	Quantity  decimal.Decimal
	Price     decimal.Decimal
	Date      time.Time
}

// Amount returns quantity times price
func (p Posting) Amount() decimal.Decimal {
	return p.Quantity.Mul(p.Price)
}

func (p Posting) validate() error {
	if p.ProductID == uuid.Nil {
		return shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if p.ShopID == uuid.Nil {
		return shared.NewDomainError("INVALID_SHOP", "Shop ID cannot be empty")
	}
	if p.UnitID == uuid.Nil {
		return shared.ErrUnitNotDefined
	}
	if !p.Quantity.IsPositive() {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if p.Price.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
	}
	if p.Date.IsZero() {
		return shared.NewDomainError("INVALID_DATE", "Date is required")
	}
	return nil
}

func (p Posting) normalized() Posting {
	p.Quantity = p.Quantity.Round(8)
	p.Price = p.Price.Round(PriceScale)
	return p
}
