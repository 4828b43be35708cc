package trade

import (
	"strings"
	"time"

	"github.com/shopledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Purchase is stock bought from a supplier or a market, recorded in one of
// the product's buying units at an order price per that unit.
type Purchase struct {
	shared.BaseAggregateRoot
	Posting
	SupplierName   string
	MarketName     string
	IdempotencyKey string
}

// NewPurchase creates a purchase record. SupplierName and MarketName are
// mutually exclusive.
func NewPurchase(posting Posting, supplierName, marketName string) (*Purchase, error) {
	if err := posting.validate(); err != nil {
		return nil, err
	}
	if err := validateSource(supplierName, marketName); err != nil {
		return nil, err
	}

	return &Purchase{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Posting:           posting.normalized(),
		SupplierName:      strings.TrimSpace(supplierName),
		MarketName:        strings.TrimSpace(marketName),
	}, nil
}

// Amend replaces the posting details. Product and shop cannot change.
func (p *Purchase) Amend(posting Posting, supplierName, marketName string) error {
	if posting.ProductID != p.ProductID || posting.ShopID != p.ShopID {
		return shared.NewDomainError(shared.CodeInvalidInput, "Product and shop of a purchase cannot be changed")
	}
	if err := posting.validate(); err != nil {
		return err
	}
	if err := validateSource(supplierName, marketName); err != nil {
		return err
	}

	p.Posting = posting.normalized()
	p.SupplierName = strings.TrimSpace(supplierName)
	p.MarketName = strings.TrimSpace(marketName)
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	return nil
}

// TotalCost returns quantity times order price
func (p *Purchase) TotalCost() decimal.Decimal {
	return p.Amount()
}

// Purchase source types
const (
	SourceSupplier = "supplier"
	SourceMarket   = "market"
)

// PurchaseSource is a supplier or market that stock was bought from
type PurchaseSource struct {
	Name string
	Type string
}

func validateSource(supplierName, marketName string) error {
	supplierName = strings.TrimSpace(supplierName)
	marketName = strings.TrimSpace(marketName)
	if supplierName != "" && marketName != "" {
		return shared.NewDomainError("INVALID_SOURCE", "A purchase comes from either a supplier or a market, not both")
	}
	if len(supplierName) > 200 || len(marketName) > 200 {
		return shared.NewDomainError("INVALID_SOURCE", "Supplier or market name cannot exceed 200 characters")
	}
	return nil
}
