package trade

import (
	"time"

	"github.com/shopledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Sale is stock sold to a customer, recorded in one of the product's
// selling units at a retail price per that unit.
type Sale struct {
	shared.BaseAggregateRoot
	Posting
	IdempotencyKey string
}

// NewSale creates a sale record
func NewSale(posting Posting) (*Sale, error) {
	if err := posting.validate(); err != nil {
		return nil, err
	}

	return &Sale{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Posting:           posting.normalized(),
	}, nil
}

// Amend replaces the posting details. Product and shop cannot change.
func (s *Sale) Amend(posting Posting) error {
	if posting.ProductID != s.ProductID || posting.ShopID != s.ShopID {
		return shared.NewDomainError(shared.CodeInvalidInput, "Product and shop of a sale cannot be changed")
	}
	if err := posting.validate(); err != nil {
		return err
	}

	s.Posting = posting.normalized()
	s.UpdatedAt = time.Now()
	s.IncrementVersion()
	return nil
}

// Revenue returns quantity times retail price
func (s *Sale) Revenue() decimal.Decimal {
	return s.Amount()
}
