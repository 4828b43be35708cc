package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/trade"
	"github.com/shopspring/decimal"
)

// PostingColumns are the columns shared by purchases and sales.
type PostingColumns struct {
	ProductID uuid.UUID       `gorm:"type:uuid;not null;index"`
	ShopID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	UnitID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	Quantity  decimal.Decimal `gorm:"type:numeric(24,8);not null"`
	Price     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

func (c PostingColumns) toPosting(date time.Time) trade.Posting {
	return trade.Posting{
		ProductID: c.ProductID,
		ShopID:    c.ShopID,
		UnitID:    c.UnitID,
		Quantity:  c.Quantity,
		Price:     c.Price,
		Date:      date,
	}
}

func postingColumns(p trade.Posting) PostingColumns {
	return PostingColumns{
		ProductID: p.ProductID,
		ShopID:    p.ShopID,
		UnitID:    p.UnitID,
		Quantity:  p.Quantity,
		Price:     p.Price,
	}
}

// nullableKey stores an empty idempotency key as NULL so the unique index
// only covers real keys.
func nullableKey(key string) *string {
	if key == "" {
		return nil
	}
	return &key
}

func keyValue(key *string) string {
	if key == nil {
		return ""
	}
	return *key
}

// PurchaseModel is the persistence model for the Purchase aggregate.
type PurchaseModel struct {
	AggregateModel
	PostingColumns `gorm:"embedded"`
	PurchaseDate   time.Time `gorm:"not null;index"`
	SupplierName   string    `gorm:"type:varchar(200);not null;default:''"`
	MarketName     string    `gorm:"type:varchar(200);not null;default:''"`
	IdempotencyKey *string   `gorm:"type:varchar(100);uniqueIndex"`
}

// TableName returns the table name for GORM
func (PurchaseModel) TableName() string {
	return "purchases"
}

// ToDomain converts the persistence model to a domain Purchase
func (m *PurchaseModel) ToDomain() *trade.Purchase {
	return &trade.Purchase{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Posting:           m.toPosting(m.PurchaseDate),
		SupplierName:      m.SupplierName,
		MarketName:        m.MarketName,
		IdempotencyKey:    keyValue(m.IdempotencyKey),
	}
}

// FromDomain populates the persistence model from a domain Purchase
func (m *PurchaseModel) FromDomain(p *trade.Purchase) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.PostingColumns = postingColumns(p.Posting)
	m.PurchaseDate = p.Date
	m.SupplierName = p.SupplierName
	m.MarketName = p.MarketName
	m.IdempotencyKey = nullableKey(p.IdempotencyKey)
}

// PurchaseModelFromDomain creates a new PurchaseModel from a domain Purchase
func PurchaseModelFromDomain(p *trade.Purchase) *PurchaseModel {
	m := &PurchaseModel{}
	m.FromDomain(p)
	return m
}

// SaleModel is the persistence model for the Sale aggregate.
type SaleModel struct {
	AggregateModel
	PostingColumns `gorm:"embedded"`
	SaleDate       time.Time `gorm:"not null;index"`
	IdempotencyKey *string   `gorm:"type:varchar(100);uniqueIndex"`
}

// TableName returns the table name for GORM
func (SaleModel) TableName() string {
	return "sales"
}

// ToDomain converts the persistence model to a domain Sale
func (m *SaleModel) ToDomain() *trade.Sale {
	return &trade.Sale{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Posting:           m.toPosting(m.SaleDate),
		IdempotencyKey:    keyValue(m.IdempotencyKey),
	}
}

// FromDomain populates the persistence model from a domain Sale
func (m *SaleModel) FromDomain(s *trade.Sale) {
	m.FromDomainAggregateRoot(s.BaseAggregateRoot)
	m.PostingColumns = postingColumns(s.Posting)
	m.SaleDate = s.Date
	m.IdempotencyKey = nullableKey(s.IdempotencyKey)
}

// SaleModelFromDomain creates a new SaleModel from a domain Sale
func SaleModelFromDomain(s *trade.Sale) *SaleModel {
	m := &SaleModel{}
	m.FromDomain(s)
	return m
}
