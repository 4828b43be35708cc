package models

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// ProductModel is the persistence model for the Product aggregate.
// The *Key columns hold the lower-cased identity tuple and carry the
// uniqueness constraint.
type ProductModel struct {
	AggregateModel
	Name       string `gorm:"type:varchar(200);not null"`
	Variety    string `gorm:"type:varchar(100);not null;default:''"`
	Brand      string `gorm:"type:varchar(100);not null;default:''"`
	Size       string `gorm:"type:varchar(100);not null;default:''"`
	NameKey    string `gorm:"type:varchar(200);not null;uniqueIndex:idx_products_identity,priority:1"`
	VarietyKey string `gorm:"type:varchar(100);not null;uniqueIndex:idx_products_identity,priority:2"`
	BrandKey   string `gorm:"type:varchar(100);not null;uniqueIndex:idx_products_identity,priority:3"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product
func (m *ProductModel) ToDomain() *catalog.Product {
	return &catalog.Product{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Name:              m.Name,
		Variety:           m.Variety,
		Brand:             m.Brand,
		Size:              m.Size,
	}
}

// FromDomain populates the persistence model from a domain Product
func (m *ProductModel) FromDomain(p *catalog.Product) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.Name = p.Name
	m.Variety = p.Variety
	m.Brand = p.Brand
	m.Size = p.Size
	key := p.Key()
	m.NameKey = key.Name
	m.VarietyKey = key.Variety
	m.BrandKey = key.Brand
}

// ProductModelFromDomain creates a new ProductModel from a domain Product
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{}
	m.FromDomain(p)
	return m
}

// UnitModel is the persistence model for the Unit entity.
type UnitModel struct {
	BaseModel
	ProductID        uuid.UUID            `gorm:"type:uuid;not null;uniqueIndex:idx_units_product_type,priority:1"`
	TypeName         string               `gorm:"type:varchar(50);not null"`
	TypeKey          string               `gorm:"type:varchar(50);not null;uniqueIndex:idx_units_product_type,priority:2"`
	Category         catalog.UnitCategory `gorm:"type:varchar(10);not null"`
	Prepackaged      bool                 `gorm:"not null;default:false"`
	OppositeUnitID   *uuid.UUID           `gorm:"type:uuid"`
	ConversionFactor decimal.NullDecimal  `gorm:"type:numeric(24,8)"`
}

// TableName returns the table name for GORM
func (UnitModel) TableName() string {
	return "units"
}

// ToDomain converts the persistence model to a domain Unit
func (m *UnitModel) ToDomain() *catalog.Unit {
	u := &catalog.Unit{
		BaseEntity:     m.BaseModel.ToDomain(),
		ProductID:      m.ProductID,
		TypeName:       m.TypeName,
		Category:       m.Category,
		Prepackaged:    m.Prepackaged,
		OppositeUnitID: m.OppositeUnitID,
	}
	if m.ConversionFactor.Valid {
		f := m.ConversionFactor.Decimal
		u.ConversionFactor = &f
	}
	return u
}

// FromDomain populates the persistence model from a domain Unit
func (m *UnitModel) FromDomain(u *catalog.Unit) {
	m.FromDomainBaseEntity(u.BaseEntity)
	m.ProductID = u.ProductID
	m.TypeName = u.TypeName
	m.TypeKey = strings.ToLower(u.TypeName)
	m.Category = u.Category
	m.Prepackaged = u.Prepackaged
	m.OppositeUnitID = u.OppositeUnitID
	m.ConversionFactor = decimal.NullDecimal{}
	if u.ConversionFactor != nil {
		m.ConversionFactor = decimal.NewNullDecimal(*u.ConversionFactor)
	}
}

// UnitModelFromDomain creates a new UnitModel from a domain Unit
func UnitModelFromDomain(u *catalog.Unit) *UnitModel {
	m := &UnitModel{}
	m.FromDomain(u)
	return m
}
