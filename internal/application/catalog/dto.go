package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// CreateProductRequest represents a request to create a new product
type CreateProductRequest struct {
	Name    string `json:"name" binding:"required,min=1,max=200"`
	Variety string `json:"variety" binding:"max=100"`
	Brand   string `json:"brand" binding:"max=100"`
	Size    string `json:"size" binding:"max=200"`
}

// UpdateProductRequest represents a request to update a product
type UpdateProductRequest struct {
	Name    string `json:"name" binding:"required,min=1,max=200"`
	Variety string `json:"variety" binding:"max=100"`
	Brand   string `json:"brand" binding:"max=100"`
	Size    string `json:"size" binding:"max=200"`
}

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Variety     string    `json:"variety"`
	Brand       string    `json:"brand"`
	Size        string    `json:"size"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Version     int       `json:"version"`
}

// ProductListFilter represents filter options for product list
type ProductListFilter struct {
	Search   string `form:"search"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ToProductResponse converts a domain Product to ProductResponse
func ToProductResponse(p *catalog.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Variety:     p.Variety,
		Brand:       p.Brand,
		Size:        p.Size,
		DisplayName: p.DisplayName(),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
		Version:     p.Version,
	}
}

// ToProductResponses converts a slice of domain products
func ToProductResponses(products []catalog.Product) []ProductResponse {
	responses := make([]ProductResponse, len(products))
	for i := range products {
		responses[i] = ToProductResponse(&products[i])
	}
	return responses
}

// CreateUnitPairRequest defines a buying unit and a selling unit at once.
// ConversionFactor is the number of selling units in one buying unit.
type CreateUnitPairRequest struct {
	ProductID          uuid.UUID       `json:"product_id" binding:"required"`
	BuyingUnitType     string          `json:"buying_unit_type" binding:"required,min=1,max=50"`
	SellingUnitType    string          `json:"selling_unit_type" binding:"required,min=1,max=50"`
	ConversionFactor   decimal.Decimal `json:"conversion_factor" binding:"required"`
	BuyingPrepackaged  bool            `json:"buying_prepackaged"`
	SellingPrepackaged bool            `json:"selling_prepackaged"`
}

// AddLinkedUnitRequest adds a unit paired with an existing unit of the same
// product. ConversionFactor is the number of existing units in one new unit.
type AddLinkedUnitRequest struct {
	ExistingUnitID   uuid.UUID       `json:"existing_unit_id" binding:"required"`
	UnitType         string          `json:"unit_type" binding:"required,min=1,max=50"`
	UnitCategory     string          `json:"unit_category" binding:"required,oneof=buying selling"`
	ConversionFactor decimal.Decimal `json:"conversion_factor" binding:"required"`
	Prepackaged      bool            `json:"prepackaged"`
}

// UpdateUnitRequest edits a unit. A non-nil ConversionFactor re-sets the
// factor to the opposite unit, making this unit the stored side of its pair.
type UpdateUnitRequest struct {
	UnitType         string           `json:"unit_type" binding:"required,min=1,max=50"`
	Prepackaged      bool             `json:"prepackaged"`
	ConversionFactor *decimal.Decimal `json:"conversion_factor"`
}

// UnitListFilter represents filter options for unit list
type UnitListFilter struct {
	ProductID *uuid.UUID `form:"-"`
	Category  string     `form:"category" binding:"omitempty,oneof=buying selling"`
	Page      int        `form:"page" binding:"omitempty,min=1"`
	PageSize  int        `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// UnitResponse represents a unit in API responses. ConversionFactor is only
// set on the side of the pair that stores it.
type UnitResponse struct {
	ID               uuid.UUID        `json:"unit_id"`
	ProductID        uuid.UUID        `json:"product_id"`
	UnitType         string           `json:"unit_type"`
	UnitCategory     string           `json:"unit_category"`
	Prepackaged      bool             `json:"prepackaged"`
	OppositeUnitID   *uuid.UUID       `json:"opposite_unit_id"`
	ConversionFactor *decimal.Decimal `json:"conversion_factor"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// UnitPairResponse is returned when a pair is created
type UnitPairResponse struct {
	BuyingUnit  UnitResponse `json:"buying_unit"`
	SellingUnit UnitResponse `json:"selling_unit"`
}

// UnitInfoResponse describes a unit together with its opposite unit and the
// factor in both directions, for display
type UnitInfoResponse struct {
	UnitResponse
	OppositeUnitType string           `json:"opposite_unit_type,omitempty"`
	FactorToOpposite *decimal.Decimal `json:"factor_to_opposite,omitempty"`
}

// ProductUnitsInfoResponse lists the units of a product
type ProductUnitsInfoResponse struct {
	ProductID    uuid.UUID          `json:"product_id"`
	BuyingUnits  []UnitInfoResponse `json:"buying_units"`
	SellingUnits []UnitInfoResponse `json:"selling_units"`
}

// ToUnitResponse converts a domain Unit to UnitResponse
func ToUnitResponse(u *catalog.Unit) UnitResponse {
	return UnitResponse{
		ID:               u.ID,
		ProductID:        u.ProductID,
		UnitType:         u.TypeName,
		UnitCategory:     string(u.Category),
		Prepackaged:      u.Prepackaged,
		OppositeUnitID:   u.OppositeUnitID,
		ConversionFactor: u.ConversionFactor,
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
	}
}

// ToUnitResponses converts a slice of domain units
func ToUnitResponses(units []catalog.Unit) []UnitResponse {
	responses := make([]UnitResponse, len(units))
	for i := range units {
		responses[i] = ToUnitResponse(&units[i])
	}
	return responses
}

// ConversionRequest asks for a value converted between two units
type ConversionRequest struct {
	Value      decimal.Decimal `json:"value" binding:"required"`
	FromUnitID uuid.UUID       `json:"from_unit_id" binding:"required"`
	ToUnitID   uuid.UUID       `json:"to_unit_id" binding:"required"`
	Mode       string          `json:"mode" binding:"omitempty,oneof=quantity rate"`
}

// ConversionResponse carries the converted value and the factor used
type ConversionResponse struct {
	Value      decimal.Decimal `json:"value"`
	Converted  decimal.Decimal `json:"converted"`
	FromUnitID uuid.UUID       `json:"from_unit_id"`
	ToUnitID   uuid.UUID       `json:"to_unit_id"`
	Mode       string          `json:"mode"`
	Factor     decimal.Decimal `json:"factor"`
}
