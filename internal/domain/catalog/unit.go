package catalog

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// UnitCategory says whether a unit is used to buy stock or to sell it
type UnitCategory string

const (
	UnitCategoryBuying  UnitCategory = "buying"
	UnitCategorySelling UnitCategory = "selling"
)

// IsValid reports whether c is a known category
func (c UnitCategory) IsValid() bool {
	return c == UnitCategoryBuying || c == UnitCategorySelling
}

// Unit is a named measure of one product ("bag", "kg", "crate").
//
// A unit is paired with exactly one opposite unit of the same product.
// Only one side of a pair stores the factor: ConversionFactor is the number
// of opposite units in one of this unit. The other side keeps a nil factor
// and OppositeUnitID pointing back; its factor is derived by division.
type Unit struct {
	shared.BaseEntity
	ProductID        uuid.UUID
	TypeName         string
	Category         UnitCategory
	Prepackaged      bool
	OppositeUnitID   *uuid.UUID
	ConversionFactor *decimal.Decimal
}

// NewUnit creates an unpaired unit for a product
func NewUnit(productID uuid.UUID, typeName string, category UnitCategory, prepackaged bool) (*Unit, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Unit must belong to a product")
	}
	if err := validateTypeName(typeName); err != nil {
		return nil, err
	}
	if !category.IsValid() {
		return nil, shared.NewDomainError("INVALID_CATEGORY", "Unit category must be 'buying' or 'selling'")
	}

	return &Unit{
		BaseEntity:  shared.NewBaseEntity(),
		ProductID:   productID,
		TypeName:    strings.TrimSpace(typeName),
		Category:    category,
		Prepackaged: prepackaged,
	}, nil
}

// NewUnitPair creates a buying unit and a selling unit paired by factor,
// the number of selling units in one buying unit (1 bag = 50 kg -> 50).
// The factor is stored on the buying unit.
func NewUnitPair(productID uuid.UUID, buyingType, sellingType string, factor decimal.Decimal, buyingPrepackaged, sellingPrepackaged bool) (*Unit, *Unit, error) {
	if err := ValidateConversionFactor(factor); err != nil {
		return nil, nil, err
	}
	if strings.EqualFold(strings.TrimSpace(buyingType), strings.TrimSpace(sellingType)) {
		return nil, nil, shared.NewDomainError("DUPLICATE_UNIT", "Buying and selling unit types must differ")
	}

	buying, err := NewUnit(productID, buyingType, UnitCategoryBuying, buyingPrepackaged)
	if err != nil {
		return nil, nil, err
	}
	selling, err := NewUnit(productID, sellingType, UnitCategorySelling, sellingPrepackaged)
	if err != nil {
		return nil, nil, err
	}
	if err := buying.PairWith(selling, factor); err != nil {
		return nil, nil, err
	}
	return buying, selling, nil
}

// PairWith stores factor (opposite units per one of u) on u and points u at
// opposite. If opposite is not paired yet it is pointed back at u.
func (u *Unit) PairWith(opposite *Unit, factor decimal.Decimal) error {
	if err := ValidateConversionFactor(factor); err != nil {
		return err
	}
	if opposite == nil || opposite.ID == u.ID {
		return shared.NewDomainError(shared.CodeInvalidInput, "A unit cannot be paired with itself")
	}
	if opposite.ProductID != u.ProductID {
		return shared.NewDomainError(shared.CodeIncompatibleUnits, "Paired units must belong to the same product")
	}

	oppID := opposite.ID
	f := factor
	u.OppositeUnitID = &oppID
	u.ConversionFactor = &f
	u.UpdatedAt = time.Now()

	if opposite.OppositeUnitID == nil {
		selfID := u.ID
		opposite.OppositeUnitID = &selfID
		opposite.UpdatedAt = time.Now()
	}
	return nil
}

// StoresFactor reports whether this unit owns the stored side of its pair
func (u *Unit) StoresFactor() bool {
	return u.ConversionFactor != nil && u.OppositeUnitID != nil
}

// ReleaseFactor drops the stored factor, leaving u as the derived side.
func (u *Unit) ReleaseFactor() {
	u.ConversionFactor = nil
	u.UpdatedAt = time.Now()
}

// FactorToOpposite returns how many opposite units make one of u, deriving
// the value from the opposite's stored factor when u does not store one.
func (u *Unit) FactorToOpposite(opposite *Unit) (decimal.Decimal, bool) {
	if u.OppositeUnitID == nil || opposite == nil || *u.OppositeUnitID != opposite.ID {
		return decimal.Zero, false
	}
	if u.ConversionFactor != nil {
		return *u.ConversionFactor, true
	}
	if opposite.ConversionFactor != nil && opposite.OppositeUnitID != nil && *opposite.OppositeUnitID == u.ID {
		return decimal.NewFromInt(1).Div(*opposite.ConversionFactor), true
	}
	return decimal.Zero, false
}

// Unpair detaches u from its opposite unit
func (u *Unit) Unpair() {
	u.OppositeUnitID = nil
	u.ConversionFactor = nil
	u.UpdatedAt = time.Now()
}

// Rename changes the type name and prepackaged flag
func (u *Unit) Rename(typeName string, prepackaged bool) error {
	if err := validateTypeName(typeName); err != nil {
		return err
	}
	u.TypeName = strings.TrimSpace(typeName)
	u.Prepackaged = prepackaged
	u.UpdatedAt = time.Now()
	return nil
}

// ValidateConversionFactor rejects zero and negative factors
func ValidateConversionFactor(factor decimal.Decimal) error {
	if !factor.IsPositive() {
		return shared.ErrInvalidConversionFactor
	}
	return nil
}

func validateTypeName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_UNIT_TYPE", "Unit type cannot be empty")
	}
	if len(name) > 50 {
		return shared.NewDomainError("INVALID_UNIT_TYPE", "Unit type cannot exceed 50 characters")
	}
	return nil
}
