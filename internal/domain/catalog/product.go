package catalog

import (
	"strings"
	"time"

	"github.com/shopledger/backend/internal/domain/shared"
)

// Product is a sellable item. Two products with the same name but a different
// variety or brand are distinct.
type Product struct {
	shared.BaseAggregateRoot
	Name    string
	Variety string
	Brand   string
	Size    string // free-text size/description, e.g. "5kg sack"
}

// ProductKey is the normalized identity tuple of a product.
type ProductKey struct {
	Name    string
	Variety string
	Brand   string
}

// NewProduct creates a new product
func NewProduct(name, variety, brand, size string) (*Product, error) {
	if err := validateProductName(name); err != nil {
		return nil, err
	}
	if err := validateOptionalField("variety", variety); err != nil {
		return nil, err
	}
	if err := validateOptionalField("brand", brand); err != nil {
		return nil, err
	}

	return &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              strings.TrimSpace(name),
		Variety:           strings.TrimSpace(variety),
		Brand:             strings.TrimSpace(brand),
		Size:              strings.TrimSpace(size),
	}, nil
}

// Update replaces the descriptive fields. The caller must re-check identity
// uniqueness when Key() changes.
func (p *Product) Update(name, variety, brand, size string) error {
	if err := validateProductName(name); err != nil {
		return err
	}
	if err := validateOptionalField("variety", variety); err != nil {
		return err
	}
	if err := validateOptionalField("brand", brand); err != nil {
		return err
	}

	p.Name = strings.TrimSpace(name)
	p.Variety = strings.TrimSpace(variety)
	p.Brand = strings.TrimSpace(brand)
	p.Size = strings.TrimSpace(size)
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	return nil
}

// Key returns the case-insensitive identity tuple.
func (p *Product) Key() ProductKey {
	return NewProductKey(p.Name, p.Variety, p.Brand)
}

// NewProductKey normalizes an identity tuple for comparison.
func NewProductKey(name, variety, brand string) ProductKey {
	return ProductKey{
		Name:    strings.ToLower(strings.TrimSpace(name)),
		Variety: strings.ToLower(strings.TrimSpace(variety)),
		Brand:   strings.ToLower(strings.TrimSpace(brand)),
	}
}

// DisplayName renders "name - variety (brand)" for listings only. Never parse it back.
func (p *Product) DisplayName() string {
	var b strings.Builder
	b.WriteString(p.Name)
	if p.Variety != "" {
		b.WriteString(" - ")
		b.WriteString(p.Variety)
	}
	if p.Brand != "" {
		b.WriteString(" (")
		b.WriteString(p.Brand)
		b.WriteString(")")
	}
	return b.String()
}

func validateProductName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot exceed 200 characters")
	}
	return nil
}

func validateOptionalField(field, value string) error {
	if len(strings.TrimSpace(value)) > 100 {
		return shared.NewDomainError("INVALID_"+strings.ToUpper(field), "Product "+field+" cannot exceed 100 characters")
	}
	return nil
}
