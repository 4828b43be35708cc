package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// ProductSortFields contains allowed sort fields for products
var ProductSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"name":       true,
	"variety":    true,
	"brand":      true,
}

// UnitSortFields contains allowed sort fields for units
var UnitSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"type_name":  true,
	"category":   true,
}

// InventorySortFields contains allowed sort fields for inventory records
var InventorySortFields = map[string]bool{
	"id":            true,
	"created_at":    true,
	"updated_at":    true,
	"current_stock": true,
	"stock_limit":   true,
}

// MovementSortFields contains allowed sort fields for the movement log
var MovementSortFields = map[string]bool{
	"id":          true,
	"occurred_at": true,
	"delta":       true,
}

// PurchaseSortFields contains allowed sort fields for purchases
var PurchaseSortFields = map[string]bool{
	"id":            true,
	"created_at":    true,
	"updated_at":    true,
	"purchase_date": true,
	"quantity":      true,
	"price":         true,
}

// SaleSortFields contains allowed sort fields for sales
var SaleSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"sale_date":  true,
	"quantity":   true,
	"price":      true,
}
