// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer free
// of ORM concerns.
//
//   - base.go: BaseModel and AggregateModel
//   - catalog.go: products and units
//   - inventory.go: inventory records and the movement log
//   - trade.go: purchases and sales
//
// Each model has ToDomain and FromDomain mappers. AllModels lists every
// model for AutoMigrate.
package models

// AllModels returns every model in dependency order
func AllModels() []any {
	return []any{
		&ProductModel{},
		&UnitModel{},
		&InventoryRecordModel{},
		&MovementModel{},
		&PurchaseModel{},
		&SaleModel{},
	}
}
