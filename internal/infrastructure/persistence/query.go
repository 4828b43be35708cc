package persistence

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// applyPagination applies offset and limit. A non-positive page size
// returns every row.
func applyPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	return query
}

// applyOrder applies a whitelisted order with id as tie breaker so pages
// are stable.
func applyOrder(query *gorm.DB, filter shared.Filter, allowed map[string]bool, defaultField string) *gorm.DB {
	field := ValidateSortField(filter.OrderBy, allowed, defaultField)
	dir := ValidateSortOrder(filter.OrderDir)
	return query.Order(field + " " + dir).Order("id " + dir)
}

// filterUUID reads an identifier filter value
func filterUUID(filter shared.Filter, key string) (uuid.UUID, bool) {
	switch v := filter.Filters[key].(type) {
	case uuid.UUID:
		return v, v != uuid.Nil
	case *uuid.UUID:
		if v == nil {
			return uuid.Nil, false
		}
		return *v, *v != uuid.Nil
	case string:
		id, err := uuid.Parse(v)
		return id, err == nil
	}
	return uuid.Nil, false
}

// filterTime reads a time filter value
func filterTime(filter shared.Filter, key string) (time.Time, bool) {
	switch v := filter.Filters[key].(type) {
	case time.Time:
		return v, !v.IsZero()
	case *time.Time:
		if v == nil {
			return time.Time{}, false
		}
		return *v, !v.IsZero()
	}
	return time.Time{}, false
}

// filterString reads a string filter value
func filterString(filter shared.Filter, key string) (string, bool) {
	switch v := filter.Filters[key].(type) {
	case string:
		return v, v != ""
	case interface{ String() string }:
		s := v.String()
		return s, s != ""
	}
	return "", false
}

// translateError maps driver errors onto domain sentinels
func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return shared.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return shared.ErrAlreadyExists
	}
	return err
}

// postingScope applies the filters shared by purchases and sales. dateColumn
// bounds the half-open [from, to) range.
func postingScope(query *gorm.DB, filter shared.Filter, dateColumn string) *gorm.DB {
	if id, ok := filterUUID(filter, "shop_id"); ok {
		query = query.Where("shop_id = ?", id)
	}
	if id, ok := filterUUID(filter, "product_id"); ok {
		query = query.Where("product_id = ?", id)
	}
	if from, ok := filterTime(filter, "from"); ok {
		query = query.Where(dateColumn+" >= ?", from)
	}
	if to, ok := filterTime(filter, "to"); ok {
		query = query.Where(dateColumn+" < ?", to)
	}
	return query
}
