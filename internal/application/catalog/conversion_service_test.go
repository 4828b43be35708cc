package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/catalog"
	"github.com/shopledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversionService_Convert(t *testing.T) {
	ctx := context.Background()
	productID := uuid.New()
	bag, kg, err := catalog.NewUnitPair(productID, "bag", "kg", decimal.NewFromInt(50), true, false)
	require.NoError(t, err)
	other, err := catalog.NewUnit(uuid.New(), "crate", catalog.UnitCategoryBuying, false)
	require.NoError(t, err)

	units := new(MockUnitRepository)
	units.On("FindByID", ctx, bag.ID).Return(bag, nil)
	units.On("FindByID", ctx, kg.ID).Return(kg, nil)
	units.On("FindByID", ctx, other.ID).Return(other, nil)
	units.On("FindByProductID", ctx, productID).Return([]catalog.Unit{*bag, *kg}, nil)

	svc := NewConversionService(units)

	t.Run("quantity is the default mode", func(t *testing.T) {
		resp, err := svc.Convert(ctx, ConversionRequest{Value: decimal.NewFromInt(2), FromUnitID: bag.ID, ToUnitID: kg.ID})
		require.NoError(t, err)
		assert.Equal(t, "quantity", resp.Mode)
		assert.Equal(t, "100", resp.Converted.String())
		assert.Equal(t, "50", resp.Factor.String())
	})

	t.Run("rate mode inverts the factor", func(t *testing.T) {
		resp, err := svc.Convert(ctx, ConversionRequest{Value: decimal.NewFromInt(10), FromUnitID: bag.ID, ToUnitID: kg.ID, Mode: "rate"})
		require.NoError(t, err)
		assert.Equal(t, "0.2", resp.Converted.String())
	})

	t.Run("units of different products", func(t *testing.T) {
		_, err := svc.Convert(ctx, ConversionRequest{Value: decimal.NewFromInt(1), FromUnitID: bag.ID, ToUnitID: other.ID})
		assert.ErrorIs(t, err, shared.ErrIncompatibleUnits)
	})

	t.Run("unknown unit", func(t *testing.T) {
		missing := uuid.New()
		units.On("FindByID", ctx, missing).Return(nil, shared.ErrNotFound)

		_, err := svc.Convert(ctx, ConversionRequest{Value: decimal.NewFromInt(1), FromUnitID: missing, ToUnitID: kg.ID})
		assert.ErrorIs(t, err, shared.ErrUnitNotDefined)
	})

	t.Run("unknown mode", func(t *testing.T) {
		_, err := svc.Convert(ctx, ConversionRequest{Value: decimal.NewFromInt(1), FromUnitID: bag.ID, ToUnitID: kg.ID, Mode: "volume"})
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})
}
