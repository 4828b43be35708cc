package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/catalog"
	"github.com/shopledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestUnitService_CreatePair(t *testing.T) {
	ctx := context.Background()
	product, _ := catalog.NewProduct("Rice", "", "", "")

	t.Run("creates both units with one stored factor", func(t *testing.T) {
		units := new(MockUnitRepository)
		products := new(MockProductRepository)
		svc := NewUnitService(units, products, nil, nil)

		products.On("FindByID", ctx, product.ID).Return(product, nil)
		units.On("ExistsByTypeName", ctx, product.ID, mock.Anything).Return(false, nil)
		units.On("SaveBatch", ctx, mock.MatchedBy(func(batch []*catalog.Unit) bool {
			return len(batch) == 2 && batch[0].StoresFactor() && !batch[1].StoresFactor()
		})).Return(nil)

		resp, err := svc.CreatePair(ctx, CreateUnitPairRequest{
			ProductID:        product.ID,
			BuyingUnitType:   "bag",
			SellingUnitType:  "kg",
			ConversionFactor: decimal.NewFromInt(50),
		})
		require.NoError(t, err)
		assert.Equal(t, "buying", resp.BuyingUnit.UnitCategory)
		assert.Equal(t, resp.SellingUnit.ID, *resp.BuyingUnit.OppositeUnitID)
		assert.Nil(t, resp.SellingUnit.ConversionFactor)
		units.AssertExpectations(t)
	})

	t.Run("rejects a zero factor", func(t *testing.T) {
		units := new(MockUnitRepository)
		products := new(MockProductRepository)
		svc := NewUnitService(units, products, nil, nil)
		products.On("FindByID", ctx, product.ID).Return(product, nil)

		_, err := svc.CreatePair(ctx, CreateUnitPairRequest{
			ProductID:        product.ID,
			BuyingUnitType:   "bag",
			SellingUnitType:  "kg",
			ConversionFactor: decimal.Zero,
		})
		assert.ErrorIs(t, err, shared.ErrInvalidConversionFactor)
		units.AssertNotCalled(t, "SaveBatch", mock.Anything, mock.Anything)
	})

	t.Run("rejects a type name the product already has", func(t *testing.T) {
		units := new(MockUnitRepository)
		products := new(MockProductRepository)
		svc := NewUnitService(units, products, nil, nil)
		products.On("FindByID", ctx, product.ID).Return(product, nil)
		units.On("ExistsByTypeName", ctx, product.ID, "bag").Return(true, nil)

		_, err := svc.CreatePair(ctx, CreateUnitPairRequest{
			ProductID:        product.ID,
			BuyingUnitType:   "bag",
			SellingUnitType:  "kg",
			ConversionFactor: decimal.NewFromInt(50),
		})
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	})
}

func TestUnitService_AddLinked(t *testing.T) {
	ctx := context.Background()
	productID := uuid.New()
	bag, kg, err := catalog.NewUnitPair(productID, "bag", "kg", decimal.NewFromInt(50), false, false)
	require.NoError(t, err)

	units := new(MockUnitRepository)
	svc := NewUnitService(units, new(MockProductRepository), nil, nil)

	units.On("FindByID", ctx, kg.ID).Return(kg, nil)
	units.On("ExistsByTypeName", ctx, productID, "g").Return(false, nil)
	units.On("SaveBatch", ctx, mock.MatchedBy(func(batch []*catalog.Unit) bool {
		return len(batch) == 1
	})).Return(nil)

	factor := decimal.RequireFromString("0.001")
	resp, err := svc.AddLinked(ctx, AddLinkedUnitRequest{
		ExistingUnitID:   kg.ID,
		UnitType:         "g",
		UnitCategory:     "selling",
		ConversionFactor: factor,
	})
	require.NoError(t, err)
	assert.Equal(t, kg.ID, *resp.OppositeUnitID)
	assert.True(t, resp.ConversionFactor.Equal(factor))
	assert.Equal(t, bag.ID, *kg.OppositeUnitID)
	units.AssertExpectations(t)
}

func TestUnitService_UpdateMovesStoredFactor(t *testing.T) {
	ctx := context.Background()
	bag, kg, err := catalog.NewUnitPair(uuid.New(), "bag", "kg", decimal.NewFromInt(50), false, false)
	require.NoError(t, err)

	units := new(MockUnitRepository)
	svc := NewUnitService(units, new(MockProductRepository), nil, nil)

	units.On("FindByID", ctx, kg.ID).Return(kg, nil)
	units.On("FindByID", ctx, bag.ID).Return(bag, nil)
	units.On("SaveBatch", ctx, mock.Anything).Return(nil)

	factor := decimal.RequireFromString("0.04")
	_, err = svc.Update(ctx, kg.ID, UpdateUnitRequest{UnitType: "kg", ConversionFactor: &factor})
	require.NoError(t, err)

	assert.True(t, kg.StoresFactor())
	assert.False(t, bag.StoresFactor())
	assert.Equal(t, kg.ID, *bag.OppositeUnitID)

	derived, ok := bag.FactorToOpposite(kg)
	require.True(t, ok)
	assert.Equal(t, "25", derived.String())
}

func TestUnitService_Delete(t *testing.T) {
	ctx := context.Background()
	bag, kg, err := catalog.NewUnitPair(uuid.New(), "bag", "kg", decimal.NewFromInt(50), false, false)
	require.NoError(t, err)

	t.Run("refuses while referenced", func(t *testing.T) {
		units := new(MockUnitRepository)
		refs := new(MockReferenceChecker)
		svc := NewUnitService(units, new(MockProductRepository), refs, nil)

		units.On("FindByID", ctx, kg.ID).Return(kg, nil)
		refs.On("UnitReferenced", ctx, kg.ID).Return(true, nil)

		assert.ErrorIs(t, svc.Delete(ctx, kg.ID), shared.ErrInUse)
	})

	t.Run("unpairs the opposite unit", func(t *testing.T) {
		units := new(MockUnitRepository)
		refs := new(MockReferenceChecker)
		svc := NewUnitService(units, new(MockProductRepository), refs, nil)

		units.On("FindByID", ctx, kg.ID).Return(kg, nil)
		refs.On("UnitReferenced", ctx, kg.ID).Return(false, nil)
		units.On("FindByProductID", ctx, kg.ProductID).Return([]catalog.Unit{*bag, *kg}, nil)
		units.On("DeleteUnpairing", ctx, kg.ID, mock.MatchedBy(func(batch []*catalog.Unit) bool {
			return len(batch) == 1 && batch[0].ID == bag.ID && batch[0].OppositeUnitID == nil
		})).Return(nil)

		require.NoError(t, svc.Delete(ctx, kg.ID))
		units.AssertExpectations(t)
	})

	t.Run("failed delete is returned", func(t *testing.T) {
		units := new(MockUnitRepository)
		refs := new(MockReferenceChecker)
		svc := NewUnitService(units, new(MockProductRepository), refs, nil)

		units.On("FindByID", ctx, kg.ID).Return(kg, nil)
		refs.On("UnitReferenced", ctx, kg.ID).Return(false, nil)
		units.On("FindByProductID", ctx, kg.ProductID).Return([]catalog.Unit{*bag, *kg}, nil)
		units.On("DeleteUnpairing", ctx, kg.ID, mock.Anything).Return(shared.ErrNotFound)

		assert.ErrorIs(t, svc.Delete(ctx, kg.ID), shared.ErrNotFound)
		units.AssertNotCalled(t, "SaveBatch", mock.Anything, mock.Anything)
	})
}

func TestUnitService_PairedUnitAndInfo(t *testing.T) {
	ctx := context.Background()
	product, _ := catalog.NewProduct("Rice", "", "", "")
	bag, kg, err := catalog.NewUnitPair(product.ID, "bag", "kg", decimal.NewFromInt(50), true, false)
	require.NoError(t, err)
	loose, err := catalog.NewUnit(product.ID, "scoop", catalog.UnitCategorySelling, false)
	require.NoError(t, err)

	units := new(MockUnitRepository)
	products := new(MockProductRepository)
	svc := NewUnitService(units, products, nil, nil)

	units.On("FindByID", ctx, bag.ID).Return(bag, nil)
	units.On("FindByID", ctx, kg.ID).Return(kg, nil)
	units.On("FindByID", ctx, loose.ID).Return(loose, nil)
	products.On("FindByID", ctx, product.ID).Return(product, nil)
	units.On("FindByProductID", ctx, product.ID).Return([]catalog.Unit{*bag, *kg, *loose}, nil)

	paired, err := svc.PairedUnit(ctx, bag.ID)
	require.NoError(t, err)
	assert.Equal(t, kg.ID, paired.ID)

	_, err = svc.PairedUnit(ctx, loose.ID)
	assert.ErrorIs(t, err, shared.ErrUnitNotDefined)

	info, err := svc.Info(ctx, product.ID)
	require.NoError(t, err)
	require.Len(t, info.BuyingUnits, 1)
	require.Len(t, info.SellingUnits, 2)
	assert.Equal(t, "kg", info.BuyingUnits[0].OppositeUnitType)
	assert.Equal(t, "50", info.BuyingUnits[0].FactorToOpposite.String())
	assert.Equal(t, "0.02", info.SellingUnits[0].FactorToOpposite.String())
	assert.Nil(t, info.SellingUnits[1].FactorToOpposite)
}
