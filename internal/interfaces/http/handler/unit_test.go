package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalogapp "github.com/shopledger/backend/internal/application/catalog"
	"github.com/shopledger/backend/internal/interfaces/http/dto"
	"github.com/shopledger/backend/tests/testutil"
)

func TestUnitHandler_CreatePairRejectsBadFactor(t *testing.T) {
	api := newLedgerAPI(t)
	w := api.do(t, http.MethodPost, "/products", gin.H{"name": "Flour"})
	require.Equal(t, http.StatusCreated, w.Code)
	product := testutil.ResponseData[catalogapp.ProductResponse](t, w)

	tests := []struct {
		name     string
		body     gin.H
		wantCode string
	}{
		{"zero factor", gin.H{"product_id": product.ID, "buying_unit_type": "sack", "selling_unit_type": "kg", "conversion_factor": "0"}, dto.ErrCodeInvalidConversionFactor},
		{"negative factor", gin.H{"product_id": product.ID, "buying_unit_type": "sack", "selling_unit_type": "kg", "conversion_factor": "-5"}, dto.ErrCodeInvalidConversionFactor},
		{"same unit names", gin.H{"product_id": product.ID, "buying_unit_type": "kg", "selling_unit_type": "KG", "conversion_factor": "1"}, dto.ErrCodeDuplicateUnit},
		{"missing selling unit", gin.H{"product_id": product.ID, "buying_unit_type": "sack", "conversion_factor": "25"}, dto.ErrCodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := api.do(t, http.MethodPost, "/units", tt.body)
			testutil.AssertErrorResponse(t, w, http.StatusBadRequest, tt.wantCode)
		})
	}
}

func TestUnitHandler_PairQueries(t *testing.T) {
	api := newLedgerAPI(t)
	rice := api.setupRice(t)

	w := api.do(t, http.MethodGet, "/units/"+rice.bagID.String()+"/paired", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, rice.kgID, testutil.ResponseData[catalogapp.UnitResponse](t, w).ID)

	w = api.do(t, http.MethodGet, "/units/product/"+rice.productID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, testutil.ResponseData[[]catalogapp.UnitResponse](t, w), 2)

	w = api.do(t, http.MethodGet, "/units/product/"+rice.productID.String()+"/info", nil)
	require.Equal(t, http.StatusOK, w.Code)
	info := testutil.ResponseData[catalogapp.ProductUnitsInfoResponse](t, w)
	require.Len(t, info.BuyingUnits, 1)
	require.Len(t, info.SellingUnits, 1)
	assert.Equal(t, "kg", info.BuyingUnits[0].OppositeUnitType)
	require.NotNil(t, info.BuyingUnits[0].FactorToOpposite)
	assert.True(t, info.BuyingUnits[0].FactorToOpposite.Equal(dec("50")))
	assert.Equal(t, "bag", info.SellingUnits[0].OppositeUnitType)

	w = api.do(t, http.MethodGet, "/units?product_id="+rice.productID.String()+"&category=selling", nil)
	require.Equal(t, http.StatusOK, w.Code)
	selling := testutil.ResponseData[[]catalogapp.UnitResponse](t, w)
	require.Len(t, selling, 1)
	assert.Equal(t, rice.kgID, selling[0].ID)

	w = api.do(t, http.MethodGet, "/units?product_id=oops", nil)
	testutil.AssertErrorResponse(t, w, http.StatusBadRequest, dto.ErrCodeBadRequest)
}

func TestConversionHandler_Convert(t *testing.T) {
	api := newLedgerAPI(t)
	rice := api.setupRice(t)

	w := api.do(t, http.MethodPost, "/units/linked", gin.H{
		"existing_unit_id":  rice.kgID,
		"unit_type":         "gram",
		"unit_category":     "selling",
		"conversion_factor": "0.001",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	gram := testutil.ResponseData[catalogapp.UnitResponse](t, w)

	tests := []struct {
		name string
		body gin.H
		want string
	}{
		{"bags to kg", gin.H{"value": "2", "from_unit_id": rice.bagID, "to_unit_id": rice.kgID}, "100"},
		{"kg to bags", gin.H{"value": "100", "from_unit_id": rice.kgID, "to_unit_id": rice.bagID, "mode": "quantity"}, "2"},
		{"price per bag to price per kg", gin.H{"value": "10", "from_unit_id": rice.bagID, "to_unit_id": rice.kgID, "mode": "rate"}, "0.2"},
		{"chained bag to gram", gin.H{"value": "1", "from_unit_id": rice.bagID, "to_unit_id": gram.ID}, "50000"},
		{"identity", gin.H{"value": "7.5", "from_unit_id": rice.kgID, "to_unit_id": rice.kgID}, "7.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := api.do(t, http.MethodPost, "/conversions", tt.body)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			got := testutil.ResponseData[catalogapp.ConversionResponse](t, w)
			assert.True(t, got.Converted.Equal(dec(tt.want)), "got %s want %s", got.Converted, tt.want)
		})
	}
}

func TestConversionHandler_Errors(t *testing.T) {
	api := newLedgerAPI(t)
	rice := api.setupRice(t)

	w := api.do(t, http.MethodPost, "/products", gin.H{"name": "Oil"})
	require.Equal(t, http.StatusCreated, w.Code)
	oil := testutil.ResponseData[catalogapp.ProductResponse](t, w)
	w = api.do(t, http.MethodPost, "/units", gin.H{
		"product_id": oil.ID, "buying_unit_type": "crate", "selling_unit_type": "bottle", "conversion_factor": "12",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	oilUnits := testutil.ResponseData[catalogapp.UnitPairResponse](t, w)

	w = api.do(t, http.MethodPost, "/conversions", gin.H{"value": "1", "from_unit_id": rice.bagID, "to_unit_id": oilUnits.SellingUnit.ID})
	testutil.AssertErrorResponse(t, w, http.StatusUnprocessableEntity, dto.ErrCodeIncompatibleUnits)

	w = api.do(t, http.MethodPost, "/conversions", gin.H{"value": "1", "from_unit_id": rice.bagID, "to_unit_id": testutil.NewTestUUID("missing")})
	testutil.AssertErrorResponse(t, w, http.StatusUnprocessableEntity, dto.ErrCodeUnitNotDefined)

	w = api.do(t, http.MethodPost, "/conversions", gin.H{"value": "1", "from_unit_id": rice.bagID, "to_unit_id": rice.kgID, "mode": "volume"})
	testutil.AssertErrorResponse(t, w, http.StatusBadRequest, dto.ErrCodeValidation)
}

func TestUnitHandler_DeleteInUse(t *testing.T) {
	api := newLedgerAPI(t)
	rice := api.setupRice(t)

	w := api.do(t, http.MethodDelete, "/units/"+rice.kgID.String(), nil)

	testutil.AssertErrorResponse(t, w, http.StatusConflict, dto.ErrCodeInUse)
}
