package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tradeapp "github.com/shopledger/backend/internal/application/trade"
	"github.com/shopledger/backend/internal/interfaces/http/dto"
	"github.com/shopledger/backend/tests/testutil"
)

func (a *ledgerAPI) buyBags(t *testing.T, rice riceFixture, bags string) tradeapp.PurchaseResponse {
	t.Helper()
	w := a.do(t, http.MethodPost, "/purchases", gin.H{
		"product_id": rice.productID, "shop_id": a.shopID, "unit_id": rice.bagID,
		"quantity": bags, "order_price": "10",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return testutil.ResponseData[tradeapp.PurchaseResponse](t, w)
}

func (a *ledgerAPI) sellKg(t *testing.T, rice riceFixture, kg, price string) tradeapp.SaleResponse {
	t.Helper()
	w := a.do(t, http.MethodPost, "/sales", gin.H{
		"product_id": rice.productID, "shop_id": a.shopID, "unit_id": rice.kgID,
		"quantity": kg, "retail_price": price,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return testutil.ResponseData[tradeapp.SaleResponse](t, w)
}

func TestPurchaseHandler_Create(t *testing.T) {
	api := newLedgerAPI(t)
	rice := api.setupRice(t)

	purchase := api.buyBags(t, rice, "2")

	assert.True(t, purchase.Quantity.Equal(dec("2")))
	assert.True(t, purchase.TotalCost.Equal(dec("20")))
	assert.False(t, purchase.PurchaseDate.IsZero())

	w := api.do(t, http.MethodGet, "/purchases/"+purchase.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, rice.bagID, testutil.ResponseData[tradeapp.PurchaseResponse](t, w).UnitID)
}

func TestPurchaseHandler_CreateRejected(t *testing.T) {
	api := newLedgerAPI(t)
	rice := api.setupRice(t)

	tests := []struct {
		name   string
		body   gin.H
		status int
		code   string
	}{
		{
			name: "selling unit",
			body: gin.H{"product_id": rice.productID, "shop_id": api.shopID, "unit_id": rice.kgID, "quantity": "1"},
			status: http.StatusUnprocessableEntity, code: dto.ErrCodeUnitNotDefined,
		},
		{
			name: "shop without an inventory record",
			body: gin.H{"product_id": rice.productID, "shop_id": uuid.New(), "unit_id": rice.bagID, "quantity": "1"},
			status: http.StatusUnprocessableEntity, code: dto.ErrCodeUnitNotDefined,
		},
		{
			name: "zero quantity",
			body: gin.H{"product_id": rice.productID, "shop_id": api.shopID, "unit_id": rice.bagID, "quantity": "0"},
			status: http.StatusBadRequest, code: dto.ErrCodeValidation,
		},
		{
			name: "negative price",
			body: gin.H{"product_id": rice.productID, "shop_id": api.shopID, "unit_id": rice.bagID, "quantity": "1", "order_price": "-2"},
			status: http.StatusBadRequest, code: dto.ErrCodeValidation,
		},
		{
			name: "supplier and market",
			body: gin.H{
				"product_id": rice.productID, "shop_id": api.shopID, "unit_id": rice.bagID, "quantity": "1",
				"supplier_name": "Wholesale Co", "market_name": "Central Market",
			},
			status: http.StatusBadRequest, code: "INVALID_SOURCE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := api.do(t, http.MethodPost, "/purchases", tt.body)
			testutil.AssertErrorResponse(t, w, tt.status, tt.code)
		})
	}
	assert.True(t, api.stock(t, rice.inventoryID).IsZero())
}

func TestPurchaseHandler_IdempotencyKey(t *testing.T) {
	api := newLedgerAPI(t)
	rice := api.setupRice(t)
	body := gin.H{
		"product_id": rice.productID, "shop_id": api.shopID, "unit_id": rice.bagID,
		"quantity": "2", "order_price": "10",
	}

	first := api.doWithKey(t, http.MethodPost, "/purchases", body, "purchase-key-1")
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())
	second := api.doWithKey(t, http.MethodPost, "/purchases", body, "purchase-key-1")
	require.Equal(t, http.StatusCreated, second.Code, second.Body.String())

	assert.Equal(t,
		testutil.ResponseData[tradeapp.PurchaseResponse](t, first).ID,
		testutil.ResponseData[tradeapp.PurchaseResponse](t, second).ID)
	assert.True(t, api.stock(t, rice.inventoryID).Equal(dec("100")))

	w := api.do(t, http.MethodGet, "/purchases", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, testutil.ResponseData[[]tradeapp.PurchaseResponse](t, w), 1)
}

func TestPurchaseHandler_UpdateAndDelete(t *testing.T) {
	api := newLedgerAPI(t)
	rice := api.setupRice(t)
	purchase := api.buyBags(t, rice, "2")
	path := "/purchases/" + purchase.ID.String()

	w := api.do(t, http.MethodPut, path, gin.H{"unit_id": rice.bagID, "quantity": "3", "order_price": "9"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := testutil.ResponseData[tradeapp.PurchaseResponse](t, w)
	assert.True(t, updated.TotalCost.Equal(dec("27")))
	assert.True(t, api.stock(t, rice.inventoryID).Equal(dec("150")))

	require.Equal(t, http.StatusNoContent, api.do(t, http.MethodDelete, path, nil).Code)
	assert.True(t, api.stock(t, rice.inventoryID).IsZero())
	testutil.AssertErrorResponse(t, api.do(t, http.MethodGet, path, nil), http.StatusNotFound, dto.ErrCodeNotFound)
}

func TestPurchaseHandler_DeleteAfterSellingIt(t *testing.T) {
	api := newLedgerAPI(t)
	rice := api.setupRice(t)
	purchase := api.buyBags(t, rice, "2")
	api.sellKg(t, rice, "80", "0.5")

	w := api.do(t, http.MethodDelete, "/purchases/"+purchase.ID.String(), nil)

	testutil.AssertErrorResponse(t, w, http.StatusUnprocessableEntity, dto.ErrCodeInsufficientStock)
	assert.True(t, api.stock(t, rice.inventoryID).Equal(dec("20")))
}

func TestPurchaseHandler_ListFilters(t *testing.T) {
	api := newLedgerAPI(t)
	rice := api.setupRice(t)
	for _, date := range []string{"2026-01-05T10:00:00Z", "2026-02-10T10:00:00Z"} {
		w := api.do(t, http.MethodPost, "/purchases", gin.H{
			"product_id": rice.productID, "shop_id": api.shopID, "unit_id": rice.bagID,
			"quantity": "1", "purchase_date": date,
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w := api.do(t, http.MethodGet, "/purchases?from=2026-02-01T00:00:00Z&shop_id="+api.shopID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, testutil.ResponseData[[]tradeapp.PurchaseResponse](t, w), 1)

	w = api.do(t, http.MethodGet, "/purchases?product_id="+testutil.NewTestUUID("other").String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, testutil.ResponseData[[]tradeapp.PurchaseResponse](t, w))

	w = api.do(t, http.MethodGet, "/purchases?from=2026-03-01T00:00:00Z&to=2026-02-01T00:00:00Z", nil)
	testutil.AssertErrorResponse(t, w, http.StatusBadRequest, dto.ErrCodeBadRequest)

	w = api.do(t, http.MethodGet, "/purchases?shop_id=nope", nil)
	testutil.AssertErrorResponse(t, w, http.StatusBadRequest, dto.ErrCodeBadRequest)
}

func TestPurchaseHandler_Sources(t *testing.T) {
	api := newLedgerAPI(t)
	rice := api.setupRice(t)
	for _, src := range []gin.H{
		{"supplier_name": "Acme Mills"},
		{"market_name": "Central"},
		{"supplier_name": "Acme Mills"},
		{"supplier_name": "Brook Farm"},
		{},
	} {
		body := gin.H{
			"product_id": rice.productID, "shop_id": api.shopID, "unit_id": rice.bagID, "quantity": "1",
		}
		for k, v := range src {
			body[k] = v
		}
		w := api.do(t, http.MethodPost, "/purchases", body)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w := api.do(t, http.MethodGet, "/purchases/sources?shop_id="+api.shopID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []tradeapp.PurchaseSourceResponse{
		{Name: "Acme Mills", Type: "supplier"},
		{Name: "Brook Farm", Type: "supplier"},
		{Name: "Central", Type: "market"},
	}, testutil.ResponseData[[]tradeapp.PurchaseSourceResponse](t, w))

	w = api.do(t, http.MethodGet, "/purchases/sources", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, testutil.ResponseData[[]tradeapp.PurchaseSourceResponse](t, w), 3)

	w = api.do(t, http.MethodGet, "/purchases/sources?shop_id="+uuid.New().String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, testutil.ResponseData[[]tradeapp.PurchaseSourceResponse](t, w))

	w = api.do(t, http.MethodGet, "/purchases/sources?shop_id=nope", nil)
	testutil.AssertErrorResponse(t, w, http.StatusBadRequest, dto.ErrCodeBadRequest)
}

func TestSaleHandler_CreateAndIdempotency(t *testing.T) {
	api := newLedgerAPI(t)
	rice := api.setupRice(t)
	api.buyBags(t, rice, "2")
	body := gin.H{
		"product_id": rice.productID, "shop_id": api.shopID, "unit_id": rice.kgID,
		"quantity": "4", "retail_price": "1.25",
	}

	first := api.doWithKey(t, http.MethodPost, "/sales", body, "sale-key-1")
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())
	sale := testutil.ResponseData[tradeapp.SaleResponse](t, first)
	assert.True(t, sale.Revenue.Equal(dec("5")))

	second := api.doWithKey(t, http.MethodPost, "/sales", body, "sale-key-1")
	require.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, sale.ID, testutil.ResponseData[tradeapp.SaleResponse](t, second).ID)
	assert.True(t, api.stock(t, rice.inventoryID).Equal(dec("96")))
}

func TestSaleHandler_BuyingUnitRejected(t *testing.T) {
	api := newLedgerAPI(t)
	rice := api.setupRice(t)
	api.buyBags(t, rice, "2")

	w := api.do(t, http.MethodPost, "/sales", gin.H{
		"product_id": rice.productID, "shop_id": api.shopID, "unit_id": rice.bagID, "quantity": "1",
	})

	testutil.AssertErrorResponse(t, w, http.StatusUnprocessableEntity, dto.ErrCodeUnitNotDefined)
	assert.True(t, api.stock(t, rice.inventoryID).Equal(dec("100")))
}

func TestSaleHandler_UpdateAndDelete(t *testing.T) {
	api := newLedgerAPI(t)
	rice := api.setupRice(t)
	api.buyBags(t, rice, "2")
	sale := api.sellKg(t, rice, "30", "0.5")
	path := "/sales/" + sale.ID.String()

	w := api.do(t, http.MethodPut, path, gin.H{"unit_id": rice.kgID, "quantity": "40", "retail_price": "0.5"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, api.stock(t, rice.inventoryID).Equal(dec("60")))

	// More than is on hand plus the original sale
	w = api.do(t, http.MethodPut, path, gin.H{"unit_id": rice.kgID, "quantity": "150", "retail_price": "0.5"})
	testutil.AssertErrorResponse(t, w, http.StatusUnprocessableEntity, dto.ErrCodeInsufficientStock)
	assert.True(t, api.stock(t, rice.inventoryID).Equal(dec("60")))

	require.Equal(t, http.StatusNoContent, api.do(t, http.MethodDelete, path, nil).Code)
	assert.True(t, api.stock(t, rice.inventoryID).Equal(dec("100")))
}

func TestSaleHandler_PriceSuggestion(t *testing.T) {
	api := newLedgerAPI(t)
	rice := api.setupRice(t)
	path := "/sales/price-suggestion?product_id=" + rice.productID.String() + "&unit_id=" + rice.kgID.String()

	w := api.do(t, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Nil(t, testutil.ResponseData[tradeapp.PriceSuggestionResponse](t, w).RetailPrice)

	api.buyBags(t, rice, "1")
	sale := api.sellKg(t, rice, "2", "0.6")

	w = api.do(t, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	suggestion := testutil.ResponseData[tradeapp.PriceSuggestionResponse](t, w)
	require.NotNil(t, suggestion.RetailPrice)
	assert.True(t, suggestion.RetailPrice.Equal(dec("0.6")))
	require.NotNil(t, suggestion.SourceSaleID)
	assert.Equal(t, sale.ID, *suggestion.SourceSaleID)
	assert.False(t, suggestion.Converted)
}

func TestSaleHandler_PriceSuggestionNeedsQuery(t *testing.T) {
	api := newLedgerAPI(t)
	rice := api.setupRice(t)

	w := api.do(t, http.MethodGet, "/sales/price-suggestion?product_id="+rice.productID.String(), nil)
	testutil.AssertErrorResponse(t, w, http.StatusBadRequest, dto.ErrCodeValidation)

	w = api.do(t, http.MethodGet, "/sales/price-suggestion?product_id="+rice.productID.String()+"&unit_id="+rice.bagID.String(), nil)
	testutil.AssertErrorResponse(t, w, http.StatusUnprocessableEntity, dto.ErrCodeUnitNotDefined)
}
