package catalog

import (
	"strings"
	"testing"

	"github.com/shopledger/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProduct(t *testing.T) {
	t.Run("creates product with valid inputs", func(t *testing.T) {
		product, err := NewProduct("  Rice ", "Basmati", "Tilda", "5kg sack")
		require.NoError(t, err)
		require.NotNil(t, product)

		assert.Equal(t, "Rice", product.Name)
		assert.Equal(t, "Basmati", product.Variety)
		assert.Equal(t, "Tilda", product.Brand)
		assert.Equal(t, "5kg sack", product.Size)
		assert.NotEmpty(t, product.ID)
		assert.Equal(t, 1, product.GetVersion())
	})

	t.Run("variety and brand are optional", func(t *testing.T) {
		product, err := NewProduct("Sugar", "", "", "")
		require.NoError(t, err)
		assert.Empty(t, product.Variety)
		assert.Empty(t, product.Brand)
	})

	t.Run("fails with empty name", func(t *testing.T) {
		_, err := NewProduct("   ", "", "", "")
		require.Error(t, err)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_NAME", domainErr.Code)
	})

	t.Run("fails with long name", func(t *testing.T) {
		_, err := NewProduct(strings.Repeat("a", 201), "", "", "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot exceed 200")
	})

	t.Run("fails with long brand", func(t *testing.T) {
		_, err := NewProduct("Rice", "", strings.Repeat("b", 101), "")
		require.Error(t, err)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_BRAND", domainErr.Code)
	})
}

func TestProduct_Update(t *testing.T) {
	product, err := NewProduct("Rice", "", "", "")
	require.NoError(t, err)

	require.NoError(t, product.Update("Rice", "Jasmine", "Royal", "10kg"))
	assert.Equal(t, "Jasmine", product.Variety)
	assert.Equal(t, "Royal", product.Brand)
	assert.Equal(t, 2, product.GetVersion())

	assert.Error(t, product.Update("", "", "", ""))
	assert.Equal(t, "Rice", product.Name)
}

func TestProduct_Key(t *testing.T) {
	a, _ := NewProduct("Rice", "Basmati", "Tilda", "")
	b, _ := NewProduct(" rice", "BASMATI ", "tilda", "1kg")
	c, _ := NewProduct("Rice", "Jasmine", "Tilda", "")

	assert.Equal(t, a.Key(), b.Key())
	assert.NotEqual(t, a.Key(), c.Key())
	assert.Equal(t, NewProductKey("RICE", "basmati", "Tilda"), a.Key())
}

func TestProduct_DisplayName(t *testing.T) {
	tests := []struct {
		name    string
		variety string
		brand   string
		want    string
	}{
		{"Rice", "", "", "Rice"},
		{"Rice", "Basmati", "", "Rice - Basmati"},
		{"Rice", "", "Tilda", "Rice (Tilda)"},
		{"Rice", "Basmati", "Tilda", "Rice - Basmati (Tilda)"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			p, err := NewProduct(tt.name, tt.variety, tt.brand, "")
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.DisplayName())
		})
	}
}
