package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageListScan(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected ImageList
	}{
		{
			name:     "legacy string array",
			raw:      `["a.jpg","b.jpg"]`,
			expected: ImageList{{URL: "a.jpg"}, {URL: "b.jpg"}},
		},
		{
			name: "structured objects",
			raw:  `[{"url":"a.jpg","alt":"front","isPrimary":true}]`,
			expected: ImageList{
				{URL: "a.jpg", Alt: "front", IsPrimary: true},
			},
		},
		{
			name:     "mixed forms",
			raw:      `["a.jpg",{"url":"b.jpg","isPrimary":true}]`,
			expected: ImageList{{URL: "a.jpg"}, {URL: "b.jpg", IsPrimary: true}},
		},
		{
			name:     "empty",
			raw:      `[]`,
			expected: ImageList{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var l ImageList
			require.NoError(t, l.Scan([]byte(tt.raw)))
			assert.Equal(t, tt.expected, l)
		})
	}
}

func TestImageListScanNil(t *testing.T) {
	var l ImageList
	require.NoError(t, l.Scan(nil))
	assert.Empty(t, l)
}

func TestEffectivePrice(t *testing.T) {
	sale := decimal.NewFromFloat(7.50)

	regular := Product{Price: decimal.NewFromInt(10)}
	assert.True(t, regular.EffectivePrice().Equal(decimal.NewFromInt(10)))

	onSale := Product{Price: decimal.NewFromInt(10), SalePrice: &sale, IsOnSale: true}
	assert.True(t, onSale.EffectivePrice().Equal(sale))

	// sale price present but flag off: regular price wins
	flagOff := Product{Price: decimal.NewFromInt(10), SalePrice: &sale}
	assert.True(t, flagOff.EffectivePrice().Equal(decimal.NewFromInt(10)))
}

func TestNormalizedImagesAltFallback(t *testing.T) {
	p := Product{
		Name:   "Trail Running Shoe",
		Images: ImageList{{URL: "a.jpg"}, {URL: "b.jpg", Alt: "side view"}},
	}
	imgs := p.NormalizedImages()
	require.Len(t, imgs, 2)
	assert.Equal(t, "Trail Running Shoe", imgs[0].Alt)
	assert.Equal(t, "side view", imgs[1].Alt)
}

func TestOrderStatusValid(t *testing.T) {
	for _, s := range OrderStatuses {
		assert.True(t, s.Valid())
	}
	assert.False(t, OrderStatus("archived").Valid())
}

func TestRoleAtLeast(t *testing.T) {
	assert.True(t, RoleAdmin.AtLeast(RoleCompta))
	assert.True(t, RoleCompta.AtLeast(RoleCompta))
	assert.False(t, RoleUser.AtLeast(RoleStoreKeeper))
}
