package voucher

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mmeshcher/streetwear-storefront/internal/money"
)

func TestCatalogApply(t *testing.T) {
	c := DefaultCatalog()

	tests := []struct {
		name     string
		code     string
		subtotal money.Amount
		valid    bool
		discount money.Amount
	}{
		{name: "percentage", code: "NEWDROP25", subtotal: money.FromPesos(1000), valid: true, discount: money.FromPesos(250)},
		{name: "percentage with centavos", code: "SUMMER10", subtotal: money.FromPesos(1798), valid: true, discount: money.Amount(17980)},
		{name: "fixed on small subtotal", code: "FREESHIP", subtotal: money.FromPesos(10), valid: true, discount: money.FromPesos(150)},
		{name: "fixed on large subtotal", code: "FREESHIP", subtotal: money.FromPesos(100000), valid: true, discount: money.FromPesos(150)},
		{name: "case and whitespace insensitive", code: "  newdrop25 ", subtotal: money.FromPesos(1000), valid: true, discount: money.FromPesos(250)},
		{name: "unknown", code: "BOGUS", subtotal: money.FromPesos(1000)},
		{name: "empty", code: "   ", subtotal: money.FromPesos(1000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := c.Apply(tt.code, tt.subtotal)
			assert.Equal(t, tt.valid, res.Valid)
			assert.Equal(t, tt.discount, res.Discount)
		})
	}
}

func TestDiscountKinds(t *testing.T) {
	v, ok := DefaultCatalog().Lookup("FREESHIP")
	assert.True(t, ok)
	assert.Equal(t, KindFixedAmount, v.Discount.Kind())

	v, ok = DefaultCatalog().Lookup("SUMMER10")
	assert.True(t, ok)
	assert.Equal(t, KindPercentage, v.Discount.Kind())
}

func TestCatalogListSorted(t *testing.T) {
	list := DefaultCatalog().List()
	codes := make([]string, 0, len(list))
	for _, v := range list {
		codes = append(codes, v.Code)
	}
	assert.Equal(t, []string{"FREESHIP", "NEWDROP25", "SUMMER10", "WELCOME15"}, codes)
}
