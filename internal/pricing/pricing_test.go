package pricing

import (
	"testing"

	"zlagoda_console/internal/zlagoda"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func catalog(products ...zlagoda.StoreProduct) Lookup {
	byUPC := make(map[string]zlagoda.StoreProduct, len(products))
	for _, p := range products {
		byUPC[p.UPC] = p
	}
	return func(upc string) (zlagoda.StoreProduct, bool) {
		p, ok := byUPC[upc]
		return p, ok
	}
}

var (
	milk   = zlagoda.StoreProduct{UPC: "000000000001", SellingPrice: dec("50.00")}
	cheese = zlagoda.StoreProduct{UPC: "000000000002", SellingPrice: dec("20.00"), PromotionalProduct: true}
)

func assertMoney(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "want %s, got %s", want, got)
}

func TestEffectiveUnitPrice(t *testing.T) {
	assertMoney(t, "50", EffectiveUnitPrice(milk))
	assertMoney(t, "16", EffectiveUnitPrice(cheese))

	odd := zlagoda.StoreProduct{SellingPrice: dec("12.99"), PromotionalProduct: true}
	assertMoney(t, "10.392", EffectiveUnitPrice(odd))
}

func TestComputeWithLoyaltyCard(t *testing.T) {
	quote := Compute([]Line{
		{UPC: milk.UPC, Quantity: 2},
		{UPC: cheese.UPC, Quantity: 1},
	}, catalog(milk, cheese), 10)

	require.Len(t, quote.Lines, 2)
	assertMoney(t, "100", quote.Lines[0].Total)
	assert.True(t, quote.Lines[1].Promotional)
	assertMoney(t, "16", quote.Lines[1].UnitPrice)
	assertMoney(t, "20", quote.Lines[1].ListedPrice)

	assertMoney(t, "116.00", quote.Subtotal)
	assertMoney(t, "11.60", quote.DiscountAmount)
	assertMoney(t, "104.40", quote.Total)
	assert.Equal(t, "104.40", Money(quote.Total))
	assert.True(t, quote.Valid())
}

func TestComputeWithoutCard(t *testing.T) {
	quote := Compute([]Line{{UPC: milk.UPC, Quantity: 3}}, catalog(milk), 0)

	assertMoney(t, "150", quote.Subtotal)
	assertMoney(t, "0", quote.DiscountAmount)
	assertMoney(t, "150", quote.Total)
}

func TestComputeUnresolvedAndEmptyLines(t *testing.T) {
	quote := Compute([]Line{
		{UPC: "999999999999", Quantity: 4},
		{UPC: "", Quantity: 1},
		{UPC: milk.UPC, Quantity: 0},
		{UPC: milk.UPC, Quantity: 1},
	}, catalog(milk), 0)

	assert.False(t, quote.Lines[0].Resolved)
	assert.False(t, quote.Lines[0].Valid())
	assert.False(t, quote.Lines[1].Valid())
	assert.True(t, quote.Lines[2].Resolved)
	assert.False(t, quote.Lines[2].Valid())
	assert.True(t, quote.Lines[3].Valid())
	assertMoney(t, "50", quote.Subtotal)
	assert.False(t, quote.Valid())
}

func TestComputeIsLocalToChangedLine(t *testing.T) {
	lines := []Line{{UPC: milk.UPC, Quantity: 1}, {UPC: cheese.UPC, Quantity: 1}}
	before := Compute(lines, catalog(milk, cheese), 0)

	lines[1].Quantity = 5
	after := Compute(lines, catalog(milk, cheese), 0)

	assertMoney(t, before.Lines[0].Total.String(), after.Lines[0].Total)
	assertMoney(t, "80", after.Lines[1].Total)
	assertMoney(t, "130", after.Subtotal)
}

func TestComputeEmpty(t *testing.T) {
	quote := Compute(nil, catalog(), 25)
	assertMoney(t, "0", quote.Total)
	assert.False(t, quote.Valid())
}

func TestLoyaltyPercentClamped(t *testing.T) {
	lines := []Line{{UPC: milk.UPC, Quantity: 1}}
	assertMoney(t, "0", Compute(lines, catalog(milk), 150).Total)
	assertMoney(t, "50", Compute(lines, catalog(milk), -5).Total)
}

func TestFromSalesDoesNotDiscountTwice(t *testing.T) {
	quote := FromSales([]zlagoda.Sale{
		{UPC: milk.UPC, Quantity: 2, SellingPrice: dec("50")},
		{UPC: cheese.UPC, Quantity: 1, SellingPrice: dec("16")},
	}, 10)

	assertMoney(t, "116", quote.Subtotal)
	assertMoney(t, "104.4", quote.Total)
}
