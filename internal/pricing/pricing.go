// Package pricing holds the receipt arithmetic shared by every view: the
// fixed promotional markdown, line totals, the loyalty card discount.
package pricing

import (
	"zlagoda_console/internal/zlagoda"

	"github.com/shopspring/decimal"
)

var (
	// PromoMultiplier is applied to the listed price of every promotional
	// store product. It is a business rule, not a per-product setting.
	PromoMultiplier = decimal.RequireFromString("0.8")

	hundred = decimal.NewFromInt(100)
)

// Line is one draft line: a store product reference and a quantity.
type Line struct {
	UPC      string
	Quantity int
}

// Lookup resolves a UPC against the loaded catalog.
type Lookup func(upc string) (zlagoda.StoreProduct, bool)

type LineQuote struct {
	UPC         string
	Quantity    int
	Resolved    bool
	Promotional bool
	ListedPrice decimal.Decimal
	UnitPrice   decimal.Decimal
	Total       decimal.Decimal
}

// Valid reports whether the line can be submitted.
func (l LineQuote) Valid() bool {
	return l.Resolved && l.Quantity >= 1
}

type Quote struct {
	Lines           []LineQuote
	Subtotal        decimal.Decimal
	DiscountPercent int
	DiscountAmount  decimal.Decimal
	Total           decimal.Decimal
}

// Valid reports whether every line is valid. An empty quote is not valid.
func (q Quote) Valid() bool {
	if len(q.Lines) == 0 {
		return false
	}
	for _, l := range q.Lines {
		if !l.Valid() {
			return false
		}
	}
	return true
}

func EffectiveUnitPrice(p zlagoda.StoreProduct) decimal.Decimal {
	if p.PromotionalProduct {
		return p.SellingPrice.Mul(PromoMultiplier)
	}
	return p.SellingPrice
}

// Compute prices a draft. Unresolved lines and lines with a quantity below
// one contribute nothing. cardPercent is the loyalty discount (0 for no card)
// and is clamped to [0, 100].
func Compute(lines []Line, lookup Lookup, cardPercent int) Quote {
	quote := Quote{
		Lines:    make([]LineQuote, 0, len(lines)),
		Subtotal: decimal.Zero,
	}

	for _, line := range lines {
		lq := LineQuote{
			UPC:         line.UPC,
			Quantity:    line.Quantity,
			ListedPrice: decimal.Zero,
			UnitPrice:   decimal.Zero,
			Total:       decimal.Zero,
		}
		if line.UPC != "" && lookup != nil {
			if product, ok := lookup(line.UPC); ok {
				lq.Resolved = true
				lq.Promotional = product.PromotionalProduct
				lq.ListedPrice = product.SellingPrice
				lq.UnitPrice = EffectiveUnitPrice(product)
				if line.Quantity >= 1 {
					lq.Total = lq.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
				}
			}
		}
		quote.Lines = append(quote.Lines, lq)
		quote.Subtotal = quote.Subtotal.Add(lq.Total)
	}

	applyLoyalty(&quote, cardPercent)
	return quote
}

// FromSales prices the lines of a stored receipt. Sale prices were already
// discounted at submission time, so no promotional markdown is applied again.
func FromSales(sales []zlagoda.Sale, cardPercent int) Quote {
	quote := Quote{
		Lines:    make([]LineQuote, 0, len(sales)),
		Subtotal: decimal.Zero,
	}
	for _, sale := range sales {
		total := decimal.Zero
		if sale.Quantity >= 1 {
			total = sale.SellingPrice.Mul(decimal.NewFromInt(int64(sale.Quantity)))
		}
		quote.Lines = append(quote.Lines, LineQuote{
			UPC:         sale.UPC,
			Quantity:    sale.Quantity,
			Resolved:    true,
			ListedPrice: sale.SellingPrice,
			UnitPrice:   sale.SellingPrice,
			Total:       total,
		})
		quote.Subtotal = quote.Subtotal.Add(total)
	}
	applyLoyalty(&quote, cardPercent)
	return quote
}

func applyLoyalty(quote *Quote, percent int) {
	percent = clampPercent(percent)
	quote.DiscountPercent = percent
	quote.DiscountAmount = quote.Subtotal.Mul(decimal.NewFromInt(int64(percent))).Div(hundred)
	quote.Total = quote.Subtotal.Sub(quote.DiscountAmount)
}

func clampPercent(p int) int {
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}

// Money renders an amount with two decimals.
func Money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
