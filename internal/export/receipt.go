package export

import (
	"fmt"
	"strconv"

	"zlagoda_console/internal/pricing"
	"zlagoda_console/internal/zlagoda"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ReceiptDocument is everything printed on one receipt.
type ReceiptDocument struct {
	Receipt zlagoda.Receipt
	Cashier string
	Sales   []zlagoda.Sale
	Quote   pricing.Quote
}

func (e *Exporter) WriteReceipt(doc ReceiptDocument) (string, error) {
	data, err := RenderReceipt(doc)
	if err != nil {
		return "", err
	}
	return e.write("receipt-"+doc.Receipt.Number, data, zap.String("receipt_number", doc.Receipt.Number))
}

func RenderReceipt(doc ReceiptDocument) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Receipt "+doc.Receipt.Number, true).
		Build()

	m := maroto.New(cfg)
	m.AddRows(receiptHeader(doc))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(saleHeader())
	m.AddRows(saleRows(doc.Sales)...)
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(receiptTotals(doc))

	return generate(m)
}

func receiptHeader(doc ReceiptDocument) core.Row {
	r := doc.Receipt
	card := "none"
	if r.CardNumber != nil && *r.CardNumber != "" {
		card = *r.CardNumber
	}
	cashier := r.EmployeeID
	if doc.Cashier != "" {
		cashier = doc.Cashier + " (" + r.EmployeeID + ")"
	}
	printed := ""
	if !r.PrintDate.IsZero() {
		printed = r.PrintDate.Format("2006-01-02 15:04:05")
	}

	return row.New(20).Add(
		col.New(7).Add(
			text.New("Zlagoda", props.Text{Style: fontstyle.Bold, Size: 14, Color: colorPrimary, Top: 1}),
			text.New("Cashier: "+cashier, props.Text{Size: 8, Top: 9, Color: colorGray}),
			text.New("Card: "+card, props.Text{Size: 8, Top: 14, Color: colorGray}),
		),
		col.New(5).Add(
			text.New("RECEIPT", props.Text{Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 1}),
			text.New(r.Number, props.Text{Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7}),
			text.New(printed, props.Text{Size: 8, Align: align.Right, Top: 14, Color: colorGray}),
		),
	)
}

func saleHeader() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{Style: fontstyle.Bold, Size: 8, Align: a, Top: 2, Left: 1, Right: 1}))
	}
	return row.New(8).Add(
		h("UPC", 3, align.Left),
		h("Product", 4, align.Left),
		h("Qty", 1, align.Center),
		h("Price", 2, align.Right),
		h("Total", 2, align.Right),
	)
}

func saleRows(sales []zlagoda.Sale) []core.Row {
	rows := make([]core.Row, 0, len(sales))
	for _, s := range sales {
		total := s.SellingPrice.Mul(decimal.NewFromInt(int64(s.Quantity)))
		rows = append(rows, row.New(7).Add(
			col.New(3).Add(text.New(s.UPC, props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(4).Add(text.New(s.ProductName, props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(1).Add(text.New(strconv.Itoa(s.Quantity), props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(2).Add(text.New(pricing.Money(s.SellingPrice), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(2).Add(text.New(pricing.Money(total), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
		))
	}
	return rows
}

func receiptTotals(doc ReceiptDocument) core.Row {
	label := func(s string) core.Component {
		return text.New(s, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2})
	}
	value := func(s string) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Right: 1})
	}
	q := doc.Quote
	discount := fmt.Sprintf("Discount (%d%%):", q.DiscountPercent)

	labels := col.New(3).Add(
		label("Subtotal:"),
		text.New(discount, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2, Top: 5}),
		text.New("Total:", props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right, Right: 2, Top: 10, Color: colorPrimary}),
		text.New("incl. VAT:", props.Text{Size: 8, Align: align.Right, Right: 2, Top: 16, Color: colorGray}),
	)
	values := col.New(3).Add(
		value(pricing.Money(q.Subtotal)),
		text.New(pricing.Money(q.DiscountAmount), props.Text{Size: 9, Align: align.Right, Right: 1, Top: 5}),
		text.New(pricing.Money(doc.Receipt.SumTotal), props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right, Right: 1, Top: 10, Color: colorPrimary}),
		text.New(pricing.Money(doc.Receipt.VAT), props.Text{Size: 8, Align: align.Right, Right: 1, Top: 16, Color: colorGray}),
	)
	return row.New(24).Add(col.New(6), labels, values)
}
