package cli

import (
	"context"
	"fmt"

	"zlagoda_console/internal/export"
	"zlagoda_console/internal/pricing"
	"zlagoda_console/internal/session"
	"zlagoda_console/internal/zlagoda"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

// receiptDocument gathers a stored receipt, its sold lines and the card
// discount it was priced with.
func (r *Runner) receiptDocument(ctx context.Context, number string) (export.ReceiptDocument, error) {
	var (
		receipt zlagoda.Receipt
		sales   []zlagoda.Sale
	)
	p := pool.New().WithContext(ctx).WithCancelOnError()
	p.Go(func(ctx context.Context) error {
		var err error
		receipt, err = r.backend.Receipt(ctx, number)
		return err
	})
	p.Go(func(ctx context.Context) error {
		var err error
		sales, err = r.backend.ReceiptSales(ctx, number)
		return err
	})
	if err := p.Wait(); err != nil {
		return export.ReceiptDocument{}, err
	}

	percent := 0
	if receipt.CardNumber != nil && *receipt.CardNumber != "" {
		card, err := r.backend.CustomerCard(ctx, *receipt.CardNumber)
		if err != nil {
			r.logger.Warn("card lookup failed; showing receipt without discount",
				zap.String("receipt_number", number), zap.Error(err))
		} else {
			percent = card.Percent
		}
	}

	return export.ReceiptDocument{
		Receipt: receipt,
		Cashier: r.cashierName(ctx, receipt.EmployeeID),
		Sales:   sales,
		Quote:   pricing.FromSales(sales, percent),
	}, nil
}

func (r *Runner) cashierName(ctx context.Context, employeeID string) string {
	identity, ok := r.store.Identity()
	if !ok {
		return ""
	}
	if identity.EmployeeID == employeeID {
		return identity.FullName()
	}
	if identity.Role != session.RoleManager {
		return ""
	}
	employees, err := r.backend.Employees(ctx)
	if err != nil {
		return ""
	}
	for _, e := range employees {
		if e.ID == employeeID {
			return joinNonEmpty(" ", e.Surname, e.Name, e.Patronymic)
		}
	}
	return ""
}

type receiptView struct {
	Receipt         zlagoda.Receipt `json:"receipt"`
	Cashier         string          `json:"cashier,omitempty"`
	Lines           []zlagoda.Sale  `json:"lines"`
	Subtotal        string          `json:"subtotal"`
	DiscountPercent int             `json:"discount_percent"`
	Discount        string          `json:"discount"`
	Total           string          `json:"total"`
}

func (r *Runner) cmdReceipt(ctx context.Context, args []string) error {
	cmd, _ := findCommand("receipt")
	fs := newFlagSet(cmd.name, r.out)
	asJSON := fs.Bool("json", false, "Print JSON")
	if err := fs.Parse(args); err != nil || fs.NArg() != 1 {
		return usageError{cmd}
	}

	doc, err := r.receiptDocument(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	q := doc.Quote

	if *asJSON || r.options.JSON {
		return r.writeJSON(receiptView{
			Receipt:         doc.Receipt,
			Cashier:         doc.Cashier,
			Lines:           doc.Sales,
			Subtotal:        pricing.Money(q.Subtotal),
			DiscountPercent: q.DiscountPercent,
			Discount:        pricing.Money(q.DiscountAmount),
			Total:           pricing.Money(q.Total),
		})
	}

	rc := doc.Receipt
	fmt.Fprintf(r.out, "Receipt %s\n", rc.Number)
	fmt.Fprintf(r.out, "  printed:  %s\n", rc.PrintDate)
	if doc.Cashier != "" {
		fmt.Fprintf(r.out, "  cashier:  %s (%s)\n", doc.Cashier, rc.EmployeeID)
	} else {
		fmt.Fprintf(r.out, "  cashier:  %s\n", rc.EmployeeID)
	}
	if rc.CardNumber != nil && *rc.CardNumber != "" {
		fmt.Fprintf(r.out, "  card:     %s (%d%%)\n", *rc.CardNumber, q.DiscountPercent)
	}
	fmt.Fprintln(r.out)

	lines, err := newListing("receipt", "Lines", saleColumns, doc.Sales)
	if err != nil {
		return err
	}
	lines.print(r.out)

	fmt.Fprintln(r.out)
	fmt.Fprintf(r.out, "  subtotal:        %10s\n", pricing.Money(q.Subtotal))
	fmt.Fprintf(r.out, "  discount (%3d%%): %10s\n", q.DiscountPercent, pricing.Money(q.DiscountAmount))
	fmt.Fprintf(r.out, "  total:           %10s\n", pricing.Money(rc.SumTotal))
	fmt.Fprintf(r.out, "  incl. VAT:       %10s\n", pricing.Money(rc.VAT))
	if !q.Total.Equal(rc.SumTotal) && len(doc.Sales) > 0 {
		fmt.Fprintf(r.out, "  (lines add up to %s)\n", pricing.Money(q.Total))
	}
	return nil
}

var saleColumns = []export.Column{
	{Key: "upc", Label: "UPC"},
	{Key: "product_name", Label: "Product"},
	{Key: "product_number", Label: "Qty"},
	{Key: "selling_price", Label: "Price"},
	{Key: "total_price", Label: "Total"},
}

func (r *Runner) cmdReceiptDelete(ctx context.Context, args []string) error {
	cmd, _ := findCommand("receipt-delete")
	if len(args) != 1 {
		return usageError{cmd}
	}
	if err := r.backend.DeleteReceipt(ctx, args[0]); err != nil {
		return err
	}
	r.logger.Info("receipt deleted", zap.String("receipt_number", args[0]))
	fmt.Fprintf(r.out, "Receipt %s deleted.\n", args[0])
	return nil
}
