package cli

import (
	"context"
	"errors"
	"fmt"

	"zlagoda_console/internal/composer"
	"zlagoda_console/internal/export"
	"zlagoda_console/internal/pricing"
	"zlagoda_console/internal/zlagoda"

	"go.uber.org/zap"
)

func (r *Runner) requireDraft() (*composer.Composer, error) {
	d := r.currentDraft()
	if d == nil {
		return nil, composer.ErrNoDraft
	}
	return d, nil
}

func (r *Runner) cmdNew(ctx context.Context, _ []string) error {
	if old := r.currentDraft(); old != nil && old.Status() == composer.StatusDrafting {
		fmt.Fprintln(r.out, "Previous receipt discarded.")
	}
	d, err := r.composers.Open(ctx)
	if err != nil {
		return err
	}
	r.setDraft(d)

	for _, e := range d.Reference().Errors() {
		fmt.Fprintf(r.out, "Warning: %s\n", zlagoda.UserMessage(e, e.Error()))
	}
	if d.CashierLocked() {
		fmt.Fprintf(r.out, "New receipt under your account (%s). Add items with 'add <upc> [qty]'.\n", d.CashierID())
	} else {
		fmt.Fprintln(r.out, "New receipt. Pick a cashier with 'cashier <id>' (see 'cashiers'), then add items with 'add <upc> [qty]'.")
	}
	return nil
}

func (r *Runner) cmdCashiers(_ context.Context, args []string) error {
	d, err := r.requireDraft()
	if err != nil {
		return err
	}
	cashiers := d.Reference().Cashiers()
	if len(cashiers) == 0 && d.CashierLocked() {
		fmt.Fprintln(r.out, "Receipts are created under your own account.")
		return nil
	}
	l, err := newListing("cashiers", "Cashiers", employeeColumns[:4], cashiers)
	if err != nil {
		return err
	}
	if r.wantJSON(args) {
		return r.writeJSON(l.rows)
	}
	l.print(r.out)
	return nil
}

func (r *Runner) cmdCashier(_ context.Context, args []string) error {
	cmd, _ := findCommand("cashier")
	if len(args) != 1 {
		return usageError{cmd}
	}
	d, err := r.requireDraft()
	if err != nil {
		return err
	}
	if err := d.SetCashier(args[0]); err != nil {
		return err
	}
	if e, ok := d.Reference().Employee(args[0]); ok {
		fmt.Fprintf(r.out, "Cashier: %s\n", joinNonEmpty(" ", e.Surname, e.Name, e.Patronymic))
	}
	return nil
}

func (r *Runner) cmdCard(_ context.Context, args []string) error {
	cmd, _ := findCommand("card")
	if len(args) != 1 {
		return usageError{cmd}
	}
	d, err := r.requireDraft()
	if err != nil {
		return err
	}
	number := args[0]
	if number == "-" {
		number = ""
	}
	if err := d.SetCard(number); err != nil {
		return err
	}
	if number == "" {
		fmt.Fprintln(r.out, "Card removed.")
	} else if card, ok := d.Reference().Card(number); ok {
		fmt.Fprintf(r.out, "Card %s: %s, %d%% discount.\n", card.Number, joinNonEmpty(" ", card.Surname, card.Name), card.Percent)
	}
	r.printTotals(d.Quote())
	return nil
}

func (r *Runner) cmdAdd(_ context.Context, args []string) error {
	cmd, _ := findCommand("add")
	if len(args) < 1 || len(args) > 2 {
		return usageError{cmd}
	}
	qty := 1
	if len(args) == 2 {
		var err error
		if qty, err = quantity(args[1]); err != nil {
			return err
		}
	}
	d, err := r.requireDraft()
	if err != nil {
		return err
	}
	idx, err := d.AddLine(args[0], qty)
	if err != nil {
		return err
	}
	r.printLineResult(d, idx)
	return nil
}

func (r *Runner) cmdSet(_ context.Context, args []string) error {
	cmd, _ := findCommand("set")
	if len(args) != 3 {
		return usageError{cmd}
	}
	idx, err := lineNumber(args[0])
	if err != nil {
		return err
	}
	qty, err := quantity(args[2])
	if err != nil {
		return err
	}
	d, err := r.requireDraft()
	if err != nil {
		return err
	}
	if err := d.UpdateLine(idx, args[1], qty); err != nil {
		return err
	}
	r.printLineResult(d, idx)
	return nil
}

func (r *Runner) cmdRemove(_ context.Context, args []string) error {
	cmd, _ := findCommand("rm")
	if len(args) != 1 {
		return usageError{cmd}
	}
	idx, err := lineNumber(args[0])
	if err != nil {
		return err
	}
	d, err := r.requireDraft()
	if err != nil {
		return err
	}
	if err := d.RemoveLine(idx); err != nil {
		return err
	}
	fmt.Fprintf(r.out, "Line %d removed.\n", idx+1)
	r.printTotals(d.Quote())
	return nil
}

func (r *Runner) printLineResult(d *composer.Composer, idx int) {
	q := d.Quote()
	if idx < 0 || idx >= len(q.Lines) {
		return
	}
	l := q.Lines[idx]
	if !l.Resolved {
		fmt.Fprintf(r.out, "Line %d: %s is not in store inventory; it counts as 0.00 and blocks submission.\n", idx+1, l.UPC)
	} else {
		name := l.UPC
		if det, ok := d.Reference().Details(l.UPC); ok && det.ProductName != "" {
			name = det.ProductName
		}
		promo := ""
		if l.Promotional {
			promo = " (promo -20%)"
		}
		fmt.Fprintf(r.out, "Line %d: %s x%d @ %s%s = %s\n", idx+1, name, l.Quantity, pricing.Money(l.UnitPrice), promo, pricing.Money(l.Total))
		if det, ok := d.Reference().Details(l.UPC); ok && l.Quantity > det.Quantity {
			fmt.Fprintf(r.out, "Warning: only %d in stock.\n", det.Quantity)
		}
	}
	r.printTotals(q)
}

func (r *Runner) printTotals(q pricing.Quote) {
	if q.DiscountPercent > 0 {
		fmt.Fprintf(r.out, "Subtotal %s, discount %d%% %s, total %s\n",
			pricing.Money(q.Subtotal), q.DiscountPercent, pricing.Money(q.DiscountAmount), pricing.Money(q.Total))
		return
	}
	fmt.Fprintf(r.out, "Total %s\n", pricing.Money(q.Total))
}

type draftLineView struct {
	Line        int    `json:"line"`
	UPC         string `json:"upc"`
	Product     string `json:"product,omitempty"`
	Quantity    int    `json:"quantity"`
	Promotional bool   `json:"promotional"`
	UnitPrice   string `json:"unit_price"`
	Total       string `json:"total"`
	Valid       bool   `json:"valid"`
}

type draftView struct {
	Status          string          `json:"status"`
	CashierID       string          `json:"cashier_id,omitempty"`
	CardNumber      string          `json:"card_number,omitempty"`
	Lines           []draftLineView `json:"lines"`
	Subtotal        string          `json:"subtotal"`
	DiscountPercent int             `json:"discount_percent"`
	Discount        string          `json:"discount"`
	Total           string          `json:"total"`
	Problem         string          `json:"problem,omitempty"`
	Confirmed       string          `json:"confirmed_receipt,omitempty"`
}

func (r *Runner) cmdShow(_ context.Context, args []string) error {
	d, err := r.requireDraft()
	if err != nil {
		return err
	}
	q := d.Quote()
	view := draftView{
		Status:          d.Status().String(),
		CashierID:       d.CashierID(),
		CardNumber:      d.CardNumber(),
		Lines:           make([]draftLineView, 0, len(q.Lines)),
		Subtotal:        pricing.Money(q.Subtotal),
		DiscountPercent: q.DiscountPercent,
		Discount:        pricing.Money(q.DiscountAmount),
		Total:           pricing.Money(q.Total),
		Confirmed:       d.Confirmed(),
	}
	for i, l := range q.Lines {
		lv := draftLineView{
			Line:        i + 1,
			UPC:         l.UPC,
			Quantity:    l.Quantity,
			Promotional: l.Promotional,
			UnitPrice:   pricing.Money(l.UnitPrice),
			Total:       pricing.Money(l.Total),
			Valid:       l.Valid(),
		}
		if det, ok := d.Reference().Details(l.UPC); ok {
			lv.Product = det.ProductName
		}
		view.Lines = append(view.Lines, lv)
	}
	if view.Confirmed == "" {
		if err := d.Validate(); err != nil {
			view.Problem = err.Error()
		}
	}

	if r.wantJSON(args) {
		return r.writeJSON(view)
	}

	if view.Confirmed != "" {
		fmt.Fprintf(r.out, "Receipt %s was created. Start another with 'new'.\n", view.Confirmed)
		return nil
	}
	cashier := view.CashierID
	if cashier == "" {
		cashier = "(not selected)"
	} else if e, ok := d.Reference().Employee(cashier); ok {
		cashier = fmt.Sprintf("%s (%s)", joinNonEmpty(" ", e.Surname, e.Name), e.ID)
	}
	card := view.CardNumber
	if card == "" {
		card = "(none)"
	}
	fmt.Fprintf(r.out, "Cashier: %s\nCard:    %s\n\n", cashier, card)

	l, err := newListing("draft", "Receipt", draftColumns, view.Lines)
	if err != nil {
		return err
	}
	l.print(r.out)
	fmt.Fprintln(r.out)
	r.printTotals(q)
	if err := d.LastError(); err != nil {
		fmt.Fprintf(r.out, "Last submission failed: %s\n", zlagoda.UserMessage(err, "Failed to create receipt"))
	}
	if view.Problem != "" {
		fmt.Fprintf(r.out, "Not ready: %s\n", view.Problem)
	}
	return nil
}

var draftColumns = []export.Column{
	{Key: "line", Label: "#"},
	{Key: "upc", Label: "UPC"},
	{Key: "product", Label: "Product"},
	{Key: "quantity", Label: "Qty"},
	{Key: "unit_price", Label: "Price"},
	{Key: "promotional", Label: "Promo"},
	{Key: "total", Label: "Total"},
	{Key: "valid", Label: "OK"},
}

func (r *Runner) cmdSubmit(ctx context.Context, _ []string) error {
	d, err := r.requireDraft()
	if err != nil {
		return err
	}
	number, err := d.Submit(ctx)
	if err != nil {
		var invalid composer.ValidationError
		if errors.As(err, &invalid) || errors.Is(err, composer.ErrSubmitting) ||
			errors.Is(err, composer.ErrConfirmed) {
			return err
		}
		r.logger.Warn("submit failed", zap.Error(err))
		return errors.New(zlagoda.UserMessage(err, "Failed to create receipt"))
	}
	fmt.Fprintf(r.out, "Receipt %s created.\n", number)
	return nil
}

func (r *Runner) cmdCancel(_ context.Context, _ []string) error {
	if r.currentDraft() == nil {
		return composer.ErrNoDraft
	}
	r.setDraft(nil)
	fmt.Fprintln(r.out, "Receipt discarded.")
	return nil
}
