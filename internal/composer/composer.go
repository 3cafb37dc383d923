// Package composer holds an in-progress receipt: who sells, which loyalty
// card applies, and the lines being bought. It validates the draft and
// submits it as one request.
package composer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"zlagoda_console/internal/catalog"
	"zlagoda_console/internal/pricing"
	"zlagoda_console/internal/session"
	"zlagoda_console/internal/zlagoda"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PrintDateLayout is the timestamp format the backend accepts for print_date.
// The backend reads it without a zone; it is always sent in UTC.
const PrintDateLayout = "2006-01-02 15:04:05"

// ValidationError is a draft check failure; its text is shown to the user as is.
type ValidationError string

func (e ValidationError) Error() string { return string(e) }

const (
	ErrNoCashier   ValidationError = "Please select a cashier"
	ErrNoItems     ValidationError = "Please add at least one item"
	ErrInvalidLine ValidationError = "Please select a product and quantity for each item"
)

var (
	ErrNoDraft          = errors.New("no receipt in progress; start one with 'new'")
	ErrSubmitting       = errors.New("a submission is already in progress")
	ErrConfirmed        = errors.New("receipt already created; start a new one")
	ErrCashierLocked    = errors.New("receipts are created under your own account")
	ErrUnknownCashier   = errors.New("no such cashier")
	ErrUnknownCard      = errors.New("no such customer card")
	ErrIncompleteLine   = errors.New("complete the last item before adding another")
	ErrLineOutOfRange   = errors.New("no such item line")
	ErrInvalidQuantity  = errors.New("quantity must be at least 1")
	ErrReferenceMissing = errors.New("reference data is not loaded")
)

type Status int

const (
	StatusEmpty Status = iota
	StatusDrafting
	StatusSubmitting
	StatusConfirmed
)

func (s Status) String() string {
	switch s {
	case StatusDrafting:
		return "drafting"
	case StatusSubmitting:
		return "submitting"
	case StatusConfirmed:
		return "confirmed"
	default:
		return "empty"
	}
}

type Submitter interface {
	CreateReceiptComplete(ctx context.Context, req zlagoda.CreateReceiptRequest, requestID string) (string, error)
}

type Composer struct {
	api    Submitter
	ref    *catalog.Snapshot
	logger *zap.Logger
	now    func() time.Time
	newID  func() string

	mu            sync.Mutex
	cashierID     string
	cashierLocked bool
	cardNumber    string
	lines         []pricing.Line
	submitting    bool
	confirmed     string
	lastErr       error
}

// New starts an empty draft. A cashier always sells under their own
// account; anyone else picks a cashier from the roster.
func New(api Submitter, ref *catalog.Snapshot, seller session.Identity, logger *zap.Logger) *Composer {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Composer{
		api:    api,
		ref:    ref,
		logger: logger.Named("composer"),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	if seller.Role == session.RoleCashier && seller.EmployeeID != "" {
		c.cashierID = seller.EmployeeID
		c.cashierLocked = true
	}
	return c
}

func (c *Composer) Reference() *catalog.Snapshot {
	return c.ref
}

func (c *Composer) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status()
}

func (c *Composer) status() Status {
	switch {
	case c.submitting:
		return StatusSubmitting
	case c.confirmed != "":
		return StatusConfirmed
	case len(c.lines) > 0:
		return StatusDrafting
	default:
		return StatusEmpty
	}
}

// LastError is the failure of the latest submission attempt, if any.
func (c *Composer) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Confirmed returns the receipt number of a successful submission.
func (c *Composer) Confirmed() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.confirmed
}

func (c *Composer) CashierID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cashierID
}

func (c *Composer) CashierLocked() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cashierLocked
}

func (c *Composer) CardNumber() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cardNumber
}

func (c *Composer) Lines() []pricing.Line {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]pricing.Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// Reset discards the draft and any confirmation, keeping a locked cashier.
func (c *Composer) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.submitting {
		return ErrSubmitting
	}
	c.lines = nil
	c.cardNumber = ""
	c.confirmed = ""
	c.lastErr = nil
	if !c.cashierLocked {
		c.cashierID = ""
	}
	return nil
}

func (c *Composer) SetCashier(id string) error {
	id = strings.TrimSpace(id)
	return c.edit(func() error {
		if c.cashierLocked {
			return ErrCashierLocked
		}
		if id == "" {
			c.cashierID = ""
			return nil
		}
		if !c.isCashier(id) {
			return fmt.Errorf("%w: %s", ErrUnknownCashier, id)
		}
		c.cashierID = id
		return nil
	})
}

func (c *Composer) isCashier(id string) bool {
	for _, e := range c.ref.Cashiers() {
		if e.ID == id {
			return true
		}
	}
	return false
}

// SetCard selects a loyalty card; an empty number removes it.
func (c *Composer) SetCard(number string) error {
	number = strings.TrimSpace(number)
	return c.edit(func() error {
		if number == "" {
			c.cardNumber = ""
			return nil
		}
		if _, ok := c.ref.Card(number); !ok {
			return fmt.Errorf("%w: %s", ErrUnknownCard, number)
		}
		c.cardNumber = number
		return nil
	})
}

// AddLine appends a line and returns its index. A new line is refused while
// the previous one still lacks a product or a quantity.
func (c *Composer) AddLine(upc string, quantity int) (int, error) {
	idx := -1
	err := c.edit(func() error {
		if n := len(c.lines); n > 0 {
			last := c.lines[n-1]
			if last.UPC == "" || last.Quantity < 1 {
				return ErrIncompleteLine
			}
		}
		c.lines = append(c.lines, pricing.Line{UPC: strings.TrimSpace(upc), Quantity: quantity})
		idx = len(c.lines) - 1
		return nil
	})
	return idx, err
}

func (c *Composer) UpdateLine(i int, upc string, quantity int) error {
	return c.edit(func() error {
		if i < 0 || i >= len(c.lines) {
			return ErrLineOutOfRange
		}
		c.lines[i] = pricing.Line{UPC: strings.TrimSpace(upc), Quantity: quantity}
		return nil
	})
}

func (c *Composer) SetQuantity(i, quantity int) error {
	return c.edit(func() error {
		if i < 0 || i >= len(c.lines) {
			return ErrLineOutOfRange
		}
		c.lines[i].Quantity = quantity
		return nil
	})
}

func (c *Composer) RemoveLine(i int) error {
	return c.edit(func() error {
		if i < 0 || i >= len(c.lines) {
			return ErrLineOutOfRange
		}
		c.lines = append(c.lines[:i], c.lines[i+1:]...)
		return nil
	})
}

func (c *Composer) edit(fn func() error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.status() {
	case StatusSubmitting:
		return ErrSubmitting
	case StatusConfirmed:
		return ErrConfirmed
	}
	return fn()
}

// Quote prices the current draft.
func (c *Composer) Quote() pricing.Quote {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.quote()
}

func (c *Composer) quote() pricing.Quote {
	percent := 0
	if card, ok := c.ref.Card(c.cardNumber); ok && c.cardNumber != "" {
		percent = card.Percent
	}
	return pricing.Compute(c.lines, c.ref.StoreProduct, percent)
}

// Validate reports the first unmet precondition for submission.
func (c *Composer) Validate() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.validate()
	return err
}

func (c *Composer) validate() (pricing.Quote, error) {
	if c.cashierID == "" {
		return pricing.Quote{}, ErrNoCashier
	}
	if len(c.lines) == 0 {
		return pricing.Quote{}, ErrNoItems
	}
	quote := c.quote()
	for _, l := range quote.Lines {
		if !l.Valid() {
			return quote, ErrInvalidLine
		}
	}
	return quote, nil
}

// Submit sends the draft. On success the draft is cleared and the
// server-assigned receipt number returned; on failure the draft is kept as
// it was. Only one submission may be in flight.
func (c *Composer) Submit(ctx context.Context) (string, error) {
	c.mu.Lock()
	switch c.status() {
	case StatusSubmitting:
		c.mu.Unlock()
		return "", ErrSubmitting
	case StatusConfirmed:
		c.mu.Unlock()
		return "", ErrConfirmed
	}
	quote, err := c.validate()
	if err != nil {
		c.mu.Unlock()
		return "", err
	}
	req := c.request(quote)
	requestID := c.newID()
	c.submitting = true
	c.lastErr = nil
	c.mu.Unlock()

	start := time.Now()
	number, err := c.api.CreateReceiptComplete(ctx, req, requestID)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.submitting = false

	fields := []zap.Field{
		zap.String("request_id", requestID),
		zap.String("employee_id", req.EmployeeID),
		zap.Int("items", len(req.Items)),
		zap.String("total", pricing.Money(quote.Total)),
		zap.Duration("elapsed", time.Since(start)),
	}
	if err != nil {
		c.lastErr = err
		c.logger.Warn("receipt submission failed", append(fields, zap.Error(err))...)
		return "", fmt.Errorf("submit receipt: %w", err)
	}

	c.logger.Info("receipt created", append(fields, zap.String("receipt_number", number))...)
	c.confirmed = number
	c.lines = nil
	c.cardNumber = ""
	if !c.cashierLocked {
		c.cashierID = ""
	}
	return number, nil
}

func (c *Composer) request(quote pricing.Quote) zlagoda.CreateReceiptRequest {
	req := zlagoda.CreateReceiptRequest{
		EmployeeID: c.cashierID,
		PrintDate:  c.now().UTC().Format(PrintDateLayout),
		Items:      make([]zlagoda.ReceiptItem, 0, len(quote.Lines)),
	}
	if c.cardNumber != "" {
		card := c.cardNumber
		req.CardNumber = &card
	}
	for _, l := range quote.Lines {
		req.Items = append(req.Items, zlagoda.ReceiptItem{
			UPC:          l.UPC,
			Quantity:     l.Quantity,
			SellingPrice: l.UnitPrice.InexactFloat64(),
		})
	}
	return req
}
