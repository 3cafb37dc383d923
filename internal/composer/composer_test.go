package composer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"zlagoda_console/internal/catalog"
	"zlagoda_console/internal/config"
	"zlagoda_console/internal/session"
	"zlagoda_console/internal/zlagoda"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type referenceSource struct{}

func (referenceSource) StoreProductsWithDetails(context.Context) ([]zlagoda.StoreProductDetails, error) {
	promo := "000000000002"
	return []zlagoda.StoreProductDetails{
		{StoreProduct: zlagoda.StoreProduct{UPC: "000000000001", SellingPrice: decimal.NewFromInt(50), Quantity: 10}},
		{StoreProduct: zlagoda.StoreProduct{UPC: "000000000002", SellingPrice: decimal.NewFromInt(20), Quantity: 5, PromotionalProduct: true}},
		{StoreProduct: zlagoda.StoreProduct{UPC: "000000000003", PromoUPC: &promo, SellingPrice: decimal.NewFromInt(25), Quantity: 5}},
	}, nil
}

func (referenceSource) Products(context.Context) ([]zlagoda.Product, error) {
	return nil, nil
}

func (referenceSource) CustomerCards(context.Context) ([]zlagoda.CustomerCard, error) {
	return []zlagoda.CustomerCard{{Number: "1234567890123", Percent: 10}}, nil
}

func (referenceSource) Employees(context.Context) ([]zlagoda.Employee, error) {
	return []zlagoda.Employee{
		{ID: "C1", Surname: "Bondar", Role: "Cashier"},
		{ID: "M1", Surname: "Adamenko", Role: "Manager"},
	}, nil
}

func snapshot(t *testing.T) *catalog.Snapshot {
	t.Helper()
	snap := catalog.NewLoader(referenceSource{}, nil).Load(context.Background(), catalog.Options{IncludeRoster: true})
	require.Empty(t, snap.Errors())
	return snap
}

type fakeSubmitter struct {
	mu        sync.Mutex
	calls     int
	requests  []zlagoda.CreateReceiptRequest
	ids       []string
	err       error
	number    string
	block     chan struct{}
	submitted chan struct{}
}

func (f *fakeSubmitter) CreateReceiptComplete(_ context.Context, req zlagoda.CreateReceiptRequest, requestID string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.requests = append(f.requests, req)
	f.ids = append(f.ids, requestID)
	f.mu.Unlock()
	if f.submitted != nil {
		close(f.submitted)
	}
	if f.block != nil {
		<-f.block
	}
	return f.number, f.err
}

var (
	managerSeller = session.Identity{EmployeeID: "M1", Role: session.RoleManager}
	cashierSeller = session.Identity{EmployeeID: "C1", Role: session.RoleCashier}
)

func TestSubmitWithoutLinesSendsNothing(t *testing.T) {
	api := &fakeSubmitter{}
	c := New(api, snapshot(t), cashierSeller, nil)

	_, err := c.Submit(context.Background())
	require.ErrorIs(t, err, ErrNoItems)
	var invalid ValidationError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "Please add at least one item", err.Error())
	assert.Zero(t, api.calls)
	assert.Equal(t, StatusEmpty, c.Status())
}

func TestManagerMustPickCashier(t *testing.T) {
	api := &fakeSubmitter{}
	c := New(api, snapshot(t), managerSeller, nil)
	_, err := c.AddLine("000000000001", 1)
	require.NoError(t, err)

	_, err = c.Submit(context.Background())
	require.ErrorIs(t, err, ErrNoCashier)
	assert.Zero(t, api.calls)

	require.ErrorIs(t, c.SetCashier("M1"), ErrUnknownCashier)
	require.NoError(t, c.SetCashier("C1"))
	assert.Equal(t, "C1", c.CashierID())
}

func TestCashierIsLockedToSelf(t *testing.T) {
	c := New(&fakeSubmitter{}, snapshot(t), cashierSeller, nil)

	assert.True(t, c.CashierLocked())
	assert.Equal(t, "C1", c.CashierID())
	assert.ErrorIs(t, c.SetCashier("C2"), ErrCashierLocked)
}

func TestIncompleteLineBlocksAdd(t *testing.T) {
	c := New(&fakeSubmitter{}, snapshot(t), cashierSeller, nil)

	_, err := c.AddLine("000000000001", 0)
	require.NoError(t, err)
	_, err = c.AddLine("000000000002", 1)
	require.ErrorIs(t, err, ErrIncompleteLine)

	require.NoError(t, c.SetQuantity(0, 2))
	idx, err := c.AddLine("000000000002", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, idx)

	require.NoError(t, c.RemoveLine(0))
	assert.Len(t, c.Lines(), 1)
	assert.ErrorIs(t, c.RemoveLine(5), ErrLineOutOfRange)
}

func TestInvalidLineBlocksSubmit(t *testing.T) {
	api := &fakeSubmitter{}
	c := New(api, snapshot(t), cashierSeller, nil)
	_, err := c.AddLine("999999999999", 1)
	require.NoError(t, err)

	_, err = c.Submit(context.Background())
	require.ErrorIs(t, err, ErrInvalidLine)
	assert.Equal(t, "Please select a product and quantity for each item", err.Error())
	assert.Zero(t, api.calls)
}

func TestQuoteAppliesPromoAndCard(t *testing.T) {
	c := New(&fakeSubmitter{}, snapshot(t), cashierSeller, nil)
	_, err := c.AddLine("000000000001", 2)
	require.NoError(t, err)
	_, err = c.AddLine("000000000002", 1)
	require.NoError(t, err)
	require.NoError(t, c.SetCard("1234567890123"))

	q := c.Quote()
	assert.Equal(t, "116.00", q.Subtotal.StringFixed(2))
	assert.Equal(t, "11.60", q.DiscountAmount.StringFixed(2))
	assert.Equal(t, "104.40", q.Total.StringFixed(2))

	require.ErrorIs(t, c.SetCard("0000"), ErrUnknownCard)
	require.NoError(t, c.SetCard(""))
	assert.Equal(t, "116.00", c.Quote().Total.StringFixed(2))
}

func TestSubmitBuildsRequestAndClearsDraft(t *testing.T) {
	api := &fakeSubmitter{number: "R0000042"}
	c := New(api, snapshot(t), cashierSeller, nil)
	kyiv := time.FixedZone("EEST", 3*60*60)
	c.now = func() time.Time { return time.Date(2024, 5, 1, 12, 30, 0, 0, kyiv) }
	c.newID = func() string { return "req-1" }

	_, err := c.AddLine("000000000002", 3)
	require.NoError(t, err)
	require.NoError(t, c.SetCard("1234567890123"))

	number, err := c.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "R0000042", number)

	require.Len(t, api.requests, 1)
	req := api.requests[0]
	assert.Equal(t, "C1", req.EmployeeID)
	assert.Equal(t, "2024-05-01 09:30:00", req.PrintDate)
	require.NotNil(t, req.CardNumber)
	assert.Equal(t, "1234567890123", *req.CardNumber)
	require.Len(t, req.Items, 1)
	assert.Equal(t, 3, req.Items[0].Quantity)
	assert.InDelta(t, 16.0, req.Items[0].SellingPrice, 1e-9)
	assert.Equal(t, "req-1", api.ids[0])

	assert.Equal(t, StatusConfirmed, c.Status())
	assert.Equal(t, "R0000042", c.Confirmed())
	assert.Empty(t, c.Lines())
	assert.Empty(t, c.CardNumber())

	_, err = c.AddLine("000000000001", 1)
	require.ErrorIs(t, err, ErrConfirmed)

	require.NoError(t, c.Reset())
	assert.Equal(t, StatusEmpty, c.Status())
	assert.Equal(t, "C1", c.CashierID())
}

func TestSubmitFailureKeepsDraft(t *testing.T) {
	api := &fakeSubmitter{err: errors.New("boom")}
	c := New(api, snapshot(t), cashierSeller, nil)
	_, err := c.AddLine("000000000001", 1)
	require.NoError(t, err)

	_, err = c.Submit(context.Background())
	require.Error(t, err)
	assert.Equal(t, StatusDrafting, c.Status())
	assert.Len(t, c.Lines(), 1)
	assert.Error(t, c.LastError())
}

func TestSubmitIsExclusive(t *testing.T) {
	api := &fakeSubmitter{number: "R1", block: make(chan struct{}), submitted: make(chan struct{})}
	c := New(api, snapshot(t), cashierSeller, nil)
	_, err := c.AddLine("000000000001", 1)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := c.Submit(context.Background())
		done <- err
	}()
	<-api.submitted

	assert.Equal(t, StatusSubmitting, c.Status())
	_, err = c.Submit(context.Background())
	require.ErrorIs(t, err, ErrSubmitting)
	_, err = c.AddLine("000000000002", 1)
	require.ErrorIs(t, err, ErrSubmitting)

	close(api.block)
	require.NoError(t, <-done)
	assert.Equal(t, 1, api.calls)
}

type staticToken string

func (s staticToken) Token() string { return string(s) }

func TestSubmitOverHTTP(t *testing.T) {
	var (
		gotAuth string
		gotID   string
		gotBody zlagoda.CreateReceiptRequest
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/receipts/complete", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		gotID = r.Header.Get("X-Request-ID")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"R0000007"}`))
	}))
	defer srv.Close()

	client := zlagoda.NewClient(config.Config{APIBaseURL: srv.URL, Timeout: 5 * time.Second}, staticToken("secret"), nil)
	c := New(client, snapshot(t), cashierSeller, nil)
	_, err := c.AddLine("000000000003", 2)
	require.NoError(t, err)

	number, err := c.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "R0000007", number)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.NotEmpty(t, gotID)
	assert.Nil(t, gotBody.CardNumber)
	require.Len(t, gotBody.Items, 1)
	assert.InDelta(t, 25.0, gotBody.Items[0].SellingPrice, 1e-9)
}

func TestSubmitServerErrorKeepsMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"Not enough products in stock"}`))
	}))
	defer srv.Close()

	client := zlagoda.NewClient(config.Config{APIBaseURL: srv.URL, Timeout: 5 * time.Second}, staticToken("secret"), nil)
	c := New(client, snapshot(t), cashierSeller, nil)
	_, err := c.AddLine("000000000001", 1)
	require.NoError(t, err)

	_, err = c.Submit(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Not enough products in stock", zlagoda.UserMessage(err, "Failed to create receipt"))
	assert.Equal(t, StatusDrafting, c.Status())
}
