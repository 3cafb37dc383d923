package zlagoda

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"zlagoda_console/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tokenFunc func() string

func (f tokenFunc) Token() string { return f() }

func newTestClient(t *testing.T, handler http.HandlerFunc, token string) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.Config{APIBaseURL: srv.URL + "/", Timeout: 5 * time.Second}, tokenFunc(func() string { return token }), nil)
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func TestBearerHeaderOnlyWithToken(t *testing.T) {
	var got []string
	handler := func(w http.ResponseWriter, r *http.Request) {
		got = append(got, r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, `[]`)
	}

	_, err := newTestClient(t, handler, "abc").Categories(context.Background())
	require.NoError(t, err)
	_, err = newTestClient(t, handler, "").Categories(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"Bearer abc", ""}, got)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		sentinel error
		message  string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":"token expired"}`, ErrUnauthorized, "token expired"},
		{"forbidden", http.StatusForbidden, `{}`, ErrForbidden, "Access denied."},
		{"not found", http.StatusNotFound, `{"message":"no such receipt"}`, ErrNotFound, "no such receipt"},
		{"plain text", http.StatusInternalServerError, `oops`, nil, "fallback"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			}, "abc")

			_, err := c.Receipt(context.Background(), "R1")
			require.Error(t, err)

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			if tt.sentinel != nil {
				assert.ErrorIs(t, err, tt.sentinel)
			}
			assert.Equal(t, tt.message, UserMessage(err, "fallback"))
		})
	}
}

func TestReceiptCreationIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusTooManyRequests, `{"error":"slow down"}`)
	}, "abc")

	_, err := c.CreateReceiptComplete(context.Background(), CreateReceiptRequest{EmployeeID: "C1"}, "req-1")
	require.ErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, int32(1), calls.Load())
}

func TestReadsAreRetriedOnRateLimit(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			writeJSON(w, http.StatusTooManyRequests, `{}`)
			return
		}
		writeJSON(w, http.StatusOK, `[{"id":1,"name":"Dairy"}]`)
	}, "abc")

	cats, err := c.Categories(context.Background())
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, int32(2), calls.Load())
}

func TestCreateReceiptSendsRequestID(t *testing.T) {
	var (
		gotID   string
		gotBody map[string]any
	)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/receipts/complete", r.URL.Path)
		gotID = r.Header.Get("X-Request-ID")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		writeJSON(w, http.StatusCreated, `{"id":"R0000009"}`)
	}, "abc")

	number, err := c.CreateReceiptComplete(context.Background(), CreateReceiptRequest{
		EmployeeID: "C1",
		PrintDate:  "2024-05-01 09:30:00",
		Items:      []ReceiptItem{{UPC: "000000000001", Quantity: 2, SellingPrice: 40}},
	}, "req-9")
	require.NoError(t, err)
	assert.Equal(t, "R0000009", number)
	assert.Equal(t, "req-9", gotID)
	assert.Equal(t, "C1", gotBody["employee_id"])
	assert.Nil(t, gotBody["card_number"])
	items, ok := gotBody["items"].([]any)
	require.True(t, ok)
	require.Len(t, items, 1)
	assert.Equal(t, "000000000001", items[0].(map[string]any)["upc"])
}

func TestReceiptDecodesMixedDates(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `[
			{"receipt_number":"R1","employee_id":"C1","print_date":"2024-05-01 09:30:00","sum_total":"116.00","vat":"23.20"},
			{"receipt_number":"R2","employee_id":"C1","card_number":"123","print_date":"2024-05-02T10:00:00Z","sum_total":10,"vat":2}
		]`)
	}, "abc")

	receipts, err := c.Receipts(context.Background())
	require.NoError(t, err)
	require.Len(t, receipts, 2)
	assert.Equal(t, time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC), receipts[0].PrintDate.Time)
	assert.Equal(t, "116", receipts[0].SumTotal.String())
	assert.Nil(t, receipts[0].CardNumber)
	require.NotNil(t, receipts[1].CardNumber)
	assert.Equal(t, 2, receipts[1].PrintDate.Day())
}

func TestTimestampRejectsGarbage(t *testing.T) {
	var ts Timestamp
	require.Error(t, json.Unmarshal([]byte(`"yesterday"`), &ts))
	require.NoError(t, json.Unmarshal([]byte(`null`), &ts))
	assert.True(t, ts.IsZero())
	require.NoError(t, json.Unmarshal([]byte(`"1990-02-03"`), &ts))
	assert.Equal(t, time.February, ts.Month())
}

func TestReportQueries(t *testing.T) {
	var query map[string]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		query = map[string]string{}
		for k := range r.URL.Query() {
			query[k] = r.URL.Query().Get(k)
		}
		writeJSON(w, http.StatusOK, `{"description":"d","parameters":{},"results":[]}`)
	}, "abc")
	ctx := context.Background()

	_, err := c.TopProductInCategory(ctx, 3, 0)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"category_id": "3", "months": "1"}, query)

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err = c.CategorySales(ctx, from, from.AddDate(0, 1, 0))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"start_date": "2024-01-01", "end_date": "2024-02-01"}, query)

	_, err = c.HighDiscountCashiers(ctx, 15)
	require.NoError(t, err)
	assert.Equal(t, "15", query["discount_threshold"])
}

func TestEmptyTokenIsAnError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"token":""}`)
	}, "")
	_, err := c.Login(context.Background(), "ivan", "secret")
	assert.True(t, errors.Is(err, ErrEmptyToken))
}

func TestTimestampMarshalsBackendLayout(t *testing.T) {
	data, err := json.Marshal(struct {
		At  Timestamp `json:"at"`
		Day Timestamp `json:"day"`
		Nil Timestamp `json:"nil"`
	}{
		At:  Timestamp{time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)},
		Day: Timestamp{time.Date(1990, 2, 3, 0, 0, 0, 0, time.UTC)},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"at":"2024-05-01 09:30:00","day":"1990-02-03","nil":null}`, string(data))
}
