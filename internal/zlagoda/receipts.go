package zlagoda

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
)

var ErrEmptyReceiptNumber = errors.New("receipt number is required")

// CreateReceiptComplete submits a receipt with all of its lines in one
// request and returns the receipt number assigned by the server.
func (c *Client) CreateReceiptComplete(ctx context.Context, req CreateReceiptRequest, requestID string) (string, error) {
	var headers map[string]string
	if requestID != "" {
		headers = map[string]string{requestIDHeader: requestID}
	}

	var resp idResponse
	if err := c.doSend(ctx, http.MethodPost, "/api/receipts/complete", headers, req, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

func (c *Client) Receipts(ctx context.Context) ([]Receipt, error) {
	var resp []Receipt
	if err := c.doGet(ctx, "/api/receipts", nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) Receipt(ctx context.Context, number string) (Receipt, error) {
	path, err := receiptPath(number)
	if err != nil {
		return Receipt{}, err
	}
	var resp Receipt
	if err := c.doGet(ctx, path, nil, &resp); err != nil {
		return Receipt{}, err
	}
	return resp, nil
}

// ReceiptSales lists the sold lines of a receipt joined with product details.
func (c *Client) ReceiptSales(ctx context.Context, number string) ([]Sale, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, ErrEmptyReceiptNumber
	}
	var resp []Sale
	path := "/api/sales/by-receipt/" + url.PathEscape(number) + "/details"
	if err := c.doGet(ctx, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) DeleteReceipt(ctx context.Context, number string) error {
	path, err := receiptPath(number)
	if err != nil {
		return err
	}
	return c.doSend(ctx, http.MethodDelete, path, nil, nil, nil)
}

func receiptPath(number string) (string, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return "", ErrEmptyReceiptNumber
	}
	return "/api/receipts/" + url.PathEscape(number), nil
}
