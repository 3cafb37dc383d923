package zlagoda

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

func (c *Client) Categories(ctx context.Context) ([]Category, error) {
	var resp []Category
	if err := c.doGet(ctx, "/api/categories", nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) Products(ctx context.Context) ([]Product, error) {
	var resp []Product
	if err := c.doGet(ctx, "/api/products", nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) ProductsByCategory(ctx context.Context, categoryID int) ([]Product, error) {
	var resp []Product
	path := fmt.Sprintf("/api/products/by-category/%d", categoryID)
	if err := c.doGet(ctx, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) SearchProducts(ctx context.Context, name string) ([]Product, error) {
	var resp []Product
	query := map[string]string{"name": strings.TrimSpace(name)}
	if err := c.doGet(ctx, "/api/products/search", query, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) StoreProductsWithDetails(ctx context.Context) ([]StoreProductDetails, error) {
	var resp []StoreProductDetails
	if err := c.doGet(ctx, "/api/store-products/details", nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) PromotionalStoreProducts(ctx context.Context) ([]StoreProduct, error) {
	var resp []StoreProduct
	if err := c.doGet(ctx, "/api/store-products/promotional", nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) CustomerCards(ctx context.Context) ([]CustomerCard, error) {
	var resp []CustomerCard
	if err := c.doGet(ctx, "/api/customer-cards", nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) CustomerCard(ctx context.Context, number string) (CustomerCard, error) {
	var resp CustomerCard
	path := "/api/customer-cards/" + url.PathEscape(strings.TrimSpace(number))
	if err := c.doGet(ctx, path, nil, &resp); err != nil {
		return CustomerCard{}, err
	}
	return resp, nil
}

func (c *Client) Employees(ctx context.Context) ([]Employee, error) {
	var resp []Employee
	if err := c.doGet(ctx, "/api/employees", nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}
