package zlagoda

import (
	"context"
	"strconv"
	"time"
)

const reportDateLayout = "2006-01-02"

// TopProductInCategory reports the best selling product of a category over
// the last months.
func (c *Client) TopProductInCategory(ctx context.Context, categoryID, months int) (Report[TopCategoryProduct], error) {
	if months <= 0 {
		months = 1
	}
	query := map[string]string{
		"category_id": strconv.Itoa(categoryID),
		"months":      strconv.Itoa(months),
	}
	return getReport[TopCategoryProduct](ctx, c, "/api/vlad1", query)
}

// EmployeesWithoutPromoSales lists employees that never sold a promotional product.
func (c *Client) EmployeesWithoutPromoSales(ctx context.Context) (Report[EmployeeRef], error) {
	return getReport[EmployeeRef](ctx, c, "/api/vlad2", nil)
}

// CategorySales aggregates units and revenue per category between two dates.
func (c *Client) CategorySales(ctx context.Context, from, to time.Time) (Report[CategorySales], error) {
	query := map[string]string{
		"start_date": from.Format(reportDateLayout),
		"end_date":   to.Format(reportDateLayout),
	}
	return getReport[CategorySales](ctx, c, "/api/arthur1", query)
}

// UnsoldRegularProducts lists non-promotional store products that were never sold.
func (c *Client) UnsoldRegularProducts(ctx context.Context) (Report[UnsoldProduct], error) {
	return getReport[UnsoldProduct](ctx, c, "/api/arthur2", nil)
}

// HighDiscountCashiers lists cashiers serving customers whose card percent
// is at least threshold.
func (c *Client) HighDiscountCashiers(ctx context.Context, threshold int) (Report[HighDiscountCashier], error) {
	query := map[string]string{"discount_threshold": strconv.Itoa(threshold)}
	return getReport[HighDiscountCashier](ctx, c, "/api/oleksii1", query)
}

// CustomersOfAllCategories lists card holders who bought from every category last month.
func (c *Client) CustomersOfAllCategories(ctx context.Context) (Report[LoyalCustomer], error) {
	return getReport[LoyalCustomer](ctx, c, "/api/oleksii2", nil)
}

func getReport[T any](ctx context.Context, c *Client, path string, query map[string]string) (Report[T], error) {
	var resp Report[T]
	if err := c.doGet(ctx, path, query, &resp); err != nil {
		return Report[T]{}, err
	}
	return resp, nil
}
