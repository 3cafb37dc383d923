package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"zlagoda_console/internal/export"
)

type reportDef struct {
	name    string
	args    string
	summary string
	columns []export.Column
	run     func(ctx context.Context, b Reports, args []string) (string, any, error)
}

func reportTable() []reportDef {
	return []reportDef{
		{
			name:    "top-product",
			args:    "<category id> [months]",
			summary: "Best selling product of a category",
			columns: []export.Column{
				{Key: "category_name", Label: "Category"},
				{Key: "product_name", Label: "Product"},
				{Key: "total_units_sold", Label: "Units"},
				{Key: "total_sales", Label: "Sales"},
				{Key: "total_revenue", Label: "Revenue"},
			},
			run: func(ctx context.Context, b Reports, args []string) (string, any, error) {
				if len(args) < 1 || len(args) > 2 {
					return "", nil, errReportUsage
				}
				categoryID, err := strconv.Atoi(args[0])
				if err != nil {
					return "", nil, fmt.Errorf("invalid category id %q", args[0])
				}
				months := 1
				if len(args) == 2 {
					if months, err = strconv.Atoi(args[1]); err != nil || months < 1 {
						return "", nil, fmt.Errorf("invalid months %q", args[1])
					}
				}
				rep, err := b.TopProductInCategory(ctx, categoryID, months)
				return rep.Description, rep.Results, err
			},
		},
		{
			name:    "no-promo-sellers",
			summary: "Employees who never sold a promotional product",
			columns: []export.Column{
				{Key: "employee_id", Label: "ID"},
				{Key: "surname", Label: "Surname"},
				{Key: "employee_name", Label: "Name"},
			},
			run: func(ctx context.Context, b Reports, args []string) (string, any, error) {
				if len(args) != 0 {
					return "", nil, errReportUsage
				}
				rep, err := b.EmployeesWithoutPromoSales(ctx)
				return rep.Description, rep.Results, err
			},
		},
		{
			name:    "category-sales",
			args:    "<from YYYY-MM-DD> <to YYYY-MM-DD>",
			summary: "Units and revenue per category over a period",
			columns: []export.Column{
				{Key: "category_name", Label: "Category"},
				{Key: "units_sold", Label: "Units"},
				{Key: "revenue", Label: "Revenue"},
			},
			run: func(ctx context.Context, b Reports, args []string) (string, any, error) {
				if len(args) != 2 {
					return "", nil, errReportUsage
				}
				from, err := time.Parse(time.DateOnly, args[0])
				if err != nil {
					return "", nil, fmt.Errorf("invalid start date %q", args[0])
				}
				to, err := time.Parse(time.DateOnly, args[1])
				if err != nil {
					return "", nil, fmt.Errorf("invalid end date %q", args[1])
				}
				if to.Before(from) {
					return "", nil, fmt.Errorf("end date is before start date")
				}
				rep, err := b.CategorySales(ctx, from, to)
				return rep.Description, rep.Results, err
			},
		},
		{
			name:    "unsold",
			summary: "Regular store products that were never sold",
			columns: []export.Column{
				{Key: "upc", Label: "UPC"},
				{Key: "product_name", Label: "Product"},
				{Key: "category_name", Label: "Category"},
				{Key: "products_number", Label: "Qty"},
			},
			run: func(ctx context.Context, b Reports, args []string) (string, any, error) {
				if len(args) != 0 {
					return "", nil, errReportUsage
				}
				rep, err := b.UnsoldRegularProducts(ctx)
				return rep.Description, rep.Results, err
			},
		},
		{
			name:    "high-discount-cashiers",
			args:    "<threshold percent>",
			summary: "Cashiers serving customers with big card discounts",
			columns: []export.Column{
				{Key: "employee_id", Label: "ID"},
				{Key: "employee_surname", Label: "Surname"},
				{Key: "employee_name", Label: "Name"},
				{Key: "high_discount_customers", Label: "Customers"},
				{Key: "total_receipts_high_discount", Label: "Receipts"},
				{Key: "total_revenue_high_discount", Label: "Revenue"},
				{Key: "avg_customer_discount", Label: "Avg %"},
			},
			run: func(ctx context.Context, b Reports, args []string) (string, any, error) {
				if len(args) != 1 {
					return "", nil, errReportUsage
				}
				threshold, err := strconv.Atoi(args[0])
				if err != nil || threshold < 0 || threshold > 100 {
					return "", nil, fmt.Errorf("threshold must be a percent between 0 and 100")
				}
				rep, err := b.HighDiscountCashiers(ctx, threshold)
				return rep.Description, rep.Results, err
			},
		},
		{
			name:    "loyal-customers",
			summary: "Card holders who bought from every category last month",
			columns: []export.Column{
				{Key: "card_number", Label: "Card"},
				{Key: "cust_surname", Label: "Surname"},
				{Key: "cust_name", Label: "Name"},
				{Key: "phone_number", Label: "Phone"},
			},
			run: func(ctx context.Context, b Reports, args []string) (string, any, error) {
				if len(args) != 0 {
					return "", nil, errReportUsage
				}
				rep, err := b.CustomersOfAllCategories(ctx)
				return rep.Description, rep.Results, err
			},
		},
	}
}

var errReportUsage = errors.New("wrong report arguments")

func (r *Runner) cmdReport(ctx context.Context, args []string) error {
	fs, lf := newListFlags("report", r.out)
	pdf := fs.Bool("pdf", false, "Also write the report to PDF")
	if len(args) == 0 {
		fmt.Fprintln(r.out, "Reports:")
		for _, def := range reportTable() {
			fmt.Fprintf(r.out, "  %-50s %s\n", def.name+" "+def.args, def.summary)
		}
		return nil
	}

	var def reportDef
	for _, d := range reportTable() {
		if d.name == args[0] {
			def = d
		}
	}
	if def.run == nil {
		return fmt.Errorf("unknown report %q; type 'report' for the list", args[0])
	}
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	description, results, err := def.run(ctx, r.backend, fs.Args())
	if errors.Is(err, errReportUsage) {
		return fmt.Errorf("usage: report %s %s", def.name, def.args)
	}
	if err != nil {
		return err
	}

	title := description
	if title == "" {
		title = def.summary
	}
	l, err := newListing("report-"+def.name, title, def.columns, results)
	if err != nil {
		return err
	}
	if err := lf.apply(l); err != nil {
		return err
	}

	if lf.json || r.options.JSON {
		if err := r.writeJSON(map[string]any{"description": description, "results": l.rows}); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(r.out, title)
		l.print(r.out)
	}

	if *pdf {
		path, err := r.exporter.WriteTable(l.entity, l.table())
		if err != nil {
			return err
		}
		fmt.Fprintf(r.out, "Saved %s\n", path)
	}
	return nil
}
