package cli

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"zlagoda_console/internal/export"
	"zlagoda_console/internal/session"
)

var (
	categoryColumns = []export.Column{
		{Key: "id", Label: "ID"},
		{Key: "name", Label: "Name"},
	}
	productColumns = []export.Column{
		{Key: "id", Label: "ID"},
		{Key: "name", Label: "Name"},
		{Key: "category_id", Label: "Category"},
		{Key: "characteristics", Label: "Characteristics"},
	}
	storeProductColumns = []export.Column{
		{Key: "upc", Label: "UPC"},
		{Key: "product_name", Label: "Product"},
		{Key: "category_name", Label: "Category"},
		{Key: "selling_price", Label: "Price"},
		{Key: "products_number", Label: "Qty"},
		{Key: "promotional_product", Label: "Promo"},
		{Key: "upc_prom", Label: "Promo UPC"},
	}
	promoColumns = []export.Column{
		{Key: "upc", Label: "UPC"},
		{Key: "product_id", Label: "Product"},
		{Key: "selling_price", Label: "Price"},
		{Key: "products_number", Label: "Qty"},
	}
	cardColumns = []export.Column{
		{Key: "card_number", Label: "Card"},
		{Key: "cust_surname", Label: "Surname"},
		{Key: "cust_name", Label: "Name"},
		{Key: "phone_number", Label: "Phone"},
		{Key: "city", Label: "City"},
		{Key: "percent", Label: "Discount %"},
	}
	employeeColumns = []export.Column{
		{Key: "employee_id", Label: "ID"},
		{Key: "empl_surname", Label: "Surname"},
		{Key: "empl_name", Label: "Name"},
		{Key: "empl_role", Label: "Role"},
		{Key: "salary", Label: "Salary"},
		{Key: "date_of_start", Label: "Since"},
		{Key: "phone_number", Label: "Phone"},
	}
	receiptColumns = []export.Column{
		{Key: "receipt_number", Label: "Number"},
		{Key: "employee_id", Label: "Cashier"},
		{Key: "card_number", Label: "Card"},
		{Key: "print_date", Label: "Printed"},
		{Key: "sum_total", Label: "Total"},
		{Key: "vat", Label: "VAT"},
	}
)

// loadListing fetches one entity listing.
func (r *Runner) loadListing(ctx context.Context, entity string, opts listingOptions) (*listing, error) {
	switch entity {
	case "categories":
		items, err := r.backend.Categories(ctx)
		if err != nil {
			return nil, err
		}
		return newListing(entity, "Categories", categoryColumns, items)
	case "products":
		var (
			items any
			err   error
		)
		title := "Products"
		switch {
		case opts.categoryID > 0:
			title = fmt.Sprintf("Products in category %d", opts.categoryID)
			items, err = r.backend.ProductsByCategory(ctx, opts.categoryID)
		case opts.search != "":
			title = fmt.Sprintf("Products matching %q", opts.search)
			items, err = r.backend.SearchProducts(ctx, opts.search)
		default:
			items, err = r.backend.Products(ctx)
		}
		if err != nil {
			return nil, err
		}
		return newListing(entity, title, productColumns, items)
	case "store-products":
		if opts.promo {
			items, err := r.backend.PromotionalStoreProducts(ctx)
			if err != nil {
				return nil, err
			}
			return newListing(entity, "Promotional store products", promoColumns, items)
		}
		items, err := r.backend.StoreProductsWithDetails(ctx)
		if err != nil {
			return nil, err
		}
		return newListing(entity, "Store products", storeProductColumns, items)
	case "cards":
		items, err := r.backend.CustomerCards(ctx)
		if err != nil {
			return nil, err
		}
		return newListing(entity, "Customer cards", cardColumns, items)
	case "employees":
		if session.Evaluate(r.store.State(), session.RequireManager) != session.DecisionAllow {
			return nil, userError("Access denied: employees require the Manager role")
		}
		items, err := r.backend.Employees(ctx)
		if err != nil {
			return nil, err
		}
		return newListing(entity, "Employees", employeeColumns, items)
	case "receipts":
		items, err := r.backend.Receipts(ctx)
		if err != nil {
			return nil, err
		}
		return newListing(entity, "Receipts", receiptColumns, items)
	default:
		return nil, fmt.Errorf("unknown listing %q", entity)
	}
}

type listingOptions struct {
	categoryID int
	search     string
	promo      bool
}

func bindProductFlags(fs *flag.FlagSet, opts *listingOptions) {
	fs.IntVar(&opts.categoryID, "category", 0, "Only products of this category id")
	fs.StringVar(&opts.search, "search", "", "Only products whose name contains this text")
}

func bindStoreProductFlags(fs *flag.FlagSet, opts *listingOptions) {
	fs.BoolVar(&opts.promo, "promo", false, "Only promotional products")
}

func (r *Runner) runListing(ctx context.Context, name string, args []string, bind func(fs *flag.FlagSet, opts *listingOptions)) error {
	cmd, _ := findCommand(name)
	fs, lf := newListFlags(name, r.out)
	var opts listingOptions
	if bind != nil {
		bind(fs, &opts)
	}
	if err := fs.Parse(args); err != nil || fs.NArg() > 0 {
		return usageError{cmd}
	}

	l, err := r.loadListing(ctx, name, opts)
	if err != nil {
		return err
	}
	if err := lf.apply(l); err != nil {
		return err
	}
	if lf.json || r.options.JSON {
		return r.writeJSON(l.rows)
	}
	l.print(r.out)
	return nil
}

func (r *Runner) cmdCategories(ctx context.Context, args []string) error {
	return r.runListing(ctx, "categories", args, nil)
}

func (r *Runner) cmdProducts(ctx context.Context, args []string) error {
	return r.runListing(ctx, "products", args, bindProductFlags)
}

func (r *Runner) cmdStoreProducts(ctx context.Context, args []string) error {
	return r.runListing(ctx, "store-products", args, bindStoreProductFlags)
}

func (r *Runner) cmdCards(ctx context.Context, args []string) error {
	return r.runListing(ctx, "cards", args, nil)
}

func (r *Runner) cmdEmployees(ctx context.Context, args []string) error {
	return r.runListing(ctx, "employees", args, nil)
}

func (r *Runner) cmdReceipts(ctx context.Context, args []string) error {
	return r.runListing(ctx, "receipts", args, nil)
}

func (r *Runner) cmdExport(ctx context.Context, args []string) error {
	cmd, _ := findCommand("export")
	fs, lf := newListFlags(cmd.name, r.out)
	var opts listingOptions
	bindProductFlags(fs, &opts)
	bindStoreProductFlags(fs, &opts)
	if len(args) == 0 {
		return usageError{cmd}
	}
	entity := strings.ToLower(args[0])
	if err := fs.Parse(args[1:]); err != nil {
		return usageError{cmd}
	}

	var (
		path string
		err  error
	)
	if entity == "receipt" {
		if fs.NArg() != 1 {
			return usageError{cmd}
		}
		doc, derr := r.receiptDocument(ctx, fs.Arg(0))
		if derr != nil {
			return derr
		}
		path, err = r.exporter.WriteReceipt(doc)
	} else {
		if fs.NArg() != 0 {
			return usageError{cmd}
		}
		l, lerr := r.loadListing(ctx, entity, opts)
		if lerr != nil {
			return lerr
		}
		if err := lf.apply(l); err != nil {
			return err
		}
		path, err = r.exporter.WriteTable(l.entity, l.table())
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "Saved %s\n", path)
	return nil
}
