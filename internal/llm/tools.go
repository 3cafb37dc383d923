package llm

import openrouter "github.com/revrost/go-openrouter"

// Tool names understood by the console dispatcher.
const (
	ToolListCategories           = "ListCategories"
	ToolListReceipts             = "ListReceipts"
	ToolTopProductInCategory     = "TopProductInCategory"
	ToolEmployeesWithoutPromo    = "EmployeesWithoutPromoSales"
	ToolCategorySales            = "CategorySales"
	ToolUnsoldRegularProducts    = "UnsoldRegularProducts"
	ToolHighDiscountCashiers     = "HighDiscountCashiers"
	ToolCustomersOfAllCategories = "CustomersOfAllCategories"
)

func ToolSchemas() []openrouter.Tool {
	return []openrouter.Tool{
		listCategoriesTool(),
		listReceiptsTool(),
		topProductInCategoryTool(),
		noArgTool(ToolEmployeesWithoutPromo, "List employees who never sold a promotional product. Returns employee_id, surname and name."),
		categorySalesTool(),
		noArgTool(ToolUnsoldRegularProducts, "List non-promotional store products that were never sold. Returns upc, product name and stock quantity."),
		highDiscountCashiersTool(),
		noArgTool(ToolCustomersOfAllCategories, "List loyalty card holders who bought products from every category during the last month."),
	}
}

func function(name, description string, properties map[string]any, required ...string) openrouter.Tool {
	params := map[string]any{
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		params["required"] = required
	}
	return openrouter.Tool{
		Type: openrouter.ToolTypeFunction,
		Function: &openrouter.FunctionDefinition{
			Name:        name,
			Description: description,
			Parameters:  params,
		},
	}
}

func noArgTool(name, description string) openrouter.Tool {
	return function(name, description, map[string]any{})
}

func listCategoriesTool() openrouter.Tool {
	return function(ToolListCategories,
		"List product categories with their numeric id and name. Use it to resolve a category name to the id other tools need.",
		map[string]any{},
	)
}

func listReceiptsTool() openrouter.Tool {
	return function(ToolListReceipts,
		"List receipts printed between two dates (inclusive). Returns receipt_number, employee_id, card_number, print_date, sum_total and vat. Default limit: 50.",
		map[string]any{
			"from": map[string]any{
				"type":        "string",
				"format":      "date",
				"description": "First day, YYYY-MM-DD. If not specified, use 7 days ago.",
			},
			"to": map[string]any{
				"type":        "string",
				"format":      "date",
				"description": "Last day, YYYY-MM-DD. If not specified, use today.",
			},
			"limit": map[string]any{
				"type":        "integer",
				"description": "Maximum number of receipts to return (default: 50, max: 200).",
			},
		},
		"from", "to",
	)
}

func topProductInCategoryTool() openrouter.Tool {
	return function(ToolTopProductInCategory,
		"Find the best selling product of a category over the last N months. Returns the product, units sold and the cashiers who sold it.",
		map[string]any{
			"category_id": map[string]any{
				"type":        "integer",
				"description": "Category id (see ListCategories).",
			},
			"months": map[string]any{
				"type":        "integer",
				"description": "How many months back to look (default: 1).",
			},
		},
		"category_id",
	)
}

func categorySalesTool() openrouter.Tool {
	return function(ToolCategorySales,
		"Aggregate units sold and revenue per category between two dates.",
		map[string]any{
			"start_date": map[string]any{
				"type":        "string",
				"format":      "date",
				"description": "First day, YYYY-MM-DD.",
			},
			"end_date": map[string]any{
				"type":        "string",
				"format":      "date",
				"description": "Last day, YYYY-MM-DD.",
			},
		},
		"start_date", "end_date",
	)
}

func highDiscountCashiersTool() openrouter.Tool {
	return function(ToolHighDiscountCashiers,
		"List cashiers who served loyalty customers with a card discount at or above the threshold percent.",
		map[string]any{
			"discount_threshold": map[string]any{
				"type":        "integer",
				"description": "Minimum card discount percent (0-100).",
			},
		},
		"discount_threshold",
	)
}
