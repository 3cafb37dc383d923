package zlagoda

import "github.com/shopspring/decimal"

type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type Product struct {
	ID              int    `json:"id"`
	Name            string `json:"name"`
	Characteristics string `json:"characteristics"`
	CategoryID      int    `json:"category_id"`
}

type StoreProduct struct {
	UPC                string          `json:"upc"`
	PromoUPC           *string         `json:"upc_prom,omitempty"`
	ProductID          int             `json:"product_id"`
	SellingPrice       decimal.Decimal `json:"selling_price"`
	Quantity           int             `json:"products_number"`
	PromotionalProduct bool            `json:"promotional_product"`
}

type StoreProductDetails struct {
	StoreProduct
	ProductName     string `json:"product_name"`
	CategoryName    string `json:"category_name"`
	Characteristics string `json:"characteristics,omitempty"`
}

type CustomerCard struct {
	Number     string `json:"card_number"`
	Surname    string `json:"cust_surname"`
	Name       string `json:"cust_name"`
	Patronymic string `json:"cust_patronymic,omitempty"`
	Phone      string `json:"phone_number"`
	City       string `json:"city,omitempty"`
	Street     string `json:"street,omitempty"`
	ZipCode    string `json:"zip_code,omitempty"`
	Percent    int    `json:"percent"`
}

type Employee struct {
	ID          string          `json:"employee_id"`
	Login       string          `json:"login,omitempty"`
	Surname     string          `json:"empl_surname"`
	Name        string          `json:"empl_name"`
	Patronymic  string          `json:"empl_patronymic,omitempty"`
	Role        string          `json:"empl_role"`
	Salary      decimal.Decimal `json:"salary"`
	DateOfBirth Timestamp       `json:"date_of_birth"`
	DateOfStart Timestamp       `json:"date_of_start"`
	Phone       string          `json:"phone_number"`
	City        string          `json:"city"`
	Street      string          `json:"street"`
	ZipCode     string          `json:"zip_code"`
}

type LoginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Login       string  `json:"login"`
	Password    string  `json:"password"`
	Surname     string  `json:"surname"`
	Name        string  `json:"name"`
	Patronymic  string  `json:"patronymic,omitempty"`
	Role        string  `json:"role"`
	Salary      float64 `json:"salary"`
	DateOfBirth string  `json:"date_of_birth"`
	DateOfStart string  `json:"date_of_start"`
	Phone       string  `json:"phone_number"`
	City        string  `json:"city"`
	Street      string  `json:"street"`
	ZipCode     string  `json:"zip_code"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type idResponse struct {
	ID string `json:"id"`
}

// ReceiptItem is one submitted line. SellingPrice is the effective unit
// price, promotional discount already applied.
type ReceiptItem struct {
	UPC          string  `json:"upc"`
	Quantity     int     `json:"product_number"`
	SellingPrice float64 `json:"selling_price"`
}

type CreateReceiptRequest struct {
	EmployeeID string        `json:"employee_id"`
	CardNumber *string       `json:"card_number"`
	PrintDate  string        `json:"print_date"`
	Items      []ReceiptItem `json:"items"`
}

type Receipt struct {
	Number     string          `json:"receipt_number"`
	EmployeeID string          `json:"employee_id"`
	CardNumber *string         `json:"card_number,omitempty"`
	PrintDate  Timestamp       `json:"print_date"`
	SumTotal   decimal.Decimal `json:"sum_total"`
	VAT        decimal.Decimal `json:"vat"`
}

type Sale struct {
	UPC             string          `json:"upc"`
	ReceiptNumber   string          `json:"receipt_number"`
	Quantity        int             `json:"product_number"`
	SellingPrice    decimal.Decimal `json:"selling_price"`
	ProductName     string          `json:"product_name"`
	CategoryName    string          `json:"category_name"`
	Characteristics string          `json:"characteristics"`
	TotalPrice      decimal.Decimal `json:"total_price"`
}

// Report is the envelope of the analytical queries.
type Report[T any] struct {
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters,omitempty"`
	Results     []T            `json:"results"`
}

type TopCategoryProduct struct {
	CategoryID     int             `json:"category_id"`
	CategoryName   string          `json:"category_name"`
	ProductID      int             `json:"product_id"`
	ProductName    string          `json:"product_name"`
	TotalSales     int             `json:"total_sales"`
	TotalUnitsSold int             `json:"total_units_sold"`
	TotalRevenue   decimal.Decimal `json:"total_revenue"`
}

type EmployeeRef struct {
	EmployeeID   string `json:"employee_id"`
	EmployeeName string `json:"employee_name"`
	Surname      string `json:"surname"`
}

type CategorySales struct {
	CategoryName string          `json:"category_name"`
	UnitsSold    int             `json:"units_sold"`
	Revenue      decimal.Decimal `json:"revenue"`
}

type UnsoldProduct struct {
	UPC          string `json:"upc"`
	ProductName  string `json:"product_name"`
	Quantity     int    `json:"products_number"`
	CategoryName string `json:"category_name"`
}

type HighDiscountCashier struct {
	EmployeeID            string          `json:"employee_id"`
	EmployeeSurname       string          `json:"employee_surname"`
	EmployeeName          string          `json:"employee_name"`
	HighDiscountCustomers int             `json:"high_discount_customers"`
	Receipts              int             `json:"total_receipts_high_discount"`
	Revenue               decimal.Decimal `json:"total_revenue_high_discount"`
	AvgReceiptAmount      decimal.Decimal `json:"avg_receipt_amount"`
	AvgCustomerDiscount   decimal.Decimal `json:"avg_customer_discount"`
}

type LoyalCustomer struct {
	CardNumber string `json:"card_number"`
	Surname    string `json:"cust_surname"`
	Name       string `json:"cust_name"`
	Phone      string `json:"phone_number"`
}
