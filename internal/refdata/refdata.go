// Package refdata holds the static business reference tables served by the
// display endpoints: monthly financials, category performance, suppliers,
// transactions and campaigns. The product collection is the only mutable
// data set; everything here is read-only sample data.
package refdata

// MonthlyFinancial is one month of the revenue/expense series, newest first.
type MonthlyFinancial struct {
	Month    string  `json:"month"`
	Revenue  int64   `json:"revenue"`
	Expenses int64   `json:"expenses"`
	Profit   int64   `json:"profit"`
	Margin   float64 `json:"margin"`
}

// CategoryPerformance is the per-category trend table.
type CategoryPerformance struct {
	Name    string  `json:"name"`
	Revenue int64   `json:"revenue"`
	Profit  int64   `json:"profit"`
	Margin  float64 `json:"margin"`
	Growth  float64 `json:"growth"`
}

type Supplier struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Category     string  `json:"category"`
	Contact      string  `json:"contact"`
	Email        string  `json:"email"`
	Rating       float64 `json:"rating"`
	TotalOrders  int64   `json:"totalOrders"`
	TotalValue   int64   `json:"totalValue"`
	LastOrder    string  `json:"lastOrder"`
	PaymentTerms string  `json:"paymentTerms"`
	Reliability  string  `json:"reliability"`
}

type Transaction struct {
	ID            int64  `json:"id"`
	Date          string `json:"date"`
	Customer      string `json:"customer"`
	Items         int64  `json:"items"`
	Total         int64  `json:"total"`
	PaymentMethod string `json:"paymentMethod"`
	Cashier       string `json:"cashier"`
}

type Campaign struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Type        string  `json:"type"`
	Status      string  `json:"status"`
	StartDate   string  `json:"startDate"`
	EndDate     string  `json:"endDate"`
	Budget      int64   `json:"budget"`
	Spent       int64   `json:"spent"`
	Reach       int64   `json:"reach"`
	Clicks      int64   `json:"clicks"`
	Conversions int64   `json:"conversions"`
	ROAS        float64 `json:"roas"`
	CTR         float64 `json:"ctr"`
	CPC         int64   `json:"cpc"`
}

// Monthly returns the monthly financial series, newest month first.
func Monthly() []MonthlyFinancial {
	return []MonthlyFinancial{
		{Month: "January 2024", Revenue: 2850000, Expenses: 1850000, Profit: 1000000, Margin: 35.1},
		{Month: "December 2023", Revenue: 3200000, Expenses: 2100000, Profit: 1100000, Margin: 34.4},
		{Month: "November 2023", Revenue: 2800000, Expenses: 1900000, Profit: 900000, Margin: 32.1},
		{Month: "October 2023", Revenue: 2500000, Expenses: 1750000, Profit: 750000, Margin: 30.0},
		{Month: "September 2023", Revenue: 2200000, Expenses: 1600000, Profit: 600000, Margin: 27.3},
		{Month: "August 2023", Revenue: 2000000, Expenses: 1500000, Profit: 500000, Margin: 25.0},
	}
}

// Categories returns the per-category trend table.
func Categories() []CategoryPerformance {
	return []CategoryPerformance{
		{Name: "Clothing", Revenue: 850000, Profit: 320000, Margin: 37.6, Growth: 12.5},
		{Name: "Footwear", Revenue: 720000, Profit: 280000, Margin: 38.9, Growth: 8.3},
		{Name: "Accessories", Revenue: 680000, Profit: 320000, Margin: 47.1, Growth: 15.2},
		{Name: "Electronics", Revenue: 450000, Profit: 180000, Margin: 40.0, Growth: 22.1},
		{Name: "Health", Revenue: 150000, Profit: 75000, Margin: 50.0, Growth: 5.8},
	}
}

func Suppliers() []Supplier {
	return []Supplier{
		{ID: 1, Name: "Fashion Forward Ltd", Category: "Clothing", Contact: "+256 701 234 567", Email: "orders@fashionforward.ug", Rating: 4.8, TotalOrders: 45, TotalValue: 4500000, LastOrder: "2024-01-15", PaymentTerms: "Net 30", Reliability: "Excellent"},
		{ID: 2, Name: "Shoe Empire", Category: "Footwear", Contact: "+256 702 345 678", Email: "purchasing@shoeempire.ug", Rating: 4.6, TotalOrders: 32, TotalValue: 3200000, LastOrder: "2024-01-10", PaymentTerms: "Net 45", Reliability: "Good"},
		{ID: 3, Name: "Time Masters", Category: "Accessories", Contact: "+256 703 456 789", Email: "sales@timemasters.ug", Rating: 4.9, TotalOrders: 18, TotalValue: 1800000, LastOrder: "2024-01-05", PaymentTerms: "Net 60", Reliability: "Excellent"},
		{ID: 4, Name: "Tech Solutions", Category: "Electronics", Contact: "+256 704 567 890", Email: "orders@techsolutions.ug", Rating: 4.7, TotalOrders: 28, TotalValue: 2800000, LastOrder: "2024-01-12", PaymentTerms: "Net 30", Reliability: "Good"},
		{ID: 5, Name: "Natural Health", Category: "Health", Contact: "+256 705 678 901", Email: "purchasing@naturalhealth.ug", Rating: 4.5, TotalOrders: 55, TotalValue: 1100000, LastOrder: "2024-01-08", PaymentTerms: "Net 15", Reliability: "Good"},
	}
}

func Transactions() []Transaction {
	return []Transaction{
		{ID: 1, Date: "2024-01-20", Customer: "Regular Customer", Items: 3, Total: 65000, PaymentMethod: "Mobile Money", Cashier: "Mike Johnson"},
		{ID: 2, Date: "2024-01-20", Customer: "VIP Customer", Items: 1, Total: 250000, PaymentMethod: "Card", Cashier: "Sarah Smith"},
		{ID: 3, Date: "2024-01-19", Customer: "Walk-in", Items: 2, Total: 40000, PaymentMethod: "Cash", Cashier: "Mike Johnson"},
		{ID: 4, Date: "2024-01-19", Customer: "Regular Customer", Items: 4, Total: 85000, PaymentMethod: "Mobile Money", Cashier: "Sarah Smith"},
		{ID: 5, Date: "2024-01-18", Customer: "VIP Customer", Items: 2, Total: 120000, PaymentMethod: "Card", Cashier: "John Doe"},
	}
}

func Campaigns() []Campaign {
	return []Campaign{
		{ID: 1, Name: "Summer Sale 2024", Type: "Seasonal", Status: "Active", StartDate: "2024-01-01", EndDate: "2024-03-31", Budget: 500000, Spent: 320000, Reach: 25000, Clicks: 1800, Conversions: 450, ROAS: 3.2, CTR: 7.2, CPC: 178},
		{ID: 2, Name: "New Product Launch", Type: "Product", Status: "Active", StartDate: "2024-01-15", EndDate: "2024-02-15", Budget: 300000, Spent: 180000, Reach: 15000, Clicks: 1200, Conversions: 280, ROAS: 2.8, CTR: 8.0, CPC: 150},
		{ID: 3, Name: "VIP Customer Campaign", Type: "Retention", Status: "Paused", StartDate: "2024-01-10", EndDate: "2024-01-31", Budget: 200000, Spent: 95000, Reach: 8000, Clicks: 650, Conversions: 120, ROAS: 4.1, CTR: 8.1, CPC: 146},
	}
}
