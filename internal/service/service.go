// Package service provides the implementation of product-related business logic.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/shopanalyser/backend/internal/analytics"
	perrors "github.com/shopanalyser/backend/internal/errors"
	"github.com/shopanalyser/backend/internal/insights"
	"github.com/shopanalyser/backend/internal/refdata"
	"github.com/shopanalyser/backend/internal/store"
	"github.com/shopanalyser/backend/pkg/messaging"
	"github.com/shopanalyser/backend/pkg/messaging/events"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// Analytics periods accepted by the analytics endpoint.
const (
	PeriodMonthly    = "monthly"
	PeriodCategories = "categories"
	PeriodProducts   = "products"
)

// ProductService defines the methods for managing products and deriving
// the dashboard, analytics and insight payloads from them.
type ProductService interface {
	// FindByID retrieves a single product by its unique identifier.
	// Returns ErrProductNotFound if no product exists with the given ID.
	FindByID(ctx context.Context, id int64) (*ProductDto, error)

	// List returns a snapshot of all products.
	List(ctx context.Context) ([]ProductDto, error)

	// Create validates the draft, fills defaults, computes the profit
	// margin and stores the product.
	Create(ctx context.Context, draft ProductCreateDto) (*ProductDto, error)

	// Update merges the patch onto the stored record.
	// Returns ErrProductNotFound if no product exists with the given ID.
	Update(ctx context.Context, id int64, patch ProductUpdateDto) (*ProductDto, error)

	// Delete removes and returns the record.
	// Returns ErrProductNotFound if no product exists with the given ID.
	Delete(ctx context.Context, id int64) (*ProductDto, error)

	// AdjustStock applies a restock or a sale to a single product.
	AdjustStock(ctx context.Context, id int64, adj StockAdjustDto) (*ProductDto, error)

	// LowStock returns products whose stock is below the threshold.
	LowStock(ctx context.Context, threshold int64) ([]ProductDto, error)

	// Dashboard assembles the headline figures, growth trends and top
	// performers for the dashboard page.
	Dashboard(ctx context.Context) (*DashboardDto, error)

	// Analytics returns the requested rollup series with its summary.
	// Returns ErrValidation for an unknown period.
	Analytics(ctx context.Context, period string) (*AnalyticsDto, error)

	// Insights runs the advisory rule table over the current snapshot.
	Insights(ctx context.Context) ([]insights.Insight, error)

	// Predict builds a performance recommendation for a product by name.
	// Returns ErrProductNotFound if no product matches.
	Predict(ctx context.Context, productName string) (*insights.Prediction, error)
}

// Service implements ProductService on top of a ProductStore and an
// optional event publisher for reorder alerts.
type Service struct {
	repository      store.ProductStore
	publisher       messaging.Publisher
	logger          *slog.Logger
	productsCreated metric.Int64Counter
}

// NewService creates a new instance of ProductService with the provided
// repository. publisher may be nil; reorder alerts are then skipped.
func NewService(repo store.ProductStore, publisher messaging.Publisher, logger *slog.Logger) *Service {
	meter := otel.Meter("shopanalyser")
	productsCreated, err := meter.Int64Counter("products_created", metric.WithDescription("Total number of created products"))
	if err != nil {
		panic(fmt.Sprintf("failed to create products_created counter: %v", err))
	}
	return &Service{
		repository:      repo,
		publisher:       publisher,
		logger:          logger.With("component", "service"),
		productsCreated: productsCreated,
	}
}

// ProductDto represents the data transfer object for a product.
// ProfitMargin is read-only and derived from the cost fields.
type ProductDto struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	Category      string  `json:"category,omitempty"`
	WholesaleCost int64   `json:"wholesaleCost"`
	RetailCost    int64   `json:"retailCost"`
	Stock         int64   `json:"stock"`
	Sold          int64   `json:"sold"`
	ProfitMargin  float64 `json:"profitMargin"`
	SKU           string  `json:"sku,omitempty"`
	Supplier      string  `json:"supplier,omitempty"`
	Description   string  `json:"description,omitempty"`
	LastRestock   string  `json:"lastRestock,omitempty"`
	ReorderPoint  int64   `json:"reorderPoint,omitempty"`
}

// ProductCreateDto represents the data transfer object for creating a new
// product. Costs are pointers so that an absent field can be told apart
// from an explicit zero.
type ProductCreateDto struct {
	Name          string `json:"name"          validate:"required,max=100"`
	Category      string `json:"category"      validate:"max=50"`
	WholesaleCost *int64 `json:"wholesaleCost" validate:"required,min=0"`
	RetailCost    *int64 `json:"retailCost"    validate:"required,min=0"`
	Stock         *int64 `json:"stock"         validate:"omitempty,min=0"`
	Sold          *int64 `json:"sold"          validate:"omitempty,min=0"`
	SKU           string `json:"sku"           validate:"max=50"`
	Supplier      string `json:"supplier"      validate:"max=100"`
	Description   string `json:"description"   validate:"max=500"`
	ReorderPoint  *int64 `json:"reorderPoint"  validate:"omitempty,min=0"`
}

// ProductUpdateDto represents a partial update. Nil fields are left
// untouched; any supplied profit margin is ignored and recomputed instead.
type ProductUpdateDto struct {
	Name          *string `json:"name"          validate:"omitempty,max=100"`
	Category      *string `json:"category"      validate:"omitempty,max=50"`
	WholesaleCost *int64  `json:"wholesaleCost" validate:"omitempty,min=0"`
	RetailCost    *int64  `json:"retailCost"    validate:"omitempty,min=0"`
	Stock         *int64  `json:"stock"         validate:"omitempty,min=0"`
	Sold          *int64  `json:"sold"          validate:"omitempty,min=0"`
	SKU           *string `json:"sku"           validate:"omitempty,max=50"`
	Supplier      *string `json:"supplier"      validate:"omitempty,max=100"`
	Description   *string `json:"description"   validate:"omitempty,max=500"`
	LastRestock   *string `json:"lastRestock"   validate:"omitempty,datetime=2006-01-02"`
	ReorderPoint  *int64  `json:"reorderPoint"  validate:"omitempty,min=0"`
}

// StockAdjustDto represents the data transfer object for a stock adjustment.
type StockAdjustDto struct {
	Delta  int64  `json:"delta"  validate:"required,min=1"`
	Reason string `json:"reason" validate:"required,oneof=restock sale"`
}

// DashboardDto aggregates everything the dashboard page renders.
type DashboardDto struct {
	TotalRevenue       int64                         `json:"totalRevenue"`
	TotalCost          int64                         `json:"totalCost"`
	NetProfit          int64                         `json:"netProfit"`
	ProfitMargin       float64                       `json:"profitMargin"`
	ActiveProducts     int                           `json:"activeProducts"`
	TotalSales         int64                         `json:"totalSales"`
	RevenueGrowth      float64                       `json:"revenueGrowth"`
	ProfitGrowth       float64                       `json:"profitGrowth"`
	MonthlyData        []refdata.MonthlyFinancial    `json:"monthlyData"`
	CategoryData       []refdata.CategoryPerformance `json:"categoryData"`
	RecentTransactions []refdata.Transaction         `json:"recentTransactions"`
	TopProducts        []ProductDto                  `json:"topProducts"`
}

// AnalyticsDto is a rollup series plus its summary.
type AnalyticsDto struct {
	Period  string           `json:"period"`
	Data    any              `json:"data"`
	Summary AnalyticsSummary `json:"summary"`
}

type AnalyticsSummary struct {
	TotalRevenue  int64   `json:"totalRevenue"`
	TotalProfit   int64   `json:"totalProfit"`
	AverageMargin float64 `json:"averageMargin"`
}

// FindByID retrieves a product by its ID and returns it as a ProductDto.
func (s *Service) FindByID(ctx context.Context, id int64) (*ProductDto, error) {
	product, err := s.repository.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product by ID %d: %w", id, err)
	}
	return toDto(product), nil
}

// List retrieves a snapshot of all products as ProductDTOs.
func (s *Service) List(ctx context.Context) ([]ProductDto, error) {
	products, err := s.repository.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	return toDtos(products), nil
}

// Create validates the draft, fills defaults, computes the margin and
// stores the product.
func (s *Service) Create(ctx context.Context, draft ProductCreateDto) (*ProductDto, error) {
	name := strings.TrimSpace(draft.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name must not be empty", perrors.ErrValidation)
	}
	if draft.WholesaleCost == nil || draft.RetailCost == nil {
		return nil, fmt.Errorf("%w: wholesaleCost and retailCost are required", perrors.ErrValidation)
	}
	if *draft.WholesaleCost < 0 || *draft.RetailCost < 0 {
		return nil, fmt.Errorf("%w: costs must not be negative", perrors.ErrValidation)
	}

	product := store.Product{
		Name:          name,
		Category:      draft.Category,
		WholesaleCost: *draft.WholesaleCost,
		RetailCost:    *draft.RetailCost,
		Stock:         valueOrZero(draft.Stock),
		Sold:          valueOrZero(draft.Sold),
		ProfitMargin:  store.Margin(*draft.WholesaleCost, *draft.RetailCost),
		SKU:           draft.SKU,
		Supplier:      draft.Supplier,
		Description:   draft.Description,
		LastRestock:   time.Now().Format("2006-01-02"),
	}
	if draft.ReorderPoint != nil {
		product.ReorderPoint = *draft.ReorderPoint
	} else {
		product.ReorderPoint = int64(math.Ceil(float64(product.Stock) * 0.2))
	}
	if product.SKU == "" {
		product.SKU = "SKU-" + strings.ToUpper(uuid.NewString()[:8])
	}

	created, err := s.repository.Create(ctx, product)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	s.productsCreated.Add(ctx, 1)
	return toDto(created), nil
}

// Update merges the patch onto the stored record and returns the result.
func (s *Service) Update(ctx context.Context, id int64, patch ProductUpdateDto) (*ProductDto, error) {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, fmt.Errorf("%w: name must not be empty", perrors.ErrValidation)
	}
	updated, err := s.repository.Update(ctx, id, store.ProductPatch{
		Name:          patch.Name,
		Category:      patch.Category,
		WholesaleCost: patch.WholesaleCost,
		RetailCost:    patch.RetailCost,
		Stock:         patch.Stock,
		Sold:          patch.Sold,
		SKU:           patch.SKU,
		Supplier:      patch.Supplier,
		Description:   patch.Description,
		LastRestock:   patch.LastRestock,
		ReorderPoint:  patch.ReorderPoint,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update product with ID %d: %w", id, err)
	}
	return toDto(updated), nil
}

// Delete removes a product by its ID and returns the removed record.
func (s *Service) Delete(ctx context.Context, id int64) (*ProductDto, error) {
	deleted, err := s.repository.Delete(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to delete product with ID %d: %w", id, err)
	}
	return toDto(deleted), nil
}

// AdjustStock applies a restock or sale and publishes a reorder alert when
// a sale leaves the product at or below its reorder point.
func (s *Service) AdjustStock(ctx context.Context, id int64, adj StockAdjustDto) (*ProductDto, error) {
	if adj.Delta <= 0 {
		return nil, fmt.Errorf("%w: delta must be positive", perrors.ErrValidation)
	}
	reason := store.AdjustReason(adj.Reason)
	if reason != store.ReasonRestock && reason != store.ReasonSale {
		return nil, fmt.Errorf("%w: reason must be restock or sale", perrors.ErrValidation)
	}

	updated, err := s.repository.AdjustStock(ctx, id, adj.Delta, reason)
	if err != nil {
		return nil, fmt.Errorf("failed to adjust stock for product with ID %d: %w", id, err)
	}

	if reason == store.ReasonSale && s.publisher != nil &&
		updated.ReorderPoint > 0 && updated.Stock <= updated.ReorderPoint {
		event := events.StockLowEvent{
			ProductID:    updated.ID,
			Name:         updated.Name,
			Stock:        updated.Stock,
			ReorderPoint: updated.ReorderPoint,
			OccurredAt:   time.Now(),
		}
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.ErrorContext(ctx, "Failed to publish StockLowEvent", "ID", updated.ID, "error", err)
		}
	}
	return toDto(updated), nil
}

// LowStock filters products whose stock is below the threshold.
func (s *Service) LowStock(ctx context.Context, threshold int64) ([]ProductDto, error) {
	products, err := s.repository.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	return toDtos(analytics.LowStock(products, threshold)), nil
}

// Dashboard assembles the dashboard payload from the product snapshot and
// the monthly reference series.
func (s *Service) Dashboard(ctx context.Context) (*DashboardDto, error) {
	products, err := s.repository.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	summary, err := analytics.Summarize(products)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize products: %w", err)
	}

	monthly := refdata.Monthly()
	var revenueGrowth, profitGrowth float64
	if len(monthly) >= 2 {
		revenueGrowth = analytics.Growth(monthly[0].Revenue, monthly[1].Revenue)
		profitGrowth = analytics.Growth(monthly[0].Profit, monthly[1].Profit)
	}

	transactions := refdata.Transactions()
	if len(transactions) > 5 {
		transactions = transactions[:5]
	}

	return &DashboardDto{
		TotalRevenue:       summary.TotalRevenue,
		TotalCost:          summary.TotalCost,
		NetProfit:          summary.NetProfit,
		ProfitMargin:       summary.ProfitMargin,
		ActiveProducts:     summary.Products,
		TotalSales:         summary.TotalUnits,
		RevenueGrowth:      revenueGrowth,
		ProfitGrowth:       profitGrowth,
		MonthlyData:        monthly,
		CategoryData:       refdata.Categories(),
		RecentTransactions: transactions,
		TopProducts:        toDtos(analytics.TopN(products, analytics.MetricRevenue, 5)),
	}, nil
}

// Analytics returns the requested rollup with its summary.
func (s *Service) Analytics(ctx context.Context, period string) (*AnalyticsDto, error) {
	switch period {
	case PeriodMonthly:
		monthly := refdata.Monthly()
		var revenue, profit, margins int64
		var marginSum float64
		for _, m := range monthly {
			revenue += m.Revenue
			profit += m.Profit
			marginSum += m.Margin
			margins++
		}
		return &AnalyticsDto{
			Period:  period,
			Data:    monthly,
			Summary: AnalyticsSummary{TotalRevenue: revenue, TotalProfit: profit, AverageMargin: averageOf(marginSum, margins)},
		}, nil
	case PeriodCategories:
		categories := refdata.Categories()
		var revenue, profit, margins int64
		var marginSum float64
		for _, c := range categories {
			revenue += c.Revenue
			profit += c.Profit
			marginSum += c.Margin
			margins++
		}
		return &AnalyticsDto{
			Period:  period,
			Data:    categories,
			Summary: AnalyticsSummary{TotalRevenue: revenue, TotalProfit: profit, AverageMargin: averageOf(marginSum, margins)},
		}, nil
	case PeriodProducts:
		products, err := s.repository.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch products: %w", err)
		}
		buckets := analytics.PerCategory(products)
		margin, err := analytics.ProfitMargin(products)
		if err != nil {
			return nil, err
		}
		return &AnalyticsDto{
			Period:  period,
			Data:    buckets,
			Summary: AnalyticsSummary{TotalRevenue: analytics.TotalRevenue(products), TotalProfit: analytics.NetProfit(products), AverageMargin: margin},
		}, nil
	default:
		return nil, fmt.Errorf("%w: unknown analytics period %q", perrors.ErrValidation, period)
	}
}

// Insights runs the advisory rule table over the current snapshot.
func (s *Service) Insights(ctx context.Context) ([]insights.Insight, error) {
	products, err := s.repository.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	return insights.Generate(products, refdata.Categories(), refdata.Campaigns()), nil
}

// Predict builds a performance recommendation for a product by name.
func (s *Service) Predict(ctx context.Context, productName string) (*insights.Prediction, error) {
	products, err := s.repository.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	for _, p := range products {
		if strings.EqualFold(p.Name, productName) {
			prediction := insights.Predict(p)
			return &prediction, nil
		}
	}
	return nil, fmt.Errorf("no product named %q: %w", productName, perrors.ErrProductNotFound)
}

func valueOrZero(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}

func averageOf(sum float64, count int64) float64 {
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// toDto converts a store.Product to a ProductDto.
func toDto(product *store.Product) *ProductDto {
	return &ProductDto{
		ID:            product.ID,
		Name:          product.Name,
		Category:      product.Category,
		WholesaleCost: product.WholesaleCost,
		RetailCost:    product.RetailCost,
		Stock:         product.Stock,
		Sold:          product.Sold,
		ProfitMargin:  product.ProfitMargin,
		SKU:           product.SKU,
		Supplier:      product.Supplier,
		Description:   product.Description,
		LastRestock:   product.LastRestock,
		ReorderPoint:  product.ReorderPoint,
	}
}

func toDtos(products []store.Product) []ProductDto {
	dtos := make([]ProductDto, len(products))
	for i := range products {
		dtos[i] = *toDto(&products[i])
	}
	return dtos
}
