// Package rest provides HTTP handlers for the shop analyser API.
package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	perrors "github.com/shopanalyser/backend/internal/errors"
	"github.com/shopanalyser/backend/internal/refdata"
	"github.com/shopanalyser/backend/internal/service"
	"github.com/shopanalyser/backend/internal/tax"
	"github.com/shopanalyser/backend/pkg/web"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
)

type Handler struct {
	service  service.ProductService
	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandler creates a new instance of the product API with the provided service.
func NewHandler(service service.ProductService, logger *slog.Logger) *Handler {
	return &Handler{
		service:  service,
		validate: validator.New(),
		logger:   logger.With("component", "rest"),
	}
}

// RegisterRoutes registers the HTTP routes for the shop analyser API.
func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.List)
			r.Post("/", h.Create)
			r.Get("/low-stock", h.LowStock)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.FindByID)
				r.Put("/", h.Update)
				r.Delete("/", h.Delete)
				r.Post("/stock", h.AdjustStock)
			})
		})

		r.Get("/dashboard", h.Dashboard)
		r.Get("/analytics", h.Analytics)
		r.Get("/insights", h.Insights)
		r.Post("/predict", h.Predict)
		r.Get("/tax", h.Tax)
		r.Get("/suppliers", h.Suppliers)
		r.Get("/transactions", h.Transactions)
		r.Get("/campaigns", h.Campaigns)
	})

	r.Get("/healthz", h.HealthCheck)
}

// List retrieves a snapshot of all products.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	mLogger.DebugContext(r.Context(), "Received request to list products")
	list, err := h.service.List(r.Context())
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error retrieving product list", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to fetch products")
		return
	}
	mLogger.DebugContext(r.Context(), "Successfully retrieved product list", "count", len(list))
	web.RespondJSON(w, mLogger, http.StatusOK, list)
}

// FindByID retrieves a product by its ID.
func (h *Handler) FindByID(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}

	mLogger.DebugContext(r.Context(), "Received request to find product by ID", "ID", id)
	found, err := h.service.FindByID(r.Context(), id)
	if err != nil {
		h.respondDomainError(w, r, mLogger, err, fmt.Sprintf("Failed to retrieve product with ID %d", id))
		return
	}
	mLogger.DebugContext(r.Context(), "Successfully retrieved product", "ID", found.ID, "Name", found.Name)
	web.RespondJSON(w, mLogger, http.StatusOK, found)
}

// Create handles the creation of a new product.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	var draft service.ProductCreateDto
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}
	mLogger.DebugContext(r.Context(), "Received request to create product", "product", draft.Name)
	if !h.validateStruct(w, r, mLogger, draft) {
		return
	}

	newProduct, err := h.service.Create(r.Context(), draft)
	if err != nil {
		h.respondDomainError(w, r, mLogger, err, "Failed to create product")
		return
	}
	mLogger.InfoContext(r.Context(), "Product created successfully", "ID", newProduct.ID, "Name", newProduct.Name)
	web.RespondJSON(w, mLogger, http.StatusCreated, newProduct)
}

// Update merges a partial update onto a product.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	mLogger.DebugContext(r.Context(), "Received request to update product", "ID", id)
	var patch service.ProductUpdateDto
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !h.validateStruct(w, r, mLogger, patch) {
		return
	}

	updated, err := h.service.Update(r.Context(), id, patch)
	if err != nil {
		h.respondDomainError(w, r, mLogger, err, fmt.Sprintf("Failed to update product with ID %d", id))
		return
	}
	mLogger.InfoContext(r.Context(), "Product updated successfully", "ID", updated.ID, "Name", updated.Name)
	web.RespondJSON(w, mLogger, http.StatusOK, updated)
}

// Delete removes a product by its ID.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	mLogger.DebugContext(r.Context(), "Received request to delete product", "ID", id)
	deleted, err := h.service.Delete(r.Context(), id)
	if err != nil {
		h.respondDomainError(w, r, mLogger, err, fmt.Sprintf("Failed to delete product with ID %d", id))
		return
	}
	mLogger.InfoContext(r.Context(), "Product deleted successfully", "ID", id)
	web.RespondJSON(w, mLogger, http.StatusOK, deleted)
}

// AdjustStock applies a restock or sale to a product.
func (h *Handler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	var adj service.StockAdjustDto
	if err := json.NewDecoder(r.Body).Decode(&adj); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}
	mLogger.DebugContext(r.Context(), "Received request to adjust stock", "ID", id, "delta", adj.Delta, "reason", adj.Reason)
	if !h.validateStruct(w, r, mLogger, adj) {
		return
	}

	updated, err := h.service.AdjustStock(r.Context(), id, adj)
	if err != nil {
		h.respondDomainError(w, r, mLogger, err, fmt.Sprintf("Failed to adjust stock for product with ID %d", id))
		return
	}
	mLogger.InfoContext(r.Context(), "Stock adjusted successfully", "ID", updated.ID, "NewStock", updated.Stock, "Sold", updated.Sold)
	web.RespondJSON(w, mLogger, http.StatusOK, updated)
}

// LowStock returns products whose stock is below the threshold query parameter.
func (h *Handler) LowStock(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	threshold, ok := web.ParseValidateGt(r, w, mLogger, "threshold", 0)
	if !ok {
		return
	}
	mLogger.DebugContext(r.Context(), "Received request for low-stock products", "threshold", threshold)
	list, err := h.service.LowStock(r.Context(), threshold)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error retrieving low-stock products", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to fetch low-stock products")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, list)
}

// Dashboard returns the aggregated dashboard payload.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	mLogger.DebugContext(r.Context(), "Received request for dashboard")
	dashboard, err := h.service.Dashboard(r.Context())
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error building dashboard", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to build dashboard")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, dashboard)
}

// Analytics returns the requested rollup series; period defaults to monthly.
func (h *Handler) Analytics(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	period := r.URL.Query().Get("period")
	if period == "" {
		period = service.PeriodMonthly
	}
	mLogger.DebugContext(r.Context(), "Received request for analytics", "period", period)
	result, err := h.service.Analytics(r.Context(), period)
	if err != nil {
		h.respondDomainError(w, r, mLogger, err, "Failed to build analytics")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, result)
}

// Insights returns the advisory cards for the current snapshot.
func (h *Handler) Insights(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	mLogger.DebugContext(r.Context(), "Received request for insights")
	cards, err := h.service.Insights(r.Context())
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error generating insights", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to generate insights")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, map[string]any{"insights": cards})
}

// predictRequest is the body of the predict endpoint.
type predictRequest struct {
	ProductName string `json:"productName" validate:"required,max=100"`
}

// Predict returns a performance recommendation for a product by name.
func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	var req predictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !h.validateStruct(w, r, mLogger, req) {
		return
	}
	mLogger.DebugContext(r.Context(), "Received request for prediction", "product", req.ProductName)
	prediction, err := h.service.Predict(r.Context(), req.ProductName)
	if err != nil {
		h.respondDomainError(w, r, mLogger, err, fmt.Sprintf("Failed to predict performance for %q", req.ProductName))
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, prediction)
}

// Tax assesses tiered tax for the income query parameter.
func (h *Handler) Tax(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	income, ok := web.ParseValidateGte(r, w, mLogger, "income", 0)
	if !ok {
		return
	}
	assessment, err := tax.Calculate(income)
	if err != nil {
		h.respondDomainError(w, r, mLogger, err, "Failed to assess tax")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, assessment)
}

// Suppliers returns the supplier reference table.
func (h *Handler) Suppliers(w http.ResponseWriter, r *http.Request) {
	web.RespondJSON(w, h.loggerWithReqID(r), http.StatusOK, refdata.Suppliers())
}

// Transactions returns the transaction reference table.
func (h *Handler) Transactions(w http.ResponseWriter, r *http.Request) {
	web.RespondJSON(w, h.loggerWithReqID(r), http.StatusOK, refdata.Transactions())
}

// Campaigns returns the campaign reference table.
func (h *Handler) Campaigns(w http.ResponseWriter, r *http.Request) {
	web.RespondJSON(w, h.loggerWithReqID(r), http.StatusOK, refdata.Campaigns())
}

// HealthCheck is a simple health check endpoint.
func (h *Handler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// validateStruct validates a request DTO and writes the field-level error
// response on failure. Returns true when the DTO is valid.
func (h *Handler) validateStruct(w http.ResponseWriter, r *http.Request, mLogger *slog.Logger, v any) bool {
	err := h.validate.Struct(v)
	if err == nil {
		return true
	}
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		errorResponse := make(map[string]string)
		for _, fieldErr := range validationErrors {
			errorResponse[fieldErr.Field()] = "failed on rule: " + fieldErr.Tag()
		}
		mLogger.WarnContext(r.Context(), "Validation errors occurred", "errors", errorResponse)
		web.RespondJSON(w, mLogger, http.StatusBadRequest, map[string]any{"validation_errors": errorResponse})
		return false
	}
	mLogger.ErrorContext(r.Context(), "Error validating request body", "error", err)
	web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
	return false
}

// respondDomainError translates domain errors into HTTP status codes:
// not found to 404, validation and insufficient stock to 400, everything
// else (persistence included) to 500.
func (h *Handler) respondDomainError(w http.ResponseWriter, r *http.Request, mLogger *slog.Logger, err error, fallback string) {
	switch {
	case errors.Is(err, perrors.ErrProductNotFound):
		mLogger.WarnContext(r.Context(), "Product not found", "error", err)
		web.RespondError(w, mLogger, http.StatusNotFound, "Product not found")
	case errors.Is(err, perrors.ErrValidation):
		mLogger.WarnContext(r.Context(), "Validation failed", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, err.Error())
	case errors.Is(err, perrors.ErrInsufficientStock):
		mLogger.WarnContext(r.Context(), "Insufficient stock", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Insufficient stock for sale")
	default:
		mLogger.ErrorContext(r.Context(), fallback, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, fallback)
	}
}

// loggerWithReqID creates a logger with the request ID from the context.
func (h *Handler) loggerWithReqID(r *http.Request) *slog.Logger {
	reqID := middleware.GetReqID(r.Context())
	return h.logger.With("request_id", reqID)
}
