// Package order exposes the billing API: cart submission, order reads and
// the menu listing.
package order

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"

	"github.com/annapurna-pos/backend-billing/internal/billing"
	"github.com/annapurna-pos/backend-billing/internal/common"
	"github.com/annapurna-pos/backend-billing/internal/menu"
	"github.com/annapurna-pos/backend-billing/internal/obs"
	"github.com/annapurna-pos/backend-billing/internal/store"
)

// Ledger is the persistence surface the handlers depend on.
type Ledger interface {
	CreateOrder(ctx context.Context, mode billing.Mode, paymentMethod string, lines []billing.Line, totals billing.Totals) (int64, error)
	GetOrder(ctx context.Context, id int64) (store.Order, error)
	ListOrders(ctx context.Context, limit, offset int32) ([]store.Order, int64, error)
}

// Handler serves the order endpoints.
type Handler struct {
	Ledger   Ledger
	Catalog  *menu.Catalog
	GSTBps   int64
	Validate *validator.Validate
}

type createOrderItem struct {
	Name string `json:"name" validate:"required"`
	Qty  int    `json:"qty" validate:"required,gt=0"`
}

type createOrderRequest struct {
	Mode          string            `json:"mode" validate:"required"`
	PaymentMethod string            `json:"paymentMethod" validate:"required"`
	DiscountPct   float64           `json:"discountPct" validate:"gte=0,lte=100"`
	Items         []createOrderItem `json:"items" validate:"required,min=1,dive"`
}

// Create finalizes a cart: resolves prices from the catalog, computes
// totals and appends the order to the ledger.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if h.Ledger == nil || h.Catalog == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "order handler not configured", nil)
		return
	}
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeInvalidInput, "invalid request body", nil)
		return
	}
	if len(req.Items) == 0 {
		writeDomainError(w, billing.ErrEmptyCart)
		return
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(req); err != nil {
			common.JSONError(w, http.StatusBadRequest, common.CodeInvalidInput, err.Error(), nil)
			return
		}
	}
	mode, err := billing.ParseMode(req.Mode)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeInvalidInput, "mode must be one of dine_in, take_away, delivery", nil)
		return
	}
	// discountPct arrives as a percentage with up to two decimals
	discountBps := int64(math.Round(req.DiscountPct * 100))

	lines := make([]billing.Line, 0, len(req.Items))
	for _, item := range req.Items {
		menuItem, err := h.Catalog.Lookup(item.Name)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		ln, err := billing.MakeLine(menuItem.Name, item.Qty, menuItem.UnitPrice)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		lines = append(lines, ln)
	}
	totals, err := billing.ComputeTotals(lines, discountBps, h.GSTBps)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	id, err := h.Ledger.CreateOrder(r.Context(), mode, req.PaymentMethod, lines, totals)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if obs.OrdersCreatedTotal != nil {
		obs.OrdersCreatedTotal.WithLabelValues(string(mode)).Inc()
	}
	if obs.OrderValueCents != nil {
		obs.OrderValueCents.WithLabelValues(string(mode)).Observe(float64(totals.Total))
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": map[string]any{
		"id":            id,
		"mode":          mode,
		"paymentMethod": req.PaymentMethod,
		"totals":        totals,
		"lines":         lines,
	}})
}

// Get reads one finalized order with its lines.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Ledger == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "order handler not configured", nil)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "orderID"), 10, 64)
	if err != nil || id <= 0 {
		common.JSONError(w, http.StatusBadRequest, common.CodeInvalidInput, "invalid order id", nil)
		return
	}
	ord, err := h.Ledger.GetOrder(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": ord})
}

// List returns paginated order headers, newest first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.Ledger == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "order handler not configured", nil)
		return
	}
	page, perPage := common.ParsePagination(r, 20, 100)
	offset := int32((page - 1) * perPage)
	orders, total, err := h.Ledger.ListOrders(r.Context(), int32(perPage), offset)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	w.Header().Set("X-Total-Count", strconv.FormatInt(total, 10))
	common.JSON(w, http.StatusOK, map[string]any{
		"data": orders,
		"pagination": common.Pagination{
			Page:       page,
			PerPage:    perPage,
			TotalItems: int(total),
		},
	})
}

// Menu returns the catalog snapshot sorted by name.
func (h *Handler) Menu(w http.ResponseWriter, r *http.Request) {
	if h.Catalog == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "menu catalog not loaded", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": h.Catalog.Items()})
}

// writeDomainError maps core sentinel errors onto the API error taxonomy.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, billing.ErrEmptyCart):
		common.JSONError(w, http.StatusUnprocessableEntity, common.CodeEmptyCart, "cart has no lines", nil)
	case errors.Is(err, billing.ErrInvalidQuantity),
		errors.Is(err, billing.ErrInvalidPrice),
		errors.Is(err, billing.ErrEmptyItemName),
		errors.Is(err, billing.ErrInvalidMode):
		common.JSONError(w, http.StatusBadRequest, common.CodeInvalidInput, err.Error(), nil)
	case errors.Is(err, menu.ErrNotFound), errors.Is(err, store.ErrNotFound):
		common.JSONError(w, http.StatusNotFound, common.CodeNotFound, err.Error(), nil)
	case errors.Is(err, store.ErrPersistence):
		common.JSONError(w, http.StatusInternalServerError, common.CodePersistence, "order could not be persisted", nil)
	default:
		common.WriteError(w, err)
	}
}
