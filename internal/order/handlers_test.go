package order_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/annapurna-pos/backend-billing/internal/billing"
	"github.com/annapurna-pos/backend-billing/internal/menu"
	"github.com/annapurna-pos/backend-billing/internal/order"
	"github.com/annapurna-pos/backend-billing/internal/store"
)

type fakeLedger struct {
	nextID int64
	orders map[int64]store.Order
	fail   error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{orders: make(map[int64]store.Order)}
}

func (f *fakeLedger) CreateOrder(ctx context.Context, mode billing.Mode, paymentMethod string, lines []billing.Line, totals billing.Totals) (int64, error) {
	if f.fail != nil {
		return 0, f.fail
	}
	f.nextID++
	f.orders[f.nextID] = store.Order{
		ID:            f.nextID,
		Mode:          mode,
		PaymentMethod: paymentMethod,
		Totals:        totals,
		CreatedAt:     time.Now().UTC().Truncate(time.Second),
		Lines:         lines,
	}
	return f.nextID, nil
}

func (f *fakeLedger) GetOrder(ctx context.Context, id int64) (store.Order, error) {
	ord, ok := f.orders[id]
	if !ok {
		return store.Order{}, store.ErrNotFound
	}
	return ord, nil
}

func (f *fakeLedger) ListOrders(ctx context.Context, limit, offset int32) ([]store.Order, int64, error) {
	out := make([]store.Order, 0, len(f.orders))
	for id := f.nextID; id > 0; id-- {
		if ord, ok := f.orders[id]; ok {
			ord.Lines = nil
			out = append(out, ord)
		}
	}
	return out, int64(len(f.orders)), nil
}

func testHandler(ledger order.Ledger) *order.Handler {
	catalog := menu.FromItems([]menu.Item{
		{Name: "Pizza", Category: "Main", UnitPrice: 20000},
		{Name: "Cold Drink", Category: "Beverage", UnitPrice: 5000},
	})
	return &order.Handler{
		Ledger:   ledger,
		Catalog:  catalog,
		GSTBps:   500,
		Validate: validator.New(),
	}
}

type createResponse struct {
	Data struct {
		ID     int64 `json:"id"`
		Totals struct {
			Subtotal string `json:"subtotal"`
			GST      string `json:"gstAmount"`
			Discount string `json:"discountAmount"`
			Total    string `json:"total"`
		} `json:"totals"`
	} `json:"data"`
}

type errorResponse struct {
	Error struct {
		Code string `json:"code"`
	} `json:"error"`
}

func postOrder(t *testing.T, h *order.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Create(rec, req)
	return rec
}

func TestCreateOrder(t *testing.T) {
	ledger := newFakeLedger()
	h := testHandler(ledger)

	rec := postOrder(t, h, `{
		"mode": "Dine-In",
		"paymentMethod": "Cash",
		"items": [{"name": "Pizza", "qty": 2}, {"name": "Cold Drink", "qty": 1}]
	}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp createResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, int64(1), resp.Data.ID)
	require.Equal(t, "450.00", resp.Data.Totals.Subtotal)
	require.Equal(t, "22.50", resp.Data.Totals.GST)
	require.Equal(t, "0.00", resp.Data.Totals.Discount)
	require.Equal(t, "472.50", resp.Data.Totals.Total)

	stored := ledger.orders[1]
	require.Equal(t, billing.ModeDineIn, stored.Mode)
	require.Len(t, stored.Lines, 2)
}

func TestCreateOrderWithDiscount(t *testing.T) {
	h := testHandler(newFakeLedger())

	rec := postOrder(t, h, `{
		"mode": "take_away",
		"paymentMethod": "UPI",
		"discountPct": 10,
		"items": [{"name": "Pizza", "qty": 2}, {"name": "Cold Drink", "qty": 1}]
	}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp createResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "45.00", resp.Data.Totals.Discount)
	require.Equal(t, "427.50", resp.Data.Totals.Total)
}

func TestCreateOrderRejectsEmptyCart(t *testing.T) {
	h := testHandler(newFakeLedger())

	rec := postOrder(t, h, `{"mode": "delivery", "paymentMethod": "Cash", "items": []}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "EMPTY_CART", resp.Error.Code)
}

func TestCreateOrderRejectsUnknownItem(t *testing.T) {
	h := testHandler(newFakeLedger())

	rec := postOrder(t, h, `{"mode": "delivery", "paymentMethod": "Cash", "items": [{"name": "Sushi", "qty": 1}]}`)
	require.Equal(t, http.StatusNotFound, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "NOT_FOUND", resp.Error.Code)
}

func TestCreateOrderRejectsBadMode(t *testing.T) {
	h := testHandler(newFakeLedger())

	rec := postOrder(t, h, `{"mode": "drive-through", "paymentMethod": "Cash", "items": [{"name": "Pizza", "qty": 1}]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateOrderRejectsNonPositiveQty(t *testing.T) {
	h := testHandler(newFakeLedger())

	rec := postOrder(t, h, `{"mode": "dine_in", "paymentMethod": "Cash", "items": [{"name": "Pizza", "qty": 0}]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postOrder(t, h, `{"mode": "dine_in", "paymentMethod": "Cash", "items": [{"name": "Pizza", "qty": -1}]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateOrderPersistenceFailure(t *testing.T) {
	ledger := newFakeLedger()
	ledger.fail = store.ErrPersistence
	h := testHandler(ledger)

	rec := postOrder(t, h, `{"mode": "dine_in", "paymentMethod": "Cash", "items": [{"name": "Pizza", "qty": 1}]}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "PERSISTENCE", resp.Error.Code)
}

func TestGetOrderRoundTrip(t *testing.T) {
	ledger := newFakeLedger()
	h := testHandler(ledger)

	rec := postOrder(t, h, `{
		"mode": "Dine-in",
		"paymentMethod": "Card",
		"items": [{"name": "Pizza", "qty": 2}, {"name": "Cold Drink", "qty": 1}]
	}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	router := chi.NewRouter()
	router.Get("/orders/{orderID}", h.Get)
	req := httptest.NewRequest(http.MethodGet, "/orders/1", nil)
	getRec := httptest.NewRecorder()
	router.ServeHTTP(getRec, req)
	require.Equal(t, http.StatusOK, getRec.Code)

	var resp struct {
		Data store.Order `json:"data"`
	}
	require.NoError(t, json.Unmarshal(getRec.Body.Bytes(), &resp))
	require.Equal(t, int64(1), resp.Data.ID)
	require.Len(t, resp.Data.Lines, 2)
	require.Equal(t, "Pizza", resp.Data.Lines[0].ItemName)
	require.Equal(t, resp.Data.Totals.Subtotal+resp.Data.Totals.GST-resp.Data.Totals.Discount, resp.Data.Totals.Total)

	missing := httptest.NewRequest(http.MethodGet, "/orders/99", nil)
	missRec := httptest.NewRecorder()
	router.ServeHTTP(missRec, missing)
	require.Equal(t, http.StatusNotFound, missRec.Code)
}

func TestListOrders(t *testing.T) {
	ledger := newFakeLedger()
	h := testHandler(ledger)

	for i := 0; i < 3; i++ {
		rec := postOrder(t, h, `{"mode": "dine_in", "paymentMethod": "Cash", "items": [{"name": "Cold Drink", "qty": 1}]}`)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/orders?limit=2", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "3", rec.Header().Get("X-Total-Count"))
}

func TestMenuSortedByName(t *testing.T) {
	h := testHandler(newFakeLedger())

	req := httptest.NewRequest(http.MethodGet, "/menu", nil)
	rec := httptest.NewRecorder()
	h.Menu(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data []menu.Item `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 2)
	require.Equal(t, "Cold Drink", resp.Data[0].Name)
	require.Equal(t, "Pizza", resp.Data[1].Name)
}
