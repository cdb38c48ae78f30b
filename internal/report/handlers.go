package report

import (
	"errors"
	"net/http"

	"github.com/annapurna-pos/backend-billing/internal/common"
	"github.com/annapurna-pos/backend-billing/internal/obs"
)

// Handler exposes the sales report read endpoint.
type Handler struct {
	Svc *Service
}

// Sales serves GET /reports/sales?period=daily|weekly|monthly.
func (h *Handler) Sales(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "report service not configured", nil)
		return
	}
	raw := r.URL.Query().Get("period")
	if raw == "" {
		raw = string(PeriodDaily)
	}
	period, err := ParsePeriod(raw)
	if err != nil {
		if errors.Is(err, ErrInvalidPeriod) {
			common.JSONError(w, http.StatusBadRequest, common.CodeInvalidInput, err.Error(), nil)
			return
		}
		common.WriteError(w, err)
		return
	}
	buckets, err := h.Svc.Sales(r.Context(), period)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodePersistence, "failed to aggregate sales", nil)
		return
	}
	if obs.SalesReportTotal != nil {
		obs.SalesReportTotal.WithLabelValues(string(period)).Inc()
	}
	common.JSON(w, http.StatusOK, map[string]any{"period": period, "data": buckets})
}
