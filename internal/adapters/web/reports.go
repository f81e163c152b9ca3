package web

import (
	"net/http"

	"rice-mill/internal/core"
)

// apiDashboardMetrics handles GET /api/dashboard/metrics.
func (h *Handler) apiDashboardMetrics(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.svc.DashboardMetrics(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, metrics)
}

// apiProfitLossSummary handles GET /api/profit-loss/summary?from=YYYY-MM-DD&to=YYYY-MM-DD.
func (h *Handler) apiProfitLossSummary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	summary, err := h.svc.ProfitLossSummary(r.Context(), q.Get("from"), q.Get("to"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, summary)
}

// apiProfitLossTrend handles GET /api/profit-loss/trend?months=N.
func (h *Handler) apiProfitLossTrend(w http.ResponseWriter, r *http.Request) {
	months, ok := queryInt(w, r, "months")
	if !ok {
		return
	}
	result, err := h.svc.ProfitLossTrend(r.Context(), int(months))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	type response struct {
		Months int               `json:"months"`
		Points []core.TrendPoint `json:"points"`
	}
	writeJSON(w, response{Months: result.Months, Points: nonNil(result.Points)})
}

// apiIntegrity handles GET /api/maintenance/integrity.
// Violations are reported in the body; the status is 200 either way.
func (h *Handler) apiIntegrity(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.CheckIntegrity(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	type response struct {
		*core.IntegrityReport
		OK bool `json:"ok"`
	}
	writeJSON(w, response{IntegrityReport: report, OK: report.OK()})
}
