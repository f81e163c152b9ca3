package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"rice-mill/internal/app"
)

// Handler holds the ApplicationService and the chi router.
type Handler struct {
	svc    app.ApplicationService
	logger logrus.FieldLogger
	router chi.Router
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, allowedOrigins string, logger logrus.FieldLogger) http.Handler {
	h := &Handler{svc: svc, logger: logger}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger(logger))
	r.Use(Recoverer(logger))
	r.Use(CORS(allowedOrigins))

	// ── Health ────────────────────────────────────────────────────────────────
	r.Get("/api/health", h.health)

	r.Group(func(r chi.Router) {
		r.Use(RequestBodyLimit(1 << 20)) // 1 MB

		// ── Inventory ─────────────────────────────────────────────────────────
		r.Get("/api/inventory", h.apiListInventory)
		r.Get("/api/inventory/low-stock", h.apiLowStock)
		r.Get("/api/inventory/{id}/movements", h.apiInventoryMovements)
		r.Post("/api/inventory/adjust", h.apiAdjustInventory)
		r.Post("/api/inventory/threshold", h.apiSetThreshold)

		// ── Milling ───────────────────────────────────────────────────────────
		r.Get("/api/milling", h.apiListMilling)
		r.Post("/api/milling", h.apiCreateMilling)

		// ── Sales ─────────────────────────────────────────────────────────────
		r.Get("/api/sales", h.apiListSales)
		r.Post("/api/sales", h.apiCreateSale)
		r.Get("/api/sales/{id}", h.apiGetSale)

		// ── Procurement ───────────────────────────────────────────────────────
		r.Get("/api/procurement", h.apiListProcurements)
		r.Post("/api/procurement", h.apiCreateProcurement)

		// ── Expenses ──────────────────────────────────────────────────────────
		r.Get("/api/expenses", h.apiListExpenses)
		r.Post("/api/expenses", h.apiCreateExpense)

		// ── Payments ──────────────────────────────────────────────────────────
		r.Get("/api/payments", h.apiListPayments)
		r.Post("/api/payments", h.apiRecordPayment)
		r.Get("/api/payments/receivables", h.apiReceivables)
		r.Get("/api/payments/payables", h.apiPayables)
		r.Get("/api/payments/summary", h.apiPaymentSummary)

		// ── Reports ───────────────────────────────────────────────────────────
		r.Get("/api/dashboard/metrics", h.apiDashboardMetrics)
		r.Get("/api/profit-loss/summary", h.apiProfitLossSummary)
		r.Get("/api/profit-loss/trend", h.apiProfitLossTrend)
		r.Get("/api/maintenance/integrity", h.apiIntegrity)
	})

	h.router = r
	return r
}

// health returns service status.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Status string `json:"status"`
	}
	writeJSON(w, response{Status: "ok"})
}

// decodeJSON decodes the request body into v and returns false + writes an appropriate
// error response on failure. Returns HTTP 413 when the body exceeds the size limit set
// by RequestBodyLimit middleware; HTTP 400 for all other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}

// pathID parses the {id} URL parameter, writing a 400 when it is not a positive integer.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, r, "id must be a positive integer", "BAD_REQUEST", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// queryInt parses an optional integer query parameter. Absent yields 0.
func queryInt(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeError(w, r, name+" must be an integer", "BAD_REQUEST", http.StatusBadRequest)
		return 0, false
	}
	return n, true
}
