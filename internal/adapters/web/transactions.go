package web

import (
	"errors"
	"net/http"

	"rice-mill/internal/app"
	"rice-mill/internal/core"
)

// ── Milling ───────────────────────────────────────────────────────────────────

// apiListMilling handles GET /api/milling.
func (h *Handler) apiListMilling(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListMilling(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, nonNil(result.Batches))
}

// apiCreateMilling handles POST /api/milling.
// Body: { paddy_type, rice_variety?, input_paddy_qty, output_rice_qty, broken_rice_qty, husk_qty, milling_date?, godown_location? }
func (h *Handler) apiCreateMilling(w http.ResponseWriter, r *http.Request) {
	var req app.MillingRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	batch, err := h.svc.RecordMilling(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeCreated(w, batch)
}

// ── Sales ─────────────────────────────────────────────────────────────────────

// apiListSales handles GET /api/sales.
func (h *Handler) apiListSales(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListSales(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, nonNil(result.Sales))
}

// apiGetSale handles GET /api/sales/{id}.
func (h *Handler) apiGetSale(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	sale, err := h.svc.GetSale(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, sale)
}

// apiCreateSale handles POST /api/sales.
// A missing stock item is a bad request here, not a missing resource.
func (h *Handler) apiCreateSale(w http.ResponseWriter, r *http.Request) {
	var req app.SaleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	sale, err := h.svc.CreateSale(r.Context(), req)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			h.writeClassifiedError(w, r, err, http.StatusBadRequest, "NOT_FOUND")
			return
		}
		h.writeServiceError(w, r, err)
		return
	}
	writeCreated(w, sale)
}

// ── Procurement ───────────────────────────────────────────────────────────────

// apiListProcurements handles GET /api/procurement.
func (h *Handler) apiListProcurements(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListProcurements(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, nonNil(result.Procurements))
}

// apiCreateProcurement handles POST /api/procurement.
func (h *Handler) apiCreateProcurement(w http.ResponseWriter, r *http.Request) {
	var req app.ProcurementRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	rec, err := h.svc.CreateProcurement(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeCreated(w, rec)
}

// ── Expenses ──────────────────────────────────────────────────────────────────

// apiListExpenses handles GET /api/expenses.
func (h *Handler) apiListExpenses(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListExpenses(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, nonNil(result.Expenses))
}

// apiCreateExpense handles POST /api/expenses.
func (h *Handler) apiCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req app.ExpenseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	e, err := h.svc.CreateExpense(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeCreated(w, e)
}
