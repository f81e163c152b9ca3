package web

import (
	"net/http"

	"rice-mill/internal/app"
)

// apiListInventory handles GET /api/inventory.
func (h *Handler) apiListInventory(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListInventory(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, nonNil(result.Items))
}

// apiLowStock handles GET /api/inventory/low-stock.
func (h *Handler) apiLowStock(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.LowStock(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, nonNil(result.Items))
}

// apiInventoryMovements handles GET /api/inventory/{id}/movements?limit=N.
func (h *Handler) apiInventoryMovements(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	limit, ok := queryInt(w, r, "limit")
	if !ok {
		return
	}
	result, err := h.svc.InventoryMovements(r.Context(), id, int(limit))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, nonNil(result.Movements))
}

// apiAdjustInventory handles POST /api/inventory/adjust.
// Body: { id, adjustment, reason }
func (h *Handler) apiAdjustInventory(w http.ResponseWriter, r *http.Request) {
	var req app.AdjustInventoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	item, err := h.svc.AdjustInventory(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, item)
}

// apiSetThreshold handles POST /api/inventory/threshold.
// Body: { id, minimum_threshold }
func (h *Handler) apiSetThreshold(w http.ResponseWriter, r *http.Request) {
	var req app.SetThresholdRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	item, err := h.svc.SetThreshold(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, item)
}

// nonNil keeps empty lists encoding as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
