package web

import (
	"net/http"

	"github.com/shopspring/decimal"

	"rice-mill/internal/app"
	"rice-mill/internal/core"
)

type outstandingResponse struct {
	Documents        []core.OutstandingDocument `json:"documents"`
	TotalOutstanding decimal.Decimal            `json:"total_outstanding"`
}

// apiRecordPayment handles POST /api/payments.
// Body: { ref_type, ref_id, amount, payment_mode?, payment_date?, notes? }
func (h *Handler) apiRecordPayment(w http.ResponseWriter, r *http.Request) {
	var req app.PaymentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	settlement, err := h.svc.RecordPayment(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeCreated(w, settlement)
}

// apiListPayments handles GET /api/payments?ref_type=&ref_id=.
func (h *Handler) apiListPayments(w http.ResponseWriter, r *http.Request) {
	refID, ok := queryInt(w, r, "ref_id")
	if !ok {
		return
	}
	result, err := h.svc.ListPayments(r.Context(), app.PaymentFilter{
		RefType: r.URL.Query().Get("ref_type"),
		RefID:   refID,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, nonNil(result.Payments))
}

// apiReceivables handles GET /api/payments/receivables.
func (h *Handler) apiReceivables(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.Receivables(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, outstandingResponse{Documents: nonNil(result.Documents), TotalOutstanding: result.Total})
}

// apiPayables handles GET /api/payments/payables.
func (h *Handler) apiPayables(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.Payables(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, outstandingResponse{Documents: nonNil(result.Documents), TotalOutstanding: result.Total})
}

// apiPaymentSummary handles GET /api/payments/summary.
func (h *Handler) apiPaymentSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.PaymentSummary(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, summary)
}
