package api

import (
	"net/http"

	"smsrelay/internal/model"
	"smsrelay/internal/repo"
	"smsrelay/internal/service"
)

// ListBills returns all bills for admins, or the caller's own bills for
// everyone else. Optional phone and month query filters.
func (h *Handler) ListBills(w http.ResponseWriter, r *http.Request) {
	ident := identityFrom(r.Context())

	filter := repo.BillFilter{
		Phone: r.URL.Query().Get("phone"),
		Month: r.URL.Query().Get("month"),
	}
	if ident.Role != model.RoleAdmin {
		filter.Phone = ident.Phone
	}

	bills, err := h.bills.List(r.Context(), filter)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if bills == nil {
		bills = []model.Bill{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"count": len(bills),
		"bills": bills,
	})
}

func (h *Handler) GetBill(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		h.writeError(w, service.ErrInvalidInput)
		return
	}

	bill, err := h.bills.GetByID(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if bill == nil {
		h.writeError(w, service.ErrNotFound)
		return
	}

	ident := identityFrom(r.Context())
	if ident.Role != model.RoleAdmin && bill.Phone != ident.Phone {
		writeJSON(w, http.StatusForbidden, map[string]any{"error": "access denied"})
		return
	}

	writeJSON(w, http.StatusOK, bill)
}
