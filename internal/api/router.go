package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func Router(h *Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", h.Health)

	// Public: auth + password-reset workflow.
	mux.HandleFunc("POST /api/login", h.Login)
	mux.HandleFunc("POST /api/register", h.Register)
	mux.HandleFunc("POST /api/otp/request", h.OtpRequest)
	mux.HandleFunc("POST /api/otp/verify", h.OtpVerify)
	mux.HandleFunc("POST /api/otp/reset-password", h.OtpResetPassword)

	// Dispatch queue: admin-operated sender only.
	mux.HandleFunc("GET /api/sms/pending", h.requireAdmin(h.SmsPending))
	mux.HandleFunc("POST /api/sms/report", h.requireAdmin(h.SmsReport))
	mux.HandleFunc("GET /api/sms/queue", h.requireAdmin(h.SmsQueue))
	mux.HandleFunc("POST /api/sms/create", h.requireAdmin(h.SmsCreate))
	mux.HandleFunc("POST /api/sms/reset-stuck", h.requireAdmin(h.SmsResetStuck))

	mux.HandleFunc("GET /api/sms/reclaim/status", h.requireAdmin(h.ReclaimStatus))
	mux.HandleFunc("POST /api/sms/reclaim/start", h.requireAdmin(h.ReclaimStart))
	mux.HandleFunc("POST /api/sms/reclaim/stop", h.requireAdmin(h.ReclaimStop))

	// Bills: any authenticated account; access narrowed per role.
	mux.HandleFunc("GET /api/bills", h.requireAuth(h.ListBills))
	mux.HandleFunc("GET /api/bills/{id}", h.requireAuth(h.GetBill))

	mux.HandleFunc("GET /ws", h.Fanout)

	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("sms-relay"))
	})

	return mux
}
