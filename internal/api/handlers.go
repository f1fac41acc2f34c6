package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"

	"smsrelay/internal/auth"
	"smsrelay/internal/fanout"
	"smsrelay/internal/model"
	"smsrelay/internal/recovery"
	"smsrelay/internal/repo"
	"smsrelay/internal/service"
)

type Handler struct {
	queue   *service.QueueService
	otp     *service.OtpService
	auth    *service.AuthService
	bills   repo.BillRepository
	monitor *recovery.Monitor
	hub     *fanout.Hub
	tokens  *auth.JWTManager

	upgrader websocket.Upgrader
}

func NewHandler(
	queue *service.QueueService,
	otp *service.OtpService,
	authSvc *service.AuthService,
	bills repo.BillRepository,
	monitor *recovery.Monitor,
	hub *fanout.Hub,
	tokens *auth.JWTManager,
) *Handler {
	return &Handler{
		queue:   queue,
		otp:     otp,
		auth:    authSvc,
		bills:   bills,
		monitor: monitor,
		hub:     hub,
		tokens:  tokens,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// SmsPending claims the oldest pending job for the calling dispatcher.
// 204 means the queue is empty; that includes losing a claim race.
func (h *Handler) SmsPending(w http.ResponseWriter, r *http.Request) {
	job, err := h.queue.ClaimNext(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	if job == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":      job.ID,
		"phone":   job.Phone,
		"message": job.Message,
	})
}

type reportRequest struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
	Error  string `json:"error"`
}

func (h *Handler) SmsReport(w http.ResponseWriter, r *http.Request) {
	var req reportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, service.ErrInvalidInput)
		return
	}

	if err := h.queue.ReportResult(r.Context(), req.ID, model.Status(req.Status), req.Error); err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"message": "report received"})
}

func (h *Handler) SmsQueue(w http.ResponseWriter, r *http.Request) {
	status := model.Status(r.URL.Query().Get("status"))

	jobs, err := h.queue.ListQueue(r.Context(), status)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if jobs == nil {
		jobs = []model.Job{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"count": len(jobs),
		"jobs":  jobs,
	})
}

type createRequest struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

func (h *Handler) SmsCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, service.ErrInvalidInput)
		return
	}

	id, err := h.queue.Enqueue(r.Context(), req.Phone, req.Message, "")
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "sms added to queue",
		"id":      id,
	})
}

func (h *Handler) SmsResetStuck(w http.ResponseWriter, r *http.Request) {
	n, err := h.queue.ReclaimStuck(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":  "reset complete",
		"affected": n,
	})
}

func (h *Handler) ReclaimStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"running": h.monitor.IsRunning()})
}

func (h *Handler) ReclaimStart(w http.ResponseWriter, r *http.Request) {
	h.monitor.Start()
	writeJSON(w, http.StatusOK, map[string]any{"running": h.monitor.IsRunning()})
}

func (h *Handler) ReclaimStop(w http.ResponseWriter, r *http.Request) {
	h.monitor.Stop()
	writeJSON(w, http.StatusOK, map[string]any{"running": h.monitor.IsRunning()})
}

// Fanout upgrades the connection and hands it to the hub. Subscribers are
// an optimization for dashboards, never a delivery path.
func (h *Handler) Fanout(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}
	h.hub.Add(conn)
}

// writeError maps the service taxonomy onto HTTP statuses. Unrecognized
// errors are storage failures: logged in full, returned opaque.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var rl *service.RateLimitedError
	switch {
	case errors.As(err, &rl):
		writeJSON(w, http.StatusTooManyRequests, map[string]any{
			"error":      "too many requests, try again later",
			"retryAfter": rl.RetryAfter,
		})
	case errors.Is(err, service.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid request"})
	case errors.Is(err, service.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "not found"})
	case errors.Is(err, service.ErrInvalidOrExpired):
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid or expired code"})
	case errors.Is(err, service.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "invalid credentials"})
	case errors.Is(err, service.ErrPhoneTaken):
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "phone already registered"})
	default:
		slog.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "server error"})
	}
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, service.ErrInvalidInput
	}
	return id, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
