package api

import (
	"encoding/json"
	"net/http"

	"smsrelay/internal/service"
)

type otpRequest struct {
	Phone string `json:"phone"`
}

func (h *Handler) OtpRequest(w http.ResponseWriter, r *http.Request) {
	var req otpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, service.ErrInvalidInput)
		return
	}

	expiresIn, err := h.otp.RequestCode(r.Context(), req.Phone)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":   "otp sent to your phone",
		"expiresIn": expiresIn,
	})
}

type otpVerifyRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

func (h *Handler) OtpVerify(w http.ResponseWriter, r *http.Request) {
	var req otpVerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, service.ErrInvalidInput)
		return
	}

	token, expiresIn, err := h.otp.VerifyCode(r.Context(), req.Phone, req.Code)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":    "otp verified",
		"resetToken": token,
		"expiresIn":  expiresIn,
	})
}

type resetPasswordRequest struct {
	Phone       string `json:"phone"`
	ResetToken  string `json:"resetToken"`
	NewPassword string `json:"newPassword"`
}

func (h *Handler) OtpResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, service.ErrInvalidInput)
		return
	}

	if err := h.otp.ResetPassword(r.Context(), req.Phone, req.ResetToken, req.NewPassword); err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"message": "password reset successful"})
}
