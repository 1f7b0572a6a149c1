package handler

import (
	"net/http"
	"strings"

	"github.com/mmeshcher/streetwear-storefront/internal/service"
	"github.com/mmeshcher/streetwear-storefront/internal/validation"
)

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role,omitempty"`
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type resetRequest struct {
	Email    string `json:"email"`
	Code     string `json:"code"`
	Password string `json:"password"`
}

// validateRegistration возвращает текст ошибки валидации или пустую строку.
func validateRegistration(req registerRequest) string {
	switch {
	case !validation.IsValidEmail(req.Email):
		return "invalid email"
	case !validation.IsValidPassword(req.Password):
		return "password is too short"
	case strings.TrimSpace(req.Name) == "":
		return "name is required"
	}
	return ""
}

// Register регистрирует покупателя. Вход не выполняется.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, http.StatusText(http.StatusBadRequest))
		return
	}

	if msg := validateRegistration(req); msg != "" {
		writeError(w, http.StatusUnprocessableEntity, msg)
		return
	}

	u, err := h.service.SignUp(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		h.writeServiceError(w, "register", err)
		return
	}

	writeJSON(w, http.StatusCreated, userRecord(u))
}

// Login выполняет вход и привязывает сессию к клиенту.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, http.StatusText(http.StatusBadRequest))
		return
	}

	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	sess, err := h.service.SignIn(r.Context(), clientID(r), req.Email, req.Password)
	if err != nil {
		h.writeServiceError(w, "login", err)
		return
	}

	writeJSON(w, http.StatusOK, sess)
}

// Logout завершает сессию клиента.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.service.SignOut(r.Context(), clientID(r)); err != nil {
		h.writeServiceError(w, "logout", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me возвращает сессию текущего пользователя.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, session(r))
}

// RequestPasswordReset выпускает код сброса пароля.
func (h *Handler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := decodeJSON(r, &req); err != nil || req.Email == "" {
		writeError(w, http.StatusBadRequest, http.StatusText(http.StatusBadRequest))
		return
	}

	ok, err := h.service.ResetPassword(r.Context(), req.Email)
	if err != nil {
		h.writeServiceError(w, "reset password", err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, service.ErrUserNotRegistered.Error())
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

// VerifyResetCode проверяет код сброса пароля.
func (h *Handler) VerifyResetCode(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := decodeJSON(r, &req); err != nil || req.Email == "" {
		writeError(w, http.StatusBadRequest, http.StatusText(http.StatusBadRequest))
		return
	}

	if !validation.IsValidResetCode(req.Code) {
		h.writeServiceError(w, "verify reset code", service.ErrResetCodeInvalidOrExpired)
		return
	}

	ok, err := h.service.CheckResetCode(r.Context(), req.Email, req.Code)
	if err != nil {
		h.writeServiceError(w, "verify reset code", err)
		return
	}
	if !ok {
		h.writeServiceError(w, "verify reset code", service.ErrResetCodeInvalidOrExpired)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"valid": true})
}

// ConfirmPasswordReset устанавливает новый пароль по коду сброса.
func (h *Handler) ConfirmPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := decodeJSON(r, &req); err != nil || req.Email == "" {
		writeError(w, http.StatusBadRequest, http.StatusText(http.StatusBadRequest))
		return
	}

	if !validation.IsValidPassword(req.Password) {
		writeError(w, http.StatusUnprocessableEntity, "password is too short")
		return
	}

	ok, err := h.service.UpdatePassword(r.Context(), req.Email, req.Code, req.Password)
	if err != nil {
		h.writeServiceError(w, "confirm password reset", err)
		return
	}
	if !ok {
		h.writeServiceError(w, "confirm password reset", service.ErrResetCodeInvalidOrExpired)
		return
	}

	h.logger.Info("password reset confirmed")
	w.WriteHeader(http.StatusOK)
}
