package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/mmeshcher/streetwear-storefront/internal/model"
	"github.com/mmeshcher/streetwear-storefront/internal/validation"
)

const chatFromUser = "user"

type chatRequest struct {
	Text string `json:"text"`
}

type subscribeRequest struct {
	Email string `json:"email"`
}

type contactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// GetSettings возвращает настройки пользователя.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	st, err := h.service.Settings(r.Context(), session(r).ID)
	if err != nil {
		h.writeServiceError(w, "get settings", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// UpdateSettings сохраняет настройки пользователя целиком.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var st model.Settings
	if err := decodeJSON(r, &st); err != nil {
		writeError(w, http.StatusBadRequest, http.StatusText(http.StatusBadRequest))
		return
	}

	if err := h.service.UpdateSettings(r.Context(), session(r).ID, st); err != nil {
		h.writeServiceError(w, "update settings", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// GetChat возвращает историю чата.
func (h *Handler) GetChat(w http.ResponseWriter, r *http.Request) {
	history, err := h.service.ChatHistory(r.Context(), session(r).ID)
	if err != nil {
		h.writeServiceError(w, "get chat", err)
		return
	}
	if history == nil {
		history = []model.ChatMessage{}
	}
	writeJSON(w, http.StatusOK, history)
}

// PostChat добавляет сообщение пользователя в историю чата.
func (h *Handler) PostChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil || strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	msg, err := h.service.AppendChat(r.Context(), session(r).ID, chatFromUser, strings.TrimSpace(req.Text))
	if err != nil {
		h.writeServiceError(w, "post chat", err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

// ExportAccount отдаёт выгрузку данных пользователя файлом JSON.
func (h *Handler) ExportAccount(w http.ResponseWriter, r *http.Request) {
	exp, err := h.service.ExportAccount(r.Context(), clientID(r))
	if err != nil {
		h.writeServiceError(w, "export account", err)
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="account-%s.json"`, exp.User.ID))
	writeJSON(w, http.StatusOK, exp)
}

// DeleteAccount удаляет учётную запись и все данные пользователя.
func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteAccount(r.Context(), clientID(r)); err != nil {
		h.writeServiceError(w, "delete account", err)
		return
	}

	h.logger.Info("account deleted")
	w.WriteHeader(http.StatusNoContent)
}

// Subscribe возвращает обработчик подписки на указанный список.
func (h *Handler) Subscribe(list string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req subscribeRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, http.StatusText(http.StatusBadRequest))
			return
		}
		if !validation.IsValidEmail(req.Email) {
			writeError(w, http.StatusUnprocessableEntity, "invalid email")
			return
		}

		added, err := h.service.Subscribe(r.Context(), list, req.Email)
		if err != nil {
			h.writeServiceError(w, "subscribe", err)
			return
		}

		status := http.StatusOK
		if added {
			status = http.StatusCreated
		}
		writeJSON(w, status, map[string]bool{"subscribed": true})
	}
}

// Contact принимает обращение из формы обратной связи.
func (h *Handler) Contact(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, http.StatusText(http.StatusBadRequest))
		return
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "name and message are required")
		return
	}
	if !validation.IsValidEmail(req.Email) {
		writeError(w, http.StatusUnprocessableEntity, "invalid email")
		return
	}

	if err := h.service.SubmitContact(r.Context(), req.Name, req.Email, req.Message); err != nil {
		h.writeServiceError(w, "contact", err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}
