package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

type Handler struct {
	service *Service
	ttl     time.Duration
	logger  *slog.Logger
}

func NewHandler(service *Service, ttl time.Duration, logger *slog.Logger) *Handler {
	return &Handler{service: service, ttl: ttl, logger: logger}
}

type tokenRequest struct {
	DisplayName string `json:"displayName"`
}

type tokenResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// Token issues a session token for a new anonymous editor.
func (h *Handler) Token(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.DisplayName == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "displayName is required"})
		return
	}

	token, user, err := h.service.IssueToken("", req.DisplayName, h.ttl)
	if err != nil {
		h.logger.Error("issue token failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	writeJSON(w, http.StatusCreated, tokenResponse{Token: token, User: user})
}

// Me returns the user of the request's token.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
