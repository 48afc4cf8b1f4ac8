package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"eduglobe/internal/exchange"

	"github.com/sirupsen/logrus"
)

// Exchanger is the orchestrator as seen by the HTTP layer.
type Exchanger interface {
	Configured() bool
	Exchange(ctx context.Context, req *exchange.Request) (*exchange.Response, error)
}

type Handler struct {
	exchangeService Exchanger
}

func NewHandler(exchangeService Exchanger) *Handler {
	return &Handler{
		exchangeService: exchangeService,
	}
}

type ErrorResponse struct {
	Error string `json:"error"`
}

const maxBodyBytes = 1 << 20

func (h *Handler) SendMessageHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}

	if !h.exchangeService.Configured() {
		logrus.Error("GEMINI_API_KEY не настроен, запрос отклонен")
		writeError(w, http.StatusInternalServerError, "GEMINI_API_KEY is not configured")
		return
	}

	var req exchange.Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.exchangeService.Exchange(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, exchange.ErrInvalidRequest):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, exchange.ErrNotConfigured):
			writeError(w, http.StatusInternalServerError, "GEMINI_API_KEY is not configured")
		default:
			logrus.Errorf("Внутренняя ошибка при обработке сообщения: %v", err)
			writeError(w, http.StatusInternalServerError, "Internal Server Error")
		}
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":	"ok",
		"configured":	h.exchangeService.Configured(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.Errorf("Ошибка при записи ответа: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
