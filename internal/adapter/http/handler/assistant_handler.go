package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kodbank/kodbank/internal/adapter/http/dto"
	"github.com/kodbank/kodbank/internal/infrastructure/metrics"
	"github.com/kodbank/kodbank/internal/usecase"
)

// AssistantHandler proxies chat messages to the banking assistant.
type AssistantHandler struct {
	assistantUC *usecase.AssistantUseCase
	metrics     *metrics.Metrics
}

// NewAssistantHandler creates a new AssistantHandler.
func NewAssistantHandler(assistantUC *usecase.AssistantUseCase, m *metrics.Metrics) *AssistantHandler {
	return &AssistantHandler{
		assistantUC: assistantUC,
		metrics:     m,
	}
}

// Chat forwards a message and relays the assistant's reply.
func (h *AssistantHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req dto.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	reply, err := h.assistantUC.Chat(r.Context(), req.Message)
	if err != nil {
		if h.metrics != nil {
			h.metrics.AssistantRequests.WithLabelValues("failure").Inc()
		}

		if errors.Is(err, usecase.ErrEmptyMessage) {
			writeError(w, http.StatusBadRequest, "empty message", err.Error())
			return
		}

		writeError(w, http.StatusBadGateway, "assistant unavailable", err.Error())

		return
	}

	if h.metrics != nil {
		h.metrics.AssistantRequests.WithLabelValues("success").Inc()
	}

	writeJSON(w, http.StatusOK, dto.ChatResponse{Reply: reply})
}
