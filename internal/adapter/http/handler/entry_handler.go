package handler

import (
	"net/http"

	"github.com/kodbank/kodbank/internal/adapter/http/dto"
	"github.com/kodbank/kodbank/internal/adapter/http/middleware"
	"github.com/kodbank/kodbank/internal/domain"
	"github.com/kodbank/kodbank/internal/usecase"
)

// EntryHandler handles transaction history requests.
type EntryHandler struct {
	ledgerUC *usecase.LedgerUseCase
}

// NewEntryHandler creates a new EntryHandler.
func NewEntryHandler(ledgerUC *usecase.LedgerUseCase) *EntryHandler {
	return &EntryHandler{ledgerUC: ledgerUC}
}

// ListTransactions returns the most recent ledger entries for the
// authenticated account, newest first.
func (h *EntryHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "")
		return
	}

	limit := domain.ValidateLimit(parseIntQuery(r, "limit", 0))

	entries, err := h.ledgerUC.ListTransactions(r.Context(), accountID, limit)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to list transactions", err.Error())

		return
	}

	writeJSON(w, http.StatusOK, dto.EntriesFromDomain(entries))
}
