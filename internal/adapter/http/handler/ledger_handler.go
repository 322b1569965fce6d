package handler

import (
	"net/http"

	"github.com/kodbank/kodbank/internal/adapter/http/dto"
	"github.com/kodbank/kodbank/internal/usecase"
)

// LedgerHandler handles ledger-wide queries.
type LedgerHandler struct {
	reconciliationUC *usecase.ReconciliationUseCase
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(reconciliationUC *usecase.ReconciliationUseCase) *LedgerHandler {
	return &LedgerHandler{reconciliationUC: reconciliationUC}
}

// Consistency reports whether account balances and the entry log agree.
func (h *LedgerHandler) Consistency(w http.ResponseWriter, r *http.Request) {
	report, err := h.reconciliationUC.CheckConsistency(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to check consistency", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ConsistencyFromReport(report))
}
