package handler

import (
	"net/http"

	"github.com/kodbank/kodbank/internal/adapter/http/dto"
	"github.com/kodbank/kodbank/internal/adapter/http/middleware"
	"github.com/kodbank/kodbank/internal/usecase"
)

// AccountHandler handles requests about the authenticated account.
type AccountHandler struct {
	accountUC *usecase.AccountUseCase
	ledgerUC  *usecase.LedgerUseCase
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountUC *usecase.AccountUseCase, ledgerUC *usecase.LedgerUseCase) *AccountHandler {
	return &AccountHandler{
		accountUC: accountUC,
		ledgerUC:  ledgerUC,
	}
}

// Me returns the authenticated account.
func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "")
		return
	}

	account, err := h.accountUC.GetAccount(r.Context(), accountID)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to get account", err.Error())

		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// Balance returns the current balance of the authenticated account.
func (h *AccountHandler) Balance(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "")
		return
	}

	balance, err := h.ledgerUC.GetBalance(r.Context(), accountID)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to get balance", err.Error())

		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceResponse{Balance: balance})
}
