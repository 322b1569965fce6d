package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kodbank/kodbank/internal/adapter/http/dto"
	"github.com/kodbank/kodbank/internal/adapter/http/middleware"
	"github.com/kodbank/kodbank/internal/domain"
	"github.com/kodbank/kodbank/internal/infrastructure/metrics"
	"github.com/kodbank/kodbank/internal/usecase"
)

// TransferHandler handles the money-moving endpoints: deposit, withdraw and
// peer transfer.
type TransferHandler struct {
	ledgerUC *usecase.LedgerUseCase
	metrics  *metrics.Metrics
}

// NewTransferHandler creates a new TransferHandler.
func NewTransferHandler(ledgerUC *usecase.LedgerUseCase, m *metrics.Metrics) *TransferHandler {
	return &TransferHandler{
		ledgerUC: ledgerUC,
		metrics:  m,
	}
}

// Deposit credits the authenticated account.
func (h *TransferHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	h.amountOperation(w, r, "deposit", h.ledgerUC.Deposit)
}

// Withdraw debits the authenticated account, subject to the solvency check.
func (h *TransferHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.amountOperation(w, r, "withdraw", h.ledgerUC.Withdraw)
}

func (h *TransferHandler) amountOperation(
	w http.ResponseWriter,
	r *http.Request,
	operation string,
	fn func(ctx context.Context, accountID string, amount decimal.Decimal) (*domain.Entry, error),
) {
	accountID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "")
		return
	}

	var req dto.AmountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	start := time.Now()
	entry, err := fn(r.Context(), accountID, req.Amount)
	h.observe(operation, start, err)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to "+operation, err.Error())

		return
	}

	if h.metrics != nil {
		amount, _ := req.Amount.Float64()
		h.metrics.OperationAmount.WithLabelValues(operation).Observe(amount)
	}

	balance, err := h.ledgerUC.GetBalance(r.Context(), accountID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get balance", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.OperationResponse{
		Entry:   dto.EntryFromDomain(entry),
		Balance: balance,
	})
}

// Transfer moves money from the authenticated account to another account
// identified by email.
func (h *TransferHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "")
		return
	}

	var req dto.TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	start := time.Now()
	result, err := h.ledgerUC.Transfer(r.Context(), accountID, req.ToEmail, req.Amount)
	h.observe("transfer", start, err)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to transfer", err.Error())

		return
	}

	if h.metrics != nil {
		amount, _ := req.Amount.Float64()
		h.metrics.OperationAmount.WithLabelValues("transfer").Observe(amount)
	}

	balance, err := h.ledgerUC.GetBalance(r.Context(), accountID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get balance", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.TransferResponse{
		OperationID: result.OperationID,
		Debit:       dto.EntryFromDomain(result.DebitEntry),
		Credit:      dto.EntryFromDomain(result.CreditEntry),
		Balance:     balance,
	})
}

func (h *TransferHandler) observe(operation string, start time.Time, err error) {
	if h.metrics == nil {
		return
	}

	status := "success"
	if err != nil {
		status = "failure"
	}

	h.metrics.OperationsTotal.WithLabelValues(operation, status).Inc()
	h.metrics.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
