package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/kodbank/kodbank/internal/adapter/http/dto"
	"github.com/kodbank/kodbank/internal/adapter/http/middleware"
	"github.com/kodbank/kodbank/internal/infrastructure/metrics"
	"github.com/kodbank/kodbank/internal/usecase"
)

// AuthHandler handles registration, login and logout.
type AuthHandler struct {
	accountUC *usecase.AccountUseCase
	authUC    *usecase.AuthUseCase
	metrics   *metrics.Metrics
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(accountUC *usecase.AccountUseCase, authUC *usecase.AuthUseCase, m *metrics.Metrics) *AuthHandler {
	return &AuthHandler{
		accountUC: accountUC,
		authUC:    authUC,
		metrics:   m,
	}
}

// Register opens a new account and logs it in immediately.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	account, err := h.accountUC.Register(r.Context(), req.ToUseCaseInput())
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to register", err.Error())

		return
	}

	token, err := h.authUC.StartSession(r.Context(), account)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to start session", err.Error())
		return
	}

	if h.metrics != nil {
		h.metrics.AccountsRegistered.Inc()
	}

	setSessionCookie(w, token)
	writeJSON(w, http.StatusCreated, dto.SessionResponse{
		Token:   token,
		Account: dto.AccountFromDomain(account),
	})
}

// Login authenticates credentials and issues a session token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	account, token, err := h.authUC.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if h.metrics != nil {
			h.metrics.LoginAttempts.WithLabelValues("failure").Inc()
		}
		status := mapDomainError(err)
		writeError(w, status, "failed to login", err.Error())

		return
	}

	if h.metrics != nil {
		h.metrics.LoginAttempts.WithLabelValues("success").Inc()
	}

	setSessionCookie(w, token)
	writeJSON(w, http.StatusOK, dto.SessionResponse{
		Token:   token,
		Account: dto.AccountFromDomain(account),
	})
}

// Logout revokes the current session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := middleware.ExtractToken(r)

	if err := h.authUC.Logout(r.Context(), token); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to logout", err.Error())
		return
	}

	clearSessionCookie(w)
	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "logged out"})
}

func setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
	})
}
