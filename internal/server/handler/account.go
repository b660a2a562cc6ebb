package handler

import (
	"log/slog"
	"net/http"

	"github.com/quadscalp/futsim/internal/domain"
)

// AccountService is the account read surface the handler requires.
type AccountService interface {
	Account() domain.AccountSnapshot
}

// AccountHandler serves the account snapshot endpoint.
type AccountHandler struct {
	account AccountService
	logger  *slog.Logger
}

// NewAccountHandler creates an AccountHandler with the given service.
func NewAccountHandler(account AccountService, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{account: account, logger: logger}
}

// GetAccount returns the current account snapshot.
// GET /api/account
func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.account.Account())
}
