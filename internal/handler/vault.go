package handler

import (
	"net/http"

	"github.com/predictify/predictify/internal/vault"
)

// VaultHandler exposes fee-vault operations over HTTP
type VaultHandler struct {
	service vault.Service
}

// NewVaultHandler creates a new VaultHandler
func NewVaultHandler(service vault.Service) *VaultHandler {
	return &VaultHandler{service: service}
}

func (h *VaultHandler) HandleCollectFees(w http.ResponseWriter, r *http.Request) {
	marketID, ok := marketIDParam(w, r)
	if !ok {
		return
	}

	fee, err := h.service.CollectFees(r.Context(), marketID)
	if err != nil {
		respondServiceError(w, r, "Collect fees", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]int64{"fee": fee})
}

type WithdrawFeesRequest struct {
	Admin  string `json:"admin" validate:"required"`
	Token  string `json:"token" validate:"required"`
	Amount int64  `json:"amount" validate:"required,gt=0"`
}

func (h *VaultHandler) HandleWithdrawFees(w http.ResponseWriter, r *http.Request) {
	var req WithdrawFeesRequest
	if err := DecodeAndValidateRequest(r, w, &req, "Withdraw fees"); err != nil {
		return
	}

	if err := h.service.Withdraw(r.Context(), req.Admin, req.Token, req.Amount); err != nil {
		respondServiceError(w, r, "Withdraw fees", err)
		return
	}

	respondJSON(w, http.StatusOK, SuccessResponse{Message: MsgFeesWithdrawnSuccess})
}

func (h *VaultHandler) HandleGetBalance(w http.ResponseWriter, r *http.Request) {
	token, ok := GetQueryParam(r, w, "token")
	if !ok {
		return
	}

	balance, err := h.service.Balance(r.Context(), token)
	if err != nil {
		respondServiceError(w, r, "Get vault balance", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"token":   token,
		"balance": balance,
	})
}
