package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/pokerledger/platform/internal/domain"
	"github.com/pokerledger/platform/internal/service"
)

// ledgerEntryResponse is the body returned after a buy-in or cash-out.
type ledgerEntryResponse struct {
	ID        uuid.UUID `json:"id"`
	Amount    int64     `json:"amount"`
	Timestamp time.Time `json:"timestamp"`
}

type amountRequest struct {
	Amount *domain.Amount `json:"amount"`
}

type chipsRequest struct {
	Chips *domain.Amount `json:"chips"`
}

type showMeRequest struct {
	ShowMe *bool `json:"showMe" validate:"required"`
}

// AddPlayer handles POST /api/tables/{tableId}/players.
func (h *TableHandler) AddPlayer(w http.ResponseWriter, r *http.Request) {
	tableID, err := uuidParam(r, "tableId")
	if err != nil {
		RespondError(w, err)
		return
	}
	var input service.AddPlayerInput
	if err := DecodeAndValidate(r, &input); err != nil {
		RespondError(w, err)
		return
	}

	player, err := h.tableSvc.AddPlayer(r.Context(), tableID, input)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusCreated, player)
}

// RemovePlayer handles DELETE /api/tables/{tableId}/players/{playerId}.
func (h *TableHandler) RemovePlayer(w http.ResponseWriter, r *http.Request) {
	ref, err := playerRef(r)
	if err != nil {
		RespondError(w, err)
		return
	}
	if err := h.tableSvc.RemovePlayer(r.Context(), ref); err != nil {
		RespondError(w, err)
		return
	}
	RespondMessage(w, "Player removed")
}

// RecordBuyIn handles POST /api/tables/{tableId}/players/{playerId}/buyins.
func (h *TableHandler) RecordBuyIn(w http.ResponseWriter, r *http.Request) {
	ref, err := playerRef(r)
	if err != nil {
		RespondError(w, err)
		return
	}
	var req amountRequest
	if err := decodeAmount(r, &req); err != nil {
		RespondError(w, err)
		return
	}

	buyIn, err := h.tableSvc.RecordBuyIn(r.Context(), ref, *req.Amount)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, ledgerEntryResponse{ID: buyIn.ID, Amount: buyIn.Amount, Timestamp: buyIn.Timestamp})
}

// RecordCashOut handles POST /api/tables/{tableId}/players/{playerId}/cashouts.
func (h *TableHandler) RecordCashOut(w http.ResponseWriter, r *http.Request) {
	ref, err := playerRef(r)
	if err != nil {
		RespondError(w, err)
		return
	}
	var req amountRequest
	if err := decodeAmount(r, &req); err != nil {
		RespondError(w, err)
		return
	}

	cashOut, err := h.tableSvc.RecordCashOut(r.Context(), ref, *req.Amount)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, ledgerEntryResponse{ID: cashOut.ID, Amount: cashOut.Amount, Timestamp: cashOut.Timestamp})
}

// UpdateChips handles PUT /api/tables/{tableId}/players/{playerId}/chips.
func (h *TableHandler) UpdateChips(w http.ResponseWriter, r *http.Request) {
	ref, err := playerRef(r)
	if err != nil {
		RespondError(w, err)
		return
	}
	var req chipsRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, err)
		return
	}
	if req.Chips == nil {
		RespondError(w, domain.ErrInvalidAmount("chips is required"))
		return
	}

	player, err := h.tableSvc.UpdatePlayerChips(r.Context(), ref, *req.Chips)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]int64{"chips": player.Chips})
}

// Reactivate handles PUT /api/tables/{tableId}/players/{playerId}/reactivate.
func (h *TableHandler) Reactivate(w http.ResponseWriter, r *http.Request) {
	ref, err := playerRef(r)
	if err != nil {
		RespondError(w, err)
		return
	}
	if _, err := h.tableSvc.ReactivatePlayer(r.Context(), ref); err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]bool{"active": true})
}

// SetShowMe handles PUT /api/tables/{tableId}/players/{playerId}/showme.
func (h *TableHandler) SetShowMe(w http.ResponseWriter, r *http.Request) {
	ref, err := playerRef(r)
	if err != nil {
		RespondError(w, err)
		return
	}
	var req showMeRequest
	if err := DecodeAndValidate(r, &req); err != nil {
		RespondError(w, err)
		return
	}

	player, err := h.tableSvc.SetShowMe(r.Context(), ref, *req.ShowMe)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]bool{"success": true, "showMe": player.ShowMe})
}

// decodeAmount reports a missing amount as InvalidAmount rather than a generic validation error.
func decodeAmount(r *http.Request, req *amountRequest) error {
	if err := DecodeJSON(r, req); err != nil {
		return err
	}
	if req.Amount == nil {
		return domain.ErrInvalidAmount("amount is required")
	}
	return nil
}
