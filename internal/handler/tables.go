package handler

import (
	"net/http"
	"strconv"

	"github.com/pokerledger/platform/internal/domain"
	"github.com/pokerledger/platform/internal/service"
)

// TableHandler serves tables, their players and the buy-in/cash-out ledger.
type TableHandler struct {
	tableSvc *service.TableService
}

// NewTableHandler creates a new TableHandler.
func NewTableHandler(tableSvc *service.TableService) *TableHandler {
	return &TableHandler{tableSvc: tableSvc}
}

// ListTables handles GET /api/tables and GET /api/public/tables.
func (h *TableHandler) ListTables(w http.ResponseWriter, r *http.Request) {
	tables, err := h.tableSvc.ListTables(r.Context())
	if err != nil {
		RespondError(w, err)
		return
	}
	if tables == nil {
		tables = []domain.Table{}
	}
	RespondJSON(w, http.StatusOK, tables)
}

// GetTable handles GET /api/tables/{tableId}.
func (h *TableHandler) GetTable(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "tableId")
	if err != nil {
		RespondError(w, err)
		return
	}
	table, err := h.tableSvc.GetTable(r.Context(), id)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, table)
}

// GetBalance handles GET /api/tables/{tableId}/balance.
func (h *TableHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "tableId")
	if err != nil {
		RespondError(w, err)
		return
	}
	balance, err := h.tableSvc.GetTableBalance(r.Context(), id)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, balance)
}

// CreateTable handles POST /api/tables.
func (h *TableHandler) CreateTable(w http.ResponseWriter, r *http.Request) {
	id, err := caller(r)
	if err != nil {
		RespondError(w, err)
		return
	}
	var input service.CreateTableInput
	if err := DecodeAndValidate(r, &input); err != nil {
		RespondError(w, err)
		return
	}

	table, err := h.tableSvc.CreateTable(r.Context(), id, input)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusCreated, table)
}

// UpdateTable handles PUT /api/tables/{tableId}.
func (h *TableHandler) UpdateTable(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "tableId")
	if err != nil {
		RespondError(w, err)
		return
	}
	var input service.UpdateTableInput
	if err := DecodeAndValidate(r, &input); err != nil {
		RespondError(w, err)
		return
	}

	table, err := h.tableSvc.UpdateTable(r.Context(), id, input)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, table)
}

// DeleteTable handles DELETE /api/tables/{tableId}.
func (h *TableHandler) DeleteTable(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "tableId")
	if err != nil {
		RespondError(w, err)
		return
	}
	if err := h.tableSvc.DeleteTable(r.Context(), id); err != nil {
		RespondError(w, err)
		return
	}
	RespondMessage(w, "Table deleted")
}

type tableStatusRequest struct {
	IsActive *bool `json:"isActive" validate:"required"`
}

// SetStatus handles PUT /api/tables/{tableId}/status.
func (h *TableHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "tableId")
	if err != nil {
		RespondError(w, err)
		return
	}
	var req tableStatusRequest
	if err := DecodeAndValidate(r, &req); err != nil {
		RespondError(w, err)
		return
	}

	if err := h.tableSvc.SetTableActive(r.Context(), id, *req.IsActive); err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]bool{"isActive": *req.IsActive})
}

// UniqueNames handles GET /api/players/unique-names.
func (h *TableHandler) UniqueNames(w http.ResponseWriter, r *http.Request) {
	names, err := h.tableSvc.UniquePlayerNames(r.Context())
	if err != nil {
		RespondError(w, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	RespondJSON(w, http.StatusOK, names)
}

// Statistics handles GET /api/statistics and GET /api/public/statistics.
// The optional minGames query parameter drops players with fewer tables.
func (h *TableHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	minGames := 0
	if raw := r.URL.Query().Get("minGames"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			RespondError(w, domain.ErrValidation("minGames must be a non-negative integer"))
			return
		}
		minGames = n
	}

	stats, err := h.tableSvc.PlayerStatistics(r.Context(), minGames)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, stats)
}
