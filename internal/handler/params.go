package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pokerledger/platform/internal/auth"
	"github.com/pokerledger/platform/internal/domain"
)

// uuidParam parses a chi path parameter as a UUID.
func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, domain.ErrValidation("invalid " + name + ": " + raw)
	}
	return id, nil
}

// playerRef reads {tableId} and {playerId}.
func playerRef(r *http.Request) (domain.PlayerRef, error) {
	tableID, err := uuidParam(r, "tableId")
	if err != nil {
		return domain.PlayerRef{}, err
	}
	playerID, err := uuidParam(r, "playerId")
	if err != nil {
		return domain.PlayerRef{}, err
	}
	return domain.PlayerRef{TableID: tableID, PlayerID: playerID}, nil
}

// caller returns the authenticated identity set by auth.Authenticate.
func caller(r *http.Request) (domain.Identity, error) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		return domain.Identity{}, domain.ErrUnauthorized(domain.MsgMissingToken)
	}
	return id, nil
}
