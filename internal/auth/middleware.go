package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/pokerledger/platform/internal/domain"
)

type contextKey string

const (
	claimsKey   contextKey = "auth_claims"
	identityKey contextKey = "auth_identity"
)

var (
	errMissingToken   = domain.ErrUnauthorized(domain.MsgMissingToken)
	errMalformedToken = domain.ErrUnauthorized(domain.MsgMalformedToken)
	errInvalidToken   = domain.ErrUnauthorized(domain.MsgInvalidToken)
)

// ClaimsFromContext extracts JWT claims from request context.
func ClaimsFromContext(ctx context.Context) *Claims {
	claims, _ := ctx.Value(claimsKey).(*Claims)
	return claims
}

// IdentityFromContext returns the authenticated caller, if any.
func IdentityFromContext(ctx context.Context) (domain.Identity, bool) {
	id, ok := ctx.Value(identityKey).(domain.Identity)
	return id, ok
}

// WithIdentity attaches claims and the derived identity to ctx.
func WithIdentity(ctx context.Context, claims *Claims, id domain.Identity) context.Context {
	ctx = context.WithValue(ctx, claimsKey, claims)
	return context.WithValue(ctx, identityKey, id)
}

// Authenticate returns middleware that validates bearer tokens. The store is not consulted.
func Authenticate(jwtMgr *JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := extractAndValidate(r, jwtMgr)
			if err != nil {
				writeError(w, err)
				return
			}
			id, err := claims.Identity()
			if err != nil {
				writeError(w, errInvalidToken)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), claims, id)))
		})
	}
}

// Require returns middleware that admits only roles granted capability.
// It must run after Authenticate.
func Require(capability Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFromContext(r.Context())
			if !ok {
				writeError(w, errMissingToken)
				return
			}
			if !Allowed(id.Role, capability) {
				writeError(w, domain.ErrForbidden(domain.MsgInsufficientRole))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func extractAndValidate(r *http.Request, jwtMgr *JWTManager) (*Claims, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil, errMissingToken
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return nil, errMalformedToken
	}

	claims, err := jwtMgr.ValidateToken(strings.TrimSpace(parts[1]))
	if err != nil {
		return nil, errInvalidToken
	}
	return claims, nil
}

func writeError(w http.ResponseWriter, err error) {
	var appErr *domain.AppError
	if !errors.As(err, &appErr) {
		appErr = domain.ErrInternal("internal server error", err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.Status)
	_ = json.NewEncoder(w).Encode(appErr)
}
