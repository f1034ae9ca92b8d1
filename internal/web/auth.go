package web

import (
	"context"
	"net/http"
	"strings"

	"github.com/ferrianes/foodmarket-backend/internal/auth"
)

// authenticate resolves the bearer token of the request. Requests without
// a usable token are rejected before they reach the handler.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearerToken(r)
		if !ok {
			s.handleError(w, r, auth.ErrUnauthenticated)
			return
		}

		id, err := s.deps.Tokens.Resolve(r.Context(), raw)
		if err != nil {
			s.handleError(w, r, err)
			return
		}

		ctx := contextWithIdentity(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, auth.TokenType) {
		return "", false
	}

	token = strings.TrimSpace(token)
	return token, token != ""
}

type ctxKey string

const identityKey ctxKey = "foodmarketIdentity"

func contextWithIdentity(ctx context.Context, id auth.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

func identityFromContext(ctx context.Context) (auth.Identity, bool) {
	id, ok := ctx.Value(identityKey).(auth.Identity)
	return id, ok
}
