package httppresentation

import (
	"net/http"
	"strings"

	"github.com/Zhima-Mochi/storefront/internal/application"
	"github.com/Zhima-Mochi/storefront/internal/domain/identity"
	"github.com/Zhima-Mochi/storefront/internal/observability"
	"github.com/Zhima-Mochi/storefront/internal/observability/logctx"
)

// TokenVerifier turns a bearer token into a caller identity.
type TokenVerifier interface {
	Verify(token string) (identity.Caller, error)
}

// withAuth rejects requests without a valid bearer token and binds the caller to the context.
func withAuth(verifier TokenVerifier, fallback observability.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				writeError(w, r, application.ErrUnauthenticated)
				return
			}
			caller, err := verifier.Verify(raw)
			if err != nil {
				logctx.FromOr(r.Context(), fallback).Info("auth_rejected", observability.F("error", err))
				writeError(w, r, application.ErrUnauthenticated)
				return
			}

			ctx, _ := logctx.Enrich(identity.WithCaller(r.Context(), caller), fallback,
				observability.F("user_id", caller.UserID),
				observability.F("role", string(caller.Role)),
			)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
