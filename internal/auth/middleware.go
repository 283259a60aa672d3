package auth

import (
	"context"
	"fmt"
	"net/http"

	"cafe-pos/internal/config"
	"cafe-pos/internal/logger"
	"cafe-pos/internal/utils"
)

// NewVerifier picks OIDC when an issuer is configured and the shared HMAC secret otherwise.
func NewVerifier(ctx context.Context, cfg config.AuthConfig) (Verifier, error) {
	if cfg.OIDCIssuer != "" {
		return NewOIDCVerifier(ctx, cfg.OIDCIssuer)
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("either OIDC_ISSUER or JWT_SECRET must be set")
	}
	return NewHMACVerifier(cfg.JWTSecret), nil
}

// Middleware rejects requests without a valid bearer token and stores the caller in the context.
func Middleware(v Verifier, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rawToken, err := ExtractTokenFromRequest(r)
			if err != nil {
				utils.WriteError(w, http.StatusUnauthorized, err.Error())
				return
			}

			user, _, err := v.Verify(r.Context(), rawToken)
			if err != nil {
				log.LogSecurity("invalid-token", fmt.Sprintf("%s %s: %v", r.Method, r.URL.Path, err))
				utils.WriteError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// RequireRole lets the request through only if the caller has one of roles.
func RequireRole(roles ...Role) func(http.Handler) http.Handler {
	allowed := make(map[Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := UserFromContext(r.Context())
			if !ok {
				utils.WriteError(w, http.StatusForbidden, "forbidden")
				return
			}
			if _, ok := allowed[u.Role]; !ok && len(allowed) > 0 {
				utils.WriteError(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
