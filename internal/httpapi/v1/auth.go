package v1

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tinoosan/ledgerd/internal/audit"
)

// AuthConfig enables HS256 bearer-token checks when Secret is set. Issuer and
// Audience are verified only when non-empty.
type AuthConfig struct {
	Secret   string
	Issuer   string
	Audience string
}

func parseBearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if len(h) < len("Bearer ") || !strings.EqualFold(h[:len("Bearer ")], "Bearer ") {
		return "", false
	}
	tok := strings.TrimSpace(h[len("Bearer "):])
	return tok, tok != ""
}

// authJWT returns nil when no secret is configured.
func authJWT(cfg AuthConfig, l *slog.Logger) func(http.Handler) http.Handler {
	secret := strings.TrimSpace(cfg.Secret)
	if secret == "" {
		return nil
	}
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}
	parser := jwt.NewParser(opts...)
	keyFunc := func(*jwt.Token) (any, error) { return []byte(secret), nil }

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := parseBearerToken(r)
			if !ok {
				writeErr(w, http.StatusUnauthorized, "missing bearer token", "unauthorized")
				return
			}
			var claims jwt.RegisteredClaims
			if _, err := parser.ParseWithClaims(raw, &claims, keyFunc); err != nil {
				l.WarnContext(r.Context(), "token rejected", "err", err)
				writeErr(w, http.StatusUnauthorized, "invalid token", "unauthorized")
				return
			}
			if claims.Subject != "" {
				r = r.WithContext(audit.WithActor(r.Context(), claims.Subject))
			}
			next.ServeHTTP(w, r)
		})
	}
}
