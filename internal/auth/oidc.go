package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"

	"github.com/wardenhq/warden/pkg/handlers"
)

// ErrInvalidToken indicates a bearer token that failed OIDC verification.
var ErrInvalidToken = errors.New("invalid bearer token")

// ErrForbidden indicates an authenticated caller lacking a required role.
var ErrForbidden = errors.New("insufficient role")

// Verifier validates OIDC bearer tokens and resolves principals from claims.
type Verifier struct {
	verifier   *oidc.IDTokenVerifier
	rolesClaim string
	logger     *slog.Logger
}

// NewVerifier discovers the OIDC provider and constructs a token verifier.
// Returns nil when auth is disabled; a nil Verifier treats every caller
// as anonymous.
func NewVerifier(ctx context.Context, cfg *Config, logger *slog.Logger) (*Verifier, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	provider, err := oidc.NewProvider(ctx, cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("discover oidc provider: %w", err)
	}

	return &Verifier{
		verifier:   provider.Verifier(&oidc.Config{ClientID: cfg.Audience}),
		rolesClaim: cfg.RolesClaim,
		logger:     logger.With("system", "auth"),
	}, nil
}

// Middleware resolves the request's bearer token into a Principal on the
// context. Requests without an Authorization header proceed anonymously;
// requests with an unverifiable token are rejected.
func (v *Verifier) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if v == nil {
				next.ServeHTTP(w, r)
				return
			}

			raw := bearerToken(r)
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}

			principal, err := v.Resolve(r.Context(), raw)
			if err != nil {
				handlers.RespondError(w, v.logger, http.StatusUnauthorized, ErrInvalidToken)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

// Resolve verifies a raw bearer token and extracts the principal.
func (v *Verifier) Resolve(ctx context.Context, rawToken string) (*Principal, error) {
	token, err := v.verifier.Verify(ctx, rawToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	var claims map[string]json.RawMessage
	if err := token.Claims(&claims); err != nil {
		return nil, fmt.Errorf("%w: parse claims: %w", ErrInvalidToken, err)
	}

	p := &Principal{Subject: token.Subject}

	if raw, ok := claims["email"]; ok {
		json.Unmarshal(raw, &p.Email)
	}
	if raw, ok := claims[v.rolesClaim]; ok {
		json.Unmarshal(raw, &p.Roles)
	}

	return p, nil
}

// RequireRole returns middleware rejecting callers lacking all given roles.
// Anonymous callers receive 401, authenticated callers without a matching
// role receive 403.
func RequireRole(logger *slog.Logger, roles ...Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := PrincipalFromContext(r.Context())
			if p == nil {
				handlers.RespondError(w, logger, http.StatusUnauthorized, ErrInvalidToken)
				return
			}

			for _, role := range roles {
				if p.HasRole(role) {
					next.ServeHTTP(w, r)
					return
				}
			}

			handlers.RespondError(w, logger, http.StatusForbidden, ErrForbidden)
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}

	return strings.TrimSpace(token)
}
