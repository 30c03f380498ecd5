package middleware

import (
	"context"
	"net/http"
	"strings"

	"technotes-api/internal/model"
	"technotes-api/pkg/apierror"
)

type tokenVerifier interface {
	VerifyAccessToken(token string) (*model.AccessClaims, error)
}

type contextKey string

const credentialContextKey contextKey = "credential"

type AuthMiddleware struct {
	verifier tokenVerifier
}

func NewAuthMiddleware(verifier tokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier}
}

// RequireAuth answers 401 when no bearer token is presented and 403 when the
// token does not verify, expired tokens included.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			WriteError(w, r, apierror.Unauthorized("Unauthorized"))
			return
		}

		claims, err := m.verifier.VerifyAccessToken(token)
		if err != nil {
			WriteError(w, r, apierror.Forbidden("Forbidden"))
			return
		}

		next.ServeHTTP(w, r.WithContext(WithCredential(r.Context(), claims.Credential())))
	})
}

func (m *AuthMiddleware) RequireRoles(allowedRoles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cred, ok := CredentialFromContext(r.Context())
			if !ok {
				WriteError(w, r, apierror.Unauthorized("Unauthorized"))
				return
			}

			if !cred.HasAnyRole(allowedRoles...) {
				WriteError(w, r, apierror.Forbidden("Forbidden"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func WithCredential(ctx context.Context, cred model.Credential) context.Context {
	return context.WithValue(ctx, credentialContextKey, cred)
}

func CredentialFromContext(ctx context.Context) (model.Credential, bool) {
	cred, ok := ctx.Value(credentialContextKey).(model.Credential)
	return cred, ok
}

func bearerToken(header string) (string, bool) {
	header = strings.TrimSpace(header)
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return "", false
	}

	token := strings.TrimSpace(header[7:])
	return token, token != ""
}
