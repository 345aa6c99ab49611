package handlers

import (
	"net/http"

	"focusdo/services"
)

type AuthMiddleware struct {
	authService *services.AuthService
}

func NewAuthMiddleware(authService *services.AuthService) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
	}
}

// Auth guards a handler with bearer-token auth. When no password is
// configured (the local single-user default) it is a pass-through.
func (m *AuthMiddleware) Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.authService.Enabled() {
			next.ServeHTTP(w, r)
			return
		}

		tokenString, ok := bearerToken(r)
		if !ok {
			respondErrorMessage(w, http.StatusUnauthorized, "missing or malformed authorization header")
			return
		}
		if err := m.authService.VerifyJWT(tokenString); err != nil {
			respondErrorMessage(w, http.StatusUnauthorized, "invalid token")
			return
		}

		next.ServeHTTP(w, r)
	})
}
