package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"

	"focusdo/services"
)

// AuthHandler handles authentication-related endpoints
type AuthHandler struct {
	authService *services.AuthService
	log         *log.Logger
}

func NewAuthHandler(authService *services.AuthService, logger *log.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		log:         logger,
	}
}

// Login checks the configured password and returns a session token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondErrorMessage(w, http.StatusBadRequest, "invalid request format")
		return
	}

	token, err := h.authService.Login(req.Password)
	if err != nil {
		if errors.Is(err, services.ErrBadPassword) {
			respondErrorMessage(w, http.StatusUnauthorized, "invalid password")
			return
		}
		h.log.Error("login failed", "err", err)
		respondErrorMessage(w, http.StatusInternalServerError, "authentication error")
		return
	}

	respondSuccess(w, map[string]string{"token": token})
}

// VerifyToken checks if a session token is valid
func (h *AuthHandler) VerifyToken(w http.ResponseWriter, r *http.Request) {
	tokenString, ok := bearerToken(r)
	if !ok {
		respondErrorMessage(w, http.StatusUnauthorized, "missing or malformed authorization header")
		return
	}

	if err := h.authService.VerifyJWT(tokenString); err != nil {
		respondErrorMessage(w, http.StatusUnauthorized, "invalid token")
		return
	}

	respondSuccess(w, map[string]string{"status": "valid"})
}

// bearerToken extracts the token from an Authorization: Bearer header.
func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	authParts := strings.Split(authHeader, " ")
	if len(authParts) != 2 || authParts[0] != "Bearer" {
		return "", false
	}
	return authParts[1], true
}
