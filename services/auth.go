package services

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrBadPassword is returned when a login attempt fails.
var ErrBadPassword = errors.New("invalid password")

// AuthService issues and verifies session tokens for the single user of
// this tracker. When no password is configured the service reports auth
// as disabled and the middleware lets everything through.
type AuthService struct {
	password  string
	jwtSecret []byte
}

func NewAuthService(password, jwtSecret string) *AuthService {
	if jwtSecret == "" {
		jwtSecret = "focusdo-dev-secret-change-in-production"
	}
	return &AuthService{
		password:  password,
		jwtSecret: []byte(jwtSecret),
	}
}

// Enabled reports whether a password is configured.
func (s *AuthService) Enabled() bool {
	return s.password != ""
}

// Login checks the password and returns a session token.
func (s *AuthService) Login(password string) (string, error) {
	if !s.Enabled() {
		return "", errors.New("authentication is not configured")
	}
	if subtle.ConstantTimeCompare([]byte(password), []byte(s.password)) != 1 {
		return "", ErrBadPassword
	}
	return s.createJWT()
}

// createJWT generates a signed session token.
func (s *AuthService) createJWT() (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "focusdo",
		"exp": time.Now().Add(time.Hour * 24 * 7).Unix(), // 7 days
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// VerifyJWT verifies a session token.
func (s *AuthService) VerifyJWT(tokenString string) error {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Validate signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return errors.New("invalid token")
	}
	return nil
}
