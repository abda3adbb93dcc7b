package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCreds  = errors.New("invalid credentials")
	ErrNotConfigured = errors.New("admin login is not configured")

	jwtSecretOnce    sync.Once
	jwtSecretRuntime []byte
	jwtSecretErr     error
)

func jwtSecretFromEnv() ([]byte, error) {
	jwtSecretOnce.Do(func() {
		secret := strings.TrimSpace(os.Getenv("JWT_SECRET"))
		if secret != "" {
			jwtSecretRuntime = []byte(secret)
			return
		}

		buf := make([]byte, 48)
		if _, err := rand.Read(buf); err != nil {
			jwtSecretErr = fmt.Errorf("failed to generate JWT fallback secret: %w", err)
			return
		}

		jwtSecretRuntime = []byte(base64.RawURLEncoding.EncodeToString(buf))
		log.Print("JWT_SECRET is not set; using ephemeral in-memory fallback secret")
	})

	if jwtSecretErr != nil {
		return nil, jwtSecretErr
	}
	if len(jwtSecretRuntime) == 0 {
		return nil, errors.New("JWT secret unavailable")
	}

	return jwtSecretRuntime, nil
}

// Service authenticates the single operator account. There is no user
// store: the bcrypt hash of the operator password comes from the
// environment, and a successful login yields a short-lived JWT for the
// admin endpoints.
type Service struct {
	passwordHash string
}

// NewService reads ADMIN_PASSWORD_HASH. An empty hash leaves admin login
// disabled rather than open.
func NewService() *Service {
	hash := strings.TrimSpace(os.Getenv("ADMIN_PASSWORD_HASH"))
	if hash == "" {
		log.Print("ADMIN_PASSWORD_HASH is not set; admin login disabled")
	}
	return &Service{passwordHash: hash}
}

type LoginRequest struct {
	Password string `json:"password"`
}

type AuthResponse struct {
	Token string `json:"token"`
}

func (s *Service) Login(req LoginRequest) (*AuthResponse, error) {
	if s.passwordHash == "" {
		return nil, ErrNotConfigured
	}

	if err := bcrypt.CompareHashAndPassword([]byte(s.passwordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCreds
	}

	token, err := generateToken()
	if err != nil {
		return nil, err
	}

	return &AuthResponse{Token: token}, nil
}

func generateToken() (string, error) {
	secretKey, err := jwtSecretFromEnv()
	if err != nil {
		return "", err
	}

	claims := jwt.MapClaims{
		"sub": "admin",
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(24 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secretKey)
}
