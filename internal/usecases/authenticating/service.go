package authenticating

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/adstation/campaign-manager-api/internal/config"
	"github.com/adstation/campaign-manager-api/internal/domain"
	"github.com/adstation/campaign-manager-api/pkg/apiErrors"
)

var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("login-timing-filler"), bcrypt.DefaultCost)

type Authenticator interface {
	LoginUser(email, password string) (string, error)
	ValidateToken(tokenString string) (*domain.Claims, error)
	GetUserProfile(email string) (*domain.User, error)
}

// Service authenticates against the users provisioned in configuration.
// The dashboard has a small fixed operator list, so there is no user table
// and no self-service registration.
type Service struct {
	cfg *config.Config
}

func NewService(cfg *config.Config) Authenticator {
	return &Service{
		cfg: cfg,
	}
}

func (s *Service) LoginUser(email, password string) (string, error) {
	if email == "" || password == "" {
		return "", NewAuthError(ErrMissingRequiredData, apiErrors.ErrMissingRequiredData, "email and password are required")
	}

	email = handleEmail(email)

	user, ok := s.findUser(email)
	if !ok {
		// Burn a bcrypt comparison anyway so missing and present users take
		// the same time to reject.
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return "", NewAuthError(ErrInvalidCredentials, apiErrors.ErrInvalidCredentials, "invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", NewAuthError(ErrInvalidCredentials, apiErrors.ErrInvalidCredentials, "invalid email or password")
	}

	token, err := generateJWT(user, s.cfg.Auth.Secret)
	if err != nil {
		return "", NewAuthError(err, apiErrors.ErrInternalServer, "failed to generate authentication token")
	}

	return token, nil
}

func (s *Service) GetUserProfile(email string) (*domain.User, error) {
	user, ok := s.findUser(handleEmail(email))
	if !ok {
		return nil, NewAuthError(ErrUserNotFound, apiErrors.ErrInvalidToken, "user no longer provisioned")
	}

	return &domain.User{
		Email: user.Email,
		Name:  user.Name,
	}, nil
}

func (s *Service) ValidateToken(tokenString string) (*domain.Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &domain.Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.Auth.Secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, NewAuthError(ErrExpiredToken, apiErrors.ErrExpiredToken, "")
		}
		return nil, NewAuthError(ErrInvalidToken, apiErrors.ErrInvalidToken, err.Error())
	}

	claims, ok := token.Claims.(*domain.Claims)
	if !ok || !token.Valid {
		return nil, NewAuthError(ErrInvalidToken, apiErrors.ErrInvalidToken, "")
	}

	return claims, nil
}

func (s *Service) findUser(email string) (config.AuthUser, bool) {
	for _, user := range s.cfg.Auth.Users {
		if handleEmail(user.Email) == email {
			return user, true
		}
	}
	return config.AuthUser{}, false
}

func handleEmail(s string) string {
	email := strings.ToLower(s)
	email = strings.TrimSpace(email)
	email = strings.ReplaceAll(email, " ", "")
	return email
}

func generateJWT(user config.AuthUser, secretKey string) (string, error) {
	claims := domain.Claims{
		UserEmail: user.Email,
		UserName:  user.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secretKey))
}
