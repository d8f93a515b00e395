package services

import (
	"errors"
	"time"

	"accident-dashboard-api/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	RoleViewer = "viewer"
	RoleAdmin  = "admin"
)

var (
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAdminDisabled      = errors.New("admin login is not configured")
)

type AuthService struct {
	jwtSecret []byte
	expiryH   int
	adminHash string
}

func NewAuthService(cfg config.JWTConfig, admin config.AdminConfig) *AuthService {
	return &AuthService{
		jwtSecret: []byte(cfg.Secret),
		expiryH:   cfg.ExpiryHours,
		adminHash: admin.PasswordHash,
	}
}

func (s *AuthService) HashPassword(plain string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	return string(bytes), err
}

func (s *AuthService) CheckPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// Claims identify a dashboard session. Filter selections are keyed by
// SessionID.
type Claims struct {
	SessionID string `json:"sid"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

// NewSession issues a viewer token for a fresh session id.
func (s *AuthService) NewSession() (token, sessionID string, err error) {
	sessionID = uuid.NewString()
	token, err = s.GenerateToken(sessionID, RoleViewer)
	return token, sessionID, err
}

// AdminLogin checks the password against the configured bcrypt hash and
// issues an admin token.
func (s *AuthService) AdminLogin(password string) (string, error) {
	if s.adminHash == "" {
		return "", ErrAdminDisabled
	}
	if !s.CheckPassword(s.adminHash, password) {
		return "", ErrInvalidCredentials
	}
	return s.GenerateToken(uuid.NewString(), RoleAdmin)
}

func (s *AuthService) GenerateToken(sessionID, role string) (string, error) {
	claims := Claims{
		SessionID: sessionID,
		Role:      role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(
				time.Duration(s.expiryH) * time.Hour,
			)),
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

func (s *AuthService) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{},
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return s.jwtSecret, nil
		},
	)
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.SessionID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
