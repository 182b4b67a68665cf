package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// JWTConfig configures device tokens. These tokens only name a browser
// profile; the user's bearer token from the backend is kept in its session.
type JWTConfig struct {
	Issuer  string
	Secret  string
	TTLDays int
}

type JWTManager struct {
	cfg JWTConfig
	now func() time.Time
}

type Claims struct {
	jwt.RegisteredClaims
}

// DeviceID is the subject of the token.
func (c Claims) DeviceID() string {
	return c.Subject
}

func NewJWTManager(cfg JWTConfig) *JWTManager {
	return &JWTManager{cfg: cfg, now: time.Now}
}

func (m *JWTManager) TTL() time.Duration {
	return time.Duration(m.cfg.TTLDays) * 24 * time.Hour
}

// IssueDevice mints a new device id and its token.
func (m *JWTManager) IssueDevice() (token, device string, exp time.Time, err error) {
	device = uuid.NewString()
	token, exp, err = m.SignDevice(device)
	return token, device, exp, err
}

func (m *JWTManager) SignDevice(device string) (string, time.Time, error) {
	now := m.now()
	exp := now.Add(m.TTL())
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.cfg.Issuer,
			Subject:   device,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := t.SignedString([]byte(m.cfg.Secret))
	return s, exp, err
}

func (m *JWTManager) ParseDevice(tokenStr string) (*Claims, error) {
	tok, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(m.cfg.Secret), nil
	}, jwt.WithIssuer(m.cfg.Issuer), jwt.WithTimeFunc(m.now))
	if err != nil {
		return nil, err
	}
	claims, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid || claims.Subject == "" {
		return nil, errors.New("invalid device token")
	}
	return claims, nil
}
