package service

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"user-service/internal/domain"
)

// DefaultTokenTTL applies when no lifetime is configured.
const DefaultTokenTTL = 60 * time.Minute

// TokenConfig configures token signing.
type TokenConfig struct {
	Key      string
	Issuer   string
	Audience string
	TTL      time.Duration
}

// Claims is the bearer token payload.
type Claims struct {
	Name            string `json:"name"`
	Role            string `json:"role"`
	PasswordVersion int    `json:"pwv"`
	jwt.RegisteredClaims
}

// UserID returns the numeric subject.
func (c *Claims) UserID() (int64, error) {
	return strconv.ParseInt(c.Subject, 10, 64)
}

// TokenService issues and parses signed bearer tokens.
type TokenService interface {
	IssueToken(user *domain.User) (string, error)
	ParseToken(token string) (*Claims, error)
}

type jwtTokenService struct {
	key      []byte
	issuer   string
	audience string
	ttl      time.Duration
	now      func() time.Time
}

// NewTokenService fails with domain.ErrMissingSigningKey when no key is
// configured. The key is base64-decoded when it is valid base64, otherwise
// its raw bytes are used.
func NewTokenService(cfg TokenConfig, now func() time.Time) (TokenService, error) {
	raw := strings.TrimSpace(cfg.Key)
	if raw == "" {
		return nil, domain.ErrMissingSigningKey
	}
	key, err := base64.StdEncoding.DecodeString(raw)
	if err != nil || len(key) == 0 {
		key = []byte(raw)
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	if now == nil {
		now = time.Now
	}
	return &jwtTokenService{
		key:      key,
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		ttl:      ttl,
		now:      now,
	}, nil
}

func (s *jwtTokenService) IssueToken(user *domain.User) (string, error) {
	if user == nil {
		return "", errors.New("issue token: nil user")
	}
	now := s.now()
	claims := Claims{
		Name:            user.Username,
		Role:            string(user.Role),
		PasswordVersion: user.PasswordVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	if s.audience != "" {
		claims.Audience = jwt.ClaimStrings{s.audience}
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (s *jwtTokenService) ParseToken(token string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}
	if s.audience != "" {
		opts = append(opts, jwt.WithAudience(s.audience))
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.key, nil
	}, opts...)
	if err != nil {
		return nil, domain.Wrap(domain.ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, domain.ErrInvalidToken
	}
	if _, err := claims.UserID(); err != nil {
		return nil, domain.Wrap(domain.ErrInvalidToken, err)
	}
	return claims, nil
}
