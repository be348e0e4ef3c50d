package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/screenlog/screenlog-be/internal/apperr"
)

// TokenService issues and validates signed bearer tokens. Tokens are
// self-contained: validity is a function of signature and expiry only, so
// rotating the secret invalidates everything outstanding.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// Claims defines the JWT claims structure. The subject is the user id.
type Claims struct {
	jwt.RegisteredClaims
}

// NewTokenService creates a TokenService signing with the given secret.
func NewTokenService(secret []byte, ttl time.Duration) *TokenService {
	return &TokenService{secret: secret, ttl: ttl, now: time.Now}
}

// Issue creates a new signed token for the given user id, valid for the
// service's configured TTL.
func (s *TokenService) Issue(userID string) (string, error) {
	now := s.now().UTC()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Validate parses and verifies a token string and returns the subject user
// id. Malformed, forged or expired tokens all fail with Unauthorized.
func (s *TokenService) Validate(tokenStr string) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(func() time.Time { return s.now() }))
	if err != nil {
		return "", apperr.Wrap(apperr.KindUnauthorized, "invalid or expired token", err)
	}
	if !token.Valid {
		return "", apperr.New(apperr.KindUnauthorized, "invalid or expired token")
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return "", apperr.New(apperr.KindUnauthorized, "invalid or expired token")
	}
	return claims.Subject, nil
}
