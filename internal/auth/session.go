package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned when a session token fails signature or expiry checks.
	ErrInvalidToken = errors.New("invalid token")
	// ErrMalformedToken is returned when a verified session token carries no id.
	ErrMalformedToken = errors.New("malformed token")
)

// SessionClaims is the payload of a locally issued session token.
type SessionClaims struct {
	ID     string `json:"id"`
	Avatar string `json:"avatar,omitempty"`
	Name   string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// SessionTokens signs and verifies HS256 session tokens with a shared secret.
type SessionTokens struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewSessionTokens returns a SessionTokens issuing tokens valid for ttl.
func NewSessionTokens(secret, issuer string, ttl time.Duration) *SessionTokens {
	return &SessionTokens{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issuer is the iss claim stamped on every issued token.
func (s *SessionTokens) Issuer() string { return s.issuer }

// Issue signs a token embedding id, avatar and name.
func (s *SessionTokens) Issue(id, avatar, name string) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)
	claims := SessionClaims{
		ID:     id,
		Avatar: avatar,
		Name:   name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// Verify checks signature and expiry and returns the embedded identity.
func (s *SessionTokens) Verify(tokenString string) (*LocalIdentity, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.ID == "" {
		return nil, ErrMalformedToken
	}
	return &LocalIdentity{ID: claims.ID, Avatar: claims.Avatar, Name: claims.Name}, nil
}

// peekIssuer reads the iss claim without verifying the signature.
func peekIssuer(tokenString string) string {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return ""
	}
	return claims.Issuer
}
