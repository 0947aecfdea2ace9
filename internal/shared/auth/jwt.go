package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// TokenTTL is how long an issued admin token stays valid.
const TokenTTL = 12 * time.Hour

var (
	errMissingSecret = errors.New("jwt secret not configured")
	ErrInvalidToken  = errors.New("invalid token")
)

// Claims is the JWT payload issued to dashboard users.
type Claims struct {
	Role  Role   `json:"role"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Signer issues and verifies HS256 tokens.
type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSigner builds a Signer. Production environments must supply a secret.
func NewSigner(secret, env string) (*Signer, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		switch strings.ToLower(strings.TrimSpace(env)) {
		case "production", "staging":
			return nil, fmt.Errorf("%w: JWT_SECRET required in %s", errMissingSecret, env)
		}
		secret = "dev-secret"
	}
	return &Signer{
		secret: []byte(secret),
		ttl:    TokenTTL,
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

// Sign issues a token for p.
func (s *Signer) Sign(p Principal, email, name string) (string, error) {
	if p.ID == "" {
		return "", errors.New("principal id is required")
	}
	if !p.Role.Valid() || p.Role == RoleAnonymous {
		return "", fmt.Errorf("cannot issue token for role %q", p.Role)
	}
	now := s.now()
	claims := Claims{
		Role:  p.Role,
		Email: email,
		Name:  name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify parses a token and returns the principal it names.
func (s *Signer) Verify(token string) (Principal, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Subject == "" || !claims.Role.Valid() {
		return Principal{}, ErrInvalidToken
	}
	return Principal{Role: claims.Role, ID: claims.Subject}, nil
}
