// Package jwt implementa auth.AuthVerifier con tokens HS256 firmados por el IdP.
package jwt

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"treatment-cases/internal/ports/auth"

	gojwt "github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenEmpty    = errors.New("token is empty")
	ErrNotConfigured = errors.New("jwt secret not configured")
	ErrMissingUserID = errors.New("token missing sub")
	ErrUnknownRole   = errors.New("token has unknown role")
)

type Config struct {
	Secret   string
	Issuer   string
	Audience string
}

// Claims es lo que esperamos dentro del token.
type Claims struct {
	gojwt.RegisteredClaims
	Email    string `json:"email,omitempty"`
	Role     string `json:"role,omitempty"`
	TenantID string `json:"tenant_id,omitempty"`
}

type Verifier struct {
	secret []byte
	opts   []gojwt.ParserOption
}

func NewVerifier(cfg Config) (*Verifier, error) {
	secret := strings.TrimSpace(cfg.Secret)
	if secret == "" {
		return nil, ErrNotConfigured
	}

	opts := []gojwt.ParserOption{
		gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}),
		gojwt.WithExpirationRequired(),
	}
	if iss := strings.TrimSpace(cfg.Issuer); iss != "" {
		opts = append(opts, gojwt.WithIssuer(iss))
	}
	if aud := strings.TrimSpace(cfg.Audience); aud != "" {
		opts = append(opts, gojwt.WithAudience(aud))
	}

	return &Verifier{secret: []byte(secret), opts: opts}, nil
}

func (v *Verifier) Verify(_ context.Context, token string) (auth.Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, ErrTokenEmpty
	}

	var c Claims
	_, err := gojwt.ParseWithClaims(token, &c, func(*gojwt.Token) (any, error) {
		return v.secret, nil
	}, v.opts...)
	if err != nil {
		return auth.Claims{}, fmt.Errorf("jwt verify failed: %w", err)
	}

	userID := strings.TrimSpace(c.Subject)
	if userID == "" {
		return auth.Claims{}, ErrMissingUserID
	}

	// sin rol => patient (lo decide el middleware)
	role := auth.Role(strings.ToLower(strings.TrimSpace(c.Role)))
	switch role {
	case "", auth.RolePatient, auth.RoleOperator:
	default:
		return auth.Claims{}, fmt.Errorf("%w: %s", ErrUnknownRole, c.Role)
	}

	return auth.Claims{
		UserID:   userID,
		Email:    strings.TrimSpace(c.Email),
		TenantID: strings.TrimSpace(c.TenantID),
		Role:     role,
	}, nil
}
