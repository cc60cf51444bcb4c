package auth

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

// Principal is the authenticated caller derived from a validated token.
type Principal struct {
	Subject   string
	Username  string
	Email     string
	ExpiresAt time.Time
}

// Validator validates bearer tokens against a JWKS endpoint.
type Validator struct {
	issuer  string
	jwksURL string
	logger  zerolog.Logger
	jwks    atomic.Pointer[keyfunc.JWKS]
}

const jwksRefreshInterval = time.Hour

// NewValidator fetches the JWKS and returns a validator. The keyfunc
// refresher keeps keys current for the lifetime of ctx.
func NewValidator(ctx context.Context, jwksURL, issuer string, logger zerolog.Logger) (*Validator, error) {
	if jwksURL == "" {
		return nil, errors.New("jwks url is required")
	}

	v := &Validator{
		issuer:  issuer,
		jwksURL: jwksURL,
		logger:  logger.With().Str("component", "auth-validator").Logger(),
	}

	options := keyfunc.Options{
		Ctx:               ctx,
		RefreshInterval:   jwksRefreshInterval,
		RefreshUnknownKID: true,
		RefreshErrorHandler: func(err error) {
			v.logger.Error().Err(err).Msg("jwks refresh failed")
		},
	}

	jwks, err := keyfunc.Get(jwksURL, options)
	if err != nil {
		return nil, fmt.Errorf("fetch jwks: %w", err)
	}
	v.jwks.Store(jwks)
	return v, nil
}

// Validate parses the raw token and returns the caller's principal.
func (v *Validator) Validate(_ context.Context, rawToken string) (*Principal, error) {
	jwks := v.jwks.Load()
	if jwks == nil {
		return nil, errors.New("jwks not initialised")
	}

	parser := jwt.NewParser(jwt.WithValidMethods([]string{"RS256"}))
	token, err := parser.ParseWithClaims(rawToken, jwt.MapClaims{}, jwks.Keyfunc)
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid claims")
	}

	if iss, _ := claims["iss"].(string); iss != v.issuer {
		return nil, fmt.Errorf("issuer mismatch %s", iss)
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, errors.New("sub claim missing")
	}

	principal := &Principal{
		Subject:  sub,
		Username: claimString(claims["preferred_username"]),
		Email:    claimString(claims["email"]),
	}
	if exp, ok := claims["exp"].(float64); ok {
		principal.ExpiresAt = time.Unix(int64(exp), 0).UTC()
	}
	return principal, nil
}

// Ready indicates whether the JWKS has been loaded.
func (v *Validator) Ready() bool {
	return v.jwks.Load() != nil
}

func claimString(value any) string {
	if str, ok := value.(string); ok {
		return str
	}
	return ""
}
