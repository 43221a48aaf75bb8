package keycloak

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/MicahParks/jwkset"
	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// Claims are the access token claims checked against a realm configuration
type Claims struct {
	jwt.RegisteredClaims

	AuthorizedParty   string `json:"azp,omitempty"`
	ClientID          string `json:"client_id,omitempty"`
	Scope             string `json:"scope,omitempty"`
	PreferredUsername string `json:"preferred_username,omitempty"`
	Email             string `json:"email,omitempty"`
	EmailVerified     bool   `json:"email_verified,omitempty"`
	GivenName         string `json:"given_name,omitempty"`
	FamilyName        string `json:"family_name,omitempty"`
}

// HasAudience reports whether aud is one of the token audiences.
func (c *Claims) HasAudience(aud string) bool {
	return slices.Contains(c.Audience, aud)
}

// TokenVerifier checks token signatures against a realm's signing keys
type TokenVerifier struct {
	keys   keyfunc.Keyfunc
	issuer string
}

// NewTokenVerifier loads the realm's JWKS once. issuer is the realm URL.
func NewTokenVerifier(ctx context.Context, jwksURL, issuer string) (*TokenVerifier, error) {
	storage, err := jwkset.NewStorageFromHTTP(jwksURL, jwkset.HTTPClientStorageOptions{
		Ctx:         ctx,
		HTTPTimeout: 10 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load signing keys from %s: %w", jwksURL, err)
	}

	k, err := keyfunc.New(keyfunc.Options{
		Ctx:     ctx,
		Storage: storage,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create keyfunc: %w", err)
	}

	return NewTokenVerifierWithKeyfunc(k, issuer), nil
}

// NewTokenVerifierWithKeyfunc creates a verifier with the given key source
func NewTokenVerifierWithKeyfunc(k keyfunc.Keyfunc, issuer string) *TokenVerifier {
	return &TokenVerifier{keys: k, issuer: issuer}
}

// Verify parses an RS256 signed token issued by the realm. When audience is
// not empty the token must be issued for it.
func (v *TokenVerifier) Verify(ctx context.Context, raw, audience string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(v.issuer),
		jwt.WithLeeway(5 * time.Second),
	}
	if audience != "" {
		opts = append(opts, jwt.WithAudience(audience))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, v.keys.KeyfuncCtx(ctx), opts...)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}
