package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"
)

// Identity is what a verified access token tells us about the caller.
type Identity struct {
	UserID     string
	Email      string
	GivenName  string
	FamilyName string
}

type TokenVerifier interface {
	Verify(ctx context.Context, accessToken string) (*Identity, error)
}

type KeySetSource interface {
	Lookup(ctx context.Context, u string) (jwk.Set, error)
}

// JWKSVerifier validates Cognito access tokens against the user pool's
// published key set.
type JWKSVerifier struct {
	keys    KeySetSource
	jwksURL string
	issuer  string
}

func NewJWKSVerifier(keys KeySetSource, jwksURL, issuer string) *JWKSVerifier {
	return &JWKSVerifier{keys: keys, jwksURL: jwksURL, issuer: issuer}
}

func (v *JWKSVerifier) Verify(ctx context.Context, accessToken string) (*Identity, error) {
	set, err := v.keys.Lookup(ctx, v.jwksURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch JWKS: %w", err)
	}

	opts := []jwt.ParseOption{jwt.WithKeySet(set), jwt.WithValidate(true)}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	token, err := jwt.Parse([]byte(accessToken), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse JWT: %w", err)
	}

	userID, ok := token.Subject()
	if !ok || userID == "" {
		return nil, errors.New("no user ID in JWT subject claim")
	}

	identity := &Identity{UserID: userID}

	// Cognito access tokens usually omit profile claims; id tokens carry them.
	_ = token.Get("email", &identity.Email)
	_ = token.Get("given_name", &identity.GivenName)
	_ = token.Get("family_name", &identity.FamilyName)

	return identity, nil
}
