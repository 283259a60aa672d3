package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
)

// OIDCVerifier validates ID tokens from the campus identity provider.
type OIDCVerifier struct {
	verifier *oidc.IDTokenVerifier
}

func NewOIDCVerifier(ctx context.Context, issuer string) (*OIDCVerifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to create OIDC provider: %w", err)
	}
	return &OIDCVerifier{
		verifier: provider.Verifier(&oidc.Config{SkipClientIDCheck: true}),
	}, nil
}

func (v *OIDCVerifier) Verify(ctx context.Context, rawToken string) (User, time.Time, error) {
	idToken, err := v.verifier.Verify(ctx, rawToken)
	if err != nil {
		return User{}, time.Time{}, fmt.Errorf("invalid token: %w", err)
	}

	var claims struct {
		Sub               string `json:"sub"`
		Name              string `json:"name"`
		PreferredUsername string `json:"preferred_username"`
		Role              Role   `json:"role"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return User{}, time.Time{}, fmt.Errorf("failed to parse claims: %w", err)
	}

	name := claims.Name
	if name == "" {
		name = claims.PreferredUsername
	}
	return User{ID: claims.Sub, Name: name, Role: claims.Role}, idToken.Expiry, nil
}
