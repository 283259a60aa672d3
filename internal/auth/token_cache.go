package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"cafe-pos/internal/cache"
)

const (
	tokenCachePrefix = "auth_token_"
	// TokenExpiryBuffer keeps a cached verification from outliving its token.
	TokenExpiryBuffer = 30 * time.Second
	maxTokenCacheTTL  = 5 * time.Minute
)

// CachingVerifier remembers successful verifications so OIDC tokens are not re-verified
// on every SSE reconnect. Tokens are stored by hash, never in clear.
type CachingVerifier struct {
	next  Verifier
	store cache.Store
	now   func() time.Time
}

func NewCachingVerifier(next Verifier, store cache.Store) *CachingVerifier {
	return &CachingVerifier{next: next, store: store, now: time.Now}
}

type cachedUser struct {
	User      User      `json:"user"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (v *CachingVerifier) Verify(ctx context.Context, rawToken string) (User, time.Time, error) {
	sum := sha256.Sum256([]byte(rawToken))
	key := tokenCachePrefix + hex.EncodeToString(sum[:])

	if raw, ok, err := v.store.Get(ctx, key); err == nil && ok {
		var cu cachedUser
		if json.Unmarshal(raw, &cu) == nil && v.now().Add(TokenExpiryBuffer).Before(cu.ExpiresAt) {
			return cu.User, cu.ExpiresAt, nil
		}
	}

	user, expires, err := v.next.Verify(ctx, rawToken)
	if err != nil {
		return User{}, time.Time{}, err
	}

	ttl := maxTokenCacheTTL
	if !expires.IsZero() {
		if remaining := expires.Sub(v.now()) - TokenExpiryBuffer; remaining < ttl {
			ttl = remaining
		}
	}
	if ttl > 0 {
		if raw, err := json.Marshal(cachedUser{User: user, ExpiresAt: expires}); err == nil {
			_ = v.store.Set(ctx, key, raw, ttl)
		}
	}
	return user, expires, nil
}
