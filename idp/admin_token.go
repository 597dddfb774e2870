// idp/admin_token.go
package idp

import (
	"context"
	"sync"
	"time"
)

// adminTokenExpiryMargin keeps us from handing out a credential that
// would expire mid-flight.
const adminTokenExpiryMargin = 30 * time.Second

// AdminTokenCache owns the shared service-to-service credential. The
// token is refreshed lazily once it is within the expiry margin and
// reused by all concurrent callers. Two callers may race into a refresh;
// the duplicate fetch wastes one provider call and the last write wins,
// which is harmless because both tokens are valid.
type AdminTokenCache struct {
	mu        sync.Mutex
	token     string
	expiresAt time.Time

	fetch func(ctx context.Context) (token string, expiresIn time.Duration, err error)
}

func NewAdminTokenCache(fetch func(ctx context.Context) (string, time.Duration, error)) *AdminTokenCache {
	return &AdminTokenCache{fetch: fetch}
}

// Token returns the cached credential, refreshing it when absent or
// within the expiry margin. The provider call runs outside the lock.
func (c *AdminTokenCache) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.token != "" && time.Until(c.expiresAt) > adminTokenExpiryMargin {
		token := c.token
		c.mu.Unlock()
		return token, nil
	}
	c.mu.Unlock()

	token, expiresIn, err := c.fetch(ctx)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.token = token
	c.expiresAt = time.Now().Add(expiresIn)
	c.mu.Unlock()

	return token, nil
}

// Invalidate drops the cached credential so the next Token call fetches a
// fresh one.
func (c *AdminTokenCache) Invalidate() {
	c.mu.Lock()
	c.token = ""
	c.expiresAt = time.Time{}
	c.mu.Unlock()
}
