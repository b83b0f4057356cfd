package auth

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
)

// KeySource resolves a token signing key by key id.
type KeySource interface {
	LookupKey(ctx context.Context, kid string) (interface{}, error)
}

// JWKSSource fetches the user pool key set and keeps it refreshed in the background.
// A key id missing from the cached set forces a refetch at most once per refresh interval.
type JWKSSource struct {
	cache   *jwk.Cache
	url     string
	refresh time.Duration
	now     func() time.Time

	mu         sync.Mutex
	lastForced time.Time
}

// NewJWKSSource registers url with a refreshing cache bound to ctx.
// The first fetch happens lazily on the first lookup.
func NewJWKSSource(ctx context.Context, url string, refresh time.Duration, client *http.Client) (*JWKSSource, error) {
	cache := jwk.NewCache(ctx)

	opts := []jwk.RegisterOption{jwk.WithMinRefreshInterval(refresh)}
	if client != nil {
		opts = append(opts, jwk.WithHTTPClient(client))
	}
	if err := cache.Register(url, opts...); err != nil {
		return nil, fmt.Errorf(msgJWKSRegisterFailed, err)
	}

	return &JWKSSource{cache: cache, url: url, refresh: refresh, now: time.Now}, nil
}

func (s *JWKSSource) LookupKey(ctx context.Context, kid string) (interface{}, error) {
	set, err := s.cache.Get(ctx, s.url)
	if err != nil {
		return nil, fmt.Errorf(msgKeyFetchFailed, err)
	}

	key, ok := set.LookupKeyID(kid)
	if !ok {
		// Keys may have rotated since the last refresh.
		if !s.allowForcedRefresh() {
			return nil, fmt.Errorf(msgKeyNotFoundFmt, kid)
		}
		set, err = s.cache.Refresh(ctx, s.url)
		if err != nil {
			return nil, fmt.Errorf(msgKeyFetchFailed, err)
		}
		if key, ok = set.LookupKeyID(kid); !ok {
			return nil, fmt.Errorf(msgKeyNotFoundFmt, kid)
		}
	}

	var raw interface{}
	if err := key.Raw(&raw); err != nil {
		return nil, fmt.Errorf(msgKeyRawFailed, err)
	}
	return raw, nil
}

func (s *JWKSSource) allowForcedRefresh() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if !s.lastForced.IsZero() && now.Sub(s.lastForced) < s.refresh {
		return false
	}
	s.lastForced = now
	return true
}
