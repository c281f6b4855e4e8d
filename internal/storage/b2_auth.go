package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"tesatiki/internal/config"
)

// B2Auth is the authorization context returned by b2_authorize_account.
type B2Auth struct {
	AccountID          string `json:"accountId"`
	AuthorizationToken string `json:"authorizationToken"`
	APIURL             string `json:"apiUrl"`
	DownloadURL        string `json:"downloadUrl"`
}

// AuthProvider caches one B2 authorization context for the whole process
// and refreshes it once it is older than maxAge.
type AuthProvider struct {
	authURL string
	keyID   string
	appKey  string
	maxAge  time.Duration
	http    *http.Client
	now     func() time.Time

	mu        sync.RWMutex
	current   *B2Auth
	fetchedAt time.Time

	group singleflight.Group
}

func NewAuthProvider(cfg config.B2, client *http.Client) *AuthProvider {
	maxAge := cfg.AuthMaxAge
	if maxAge <= 0 {
		maxAge = 23 * time.Hour
	}
	return &AuthProvider{
		authURL: cfg.AuthURL,
		keyID:   cfg.KeyID,
		appKey:  cfg.AppKey,
		maxAge:  maxAge,
		http:    client,
		now:     time.Now,
	}
}

func (p *AuthProvider) cached() (*B2Auth, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.current == nil || p.now().Sub(p.fetchedAt) >= p.maxAge {
		return nil, false
	}
	return p.current, true
}

// Get returns the cached context or authorizes again. Concurrent refreshes
// share one request.
func (p *AuthProvider) Get(ctx context.Context) (*B2Auth, error) {
	if auth, ok := p.cached(); ok {
		return auth, nil
	}

	v, err, _ := p.group.Do("authorize", func() (interface{}, error) {
		if auth, ok := p.cached(); ok {
			return auth, nil
		}

		auth, err := p.authorize(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}

		p.mu.Lock()
		p.current = auth
		p.fetchedAt = p.now()
		p.mu.Unlock()

		return auth, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthUnavailable, err)
	}
	return v.(*B2Auth), nil
}

// Invalidate drops the cached context so the next Get re-authorizes.
func (p *AuthProvider) Invalidate() {
	p.mu.Lock()
	p.current = nil
	p.mu.Unlock()
}

func (p *AuthProvider) authorize(ctx context.Context) (*B2Auth, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.authURL+"/b2api/v2/b2_authorize_account", nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(p.keyID, p.appKey)

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, &StatusError{Status: resp.StatusCode, Body: string(body)}
	}

	var auth B2Auth
	if err := json.NewDecoder(resp.Body).Decode(&auth); err != nil {
		return nil, fmt.Errorf("failed to decode authorization: %w", err)
	}
	if auth.AuthorizationToken == "" || auth.APIURL == "" {
		return nil, fmt.Errorf("authorization response is incomplete")
	}
	return &auth, nil
}
