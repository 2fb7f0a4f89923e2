package jwtx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

var ErrNoKey = errors.New("jwtx: key not found")

// KeySet holds the auth service's public verification keys by kid. It is
// safe for concurrent use.
type KeySet struct {
	mu  sync.RWMutex
	pub map[string]any
}

func NewKeySet() *KeySet {
	return &KeySet{pub: make(map[string]any)}
}

// AddJWK parses and registers a single key.
func (k *KeySet) AddJWK(j JWK) error {
	key, err := j.PublicKey()
	if err != nil {
		return err
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	k.pub[j.Kid] = key
	return nil
}

func (k *KeySet) Get(kid string) (any, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if pk, ok := k.pub[kid]; ok {
		return pk, nil
	}
	return nil, ErrNoKey
}

// IsReady reports whether at least one key is loaded.
func (k *KeySet) IsReady() bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.pub) > 0
}

// ResetFromJWKS atomically replaces every key. A key that fails to parse
// leaves the current set untouched.
func (k *KeySet) ResetFromJWKS(jwks JWKS) error {
	next := make(map[string]any, len(jwks.Keys))
	for _, j := range jwks.Keys {
		key, err := j.PublicKey()
		if err != nil {
			return fmt.Errorf("jwtx: kid %q: %w", j.Kid, err)
		}
		next[j.Kid] = key
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	k.pub = next
	return nil
}

// FetchJWKS downloads a key set from url.
func FetchJWKS(ctx context.Context, client *http.Client, url string) (JWKS, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return JWKS{}, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return JWKS{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return JWKS{}, fmt.Errorf("jwtx: fetch jwks: unexpected status %d", resp.StatusCode)
	}

	var jwks JWKS
	if err := json.NewDecoder(resp.Body).Decode(&jwks); err != nil {
		return JWKS{}, fmt.Errorf("jwtx: decode jwks: %w", err)
	}
	return jwks, nil
}

// RemoteKeySet keeps a KeySet in sync with a JWKS endpoint.
type RemoteKeySet struct {
	Keys     *KeySet
	URL      string
	Client   *http.Client
	Interval time.Duration
	Logger   *slog.Logger

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewRemoteKeySet defaults a non-positive interval to five minutes.
func NewRemoteKeySet(url string, interval time.Duration, logger *slog.Logger) *RemoteKeySet {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &RemoteKeySet{
		Keys:     NewKeySet(),
		URL:      url,
		Client:   &http.Client{Timeout: 10 * time.Second},
		Interval: interval,
		Logger:   logger,
	}
}

// Refresh fetches the key set once and swaps it in.
func (r *RemoteKeySet) Refresh(ctx context.Context) error {
	jwks, err := FetchJWKS(ctx, r.Client, r.URL)
	if err != nil {
		return err
	}
	return r.Keys.ResetFromJWKS(jwks)
}

// Start refreshes in the background until Stop is called. Failures are
// logged and the previous keys stay in place.
func (r *RemoteKeySet) Start() {
	r.stopCh = make(chan struct{})
	r.doneCh = make(chan struct{})

	go func() {
		defer close(r.doneCh)
		ticker := time.NewTicker(r.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				if err := r.Refresh(ctx); err != nil {
					r.Logger.Warn("jwks refresh failed", slog.String("url", r.URL), slog.Any("error", err))
				}
				cancel()
			case <-r.stopCh:
				return
			}
		}
	}()
}

func (r *RemoteKeySet) Stop() {
	if r.stopCh == nil {
		return
	}
	close(r.stopCh)
	<-r.doneCh
}
