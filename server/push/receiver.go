// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package push

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"
)

// maxTokenAge bounds how old a notification token's iat may be.
const maxTokenAge = 5 * time.Minute

// ReceiverVerifier validates incoming push notifications on the receiving
// side: it fetches the sender's JWKS from the discovery endpoint and
// checks the signature, freshness and body binding of each notification.
type ReceiverVerifier struct {
	client *http.Client

	mu        sync.RWMutex
	jwksURL   string
	keySet    jwk.Set
	fetchedAt time.Time
	cacheTTL  time.Duration
}

// NewReceiverVerifier creates a verifier that loads keys from the given
// JWKS discovery URL.
func NewReceiverVerifier(jwksURL string) *ReceiverVerifier {
	return &ReceiverVerifier{
		client:   &http.Client{Timeout: 10 * time.Second},
		jwksURL:  jwksURL,
		cacheTTL: time.Hour,
	}
}

// LoadKeys fetches and caches the sender's JWKS.
func (v *ReceiverVerifier) LoadKeys(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.keySet != nil && time.Since(v.fetchedAt) < v.cacheTTL {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.jwksURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create JWKS request: %w", err)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch JWKS: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("JWKS endpoint returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read JWKS response: %w", err)
	}

	keySet, err := jwk.Parse(body)
	if err != nil {
		return fmt.Errorf("failed to parse JWKS: %w", err)
	}

	v.keySet = keySet
	v.fetchedAt = time.Now()
	return nil
}

// Verify validates the Authorization header of an incoming notification
// request against the cached key set and the raw request body.
func (v *ReceiverVerifier) Verify(ctx context.Context, r *http.Request, body []byte) error {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return fmt.Errorf("missing Authorization header")
	}
	tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
	if !ok {
		return fmt.Errorf("invalid Authorization header format")
	}

	if err := v.LoadKeys(ctx); err != nil {
		return err
	}

	v.mu.RLock()
	keySet := v.keySet
	v.mu.RUnlock()

	token, err := jwt.Parse([]byte(tokenString), jwt.WithKeySet(keySet), jwt.WithValidate(true))
	if err != nil {
		return fmt.Errorf("failed to verify notification signature: %w", err)
	}

	issuedAt, ok := token.IssuedAt()
	if !ok {
		return fmt.Errorf("notification token has no iat claim")
	}
	if time.Since(issuedAt) > maxTokenAge {
		return fmt.Errorf("notification token is too old")
	}

	var claimedDigest string
	if err := token.Get("request_body_sha256", &claimedDigest); err != nil {
		return fmt.Errorf("notification token has no request_body_sha256 claim: %w", err)
	}
	if claimedDigest != PayloadDigest(body) {
		return fmt.Errorf("notification body digest mismatch")
	}

	return nil
}
