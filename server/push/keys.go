// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package push

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-json-experiment/json"
	"github.com/golang-jwt/jwt/v5"
)

// JSONWebKey represents a public JSON Web Key.
type JSONWebKey struct {
	KID string `json:"kid"`
	KTY string `json:"kty"`
	ALG string `json:"alg"`
	USE string `json:"use"`
	CRV string `json:"crv,omitzero"`
	X   string `json:"x,omitzero"`
	Y   string `json:"y,omitzero"`
}

// JSONWebKeySet represents the set of public keys served at the discovery
// endpoint.
type JSONWebKeySet struct {
	Keys []JSONWebKey `json:"keys"`
}

// KeyManager holds the signing key material for outgoing push
// notifications. One KeyManager is created per process at startup; its
// public half is exposed at a well-known discovery path so receivers can
// validate payload signatures.
type KeyManager struct {
	mu        sync.RWMutex
	keyPairs  map[string]*ecdsa.PrivateKey
	jwks      JSONWebKeySet
	activeKID string
}

// NewKeyManager creates an empty key manager. Call Generate before
// signing.
func NewKeyManager() *KeyManager {
	return &KeyManager{
		keyPairs: make(map[string]*ecdsa.PrivateKey),
	}
}

// Generate creates a new ECDSA P-256 key pair, registers its public JWK
// and makes it the active signing key.
func (m *KeyManager) Generate(kid string) error {
	if kid == "" {
		return fmt.Errorf("key ID cannot be empty")
	}

	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return fmt.Errorf("failed to generate signing key: %w", err)
	}

	// EC coordinates are fixed-width in JWK form, so pad to the field size.
	byteLen := (privateKey.Curve.Params().BitSize + 7) / 8
	x := make([]byte, byteLen)
	y := make([]byte, byteLen)
	privateKey.X.FillBytes(x)
	privateKey.Y.FillBytes(y)

	jwk := JSONWebKey{
		KID: kid,
		KTY: "EC",
		ALG: "ES256",
		USE: "sig",
		CRV: "P-256",
		X:   base64.RawURLEncoding.EncodeToString(x),
		Y:   base64.RawURLEncoding.EncodeToString(y),
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.keyPairs[kid] = privateKey
	m.jwks.Keys = append(m.jwks.Keys, jwk)
	m.activeKID = kid
	return nil
}

// JWKS returns the public key set.
func (m *KeyManager) JWKS() JSONWebKeySet {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := JSONWebKeySet{Keys: make([]JSONWebKey, len(m.jwks.Keys))}
	copy(out.Keys, m.jwks.Keys)
	return out
}

// Sign signs the claims with the active key using ES256. The key ID is
// carried in the token header so receivers can select the matching JWK.
func (m *KeyManager) Sign(claims jwt.Claims) (string, error) {
	m.mu.RLock()
	kid := m.activeKID
	key := m.keyPairs[kid]
	m.mu.RUnlock()

	if key == nil {
		return "", fmt.Errorf("no signing key generated")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	token.Header["kid"] = kid

	return token.SignedString(key)
}

// SignPayload signs a notification payload, binding the token to the
// request body with a request_body_sha256 claim and an iat timestamp.
func (m *KeyManager) SignPayload(payload []byte) (string, error) {
	return m.Sign(jwt.MapClaims{
		"iat":                 time.Now().Unix(),
		"request_body_sha256": PayloadDigest(payload),
	})
}

// JWKSHandler returns an HTTP handler serving the public key set in
// standard `{"keys": [...]}` shape, for mounting at /.well-known/jwks.json.
func (m *KeyManager) JWKSHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.MarshalWrite(w, m.JWKS()); err != nil {
			http.Error(w, "failed to encode JWKS", http.StatusInternalServerError)
		}
	}
}
