// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package push implements the push-notification delivery path: callback
// URL verification, JWT payload signing with JWKS discovery, asynchronous
// delivery and receiver-side validation.
package push

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// URLVerifier checks ownership and safety of a callback URL before any
// notification is sent to it. This is a security check, not best-effort:
// an unverified URL must never receive notifications.
type URLVerifier struct {
	client       *http.Client
	logger       *slog.Logger
	lookup       func(ctx context.Context, host string) ([]net.IPAddr, error)
	timeout      time.Duration
	allowPrivate bool
}

// URLVerifierConfig holds configuration for URLVerifier.
type URLVerifierConfig struct {
	Client  *http.Client
	Logger  *slog.Logger
	Timeout time.Duration

	// Lookup resolves a host name for the private-target check. Defaults
	// to the system resolver.
	Lookup func(ctx context.Context, host string) ([]net.IPAddr, error)

	// AllowPrivate permits loopback and private network targets. Intended
	// for local development only.
	AllowPrivate bool
}

// NewURLVerifier creates a URL verifier.
func NewURLVerifier(config URLVerifierConfig) *URLVerifier {
	client := config.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	lookup := config.Lookup
	if lookup == nil {
		lookup = net.DefaultResolver.LookupIPAddr
	}

	return &URLVerifier{
		client:       client,
		logger:       logger,
		lookup:       lookup,
		timeout:      timeout,
		allowPrivate: config.AllowPrivate,
	}
}

// VerifyURL checks that the callback URL is structurally sound, does not
// point at a loopback or private network target, and is owned by the
// registrant: the endpoint must echo a random validation token sent as a
// query parameter.
func (v *URLVerifier) VerifyURL(ctx context.Context, rawURL string) error {
	target, err := v.checkStructure(ctx, rawURL)
	if err != nil {
		return err
	}
	return v.checkOwnership(ctx, target)
}

// checkStructure validates the URL shape and rejects private targets.
func (v *URLVerifier) checkStructure(ctx context.Context, rawURL string) (*url.URL, error) {
	target, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return nil, fmt.Errorf("malformed push notification URL: %w", err)
	}
	if target.Scheme != "http" && target.Scheme != "https" {
		return nil, fmt.Errorf("unsupported push notification URL scheme: %s", target.Scheme)
	}

	host := target.Hostname()
	if host == "" {
		return nil, fmt.Errorf("push notification URL has no host")
	}
	if v.allowPrivate {
		return target, nil
	}
	if strings.EqualFold(host, "localhost") {
		return nil, fmt.Errorf("push notification URL targets loopback: %s", host)
	}

	if ip := net.ParseIP(host); ip != nil {
		if err := checkIP(ip); err != nil {
			return nil, err
		}
		return target, nil
	}

	lookupCtx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	addrs, err := v.lookup(lookupCtx, host)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve push notification host %s: %w", host, err)
	}
	for _, addr := range addrs {
		if err := checkIP(addr.IP); err != nil {
			return nil, err
		}
	}

	return target, nil
}

// checkOwnership performs the challenge-echo round trip: a GET with a
// fresh validation token whose body must echo the token back.
func (v *URLVerifier) checkOwnership(ctx context.Context, target *url.URL) error {
	token := uuid.NewString()

	challenge := *target
	query := challenge.Query()
	query.Set("validationToken", token)
	challenge.RawQuery = query.Encode()

	reqCtx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, challenge.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to create verification request: %w", err)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return fmt.Errorf("push notification URL verification request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("push notification URL verification returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return fmt.Errorf("failed to read verification response: %w", err)
	}

	if strings.TrimSpace(string(body)) != token {
		return fmt.Errorf("push notification URL did not echo validation token")
	}

	v.logger.Info("verified push notification URL", "url", target.String())
	return nil
}

// checkIP rejects loopback, private, link-local and unspecified targets.
func checkIP(ip net.IP) error {
	switch {
	case ip.IsLoopback():
		return fmt.Errorf("push notification URL targets loopback address: %s", ip)
	case ip.IsPrivate():
		return fmt.Errorf("push notification URL targets private address: %s", ip)
	case ip.IsLinkLocalUnicast(), ip.IsLinkLocalMulticast():
		return fmt.Errorf("push notification URL targets link-local address: %s", ip)
	case ip.IsUnspecified():
		return fmt.Errorf("push notification URL targets unspecified address: %s", ip)
	default:
		return nil
	}
}
