// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package push

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/bytedance/sonic"

	conductor "github.com/go-a2a/conductor"
)

// PayloadDigest returns the hex-encoded SHA-256 digest of a notification
// payload, as carried in the request_body_sha256 claim.
func PayloadDigest(payload []byte) string {
	digest := sha256.Sum256(payload)
	return hex.EncodeToString(digest[:])
}

// Sender delivers signed task snapshots to registered callback URLs.
//
// Delivery is fire-and-forget: Send spawns a detached goroutine with its
// own timeout, and a failed delivery is logged, never surfaced to the
// task pipeline.
type Sender struct {
	keys    *KeyManager
	client  *http.Client
	timeout time.Duration
	logger  *slog.Logger
}

// SenderConfig holds configuration for Sender.
type SenderConfig struct {
	Keys    *KeyManager
	Client  *http.Client
	Timeout time.Duration
	Logger  *slog.Logger
}

// NewSender creates a push notification sender.
func NewSender(config SenderConfig) (*Sender, error) {
	if config.Keys == nil {
		return nil, fmt.Errorf("key manager cannot be nil")
	}

	client := config.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Sender{
		keys:    config.Keys,
		client:  client,
		timeout: timeout,
		logger:  logger,
	}, nil
}

// Send delivers a task snapshot to the configured callback URL
// asynchronously. It returns immediately; the delivery outcome is only
// observable in logs.
func (s *Sender) Send(config *conductor.PushNotificationConfig, task *conductor.Task) {
	if config == nil || task == nil {
		return
	}

	go func() {
		// Detached from the request context on purpose: the caller's
		// request may complete long before delivery does.
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		if err := s.deliver(ctx, config, task); err != nil {
			s.logger.Error("push notification delivery failed",
				"task_id", task.ID,
				"url", config.URL,
				"error", err)
			return
		}
		s.logger.Info("push notification sent",
			"task_id", task.ID,
			"url", config.URL,
			"state", task.Status.State)
	}()
}

// deliver performs one synchronous delivery attempt.
func (s *Sender) deliver(ctx context.Context, config *conductor.PushNotificationConfig, task *conductor.Task) error {
	payload, err := sonic.ConfigDefault.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task snapshot: %w", err)
	}

	token, err := s.keys.SignPayload(payload)
	if err != nil {
		return fmt.Errorf("failed to sign payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, config.URL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	if config.Token != "" {
		req.Header.Set("X-A2A-Notification-Token", config.Token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("notification endpoint returned HTTP %d: %s", resp.StatusCode, string(body))
	}

	return nil
}
