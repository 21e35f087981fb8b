// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package push

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	conductor "github.com/go-a2a/conductor"
)

func TestURLVerifier_RejectsUnsafeTargets(t *testing.T) {
	t.Parallel()

	verifier := NewURLVerifier(URLVerifierConfig{
		Lookup: func(ctx context.Context, host string) ([]net.IPAddr, error) {
			return []net.IPAddr{{IP: net.ParseIP("203.0.113.10")}}, nil
		},
	})

	tests := map[string]struct {
		url string
	}{
		"malformed URL":      {url: "not a url"},
		"missing scheme":     {url: "example.com/notify"},
		"unsupported scheme": {url: "ftp://example.com/notify"},
		"localhost host":     {url: "http://localhost:9999/notify"},
		"loopback IP":        {url: "http://127.0.0.1/notify"},
		"private IP":         {url: "http://10.0.0.8/notify"},
		"link-local IP":      {url: "http://169.254.1.1/notify"},
		"unspecified IP":     {url: "http://0.0.0.0/notify"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := verifier.checkStructure(context.Background(), tt.url); err == nil {
				t.Errorf("checkStructure(%q) succeeded, want error", tt.url)
			}
		})
	}
}

func TestURLVerifier_ResolvedPrivateHostRejected(t *testing.T) {
	t.Parallel()

	verifier := NewURLVerifier(URLVerifierConfig{
		Lookup: func(ctx context.Context, host string) ([]net.IPAddr, error) {
			return []net.IPAddr{{IP: net.ParseIP("192.168.1.5")}}, nil
		},
	})

	if _, err := verifier.checkStructure(context.Background(), "https://internal.example.com/notify"); err == nil {
		t.Error("checkStructure() for host resolving to private IP succeeded, want error")
	}
}

func TestURLVerifier_ChallengeEcho(t *testing.T) {
	t.Parallel()

	t.Run("endpoint echoes token", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, r.URL.Query().Get("validationToken"))
		}))
		defer srv.Close()

		verifier := NewURLVerifier(URLVerifierConfig{AllowPrivate: true})
		if err := verifier.VerifyURL(context.Background(), srv.URL+"/notify"); err != nil {
			t.Errorf("VerifyURL() error = %v", err)
		}
	})

	t.Run("endpoint echoes wrong token", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, "something else")
		}))
		defer srv.Close()

		verifier := NewURLVerifier(URLVerifierConfig{AllowPrivate: true})
		if err := verifier.VerifyURL(context.Background(), srv.URL+"/notify"); err == nil {
			t.Error("VerifyURL() with wrong echo succeeded, want error")
		}
	})

	t.Run("endpoint returns error status", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", http.StatusForbidden)
		}))
		defer srv.Close()

		verifier := NewURLVerifier(URLVerifierConfig{AllowPrivate: true})
		if err := verifier.VerifyURL(context.Background(), srv.URL+"/notify"); err == nil {
			t.Error("VerifyURL() with error status succeeded, want error")
		}
	})
}

func TestKeyManager_SignAndJWKS(t *testing.T) {
	t.Parallel()

	keys := NewKeyManager()

	if _, err := keys.SignPayload([]byte(`{}`)); err == nil {
		t.Error("SignPayload() before Generate succeeded, want error")
	}

	if err := keys.Generate("key-1"); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	jwks := keys.JWKS()
	if len(jwks.Keys) != 1 {
		t.Fatalf("JWKS key count = %d, want 1", len(jwks.Keys))
	}
	key := jwks.Keys[0]
	if key.KID != "key-1" || key.KTY != "EC" || key.ALG != "ES256" || key.CRV != "P-256" {
		t.Errorf("unexpected JWK: %+v", key)
	}
	if key.X == "" || key.Y == "" {
		t.Error("JWK is missing public coordinates")
	}

	token, err := keys.SignPayload([]byte(`{"id":"task-1"}`))
	if err != nil {
		t.Fatalf("SignPayload() error = %v", err)
	}
	if strings.Count(token, ".") != 2 {
		t.Errorf("signed token is not a compact JWT: %q", token)
	}
}

func TestSender_EndToEnd(t *testing.T) {
	t.Parallel()

	keys := NewKeyManager()
	if err := keys.Generate("key-1"); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	// JWKS discovery endpoint, as mounted at /.well-known/jwks.json.
	jwksSrv := httptest.NewServer(keys.JWKSHandler())
	defer jwksSrv.Close()

	verifier := NewReceiverVerifier(jwksSrv.URL)

	received := make(chan error, 1)
	callbackSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			received <- err
			return
		}
		received <- verifier.Verify(r.Context(), r, body)
	}))
	defer callbackSrv.Close()

	sender, err := NewSender(SenderConfig{Keys: keys})
	if err != nil {
		t.Fatalf("NewSender() error = %v", err)
	}

	task := &conductor.Task{
		ID:     "task-1",
		Status: conductor.TaskStatus{State: conductor.TaskStateCompleted},
	}
	sender.Send(&conductor.PushNotificationConfig{URL: callbackSrv.URL, Token: "session-token"}, task)

	select {
	case err := <-received:
		if err != nil {
			t.Errorf("receiver verification failed: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("notification was never delivered")
	}
}

func TestSender_DeliveryFailureIsSilent(t *testing.T) {
	t.Parallel()

	keys := NewKeyManager()
	if err := keys.Generate("key-1"); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	sender, err := NewSender(SenderConfig{
		Keys:    keys,
		Timeout: 100 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewSender() error = %v", err)
	}

	task := &conductor.Task{
		ID:     "task-1",
		Status: conductor.TaskStatus{State: conductor.TaskStateCompleted},
	}

	// An unreachable callback must not panic or surface an error; the
	// failure is only logged.
	sender.Send(&conductor.PushNotificationConfig{URL: "http://192.0.2.1:1/notify"}, task)
	sender.Send(nil, task)
	sender.Send(&conductor.PushNotificationConfig{URL: "http://192.0.2.1:1/notify"}, nil)

	time.Sleep(200 * time.Millisecond)
}

func TestReceiverVerifier_RejectsTamperedBody(t *testing.T) {
	t.Parallel()

	keys := NewKeyManager()
	if err := keys.Generate("key-1"); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	jwksSrv := httptest.NewServer(keys.JWKSHandler())
	defer jwksSrv.Close()

	verifier := NewReceiverVerifier(jwksSrv.URL)

	payload := []byte(`{"id":"task-1"}`)
	token, err := keys.SignPayload(payload)
	if err != nil {
		t.Fatalf("SignPayload() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/notify", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	if err := verifier.Verify(context.Background(), req, payload); err != nil {
		t.Errorf("Verify() of untampered body error = %v", err)
	}
	if err := verifier.Verify(context.Background(), req, []byte(`{"id":"task-2"}`)); err == nil {
		t.Error("Verify() of tampered body succeeded, want error")
	}

	req.Header.Set("Authorization", "token-without-bearer")
	if err := verifier.Verify(context.Background(), req, payload); err == nil {
		t.Error("Verify() with malformed Authorization header succeeded, want error")
	}

	req.Header.Del("Authorization")
	if err := verifier.Verify(context.Background(), req, payload); err == nil {
		t.Error("Verify() without Authorization header succeeded, want error")
	}
}
