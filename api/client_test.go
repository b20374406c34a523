package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server, NewClient(server.URL)
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("encode response: %v", err)
	}
}

func strPtr(s string) *string { return &s }

func TestNewClientDefaults(t *testing.T) {
	client := NewClient("https://api.example.test")
	if client.httpClient.Timeout != DefaultTimeout {
		t.Fatalf("expected timeout %v, got %v", DefaultTimeout, client.httpClient.Timeout)
	}
	if client.BaseURL() != "https://api.example.test/" {
		t.Fatalf("unexpected base url %q", client.BaseURL())
	}
}

func TestNewClientWithOptions(t *testing.T) {
	custom := &http.Client{}
	client := NewClient("https://api.example.test",
		WithHTTPClient(custom),
		WithTimeout(5*time.Second),
		WithUserAgent("tests/1"),
	)
	if client.httpClient != custom {
		t.Fatal("expected custom HTTP client")
	}
	if custom.Timeout != 5*time.Second {
		t.Fatalf("expected 5s timeout, got %v", custom.Timeout)
	}
	if client.userAgent != "tests/1" {
		t.Fatalf("unexpected user agent %q", client.userAgent)
	}
}

func TestRequestOTPSendsJSON(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/v1/auth-module/otp/request" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type %q", ct)
		}
		if _, err := uuid.Parse(r.Header.Get("X-Request-ID")); err != nil {
			t.Errorf("expected uuid request id, got %q", r.Header.Get("X-Request-ID"))
		}
		var req RequestOTPRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if req.Email != "a@b.com" || req.Purpose != "LOGIN" {
			t.Errorf("unexpected body %+v", req)
		}
		writeJSON(t, w, http.StatusOK, map[string]any{"success": true, "message": "sent", "code": "OTP_SENT"})
	})

	env, err := client.RequestOTP(context.Background(), "a@b.com", "LOGIN")
	if err != nil {
		t.Fatalf("RequestOTP failed: %v", err)
	}
	if !env.Success || env.Message != "sent" || env.Code != "OTP_SENT" {
		t.Fatalf("unexpected envelope %+v", env)
	}
}

func TestVerifyLoginOTPDecodesUser(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req VerifyMFARequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Purpose != "LOGIN" {
			t.Errorf("expected LOGIN purpose, got %q", req.Purpose)
		}
		writeJSON(t, w, http.StatusOK, Envelope[UserResponseDTO]{
			Success: true,
			Message: "ok",
			Data: &UserResponseDTO{
				UUID:        "u-1",
				Email:       "a@b.com",
				FirstName:   strPtr("Ada"),
				RoleName:    "INDIVIDUAL",
				Status:      "ACTIVE",
				AccessToken: strPtr("tok"),
				Account:     &AccountDTO{UUID: "acc-1", Type: "INDIVIDUAL", AccountCode: "AC1"},
			},
		})
	})

	env, err := client.VerifyLoginOTP(context.Background(), "a@b.com", "123456")
	if err != nil {
		t.Fatalf("VerifyLoginOTP failed: %v", err)
	}
	if env.Data == nil || env.Data.UUID != "u-1" || env.Data.Account == nil || env.Data.Account.UUID != "acc-1" {
		t.Fatalf("unexpected payload %+v", env.Data)
	}
	if env.Data.Organization != nil {
		t.Fatal("expected no organization object")
	}
}

func TestRejectedEnvelopeOnErrorStatusIsNotAnError(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusUnauthorized, map[string]any{
			"success": false,
			"message": "Invalid credentials",
			"code":    "AUTH_401",
			"error":   map[string]any{"status": 401},
		})
	})

	env, err := client.Login(context.Background(), "a@b.com", "bad")
	if err != nil {
		t.Fatalf("expected envelope, got error %v", err)
	}
	if env.Success || env.FailureMessage() != "Invalid credentials" || env.Error.Status != 401 {
		t.Fatalf("unexpected envelope %+v", env)
	}
}

func TestNonEnvelopeErrorStatusReturnsHTTPError(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	})

	_, err := client.Login(context.Background(), "a@b.com", "pw")
	httpErr, ok := IsHTTPError(err)
	if !ok {
		t.Fatalf("expected HTTPError, got %v", err)
	}
	if httpErr.StatusCode != http.StatusBadGateway || httpErr.Message != "upstream down" {
		t.Fatalf("unexpected HTTPError %+v", httpErr)
	}
}

func TestMalformedBodyReturnsDecodeError(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("{not json"))
	})

	_, err := client.RequestOTP(context.Background(), "a@b.com", "LOGIN")
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
}

func TestMissingSuccessFlagReturnsDecodeError(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{"message": "hello"})
	})

	_, err := client.RequestOTP(context.Background(), "a@b.com", "LOGIN")
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
}

func TestTransportErrorPropagates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	client := NewClient(server.URL)
	server.Close()

	if _, err := client.RequestOTP(context.Background(), "a@b.com", "LOGIN"); err == nil {
		t.Fatal("expected transport error")
	}
}

func TestContextCancellationStopsRequest(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.SignupIndividual(ctx, SignupIndividualRequest{Email: "a@b.com"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestStaticHeadersAreSent(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Accept-Language"); got != "sw" {
			t.Errorf("expected Accept-Language sw, got %q", got)
		}
		writeJSON(t, w, http.StatusOK, map[string]any{"success": true})
	})
	client.headers["Accept-Language"] = "sw"

	if _, err := client.RequestOTP(context.Background(), "a@b.com", "SIGNUP"); err != nil {
		t.Fatalf("RequestOTP failed: %v", err)
	}
}

func TestRequestIDFromContextIsSent(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Request-ID"); got != "corr-1" {
			t.Errorf("expected correlation id corr-1, got %q", got)
		}
		writeJSON(t, w, http.StatusOK, map[string]any{"success": true})
	})

	ctx := WithRequestID(context.Background(), "corr-1")
	if _, err := client.Login(ctx, "a@b.com", "pw"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
}
