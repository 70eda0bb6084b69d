package provider

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Feel-The-AGI/workstream-server/internal/domain/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestNewHTTPClientValidatesURL(t *testing.T) {
	if _, err := NewHTTPClient("://bad-url", "sk", 0, testLogger()); err == nil {
		t.Fatal("expected error for invalid url")
	}
	if _, err := NewHTTPClient("/relative", "sk", 0, testLogger()); err == nil {
		t.Fatal("expected error for relative url")
	}
}

func TestNewHTTPClientDefaultsTimeout(t *testing.T) {
	client, err := NewHTTPClient("https://api.provider.local", "sk", 0, testLogger())
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	if client.httpClient.Timeout != 10*time.Second {
		t.Fatalf("expected 10s default timeout, got %v", client.httpClient.Timeout)
	}
}

func TestOpenSendsCheckoutRequest(t *testing.T) {
	var (
		gotPath string
		gotAuth string
		gotBody map[string]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":true,"message":"Authorization URL created","data":{"authorization_url":"https://pay.provider.local/abc","access_code":"abc","reference":"WS-PAY-1"}}`))
	}))
	defer srv.Close()

	client, err := NewHTTPClient(srv.URL, "sk_test", time.Second, testLogger())
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	checkout, err := client.Open(context.Background(), model.CheckoutRequest{
		Reference: "WS-PAY-1",
		Email:     "student@example.com",
		Amount:    50000,
		Currency:  "GHS",
		PaymentID: 7,
	})
	if err != nil {
		t.Fatalf("open returned unexpected error: %v", err)
	}

	if gotPath != "/transaction/initialize" {
		t.Errorf("unexpected path %q", gotPath)
	}
	if gotAuth != "Bearer sk_test" {
		t.Errorf("unexpected authorization header %q", gotAuth)
	}
	if gotBody["reference"] != "WS-PAY-1" || gotBody["email"] != "student@example.com" {
		t.Errorf("unexpected request body %v", gotBody)
	}
	if meta, ok := gotBody["metadata"].(map[string]any); !ok || meta["payment_id"] != float64(7) {
		t.Errorf("expected payment id in metadata, got %v", gotBody["metadata"])
	}

	if checkout.AuthorizationURL != "https://pay.provider.local/abc" {
		t.Errorf("unexpected authorization url %q", checkout.AuthorizationURL)
	}
	if checkout.AccessCode != "abc" {
		t.Errorf("unexpected access code %q", checkout.AccessCode)
	}
	if checkout.ProviderReference != "WS-PAY-1" {
		t.Errorf("unexpected provider reference %q", checkout.ProviderReference)
	}
}

func TestOpenFallsBackToLocalReference(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":true,"data":{"authorization_url":"https://pay.provider.local/x","access_code":"x"}}`))
	}))
	defer srv.Close()

	client, err := NewHTTPClient(srv.URL, "sk_test", time.Second, testLogger())
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	checkout, err := client.Open(context.Background(), model.CheckoutRequest{Reference: "WS-PAY-9"})
	if err != nil {
		t.Fatalf("open returned unexpected error: %v", err)
	}
	if checkout.ProviderReference != "WS-PAY-9" {
		t.Errorf("expected fallback to local reference, got %q", checkout.ProviderReference)
	}
}

func TestOpenProviderRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":false,"message":"Invalid amount"}`))
	}))
	defer srv.Close()

	client, err := NewHTTPClient(srv.URL, "sk_test", time.Second, testLogger())
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	if _, err := client.Open(context.Background(), model.CheckoutRequest{Reference: "WS-PAY-2"}); err == nil {
		t.Fatal("expected error for rejected request")
	}
}

func TestVerifyMapsTransaction(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"status":true,"data":{"reference":"WS-PAY-3","status":"SUCCESS","amount":25000,"currency":"GHS","channel":"mobile_money","metadata":{"payment_id":11}}}`))
	}))
	defer srv.Close()

	client, err := NewHTTPClient(srv.URL, "sk_test", time.Second, testLogger())
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	tx, err := client.Verify(context.Background(), "WS-PAY-3")
	if err != nil {
		t.Fatalf("verify returned unexpected error: %v", err)
	}

	if gotPath != "/transaction/verify/WS-PAY-3" {
		t.Errorf("unexpected path %q", gotPath)
	}
	if tx.Reference != "WS-PAY-3" {
		t.Errorf("unexpected reference %q", tx.Reference)
	}
	if tx.Status != model.TransactionStatusSuccess {
		t.Errorf("expected success status, got %q", tx.Status)
	}
	if tx.Channel != "mobile_money" {
		t.Errorf("unexpected channel %q", tx.Channel)
	}
	if tx.Amount != 25000 {
		t.Errorf("unexpected amount %d", tx.Amount)
	}
}

func TestVerifyHandlesSpecialStatuses(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		header     http.Header
		wantErr    error
	}{
		{name: "not found", statusCode: http.StatusNotFound, wantErr: ErrTransactionNotFound},
		{name: "too many requests", statusCode: http.StatusTooManyRequests, header: http.Header{"Retry-After": []string{"5"}}, wantErr: TooManyRequestsError{RetryAfter: 5 * time.Second}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				for key, values := range tt.header {
					for _, v := range values {
						w.Header().Add(key, v)
					}
				}
				w.WriteHeader(tt.statusCode)
			}))
			defer srv.Close()

			client, err := NewHTTPClient(srv.URL, "sk_test", time.Second, testLogger())
			if err != nil {
				t.Fatalf("failed to create client: %v", err)
			}

			_, err = client.Verify(context.Background(), "WS-PAY-4")
			if tt.statusCode == http.StatusTooManyRequests {
				var tm TooManyRequestsError
				if !errors.As(err, &tm) {
					t.Fatalf("expected TooManyRequestsError, got %v", err)
				}
				if tm.RetryAfter != 5*time.Second {
					t.Fatalf("expected retry after 5s, got %v", tm.RetryAfter)
				}
			} else if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestVerifyLogsErrorResponses(t *testing.T) {
	called := make(chan struct{}, 1)
	handler := slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
		if a.Key == slog.LevelKey && a.Value.Any() == slog.LevelError {
			select {
			case called <- struct{}{}:
			default:
			}
		}
		return a
	}})
	logger := slog.New(handler)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client, err := NewHTTPClient(srv.URL, "sk_test", time.Second, logger)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	if _, err := client.Verify(context.Background(), "WS-PAY-5"); err == nil {
		t.Fatal("expected error from server")
	}

	select {
	case <-called:
	case <-time.After(time.Second):
		t.Fatal("expected error log to be written")
	}
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Now()
	httpTime := now.Add(2 * time.Second).UTC().Format(http.TimeFormat)

	cases := []struct {
		name   string
		header string
		want   time.Duration
	}{
		{name: "empty", header: "", want: 5 * time.Second},
		{name: "seconds", header: "7", want: 7 * time.Second},
		{name: "http date", header: httpTime, want: 2 * time.Second},
		{name: "fallback", header: "bad", want: 5 * time.Second},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := parseRetryAfter(tc.header)
			if tc.header == httpTime {
				if got <= time.Second || got > 3*time.Second {
					t.Fatalf("unexpected retry duration %v", got)
				}
			} else if got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}
