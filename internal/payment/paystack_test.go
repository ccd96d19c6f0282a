package payment

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	dErrors "verigate/pkg/domain-errors"
)

func TestPaystackInitializeRequestShape(t *testing.T) {
	var (
		gotAuth string
		gotBody map[string]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/transaction/initialize" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		raw, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(raw, &gotBody); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		w.Write([]byte(`{"status":true,"data":{"authorization_url":"https://checkout.paystack.com/x"}}`))
	}))
	defer srv.Close()

	client := NewPaystackClient(srv.URL, "sk_test_secret", "https://app.example.com", slog.New(slog.DiscardHandler))
	raw, err := client.Initialize(context.Background(), InitializeRequest{
		Email:    "payer@example.com",
		Amount:   2500,
		Currency: "NGN",
	})
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if len(raw) == 0 {
		t.Fatal("expected raw response body")
	}
	if gotAuth != "Bearer sk_test_secret" {
		t.Fatalf("expected secret key bearer, got %q", gotAuth)
	}
	if gotBody["callback_url"] != "https://app.example.com/payment/callback" {
		t.Fatalf("unexpected callback_url %v", gotBody["callback_url"])
	}
	if gotBody["amount"] != float64(2500) {
		t.Fatalf("unexpected amount %v", gotBody["amount"])
	}
}

func TestPaystackVerifyByReference(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transaction/verify/ref-42" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"status":true,"data":{"status":"success"}}`))
	}))
	defer srv.Close()

	client := NewPaystackClient(srv.URL, "sk_test_secret", "", slog.New(slog.DiscardHandler))
	raw, err := client.Verify(context.Background(), "ref-42")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !verificationSucceeded(raw) {
		t.Fatalf("expected successful verification envelope, got %s", raw)
	}
}

func TestPaystackVerifyEmptyReference(t *testing.T) {
	client := NewPaystackClient("http://paystack.invalid", "sk", "", slog.New(slog.DiscardHandler))
	_, err := client.Verify(context.Background(), "")
	if !dErrors.HasCode(err, dErrors.CodeBadRequest) {
		t.Fatalf("expected bad request, got %v", err)
	}
}

func TestPaystackServerErrorIsUpstream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewPaystackClient(srv.URL, "sk", "", slog.New(slog.DiscardHandler))
	_, err := client.Verify(context.Background(), "ref-1")
	if !dErrors.HasCode(err, dErrors.CodeUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestPaystackNetworkErrorIsUpstream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := NewPaystackClient(srv.URL, "sk", "", slog.New(slog.DiscardHandler))
	_, err := client.Verify(context.Background(), "ref-1")
	if !dErrors.HasCode(err, dErrors.CodeUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestPaystackClientErrorStatusPassesBodyThrough(t *testing.T) {
	// 4xx bodies carry Paystack's own error envelope and are returned as-is.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"status":false,"message":"Invalid key"}`))
	}))
	defer srv.Close()

	client := NewPaystackClient(srv.URL, "sk", "", slog.New(slog.DiscardHandler))
	raw, err := client.Verify(context.Background(), "ref-1")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	var envelope struct {
		Status  bool   `json:"status"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Status || envelope.Message != "Invalid key" {
		t.Fatalf("unexpected envelope %+v", envelope)
	}
}
