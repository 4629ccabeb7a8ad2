package payment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCreateSession(t *testing.T) {
	var gotIdempotency string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/checkout/sessions" {
			t.Errorf("path = %s, want /v1/checkout/sessions", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer sk_test" {
			t.Errorf("Authorization = %q, want Bearer sk_test", auth)
		}
		gotIdempotency = r.Header.Get("Idempotency-Key")

		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request body: %v", err)
		}
		meta, _ := body["metadata"].(map[string]any)
		if meta["transaction_id"] != "txn_1" {
			t.Errorf("metadata transaction_id = %v, want txn_1", meta["transaction_id"])
		}

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(CheckoutSession{
			ID:          "cs_123",
			RedirectURL: "https://pay.example.com/cs_123",
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "sk_test", "https://app.example.com/checkout/result")

	session, err := client.CreateSession(context.Background(), "txn_1", "pro", 999, 120)
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	if session.ID != "cs_123" {
		t.Errorf("session ID = %s, want cs_123", session.ID)
	}
	if session.RedirectURL != "https://pay.example.com/cs_123" {
		t.Errorf("redirect URL = %s", session.RedirectURL)
	}
	if session.Status != "pending" {
		t.Errorf("status = %s, want pending default", session.Status)
	}
	if gotIdempotency != "txn_1" {
		t.Errorf("Idempotency-Key = %q, want txn_1", gotIdempotency)
	}
}

func TestCreateSessionProviderDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "sk_test", "https://app.example.com/checkout/result")

	_, err := client.CreateSession(context.Background(), "txn_1", "pro", 999, 120)
	if !errors.Is(err, ErrProviderUnavailable) {
		t.Errorf("error = %v, want ErrProviderUnavailable", err)
	}
}

func TestCreateSessionMissingRedirect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(CheckoutSession{ID: "cs_123"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "sk_test", "https://app.example.com/checkout/result")

	if _, err := client.CreateSession(context.Background(), "txn_1", "pro", 999, 120); err == nil {
		t.Error("expected error for response without redirect URL")
	}
}
