package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/use-agent/apkscout/config"
)

func TestDeliver_SignsBody(t *testing.T) {
	var (
		gotSig string
		gotUA  string
		body   []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get(SignatureHeader)
		gotUA = r.Header.Get("User-Agent")
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n := NewNotifier(config.WebhookConfig{Secret: "default"})
	ev := &Event{Type: EventBatchCompleted, JobID: "job-1", Timestamp: 42, Data: map[string]int{"total": 3}}

	if err := n.Deliver(context.Background(), srv.URL, "s3cret", ev); err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if gotSig != Sign("s3cret", body) {
		t.Errorf("signature %q does not match body", gotSig)
	}
	if gotUA != "Apkscout-Webhook/1.0" {
		t.Errorf("User-Agent = %q", gotUA)
	}

	var decoded Event
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatalf("body is not an event: %v", err)
	}
	if decoded.Type != EventBatchCompleted || decoded.JobID != "job-1" {
		t.Errorf("unexpected event %+v", decoded)
	}
}

func TestDeliver_FallsBackToConfiguredSecret(t *testing.T) {
	var gotSig string
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get(SignatureHeader)
		body, _ = io.ReadAll(r.Body)
	}))
	defer srv.Close()

	n := NewNotifier(config.WebhookConfig{Secret: "default"})
	if err := n.Deliver(context.Background(), srv.URL, "", &Event{Type: EventBatchCompleted}); err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if gotSig != Sign("default", body) {
		t.Errorf("expected signature with the configured secret, got %q", gotSig)
	}
}

func TestDeliver_Unsigned(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(SignatureHeader) != "" {
			t.Error("unexpected signature without a secret")
		}
	}))
	defer srv.Close()

	n := NewNotifier(config.WebhookConfig{})
	if err := n.Deliver(context.Background(), srv.URL, "", &Event{Type: EventBatchCompleted}); err != nil {
		t.Fatalf("Deliver: %v", err)
	}
}

func TestDeliver_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := NewNotifier(config.WebhookConfig{})
	if err := n.Deliver(context.Background(), srv.URL, "", &Event{}); err == nil {
		t.Error("expected error for 500")
	}
}

func TestDeliverAsync_Retries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	defer srv.Close()

	n := NewNotifier(config.WebhookConfig{})
	n.delays = []time.Duration{0, time.Millisecond, time.Millisecond, time.Millisecond}

	select {
	case err := <-n.DeliverAsync(srv.URL, "", &Event{Type: EventBatchCompleted}):
		if err != nil {
			t.Fatalf("DeliverAsync: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("delivery did not finish")
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("calls = %d, want 3", got)
	}
}

func TestDeliverAsync_Exhausted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	n := NewNotifier(config.WebhookConfig{})
	n.delays = []time.Duration{0, time.Millisecond}

	if err := <-n.DeliverAsync(srv.URL, "", &Event{}); err == nil {
		t.Error("expected the last error after exhausting retries")
	}
}
