package webhook

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNotifyDeliversSignedEvent(t *testing.T) {
	var gotBody []byte
	var gotSig string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotSig = r.Header.Get("X-Signature-256")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := New(Config{URL: srv.URL, Secret: "topsecret"}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	n.now = func() time.Time { return time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC) }

	err := n.Notify(context.Background(), Event{
		Type:      "reply",
		SessionID: "telegram:42",
		Text:      "Your ticket INC202603140001 has been created.",
	})
	if err != nil {
		t.Fatalf("Notify: %v", err)
	}

	if !VerifySignature(gotBody, "topsecret", gotSig) {
		t.Error("signature did not verify")
	}

	var ev Event
	if err := json.Unmarshal(gotBody, &ev); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ev.Type != "reply" || ev.SessionID != "telegram:42" {
		t.Errorf("event = %+v", ev)
	}
	if ev.Timestamp.IsZero() {
		t.Error("timestamp not set")
	}
}

func TestNotifyErrorOnBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	n := New(Config{URL: srv.URL}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err := n.Notify(context.Background(), Event{Type: "reply", SessionID: "s"}); err == nil {
		t.Fatal("expected error for 502 response")
	}
}

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"type":"reply"}`)
	sig := ComputeSignature(body, "k")

	if !VerifySignature(body, "k", sig) {
		t.Error("valid signature rejected")
	}
	if VerifySignature(body, "wrong", sig) {
		t.Error("wrong secret accepted")
	}
	if VerifySignature(body, "k", "") {
		t.Error("empty signature accepted")
	}
}
