package compose

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/deskd-io/deskd/pkg/protocol"
)

func sampleBundle() *protocol.Bundle {
	return &protocol.Bundle{
		SessionID: "s1",
		Results: []protocol.SubResult{{
			SubQuery: "zoom version",
			Kind:     protocol.KindSoftware,
			Software: &protocol.SoftwarePayload{Name: "Zoom", Version: "6.5"},
		}},
	}
}

func TestLLMRender(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Error("missing auth header")
		}

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			t.Fatalf("unexpected messages: %+v", req.Messages)
		}
		if !strings.Contains(req.Messages[1].Content, "6.5") {
			t.Error("bundle facts missing from prompt")
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{
				"message": map[string]any{"role": "assistant", "content": "We support Zoom 6.5."},
			}},
		})
	}))
	defer srv.Close()

	c := NewLLM("test-key", nil, WithBaseURL(srv.URL))
	out, err := c.Render(context.Background(), sampleBundle())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if out != "We support Zoom 6.5." {
		t.Errorf("Render: got %q", out)
	}
}

func TestLLMRenderFallsBackOnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewLLM("test-key", nil, WithBaseURL(srv.URL))
	out, err := c.Render(context.Background(), sampleBundle())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	// Template fallback still conveys the facts.
	if !strings.Contains(out, "Zoom") || !strings.Contains(out, "6.5") {
		t.Errorf("Render: fallback output missing facts: %q", out)
	}
}
