package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pageguard/pageguard/internal/cipher"
	"github.com/pageguard/pageguard/internal/config"
	"github.com/pageguard/pageguard/internal/logger"
	"github.com/pageguard/pageguard/internal/logstore"
	"github.com/pageguard/pageguard/internal/moderation"
	"github.com/pageguard/pageguard/internal/transform"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	cfg := config.GetDefaults()
	cfg.Moderation.Detectors = []string{"all"}

	key := make([]byte, cipher.KeySize)
	c, err := cipher.New(key)
	if err != nil {
		t.Fatalf("cipher.New() error = %v", err)
	}

	detector, err := moderation.New(cfg.Moderation, logger.NewNop())
	if err != nil {
		t.Fatalf("moderation.New() error = %v", err)
	}

	store, err := logstore.NewFileStore(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatalf("logstore.NewFileStore() error = %v", err)
	}

	srv, err := New(cfg, Deps{
		Detector:    detector,
		Transformer: transform.New(c, zap.NewNop()),
		Recoverer:   transform.NewRecoverer(c, zap.NewNop()),
		Store:       store,
	}, logger.NewNop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return srv
}

func postJSON(t *testing.T, srv *Server, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)
	return rec
}

func TestHandleModerate(t *testing.T) {
	srv := newTestServer(t)

	t.Run("remove action", func(t *testing.T) {
		rec := postJSON(t, srv, "/v1/moderate", moderateRequest{
			Text:   "Reach me at john.doe@example.com please.",
			Action: "remove",
		})

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		var resp moderateResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshal response: %v", err)
		}
		if resp.ProcessedText != "Reach me at [REDACTED EMAILS] please." {
			t.Errorf("ProcessedText = %q", resp.ProcessedText)
		}
		if resp.Action != "remove" {
			t.Errorf("Action = %q, want remove", resp.Action)
		}
		if len(resp.Reasons) != 1 || resp.Reasons[0] != "Emails detected" {
			t.Errorf("Reasons = %v, want [Emails detected]", resp.Reasons)
		}
		if resp.LogReference != "" {
			t.Errorf("LogReference = %q, remove must not produce a log", resp.LogReference)
		}
	})

	t.Run("keep action returns text unchanged", func(t *testing.T) {
		rec := postJSON(t, srv, "/v1/moderate", moderateRequest{
			Text:   "Reach me at john.doe@example.com please.",
			Action: "keep",
		})

		var resp moderateResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatal(err)
		}
		if resp.ProcessedText != "Reach me at john.doe@example.com please." {
			t.Errorf("ProcessedText = %q, want input unchanged", resp.ProcessedText)
		}
		// Findings are still reported even when nothing is rewritten
		if len(resp.Reasons) != 1 {
			t.Errorf("Reasons = %v, want [Emails detected]", resp.Reasons)
		}
	})

	t.Run("clean text passes through", func(t *testing.T) {
		rec := postJSON(t, srv, "/v1/moderate", moderateRequest{
			Text:   "Nothing sensitive here.",
			Action: "remove",
		})

		var resp moderateResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatal(err)
		}
		if resp.ProcessedText != "Nothing sensitive here." {
			t.Errorf("ProcessedText = %q, want input unchanged", resp.ProcessedText)
		}
		if len(resp.Reasons) != 0 {
			t.Errorf("Reasons = %v, want none", resp.Reasons)
		}
	})

	t.Run("default action from config", func(t *testing.T) {
		rec := postJSON(t, srv, "/v1/moderate", moderateRequest{
			Text: "pan ABCPD1234E",
		})

		var resp moderateResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatal(err)
		}
		if resp.Action != "remove" {
			t.Errorf("Action = %q, want the configured default", resp.Action)
		}
	})

	t.Run("unknown action rejected", func(t *testing.T) {
		rec := postJSON(t, srv, "/v1/moderate", moderateRequest{
			Text:   "anything",
			Action: "shred",
		})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("invalid body rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/moderate", bytes.NewReader([]byte("{broken")))
		rec := httptest.NewRecorder()
		srv.router.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestModerateRecoverRoundTrip(t *testing.T) {
	srv := newTestServer(t)
	text := "Contact john.doe@example.com or 9876543210 today."

	rec := postJSON(t, srv, "/v1/moderate", moderateRequest{Text: text, Action: "encrypt"})
	if rec.Code != http.StatusOK {
		t.Fatalf("moderate status = %d, want 200", rec.Code)
	}
	var modResp moderateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &modResp); err != nil {
		t.Fatal(err)
	}
	if modResp.LogReference == "" {
		t.Fatal("encrypt produced no log reference")
	}

	rec = postJSON(t, srv, "/v1/recover", recoverRequest{
		ProcessedText: modResp.ProcessedText,
		LogReference:  modResp.LogReference,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("recover status = %d, want 200", rec.Code)
	}
	var recResp recoverResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &recResp); err != nil {
		t.Fatal(err)
	}
	if len(recResp.Errors) != 0 {
		t.Fatalf("recover errors = %v", recResp.Errors)
	}
	if recResp.RecoveredText != text {
		t.Errorf("RecoveredText = %q, want %q", recResp.RecoveredText, text)
	}
}

func TestHandleRecoverErrors(t *testing.T) {
	srv := newTestServer(t)

	t.Run("unknown reference", func(t *testing.T) {
		rec := postJSON(t, srv, "/v1/recover", recoverRequest{
			ProcessedText: "whatever",
			LogReference:  "00000000000000000000000000000000",
		})
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})

	t.Run("inline entries need no store", func(t *testing.T) {
		rec := postJSON(t, srv, "/v1/recover", recoverRequest{
			ProcessedText: "plain text with no placeholders",
			Entries:       []transform.LogEntry{},
		})
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("health body is not JSON: %v", err)
	}
	if body["status"] != "healthy" {
		t.Errorf("status field = %q, want healthy", body["status"])
	}
}
