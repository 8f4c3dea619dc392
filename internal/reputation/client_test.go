package reputation

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientScoreInvertsAbuseConfidence(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/check" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Key") != "test-key" {
			t.Fatalf("missing api key header")
		}
		switch r.URL.Query().Get("ipAddress") {
		case "185.220.101.1":
			w.Write([]byte(`{"data":{"abuseConfidenceScore":95}}`))
		default:
			w.Write([]byte(`{"data":{"abuseConfidenceScore":0}}`))
		}
	}))
	defer srv.Close()

	client, err := NewClient(ClientConfig{BaseURL: srv.URL, APIKey: "test-key"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	score, err := client.Score(context.Background(), "185.220.101.1")
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if score != 5 {
		t.Fatalf("expected 100-95=5, got %v", score)
	}

	score, err = client.Score(context.Background(), "8.8.8.8")
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if score != 100 {
		t.Fatalf("expected clean score 100, got %v", score)
	}
}

func TestClientScoreFailsOnHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client, err := NewClient(ClientConfig{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := client.Score(context.Background(), "1.2.3.4"); err == nil {
		t.Fatalf("expected error for non-2xx response")
	}
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	if _, err := NewClient(ClientConfig{}); err == nil {
		t.Fatalf("expected error for empty base URL")
	}
}

func TestStaticProviderClampsAndDefaults(t *testing.T) {
	p := Static{"1.2.3.4": 150, "5.6.7.8": -10}

	if v, _ := p.Score(context.Background(), "1.2.3.4"); v != 100 {
		t.Fatalf("expected clamp to 100, got %v", v)
	}
	if v, _ := p.Score(context.Background(), "5.6.7.8"); v != 0 {
		t.Fatalf("expected clamp to 0, got %v", v)
	}
	if v, _ := p.Score(context.Background(), "9.9.9.9"); v != 100 {
		t.Fatalf("expected neutral default for unknown ip, got %v", v)
	}
}
