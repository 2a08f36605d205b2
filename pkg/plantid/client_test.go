package plantid

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rmarchan/fieldrent-backend/pkg/config"
)

func TestIdentifySendsKeyAndParsesSuggestions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/identify" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Api-Key"); got != "test-key" {
			t.Errorf("expected api key header, got %q", got)
		}
		var req IdentifyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Images) != 1 {
			t.Errorf("expected 1 image, got %d", len(req.Images))
		}
		json.NewEncoder(w).Encode(IdentifyResponse{
			IsPlant: true,
			Suggestions: []Suggestion{{
				PlantName:   "Tomato",
				Probability: 0.97,
				PlantDetails: &Details{
					ScientificName: "Solanum lycopersicum",
				},
			}},
		})
	}))
	defer server.Close()

	client, err := NewClient(context.Background(), config.PlantIDConfig{
		BaseURL: server.URL,
		APIKey:  "test-key",
	}, nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	resp, err := client.Identify(context.Background(), IdentifyRequest{Images: []string{"base64data"}})
	if err != nil {
		t.Fatalf("identify: %v", err)
	}
	if !resp.IsPlant {
		t.Fatal("expected is_plant true")
	}
	if len(resp.Suggestions) != 1 || resp.Suggestions[0].PlantName != "Tomato" {
		t.Fatalf("unexpected suggestions %+v", resp.Suggestions)
	}
}

func TestIdentifyRejectsUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer server.Close()

	client, err := NewClient(context.Background(), config.PlantIDConfig{
		BaseURL: server.URL,
		APIKey:  "bogus",
	}, nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	if _, err := client.Identify(context.Background(), IdentifyRequest{Images: []string{"x"}}); err == nil {
		t.Fatal("expected upstream error")
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient(context.Background(), config.PlantIDConfig{BaseURL: "https://example.com"}, nil); err == nil {
		t.Fatal("expected missing key error")
	}
}
