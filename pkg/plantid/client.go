package plantid

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rmarchan/fieldrent-backend/pkg/config"
	"github.com/rmarchan/fieldrent-backend/pkg/logger"
)

var errAPIKeyRequired = errors.New("plant.id api key is required")

// Client wraps the plant.id identification API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// IdentifyRequest carries the images and detail selectors for one identification call.
type IdentifyRequest struct {
	Images       []string `json:"images"`
	PlantDetails []string `json:"plant_details,omitempty"`
}

// Suggestion is a single candidate species from the upstream API.
type Suggestion struct {
	PlantName    string   `json:"plant_name"`
	Probability  float64  `json:"probability"`
	PlantDetails *Details `json:"plant_details,omitempty"`
}

// Details carries the optional per-species metadata block.
type Details struct {
	ScientificName  string           `json:"scientific_name"`
	CommonNames     []string         `json:"common_names"`
	WikiDescription *WikiDescription `json:"wiki_description,omitempty"`
}

// WikiDescription is the upstream free-text description.
type WikiDescription struct {
	Value string `json:"value"`
}

// IdentifyResponse is the subset of the upstream payload the service consumes.
type IdentifyResponse struct {
	IsPlant     bool         `json:"is_plant"`
	Suggestions []Suggestion `json:"suggestions"`
}

// NewClient builds a plant.id client from the configured base URL and key.
func NewClient(ctx context.Context, cfg config.PlantIDConfig, logg *logger.Logger) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	if logg != nil {
		logg.Info(ctx, "plant.id client initialized")
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     apiKey,
	}, nil
}

// Identify submits base64 images for species identification.
func (c *Client) Identify(ctx context.Context, req IdentifyRequest) (*IdentifyResponse, error) {
	if c == nil {
		return nil, errors.New("plant.id client not initialized")
	}
	if len(req.Images) == 0 {
		return nil, errors.New("at least one image is required")
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding identify request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/identify", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building identify request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("calling plant.id: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("plant.id returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var parsed IdentifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding identify response: %w", err)
	}
	return &parsed, nil
}
