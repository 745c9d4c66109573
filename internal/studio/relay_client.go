package studio

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
)

const (
	generatePath           = "/api/generate"
	defaultRelayFailureMsg = "Generation failed"
)

// RelayError is a failure reported by the relay endpoint
type RelayError struct {
	Status  int
	Message string
}

func (e *RelayError) Error() string {
	return fmt.Sprintf("relay returned %d: %s", e.Status, e.Message)
}

// RelayClient calls a studio server's POST /api/generate
type RelayClient struct {
	httpClient *resty.Client
}

// NewRelayClient creates a client for the relay served at baseURL
func NewRelayClient(baseURL string) *RelayClient {
	return &RelayClient{
		httpClient: resty.New().
			SetBaseURL(baseURL).
			SetHeader("Content-Type", "application/json"),
	}
}

type relayResponse struct {
	URL   string `json:"url"`
	Error string `json:"error"`
}

// Generate posts req to the relay and returns the image URL
func (c *RelayClient) Generate(ctx context.Context, req Request) (string, error) {
	if req.Parameters == nil {
		req.Parameters = map[string]any{}
	}

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(req).
		Post(generatePath)
	if err != nil {
		return "", fmt.Errorf("call relay: %w", err)
	}

	// A success status without a usable url is still a failed generation
	status := resp.StatusCode()
	if status < http.StatusBadRequest {
		status = http.StatusBadGateway
	}

	var body relayResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return "", &RelayError{Status: status, Message: defaultRelayFailureMsg}
	}

	if resp.StatusCode() != http.StatusOK || body.URL == "" {
		msg := body.Error
		if msg == "" {
			msg = defaultRelayFailureMsg
		}
		return "", &RelayError{Status: status, Message: msg}
	}

	return body.URL, nil
}
