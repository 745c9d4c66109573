// Package relay forwards generation requests to the upstream image provider.
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Conceptual-Machines/image-studio/internal/studio"
	"github.com/go-resty/resty/v2"
)

const (
	// DefaultBaseURL is the Kie AI API root
	DefaultBaseURL = "https://api.kie.ai"

	generationsPath       = "/v1/images/generations"
	defaultUpstreamErrMsg = "Failed to generate"
)

var (
	// ErrMissingAPIKey means no provider credential is configured
	ErrMissingAPIKey = errors.New("API Key not found")
	// ErrMalformedResponse means the upstream body could not be decoded or had no image URL
	ErrMalformedResponse = errors.New("malformed upstream response")
)

// UpstreamError is a non-success response from the provider
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned %d: %s", e.StatusCode, e.Message)
}

// Client sends one POST per generation to the provider. It holds no per-request state
// and is safe for concurrent use.
type Client struct {
	httpClient *resty.Client
	apiKey     string
}

// NewClient creates a provider client. An empty apiKey is accepted here and
// reported as ErrMissingAPIKey on each Generate call.
func NewClient(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: resty.New().
			SetBaseURL(baseURL).
			SetHeader("Content-Type", "application/json"),
		apiKey: apiKey,
	}
}

// HasAPIKey reports whether a credential is configured
func (c *Client) HasAPIKey() bool {
	return c.apiKey != ""
}

type upstreamResponse struct {
	Message string `json:"message"`
	Data    []struct {
		URL string `json:"url"`
	} `json:"data"`
}

// Generate forwards req and returns the first image URL from the provider
func (c *Client) Generate(ctx context.Context, req studio.Request) (string, error) {
	if !c.HasAPIKey() {
		return "", ErrMissingAPIKey
	}

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetAuthToken(c.apiKey).
		SetBody(Payload(req)).
		Post(generationsPath)
	if err != nil {
		return "", fmt.Errorf("call upstream: %w", err)
	}

	var body upstreamResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return "", fmt.Errorf("%w: status %d: %v", ErrMalformedResponse, resp.StatusCode(), err)
	}

	if !resp.IsSuccess() {
		msg := body.Message
		if msg == "" {
			msg = defaultUpstreamErrMsg
		}
		return "", &UpstreamError{StatusCode: resp.StatusCode(), Message: msg}
	}

	if len(body.Data) == 0 || body.Data[0].URL == "" {
		return "", fmt.Errorf("%w: no image url in data", ErrMalformedResponse)
	}
	return body.Data[0].URL, nil
}

// Payload builds the upstream body: model and prompt, then every parameter spread
// on top. A parameter named "model" or "prompt" wins.
func Payload(req studio.Request) map[string]any {
	payload := make(map[string]any, len(req.Parameters)+2)
	payload["model"] = req.Model
	payload["prompt"] = req.Prompt
	for k, v := range req.Parameters {
		payload[k] = v
	}
	return payload
}
