package studio

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRelayBase = "http://studio.test"

func newMockedRelayClient(t *testing.T) *RelayClient {
	t.Helper()
	client := NewRelayClient(testRelayBase)
	httpmock.ActivateNonDefault(client.httpClient.GetClient())
	t.Cleanup(httpmock.DeactivateAndReset)
	return client
}

func TestRelayClient_Success(t *testing.T) {
	client := newMockedRelayClient(t)

	var got Request
	httpmock.RegisterResponder(http.MethodPost, testRelayBase+"/api/generate",
		func(req *http.Request) (*http.Response, error) {
			if err := json.NewDecoder(req.Body).Decode(&got); err != nil {
				return httpmock.NewStringResponse(http.StatusBadRequest, ""), nil
			}
			return httpmock.NewJsonResponse(http.StatusOK, map[string]string{"url": "https://x/img.png"})
		})

	url, err := client.Generate(context.Background(), Request{
		Model:      "flux-1-dev",
		Prompt:     "a cat",
		Parameters: map[string]any{"guidance_scale": 3.5},
	})

	require.NoError(t, err)
	assert.Equal(t, "https://x/img.png", url)
	assert.Equal(t, "flux-1-dev", got.Model)
	assert.Equal(t, "a cat", got.Prompt)
	assert.Equal(t, 3.5, got.Parameters["guidance_scale"])
}

func TestRelayClient_NilParametersSentAsObject(t *testing.T) {
	client := newMockedRelayClient(t)

	var raw map[string]json.RawMessage
	httpmock.RegisterResponder(http.MethodPost, testRelayBase+"/api/generate",
		func(req *http.Request) (*http.Response, error) {
			_ = json.NewDecoder(req.Body).Decode(&raw)
			return httpmock.NewJsonResponse(http.StatusOK, map[string]string{"url": "https://x/img.png"})
		})

	_, err := client.Generate(context.Background(), Request{Model: "flux-1-dev", Prompt: "a cat"})
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(raw["parameters"]))
}

func TestRelayClient_Errors(t *testing.T) {
	tests := []struct {
		name            string
		status          int
		body            string
		expectedStatus  int
		expectedMessage string
	}{
		{"upstream rejection", http.StatusPaymentRequired, `{"error":"insufficient credits"}`, 402, "insufficient credits"},
		{"missing key", http.StatusInternalServerError, `{"error":"API Key not found"}`, 500, "API Key not found"},
		{"no message", http.StatusBadGateway, `{}`, 502, defaultRelayFailureMsg},
		{"not json", http.StatusBadGateway, `<html>bad gateway</html>`, 502, defaultRelayFailureMsg},
		{"ok without url", http.StatusOK, `{}`, 502, defaultRelayFailureMsg},
		{"ok not json", http.StatusOK, `<html>ok</html>`, 502, defaultRelayFailureMsg},
		{"created with url", http.StatusCreated, `{"url":"https://x/img.png"}`, 502, defaultRelayFailureMsg},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newMockedRelayClient(t)
			httpmock.RegisterResponder(http.MethodPost, testRelayBase+"/api/generate",
				httpmock.NewStringResponder(tt.status, tt.body))

			_, err := client.Generate(context.Background(), Request{Model: "flux-1-dev", Prompt: "a cat"})

			var relayErr *RelayError
			require.True(t, errors.As(err, &relayErr), "expected RelayError, got %v", err)
			assert.Equal(t, tt.expectedStatus, relayErr.Status)
			assert.Equal(t, tt.expectedMessage, relayErr.Message)
		})
	}
}

func TestRelayClient_TransportError(t *testing.T) {
	client := newMockedRelayClient(t)
	httpmock.RegisterResponder(http.MethodPost, testRelayBase+"/api/generate",
		httpmock.NewErrorResponder(errors.New("connection refused")))

	_, err := client.Generate(context.Background(), Request{Model: "flux-1-dev", Prompt: "a cat"})
	require.Error(t, err)

	var relayErr *RelayError
	assert.False(t, errors.As(err, &relayErr))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestRelayClient_DrivesStore(t *testing.T) {
	client := newMockedRelayClient(t)
	httpmock.RegisterResponder(http.MethodPost, testRelayBase+"/api/generate",
		httpmock.NewStringResponder(http.StatusOK, `{"url":"https://x/img.png"}`))

	store := NewStore()
	store.SetPrompt("a cat")

	entry, err := store.Generate(context.Background(), client)
	require.NoError(t, err)
	assert.Equal(t, "https://x/img.png", entry.URL)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}
