package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/Conceptual-Machines/image-studio/internal/catalog"
	"github.com/Conceptual-Machines/image-studio/internal/models"
	"github.com/Conceptual-Machines/image-studio/internal/studio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRelay records the last request and answers with a fixed status and body
type fakeRelay struct {
	server *httptest.Server

	mu   sync.Mutex
	last studio.Request
}

func newFakeRelay(t *testing.T, status int, body string) *fakeRelay {
	t.Helper()
	f := &fakeRelay{}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/generate" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		var req studio.Request
		_ = json.NewDecoder(r.Body).Decode(&req)

		f.mu.Lock()
		f.last = req
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeRelay) lastRequest() studio.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestGenerate_PrintsHistoryEntry(t *testing.T) {
	relay := newFakeRelay(t, http.StatusOK, `{"url":"https://cdn.example.com/out.png"}`)

	stdout, _, err := execute(t, "generate",
		"--relay", relay.server.URL,
		"--model", catalog.ModelFlux1Schnell,
		"--prompt", "a lighthouse at dusk",
		"--param", "num_inference_steps=6",
		"--param", "aspect_ratio=3:2",
	)
	require.NoError(t, err)

	var entry models.HistoryEntry
	require.NoError(t, json.Unmarshal([]byte(stdout), &entry))
	assert.Equal(t, "https://cdn.example.com/out.png", entry.URL)
	assert.Equal(t, "a lighthouse at dusk", entry.Prompt)
	assert.Equal(t, "Flux.1 Schnell", entry.Model)
	assert.NotEmpty(t, entry.ID)

	sent := relay.lastRequest()
	assert.Equal(t, catalog.ModelFlux1Schnell, sent.Model)
	assert.Equal(t, 6.0, sent.Parameters["num_inference_steps"])
	assert.Equal(t, "3:2", sent.Parameters["aspect_ratio"])
}

func TestGenerate_UnknownModelFallsBack(t *testing.T) {
	relay := newFakeRelay(t, http.StatusOK, `{"url":"https://cdn.example.com/out.png"}`)

	_, stderr, err := execute(t, "generate", "--relay", relay.server.URL, "--model", "dall-e-9", "--prompt", "a cat")
	require.NoError(t, err)

	assert.Contains(t, stderr, `unknown model "dall-e-9"`)
	assert.Equal(t, catalog.ModelFlux1Dev, relay.lastRequest().Model)
	assert.Equal(t, 3.5, relay.lastRequest().Parameters["guidance_scale"])
}

func TestGenerate_RelayRejection(t *testing.T) {
	relay := newFakeRelay(t, http.StatusPaymentRequired, `{"error":"insufficient credits"}`)

	_, _, err := execute(t, "generate", "--relay", relay.server.URL, "--prompt", "a cat")

	var relayErr *studio.RelayError
	require.ErrorAs(t, err, &relayErr)
	assert.Equal(t, http.StatusPaymentRequired, relayErr.Status)
	assert.Equal(t, "insufficient credits", relayErr.Message)
}

func TestGenerate_EmptyPromptSkipsRelay(t *testing.T) {
	relay := newFakeRelay(t, http.StatusOK, `{"url":"https://cdn.example.com/out.png"}`)

	_, _, err := execute(t, "generate", "--relay", relay.server.URL)

	require.ErrorIs(t, err, studio.ErrEmptyPrompt)
	assert.Empty(t, relay.lastRequest().Model)
}

func TestGenerate_RejectsInvalidParameter(t *testing.T) {
	tests := []struct {
		name  string
		param string
	}{
		{"not a number", "guidance_scale=high"},
		{"out of range", "guidance_scale=11"},
		{"unknown choice", "aspect_ratio=21:9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			relay := newFakeRelay(t, http.StatusOK, `{"url":"https://cdn.example.com/out.png"}`)

			_, _, err := execute(t, "generate", "--relay", relay.server.URL, "--prompt", "a cat", "--param", tt.param)

			require.Error(t, err)
			assert.Empty(t, relay.lastRequest().Model)
		})
	}
}

func TestParseParameter_UndeclaredKeyPassesThrough(t *testing.T) {
	value, err := parseParameter(catalog.Default(), "seed", "42")
	require.NoError(t, err)
	assert.Equal(t, "42", value)
}

func TestModels_ListsCatalog(t *testing.T) {
	stdout, _, err := execute(t, "models")
	require.NoError(t, err)

	for _, model := range catalog.Models() {
		assert.Contains(t, stdout, model.ID)
	}
	assert.Contains(t, stdout, "guidance_scale=3.5")
}
