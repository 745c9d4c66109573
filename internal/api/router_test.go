package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Conceptual-Machines/image-studio/internal/api/middleware"
	"github.com/Conceptual-Machines/image-studio/internal/config"
	"github.com/Conceptual-Machines/image-studio/internal/metrics"
	"github.com/Conceptual-Machines/image-studio/internal/studio"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(upstreamURL, apiKey string) *config.Config {
	return &config.Config{
		Environment:       "test",
		Port:              "0",
		LogLevel:          "error",
		KieAIAPIKey:       apiKey,
		KieAIBaseURL:      upstreamURL,
		SessionSecret:     "test-secret",
		SessionTTL:        time.Hour,
		CORSAllowedOrigin: "*",
	}
}

func newUpstream(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/images/generations" || r.Header.Get("Authorization") != "Bearer secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"unauthorized"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"url":"https://cdn.example.com/out.png"}]}`))
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestRouter(t *testing.T, apiKey string) (*gin.Engine, *metrics.Collector) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	collector := metrics.NewCollector(context.Background(), "test")
	return SetupRouter(testConfig(newUpstream(t).URL, apiKey), collector, "test"), collector
}

func TestRouter_Operational(t *testing.T) {
	router, _ := newTestRouter(t, "secret")

	for _, path := range []string{"/health", "/api/metrics", "/api/models", "/api/models/flux-1-dev"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"), path)
	}
}

func TestRouter_PrometheusExposition(t *testing.T) {
	router, _ := newTestRouter(t, "secret")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `image_studio_api_requests_total{endpoint="/health",method="GET",status="200"} 1`)
}

func TestRouter_RelayEndToEnd(t *testing.T) {
	router, _ := newTestRouter(t, "secret")

	req := httptest.NewRequest(http.MethodPost, "/api/generate",
		strings.NewReader(`{"model":"flux-1-schnell","prompt":"a cat","parameters":{"num_inference_steps":4}}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"url":"https://cdn.example.com/out.png"}`, w.Body.String())
}

func TestRouter_RelayWithoutKey(t *testing.T) {
	router, _ := newTestRouter(t, "")

	req := httptest.NewRequest(http.MethodPost, "/api/generate",
		strings.NewReader(`{"model":"flux-1-dev","prompt":"a cat","parameters":{}}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"API Key not found"}`, w.Body.String())
}

func TestRouter_StudioSessionFlow(t *testing.T) {
	router, _ := newTestRouter(t, "secret")

	var cookie *http.Cookie
	call := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		if cookie != nil {
			req.AddCookie(cookie)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		for _, c := range w.Result().Cookies() {
			if c.Name == middleware.SessionCookieName {
				cookie = c
			}
		}
		return w
	}

	require.Equal(t, http.StatusOK, call(http.MethodPut, "/api/studio/model", `{"id":"stable-diffusion-3.5-large"}`).Code)
	require.Equal(t, http.StatusOK, call(http.MethodPut, "/api/studio/prompt", `{"prompt":"a lighthouse"}`).Code)

	w := call(http.MethodPost, "/api/studio/generate", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = call(http.MethodGet, "/api/studio", "")
	require.Equal(t, http.StatusOK, w.Code)
	var state studio.State
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))

	require.NotNil(t, state.ResultURL)
	assert.Equal(t, "https://cdn.example.com/out.png", *state.ResultURL)
	require.Len(t, state.History, 1)
	assert.Equal(t, "SD 3.5 Large", state.History[0].Model)
	assert.Equal(t, "a lighthouse", state.History[0].Prompt)
}

func TestRouter_CORSPreflight(t *testing.T) {
	router, _ := newTestRouter(t, "secret")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/api/generate", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
