package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/bestpick/config"
	"sjsage522/bestpick/internal/extractor"
	"sjsage522/bestpick/internal/presenter"
)

// This is a simple test HTML that mimics a search results page
const testHTML = `
<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Results for kettle</title></head>
<body>
  <div data-component-type="s-search-result">
    <a class="a-link-normal a-text-normal" href="/dp/K1"><span class="a-size-medium a-color-base a-text-normal">Travel Kettle</span></a>
    <span class="a-price"><span class="a-offscreen">$18.00</span></span>
    <span class="a-icon-alt">4.2 out of 5 stars</span>
  </div>
  <div data-component-type="s-search-result">
    <a class="a-link-normal a-text-normal" href="/dp/K2"><span class="a-size-medium a-color-base a-text-normal">Gooseneck Kettle</span></a>
    <span class="a-price"><span class="a-offscreen">$44.95</span></span>
    <span class="a-icon-alt">4.9 out of 5 stars</span>
    <span class="a-color-base a-text-bold">Tomorrow, June 1</span>
  </div>
</body>
</html>
`

func testConfig(source string) *config.Config {
	return &config.Config{
		HTTPAddr:             ":0",
		AllowedOrigins:       []string{"moz-extension://*"},
		RateLimitRPS:         100,
		RateLimitBurst:       100,
		PageSource:           source,
		FetchTimeout:         5 * time.Second,
		BlockTime:            time.Minute,
		RedisStream:          "bestpick:test",
		RedisStreamMaxLength: 10,
		Environment:          "test",
	}
}

func newResultsServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(testHTML))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestPickCommand(t *testing.T) {
	server := newResultsServer(t)

	var stdout, stderr bytes.Buffer
	m := &Main{Config: testConfig(config.SourceHTTP)}
	err := m.Run(context.Background(), []string{"pick", server.URL + "/s?k=kettle"}, &stdout, &stderr)
	require.NoError(t, err)

	var msg extractor.Message
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &msg))
	assert.Equal(t, extractor.Message{
		CheapestProductName:     "Travel Kettle",
		CheapestProductURL:      server.URL + "/dp/K1",
		HighestRatedProductName: "Gooseneck Kettle",
		HighestRatedProductURL:  server.URL + "/dp/K2",
		FastestProductName:      "Gooseneck Kettle",
		FastestProductURL:       server.URL + "/dp/K2",
	}, msg)
}

func TestPickCommandFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.html")
	require.NoError(t, os.WriteFile(path, []byte(testHTML), 0o600))

	var stdout, stderr bytes.Buffer
	m := &Main{Config: testConfig(config.SourceHTTP)}
	err := m.Run(context.Background(), []string{"pick", "--source", "file", path}, &stdout, &stderr)
	require.NoError(t, err)

	// Saved pages have no base URL, so links stay as written
	assert.Contains(t, stdout.String(), `"cheapestProductUrl": "/dp/K1"`)
}

func TestPickCommandErrors(t *testing.T) {
	var stdout, stderr bytes.Buffer

	m := &Main{Config: testConfig(config.SourceHTTP)}
	err := m.Run(context.Background(), []string{"pick", "--source", "carrier-pigeon", "https://www.example.com"}, &stdout, &stderr)
	assert.ErrorContains(t, err, "unknown page source")

	m = &Main{Config: testConfig(config.SourceFile)}
	err = m.Run(context.Background(), []string{"pick", filepath.Join(t.TempDir(), "missing.html")}, &stdout, &stderr)
	assert.Error(t, err)
	assert.Empty(t, stdout.String())
}

func TestServeRejectsFileSource(t *testing.T) {
	var stdout, stderr bytes.Buffer
	m := &Main{Config: testConfig(config.SourceFile)}

	err := m.Run(context.Background(), []string{"serve"}, &stdout, &stderr)
	assert.ErrorContains(t, err, "only available to pick")
}

func TestNoCommand(t *testing.T) {
	var stdout, stderr bytes.Buffer
	m := &Main{Config: testConfig(config.SourceHTTP)}

	err := m.Run(context.Background(), nil, &stdout, &stderr)
	assert.ErrorContains(t, err, "no command specified")

	err = m.Run(context.Background(), []string{"--help"}, &stdout, &stderr)
	assert.NoError(t, err)
	assert.Contains(t, stdout.String(), "pick")
}

// TestIntegration runs a find-deals request through the presenter, the trigger
// and the in-process channel back into the panel.
func TestIntegration(t *testing.T) {
	gin.SetMode(gin.TestMode)
	server := newResultsServer(t)
	cfg := testConfig(config.SourceHTTP)

	services, err := initializeServices(context.Background(), cfg, true)
	require.NoError(t, err)
	defer services.Cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	panel := presenter.NewPanel()
	go panel.Listen(ctx, services.Channel.Messages())
	router := presenter.NewServer(cfg, panel, services.Trigger).Router()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/deals", strings.NewReader(`{"url":"`+server.URL+`/s?k=kettle"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Eventually(t, func() bool {
		for _, slot := range panel.State().Slots {
			if !slot.IsSet() {
				return false
			}
		}
		return true
	}, 2*time.Second, 10*time.Millisecond)

	state := panel.State()
	assert.True(t, state.Visible)
	assert.Equal(t, "Travel Kettle", state.Slots[0].Name)
	assert.Equal(t, server.URL+"/dp/K2", state.Slots[1].URL)
	assert.Equal(t, "Gooseneck Kettle", state.Slots[2].Name)

	// A failing page leaves the panel as it was
	req = httptest.NewRequest(http.MethodPost, "/api/v1/deals", strings.NewReader(`{"url":"http://127.0.0.1:1/unreachable"}`))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), `"type":"network"`)
	assert.Equal(t, state, panel.State())
}
