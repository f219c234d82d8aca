package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zoobzio/sequent"
	"github.com/zoobzio/sequent/internal/metrics"
	"github.com/zoobzio/sequent/internal/registry"
)

func newTestRouter(t *testing.T, origins []string) http.Handler {
	t.Helper()
	m := metrics.New()
	t.Cleanup(m.Close)
	deps := Deps{Registry: newRegistry(t), Metrics: m}
	return NewRouter(New(deps), deps, RouterOptions{Origins: origins})
}

func serve(h http.Handler, method, path string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRootAndHealth(t *testing.T) {
	h := newTestRouter(t, []string{"*"})

	rec := serve(h, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var root map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &root))
	assert.Equal(t, map[string]string{
		"service": "Highfeature Sequential Thinking MCP Service",
		"version": "1.0.0",
		"status":  "running",
	}, root)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = serve(h, http.MethodGet, "/health-check", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestOpenAPIOptions(t *testing.T) {
	h := newTestRouter(t, []string{"*"})

	rec := serve(h, http.MethodOptions, MCPPath+"/openapi.json", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Method         string   `json:"method"`
		AllowedMethods []string `json:"allowed_methods"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "OPTIONS", body.Method)
	assert.Contains(t, body.AllowedMethods, "PATCH")
}

func TestMetricsRoute(t *testing.T) {
	h := newTestRouter(t, []string{"*"})

	rec := serve(h, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "sequent_active_sessions")
}

func TestCORSPreflight(t *testing.T) {
	h := newTestRouter(t, []string{"https://app.example"})

	rec := serve(h, http.MethodOptions, MCPPath, map[string]string{
		"Origin":                         "https://app.example",
		"Access-Control-Request-Method":  "POST",
		"Access-Control-Request-Headers": "mcp-session-id",
	})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = serve(h, http.MethodOptions, MCPPath, map[string]string{
		"Origin":                        "https://evil.example",
		"Access-Control-Request-Method": "POST",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

// TestStreamableHTTPSessions verifies each HTTP client gets its own ledger.
func TestStreamableHTTPSessions(t *testing.T) {
	reg := newRegistry(t)
	deps := Deps{Registry: reg}
	ts := httptest.NewServer(NewRouter(New(deps), deps, RouterOptions{Origins: []string{"*"}}))
	defer ts.Close()

	ctx := context.Background()
	open := func() *mcp.ClientSession {
		client := mcp.NewClient(&mcp.Implementation{Name: "http-client", Version: "v0.0.1"}, nil)
		cs, err := client.Connect(ctx, &mcp.StreamableClientTransport{Endpoint: ts.URL + MCPPath}, nil)
		require.NoError(t, err)
		return cs
	}

	a := open()
	defer a.Close()
	b := open()
	defer b.Close()

	step := map[string]any{
		"thought":           "Start",
		"thoughtNumber":     1,
		"totalThoughts":     5,
		"nextThoughtNeeded": true,
	}
	for i := 0; i < 2; i++ {
		res := call(t, a, step)
		require.False(t, res.IsError, text(t, res))
	}
	res := call(t, b, step)
	require.False(t, res.IsError, text(t, res))

	assert.Equal(t, 1, reply(t, res).ThoughtHistoryLength, "second client starts its own ledger")
	assert.Equal(t, 2, reg.Len())

	sa, ok := reg.Lookup(a.ID())
	require.True(t, ok)
	assert.Equal(t, 2, sa.Ledger().HistoryLength())
}

// TestStreamableHTTPIdleSessionRefused verifies a client whose session sat
// idle past the timeout gets an error instead of an empty ledger.
func TestStreamableHTTPIdleSessionRefused(t *testing.T) {
	reg := registry.New(50*time.Millisecond, func(ctx context.Context, id string) *sequent.Session {
		return sequent.NewSession(ctx, id, sequent.EchoCoordinator{Name: "test"})
	})
	defer reg.Close(context.Background())
	deps := Deps{Registry: reg}
	ts := httptest.NewServer(NewRouter(New(deps), deps, RouterOptions{Origins: []string{"*"}}))
	defer ts.Close()

	ctx := context.Background()
	client := mcp.NewClient(&mcp.Implementation{Name: "http-client", Version: "v0.0.1"}, nil)
	cs, err := client.Connect(ctx, &mcp.StreamableClientTransport{Endpoint: ts.URL + MCPPath}, nil)
	require.NoError(t, err)
	defer cs.Close()

	step := map[string]any{
		"thought":           "Start",
		"thoughtNumber":     1,
		"totalThoughts":     5,
		"nextThoughtNeeded": true,
	}
	res := call(t, cs, step)
	require.False(t, res.IsError, text(t, res))

	time.Sleep(150 * time.Millisecond)

	res = call(t, cs, step)
	require.True(t, res.IsError)
	assert.True(t, strings.HasPrefix(text(t, res), "An unexpected error occurred: "), text(t, res))
	assert.Contains(t, text(t, res), registry.ErrSessionExpired.Error())

	_, ok := reg.Lookup(cs.ID())
	assert.False(t, ok, "no fresh ledger is opened for the expired id")
}
