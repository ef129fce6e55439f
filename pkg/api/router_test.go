package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/edgeops/deploy/pkg/api"
	"github.com/edgeops/deploy/pkg/audit"
	"github.com/edgeops/deploy/pkg/cloudflare"
	"github.com/edgeops/deploy/pkg/config"
	"github.com/edgeops/deploy/pkg/orchestrator"
	"github.com/edgeops/deploy/pkg/secrets"
	"github.com/edgeops/deploy/pkg/tools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type nullAuditor struct{}

func (nullAuditor) Record(ctx context.Context, record audit.Record) {}

var (
	serverOnce sync.Once
	server     *httptest.Server
	mockClient *cloudflare.MockClient
)

// the router registers prometheus collectors, so it is built once and
// shared between tests
func testServer(t *testing.T) *httptest.Server {
	serverOnce.Do(func() {
		cfg := config.Cloudflare{
			AccountID: "acct-123",
			APIToken:  "token",
			Domain:    "workers.dev",
		}
		auditor := nullAuditor{}
		mockClient = &cloudflare.MockClient{}

		registry := tools.DefaultRegistry(tools.AllowListPolicy([]string{"alice"}), tools.Deps{
			Cloudflare:   cfg,
			Client:       mockClient,
			Orchestrator: orchestrator.New(mockClient, auditor, cfg),
			Secrets:      secrets.NewProcessor(mockClient, auditor),
			Auditor:      auditor,
		})

		router := api.New(api.Config{
			Registry:     registry,
			FrontendKeys: []string{"psk-1"},
			MetricsPath:  "/metrics",
		})
		server = httptest.NewServer(router)
	})
	return server
}

func post(t *testing.T, server *httptest.Server, path, psk, actor string, payload interface{}) *http.Response {
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, server.URL+path, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if psk != "" {
		req.Header.Set("X-PSK", psk)
	}
	if actor != "" {
		req.Header.Set("X-Actor-Login", actor)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func TestRejectsInvalidPresharedKey(t *testing.T) {
	server := testServer(t)

	resp := post(t, server, "/api/v1/tools/worker_list", "wrong-key", "alice", map[string]interface{}{"params": map[string]interface{}{}})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestListToolsReturnsSchemas(t *testing.T) {
	server := testServer(t)

	req, err := http.NewRequest(http.MethodGet, server.URL+"/api/v1/tools", nil)
	require.NoError(t, err)
	req.Header.Set("X-PSK", "psk-1")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	listed := make([]tools.Tool, 0)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&listed))
	assert.NotEmpty(t, listed)

	names := make([]string, 0)
	for _, tool := range listed {
		names = append(names, tool.Name)
	}
	assert.Contains(t, names, "worker_deploy")
	assert.Contains(t, names, "d1_query")
}

func TestDispatchReturnsEnvelope(t *testing.T) {
	server := testServer(t)
	mockClient.On("ListWorkers", mock.Anything).
		Return([]cloudflare.Script{{ID: "my-worker"}}, nil).Once()

	resp := post(t, server, "/api/v1/tools/worker_list", "psk-1", "alice", map[string]interface{}{"params": map[string]interface{}{}})
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	result := tools.Result{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.False(t, result.IsError)
	require.Len(t, result.Content, 1)
	assert.Contains(t, result.Content[0].Text, "my-worker")
}

func TestDispatchErrorStaysInsideEnvelope(t *testing.T) {
	server := testServer(t)

	resp := post(t, server, "/api/v1/tools/no_such_tool", "psk-1", "alice", map[string]interface{}{"params": map[string]interface{}{}})
	defer resp.Body.Close()

	// errors cross the boundary as content, not as HTTP failures
	require.Equal(t, http.StatusOK, resp.StatusCode)

	result := tools.Result{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.True(t, result.IsError)
	assert.Contains(t, result.Content[0].Text, "**Error**")
}
