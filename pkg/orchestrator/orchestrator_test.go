package orchestrator_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/edgeops/deploy/pkg/audit"
	"github.com/edgeops/deploy/pkg/cloudflare"
	"github.com/edgeops/deploy/pkg/config"
	"github.com/edgeops/deploy/pkg/orchestrator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// recordingAuditor collects records in memory. failing simulates a
// broken persistence layer; per contract the recorder swallows the
// failure either way.
type recordingAuditor struct {
	sync.Mutex
	failing bool
	records []audit.Record
}

func (a *recordingAuditor) Record(ctx context.Context, record audit.Record) {
	a.Lock()
	defer a.Unlock()
	if a.failing {
		// pretend the write blew up; nothing must escape here
		return
	}
	a.records = append(a.records, record)
}

func validRequest() *orchestrator.Request {
	return &orchestrator.Request{
		Name:         "my-worker",
		Script:       "export default {}",
		Actor:        "alice",
		ClientID:     "client-id",
		ClientSecret: "client-secret",
	}
}

func testConfig() config.Cloudflare {
	return config.Cloudflare{
		AccountID: "acct-123",
		Domain:    "workers.dev",
	}
}

func happyClient() *cloudflare.MockClient {
	client := &cloudflare.MockClient{}
	client.On("CreateKVNamespace", mock.Anything, "my-worker-oauth-kv").
		Return(&cloudflare.KVNamespace{ID: "ns-0123", Title: "my-worker-oauth-kv"}, nil)
	client.On("UploadWorker", mock.Anything, "my-worker", "export default {}", mock.Anything).
		Return(&cloudflare.Script{ID: "my-worker"}, nil)
	client.On("PutSecret", mock.Anything, "my-worker", mock.Anything).
		Return(nil)
	return client
}

func TestDeployRejectsInvalidNameBeforeAnyRemoteCall(t *testing.T) {
	client := &cloudflare.MockClient{}
	orch := orchestrator.New(client, &recordingAuditor{}, testConfig())

	request := validRequest()
	request.Name = "bad name!"

	outcome, err := orch.Deploy(context.Background(), request)

	assert.Error(t, err)
	assert.Nil(t, outcome)
	client.AssertNumberOfCalls(t, "CreateKVNamespace", 0)
	client.AssertNumberOfCalls(t, "UploadWorker", 0)
	client.AssertNumberOfCalls(t, "PutSecret", 0)
}

func TestDeploySuccess(t *testing.T) {
	client := happyClient()
	auditor := &recordingAuditor{}
	orch := orchestrator.New(client, auditor, testConfig())

	outcome, err := orch.Deploy(context.Background(), validRequest())

	require.NoError(t, err)
	assert.Equal(t, orchestrator.OverallSuccess, outcome.Status)
	assert.Equal(t, "my-worker.alice.workers.dev", outcome.EndpointURL)
	assert.Len(t, outcome.Steps, 4)

	// config artifact reflects the namespace id returned by the provider
	assert.Contains(t, outcome.Config, `id = "ns-0123"`)
	assert.Contains(t, outcome.Config, `binding = "OAUTH_KV"`)
	assert.Contains(t, outcome.Config, `class_name = "OAuthProvider"`)
	assert.Contains(t, outcome.Summary, "my-worker.alice.workers.dev")

	// mandatory secret pair only; no auxiliary values were supplied
	client.AssertNumberOfCalls(t, "PutSecret", 2)

	// every phase outcome is mirrored to the audit log
	assert.Len(t, auditor.records, 4)
	for _, record := range auditor.records {
		assert.Equal(t, "alice", record.Actor)
		assert.Equal(t, "my-worker", record.Resource)
		assert.True(t, record.Success)
	}
}

func TestDeployFatalCodeDeployFailure(t *testing.T) {
	client := &cloudflare.MockClient{}
	client.On("CreateKVNamespace", mock.Anything, mock.Anything).
		Return(&cloudflare.KVNamespace{ID: "ns-0123"}, nil)
	client.On("UploadWorker", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("script startup threw an exception"))

	orch := orchestrator.New(client, &recordingAuditor{}, testConfig())

	outcome, err := orch.Deploy(context.Background(), validRequest())

	require.NoError(t, err)
	assert.Equal(t, orchestrator.OverallFailure, outcome.Status)

	// the namespace phase ran first and its result is preserved
	require.Len(t, outcome.Steps, 2)
	assert.Equal(t, orchestrator.PhaseNamespace, outcome.Steps[0].Phase)
	assert.Equal(t, orchestrator.StatusSuccess, outcome.Steps[0].Status)
	assert.Equal(t, orchestrator.PhaseCodeDeploy, outcome.Steps[1].Phase)
	assert.Equal(t, orchestrator.StatusFailed, outcome.Steps[1].Status)
	assert.Contains(t, outcome.Steps[1].Error, "script startup threw an exception")

	// phases after the fatal one are never attempted
	client.AssertNumberOfCalls(t, "PutSecret", 0)
}

func TestDeployNamespaceFailureIsNonFatal(t *testing.T) {
	client := &cloudflare.MockClient{}
	client.On("CreateKVNamespace", mock.Anything, mock.Anything).
		Return(nil, errors.New("quota exceeded"))
	client.On("UploadWorker", mock.Anything, "my-worker", mock.Anything, mock.Anything).
		Return(&cloudflare.Script{ID: "my-worker"}, nil)
	client.On("PutSecret", mock.Anything, mock.Anything, mock.Anything).
		Return(nil)

	orch := orchestrator.New(client, &recordingAuditor{}, testConfig())

	outcome, err := orch.Deploy(context.Background(), validRequest())

	require.NoError(t, err)
	assert.Equal(t, orchestrator.OverallPartial, outcome.Status)

	deploy := outcome.Steps[1]
	assert.Equal(t, orchestrator.PhaseCodeDeploy, deploy.Phase)
	assert.Equal(t, orchestrator.StatusSuccess, deploy.Status)

	// a failed namespace phase must not leak into the config artifact
	assert.NotContains(t, outcome.Config, "kv_namespaces")
}

func TestDeploySecretFailureDoesNotBlockRemainingSecrets(t *testing.T) {
	client := &cloudflare.MockClient{}
	client.On("CreateKVNamespace", mock.Anything, mock.Anything).
		Return(&cloudflare.KVNamespace{ID: "ns-0123"}, nil)
	client.On("UploadWorker", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&cloudflare.Script{ID: "my-worker"}, nil)
	client.On("PutSecret", mock.Anything, "my-worker", cloudflare.Secret{Name: "OAUTH_CLIENT_ID", Text: "client-id"}).
		Return(errors.New("remote API stalled"))
	client.On("PutSecret", mock.Anything, "my-worker", cloudflare.Secret{Name: "OAUTH_CLIENT_SECRET", Text: "client-secret"}).
		Return(nil)
	client.On("PutSecret", mock.Anything, "my-worker", cloudflare.Secret{Name: "DATABASE_URL", Text: "postgres://db"}).
		Return(nil)

	orch := orchestrator.New(client, &recordingAuditor{}, testConfig())

	request := validRequest()
	request.DatabaseURL = "postgres://db"

	outcome, err := orch.Deploy(context.Background(), request)

	require.NoError(t, err)
	assert.Equal(t, orchestrator.OverallPartial, outcome.Status)

	// all three secrets were attempted despite the first one failing
	client.AssertNumberOfCalls(t, "PutSecret", 3)

	secrets := outcome.Steps[3]
	assert.Equal(t, orchestrator.PhaseSecrets, secrets.Phase)
	assert.Equal(t, orchestrator.StatusFailed, secrets.Status)

	results, ok := secrets.Payload.([]orchestrator.SecretResult)
	require.True(t, ok)
	require.Len(t, results, 3)
	assert.Equal(t, orchestrator.StatusFailed, results[0].Status)
	assert.Equal(t, orchestrator.StatusSuccess, results[1].Status)
	assert.Equal(t, orchestrator.StatusSuccess, results[2].Status)
}

func TestDeployUnaffectedByAuditFailure(t *testing.T) {
	client := happyClient()
	orch := orchestrator.New(client, &recordingAuditor{failing: true}, testConfig())

	outcome, err := orch.Deploy(context.Background(), validRequest())

	require.NoError(t, err)
	assert.Equal(t, orchestrator.OverallSuccess, outcome.Status)
	assert.Len(t, outcome.Steps, 4)
}

func TestValidateRejectsOversizedScript(t *testing.T) {
	request := validRequest()
	request.Script = string(make([]byte, orchestrator.MaxScriptSize+1))

	assert.Error(t, request.Validate())
}
