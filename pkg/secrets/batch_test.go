package secrets_test

import (
	"context"
	"errors"
	"testing"

	"github.com/edgeops/deploy/pkg/audit"
	"github.com/edgeops/deploy/pkg/cloudflare"
	"github.com/edgeops/deploy/pkg/orchestrator"
	"github.com/edgeops/deploy/pkg/secrets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type nullAuditor struct{}

func (nullAuditor) Record(ctx context.Context, record audit.Record) {}

func batch() []secrets.Input {
	return []secrets.Input{
		{Name: "OAUTH_CLIENT_ID", Value: "id"},
		{Name: "OAUTH_CLIENT_SECRET", Value: "secret"},
		{Name: "DATABASE_URL", Value: "postgres://db"},
	}
}

func TestApplyProcessesExactlyOneSecretPerInvocation(t *testing.T) {
	client := &cloudflare.MockClient{}
	client.On("PutSecret", mock.Anything, "my-worker", cloudflare.Secret{Name: "OAUTH_CLIENT_ID", Text: "id"}).
		Return(nil).Once()

	processor := secrets.NewProcessor(client, nullAuditor{})

	outcome, err := processor.Apply(context.Background(), "alice", "my-worker", batch())

	require.NoError(t, err)
	assert.Equal(t, orchestrator.OverallPartial, outcome.Status)
	assert.Equal(t, []string{"OAUTH_CLIENT_SECRET", "DATABASE_URL"}, outcome.Pending)
	assert.Contains(t, outcome.Note, "invoke again")
	client.AssertNumberOfCalls(t, "PutSecret", 1)

	require.Len(t, outcome.Results, 3)
	assert.Equal(t, orchestrator.StatusSuccess, outcome.Results[0].Status)
	assert.Equal(t, orchestrator.StatusPending, outcome.Results[1].Status)
	assert.Equal(t, orchestrator.StatusPending, outcome.Results[2].Status)
}

func TestApplySecondInvocationProcessesNextSecret(t *testing.T) {
	client := &cloudflare.MockClient{}
	client.On("PutSecret", mock.Anything, "my-worker", cloudflare.Secret{Name: "OAUTH_CLIENT_SECRET", Text: "secret"}).
		Return(nil).Once()

	processor := secrets.NewProcessor(client, nullAuditor{})

	// the caller re-invokes with the remaining secrets in order
	outcome, err := processor.Apply(context.Background(), "alice", "my-worker", batch()[1:])

	require.NoError(t, err)
	assert.Equal(t, orchestrator.OverallPartial, outcome.Status)
	assert.Equal(t, []string{"DATABASE_URL"}, outcome.Pending)
	client.AssertNumberOfCalls(t, "PutSecret", 1)
}

func TestApplySingleSecretSuccess(t *testing.T) {
	client := &cloudflare.MockClient{}
	client.On("PutSecret", mock.Anything, "my-worker", mock.Anything).Return(nil).Once()

	processor := secrets.NewProcessor(client, nullAuditor{})

	outcome, err := processor.Apply(context.Background(), "alice", "my-worker", batch()[:1])

	require.NoError(t, err)
	assert.Equal(t, orchestrator.OverallSuccess, outcome.Status)
	assert.Empty(t, outcome.Pending)
}

func TestApplyFailureWithNothingSucceeded(t *testing.T) {
	client := &cloudflare.MockClient{}
	client.On("PutSecret", mock.Anything, "my-worker", mock.Anything).
		Return(errors.New("remote API stalled")).Once()

	processor := secrets.NewProcessor(client, nullAuditor{})

	outcome, err := processor.Apply(context.Background(), "alice", "my-worker", batch())

	require.NoError(t, err)
	assert.Equal(t, orchestrator.OverallFailure, outcome.Status)
	assert.Equal(t, orchestrator.StatusFailed, outcome.Results[0].Status)
	assert.Contains(t, outcome.Results[0].Error, "remote API stalled")
}

func TestApplyGeneratesEquivalentCLIInvocations(t *testing.T) {
	client := &cloudflare.MockClient{}
	client.On("PutSecret", mock.Anything, "my-worker", mock.Anything).Return(nil).Once()

	processor := secrets.NewProcessor(client, nullAuditor{})

	outcome, err := processor.Apply(context.Background(), "alice", "my-worker", batch())

	require.NoError(t, err)
	assert.Equal(t, []string{
		"npx wrangler secret put OAUTH_CLIENT_ID --name my-worker",
		"npx wrangler secret put OAUTH_CLIENT_SECRET --name my-worker",
		"npx wrangler secret put DATABASE_URL --name my-worker",
	}, outcome.CLICommands)
}

func TestApplyRejectsMalformedInputBeforeAnyRemoteCall(t *testing.T) {
	client := &cloudflare.MockClient{}
	processor := secrets.NewProcessor(client, nullAuditor{})

	_, err := processor.Apply(context.Background(), "alice", "bad name!", batch())
	assert.Error(t, err)

	_, err = processor.Apply(context.Background(), "alice", "my-worker", nil)
	assert.Error(t, err)

	_, err = processor.Apply(context.Background(), "alice", "my-worker", []secrets.Input{{Name: "not valid", Value: "x"}})
	assert.Error(t, err)

	client.AssertNumberOfCalls(t, "PutSecret", 0)
}
