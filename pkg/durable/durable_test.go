package durable_test

import (
	"testing"

	"github.com/edgeops/deploy/pkg/durable"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBindingName(t *testing.T) {
	assert.Equal(t, "OAUTHPROVIDER_BINDING", durable.BindingName("OAuthProvider"))
	assert.Equal(t, "COUNTER_BINDING", durable.BindingName("Counter"))
}

func TestConfigure(t *testing.T) {
	result, err := durable.Configure("my-worker", "SessionStore", durable.Options{FirstDeployment: true})

	require.NoError(t, err)
	assert.Equal(t, "SESSIONSTORE_BINDING", result.Binding.Name)
	assert.Equal(t, "SessionStore", result.Binding.ClassName)
	assert.NotEmpty(t, result.Binding.NamespaceID)

	assert.Contains(t, result.Config, `class_name = "SessionStore"`)
	assert.Contains(t, result.Config, `new_classes = ["SessionStore"]`)
	require.Len(t, result.Instructions, 4)
	assert.Contains(t, result.Instructions[3], "migration")
}

func TestConfigureWithoutMigration(t *testing.T) {
	result, err := durable.Configure("my-worker", "SessionStore", durable.Options{})

	require.NoError(t, err)
	assert.NotContains(t, result.Config, "migrations")
}

func TestConfigureWithExternalScript(t *testing.T) {
	result, err := durable.Configure("my-worker", "SessionStore", durable.Options{ScriptName: "session-service"})

	require.NoError(t, err)
	assert.Contains(t, result.Config, `script_name = "session-service"`)
}

func TestConfigureRejectsMalformedInput(t *testing.T) {
	_, err := durable.Configure("", "SessionStore", durable.Options{})
	assert.Error(t, err)

	_, err = durable.Configure("my-worker", "", durable.Options{})
	assert.Error(t, err)
}
