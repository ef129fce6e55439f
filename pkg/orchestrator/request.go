package orchestrator

import (
	"errors"
	"fmt"
	"regexp"
)

const (
	// MaxScriptSize bounds the code payload accepted by the orchestrator.
	MaxScriptSize = 1 << 20

	DefaultDurableObjectClass = "OAuthProvider"
)

var (
	ErrNameRequired   = errors.New("worker name is required")
	ErrScriptRequired = errors.New("script content is required")
	ErrScriptTooLarge = fmt.Errorf("script content exceeds %d bytes", MaxScriptSize)

	nameRegex = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

// Request describes one deployment. It is immutable once accepted by
// the orchestrator.
type Request struct {
	// Name of the worker, constrained to [A-Za-z0-9_-]+.
	Name string `json:"name"`
	// Script is the code payload deployed under Name.
	Script string `json:"script"`
	// Actor is the caller identity; deployed workers are reachable at
	// {name}.{actor}.{domain}.
	Actor       string `json:"actor"`
	Description string `json:"description,omitempty"`

	// Mandatory OAuth credential pair, provisioned as worker secrets.
	ClientID     string `json:"clientID"`
	ClientSecret string `json:"clientSecret"`

	// Optional auxiliary configuration, provisioned only if supplied.
	DatabaseURL     string `json:"databaseURL,omitempty"`
	BackingStoreURL string `json:"backingStoreURL,omitempty"`
	BackingStoreKey string `json:"backingStoreKey,omitempty"`

	// DurableObjectClass overrides the default stateful-object class
	// recorded in the generated configuration.
	DurableObjectClass string `json:"durableObjectClass,omitempty"`
}

// Validate rejects malformed requests before any remote call is made.
func (r *Request) Validate() error {
	if len(r.Name) == 0 {
		return ErrNameRequired
	}
	if !nameRegex.MatchString(r.Name) {
		return fmt.Errorf("worker name %q must match %s", r.Name, nameRegex.String())
	}
	if len(r.Script) == 0 {
		return ErrScriptRequired
	}
	if len(r.Script) > MaxScriptSize {
		return ErrScriptTooLarge
	}
	return nil
}

// NamespaceTitle is the name of the KV namespace created for the worker.
func (r *Request) NamespaceTitle() string {
	return fmt.Sprintf("%s-oauth-kv", r.Name)
}

func (r *Request) durableObjectClass() string {
	if len(r.DurableObjectClass) > 0 {
		return r.DurableObjectClass
	}
	return DefaultDurableObjectClass
}

// secrets returns the fixed ordered list of secrets to provision. The
// OAuth credential pair is always present; auxiliary values are
// included only if supplied.
func (r *Request) secrets() []secretValue {
	secrets := []secretValue{
		{name: "OAUTH_CLIENT_ID", text: r.ClientID},
		{name: "OAUTH_CLIENT_SECRET", text: r.ClientSecret},
	}
	if len(r.DatabaseURL) > 0 {
		secrets = append(secrets, secretValue{name: "DATABASE_URL", text: r.DatabaseURL})
	}
	if len(r.BackingStoreURL) > 0 {
		secrets = append(secrets, secretValue{name: "BACKING_STORE_URL", text: r.BackingStoreURL})
	}
	if len(r.BackingStoreKey) > 0 {
		secrets = append(secrets, secretValue{name: "BACKING_STORE_KEY", text: r.BackingStoreKey})
	}
	return secrets
}

type secretValue struct {
	name string
	text string
}
