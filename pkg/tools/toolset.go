package tools

import (
	"github.com/edgeops/deploy/pkg/audit"
	"github.com/edgeops/deploy/pkg/cloudflare"
	"github.com/edgeops/deploy/pkg/config"
	"github.com/edgeops/deploy/pkg/d1"
	"github.com/edgeops/deploy/pkg/orchestrator"
	"github.com/edgeops/deploy/pkg/secrets"
)

// Deps carries the collaborators shared by all tool handlers.
type Deps struct {
	Cloudflare   config.Cloudflare
	Client       cloudflare.Client
	D1           d1.Client
	Orchestrator *orchestrator.Orchestrator
	Secrets      *secrets.Processor
	Auditor      audit.Recorder
}

type toolset struct {
	Deps
	policy Policy
}

func (t *toolset) writePolicy(identity Identity) bool {
	return t.policy(identity).Has(CapabilityWriteSQL)
}

// configured reports whether the provider API can be called at all.
// Checked first in every handler so missing credentials short-circuit
// before any remote call is attempted.
func (t *toolset) configured() bool {
	return t.Cloudflare.HasCredentials()
}

// DefaultRegistry wires up the full tool surface.
func DefaultRegistry(policy Policy, deps Deps) *Registry {
	registry := NewRegistry(policy)
	ts := &toolset{Deps: deps, policy: policy}

	registry.Register(ts.workerDeployTool())
	registry.Register(ts.workerListTool())
	registry.Register(ts.workerGetTool())
	registry.Register(ts.workerDeleteTool())
	registry.Register(ts.kvNamespaceCreateTool())
	registry.Register(ts.secretsApplyTool())
	registry.Register(ts.durableObjectConfigureTool())
	registry.Register(ts.d1QueryTool())

	return registry
}
