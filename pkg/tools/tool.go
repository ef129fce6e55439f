package tools

import (
	"context"
	"fmt"
	"sort"

	"github.com/edgeops/deploy/pkg/metrics"
	log "github.com/sirupsen/logrus"
)

// Identity is the caller record supplied by the upstream authentication
// layer. This package never extracts identities itself.
type Identity struct {
	Login string `json:"login"`
}

type Capability string

const (
	// CapabilityRead covers listing and reading resources and read-only SQL.
	CapabilityRead Capability = "read"
	// CapabilityDeploy covers provisioning operations: deploy, delete,
	// namespaces, secrets, bindings.
	CapabilityDeploy Capability = "deploy"
	// CapabilityWriteSQL covers SQL statements classified as writes.
	CapabilityWriteSQL Capability = "write_sql"
)

type Capabilities []Capability

func (c Capabilities) Has(capability Capability) bool {
	for _, have := range c {
		if have == capability {
			return true
		}
	}
	return false
}

// Policy maps a caller identity to its capability set. The policy is
// injected so access lists live in configuration, not in code.
type Policy func(identity Identity) Capabilities

// AllowListPolicy grants read access to everyone and full access to the
// listed logins.
func AllowListPolicy(privileged []string) Policy {
	allowed := make(map[string]bool, len(privileged))
	for _, login := range privileged {
		allowed[login] = true
	}

	return func(identity Identity) Capabilities {
		if allowed[identity.Login] {
			return Capabilities{CapabilityRead, CapabilityDeploy, CapabilityWriteSQL}
		}
		return Capabilities{CapabilityRead}
	}
}

// Content is one element of the uniform tool response envelope.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Result is the envelope crossing the tool boundary. Errors are carried
// as textual content, never as Go errors or panics reaching the
// dispatch layer.
type Result struct {
	Content []Content `json:"content"`
	IsError bool      `json:"isError,omitempty"`
}

func Ok(text string) Result {
	return Result{
		Content: []Content{{Type: "text", Text: text}},
	}
}

func Okf(format string, args ...interface{}) Result {
	return Ok(fmt.Sprintf(format, args...))
}

func Errf(format string, args ...interface{}) Result {
	return Result{
		Content: []Content{{Type: "text", Text: "**Error** " + fmt.Sprintf(format, args...)}},
		IsError: true,
	}
}

// Call carries one invocation's identity and parameters.
type Call struct {
	Identity Identity               `json:"identity"`
	Params   map[string]interface{} `json:"params"`
}

func (c *Call) String(key string) string {
	value, _ := c.Params[key].(string)
	return value
}

func (c *Call) StringSlice(key string) []string {
	raw, ok := c.Params[key].([]interface{})
	if !ok {
		return nil
	}
	values := make([]string, 0, len(raw))
	for _, element := range raw {
		if value, ok := element.(string); ok {
			values = append(values, value)
		}
	}
	return values
}

func (c *Call) Bool(key string) bool {
	value, _ := c.Params[key].(bool)
	return value
}

// Schema describes a tool's parameters to the dispatch layer.
type Schema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required,omitempty"`
}

type Property struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

type Handler func(ctx context.Context, call Call) Result

type Tool struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Schema      Schema     `json:"inputSchema"`
	Requires    Capability `json:"-"`
	Handler     Handler    `json:"-"`
}

// Registry maps tool names to handlers and gates every dispatch on the
// injected authorization policy.
type Registry struct {
	policy Policy
	tools  map[string]Tool
}

func NewRegistry(policy Policy) *Registry {
	return &Registry{
		policy: policy,
		tools:  make(map[string]Tool),
	}
}

func (r *Registry) Register(tool Tool) {
	r.tools[tool.Name] = tool
}

// List returns all registered tools in stable order.
func (r *Registry) List() []Tool {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)

	listed := make([]Tool, 0, len(names))
	for _, name := range names {
		listed = append(listed, r.tools[name])
	}
	return listed
}

// Dispatch resolves a tool by name, enforces the caller's capabilities,
// and runs the handler. Nothing escapes as an unhandled fault: unknown
// tools, denied callers and panicking handlers all come back as error
// results.
func (r *Registry) Dispatch(ctx context.Context, name string, call Call) (result Result) {
	tool, ok := r.tools[name]
	if !ok {
		return Errf("unknown tool %q", name)
	}

	if !r.policy(call.Identity).Has(tool.Requires) {
		metrics.ToolInvocation(name, fmt.Errorf("denied"))
		return Errf("user %q does not have the %q capability required by %s", call.Identity.Login, tool.Requires, name)
	}

	defer func() {
		if recovered := recover(); recovered != nil {
			log.Errorf("tool %s panicked: %v", name, recovered)
			result = Errf("internal error in tool %s", name)
		}
	}()

	result = tool.Handler(ctx, call)

	var err error
	if result.IsError {
		err = fmt.Errorf("tool error")
	}
	metrics.ToolInvocation(name, err)

	return result
}
