package orchestrator

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/edgeops/deploy/pkg/cloudflare"
	"github.com/edgeops/deploy/pkg/durable"
	log "github.com/sirupsen/logrus"
)

// CompatibilityDate pins the provider runtime behavior for uploaded
// workers and the generated configuration.
const CompatibilityDate = "2024-09-23"

type kvNamespaceBinding struct {
	Binding string `toml:"binding"`
	ID      string `toml:"id"`
}

type durableObjectBinding struct {
	Name      string `toml:"name"`
	ClassName string `toml:"class_name"`
}

type durableObjects struct {
	Bindings []durableObjectBinding `toml:"bindings"`
}

type migration struct {
	Tag        string   `toml:"tag"`
	NewClasses []string `toml:"new_classes"`
}

// wranglerConfig is the declarative configuration artifact describing
// the bindings, namespaces and migrations needed to make the deployment
// take full effect on the next redeploy.
type wranglerConfig struct {
	Name               string               `toml:"name"`
	Main               string               `toml:"main"`
	CompatibilityDate  string               `toml:"compatibility_date"`
	CompatibilityFlags []string             `toml:"compatibility_flags"`
	KVNamespaces       []kvNamespaceBinding `toml:"kv_namespaces,omitempty"`
	DurableObjects     *durableObjects      `toml:"durable_objects,omitempty"`
	Migrations         []migration          `toml:"migrations,omitempty"`
	Vars               map[string]string    `toml:"vars,omitempty"`
}

// renderWrangler generates the configuration document. Only phases that
// actually succeeded are reflected: a nil namespace leaves out the KV
// binding so the artifact never references resources that do not exist.
func renderWrangler(request *Request, namespace *cloudflare.KVNamespace, binding durable.Binding, accountID string) string {
	cfg := wranglerConfig{
		Name:               request.Name,
		Main:               "index.js",
		CompatibilityDate:  CompatibilityDate,
		CompatibilityFlags: []string{"nodejs_compat"},
		Vars: map[string]string{
			"ACCOUNT_ID": accountID,
		},
	}

	if namespace != nil {
		cfg.KVNamespaces = []kvNamespaceBinding{
			{Binding: "OAUTH_KV", ID: namespace.ID},
		}
	}

	cfg.DurableObjects = &durableObjects{
		Bindings: []durableObjectBinding{
			{Name: binding.Name, ClassName: binding.ClassName},
		},
	}
	cfg.Migrations = []migration{
		{Tag: "v1", NewClasses: []string{binding.ClassName}},
	}

	buf := &bytes.Buffer{}
	err := toml.NewEncoder(buf).Encode(cfg)
	if err != nil {
		// The struct is static; encoding can only fail on programming errors.
		log.Errorf("render wrangler config: %s", err)
		return ""
	}

	return buf.String()
}

// renderSummary produces the operator-facing report: overall status,
// per-phase outcomes, and the endpoints reachable once deployed.
func renderSummary(outcome *Outcome) string {
	builder := &strings.Builder{}

	fmt.Fprintf(builder, "Deployment of %q finished with status %s\n\n", outcome.Name, outcome.Status)

	fmt.Fprintf(builder, "Phase results:\n")
	for _, step := range outcome.Steps {
		if step.Status == StatusFailed {
			fmt.Fprintf(builder, "  %-15s %s: %s\n", step.Phase, step.Status, step.Error)
		} else {
			fmt.Fprintf(builder, "  %-15s %s\n", step.Phase, step.Status)
		}
	}

	if outcome.Status != OverallFailure {
		fmt.Fprintf(builder, "\nEndpoints:\n")
		for _, path := range []string{"/authorize", "/token", "/register"} {
			fmt.Fprintf(builder, "  https://%s%s\n", outcome.EndpointURL, path)
		}
	}

	return builder.String()
}
