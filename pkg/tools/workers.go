package tools

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/edgeops/deploy/pkg/audit"
	"github.com/edgeops/deploy/pkg/config"
	"github.com/edgeops/deploy/pkg/orchestrator"
)

func (t *toolset) workerDeployTool() Tool {
	return Tool{
		Name:        "worker_deploy",
		Description: "Deploy a worker with KV namespace, durable object binding and secrets. Returns per-phase results and a wrangler configuration document.",
		Requires:    CapabilityDeploy,
		Schema: Schema{
			Type: "object",
			Properties: map[string]Property{
				"name":              {Type: "string", Description: "Worker name, [A-Za-z0-9_-]+."},
				"script":            {Type: "string", Description: "Worker script content."},
				"clientID":          {Type: "string", Description: "OAuth client ID, stored as a secret."},
				"clientSecret":      {Type: "string", Description: "OAuth client secret, stored as a secret."},
				"databaseURL":       {Type: "string", Description: "Optional database URL secret."},
				"backingStoreURL":   {Type: "string", Description: "Optional backing store URL secret."},
				"backingStoreKey":   {Type: "string", Description: "Optional backing store key secret."},
				"durableObjectClass": {Type: "string", Description: "Durable object class name recorded in the generated configuration."},
			},
			Required: []string{"name", "script", "clientID", "clientSecret"},
		},
		Handler: t.workerDeploy,
	}
}

func (t *toolset) workerDeploy(ctx context.Context, call Call) Result {
	if !t.configured() {
		return Errf("%s", config.ErrNoCredentials)
	}

	request := &orchestrator.Request{
		Name:               call.String("name"),
		Script:             call.String("script"),
		Actor:              call.Identity.Login,
		ClientID:           call.String("clientID"),
		ClientSecret:       call.String("clientSecret"),
		DatabaseURL:        call.String("databaseURL"),
		BackingStoreURL:    call.String("backingStoreURL"),
		BackingStoreKey:    call.String("backingStoreKey"),
		DurableObjectClass: call.String("durableObjectClass"),
	}

	outcome, err := t.Orchestrator.Deploy(ctx, request)
	if err != nil {
		return Errf("deploying worker %q: %s", request.Name, err)
	}

	text := &strings.Builder{}
	text.WriteString(outcome.Summary)
	if len(outcome.Config) > 0 {
		text.WriteString("\nGenerated wrangler configuration:\n\n")
		text.WriteString(outcome.Config)
	}

	if outcome.Status == orchestrator.OverallFailure {
		return Errf("deployment of %q failed\n\n%s", request.Name, text.String())
	}

	return Ok(text.String())
}

func (t *toolset) workerListTool() Tool {
	return Tool{
		Name:        "worker_list",
		Description: "List all deployed workers on the account.",
		Requires:    CapabilityRead,
		Schema: Schema{
			Type:       "object",
			Properties: map[string]Property{},
		},
		Handler: t.workerList,
	}
}

func (t *toolset) workerList(ctx context.Context, call Call) Result {
	if !t.configured() {
		return Errf("%s", config.ErrNoCredentials)
	}

	scripts, err := t.Client.ListWorkers(ctx)
	if err != nil {
		return Errf("listing workers: %s", err)
	}

	return renderJSON(scripts)
}

func (t *toolset) workerGetTool() Tool {
	return Tool{
		Name:        "worker_get",
		Description: "Get settings for one worker. Falls back to a best-effort result synthesized from the domains listing if the settings endpoint has no record.",
		Requires:    CapabilityRead,
		Schema: Schema{
			Type: "object",
			Properties: map[string]Property{
				"name": {Type: "string", Description: "Worker name."},
			},
			Required: []string{"name"},
		},
		Handler: t.workerGet,
	}
}

func (t *toolset) workerGet(ctx context.Context, call Call) Result {
	if !t.configured() {
		return Errf("%s", config.ErrNoCredentials)
	}

	name := call.String("name")
	if len(name) == 0 {
		return Errf("worker name is required")
	}

	info, err := t.Client.GetWorker(ctx, name)
	if err != nil {
		return Errf("getting worker %q: %s", name, err)
	}

	result := renderJSON(info)
	if info.Degraded {
		result.Content = append(result.Content, Content{
			Type: "text",
			Text: "Note: the settings endpoint had no record of this worker; the result above was synthesized from the domains listing and may be incomplete.",
		})
	}

	return result
}

func (t *toolset) workerDeleteTool() Tool {
	return Tool{
		Name:        "worker_delete",
		Description: "Delete a deployed worker.",
		Requires:    CapabilityDeploy,
		Schema: Schema{
			Type: "object",
			Properties: map[string]Property{
				"name": {Type: "string", Description: "Worker name."},
			},
			Required: []string{"name"},
		},
		Handler: t.workerDelete,
	}
}

func (t *toolset) workerDelete(ctx context.Context, call Call) Result {
	if !t.configured() {
		return Errf("%s", config.ErrNoCredentials)
	}

	name := call.String("name")
	if len(name) == 0 {
		return Errf("worker name is required")
	}

	err := t.Client.DeleteWorker(ctx, name)
	t.Auditor.Record(ctx, audit.Record{
		Actor:     call.Identity.Login,
		Operation: "worker:delete",
		Resource:  name,
		Success:   err == nil,
	})
	if err != nil {
		return Errf("deleting worker %q: %s", name, err)
	}

	return Okf("Worker %q deleted.", name)
}

func renderJSON(payload interface{}) Result {
	text, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return Errf("rendering response: %s", err)
	}
	return Ok(string(text))
}
