package tools

import (
	"context"
	"strings"

	"github.com/edgeops/deploy/pkg/config"
	"github.com/edgeops/deploy/pkg/secrets"
)

func (t *toolset) secretsApplyTool() Tool {
	return Tool{
		Name:        "secrets_apply",
		Description: "Apply a batch of worker secrets. Processes one secret per invocation; re-invoke with the same batch until nothing is pending.",
		Requires:    CapabilityDeploy,
		Schema: Schema{
			Type: "object",
			Properties: map[string]Property{
				"worker":  {Type: "string", Description: "Worker name."},
				"secrets": {Type: "array", Description: "List of {name, value} objects, applied in order."},
			},
			Required: []string{"worker", "secrets"},
		},
		Handler: t.secretsApply,
	}
}

func (t *toolset) secretsApply(ctx context.Context, call Call) Result {
	if !t.configured() {
		return Errf("%s", config.ErrNoCredentials)
	}

	worker := call.String("worker")

	raw, _ := call.Params["secrets"].([]interface{})
	inputs := make([]secrets.Input, 0, len(raw))
	for _, element := range raw {
		entry, ok := element.(map[string]interface{})
		if !ok {
			return Errf("each secret must be an object with name and value")
		}
		name, _ := entry["name"].(string)
		value, _ := entry["value"].(string)
		inputs = append(inputs, secrets.Input{Name: name, Value: value})
	}

	outcome, err := t.Secrets.Apply(ctx, call.Identity.Login, worker, inputs)
	if err != nil {
		return Errf("applying secrets to %q: %s", worker, err)
	}

	text := &strings.Builder{}
	text.WriteString("Secret batch status: " + string(outcome.Status) + "\n\n")
	for _, result := range outcome.Results {
		if len(result.Error) > 0 {
			text.WriteString("  " + result.Name + ": " + string(result.Status) + " (" + result.Error + ")\n")
		} else {
			text.WriteString("  " + result.Name + ": " + string(result.Status) + "\n")
		}
	}
	if len(outcome.Note) > 0 {
		text.WriteString("\n" + outcome.Note + "\n")
	}
	text.WriteString("\nEquivalent CLI invocations:\n")
	for _, command := range outcome.CLICommands {
		text.WriteString("  " + command + "\n")
	}

	return Ok(text.String())
}
