package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/edgeops/deploy/pkg/durable"
)

func (t *toolset) durableObjectConfigureTool() Tool {
	return Tool{
		Name:        "durable_object_configure",
		Description: "Generate the declarative configuration and instructions for binding a durable object class to a worker. Makes no remote calls.",
		Requires:    CapabilityDeploy,
		Schema: Schema{
			Type: "object",
			Properties: map[string]Property{
				"worker":          {Type: "string", Description: "Worker name."},
				"className":       {Type: "string", Description: "Durable object class name."},
				"scriptName":      {Type: "string", Description: "Worker implementing the class, if not the worker being configured."},
				"firstDeployment": {Type: "boolean", Description: "Set when the class is new and needs a migration stanza."},
			},
			Required: []string{"worker", "className"},
		},
		Handler: t.durableObjectConfigure,
	}
}

func (t *toolset) durableObjectConfigure(ctx context.Context, call Call) Result {
	result, err := durable.Configure(call.String("worker"), call.String("className"), durable.Options{
		ScriptName:      call.String("scriptName"),
		FirstDeployment: call.Bool("firstDeployment"),
	})
	if err != nil {
		return Errf("configuring durable object: %s", err)
	}

	text := &strings.Builder{}
	text.WriteString("Durable object binding " + result.Binding.Name + " for class " + result.Binding.ClassName + "\n\n")
	text.WriteString("Configuration:\n\n" + result.Config + "\n")
	text.WriteString("Steps:\n")
	for i, instruction := range result.Instructions {
		fmt.Fprintf(text, "  %d. %s\n", i+1, instruction)
	}

	return Ok(text.String())
}
