package tools

import (
	"context"
	"regexp"

	"github.com/edgeops/deploy/pkg/audit"
	"github.com/edgeops/deploy/pkg/config"
)

var namespaceTitleRegex = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

func (t *toolset) kvNamespaceCreateTool() Tool {
	return Tool{
		Name:        "kv_namespace_create",
		Description: "Create a key-value namespace.",
		Requires:    CapabilityDeploy,
		Schema: Schema{
			Type: "object",
			Properties: map[string]Property{
				"title": {Type: "string", Description: "Namespace title, [A-Za-z0-9_-]+."},
			},
			Required: []string{"title"},
		},
		Handler: t.kvNamespaceCreate,
	}
}

func (t *toolset) kvNamespaceCreate(ctx context.Context, call Call) Result {
	if !t.configured() {
		return Errf("%s", config.ErrNoCredentials)
	}

	title := call.String("title")
	if !namespaceTitleRegex.MatchString(title) {
		return Errf("namespace title %q must match %s", title, namespaceTitleRegex.String())
	}

	namespace, err := t.Client.CreateKVNamespace(ctx, title)
	t.Auditor.Record(ctx, audit.Record{
		Actor:     call.Identity.Login,
		Operation: "kv:create",
		Resource:  title,
		Success:   err == nil,
	})
	if err != nil {
		return Errf("creating namespace %q: %s", title, err)
	}

	return Okf("Namespace %q created with id %s.", namespace.Title, namespace.ID)
}
