package tools

import (
	"context"

	"github.com/edgeops/deploy/pkg/audit"
	"github.com/edgeops/deploy/pkg/config"
	"github.com/edgeops/deploy/pkg/d1"
)

func (t *toolset) d1QueryTool() Tool {
	return Tool{
		Name:        "d1_query",
		Description: "Run SQL against the managed D1 database. Write statements require the write_sql capability.",
		Requires:    CapabilityRead,
		Schema: Schema{
			Type: "object",
			Properties: map[string]Property{
				"sql": {Type: "string", Description: "SQL statement to execute."},
			},
			Required: []string{"sql"},
		},
		Handler: t.d1Query,
	}
}

func (t *toolset) d1Query(ctx context.Context, call Call) Result {
	if !t.configured() || len(t.Cloudflare.D1Database) == 0 {
		return Errf("%s", config.ErrNoCredentials)
	}

	sql := call.String("sql")
	if len(sql) == 0 {
		return Errf("sql statement is required")
	}

	kind := d1.Classify(sql)
	if kind == d1.KindDenied {
		return Errf("statement is not permitted through this tool")
	}

	// The registry gates this tool on read access only; write statements
	// carry their own capability check here.
	if kind == d1.KindWrite && !t.writePolicy(call.Identity) {
		return Errf("user %q does not have the %q capability required for write statements", call.Identity.Login, CapabilityWriteSQL)
	}

	result, err := t.D1.Query(ctx, sql)

	if kind == d1.KindWrite {
		t.Auditor.Record(ctx, audit.Record{
			Actor:     call.Identity.Login,
			Operation: "d1:write",
			Resource:  t.Cloudflare.D1Database,
			Success:   err == nil,
			Detail:    map[string]string{"sql": sql},
		})
	}

	if err != nil {
		return Errf("executing query: %s", err)
	}

	if kind == d1.KindWrite {
		return Okf("Statement executed; %d rows changed.", result.Changes)
	}

	return renderJSON(result.Rows)
}
