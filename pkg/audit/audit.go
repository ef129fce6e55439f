package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/edgeops/deploy/pkg/metrics"
	"github.com/jackc/pgx/v4/pgxpool"
	log "github.com/sirupsen/logrus"
)

// Record is one append-only audit entry. Detail is marshaled to JSON
// and stored alongside the row; it is never read back by this system.
type Record struct {
	Actor     string      `json:"actor"`
	Operation string      `json:"operation"`
	Resource  string      `json:"resource"`
	Success   bool        `json:"success"`
	Detail    interface{} `json:"detail,omitempty"`
	Created   time.Time   `json:"created"`
}

// Recorder appends operation records to a persistent store. Writes are
// best-effort: a failed append is logged and swallowed, never allowed
// to mask the primary operation's result.
type Recorder interface {
	Record(ctx context.Context, record Record)
}

type Database struct {
	conn *pgxpool.Pool
}

var _ Recorder = &Database{}

func New(ctx context.Context, dsn string) (*Database, error) {
	conn, err := pgxpool.Connect(ctx, dsn)
	if err != nil {
		return nil, err
	}

	return &Database{
		conn: conn,
	}, nil
}

func (db *Database) Migrate(ctx context.Context) error {
	var version int

	query := `SELECT MAX(version) FROM migrations`
	row := db.conn.QueryRow(ctx, query)
	err := row.Scan(&version)

	if err != nil {
		// error might be due to no schema.
		// no way to detect this, so log error and continue with migrations.
		log.Warnf("unable to get current migration version: %s", err)
	}

	for version < len(migrations) {
		log.Infof("migrating audit schema to version %d", version+1)

		_, err = db.conn.Exec(ctx, migrations[version])
		if err != nil {
			return err
		}

		version++
	}

	return nil
}

func (db *Database) Record(ctx context.Context, record Record) {
	if record.Created.IsZero() {
		record.Created = time.Now()
	}

	detail, err := json.Marshal(record.Detail)
	if err != nil {
		log.Errorf("audit: marshal detail for %s on %q: %s", record.Operation, record.Resource, err)
		detail = []byte("{}")
	}

	query := `
INSERT INTO audit_log (actor, operation, resource, success, detail, created)
VALUES ($1, $2, $3, $4, $5, $6);
`
	now := time.Now()
	_, err = db.conn.Exec(ctx, query, record.Actor, record.Operation, record.Resource, record.Success, detail, record.Created)
	metrics.DatabaseQuery(now, err)

	if err != nil {
		log.Errorf("audit: record %s on %q by %q: %s", record.Operation, record.Resource, record.Actor, err)
	}
}

// Discard is used when no audit database is configured.
type Discard struct{}

var _ Recorder = Discard{}

func (Discard) Record(ctx context.Context, record Record) {
	log.WithFields(log.Fields{
		"actor":     record.Actor,
		"operation": record.Operation,
		"resource":  record.Resource,
		"success":   record.Success,
	}).Debug("audit record discarded; no audit database configured")
}
