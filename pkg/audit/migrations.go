package audit

var migrations = []string{
	// version 1
	`
CREATE TABLE migrations
(
    version   INT PRIMARY KEY NOT NULL,
    created   TIMESTAMP WITH TIME ZONE NOT NULL
);
CREATE TABLE audit_log
(
    id        BIGSERIAL PRIMARY KEY,
    actor     VARCHAR(255) NOT NULL,
    operation VARCHAR(63) NOT NULL,
    resource  VARCHAR(255) NOT NULL,
    success   BOOLEAN NOT NULL,
    detail    JSONB NOT NULL DEFAULT '{}',
    created   TIMESTAMP WITH TIME ZONE NOT NULL
);
CREATE INDEX audit_log_actor ON audit_log (actor);
CREATE INDEX audit_log_resource ON audit_log (resource);
INSERT INTO migrations (version, created) VALUES (1, now());
`,
}
