// Package sqlite implements the SQLite storage backend for Walkabout
// session records.
// See docs/ARCHITECTURE.md § Session Store.
package sqlite

// schemaVersion is the PRAGMA user_version written by a fresh Attach.
// Schema-drift recovery reopens at a strictly higher version.
const schemaVersion = 1

// DDL for the sessions table. All statements are idempotent so the drift
// recovery path can re-execute them against a partially-created database.
const createSessions = `CREATE TABLE IF NOT EXISTS sessions (
    session_id TEXT PRIMARY KEY,
    owner_id TEXT NOT NULL,
    subject_id TEXT NOT NULL,
    flow_kind TEXT NOT NULL,
    lifecycle TEXT NOT NULL,
    workflow_complete INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL,
    last_active_at TEXT NOT NULL,
    completed_at TEXT,
    terminated_at TEXT,
    report_reference TEXT NOT NULL DEFAULT '',
    owner_profile TEXT,
    subject_profile TEXT,
    progress TEXT NOT NULL
);`

// Secondary indexes supporting owner-scoped listing and cleanup jobs.
const (
	idxSessionsOwner     = `CREATE INDEX IF NOT EXISTS idx_sessions_owner ON sessions(owner_id);`
	idxSessionsSubject   = `CREATE INDEX IF NOT EXISTS idx_sessions_subject ON sessions(subject_id);`
	idxSessionsLifecycle = `CREATE INDEX IF NOT EXISTS idx_sessions_lifecycle ON sessions(lifecycle);`
	idxSessionsCreated   = `CREATE INDEX IF NOT EXISTS idx_sessions_created ON sessions(created_at);`
)

// schemaDDL lists all CREATE TABLE statements.
var schemaDDL = []string{
	createSessions,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxSessionsOwner,
	idxSessionsSubject,
	idxSessionsLifecycle,
	idxSessionsCreated,
}
