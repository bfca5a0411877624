// Package library persists the domain entities and the materialization
// ledger in SQLite.
//
// The Store owns the database connection, schema initialization, and all
// reads. Pipeline writes go through WithTx so that a domain mutation and its
// ledger record commit or roll back together; the ledger's unique fingerprint
// constraint is the single concurrency guard across writers. Ledger rows are
// append-only and reference entities softly, so deleting an entity later
// nulls the reference instead of invalidating the record.
//
// Treat this package as the single source of truth for storage semantics;
// when entities gain fields, update schema.sql and bump schemaVersion.
package library
