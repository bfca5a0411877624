// Package materialize turns resolution facts into durable library entities.
//
// Every application runs inside a single transaction: the entity writes and
// the ledger record commit together or not at all. The ledger's unique
// fingerprint constraint makes replays and concurrent writers safe; the
// loser of a duplicate-fingerprint race reads the winner's record and
// reports a skip, never an error.
package materialize
