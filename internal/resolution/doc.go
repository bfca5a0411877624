// Package resolution turns raw file observations into resolution outcomes.
//
// Resolution is pure inference: it parses the title and episode number out
// of a path, scores the parse against existing entities through a read-only
// catalog, and produces exactly one outcome per observation, either a
// resolution (match or creation intent) or a structured failure. No write is
// reachable from this package, results are deterministic for identical
// inputs, and ties between candidate entities break by confidence, then
// creation time, then id.
package resolution
