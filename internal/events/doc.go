// Package events provides the typed, synchronous, in-process event bus that
// coordinates the resolve and materialize pipeline, together with the event
// catalog itself.
//
// Dispatch is deliberately single-threaded: handlers for an event run in
// subscription order, and events published from inside a handler are fully
// drained before the outer Publish returns. This gives a strict depth-first
// causal ordering that is reproducible from the event log. Anything
// concurrent or slow must hand off to its own worker and re-enter through a
// new event; the bus never fans out on its own.
package events
