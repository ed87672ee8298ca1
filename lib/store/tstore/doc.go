// Package tstore implements store.IStore on top of a single string-keyed
// table from the table engine. It is a thin adapter: all concurrency control,
// growth and ownership semantics are the engine's.
package tstore
