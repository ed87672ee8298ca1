// Package store defines IStore, the convenience interface for embedding a
// string-keyed table without dealing with the engine's handle and error
// discipline directly. Implementations live in sub-packages; tstore is the
// one backed by the table engine in this repository.
package store
