// Package catalog maintains the capability catalog: the registry of node
// types the automation engine supports and their parameter/port schemas.
//
// The catalog serves reads from an immutable snapshot swapped by
// copy-on-write; readers never block on a refresh. A refresh is attempted
// when the snapshot TTL lapses, falling back to the last good snapshot (or
// the bundled static snapshot) when the engine's introspection endpoint is
// unavailable.
package catalog
