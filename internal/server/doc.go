// Package server implements the httplab request engine on top of the wire
// framing in package wire.
//
// Owns:
//   - The accept loop, admission limit and one-request-per-connection lifecycle
//   - The path guard binding request paths to the served root
//   - Static file GET/HEAD/PUT/POST/DELETE and conditional GET
//   - The JSON resource store, its route table and its persistence backends
//   - The operator request log
//
// Does not own:
//   - Byte-level framing, request parsing and response serialization (wire)
//   - Configuration loading (shared) and process bootstrap (cmd/lab-server)
//
// Invariants:
//   - No handler runs for a path that normalizes outside the root; such
//     requests get 403 before any filesystem access
//   - The reserved subtree is never reachable through static routes
//   - Resource ids are unique per category and a new id is always one past
//     the current maximum
//   - Every resource mutation is persisted as a whole document before it is
//     visible to readers
//   - Every response that is written carries a Content-Length equal to the
//     body a GET would send, and Connection: close
package server
