// Package model defines the ten record kinds held by a lineage store and the
// value types embedded in them.
//
// This package contains type definitions and pure helpers only. It imports
// nothing internal, so every other package can depend on it.
//
// Key design constraints:
//   - Every record embeds Base, which carries the handle and the human ID
//   - References are always (Kind, Handle) pairs; the store never follows them
//   - All JSON tags use snake_case; the record codec reuses them for msgpack
package model
