// Package registry holds the derived lookups a store keeps beside its
// tables: the sorted surname list, per-given-name gender tallies and the sets
// of user-defined type names.
//
// Registries are caches. The store loads them from a metadata snapshot at
// open, mutates them as records are committed, writes them back at close and
// can rebuild them from the primary rows at any time. None of them is safe
// for concurrent mutation.
package registry
