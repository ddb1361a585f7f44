// Package harness runs YAML scenarios against a fresh tree and compares the
// resulting event trace with golden files.
//
// A scenario is a list of steps (begin, add, update, remove, commit, abort,
// undo, redo) followed by assertions on the final store state. Records are
// written as JSON-shaped YAML using the model's field names; a string value
// "@alias" is replaced by the handle of the record added under that alias.
//
// Steps outside an explicit begin/commit pair run in a transaction of their
// own, so each is one undo step.
//
// Example:
//
//	name: surname_rename
//	description: A surname stays listed while anyone bears it
//	steps:
//	  - op: add
//	    kind: person
//	    as: ann
//	    record: {primary_name: {first: Ann, surnames: [{surname: Smith}]}}
//	assertions:
//	  - {type: surnames, values: [Smith]}
//
// Every run uses sequential handles (H0001, H0002, ...) and an in-memory undo
// log, so the same scenario always produces the same trace.
package harness
