// Package canonical turns request payloads into the byte strings that content
// envelopes sign and compare.
//
// # Semantics
//
// Canonicalization is syntactic. Member order is whatever the caller submitted:
// raw JSON keeps its order and literal values, Go structs serialize in field
// declaration order. Only insignificant whitespace between JSON tokens is
// dropped. Two payloads that differ only in member order therefore produce
// different bytes and will not match each other.
//
// # What this package must NOT do
//
//   - Sort, deduplicate or otherwise normalize object members.
//   - Sign or compare anything (see the signer and integrity packages).
package canonical
