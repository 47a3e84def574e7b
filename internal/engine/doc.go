// Package engine runs registered tactics over text.
//
// An Engine wraps a tactic.Registry and memoizes one composite grammar per
// (registry version, active filter key). Every call builds a fresh chart
// parser over the memoized composite, so calls are independent and an
// Engine is safe for concurrent use.
//
// Three operations are exposed:
//
//   - ParseOne finds the longest prefix of the input matched by one tactic.
//   - ParseChain repeats ParseOne along a line, threading the state stack.
//   - Predict lists the observable continuations of a partial input.
//
// All positions reported to callers are byte offsets into the input.
package engine
