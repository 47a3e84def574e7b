// Package grammar compiles tactic specifications into grammar fragments and
// runs them with an Earley chart parser.
//
// A Fragment is the self-contained rule set of one tactic. Fragments are
// compiled once and never change; Assemble unions the fragments active under
// one filter key into a Composite with a synthetic root alternation. The
// Parser keeps every viable derivation, so the same chart answers both "does
// a tactic match here" and "what input could extend this".
//
// Symbol allocation:
//
// Nonterminals are (fragment, local) pairs. The fragment id comes from the
// registry and is unique per process; the local index is a per-fragment arena
// counter. Composite roots live in fragment 0, which Compile never hands out.
//
// Snapshots:
//
// Chart columns are immutable once built. A Snapshot is a capacity-clipped
// slice of column pointers, so Save and Restore are O(1) and a later Feed on
// a restored parser can never overwrite a column another snapshot still sees.
package grammar
