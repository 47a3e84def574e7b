// Package harness runs conformance scenarios against a real engine.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: proof_basics
//	description: "Let, Apply and Qed inside a proof"
//	builtin: true            # start from the built-in tactics (default)
//	catalogs: [tactics]      # catalog directories, relative to the file
//	catalog:                 # inline tactics
//	  - name: Done
//	    spec: {filter: proof, content: [{text: "Done."}], actions: [{pop: true}]}
//	    transform: "'Qed.'"
//	steps:
//	  - parse: "Let x."
//	    stack: [proof]
//	    expect: {tactic: Let, values: {name: x}, end: 6}
//	  - chain: "Let x.By h.Qed."
//	    stack: [proof]
//	    expect: {tactics: [Let, Apply, Qed], stack: []}
//	  - predict: "Qe"
//	    stack: [proof]
//	    expect: {outcome: continuations, paths: ['"d." $']}
//	  - check: |
//	      Theorem t: P.
//	      Proof.
//	        Qed.
//	    expect: {errors: 0, script: "Theorem t : P.\nProof.\nQed.\n"}
//	assertions:
//	  - type: trace_contains
//	    tactic: Let
//	    values: {name: x}
//	  - type: final_state
//	    table: documents
//	    where: {id: doc-1}
//	    expect: {fatal: 0}
//
// # Assertion Types
//
//   - trace_contains: a matched tactic appears in the trace with matching values
//   - trace_order: tactics appear in the given order
//   - trace_count: a tactic appears exactly N times
//   - final_state: queries the transcript store and checks one row
//
// # Deterministic Testing
//
// Every run uses a fresh in-memory store, a deterministic logical clock and
// sequential report IDs (doc-1, doc-2, ...), so traces are byte-identical
// across runs and can be compared against golden files.
package harness
