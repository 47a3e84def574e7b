// Package catalog loads tactic definitions from CUE and YAML files and
// installs them into a tactic.Registry.
//
// A CUE catalog is a directory of .cue files forming one instance:
//
//	tactic: Let: {
//		spec: content: [{text: "Let "}, {ref: "name"}, {text: "."}]
//		transform: "'intros %s.' % name"
//	}
//
// A YAML catalog lists the same fields under a top-level "tactics" key.
// Entries keep declaration order: CUE fields first, then YAML files in
// lexical order. Registration order decides ties between tactics, so the
// order of a catalog is part of its meaning.
package catalog
