// Package compiler turns CUE tactic specifications into ir.Specification
// values and checks them.
//
// A specification is a CUE struct:
//
//	{
//		filter: "proof"            // optional state label, "*" for any
//		content: [
//			{text: "Let "},
//			{ref: "name"},
//			{repeat: [{text: ", "}, {ref: "more"}], until: [{text: "."}]},
//		]
//		actions: [{push: "case"}, {pop: true}]
//		structure: "begin_of_paragraph"  // or "end_of_paragraph"
//	}
//
// CompileSpecification decodes one value, Parser adapts it to the
// tactic.SpecParser interface, Validate reports structural problems with
// E1xx codes and AnalyzeStates reports W2xx warnings about how a set of
// tactics moves through state labels.
package compiler
