// Package tactic holds registered tactics and the registry that compiles
// them.
//
// A Registry is an explicit, constructible value: the server and the CLI
// each build one from a catalog, and tests build isolated ones. Registries
// are append-only. Registration order is significant: it breaks ties when
// two tactics match the same input with the same length.
//
// Source text is the identity key. Registering the same source twice under
// the same name returns the existing tactic; under a different name it
// fails with a ConflictError.
package tactic
