// Package document checks a whole proof document: a tree of paragraphs
// whose lines are chains of tactics.
//
// Checking walks the tree in order and threads the state stack from line
// to line. Every line is cut into chunks: recognized tactics, comments,
// and errors for text nothing recognized or for tactics in a place the
// structure does not allow. A Report collects the chunks together with
// the command script generated from the recognized tactics.
package document
