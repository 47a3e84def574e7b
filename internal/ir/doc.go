// Package ir provides the data model shared by every cnl package.
//
// This package contains type definitions and pure helpers only. All other
// internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Specification and Node are immutable once produced by a spec parser
//   - Node is a tagged union; switch on Kind, never type-assert
//   - Stack is never mutated in place, Apply returns a fresh slice
//   - Captured values are text or lists of text, nothing else
//   - All JSON tags use snake_case
package ir
