package compiler

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/roach88/cnl/internal/ir"
)

// Validation error codes (E100-E199)
const (
	ErrEmptySpecification = "E101" // no content and no actions
	ErrEmptyLiteral       = "E102" // text node with empty literal
	ErrEmptyReference     = "E103" // reference with empty name
	ErrEmptyRepetition    = "E104" // repetition with empty body
	ErrInvalidAction      = "E105" // unknown op or bad push label
	ErrInvalidStructure   = "E106" // unknown structure marker
	ErrInvalidFilter      = "E107" // filter is not a label, "" or "*"
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// ValidationErrors collects every problem found in one specification.
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	parts := make([]string, len(errs))
	for i, e := range errs {
		parts[i] = e.Error()
	}
	return strings.Join(parts, "; ")
}

// labelPattern matches state labels: an identifier optionally continued
// with dots and dashes, e.g. "proof", "case.left".
var labelPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.-]*$`)

// Validate checks a specification against the structural rules.
// Returns all errors found (does not fail-fast).
func Validate(spec ir.Specification) []ValidationError {
	var errs []ValidationError

	// E107: filter must be default, wildcard or a label
	if spec.Filter != ir.FilterDefault && spec.Filter != ir.FilterAny && !labelPattern.MatchString(spec.Filter) {
		errs = append(errs, ValidationError{
			Field:   "filter",
			Message: fmt.Sprintf("invalid filter %q", spec.Filter),
			Code:    ErrInvalidFilter,
		})
	}

	// E101: a tactic must match something or do something
	if len(spec.Content) == 0 && len(spec.Actions) == 0 {
		errs = append(errs, ValidationError{
			Field:   "content",
			Message: "content is empty and there are no actions",
			Code:    ErrEmptySpecification,
		})
	}

	errs = append(errs, validateNodes(spec.Content, "content")...)

	for i, a := range spec.Actions {
		field := fmt.Sprintf("actions[%d]", i)
		switch a.Op {
		case ir.ActionPush:
			if !labelPattern.MatchString(a.Label) {
				errs = append(errs, ValidationError{
					Field:   field + ".push",
					Message: fmt.Sprintf("invalid label %q", a.Label),
					Code:    ErrInvalidAction,
				})
			}
		case ir.ActionPop:
		default:
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("unknown action %q", a.Op),
				Code:    ErrInvalidAction,
			})
		}
	}

	// E106
	if !ir.ValidStructures[spec.Structure] {
		errs = append(errs, ValidationError{
			Field:   "structure",
			Message: fmt.Sprintf("invalid structure %q, must be %q or %q", spec.Structure, ir.StructureBeginParagraph, ir.StructureEndParagraph),
			Code:    ErrInvalidStructure,
		})
	}

	return errs
}

func validateNodes(nodes []ir.Node, path string) []ValidationError {
	var errs []ValidationError
	for i, n := range nodes {
		field := fmt.Sprintf("%s[%d]", path, i)
		switch n.Kind {
		case ir.NodeText:
			if n.Text == "" {
				errs = append(errs, ValidationError{Field: field + ".text", Message: "literal is empty", Code: ErrEmptyLiteral})
			}
		case ir.NodeReference:
			if strings.TrimSpace(n.Name) == "" {
				errs = append(errs, ValidationError{Field: field + ".ref", Message: "reference name is empty", Code: ErrEmptyReference})
			}
		case ir.NodeRepetition:
			if len(n.Body) == 0 {
				errs = append(errs, ValidationError{Field: field + ".repeat", Message: "repetition body is empty", Code: ErrEmptyRepetition})
			}
			errs = append(errs, validateNodes(n.Body, field+".repeat")...)
			errs = append(errs, validateNodes(n.Terminator, field+".until")...)
		}
	}
	return errs
}

// Check runs Validate and folds the result into an error. It has the
// signature tactic.WithValidator expects.
func Check(spec ir.Specification) error {
	errs := Validate(spec)
	if len(errs) == 0 {
		return nil
	}
	return ValidationErrors(errs)
}
