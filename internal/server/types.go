package server

import (
	"github.com/roach88/cnl/internal/document"
	"github.com/roach88/cnl/internal/engine"
	"github.com/roach88/cnl/internal/ir"
	"github.com/roach88/cnl/internal/store"
)

// ParseRequest is the body of /v1/parse, /v1/chain and /v1/predict.
type ParseRequest struct {
	Text  string   `json:"text" validate:"max=65536"`
	Stack ir.Stack `json:"stack" validate:"max=64,dive,required"`

	// AllowEmpty lets fallback tactics match zero characters.
	AllowEmpty bool `json:"allow_empty,omitempty"`
}

// CheckRequest is the body of /v1/check.
type CheckRequest struct {
	Text string `json:"text" validate:"max=1048576"`
}

// ParseResponse carries the longest match, or none.
type ParseResponse struct {
	Match *engine.Match `json:"match"`
}

// ChainResponse carries a chain plus the unparsed remainder.
type ChainResponse struct {
	engine.Chain
	Rest string `json:"rest"`
}

// TacticInfo describes one registered tactic.
type TacticInfo struct {
	Index    int    `json:"index"`
	Name     string `json:"name,omitempty"`
	ID       string `json:"id"`
	Source   string `json:"source"`
	Filter   string `json:"filter"`
	Fallback bool   `json:"fallback,omitempty"`
}

// DocumentResponse is a stored report with its source.
type DocumentResponse struct {
	Report *document.Report `json:"report"`
	Source string           `json:"source"`
}

// HistoryResponse lists stored documents.
type HistoryResponse struct {
	Documents []store.DocumentSummary `json:"documents"`
}

// ErrorResponse is returned for every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Error codes.
const (
	CodeInvalidRequest = "INVALID_REQUEST"
	CodeNotFound       = "NOT_FOUND"
	CodeNoStore        = "NO_STORE"
	CodeStoreFailed    = "STORE_FAILED"
	CodeCheckFailed    = "CHECK_FAILED"
)

// wsFrame is one keystroke update on /v1/ws.
type wsFrame struct {
	Text  string   `json:"text" validate:"max=65536"`
	Stack ir.Stack `json:"stack" validate:"max=64,dive,required"`
}

// wsReply answers one frame. Seq echoes the frame count so clients can
// drop stale predictions.
type wsReply struct {
	Session    string             `json:"session"`
	Seq        int                `json:"seq"`
	Prediction *engine.Prediction `json:"prediction,omitempty"`
	Error      string             `json:"error,omitempty"`
}
