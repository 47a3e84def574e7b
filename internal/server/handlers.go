package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/roach88/cnl/internal/document"
	"github.com/roach88/cnl/internal/engine"
	"github.com/roach88/cnl/internal/store"
)

func (s *Server) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		s.fail(c, http.StatusBadRequest, CodeInvalidRequest, err)
		return false
	}
	if err := s.validate.Struct(req); err != nil {
		s.fail(c, http.StatusBadRequest, CodeInvalidRequest, err)
		return false
	}
	return true
}

func (s *Server) fail(c *gin.Context, status int, code string, err error) {
	slog.WarnContext(c.Request.Context(), "request failed", "route", c.FullPath(), "code", code, "error", err)
	c.AbortWithStatusJSON(status, ErrorResponse{Error: err.Error(), Code: code})
}

func parseOptions(req ParseRequest) []engine.ParseOption {
	if req.AllowEmpty {
		return []engine.ParseOption{engine.WithEmptyMatch()}
	}
	return nil
}

func (s *Server) handleParse(c *gin.Context) {
	var req ParseRequest
	if !s.bind(c, &req) {
		return
	}
	m, ok := s.Engine().ParseOne(req.Text, req.Stack, parseOptions(req)...)
	if !ok {
		m = nil
	}
	c.JSON(http.StatusOK, ParseResponse{Match: m})
}

func (s *Server) handleChain(c *gin.Context) {
	var req ParseRequest
	if !s.bind(c, &req) {
		return
	}
	chain := s.Engine().ParseChain(req.Text, req.Stack, parseOptions(req)...)
	if chain.Matches == nil {
		chain.Matches = []engine.Match{}
	}
	c.JSON(http.StatusOK, ChainResponse{Chain: chain, Rest: chain.Rest(req.Text)})
}

func (s *Server) handlePredict(c *gin.Context) {
	var req ParseRequest
	if !s.bind(c, &req) {
		return
	}
	p := s.Engine().Predict(req.Text, req.Stack)
	s.metrics.predictionPaths.Observe(float64(len(p.Paths)))
	c.JSON(http.StatusOK, p)
}

// handleCheck returns the report even when the document is fatally
// malformed; fatal chunks say where.
func (s *Server) handleCheck(c *gin.Context) {
	var req CheckRequest
	if !s.bind(c, &req) {
		return
	}

	report, err := s.checker().CheckText(req.Text)
	var fatal *document.FatalError
	if err != nil && !errors.As(err, &fatal) {
		s.fail(c, http.StatusInternalServerError, CodeCheckFailed, err)
		return
	}

	if s.store != nil {
		if err := s.store.WriteReport(c.Request.Context(), report, req.Text); err != nil {
			s.fail(c, http.StatusInternalServerError, CodeStoreFailed, err)
			return
		}
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) handleTactics(c *gin.Context) {
	tactics := s.Engine().Registry().All()
	out := make([]TacticInfo, 0, len(tactics))
	for _, t := range tactics {
		out = append(out, TacticInfo{
			Index:    t.Index,
			Name:     t.Name,
			ID:       t.ID,
			Source:   t.Source,
			Filter:   t.Spec.Filter,
			Fallback: t.Fallback(),
		})
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleDocuments(c *gin.Context) {
	if s.store == nil {
		s.fail(c, http.StatusNotFound, CodeNoStore, errors.New("no transcript store configured"))
		return
	}
	docs, err := s.store.ListDocuments(c.Request.Context())
	if err != nil {
		s.fail(c, http.StatusInternalServerError, CodeStoreFailed, err)
		return
	}
	if docs == nil {
		docs = []store.DocumentSummary{}
	}
	c.JSON(http.StatusOK, HistoryResponse{Documents: docs})
}

func (s *Server) handleDocument(c *gin.Context) {
	if s.store == nil {
		s.fail(c, http.StatusNotFound, CodeNoStore, errors.New("no transcript store configured"))
		return
	}
	report, source, err := s.store.ReadReport(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		s.fail(c, http.StatusNotFound, CodeNotFound, err)
		return
	}
	if err != nil {
		s.fail(c, http.StatusInternalServerError, CodeStoreFailed, err)
		return
	}
	c.JSON(http.StatusOK, DocumentResponse{Report: report, Source: source})
}
