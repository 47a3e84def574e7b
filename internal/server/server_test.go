package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cnl/internal/catalog"
	"github.com/roach88/cnl/internal/document"
	"github.com/roach88/cnl/internal/engine"
	"github.com/roach88/cnl/internal/store"
	"github.com/roach88/cnl/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const proofText = "Theorem t: P.\nProof.\n  Let x.\n  Qed.\n"

func newTestServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	reg, err := catalog.NewRegistry(catalog.Builtin())
	require.NoError(t, err)
	opts = append([]Option{
		WithClock(testutil.NewDeterministicClock()),
		WithIDGenerator(testutil.NewSequentialIDGenerator("doc")),
	}, opts...)
	return New(engine.New(reg), opts...)
}

func openStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "cnl.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func do(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	w := do(t, newTestServer(t), http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestParse(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodPost, "/v1/parse", ParseRequest{Text: "Let x. Qed.", Stack: []string{"proof"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Match struct {
			Tactic string            `json:"tactic"`
			Values map[string]string `json:"values"`
			End    int               `json:"end"`
			Stack  []string          `json:"stack"`
		} `json:"match"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Let", resp.Match.Tactic)
	assert.Equal(t, map[string]string{"name": "x"}, resp.Match.Values)
	assert.Equal(t, 6, resp.Match.End)
	assert.Equal(t, []string{"proof"}, resp.Match.Stack)
}

func TestParse_NoMatch(t *testing.T) {
	w := do(t, newTestServer(t), http.MethodPost, "/v1/parse", ParseRequest{Text: "Qed."})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"match": null}`, w.Body.String())
}

func TestParse_EmptyMatch(t *testing.T) {
	s := newTestServer(t)
	w := do(t, s, http.MethodPost, "/v1/parse", ParseRequest{Stack: []string{"proof"}, AllowEmpty: true})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"tactic":"Admitted"`)
}

func TestChain(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodPost, "/v1/chain", ParseRequest{Text: "Let x.By h.Qed. trailing", Stack: []string{"proof"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Matches []struct {
			Tactic string `json:"tactic"`
		} `json:"matches"`
		Stack []string `json:"stack"`
		End   int      `json:"end"`
		Rest  string   `json:"rest"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Matches, 3)
	assert.Equal(t, "Let", resp.Matches[0].Tactic)
	assert.Equal(t, "Apply", resp.Matches[1].Tactic)
	assert.Equal(t, "Qed", resp.Matches[2].Tactic)
	assert.Empty(t, resp.Stack)
	assert.Equal(t, 15, resp.End)
	assert.Equal(t, " trailing", resp.Rest)
}

func TestPredict(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodPost, "/v1/predict", ParseRequest{Text: "Qe", Stack: []string{"proof"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var p struct {
		Outcome string `json:"outcome"`
		Paths   []struct {
			Steps []struct {
				Kind string `json:"kind"`
				Text string `json:"text"`
			} `json:"steps"`
			Completed bool `json:"completed"`
		} `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	assert.Equal(t, "continuations", p.Outcome)
	require.Len(t, p.Paths, 1)
	require.Len(t, p.Paths[0].Steps, 1)
	assert.Equal(t, "d.", p.Paths[0].Steps[0].Text)
	assert.True(t, p.Paths[0].Completed)
}

func TestInvalidRequests(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/parse", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), CodeInvalidRequest)

	w = do(t, s, http.MethodPost, "/v1/predict", ParseRequest{Text: "x", Stack: []string{""}})
	assert.Equal(t, http.StatusBadRequest, w.Code, "empty stack labels are rejected")
}

func TestCheck_Stores(t *testing.T) {
	st := openStore(t)
	s := newTestServer(t, WithStore(st))

	w := do(t, s, http.MethodPost, "/v1/check", CheckRequest{Text: proofText})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var report document.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, "doc-1", report.ID)
	assert.Equal(t, "Theorem t : P.\nProof.\nintros x.\nQed.\n", report.Script)
	assert.Empty(t, report.Errors())

	w = do(t, s, http.MethodGet, "/v1/documents", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history HistoryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &history))
	require.Len(t, history.Documents, 1)
	assert.Equal(t, "doc-1", history.Documents[0].ID)
	assert.Equal(t, 4, history.Documents[0].Chunks)

	w = do(t, s, http.MethodGet, "/v1/documents/doc-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var doc DocumentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Equal(t, proofText, doc.Source)
	assert.Equal(t, report.Script, doc.Report.Script)

	w = do(t, s, http.MethodGet, "/v1/documents/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), CodeNotFound)
}

func TestCheck_FatalStillReports(t *testing.T) {
	s := newTestServer(t)

	// an open theorem has no fallback to close it
	w := do(t, s, http.MethodPost, "/v1/check", CheckRequest{Text: "Theorem t: P.\n"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var report document.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	errs := report.Errors()
	require.NotEmpty(t, errs)
	assert.True(t, errs[len(errs)-1].Fatal)
	assert.Equal(t, document.MsgUnclosedState, errs[len(errs)-1].Message)
}

func TestDocuments_NoStore(t *testing.T) {
	w := do(t, newTestServer(t), http.MethodGet, "/v1/documents", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), CodeNoStore)
}

func TestTactics(t *testing.T) {
	w := do(t, newTestServer(t), http.MethodGet, "/v1/tactics", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var tactics []TacticInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tactics))
	require.Len(t, tactics, len(catalog.Builtin()))
	assert.Equal(t, "Theorem", tactics[0].Name)
	assert.Equal(t, "Proof", tactics[1].Name)
	assert.Equal(t, "theorem", tactics[1].Filter)
	for _, tac := range tactics {
		assert.Equal(t, tac.Name == "Admitted", tac.Fallback, tac.Name)
	}
}

func TestReload(t *testing.T) {
	st := openStore(t)
	s := newTestServer(t, WithStore(st))
	before := s.Engine()

	extra, err := catalog.Decode("Done", map[string]any{
		"filter":  "proof",
		"content": []any{map[string]any{"text": "Done."}},
		"actions": []any{map[string]any{"pop": true}},
	}, "'Qed.'")
	require.NoError(t, err)

	require.NoError(t, s.Reload(context.Background(), append(catalog.Builtin(), extra)))
	assert.NotSame(t, before, s.Engine())

	w := do(t, s, http.MethodPost, "/v1/parse", ParseRequest{Text: "Done.", Stack: []string{"proof"}})
	assert.Contains(t, w.Body.String(), `"tactic":"Done"`)

	stored, err := st.ReadTactics(context.Background())
	require.NoError(t, err)
	assert.Len(t, stored, len(catalog.Builtin())+1)

	// a broken catalog keeps the active engine
	bad := extra
	bad.Transform = "def transform(:"
	current := s.Engine()
	assert.Error(t, s.Reload(context.Background(), []catalog.Entry{bad}))
	assert.Same(t, current, s.Engine())
}

func TestMetrics(t *testing.T) {
	s := newTestServer(t)
	do(t, s, http.MethodPost, "/v1/predict", ParseRequest{Text: "Qe", Stack: []string{"proof"}})

	w := do(t, s, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `cnl_requests_total{code="200",route="/v1/predict"} 1`)
	assert.Contains(t, body, "cnl_prediction_paths_count 1")
	assert.Contains(t, body, "cnl_tactics 9")
}
