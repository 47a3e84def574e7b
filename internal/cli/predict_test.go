package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cnl/internal/engine"
)

func TestPredict_Text(t *testing.T) {
	out, err := runCLI(t, "", "predict", "--stack", "proof", "Qe")
	require.NoError(t, err)
	assert.Contains(t, out, "continuations")
	assert.Contains(t, out, `"d." $`)
}

func TestPredict_JSON(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		outcome engine.Outcome
	}{
		{"complete", "Qed.", engine.OutcomeComplete},
		{"continuations", "Qe", engine.OutcomeContinuations},
		{"none", "Zzz", engine.OutcomeNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runCLI(t, "", "--format", "json", "predict", "--stack", "proof", tt.text)
			require.NoError(t, err)

			var resp struct {
				Status string `json:"status"`
				Data   struct {
					Outcome engine.Outcome `json:"outcome"`
				} `json:"data"`
			}
			require.NoError(t, json.Unmarshal([]byte(out), &resp))
			assert.Equal(t, "ok", resp.Status)
			assert.Equal(t, tt.outcome, resp.Data.Outcome)
		})
	}
}

func TestPredict_Verbose(t *testing.T) {
	out, err := runCLI(t, "", "--format", "json", "-v", "predict", "Theorem ")
	require.NoError(t, err)
	// diagnostics stay off stdout
	assert.NotContains(t, out, "path(s)")
}
