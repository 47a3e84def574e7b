package server

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebSocket_Predicts(t *testing.T) {
	srv := httptest.NewServer(newTestServer(t).Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(wsFrame{Text: "Q", Stack: []string{"proof"}}))
	var first wsReply
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, 1, first.Seq)
	assert.NotEmpty(t, first.Session)
	require.NotNil(t, first.Prediction)
	assert.Equal(t, "ed.", first.Prediction.Paths[0].Steps[0].Text)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{bad")))
	var second wsReply
	require.NoError(t, conn.ReadJSON(&second))
	assert.Equal(t, 2, second.Seq)
	assert.Equal(t, first.Session, second.Session)
	assert.NotEmpty(t, second.Error)
	assert.Nil(t, second.Prediction)

	require.NoError(t, conn.WriteJSON(wsFrame{Text: "Qed.", Stack: []string{"proof"}}))
	var third wsReply
	require.NoError(t, conn.ReadJSON(&third))
	assert.Equal(t, 3, third.Seq)
	require.NotNil(t, third.Prediction)
	assert.Equal(t, "complete", third.Prediction.Outcome.String())
}
