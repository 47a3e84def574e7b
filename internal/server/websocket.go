package server

import (
	"encoding/json"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// handleWebSocket answers every text frame with a prediction for it. The
// engine is read per frame, so a reload applies to open sessions from
// their next keystroke.
func (s *Server) handleWebSocket(c *gin.Context) {
	ws, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.WarnContext(c.Request.Context(), "websocket upgrade failed", "error", err)
		return
	}
	defer ws.Close()

	session, err := uuid.NewV7()
	if err != nil {
		session = uuid.New()
	}
	s.metrics.wsSessions.Inc()
	defer s.metrics.wsSessions.Dec()
	slog.DebugContext(c.Request.Context(), "websocket session started", "session", session.String())

	for seq := 1; ; seq++ {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.DebugContext(c.Request.Context(), "websocket closed", "session", session.String(), "error", err)
			}
			return
		}

		var frame wsFrame
		reply := wsReply{Session: session.String(), Seq: seq}
		if err := json.Unmarshal(data, &frame); err != nil {
			reply.Error = err.Error()
		} else if err := s.validate.Struct(frame); err != nil {
			reply.Error = err.Error()
		} else {
			p := s.Engine().Predict(frame.Text, frame.Stack)
			s.metrics.predictionPaths.Observe(float64(len(p.Paths)))
			reply.Prediction = &p
		}

		if err := ws.WriteJSON(reply); err != nil {
			slog.DebugContext(c.Request.Context(), "websocket write failed", "session", session.String(), "error", err)
			return
		}
	}
}
