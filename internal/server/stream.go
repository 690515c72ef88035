package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

// handleStateStream pushes a bench snapshot every stream interval until the
// client goes away. Incoming messages are ignored.
func (s *Server) handleStateStream(w http.ResponseWriter, r *http.Request) {
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("Failed to accept WebSocket", "error", err)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "stream ended"); closeErr != nil {
			slog.Debug("Failed to close websocket", "error", closeErr)
		}
	}()

	ctx := ws.CloseRead(r.Context())

	ticker := time.NewTicker(s.streamInterval)
	defer ticker.Stop()

	for {
		if err := wsjson.Write(ctx, ws, s.session.Snapshot()); err != nil {
			slog.Debug("State stream closed", "error", err)
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
