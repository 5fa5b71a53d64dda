package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"caption-timeline-service/internal/observability/logging"
)

const playbackIdleTimeout = 2 * time.Minute

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true // overlay renderers run on other origins
	},
}

type playbackTick struct {
	T float64 `json:"t"`
}

// playback streams frames over a websocket: the client sends {"t": seconds}
// for each tick and receives the frame for that time.
func (h *handler) playback(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	pb, err := h.svc.Playback(id)
	if err != nil {
		writeError(w, err)
		return
	}
	defer pb.Close()

	logger := logging.WithSession(id)
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()
	logger.Info().Msg("Playback stream opened")

	for {
		conn.SetReadDeadline(time.Now().Add(playbackIdleTimeout))
		var tick playbackTick
		if err := conn.ReadJSON(&tick); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn().Err(err).Msg("Playback stream read error")
			}
			break
		}
		if err := conn.WriteJSON(pb.At(tick.T)); err != nil {
			logger.Warn().Err(err).Msg("Playback stream write error")
			break
		}
	}
	logger.Info().Msg("Playback stream closed")
}
