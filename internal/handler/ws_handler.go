package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-proctor/internal/response"
	"github.com/stemsi/exstem-proctor/internal/session"
	ws "github.com/stemsi/exstem-proctor/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins.
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams session events over WebSocket.
type WSHandler struct {
	view     SessionView
	hub      *ws.Hub
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(view SessionView, hub *ws.Hub, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		view:     view,
		hub:      hub,
		log:      log.With().Str("component", "ws_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// SessionStream godoc
// WS /ws/v1/session/stream
// Sends a hello frame with the current snapshot, then every session event
// until the session ends or the peer leaves. The peer may send
// {"action":"ping"} and receives {"event":"pong"}.
func (h *WSHandler) SessionStream(c *gin.Context) {
	if h.view == nil || h.hub == nil {
		response.Fail(c, http.StatusServiceUnavailable, response.ErrNoActiveSession)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().Str("remote", c.ClientIP()).Logger()
	wsLog.Info().Msg("Invigilator connected")

	events, release := h.hub.Subscribe()
	defer release()

	if err := ws.WriteTyped(conn, ws.HelloMessage{Event: ws.EventHello, Snapshot: h.view.Snapshot()}); err != nil {
		return
	}

	// One reader and one writer at a time: replies go through the write loop.
	replies := make(chan interface{}, 4)
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		ws.KeepAlive(conn)
		for {
			var msg ws.RequestEnvelope
			if err := ws.ReadJSON(conn, &msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					wsLog.Warn().Err(err).Msg("Unexpected close")
				}
				return
			}
			var reply interface{}
			switch msg.Action {
			case ws.ActionPing:
				reply = ws.PongResponse{Event: ws.EventPong}
			default:
				wsLog.Debug().Str("action", string(msg.Action)).Msg("Unknown action")
				reply = ws.NewError(response.ErrInvalidPayload)
			}
			select {
			case replies <- reply:
			default:
			}
		}
	}()

	ping := time.NewTicker(ws.PingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-readDone:
			wsLog.Debug().Msg("Connection closed")
			return
		case reply := <-replies:
			if err := ws.WriteTyped(conn, reply); err != nil {
				return
			}
		case <-ping.C:
			if err := ws.WritePing(conn); err != nil {
				return
			}
		case ev, ok := <-events:
			if !ok {
				_ = ws.WriteClose(conn, "session ended")
				return
			}
			if err := ws.WriteTyped(conn, ws.SessionMessage{Event: ws.EventSession, Data: ev}); err != nil {
				return
			}
			if ev.Type == session.EventEnded {
				wsLog.Info().Msg("Session ended, closing stream")
				_ = ws.WriteClose(conn, "session ended")
				return
			}
		}
	}
}
