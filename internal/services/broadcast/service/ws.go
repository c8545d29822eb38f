package service

import (
	"net/http"
	"time"

	"lasrouter/internal/platform/logger"

	"github.com/gorilla/websocket"
)

// WSOptions tunes the websocket stream
type WSOptions struct {
	Buffer       int
	WriteTimeout time.Duration
	PingEvery    time.Duration
	// CheckOrigin defaults to allowing every origin, matching the CORS defaults
	CheckOrigin func(*http.Request) bool
}

func (o WSOptions) withDefaults() WSOptions {
	if o.Buffer <= 0 {
		o.Buffer = 64
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 10 * time.Second
	}
	if o.PingEvery <= 0 {
		o.PingEvery = 30 * time.Second
	}
	if o.CheckOrigin == nil {
		o.CheckOrigin = func(*http.Request) bool { return true }
	}
	return o
}

// Handler upgrades to a websocket and streams hub events as JSON text frames
// the client sends nothing; any read error or close frame ends the stream
func Handler(h *Hub, opt WSOptions) http.Handler {
	opt = opt.withDefaults()
	up := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     opt.CheckOrigin,
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade already wrote the error response
			logger.C(r.Context()).Debug().Err(err).Msg("websocket upgrade failed")
			return
		}
		sub := h.Subscribe(opt.Buffer)
		defer sub.Close()
		defer conn.Close()

		gone := make(chan struct{})
		go readPump(conn, gone)

		ping := time.NewTicker(opt.PingEvery)
		defer ping.Stop()

		log := logger.C(r.Context())
		log.Debug().Str("remote", r.RemoteAddr).Msg("live subscriber connected")
		for {
			select {
			case <-gone:
				log.Debug().Msg("live subscriber disconnected")
				return
			case ev, ok := <-sub.C:
				if !ok {
					_ = conn.WriteControl(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
						time.Now().Add(time.Second))
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(opt.WriteTimeout))
				if err := conn.WriteJSON(ev); err != nil {
					return
				}
			case <-ping.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(opt.WriteTimeout)); err != nil {
					return
				}
			}
		}
	})
}

// readPump drains client frames so control frames are processed and a disconnect is noticed
func readPump(conn *websocket.Conn, gone chan<- struct{}) {
	defer close(gone)
	conn.SetReadLimit(1024)
	for {
		if _, _, err := conn.NextReader(); err != nil {
			return
		}
	}
}
