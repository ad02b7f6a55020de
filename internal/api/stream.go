package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/litescript/ls-impact/internal/metrics"
	"github.com/litescript/ls-impact/internal/sim"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMessage = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 16384,
	// The stream serves read-mostly public data; any origin may subscribe.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// streamMessage is one server-to-client message. Exactly one field is set.
type streamMessage struct {
	Frame *sim.Frame  `json:"frame,omitempty"`
	Clock *clockState `json:"clock,omitempty"`
	Error string      `json:"error,omitempty"`
}

// handleStream upgrades to a websocket and pushes one frame per tick at the
// configured rate. Clients may send control messages, which act on the
// shared clock and are acknowledged with the new clock state.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	ip := clientIP(r, s.cfg.TrustProxy)
	if !s.streams.acquire(ip) {
		writeError(w, http.StatusTooManyRequests, "too many concurrent streams")
		return
	}
	defer s.streams.release(ip)

	opts := sim.FrameOptions{Trails: true, Belt: false}
	if r.URL.Query().Get("belt") == "true" {
		opts.Belt = true
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		s.log.Debug("stream upgrade from %s failed: %v", ip, err)
		return
	}
	defer conn.Close()

	metrics.StreamOpened()
	defer metrics.StreamClosed()
	s.log.Info("stream opened for %s", ip)

	replies := make(chan streamMessage, 8)
	done := make(chan struct{})
	go s.readControls(conn, replies, done)

	fps := s.cfg.StreamFPS
	if fps < 1 {
		fps = 1
	}
	frames := time.NewTicker(time.Second / time.Duration(fps))
	defer frames.Stop()
	pings := time.NewTicker(pingPeriod)
	defer pings.Stop()

	send := func(msg streamMessage) bool {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(msg); err != nil {
			s.log.Debug("stream write to %s failed: %v", ip, err)
			return false
		}
		return true
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case <-done:
			s.log.Info("stream closed for %s", ip)
			return
		case msg := <-replies:
			if !send(msg) {
				return
			}
		case <-frames.C:
			f := sim.BuildFrame(s.deps.Manager.Snapshot(), s.deps.Catalog.Bodies(), opts)
			if !send(streamMessage{Frame: &f}) {
				return
			}
			metrics.FrameSent()
		case <-pings.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readControls owns the read side of conn. Only the writer loop writes, so
// replies go through a channel.
func (s *Server) readControls(conn *websocket.Conn, replies chan<- streamMessage, done chan<- struct{}) {
	defer close(done)

	conn.SetReadLimit(maxMessage)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Debug("stream read: %v", err)
			}
			return
		}
		var c control
		msg := streamMessage{}
		if err := json.Unmarshal(data, &c); err != nil {
			msg.Error = "invalid control message: " + err.Error()
		} else if err := applyControl(s.deps.Manager, c, time.Now()); err != nil {
			msg.Error = err.Error()
		} else {
			cs := clockFromSnapshot(s.deps.Manager.Snapshot())
			msg.Clock = &cs
		}
		select {
		case replies <- msg:
		default:
			// Writer is behind; the next frame carries the new state anyway.
		}
	}
}
