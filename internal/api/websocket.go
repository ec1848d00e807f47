package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/banshee-data/motion.report/internal/animation"
	"github.com/banshee-data/motion.report/internal/monitoring"
	"github.com/banshee-data/motion.report/internal/visualiser"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// handleWebsocket streams FrameUpdate JSON: the latest frame first, then one
// message per published frame. Slow readers miss frames rather than delaying
// the animation.
func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied with an HTTP error.
		monitoring.Logf("[API] websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	sub, err := s.publisher.Subscribe("ws")
	if err != nil {
		code := websocket.CloseTryAgainLater
		if !errors.Is(err, visualiser.ErrTooManyClients) {
			code = websocket.CloseGoingAway
		}
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(code, err.Error()), time.Now().Add(writeWait))
		return
	}
	defer s.publisher.Unsubscribe(sub.ID)

	closed := make(chan struct{})
	go readPump(conn, closed)

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	write := func(u animation.FrameUpdate) error {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(u)
	}

	for {
		select {
		case <-closed:
			return
		case <-sub.Done:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server stopping"), time.Now().Add(writeWait))
			return
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case u := <-sub.Frames:
			if err := write(u); err != nil {
				monitoring.Logf("[API] websocket write failed for %s: %v", sub.ID, err)
				return
			}
		}
	}
}

// readPump discards client messages and closes done when the peer goes away.
func readPump(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
