package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	sendBuffer = 64
	maxMessage = 1 << 20
)

var (
	errUnknownMessage = errors.New("unknown message type")
	errNotHeld        = errors.New("body is not dragged by this client")
)

// session is one websocket client. Frames are dropped, not queued, when
// the client falls behind.
type session struct {
	id     string
	conn   *websocket.Conn
	srv    *Server
	logger *slog.Logger
	send   chan []byte
	done   chan struct{}

	closeOnce sync.Once
	drags     map[string]int
}

func (s *session) offer(data []byte) bool {
	select {
	case s.send <- data:
		return true
	case <-s.done:
		return false
	default:
		return false
	}
}

func (s *session) reply(msg Outbound) {
	data, err := json.Marshal(msg)
	if err != nil {
		s.logger.Error("encode reply", "error", err)
		return
	}
	if !s.offer(data) {
		s.logger.Debug("send buffer full, dropping reply", "type", msg.Type)
	}
}

func (s *session) close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.conn.Close()
	})
}

// writer handles writing messages to the WebSocket
func (s *session) writer() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer s.close()

	for {
		select {
		case message := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				s.logger.Debug("write failed", "error", err)
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-s.done:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// reader dispatches inbound messages until the connection fails.
func (s *session) reader() {
	defer s.close()

	s.conn.SetReadLimit(maxMessage)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("unexpected close", "error", err)
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var msg Inbound
		if err := json.Unmarshal(data, &msg); err != nil {
			s.reply(Outbound{Type: MsgError, Error: fmt.Sprintf("decode: %v", err)})
			continue
		}
		err = s.handle(msg)
		kind := msg.Type
		if errors.Is(err, errUnknownMessage) {
			kind = "unknown"
		}
		s.srv.recorder.Event(kind, err)
		if err != nil {
			s.logger.Debug("message rejected", "type", msg.Type, "error", err)
			s.reply(Outbound{Type: MsgError, Error: err.Error()})
		}
	}
}

func (s *session) handle(msg Inbound) error {
	ctrl := s.srv.ctrl
	switch msg.Type {
	case MsgConfig:
		if msg.Forces == nil {
			return errors.New("config message without forces")
		}
		return ctrl.OnConfigChange(*msg.Forces)
	case MsgForce:
		return ctrl.OnForcePatch(msg.Name, msg.Params)
	case MsgResize:
		return ctrl.OnViewportResize(msg.Width, msg.Height)
	case MsgDragStart:
		if err := ctrl.OnDragStart(msg.ID, msg.X, msg.Y); err != nil {
			return err
		}
		s.drags[msg.ID]++
		return nil
	case MsgDragMove:
		if s.drags[msg.ID] == 0 {
			return fmt.Errorf("%w: %q", errNotHeld, msg.ID)
		}
		return ctrl.OnDragMove(msg.ID, msg.X, msg.Y)
	case MsgDragEnd:
		n := s.drags[msg.ID]
		if n == 0 {
			return fmt.Errorf("%w: %q", errNotHeld, msg.ID)
		}
		if n > 1 {
			s.drags[msg.ID] = n - 1
		} else {
			delete(s.drags, msg.ID)
		}
		return ctrl.OnDragEnd(msg.ID)
	}
	return fmt.Errorf("%w: %q", errUnknownMessage, msg.Type)
}

// releaseDrags ends the drags a disconnected client left behind.
func (s *session) releaseDrags() {
	for id, n := range s.drags {
		for range n {
			if err := s.srv.ctrl.OnDragEnd(id); err != nil {
				s.logger.Debug("release drag", "body", id, "error", err)
			}
		}
	}
	clear(s.drags)
}
