// Package server exposes a running simulation over HTTP and WebSocket.
// Clients receive a frame per tick and steer the layout with the same
// messages the terminal UI sends to the interaction controller.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/forcegraph/internal/dynamo"
	"github.com/san-kum/forcegraph/internal/export"
	"github.com/san-kum/forcegraph/internal/forces"
	"github.com/san-kum/forcegraph/internal/metrics"
	"github.com/san-kum/forcegraph/internal/sim"
)

const shutdownTimeout = 5 * time.Second

// Engine is the part of the simulator the server reads from.
type Engine interface {
	AddObserver(sim.Observer)
	Snapshot() sim.TickResult
	Links() []dynamo.Link
	Forces() forces.Config
	Viewport() dynamo.Viewport
	Run(ctx context.Context) error
}

// Controller receives client interactions.
type Controller interface {
	OnConfigChange(cfg forces.Config) error
	OnForcePatch(name string, patch []byte) error
	OnViewportResize(width, height float64) error
	OnDragStart(id string, x, y float64) error
	OnDragMove(id string, x, y float64) error
	OnDragEnd(id string) error
}

// Server fans simulation frames out to WebSocket sessions.
type Server struct {
	engine   Engine
	ctrl     Controller
	recorder *metrics.Recorder
	logger   *slog.Logger
	links    []dynamo.Link
	upgrader websocket.Upgrader

	mu       sync.RWMutex
	sessions map[string]*session
}

// New wires a server to an initialized simulator. The recorder is
// registered as an observer alongside the frame broadcaster.
func New(engine Engine, ctrl Controller, recorder *metrics.Recorder, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = metrics.NewRecorder()
	}
	s := &Server{
		engine:   engine,
		ctrl:     ctrl,
		recorder: recorder,
		logger:   logger.With("component", "server"),
		links:    engine.Links(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		sessions: make(map[string]*session),
	}
	engine.AddObserver(recorder)
	engine.AddObserver(sim.ObserverFunc(s.broadcast))
	return s
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", s.handleWS)
	mux.Handle("GET /metrics", s.recorder.Handler())
	mux.HandleFunc("GET /api/config", s.handleGetConfig)
	mux.HandleFunc("PUT /api/config", s.handlePutConfig)
	mux.HandleFunc("PATCH /api/forces/{name}", s.handlePatchForce)
	mux.HandleFunc("GET /api/frame", s.handleFrame)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "ok\n")
	})
	return mux
}

// Serve listens on addr and runs the simulation clock until ctx is done.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen %s: %w", addr, err)
		}
		return nil
	})
	g.Go(func() error {
		err := s.engine.Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.closeSessions()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// Sessions reports the number of connected clients.
func (s *Server) Sessions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// broadcast runs inside the simulation tick, so it never blocks.
func (s *Server) broadcast(r sim.TickResult) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.sessions) == 0 {
		return
	}
	frame := export.NewFrame(r, s.links)
	data, err := json.Marshal(Outbound{Type: MsgFrame, Frame: &frame})
	if err != nil {
		s.logger.Error("encode frame", "error", err)
		return
	}
	for _, sess := range s.sessions {
		sess.offer(data)
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrade failed", "error", err)
		return
	}

	id := uuid.NewString()
	sess := &session{
		id:     id,
		conn:   conn,
		srv:    s,
		logger: s.logger.With("session", id),
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
		drags:  make(map[string]int),
	}

	cfg := s.engine.Forces()
	vp := s.engine.Viewport()
	frame := export.NewFrame(s.engine.Snapshot(), s.links)
	sess.reply(Outbound{Type: MsgHello, Session: id, Forces: &cfg, Viewport: &vp})
	sess.reply(Outbound{Type: MsgFrame, Frame: &frame})

	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()
	sess.logger.Info("session opened", "remote", r.RemoteAddr)

	go sess.writer()
	sess.reader()

	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	sess.releaseDrags()
	sess.logger.Info("session closed")
}

func (s *Server) closeSessions() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range s.sessions {
		sess.close()
	}
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Forces())
}

// handlePutConfig decodes over the current record, so omitted forces
// keep their settings.
func (s *Server) handlePutConfig(w http.ResponseWriter, r *http.Request) {
	cfg := s.engine.Forces()
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		s.recorder.Event(MsgConfig, err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	err := s.ctrl.OnConfigChange(cfg)
	s.recorder.Event(MsgConfig, err)
	if err != nil {
		writeError(w, statusOf(err), err)
		return
	}
	writeJSON(w, http.StatusOK, s.engine.Forces())
}

func (s *Server) handlePatchForce(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxMessage))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	err = s.ctrl.OnForcePatch(r.PathValue("name"), body)
	s.recorder.Event(MsgForce, err)
	if err != nil {
		writeError(w, statusOf(err), err)
		return
	}
	writeJSON(w, http.StatusOK, s.engine.Forces())
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, export.NewFrame(s.engine.Snapshot(), s.links))
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, dynamo.ErrInvalidConfig), errors.Is(err, dynamo.ErrUnknownForce):
		return http.StatusUnprocessableEntity
	case errors.Is(err, dynamo.ErrUnknownBody):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
