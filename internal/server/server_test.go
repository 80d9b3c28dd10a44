package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/forcegraph/internal/control"
	"github.com/san-kum/forcegraph/internal/dynamo"
	"github.com/san-kum/forcegraph/internal/forces"
	"github.com/san-kum/forcegraph/internal/metrics"
	"github.com/san-kum/forcegraph/internal/sim"
)

type fixture struct {
	sim  *sim.Simulator
	ctrl *control.Controller
	srv  *Server
	ts   *httptest.Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s, err := sim.New(sim.DefaultOptions(), forces.DefaultConfig())
	require.NoError(t, err)
	nodes := []dynamo.Node{{ID: "A"}, {ID: "B"}, {ID: "C"}}
	edges := []dynamo.Edge{{Source: "A", Target: "B"}, {Source: "B", Target: "C"}}
	require.NoError(t, s.Initialize(nodes, edges, dynamo.Viewport{Width: 400, Height: 300}))

	ctrl, err := control.New(s, control.DefaultOptions(), logger)
	require.NoError(t, err)

	srv := New(s, ctrl, metrics.NewRecorder(), logger)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		s.Close()
	})
	return &fixture{sim: s, ctrl: ctrl, srv: srv, ts: ts}
}

func (f *fixture) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMsg(t *testing.T, conn *websocket.Conn) Outbound {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg Outbound
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

// readUntil skips messages until match accepts one.
func readUntil(t *testing.T, conn *websocket.Conn, match func(Outbound) bool) Outbound {
	t.Helper()
	for range 50 {
		msg := readMsg(t, conn)
		if match(msg) {
			return msg
		}
	}
	t.Fatal("no matching message")
	return Outbound{}
}

func (f *fixture) do(t *testing.T, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, f.ts.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func TestHealthz(t *testing.T) {
	f := newFixture(t)
	resp, body := f.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok\n", string(body))
}

func TestConfigRoutes(t *testing.T) {
	f := newFixture(t)

	resp, body := f.do(t, http.MethodGet, "/api/config", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var cfg forces.Config
	require.NoError(t, json.Unmarshal(body, &cfg))
	assert.Equal(t, forces.DefaultConfig(), cfg)

	for range 40 {
		_, err := f.sim.Tick()
		require.NoError(t, err)
	}
	require.Less(t, f.sim.Alpha(), 1.0)

	resp, _ = f.do(t, http.MethodPut, "/api/config", `{"charge":{"strength":-50}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := f.sim.Forces()
	assert.Equal(t, -50.0, got.Charge.Strength)
	assert.Equal(t, forces.DefaultConfig().Charge.Theta, got.Charge.Theta, "omitted fields keep their value")
	assert.Equal(t, 1.0, f.sim.Alpha())

	resp, _ = f.do(t, http.MethodPut, "/api/config", `{"collide":{"radius":-1}}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, forces.DefaultConfig().Collide.Radius, f.sim.Forces().Collide.Radius)

	resp, _ = f.do(t, http.MethodPut, "/api/config", `{not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = f.do(t, http.MethodPatch, "/api/forces/link", `{"distance":60}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 60.0, f.sim.Forces().Link.Distance)

	resp, _ = f.do(t, http.MethodPatch, "/api/forces/gravity", `{"strength":1}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestFrameRoute(t *testing.T) {
	f := newFixture(t)
	resp, body := f.do(t, http.MethodGet, "/api/frame", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var frame struct {
		Nodes []struct{ ID string } `json:"nodes"`
		Links []struct{ Source string } `json:"links"`
	}
	require.NoError(t, json.Unmarshal(body, &frame))
	assert.Len(t, frame.Nodes, 3)
	assert.Len(t, frame.Links, 2)
}

func TestSessionHandshake(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t)

	hello := readMsg(t, conn)
	assert.Equal(t, MsgHello, hello.Type)
	assert.NotEmpty(t, hello.Session)
	require.NotNil(t, hello.Forces)
	assert.Equal(t, forces.DefaultConfig(), *hello.Forces)
	require.NotNil(t, hello.Viewport)
	assert.Equal(t, 400.0, hello.Viewport.Width)

	frame := readMsg(t, conn)
	assert.Equal(t, MsgFrame, frame.Type)
	require.NotNil(t, frame.Frame)
	assert.Len(t, frame.Frame.Nodes, 3)

	require.Eventually(t, func() bool { return f.srv.Sessions() == 1 }, time.Second, 10*time.Millisecond)

	_, err := f.sim.Tick()
	require.NoError(t, err)
	ticked := readUntil(t, conn, func(m Outbound) bool { return m.Type == MsgFrame && m.Frame.Tick >= 1 })
	assert.Len(t, ticked.Frame.Links, 2)

	conn.Close()
	require.Eventually(t, func() bool { return f.srv.Sessions() == 0 }, time.Second, 10*time.Millisecond)
}

func TestSessionDrag(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t)
	readMsg(t, conn)
	readMsg(t, conn)

	require.NoError(t, conn.WriteJSON(Inbound{Type: MsgDragStart, ID: "A", X: 100, Y: 200}))
	require.Eventually(t, func() bool { return f.ctrl.Dragging("A") }, time.Second, 10*time.Millisecond)

	_, err := f.sim.Tick()
	require.NoError(t, err)
	frame := readUntil(t, conn, func(m Outbound) bool { return m.Type == MsgFrame && m.Frame.Tick >= 1 })
	a := frame.Frame.Nodes[0]
	assert.Equal(t, "A", a.ID)
	assert.True(t, a.Pinned)
	assert.Equal(t, 100.0, a.X)
	assert.Equal(t, 200.0, a.Y)

	require.NoError(t, conn.WriteJSON(Inbound{Type: MsgDragEnd, ID: "A"}))
	require.Eventually(t, func() bool { return !f.ctrl.Dragging("A") }, time.Second, 10*time.Millisecond)
	assert.Equal(t, control.DefaultReleaseAlphaTarget, f.sim.AlphaTarget())
}

func TestSessionErrors(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t)
	readMsg(t, conn)
	readMsg(t, conn)

	tests := []struct {
		name string
		msg  string
	}{
		{"unknown type", `{"type":"explode"}`},
		{"unknown body", `{"type":"dragstart","id":"Z","x":1,"y":1}`},
		{"bad force", `{"type":"force","name":"charge","params":{"theta":9}}`},
		{"config without forces", `{"type":"config"}`},
		{"bad resize", `{"type":"resize","width":0,"height":10}`},
		{"release without drag", `{"type":"dragend","id":"A"}`},
		{"move without drag", `{"type":"dragmove","id":"A","x":1,"y":1}`},
		{"malformed", `{"type":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(tt.msg)))
			msg := readUntil(t, conn, func(m Outbound) bool { return m.Type == MsgError })
			assert.NotEmpty(t, msg.Error)
		})
	}

	resp, body := f.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `forcegraph_interaction_events_total{status="error",type="unknown"} 1`)
	assert.Contains(t, string(body), `forcegraph_interaction_events_total{status="error",type="dragstart"} 1`)
	assert.Contains(t, string(body), `forcegraph_interaction_events_total{status="error",type="dragend"} 1`)
}

func TestSharedDragAcrossSessions(t *testing.T) {
	f := newFixture(t)
	first, second := f.dial(t), f.dial(t)
	for _, conn := range []*websocket.Conn{first, second} {
		readMsg(t, conn)
		readMsg(t, conn)
	}

	require.NoError(t, first.WriteJSON(Inbound{Type: MsgDragStart, ID: "A", X: 10, Y: 10}))
	require.Eventually(t, func() bool { return f.ctrl.Dragging("A") }, time.Second, 10*time.Millisecond)
	require.NoError(t, second.WriteJSON(Inbound{Type: MsgDragStart, ID: "A", X: 20, Y: 20}))
	require.Eventually(t, func() bool {
		b, err := f.sim.Body("A")
		return err == nil && b.FX == 20 && b.FY == 20
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, first.WriteJSON(Inbound{Type: MsgDragEnd, ID: "A"}))
	require.NoError(t, second.WriteJSON(Inbound{Type: MsgDragMove, ID: "A", X: 40, Y: 50}))
	require.Eventually(t, func() bool {
		b, err := f.sim.Body("A")
		return err == nil && b.FX == 40 && b.FY == 50
	}, time.Second, 10*time.Millisecond)
	assert.True(t, f.ctrl.Dragging("A"))
	assert.Equal(t, control.DefaultDragAlphaTarget, f.sim.AlphaTarget())

	second.Close()
	require.Eventually(t, func() bool { return !f.ctrl.Dragging("A") }, time.Second, 10*time.Millisecond)
	assert.Equal(t, control.DefaultReleaseAlphaTarget, f.sim.AlphaTarget())
}

func TestDisconnectReleasesDrag(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t)
	readMsg(t, conn)

	require.NoError(t, conn.WriteJSON(Inbound{Type: MsgDragStart, ID: "B", X: 10, Y: 10}))
	require.Eventually(t, func() bool { return f.ctrl.Dragging("B") }, time.Second, 10*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return !f.ctrl.Dragging("B") }, time.Second, 10*time.Millisecond)
	b, err := f.sim.Body("B")
	require.NoError(t, err)
	assert.False(t, b.FixedX || b.FixedY)
}

func TestServeStopsOnCancel(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- f.srv.Serve(ctx, "127.0.0.1:0") }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Serve did not return")
	}
}
