package server

import (
	"encoding/json"

	"github.com/san-kum/forcegraph/internal/dynamo"
	"github.com/san-kum/forcegraph/internal/export"
	"github.com/san-kum/forcegraph/internal/forces"
)

// Inbound message types.
const (
	MsgConfig    = "config"
	MsgForce     = "force"
	MsgResize    = "resize"
	MsgDragStart = "dragstart"
	MsgDragMove  = "dragmove"
	MsgDragEnd   = "dragend"
)

// Outbound message types.
const (
	MsgHello = "hello"
	MsgFrame = "frame"
	MsgError = "error"
)

// Inbound is a client message. Which fields are set depends on Type.
type Inbound struct {
	Type   string          `json:"type"`
	Forces *forces.Config  `json:"forces,omitempty"`
	Name   string          `json:"name,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`
	Width  float64         `json:"width,omitempty"`
	Height float64         `json:"height,omitempty"`
	ID     string          `json:"id,omitempty"`
	X      float64         `json:"x,omitempty"`
	Y      float64         `json:"y,omitempty"`
}

// Outbound is a server message.
type Outbound struct {
	Type     string           `json:"type"`
	Session  string           `json:"session,omitempty"`
	Forces   *forces.Config   `json:"forces,omitempty"`
	Viewport *dynamo.Viewport `json:"viewport,omitempty"`
	Frame    *export.Frame    `json:"frame,omitempty"`
	Error    string           `json:"error,omitempty"`
}
