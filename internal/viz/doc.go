// Package viz renders a running layout in the terminal.
//
// The package implements an interactive TUI using the Bubble Tea framework:
//
//   - [Model]: live view that ticks the simulator and forwards input to
//     the interaction controller
//   - [Canvas]: Braille-based pixel canvas with per-cell colors
//   - Theme selection with 3 built-in color schemes
//
// # Key Bindings
//
//	Tab/J K - Select a force slider
//	Up/Down - Tune the selected slider
//	Space   - Toggle the selected force on or off
//	R       - Reheat the layout
//	T       - Cycle color themes
//	S       - Save the current frame as SVG
//	?       - Show help
//	Q       - Quit
//
// Nodes can be dragged with the left mouse button.
package viz
