// Package control translates interaction events into simulation commands.
//
// A [Controller] sits between the event sources (config file watcher,
// terminal UI, websocket clients) and a running layout:
//
//   - [Controller.OnConfigChange] and [Controller.OnForceChange] swap force
//     parameters and fully reheat the layout.
//   - [Controller.OnViewportResize] applies the new size and, unless
//     disabled, reheats.
//   - [Controller.OnDragStart], [Controller.OnDragMove] and
//     [Controller.OnDragEnd] pin a body under the pointer while keeping
//     the layout warm.
//
// # Usage
//
//	ctrl, _ := control.New(simulator, control.DefaultOptions(), logger)
//	ctrl.OnDragStart("A", 100, 200)
//	ctrl.OnDragMove("A", 120, 210)
//	ctrl.OnDragEnd("A")
package control
