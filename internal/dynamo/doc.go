// Package dynamo provides the core types shared by the layout engine.
//
// The package defines the data model of a force-directed layout:
//
//   - [Node] and [Edge]: dataset records, addressed by string identifier
//   - [Body]: a simulated point with position, velocity and optional pin
//   - [Link]: a resolved edge holding body indices
//   - [Viewport]: the area position-relative forces scale against
//
// Links never hold references to bodies. [Resolve] maps identifiers to
// indices once, so the engine can own the body arena outright and hand
// out copies to renderers.
//
// # Errors
//
// Domain errors are sentinels matched with errors.Is. [ReferenceError] and
// [ConfigError] carry the offending identifier or force name.
package dynamo
