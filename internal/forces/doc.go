// Package forces provides the force registry of the layout engine.
//
// The registry holds one typed configuration per [Kind] and applies every
// force additively to the body arena on each integration step:
//
//   - [Center]: translates the layout so its mean sits on a viewport point
//   - [Charge]: Barnes-Hut many-body repulsion or attraction
//   - [Collide]: iterative overlap resolution on predicted positions
//   - [ForceX] and [ForceY]: axis-aligned pull toward a viewport line
//   - [Link]: spring relaxation toward a target separation
//
// A disabled force keeps its parameters and contributes nothing. Disabling
// [Link] removes every link from consideration rather than weakening them.
//
// # Configuration
//
// Parameters are validated with struct tags before they replace the active
// configuration, so a rejected update leaves the last good values in place:
//
//	reg, _ := forces.NewRegistry(forces.DefaultConfig(), 1)
//	err := reg.Configure(forces.ChargeParams{Enabled: true, Strength: -60, DistanceMin: 1, DistanceMax: 2000})
package forces
