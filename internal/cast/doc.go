// Package cast implements element-kind conversion for dense tensors.
//
// The package has three layers:
//   - Scalar rules: how one value of a kind becomes a value of another kind,
//     including text formatting and parsing (rules.go).
//   - Casters: strategy objects bound to one (source, destination) pair that
//     apply a rule across a whole buffer. Numeric pairs share one generic
//     batch kernel; text pairs and float16 sources have specialized casters.
//   - Dispatcher: a table built once from the enabled source and destination
//     kind lists that maps a runtime pair to its Caster.
//
// Casting a kind to itself is not a dispatcher concern; callers copy instead.
package cast
