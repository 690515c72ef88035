// Package circuit models the condenser leakage circuit.
//
// The bench has a battery, two keys and a condenser that leaks through an
// unknown high resistance:
//
//   - K1 connects the battery and charges the condenser toward [Constants.MaxVoltage]
//   - K2 connects the condenser across the high resistance so it leaks
//   - with both keys open the charge is held
//
// [State] is a plain value. The live copy is owned by the simulator, every
// other reader works on a snapshot.
//
// # Units
//
// Voltages are galvanometer divisions (0 to MaxVoltage), capacitance is in
// microfarads and resistance in megaohms, so R*C comes out in seconds.
package circuit
