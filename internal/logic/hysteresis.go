package logic

// NextState returns the new state for a reading given the previous state.
//
// Rules, first match wins:
//
//	reading <  Low-Margin                  -> Low
//	Low+Margin <= reading <= High-Margin   -> Nominal
//	reading >  High+Margin                 -> High
//	otherwise (inside a dead-band)         -> prev
//
// A transition only happens once the reading clears a setpoint by more than
// the margin; re-entering the dead-band afterwards does not reverse it.
func NextState(reading float64, prev State, sp Setpoints) State {
	switch {
	case reading < sp.Low-sp.Margin:
		return Low
	case sp.Low+sp.Margin <= reading && reading <= sp.High-sp.Margin:
		return Nominal
	case reading > sp.High+sp.Margin:
		return High
	default:
		return prev
	}
}
