package logic

import "testing"

var allStates = []State{Low, Nominal, High}

func TestNextStateScenarios(t *testing.T) {
	sp := DefaultSetpoints()
	tests := []struct {
		reading float64
		prev    State
		want    State
	}{
		// Low and rising slowly to nominal
		{17, Low, Low},
		{17.5, Low, Low},
		{18, Low, Low},
		{18.5, Low, Nominal},
		// Now drop back to low
		{18, Nominal, Nominal},
		{17.5, Nominal, Nominal},
		{17, Nominal, Low},
		// Nominal to high
		{23, Nominal, Nominal},
		{23.5, Nominal, Nominal},
		{24, Nominal, Nominal},
		{24.5, Nominal, Nominal},
		{25, Nominal, High},
		// Drop back towards nominal
		{24.5, High, High},
		{24, High, High},
		{23.5, High, Nominal},
	}

	for _, tt := range tests {
		if got := NextState(tt.reading, tt.prev, sp); got != tt.want {
			t.Errorf("NextState(%v, %s): got %s, want %s", tt.reading, tt.prev, got, tt.want)
		}
	}
}

// sweep calls fn for every 1/16 °C step between lo and hi inclusive.
func sweep(lo, hi float64, fn func(reading float64)) {
	for i := int(lo * 16); i <= int(hi*16); i++ {
		fn(float64(i) / 16)
	}
}

func TestNextStateOutsideDeadBands(t *testing.T) {
	sp := DefaultSetpoints()
	sweep(-40, 40, func(r float64) {
		for _, prev := range allStates {
			got := NextState(r, prev, sp)
			switch {
			case r < sp.Low-sp.Margin:
				if got != Low {
					t.Errorf("NextState(%v, %s): got %s, want LOW", r, prev, got)
				}
			case r >= sp.Low+sp.Margin && r <= sp.High-sp.Margin:
				if got != Nominal {
					t.Errorf("NextState(%v, %s): got %s, want NOMINAL", r, prev, got)
				}
			case r > sp.High+sp.Margin:
				if got != High {
					t.Errorf("NextState(%v, %s): got %s, want HIGH", r, prev, got)
				}
			}
		}
	})
}

func TestNextStateDeadBandHoldsState(t *testing.T) {
	sp := DefaultSetpoints()
	sweep(-40, 40, func(r float64) {
		inLower := r > sp.Low-sp.Margin && r < sp.Low+sp.Margin
		inUpper := r > sp.High-sp.Margin && r < sp.High+sp.Margin
		if !inLower && !inUpper {
			return
		}
		for _, prev := range allStates {
			if got := NextState(r, prev, sp); got != prev {
				t.Errorf("NextState(%v, %s) in dead-band: got %s, want %s", r, prev, got, prev)
			}
		}
	})
}

func TestNextStateZeroMargin(t *testing.T) {
	sp := Setpoints{Low: 18, High: 24, Margin: 0}
	tests := []struct {
		reading float64
		prev    State
		want    State
	}{
		{17.9375, Nominal, Low},
		{18, Low, Nominal},
		{24, High, Nominal},
		{24.0625, Nominal, High},
	}
	for _, tt := range tests {
		if got := NextState(tt.reading, tt.prev, sp); got != tt.want {
			t.Errorf("NextState(%v, %s): got %s, want %s", tt.reading, tt.prev, got, tt.want)
		}
	}
}

func TestNextStateEveryStateReachable(t *testing.T) {
	sp := DefaultSetpoints()
	seen := map[State]bool{}
	s := Nominal
	for _, r := range []float64{20, 16, 20, 26, 20} {
		s = NextState(r, s, sp)
		seen[s] = true
	}
	for _, want := range allStates {
		if !seen[want] {
			t.Errorf("state %s never reached", want)
		}
	}
}
