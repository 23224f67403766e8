package synth

// Gate detects rising edges of a control signal
type Gate struct {
	last float64
}

// Input feeds one value and returns it when the signal rose from <= 0
// to > 0, otherwise 0
func (g *Gate) Input(v float64) float64 {
	edge := 0.0
	if g.last <= 0 && v > 0 {
		edge = v
	}
	g.last = v
	return edge
}

// Reset forgets the previous input
func (g *Gate) Reset() {
	g.last = 0
}
