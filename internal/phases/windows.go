package phases

import "time"

// Window is the time slot of a phase, relative to session creation.
type Window struct {
	Start time.Duration
	End   time.Duration
}

// Windows lays the phases out one after another. When the plan does not fit
// into budget every non-empty phase is shrunk proportionally, keeping at least
// minPhaseDuration each.
func (p Plan) Windows(budget time.Duration) []Window {
	durations := make([]time.Duration, len(p))
	total := p.TotalDuration()
	for i, def := range p {
		d := def.Duration
		if budget > 0 && total > budget && d > 0 {
			d = max(minPhaseDuration, time.Duration(float64(d)*float64(budget)/float64(total)))
		}
		durations[i] = d
	}

	windows := make([]Window, len(p))
	var offset time.Duration
	for i, d := range durations {
		windows[i] = Window{Start: offset, End: offset + d}
		offset += d
	}
	return windows
}
