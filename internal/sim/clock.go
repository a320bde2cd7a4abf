package sim

// Clock is a fixed-timestep accumulator. Real elapsed time accumulates
// and the world steps zero or more times per frame, each by exactly one
// fixed dt, decoupling numerical behavior from display frame rate.
type Clock struct {
	accumulator float64
	maxSteps    int
}

// NewClock returns an accumulator capped at maxSteps world steps per
// advance; excess accumulated time is dropped so a slow frame cannot
// snowball into ever-longer catch-up work.
func NewClock(maxSteps int) *Clock {
	if maxSteps < 1 {
		maxSteps = 1
	}
	return &Clock{maxSteps: maxSteps}
}

// Advance adds real elapsed seconds and steps the world as many whole
// fixed timesteps as fit. Returns the number of steps executed.
func (c *Clock) Advance(w *World, elapsed float64) int {
	dt := w.Config().TimeStep
	c.accumulator += elapsed

	steps := 0
	for c.accumulator >= dt && steps < c.maxSteps {
		w.Step()
		c.accumulator -= dt
		steps++
	}
	if c.accumulator > float64(c.maxSteps)*dt {
		c.accumulator = 0
	}
	return steps
}
