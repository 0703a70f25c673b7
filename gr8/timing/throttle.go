package timing

import "time"

// Throttle tracks the selected preset and the time of the last tick.
type Throttle struct {
	index    int
	lastTick time.Time
}

// NewThrottle starts at preset index, clamped into the table.
func NewThrottle(index int, now time.Time) *Throttle {
	t := &Throttle{lastTick: now}
	t.Select(index)
	return t
}

// Index returns the selected preset index.
func (t *Throttle) Index() int { return t.index }

// Preset returns the selected preset.
func (t *Throttle) Preset() Preset { return Presets[t.index] }

// Select changes the preset, clamping index to the table bounds.
func (t *Throttle) Select(index int) {
	if index < 0 {
		index = 0
	}
	if index >= len(Presets) {
		index = len(Presets) - 1
	}
	t.index = index
}

// Slower moves one preset down the table. Reports false at the slowest one.
func (t *Throttle) Slower() bool {
	if t.index >= len(Presets)-1 {
		return false
	}
	t.index++
	return true
}

// Faster moves one preset up the table. Reports false at the fastest one.
func (t *Throttle) Faster() bool {
	if t.index <= 0 {
		return false
	}
	t.index--
	return true
}

// Due reports whether a tick is owed at now.
func (t *Throttle) Due(now time.Time) bool {
	return !now.Before(t.lastTick.Add(t.Preset().Interval))
}

// Until returns how long until the next tick is owed, never negative.
func (t *Throttle) Until(now time.Time) time.Duration {
	d := t.lastTick.Add(t.Preset().Interval).Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// Mark records a tick at now and returns the time since the previous one.
func (t *Throttle) Mark(now time.Time) time.Duration {
	elapsed := now.Sub(t.lastTick)
	t.lastTick = now
	return elapsed
}
