package timing

import (
	"fmt"
	"time"
)

// Preset is one entry of the frequency table: every Interval the scheduler
// runs Cycles CPU cycles.
type Preset struct {
	Interval time.Duration
	Cycles   int
}

// Hertz returns the rate the preset aims for.
func (p Preset) Hertz() float64 {
	return Rate(p.Cycles, p.Interval)
}

// Presets is ordered from fastest to slowest. OS timers do not wake up much
// more often than every 20ms, so the fast presets batch more cycles per
// wakeup instead of shortening the interval.
var Presets = [...]Preset{
	{20 * time.Millisecond, 2000000}, // 100 MHz
	{20 * time.Millisecond, 200000},  // 10 MHz
	{20 * time.Millisecond, 20000},   // 1 MHz
	{20 * time.Millisecond, 2000},    // 100 KHz
	{20 * time.Millisecond, 200},     // 10 KHz
	{20 * time.Millisecond, 20},      // 1 KHz
	{20 * time.Millisecond, 10},      // 500 Hz
	{20 * time.Millisecond, 5},       // 250 Hz
	{20 * time.Millisecond, 2},       // 100 Hz
	{20 * time.Millisecond, 1},       // 50 Hz
	{100 * time.Millisecond, 1},      // 10 Hz
	{200 * time.Millisecond, 1},      // 5 Hz
	{time.Second, 1},                 // 1 Hz
	{2 * time.Second, 1},             // 0.5 Hz
}

// DefaultPreset is the 1 MHz entry.
const DefaultPreset = 2

// Rate returns cycles per second for cycles run over elapsed.
func Rate(cycles int, elapsed time.Duration) float64 {
	micros := float64(elapsed / time.Microsecond)
	if micros <= 0 {
		return 0
	}
	return 1000000.0 / micros * float64(cycles)
}

var units = [...]string{"Hz", "KHz", "MHz", "GHz"}

// Describe formats a frequency with one decimal and the largest unit that
// keeps the value at or below 750.
func Describe(hz float64) string {
	i := 0
	for ; i < len(units)-1 && hz > 750.0; i++ {
		hz /= 1000.0
	}
	return fmt.Sprintf("%.1f %s", hz, units[i])
}
