package timing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPresets_Descriptions(t *testing.T) {
	want := []string{
		"100.0 MHz", "10.0 MHz", "1.0 MHz", "100.0 KHz", "10.0 KHz",
		"1.0 KHz", "500.0 Hz", "250.0 Hz", "100.0 Hz", "50.0 Hz",
		"10.0 Hz", "5.0 Hz", "1.0 Hz", "0.5 Hz",
	}

	assert.Len(t, Presets, 14)
	for i, p := range Presets {
		assert.Equal(t, want[i], Describe(p.Hertz()), "preset %d", i)
	}
}

func TestPresets_MonotonicallySlower(t *testing.T) {
	for i := 1; i < len(Presets); i++ {
		assert.Less(t, Presets[i].Hertz(), Presets[i-1].Hertz(), "preset %d", i)
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		hz   float64
		want string
	}{
		{0, "0.0 Hz"},
		{750, "750.0 Hz"},
		{751, "0.8 KHz"},
		{1e6, "1.0 MHz"},
		{2.5e9, "2.5 GHz"},
		{5e12, "5000.0 GHz"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Describe(tt.hz))
	}
}

func TestRate(t *testing.T) {
	assert.Equal(t, 1000000.0, Rate(20000, 20*time.Millisecond))
	assert.Equal(t, 50.0, Rate(1, 20*time.Millisecond))
	assert.Equal(t, 0.0, Rate(100, 0))
}

func TestThrottle_Clamps(t *testing.T) {
	clock := NewManualClock()
	th := NewThrottle(0, clock.Now())

	assert.False(t, th.Faster(), "cannot go faster than preset 0")
	assert.Equal(t, 0, th.Index())

	th.Select(len(Presets) - 1)
	assert.False(t, th.Slower(), "cannot go slower than the last preset")
	assert.Equal(t, len(Presets)-1, th.Index())

	th.Select(99)
	assert.Equal(t, len(Presets)-1, th.Index())
	th.Select(-3)
	assert.Equal(t, 0, th.Index())
}

func TestThrottle_Due(t *testing.T) {
	clock := NewManualClock()
	th := NewThrottle(DefaultPreset, clock.Now())

	assert.False(t, th.Due(clock.Now()))
	assert.Equal(t, 20*time.Millisecond, th.Until(clock.Now()))

	clock.Advance(19 * time.Millisecond)
	assert.False(t, th.Due(clock.Now()))

	clock.Advance(time.Millisecond)
	assert.True(t, th.Due(clock.Now()))
	assert.Equal(t, time.Duration(0), th.Until(clock.Now()))

	assert.Equal(t, 20*time.Millisecond, th.Mark(clock.Now()))
	assert.False(t, th.Due(clock.Now()))
}
