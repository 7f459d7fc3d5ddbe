package narrative

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRevealTiming_Total(t *testing.T) {
	timing := DefaultRevealTiming

	tests := []struct {
		name string
		n    int
		want time.Duration
	}{
		{"no segments never reveal", 0, 0},
		{"single segment", 1, 400 * time.Millisecond},
		{"two segments", 2, 450 * time.Millisecond},
		{"twenty segments", 20, 19*50*time.Millisecond + 400*time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, timing.Total(tt.n))
		})
	}
}

func TestRevealTiming_Plan(t *testing.T) {
	timing := RevealTiming{Stagger: 10 * time.Millisecond, Animation: 100 * time.Millisecond, Margin: 5 * time.Millisecond}

	plan := timing.Plan(Tokenize("a b"))

	assert.Equal(t, []time.Duration{0, 10 * time.Millisecond, 20 * time.Millisecond}, plan.Delays)
	assert.Equal(t, 125*time.Millisecond, plan.Total)
}
