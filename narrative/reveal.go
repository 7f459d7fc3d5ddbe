package narrative

import "time"

// RevealTiming drives the staggered appearance of segments.
type RevealTiming struct {
	// Stagger is the delay added per segment index.
	Stagger time.Duration
	// Animation is the duration of one segment's entrance.
	Animation time.Duration
	// Margin pads the end of the sequence before completion.
	Margin time.Duration
}

// DefaultRevealTiming matches the stylesheet's word animation.
var DefaultRevealTiming = RevealTiming{
	Stagger:   50 * time.Millisecond,
	Animation: 300 * time.Millisecond,
	Margin:    100 * time.Millisecond,
}

// Delay returns when segment i starts to appear.
func (t RevealTiming) Delay(i int) time.Duration {
	return time.Duration(i) * t.Stagger
}

// Total returns the time from the start of the reveal until the last of n
// segments has finished animating. Zero segments never reveal, so Total(0) is 0.
func (t RevealTiming) Total(n int) time.Duration {
	if n <= 0 {
		return 0
	}
	return t.Delay(n-1) + t.Animation + t.Margin
}

// RevealPlan is the per-segment schedule for one narrative.
type RevealPlan struct {
	Delays []time.Duration
	Total  time.Duration
}

func (t RevealTiming) Plan(segments []Segment) RevealPlan {
	delays := make([]time.Duration, len(segments))
	for i := range segments {
		delays[i] = t.Delay(i)
	}
	return RevealPlan{Delays: delays, Total: t.Total(len(segments))}
}
