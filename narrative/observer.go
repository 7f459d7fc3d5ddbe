package narrative

// DefaultVisibilityThreshold is the fraction of the narrative container that
// must be in view before segments are revealed.
const DefaultVisibilityThreshold = 0.3

// Observer reports when a view becomes visible. OnVisible must call fn at most
// once; the returned cancel function deregisters the observation.
type Observer interface {
	OnVisible(threshold float64, fn func()) (cancel func())
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(threshold float64, fn func()) func()

func (f ObserverFunc) OnVisible(threshold float64, fn func()) func() {
	return f(threshold, fn)
}

// Immediate treats every view as visible as soon as it is observed. It fits
// renderers with no viewport, such as server-rendered pages and terminals.
var Immediate Observer = ObserverFunc(func(_ float64, fn func()) func() {
	fn()
	return func() {}
})
