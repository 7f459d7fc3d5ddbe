package narrative

import (
	"context"
	"errors"
	"iter"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

var epoch = time.Date(2025, 6, 17, 9, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: epoch}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []func()
	for _, t := range c.timers {
		if !t.stopped && !t.fired && !t.at.After(c.now) {
			t.fired = true
			due = append(due, t.f)
		}
	}
	c.mu.Unlock()

	for _, f := range due {
		f()
	}
}

func (c *fakeClock) pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

// manualObserver fires registered callbacks when the test says the view is visible.
type manualObserver struct {
	mu        sync.Mutex
	next      int
	callbacks map[int]func()
	threshold float64
	cancelled int
}

func newManualObserver() *manualObserver {
	return &manualObserver{callbacks: make(map[int]func())}
}

func (o *manualObserver) OnVisible(threshold float64, fn func()) func() {
	o.mu.Lock()
	defer o.mu.Unlock()
	id := o.next
	o.next++
	o.threshold = threshold
	o.callbacks[id] = fn
	return func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		if _, ok := o.callbacks[id]; ok {
			delete(o.callbacks, id)
			o.cancelled++
		}
	}
}

func (o *manualObserver) Trigger() {
	o.mu.Lock()
	fns := make([]func(), 0, len(o.callbacks))
	for id, fn := range o.callbacks {
		fns = append(fns, fn)
		delete(o.callbacks, id)
	}
	o.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

func (o *manualObserver) active() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.callbacks)
}

// scriptedStreamer yields a fixed list of chunks per prompt, optionally
// waiting on a gate first. The gate ignores context cancellation so tests can
// check that late chunks are dropped by the consumer.
type scriptedStreamer struct {
	chunks map[string][]string
	err    error
	gate   chan struct{}

	calls   atomic.Int32
	prompts chan string
	done    chan struct{}
}

func newScriptedStreamer(chunks map[string][]string) *scriptedStreamer {
	return &scriptedStreamer{
		chunks:  chunks,
		prompts: make(chan string, 16),
		done:    make(chan struct{}, 16),
	}
}

func (s *scriptedStreamer) Stream(_ context.Context, prompt string) iter.Seq2[string, error] {
	s.calls.Add(1)
	s.prompts <- prompt
	return func(yield func(string, error) bool) {
		defer func() { s.done <- struct{}{} }()
		if s.gate != nil {
			<-s.gate
		}
		for _, chunk := range s.chunks[prompt] {
			if !yield(chunk, nil) {
				return
			}
		}
		if s.err != nil {
			yield("", s.err)
		}
	}
}

type recorder struct {
	mu     sync.Mutex
	states []State
}

func (r *recorder) record(s Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n := len(r.states); n == 0 || r.states[n-1] != s.State {
		r.states = append(r.states, s.State)
	}
}

func (r *recorder) seen() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]State(nil), r.states...)
}

type failingKV struct {
	getErr error
	setErr error
	inner  *MemoryKV
}

func (f *failingKV) Get(ctx context.Context, key string) (string, bool, error) {
	if f.getErr != nil {
		return "", false, f.getErr
	}
	return f.inner.Get(ctx, key)
}

func (f *failingKV) Set(ctx context.Context, key, value string) error {
	if f.setErr != nil {
		return f.setErr
	}
	return f.inner.Set(ctx, key, value)
}

// blockingKV holds every Set until release is closed or the caller gives up.
type blockingKV struct {
	inner   *MemoryKV
	entered chan string
	aborted chan string
	release chan struct{}
}

func newBlockingKV() *blockingKV {
	return &blockingKV{
		inner:   NewMemoryKV(),
		entered: make(chan string, 8),
		aborted: make(chan string, 8),
		release: make(chan struct{}),
	}
}

func (b *blockingKV) Get(ctx context.Context, key string) (string, bool, error) {
	return b.inner.Get(ctx, key)
}

func (b *blockingKV) Set(ctx context.Context, key, value string) error {
	b.entered <- key
	select {
	case <-b.release:
		return b.inner.Set(ctx, key, value)
	case <-ctx.Done():
		b.aborted <- key
		return ctx.Err()
	}
}

func receive(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for key")
		return ""
	}
}

var errQuota = errors.New("quota exceeded")

func awaitCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 2*time.Second)
}
