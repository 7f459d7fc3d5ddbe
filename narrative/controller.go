// Package narrative resolves the generated project summary shown on the
// project detail view: it prefers a valid cached copy, otherwise streams a new
// one from the generation service, splits it into segments and drives the
// staggered reveal that ends with the attribution marker.
package narrative

import (
	"context"
	"iter"
	"slices"
	"strings"
	"sync"
	"time"

	"portfolio/logger"
	"portfolio/richtext"
)

// DefaultTimeout bounds one generation request.
const DefaultTimeout = 30 * time.Second

const storeTimeout = 5 * time.Second

type State int

const (
	StateIdle State = iota
	StateResolving
	StateCacheHit
	StateStreaming
	StateReady
	StateRevealing
	StateComplete
	// StateFailed is terminal for an identity: generation failed and the
	// narrative is simply absent.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateResolving:
		return "resolving"
	case StateCacheHit:
		return "cache-hit"
	case StateStreaming:
		return "streaming"
	case StateReady:
		return "ready"
	case StateRevealing:
		return "revealing"
	case StateComplete:
		return "complete"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Source tells where the narrative text came from.
type Source string

const (
	SourceCache  Source = "cache"
	SourceStream Source = "stream"
)

// Streamer produces narrative text incrementally for a plain-text prompt.
type Streamer interface {
	Stream(ctx context.Context, prompt string) iter.Seq2[string, error]
}

// StreamerFunc adapts a function to Streamer.
type StreamerFunc func(ctx context.Context, prompt string) iter.Seq2[string, error]

func (f StreamerFunc) Stream(ctx context.Context, prompt string) iter.Seq2[string, error] {
	return f(ctx, prompt)
}

// Subject is the project a controller is bound to.
type Subject struct {
	Slug   string
	Prompt richtext.Blocks
}

// Snapshot is a copy of the controller state.
type Snapshot struct {
	State     State
	Slug      string
	Source    Source
	Text      string
	Segments  []Segment
	Plan      RevealPlan
	Visible   bool
	FetchedAt time.Time
	ExpiresAt time.Time
}

// Complete reports whether the attribution marker may be shown.
func (s Snapshot) Complete() bool {
	return s.State == StateComplete
}

type Options struct {
	Cache     *Cache
	Streamer  Streamer
	Observer  Observer
	Clock     Clock
	Timing    RevealTiming
	Threshold float64
	Timeout   time.Duration
	Logger    logger.Logger
	// OnChange receives a snapshot after every transition. It is called
	// without the controller lock held and possibly from other goroutines.
	OnChange func(Snapshot)
}

// Controller runs the narrative lifecycle for one view. It is safe for
// concurrent use.
type Controller struct {
	opts Options

	mu       sync.Mutex
	epoch    uint64
	identity string
	snap     Snapshot
	closed   bool
	pending  []Snapshot

	cancelStream   context.CancelFunc
	cancelStore    context.CancelFunc
	cancelObserver func()
	timer          Timer
	settled        chan struct{}
	isSettled      bool
}

func NewController(opts Options) *Controller {
	if opts.Observer == nil {
		opts.Observer = Immediate
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock
	}
	if opts.Timing == (RevealTiming{}) {
		opts.Timing = DefaultRevealTiming
	}
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultVisibilityThreshold
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	if opts.Cache == nil {
		opts.Cache = NewCache(NewMemoryKV(), opts.Clock, DefaultTTL)
	}
	return &Controller{opts: opts}
}

// Bind points the controller at a project. Binding the identity that is
// already bound is a no-op, so at most one request is in flight per view.
// Binding a different identity discards everything belonging to the previous
// one, including an in-flight stream. A subject without slug or prompt resets
// the controller to idle.
func (c *Controller) Bind(ctx context.Context, s Subject) {
	prompt := s.Prompt.PlainText()
	if s.Slug == "" || strings.TrimSpace(prompt) == "" {
		c.Reset()
		return
	}
	identity := s.Slug + "\x00" + prompt

	c.mu.Lock()
	if c.closed || (c.identity == identity && c.snap.State != StateIdle) {
		c.mu.Unlock()
		return
	}
	cleanup := c.resetLocked()
	c.identity = identity
	c.settled = make(chan struct{})
	c.isSettled = false
	epoch := c.epoch
	c.snap.Slug = s.Slug
	c.transitionLocked(StateResolving)
	c.unlockAndNotify()
	cleanup()

	cancelObserver := c.opts.Observer.OnVisible(c.opts.Threshold, func() {
		c.markVisible(epoch)
	})
	c.mu.Lock()
	if c.epoch != epoch {
		c.mu.Unlock()
		cancelObserver()
		return
	}
	c.cancelObserver = cancelObserver
	c.mu.Unlock()

	entry, hit := c.opts.Cache.Lookup(ctx, s.Slug)

	c.mu.Lock()
	if c.epoch != epoch {
		c.mu.Unlock()
		return
	}

	if hit {
		c.opts.Logger.Debug("Narrative cache hit", logger.String("slug", s.Slug))
		c.transitionLocked(StateCacheHit)
		c.readyLocked(entry.Text, SourceCache, entry.ExpiresAt.Add(-c.opts.Cache.ttl), entry.ExpiresAt)
		c.unlockAndNotify()
		return
	}

	c.opts.Logger.Debug("Narrative cache miss, streaming", logger.String("slug", s.Slug))
	streamCtx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	c.cancelStream = cancel
	c.transitionLocked(StateStreaming)
	c.unlockAndNotify()

	go c.stream(streamCtx, cancel, epoch, s.Slug, prompt)
}

func (c *Controller) stream(ctx context.Context, cancel context.CancelFunc, epoch uint64, slug, prompt string) {
	defer cancel()

	var (
		sb  strings.Builder
		err error
	)
	for chunk, chunkErr := range c.opts.Streamer.Stream(ctx, prompt) {
		if chunkErr != nil {
			err = chunkErr
			break
		}
		if !c.current(epoch) {
			return
		}
		sb.WriteString(chunk)
	}
	if err == nil {
		err = ctx.Err()
	}

	c.mu.Lock()
	if c.epoch != epoch {
		c.mu.Unlock()
		return
	}

	text := sb.String()
	if err != nil || strings.TrimSpace(text) == "" {
		fields := []logger.Field{logger.String("slug", slug)}
		if err != nil {
			fields = append(fields, logger.Error(err))
		}
		c.opts.Logger.Warn("Narrative generation failed", fields...)
		c.failLocked()
		c.unlockAndNotify()
		return
	}

	// The write runs unlocked so a slow store never holds up Bind or Reset.
	// Resetting cancels storeCtx, which keeps a superseded slug from being written.
	storeCtx, cancelStore := context.WithTimeout(context.WithoutCancel(ctx), storeTimeout)
	defer cancelStore()
	c.cancelStore = cancelStore
	c.mu.Unlock()

	fetchedAt := c.opts.Clock.Now()
	entry, storeErr := c.opts.Cache.Store(storeCtx, slug, text)

	c.mu.Lock()
	if c.epoch != epoch {
		c.mu.Unlock()
		return
	}
	c.cancelStore = nil
	if storeErr != nil {
		c.opts.Logger.Debug("Narrative cache write skipped", logger.String("slug", slug), logger.Error(storeErr))
	}
	c.readyLocked(text, SourceStream, fetchedAt, entry.ExpiresAt)
	c.unlockAndNotify()
}

func (c *Controller) current(epoch uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch == epoch
}

func (c *Controller) readyLocked(text string, source Source, fetchedAt, expiresAt time.Time) {
	segments := Tokenize(text)
	if len(segments) == 0 {
		c.failLocked()
		return
	}

	c.snap.Text = text
	c.snap.Segments = segments
	c.snap.Source = source
	c.snap.FetchedAt = fetchedAt
	c.snap.ExpiresAt = expiresAt
	c.transitionLocked(StateReady)
	c.settleLocked()
	c.maybeRevealLocked()
}

func (c *Controller) failLocked() {
	c.snap.Segments = nil
	c.snap.Text = ""
	c.transitionLocked(StateFailed)
	c.settleLocked()
}

func (c *Controller) markVisible(epoch uint64) {
	c.mu.Lock()
	if c.epoch != epoch || c.snap.Visible {
		c.mu.Unlock()
		return
	}
	c.snap.Visible = true
	c.pending = append(c.pending, c.copyLocked())
	c.maybeRevealLocked()
	c.unlockAndNotify()
}

func (c *Controller) maybeRevealLocked() {
	if !c.snap.Visible || c.snap.State != StateReady || len(c.snap.Segments) == 0 {
		return
	}

	c.snap.Plan = c.opts.Timing.Plan(c.snap.Segments)
	c.transitionLocked(StateRevealing)

	epoch := c.epoch
	c.timer = c.opts.Clock.AfterFunc(c.snap.Plan.Total, func() {
		c.complete(epoch)
	})
}

func (c *Controller) complete(epoch uint64) {
	c.mu.Lock()
	if c.epoch != epoch || c.snap.State != StateRevealing {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	c.transitionLocked(StateComplete)
	c.unlockAndNotify()
}

// Await blocks until the current resolution reaches Ready (or later) or
// Failed, or ctx is done, and returns the state at that point.
func (c *Controller) Await(ctx context.Context) Snapshot {
	c.mu.Lock()
	ch := c.settled
	c.mu.Unlock()

	if ch != nil {
		select {
		case <-ch:
		case <-ctx.Done():
		}
	}
	return c.Snapshot()
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.copyLocked()
}

// Reset returns to idle, cancelling the stream, the completion timer and the
// visibility observation.
func (c *Controller) Reset() {
	c.mu.Lock()
	cleanup := c.resetLocked()
	if c.snap.State != StateIdle {
		c.snap = Snapshot{}
		c.transitionLocked(StateIdle)
	}
	c.unlockAndNotify()
	cleanup()
}

// Close resets the controller and ignores later binds.
func (c *Controller) Close() {
	c.Reset()
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

func (c *Controller) resetLocked() (cleanup func()) {
	c.epoch++
	c.identity = ""
	if c.cancelStream != nil {
		c.cancelStream()
		c.cancelStream = nil
	}
	if c.cancelStore != nil {
		c.cancelStore()
		c.cancelStore = nil
	}
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.settleLocked()
	c.snap = Snapshot{State: c.snap.State}

	cancelObserver := c.cancelObserver
	c.cancelObserver = nil
	return func() {
		if cancelObserver != nil {
			cancelObserver()
		}
	}
}

func (c *Controller) settleLocked() {
	if c.settled != nil && !c.isSettled {
		close(c.settled)
		c.isSettled = true
	}
}

func (c *Controller) transitionLocked(s State) {
	c.snap.State = s
	c.pending = append(c.pending, c.copyLocked())
}

func (c *Controller) copyLocked() Snapshot {
	s := c.snap
	s.Segments = slices.Clone(c.snap.Segments)
	s.Plan.Delays = slices.Clone(c.snap.Plan.Delays)
	return s
}

func (c *Controller) unlockAndNotify() {
	pending := c.pending
	c.pending = nil
	c.mu.Unlock()

	if c.opts.OnChange == nil {
		return
	}
	for _, s := range pending {
		c.opts.OnChange(s)
	}
}
