package handlers

import (
	"context"
	"errors"
	"iter"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/singleflight"

	"portfolio/content"
	"portfolio/logger"
	"portfolio/metrics"
	"portfolio/models"
	"portfolio/narrative"
)

var errGenerationDisabled = errors.New("generation is not configured")

type segmentView struct {
	ID      string                `json:"id"`
	Text    string                `json:"text"`
	Type    narrative.SegmentType `json:"type"`
	DelayMS int64                 `json:"delay_ms"`
}

// IsWord reports whether the segment renders as text.
func (s segmentView) IsWord() bool { return s.Type == narrative.SegmentWord }

func (s segmentView) IsParagraphBreak() bool { return s.Type == narrative.SegmentParagraphBreak }

type narrativeView struct {
	Slug            string        `json:"slug"`
	Source          string        `json:"source"`
	Segments        []segmentView `json:"segments"`
	CompleteAfterMS int64         `json:"complete_after_ms"`
	Model           string        `json:"model,omitempty"`
}

// Present reports whether there is anything to reveal.
func (v narrativeView) Present() bool { return len(v.Segments) > 0 }

// narrativeResolver runs one controller per server-side view. Concurrent
// views of the same prompt share a single generation.
type narrativeResolver struct {
	cache   *narrative.Cache
	gen     Generator
	timing  narrative.RevealTiming
	timeout time.Duration
	log     logger.Logger
	metrics *metrics.Metrics
	group   singleflight.Group
}

func newNarrativeResolver(d Deps) *narrativeResolver {
	return &narrativeResolver{
		cache:   d.Cache,
		gen:     d.Generator,
		timing:  d.Timing,
		timeout: d.GenerateTimeout,
		log:     d.Log,
		metrics: d.Metrics,
	}
}

// Stream collects the generated text once per prompt across concurrent callers
// and yields it as a single chunk. The shared generation is detached from any
// one caller's context, so a viewer leaving early does not fail the others.
func (r *narrativeResolver) Stream(ctx context.Context, prompt string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if r.gen == nil {
			yield("", errGenerationDisabled)
			return
		}

		ch := r.group.DoChan(prompt, func() (any, error) {
			genCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.generateTimeout())
			defer cancel()

			var sb strings.Builder
			for chunk, err := range r.gen.Stream(genCtx, prompt) {
				if err != nil {
					return "", err
				}
				sb.WriteString(chunk)
			}
			return sb.String(), nil
		})

		select {
		case <-ctx.Done():
			yield("", ctx.Err())
		case res := <-ch:
			if res.Shared {
				r.log.Debug("Joined in-flight generation")
			}
			if res.Err != nil {
				yield("", res.Err)
				return
			}
			yield(res.Val.(string), nil)
		}
	}
}

func (r *narrativeResolver) generateTimeout() time.Duration {
	if r.timeout > 0 {
		return r.timeout
	}
	return narrative.DefaultTimeout
}

func (r *narrativeResolver) Resolve(ctx context.Context, project *models.Project) narrativeView {
	view := narrativeView{Slug: project.Slug, Segments: []segmentView{}}
	if r.gen != nil {
		view.Model = r.gen.Model()
	}

	ctrl := narrative.NewController(narrative.Options{
		Cache:    r.cache,
		Streamer: r,
		Observer: narrative.Immediate,
		Timing:   r.timing,
		Timeout:  r.timeout,
		Logger:   r.log.With(logger.String("slug", project.Slug)),
	})
	defer ctrl.Close()

	ctrl.Bind(ctx, narrative.Subject{Slug: project.Slug, Prompt: project.Prompt})
	snap := ctrl.Await(ctx)

	switch {
	case snap.State == narrative.StateIdle:
		// nothing to generate from
		return view
	case len(snap.Segments) == 0 && ctx.Err() != nil,
		snap.State == narrative.StateResolving, snap.State == narrative.StateStreaming:
		// the request ended before the narrative settled
		view.Source = metrics.OutcomeAborted
	case snap.State == narrative.StateFailed:
		view.Source = "failed"
	default:
		view.Source = string(snap.Source)
	}
	r.metrics.ObserveNarrative(view.Source)

	if len(snap.Segments) == 0 {
		return view
	}
	plan := snap.Plan
	if len(plan.Delays) != len(snap.Segments) {
		plan = r.timing.Plan(snap.Segments)
	}
	for i, s := range snap.Segments {
		view.Segments = append(view.Segments, segmentView{
			ID:      s.ID,
			Text:    s.Text,
			Type:    s.Type,
			DelayMS: plan.Delays[i].Milliseconds(),
		})
	}
	view.CompleteAfterMS = plan.Total.Milliseconds()
	return view
}

// NarrativeHandler returns the resolved narrative of a project as JSON.
func NarrativeHandler(store content.Store, r *narrativeResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		project, err := store.Project(c.Request.Context(), c.Param("slug"))
		if errors.Is(err, content.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
			return
		}
		if err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load project"})
			return
		}

		c.JSON(http.StatusOK, r.Resolve(c.Request.Context(), project))
	}
}
