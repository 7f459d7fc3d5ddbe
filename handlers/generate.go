package handlers

import (
	"iter"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"portfolio/generate"
	"portfolio/logger"
	"portfolio/metrics"
	"portfolio/middleware"
)

// GenerateHandler streams a project summary for {"prompt": "..."} as chunked
// plain text. Errors before the first chunk become a 500; later errors end
// the stream early.
func GenerateHandler(gen Generator, m *metrics.Metrics, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req generate.Request
		if err := c.ShouldBindJSON(&req); err != nil {
			m.ObserveGenerate(metrics.OutcomeRejected, 0)
			c.String(http.StatusBadRequest, "Bad request")
			return
		}
		if strings.TrimSpace(req.Prompt) == "" {
			m.ObserveGenerate(metrics.OutcomeRejected, 0)
			c.String(http.StatusBadRequest, "Prompt is required")
			return
		}
		if gen == nil {
			m.ObserveGenerate(metrics.OutcomeFailed, 0)
			c.String(http.StatusServiceUnavailable, "Generation is not configured")
			return
		}

		start := time.Now()
		next, stop := iter.Pull2(gen.Stream(c.Request.Context(), req.Prompt))
		defer stop()

		first, err, ok := next()
		if ok && err != nil {
			log.Warn("Generation failed before streaming",
				logger.String("request_id", middleware.GetRequestID(c)),
				logger.Error(err),
			)
			m.ObserveGenerate(metrics.OutcomeFailed, time.Since(start))
			c.String(http.StatusInternalServerError, "Internal Server Error")
			return
		}

		h := c.Writer.Header()
		h.Set("Content-Type", "text/plain; charset=utf-8")
		h.Set("Cache-Control", "no-cache")
		h.Set("Connection", "keep-alive")
		c.Status(http.StatusOK)
		c.Writer.WriteHeaderNow()

		for ok {
			if _, werr := c.Writer.WriteString(first); werr != nil {
				m.ObserveGenerate(metrics.OutcomeAborted, time.Since(start))
				return
			}
			c.Writer.Flush()

			first, err, ok = next()
			if ok && err != nil {
				outcome := metrics.OutcomeFailed
				if c.Request.Context().Err() != nil {
					outcome = metrics.OutcomeAborted
				}
				log.Warn("Generation stream interrupted", logger.Error(err))
				m.ObserveGenerate(outcome, time.Since(start))
				return
			}
		}
		m.ObserveGenerate(metrics.OutcomeOK, time.Since(start))
	}
}
