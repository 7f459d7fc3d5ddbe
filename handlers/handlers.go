// Package handlers wires the site's HTTP surface onto gin.
package handlers

import (
	"context"
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"portfolio/blocks"
	"portfolio/content"
	"portfolio/logger"
	"portfolio/metrics"
	"portfolio/narrative"
)

//go:embed templates/*.html
var templateFS embed.FS

// Generator streams project summaries and names the model behind them.
type Generator interface {
	narrative.Streamer
	Model() string
}

// Deps are the collaborators of the handlers. Generator may be nil, in which
// case generation is reported as unavailable and narratives are absent.
type Deps struct {
	Store           content.Store
	Blocks          *blocks.Registry
	Generator       Generator
	Cache           *narrative.Cache
	Metrics         *metrics.Metrics
	Gatherer        prometheus.Gatherer
	Log             logger.Logger
	GenerateTimeout time.Duration
	Timing          narrative.RevealTiming
	// Checks are run by /healthz, keyed by component name.
	Checks map[string]func(ctx context.Context) error
}

// Templates parses the page templates.
func Templates() *template.Template {
	return template.Must(template.New("pages").ParseFS(templateFS, "templates/*.html"))
}

// Register mounts every route on r.
func Register(r *gin.Engine, d Deps) {
	if d.Log == nil {
		d.Log = logger.NewNop()
	}
	if d.Blocks == nil {
		d.Blocks = blocks.Default()
	}
	if d.Metrics == nil {
		d.Metrics = metrics.New(prometheus.NewRegistry())
	}
	if d.Gatherer == nil {
		d.Gatherer = prometheus.DefaultGatherer
	}
	if d.Cache == nil {
		d.Cache = narrative.NewCache(narrative.NewMemoryKV(), nil, narrative.DefaultTTL)
	}
	if d.Timing == (narrative.RevealTiming{}) {
		d.Timing = narrative.DefaultRevealTiming
	}

	d.Blocks.OnRender(d.Metrics.ObserveBlock)
	r.SetHTMLTemplate(Templates())

	narratives := newNarrativeResolver(d)

	r.GET("/healthz", HealthHandler(d.Checks))
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))

	api := r.Group("/api")
	api.POST("/generate", GenerateHandler(d.Generator, d.Metrics, d.Log))
	api.GET("/narrative/:slug", NarrativeHandler(d.Store, narratives))
	api.GET("/slugs", SlugsHandler(d.Store))

	r.GET("/", HomeHandler(d.Store, d.Blocks))
	r.GET("/project/:slug", ProjectHandler(d.Store, narratives))
	r.GET("/:slug", PageHandler(d.Store, d.Blocks))

	r.NoRoute(func(c *gin.Context) {
		notFound(c, "")
	})
}

func notFound(c *gin.Context, siteTitle string) {
	c.HTML(http.StatusNotFound, "not_found.html", gin.H{"SiteTitle": siteTitle, "Title": "Page not found"})
}

func serverError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.String(http.StatusInternalServerError, "Internal Server Error")
}
