package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"portfolio/blocks"
	"portfolio/content"
	"portfolio/models"
)

type pageView struct {
	SiteTitle   string
	Description string
	Title       string
	Page        *models.Page
	Blocks      []blocks.Rendered
}

type projectView struct {
	SiteTitle  string
	Title      string
	Project    *models.Project
	BasePrompt string
	Narrative  narrativeView
}

func siteSettings(ctx context.Context, store content.Store) *models.Settings {
	settings, err := store.Settings(ctx)
	if err != nil || settings == nil {
		return &models.Settings{}
	}
	return settings
}

// HomeHandler renders the home page builder.
func HomeHandler(store content.Store, registry *blocks.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		settings := siteSettings(ctx, store)

		page, err := store.Home(ctx)
		if errors.Is(err, content.ErrNotFound) {
			notFound(c, settings.Title)
			return
		}
		if err != nil {
			serverError(c, err)
			return
		}

		c.HTML(http.StatusOK, "page.html", pageView{
			SiteTitle:   settings.Title,
			Description: settings.Description,
			Title:       settings.Title,
			Page:        page,
			Blocks:      registry.Render(blocks.PageRef{ID: page.ID, Type: page.Type}, page.PageBuilder),
		})
	}
}

// PageHandler renders a page by slug.
func PageHandler(store content.Store, registry *blocks.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		settings := siteSettings(ctx, store)

		page, err := store.Page(ctx, c.Param("slug"))
		if errors.Is(err, content.ErrNotFound) {
			notFound(c, settings.Title)
			return
		}
		if err != nil {
			serverError(c, err)
			return
		}

		title := page.Name
		if page.Heading != "" {
			title = page.Heading
		}
		c.HTML(http.StatusOK, "page.html", pageView{
			SiteTitle:   settings.Title,
			Description: settings.Description,
			Title:       title,
			Page:        page,
			Blocks:      registry.Render(blocks.PageRef{ID: page.ID, Type: page.Type}, page.PageBuilder),
		})
	}
}

// ProjectHandler renders a project with its generated overview.
func ProjectHandler(store content.Store, narratives *narrativeResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		settings := siteSettings(ctx, store)

		project, err := store.Project(ctx, c.Param("slug"))
		if errors.Is(err, content.ErrNotFound) {
			notFound(c, settings.Title)
			return
		}
		if err != nil {
			serverError(c, err)
			return
		}

		c.HTML(http.StatusOK, "project.html", projectView{
			SiteTitle:  settings.Title,
			Title:      project.Title,
			Project:    project,
			BasePrompt: settings.BasePrompt,
			Narrative:  narratives.Resolve(ctx, project),
		})
	}
}

type slugView struct {
	Slug string `json:"slug"`
	Type string `json:"type"`
	Path string `json:"path"`
}

// SlugsHandler lists every routable page and project.
func SlugsHandler(store content.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		refs, err := store.Slugs(c.Request.Context())
		if err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list slugs"})
			return
		}

		out := make([]slugView, 0, len(refs))
		for _, ref := range refs {
			out = append(out, slugView{Slug: ref.Slug, Type: ref.Type, Path: ref.Path()})
		}
		c.JSON(http.StatusOK, out)
	}
}

// HealthHandler runs every check and reports 503 when any fails.
func HealthHandler(checks map[string]func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(c.Request.Context()); err != nil {
				status = http.StatusServiceUnavailable
				results[name] = err.Error()
				continue
			}
			results[name] = "ok"
		}

		body := gin.H{"status": "ok", "checks": results}
		if status != http.StatusOK {
			body["status"] = "unavailable"
		}
		c.JSON(status, body)
	}
}
