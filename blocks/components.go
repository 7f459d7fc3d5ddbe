package blocks

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"strings"

	"portfolio/models"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.New("blocks").Funcs(template.FuncMap{
	"projectPath": projectPath,
	"media":       mediaFor,
}).ParseFS(templateFS, "templates/*.html"))

// ErrUnresolvedProject is returned when a block's project reference did not
// resolve to a document.
var ErrUnresolvedProject = errors.New("project reference not resolved")

// Placeholder is shown for blocks without a renderer.
func Placeholder(block models.ContentBlock) template.HTML {
	return execute("placeholder.html", block)
}

type view struct {
	Block models.ContentBlock
	Ctx   Context
}

func renderHero(block models.ContentBlock, ctx Context) (template.HTML, error) {
	return render("hero.html", view{Block: block, Ctx: ctx})
}

func renderFeaturedProject(block models.ContentBlock, ctx Context) (template.HTML, error) {
	if block.Project == nil {
		return "", fmt.Errorf("featured project %q: %w", block.ProjectRef, ErrUnresolvedProject)
	}
	return render("featured_project.html", view{Block: block, Ctx: ctx})
}

func renderProjectList(block models.ContentBlock, ctx Context) (template.HTML, error) {
	return render("project_list.html", view{Block: block, Ctx: ctx})
}

func renderVideoProject(block models.ContentBlock, ctx Context) (template.HTML, error) {
	if block.Project == nil {
		return "", fmt.Errorf("video project %q: %w", block.ProjectRef, ErrUnresolvedProject)
	}
	return render("video_project.html", view{Block: block, Ctx: ctx})
}

func render(name string, data any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("execute %s: %w", name, err)
	}
	return template.HTML(buf.String()), nil
}

func execute(name string, data any) template.HTML {
	html, err := render(name, data)
	if err != nil {
		return template.HTML(template.HTMLEscapeString(err.Error()))
	}
	return html
}

func projectPath(p *models.Project) string {
	if p == nil {
		return ""
	}
	return models.SlugRef{Slug: p.Slug, Type: models.DocumentProject}.Path()
}

// Media is what a project block shows: its video when present, otherwise the
// hero image.
type Media struct {
	VideoURL  string
	VideoType string
	Image     *models.Image
}

func mediaFor(p *models.Project) Media {
	if p == nil {
		return Media{}
	}
	if p.Video != nil && p.Video.URL != "" {
		ext := strings.TrimPrefix(p.Video.Extension, ".")
		if ext == "" {
			ext = "mp4"
		}
		return Media{VideoURL: p.Video.URL, VideoType: "video/" + ext}
	}
	return Media{Image: p.HeroImage}
}
