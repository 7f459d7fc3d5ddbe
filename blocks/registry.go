// Package blocks renders page builder blocks. Every input block yields exactly
// one output in input order; a type without a registered renderer yields a
// placeholder instead of being dropped.
package blocks

import (
	"errors"
	"fmt"
	"html/template"

	"portfolio/models"
)

var (
	ErrMissingKey   = errors.New("block key is empty")
	ErrDuplicateKey = errors.New("block key is not unique")
)

// PageRef identifies the document a block sequence belongs to.
type PageRef struct {
	ID   string
	Type string
}

// Context is passed to a renderer alongside the block payload.
type Context struct {
	Index int
	Page  PageRef
	// Path locates the block inside its document for the editor overlay.
	Path string
}

// Renderer renders one block type.
type Renderer interface {
	Render(block models.ContentBlock, ctx Context) (template.HTML, error)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(block models.ContentBlock, ctx Context) (template.HTML, error)

func (f RendererFunc) Render(block models.ContentBlock, ctx Context) (template.HTML, error) {
	return f(block, ctx)
}

// Rendered is the output for one input block.
type Rendered struct {
	Index int
	Key   string
	Type  models.BlockType
	Path  string
	Known bool
	HTML  template.HTML
}

// Registry maps block types to renderers. It is read-only once built.
type Registry struct {
	renderers map[models.BlockType]Renderer
	fallback  func(block models.ContentBlock) template.HTML
	onRender  func(blockType models.BlockType, known bool)
}

// NewRegistry returns an empty registry using Placeholder as the fallback.
func NewRegistry() *Registry {
	return &Registry{
		renderers: make(map[models.BlockType]Renderer),
		fallback:  Placeholder,
	}
}

// Default returns the registry with every block type the site knows.
func Default() *Registry {
	r := NewRegistry()
	r.Register(models.BlockHero, RendererFunc(renderHero))
	r.Register(models.BlockFeaturedProject, RendererFunc(renderFeaturedProject))
	r.Register(models.BlockProjectList, RendererFunc(renderProjectList))
	r.Register(models.BlockVideoProject, RendererFunc(renderVideoProject))
	return r
}

func (r *Registry) Register(t models.BlockType, renderer Renderer) {
	r.renderers[t] = renderer
}

// OnRender installs a hook called once per rendered block.
func (r *Registry) OnRender(fn func(blockType models.BlockType, known bool)) {
	r.onRender = fn
}

// Known reports whether t has a renderer.
func (r *Registry) Known(t models.BlockType) bool {
	_, ok := r.renderers[t]
	return ok
}

// Render renders blocks in order. Keys must be present and unique; see
// ValidateKeys.
func (r *Registry) Render(page PageRef, blocks []models.ContentBlock) []Rendered {
	out := make([]Rendered, 0, len(blocks))
	for i, block := range blocks {
		out = append(out, r.renderOne(page, i, block))
	}
	return out
}

func (r *Registry) renderOne(page PageRef, index int, block models.ContentBlock) (out Rendered) {
	out = Rendered{
		Index: index,
		Key:   block.Key,
		Type:  block.Type,
		Path:  OverlayPath(block.Key),
	}
	defer func() {
		if r.onRender != nil {
			r.onRender(block.Type, out.Known)
		}
	}()

	renderer, ok := r.renderers[block.Type]
	if !ok {
		out.HTML = r.fallback(block)
		return out
	}

	html, err := safeRender(renderer, block, Context{Index: index, Page: page, Path: out.Path})
	if err != nil {
		out.HTML = r.fallback(block)
		return out
	}
	out.Known = true
	out.HTML = html
	return out
}

func safeRender(renderer Renderer, block models.ContentBlock, ctx Context) (html template.HTML, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("render %s block %q: %v", block.Type, block.Key, rec)
		}
	}()
	return renderer.Render(block, ctx)
}

// OverlayPath is the editor overlay path of the block with key.
func OverlayPath(key string) string {
	return fmt.Sprintf("pageBuilder[_key==%q]", key)
}

// ValidateKeys checks that every block has a key and no key repeats.
func ValidateKeys(blocks []models.ContentBlock) error {
	seen := make(map[string]int, len(blocks))
	for i, b := range blocks {
		if b.Key == "" {
			return fmt.Errorf("block %d (%s): %w", i, b.Type, ErrMissingKey)
		}
		if prev, ok := seen[b.Key]; ok {
			return fmt.Errorf("blocks %d and %d share key %q: %w", prev, i, b.Key, ErrDuplicateKey)
		}
		seen[b.Key] = i
	}
	return nil
}
