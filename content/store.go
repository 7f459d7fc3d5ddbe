// Package content reads the documents the site is built from.
package content

import (
	"context"
	"errors"

	"portfolio/models"
)

// ErrNotFound is returned when a requested document does not exist.
var ErrNotFound = errors.New("content not found")

// Store returns documents with block project references already resolved.
type Store interface {
	Home(ctx context.Context) (*models.Page, error)
	Page(ctx context.Context, slug string) (*models.Page, error)
	Project(ctx context.Context, slug string) (*models.Project, error)
	Settings(ctx context.Context) (*models.Settings, error)
	Slugs(ctx context.Context) ([]models.SlugRef, error)
}

// ResolveBlocks fills the Project and Projects fields of blocks from their
// references using lookup. Unresolved references are left empty; renderers
// decide how to show them.
func ResolveBlocks(blocks []models.ContentBlock, lookup func(id string) (*models.Project, bool)) {
	for i := range blocks {
		b := &blocks[i]
		if b.ProjectRef != "" {
			if p, ok := lookup(b.ProjectRef); ok {
				b.Project = p
			}
		}
		if len(b.ProjectRefs) > 0 {
			b.Projects = make([]models.Project, 0, len(b.ProjectRefs))
			for _, id := range b.ProjectRefs {
				if p, ok := lookup(id); ok {
					b.Projects = append(b.Projects, *p)
				}
			}
		}
	}
}

// ReferencedProjects returns the distinct project ids referenced by blocks in
// first-seen order.
func ReferencedProjects(blocks []models.ContentBlock) []string {
	seen := make(map[string]bool)
	var ids []string
	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, b := range blocks {
		add(b.ProjectRef)
		for _, id := range b.ProjectRefs {
			add(id)
		}
	}
	return ids
}
