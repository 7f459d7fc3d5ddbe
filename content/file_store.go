package content

import (
	"context"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"portfolio/blocks"
	"portfolio/models"
)

// Dataset is the layout of a YAML content file.
type Dataset struct {
	Settings models.Settings  `yaml:"settings"`
	Home     models.Page      `yaml:"home"`
	Pages    []models.Page    `yaml:"pages"`
	Projects []models.Project `yaml:"projects"`
}

// FileStore serves content from a YAML file loaded once at startup.
type FileStore struct {
	data     Dataset
	pages    map[string]*models.Page
	projects map[string]*models.Project
	byID     map[string]*models.Project
}

// LoadFile reads and validates a YAML dataset.
func LoadFile(path string) (*FileStore, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read content file: %w", err)
	}

	var data Dataset
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parse content file %s: %w", path, err)
	}
	return NewFileStore(data)
}

func NewFileStore(data Dataset) (*FileStore, error) {
	s := &FileStore{
		data:     data,
		pages:    make(map[string]*models.Page),
		projects: make(map[string]*models.Project),
		byID:     make(map[string]*models.Project),
	}

	for i := range s.data.Projects {
		p := &s.data.Projects[i]
		if p.Slug == "" {
			return nil, fmt.Errorf("project %q has no slug", p.ID)
		}
		s.projects[p.Slug] = p
		s.byID[p.ID] = p
	}

	if s.data.Home.Type == "" {
		s.data.Home.Type = models.DocumentHome
	}
	if err := blocks.ValidateKeys(s.data.Home.PageBuilder); err != nil {
		return nil, fmt.Errorf("home page builder: %w", err)
	}
	for i := range s.data.Pages {
		p := &s.data.Pages[i]
		if p.Type == "" {
			p.Type = models.DocumentPage
		}
		if err := blocks.ValidateKeys(p.PageBuilder); err != nil {
			return nil, fmt.Errorf("page %q builder: %w", p.Slug, err)
		}
		s.pages[p.Slug] = p
	}
	return s, nil
}

func (s *FileStore) lookup(id string) (*models.Project, bool) {
	p, ok := s.byID[id]
	return p, ok
}

func (s *FileStore) resolved(page *models.Page) *models.Page {
	out := *page
	out.PageBuilder = append([]models.ContentBlock(nil), page.PageBuilder...)
	ResolveBlocks(out.PageBuilder, s.lookup)
	return &out
}

func (s *FileStore) Home(_ context.Context) (*models.Page, error) {
	return s.resolved(&s.data.Home), nil
}

func (s *FileStore) Page(_ context.Context, slug string) (*models.Page, error) {
	page, ok := s.pages[slug]
	if !ok {
		return nil, fmt.Errorf("page %q: %w", slug, ErrNotFound)
	}
	return s.resolved(page), nil
}

func (s *FileStore) Project(_ context.Context, slug string) (*models.Project, error) {
	p, ok := s.projects[slug]
	if !ok {
		return nil, fmt.Errorf("project %q: %w", slug, ErrNotFound)
	}
	out := *p
	return &out, nil
}

func (s *FileStore) Settings(_ context.Context) (*models.Settings, error) {
	out := s.data.Settings
	return &out, nil
}

func (s *FileStore) Slugs(_ context.Context) ([]models.SlugRef, error) {
	refs := make([]models.SlugRef, 0, len(s.pages)+len(s.projects))
	for slug := range s.pages {
		refs = append(refs, models.SlugRef{Slug: slug, Type: models.DocumentPage})
	}
	for slug := range s.projects {
		refs = append(refs, models.SlugRef{Slug: slug, Type: models.DocumentProject})
	}
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].Type != refs[j].Type {
			return refs[i].Type < refs[j].Type
		}
		return refs[i].Slug < refs[j].Slug
	})
	return refs, nil
}
