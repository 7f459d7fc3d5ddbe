package models

import (
	"time"

	"portfolio/richtext"
)

// Document types stored by the content studio.
const (
	DocumentHome     = "home"
	DocumentPage     = "page"
	DocumentProject  = "project"
	DocumentSettings = "settings"
)

// BlockType is the discriminant of a page builder block.
type BlockType string

const (
	BlockHero            BlockType = "hero"
	BlockFeaturedProject BlockType = "featuredProject"
	BlockProjectList     BlockType = "projectList"
	BlockVideoProject    BlockType = "videoProject"
)

// Image is an asset reference with the metadata the templates need.
type Image struct {
	AssetRef    string `bson:"asset_ref" json:"asset_ref" yaml:"asset_ref"`
	URL         string `bson:"url" json:"url" yaml:"url"`
	Alt         string `bson:"alt,omitempty" json:"alt,omitempty" yaml:"alt,omitempty"`
	Attribution string `bson:"attribution,omitempty" json:"attribution,omitempty" yaml:"attribution,omitempty"`
	LQIP        string `bson:"lqip,omitempty" json:"lqip,omitempty" yaml:"lqip,omitempty"`
}

// Video takes priority over the hero image when both are present.
type Video struct {
	URL         string `bson:"url" json:"url" yaml:"url"`
	Extension   string `bson:"extension" json:"extension" yaml:"extension"`
	Attribution string `bson:"attribution,omitempty" json:"attribution,omitempty" yaml:"attribution,omitempty"`
}

// Project is a portfolio entry.
type Project struct {
	ID               string          `bson:"_id" json:"_id" yaml:"_id"`
	Title            string          `bson:"title" json:"title" yaml:"title"`
	Slug             string          `bson:"slug" json:"slug" yaml:"slug"`
	Client           string          `bson:"client" json:"client" yaml:"client"`
	URL              string          `bson:"url" json:"url" yaml:"url"`
	Services         []string        `bson:"services,omitempty" json:"services,omitempty" yaml:"services,omitempty"`
	Tagline          string          `bson:"tagline" json:"tagline" yaml:"tagline"`
	SecondaryTagline string          `bson:"secondary_tagline,omitempty" json:"secondary_tagline,omitempty" yaml:"secondary_tagline,omitempty"`
	Tools            []string        `bson:"tools" json:"tools" yaml:"tools"`
	PreviewImage     *Image          `bson:"preview_image,omitempty" json:"preview_image,omitempty" yaml:"preview_image,omitempty"`
	HeroImage        *Image          `bson:"hero_image,omitempty" json:"hero_image,omitempty" yaml:"hero_image,omitempty"`
	Video            *Video          `bson:"video,omitempty" json:"video,omitempty" yaml:"video,omitempty"`
	Description      string          `bson:"description,omitempty" json:"description,omitempty" yaml:"description,omitempty"`
	Prompt           richtext.Blocks `bson:"prompt" json:"prompt" yaml:"prompt"`
	CreatedAt        time.Time       `bson:"created_at" json:"created_at" yaml:"created_at"`
	UpdatedAt        time.Time       `bson:"updated_at" json:"updated_at" yaml:"updated_at"`
}

// Summary returns the description, falling back to the tagline.
func (p *Project) Summary() string {
	if p.Description != "" {
		return p.Description
	}
	return p.Tagline
}

// HeroLink is an external link listed under the hero description.
type HeroLink struct {
	Key   string `bson:"_key" json:"_key" yaml:"_key"`
	Title string `bson:"title" json:"title" yaml:"title"`
	URL   string `bson:"url" json:"url" yaml:"url"`
}

// ContentBlock is one entry of a page builder. Payload fields are populated
// according to Type; project references are resolved by the content store.
type ContentBlock struct {
	Key  string    `bson:"_key" json:"_key" yaml:"_key"`
	Type BlockType `bson:"_type" json:"_type" yaml:"_type"`

	// hero
	Title       string          `bson:"title,omitempty" json:"title,omitempty" yaml:"title,omitempty"`
	TitleLarge  string          `bson:"title_large,omitempty" json:"title_large,omitempty" yaml:"title_large,omitempty"`
	Description richtext.Blocks `bson:"description,omitempty" json:"description,omitempty" yaml:"description,omitempty"`
	Links       []HeroLink      `bson:"links,omitempty" json:"links,omitempty" yaml:"links,omitempty"`

	// featuredProject, videoProject
	ProjectRef string   `bson:"project_ref,omitempty" json:"project_ref,omitempty" yaml:"project_ref,omitempty"`
	Project    *Project `bson:"-" json:"project,omitempty" yaml:"-"`

	// projectList
	ProjectRefs []string  `bson:"project_refs,omitempty" json:"project_refs,omitempty" yaml:"project_refs,omitempty"`
	Projects    []Project `bson:"-" json:"projects,omitempty" yaml:"-"`
}

// Page is a home or regular page composed from blocks.
type Page struct {
	ID          string         `bson:"_id" json:"_id" yaml:"_id"`
	Type        string         `bson:"_type" json:"_type" yaml:"_type"`
	Name        string         `bson:"name" json:"name" yaml:"name"`
	Slug        string         `bson:"slug,omitempty" json:"slug,omitempty" yaml:"slug,omitempty"`
	Heading     string         `bson:"heading,omitempty" json:"heading,omitempty" yaml:"heading,omitempty"`
	PageBuilder []ContentBlock `bson:"page_builder" json:"page_builder" yaml:"page_builder"`
	CreatedAt   time.Time      `bson:"created_at" json:"created_at" yaml:"created_at"`
	UpdatedAt   time.Time      `bson:"updated_at" json:"updated_at" yaml:"updated_at"`
}

// Settings holds site-wide values.
type Settings struct {
	ID          string `bson:"_id" json:"_id" yaml:"_id"`
	Title       string `bson:"title" json:"title" yaml:"title"`
	Description string `bson:"description,omitempty" json:"description,omitempty" yaml:"description,omitempty"`
	BasePrompt  string `bson:"base_prompt,omitempty" json:"base_prompt,omitempty" yaml:"base_prompt,omitempty"`
}

// SlugRef lists a routable document.
type SlugRef struct {
	Slug string `bson:"slug" json:"slug"`
	Type string `bson:"_type" json:"_type"`
}

// Path returns the site path the document is served under.
func (s SlugRef) Path() string {
	if s.Type == DocumentProject {
		return "/project/" + s.Slug
	}
	return "/" + s.Slug
}
