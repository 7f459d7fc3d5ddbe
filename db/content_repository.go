package db

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"portfolio/content"
	dbmodels "portfolio/db/models"
	"portfolio/models"
)

// ContentRepository reads site documents from MongoDB. Home and regular pages
// share the pages collection and are told apart by _type.
type ContentRepository struct {
	pages    *mongo.Collection
	projects *mongo.Collection
	settings *mongo.Collection
}

// NewContentRepository uses the collections of the connected database.
func NewContentRepository() *ContentRepository {
	return &ContentRepository{
		pages:    GetCollection(PagesCollection),
		projects: GetCollection(ProjectsCollection),
		settings: GetCollection(SettingsCollection),
	}
}

var _ content.Store = (*ContentRepository)(nil)

func (r *ContentRepository) Home(ctx context.Context) (*models.Page, error) {
	return r.findPage(ctx, bson.M{"_type": models.DocumentHome}, "home")
}

func (r *ContentRepository) Page(ctx context.Context, slug string) (*models.Page, error) {
	return r.findPage(ctx, bson.M{"_type": models.DocumentPage, "slug": slug}, slug)
}

func (r *ContentRepository) findPage(ctx context.Context, filter bson.M, name string) (*models.Page, error) {
	var page models.Page
	err := r.pages.FindOne(ctx, filter).Decode(&page)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("page %q: %w", name, content.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find page %q: %w", name, err)
	}

	if err := r.resolve(ctx, page.PageBuilder); err != nil {
		return nil, err
	}
	return &page, nil
}

func (r *ContentRepository) resolve(ctx context.Context, blocks []models.ContentBlock) error {
	ids := content.ReferencedProjects(blocks)
	if len(ids) == 0 {
		return nil
	}

	cursor, err := r.projects.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return fmt.Errorf("find referenced projects: %w", err)
	}
	defer cursor.Close(ctx)

	var projects []models.Project
	if err := cursor.All(ctx, &projects); err != nil {
		return fmt.Errorf("decode referenced projects: %w", err)
	}

	byID := make(map[string]*models.Project, len(projects))
	for i := range projects {
		byID[projects[i].ID] = &projects[i]
	}
	content.ResolveBlocks(blocks, func(id string) (*models.Project, bool) {
		p, ok := byID[id]
		return p, ok
	})
	return nil
}

func (r *ContentRepository) Project(ctx context.Context, slug string) (*models.Project, error) {
	var project models.Project
	err := r.projects.FindOne(ctx, bson.M{"slug": slug}).Decode(&project)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("project %q: %w", slug, content.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find project %q: %w", slug, err)
	}
	return &project, nil
}

// Settings returns empty settings when none are stored.
func (r *ContentRepository) Settings(ctx context.Context) (*models.Settings, error) {
	var settings models.Settings
	err := r.settings.FindOne(ctx, bson.M{}).Decode(&settings)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return &models.Settings{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find settings: %w", err)
	}
	return &settings, nil
}

func (r *ContentRepository) Slugs(ctx context.Context) ([]models.SlugRef, error) {
	hasSlug := bson.M{"$exists": true, "$ne": ""}
	opts := options.Find().
		SetProjection(bson.M{"slug": 1, "_type": 1}).
		SetSort(bson.D{{Key: "slug", Value: 1}})

	pages, err := r.slugs(ctx, r.pages, bson.M{"_type": models.DocumentPage, "slug": hasSlug}, opts)
	if err != nil {
		return nil, err
	}
	projects, err := r.slugs(ctx, r.projects, bson.M{"slug": hasSlug}, opts)
	if err != nil {
		return nil, err
	}

	refs := make([]models.SlugRef, 0, len(pages)+len(projects))
	for _, d := range pages {
		refs = append(refs, models.SlugRef{Slug: d.Slug, Type: models.DocumentPage})
	}
	for _, d := range projects {
		refs = append(refs, models.SlugRef{Slug: d.Slug, Type: models.DocumentProject})
	}
	return refs, nil
}

func (r *ContentRepository) slugs(ctx context.Context, coll *mongo.Collection, filter bson.M, opts *options.FindOptions) ([]dbmodels.SlugDocument, error) {
	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list %s slugs: %w", coll.Name(), err)
	}
	defer cursor.Close(ctx)

	var docs []dbmodels.SlugDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode %s slugs: %w", coll.Name(), err)
	}
	return docs, nil
}

// CreateContentIndexes creates the lookup indexes for pages and projects.
func CreateContentIndexes(ctx context.Context) error {
	pageIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "_type", Value: 1}, {Key: "slug", Value: 1}},
			Options: options.Index(),
		},
	}
	projectIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	if _, err := GetCollection(PagesCollection).Indexes().CreateMany(ctx, pageIndexes); err != nil {
		return fmt.Errorf("create page indexes: %w", err)
	}
	if _, err := GetCollection(ProjectsCollection).Indexes().CreateMany(ctx, projectIndexes); err != nil {
		return fmt.Errorf("create project indexes: %w", err)
	}
	return nil
}
