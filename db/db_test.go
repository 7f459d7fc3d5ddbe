package db

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio/content"
	"portfolio/models"
	"portfolio/narrative"
	"portfolio/richtext"
)

// connect skips unless MONGODB_URI points at a reachable server. Each test
// gets its own database, dropped on cleanup.
func connect(t *testing.T) context.Context {
	t.Helper()
	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		t.Skip("MONGODB_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)

	require.NoError(t, InitMongoDB(ctx, uri, "portfolio_test_"+uuid.NewString()[:8]))
	t.Cleanup(func() {
		_ = database.Drop(context.Background())
		_ = Close()
	})
	return ctx
}

func TestNarrativeStore(t *testing.T) {
	ctx := connect(t)
	store := NewNarrativeStore(GetCollection(NarrativesCollection))

	_, ok, err := store.Get(ctx, "atlas")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "atlas", "first"))
	require.NoError(t, store.Set(ctx, "atlas", "second"))

	v, ok, err := store.Get(ctx, "atlas")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "second", v)

	cache := narrative.NewCache(store, nil, narrative.DefaultTTL)
	_, err = cache.Store(ctx, "beacon", "summary")
	require.NoError(t, err)
	entry, hit := cache.Lookup(ctx, "beacon")
	require.True(t, hit)
	assert.Equal(t, "summary", entry.Text)
}

func TestContentRepository(t *testing.T) {
	ctx := connect(t)
	require.NoError(t, CreateContentIndexes(ctx))

	atlas := models.Project{ID: "project-atlas", Title: "Atlas", Slug: "atlas", Prompt: richtext.FromText("Describe Atlas")}
	_, err := GetCollection(ProjectsCollection).InsertOne(ctx, atlas)
	require.NoError(t, err)

	_, err = GetCollection(PagesCollection).InsertMany(ctx, []any{
		models.Page{ID: "home", Type: models.DocumentHome, Name: "Home", PageBuilder: []models.ContentBlock{
			{Key: "f", Type: models.BlockFeaturedProject, ProjectRef: "project-atlas"},
			{Key: "l", Type: models.BlockProjectList, ProjectRefs: []string{"project-atlas", "missing"}},
		}},
		models.Page{ID: "page-about", Type: models.DocumentPage, Name: "About", Slug: "about"},
	})
	require.NoError(t, err)

	repo := NewContentRepository()

	home, err := repo.Home(ctx)
	require.NoError(t, err)
	require.Len(t, home.PageBuilder, 2)
	require.NotNil(t, home.PageBuilder[0].Project)
	assert.Equal(t, "atlas", home.PageBuilder[0].Project.Slug)
	assert.Len(t, home.PageBuilder[1].Projects, 1)

	_, err = repo.Page(ctx, "missing")
	assert.ErrorIs(t, err, content.ErrNotFound)

	project, err := repo.Project(ctx, "atlas")
	require.NoError(t, err)
	assert.Equal(t, "Describe Atlas", project.Prompt.PlainText())

	settings, err := repo.Settings(ctx)
	require.NoError(t, err)
	assert.Empty(t, settings.Title)

	refs, err := repo.Slugs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.SlugRef{
		{Slug: "about", Type: models.DocumentPage},
		{Slug: "atlas", Type: models.DocumentProject},
	}, refs)
}
