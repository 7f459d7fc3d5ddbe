package content

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio/blocks"
	"portfolio/models"
)

func loadFixture(t *testing.T) *FileStore {
	t.Helper()
	store, err := LoadFile(filepath.Join("testdata", "content.yaml"))
	require.NoError(t, err)
	return store
}

func TestFileStore_HomeResolvesReferences(t *testing.T) {
	store := loadFixture(t)

	home, err := store.Home(context.Background())
	require.NoError(t, err)

	assert.Equal(t, models.DocumentHome, home.Type)
	require.Len(t, home.PageBuilder, 4)

	featured := home.PageBuilder[1]
	require.NotNil(t, featured.Project)
	assert.Equal(t, "atlas", featured.Project.Slug)

	list := home.PageBuilder[2]
	require.Len(t, list.Projects, 2, "unresolved references are skipped")
	assert.Equal(t, "beacon", list.Projects[0].Slug)
	assert.Equal(t, "atlas", list.Projects[1].Slug)

	assert.Equal(t, models.BlockType("testimonial"), home.PageBuilder[3].Type)
	assert.Equal(t, "We design and build software for small teams.", home.PageBuilder[0].Description.PlainText())
}

func TestFileStore_HomeIsRenderable(t *testing.T) {
	store := loadFixture(t)
	home, err := store.Home(context.Background())
	require.NoError(t, err)

	out := blocks.Default().Render(blocks.PageRef{ID: home.ID, Type: home.Type}, home.PageBuilder)

	require.Len(t, out, 4)
	assert.Equal(t, []bool{true, true, true, false}, []bool{out[0].Known, out[1].Known, out[2].Known, out[3].Known})
}

func TestFileStore_Lookups(t *testing.T) {
	store := loadFixture(t)
	ctx := context.Background()

	page, err := store.Page(ctx, "about")
	require.NoError(t, err)
	assert.Equal(t, "About the studio", page.Heading)
	assert.Equal(t, models.DocumentPage, page.Type)

	_, err = store.Page(ctx, "careers")
	assert.ErrorIs(t, err, ErrNotFound)

	project, err := store.Project(ctx, "atlas")
	require.NoError(t, err)
	assert.Equal(t, "Atlas is a design system for a fintech team.\n\nMention the token pipeline.", project.Prompt.PlainText())

	_, err = store.Project(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	settings, err := store.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Northlight Studio", settings.Title)
}

func TestFileStore_Slugs(t *testing.T) {
	refs, err := loadFixture(t).Slugs(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []models.SlugRef{
		{Slug: "about", Type: models.DocumentPage},
		{Slug: "atlas", Type: models.DocumentProject},
		{Slug: "beacon", Type: models.DocumentProject},
	}, refs)
	assert.Equal(t, "/project/atlas", refs[1].Path())
	assert.Equal(t, "/about", refs[0].Path())
}

func TestFileStore_ResolvedPagesAreCopies(t *testing.T) {
	store := loadFixture(t)
	ctx := context.Background()

	first, err := store.Home(ctx)
	require.NoError(t, err)
	first.PageBuilder[0].Title = "changed"

	second, err := store.Home(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Independent\nproduct studio", second.PageBuilder[0].Title)
}

func TestLoadFile_Errors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{name: "malformed yaml", content: "home: [unclosed"},
		{name: "missing project slug", content: "projects:\n  - _id: p1\n"},
		{
			name:    "duplicate block keys",
			content: "home:\n  page_builder:\n    - {_key: a, _type: hero}\n    - {_key: a, _type: hero}\n",
			wantErr: blocks.ErrDuplicateKey,
		},
		{
			name:    "missing block key",
			content: "pages:\n  - slug: about\n    page_builder:\n      - {_type: hero}\n",
			wantErr: blocks.ErrMissingKey,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o600))

			_, err := LoadFile(path)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}

	_, err := LoadFile(filepath.Join(dir, "absent.yaml"))
	assert.Error(t, err)
}

func TestReferencedProjects(t *testing.T) {
	ids := ReferencedProjects([]models.ContentBlock{
		{ProjectRef: "a"},
		{ProjectRefs: []string{"b", "a", "c"}},
		{ProjectRef: "c"},
		{},
	})

	assert.Equal(t, []string{"a", "b", "c"}, ids)
}
