package catalog

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	s, err := OpenFileStore(filepath.Join(t.TempDir(), "db.json"))
	require.NoError(t, err)
	return s
}

func TestFileStore_CreateCategory_UniqueIDs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seen := make(map[int64]bool)
	for i := 0; i < 100; i++ {
		c, err := s.CreateCategory(ctx, "cat", "desc")
		require.NoError(t, err)
		require.False(t, seen[c.ID], "id %d issued twice", c.ID)
		seen[c.ID] = true
	}
}

func TestFileStore_IDsSurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	ctx := context.Background()

	s, err := OpenFileStore(path)
	require.NoError(t, err)
	first, err := s.CreateCategory(ctx, "a", "b")
	require.NoError(t, err)

	reopened, err := OpenFileStore(path)
	require.NoError(t, err)
	second, err := reopened.CreateCategory(ctx, "c", "d")
	require.NoError(t, err)

	assert.Greater(t, second.ID, first.ID)
}

func TestFileStore_DeleteCategory_AbsentIsNoop(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c, err := s.CreateCategory(ctx, "Phones", "Mobile devices")
	require.NoError(t, err)

	require.NoError(t, s.DeleteCategory(ctx, c.ID+12345))

	cats, err := s.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, cats, 1)
}

func TestFileStore_DeleteCategory_BlockedWhileReferenced(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c, err := s.CreateCategory(ctx, "Phones", "Mobile devices")
	require.NoError(t, err)

	_, err = s.CreateProduct(ctx, Product{
		Name: "Handset", Price: 99.99, Description: "d",
		CategoryID: c.ID, CategoryName: c.Name,
	})
	require.NoError(t, err)

	err = s.DeleteCategory(ctx, c.ID)
	require.ErrorIs(t, err, ErrCategoryInUse)

	cats, err := s.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, cats, 1)
}

func TestFileStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	ctx := context.Background()

	s, err := OpenFileStore(path)
	require.NoError(t, err)

	cat, err := s.CreateCategory(ctx, "Phones", "Mobile devices")
	require.NoError(t, err)
	p, err := s.CreateProduct(ctx, Product{
		Name: "Handset", Price: 199.5, Description: "d",
		CategoryID: cat.ID, CategoryName: cat.Name,
		Images: []string{"/uploads/a.jpg", "/uploads/b.jpg"},
	})
	require.NoError(t, err)
	u, err := s.AppendUser(ctx, User{Email: "x@y.zz", Username: "Ada", LoginTime: "2026-01-01T00:00:00Z"})
	require.NoError(t, err)

	reopened, err := OpenFileStore(path)
	require.NoError(t, err)

	cats, err := reopened.ListCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Category{cat}, cats)

	products, err := reopened.ListProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Product{p}, products)

	users, err := reopened.ListUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []User{u}, users)
}

func TestFileStore_UpdateProduct_PartialMerge(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p, err := s.CreateProduct(ctx, Product{
		Name: "Handset", Price: 100, Description: "old",
		CategoryID: 1, CategoryName: "Phones",
		Images: []string{"/uploads/a.jpg"},
	})
	require.NoError(t, err)

	price := 150.0
	updated, dropped, err := s.UpdateProduct(ctx, p.ID, ProductPatch{Price: &price})
	require.NoError(t, err)
	assert.Empty(t, dropped)

	assert.Equal(t, "Handset", updated.Name)
	assert.Equal(t, 150.0, updated.Price)
	assert.Equal(t, "old", updated.Description)
	assert.Equal(t, []string{"/uploads/a.jpg"}, updated.Images)
}

func TestFileStore_UpdateProduct_ImagesAppendAndCap(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p, err := s.CreateProduct(ctx, Product{
		Name: "Handset", Price: 100, Description: "d", CategoryID: 1,
		Images: []string{"/uploads/1.jpg", "/uploads/2.jpg", "/uploads/3.jpg"},
	})
	require.NoError(t, err)

	updated, dropped, err := s.UpdateProduct(ctx, p.ID, ProductPatch{
		NewImages: []string{"/uploads/4.jpg", "/uploads/5.jpg", "/uploads/6.jpg"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"/uploads/1.jpg", "/uploads/2.jpg", "/uploads/3.jpg",
		"/uploads/4.jpg", "/uploads/5.jpg",
	}, updated.Images)
	assert.Equal(t, []string{"/uploads/6.jpg"}, dropped)
}

func TestFileStore_UpdateProduct_Absent(t *testing.T) {
	s := newTestStore(t)

	_, _, err := s.UpdateProduct(context.Background(), 42, ProductPatch{})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestFileStore_DeleteProduct_ReturnsImages(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p, err := s.CreateProduct(ctx, Product{
		Name: "Handset", Price: 1, Description: "d", CategoryID: 1,
		Images: []string{"/uploads/a.jpg", "/uploads/b.jpg"},
	})
	require.NoError(t, err)

	images, err := s.DeleteProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"/uploads/a.jpg", "/uploads/b.jpg"}, images)

	products, err := s.ListProducts(ctx)
	require.NoError(t, err)
	assert.Empty(t, products)

	// Absent id still succeeds, with nothing to reclaim.
	images, err = s.DeleteProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, images)
}

func TestFileStore_Users_AppendAndDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Same email twice: login records are append-only, no uniqueness.
	u1, err := s.AppendUser(ctx, User{Email: "a@b.cc", Username: "Ada"})
	require.NoError(t, err)
	u2, err := s.AppendUser(ctx, User{Email: "a@b.cc", Username: "Ada"})
	require.NoError(t, err)
	require.NotEqual(t, u1.ID, u2.ID)

	require.NoError(t, s.DeleteUser(ctx, u1.ID))

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, u2.ID, users[0].ID)
}

func TestFileStore_ConcurrentCreates_NoLostUpdate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	const writers = 10

	var wg sync.WaitGroup
	errs := make([]error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.CreateProduct(ctx, Product{
				Name: "p", Price: 1, Description: "d", CategoryID: 1,
			})
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "writer %d", i)
	}

	products, err := s.ListProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, products, writers)
}

func TestFileStore_EmptyDocumentCreatedOnOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")

	s, err := OpenFileStore(path)
	require.NoError(t, err)

	products, err := s.ListProducts(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, products)
	assert.Empty(t, products)
}
