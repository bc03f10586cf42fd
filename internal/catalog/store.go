package catalog

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrCategoryInUse = errors.New("category still referenced by products")
)

// ProductPatch carries a partial product update. Nil fields are left as-is;
// NewImages are appended after the existing ones and the result is truncated
// to MaxProductImages.
type ProductPatch struct {
	Name         *string
	Price        *float64
	Description  *string
	CategoryID   *int64
	CategoryName *string
	NewImages    []string
}

// Store is the document store contract. Every mutating call is atomic with
// respect to other calls: implementations serialize full
// read-modify-write cycles.
type Store interface {
	Ping(ctx context.Context) error

	ListCategories(ctx context.Context) ([]Category, error)
	CreateCategory(ctx context.Context, name, description string) (Category, error)
	// DeleteCategory is a no-op (not an error) when id is absent and returns
	// ErrCategoryInUse when products still reference the category.
	DeleteCategory(ctx context.Context, id int64) error

	ListProducts(ctx context.Context) ([]Product, error)
	GetProduct(ctx context.Context, id int64) (Product, bool, error)
	CreateProduct(ctx context.Context, p Product) (Product, error)
	// UpdateProduct returns the merged product plus any image paths dropped
	// by the cap so the caller can reclaim the files.
	UpdateProduct(ctx context.Context, id int64, patch ProductPatch) (Product, []string, error)
	// DeleteProduct returns the image paths of the removed product for
	// reclaim; absent ids succeed with no paths.
	DeleteProduct(ctx context.Context, id int64) ([]string, error)

	ListUsers(ctx context.Context) ([]User, error)
	AppendUser(ctx context.Context, u User) (User, error)
	DeleteUser(ctx context.Context, id int64) error
}

// idGen hands out timestamp-shaped ids that stay unique under back-to-back
// creates: the next id is bumped past the last one when the clock has not
// advanced a millisecond yet.
type idGen struct {
	mu   sync.Mutex
	last int64
}

func (g *idGen) Next() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := time.Now().UnixMilli()
	if id <= g.last {
		id = g.last + 1
	}
	g.last = id
	return id
}

// seed raises the floor so freshly generated ids never collide with ids
// already present in a loaded document.
func (g *idGen) seed(floor int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if floor > g.last {
		g.last = floor
	}
}

func maxDocumentID(doc Document) int64 {
	var max int64
	for _, p := range doc.Products {
		if p.ID > max {
			max = p.ID
		}
	}
	for _, c := range doc.Categories {
		if c.ID > max {
			max = c.ID
		}
	}
	for _, u := range doc.Users {
		if u.ID > max {
			max = u.ID
		}
	}
	return max
}

// mergeProduct applies patch over p and reports paths dropped by the image cap.
func mergeProduct(p Product, patch ProductPatch) (Product, []string) {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.CategoryID != nil {
		p.CategoryID = *patch.CategoryID
	}
	if patch.CategoryName != nil {
		p.CategoryName = *patch.CategoryName
	}

	images := make([]string, 0, len(p.Images)+len(patch.NewImages))
	images = append(images, p.Images...)
	images = append(images, patch.NewImages...)

	var dropped []string
	if len(images) > MaxProductImages {
		dropped = append(dropped, images[MaxProductImages:]...)
		images = images[:MaxProductImages]
	}
	p.Images = images
	return p, dropped
}
