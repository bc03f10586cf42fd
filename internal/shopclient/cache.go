package shopclient

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/Is-Prog22/fastandtrust/internal/catalog"
)

// Cache is the client's working copy of the catalog, fetched once per run as
// three parallel requests. Admin mutations patch it optimistically from the
// server's response instead of re-fetching.
type Cache struct {
	mu         sync.RWMutex
	products   []catalog.Product
	categories []catalog.Category
	users      []catalog.User
}

// Refresh replaces the whole cache from the backend. The three fetches run
// concurrently; any failure discards the partial result.
func (c *Cache) Refresh(ctx context.Context, cl *Client) error {
	var (
		products   []catalog.Product
		categories []catalog.Category
		users      []catalog.User
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		products, err = cl.Products(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		categories, err = cl.Categories(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		users, err = cl.Users(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	c.mu.Lock()
	c.products = products
	c.categories = categories
	c.users = users
	c.mu.Unlock()
	return nil
}

func (c *Cache) Products() []catalog.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]catalog.Product{}, c.products...)
}

func (c *Cache) Categories() []catalog.Category {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]catalog.Category{}, c.categories...)
}

func (c *Cache) Users() []catalog.User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]catalog.User{}, c.users...)
}

func (c *Cache) ApplyProductCreated(p catalog.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products = append(c.products, p)
}

func (c *Cache) ApplyProductUpdated(p catalog.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.products {
		if c.products[i].ID == p.ID {
			c.products[i] = p
			return
		}
	}
	c.products = append(c.products, p)
}

func (c *Cache) ApplyProductDeleted(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	kept := c.products[:0]
	for _, p := range c.products {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	c.products = kept
}

func (c *Cache) ApplyCategoryCreated(cat catalog.Category) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.categories = append(c.categories, cat)
}

func (c *Cache) ApplyCategoryDeleted(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	kept := c.categories[:0]
	for _, cat := range c.categories {
		if cat.ID != id {
			kept = append(kept, cat)
		}
	}
	c.categories = kept
}

func (c *Cache) ApplyUserDeleted(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	kept := c.users[:0]
	for _, u := range c.users {
		if u.ID != id {
			kept = append(kept, u)
		}
	}
	c.users = kept
}
