package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const fileOpTimeout = 3 * time.Second

// FileStore persists the whole document as one pretty-printed JSON file.
// A single mutex serializes every read-modify-write cycle, and writes go
// through a temp file + rename so a crash never leaves a half-written
// document behind.
type FileStore struct {
	mu   sync.Mutex
	path string
	ids  idGen
}

// OpenFileStore loads the document at path, creating it with empty arrays
// when absent.
func OpenFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path}

	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	s.ids.seed(maxDocumentID(doc))
	return s, nil
}

func (s *FileStore) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := os.Stat(s.path)
	return err
}

func (s *FileStore) load() (Document, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		doc := emptyDocument()
		if werr := s.save(doc); werr != nil {
			return Document{}, werr
		}
		return doc, nil
	}
	if err != nil {
		return Document{}, fmt.Errorf("read document: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Document{}, fmt.Errorf("parse document: %w", err)
	}
	normalize(&doc)
	return doc, nil
}

func (s *FileStore) save(doc Document) error {
	normalize(&doc)

	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".catalog-*.json")
	if err != nil {
		return fmt.Errorf("write document: %w", err)
	}

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write document: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("replace document: %w", err)
	}
	return nil
}

// update runs one full read-modify-write cycle under the store lock.
func (s *FileStore) update(ctx context.Context, fn func(doc *Document) error) error {
	ctx, cancel := context.WithTimeout(ctx, fileOpTimeout)
	defer cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	doc, err := s.load()
	if err != nil {
		return err
	}
	if err := fn(&doc); err != nil {
		return err
	}
	return s.save(doc)
}

// view runs a read-only cycle under the same lock so readers never observe a
// document mid-rename on platforms without atomic replace.
func (s *FileStore) view(ctx context.Context, fn func(doc Document)) error {
	ctx, cancel := context.WithTimeout(ctx, fileOpTimeout)
	defer cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	doc, err := s.load()
	if err != nil {
		return err
	}
	fn(doc)
	return nil
}

func (s *FileStore) ListCategories(ctx context.Context) ([]Category, error) {
	var out []Category
	err := s.view(ctx, func(doc Document) {
		out = append([]Category{}, doc.Categories...)
	})
	return out, err
}

func (s *FileStore) CreateCategory(ctx context.Context, name, description string) (Category, error) {
	c := Category{ID: s.ids.Next(), Name: name, Description: description}
	err := s.update(ctx, func(doc *Document) error {
		doc.Categories = append(doc.Categories, c)
		return nil
	})
	if err != nil {
		return Category{}, err
	}
	return c, nil
}

func (s *FileStore) DeleteCategory(ctx context.Context, id int64) error {
	return s.update(ctx, func(doc *Document) error {
		for _, p := range doc.Products {
			if p.CategoryID == id {
				return ErrCategoryInUse
			}
		}

		kept := doc.Categories[:0]
		for _, c := range doc.Categories {
			if c.ID != id {
				kept = append(kept, c)
			}
		}
		doc.Categories = kept
		return nil
	})
}

func (s *FileStore) ListProducts(ctx context.Context) ([]Product, error) {
	var out []Product
	err := s.view(ctx, func(doc Document) {
		out = append([]Product{}, doc.Products...)
	})
	return out, err
}

func (s *FileStore) GetProduct(ctx context.Context, id int64) (Product, bool, error) {
	var (
		p     Product
		found bool
	)
	err := s.view(ctx, func(doc Document) {
		for _, cand := range doc.Products {
			if cand.ID == id {
				p, found = cand, true
				return
			}
		}
	})
	return p, found, err
}

func (s *FileStore) CreateProduct(ctx context.Context, p Product) (Product, error) {
	p.ID = s.ids.Next()
	if p.Images == nil {
		p.Images = []string{}
	}
	err := s.update(ctx, func(doc *Document) error {
		doc.Products = append(doc.Products, p)
		return nil
	})
	if err != nil {
		return Product{}, err
	}
	return p, nil
}

func (s *FileStore) UpdateProduct(ctx context.Context, id int64, patch ProductPatch) (Product, []string, error) {
	var (
		merged  Product
		dropped []string
	)
	err := s.update(ctx, func(doc *Document) error {
		for i, p := range doc.Products {
			if p.ID == id {
				merged, dropped = mergeProduct(p, patch)
				doc.Products[i] = merged
				return nil
			}
		}
		return ErrNotFound
	})
	if err != nil {
		return Product{}, nil, err
	}
	return merged, dropped, nil
}

func (s *FileStore) DeleteProduct(ctx context.Context, id int64) ([]string, error) {
	var images []string
	err := s.update(ctx, func(doc *Document) error {
		kept := doc.Products[:0]
		for _, p := range doc.Products {
			if p.ID == id {
				images = append(images, p.Images...)
				continue
			}
			kept = append(kept, p)
		}
		doc.Products = kept
		return nil
	})
	if err != nil {
		return nil, err
	}
	return images, nil
}

func (s *FileStore) ListUsers(ctx context.Context) ([]User, error) {
	var out []User
	err := s.view(ctx, func(doc Document) {
		out = append([]User{}, doc.Users...)
	})
	return out, err
}

func (s *FileStore) AppendUser(ctx context.Context, u User) (User, error) {
	u.ID = s.ids.Next()
	err := s.update(ctx, func(doc *Document) error {
		doc.Users = append(doc.Users, u)
		return nil
	})
	if err != nil {
		return User{}, err
	}
	return u, nil
}

func (s *FileStore) DeleteUser(ctx context.Context, id int64) error {
	return s.update(ctx, func(doc *Document) error {
		kept := doc.Users[:0]
		for _, u := range doc.Users {
			if u.ID != id {
				kept = append(kept, u)
			}
		}
		doc.Users = kept
		return nil
	})
}

func emptyDocument() Document {
	return Document{
		Products:   []Product{},
		Categories: []Category{},
		Users:      []User{},
	}
}

// normalize keeps the on-disk shape stable: arrays are never null and every
// product serializes with an images array.
func normalize(doc *Document) {
	if doc.Products == nil {
		doc.Products = []Product{}
	}
	if doc.Categories == nil {
		doc.Categories = []Category{}
	}
	if doc.Users == nil {
		doc.Users = []User{}
	}
	for i := range doc.Products {
		if doc.Products[i].Images == nil {
			doc.Products[i].Images = []string{}
		}
	}
}
