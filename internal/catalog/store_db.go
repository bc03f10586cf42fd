package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const (
	pingTimeout  = 1 * time.Second
	queryTimeout = 3 * time.Second
)

// PostgresStore keeps the document in a single JSONB row and serializes
// writers with SELECT ... FOR UPDATE inside a transaction, giving the same
// at-most-one-writer contract as FileStore with real durability.
type PostgresStore struct {
	db  *sql.DB
	ids idGen
}

func OpenPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	s := &PostgresStore{db: db}
	if err := s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	doc, err := s.read(ctx)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	s.ids.seed(maxDocumentID(doc))
	return s, nil
}

func (s *PostgresStore) Close() error { return s.db.Close() }

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		if _, err := s.db.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS catalog_document (
				id  int PRIMARY KEY,
				doc jsonb NOT NULL
			)
		`); err != nil {
			return err
		}

		raw, err := json.Marshal(emptyDocument())
		if err != nil {
			return err
		}
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO catalog_document (id, doc)
			VALUES (1, $1)
			ON CONFLICT (id) DO NOTHING
		`, raw)
		return err
	})
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return withTimeout(ctx, pingTimeout, func(ctx context.Context) error {
		return s.db.PingContext(ctx)
	})
}

func (s *PostgresStore) read(ctx context.Context) (Document, error) {
	var doc Document

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		var raw []byte
		if err := s.db.QueryRowContext(ctx, `
			SELECT doc FROM catalog_document WHERE id = 1
		`).Scan(&raw); err != nil {
			return err
		}
		return json.Unmarshal(raw, &doc)
	})
	if err != nil {
		return Document{}, err
	}

	normalize(&doc)
	return doc, nil
}

// update runs fn against the current document inside a transaction holding
// the document row lock, then writes the result back.
func (s *PostgresStore) update(ctx context.Context, fn func(doc *Document) error) error {
	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		var raw []byte
		if err := tx.QueryRowContext(ctx, `
			SELECT doc FROM catalog_document WHERE id = 1 FOR UPDATE
		`).Scan(&raw); err != nil {
			return err
		}

		var doc Document
		if err := json.Unmarshal(raw, &doc); err != nil {
			return fmt.Errorf("parse document: %w", err)
		}
		normalize(&doc)

		if err := fn(&doc); err != nil {
			return err
		}
		normalize(&doc)

		out, err := json.Marshal(doc)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE catalog_document SET doc = $1 WHERE id = 1
		`, out); err != nil {
			return err
		}
		return tx.Commit()
	})
}

func (s *PostgresStore) ListCategories(ctx context.Context) ([]Category, error) {
	doc, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Categories, nil
}

func (s *PostgresStore) CreateCategory(ctx context.Context, name, description string) (Category, error) {
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

func (s *PostgresStore) DeleteCategory(ctx context.Context, id int64) error {
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

func (s *PostgresStore) ListProducts(ctx context.Context) ([]Product, error) {
	doc, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Products, nil
}

func (s *PostgresStore) GetProduct(ctx context.Context, id int64) (Product, bool, error) {
	doc, err := s.read(ctx)
	if err != nil {
		return Product{}, false, err
	}
	for _, p := range doc.Products {
		if p.ID == id {
			return p, true, nil
		}
	}
	return Product{}, false, nil
}

func (s *PostgresStore) CreateProduct(ctx context.Context, p Product) (Product, error) {
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

func (s *PostgresStore) UpdateProduct(ctx context.Context, id int64, patch ProductPatch) (Product, []string, error) {
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

func (s *PostgresStore) DeleteProduct(ctx context.Context, id int64) ([]string, error) {
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

func (s *PostgresStore) ListUsers(ctx context.Context) ([]User, error) {
	doc, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Users, nil
}

func (s *PostgresStore) AppendUser(ctx context.Context, u User) (User, error) {
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

func (s *PostgresStore) DeleteUser(ctx context.Context, id int64) error {
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

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}
