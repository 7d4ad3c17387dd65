package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

const (
	pingTimeout  = 1 * time.Second
	queryTimeout = 3 * time.Second
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return withTimeout(ctx, pingTimeout, func(ctx context.Context) error {
		return s.db.PingContext(ctx)
	})
}

const productColumns = `
	p.id, p.title, p.description, p.price::float8, p.images,
	c.id, c.name, c.image
`

func (s *PostgresStore) ListProducts(ctx context.Context, f Filter) ([]Product, error) {
	var out []Product

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, `
			SELECT `+productColumns+`
			FROM products p
			JOIN categories c ON c.id = p.category_id
			WHERE ($1 = '' OR p.title ILIKE '%' || $1 || '%')
			  AND ($2 = 0 OR p.category_id = $2)
			ORDER BY p.id ASC
		`, f.Title, f.CategoryID)
		if err != nil {
			return err
		}
		defer rows.Close()

		types := pgtype.NewMap()
		out = make([]Product, 0, 16)
		for rows.Next() {
			p, err := scanProduct(types, rows)
			if err != nil {
				return err
			}
			out = append(out, p)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) GetProduct(ctx context.Context, id int) (Product, bool, error) {
	var p Product

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		row := s.db.QueryRowContext(ctx, `
			SELECT `+productColumns+`
			FROM products p
			JOIN categories c ON c.id = p.category_id
			WHERE p.id = $1
		`, id)

		var err error
		p, err = scanProduct(pgtype.NewMap(), row)
		return err
	})

	if errors.Is(err, sql.ErrNoRows) {
		return Product{}, false, nil
	}
	if err != nil {
		return Product{}, false, fmt.Errorf("get product %d: %w", id, err)
	}
	return p, true, nil
}

func (s *PostgresStore) ListCategories(ctx context.Context) ([]Category, error) {
	var out []Category

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, `SELECT id, name, image FROM categories ORDER BY id ASC`)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = make([]Category, 0, 8)
		for rows.Next() {
			var c Category
			if err := rows.Scan(&c.ID, &c.Name, &c.Image); err != nil {
				return err
			}
			out = append(out, c)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return out, nil
}

// SeedIfEmpty loads categories and products when the catalog has no
// categories yet. It reports whether anything was written.
func (s *PostgresStore) SeedIfEmpty(ctx context.Context, categories []Category, products []Product) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin seed: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var n int
	if err := tx.QueryRowContext(ctx, `SELECT count(*) FROM categories`).Scan(&n); err != nil {
		return false, fmt.Errorf("count categories: %w", err)
	}
	if n > 0 {
		return false, nil
	}

	for _, c := range categories {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO categories (id, name, image) VALUES ($1, $2, $3)`,
			c.ID, c.Name, c.Image,
		); err != nil {
			return false, fmt.Errorf("seed category %d: %w", c.ID, err)
		}
	}
	for _, p := range products {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO products (id, title, description, price, images, category_id)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			p.ID, p.Title, p.Description, p.Price, p.Images, p.Category.ID,
		); err != nil {
			return false, fmt.Errorf("seed product %d: %w", p.ID, err)
		}
	}

	// explicit ids leave the serial sequences behind
	for _, table := range []string{"categories", "products"} {
		if _, err := tx.ExecContext(ctx,
			`SELECT setval(pg_get_serial_sequence('`+table+`', 'id'), (SELECT max(id) FROM `+table+`))`,
		); err != nil {
			return false, fmt.Errorf("reset %s sequence: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit seed: %w", err)
	}
	return true, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanProduct decodes the TEXT[] images column through a pgtype.Map, which
// is not safe for concurrent use and so is owned by the caller.
func scanProduct(types *pgtype.Map, row scanner) (Product, error) {
	var p Product
	err := row.Scan(
		&p.ID, &p.Title, &p.Description, &p.Price, types.SQLScanner(&p.Images),
		&p.Category.ID, &p.Category.Name, &p.Category.Image,
	)
	if p.Images == nil {
		p.Images = []string{}
	}
	return p, err
}

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}
