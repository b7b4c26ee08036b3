package repos

import (
	"context"
	"database/sql"
	"errors"

	"showroom/internal/domain"

	"github.com/jmoiron/sqlx"
)

// productJoin selects a product with its child category and that category's parent.
const productJoin = `
  SELECT
    p.id, p.name, p.description, p.price, p.image_url, p.category_id, p.is_popular, p.rating,
    p.active, p.created_at, p.updated_at,
    c.name AS cat_name, c.active AS cat_active, c.created_at AS cat_created_at,
    c.updated_at AS cat_updated_at, c.parent_id AS cat_parent_id,
    pc.name AS parent_name, pc.active AS parent_active, pc.created_at AS parent_created_at,
    pc.updated_at AS parent_updated_at
  FROM products p
  JOIN categories c  ON c.id = p.category_id
  JOIN categories pc ON pc.id = c.parent_id`

type productRow struct {
	domain.Product
	CatName         string `db:"cat_name"`
	CatActive       bool   `db:"cat_active"`
	CatCreatedAt    string `db:"cat_created_at"`
	CatUpdatedAt    string `db:"cat_updated_at"`
	CatParentID     string `db:"cat_parent_id"`
	ParentName      string `db:"parent_name"`
	ParentActive    bool   `db:"parent_active"`
	ParentCreatedAt string `db:"parent_created_at"`
	ParentUpdatedAt string `db:"parent_updated_at"`
}

func (r productRow) toDomain() domain.Product {
	p := r.Product
	p.Category = &domain.ChildCategory{
		CategoryInfo: domain.CategoryInfo{
			ID: p.CategoryID, Name: r.CatName, Active: r.CatActive,
			CreatedAt: r.CatCreatedAt, UpdatedAt: r.CatUpdatedAt,
		},
		ParentID: r.CatParentID,
		Parent: &domain.ParentCategory{CategoryInfo: domain.CategoryInfo{
			ID: r.CatParentID, Name: r.ParentName, Active: r.ParentActive,
			CreatedAt: r.ParentCreatedAt, UpdatedAt: r.ParentUpdatedAt,
		}},
	}
	return p
}

func productsFromRows(rows []productRow) []domain.Product {
	out := make([]domain.Product, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out
}

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

// Get returns the product regardless of its active flag.
func (r *ProductRepo) Get(ctx context.Context, id string) (domain.Product, error) {
	var row productRow
	err := get(ctx, r.db, &row, productJoin+` WHERE p.id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Product{}, err
	}
	return row.toDomain(), nil
}

// ListActive returns active products, optionally restricted to categoryIDs
// (nil means any category) and a search term over name and description.
func (r *ProductRepo) ListActive(ctx context.Context, categoryIDs []string, search string) ([]domain.Product, error) {
	query := productJoin + ` WHERE p.active = TRUE`
	args := []any{}
	if categoryIDs != nil {
		if len(categoryIDs) == 0 {
			return []domain.Product{}, nil
		}
		query += ` AND p.category_id IN (?)`
		args = append(args, categoryIDs)
	}
	if search != "" {
		pat := like(search)
		query += ` AND (LOWER(p.name) LIKE ? ESCAPE '\' OR LOWER(p.description) LIKE ? ESCAPE '\')`
		args = append(args, pat, pat)
	}
	query += ` ORDER BY p.is_popular DESC, p.rating DESC, p.created_at DESC, p.id ASC`

	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return nil, err
	}
	var rows []productRow
	if err := sel(ctx, r.db, &rows, query, args...); err != nil {
		return nil, err
	}
	return productsFromRows(rows), nil
}

// ListAll is the admin view: inactive products included, newest first.
func (r *ProductRepo) ListAll(ctx context.Context) ([]domain.Product, error) {
	var rows []productRow
	if err := sel(ctx, r.db, &rows, productJoin+` ORDER BY p.created_at DESC, p.id ASC`); err != nil {
		return nil, err
	}
	return productsFromRows(rows), nil
}

func (r *ProductRepo) Create(ctx context.Context, p domain.Product) error {
	if p.CreatedAt == "" {
		p.CreatedAt = Now()
	}
	if p.UpdatedAt == "" {
		p.UpdatedAt = p.CreatedAt
	}
	_, err := exec(ctx, r.db, `
      INSERT INTO products(id, name, description, price, image_url, category_id, is_popular, rating,
                           active, created_at, updated_at)
      VALUES(?,?,?,?,?,?,?,?,?,?,?)`,
		p.ID, p.Name, p.Description, p.Price, p.ImageURL, p.CategoryID, p.IsPopular, p.Rating,
		p.Active, p.CreatedAt, p.UpdatedAt)
	return err
}

func (r *ProductRepo) Update(ctx context.Context, p domain.Product) error {
	ok, err := execOne(ctx, r.db, `
      UPDATE products
      SET name = ?, description = ?, price = ?, image_url = ?, category_id = ?, is_popular = ?,
          active = ?, updated_at = ?
      WHERE id = ?`,
		p.Name, p.Description, p.Price, p.ImageURL, p.CategoryID, p.IsPopular, p.Active, Now(), p.ID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrNotFound
	}
	return nil
}

// Deactivate is the soft delete; ownership rows keep pointing at the product.
func (r *ProductRepo) Deactivate(ctx context.Context, id string) error {
	ok, err := execOne(ctx, r.db,
		`UPDATE products SET active = FALSE, updated_at = ? WHERE id = ?`, Now(), id)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrNotFound
	}
	return nil
}
