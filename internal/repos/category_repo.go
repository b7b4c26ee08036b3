package repos

import (
	"context"
	"database/sql"
	"errors"

	"showroom/internal/domain"

	"github.com/jmoiron/sqlx"
)

type categoryRow struct {
	ID        string         `db:"id"`
	Name      string         `db:"name"`
	IsParent  bool           `db:"is_parent"`
	ParentID  sql.NullString `db:"parent_id"`
	Active    bool           `db:"active"`
	CreatedAt string         `db:"created_at"`
	UpdatedAt string         `db:"updated_at"`
}

func (r categoryRow) toDomain() domain.Category {
	info := domain.CategoryInfo{
		ID: r.ID, Name: r.Name, Active: r.Active, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
	if r.IsParent {
		return domain.ParentCategory{CategoryInfo: info}
	}
	return domain.ChildCategory{CategoryInfo: info, ParentID: r.ParentID.String}
}

const categoryColumns = `id, name, is_parent, parent_id, active, created_at, updated_at`

type CategoryRepo struct{ db *sqlx.DB }

func NewCategoryRepo(db *sqlx.DB) *CategoryRepo { return &CategoryRepo{db: db} }

func (r *CategoryRepo) Get(ctx context.Context, id string) (domain.Category, error) {
	var row categoryRow
	err := get(ctx, r.db, &row, `SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

// ActiveChildIDs lists the ids of active children of parentID, by name.
func (r *CategoryRepo) ActiveChildIDs(ctx context.Context, parentID string) ([]string, error) {
	ids := []string{}
	err := sel(ctx, r.db, &ids, `
      SELECT id FROM categories
      WHERE parent_id = ? AND active = TRUE
      ORDER BY name, id`, parentID)
	return ids, err
}

// ActiveParents lists active top-level categories by name.
func (r *CategoryRepo) ActiveParents(ctx context.Context) ([]domain.Category, error) {
	var rows []categoryRow
	if err := sel(ctx, r.db, &rows, `
      SELECT `+categoryColumns+` FROM categories
      WHERE is_parent = TRUE AND active = TRUE
      ORDER BY name, id`); err != nil {
		return nil, err
	}
	out := make([]domain.Category, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

type childRow struct {
	categoryRow
	ParentName      string `db:"p_name"`
	ParentActive    bool   `db:"p_active"`
	ParentCreatedAt string `db:"p_created_at"`
	ParentUpdatedAt string `db:"p_updated_at"`
}

// ActiveChildren lists active child categories joined to their parent.
func (r *CategoryRepo) ActiveChildren(ctx context.Context) ([]domain.Category, error) {
	var rows []childRow
	if err := sel(ctx, r.db, &rows, `
      SELECT c.id, c.name, c.is_parent, c.parent_id, c.active, c.created_at, c.updated_at,
             pc.name AS p_name, pc.active AS p_active, pc.created_at AS p_created_at,
             pc.updated_at AS p_updated_at
      FROM categories c
      JOIN categories pc ON pc.id = c.parent_id
      WHERE c.is_parent = FALSE AND c.active = TRUE
      ORDER BY pc.name, c.name, c.id`); err != nil {
		return nil, err
	}
	out := make([]domain.Category, 0, len(rows))
	for _, row := range rows {
		child := domain.ChildCategory{
			CategoryInfo: domain.CategoryInfo{
				ID: row.ID, Name: row.Name, Active: row.Active,
				CreatedAt: row.CreatedAt, UpdatedAt: row.UpdatedAt,
			},
			ParentID: row.ParentID.String,
			Parent: &domain.ParentCategory{CategoryInfo: domain.CategoryInfo{
				ID: row.ParentID.String, Name: row.ParentName, Active: row.ParentActive,
				CreatedAt: row.ParentCreatedAt, UpdatedAt: row.ParentUpdatedAt,
			}},
		}
		out = append(out, child)
	}
	return out, nil
}

func (r *CategoryRepo) CreateParent(ctx context.Context, c domain.ParentCategory) error {
	now := Now()
	_, err := exec(ctx, r.db, `
      INSERT INTO categories(id, name, is_parent, parent_id, active, created_at, updated_at)
      VALUES(?, ?, TRUE, NULL, ?, ?, ?)`,
		c.ID, c.Name, c.Active, now, now)
	return err
}

// CreateChild inserts only when ParentID names an existing parent category,
// so the hierarchy can never grow a third level.
func (r *CategoryRepo) CreateChild(ctx context.Context, c domain.ChildCategory) error {
	now := Now()
	ok, err := execOne(ctx, r.db, `
      INSERT INTO categories(id, name, is_parent, parent_id, active, created_at, updated_at)
      SELECT ?, ?, FALSE, p.id, ?, ?, ?
      FROM categories p
      WHERE p.id = ? AND p.is_parent = TRUE`,
		c.ID, c.Name, c.Active, now, now, c.ParentID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrNotFound
	}
	return nil
}
