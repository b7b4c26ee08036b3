package repos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"showroom/internal/domain"

	"github.com/jmoiron/sqlx"
)

const itemColumns = `
    id, name, image_url, description, tags_json, view_count, like_count,
    owner_user_id, created_at, updated_at`

// itemSortColumns is the whitelist of sortable keys; nothing else reaches ORDER BY.
var itemSortColumns = map[string]string{
	"name":      "name",
	"viewCount": "view_count",
	"likeCount": "like_count",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
}

func ItemSortable(key string) bool {
	_, ok := itemSortColumns[key]
	return ok
}

type ItemRepo struct{ db *sqlx.DB }

func NewItemRepo(db *sqlx.DB) *ItemRepo { return &ItemRepo{db: db} }

func (r *ItemRepo) Get(ctx context.Context, id string) (domain.Item, error) {
	var it domain.Item
	err := get(ctx, r.db, &it, `SELECT`+itemColumns+` FROM items WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return it, domain.ErrNotFound
	}
	return it, err
}

func (r *ItemRepo) Create(ctx context.Context, it domain.Item) error {
	if it.CreatedAt == "" {
		it.CreatedAt = Now()
	}
	if it.UpdatedAt == "" {
		it.UpdatedAt = it.CreatedAt
	}
	if it.TagsJSON == "" {
		it.TagsJSON = "[]"
	}
	_, err := exec(ctx, r.db, `
      INSERT INTO items(id, name, image_url, description, tags_json, view_count, like_count,
                        owner_user_id, created_at, updated_at)
      VALUES(?,?,?,?,?,0,0,?,?,?)`,
		it.ID, it.Name, it.ImageURL, it.Description, it.TagsJSON, it.OwnerUserID, it.CreatedAt, it.UpdatedAt)
	return err
}

// UpdateDisplay rewrites the display fields only; counters are never touched here.
func (r *ItemRepo) UpdateDisplay(ctx context.Context, it domain.Item) error {
	ok, err := execOne(ctx, r.db, `
      UPDATE items SET name = ?, image_url = ?, description = ?, tags_json = ?, updated_at = ?
      WHERE id = ?`,
		it.Name, it.ImageURL, it.Description, it.TagsJSON, Now(), it.ID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes the item together with its interaction rows. Call it inside
// WithTx so both leave at once.
func (r *ItemRepo) Delete(ctx context.Context, id string) error {
	if _, err := exec(ctx, r.db, `DELETE FROM interactions WHERE item_id = ?`, id); err != nil {
		return err
	}
	ok, err := execOne(ctx, r.db, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrNotFound
	}
	return nil
}

// IncrementViews bumps view_count by one. Returns ErrNotFound if the row is gone.
func (r *ItemRepo) IncrementViews(ctx context.Context, id string) error {
	ok, err := execOne(ctx, r.db,
		`UPDATE items SET view_count = view_count + 1 WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrNotFound
	}
	return nil
}

// AddLikes applies delta to like_count unless that would take it below zero,
// in which case it reports ErrConflict.
func (r *ItemRepo) AddLikes(ctx context.Context, id string, delta int64) error {
	ok, err := execOne(ctx, r.db,
		`UPDATE items SET like_count = like_count + ? WHERE id = ? AND like_count + ? >= 0`,
		delta, id, delta)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrConflict
	}
	return nil
}

// List returns one page of items plus the total match count.
// q must already be validated (page >= 1, 0 < limit, whitelisted sort key).
func (r *ItemRepo) List(ctx context.Context, q domain.ItemQuery) ([]domain.Item, int, error) {
	where := `1=1`
	args := []any{}
	if q.Search != "" {
		where += ` AND LOWER(name) LIKE ? ESCAPE '\'`
		args = append(args, like(q.Search))
	}
	if q.OwnerID != "" {
		where += ` AND owner_user_id = ?`
		args = append(args, q.OwnerID)
	}

	var total int
	if err := get(ctx, r.db, &total, `SELECT COUNT(*) FROM items WHERE `+where, args...); err != nil {
		return nil, 0, err
	}

	order := `id ASC`
	if col, ok := itemSortColumns[q.SortKey]; ok {
		dir := "ASC"
		if q.SortOrder == domain.SortDesc {
			dir = "DESC"
		}
		order = fmt.Sprintf("%s %s, id ASC", col, dir)
	}

	out := []domain.Item{}
	err := sel(ctx, r.db, &out, `
      SELECT`+itemColumns+`
      FROM items
      WHERE `+where+`
      ORDER BY `+order+`
      LIMIT ? OFFSET ?`,
		append(args, q.Limit, (q.Page-1)*q.Limit)...)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
