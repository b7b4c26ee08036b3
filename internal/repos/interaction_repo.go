package repos

import (
	"context"
	"database/sql"
	"errors"

	"showroom/internal/domain"

	"github.com/jmoiron/sqlx"
)

type InteractionRepo struct{ db *sqlx.DB }

func NewInteractionRepo(db *sqlx.DB) *InteractionRepo { return &InteractionRepo{db: db} }

// Get returns the ledger row, or ok=false when the user never touched the item.
func (r *InteractionRepo) Get(ctx context.Context, userID, itemID string) (rec domain.Interaction, ok bool, err error) {
	err = get(ctx, r.db, &rec, `
      SELECT user_id, item_id, viewed, liked, created_at, updated_at
      FROM interactions
      WHERE user_id = ? AND item_id = ?`, userID, itemID)
	if errors.Is(err, sql.ErrNoRows) {
		return rec, false, nil
	}
	if err != nil {
		return rec, false, err
	}
	return rec, true, nil
}

// MarkViewed sets viewed for the pair, creating the row if needed. It reports
// true only when this call moved viewed from false (or absent) to true.
func (r *InteractionRepo) MarkViewed(ctx context.Context, userID, itemID string) (bool, error) {
	now := Now()
	return execOne(ctx, r.db, `
      INSERT INTO interactions(user_id, item_id, viewed, liked, created_at, updated_at)
      VALUES(?, ?, TRUE, FALSE, ?, ?)
      ON CONFLICT(user_id, item_id) DO UPDATE
        SET viewed = TRUE, updated_at = excluded.updated_at
        WHERE interactions.viewed = FALSE`,
		userID, itemID, now, now)
}

// InsertLiked creates the row with the given liked flag. Reports false when a
// concurrent writer created it first.
func (r *InteractionRepo) InsertLiked(ctx context.Context, userID, itemID string, liked bool) (bool, error) {
	now := Now()
	return execOne(ctx, r.db, `
      INSERT INTO interactions(user_id, item_id, viewed, liked, created_at, updated_at)
      VALUES(?, ?, FALSE, ?, ?, ?)
      ON CONFLICT(user_id, item_id) DO NOTHING`,
		userID, itemID, liked, now, now)
}

// SwapLiked flips liked from old to !old. Reports false when the stored value
// was no longer old.
func (r *InteractionRepo) SwapLiked(ctx context.Context, userID, itemID string, old bool) (bool, error) {
	return execOne(ctx, r.db, `
      UPDATE interactions SET liked = ?, updated_at = ?
      WHERE user_id = ? AND item_id = ? AND liked = ?`,
		!old, Now(), userID, itemID, old)
}

// ForItems loads the user's rows for a batch of items in one query, keyed by item id.
func (r *InteractionRepo) ForItems(ctx context.Context, userID string, itemIDs []string) (map[string]domain.Interaction, error) {
	out := map[string]domain.Interaction{}
	if len(itemIDs) == 0 {
		return out, nil
	}
	query, args, err := sqlx.In(`
      SELECT user_id, item_id, viewed, liked, created_at, updated_at
      FROM interactions
      WHERE user_id = ? AND item_id IN (?)`, userID, itemIDs)
	if err != nil {
		return nil, err
	}
	var rows []domain.Interaction
	if err := sel(ctx, r.db, &rows, query, args...); err != nil {
		return nil, err
	}
	for _, rec := range rows {
		out[rec.ItemID] = rec
	}
	return out, nil
}

// Counts recomputes the ledger totals for an item.
func (r *InteractionRepo) Counts(ctx context.Context, itemID string) (views, likes int64, err error) {
	var row struct {
		Views int64 `db:"views"`
		Likes int64 `db:"likes"`
	}
	err = get(ctx, r.db, &row, `
      SELECT
        COALESCE(SUM(CASE WHEN viewed THEN 1 ELSE 0 END), 0) AS views,
        COALESCE(SUM(CASE WHEN liked  THEN 1 ELSE 0 END), 0) AS likes
      FROM interactions
      WHERE item_id = ?`, itemID)
	return row.Views, row.Likes, err
}
