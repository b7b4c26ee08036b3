package repos

import (
	"context"
	"database/sql"
	"errors"

	"showroom/internal/domain"

	"github.com/jmoiron/sqlx"
)

type OwnershipRepo struct{ db *sqlx.DB }

func NewOwnershipRepo(db *sqlx.DB) *OwnershipRepo { return &OwnershipRepo{db: db} }

// Insert records a purchase. A second row for the same (user, product) fails
// on the primary key and surfaces as domain.ErrAlreadyOwned.
func (r *OwnershipRepo) Insert(ctx context.Context, o domain.Ownership) error {
	now := Now()
	if o.PurchaseDate == "" {
		o.PurchaseDate = now
	}
	_, err := exec(ctx, r.db, `
      INSERT INTO user_products(id, user_id, product_id, purchase_date, is_used, created_at, updated_at)
      VALUES(?,?,?,?,?,?,?)`,
		o.ID, o.UserID, o.ProductID, o.PurchaseDate, o.IsUsed, now, now)
	if IsUniqueViolation(err) {
		return domain.ErrAlreadyOwned
	}
	return err
}

func (r *OwnershipRepo) Exists(ctx context.Context, userID, productID string) (bool, error) {
	var one int
	err := get(ctx, r.db, &one,
		`SELECT 1 FROM user_products WHERE user_id = ? AND product_id = ?`, userID, productID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func (r *OwnershipRepo) CountFor(ctx context.Context, userID, productID string) (int, error) {
	var n int
	err := get(ctx, r.db, &n,
		`SELECT COUNT(*) FROM user_products WHERE user_id = ? AND product_id = ?`, userID, productID)
	return n, err
}

type ownershipRow struct {
	OID           string `db:"o_id"`
	OUserID       string `db:"o_user_id"`
	OPurchaseDate string `db:"o_purchase_date"`
	OIsUsed       bool   `db:"o_is_used"`
	OCreatedAt    string `db:"o_created_at"`
	OUpdatedAt    string `db:"o_updated_at"`
	productRow
}

// ListForUser returns the user's purchases, newest first, each with its
// product, category and parent category.
func (r *OwnershipRepo) ListForUser(ctx context.Context, userID string) ([]domain.Ownership, error) {
	var rows []ownershipRow
	err := sel(ctx, r.db, &rows, `
      SELECT
        o.id AS o_id, o.user_id AS o_user_id, o.purchase_date AS o_purchase_date,
        o.is_used AS o_is_used, o.created_at AS o_created_at, o.updated_at AS o_updated_at,
        j.*
      FROM user_products o
      JOIN (`+productJoin+`) j ON j.id = o.product_id
      WHERE o.user_id = ?
      ORDER BY o.purchase_date DESC, o.id ASC`, userID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Ownership, 0, len(rows))
	for _, row := range rows {
		p := row.productRow.toDomain()
		out = append(out, domain.Ownership{
			ID:           row.OID,
			UserID:       row.OUserID,
			ProductID:    p.ID,
			PurchaseDate: row.OPurchaseDate,
			IsUsed:       row.OIsUsed,
			CreatedAt:    row.OCreatedAt,
			UpdatedAt:    row.OUpdatedAt,
			Product:      &p,
		})
	}
	return out, nil
}
