package repos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"showroom/internal/domain"

	"github.com/jmoiron/sqlx"
)

const userColumns = `id, email, name, password_hash, role, balance, created_at`

type UserRepo struct{ DB *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{DB: db} }

func (r *UserRepo) ByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	err := get(ctx, r.DB, &u, `SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER(?)`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) ByID(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	err := get(ctx, r.DB, &u, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a user; a taken email surfaces as domain.ErrEmailTaken.
func (r *UserRepo) Create(ctx context.Context, u domain.User) error {
	if u.CreatedAt == "" {
		u.CreatedAt = Now()
	}
	_, err := exec(ctx, r.DB, `
      INSERT INTO users(id, email, name, password_hash, role, balance, created_at, updated_at)
      VALUES(?,?,?,?,?,?,?,?)`,
		u.ID, u.Email, u.Name, u.Hash, u.Role, u.Balance, u.CreatedAt, u.CreatedAt)
	if IsUniqueViolation(err) {
		return fmt.Errorf("email %q: %w", u.Email, domain.ErrEmailTaken)
	}
	return err
}

// Debit takes amount credits from the user's balance if it covers them and
// returns the new balance. It joins the caller's transaction when ctx carries one.
func (r *UserRepo) Debit(ctx context.Context, userID string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("debit %d: %w", amount, domain.ErrInvalidArgument)
	}
	ok, err := execOne(ctx, r.DB, `
      UPDATE users SET balance = balance - ?, updated_at = ?
      WHERE id = ? AND balance >= ?`,
		amount, Now(), userID, amount)
	if err != nil {
		return 0, err
	}
	if !ok {
		if _, err := r.ByID(ctx, userID); err != nil {
			return 0, err
		}
		return 0, domain.ErrInsufficientFunds
	}
	var balance int64
	if err := get(ctx, r.DB, &balance, `SELECT balance FROM users WHERE id = ?`, userID); err != nil {
		return 0, err
	}
	return balance, nil
}

func (r *UserRepo) BindSession(ctx context.Context, sid, userID string) error {
	now := Now()
	_, err := exec(ctx, r.DB, `
      INSERT INTO sessions(id, user_id, created_at, last_seen)
      VALUES(?, ?, ?, ?)
      ON CONFLICT(id) DO UPDATE SET user_id = excluded.user_id, last_seen = excluded.last_seen`,
		sid, userID, now, now)
	return err
}

func (r *UserRepo) SessionUser(ctx context.Context, sid string) (*domain.User, error) {
	var u domain.User
	err := get(ctx, r.DB, &u, `
      SELECT u.id, u.email, u.name, u.password_hash, u.role, u.balance, u.created_at
      FROM sessions s
      JOIN users u ON u.id = s.user_id
      WHERE s.id = ?`, sid)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) UnbindSession(ctx context.Context, sid string) error {
	_, err := exec(ctx, r.DB, `UPDATE sessions SET user_id = NULL, last_seen = ? WHERE id = ?`, Now(), sid)
	return err
}

var userSortColumns = map[string]string{
	"name":       "u.name",
	"createdAt":  "u.created_at",
	"totalViews": "total_views",
	"totalLikes": "total_likes",
	"totalItems": "total_items",
}

func UserSortable(key string) bool {
	_, ok := userSortColumns[key]
	return ok
}

// ListWithStats pages through users with their item totals, aggregated in a
// single grouped query.
func (r *UserRepo) ListWithStats(ctx context.Context, q domain.UserQuery) ([]domain.UserStats, int, error) {
	where := `1=1`
	args := []any{}
	if q.Search != "" {
		where += ` AND LOWER(u.name) LIKE ? ESCAPE '\'`
		args = append(args, like(q.Search))
	}

	var total int
	if err := get(ctx, r.DB, &total, `SELECT COUNT(*) FROM users u WHERE `+where, args...); err != nil {
		return nil, 0, err
	}

	order := `u.created_at DESC, u.id ASC`
	if col, ok := userSortColumns[q.SortKey]; ok {
		dir := "ASC"
		if q.SortOrder == domain.SortDesc {
			dir = "DESC"
		}
		order = fmt.Sprintf("%s %s, u.id ASC", col, dir)
	}

	out := []domain.UserStats{}
	err := sel(ctx, r.DB, &out, `
      SELECT
        u.id, u.email, u.name, u.password_hash, u.role, u.balance, u.created_at,
        COALESCE(SUM(i.view_count), 0) AS total_views,
        COALESCE(SUM(i.like_count), 0) AS total_likes,
        COUNT(i.id) AS total_items
      FROM users u
      LEFT JOIN items i ON i.owner_user_id = u.id
      WHERE `+where+`
      GROUP BY u.id, u.email, u.name, u.password_hash, u.role, u.balance, u.created_at
      ORDER BY `+order+`
      LIMIT ? OFFSET ?`,
		append(args, q.Limit, (q.Page-1)*q.Limit)...)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
