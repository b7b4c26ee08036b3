package repos

import (
	"context"
	"errors"
	"testing"

	"showroom/internal/domain"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTest(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := OpenDB(DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, Seed(context.Background(), db))
	return db
}

func TestLikePattern(t *testing.T) {
	assert.Equal(t, "%beach%", like("Beach"))
	assert.Equal(t, `%50\%%`, like("50%"))
	assert.Equal(t, `%a\_b%`, like("a_b"))
	assert.Equal(t, `%c:\\d%`, like(`C:\D`))
}

func TestSeedIsIdempotent(t *testing.T) {
	db := openTest(t)
	require.NoError(t, Seed(context.Background(), db))

	var users, products int
	require.NoError(t, db.Get(&users, `SELECT COUNT(*) FROM users`))
	require.NoError(t, db.Get(&products, `SELECT COUNT(*) FROM products`))
	assert.Equal(t, 3, users)
	assert.Equal(t, 5, products)
}

func TestUserCreate_DuplicateEmail(t *testing.T) {
	db := openTest(t)
	err := NewUserRepo(db).Create(context.Background(), domain.User{
		ID: "u-new", Email: "ALICE@example.com", Name: "Imposter", Hash: "x", Role: domain.RoleUser,
	})
	assert.ErrorIs(t, err, domain.ErrEmailTaken)
	assert.NotErrorIs(t, err, domain.ErrConflict)
}

func TestDebit(t *testing.T) {
	db := openTest(t)
	users := NewUserRepo(db)
	ctx := context.Background()

	bal, err := users.Debit(ctx, "u-bob", 60)
	require.NoError(t, err)
	assert.EqualValues(t, 40, bal)

	_, err = users.Debit(ctx, "u-bob", 41)
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)

	_, err = users.Debit(ctx, "u-ghost", 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = users.Debit(ctx, "u-bob", 0)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	u, err := users.ByID(ctx, "u-bob")
	require.NoError(t, err)
	assert.EqualValues(t, 40, u.Balance)
}

func TestWithTx_RollsBackAndJoins(t *testing.T) {
	db := openTest(t)
	users := NewUserRepo(db)
	ctx := context.Background()
	sentinel := errors.New("abort")

	err := WithTx(ctx, db, func(ctx context.Context) error {
		if _, err := users.Debit(ctx, "u-alice", 100); err != nil {
			return err
		}
		// Nested call joins the outer transaction.
		return WithTx(ctx, db, func(ctx context.Context) error {
			if _, err := users.Debit(ctx, "u-alice", 100); err != nil {
				return err
			}
			return sentinel
		})
	})
	assert.ErrorIs(t, err, sentinel)

	u, err := users.ByID(ctx, "u-alice")
	require.NoError(t, err)
	assert.EqualValues(t, 500, u.Balance, "both debits rolled back")
}

func TestOwnershipInsert_Duplicate(t *testing.T) {
	db := openTest(t)
	owned := NewOwnershipRepo(db)
	ctx := context.Background()

	require.NoError(t, owned.Insert(ctx, domain.Ownership{ID: "o-1", UserID: "u-alice", ProductID: "lip-ruby"}))
	err := owned.Insert(ctx, domain.Ownership{ID: "o-2", UserID: "u-alice", ProductID: "lip-ruby"})
	assert.ErrorIs(t, err, domain.ErrAlreadyOwned)

	ok, err := owned.Exists(ctx, "u-alice", "lip-ruby")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = owned.Exists(ctx, "u-bob", "lip-ruby")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInteractionLedger(t *testing.T) {
	db := openTest(t)
	ledger := NewInteractionRepo(db)
	ctx := context.Background()

	first, err := ledger.MarkViewed(ctx, "u-bob", "item-sunset")
	require.NoError(t, err)
	assert.True(t, first)
	again, err := ledger.MarkViewed(ctx, "u-bob", "item-sunset")
	require.NoError(t, err)
	assert.False(t, again)

	// The row exists with liked=false, so an insert loses and a swap wins once.
	inserted, err := ledger.InsertLiked(ctx, "u-bob", "item-sunset", true)
	require.NoError(t, err)
	assert.False(t, inserted)
	swapped, err := ledger.SwapLiked(ctx, "u-bob", "item-sunset", false)
	require.NoError(t, err)
	assert.True(t, swapped)
	swapped, err = ledger.SwapLiked(ctx, "u-bob", "item-sunset", false)
	require.NoError(t, err)
	assert.False(t, swapped, "stale expectation must not apply")

	recs, err := ledger.ForItems(ctx, "u-bob", []string{"item-sunset", "item-office"})
	require.NoError(t, err)
	assert.True(t, recs["item-sunset"].Liked)
	assert.True(t, recs["item-sunset"].Viewed)
	_, ok := recs["item-office"]
	assert.False(t, ok)

	empty, err := ledger.ForItems(ctx, "u-bob", nil)
	require.NoError(t, err)
	assert.Empty(t, empty)

	views, likes, err := ledger.Counts(ctx, "item-sunset")
	require.NoError(t, err)
	assert.EqualValues(t, 1, views)
	assert.EqualValues(t, 1, likes)
}

func TestAddLikes_NeverNegative(t *testing.T) {
	db := openTest(t)
	items := NewItemRepo(db)
	ctx := context.Background()

	assert.ErrorIs(t, items.AddLikes(ctx, "item-sunset", -1), domain.ErrConflict)
	require.NoError(t, items.AddLikes(ctx, "item-sunset", 1))
	require.NoError(t, items.AddLikes(ctx, "item-sunset", -1))
	assert.ErrorIs(t, items.IncrementViews(ctx, "ghost"), domain.ErrNotFound)
}

func TestCategoryChildMustHangOffParent(t *testing.T) {
	db := openTest(t)
	cats := NewCategoryRepo(db)
	ctx := context.Background()

	err := cats.CreateChild(ctx, domain.ChildCategory{
		CategoryInfo: domain.CategoryInfo{ID: "matte", Name: "Matte", Active: true}, ParentID: "lipstick",
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	c, err := cats.Get(ctx, "lipstick")
	require.NoError(t, err)
	child, ok := c.(domain.ChildCategory)
	require.True(t, ok)
	assert.Equal(t, "makeup", child.ParentID)

	ids, err := cats.ActiveChildIDs(ctx, "makeup")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"lipstick", "eyeliner"}, ids)
}
