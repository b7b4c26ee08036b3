package services_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"showroom/internal/domain"
	"showroom/internal/repos"
	"showroom/internal/services"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenBalance struct{ err error }

func (b brokenBalance) Debit(context.Context, string, int64) (int64, error) { return 0, b.err }

func newOwnership(t *testing.T, balance services.BalanceAuthority) (*sqlx.DB, *services.OwnershipService) {
	t.Helper()
	db := memdb(t)
	addCatalog(t, db)
	addProduct(t, db, domain.Product{ID: "lip-ruby", CategoryID: "lipstick", Price: 120, Active: true})
	addProduct(t, db, domain.Product{ID: "lip-old", CategoryID: "lipstick", Price: 10, Active: false})
	if balance == nil {
		balance = repos.NewUserRepo(db)
	}
	svc := services.NewOwnershipService(db, repos.NewProductRepo(db), repos.NewOwnershipRepo(db), balance)
	return db, svc
}

func balanceOf(t *testing.T, db *sqlx.DB, userID string) int64 {
	t.Helper()
	u, err := repos.NewUserRepo(db).ByID(context.Background(), userID)
	require.NoError(t, err)
	return u.Balance
}

func owned(t *testing.T, db *sqlx.DB, userID, productID string) int {
	t.Helper()
	n, err := repos.NewOwnershipRepo(db).CountFor(context.Background(), userID, productID)
	require.NoError(t, err)
	return n
}

func TestPurchase_Success(t *testing.T) {
	db, svc := newOwnership(t, nil)
	addUser(t, db, "alice", 500)

	res, err := svc.Purchase(context.Background(), "alice", "lip-ruby")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.EqualValues(t, 380, res.NewBalance)
	assert.EqualValues(t, 380, balanceOf(t, db, "alice"))
	assert.Equal(t, 1, owned(t, db, "alice", "lip-ruby"))

	list, err := svc.ListUserProducts(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].Product)
	assert.Equal(t, "lip-ruby", list[0].Product.ID)
	require.NotNil(t, list[0].Product.Category)
	assert.Equal(t, "lipstick", list[0].Product.Category.ID)
	require.NotNil(t, list[0].Product.Category.Parent)
	assert.Equal(t, "makeup", list[0].Product.Category.Parent.ID)
}

func TestPurchase_SecondTimeAlreadyOwned(t *testing.T) {
	db, svc := newOwnership(t, nil)
	addUser(t, db, "alice", 500)
	ctx := context.Background()

	_, err := svc.Purchase(ctx, "alice", "lip-ruby")
	require.NoError(t, err)
	_, err = svc.Purchase(ctx, "alice", "lip-ruby")
	assert.ErrorIs(t, err, domain.ErrAlreadyOwned)

	assert.EqualValues(t, 380, balanceOf(t, db, "alice"), "charged once")
	assert.Equal(t, 1, owned(t, db, "alice", "lip-ruby"))
}

func TestPurchase_ConcurrentDuplicatesYieldOneRecord(t *testing.T) {
	db, svc := newOwnership(t, nil)
	addUser(t, db, "alice", 10_000)

	var wins, dupes atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Purchase(context.Background(), "alice", "lip-ruby")
			switch {
			case err == nil:
				wins.Add(1)
			case errors.Is(err, domain.ErrAlreadyOwned):
				dupes.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, wins.Load())
	assert.EqualValues(t, 11, dupes.Load())
	assert.Equal(t, 1, owned(t, db, "alice", "lip-ruby"))
	assert.EqualValues(t, 10_000-120, balanceOf(t, db, "alice"))
}

func TestPurchase_DifferentUsersBothOwn(t *testing.T) {
	db, svc := newOwnership(t, nil)
	addUser(t, db, "alice", 500)
	addUser(t, db, "bob", 500)
	ctx := context.Background()

	_, err := svc.Purchase(ctx, "alice", "lip-ruby")
	require.NoError(t, err)
	_, err = svc.Purchase(ctx, "bob", "lip-ruby")
	require.NoError(t, err)

	var n int
	require.NoError(t, db.Get(&n, `SELECT COUNT(*) FROM user_products WHERE product_id = 'lip-ruby'`))
	assert.Equal(t, 2, n)
}

func TestPurchase_MissingOrInactiveProduct(t *testing.T) {
	db, svc := newOwnership(t, nil)
	addUser(t, db, "alice", 500)
	ctx := context.Background()

	_, err := svc.Purchase(ctx, "alice", "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = svc.Purchase(ctx, "alice", "lip-old")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.EqualValues(t, 500, balanceOf(t, db, "alice"))
}

func TestPurchase_InsufficientFundsLeavesNothing(t *testing.T) {
	db, svc := newOwnership(t, nil)
	addUser(t, db, "bob", 100)

	_, err := svc.Purchase(context.Background(), "bob", "lip-ruby")
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
	assert.ErrorIs(t, err, domain.ErrDependency)
	assert.Equal(t, 0, owned(t, db, "bob", "lip-ruby"))
	assert.EqualValues(t, 100, balanceOf(t, db, "bob"))
}

func TestPurchase_BalanceAuthorityFailureRollsBack(t *testing.T) {
	db, svc := newOwnership(t, brokenBalance{err: errors.New("ledger offline")})
	addUser(t, db, "alice", 500)

	_, err := svc.Purchase(context.Background(), "alice", "lip-ruby")
	assert.ErrorIs(t, err, domain.ErrDependency)
	assert.NotErrorIs(t, err, domain.ErrAlreadyOwned)
	assert.Equal(t, 0, owned(t, db, "alice", "lip-ruby"))

	// A retry after the outage succeeds once the authority is back.
	svc.Balance = repos.NewUserRepo(db)
	_, err = svc.Purchase(context.Background(), "alice", "lip-ruby")
	require.NoError(t, err)
}
