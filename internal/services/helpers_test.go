package services_test

import (
	"context"
	"fmt"
	"testing"

	"showroom/internal/domain"
	"showroom/internal/repos"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func memdb(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := repos.OpenDB(repos.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func addUser(t *testing.T, db *sqlx.DB, id string, balance int64) {
	t.Helper()
	err := repos.NewUserRepo(db).Create(context.Background(), domain.User{
		ID: id, Email: id + "@example.com", Name: id, Hash: "x", Role: domain.RoleUser, Balance: balance,
	})
	require.NoError(t, err)
}

func addItem(t *testing.T, db *sqlx.DB, id, name, owner string) {
	t.Helper()
	err := repos.NewItemRepo(db).Create(context.Background(), domain.Item{
		ID: id, Name: name, ImageURL: "img/" + id + ".png", OwnerUserID: owner,
	})
	require.NoError(t, err)
}

// addCatalog creates two parents with children, one child inactive:
//
//	makeup      -> lipstick, eyeliner, retired (inactive)
//	accessories -> hats
func addCatalog(t *testing.T, db *sqlx.DB) {
	t.Helper()
	ctx := context.Background()
	cats := repos.NewCategoryRepo(db)
	parent := func(id string) {
		require.NoError(t, cats.CreateParent(ctx, domain.ParentCategory{
			CategoryInfo: domain.CategoryInfo{ID: id, Name: id, Active: true},
		}))
	}
	child := func(id, p string, active bool) {
		require.NoError(t, cats.CreateChild(ctx, domain.ChildCategory{
			CategoryInfo: domain.CategoryInfo{ID: id, Name: id, Active: active}, ParentID: p,
		}))
	}
	parent("makeup")
	parent("accessories")
	child("lipstick", "makeup", true)
	child("eyeliner", "makeup", true)
	child("retired", "makeup", false)
	child("hats", "accessories", true)
}

func addProduct(t *testing.T, db *sqlx.DB, p domain.Product) {
	t.Helper()
	if p.Name == "" {
		p.Name = p.ID
	}
	if p.Price == 0 {
		p.Price = 100
	}
	if p.Rating == 0 {
		p.Rating = 5
	}
	require.NoError(t, repos.NewProductRepo(db).Create(context.Background(), p))
}

func stamp(i int) string {
	return fmt.Sprintf("2025-01-01T00:00:%02d.000000Z", i)
}
