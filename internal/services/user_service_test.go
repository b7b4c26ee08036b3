package services_test

import (
	"context"
	"testing"

	"showroom/internal/domain"
	"showroom/internal/repos"
	"showroom/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserList_Stats(t *testing.T) {
	db, _, inter := newItems(t)
	ctx := context.Background()
	addUser(t, db, "busy", 0)
	addUser(t, db, "idle", 0)
	addItem(t, db, "b1", "B1", "busy")
	addItem(t, db, "b2", "B2", "busy")
	addItem(t, db, "o1", "O1", "owner")

	for _, u := range []string{"owner", "idle"} {
		_, err := inter.RecordView(ctx, "b1", u)
		require.NoError(t, err)
	}
	_, err := inter.ToggleLike(ctx, "b2", "idle")
	require.NoError(t, err)

	svc := services.NewUserService(repos.NewUserRepo(db))
	page, err := svc.List(ctx, domain.UserQuery{Page: 1, Limit: 10, SortKey: "totalItems", SortOrder: domain.SortDesc})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	require.Len(t, page.Users, 3)

	busy := page.Users[0]
	assert.Equal(t, "busy", busy.ID)
	assert.EqualValues(t, 2, busy.TotalItems)
	assert.EqualValues(t, 2, busy.TotalViews)
	assert.EqualValues(t, 1, busy.TotalLikes)

	assert.Equal(t, "owner", page.Users[1].ID)
	assert.Equal(t, "idle", page.Users[2].ID)
	assert.Zero(t, page.Users[2].TotalItems)
	assert.Zero(t, page.Users[2].TotalViews)

	found, err := svc.List(ctx, domain.UserQuery{Page: 1, Limit: 10, Search: "IDL"})
	require.NoError(t, err)
	require.Len(t, found.Users, 1)
	assert.Equal(t, "idle", found.Users[0].ID)

	_, err = svc.List(ctx, domain.UserQuery{Page: 1, Limit: 10, SortKey: "balance"})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	_, err = svc.List(ctx, domain.UserQuery{Page: 0, Limit: 10})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestAuth_RegisterLogin(t *testing.T) {
	db := memdb(t)
	auth := services.NewAuthService(repos.NewUserRepo(db), 250)
	ctx := context.Background()

	u, err := auth.Register(ctx, "sid-1", " New@Example.com ", "Newbie", "Password1!")
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", u.Email)
	assert.EqualValues(t, 250, u.Balance)
	assert.Equal(t, domain.RoleUser, u.Role)

	cur, err := auth.CurrentUser(ctx, "sid-1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, cur.ID)

	_, err = auth.Register(ctx, "", "new@example.com", "Again", "Password1!")
	assert.ErrorIs(t, err, domain.ErrEmailTaken)

	_, err = auth.Login(ctx, "sid-2", "new@example.com", "wrong-pass1!")
	assert.ErrorIs(t, err, services.ErrBadCreds)
	_, err = auth.Login(ctx, "sid-2", "ghost@example.com", "Password1!")
	assert.ErrorIs(t, err, services.ErrBadCreds)

	in, err := auth.Login(ctx, "sid-2", "new@example.com", "Password1!")
	require.NoError(t, err)
	assert.Equal(t, u.ID, in.ID)

	require.NoError(t, auth.Logout(ctx, "sid-2"))
	_, err = auth.CurrentUser(ctx, "sid-2")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = auth.UserByID(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAuth_RegisterRollsBackWhenSessionFails(t *testing.T) {
	db := memdb(t)
	users := repos.NewUserRepo(db)
	auth := services.NewAuthService(users, 100)
	ctx := context.Background()

	_, err := db.Exec(`DROP TABLE sessions`)
	require.NoError(t, err)

	_, err = auth.Register(ctx, "sid-1", "late@example.com", "Late", "Password1!")
	require.Error(t, err)

	_, err = users.ByEmail(ctx, "late@example.com")
	assert.ErrorIs(t, err, domain.ErrNotFound, "account must not outlive a failed registration")

	// Without a session the same email registers cleanly.
	u, err := auth.Register(ctx, "", "late@example.com", "Late", "Password1!")
	require.NoError(t, err)
	assert.Equal(t, "late@example.com", u.Email)
}
