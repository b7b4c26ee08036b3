package handlers_test

import (
	"net/http"
	"sync"
	"testing"

	"showroom/internal/domain"
)

func TestViewCountsOncePerUser(t *testing.T) {
	a := newTestApp(t)
	alice := a.bearer(t, "u-alice", domain.RoleUser)
	bob := a.bearer(t, "u-bob", domain.RoleUser)

	resp := a.do(t, "POST", "/api/v1/items/item-festival/view", alice, nil)
	expectStatus(t, resp, http.StatusOK)
	it := decode[itemBody](t, resp)
	if it.ViewCount != 1 || !it.IsViewed {
		t.Fatalf("first view: got %+v", it)
	}

	it = decode[itemBody](t, a.do(t, "POST", "/api/v1/items/item-festival/view", alice, nil))
	if it.ViewCount != 1 {
		t.Fatalf("repeat view counted: viewCount=%d", it.ViewCount)
	}

	it = decode[itemBody](t, a.do(t, "POST", "/api/v1/items/item-festival/view", bob, nil))
	if it.ViewCount != 2 {
		t.Fatalf("second viewer: viewCount=%d", it.ViewCount)
	}
}

func TestLikeToggles(t *testing.T) {
	a := newTestApp(t)
	alice := a.bearer(t, "u-alice", domain.RoleUser)

	it := decode[itemBody](t, a.do(t, "POST", "/api/v1/items/item-festival/like", alice, nil))
	if it.LikeCount != 1 || !it.IsLiked {
		t.Fatalf("like: got %+v", it)
	}

	rec := decode[map[string]any](t, a.do(t, "GET", "/api/v1/items/item-festival/interaction", alice, nil))
	if rec["liked"] != true || rec["viewed"] != false {
		t.Fatalf("interaction after like: %v", rec)
	}

	it = decode[itemBody](t, a.do(t, "POST", "/api/v1/items/item-festival/like", alice, nil))
	if it.LikeCount != 0 || it.IsLiked {
		t.Fatalf("unlike: got %+v", it)
	}

	// The listing carries the caller's flags.
	list := decode[struct {
		Items []itemBody `json:"items"`
	}](t, a.do(t, "GET", "/api/v1/items?ownerId=u-bob", alice, nil))
	if len(list.Items) != 1 || list.Items[0].IsLiked {
		t.Fatalf("listing after unlike: %+v", list.Items)
	}
}

func TestConcurrentLikesStayConsistent(t *testing.T) {
	a := newTestApp(t)
	tokens := []string{
		a.bearer(t, "u-alice", domain.RoleUser),
		a.bearer(t, "u-bob", domain.RoleUser),
		a.bearer(t, "u-admin", domain.RoleAdmin),
	}

	var wg sync.WaitGroup
	for i := 0; i < 15; i++ {
		wg.Add(1)
		go func(tok string) {
			defer wg.Done()
			resp := a.do(t, "POST", "/api/v1/items/item-sunset/like", tok, nil)
			resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				t.Errorf("like: status %d", resp.StatusCode)
			}
		}(tokens[i%3])
	}
	wg.Wait()

	// Each user toggled five times, so every like stands.
	var likeCount, ledger int
	if err := a.db.Get(&likeCount, `SELECT like_count FROM items WHERE id = 'item-sunset'`); err != nil {
		t.Fatal(err)
	}
	if err := a.db.Get(&ledger, `SELECT COUNT(*) FROM interactions WHERE item_id = 'item-sunset' AND liked = TRUE`); err != nil {
		t.Fatal(err)
	}
	if likeCount != 3 || ledger != 3 {
		t.Fatalf("like_count=%d ledger=%d, want 3 and 3", likeCount, ledger)
	}
}

func TestInteractionsRequireUser(t *testing.T) {
	a := newTestApp(t)
	for _, path := range []string{
		"/api/v1/items/item-sunset/view",
		"/api/v1/items/item-sunset/like",
	} {
		resp := a.do(t, "POST", path, "", nil)
		expectStatus(t, resp, http.StatusUnauthorized)
	}
	resp := a.do(t, "GET", "/api/v1/items/item-sunset/interaction", "", nil)
	expectStatus(t, resp, http.StatusUnauthorized)
}

func TestViewMissingItem(t *testing.T) {
	a := newTestApp(t)
	resp := a.do(t, "POST", "/api/v1/items/ghost/view", a.bearer(t, "u-alice", domain.RoleUser), nil)
	expectStatus(t, resp, http.StatusNotFound)
	body := decode[errorBody](t, resp)
	if body.Error.Code != "NOT_FOUND" || body.Error.RequestID == "" {
		t.Fatalf("error body: %+v", body)
	}
}
