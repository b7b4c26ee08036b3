package repos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
)

// Seed inserts demo categories, products, users and items. It is idempotent:
// rows that already exist are left alone.
func Seed(ctx context.Context, db *sqlx.DB) error {
	return WithTx(ctx, db, func(ctx context.Context) error {
		if err := seedCatalog(ctx, db); err != nil {
			return err
		}
		if err := seedUsers(ctx, db); err != nil {
			return err
		}
		return seedItems(ctx, db)
	})
}

func seedCatalog(ctx context.Context, db *sqlx.DB) error {
	now := Now()
	cats := []struct {
		id, name, parent string
	}{
		{"makeup", "Makeup", ""},
		{"accessories", "Accessories", ""},
		{"lipstick", "Lipstick", "makeup"},
		{"eyeliner", "Eyeliner", "makeup"},
		{"glasses", "Glasses", "accessories"},
		{"hats", "Hats", "accessories"},
	}
	for _, c := range cats {
		var parent any
		if c.parent != "" {
			parent = c.parent
		}
		if _, err := exec(ctx, db, `
          INSERT INTO categories(id, name, is_parent, parent_id, active, created_at, updated_at)
          VALUES(?, ?, ?, ?, TRUE, ?, ?)
          ON CONFLICT(id) DO NOTHING`,
			c.id, c.name, c.parent == "", parent, now, now); err != nil {
			return err
		}
	}

	prods := []struct {
		id, name, desc, cat string
		price               int64
		popular             bool
		rating              float64
	}{
		{"lip-ruby", "Ruby Lipstick", "Deep red avatar lipstick.", "lipstick", 120, true, 4.8},
		{"lip-nude", "Nude Gloss", "Subtle everyday gloss.", "lipstick", 80, false, 4.2},
		{"liner-wing", "Winged Liner", "Sharp winged eyeliner.", "eyeliner", 60, false, 4.5},
		{"glasses-round", "Round Glasses", "Thin metal round frames.", "glasses", 150, true, 4.9},
		{"hat-beret", "Beret", "Wool beret for the avatar.", "hats", 90, false, 4.0},
	}
	for _, p := range prods {
		if _, err := exec(ctx, db, `
          INSERT INTO products(id, name, description, price, image_url, category_id, is_popular, rating,
                               active, created_at, updated_at)
          VALUES(?, ?, ?, ?, ?, ?, ?, ?, TRUE, ?, ?)
          ON CONFLICT(id) DO NOTHING`,
			p.id, p.name, p.desc, p.price, "products/"+p.id+".png", p.cat, p.popular, p.rating,
			now, now); err != nil {
			return err
		}
	}
	return nil
}

// seedUsers ensures two USERs and one ADMIN exist.
func seedUsers(ctx context.Context, db *sqlx.DB) error {
	users := []struct {
		id, email, name, pw, role string
		balance                   int64
	}{
		{"u-alice", "alice@example.com", "Alice", "Password1!", "USER", 500},
		{"u-bob", "bob@example.com", "Bob", "Password1!", "USER", 100},
		{"u-admin", "admin@example.com", "Admin", "Admin123!", "ADMIN", 0},
	}
	now := Now()
	for _, u := range users {
		h, err := bcrypt.GenerateFromPassword([]byte(u.pw), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		if _, err := exec(ctx, db, `
          INSERT INTO users(id, email, name, password_hash, role, balance, created_at, updated_at)
          VALUES(?, ?, ?, ?, ?, ?, ?, ?)
          ON CONFLICT(id) DO NOTHING`,
			u.id, u.email, u.name, string(h), u.role, u.balance, now, now); err != nil {
			return err
		}
	}
	return nil
}

func seedItems(ctx context.Context, db *sqlx.DB) error {
	now := Now()
	items := []struct{ id, name, owner, tags string }{
		{"item-sunset", "Sunset Look", "u-alice", `["warm","evening"]`},
		{"item-office", "Office Ready", "u-alice", `["work"]`},
		{"item-festival", "Festival Glam", "u-bob", `["party","glitter"]`},
	}
	for _, it := range items {
		if _, err := exec(ctx, db, `
          INSERT INTO items(id, name, image_url, description, tags_json, view_count, like_count,
                            owner_user_id, created_at, updated_at)
          VALUES(?, ?, ?, '', ?, 0, 0, ?, ?, ?)
          ON CONFLICT(id) DO NOTHING`,
			it.id, it.name, "items/"+it.id+".png", it.tags, it.owner, now, now); err != nil {
			return err
		}
	}
	return nil
}
