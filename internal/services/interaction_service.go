package services

import (
	"context"
	"fmt"
	"time"

	"showroom/internal/domain"
	"showroom/internal/repos"

	"github.com/jmoiron/sqlx"
)

// InteractionService keeps items.view_count / items.like_count equal to the
// number of ledger rows with viewed / liked set. Counter and ledger always
// change in the same transaction.
type InteractionService struct {
	DB      *sqlx.DB
	Items   *repos.ItemRepo
	Ledger  *repos.InteractionRepo
	Retries int
	Backoff time.Duration
}

func NewInteractionService(db *sqlx.DB, items *repos.ItemRepo, ledger *repos.InteractionRepo, retries int) *InteractionService {
	if retries < 1 {
		retries = DefaultWriteRetries
	}
	return &InteractionService{DB: db, Items: items, Ledger: ledger, Retries: retries, Backoff: DefaultRetryBackoff}
}

// RecordView marks the item viewed by userID. Only the first view by a user
// increments view_count; later calls return the item unchanged.
func (s *InteractionService) RecordView(ctx context.Context, itemID, userID string) (domain.Item, error) {
	var out domain.Item
	err := withRetry(ctx, "view", s.Retries, s.Backoff, func(ctx context.Context) error {
		return repos.WithTx(ctx, s.DB, func(ctx context.Context) error {
			if _, err := s.Items.Get(ctx, itemID); err != nil {
				return err
			}
			first, err := s.Ledger.MarkViewed(ctx, userID, itemID)
			if err != nil {
				return err
			}
			if first {
				if err := s.Items.IncrementViews(ctx, itemID); err != nil {
					return err
				}
			}
			out, err = s.Items.Get(ctx, itemID)
			return err
		})
	})
	if err != nil {
		return domain.Item{}, fmt.Errorf("view item %s: %w", itemID, err)
	}
	return out, nil
}

// ToggleLike flips the user's liked flag and moves like_count by one in the
// same direction. The flag is compare-and-set against the value read in the
// transaction, so two racing toggles can never both apply the same delta.
func (s *InteractionService) ToggleLike(ctx context.Context, itemID, userID string) (domain.Item, error) {
	var out domain.Item
	err := withRetry(ctx, "like", s.Retries, s.Backoff, func(ctx context.Context) error {
		return repos.WithTx(ctx, s.DB, func(ctx context.Context) error {
			if _, err := s.Items.Get(ctx, itemID); err != nil {
				return err
			}
			rec, exists, err := s.Ledger.Get(ctx, userID, itemID)
			if err != nil {
				return err
			}

			var swapped bool
			if exists {
				swapped, err = s.Ledger.SwapLiked(ctx, userID, itemID, rec.Liked)
			} else {
				swapped, err = s.Ledger.InsertLiked(ctx, userID, itemID, true)
			}
			if err != nil {
				return err
			}
			if !swapped {
				return domain.ErrConflict
			}

			delta := int64(1)
			if rec.Liked {
				delta = -1
			}
			if err := s.Items.AddLikes(ctx, itemID, delta); err != nil {
				return err
			}
			out, err = s.Items.Get(ctx, itemID)
			return err
		})
	})
	if err != nil {
		return domain.Item{}, fmt.Errorf("like item %s: %w", itemID, err)
	}
	return out, nil
}

// GetUserInteraction returns the user's ledger row for the item; a user who
// never touched it gets an all-false record.
func (s *InteractionService) GetUserInteraction(ctx context.Context, itemID, userID string) (domain.Interaction, error) {
	if _, err := s.Items.Get(ctx, itemID); err != nil {
		return domain.Interaction{}, fmt.Errorf("item %s: %w", itemID, err)
	}
	rec, ok, err := s.Ledger.Get(ctx, userID, itemID)
	if err != nil {
		return domain.Interaction{}, err
	}
	if !ok {
		return domain.Interaction{UserID: userID, ItemID: itemID}, nil
	}
	return rec, nil
}
