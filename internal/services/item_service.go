package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"showroom/internal/domain"
	"showroom/internal/repos"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const MaxPageSize = 100

type ItemPage struct {
	Items []domain.Item
	Total int
	Page  int
	Limit int
}

type ItemService struct {
	DB     *sqlx.DB
	Items  *repos.ItemRepo
	Ledger *repos.InteractionRepo
}

func NewItemService(db *sqlx.DB, items *repos.ItemRepo, ledger *repos.InteractionRepo) *ItemService {
	return &ItemService{DB: db, Items: items, Ledger: ledger}
}

// Get returns one item, annotated for userID when it is not empty.
func (s *ItemService) Get(ctx context.Context, id, userID string) (domain.Item, error) {
	it, err := s.Items.Get(ctx, id)
	if err != nil {
		return it, fmt.Errorf("item %s: %w", id, err)
	}
	if userID == "" {
		return it, nil
	}
	items := []domain.Item{it}
	if err := s.annotate(ctx, userID, items); err != nil {
		return domain.Item{}, err
	}
	return items[0], nil
}

func checkPaging(page, limit int) error {
	if page < 1 {
		return fmt.Errorf("page %d: %w", page, domain.ErrInvalidArgument)
	}
	if limit <= 0 || limit > MaxPageSize {
		return fmt.Errorf("limit %d: %w", limit, domain.ErrInvalidArgument)
	}
	return nil
}

func checkOrder(o domain.SortOrder) error {
	switch o {
	case "", domain.SortAsc, domain.SortDesc:
		return nil
	}
	return fmt.Errorf("sort order %q: %w", o, domain.ErrInvalidArgument)
}

// List pages through items. Order is the requested sort key then id, or id
// alone, so equal keys never reshuffle between pages.
func (s *ItemService) List(ctx context.Context, q domain.ItemQuery) (ItemPage, error) {
	if err := checkPaging(q.Page, q.Limit); err != nil {
		return ItemPage{}, err
	}
	if q.SortKey != "" && !repos.ItemSortable(q.SortKey) {
		return ItemPage{}, fmt.Errorf("sort key %q: %w", q.SortKey, domain.ErrInvalidArgument)
	}
	if err := checkOrder(q.SortOrder); err != nil {
		return ItemPage{}, err
	}
	q.Search = strings.TrimSpace(q.Search)

	items, total, err := s.Items.List(ctx, q)
	if err != nil {
		return ItemPage{}, err
	}
	if q.UserID != "" {
		if err := s.annotate(ctx, q.UserID, items); err != nil {
			return ItemPage{}, err
		}
	}
	return ItemPage{Items: items, Total: total, Page: q.Page, Limit: q.Limit}, nil
}

// annotate sets IsLiked/IsViewed from the user's ledger with one batched query.
func (s *ItemService) annotate(ctx context.Context, userID string, items []domain.Item) error {
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	recs, err := s.Ledger.ForItems(ctx, userID, ids)
	if err != nil {
		return err
	}
	for i := range items {
		rec := recs[items[i].ID]
		items[i].IsLiked = rec.Liked
		items[i].IsViewed = rec.Viewed
	}
	return nil
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	return string(b), err
}

func (s *ItemService) Create(ctx context.Context, ownerID string, f domain.ItemFields) (domain.Item, error) {
	if f.Name == nil || strings.TrimSpace(*f.Name) == "" || f.ImageURL == nil || strings.TrimSpace(*f.ImageURL) == "" {
		return domain.Item{}, fmt.Errorf("name and imageUrl are required: %w", domain.ErrInvalidArgument)
	}
	it := domain.Item{ID: uuid.NewString(), OwnerUserID: ownerID}
	if err := applyItemFields(&it, f); err != nil {
		return domain.Item{}, err
	}
	if err := s.Items.Create(ctx, it); err != nil {
		return domain.Item{}, err
	}
	return s.Items.Get(ctx, it.ID)
}

// Update edits display fields. Only the item's owner may call it.
func (s *ItemService) Update(ctx context.Context, id, callerID string, f domain.ItemFields) (domain.Item, error) {
	var out domain.Item
	err := repos.WithTx(ctx, s.DB, func(ctx context.Context) error {
		it, err := s.owned(ctx, id, callerID)
		if err != nil {
			return err
		}
		if err := applyItemFields(&it, f); err != nil {
			return err
		}
		if strings.TrimSpace(it.Name) == "" || strings.TrimSpace(it.ImageURL) == "" {
			return fmt.Errorf("name and imageUrl cannot be blank: %w", domain.ErrInvalidArgument)
		}
		if err := s.Items.UpdateDisplay(ctx, it); err != nil {
			return err
		}
		out, err = s.Items.Get(ctx, id)
		return err
	})
	if err != nil {
		return domain.Item{}, fmt.Errorf("update item %s: %w", id, err)
	}
	return out, nil
}

// Delete removes an item and its ledger rows. Only the owner may call it.
func (s *ItemService) Delete(ctx context.Context, id, callerID string) error {
	err := repos.WithTx(ctx, s.DB, func(ctx context.Context) error {
		if _, err := s.owned(ctx, id, callerID); err != nil {
			return err
		}
		return s.Items.Delete(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("delete item %s: %w", id, err)
	}
	return nil
}

func (s *ItemService) owned(ctx context.Context, id, callerID string) (domain.Item, error) {
	it, err := s.Items.Get(ctx, id)
	if err != nil {
		return it, err
	}
	if it.OwnerUserID != callerID {
		return it, domain.ErrForbidden
	}
	return it, nil
}

func applyItemFields(it *domain.Item, f domain.ItemFields) error {
	if f.Name != nil {
		it.Name = strings.TrimSpace(*f.Name)
	}
	if f.ImageURL != nil {
		it.ImageURL = strings.TrimSpace(*f.ImageURL)
	}
	if f.Description != nil {
		it.Description = *f.Description
	}
	if f.Tags != nil || it.TagsJSON == "" {
		tags, err := encodeTags(f.Tags)
		if err != nil {
			return err
		}
		it.TagsJSON = tags
	}
	return nil
}
