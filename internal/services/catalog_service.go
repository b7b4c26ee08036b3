package services

import (
	"context"
	"fmt"
	"strings"

	"showroom/internal/domain"
	"showroom/internal/repos"

	"github.com/google/uuid"
)

type CatalogService struct {
	Cats  *repos.CategoryRepo
	Prods *repos.ProductRepo
}

func NewCatalogService(cats *repos.CategoryRepo, prods *repos.ProductRepo) *CatalogService {
	return &CatalogService{Cats: cats, Prods: prods}
}

// Resolve expands a category into the ids a product's category_id may take to
// match it: a parent yields itself plus its active children, a child yields itself.
func (s *CatalogService) Resolve(ctx context.Context, categoryID string) ([]string, error) {
	c, err := s.Cats.Get(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("category %s: %w", categoryID, err)
	}
	switch c := c.(type) {
	case domain.ParentCategory:
		kids, err := s.Cats.ActiveChildIDs(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		return append([]string{c.ID}, kids...), nil
	case domain.ChildCategory:
		return []string{c.ID}, nil
	default:
		return nil, fmt.Errorf("category %s: unexpected kind %T", categoryID, c)
	}
}

// ListCategories returns the active child categories, each with its parent.
func (s *CatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.Cats.ActiveChildren(ctx)
}

func (s *CatalogService) ListParentCategories(ctx context.Context) ([]domain.Category, error) {
	return s.Cats.ActiveParents(ctx)
}

// ListProducts returns active products ranked popular first, then by rating
// and recency. An empty categoryID means every category.
func (s *CatalogService) ListProducts(ctx context.Context, categoryID, search string) ([]domain.Product, error) {
	var ids []string
	if categoryID != "" {
		var err error
		if ids, err = s.Resolve(ctx, categoryID); err != nil {
			return nil, err
		}
	}
	return s.Prods.ListActive(ctx, ids, strings.TrimSpace(search))
}

// GetProduct hides inactive products from the storefront.
func (s *CatalogService) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	p, err := s.Prods.Get(ctx, id)
	if err != nil {
		return p, fmt.Errorf("product %s: %w", id, err)
	}
	if !p.Active {
		return domain.Product{}, fmt.Errorf("product %s: %w", id, domain.ErrNotFound)
	}
	return p, nil
}

// Admin

func (s *CatalogService) ListAllProducts(ctx context.Context) ([]domain.Product, error) {
	return s.Prods.ListAll(ctx)
}

// checkLeaf makes sure products only ever hang off child categories.
func (s *CatalogService) checkLeaf(ctx context.Context, categoryID string) error {
	c, err := s.Cats.Get(ctx, categoryID)
	if err != nil {
		return fmt.Errorf("category %s: %w", categoryID, err)
	}
	if _, ok := c.(domain.ChildCategory); !ok {
		return fmt.Errorf("category %s is a parent: %w", categoryID, domain.ErrInvalidArgument)
	}
	return nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, f domain.ProductFields) (domain.Product, error) {
	if f.Name == nil || strings.TrimSpace(*f.Name) == "" || f.Price == nil || f.CategoryID == nil {
		return domain.Product{}, fmt.Errorf("name, price and categoryId are required: %w", domain.ErrInvalidArgument)
	}
	p := domain.Product{ID: uuid.NewString(), Rating: 5.0, Active: true}
	applyProductFields(&p, f)
	if p.Price <= 0 {
		return domain.Product{}, fmt.Errorf("price must be positive: %w", domain.ErrInvalidArgument)
	}
	if err := s.checkLeaf(ctx, p.CategoryID); err != nil {
		return domain.Product{}, err
	}
	if err := s.Prods.Create(ctx, p); err != nil {
		return domain.Product{}, err
	}
	return s.Prods.Get(ctx, p.ID)
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id string, f domain.ProductFields) (domain.Product, error) {
	p, err := s.Prods.Get(ctx, id)
	if err != nil {
		return p, fmt.Errorf("product %s: %w", id, err)
	}
	applyProductFields(&p, f)
	if p.Price <= 0 || strings.TrimSpace(p.Name) == "" {
		return domain.Product{}, fmt.Errorf("name and positive price required: %w", domain.ErrInvalidArgument)
	}
	if f.CategoryID != nil {
		if err := s.checkLeaf(ctx, p.CategoryID); err != nil {
			return domain.Product{}, err
		}
	}
	if err := s.Prods.Update(ctx, p); err != nil {
		return domain.Product{}, err
	}
	return s.Prods.Get(ctx, id)
}

// DeleteProduct is a soft delete. Owners keep their purchases.
func (s *CatalogService) DeleteProduct(ctx context.Context, id string) error {
	if err := s.Prods.Deactivate(ctx, id); err != nil {
		return fmt.Errorf("product %s: %w", id, err)
	}
	return nil
}

func applyProductFields(p *domain.Product, f domain.ProductFields) {
	if f.Name != nil {
		p.Name = strings.TrimSpace(*f.Name)
	}
	if f.Description != nil {
		p.Description = *f.Description
	}
	if f.Price != nil {
		p.Price = *f.Price
	}
	if f.ImageURL != nil {
		p.ImageURL = *f.ImageURL
	}
	if f.CategoryID != nil {
		p.CategoryID = *f.CategoryID
	}
	if f.IsPopular != nil {
		p.IsPopular = *f.IsPopular
	}
	if f.Active != nil {
		p.Active = *f.Active
	}
}

// CreateCategory adds a parent when parentID is empty, otherwise a child of parentID.
func (s *CatalogService) CreateCategory(ctx context.Context, name, parentID string) (domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("category name required: %w", domain.ErrInvalidArgument)
	}
	info := domain.CategoryInfo{ID: uuid.NewString(), Name: name, Active: true}
	if parentID == "" {
		if err := s.Cats.CreateParent(ctx, domain.ParentCategory{CategoryInfo: info}); err != nil {
			return nil, err
		}
	} else {
		err := s.Cats.CreateChild(ctx, domain.ChildCategory{CategoryInfo: info, ParentID: parentID})
		if err != nil {
			return nil, fmt.Errorf("parent category %s: %w", parentID, err)
		}
	}
	return s.Cats.Get(ctx, info.ID)
}
