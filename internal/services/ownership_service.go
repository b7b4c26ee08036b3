package services

import (
	"context"
	"errors"
	"fmt"

	"showroom/internal/domain"
	"showroom/internal/repos"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// BalanceAuthority holds user credit balances. Debit must honor a transaction
// carried on ctx (see repos.WithTx) so a failed purchase leaves no charge.
type BalanceAuthority interface {
	Debit(ctx context.Context, userID string, amount int64) (newBalance int64, err error)
}

type OwnershipService struct {
	DB      *sqlx.DB
	Prods   *repos.ProductRepo
	Owned   *repos.OwnershipRepo
	Balance BalanceAuthority
}

func NewOwnershipService(db *sqlx.DB, prods *repos.ProductRepo, owned *repos.OwnershipRepo, balance BalanceAuthority) *OwnershipService {
	return &OwnershipService{DB: db, Prods: prods, Owned: owned, Balance: balance}
}

// Purchase buys productID for userID at most once. The ownership row and the
// debit commit together: a rejected or failed debit leaves no record.
func (s *OwnershipService) Purchase(ctx context.Context, userID, productID string) (domain.PurchaseResult, error) {
	p, err := s.Prods.Get(ctx, productID)
	if err != nil {
		return domain.PurchaseResult{}, fmt.Errorf("product %s: %w", productID, err)
	}
	if !p.Active {
		return domain.PurchaseResult{}, fmt.Errorf("product %s inactive: %w", productID, domain.ErrNotFound)
	}

	owned, err := s.Owned.Exists(ctx, userID, productID)
	if err != nil {
		return domain.PurchaseResult{}, err
	}
	if owned {
		return domain.PurchaseResult{}, domain.ErrAlreadyOwned
	}

	var balance int64
	err = repos.WithTx(ctx, s.DB, func(ctx context.Context) error {
		// The primary key on (user_id, product_id) settles concurrent duplicates.
		if err := s.Owned.Insert(ctx, domain.Ownership{
			ID:        uuid.NewString(),
			UserID:    userID,
			ProductID: productID,
		}); err != nil {
			return err
		}
		nb, err := s.Balance.Debit(ctx, userID, p.Price)
		if err != nil {
			if errors.Is(err, domain.ErrDependency) {
				return err
			}
			return fmt.Errorf("debit %d: %w: %w", p.Price, domain.ErrDependency, err)
		}
		balance = nb
		return nil
	})
	if err != nil {
		return domain.PurchaseResult{}, fmt.Errorf("purchase %s: %w", productID, err)
	}
	return domain.PurchaseResult{
		Success:    true,
		Message:    "Product purchased successfully",
		NewBalance: balance,
	}, nil
}

func (s *OwnershipService) ListUserProducts(ctx context.Context, userID string) ([]domain.Ownership, error) {
	return s.Owned.ListForUser(ctx, userID)
}
