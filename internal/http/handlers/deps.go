package handlers

import (
	"showroom/internal/config"
	"showroom/internal/ratelimit"
	"showroom/internal/repos"
	"showroom/internal/security"
	"showroom/internal/services"

	"github.com/jmoiron/sqlx"
)

type Deps struct {
	DB      *sqlx.DB
	Auth    *services.AuthService
	Tokens  *security.HS256    // nil: bearer tokens rejected
	Limiter *ratelimit.Limiter // nil: no shared write limit

	AuthHandler    *AuthHandler
	ItemHandler    *ItemHandler
	CatalogHandler *CatalogHandler
	AdminHandler   *AdminHandler
	UserHandler    *UserHandler
}

// NewDeps wires repos and services over db. The caller owns limiter.
func NewDeps(db *sqlx.DB, cfg config.Config, limiter *ratelimit.Limiter) *Deps {
	userRepo := repos.NewUserRepo(db)
	itemRepo := repos.NewItemRepo(db)
	ledgerRepo := repos.NewInteractionRepo(db)
	catRepo := repos.NewCategoryRepo(db)
	prodRepo := repos.NewProductRepo(db)
	ownedRepo := repos.NewOwnershipRepo(db)

	authSvc := services.NewAuthService(userRepo, cfg.SignupCredits)
	itemSvc := services.NewItemService(db, itemRepo, ledgerRepo)
	interSvc := services.NewInteractionService(db, itemRepo, ledgerRepo, cfg.WriteRetries)
	catalogSvc := services.NewCatalogService(catRepo, prodRepo)
	ownSvc := services.NewOwnershipService(db, prodRepo, ownedRepo, userRepo)
	userSvc := services.NewUserService(userRepo)

	var tokens *security.HS256
	if cfg.JWTSecret != "" {
		tokens = security.NewHS256(cfg.JWTSecret, cfg.JWTIssuer)
	}

	return &Deps{
		DB:      db,
		Auth:    authSvc,
		Tokens:  tokens,
		Limiter: limiter,

		AuthHandler:    &AuthHandler{Auth: authSvc, Tokens: tokens},
		ItemHandler:    &ItemHandler{Items: itemSvc, Interactions: interSvc},
		CatalogHandler: &CatalogHandler{Catalog: catalogSvc, Ownership: ownSvc},
		AdminHandler:   &AdminHandler{Catalog: catalogSvc},
		UserHandler:    &UserHandler{Users: userSvc},
	}
}
