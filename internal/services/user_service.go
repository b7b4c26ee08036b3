package services

import (
	"context"
	"fmt"
	"strings"

	"showroom/internal/domain"
	"showroom/internal/repos"
)

type UserPage struct {
	Users []domain.UserStats
	Total int
	Page  int
	Limit int
}

type UserService struct {
	Users *repos.UserRepo
}

func NewUserService(users *repos.UserRepo) *UserService {
	return &UserService{Users: users}
}

// List pages through users with their view/like/item totals.
func (s *UserService) List(ctx context.Context, q domain.UserQuery) (UserPage, error) {
	if err := checkPaging(q.Page, q.Limit); err != nil {
		return UserPage{}, err
	}
	if q.SortKey != "" && !repos.UserSortable(q.SortKey) {
		return UserPage{}, fmt.Errorf("sort key %q: %w", q.SortKey, domain.ErrInvalidArgument)
	}
	if err := checkOrder(q.SortOrder); err != nil {
		return UserPage{}, err
	}
	q.Search = strings.TrimSpace(q.Search)
	users, total, err := s.Users.ListWithStats(ctx, q)
	if err != nil {
		return UserPage{}, err
	}
	return UserPage{Users: users, Total: total, Page: q.Page, Limit: q.Limit}, nil
}
