package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"showroom/internal/domain"
	"showroom/internal/repos"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var ErrBadCreds = errors.New("invalid email or password")

type AuthService struct {
	Users         *repos.UserRepo
	SignupCredits int64
}

func NewAuthService(users *repos.UserRepo, signupCredits int64) *AuthService {
	return &AuthService{Users: users, SignupCredits: signupCredits}
}

// Register creates a USER account seeded with the signup credits and binds it
// to sid. Both writes commit together.
func (s *AuthService) Register(ctx context.Context, sid, email, name, password string) (*domain.User, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := domain.User{
		ID:      uuid.NewString(),
		Email:   strings.ToLower(strings.TrimSpace(email)),
		Name:    strings.TrimSpace(name),
		Hash:    string(h),
		Role:    domain.RoleUser,
		Balance: s.SignupCredits,
	}
	var out *domain.User
	err = repos.WithTx(ctx, s.Users.DB, func(ctx context.Context) error {
		if err := s.Users.Create(ctx, u); err != nil {
			return err
		}
		if sid != "" {
			if err := s.Users.BindSession(ctx, sid, u.ID); err != nil {
				return fmt.Errorf("bind session: %w", err)
			}
		}
		var err error
		out, err = s.Users.ByID(ctx, u.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *AuthService) Login(ctx context.Context, sid, email, password string) (*domain.User, error) {
	u, err := s.Users.ByEmail(ctx, email)
	if err != nil {
		return nil, ErrBadCreds
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		return nil, ErrBadCreds
	}
	if err := s.Users.BindSession(ctx, sid, u.ID); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *AuthService) Logout(ctx context.Context, sid string) error {
	return s.Users.UnbindSession(ctx, sid)
}

func (s *AuthService) CurrentUser(ctx context.Context, sid string) (*domain.User, error) {
	return s.Users.SessionUser(ctx, sid)
}

func (s *AuthService) UserByID(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.Users.ByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("user %s: %w", id, err)
	}
	return u, nil
}
