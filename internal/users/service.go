package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"nutrition-backend/internal/shared/auth"
	"nutrition-backend/internal/shared/telemetry"
)

type Service struct {
	Repo Repo
	// Cost is the bcrypt cost; zero means bcrypt.DefaultCost.
	Cost  int
	NewID func() string
}

func NewService(repo Repo) *Service {
	return &Service{Repo: repo, NewID: uuid.NewString}
}

// Register creates a password account and signs a session token.
func (s *Service) Register(ctx context.Context, in RegisterInput) (Session, error) {
	if s == nil || s.Repo == nil {
		return Session{}, errors.New("users service not configured")
	}
	email := normalizeEmail(in.Email)
	if email == "" || !strings.Contains(email, "@") {
		return Session{}, fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	if len(in.Password) < 8 {
		return Session{}, fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidInput)
	}
	cost := s.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), cost)
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}
	user := User{
		ID:           s.NewID(),
		Email:        email,
		Name:         name,
		Provider:     ProviderPassword,
		PasswordHash: string(hash),
	}
	if err := s.Repo.Create(ctx, user); err != nil {
		return Session{}, err
	}
	telemetry.Info("users.registered", map[string]any{"user_id": user.ID})
	return s.issue(ctx, user.ID)
}

// Login checks a password and signs a session token. Unknown emails and wrong
// passwords fail the same way.
func (s *Service) Login(ctx context.Context, in LoginInput) (Session, error) {
	if s == nil || s.Repo == nil {
		return Session{}, errors.New("users service not configured")
	}
	user, err := s.Repo.GetByEmail(ctx, normalizeEmail(in.Email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}
	if user.PasswordHash == "" {
		return Session{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return Session{}, ErrInvalidCredentials
	}
	return s.sign(user)
}

// LoginOAuth upserts an identity from an external provider. An email already
// registered with a password links to that account.
func (s *Service) LoginOAuth(ctx context.Context, user User) (Session, error) {
	if s == nil || s.Repo == nil {
		return Session{}, errors.New("users service not configured")
	}
	if strings.TrimSpace(user.ID) == "" || strings.TrimSpace(user.Email) == "" {
		return Session{}, fmt.Errorf("%w: user id and email are required", ErrInvalidInput)
	}
	user.Email = normalizeEmail(user.Email)
	if existing, err := s.Repo.GetByEmail(ctx, user.Email); err == nil && existing.ID != user.ID {
		return s.sign(existing)
	} else if err != nil && !errors.Is(err, ErrNotFound) {
		return Session{}, err
	}
	if err := s.Repo.Upsert(ctx, user); err != nil {
		return Session{}, err
	}
	return s.issue(ctx, user.ID)
}

func (s *Service) GetByID(ctx context.Context, userID string) (User, error) {
	if s == nil || s.Repo == nil {
		return User{}, errors.New("users service not configured")
	}
	if strings.TrimSpace(userID) == "" {
		return User{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	return s.Repo.GetByID(ctx, userID)
}

func (s *Service) issue(ctx context.Context, userID string) (Session, error) {
	user, err := s.Repo.GetByID(ctx, userID)
	if err != nil {
		return Session{}, err
	}
	return s.sign(user)
}

func (s *Service) sign(user User) (Session, error) {
	token, err := auth.SignJWT(auth.Claims{
		Email:            user.Email,
		Name:             user.Name,
		Picture:          user.Picture,
		RegisteredClaims: jwt.RegisteredClaims{Subject: user.ID},
	})
	if err != nil {
		return Session{}, fmt.Errorf("sign token: %w", err)
	}
	return Session{Token: token, User: user}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
