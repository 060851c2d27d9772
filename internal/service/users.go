package service

import (
	"context"
	"fmt"

	"cardvault/internal/models"
)

// UserRepository defines the persistence operations required by the
// user service.
type UserRepository interface {
	// CreateUser inserts a new active user and returns it with id and
	// timestamps populated.
	CreateUser(ctx context.Context, name, email string) (models.User, error)
	// UserByID returns the active user with the given id, or nil when
	// no such user exists.
	UserByID(ctx context.Context, userID int64) (*models.User, error)
	// UpdateUser changes the name and email of an active user.
	UpdateUser(ctx context.Context, userID int64, name, email string) (bool, error)
	// DeactivateUser transitions the user to inactive.
	DeactivateUser(ctx context.Context, userID int64) (bool, error)
}

// UserService implements user management by delegating to a UserRepository.
// Card operations only ever reference users by id; nothing here touches
// card metadata or the vault.
type UserService struct {
	repo UserRepository
}

// NewUserService constructs a UserService using the provided repository.
func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo}
}

// Create registers a new user with the given name and email.
func (s *UserService) Create(ctx context.Context, name, email string) (models.User, error) {
	if name == "" {
		return models.User{}, fmt.Errorf("%w: user name is required", ErrValidation)
	}
	if email == "" {
		return models.User{}, fmt.Errorf("%w: email address is required", ErrValidation)
	}
	return s.repo.CreateUser(ctx, name, email)
}

// Get returns the active user with the given id, or nil if none exists.
func (s *UserService) Get(ctx context.Context, userID int64) (*models.User, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("%w: user id is required", ErrValidation)
	}
	return s.repo.UserByID(ctx, userID)
}

// Update replaces the profile fields of an active user. Both fields are
// required: the update writes the full profile, so a missing field would
// blank the stored value. Returns false when no active user matched.
func (s *UserService) Update(ctx context.Context, userID int64, name, email string) (bool, error) {
	if userID <= 0 {
		return false, fmt.Errorf("%w: user id is required", ErrValidation)
	}
	if name == "" {
		return false, fmt.Errorf("%w: user name is required", ErrValidation)
	}
	if email == "" {
		return false, fmt.Errorf("%w: email address is required", ErrValidation)
	}
	return s.repo.UpdateUser(ctx, userID, name, email)
}

// Deactivate soft-deletes the user. Returns false when no active user
// matched.
func (s *UserService) Deactivate(ctx context.Context, userID int64) (bool, error) {
	if userID <= 0 {
		return false, fmt.Errorf("%w: user id is required", ErrValidation)
	}
	return s.repo.DeactivateUser(ctx, userID)
}
