// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/Nazifamoh/artifyAI/internal/model"
	"github.com/Nazifamoh/artifyAI/internal/repository"
)

// Service errors.
var (
	ErrUserNotFound    = errors.New("user not found")
	ErrUsernameTaken   = errors.New("username already taken")
	ErrInvalidUsername = errors.New("invalid username")
)

const (
	defaultPlanID    = 1
	avatarServiceURL = "https://ui-avatars.com/api/"
)

// UserStore is the persistence surface the user service needs.
type UserStore interface {
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByIdentity(ctx context.Context, identityID string) (*model.User, error)
	GetOrCreateUser(ctx context.Context, user *model.User) (*model.User, bool, error)
	UpdateUser(ctx context.Context, user *model.User) error
	DeleteUser(ctx context.Context, id string) error
	ListLedgerEntries(ctx context.Context, userID string, limit int) ([]*model.LedgerEntry, error)
}

// UserService handles account resolution and profile management.
type UserService struct {
	store         UserStore
	signupCredits int
}

// NewUserService creates a new UserService.
func NewUserService(store UserStore, signupCredits int) *UserService {
	return &UserService{
		store:         store,
		signupCredits: signupCredits,
	}
}

// Resolve returns the account for a verified principal, creating it on
// first contact. New accounts receive the signup credit grant. Profile
// gaps left by the identity provider are filled with derived fallbacks so
// the record is always complete.
func (s *UserService) Resolve(ctx context.Context, p *model.Principal) (*model.User, error) {
	user := &model.User{
		ID:            uuid.NewString(),
		IdentityID:    p.IdentityID,
		Email:         emailOrFallback(p),
		Username:      usernameOrFallback(p),
		FirstName:     p.FirstName,
		LastName:      p.LastName,
		PhotoURL:      photoOrFallback(p),
		PlanID:        defaultPlanID,
		CreditBalance: s.signupCredits,
	}

	resolved, _, err := s.store.GetOrCreateUser(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("resolve user: %w", err)
	}
	return resolved, nil
}

// Get returns a user by ID.
func (s *UserService) Get(ctx context.Context, id string) (*model.User, error) {
	user, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// UpdateProfileInput defines the editable profile fields. Nil fields are
// left unchanged.
type UpdateProfileInput struct {
	Username  *string
	FirstName *string
	LastName  *string
	PhotoURL  *string
}

// UpdateProfile applies a partial profile update.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*model.User, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if input.Username != nil {
		name := strings.TrimSpace(*input.Username)
		if len(name) < 3 || len(name) > 64 {
			return nil, ErrInvalidUsername
		}
		user.Username = name
	}
	if input.FirstName != nil {
		user.FirstName = strings.TrimSpace(*input.FirstName)
	}
	if input.LastName != nil {
		user.LastName = strings.TrimSpace(*input.LastName)
	}
	if input.PhotoURL != nil {
		user.PhotoURL = *input.PhotoURL
	}

	if err := s.store.UpdateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			return nil, ErrUsernameTaken
		}
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return user, nil
}

// Delete removes the account and everything hanging off it.
func (s *UserService) Delete(ctx context.Context, userID string) error {
	if err := s.store.DeleteUser(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

// SyncIdentity applies provider-side profile changes reported through the
// identity lifecycle webhook. An unknown identity is not an error: the
// account will be created lazily on its first authenticated request.
func (s *UserService) SyncIdentity(ctx context.Context, p *model.Principal) error {
	user, err := s.store.GetUserByIdentity(ctx, p.IdentityID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil
		}
		return err
	}

	if p.Email != "" {
		user.Email = p.Email
	}
	if p.Username != "" {
		user.Username = p.Username
	}
	user.FirstName = p.FirstName
	user.LastName = p.LastName
	if p.PhotoURL != "" {
		user.PhotoURL = p.PhotoURL
	}

	return s.store.UpdateUser(ctx, user)
}

// DeleteByIdentity removes the account for a provider-deleted identity.
func (s *UserService) DeleteByIdentity(ctx context.Context, identityID string) error {
	user, err := s.store.GetUserByIdentity(ctx, identityID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil
		}
		return err
	}
	return s.store.DeleteUser(ctx, user.ID)
}

// LedgerHistory returns the user's most recent balance mutations.
func (s *UserService) LedgerHistory(ctx context.Context, userID string, limit int) ([]*model.LedgerEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.store.ListLedgerEntries(ctx, userID, limit)
}

// usernameOrFallback substitutes an identity-keyed username when the
// provider supplied none. The fallback must be unique per identity:
// users.username carries a unique constraint.
func usernameOrFallback(p *model.Principal) string {
	if p.Username != "" {
		return p.Username
	}
	return "user_" + p.IdentityID
}

// emailOrFallback substitutes an identity-keyed placeholder address when
// the provider reported no email claim; users.email is unique and non-null.
func emailOrFallback(p *model.Principal) string {
	if p.Email != "" {
		return p.Email
	}
	return "user_" + p.IdentityID + "@artifyai.app"
}

// photoOrFallback substitutes a generated initials avatar when the
// provider supplied no photo.
func photoOrFallback(p *model.Principal) string {
	if p.PhotoURL != "" {
		return p.PhotoURL
	}
	name := strings.TrimSpace(p.FirstName + " " + p.LastName)
	if name == "" {
		name = usernameOrFallback(p)
	}
	return avatarServiceURL + "?name=" + url.QueryEscape(name)
}
