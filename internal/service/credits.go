package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Nazifamoh/artifyAI/internal/metrics"
	"github.com/Nazifamoh/artifyAI/internal/model"
	"github.com/Nazifamoh/artifyAI/internal/repository"
	"github.com/Nazifamoh/artifyAI/internal/workflow"
)

// CreditStore is the persistence surface the credit service needs.
type CreditStore interface {
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	AdjustCredits(ctx context.Context, userID string, delta int, reason, reference string) (int, error)
}

// CreditService manages the per-user credit balance. It satisfies
// workflow.CreditGate so sessions can charge apply fees through it.
type CreditService struct {
	store   CreditStore
	metrics metrics.Recorder
}

// NewCreditService creates a new CreditService.
func NewCreditService(store CreditStore, recorder metrics.Recorder) *CreditService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &CreditService{
		store:   store,
		metrics: recorder,
	}
}

// Balance returns the user's current credit balance.
func (s *CreditService) Balance(ctx context.Context, userID string) (int, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return 0, ErrUserNotFound
		}
		return 0, err
	}
	return user.CreditBalance, nil
}

// Debit charges credits for an applied transformation batch. The store
// enforces the non-negative balance atomically; a blocked debit surfaces
// as the workflow's insufficient-credits sentinel so the session refuses
// cleanly.
func (s *CreditService) Debit(ctx context.Context, userID string, amount int, reference string) (int, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("debit amount must be positive, got %d", amount)
	}

	balance, err := s.store.AdjustCredits(ctx, userID, -amount, model.LedgerReasonApply, reference)
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientCredits) {
			return 0, workflow.ErrInsufficientCredits
		}
		if errors.Is(err, repository.ErrUserNotFound) {
			return 0, ErrUserNotFound
		}
		return 0, err
	}

	s.metrics.IncCreditsDebited(amount)
	return balance, nil
}

// Credit adds purchased credits to the balance.
func (s *CreditService) Credit(ctx context.Context, userID string, amount int, reference string) (int, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("credit amount must be positive, got %d", amount)
	}

	balance, err := s.store.AdjustCredits(ctx, userID, amount, model.LedgerReasonPurchase, reference)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return 0, ErrUserNotFound
		}
		return 0, err
	}

	s.metrics.IncCreditsPurchased(amount)
	return balance, nil
}
