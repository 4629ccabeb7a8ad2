package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Nazifamoh/artifyAI/internal/metrics"
	"github.com/Nazifamoh/artifyAI/internal/model"
	"github.com/Nazifamoh/artifyAI/internal/payment"
	"github.com/Nazifamoh/artifyAI/internal/repository"
)

// Checkout service errors.
var (
	ErrUnknownPlan         = errors.New("unknown credit plan")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrNotTransactionOwner = errors.New("transaction belongs to another user")
)

const providerName = "hosted-checkout"

// Plan is one purchasable credit package.
type Plan struct {
	Name        string `json:"name"`
	AmountCents int    `json:"amount_cents"`
	Credits     int    `json:"credits"`
}

// Plans is the fixed set of purchasable packages.
var Plans = map[string]Plan{
	"pro":     {Name: "Pro Package", AmountCents: 4000, Credits: 120},
	"premium": {Name: "Premium Package", AmountCents: 19900, Credits: 2000},
}

// TransactionStore is the persistence surface the checkout service needs.
type TransactionStore interface {
	CreateTransaction(ctx context.Context, txn *model.Transaction) error
	GetTransactionByID(ctx context.Context, id string) (*model.Transaction, error)
	MarkTransactionPaid(ctx context.Context, id, chargeID string) error
	CancelTransaction(ctx context.Context, id string) error
}

// CheckoutProvider opens hosted checkout sessions.
type CheckoutProvider interface {
	CreateSession(ctx context.Context, transactionID, plan string, amountCents, credits int) (*payment.CheckoutSession, error)
}

// CreditPurchaser applies purchased credits to a balance.
type CreditPurchaser interface {
	Credit(ctx context.Context, userID string, amount int, reference string) (int, error)
}

// CheckoutService sells credit packages through the hosted checkout
// provider and completes purchases from its webhooks.
type CheckoutService struct {
	store    TransactionStore
	provider CheckoutProvider
	credits  CreditPurchaser
	metrics  metrics.Recorder
}

// NewCheckoutService creates a new CheckoutService.
func NewCheckoutService(store TransactionStore, provider CheckoutProvider, credits CreditPurchaser, recorder metrics.Recorder) *CheckoutService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &CheckoutService{
		store:    store,
		provider: provider,
		credits:  credits,
		metrics:  recorder,
	}
}

// StartOutput is the result of opening a checkout.
type StartOutput struct {
	TransactionID string `json:"transaction_id"`
	RedirectURL   string `json:"redirect_url"`
}

// Start records a pending transaction and opens a provider session the
// buyer must be redirected to. Nothing is credited here; credits land only
// when the provider's completion webhook arrives.
func (s *CheckoutService) Start(ctx context.Context, userID, planKey string) (*StartOutput, error) {
	plan, ok := Plans[planKey]
	if !ok {
		return nil, ErrUnknownPlan
	}

	now := time.Now().UTC()
	txn := &model.Transaction{
		ID:        uuid.NewString(),
		BuyerID:   userID,
		Plan:      planKey,
		Amount:    plan.AmountCents,
		Credits:   plan.Credits,
		Provider:  providerName,
		Status:    model.TransactionPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateTransaction(ctx, txn); err != nil {
		return nil, fmt.Errorf("record transaction: %w", err)
	}

	session, err := s.provider.CreateSession(ctx, txn.ID, plan.Name, plan.AmountCents, plan.Credits)
	if err != nil {
		// The pending row stays behind for reconciliation; the buyer was
		// never redirected, so nothing can complete it spontaneously.
		_ = s.store.CancelTransaction(ctx, txn.ID)
		return nil, fmt.Errorf("open checkout session: %w", err)
	}

	s.metrics.IncCheckoutStarted()

	return &StartOutput{
		TransactionID: txn.ID,
		RedirectURL:   session.RedirectURL,
	}, nil
}

// CompletedCharge is the payload of the provider's completion webhook
// after signature verification.
type CompletedCharge struct {
	TransactionID string
	ChargeID      string
}

// Complete finalizes a paid transaction: marks it paid under the provider
// charge ID and credits the buyer. Redelivered webhooks are no-ops; the
// charge ID can complete at most one transaction.
func (s *CheckoutService) Complete(ctx context.Context, charge CompletedCharge) error {
	txn, err := s.store.GetTransactionByID(ctx, charge.TransactionID)
	if err != nil {
		if errors.Is(err, repository.ErrTransactionNotFound) {
			return ErrTransactionNotFound
		}
		return err
	}

	if err := s.store.MarkTransactionPaid(ctx, txn.ID, charge.ChargeID); err != nil {
		if errors.Is(err, repository.ErrChargeAlreadySeen) {
			s.metrics.IncCheckoutCompleted("duplicate")
			return nil
		}
		if errors.Is(err, repository.ErrTransactionNotFound) {
			return ErrTransactionNotFound
		}
		return err
	}

	if _, err := s.credits.Credit(ctx, txn.BuyerID, txn.Credits, charge.ChargeID); err != nil {
		return fmt.Errorf("credit purchase: %w", err)
	}

	s.metrics.IncCheckoutCompleted("paid")
	return nil
}

// Result returns the buyer's view of a transaction, for the page the
// provider redirects back to.
func (s *CheckoutService) Result(ctx context.Context, transactionID, userID string) (*model.Transaction, error) {
	txn, err := s.store.GetTransactionByID(ctx, transactionID)
	if err != nil {
		if errors.Is(err, repository.ErrTransactionNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	if txn.BuyerID != userID {
		return nil, ErrNotTransactionOwner
	}
	return txn, nil
}
