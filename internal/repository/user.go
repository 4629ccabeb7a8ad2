package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"

	"github.com/Nazifamoh/artifyAI/internal/model"
)

// Common errors for user repository operations.
var (
	ErrUserNotFound        = errors.New("user not found")
	ErrUserExists          = errors.New("user already exists")
	ErrInsufficientCredits = errors.New("insufficient credit balance")
)

const userColumns = `id, identity_id, email, username, first_name, last_name, photo_url, plan_id, credit_balance, created_at, updated_at`

// CreateUser inserts a new user into the database.
func (r *Repository) CreateUser(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (id, identity_id, email, username, first_name, last_name, photo_url, plan_id, credit_balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.IdentityID,
		user.Email,
		user.Username,
		user.FirstName,
		user.LastName,
		user.PhotoURL,
		user.PlanID,
		user.CreditBalance,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrUserExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetUserByID retrieves a user by their ID.
func (r *Repository) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}

	return user, nil
}

// GetUserByIdentity retrieves a user by their external identity reference.
// This is the hot path: every authenticated request resolves the caller
// through it.
func (r *Repository) GetUserByIdentity(ctx context.Context, identityID string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE identity_id = $1`

	user, err := scanUser(r.pool.QueryRow(ctx, query, identityID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by identity: %w", err)
	}

	return user, nil
}

// GetOrCreateUser gets a user by identity reference or creates one if not
// found. New accounts start with the provided credit balance, and a signup
// ledger entry is written alongside the row so the grant is auditable.
func (r *Repository) GetOrCreateUser(ctx context.Context, user *model.User) (*model.User, bool, error) {
	existing, err := r.GetUserByIdentity(ctx, user.IdentityID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, false, err
	}

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	insertUser := `
		INSERT INTO users (id, identity_id, email, username, first_name, last_name, photo_url, plan_id, credit_balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	if _, err := tx.Exec(ctx, insertUser,
		user.ID, user.IdentityID, user.Email, user.Username,
		user.FirstName, user.LastName, user.PhotoURL,
		user.PlanID, user.CreditBalance, user.CreatedAt, user.UpdatedAt,
	); err != nil {
		// Handle race condition - another request may have created it
		if isUniqueViolation(err) {
			existing, getErr := r.GetUserByIdentity(ctx, user.IdentityID)
			if getErr != nil {
				return nil, false, getErr
			}
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("failed to create user: %w", err)
	}

	if user.CreditBalance > 0 {
		insertLedger := `
			INSERT INTO credit_ledger (id, user_id, delta, balance_after, reason, reference, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`
		if _, err := tx.Exec(ctx, insertLedger,
			ulid.Make().String(), user.ID, user.CreditBalance, user.CreditBalance,
			model.LedgerReasonSignup, user.ID, now,
		); err != nil {
			return nil, false, fmt.Errorf("failed to record signup grant: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, fmt.Errorf("failed to commit user creation: %w", err)
	}

	return user, true, nil
}

// UpdateUser updates a user's mutable profile fields.
func (r *Repository) UpdateUser(ctx context.Context, user *model.User) error {
	query := `
		UPDATE users
		SET email = $2, username = $3, first_name = $4, last_name = $5, photo_url = $6, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Email,
		user.Username,
		user.FirstName,
		user.LastName,
		user.PhotoURL,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrUserExists
		}
		return fmt.Errorf("failed to update user: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}

// DeleteUser removes a user and, via cascading constraints, their images
// and ledger entries.
func (r *Repository) DeleteUser(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}

// AdjustCredits atomically applies a balance delta and appends the matching
// ledger entry in one transaction. A negative delta that would take the
// balance below zero returns ErrInsufficientCredits and changes nothing.
// Returns the balance after the adjustment.
func (r *Repository) AdjustCredits(ctx context.Context, userID string, delta int, reason, reference string) (int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// The guard in WHERE makes concurrent debits safe: the row update is
	// atomic, so two racing debits can never both pass a balance check
	// that only one of them should survive.
	query := `
		UPDATE users
		SET credit_balance = credit_balance + $2, updated_at = NOW()
		WHERE id = $1 AND credit_balance + $2 >= 0
		RETURNING credit_balance
	`

	var balance int
	err = tx.QueryRow(ctx, query, userID, delta).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		// Distinguish a missing user from a blocked debit.
		var exists bool
		if checkErr := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists); checkErr != nil {
			return 0, fmt.Errorf("failed to check user existence: %w", checkErr)
		}
		if !exists {
			return 0, ErrUserNotFound
		}
		return 0, ErrInsufficientCredits
	}
	if err != nil {
		return 0, fmt.Errorf("failed to adjust credits: %w", err)
	}

	insertLedger := `
		INSERT INTO credit_ledger (id, user_id, delta, balance_after, reason, reference, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if _, err := tx.Exec(ctx, insertLedger,
		ulid.Make().String(), userID, delta, balance, reason, reference, time.Now(),
	); err != nil {
		return 0, fmt.Errorf("failed to append ledger entry: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit credit adjustment: %w", err)
	}

	return balance, nil
}

// ListLedgerEntries returns a user's ledger entries, newest first.
func (r *Repository) ListLedgerEntries(ctx context.Context, userID string, limit int) ([]*model.LedgerEntry, error) {
	query := `
		SELECT id, user_id, delta, balance_after, reason, reference, created_at
		FROM credit_ledger
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []*model.LedgerEntry
	for rows.Next() {
		var e model.LedgerEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Delta, &e.BalanceAfter, &e.Reason, &e.Reference, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ledger entries: %w", err)
	}

	return entries, nil
}

// scanUser scans a single row into a User model.
func scanUser(row pgx.Row) (*model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID,
		&user.IdentityID,
		&user.Email,
		&user.Username,
		&user.FirstName,
		&user.LastName,
		&user.PhotoURL,
		&user.PlanID,
		&user.CreditBalance,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}
