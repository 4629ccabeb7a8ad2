// Package model defines domain entities for the application.
package model

import "time"

// User represents an account backed by an external identity provider.
// Records are created lazily on first authenticated access; the provider
// owns credentials, this service owns profile fields and credits.
type User struct {
	ID            string    `json:"id"`
	IdentityID    string    `json:"identity_id"`
	Email         string    `json:"email"`
	Username      string    `json:"username"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	PhotoURL      string    `json:"photo_url"`
	PlanID        int       `json:"plan_id"`
	CreditBalance int       `json:"credit_balance"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Principal is the verified identity descriptor produced by session-token
// verification. It carries provider-side profile data so a user record can
// be created lazily without a second round trip to the provider.
type Principal struct {
	IdentityID string `json:"identity_id"`
	Email      string `json:"email"`
	Username   string `json:"username"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	PhotoURL   string `json:"photo_url"`
}
