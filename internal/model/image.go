package model

import (
	"time"

	"github.com/Nazifamoh/artifyAI/internal/transform"
)

// Image is a generated artifact: one source asset plus the transformation
// configuration that was last applied to it, and the URLs the CDN serves
// for the original and transformed renditions.
type Image struct {
	ID             string           `json:"id"`
	OwnerID        string           `json:"owner_id"`
	Title          string           `json:"title"`
	PublicID       string           `json:"public_id"`
	Type           transform.Type   `json:"transformation_type"`
	Config         transform.Config `json:"config"`
	Width          int              `json:"width"`
	Height         int              `json:"height"`
	SecureURL      string           `json:"secure_url"`
	TransformedURL string           `json:"transformed_url"`
	Prompt         *string          `json:"prompt,omitempty"`
	Color          *string          `json:"color,omitempty"`
	AspectRatio    *string          `json:"aspect_ratio,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}
