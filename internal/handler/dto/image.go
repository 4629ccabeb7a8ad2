package dto

import (
	"time"

	"github.com/Nazifamoh/artifyAI/internal/model"
	"github.com/Nazifamoh/artifyAI/internal/transform"
)

// ImageResponse represents a saved gallery image in API responses.
type ImageResponse struct {
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

// UpdateImageRequest represents the request body for updating an image.
type UpdateImageRequest struct {
	Title  *string           `json:"title,omitempty"`
	Config *transform.Config `json:"config,omitempty"`
}

// ImageListResponse represents a paginated page of the gallery.
type ImageListResponse struct {
	Data       []ImageResponse `json:"data"`
	Pagination *Pagination     `json:"pagination"`
}

// ToImageResponse converts an Image model to ImageResponse DTO.
func ToImageResponse(image *model.Image) *ImageResponse {
	return &ImageResponse{
		ID:             image.ID,
		OwnerID:        image.OwnerID,
		Title:          image.Title,
		PublicID:       image.PublicID,
		Type:           image.Type,
		Config:         image.Config,
		Width:          image.Width,
		Height:         image.Height,
		SecureURL:      image.SecureURL,
		TransformedURL: image.TransformedURL,
		Prompt:         image.Prompt,
		Color:          image.Color,
		AspectRatio:    image.AspectRatio,
		CreatedAt:      image.CreatedAt,
		UpdatedAt:      image.UpdatedAt,
	}
}

// ToImageListResponse converts a page of Image models to ImageListResponse.
func ToImageListResponse(images []*model.Image, nextCursor string, hasMore bool) *ImageListResponse {
	responses := make([]ImageResponse, len(images))
	for i, image := range images {
		responses[i] = *ToImageResponse(image)
	}
	return &ImageListResponse{
		Data: responses,
		Pagination: &Pagination{
			NextCursor: nextCursor,
			HasMore:    hasMore,
		},
	}
}
