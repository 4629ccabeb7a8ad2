package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Nazifamoh/artifyAI/internal/cache"
	"github.com/Nazifamoh/artifyAI/internal/metrics"
	"github.com/Nazifamoh/artifyAI/internal/model"
	"github.com/Nazifamoh/artifyAI/internal/repository"
	"github.com/Nazifamoh/artifyAI/internal/transform"
	"github.com/Nazifamoh/artifyAI/internal/workflow"
)

// Image service errors.
var (
	ErrImageNotFound = errors.New("image not found")
	ErrNotImageOwner = errors.New("image belongs to another user")
	ErrInvalidCursor = errors.New("invalid pagination cursor")
)

// ImageStore is the persistence surface the image service needs.
type ImageStore interface {
	CreateImage(ctx context.Context, image *model.Image) error
	GetImageByID(ctx context.Context, id string) (*model.Image, error)
	UpdateImage(ctx context.Context, image *model.Image) error
	DeleteImage(ctx context.Context, id, ownerID string) error
	ListImagesByOwner(ctx context.Context, ownerID, cursor string, limit int) ([]*model.Image, string, error)
}

// ImageCache is the cache surface the image service needs.
type ImageCache interface {
	GetImage(ctx context.Context, id string) (*model.Image, error)
	SetImage(ctx context.Context, image *model.Image) error
	DeleteImage(ctx context.Context, id string) error
	IsNegativelyCached(ctx context.Context, id string) (bool, error)
	SetNegativeCache(ctx context.Context, id string) error
}

// ImageService handles the gallery of saved transformation results.
type ImageService struct {
	store   ImageStore
	cache   ImageCache
	metrics metrics.Recorder
}

// NewImageService creates a new ImageService.
func NewImageService(store ImageStore, imageCache ImageCache, recorder metrics.Recorder) *ImageService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &ImageService{
		store:   store,
		cache:   imageCache,
		metrics: recorder,
	}
}

// Save persists an applied transformation result as a gallery image.
// Implements workflow.Saver.
func (s *ImageService) Save(ctx context.Context, req workflow.SaveRequest) (string, error) {
	now := time.Now().UTC()
	image := &model.Image{
		ID:             uuid.NewString(),
		OwnerID:        req.OwnerID,
		Title:          req.Title,
		PublicID:       req.PublicID,
		Type:           req.Type,
		Config:         req.Config,
		Width:          req.Width,
		Height:         req.Height,
		SecureURL:      req.SecureURL,
		TransformedURL: req.TransformedURL,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	image.Prompt, image.Color, image.AspectRatio = promptFields(req.Config)

	if err := s.store.CreateImage(ctx, image); err != nil {
		return "", fmt.Errorf("save image: %w", err)
	}

	s.metrics.IncImageCreated()
	return image.ID, nil
}

// Get retrieves an image by ID with cache-first lookup.
func (s *ImageService) Get(ctx context.Context, id string) (*model.Image, error) {
	start := time.Now()
	defer func() {
		s.metrics.ObserveImageLookupDuration(time.Since(start))
	}()

	// Step 1: Try cache
	cached, err := s.cache.GetImage(ctx, id)
	if err == nil {
		s.metrics.IncImageCacheHit()
		return cached, nil
	}
	s.metrics.IncImageCacheMiss()

	// Step 2: Check negative cache
	if errors.Is(err, cache.ErrCacheMiss) {
		isNegative, _ := s.cache.IsNegativelyCached(ctx, id)
		if isNegative {
			return nil, ErrImageNotFound
		}
	}

	// Step 3: DB lookup
	image, err := s.store.GetImageByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrImageNotFound) {
			_ = s.cache.SetNegativeCache(ctx, id)
			return nil, ErrImageNotFound
		}
		return nil, err
	}

	// Step 4: Backfill cache
	if err := s.cache.SetImage(ctx, image); err != nil {
		// Eventual consistency is acceptable
		_ = err
	}

	return image, nil
}

// UpdateImageInput defines the editable image fields. Nil fields are left
// unchanged.
type UpdateImageInput struct {
	Title  *string
	Config *transform.Config
}

// Update applies a partial update to an image the caller owns.
func (s *ImageService) Update(ctx context.Context, id, ownerID string, input UpdateImageInput) (*model.Image, error) {
	image, err := s.store.GetImageByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrImageNotFound) {
			return nil, ErrImageNotFound
		}
		return nil, err
	}
	if image.OwnerID != ownerID {
		return nil, ErrNotImageOwner
	}

	if input.Title != nil {
		image.Title = *input.Title
	}
	if input.Config != nil {
		if err := input.Config.Validate(); err != nil {
			return nil, err
		}
		if input.Config.Type != image.Type {
			return nil, transform.ErrTypeMismatch
		}
		image.Config = *input.Config
		image.Prompt, image.Color, image.AspectRatio = promptFields(image.Config)
	}

	if err := s.store.UpdateImage(ctx, image); err != nil {
		if errors.Is(err, repository.ErrImageNotFound) {
			return nil, ErrImageNotFound
		}
		if errors.Is(err, repository.ErrNotImageOwner) {
			return nil, ErrNotImageOwner
		}
		return nil, err
	}

	s.metrics.IncImageUpdated()

	// Invalidate cache
	if err := s.cache.DeleteImage(ctx, id); err != nil {
		_ = err
	}

	return image, nil
}

// Delete removes an image the caller owns.
func (s *ImageService) Delete(ctx context.Context, id, ownerID string) error {
	if err := s.store.DeleteImage(ctx, id, ownerID); err != nil {
		if errors.Is(err, repository.ErrImageNotFound) {
			return ErrImageNotFound
		}
		return err
	}

	s.metrics.IncImageDeleted()

	if err := s.cache.DeleteImage(ctx, id); err != nil {
		_ = err
	}

	return nil
}

// ListInput defines input for listing a user's images.
type ListInput struct {
	OwnerID string
	Cursor  string
	Limit   int
}

// ListOutput defines output for listing a user's images.
type ListOutput struct {
	Images     []*model.Image
	NextCursor string
	HasMore    bool
}

// List retrieves a page of the user's gallery, newest first.
func (s *ImageService) List(ctx context.Context, input ListInput) (*ListOutput, error) {
	if input.Limit <= 0 || input.Limit > 100 {
		input.Limit = 20
	}

	images, nextCursor, err := s.store.ListImagesByOwner(ctx, input.OwnerID, input.Cursor, input.Limit)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidCursor) {
			return nil, ErrInvalidCursor
		}
		return nil, err
	}

	return &ListOutput{
		Images:     images,
		NextCursor: nextCursor,
		HasMore:    nextCursor != "",
	}, nil
}

// promptFields lifts the per-type free-text parameters into the flat
// columns the gallery filters on.
func promptFields(cfg transform.Config) (prompt, color, aspectRatio *string) {
	str := func(s string) *string {
		if s == "" {
			return nil
		}
		return &s
	}
	switch cfg.Type {
	case transform.TypeFill:
		if cfg.Fill != nil {
			aspectRatio = str(cfg.Fill.AspectRatio)
		}
	case transform.TypeRemove:
		if cfg.Remove != nil {
			prompt = str(cfg.Remove.Prompt)
		}
	case transform.TypeRecolor:
		if cfg.Recolor != nil {
			prompt = str(cfg.Recolor.Prompt)
			color = str(cfg.Recolor.To)
		}
	case transform.TypeGenerativeFill:
		if cfg.GenerativeFill != nil {
			prompt = str(cfg.GenerativeFill.Prompt)
			aspectRatio = str(cfg.GenerativeFill.AspectRatio)
		}
	}
	return prompt, color, aspectRatio
}
