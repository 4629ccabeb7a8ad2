package repository

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Nazifamoh/artifyAI/internal/model"
	"github.com/Nazifamoh/artifyAI/internal/transform"
)

// Common errors for image repository operations.
var (
	ErrImageNotFound = errors.New("image not found")
	ErrNotImageOwner = errors.New("image belongs to another user")
	ErrInvalidCursor = errors.New("invalid pagination cursor")
)

// PaginationCursor represents decoded cursor for pagination.
type PaginationCursor struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

const imageColumns = `id, owner_id, title, public_id, transformation_type, config, width, height, secure_url, transformed_url, prompt, color, aspect_ratio, created_at, updated_at`

// CreateImage inserts a new image into the database.
func (r *Repository) CreateImage(ctx context.Context, image *model.Image) error {
	cfg, err := json.Marshal(image.Config)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	query := `
		INSERT INTO images (id, owner_id, title, public_id, transformation_type, config, width, height, secure_url, transformed_url, prompt, color, aspect_ratio, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err = r.pool.Exec(ctx, query,
		image.ID,
		image.OwnerID,
		image.Title,
		image.PublicID,
		string(image.Type),
		cfg,
		image.Width,
		image.Height,
		image.SecureURL,
		image.TransformedURL,
		image.Prompt,
		image.Color,
		image.AspectRatio,
		image.CreatedAt,
		image.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create image: %w", err)
	}

	return nil
}

// GetImageByID retrieves an image by its ID.
func (r *Repository) GetImageByID(ctx context.Context, id string) (*model.Image, error) {
	query := `SELECT ` + imageColumns + ` FROM images WHERE id = $1`

	image, err := scanImage(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrImageNotFound
		}
		return nil, fmt.Errorf("failed to get image by ID: %w", err)
	}

	return image, nil
}

// UpdateImage updates an image's mutable fields. The owner check happens in
// the same statement, so a caller holding someone else's image ID cannot
// overwrite it.
func (r *Repository) UpdateImage(ctx context.Context, image *model.Image) error {
	cfg, err := json.Marshal(image.Config)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	query := `
		UPDATE images
		SET title = $3, public_id = $4, transformation_type = $5, config = $6,
		    width = $7, height = $8, secure_url = $9, transformed_url = $10,
		    prompt = $11, color = $12, aspect_ratio = $13, updated_at = NOW()
		WHERE id = $1 AND owner_id = $2
	`

	result, err := r.pool.Exec(ctx, query,
		image.ID,
		image.OwnerID,
		image.Title,
		image.PublicID,
		string(image.Type),
		cfg,
		image.Width,
		image.Height,
		image.SecureURL,
		image.TransformedURL,
		image.Prompt,
		image.Color,
		image.AspectRatio,
	)

	if err != nil {
		return fmt.Errorf("failed to update image: %w", err)
	}

	if result.RowsAffected() == 0 {
		// Distinguish a missing image from an ownership mismatch.
		var exists bool
		if checkErr := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM images WHERE id = $1)`, image.ID).Scan(&exists); checkErr != nil {
			return fmt.Errorf("failed to check image existence: %w", checkErr)
		}
		if exists {
			return ErrNotImageOwner
		}
		return ErrImageNotFound
	}

	return nil
}

// DeleteImage removes an image owned by the given user.
func (r *Repository) DeleteImage(ctx context.Context, id, ownerID string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM images WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrImageNotFound
	}

	return nil
}

// ListImagesByOwner retrieves a cursor-paginated list of a user's images,
// newest first.
func (r *Repository) ListImagesByOwner(ctx context.Context, ownerID, cursor string, limit int) ([]*model.Image, string, error) {
	var cursorData *PaginationCursor
	if cursor != "" {
		var err error
		cursorData, err = decodeCursor(cursor)
		if err != nil {
			return nil, "", ErrInvalidCursor
		}
	}

	query := `SELECT ` + imageColumns + ` FROM images WHERE owner_id = $1`
	args := []any{ownerID}
	argIndex := 2

	if cursorData != nil {
		query += fmt.Sprintf(" AND (created_at, id) < ($%d, $%d)", argIndex, argIndex+1)
		args = append(args, cursorData.CreatedAt, cursorData.ID)
		argIndex += 2
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d", argIndex)
	args = append(args, limit+1) // Fetch one extra to determine hasMore

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, "", fmt.Errorf("failed to list images: %w", err)
	}
	defer rows.Close()

	var images []*model.Image
	for rows.Next() {
		image, err := scanImage(rows)
		if err != nil {
			return nil, "", fmt.Errorf("failed to scan image: %w", err)
		}
		images = append(images, image)
	}

	if err := rows.Err(); err != nil {
		return nil, "", fmt.Errorf("error iterating images: %w", err)
	}

	var nextCursor string
	if len(images) > limit {
		images = images[:limit]
		last := images[len(images)-1]
		nextCursor = encodeCursor(&PaginationCursor{
			ID:        last.ID,
			CreatedAt: last.CreatedAt,
		})
	}

	return images, nextCursor, nil
}

// scanImage scans a single row into an Image model.
func scanImage(row pgx.Row) (*model.Image, error) {
	var (
		image   model.Image
		typeStr string
		cfg     []byte
	)
	err := row.Scan(
		&image.ID,
		&image.OwnerID,
		&image.Title,
		&image.PublicID,
		&typeStr,
		&cfg,
		&image.Width,
		&image.Height,
		&image.SecureURL,
		&image.TransformedURL,
		&image.Prompt,
		&image.Color,
		&image.AspectRatio,
		&image.CreatedAt,
		&image.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	image.Type = transform.Type(typeStr)
	if len(cfg) > 0 {
		if err := json.Unmarshal(cfg, &image.Config); err != nil {
			return nil, fmt.Errorf("failed to decode config: %w", err)
		}
	}

	return &image, nil
}

// encodeCursor encodes pagination cursor to base64.
func encodeCursor(cursor *PaginationCursor) string {
	data, _ := json.Marshal(cursor)
	return base64.URLEncoding.EncodeToString(data)
}

// decodeCursor decodes base64 pagination cursor.
func decodeCursor(s string) (*PaginationCursor, error) {
	data, err := base64.URLEncoding.DecodeString(s)
	if err != nil {
		return nil, err
	}

	var cursor PaginationCursor
	if err := json.Unmarshal(data, &cursor); err != nil {
		return nil, err
	}

	return &cursor, nil
}
