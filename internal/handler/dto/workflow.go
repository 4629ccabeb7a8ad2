package dto

import (
	"time"

	"github.com/Nazifamoh/artifyAI/internal/transform"
	"github.com/Nazifamoh/artifyAI/internal/workflow"
)

// TransformationResponse describes one member of the transformation menu.
type TransformationResponse struct {
	Type     transform.Type `json:"type"`
	Title    string         `json:"title"`
	SubTitle string         `json:"sub_title"`
}

// CreateSessionRequest represents the request body for opening an editing
// session over an uploaded asset.
type CreateSessionRequest struct {
	PublicID  string `json:"public_id"`
	SecureURL string `json:"secure_url"`
	Title     string `json:"title"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

// EditRequest represents a single field edit.
type EditRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// SessionResponse represents an editing session in API responses.
type SessionResponse struct {
	ID         string           `json:"id"`
	Type       transform.Type   `json:"type"`
	State      workflow.State   `json:"state"`
	Config     transform.Config `json:"config"`
	PreviewURL string           `json:"preview_url,omitempty"`
	Applies    int              `json:"applies"`
	CreatedAt  time.Time        `json:"created_at"`
}

// SaveResponse carries the ID of the persisted gallery image.
type SaveResponse struct {
	ImageID string `json:"image_id"`
}

// ToSessionResponse converts a session snapshot to SessionResponse DTO.
func ToSessionResponse(snap workflow.Snapshot) *SessionResponse {
	return &SessionResponse{
		ID:         snap.ID,
		Type:       snap.Type,
		State:      snap.State,
		Config:     snap.Config,
		PreviewURL: snap.PreviewURL,
		Applies:    snap.Applies,
		CreatedAt:  snap.CreatedAt,
	}
}
