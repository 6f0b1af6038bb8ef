package dto

import (
	"time"

	"github.com/noah-isme/gema-academic-api/internal/models"
)

// ActivityListRequest defines filters for retrieving the AI audit trail.
type ActivityListRequest struct {
	Page       int        `query:"page" validate:"omitempty,gte=1"`
	PageSize   int        `query:"page_size" validate:"omitempty,gte=1,lte=200"`
	ActorID    uint       `query:"actor_id"`
	Action     string     `query:"action" validate:"omitempty,max=64"`
	EntityType string     `query:"entity_type" validate:"omitempty,max=64"`
	Since      *time.Time `query:"-"`
}

// ActivityResponse serializes one audit entry.
type ActivityResponse struct {
	ID         uint                   `json:"id"`
	ActorID    uint                   `json:"actor_id"`
	ActorRole  string                 `json:"actor_role"`
	Action     string                 `json:"action"`
	EntityType string                 `json:"entity_type"`
	EntityID   *uint                  `json:"entity_id"`
	Metadata   map[string]interface{} `json:"metadata"`
	CreatedAt  time.Time              `json:"created_at"`
}

// PaginationMeta describes a paged listing.
type PaginationMeta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

// NewActivityResponse converts a model into an activity DTO.
func NewActivityResponse(entry models.ActivityLog) ActivityResponse {
	metadata := map[string]interface{}{}
	for key, value := range entry.Metadata {
		metadata[key] = value
	}

	return ActivityResponse{
		ID:         entry.ID,
		ActorID:    entry.ActorID,
		ActorRole:  entry.ActorRole,
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Metadata:   metadata,
		CreatedAt:  entry.CreatedAt,
	}
}
