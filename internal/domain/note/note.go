package note

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

const DefaultCategory = "General"

var (
	ErrNotFound  = errors.New("note not found")
	ErrInvalidID = errors.New("malformed note id")
)

type Note struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Category  string    `json:"category"`
	IsPinned  bool      `json:"isPinned"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type CreateNoteRequest struct {
	Title    string `json:"title" binding:"required,max=200"`
	Content  string `json:"content" binding:"required,max=100000"`
	Category string `json:"category" binding:"omitempty,max=50"`
}

// UpdateNoteRequest is a partial update. Absent fields are nil.
type UpdateNoteRequest struct {
	Title    *string `json:"title" binding:"omitempty,max=200"`
	Content  *string `json:"content" binding:"omitempty,max=100000"`
	Category *string `json:"category" binding:"omitempty,max=50"`
	IsPinned *bool   `json:"isPinned"`
}

// NewFromCreateRequest builds a note owned by ownerID. The owner never comes
// from the request body.
func NewFromCreateRequest(ownerID string, req CreateNoteRequest) Note {
	now := time.Now().UTC()

	category := req.Category
	if category == "" {
		category = DefaultCategory
	}

	return Note{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Title:     req.Title,
		Content:   req.Content,
		Category:  category,
		IsPinned:  false,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
