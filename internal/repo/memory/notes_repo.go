package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/geocoder89/noteflow/internal/domain/note"
	"github.com/google/uuid"
)

type NotesRepo struct {
	mu    sync.RWMutex
	items map[string]note.Note
	now   func() time.Time
}

func NewNotesRepo() *NotesRepo {
	return &NotesRepo{
		items: make(map[string]note.Note),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// ids are UUIDs in every store; anything else is rejected like postgres would.
func checkID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %q", note.ErrInvalidID, id)
	}
	return nil
}

func (r *NotesRepo) Create(_ context.Context, n note.Note) (note.Note, error) {
	if err := checkID(n.ID); err != nil {
		return note.Note{}, err
	}

	r.mu.Lock()
	r.items[n.ID] = n
	r.mu.Unlock()

	return n, nil
}

func (r *NotesRepo) ListByOwner(_ context.Context, ownerID string) ([]note.Note, error) {
	r.mu.RLock()
	out := make([]note.Note, 0)
	for _, n := range r.items {
		if n.OwnerID == ownerID {
			out = append(out, n)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.UpdatedAt.Equal(b.UpdatedAt) {
			return a.UpdatedAt.After(b.UpdatedAt)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})

	return out, nil
}

func (r *NotesRepo) GetByID(_ context.Context, id string) (note.Note, error) {
	if err := checkID(id); err != nil {
		return note.Note{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	n, ok := r.items[id]
	if !ok {
		return note.Note{}, note.ErrNotFound
	}

	return n, nil
}

func (r *NotesRepo) Update(_ context.Context, n note.Note) (note.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[n.ID]
	if !ok || current.OwnerID != n.OwnerID {
		return note.Note{}, note.ErrNotFound
	}

	current.Title = n.Title
	current.Content = n.Content
	current.Category = n.Category
	current.IsPinned = n.IsPinned
	current.UpdatedAt = r.now()

	r.items[n.ID] = current

	return current, nil
}

func (r *NotesRepo) Delete(_ context.Context, id, ownerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.items[id]
	if !ok || n.OwnerID != ownerID {
		return note.ErrNotFound
	}

	delete(r.items, id)

	return nil
}
