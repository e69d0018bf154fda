package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/geocoder89/noteflow/internal/apperr"
	"github.com/geocoder89/noteflow/internal/cache"
	"github.com/geocoder89/noteflow/internal/domain/note"
	"github.com/geocoder89/noteflow/internal/observability"
)

type NoteStore interface {
	Create(ctx context.Context, n note.Note) (note.Note, error)
	ListByOwner(ctx context.Context, ownerID string) ([]note.Note, error)
	GetByID(ctx context.Context, id string) (note.Note, error)
	Update(ctx context.Context, n note.Note) (note.Note, error)
	Delete(ctx context.Context, id, ownerID string) error
}

// NoteService scopes every note operation to the calling user. Reads of a
// single note check existence first and ownership second.
//
// List results are cached under the user's current list version. Every write
// bumps that version after it commits, so a write is visible to the next List
// no matter how it interleaved with earlier reads.
type NoteService struct {
	store NoteStore
	cache cache.Cache
	log   *slog.Logger
	prom  *observability.Prom

	// users whose version bump failed; their lists skip the cache until a
	// bump goes through
	mu    sync.Mutex
	stale map[string]struct{}
}

func NewNoteService(store NoteStore, c cache.Cache, log *slog.Logger, prom *observability.Prom) *NoteService {
	if c == nil {
		c = cache.Noop{}
	}
	if log == nil {
		log = slog.Default()
	}

	return &NoteService{
		store: store,
		cache: c,
		log:   log,
		prom:  prom,
		stale: make(map[string]struct{}),
	}
}

func (s *NoteService) List(ctx context.Context, userID string) ([]note.Note, error) {
	version, cacheable := s.listVersion(ctx, userID)
	key := cache.NotesListKey(userID, version)

	if cacheable {
		if notes, ok := s.cachedList(ctx, key); ok {
			return notes, nil
		}
	}

	notes, err := s.store.ListByOwner(ctx, userID)

	if err != nil {
		s.log.ErrorContext(ctx, "list notes failed", "err", err, "user_id", userID)
		return nil, apperr.Storage("Could not list notes", err)
	}

	if !cacheable {
		return notes, nil
	}

	// the version was read before the store, so a write that landed in
	// between has already moved readers off this key
	b, err := json.Marshal(notes)
	if err == nil {
		err = s.cache.Set(ctx, key, b)
	}
	if err != nil {
		s.log.WarnContext(ctx, "notes cache set failed", "err", err, "user_id", userID)
	}

	return notes, nil
}

func (s *NoteService) Get(ctx context.Context, userID, noteID string) (note.Note, error) {
	return s.loadOwned(ctx, userID, noteID)
}

func (s *NoteService) Create(ctx context.Context, userID string, req note.CreateNoteRequest) (note.Note, error) {
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Content) == "" {
		return note.Note{}, apperr.New(apperr.ErrValidation, "Title and content are required")
	}

	created, err := s.store.Create(ctx, note.NewFromCreateRequest(userID, req))

	if err != nil {
		s.log.ErrorContext(ctx, "create note failed", "err", err, "user_id", userID)
		return note.Note{}, apperr.Storage("Could not create note", err)
	}

	s.invalidate(ctx, userID)

	return created, nil
}

func (s *NoteService) Update(ctx context.Context, userID, noteID string, patch note.UpdateNoteRequest) (note.Note, error) {
	current, err := s.loadOwned(ctx, userID, noteID)

	if err != nil {
		return note.Note{}, err
	}

	updated, err := s.store.Update(ctx, patch.Apply(current))

	if err != nil {
		if errors.Is(err, note.ErrNotFound) {
			return note.Note{}, apperr.New(apperr.ErrNotFound, "Note not found")
		}

		s.log.ErrorContext(ctx, "update note failed", "err", err, "note_id", noteID)
		return note.Note{}, apperr.Storage("Could not update note", err)
	}

	s.invalidate(ctx, userID)

	return updated, nil
}

func (s *NoteService) Delete(ctx context.Context, userID, noteID string) error {
	_, err := s.loadOwned(ctx, userID, noteID)

	if err != nil {
		return err
	}

	err = s.store.Delete(ctx, noteID, userID)

	if err != nil {
		if errors.Is(err, note.ErrNotFound) {
			return apperr.New(apperr.ErrNotFound, "Note not found")
		}

		s.log.ErrorContext(ctx, "delete note failed", "err", err, "note_id", noteID)
		return apperr.Storage("Could not delete note", err)
	}

	s.invalidate(ctx, userID)

	return nil
}

func (s *NoteService) loadOwned(ctx context.Context, userID, noteID string) (note.Note, error) {
	n, err := s.store.GetByID(ctx, noteID)

	if err != nil {
		if errors.Is(err, note.ErrNotFound) {
			return note.Note{}, apperr.New(apperr.ErrNotFound, "Note not found")
		}

		s.log.ErrorContext(ctx, "load note failed", "err", err, "note_id", noteID)
		return note.Note{}, apperr.Storage("Could not load note", err)
	}

	if n.OwnerID != userID {
		return note.Note{}, apperr.New(apperr.ErrNotAuthorized, "Not authorized")
	}

	return n, nil
}

func (s *NoteService) cachedList(ctx context.Context, key string) ([]note.Note, bool) {
	b, ok, err := s.cache.Get(ctx, key)

	if err != nil {
		s.log.WarnContext(ctx, "notes cache get failed", "err", err)
		s.prom.RecordCache("error")
		return nil, false
	}

	if !ok {
		s.prom.RecordCache("miss")
		return nil, false
	}

	var notes []note.Note

	if err := json.Unmarshal(b, &notes); err != nil {
		s.prom.RecordCache("error")
		return nil, false
	}

	if notes == nil {
		notes = []note.Note{}
	}

	s.prom.RecordCache("hit")

	return notes, true
}

// listVersion returns the version List should read and fill. A user left
// stale by a failed bump gets another bump attempt first.
func (s *NoteService) listVersion(ctx context.Context, userID string) (int64, bool) {
	verKey := cache.NotesVersionKey(userID)

	if s.isStale(userID) {
		v, err := s.cache.Bump(ctx, verKey)
		if err != nil {
			s.prom.RecordCache("bypass")
			return 0, false
		}

		s.setStale(userID, false)
		return v, true
	}

	v, err := s.cache.Version(ctx, verKey)
	if err != nil {
		s.log.WarnContext(ctx, "notes cache version failed", "err", err, "user_id", userID)
		s.prom.RecordCache("error")
		return 0, false
	}

	return v, true
}

func (s *NoteService) invalidate(ctx context.Context, userID string) {
	_, err := s.cache.Bump(ctx, cache.NotesVersionKey(userID))

	if err != nil {
		s.log.WarnContext(ctx, "notes cache invalidate failed", "err", err, "user_id", userID)
		s.setStale(userID, true)
		return
	}

	s.setStale(userID, false)
}

func (s *NoteService) isStale(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.stale[userID]
	return ok
}

func (s *NoteService) setStale(userID string, stale bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if stale {
		s.stale[userID] = struct{}{}
		return
	}
	delete(s.stale, userID)
}
