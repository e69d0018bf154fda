package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/geocoder89/noteflow/internal/auth"
	"github.com/geocoder89/noteflow/internal/cache"
	"github.com/geocoder89/noteflow/internal/domain/note"
	"github.com/geocoder89/noteflow/internal/repo/memory"
	"github.com/geocoder89/noteflow/internal/security"
	"golang.org/x/crypto/bcrypt"
)

var errDown = errors.New("connection refused")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	users  *memory.UsersRepo
	notes  *memory.NotesRepo
	tokens *auth.Manager
	cache  *cache.Memory
	auth   *AuthService
	svc    *NoteService
}

func newFixture() *fixture {
	f := &fixture{
		users:  memory.NewUsersRepo(),
		notes:  memory.NewNotesRepo(),
		tokens: auth.NewManager("test-secret", 0),
		cache:  cache.NewMemory(time.Minute),
	}

	f.auth = NewAuthService(f.users, security.NewHasher(bcrypt.MinCost), f.tokens, discardLogger(), nil)
	f.svc = NewNoteService(f.notes, f.cache, discardLogger(), nil)

	return f
}

// failingNotes fails every call with errDown.
type failingNotes struct{}

func (failingNotes) Create(context.Context, note.Note) (note.Note, error) { return note.Note{}, errDown }
func (failingNotes) ListByOwner(context.Context, string) ([]note.Note, error) {
	return nil, errDown
}
func (failingNotes) GetByID(context.Context, string) (note.Note, error) { return note.Note{}, errDown }
func (failingNotes) Update(context.Context, note.Note) (note.Note, error) { return note.Note{}, errDown }
func (failingNotes) Delete(context.Context, string, string) error         { return errDown }

// gatedNotes pauses the first gated ListByOwner after it has read the store,
// until release is closed.
type gatedNotes struct {
	*memory.NotesRepo
	gate    atomic.Bool
	read    chan struct{}
	release chan struct{}
}

func (g *gatedNotes) ListByOwner(ctx context.Context, ownerID string) ([]note.Note, error) {
	notes, err := g.NotesRepo.ListByOwner(ctx, ownerID)

	if g.gate.CompareAndSwap(true, false) {
		close(g.read)
		<-g.release
	}

	return notes, err
}

// flakyCache fails every call while down, and only Bump while failBumps.
type flakyCache struct {
	*cache.Memory
	down      atomic.Bool
	failBumps atomic.Bool
}

func (c *flakyCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if c.down.Load() {
		return nil, false, errDown
	}
	return c.Memory.Get(ctx, key)
}

func (c *flakyCache) Set(ctx context.Context, key string, val []byte) error {
	if c.down.Load() {
		return errDown
	}
	return c.Memory.Set(ctx, key, val)
}

func (c *flakyCache) Delete(ctx context.Context, key string) error {
	if c.down.Load() {
		return errDown
	}
	return c.Memory.Delete(ctx, key)
}

func (c *flakyCache) Version(ctx context.Context, key string) (int64, error) {
	if c.down.Load() {
		return 0, errDown
	}
	return c.Memory.Version(ctx, key)
}

func (c *flakyCache) Bump(ctx context.Context, key string) (int64, error) {
	if c.down.Load() || c.failBumps.Load() {
		return 0, errDown
	}
	return c.Memory.Bump(ctx, key)
}
