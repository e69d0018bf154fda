package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/geocoder89/noteflow/internal/actorctx"
	"github.com/geocoder89/noteflow/internal/config"
	"github.com/geocoder89/noteflow/internal/domain/note"
	"github.com/gin-gonic/gin"
)

type NoteService interface {
	List(ctx context.Context, userID string) ([]note.Note, error)
	Get(ctx context.Context, userID, noteID string) (note.Note, error)
	Create(ctx context.Context, userID string, req note.CreateNoteRequest) (note.Note, error)
	Update(ctx context.Context, userID, noteID string, patch note.UpdateNoteRequest) (note.Note, error)
	Delete(ctx context.Context, userID, noteID string) error
}

type NotesHandler struct {
	notes NoteService
}

func NewNotesHandler(notes NoteService) *NotesHandler {
	return &NotesHandler{notes: notes}
}

// currentUser reads the identity the auth middleware attached. Routes are
// always mounted behind it; a miss means the wiring is wrong.
func currentUser(ctx *gin.Context) (string, bool) {
	userID, ok := actorctx.UserIDFrom(ctx.Request.Context())

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Not authorized, no token")
		return "", false
	}

	return userID, true
}

func (h *NotesHandler) ListNotes(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	notes, err := h.notes.List(cctx, userID)

	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, notes)
}

func (h *NotesHandler) GetNote(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	n, err := h.notes.Get(cctx, userID, ctx.Param("id"))

	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, n)
}

func (h *NotesHandler) CreateNote(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}

	var req note.CreateNoteRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	created, err := h.notes.Create(cctx, userID, req)

	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.Header("Location", "/api/notes/"+created.ID)
	ctx.JSON(http.StatusCreated, created)
}

func (h *NotesHandler) UpdateNote(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}

	var req note.UpdateNoteRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	updated, err := h.notes.Update(cctx, userID, ctx.Param("id"), req)

	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, updated)
}

func (h *NotesHandler) DeleteNote(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	err := h.notes.Delete(cctx, userID, ctx.Param("id"))

	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Note removed"})
}
