package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/geocoder89/noteflow/internal/actorctx"
	"github.com/geocoder89/noteflow/internal/auth"
	"github.com/geocoder89/noteflow/internal/domain/note"
	"github.com/geocoder89/noteflow/internal/domain/user"
	"github.com/geocoder89/noteflow/internal/service"
	"github.com/gin-gonic/gin"
)

// Make sure Gin does not spam the console during the test

func init() {
	gin.SetMode(gin.TestMode)
}

// Fake implementations of the handler service interfaces

type fakeAuth struct {
	registerFn func(ctx context.Context, in service.RegisterInput) (service.AuthResult, error)
	loginFn    func(ctx context.Context, email, password string) (service.AuthResult, error)
	profileFn  func(ctx context.Context, header string) (user.Public, error)
}

func (f *fakeAuth) Register(ctx context.Context, in service.RegisterInput) (service.AuthResult, error) {
	if f.registerFn != nil {
		return f.registerFn(ctx, in)
	}
	return service.AuthResult{}, nil
}

func (f *fakeAuth) Login(ctx context.Context, email, password string) (service.AuthResult, error) {
	if f.loginFn != nil {
		return f.loginFn(ctx, email, password)
	}
	return service.AuthResult{}, nil
}

func (f *fakeAuth) VerifyAndLoadProfile(ctx context.Context, header string) (user.Public, error) {
	if f.profileFn != nil {
		return f.profileFn(ctx, header)
	}
	return user.Public{}, nil
}

type fakeNotes struct {
	listFn   func(ctx context.Context, userID string) ([]note.Note, error)
	getFn    func(ctx context.Context, userID, noteID string) (note.Note, error)
	createFn func(ctx context.Context, userID string, req note.CreateNoteRequest) (note.Note, error)
	updateFn func(ctx context.Context, userID, noteID string, patch note.UpdateNoteRequest) (note.Note, error)
	deleteFn func(ctx context.Context, userID, noteID string) error
}

func (f *fakeNotes) List(ctx context.Context, userID string) ([]note.Note, error) {
	if f.listFn != nil {
		return f.listFn(ctx, userID)
	}
	return []note.Note{}, nil
}

func (f *fakeNotes) Get(ctx context.Context, userID, noteID string) (note.Note, error) {
	if f.getFn != nil {
		return f.getFn(ctx, userID, noteID)
	}
	return note.Note{}, nil
}

func (f *fakeNotes) Create(ctx context.Context, userID string, req note.CreateNoteRequest) (note.Note, error) {
	if f.createFn != nil {
		return f.createFn(ctx, userID, req)
	}
	return note.Note{}, nil
}

func (f *fakeNotes) Update(ctx context.Context, userID, noteID string, patch note.UpdateNoteRequest) (note.Note, error) {
	if f.updateFn != nil {
		return f.updateFn(ctx, userID, noteID, patch)
	}
	return note.Note{}, nil
}

func (f *fakeNotes) Delete(ctx context.Context, userID, noteID string) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, userID, noteID)
	}
	return nil
}

// small helper function which returns the gin engine to mount one handler per test

func setupRouter(method, path string, h gin.HandlerFunc) *gin.Engine {
	r := gin.New()

	r.Handle(method, path, h)

	return r
}

// asUser stands in for the auth middleware.
func asUser(userID string, h gin.HandlerFunc) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if userID != "" {
			ctx.Request = ctx.Request.WithContext(actorctx.WithIdentity(ctx.Request.Context(), auth.Identity{UserID: userID}))
		}
		h(ctx)
	}
}

func doRequest(r http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var buf *bytes.Buffer
	if body != "" {
		buf = bytes.NewBufferString(body)
	} else {
		buf = &bytes.Buffer{}
	}

	req := httptest.NewRequest(method, path, buf)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type errorEnvelope struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"requestId"`
	} `json:"error"`
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorEnvelope {
	t.Helper()

	var env errorEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("invalid error body %q: %v", w.Body.String(), err)
	}
	return env
}
