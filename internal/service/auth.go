// Package service holds the two pieces of business logic the HTTP layer
// delegates to: AuthService (credentials in, verified identity out) and
// NoteService (ownership-scoped note CRUD). Both return *apperr.Error values.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/geocoder89/noteflow/internal/apperr"
	"github.com/geocoder89/noteflow/internal/auth"
	"github.com/geocoder89/noteflow/internal/domain/user"
	"github.com/geocoder89/noteflow/internal/observability"
	"github.com/geocoder89/noteflow/internal/security"
)

const (
	msgInvalidCredentials = "Invalid email or password"
	msgMissingToken       = "Not authorized, no token"
	msgInvalidToken       = "Not authorized, invalid or expired token"
	msgUnknownUser        = "Not authorized, user not found"
)

type UserStore interface {
	Create(ctx context.Context, u user.User) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetPublicByID(ctx context.Context, id string) (user.Public, error)
}

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Check(hash, plain string) error
	CheckDummy(plain string)
}

type TokenIssuer interface {
	GenerateToken(userID string) (string, error)
	Verify(token string) (auth.Identity, error)
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

type AuthResult struct {
	User  user.Public `json:"user"`
	Token string      `json:"token"`
}

type AuthService struct {
	users  UserStore
	hasher PasswordHasher
	tokens TokenIssuer
	log    *slog.Logger
	prom   *observability.Prom
}

func NewAuthService(users UserStore, hasher PasswordHasher, tokens TokenIssuer, log *slog.Logger, prom *observability.Prom) *AuthService {
	if log == nil {
		log = slog.Default()
	}

	return &AuthService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		log:    log,
		prom:   prom,
	}
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (AuthResult, error) {
	name := strings.TrimSpace(in.Name)
	email := user.NormalizeEmail(in.Email)

	if name == "" || email == "" || in.Password == "" {
		s.prom.RecordAuth("register", "invalid")
		return AuthResult{}, apperr.New(apperr.ErrValidation, "Name, email and password are required")
	}

	_, err := s.users.GetByEmail(ctx, email)

	switch {
	case err == nil:
		s.prom.RecordAuth("register", "duplicate")
		return AuthResult{}, apperr.New(apperr.ErrDuplicateUser, "Email already registered")
	case !errors.Is(err, user.ErrNotFound):
		s.log.ErrorContext(ctx, "register lookup failed", "err", err)
		s.prom.RecordAuth("register", "error")
		return AuthResult{}, apperr.Storage("Registration failed. Please try again.", err)
	}

	hash, err := s.hasher.Hash(in.Password)

	if err != nil {
		if errors.Is(err, security.ErrPasswordTooLong) {
			s.prom.RecordAuth("register", "invalid")
			return AuthResult{}, apperr.New(apperr.ErrValidation, "Password must be at most 72 bytes")
		}
		s.prom.RecordAuth("register", "error")
		return AuthResult{}, apperr.Wrap(apperr.ErrStorage, "Registration failed. Please try again.", err)
	}

	created, err := s.users.Create(ctx, user.New(name, email, hash))

	if err != nil {
		// lost a race with a concurrent registration for the same email
		if errors.Is(err, user.ErrEmailTaken) {
			s.prom.RecordAuth("register", "duplicate")
			return AuthResult{}, apperr.New(apperr.ErrDuplicateUser, "Email already registered")
		}

		s.log.ErrorContext(ctx, "register insert failed", "err", err)
		s.prom.RecordAuth("register", "error")
		return AuthResult{}, apperr.Storage("Registration failed. Please try again.", err)
	}

	res, err := s.issue(created.Public())
	if err != nil {
		s.prom.RecordAuth("register", "error")
		return AuthResult{}, err
	}

	s.log.InfoContext(ctx, "user registered", "user_id", created.ID)
	s.prom.RecordAuth("register", "ok")

	return res, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (AuthResult, error) {
	email = user.NormalizeEmail(email)

	if email == "" || password == "" {
		s.prom.RecordAuth("login", "invalid")
		return AuthResult{}, apperr.New(apperr.ErrValidation, "Email and password are required")
	}

	found, err := s.users.GetByEmail(ctx, email)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			s.hasher.CheckDummy(password)
			s.prom.RecordAuth("login", "rejected")
			return AuthResult{}, apperr.New(apperr.ErrInvalidCredentials, msgInvalidCredentials)
		}

		s.log.ErrorContext(ctx, "login lookup failed", "err", err)
		s.prom.RecordAuth("login", "error")
		return AuthResult{}, apperr.Storage("Login failed. Please try again.", err)
	}

	err = s.hasher.Check(found.PasswordHash, password)

	if err != nil {
		s.prom.RecordAuth("login", "rejected")
		return AuthResult{}, apperr.New(apperr.ErrInvalidCredentials, msgInvalidCredentials)
	}

	res, err := s.issue(found.Public())
	if err != nil {
		s.prom.RecordAuth("login", "error")
		return AuthResult{}, err
	}

	s.log.DebugContext(ctx, "user logged in", "user_id", found.ID)
	s.prom.RecordAuth("login", "ok")

	return res, nil
}

// Authenticate resolves an Authorization header value to the caller. The
// token must verify and its user must still exist; a deleted user's token
// is rejected like any other invalid token.
func (s *AuthService) Authenticate(ctx context.Context, authorizationHeader string) (auth.Identity, error) {
	id, _, err := s.resolve(ctx, authorizationHeader)

	if err != nil {
		if errors.Is(err, apperr.ErrUserNotFound) {
			s.prom.RecordAuth("authenticate", "not_found")
			return auth.Identity{}, apperr.Wrap(apperr.ErrInvalidToken, msgUnknownUser, user.ErrNotFound)
		}

		s.prom.RecordAuth("authenticate", "rejected")
		return auth.Identity{}, err
	}

	return id, nil
}

func (s *AuthService) VerifyAndLoadProfile(ctx context.Context, authorizationHeader string) (user.Public, error) {
	_, profile, err := s.resolve(ctx, authorizationHeader)

	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrUserNotFound):
			s.prom.RecordAuth("profile", "not_found")
		case errors.Is(err, apperr.ErrStorage):
			s.prom.RecordAuth("profile", "error")
		default:
			s.prom.RecordAuth("profile", "rejected")
		}
		return user.Public{}, err
	}

	s.prom.RecordAuth("profile", "ok")

	return profile, nil
}

// resolve verifies the bearer token and loads its user from the store.
func (s *AuthService) resolve(ctx context.Context, authorizationHeader string) (auth.Identity, user.Public, error) {
	raw, err := auth.BearerToken(authorizationHeader)

	if err != nil {
		return auth.Identity{}, user.Public{}, apperr.New(apperr.ErrMissingToken, msgMissingToken)
	}

	id, err := s.tokens.Verify(raw)

	if err != nil {
		return auth.Identity{}, user.Public{}, apperr.Wrap(apperr.ErrInvalidToken, msgInvalidToken, err)
	}

	profile, err := s.users.GetPublicByID(ctx, id.UserID)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return auth.Identity{}, user.Public{}, apperr.New(apperr.ErrUserNotFound, "User not found")
		}

		s.log.ErrorContext(ctx, "identity lookup failed", "err", err, "user_id", id.UserID)
		return auth.Identity{}, user.Public{}, apperr.Storage("Could not verify identity", err)
	}

	return id, profile, nil
}

func (s *AuthService) issue(u user.Public) (AuthResult, error) {
	token, err := s.tokens.GenerateToken(u.ID)

	if err != nil {
		return AuthResult{}, apperr.Wrap(apperr.ErrStorage, "Could not generate access token", err)
	}

	return AuthResult{User: u, Token: token}, nil
}
