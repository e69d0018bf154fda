package db

import (
	"context"
	"errors"
	"log/slog"

	"github.com/geocoder89/noteflow/internal/config"
	"github.com/geocoder89/noteflow/internal/domain/user"
)

type SeedStore interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	Create(ctx context.Context, u user.User) (user.User, error)
}

type SeedHasher interface {
	Hash(plain string) (string, error)
}

// EnsureSeedUser creates the configured account unless it already exists.
// It is a no-op when SEED_USER_EMAIL or SEED_USER_PASSWORD is unset.
func EnsureSeedUser(ctx context.Context, users SeedStore, hasher SeedHasher, cfg config.Config, log *slog.Logger) error {
	if cfg.SeedUserEmail == "" || cfg.SeedUserPassword == "" {
		return nil
	}

	email := user.NormalizeEmail(cfg.SeedUserEmail)

	_, err := users.GetByEmail(ctx, email)

	if err == nil {
		return nil
	}

	if !errors.Is(err, user.ErrNotFound) {
		return err
	}

	hash, err := hasher.Hash(cfg.SeedUserPassword)

	if err != nil {
		return err
	}

	name := cfg.SeedUserName
	if name == "" {
		name = "Demo"
	}

	created, err := users.Create(ctx, user.New(name, email, hash))

	// another instance seeded it first
	if errors.Is(err, user.ErrEmailTaken) {
		return nil
	}

	if err != nil {
		return err
	}

	if log != nil {
		log.InfoContext(ctx, "seed user created", "user_id", created.ID)
	}

	return nil
}
