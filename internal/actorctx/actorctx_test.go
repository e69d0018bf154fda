package actorctx

import (
	"context"
	"testing"

	"github.com/geocoder89/noteflow/internal/auth"
)

func TestIdentityRoundTrip(t *testing.T) {
	ctx := WithIdentity(context.Background(), auth.Identity{UserID: "u1"})

	got, ok := UserIDFrom(ctx)
	if !ok || got != "u1" {
		t.Fatalf("got %q, %v; want u1, true", got, ok)
	}
}

func TestIdentityMissing(t *testing.T) {
	if _, ok := IdentityFrom(context.Background()); ok {
		t.Fatal("expected no identity on a bare context")
	}

	if _, ok := UserIDFrom(WithIdentity(context.Background(), auth.Identity{})); ok {
		t.Fatal("expected an empty user id to be treated as absent")
	}
}
