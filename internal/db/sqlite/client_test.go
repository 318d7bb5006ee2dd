package sqlite

import (
	"context"
	"testing"

	"github.com/groupwarden/modbot/internal/db"
)

func newTestClient(t *testing.T) *sqliteClient {
	t.Helper()
	ctx := context.Background()
	client, err := NewSQLiteClient(ctx, t.TempDir(), "test.db")
	if err != nil {
		t.Fatalf("new sqlite client: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestSettingsRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client := newTestClient(t)

	settings, err := client.GetSettings(ctx, -1001)
	if err != nil {
		t.Fatalf("get settings: %v", err)
	}
	if settings != nil {
		t.Fatalf("expected no settings for an unseen chat, got %#v", settings)
	}

	want := &db.Settings{ID: -1001, Enabled: true, Language: "en"}
	if err := client.SetSettings(ctx, want); err != nil {
		t.Fatalf("set settings: %v", err)
	}
	got, err := client.GetSettings(ctx, -1001)
	if err != nil {
		t.Fatalf("get settings after set: %v", err)
	}
	if got == nil || got.ID != want.ID || got.Enabled != want.Enabled || got.Language != want.Language {
		t.Fatalf("settings round trip: got %#v, want %#v", got, want)
	}

	want.Enabled = false
	if err := client.SetSettings(ctx, want); err != nil {
		t.Fatalf("update settings: %v", err)
	}
	got, err = client.GetSettings(ctx, -1001)
	if err != nil {
		t.Fatalf("get settings after update: %v", err)
	}
	if got.Enabled {
		t.Fatal("settings update did not stick")
	}
}

func TestTrustedUsers(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client := newTestClient(t)

	trusted, err := client.IsTrusted(ctx, 42)
	if err != nil {
		t.Fatalf("is trusted: %v", err)
	}
	if trusted {
		t.Fatal("unseen user reported trusted")
	}

	if err := client.AddTrusted(ctx, 42, 1); err != nil {
		t.Fatalf("add trusted: %v", err)
	}
	// Idempotent add.
	if err := client.AddTrusted(ctx, 42, 1); err != nil {
		t.Fatalf("re-add trusted: %v", err)
	}
	if err := client.AddTrusted(ctx, 7, 1); err != nil {
		t.Fatalf("add second trusted: %v", err)
	}

	trusted, err = client.IsTrusted(ctx, 42)
	if err != nil {
		t.Fatalf("is trusted after add: %v", err)
	}
	if !trusted {
		t.Fatal("added user not reported trusted")
	}

	users, err := client.GetTrusted(ctx)
	if err != nil {
		t.Fatalf("list trusted: %v", err)
	}
	if len(users) != 2 || users[0] != 7 || users[1] != 42 {
		t.Fatalf("trusted list = %v, want [7 42]", users)
	}

	if err := client.RemoveTrusted(ctx, 42); err != nil {
		t.Fatalf("remove trusted: %v", err)
	}
	trusted, err = client.IsTrusted(ctx, 42)
	if err != nil {
		t.Fatalf("is trusted after remove: %v", err)
	}
	if trusted {
		t.Fatal("removed user still trusted")
	}
}
