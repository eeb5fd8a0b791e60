package sessions

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/justestif/skate-sessions/internal/db"
)

// mockTrickRepo counts catalog reads.
type mockTrickRepo struct {
	tricks  []db.Trick
	lists   int
	listErr error
}

func (m *mockTrickRepo) List(_ context.Context) ([]db.Trick, error) {
	m.lists++
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.tricks, nil
}

func (m *mockTrickRepo) Upsert(_ context.Context, tricks []db.Trick) (int, error) {
	m.tricks = append(m.tricks, tricks...)
	return len(tricks), nil
}

func TestCatalogCache(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	repo := &mockTrickRepo{tricks: []db.Trick{{ID: 1, Name: "Ollie", Obstacle: "flat", Stance: "regular", Difficulty: 1}}}
	cache := newCatalogCache(repo, time.Minute, func() time.Time { return now })

	for i := 0; i < 3; i++ {
		got, err := cache.List(ctx)
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("List() returned %d tricks, want 1", len(got))
		}
	}
	if repo.lists != 1 {
		t.Errorf("repo read %d times within TTL, want 1", repo.lists)
	}

	// Callers cannot modify the cached slice.
	got, _ := cache.List(ctx)
	got[0].Name = "changed"
	if again, _ := cache.List(ctx); again[0].Name != "Ollie" {
		t.Error("cached catalog was modified through a returned slice")
	}

	now = now.Add(time.Minute)
	if _, err := cache.List(ctx); err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if repo.lists != 2 {
		t.Errorf("stale cache should be refetched, reads = %d", repo.lists)
	}

	if _, err := cache.Upsert(ctx, []db.Trick{{ID: 2, Name: "Kickflip", Obstacle: "flat", Stance: "regular", Difficulty: 3}}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	got, _ = cache.List(ctx)
	if len(got) != 2 || repo.lists != 3 {
		t.Errorf("upsert should invalidate the cache: %d tricks, %d reads", len(got), repo.lists)
	}
}

func TestCatalogCacheErrorNotCached(t *testing.T) {
	ctx := context.Background()
	repo := &mockTrickRepo{listErr: errors.New("connection reset")}
	cache := newCatalogCache(repo, time.Hour, time.Now)

	if _, err := cache.List(ctx); err == nil {
		t.Fatal("List() expected error")
	}

	repo.listErr = nil
	got, err := cache.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("List() = %#v, want empty catalog", got)
	}
	if repo.lists != 2 {
		t.Errorf("reads = %d, want 2", repo.lists)
	}
}

func TestServiceCatalogTTL(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := setupService(t, WithCatalogTTL(time.Hour))

	first, err := svc.Catalog(ctx)
	if err != nil {
		t.Fatalf("Catalog() error = %v", err)
	}

	if _, err := store.Tricks().Upsert(ctx, []db.Trick{{Name: "Heelflip", Obstacle: "flat", Stance: "regular", Difficulty: 3}}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	cached, err := svc.Catalog(ctx)
	if err != nil {
		t.Fatalf("Catalog() error = %v", err)
	}
	if len(cached) != len(first) {
		t.Errorf("Catalog() within TTL = %d tricks, want cached %d", len(cached), len(first))
	}
}
