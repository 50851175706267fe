package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"trivia-quiz-service/internal/domain"
	"trivia-quiz-service/internal/infra/memory"
)

func TestCategoryRepositoryCachesInRedis(t *testing.T) {
	mr := runRedis(t)
	client := newClient(mr)

	loader := &countingLoader{
		CategoryLoader: memory.NewStaticCategoryLoader([]domain.Category{
			{ID: 17, Name: "Science & Nature"},
			{ID: 9, Name: "General Knowledge"},
		}, nil),
	}
	repo := NewCategoryRepository(client, loader, time.Minute)

	if _, err := repo.Categories(context.Background()); err != nil {
		t.Fatalf("categories: %v", err)
	}
	if loader.count() != 1 {
		t.Fatalf("expected loader called once, got %d", loader.count())
	}
	if !mr.Exists(categoriesKey) {
		t.Fatalf("expected categories hash in redis")
	}
	if ttl := mr.TTL(categoriesKey); ttl < time.Minute || ttl > 66*time.Second {
		t.Fatalf("expected ttl with at most 10%% jitter, got %v", ttl)
	}

	// Second call should hit cache, loader not incremented.
	got, err := repo.Categories(context.Background())
	if err != nil {
		t.Fatalf("categories 2: %v", err)
	}
	if loader.count() != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.count())
	}
	if len(got) != 2 || got[0].ID != 9 || got[1].Name != "Science & Nature" {
		t.Fatalf("unexpected cached categories %+v", got)
	}
}

func TestCategoryRepositoryReloadsAfterExpiry(t *testing.T) {
	mr := runRedis(t)
	loader := &countingLoader{
		CategoryLoader: memory.NewStaticCategoryLoader([]domain.Category{{ID: 9, Name: "General Knowledge"}}, nil),
	}
	repo := NewCategoryRepository(newClient(mr), loader, time.Minute)

	_, _ = repo.Categories(context.Background())
	mr.FastForward(2 * time.Minute)
	_, _ = repo.Categories(context.Background())

	if loader.count() != 2 {
		t.Fatalf("expected reload after expiry, loader calls=%d", loader.count())
	}
}

func TestRevocationStoreExpiresWithToken(t *testing.T) {
	mr := runRedis(t)
	store := NewRevocationStore(newClient(mr))
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.clock = func() time.Time { return now }
	ctx := context.Background()

	if err := store.Revoke(ctx, "jti-1", now.Add(time.Hour)); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if !mr.Exists("auth:revoked:jti-1") {
		t.Fatalf("expected redis key to be set")
	}
	revoked, err := store.IsRevoked(ctx, "jti-1")
	if err != nil || !revoked {
		t.Fatalf("expected revoked, got %v %v", revoked, err)
	}

	mr.FastForward(2 * time.Hour)
	if revoked, _ := store.IsRevoked(ctx, "jti-1"); revoked {
		t.Fatalf("expected key to expire with the token")
	}

	if err := store.Revoke(ctx, "jti-2", now.Add(-time.Minute)); err != nil {
		t.Fatalf("revoke expired: %v", err)
	}
	if mr.Exists("auth:revoked:jti-2") {
		t.Fatalf("expired token should not be stored")
	}
}

type countingLoader struct {
	memory.CategoryLoader
	mu    sync.Mutex
	calls int
}

func (l *countingLoader) LoadCategories(ctx context.Context) ([]domain.Category, error) {
	l.mu.Lock()
	l.calls++
	l.mu.Unlock()
	return l.CategoryLoader.LoadCategories(ctx)
}

func (l *countingLoader) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

func runRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	return mr
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
