package redis

import (
	"context"
	"math/rand"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"trivia-quiz-service/internal/domain"
	"trivia-quiz-service/internal/infra/memory"
)

const categoriesKey = "trivia:categories"

// CategoryRepository caches the provider's categories in Redis and falls back
// to the loader on a miss. Categories are stored as:
//
//	HSET trivia:categories {id} {name}
type CategoryRepository struct {
	client *redis.Client
	loader memory.CategoryLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewCategoryRepository(client *redis.Client, loader memory.CategoryLoader, ttl time.Duration) *CategoryRepository {
	return &CategoryRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *CategoryRepository) Categories(ctx context.Context) ([]domain.Category, error) {
	if cached, ok := r.lookup(ctx); ok {
		return cached, nil
	}

	result, err, _ := r.sf.Do(categoriesKey, func() (interface{}, error) {
		// another caller may have filled the cache meanwhile
		if cached, ok := r.lookup(ctx); ok {
			return cached, nil
		}

		categories, err := r.loader.LoadCategories(ctx)
		if err != nil {
			return nil, err
		}

		pipe := r.client.TxPipeline()
		pipe.Del(ctx, categoriesKey)
		for _, c := range categories {
			pipe.HSet(ctx, categoriesKey, strconv.Itoa(c.ID), c.Name)
		}
		if ttl := r.ttlWithJitter(); ttl > 0 {
			pipe.Expire(ctx, categoriesKey, ttl)
		}
		// a failed write only costs a reload next time
		_, _ = pipe.Exec(ctx)

		return categories, nil
	})
	if err != nil {
		return nil, err
	}
	return append([]domain.Category(nil), result.([]domain.Category)...), nil
}

func (r *CategoryRepository) lookup(ctx context.Context) ([]domain.Category, bool) {
	fields, err := r.client.HGetAll(ctx, categoriesKey).Result()
	if err != nil || len(fields) == 0 {
		return nil, false
	}
	return buildCategoriesFromCache(fields), true
}

func buildCategoriesFromCache(fields map[string]string) []domain.Category {
	categories := make([]domain.Category, 0, len(fields))
	for rawID, name := range fields {
		id, err := strconv.Atoi(rawID)
		if err != nil {
			continue
		}
		categories = append(categories, domain.Category{ID: id, Name: name})
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].ID < categories[j].ID })
	return categories
}

func (r *CategoryRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
