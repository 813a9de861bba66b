package storage

import (
	"context"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"employee-manager/domain"
)

const (
	employeesCacheKey = "employees:all"
	employeesGenKey   = "employees:gen"
)

// listKey names the cached list for one generation. Every successful
// mutation bumps the generation, so a list read before the mutation can only
// ever be written under a key no later reader looks at.
func listKey(gen int64) string {
	return employeesCacheKey + ":" + strconv.FormatInt(gen, 10)
}

// Cache wraps a record store with a Redis-backed copy of the full list.
// Mutations invalidate the cached list once the backing store has accepted them.
type Cache struct {
	base  Store
	redis *redis.Client
	ttl   time.Duration
}

// NewCache creates a caching wrapper using the provided Redis client and TTL.
func NewCache(base Store, client *redis.Client, ttl time.Duration) *Cache {
	if base == nil {
		panic("storage.NewCache: base storage is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Cache{base: base, redis: client, ttl: ttl}
}

func (c *Cache) ListEmployees(ctx context.Context) ([]domain.Employee, error) {
	gen, ok := c.generation(ctx)
	if ok {
		if employees, hit := c.loadEmployees(ctx, gen); hit {
			return employees, nil
		}
	}

	employees, err := c.base.ListEmployees(ctx)
	if err != nil {
		return nil, err
	}

	if ok {
		c.storeEmployees(ctx, gen, employees)
	}
	return employees, nil
}

func (c *Cache) CreateEmployee(ctx context.Context, p domain.Patch) (domain.Employee, error) {
	emp, err := c.base.CreateEmployee(ctx, p)
	if err != nil {
		return domain.Employee{}, err
	}
	c.evict(ctx)
	return emp, nil
}

func (c *Cache) UpdateEmployee(ctx context.Context, id string, p domain.Patch) (domain.Employee, error) {
	emp, err := c.base.UpdateEmployee(ctx, id, p)
	if err != nil {
		return domain.Employee{}, err
	}
	c.evict(ctx)
	return emp, nil
}

func (c *Cache) DeleteEmployee(ctx context.Context, id string) error {
	if err := c.base.DeleteEmployee(ctx, id); err != nil {
		return err
	}
	c.evict(ctx)
	return nil
}

// Ping only checks the backing store; Redis being down degrades to misses.
func (c *Cache) Ping(ctx context.Context) error {
	return c.base.Ping(ctx)
}

// generation returns the current list generation. ok is false when Redis
// cannot be used, in which case the list is neither read nor written.
func (c *Cache) generation(ctx context.Context) (int64, bool) {
	if c.redis == nil {
		return 0, false
	}
	gen, err := c.redis.Get(ctx, employeesGenKey).Int64()
	switch {
	case err == redis.Nil:
		return 0, true
	case err != nil:
		return 0, false
	}
	return gen, true
}

func (c *Cache) loadEmployees(ctx context.Context, gen int64) ([]domain.Employee, bool) {
	key := listKey(gen)
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var employees []domain.Employee
	if err := sonic.Unmarshal(data, &employees); err != nil {
		_ = c.redis.Del(ctx, key).Err()
		return nil, false
	}
	if employees == nil {
		employees = []domain.Employee{}
	}
	return employees, true
}

func (c *Cache) storeEmployees(ctx context.Context, gen int64, employees []domain.Employee) {
	if c.ttl == 0 {
		return
	}
	data, err := sonic.Marshal(employees)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, listKey(gen), data, c.ttl).Err()
}

// evict moves to the next generation and drops the list cached for the
// previous one.
func (c *Cache) evict(ctx context.Context) {
	if c.redis == nil {
		return
	}
	gen, err := c.redis.Incr(ctx, employeesGenKey).Result()
	if err != nil {
		return
	}
	_ = c.redis.Del(ctx, listKey(gen-1)).Err()
}
