package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/antonio-alexander/go-employee-directory/internal"
	"github.com/antonio-alexander/go-employee-directory/internal/data"

	stashmemory "github.com/antonio-alexander/go-stash/memory"
	stashredis "github.com/antonio-alexander/go-stash/redis"
	"github.com/pkg/errors"
)

var ErrEmployeesNotCached = errors.New("employees not cached")

// Cache holds the employees collection (keyed by data.ResourceEmployees)
// on behalf of the client
type Cache interface {
	EmployeesRead(ctx context.Context) ([]*data.Employee, error)
	EmployeesWrite(ctx context.Context, employees ...*data.Employee) error
	EmployeesInvalidate(ctx context.Context) error
}

// ttlFromEnvs returns CACHE_TTL in seconds, zero means entries never expire
func ttlFromEnvs(envs map[string]string) time.Duration {
	if s, ok := envs["CACHE_TTL"]; ok {
		ttl, _ := strconv.Atoi(s)
		if ttl > 0 {
			return time.Duration(ttl) * time.Second
		}
	}
	return 0
}

// New creates the cache for the given type, an empty type means the client
// doesn't cache
func New(cacheType string, parameters ...any) (interface {
	internal.Configurer
	internal.Opener
	internal.Clearer
	Cache
}, error) {
	switch cacheType {
	default:
		return nil, errors.Errorf("unsupported cache type: %s", cacheType)
	case "":
		return nil, nil
	case "memory":
		return NewMemory(parameters...), nil
	case "redis":
		return NewRedis(parameters...), nil
	case "stash-memory":
		return NewStash(append(parameters, stashmemory.New())...), nil
	case "stash-redis":
		return NewStash(append(parameters, stashredis.New())...), nil
	}
}
