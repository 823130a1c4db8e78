package cache

import (
	"context"
	"sync"
	"time"

	"github.com/antonio-alexander/go-employee-directory/internal"
	"github.com/antonio-alexander/go-employee-directory/internal/data"
	"github.com/antonio-alexander/go-employee-directory/internal/utilities"
)

type memoryCache struct {
	sync.RWMutex
	employees []*data.Employee
	cached    bool
	writtenAt time.Time
	config    struct {
		ttl time.Duration
	}
	utilities.Logger
}

func NewMemory(parameters ...any) interface {
	internal.Configurer
	internal.Opener
	internal.Clearer
	Cache
} {
	c := &memoryCache{Logger: utilities.NewLogger()}
	for _, parameter := range parameters {
		switch p := parameter.(type) {
		case utilities.Logger:
			c.Logger = p
		}
	}
	return c
}

func (c *memoryCache) Configure(envs map[string]string) error {
	c.config.ttl = ttlFromEnvs(envs)
	return nil
}

func (c *memoryCache) Open(ctx context.Context) error {
	return c.Clear(ctx)
}

func (c *memoryCache) Close(ctx context.Context) error {
	return nil
}

func (c *memoryCache) Clear(ctx context.Context) error {
	c.Lock()
	defer c.Unlock()

	c.employees, c.cached = nil, false
	return nil
}

func (c *memoryCache) EmployeesRead(ctx context.Context) ([]*data.Employee, error) {
	c.RLock()
	defer c.RUnlock()

	if !c.cached {
		return nil, ErrEmployeesNotCached
	}
	if c.config.ttl > 0 && time.Since(c.writtenAt) > c.config.ttl {
		c.Trace(ctx, "cached %s expired", data.ResourceEmployees)
		return nil, ErrEmployeesNotCached
	}
	return data.CopyEmployees(c.employees), nil
}

func (c *memoryCache) EmployeesWrite(ctx context.Context, employees ...*data.Employee) error {
	c.Lock()
	defer c.Unlock()

	c.employees = data.CopyEmployees(employees)
	c.cached, c.writtenAt = true, time.Now()
	return nil
}

func (c *memoryCache) EmployeesInvalidate(ctx context.Context) error {
	return c.Clear(ctx)
}
