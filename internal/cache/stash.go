package cache

import (
	"context"

	"github.com/antonio-alexander/go-employee-directory/internal"
	"github.com/antonio-alexander/go-employee-directory/internal/data"
	"github.com/antonio-alexander/go-employee-directory/internal/utilities"

	"github.com/antonio-alexander/go-stash"
)

type stashCache struct {
	logger utilities.Logger
	stash  interface {
		stash.Configurer
		stash.Parameterizer
		stash.Initializer
		stash.Shutdowner
	}
	stash.Stasher
}

// NewStash wraps a go-stash implementation (memory or redis) provided as
// one of the parameters
func NewStash(parameters ...any) interface {
	internal.Configurer
	internal.Opener
	internal.Clearer
	Cache
} {
	c := &stashCache{}
	for _, p := range parameters {
		switch p := p.(type) {
		case utilities.Logger:
			c.logger = p
		case interface {
			stash.Configurer
			stash.Parameterizer
			stash.Initializer
			stash.Shutdowner
			stash.Stasher
		}:
			c.stash = p
			c.Stasher = p
		}
	}
	if c.stash != nil {
		c.stash.SetParameters(parameters...)
	}
	return c
}

func (c *stashCache) Error(ctx context.Context, format string, v ...any) {
	if c.logger != nil {
		c.logger.Error(ctx, format, v...)
	}
}

func (c *stashCache) Trace(ctx context.Context, format string, v ...any) {
	if c.logger != nil {
		c.logger.Trace(ctx, format, v...)
	}
}

func (c *stashCache) Configure(envs map[string]string) error {
	if c.stash != nil {
		if err := c.stash.Configure(envs); err != nil {
			return err
		}
	}
	return nil
}

func (c *stashCache) Open(ctx context.Context) error {
	if c.stash != nil {
		return c.stash.Initialize()
	}
	return nil
}

func (c *stashCache) Close(ctx context.Context) error {
	if c.stash != nil {
		return c.stash.Shutdown()
	}
	return nil
}

func (c *stashCache) Clear(ctx context.Context) error {
	return c.Stasher.Clear()
}

func (c *stashCache) EmployeesRead(ctx context.Context) ([]*data.Employee, error) {
	employees := data.Employees{}
	if err := c.Stasher.Read(data.ResourceEmployees, &employees); err != nil {
		c.Trace(ctx, "cache miss for %s: %s", data.ResourceEmployees, err)
		return nil, ErrEmployeesNotCached
	}
	c.Trace(ctx, "cache hit for %s", data.ResourceEmployees)
	return employees, nil
}

func (c *stashCache) EmployeesWrite(ctx context.Context, e ...*data.Employee) error {
	employees := data.Employees(e)
	if employees == nil {
		employees = data.Employees{}
	}
	if _, err := c.Stasher.Write(data.ResourceEmployees, &employees); err != nil {
		c.Error(ctx, "error while writing %s: %s", data.ResourceEmployees, err)
		return err
	}
	c.Trace(ctx, "cached %s (%d)", data.ResourceEmployees, len(employees))
	return nil
}

func (c *stashCache) EmployeesInvalidate(ctx context.Context) error {
	if err := c.Stasher.Delete(data.ResourceEmployees); err != nil {
		//KIM: deleting a key that isn't cached isn't a failure
		c.Trace(ctx, "unable to evict %s: %s", data.ResourceEmployees, err)
		return nil
	}
	c.Trace(ctx, "evicted cached %s", data.ResourceEmployees)
	return nil
}
