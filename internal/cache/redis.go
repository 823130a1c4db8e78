package cache

import (
	"context"
	"errors"
	"net"
	"strconv"
	"time"

	"github.com/antonio-alexander/go-employee-directory/internal"
	"github.com/antonio-alexander/go-employee-directory/internal/data"
	"github.com/antonio-alexander/go-employee-directory/internal/utilities"

	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix string = "employee_directory:"

type redisCache struct {
	redisClient *redis.Client
	config      struct {
		address   string
		port      string
		password  string
		database  int
		timeout   time.Duration
		ttl       time.Duration
		keyPrefix string
	}
	utilities.Logger
}

func NewRedis(parameters ...any) interface {
	internal.Configurer
	internal.Opener
	internal.Clearer
	Cache
} {
	c := &redisCache{Logger: utilities.NewLogger()}
	c.config.keyPrefix = defaultKeyPrefix
	for _, parameter := range parameters {
		switch p := parameter.(type) {
		case utilities.Logger:
			c.Logger = p
		}
	}
	return c
}

func (c *redisCache) key() string {
	return c.config.keyPrefix + data.ResourceEmployees
}

func (c *redisCache) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.config.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.config.timeout)
}

func (c *redisCache) Configure(envs map[string]string) error {
	if redisAddress, ok := envs["REDIS_ADDRESS"]; ok {
		c.config.address = redisAddress
	}
	if redisPort, ok := envs["REDIS_PORT"]; ok {
		c.config.port = redisPort
	}
	if redisPassword, ok := envs["REDIS_PASSWORD"]; ok {
		c.config.password = redisPassword
	}
	if redisDatabase, ok := envs["REDIS_DATABASE"]; ok {
		i, _ := strconv.ParseInt(redisDatabase, 10, 64)
		c.config.database = int(i)
	}
	if redisTimeout, ok := envs["REDIS_TIMEOUT"]; ok {
		i, _ := strconv.ParseInt(redisTimeout, 10, 64)
		c.config.timeout = time.Duration(i) * time.Second
	}
	if keyPrefix, ok := envs["REDIS_KEY_PREFIX"]; ok {
		c.config.keyPrefix = keyPrefix
	}
	c.config.ttl = ttlFromEnvs(envs)
	return nil
}

func (c *redisCache) Open(ctx context.Context) error {
	redisClient := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(c.config.address, c.config.port),
		Password: c.config.password,
		DB:       c.config.database,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return err
	}
	c.redisClient = redisClient
	return nil
}

func (c *redisCache) Close(ctx context.Context) error {
	if c.redisClient == nil {
		return nil
	}
	if err := c.redisClient.Close(); err != nil {
		c.Error(ctx, "error while shutting down redis client: %s", err)
	}
	return nil
}

func (c *redisCache) Clear(ctx context.Context) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	if _, err := c.redisClient.Del(ctx, c.key()).Result(); err != nil {
		return err
	}
	return nil
}

func (c *redisCache) EmployeesRead(ctx context.Context) ([]*data.Employee, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	value, err := c.redisClient.Get(ctx, c.key()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrEmployeesNotCached
		}
		return nil, err
	}
	var employees data.Employees
	if err := employees.UnmarshalBinary(value); err != nil {
		return nil, err
	}
	return employees, nil
}

func (c *redisCache) EmployeesWrite(ctx context.Context, e ...*data.Employee) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	employees := data.Employees(e)
	if employees == nil {
		employees = data.Employees{}
	}
	if err := c.redisClient.Set(ctx, c.key(), &employees, c.config.ttl).Err(); err != nil {
		return err
	}
	return nil
}

func (c *redisCache) EmployeesInvalidate(ctx context.Context) error {
	return c.Clear(ctx)
}
