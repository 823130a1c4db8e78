package cache_test

import (
	"context"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/antonio-alexander/go-employee-directory/internal"
	"github.com/antonio-alexander/go-employee-directory/internal/cache"
	"github.com/antonio-alexander/go-employee-directory/internal/data"

	"github.com/stretchr/testify/assert"
)

var envs = map[string]string{
	"REDIS_ADDRESS":     "localhost",
	"REDIS_PORT":        "6379",
	"REDIS_TIMEOUT":     "10",
	"CACHE_TTL":         "0",
	"CACHE_INTEGRATION": "false",
}

func init() {
	for _, env := range os.Environ() {
		if s := strings.Split(env, "="); len(s) > 1 {
			envs[s[0]] = strings.Join(s[1:], "=")
		}
	}
}

type cacheTest struct {
	cache interface {
		internal.Configurer
		internal.Opener
		internal.Clearer
	}
	cache.Cache
}

func newCacheTest(cacheType string) *cacheTest {
	c, _ := cache.New(cacheType)
	return &cacheTest{
		cache: c,
		Cache: c,
	}
}

func (c *cacheTest) TestCache(t *testing.T) {
	var employees []*data.Employee

	for i := range 5 {
		employees = append(employees, &data.Employee{
			Id:       int64(i + 1),
			FullName: internal.GenerateId(),
			Email:    internal.GenerateId() + "@example.com",
		})
	}

	//create context
	ctx := context.TODO()

	//clear cache
	err := c.cache.Clear(ctx)
	assert.Nil(t, err)

	// read employees before they're cached
	employeesRead, err := c.EmployeesRead(ctx)
	assert.ErrorIs(t, err, cache.ErrEmployeesNotCached)
	assert.Nil(t, employeesRead)

	// write employees
	err = c.EmployeesWrite(ctx, employees...)
	assert.Nil(t, err)

	// read employees
	employeesRead, err = c.EmployeesRead(ctx)
	assert.Nil(t, err)
	assert.Equal(t, employees, employeesRead)

	// invalidate employees
	err = c.EmployeesInvalidate(ctx)
	assert.Nil(t, err)
	employeesRead, err = c.EmployeesRead(ctx)
	assert.NotNil(t, err)
	assert.Nil(t, employeesRead)

	// an empty collection is still cached
	err = c.EmployeesWrite(ctx)
	assert.Nil(t, err)
	employeesRead, err = c.EmployeesRead(ctx)
	assert.Nil(t, err)
	assert.Empty(t, employeesRead)
}

func testCache(t *testing.T, cacheType string) {
	if cacheType != "memory" {
		if integration, _ := strconv.ParseBool(envs["CACHE_INTEGRATION"]); !integration {
			t.Skipf("cache integration disabled for %s", cacheType)
		}
	}
	c := newCacheTest(cacheType)

	ctx := context.TODO()
	err := c.cache.Configure(envs)
	if !assert.Nil(t, err) {
		assert.FailNow(t, "unable to configure cache")
	}
	err = c.cache.Open(ctx)
	if !assert.Nil(t, err) {
		assert.FailNow(t, "unable to open cache")
	}
	defer func() {
		if err := c.cache.Close(ctx); err != nil {
			t.Logf("error while closing cache: %s", err)
		}
	}()
	t.Run("Cache", c.TestCache)
}

func TestCacheMemory(t *testing.T) {
	testCache(t, "memory")
}

func TestCacheRedis(t *testing.T) {
	testCache(t, "redis")
}

func TestCacheStashMemory(t *testing.T) {
	testCache(t, "stash-memory")
}

func TestCacheMemoryTTL(t *testing.T) {
	ctx := context.TODO()
	c := cache.NewMemory()
	err := c.Configure(map[string]string{"CACHE_TTL": "1"})
	assert.Nil(t, err)
	err = c.Open(ctx)
	assert.Nil(t, err)

	err = c.EmployeesWrite(ctx, &data.Employee{Id: 1})
	assert.Nil(t, err)
	_, err = c.EmployeesRead(ctx)
	assert.Nil(t, err)
	time.Sleep(1500 * time.Millisecond)
	_, err = c.EmployeesRead(ctx)
	assert.ErrorIs(t, err, cache.ErrEmployeesNotCached)
}

func TestNew(t *testing.T) {
	for _, cacheType := range []string{"memory", "redis", "stash-memory", "stash-redis"} {
		c, err := cache.New(cacheType)
		assert.Nil(t, err, cacheType)
		assert.NotNil(t, c, cacheType)
	}
	c, err := cache.New("")
	assert.Nil(t, err)
	assert.Nil(t, c)
	_, err = cache.New("memcached")
	assert.NotNil(t, err)
}
