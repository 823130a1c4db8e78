package store

import (
	"context"
	"strconv"
	"time"

	"github.com/antonio-alexander/go-employee-directory/internal"
	"github.com/antonio-alexander/go-employee-directory/internal/data"

	"github.com/cenkalti/backoff/v5"
	"github.com/pkg/errors"
)

const (
	operationEmployeesRead       string = "employees_read"
	operationEmployeeRead        string = "employee_read"
	operationEmployeeReadByEmail string = "employee_read_by_email"
	operationEmployeeCreate      string = "employee_create"
	operationEmployeeDelete      string = "employee_delete"
	operationClear               string = "clear"
)

var errNotOpened = errors.New("store not opened")

const (
	defaultConnectRetries  int           = 5
	defaultConnectInterval time.Duration = time.Second
)

// Store is the sole owner of persisted employees; reads return
// data.ErrEmployeeNotFound when an employee is confirmed absent and a
// *data.StoreError when the store couldn't be reached
type Store interface {
	EmployeesRead(ctx context.Context) ([]*data.Employee, error)
	EmployeeRead(ctx context.Context, id int64) (*data.Employee, error)
	EmployeeReadByEmail(ctx context.Context, email string) (*data.Employee, error)
	EmployeeCreate(ctx context.Context, payload data.EmployeePayload) (*data.Employee, error)
	EmployeeDelete(ctx context.Context, id int64) (bool, error)
}

type connectConfig struct {
	retries  int
	interval time.Duration
}

func (c *connectConfig) configure(envs map[string]string) {
	c.retries, c.interval = defaultConnectRetries, defaultConnectInterval
	if s, ok := envs["STORE_CONNECT_RETRIES"]; ok {
		if retries, err := strconv.Atoi(s); err == nil && retries > 0 {
			c.retries = retries
		}
	}
	if s, ok := envs["STORE_CONNECT_INTERVAL"]; ok {
		if interval, err := strconv.Atoi(s); err == nil && interval > 0 {
			c.interval = time.Duration(interval) * time.Second
		}
	}
}

// connect attempts to connect with an exponential backoff, once retries are
// exhausted the last error is returned
func (c *connectConfig) connect(ctx context.Context, connectFx func() error) error {
	retries := c.retries
	if retries <= 0 {
		retries = 1
	}
	b := backoff.NewExponentialBackOff()
	if c.interval > 0 {
		b.InitialInterval = c.interval
	}
	if _, err := backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, connectFx()
	}, backoff.WithBackOff(b), backoff.WithMaxTries(uint(retries))); err != nil {
		return errors.Wrap(err, "unable to connect to store")
	}
	return nil
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// New creates the store for the given type: mongo (default), mysql or memory
func New(storeType string, parameters ...any) (interface {
	internal.Configurer
	internal.Opener
	Store
}, error) {
	switch storeType {
	default:
		return nil, errors.Errorf("unsupported store type: %s", storeType)
	case "", "mongo":
		return NewMongo(parameters...), nil
	case "mysql":
		return NewMySql(parameters...), nil
	case "memory":
		return NewMemory(parameters...), nil
	}
}
