package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/antonio-alexander/go-employee-directory/internal"
	"github.com/antonio-alexander/go-employee-directory/internal/cache"
	"github.com/antonio-alexander/go-employee-directory/internal/data"
	"github.com/antonio-alexander/go-employee-directory/internal/utilities"

	"github.com/cenkalti/backoff/v5"
	"github.com/pkg/errors"
)

const (
	defaultReadRetries       int           = 3
	defaultReadRetryInterval time.Duration = 250 * time.Millisecond
)

type Client interface {
	EmployeesRead(ctx context.Context) ([]*data.Employee, error)
	EmployeeRead(ctx context.Context, id int64) (*data.Employee, error)
	EmployeeCreate(ctx context.Context, payload data.EmployeePayload) (*data.Employee, error)
	EmployeeDelete(ctx context.Context, id int64) error
	TimersRead(ctx context.Context) (*data.Timers, error)
	TimersClear(ctx context.Context) error
}

type client struct {
	sync.RWMutex
	config struct {
		protocol          string
		address           string
		port              string
		timeout           int64
		sslCaFile         string
		sslCrtFile        string
		sslKeyFile        string
		cacheDisabled     bool
		readRetries       int
		readRetryInterval time.Duration
	}
	address string
	cache   cache.Cache
	counter utilities.Counter
	utilities.Logger
	*http.Client
}

func NewClient(parameters ...any) interface {
	internal.Configurer
	internal.Opener
	Client
} {
	c := &client{
		Client: &http.Client{},
		Logger: utilities.NewLogger(),
	}
	c.config.protocol = "http"
	c.config.readRetries = defaultReadRetries
	c.config.readRetryInterval = defaultReadRetryInterval
	for _, parameter := range parameters {
		switch p := parameter.(type) {
		case cache.Cache:
			c.cache = p
		case utilities.Counter:
			c.counter = p
		case utilities.Logger:
			c.Logger = p
		}
	}
	return c
}

func (c *client) doRequest(ctx context.Context, uri, method string, body []byte) ([]byte, error) {
	var reader io.Reader

	if body != nil {
		reader = bytes.NewReader(body)
	}
	request, err := http.NewRequestWithContext(ctx, method, uri, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		request.Header.Add("Content-Type", "application/json")
		request.Header.Add("Content-Length", strconv.Itoa(len(body)))
	}
	if correlationId := internal.CorrelationIdFromCtx(ctx); correlationId != "" {
		request.Header.Add(internal.CorrelationIdHeader, correlationId)
	}
	response, err := c.Do(request)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()
	bytes, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, err
	}
	switch response.StatusCode {
	default:
		responseErr := &data.ResponseError{StatusCode: response.StatusCode}
		message := &data.Message{}
		if err := json.Unmarshal(bytes, message); err == nil {
			responseErr.Message, responseErr.Errors = message.Message, message.Errors
		}
		return nil, responseErr
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
		return bytes, nil
	}
}

// doRead executes an idempotent request, transport failures and server
// errors are retried with an exponential backoff
func (c *client) doRead(ctx context.Context, uri string) ([]byte, error) {
	c.RLock()
	retries, interval := c.config.readRetries, c.config.readRetryInterval
	c.RUnlock()

	if retries <= 0 {
		retries = 1
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = interval
	return backoff.Retry(ctx, func() ([]byte, error) {
		bytes, err := c.doRequest(ctx, uri, http.MethodGet, nil)
		var responseErr *data.ResponseError
		if errors.As(err, &responseErr) && responseErr.StatusCode < http.StatusInternalServerError {
			return nil, backoff.Permanent(err)
		}
		if err != nil {
			c.Debug(ctx, "error while reading %s (retrying): %s", uri, err)
		}
		return bytes, err
	}, backoff.WithBackOff(b), backoff.WithMaxTries(uint(retries)))
}

func (c *client) cacheEnabled() bool {
	return c.cache != nil && !c.config.cacheDisabled
}

func (c *client) Configure(envs map[string]string) error {
	c.Lock()
	defer c.Unlock()

	if address, ok := envs["CLIENT_ADDRESS"]; ok {
		c.config.address = address
	}
	if port, ok := envs["CLIENT_PORT"]; ok {
		c.config.port = port
	}
	if protocol, ok := envs["CLIENT_PROTOCOL"]; ok && protocol != "" {
		c.config.protocol = protocol
	}
	if timeout, ok := envs["CLIENT_TIMEOUT"]; ok && timeout != "" {
		i, err := strconv.ParseInt(timeout, 10, 64)
		if err != nil {
			return err
		}
		c.config.timeout = i
	}
	if readRetries, ok := envs["CLIENT_READ_RETRIES"]; ok && readRetries != "" {
		i, err := strconv.Atoi(readRetries)
		if err != nil {
			return err
		}
		c.config.readRetries = i
	}
	if readRetryInterval, ok := envs["CLIENT_READ_RETRY_INTERVAL"]; ok && readRetryInterval != "" {
		i, err := strconv.Atoi(readRetryInterval)
		if err != nil {
			return err
		}
		c.config.readRetryInterval = time.Duration(i) * time.Millisecond
	}
	if sslCaFile, ok := envs["SSL_CA_FILE"]; ok {
		c.config.sslCaFile = sslCaFile
	}
	if sslKeyFile, ok := envs["SSL_KEY_FILE"]; ok {
		c.config.sslKeyFile = sslKeyFile
	}
	if sslCrtFile, ok := envs["SSL_CRT_FILE"]; ok {
		c.config.sslCrtFile = sslCrtFile
	}
	if cacheDisabled, ok := envs["CACHE_DISABLED"]; ok {
		c.config.cacheDisabled, _ = strconv.ParseBool(cacheDisabled)
	}
	return nil
}

func (c *client) Open(ctx context.Context) error {
	c.Lock()
	defer c.Unlock()

	switch c.config.protocol {
	default:
		return errors.Errorf("unsupported protocol: %s", c.config.protocol)
	case "http", "https":
		c.address = fmt.Sprintf("%s://%s", c.config.protocol,
			net.JoinHostPort(c.config.address, c.config.port))
	}
	if !c.cacheEnabled() {
		c.Info(ctx, "client: cache disabled")
	}
	c.Client.Timeout = time.Duration(c.config.timeout) * time.Second
	tlsConfig, err := internal.GetTlsConfig(c.config.sslCrtFile,
		c.config.sslKeyFile, c.config.sslCaFile)
	if err != nil {
		return err
	}
	c.Client.Transport = &http.Transport{TLSClientConfig: tlsConfig}
	return nil
}

func (c *client) Close(ctx context.Context) error {
	c.Lock()
	defer c.Unlock()

	c.Client.CloseIdleConnections()
	return nil
}

func (c *client) invalidate(ctx context.Context) {
	if !c.cacheEnabled() {
		return
	}
	if err := c.cache.EmployeesInvalidate(ctx); err != nil {
		c.Error(ctx, "error while invalidating employees in cache: %s", err)
	}
}

// EmployeesRead returns the cached collection if there is one, otherwise
// the collection is fetched and cached
func (c *client) EmployeesRead(ctx context.Context) ([]*data.Employee, error) {
	if c.cacheEnabled() {
		employees, err := c.cache.EmployeesRead(ctx)
		switch {
		case err == nil:
			if c.counter != nil {
				c.counter.IncrementHit(data.ResourceEmployees)
			}
			return employees, nil
		case !errors.Is(err, cache.ErrEmployeesNotCached):
			c.Error(ctx, "error while reading employees from cache: %s", err)
		}
		if c.counter != nil {
			c.counter.IncrementMiss(data.ResourceEmployees)
		}
	}
	bytes, err := c.doRead(ctx, c.address+data.RouteEmployees)
	if err != nil {
		return nil, err
	}
	employees := []*data.Employee{}
	if err := json.Unmarshal(bytes, &employees); err != nil {
		return nil, err
	}
	if c.cacheEnabled() {
		if err := c.cache.EmployeesWrite(ctx, employees...); err != nil {
			c.Error(ctx, "error while writing employees to cache: %s", err)
		}
	}
	return employees, nil
}

func (c *client) EmployeeRead(ctx context.Context, id int64) (*data.Employee, error) {
	uri := fmt.Sprintf(c.address+data.RouteEmployeesIdf, id)
	bytes, err := c.doRead(ctx, uri)
	if err != nil {
		return nil, err
	}
	employee := &data.Employee{}
	if err := json.Unmarshal(bytes, employee); err != nil {
		return nil, err
	}
	return employee, nil
}

// EmployeeCreate posts the payload; the cached collection is only
// invalidated once the service has accepted the employee
func (c *client) EmployeeCreate(ctx context.Context, payload data.EmployeePayload) (*data.Employee, error) {
	bytes, err := json.Marshal(&payload)
	if err != nil {
		return nil, err
	}
	bytes, err = c.doRequest(ctx, c.address+data.RouteEmployees, http.MethodPost, bytes)
	if err != nil {
		return nil, err
	}
	employee := &data.Employee{}
	if err := json.Unmarshal(bytes, employee); err != nil {
		return nil, err
	}
	c.invalidate(ctx)
	return employee, nil
}

func (c *client) EmployeeDelete(ctx context.Context, id int64) error {
	uri := fmt.Sprintf(c.address+data.RouteEmployeesIdf, id)
	if _, err := c.doRequest(ctx, uri, http.MethodDelete, nil); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

func (c *client) TimersRead(ctx context.Context) (*data.Timers, error) {
	bytes, err := c.doRead(ctx, c.address+data.RouteTimers)
	if err != nil {
		return nil, err
	}
	timers := &data.Timers{}
	if err := json.Unmarshal(bytes, timers); err != nil {
		return nil, err
	}
	return timers, nil
}

func (c *client) TimersClear(ctx context.Context) error {
	if _, err := c.doRequest(ctx, c.address+data.RouteTimers, http.MethodDelete, nil); err != nil {
		return err
	}
	return nil
}
