package utilities_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/antonio-alexander/go-employee-directory/internal"
	"github.com/antonio-alexander/go-employee-directory/internal/utilities"

	"github.com/stretchr/testify/assert"
)

func TestLogger(t *testing.T) {
	buffer := &bytes.Buffer{}
	logger := utilities.NewLogger(buffer)
	ctx := internal.CtxWithCorrelationId(context.TODO(), "abc")

	// unconfigured loggers are silent
	logger.Error(ctx, "error: %d", 1)
	assert.Empty(t, buffer.String())

	err := logger.Configure(map[string]string{"LOG_LEVEL": "info"})
	assert.Nil(t, err)
	logger.Info(ctx, "info: %d", 2)
	logger.Debug(ctx, "debug: %d", 3)
	assert.Contains(t, buffer.String(), "[info] (abc) info: 2")
	assert.NotContains(t, buffer.String(), "debug: 3")
}

func TestCounter(t *testing.T) {
	counter := utilities.NewCounter()

	assert.Equal(t, 1, counter.IncrementHit("employees"))
	assert.Equal(t, 2, counter.IncrementHit("employees"))
	assert.Equal(t, 1, counter.IncrementMiss("employees"))
	hit, miss := counter.Read("employees")
	assert.Equal(t, 2, hit)
	assert.Equal(t, 1, miss)
	counters := counter.ReadAll()
	assert.Equal(t, 2, counters.CounterHits["employees"])
	counter.Reset()
	hit, miss = counter.Read("employees")
	assert.Zero(t, hit)
	assert.Zero(t, miss)
}

func TestTimers(t *testing.T) {
	timers := utilities.NewTimers()

	index := timers.Start("employee_create")
	assert.Equal(t, 0, index)
	assert.GreaterOrEqual(t, timers.Stop("employee_create", index), int64(0))
	assert.Equal(t, int64(-1), timers.Stop("employee_create", 5))
	assert.Equal(t, int64(-1), timers.Stop("employee_read", 0))
	_ = timers.Start("employee_read")
	snapshot := timers.ReadAll()
	assert.Contains(t, snapshot.Totals, "employee_create")
	assert.Contains(t, snapshot.Totals, "employee_read")
	assert.NotContains(t, snapshot.Averages, "employee_read")
	timers.Clear()
	assert.Empty(t, timers.ReadAll().Totals)
}
