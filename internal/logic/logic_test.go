package logic_test

import (
	"context"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/antonio-alexander/go-employee-directory/internal"
	"github.com/antonio-alexander/go-employee-directory/internal/data"
	"github.com/antonio-alexander/go-employee-directory/internal/logic"
	"github.com/antonio-alexander/go-employee-directory/internal/store"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

var (
	envs = map[string]string{
		"MUTATE_DISABLED": "false",
	}
)

func init() {
	for _, env := range os.Environ() {
		if s := strings.Split(env, "="); len(s) > 1 {
			envs[s[0]] = strings.Join(s[1:], "=")
		}
	}
}

func newPayload() data.EmployeePayload {
	id := internal.GenerateId()
	return data.EmployeePayload{
		EmployerId:    "EMP-" + id[:8],
		FullName:      "Ada " + id[:12],
		DateOfJoining: "2023-01-01",
		Department:    "Engineering",
		Designation:   "Engineer",
		Location:      "Remote",
		Email:         id + "@example.com",
		Phone:         "555-0100",
	}
}

// failingStore simulates a store that can't be reached
type failingStore struct {
	store.Store
	err error
}

func (f *failingStore) EmployeeReadByEmail(ctx context.Context, email string) (*data.Employee, error) {
	return nil, data.NewStoreError("employee_read_by_email", f.err)
}

func (f *failingStore) EmployeeDelete(ctx context.Context, id int64) (bool, error) {
	return false, data.NewStoreError("employee_delete", f.err)
}

type logicTest struct {
	store interface {
		internal.Configurer
		internal.Opener
		store.Store
	}
	logic interface {
		internal.Configurer
		internal.Opener
	}
	logic.Logic
}

func newLogicTest(parameters ...any) *logicTest {
	store := store.NewMemory()
	logic := logic.NewLogic(append(parameters, store)...)
	return &logicTest{
		store: store,
		logic: logic,
		Logic: logic,
	}
}

func (l *logicTest) Configure(envs map[string]string) error {
	if err := l.store.Configure(envs); err != nil {
		return err
	}
	if err := l.logic.Configure(envs); err != nil {
		return err
	}
	return nil
}

func (l *logicTest) Open(ctx context.Context) error {
	if err := l.store.Open(ctx); err != nil {
		return err
	}
	if err := l.logic.Open(ctx); err != nil {
		return err
	}
	return nil
}

func (l *logicTest) Close(ctx context.Context) error {
	if err := l.logic.Close(ctx); err != nil {
		return err
	}
	if err := l.store.Close(ctx); err != nil {
		return err
	}
	return nil
}

func (l *logicTest) TestLogic(t *testing.T) {
	ctx := context.TODO()

	// read employees from an empty store
	employees, err := l.EmployeesRead(ctx)
	assert.Nil(t, err)
	assert.Empty(t, employees)

	// create employee
	payload := newPayload()
	employeeCreated, err := l.EmployeeCreate(ctx, payload)
	assert.Nil(t, err)
	if !assert.NotNil(t, employeeCreated) {
		t.FailNow()
	}
	assert.Equal(t, payload.ToEmployee(employeeCreated.Id), employeeCreated)
	id := employeeCreated.Id

	// create an employee with the same email
	duplicate := newPayload()
	duplicate.Email = payload.Email
	employeeDuplicate, err := l.EmployeeCreate(ctx, duplicate)
	assert.ErrorIs(t, err, data.ErrEmployeeConflict)
	assert.Nil(t, employeeDuplicate)
	employees, err = l.EmployeesRead(ctx)
	assert.Nil(t, err)
	assert.Equal(t, []*data.Employee{employeeCreated}, employees)

	// read employee
	employeeRead, err := l.EmployeeRead(ctx, id)
	assert.Nil(t, err)
	assert.Equal(t, employeeCreated, employeeRead)

	// delete employee
	err = l.EmployeeDelete(ctx, id)
	assert.Nil(t, err)

	// read employee again
	employeeRead, err = l.EmployeeRead(ctx, id)
	assert.ErrorIs(t, err, data.ErrEmployeeNotFound)
	assert.Nil(t, employeeRead)

	// delete employee again
	err = l.EmployeeDelete(ctx, id)
	assert.ErrorIs(t, err, data.ErrEmployeeNotFound)
}

func (l *logicTest) TestLogicConcurrent(t *testing.T) {
	const nGoRoutines int = 5

	var wg sync.WaitGroup
	var mu sync.Mutex

	ctx := context.TODO()
	created := make(map[int64]string)
	start := make(chan struct{})
	for range nGoRoutines {
		wg.Add(1)
		go func() {
			defer wg.Done()

			payload := newPayload()
			<-start
			employee, err := l.EmployeeCreate(ctx, payload)
			if !assert.Nil(t, err) {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			created[employee.Id] = employee.Email
		}()
	}
	close(start)
	wg.Wait()
	assert.Len(t, created, nGoRoutines)
	for id := range created {
		assert.Nil(t, l.EmployeeDelete(ctx, id))
	}
}

func testLogic(t *testing.T) {
	l := newLogicTest()

	ctx := context.TODO()
	err := l.Configure(envs)
	if !assert.Nil(t, err) {
		assert.FailNow(t, "unable to configure testLogic")
	}
	err = l.Open(ctx)
	if !assert.Nil(t, err) {
		assert.FailNow(t, "unable to open testLogic")
	}
	defer func() {
		if err := l.Close(ctx); err != nil {
			t.Logf("error while closing testLogic: %s", err)
		}
	}()
	t.Run("Logic", l.TestLogic)
	t.Run("Concurrent Create", l.TestLogicConcurrent)
}

func TestLogic(t *testing.T) {
	testLogic(t)
}

func TestLogicMutateDisabled(t *testing.T) {
	l := newLogicTest()

	ctx := context.TODO()
	err := l.Configure(map[string]string{"MUTATE_DISABLED": "true"})
	assert.Nil(t, err)
	err = l.Open(ctx)
	assert.Nil(t, err)

	employee, err := l.EmployeeCreate(ctx, newPayload())
	assert.ErrorIs(t, err, data.ErrMutationDisabled)
	assert.Nil(t, employee)
	err = l.EmployeeDelete(ctx, 1)
	assert.ErrorIs(t, err, data.ErrMutationDisabled)
}

func TestLogicStoreFailure(t *testing.T) {
	ctx := context.TODO()
	cause := errors.New("connection refused")
	l := logic.NewLogic(&failingStore{Store: store.NewMemory(), err: cause})

	employee, err := l.EmployeeCreate(ctx, newPayload())
	assert.Nil(t, employee)
	var storeErr *data.StoreError
	assert.True(t, errors.As(err, &storeErr))
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, data.ErrEmployeeConflict)

	err = l.EmployeeDelete(ctx, 1)
	assert.True(t, errors.As(err, &storeErr))
	assert.NotErrorIs(t, err, data.ErrEmployeeNotFound)
}

func TestLogicOpenWithoutStore(t *testing.T) {
	l := logic.NewLogic()
	err := l.Open(context.TODO())
	assert.NotNil(t, err)
}
