package store_test

import (
	"context"
	"os"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/antonio-alexander/go-employee-directory/internal"
	"github.com/antonio-alexander/go-employee-directory/internal/data"
	"github.com/antonio-alexander/go-employee-directory/internal/store"

	"github.com/stretchr/testify/assert"
)

var (
	envs = map[string]string{
		//mongo
		"MONGO_URI":        "mongodb://localhost:27017",
		"MONGO_DATABASE":   "employees_test",
		"MONGO_COLLECTION": "employees",
		"MONGO_TIMEOUT":    "10",

		//mysql
		"DATABASE_HOST":          "localhost",
		"DATABASE_PORT":          "3306",
		"DATABASE_NAME":          "employees",
		"DATABASE_USER":          "mysql",
		"DATABASE_PASSWORD":      "mysql",
		"DATABASE_QUERY_TIMEOUT": "10",
		"DATABASE_PARSE_TIME":    "true",

		//store
		"STORE_CONNECT_RETRIES":  "1",
		"STORE_CONNECT_INTERVAL": "1",
		"STORE_INTEGRATION":      "false",
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

type storeTest struct {
	store interface {
		internal.Configurer
		internal.Opener
		internal.Clearer
	}
	store.Store
}

func newStoreTest(storeType string) *storeTest {
	var s interface {
		internal.Configurer
		internal.Opener
		internal.Clearer
		store.Store
	}

	switch storeType {
	case "memory":
		s = store.NewMemory()
	case "mongo":
		s = store.NewMongo()
	case "mysql":
		s = store.NewMySql()
	}
	return &storeTest{
		store: s,
		Store: s,
	}
}

func (s *storeTest) TestEmpty(t *testing.T) {
	ctx := context.TODO()

	err := s.store.Clear(ctx)
	assert.Nil(t, err)
	employees, err := s.EmployeesRead(ctx)
	assert.Nil(t, err)
	assert.NotNil(t, employees)
	assert.Empty(t, employees)
}

func (s *storeTest) TestStore(t *testing.T) {
	ctx := context.TODO()

	// create employee
	payload := newPayload()
	employeeCreated, err := s.EmployeeCreate(ctx, payload)
	assert.Nil(t, err)
	if !assert.NotNil(t, employeeCreated) {
		t.FailNow()
	}
	assert.Greater(t, employeeCreated.Id, int64(0))
	assert.Equal(t, payload.ToEmployee(employeeCreated.Id), employeeCreated)
	id := employeeCreated.Id
	defer func(id int64) {
		_, _ = s.EmployeeDelete(ctx, id)
	}(id)

	// read employee
	employeeRead, err := s.EmployeeRead(ctx, id)
	assert.Nil(t, err)
	assert.Equal(t, employeeCreated, employeeRead)

	// read employee by email
	employeeRead, err = s.EmployeeReadByEmail(ctx, payload.Email)
	assert.Nil(t, err)
	assert.Equal(t, employeeCreated, employeeRead)

	// create employee with the same email
	duplicate := newPayload()
	duplicate.Email = payload.Email
	employeeDuplicate, err := s.EmployeeCreate(ctx, duplicate)
	assert.ErrorIs(t, err, data.ErrEmployeeConflict)
	assert.Nil(t, employeeDuplicate)

	// read employees
	employees, err := s.EmployeesRead(ctx)
	assert.Nil(t, err)
	assert.Contains(t, employees, employeeCreated)
	n := 0
	for _, employee := range employees {
		if employee.Email == payload.Email {
			n++
		}
	}
	assert.Equal(t, 1, n)

	// delete employee
	deleted, err := s.EmployeeDelete(ctx, id)
	assert.Nil(t, err)
	assert.True(t, deleted)

	// read employee again
	employeeRead, err = s.EmployeeRead(ctx, id)
	assert.ErrorIs(t, err, data.ErrEmployeeNotFound)
	assert.Nil(t, employeeRead)
	employeeRead, err = s.EmployeeReadByEmail(ctx, payload.Email)
	assert.ErrorIs(t, err, data.ErrEmployeeNotFound)
	assert.Nil(t, employeeRead)

	// delete employee again
	deleted, err = s.EmployeeDelete(ctx, id)
	assert.Nil(t, err)
	assert.False(t, deleted)
}

func (s *storeTest) TestOrdering(t *testing.T) {
	ctx := context.TODO()

	var created []*data.Employee
	for range 3 {
		employee, err := s.EmployeeCreate(ctx, newPayload())
		if !assert.Nil(t, err) {
			t.FailNow()
		}
		created = append(created, employee)
	}
	defer func() {
		for _, employee := range created {
			_, _ = s.EmployeeDelete(ctx, employee.Id)
		}
	}()
	assert.Less(t, created[0].Id, created[1].Id)
	assert.Less(t, created[1].Id, created[2].Id)

	// deleting the newest employee must not allow its id to be reissued
	deleted, err := s.EmployeeDelete(ctx, created[2].Id)
	assert.Nil(t, err)
	assert.True(t, deleted)
	employee, err := s.EmployeeCreate(ctx, newPayload())
	assert.Nil(t, err)
	if assert.NotNil(t, employee) {
		assert.Greater(t, employee.Id, created[2].Id)
		created = append(created, employee)
	}

	employees, err := s.EmployeesRead(ctx)
	assert.Nil(t, err)
	for i := 1; i < len(employees); i++ {
		assert.Less(t, employees[i-1].Id, employees[i].Id)
	}
}

func (s *storeTest) TestConcurrentCreate(t *testing.T) {
	const nGoRoutines int = 10

	var wg sync.WaitGroup
	var mu sync.Mutex

	ctx := context.TODO()
	ids := make(map[int64]struct{})
	start := make(chan struct{})
	for range nGoRoutines {
		wg.Add(1)
		go func() {
			defer wg.Done()

			<-start
			employee, err := s.EmployeeCreate(ctx, newPayload())
			if !assert.Nil(t, err) {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			ids[employee.Id] = struct{}{}
		}()
	}
	close(start)
	wg.Wait()
	assert.Len(t, ids, nGoRoutines)
	for id := range ids {
		_, _ = s.EmployeeDelete(ctx, id)
	}
}

func testStore(t *testing.T, storeType string) {
	if storeType != "memory" {
		if integration, _ := strconv.ParseBool(envs["STORE_INTEGRATION"]); !integration {
			t.Skipf("store integration disabled for %s", storeType)
		}
	}
	s := newStoreTest(storeType)

	ctx := context.TODO()
	err := s.store.Configure(envs)
	if !assert.Nil(t, err) {
		assert.FailNow(t, "unable to configure store")
	}
	err = s.store.Open(ctx)
	if !assert.Nil(t, err) {
		assert.FailNow(t, "unable to open store")
	}
	defer func() {
		if err := s.store.Close(ctx); err != nil {
			t.Logf("error while closing store: %s", err)
		}
	}()
	t.Run("Empty", s.TestEmpty)
	t.Run("Store", s.TestStore)
	t.Run("Ordering", s.TestOrdering)
	t.Run("Concurrent Create", s.TestConcurrentCreate)
}

func TestStoreMemory(t *testing.T) {
	testStore(t, "memory")
}

func TestStoreMongo(t *testing.T) {
	testStore(t, "mongo")
}

func TestStoreMySql(t *testing.T) {
	testStore(t, "mysql")
}

func TestMemorySeed(t *testing.T) {
	ctx := context.TODO()

	seed := data.Employees{
		newPayload().ToEmployee(7),
		newPayload().ToEmployee(3),
	}
	s := store.NewMemory(seed)
	err := s.Open(ctx)
	assert.Nil(t, err)

	employees, err := s.EmployeesRead(ctx)
	assert.Nil(t, err)
	if assert.Len(t, employees, 2) {
		assert.Equal(t, int64(3), employees[0].Id)
		assert.Equal(t, int64(7), employees[1].Id)
	}
	employee, err := s.EmployeeCreate(ctx, newPayload())
	assert.Nil(t, err)
	assert.Equal(t, int64(8), employee.Id)

	_, err = s.EmployeeCreate(ctx, data.EmployeePayload{Email: seed[0].Email})
	assert.ErrorIs(t, err, data.ErrEmployeeConflict)
}

func TestNew(t *testing.T) {
	for _, storeType := range []string{"", "mongo", "mysql", "memory"} {
		s, err := store.New(storeType)
		assert.Nil(t, err)
		assert.NotNil(t, s)
	}
	s, err := store.New("postgres")
	assert.NotNil(t, err)
	assert.Nil(t, s)
}

func TestClearBeforeOpen(t *testing.T) {
	ctx := context.TODO()

	for storeType, s := range map[string]interface {
		internal.Configurer
		internal.Clearer
	}{
		"mongo": store.NewMongo(),
		"mysql": store.NewMySql(),
	} {
		err := s.Configure(envs)
		assert.Nil(t, err, storeType)
		assert.NotPanics(t, func() {
			err = s.Clear(ctx)
		}, storeType)
		var storeErr *data.StoreError
		assert.ErrorAs(t, err, &storeErr, storeType)
	}

	// the memory store has nothing to connect to
	m := store.NewMemory()
	assert.Nil(t, m.Clear(ctx))
}
