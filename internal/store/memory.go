package store

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/antonio-alexander/go-employee-directory/internal"
	"github.com/antonio-alexander/go-employee-directory/internal/data"
	"github.com/antonio-alexander/go-employee-directory/internal/utilities"
)

type memoryStore struct {
	sync.RWMutex
	employees map[int64]*data.Employee //map[id]employee
	emails    map[string]int64         //map[email]id
	seed      data.Employees
	lastId    atomic.Int64
	utilities.Logger
}

// NewMemory creates a store that lives in process memory, a data.Employees
// parameter seeds its contents
func NewMemory(parameters ...any) interface {
	internal.Configurer
	internal.Opener
	internal.Clearer
	Store
} {
	m := &memoryStore{
		Logger:    utilities.NewLogger(),
		employees: make(map[int64]*data.Employee),
		emails:    make(map[string]int64),
	}
	for _, parameter := range parameters {
		switch p := parameter.(type) {
		case utilities.Logger:
			m.Logger = p
		case data.Employees:
			m.seed = p
		}
	}
	return m
}

func (m *memoryStore) Configure(envs map[string]string) error {
	return nil
}

func (m *memoryStore) Open(ctx context.Context) error {
	m.Lock()
	defer m.Unlock()

	var maxId int64

	for _, e := range m.seed {
		employee := data.CopyEmployee(e)
		m.employees[employee.Id] = employee
		m.emails[employee.Email] = employee.Id
		if employee.Id > maxId {
			maxId = employee.Id
		}
	}
	m.lastId.Store(maxId)
	return nil
}

func (m *memoryStore) Close(ctx context.Context) error {
	return nil
}

// Clear removes all employees, ids already issued are not reissued
func (m *memoryStore) Clear(ctx context.Context) error {
	m.Lock()
	defer m.Unlock()

	m.employees = make(map[int64]*data.Employee)
	m.emails = make(map[string]int64)
	return nil
}

func (m *memoryStore) EmployeesRead(ctx context.Context) ([]*data.Employee, error) {
	m.RLock()
	defer m.RUnlock()

	employees := make([]*data.Employee, 0, len(m.employees))
	for _, employee := range m.employees {
		employees = append(employees, data.CopyEmployee(employee))
	}
	sort.Slice(employees, func(i, j int) bool {
		return employees[i].Id < employees[j].Id
	})
	return employees, nil
}

func (m *memoryStore) EmployeeRead(ctx context.Context, id int64) (*data.Employee, error) {
	m.RLock()
	defer m.RUnlock()

	employee, ok := m.employees[id]
	if !ok {
		return nil, data.ErrEmployeeNotFound
	}
	return data.CopyEmployee(employee), nil
}

func (m *memoryStore) EmployeeReadByEmail(ctx context.Context, email string) (*data.Employee, error) {
	m.RLock()
	defer m.RUnlock()

	id, ok := m.emails[email]
	if !ok {
		return nil, data.ErrEmployeeNotFound
	}
	return data.CopyEmployee(m.employees[id]), nil
}

func (m *memoryStore) EmployeeCreate(ctx context.Context, payload data.EmployeePayload) (*data.Employee, error) {
	m.Lock()
	defer m.Unlock()

	if _, ok := m.emails[payload.Email]; ok {
		return nil, data.ErrEmployeeConflict
	}
	employee := payload.ToEmployee(m.lastId.Add(1))
	m.employees[employee.Id] = employee
	m.emails[employee.Email] = employee.Id
	m.Trace(ctx, "stored employee: %d", employee.Id)
	return data.CopyEmployee(employee), nil
}

func (m *memoryStore) EmployeeDelete(ctx context.Context, id int64) (bool, error) {
	m.Lock()
	defer m.Unlock()

	employee, ok := m.employees[id]
	if !ok {
		return false, nil
	}
	delete(m.emails, employee.Email)
	delete(m.employees, id)
	return true, nil
}
