package logic

import (
	"context"
	"strconv"
	"sync"

	"github.com/antonio-alexander/go-employee-directory/internal"
	"github.com/antonio-alexander/go-employee-directory/internal/data"
	"github.com/antonio-alexander/go-employee-directory/internal/store"
	"github.com/antonio-alexander/go-employee-directory/internal/utilities"

	"github.com/pkg/errors"
)

type Logic interface {
	EmployeesRead(ctx context.Context) ([]*data.Employee, error)
	EmployeeRead(ctx context.Context, id int64) (*data.Employee, error)
	EmployeeCreate(ctx context.Context, payload data.EmployeePayload) (*data.Employee, error)
	EmployeeDelete(ctx context.Context, id int64) error
}

type logic struct {
	sync.RWMutex
	store.Store
	utilities.Logger
	config struct {
		mutateDisabled bool
	}
}

func NewLogic(parameters ...any) interface {
	internal.Configurer
	internal.Opener
	Logic
} {
	l := &logic{Logger: utilities.NewLogger()}
	for _, parameter := range parameters {
		switch v := parameter.(type) {
		case store.Store:
			l.Store = v
		case utilities.Logger:
			l.Logger = v
		}
	}
	return l
}

func (l *logic) Configure(envs map[string]string) error {
	l.Lock()
	defer l.Unlock()

	if mutateDisabled, ok := envs["MUTATE_DISABLED"]; ok {
		l.config.mutateDisabled, _ = strconv.ParseBool(mutateDisabled)
	}
	return nil
}

func (l *logic) Open(ctx context.Context) error {
	l.Lock()
	defer l.Unlock()

	if l.Store == nil {
		return errors.New("logic: store not provided")
	}
	if l.config.mutateDisabled {
		l.Info(ctx, "logic: mutation disabled")
	}
	return nil
}

func (l *logic) Close(ctx context.Context) error {
	return nil
}

func (l *logic) isMutateDisabled() bool {
	l.RLock()
	defer l.RUnlock()

	return l.config.mutateDisabled
}

// EmployeeCreate persists an already validated payload; the email is checked
// for uniqueness first, but the check and the insert aren't atomic, the store's
// unique constraint is what ultimately rejects a duplicate
func (l *logic) EmployeeCreate(ctx context.Context, payload data.EmployeePayload) (*data.Employee, error) {
	if l.isMutateDisabled() {
		return nil, data.ErrMutationDisabled
	}
	_, err := l.Store.EmployeeReadByEmail(ctx, payload.Email)
	switch {
	case err == nil:
		l.Debug(ctx, "employee with email %s already exists", payload.Email)
		return nil, data.ErrEmployeeConflict
	case !errors.Is(err, data.ErrEmployeeNotFound):
		return nil, err
	}
	employee, err := l.Store.EmployeeCreate(ctx, payload)
	if err != nil {
		return nil, err
	}
	l.Trace(ctx, "created employee: %d", employee.Id)
	return employee, nil
}

func (l *logic) EmployeesRead(ctx context.Context) ([]*data.Employee, error) {
	return l.Store.EmployeesRead(ctx)
}

func (l *logic) EmployeeRead(ctx context.Context, id int64) (*data.Employee, error) {
	return l.Store.EmployeeRead(ctx, id)
}

func (l *logic) EmployeeDelete(ctx context.Context, id int64) error {
	if l.isMutateDisabled() {
		return data.ErrMutationDisabled
	}
	deleted, err := l.Store.EmployeeDelete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return data.ErrEmployeeNotFound
	}
	l.Trace(ctx, "deleted employee: %d", id)
	return nil
}
