package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/antonio-alexander/go-employee-directory/internal"
	"github.com/antonio-alexander/go-employee-directory/internal/data"
	"github.com/antonio-alexander/go-employee-directory/internal/utilities"

	"github.com/pkg/errors"

	_ "github.com/go-sql-driver/mysql" //import for driver support
)

const tableEmployees = "employees"

var queryCreateTable = fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id BIGINT NOT NULL AUTO_INCREMENT,
	employer_id VARCHAR(100) NOT NULL,
	full_name VARCHAR(255) NOT NULL,
	date_of_joining DATE NOT NULL,
	department VARCHAR(100) NOT NULL,
	designation VARCHAR(100) NOT NULL,
	location VARCHAR(100) NOT NULL,
	email VARCHAR(255) NOT NULL,
	phone VARCHAR(20) NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
	PRIMARY KEY (id),
	UNIQUE KEY uniq_email (email)
);`, tableEmployees)

type mySql struct {
	sync.RWMutex
	config struct {
		Hostname     string        `json:"hostname"`
		Port         string        `json:"port"`
		Username     string        `json:"username"`
		Password     string        `json:"password"`
		Database     string        `json:"database"`
		QueryTimeout time.Duration `json:"query_timeout"`
		ParseTime    bool          `json:"parse_time"`
		connect      connectConfig
	}
	*sql.DB
	utilities.Logger
	opened bool
}

// NewMySql creates a store backed by mysql, ids are issued by the table's
// auto increment and email uniqueness is enforced by a unique key
func NewMySql(parameters ...any) interface {
	internal.Configurer
	internal.Opener
	internal.Clearer
	Store
} {
	m := &mySql{Logger: utilities.NewLogger()}
	for _, parameter := range parameters {
		switch v := parameter.(type) {
		case utilities.Logger:
			m.Logger = v
		}
	}
	return m
}

func (s *mySql) Configure(envs map[string]string) error {
	if databaseHost := envs["DATABASE_HOST"]; databaseHost != "" {
		s.config.Hostname = databaseHost
	}
	if databasePort := envs["DATABASE_PORT"]; databasePort != "" {
		s.config.Port = databasePort
	}
	if database := envs["DATABASE_NAME"]; database != "" {
		s.config.Database = database
	}
	if username := envs["DATABASE_USER"]; username != "" {
		s.config.Username = username
	}
	if password := envs["DATABASE_PASSWORD"]; password != "" {
		s.config.Password = password
	}
	if _, ok := envs["DATABASE_QUERY_TIMEOUT"]; ok {
		i, _ := strconv.ParseInt(envs["DATABASE_QUERY_TIMEOUT"], 10, 64)
		s.config.QueryTimeout = time.Duration(i) * time.Second
	}
	if _, ok := envs["DATABASE_PARSE_TIME"]; ok {
		s.config.ParseTime, _ = strconv.ParseBool(envs["DATABASE_PARSE_TIME"])
	}
	s.config.connect.configure(envs)
	return nil
}

func (s *mySql) Open(ctx context.Context) error {
	s.Lock()
	defer s.Unlock()

	if s.opened {
		return nil
	}
	dataSourceName := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=%t",
		s.config.Username, s.config.Password, s.config.Hostname,
		s.config.Port, s.config.Database, s.config.ParseTime)
	db, err := sql.Open("mysql", dataSourceName)
	if err != nil {
		return err
	}
	if err := s.config.connect.connect(ctx, func() error {
		if err := db.PingContext(ctx); err != nil {
			s.Error(ctx, "unable to ping mysql: %s", err)
			return err
		}
		return nil
	}); err != nil {
		_ = db.Close()
		return err
	}
	var version string
	if err := db.QueryRowContext(ctx, "SELECT VERSION()").Scan(&version); err != nil {
		_ = db.Close()
		return errors.Wrap(err, "unable to read mysql version")
	}
	if err := checkServerVersion(version); err != nil {
		_ = db.Close()
		return err
	}
	if _, err := db.ExecContext(ctx, queryCreateTable); err != nil {
		_ = db.Close()
		return errors.Wrap(err, "unable to create employees table")
	}
	s.DB = db
	s.opened = true
	s.Info(ctx, "connected to mysql database: %s", s.config.Database)
	return nil
}

func (s *mySql) Close(ctx context.Context) error {
	s.Lock()
	defer s.Unlock()

	if !s.opened {
		return nil
	}
	if err := s.DB.Close(); err != nil {
		s.Error(ctx, "error while closing sql: %s", err)
	}
	s.opened = false
	return nil
}

// Clear deletes every row without resetting the auto increment
func (s *mySql) Clear(ctx context.Context) error {
	s.RLock()
	defer s.RUnlock()

	if !s.opened {
		return data.NewStoreError(operationClear, errNotOpened)
	}
	query := fmt.Sprintf("DELETE FROM %s;", tableEmployees)
	if _, err := s.ExecContext(ctx, query); err != nil {
		return data.NewStoreError(operationClear, err)
	}
	return nil
}

func (s *mySql) EmployeesRead(ctx context.Context) ([]*data.Employee, error) {
	ctx, cancel := withTimeout(ctx, s.config.QueryTimeout)
	defer cancel()
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY id ASC;`,
		employeeColumns, tableEmployees)
	rows, err := s.QueryContext(ctx, query)
	if err != nil {
		return nil, data.NewStoreError(operationEmployeesRead, err)
	}
	defer rows.Close()
	employees := []*data.Employee{}
	for rows.Next() {
		employee, err := employeeScan(rows.Scan)
		if err != nil {
			return nil, data.NewStoreError(operationEmployeesRead, err)
		}
		employees = append(employees, employee)
	}
	if err := rows.Err(); err != nil {
		return nil, data.NewStoreError(operationEmployeesRead, err)
	}
	return employees, nil
}

func (s *mySql) employeeRead(ctx context.Context, operation, criteria string, arg any) (*data.Employee, error) {
	ctx, cancel := withTimeout(ctx, s.config.QueryTimeout)
	defer cancel()
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = ?;`,
		employeeColumns, tableEmployees, criteria)
	row := s.QueryRowContext(ctx, query, arg)
	employee, err := employeeScan(row.Scan)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, data.ErrEmployeeNotFound
	case err != nil:
		return nil, data.NewStoreError(operation, err)
	}
	return employee, nil
}

func (s *mySql) EmployeeRead(ctx context.Context, id int64) (*data.Employee, error) {
	return s.employeeRead(ctx, operationEmployeeRead, "id", id)
}

func (s *mySql) EmployeeReadByEmail(ctx context.Context, email string) (*data.Employee, error) {
	return s.employeeRead(ctx, operationEmployeeReadByEmail, "email", email)
}

func (s *mySql) EmployeeCreate(ctx context.Context, payload data.EmployeePayload) (*data.Employee, error) {
	ctx, cancel := withTimeout(ctx, s.config.QueryTimeout)
	defer cancel()
	query := fmt.Sprintf(`INSERT INTO %s (employer_id, full_name,
		date_of_joining, department, designation, location, email, phone)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?);`, tableEmployees)
	result, err := s.ExecContext(ctx, query,
		payload.EmployerId, payload.FullName, payload.DateOfJoining,
		payload.Department, payload.Designation, payload.Location,
		payload.Email, payload.Phone)
	if err != nil {
		if isDuplicateEntry(err) {
			return nil, data.ErrEmployeeConflict
		}
		return nil, data.NewStoreError(operationEmployeeCreate, err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, data.NewStoreError(operationEmployeeCreate, err)
	}
	return payload.ToEmployee(id), nil
}

func (s *mySql) EmployeeDelete(ctx context.Context, id int64) (bool, error) {
	ctx, cancel := withTimeout(ctx, s.config.QueryTimeout)
	defer cancel()
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = ?;`,
		tableEmployees)
	result, err := s.ExecContext(ctx, query, id)
	if err != nil {
		return false, data.NewStoreError(operationEmployeeDelete, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, data.NewStoreError(operationEmployeeDelete, err)
	}
	return n > 0, nil
}
