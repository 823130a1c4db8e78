package store

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/antonio-alexander/go-employee-directory/internal/data"

	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
)

// mysqlErrDuplicateEntry is the error number for a unique key violation
const mysqlErrDuplicateEntry uint16 = 1062

// mysqlMinimumMajorVersion is the first release that persists the auto
// increment counter, older servers recompute it from max(id) on restart
// and would reissue the id of a deleted newest employee
const mysqlMinimumMajorVersion = 8

var employeeColumns = fmt.Sprintf(`id, employer_id, full_name,
	DATE_FORMAT(date_of_joining, '%s'), department, designation, location,
	email, phone`, "%Y-%m-%d")

func employeeScan(scanFx func(...interface{}) error) (*data.Employee, error) {
	employee := new(data.Employee)
	if err := scanFx(
		&employee.Id,
		&employee.EmployerId,
		&employee.FullName,
		&employee.DateOfJoining,
		&employee.Department,
		&employee.Designation,
		&employee.Location,
		&employee.Email,
		&employee.Phone,
	); err != nil {
		return nil, err
	}
	return employee, nil
}

func isDuplicateEntry(err error) bool {
	var mysqlErr *mysql.MySQLError

	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlErrDuplicateEntry
}

// checkServerVersion accepts the output of SELECT VERSION(), mariadb
// reports 10.x or later which also persists the counter
func checkServerVersion(version string) error {
	major, _, _ := strings.Cut(strings.TrimSpace(version), ".")
	i, err := strconv.Atoi(major)
	if err != nil {
		return errors.Errorf("unable to parse mysql version %q", version)
	}
	if i < mysqlMinimumMajorVersion {
		return errors.Errorf("mysql version %q unsupported, %d.0 or later is required",
			version, mysqlMinimumMajorVersion)
	}
	return nil
}
