package data

import "encoding/json"

// Departments is the recommended set of departments offered to users, it's
// not enforced by the service
var Departments = []string{
	"Engineering",
	"Marketing",
	"Sales",
	"HR",
	"Finance",
	"Operations",
}

type Employee struct {
	Id            int64  `json:"id"`
	EmployerId    string `json:"employerId"`
	FullName      string `json:"fullName"`
	DateOfJoining string `json:"dateOfJoining"` //ISO date (YYYY-MM-DD)
	Department    string `json:"department"`
	Designation   string `json:"designation"`
	Location      string `json:"location"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
}

func (e *Employee) MarshalBinary() ([]byte, error) {
	return json.Marshal(e)
}

func (e *Employee) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, e)
}

// EmployeePayload is the subset of an employee a client may provide on
// creation, the id is always assigned by the store
type EmployeePayload struct {
	EmployerId    string `json:"employerId" validate:"required,max=100"`
	FullName      string `json:"fullName" validate:"required,max=255"`
	DateOfJoining string `json:"dateOfJoining" validate:"required,datetime=2006-01-02"`
	Department    string `json:"department" validate:"required,max=100"`
	Designation   string `json:"designation" validate:"required,max=100"`
	Location      string `json:"location" validate:"required,max=100"`
	Email         string `json:"email" validate:"required,email,max=255"`
	Phone         string `json:"phone" validate:"required,max=20"`
}

// ToEmployee returns an employee populated with the payload and the given id
func (p EmployeePayload) ToEmployee(id int64) *Employee {
	return &Employee{
		Id:            id,
		EmployerId:    p.EmployerId,
		FullName:      p.FullName,
		DateOfJoining: p.DateOfJoining,
		Department:    p.Department,
		Designation:   p.Designation,
		Location:      p.Location,
		Email:         p.Email,
		Phone:         p.Phone,
	}
}

// Employees is the cached employees collection
type Employees []*Employee

func (e *Employees) MarshalBinary() ([]byte, error) {
	return json.Marshal(e)
}

func (e *Employees) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, e)
}

func CopyEmployee(e *Employee) *Employee {
	employee := &Employee{}
	*employee = *e
	return employee
}

func CopyEmployees(e []*Employee) []*Employee {
	employees := make([]*Employee, 0, len(e))
	for _, employee := range e {
		employees = append(employees, CopyEmployee(employee))
	}
	return employees
}
