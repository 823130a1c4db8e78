package data

const (
	RouteApi          string = "/api"
	RouteEmployees    string = RouteApi + "/employees"
	RouteEmployeesId  string = RouteEmployees + "/{" + PathId + "}"
	RouteEmployeesIdf string = RouteEmployees + "/%d"
	RouteTimers       string = RouteApi + "/timers"
)

const PathId string = "id"

// ResourceEmployees is the key of the cached employees collection
const ResourceEmployees string = "employees"

const (
	MessageValidation       string = "Validation error"
	MessageEmployeeDeleted  string = "Employee deleted successfully"
	MessageEmployeesFailed  string = "Failed to fetch employees"
	MessageEmployeeFailed   string = "Failed to fetch employee"
	MessageCreateFailed     string = "Failed to create employee"
	MessageDeleteFailed     string = "Failed to delete employee"
	MessageMethodNotAllowed string = "Method not allowed"
)

// FieldError describes why a single field of a payload was rejected
type FieldError struct {
	Path    []string `json:"path"`
	Message string   `json:"message"`
}

// Message is the body of every non-employee response
type Message struct {
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`
}
