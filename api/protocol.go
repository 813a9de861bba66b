package api

const employeeBodyMaxSize = 64 * 1024 // 64 KiB

const employeeNotFound = "Employee not found"

// error body shared by every non-2xx response
type errorResponse struct {
	Error string `json:"error"`
}
