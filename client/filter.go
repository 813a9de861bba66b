package client

import (
	"strings"

	"github.com/samber/lo"

	"employee-manager/domain"
)

// Filter returns the employees whose name, email or position contains search,
// ignoring case. An empty search matches everyone. The input is not modified.
func Filter(employees []domain.Employee, search string) []domain.Employee {
	needle := strings.ToLower(search)
	return lo.Filter(employees, func(e domain.Employee, _ int) bool {
		return strings.Contains(strings.ToLower(e.Name), needle) ||
			strings.Contains(strings.ToLower(e.Email), needle) ||
			strings.Contains(strings.ToLower(e.Position), needle)
	})
}
