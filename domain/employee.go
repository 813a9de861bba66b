package domain

// Employee is the only record kept by the system.
type Employee struct {
	ID       string   `json:"id"`
	Name     string   `json:"name,omitempty"`
	Email    string   `json:"email,omitempty"`
	Position string   `json:"position,omitempty"`
	Salary   *float64 `json:"salary,omitempty"`
}

// Patch carries the fields supplied by a create or update request.
// Nil pointers leave the current value untouched. SalarySet distinguishes an
// explicit null salary (clear) from an absent one.
type Patch struct {
	Name      *string
	Email     *string
	Position  *string
	Salary    *float64
	SalarySet bool
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Name == nil && p.Email == nil && p.Position == nil && !p.SalarySet
}

// Apply returns a copy of e with the patch merged in. The id never changes.
func (e Employee) Apply(p Patch) Employee {
	out := e
	if p.Name != nil {
		out.Name = *p.Name
	}
	if p.Email != nil {
		out.Email = *p.Email
	}
	if p.Position != nil {
		out.Position = *p.Position
	}
	if p.SalarySet {
		if p.Salary == nil {
			out.Salary = nil
		} else {
			v := *p.Salary
			out.Salary = &v
		}
	}
	return out
}
