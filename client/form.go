package client

import (
	"fmt"
	"strconv"

	"employee-manager/domain"
)

// Form mirrors the editable fields of an employee as entered by the user.
// ID is set only when the form was filled from an existing row.
type Form struct {
	ID       string
	Name     string
	Email    string
	Position string
	Salary   string
}

// FormFields lists the names accepted by Session.SetField.
var FormFields = []string{"name", "email", "position", "salary"}

// FormFrom copies an employee's fields, id included, into a Form.
func FormFrom(e domain.Employee) Form {
	f := Form{
		ID:       e.ID,
		Name:     e.Name,
		Email:    e.Email,
		Position: e.Position,
	}
	if e.Salary != nil {
		f.Salary = strconv.FormatFloat(*e.Salary, 'f', -1, 64)
	}
	return f
}

func (f Form) body() map[string]string {
	return map[string]string{
		"name":     f.Name,
		"email":    f.Email,
		"position": f.Position,
		"salary":   f.Salary,
	}
}

func (f *Form) set(name, value string) error {
	switch name {
	case "name":
		f.Name = value
	case "email":
		f.Email = value
	case "position":
		f.Position = value
	case "salary":
		f.Salary = value
	default:
		return fmt.Errorf("unknown field %q", name)
	}
	return nil
}
