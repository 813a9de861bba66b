package storage

import (
	"context"

	"github.com/google/uuid"

	"employee-manager/domain"
)

// Store is the record store contract shared by every implementation in
// this package. api.Storage is satisfied by each of them.
type Store interface {
	CreateEmployee(ctx context.Context, p domain.Patch) (domain.Employee, error)
	ListEmployees(ctx context.Context) ([]domain.Employee, error)
	UpdateEmployee(ctx context.Context, id string, p domain.Patch) (domain.Employee, error)
	DeleteEmployee(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}

var (
	_ Store = (*TableStore)(nil)
	_ Store = (*MongoStore)(nil)
	_ Store = (*BadgerStore)(nil)
	_ Store = (*Cache)(nil)
)

// newID returns a time-ordered identifier so that key order matches
// insertion order in stores that scan by key.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
