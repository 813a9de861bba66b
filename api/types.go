package api

import (
	"context"

	"employee-manager/domain"
)

// Storage abstracts the record store for handlers.
type Storage interface {
	CreateEmployee(ctx context.Context, p domain.Patch) (domain.Employee, error)
	ListEmployees(ctx context.Context) ([]domain.Employee, error)
	UpdateEmployee(ctx context.Context, id string, p domain.Patch) (domain.Employee, error)
	DeleteEmployee(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}
