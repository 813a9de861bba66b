package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/bytedance/sonic"

	"employee-manager/domain"
)

const (
	employeesPartition = "employees"
	edmDouble          = "Edm.Double"
	maxUpdateAttempts  = 5
)

// TableStore keeps employees in a single Azure Table Storage partition.
type TableStore struct {
	table *aztables.Client
}

// NewTableStore creates a TableStore from the given connection string.
func NewTableStore(connStr, table string) (*TableStore, error) {
	opts := aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Minute * 3,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 15,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, &opts)
	if err != nil {
		return nil, err
	}
	return &TableStore{table: svc.NewClient(table)}, nil
}

type employeeEntity struct {
	PartitionKey string   `json:"PartitionKey"`
	RowKey       string   `json:"RowKey"`
	Name         string   `json:"Name,omitempty"`
	Email        string   `json:"Email,omitempty"`
	Position     string   `json:"Position,omitempty"`
	Salary       *float64 `json:"Salary,omitempty"`
	SalaryType   string   `json:"Salary@odata.type,omitempty"`
}

func entityFromEmployee(e domain.Employee) employeeEntity {
	ent := employeeEntity{
		PartitionKey: employeesPartition,
		RowKey:       e.ID,
		Name:         e.Name,
		Email:        e.Email,
		Position:     e.Position,
		Salary:       e.Salary,
	}
	if e.Salary != nil {
		ent.SalaryType = edmDouble
	}
	return ent
}

func decodeEmployeeEntity(data []byte) (domain.Employee, error) {
	var ent employeeEntity
	if err := sonic.Unmarshal(data, &ent); err != nil {
		return domain.Employee{}, err
	}
	return domain.Employee{
		ID:       ent.RowKey,
		Name:     ent.Name,
		Email:    ent.Email,
		Position: ent.Position,
		Salary:   ent.Salary,
	}, nil
}

// CreateEmployee inserts a new entity with a freshly assigned row key.
func (s *TableStore) CreateEmployee(ctx context.Context, p domain.Patch) (domain.Employee, error) {
	emp := domain.Employee{ID: newID()}.Apply(p)
	payload, err := sonic.Marshal(entityFromEmployee(emp))
	if err != nil {
		return domain.Employee{}, err
	}
	if _, err := s.table.AddEntity(ctx, payload, nil); err != nil {
		return domain.Employee{}, fmt.Errorf("add entity: %w", err)
	}
	return emp, nil
}

// ListEmployees returns every employee in row key order.
func (s *TableStore) ListEmployees(ctx context.Context) ([]domain.Employee, error) {
	filter := "PartitionKey eq '" + employeesPartition + "'"
	pager := s.table.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	employees := []domain.Employee{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list entities: %w", err)
		}
		for _, raw := range resp.Entities {
			emp, err := decodeEmployeeEntity(raw)
			if err != nil {
				return nil, err
			}
			employees = append(employees, emp)
		}
	}
	return employees, nil
}

// UpdateEmployee merges the patch into the stored entity and returns the
// result. The write is guarded by the entity ETag and retried when another
// writer got there first.
func (s *TableStore) UpdateEmployee(ctx context.Context, id string, p domain.Patch) (domain.Employee, error) {
	for attempt := 1; ; attempt++ {
		current, etag, err := s.get(ctx, id)
		if err != nil {
			return domain.Employee{}, err
		}
		if p.Empty() {
			return current, nil
		}
		updated := current.Apply(p)
		payload, err := sonic.Marshal(entityFromEmployee(updated))
		if err != nil {
			return domain.Employee{}, err
		}
		_, err = s.table.UpdateEntity(ctx, payload, &aztables.UpdateEntityOptions{IfMatch: &etag, UpdateMode: aztables.UpdateModeReplace})
		if err == nil {
			return updated, nil
		}
		switch statusCode(err) {
		case http.StatusNotFound:
			return domain.Employee{}, domain.ErrNotFound
		case http.StatusPreconditionFailed:
			if attempt < maxUpdateAttempts {
				continue
			}
		}
		return domain.Employee{}, fmt.Errorf("update entity: %w", err)
	}
}

// DeleteEmployee removes the entity for id.
func (s *TableStore) DeleteEmployee(ctx context.Context, id string) error {
	if id == "" {
		return domain.ErrNotFound
	}
	if _, err := s.table.DeleteEntity(ctx, employeesPartition, id, nil); err != nil {
		if statusCode(err) == http.StatusNotFound {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete entity: %w", err)
	}
	return nil
}

// Ping reads at most one entity to confirm the table is reachable.
func (s *TableStore) Ping(ctx context.Context) error {
	top := int32(1)
	filter := "PartitionKey eq '" + employeesPartition + "'"
	pager := s.table.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter, Top: &top})
	if _, err := pager.NextPage(ctx); err != nil {
		return err
	}
	return nil
}

// EnsureTable creates the table, ignoring the error when it already exists.
func (s *TableStore) EnsureTable(ctx context.Context) error {
	_, err := s.table.CreateTable(ctx, nil)
	if err != nil {
		var respErr *azcore.ResponseError
		if !(errors.As(err, &respErr) && respErr.ErrorCode == string(aztables.TableAlreadyExists)) {
			return err
		}
	}
	return nil
}

func (s *TableStore) get(ctx context.Context, id string) (domain.Employee, azcore.ETag, error) {
	if id == "" {
		return domain.Employee{}, "", domain.ErrNotFound
	}
	resp, err := s.table.GetEntity(ctx, employeesPartition, id, nil)
	if err != nil {
		if statusCode(err) == http.StatusNotFound {
			return domain.Employee{}, "", domain.ErrNotFound
		}
		return domain.Employee{}, "", fmt.Errorf("get entity: %w", err)
	}
	emp, err := decodeEmployeeEntity(resp.Value)
	if err != nil {
		return domain.Employee{}, "", err
	}
	return emp, resp.ETag, nil
}

func statusCode(err error) int {
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		return respErr.StatusCode
	}
	return 0
}
