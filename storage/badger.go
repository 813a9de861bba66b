package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/dgraph-io/badger/v4"

	"employee-manager/domain"
)

const employeeKeyPrefix = "employee:"

// BadgerStore keeps employees in an embedded BadgerDB. Every mutation runs
// in a single transaction, so read-merge-write updates are atomic.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore wraps an open database. The caller owns db and closes it.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

func employeeKey(id string) []byte {
	return []byte(employeeKeyPrefix + id)
}

// CreateEmployee stores a new record under a time-ordered id.
func (s *BadgerStore) CreateEmployee(_ context.Context, p domain.Patch) (domain.Employee, error) {
	emp := domain.Employee{ID: newID()}.Apply(p)
	data, err := sonic.Marshal(emp)
	if err != nil {
		return domain.Employee{}, fmt.Errorf("marshal failed: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(employeeKey(emp.ID), data)
	})
	if err != nil {
		return domain.Employee{}, fmt.Errorf("store employee: %w", err)
	}
	return emp, nil
}

// ListEmployees iterates the employee prefix in key order, which is
// insertion order.
func (s *BadgerStore) ListEmployees(_ context.Context) ([]domain.Employee, error) {
	employees := []domain.Employee{}
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(employeeKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var emp domain.Employee
			err := it.Item().Value(func(val []byte) error {
				return sonic.Unmarshal(val, &emp)
			})
			if err != nil {
				return err
			}
			employees = append(employees, emp)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	return employees, nil
}

// UpdateEmployee merges the patch into the stored record. Transactions that
// lose a conflict are retried.
func (s *BadgerStore) UpdateEmployee(_ context.Context, id string, p domain.Patch) (domain.Employee, error) {
	var updated domain.Employee
	var err error
	for attempt := 1; attempt <= maxUpdateAttempts; attempt++ {
		err = s.db.Update(func(txn *badger.Txn) error {
			current, err := getEmployee(txn, id)
			if err != nil {
				return err
			}
			updated = current.Apply(p)
			if p.Empty() {
				return nil
			}
			data, err := sonic.Marshal(updated)
			if err != nil {
				return err
			}
			return txn.Set(employeeKey(id), data)
		})
		if !errors.Is(err, badger.ErrConflict) {
			break
		}
	}
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Employee{}, err
		}
		return domain.Employee{}, fmt.Errorf("update employee: %w", err)
	}
	return updated, nil
}

// DeleteEmployee removes the record, reporting ErrNotFound when absent.
func (s *BadgerStore) DeleteEmployee(_ context.Context, id string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := getEmployee(txn, id); err != nil {
			return err
		}
		return txn.Delete(employeeKey(id))
	})
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("delete employee: %w", err)
	}
	return err
}

// Ping fails once the database has been closed.
func (s *BadgerStore) Ping(_ context.Context) error {
	if s.db.IsClosed() {
		return errors.New("badger: database is closed")
	}
	return nil
}

func getEmployee(txn *badger.Txn, id string) (domain.Employee, error) {
	if id == "" {
		return domain.Employee{}, domain.ErrNotFound
	}
	item, err := txn.Get(employeeKey(id))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return domain.Employee{}, domain.ErrNotFound
		}
		return domain.Employee{}, err
	}
	var emp domain.Employee
	err = item.Value(func(val []byte) error {
		return sonic.Unmarshal(val, &emp)
	})
	return emp, err
}
