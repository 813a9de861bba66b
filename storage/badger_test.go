package storage

import (
	"context"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"

	"employee-manager/domain"
)

func openBadgerStore(t *testing.T) *BadgerStore {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewBadgerStore(db)
}

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

func TestBadgerCreateAssignsIDAndKeepsFields(t *testing.T) {
	req := require.New(t)
	store := openBadgerStore(t)
	ctx := context.Background()

	emp, err := store.CreateEmployee(ctx, domain.Patch{
		Name:      strPtr("A"),
		Email:     strPtr("a@x.com"),
		Position:  strPtr("Eng"),
		Salary:    floatPtr(100),
		SalarySet: true,
	})
	req.NoError(err)
	req.NotEmpty(emp.ID)
	req.Equal("A", emp.Name)
	req.Equal("a@x.com", emp.Email)
	req.Equal("Eng", emp.Position)
	req.Equal(100.0, *emp.Salary)

	all, err := store.ListEmployees(ctx)
	req.NoError(err)
	req.Len(all, 1)
	req.Equal(emp, all[0])
}

func TestBadgerListKeepsInsertionOrder(t *testing.T) {
	req := require.New(t)
	store := openBadgerStore(t)
	ctx := context.Background()

	names := []string{"Ann", "Bob", "Cid", "Dee"}
	for _, n := range names {
		_, err := store.CreateEmployee(ctx, domain.Patch{Name: strPtr(n)})
		req.NoError(err)
	}

	all, err := store.ListEmployees(ctx)
	req.NoError(err)
	req.Len(all, len(names))
	for i, n := range names {
		req.Equal(n, all[i].Name)
	}
}

func TestBadgerListEmpty(t *testing.T) {
	req := require.New(t)
	store := openBadgerStore(t)

	all, err := store.ListEmployees(context.Background())
	req.NoError(err)
	req.NotNil(all)
	req.Empty(all)
}

func TestBadgerUpdateMergesAndReturnsPostUpdateRecord(t *testing.T) {
	req := require.New(t)
	store := openBadgerStore(t)
	ctx := context.Background()

	emp, err := store.CreateEmployee(ctx, domain.Patch{Name: strPtr("Ann"), Position: strPtr("Eng"), Salary: floatPtr(10), SalarySet: true})
	req.NoError(err)

	updated, err := store.UpdateEmployee(ctx, emp.ID, domain.Patch{Position: strPtr("Lead")})
	req.NoError(err)
	req.Equal(emp.ID, updated.ID)
	req.Equal("Ann", updated.Name)
	req.Equal("Lead", updated.Position)
	req.Equal(10.0, *updated.Salary)

	all, err := store.ListEmployees(ctx)
	req.NoError(err)
	req.Equal([]domain.Employee{updated}, all)
}

func TestBadgerUpdateUnknownID(t *testing.T) {
	req := require.New(t)
	store := openBadgerStore(t)
	ctx := context.Background()

	_, err := store.CreateEmployee(ctx, domain.Patch{Name: strPtr("Ann")})
	req.NoError(err)

	_, err = store.UpdateEmployee(ctx, "missing", domain.Patch{Name: strPtr("X")})
	req.ErrorIs(err, domain.ErrNotFound)

	all, err := store.ListEmployees(ctx)
	req.NoError(err)
	req.Len(all, 1)
}

func TestBadgerDeleteTwice(t *testing.T) {
	req := require.New(t)
	store := openBadgerStore(t)
	ctx := context.Background()

	emp, err := store.CreateEmployee(ctx, domain.Patch{Name: strPtr("Ann")})
	req.NoError(err)

	req.NoError(store.DeleteEmployee(ctx, emp.ID))
	req.ErrorIs(store.DeleteEmployee(ctx, emp.ID), domain.ErrNotFound)

	all, err := store.ListEmployees(ctx)
	req.NoError(err)
	req.Empty(all)
}

func TestBadgerPingAfterClose(t *testing.T) {
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	store := NewBadgerStore(db)

	req.NoError(store.Ping(context.Background()))
	req.NoError(db.Close())
	req.Error(store.Ping(context.Background()))
}
