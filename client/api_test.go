package client_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"employee-manager/api"
	"employee-manager/client"
	"employee-manager/storage"
)

func newAPI(t *testing.T) *client.API {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	logger, _ := test.NewNullLogger()
	e := echo.New()
	api.Register(e, storage.NewBadgerStore(db), logger)

	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return client.NewAPI(srv.URL+"/", 0)
}

func TestAPIRoundTrip(t *testing.T) {
	req := require.New(t)
	c := newAPI(t)
	ctx := context.Background()

	employees, err := c.List(ctx)
	req.NoError(err)
	req.NotNil(employees)
	req.Empty(employees)

	created, err := c.Create(ctx, client.Form{Name: "Ann", Email: "ann@x.io", Position: "Dev", Salary: "5000"})
	req.NoError(err)
	req.NotEmpty(created.ID)
	req.NotNil(created.Salary)
	req.Equal(5000.0, *created.Salary)

	updated, err := c.Update(ctx, created.ID, client.Form{Name: "Ann", Email: "ann@x.io", Position: "Lead"})
	req.NoError(err)
	req.Equal(created.ID, updated.ID)
	req.Equal("Lead", updated.Position)
	req.Nil(updated.Salary)

	req.NoError(c.Delete(ctx, created.ID))

	err = c.Delete(ctx, created.ID)
	var httpErr *client.HTTPError
	req.True(errors.As(err, &httpErr))
	req.Equal(http.StatusNotFound, httpErr.StatusCode)
	req.Equal("Employee not found", httpErr.Message())
}

func TestAPIValidationMessage(t *testing.T) {
	c := newAPI(t)

	_, err := c.Create(context.Background(), client.Form{Name: "Ann", Salary: "lots"})
	var httpErr *client.HTTPError
	require.True(t, errors.As(err, &httpErr))
	require.Equal(t, http.StatusBadRequest, httpErr.StatusCode)
	require.Contains(t, httpErr.Message(), "salary")
}

func TestHTTPErrorMessageFallsBackToStatusText(t *testing.T) {
	err := &client.HTTPError{Method: http.MethodGet, URL: "http://x/employees", StatusCode: http.StatusBadGateway, Body: []byte("<html>")}
	require.Equal(t, "Bad Gateway", err.Message())
	require.Contains(t, err.Error(), "status=502")
}

func TestAPITimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	c := client.NewAPI(srv.URL, 20*time.Millisecond)
	_, err := c.List(context.Background())
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSessionAgainstService(t *testing.T) {
	req := require.New(t)
	s := client.NewSession(newAPI(t), nil)
	ctx := context.Background()

	req.NoError(s.Load(ctx))
	for _, name := range []string{"Ann", "Bob"} {
		req.NoError(s.SetField("name", name))
		req.NoError(s.SetField("email", name+"@x.io"))
		req.NoError(s.Submit(ctx))
	}

	st := s.Snapshot()
	req.Len(st.Employees, 2)
	req.Equal("Ann", st.Employees[0].Name)
	req.Equal("Bob", st.Employees[1].Name)

	s.SetSearch("an")
	filtered := s.Filtered()
	req.Len(filtered, 1)
	req.Equal("Ann", filtered[0].Name)

	req.NoError(s.Delete(ctx, st.Employees[0].ID, func() bool { return true }))
	st = s.Snapshot()
	req.Len(st.Employees, 1)
	req.Equal("Employee deleted", st.Toast.Message)
	req.False(st.Loading)
}
