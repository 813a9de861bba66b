package api_test

import (
	"bytes"
	"compress/gzip"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/dgraph-io/badger/v4"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"employee-manager/api"
	"employee-manager/domain"
	"employee-manager/storage"
)

func newServer(t *testing.T) *echo.Echo {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	logger, _ := test.NewNullLogger()
	e := echo.New()
	api.Register(e, storage.NewBadgerStore(db), logger)
	return e
}

func do(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func list(t *testing.T, e *echo.Echo) []domain.Employee {
	t.Helper()
	rec := do(e, http.MethodGet, "/employees", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var employees []domain.Employee
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &employees))
	return employees
}

func TestCreateThenList(t *testing.T) {
	req := require.New(t)
	e := newServer(t)

	rec := do(e, http.MethodPost, "/employees", `{"name":"A","email":"a@x.com","position":"Eng","salary":100}`)
	req.Equal(http.StatusCreated, rec.Code)
	var created domain.Employee
	req.NoError(sonic.Unmarshal(rec.Body.Bytes(), &created))
	req.NotEmpty(created.ID)
	req.Equal("A", created.Name)
	req.Equal("a@x.com", created.Email)
	req.Equal("Eng", created.Position)
	req.Equal(100.0, *created.Salary)

	employees := list(t, e)
	req.Len(employees, 1)
	req.Equal(created, employees[0])
}

func TestUpdateUnknownIDLeavesStoreUnchanged(t *testing.T) {
	req := require.New(t)
	e := newServer(t)

	req.Equal(http.StatusCreated, do(e, http.MethodPost, "/employees", `{"name":"A"}`).Code)

	rec := do(e, http.MethodPut, "/employees/does-not-exist", `{"name":"B"}`)
	req.Equal(http.StatusNotFound, rec.Code)
	req.JSONEq(`{"error":"Employee not found"}`, rec.Body.String())
	req.Len(list(t, e), 1)
}

func TestUpdateReturnsMergedRecord(t *testing.T) {
	req := require.New(t)
	e := newServer(t)

	rec := do(e, http.MethodPost, "/employees", `{"name":"A","position":"Eng","salary":100}`)
	var created domain.Employee
	req.NoError(sonic.Unmarshal(rec.Body.Bytes(), &created))

	rec = do(e, http.MethodPut, "/employees/"+created.ID, `{"position":"Lead","id":"hijack"}`)
	req.Equal(http.StatusOK, rec.Code)
	var updated domain.Employee
	req.NoError(sonic.Unmarshal(rec.Body.Bytes(), &updated))
	req.Equal(created.ID, updated.ID)
	req.Equal("A", updated.Name)
	req.Equal("Lead", updated.Position)
	req.Equal(100.0, *updated.Salary)

	req.Equal([]domain.Employee{updated}, list(t, e))
}

func TestDeleteTwice(t *testing.T) {
	req := require.New(t)
	e := newServer(t)

	rec := do(e, http.MethodPost, "/employees", `{"name":"A"}`)
	var created domain.Employee
	req.NoError(sonic.Unmarshal(rec.Body.Bytes(), &created))

	first := do(e, http.MethodDelete, "/employees/"+created.ID, "")
	req.Equal(http.StatusNoContent, first.Code)
	req.Empty(first.Body.String())

	second := do(e, http.MethodDelete, "/employees/"+created.ID, "")
	req.Equal(http.StatusNotFound, second.Code)
	req.JSONEq(`{"error":"Employee not found"}`, second.Body.String())

	for _, emp := range list(t, e) {
		req.NotEqual(created.ID, emp.ID)
	}
}

func TestMethodsAreRoutedSeparately(t *testing.T) {
	e := newServer(t)

	if rec := do(e, http.MethodPatch, "/employees/x", `{}`); rec.Code < http.StatusBadRequest {
		t.Fatalf("expected PATCH to be rejected, got %d", rec.Code)
	}
	if rec := do(e, http.MethodGet, "/employ", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected legacy mount to be absent, got %d", rec.Code)
	}
}

func TestGzipBody(t *testing.T) {
	req := require.New(t)
	e := newServer(t)

	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	_, err := gw.Write([]byte(`{"name":"Zipped"}`))
	req.NoError(err)
	req.NoError(gw.Close())

	httpReq := httptest.NewRequest(http.MethodPost, "/employees", &buf)
	httpReq.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	httpReq.Header.Set(echo.HeaderContentEncoding, "gzip")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httpReq)

	req.Equal(http.StatusCreated, rec.Code)
	req.Equal("Zipped", list(t, e)[0].Name)
}

func TestInvalidGzipBody(t *testing.T) {
	e := newServer(t)

	httpReq := httptest.NewRequest(http.MethodPost, "/employees", strings.NewReader("not gzip"))
	httpReq.Header.Set(echo.HeaderContentEncoding, "gzip")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httpReq)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestOversizedBody(t *testing.T) {
	e := newServer(t)

	body := `{"name":"` + strings.Repeat("a", 70*1024) + `"}`
	rec := do(e, http.MethodPost, "/employees", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if len(list(t, e)) != 0 {
		t.Fatalf("expected nothing to be stored")
	}
}
