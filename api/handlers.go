package api

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"employee-manager/domain"
)

const (
	employeesRoute = "/employees"
	employeeRoute  = "/employees/:id"
	healthTimeout  = 2 * time.Second
)

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, store Storage, logger *log.Logger) {
	e.JSONSerializer = SonicSerializer{}

	g := e.Group(employeesRoute, BodyMiddleware(employeeBodyMaxSize))
	g.POST("", createEmployee(store, logger))
	g.GET("", listEmployees(store, logger))
	g.PUT("/:id", updateEmployee(store, logger))
	g.DELETE("/:id", deleteEmployee(store, logger))

	e.GET("/healthz", healthz(store))
}

func healthz(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), healthTimeout)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
		}
		return c.NoContent(http.StatusOK)
	}
}

func createEmployee(store Storage, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		metrics, ctx := startRequest(c, logger, employeesRoute)
		defer func() {
			metrics.Finish(c.Response().Status, err)
		}()

		p, decodeErr := readPatch(c)
		if decodeErr != nil {
			metrics.Fail("decode", decodeErr)
			return writeError(c, decodeErr)
		}

		storeStart := time.Now()
		emp, storeErr := store.CreateEmployee(ctx, p)
		metrics.ObserveStore(time.Since(storeStart))
		if storeErr != nil {
			metrics.Fail("storage", storeErr)
			return writeError(c, storeErr)
		}
		metrics.SetRecords(1)
		return c.JSON(http.StatusCreated, emp)
	}
}

func listEmployees(store Storage, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		metrics, ctx := startRequest(c, logger, employeesRoute)
		defer func() {
			metrics.Finish(c.Response().Status, err)
		}()

		storeStart := time.Now()
		employees, storeErr := store.ListEmployees(ctx)
		metrics.ObserveStore(time.Since(storeStart))
		if storeErr != nil {
			metrics.Fail("storage", storeErr)
			return writeError(c, storeErr)
		}
		if employees == nil {
			employees = []domain.Employee{}
		}
		metrics.SetRecords(len(employees))
		return c.JSON(http.StatusOK, employees)
	}
}

func updateEmployee(store Storage, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		metrics, ctx := startRequest(c, logger, employeeRoute)
		defer func() {
			metrics.Finish(c.Response().Status, err)
		}()

		p, decodeErr := readPatch(c)
		if decodeErr != nil {
			metrics.Fail("decode", decodeErr)
			return writeError(c, decodeErr)
		}

		storeStart := time.Now()
		emp, storeErr := store.UpdateEmployee(ctx, c.Param("id"), p)
		metrics.ObserveStore(time.Since(storeStart))
		if storeErr != nil {
			metrics.Fail("storage", storeErr)
			return writeError(c, storeErr)
		}
		metrics.SetRecords(1)
		return c.JSON(http.StatusOK, emp)
	}
}

func deleteEmployee(store Storage, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		metrics, ctx := startRequest(c, logger, employeeRoute)
		defer func() {
			metrics.Finish(c.Response().Status, err)
		}()

		storeStart := time.Now()
		storeErr := store.DeleteEmployee(ctx, c.Param("id"))
		metrics.ObserveStore(time.Since(storeStart))
		if storeErr != nil {
			metrics.Fail("storage", storeErr)
			return writeError(c, storeErr)
		}
		metrics.SetRecords(1)
		return c.NoContent(http.StatusNoContent)
	}
}

// startRequest begins request metrics and swaps the request context for the
// span context so the store call is traced under it.
func startRequest(c echo.Context, logger *log.Logger, route string) (*requestMetrics, context.Context) {
	req := c.Request()
	metrics, ctx := newRequestMetrics(req.Context(), logger, req.Method, route)
	c.SetRequest(req.WithContext(ctx))
	return metrics, ctx
}

// readPatch reads the request body and coerces it into a patch. An empty
// body is an empty patch.
func readPatch(c echo.Context) (domain.Patch, error) {
	body := c.Request().Body
	if body == nil {
		return domain.Patch{}, nil
	}
	data, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return domain.Patch{}, &domain.ValidationError{Reason: "request body too large"}
		}
		return domain.Patch{}, &domain.ValidationError{Reason: "invalid body"}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return domain.Patch{}, nil
	}
	return domain.DecodePatch(data)
}

// writeError maps record store and validation errors onto HTTP responses.
func writeError(c echo.Context, err error) error {
	switch {
	case domain.IsValidation(err):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		return c.JSON(http.StatusNotFound, errorResponse{Error: employeeNotFound})
	default:
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
}
