package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"employee-manager/domain"
)

// HTTPError carries status and body for non-2xx responses.
type HTTPError struct {
	Method     string
	URL        string
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http error: %s %s status=%d body=%s", e.Method, e.URL, e.StatusCode, snippet(e.Body, 300))
}

// Message returns the server's {"error": ...} detail, or the status text when
// the body does not carry one.
func (e *HTTPError) Message() string {
	var body struct {
		Error string `json:"error"`
	}
	if err := sonic.Unmarshal(e.Body, &body); err == nil && body.Error != "" {
		return body.Error
	}
	return http.StatusText(e.StatusCode)
}

func snippet(b []byte, max int) string {
	s := strings.TrimSpace(string(b))
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

// API is an HTTP client for the employees service.
type API struct {
	BaseURL string
	HTTP    *http.Client
	// Timeout bounds each request when positive. Zero means no deadline.
	Timeout time.Duration
}

// NewAPI creates an API rooted at baseURL, e.g. http://localhost:5000.
func NewAPI(baseURL string, timeout time.Duration) *API {
	return &API{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{},
		Timeout: timeout,
	}
}

// List fetches every employee.
func (a *API) List(ctx context.Context) ([]domain.Employee, error) {
	var out []domain.Employee
	if err := a.do(ctx, http.MethodGet, "/employees", nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.Employee{}
	}
	return out, nil
}

// Create posts a new employee and returns the stored record.
func (a *API) Create(ctx context.Context, f Form) (domain.Employee, error) {
	var out domain.Employee
	err := a.do(ctx, http.MethodPost, "/employees", f.body(), &out)
	return out, err
}

// Update replaces the given fields of employee id and returns the merged record.
func (a *API) Update(ctx context.Context, id string, f Form) (domain.Employee, error) {
	var out domain.Employee
	err := a.do(ctx, http.MethodPut, "/employees/"+url.PathEscape(id), f.body(), &out)
	return out, err
}

// Delete removes employee id.
func (a *API) Delete(ctx context.Context, id string) error {
	return a.do(ctx, http.MethodDelete, "/employees/"+url.PathEscape(id), nil, nil)
}

func (a *API) do(ctx context.Context, method, path string, body, out any) error {
	if a.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.Timeout)
		defer cancel()
	}

	var reader io.Reader
	if body != nil {
		payload, err := sonic.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.BaseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	httpClient := a.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s %s: %w", method, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &HTTPError{
			Method:     method,
			URL:        req.URL.String(),
			StatusCode: resp.StatusCode,
			Body:       data,
		}
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := sonic.Unmarshal(data, out); err != nil {
		return fmt.Errorf("json parse error: %w body=%s", err, snippet(data, 300))
	}
	return nil
}
