package client

import (
	"context"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"employee-manager/domain"
)

const (
	msgAdded        = "Employee added successfully"
	msgAddFailed    = "Error adding employee"
	msgUpdated      = "Employee updated successfully"
	msgUpdateFailed = "Error updating employee"
	msgDeleted      = "Employee deleted"
	msgDeleteFailed = "Error deleting employee"
	msgLoadFailed   = "Error loading employees"
)

// Backend is the subset of the employees API a Session drives.
type Backend interface {
	List(ctx context.Context) ([]domain.Employee, error)
	Create(ctx context.Context, f Form) (domain.Employee, error)
	Update(ctx context.Context, id string, f Form) (domain.Employee, error)
	Delete(ctx context.Context, id string) error
}

type ToastKind int

const (
	ToastSuccess ToastKind = iota
	ToastError
)

func (k ToastKind) String() string {
	if k == ToastError {
		return "error"
	}
	return "success"
}

// Toast is a notification shown until dismissed or replaced.
type Toast struct {
	Kind    ToastKind
	Message string
}

// State is a point-in-time copy of a Session for rendering.
type State struct {
	Employees []domain.Employee
	Form      Form
	Search    string
	Loading   bool
	Toast     *Toast
}

// Session holds the client-side view of the employee directory. All state
// changes go through its methods, which are safe for concurrent use.
type Session struct {
	backend Backend
	logger  *log.Logger

	mu        sync.Mutex
	employees []domain.Employee
	form      Form
	search    string
	toast     *Toast
	inflight  int
	// seq numbers list requests; applied is the newest one whose result
	// has been stored.
	seq     uint64
	applied uint64
}

// NewSession creates an empty Session. logger may be nil.
func NewSession(backend Backend, logger *log.Logger) *Session {
	if backend == nil {
		panic("client: nil backend")
	}
	return &Session{backend: backend, logger: logger, employees: []domain.Employee{}}
}

// Load refetches the full list. A failure leaves the current list in place
// and raises an error toast.
func (s *Session) Load(ctx context.Context) error {
	s.begin()
	defer s.end()

	if err := s.refetch(ctx); err != nil {
		s.setToast(ToastError, msgLoadFailed)
		return err
	}
	return nil
}

// SetField updates one form field by name.
func (s *Session) SetField(name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form.set(name, value)
}

func (s *Session) SetSearch(text string) {
	s.mu.Lock()
	s.search = text
	s.mu.Unlock()
}

func (s *Session) DismissToast() {
	s.mu.Lock()
	s.toast = nil
	s.mu.Unlock()
}

// ClearForm resets the form, dropping any id set by Edit.
func (s *Session) ClearForm() {
	s.mu.Lock()
	s.form = Form{}
	s.mu.Unlock()
}

// Edit fills the form with the employee's current fields. The next Submit
// then updates that employee instead of creating a new one.
func (s *Session) Edit(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.employees {
		if e.ID == id {
			s.form = FormFrom(e)
			return nil
		}
	}
	return fmt.Errorf("employee %q is not in the list", id)
}

// Submit creates the employee described by the form, or updates it when the
// form was filled by Edit. On success the form is cleared and the list
// refetched; on failure the form is kept for another attempt.
func (s *Session) Submit(ctx context.Context) error {
	s.begin()
	defer s.end()

	s.mu.Lock()
	form := s.form
	s.mu.Unlock()

	var err error
	okMsg, failMsg := msgAdded, msgAddFailed
	if form.ID != "" {
		okMsg, failMsg = msgUpdated, msgUpdateFailed
		_, err = s.backend.Update(ctx, form.ID, form)
	} else {
		_, err = s.backend.Create(ctx, form)
	}
	if err != nil {
		s.debug("submit", err)
		s.setToast(ToastError, failMsg)
		return err
	}

	s.mu.Lock()
	if s.form == form {
		s.form = Form{}
	}
	s.mu.Unlock()
	s.setToast(ToastSuccess, okMsg)

	if err := s.refetch(ctx); err != nil {
		s.debug("refetch", err)
	}
	return nil
}

// Delete removes employee id after confirm approves. A nil confirm counts as
// declined. The list is refetched whether or not the delete succeeded.
func (s *Session) Delete(ctx context.Context, id string, confirm func() bool) error {
	if confirm == nil || !confirm() {
		return nil
	}

	s.begin()
	defer s.end()

	err := s.backend.Delete(ctx, id)
	if err != nil {
		s.debug("delete", err)
		s.setToast(ToastError, msgDeleteFailed)
	} else {
		s.setToast(ToastSuccess, msgDeleted)
	}

	if rerr := s.refetch(ctx); rerr != nil {
		s.debug("refetch", rerr)
	}
	return err
}

// Filtered returns the employees matching the current search.
func (s *Session) Filtered() []domain.Employee {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Filter(s.employees, s.search)
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{
		Employees: append([]domain.Employee(nil), s.employees...),
		Form:      s.form,
		Search:    s.search,
		Loading:   s.inflight > 0,
	}
	if s.toast != nil {
		t := *s.toast
		st.Toast = &t
	}
	return st
}

func (s *Session) refetch(ctx context.Context) error {
	s.mu.Lock()
	s.seq++
	seq := s.seq
	s.mu.Unlock()

	employees, err := s.backend.List(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq < s.applied {
		return nil
	}
	s.applied = seq
	if employees == nil {
		employees = []domain.Employee{}
	}
	s.employees = employees
	return nil
}

func (s *Session) begin() {
	s.mu.Lock()
	s.inflight++
	s.mu.Unlock()
}

func (s *Session) end() {
	s.mu.Lock()
	s.inflight--
	s.mu.Unlock()
}

func (s *Session) setToast(kind ToastKind, msg string) {
	s.mu.Lock()
	s.toast = &Toast{Kind: kind, Message: msg}
	s.mu.Unlock()
}

func (s *Session) debug(action string, err error) {
	if s.logger == nil {
		return
	}
	s.logger.WithError(err).WithField("action", action).Debug("employees request failed")
}
