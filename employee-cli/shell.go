package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"

	"employee-manager/client"
	"employee-manager/domain"
)

const helpText = `commands:
  list                    refresh and show employees
  add                     start a new employee form
  set <field> <value>     set name, email, position or salary
  edit <id>               load an employee into the form
  save                    submit the form
  delete <id>             delete an employee
  search [text]           filter the table
  dismiss                 hide the notification
  help                    show this text
  quit                    exit`

type shell struct {
	session *client.Session
	in      *bufio.Scanner
	out     io.Writer
	colours bool
}

func newShell(session *client.Session, in io.Reader, out io.Writer) *shell {
	return &shell{session: session, in: bufio.NewScanner(in), out: out}
}

func (s *shell) run(ctx context.Context) error {
	_ = s.session.Load(ctx)
	s.render()

	for {
		fmt.Fprint(s.out, "> ")
		if !s.in.Scan() {
			return s.in.Err()
		}
		quit := s.exec(ctx, strings.TrimSpace(s.in.Text()))
		if quit || ctx.Err() != nil {
			return nil
		}
	}
}

// exec runs one command line and reports whether the shell should exit.
func (s *shell) exec(ctx context.Context, line string) bool {
	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(cmd) {
	case "":
		return false
	case "quit", "exit":
		return true
	case "help":
		fmt.Fprintln(s.out, helpText)
		return false
	case "list":
		_ = s.session.Load(ctx)
	case "add":
		s.session.ClearForm()
	case "set":
		field, value, _ := strings.Cut(rest, " ")
		if field == "" {
			fmt.Fprintln(s.out, "usage: set <field> <value>")
			return false
		}
		if err := s.session.SetField(strings.ToLower(field), strings.TrimSpace(value)); err != nil {
			fmt.Fprintln(s.out, err)
			return false
		}
		s.renderForm()
		return false
	case "edit":
		if err := s.session.Edit(rest); err != nil {
			fmt.Fprintln(s.out, err)
			return false
		}
		s.renderForm()
		return false
	case "save":
		_ = s.session.Submit(ctx)
	case "delete":
		if rest == "" {
			fmt.Fprintln(s.out, "usage: delete <id>")
			return false
		}
		_ = s.session.Delete(ctx, rest, s.confirm)
	case "search":
		s.session.SetSearch(rest)
	case "dismiss":
		s.session.DismissToast()
	default:
		fmt.Fprintf(s.out, "unknown command %q, try help\n", cmd)
		return false
	}
	s.render()
	return false
}

func (s *shell) confirm() bool {
	fmt.Fprint(s.out, "Are you sure you want to delete this employee? [y/N] ")
	if !s.in.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(s.in.Text()))
	return answer == "y" || answer == "yes"
}

func (s *shell) render() {
	st := s.session.Snapshot()
	if st.Toast != nil {
		s.renderToast(*st.Toast)
	}

	table := tablewriter.NewWriter(s.out)
	table.SetHeader([]string{"ID", "Name", "Email", "Position", "Salary"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for _, e := range s.session.Filtered() {
		table.Append(row(e))
	}
	table.Render()

	if st.Search != "" {
		fmt.Fprintf(s.out, "search: %q\n", st.Search)
	}
}

func (s *shell) renderToast(t client.Toast) {
	msg := t.Message
	if s.colours {
		style := color.New(color.FgWhite, color.BgGreen)
		if t.Kind == client.ToastError {
			style = color.New(color.FgWhite, color.BgRed)
		}
		msg = style.Render(" " + msg + " ")
	}
	fmt.Fprintln(s.out, msg)
}

func (s *shell) renderForm() {
	f := s.session.Snapshot().Form
	title := "new employee"
	if f.ID != "" {
		title = "editing " + f.ID
	}
	fmt.Fprintf(s.out, "%s: name=%q email=%q position=%q salary=%q\n", title, f.Name, f.Email, f.Position, f.Salary)
}

func row(e domain.Employee) []string {
	salary := ""
	if e.Salary != nil {
		salary = "$" + strconv.FormatFloat(*e.Salary, 'f', -1, 64)
	}
	return []string{e.ID, e.Name, e.Email, e.Position, salary}
}
