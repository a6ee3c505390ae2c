package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dukerupert/walkin/internal/appointment"
	"github.com/dukerupert/walkin/internal/model"
)

var apptCommands = map[string]runFunc{
	"request":    runApptRequest,
	"create":     runApptCreate,
	"list":       runApptList,
	"get":        runApptGet,
	"incoming":   runApptIncoming,
	"respond":    runApptRespond,
	"cancel":     runApptCancel,
	"reschedule": runApptReschedule,
	"complete":   runApptComplete,
	"search":     runApptSearch,
	"stats":      runApptStats,
	"today":      runApptToday,
	"delete":     runApptDelete,
	"update":     runApptUpdate,
}

// parseTime accepts the backend's local layout and RFC 3339.
func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return model.ParseTimestamp(s)
}

func formatTS(ts *model.Timestamp) string {
	if ts == nil || ts.IsZero() {
		return "-"
	}
	return ts.Local().Format("2006-01-02 15:04")
}

func printAppointments(w io.Writer, list []model.Appointment) {
	if len(list) == 0 {
		fmt.Fprintln(w, "No appointments.")
		return
	}
	fmt.Fprintln(w, "ID\tVISITOR\tEMPLOYEE\tTIME\tSTATUS\tCODE")
	for _, a := range list {
		when := a.ConfirmedTime
		if when == nil {
			when = a.PreferredTime
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			a.ID, a.VisitorName, a.EmployeeName, formatTS(when), a.Status, a.ConfirmationCode)
	}
}

func printAppointment(w io.Writer, a *model.Appointment) {
	fmt.Fprintf(w, "ID\t%d\n", a.ID)
	fmt.Fprintf(w, "Status\t%s\n", a.Status)
	fmt.Fprintf(w, "Visitor\t%s <%s>\n", a.VisitorName, a.VisitorEmail)
	if a.VisitorPhone != "" {
		fmt.Fprintf(w, "Phone\t%s\n", a.VisitorPhone)
	}
	fmt.Fprintf(w, "Employee\t%s\n", displayName(a.EmployeeName, a.EmployeeID))
	fmt.Fprintf(w, "Reason\t%s\n", a.Reason)
	fmt.Fprintf(w, "Preferred\t%s\n", formatTS(a.PreferredTime))
	if a.ConfirmedTime != nil {
		fmt.Fprintf(w, "Confirmed\t%s\n", formatTS(a.ConfirmedTime))
	}
	if a.ConfirmationCode != "" {
		fmt.Fprintf(w, "Code\t%s\n", a.ConfirmationCode)
	}
	if a.RejectionReason != "" {
		fmt.Fprintf(w, "Rejected\t%s\n", a.RejectionReason)
	}
	if a.CancellationReason != "" {
		fmt.Fprintf(w, "Cancelled\t%s\n", a.CancellationReason)
	}
	if a.Notes != "" {
		fmt.Fprintf(w, "Notes\t%s\n", a.Notes)
	}
}

func parseRequest(name string, args []string) (model.AppointmentRequest, error) {
	fs := newFlags(name)
	var req model.AppointmentRequest
	fs.StringVar(&req.VisitorName, "name", "", "Visitor name")
	fs.StringVar(&req.VisitorEmail, "email", "", "Visitor email")
	fs.StringVar(&req.VisitorPhone, "phone", "", "Visitor phone (optional)")
	fs.Int64Var(&req.EmployeeID, "employee", 0, "Employee (member) id to visit")
	fs.StringVar(&req.Reason, "reason", "", "Reason for the visit")
	when := fs.String("time", "", "Preferred time, e.g. \"2026-06-01 14:30:00\"")
	if err := fs.Parse(args); err != nil {
		return req, err
	}
	t, err := parseTime(*when)
	if err != nil {
		return req, err
	}
	req.PreferredTime = model.Timestamp{Time: t}
	return req, nil
}

func runApptRequest(ctx context.Context, c *cli, args []string) error {
	req, err := parseRequest("appt request", args)
	if err != nil {
		return err
	}
	a, err := c.app.Appointments.CreateRequest(ctx, req)
	if err != nil {
		return err
	}
	return c.show(a, func(w io.Writer) {
		fmt.Fprintf(w, "Request %d sent to %s.\n", a.ID, displayName(a.EmployeeName, a.EmployeeID))
	})
}

func runApptCreate(ctx context.Context, c *cli, args []string) error {
	req, err := parseRequest("appt create", args)
	if err != nil {
		return err
	}
	a, err := c.app.Appointments.Create(ctx, req)
	if err != nil {
		return err
	}
	return c.show(a, func(w io.Writer) { printAppointment(w, a) })
}

func runApptList(ctx context.Context, c *cli, args []string) error {
	fs := newFlags("appt list")
	var f model.AppointmentFilter
	status := fs.String("status", "", "pending|confirmed|cancelled|completed|in_progress")
	fs.Int64Var(&f.EmployeeID, "employee", 0, "Only this employee's appointments")
	fs.StringVar(&f.StartDate, "from", "", "Start date (YYYY-MM-DD)")
	fs.StringVar(&f.EndDate, "to", "", "End date (YYYY-MM-DD)")
	fs.StringVar(&f.VisitorName, "visitor", "", "Visitor name contains")
	fs.StringVar(&f.Date, "date", "", "Single day (YYYY-MM-DD)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *status != "" {
		f.Status = model.NormalizeAppointmentStatus(*status)
	}
	list, err := c.app.Appointments.List(ctx, f)
	if err != nil {
		return err
	}
	return c.show(list, func(w io.Writer) { printAppointments(w, list) })
}

func runApptGet(ctx context.Context, c *cli, args []string) error {
	id, err := firstID(args, "appt get <id>")
	if err != nil {
		return err
	}
	a, err := c.app.Appointments.Get(ctx, id)
	if err != nil {
		return err
	}
	return c.show(a, func(w io.Writer) { printAppointment(w, a) })
}

func runApptIncoming(ctx context.Context, c *cli, args []string) error {
	list, err := c.app.Appointments.Incoming(ctx)
	if err != nil {
		return err
	}
	return c.show(list, func(w io.Writer) { printAppointments(w, list) })
}

func runApptRespond(ctx context.Context, c *cli, args []string) error {
	fs := newFlags("appt respond")
	action := fs.String("action", "", "approve|reject")
	reason := fs.String("reason", "", "Rejection reason")
	alternate := fs.String("alternate", "", "Suggested alternate time")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := firstID(fs.Args(), "appt respond -action approve|reject [-reason r] [-alternate t] <id>")
	if err != nil {
		return err
	}
	in := appointment.ResponseInput{
		Action:          model.RespondAction(strings.ToLower(*action)),
		RejectionReason: *reason,
	}
	if *alternate != "" {
		t, err := parseTime(*alternate)
		if err != nil {
			return err
		}
		in.AlternateTime = &t
	}
	a, err := c.app.Appointments.Respond(ctx, id, in)
	if err != nil {
		return err
	}
	return c.show(a, func(w io.Writer) { printAppointment(w, a) })
}

func runApptCancel(ctx context.Context, c *cli, args []string) error {
	fs := newFlags("appt cancel")
	reason := fs.String("reason", "", "Why the appointment is cancelled")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := firstID(fs.Args(), "appt cancel -reason r <id>")
	if err != nil {
		return err
	}
	a, err := c.app.Appointments.Cancel(ctx, id, *reason)
	if err != nil {
		return err
	}
	return c.show(a, func(w io.Writer) { printAppointment(w, a) })
}

func runApptReschedule(ctx context.Context, c *cli, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: walkin appt reschedule <id> <new time>")
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	t, err := parseTime(strings.Join(args[1:], " "))
	if err != nil {
		return err
	}
	a, err := c.app.Appointments.Reschedule(ctx, id, t)
	if err != nil {
		return err
	}
	return c.show(a, func(w io.Writer) { printAppointment(w, a) })
}

func runApptComplete(ctx context.Context, c *cli, args []string) error {
	fs := newFlags("appt complete")
	notes := fs.String("notes", "", "Closing notes")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := firstID(fs.Args(), "appt complete [-notes n] <id>")
	if err != nil {
		return err
	}
	a, err := c.app.Appointments.Complete(ctx, id, *notes)
	if err != nil {
		return err
	}
	return c.show(a, func(w io.Writer) { printAppointment(w, a) })
}

func runApptSearch(ctx context.Context, c *cli, args []string) error {
	list, err := c.app.Appointments.Search(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	return c.show(list, func(w io.Writer) { printAppointments(w, list) })
}

func runApptStats(ctx context.Context, c *cli, args []string) error {
	fs := newFlags("appt stats")
	period := fs.String("period", "week", "day|week|month|year")
	if err := fs.Parse(args); err != nil {
		return err
	}
	st, err := c.app.Appointments.Stats(ctx, *period)
	if err != nil {
		return err
	}
	return c.show(st, func(w io.Writer) {
		fmt.Fprintf(w, "Total\t%d\n", st.Total)
		fmt.Fprintf(w, "Pending\t%d\n", st.Pending)
		fmt.Fprintf(w, "Confirmed\t%d\n", st.Confirmed)
		fmt.Fprintf(w, "Cancelled\t%d\n", st.Cancelled)
		fmt.Fprintf(w, "Completed\t%d\n", st.Completed)
	})
}

func runApptToday(ctx context.Context, c *cli, args []string) error {
	list, err := c.app.Appointments.Today(ctx)
	if err != nil {
		return err
	}
	return c.show(list, func(w io.Writer) { printAppointments(w, list) })
}

func runApptDelete(ctx context.Context, c *cli, args []string) error {
	id, err := firstID(args, "appt delete <id>")
	if err != nil {
		return err
	}
	if err := c.app.Appointments.Delete(ctx, id); err != nil {
		return err
	}
	c.printf("Appointment %d deleted.\n", id)
	return nil
}

func runApptUpdate(ctx context.Context, c *cli, args []string) error {
	fs := newFlags("appt update")
	var ch appointment.Changes
	fs.StringVar(&ch.VisitorName, "name", "", "Visitor name")
	fs.StringVar(&ch.VisitorEmail, "email", "", "Visitor email")
	fs.StringVar(&ch.VisitorPhone, "phone", "", "Visitor phone")
	fs.StringVar(&ch.Reason, "reason", "", "Reason for the visit")
	fs.StringVar(&ch.Notes, "notes", "", "Notes")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := firstID(fs.Args(), "appt update [flags] <id>")
	if err != nil {
		return err
	}
	a, err := c.app.Appointments.Update(ctx, id, ch)
	if err != nil {
		return err
	}
	return c.show(a, func(w io.Writer) { printAppointment(w, a) })
}

func firstID(args []string, usage string) (int64, error) {
	if len(args) < 1 {
		return 0, fmt.Errorf("usage: walkin %s", usage)
	}
	return parseID(args[0])
}
