package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dukerupert/walkin/internal/model"
)

var visitCommands = map[string]runFunc{
	"in":     runVisitIn,
	"out":    runVisitOut,
	"status": runVisitStatus,
	"lookup": runVisitLookup,
	"today":  runVisitToday,
	"all":    runVisitAll,
	"get":    runVisitGet,
	"export": runVisitExport,
}

type walkFunc func(ctx context.Context, code, notes string) (*model.VisitorLog, error)

// runWalk checks the gate before recording. The gate is advisory: -force
// sends the request anyway and lets the backend decide.
func runWalk(ctx context.Context, c *cli, args []string, name string, inbound bool, walk walkFunc) error {
	fs := newFlags("visit " + name)
	notes := fs.String("notes", "", "Notes for the visitor log")
	force := fs.Bool("force", false, "Skip the inside/outside check")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest, err := requireArgs(fs, 1, "[-notes n] [-force] <confirmation-code>")
	if err != nil {
		return err
	}
	code := strings.ToUpper(strings.TrimSpace(rest[0]))

	if !*force {
		_, gate, err := c.app.Visits.Status(ctx, code)
		switch {
		case err != nil:
			c.app.Logger.Warn("visitor status", "error", err)
		case inbound && !gate.WalkIn, !inbound && !gate.WalkOut:
			return errors.New(gate.Reason)
		}
	}

	l, err := walk(ctx, code, *notes)
	if err != nil {
		return err
	}
	return c.show(l, func(w io.Writer) {
		who := l.VisitorName
		if who == "" {
			who = code
		}
		if inbound {
			fmt.Fprintf(w, "%s checked in at %s.\n", who, formatTS(l.WalkedInAt))
		} else {
			fmt.Fprintf(w, "%s checked out at %s.\n", who, formatTS(l.WalkedOutAt))
		}
	})
}

func runVisitIn(ctx context.Context, c *cli, args []string) error {
	return runWalk(ctx, c, args, "in", true, c.app.Visits.WalkIn)
}

func runVisitOut(ctx context.Context, c *cli, args []string) error {
	return runWalk(ctx, c, args, "out", false, c.app.Visits.WalkOut)
}

func runVisitStatus(ctx context.Context, c *cli, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: walkin visit status <confirmation-code>")
	}
	st, gate, err := c.app.Visits.Status(ctx, strings.ToUpper(args[0]))
	if err != nil {
		return err
	}
	return c.show(map[string]any{"status": st, "gate": gate}, func(w io.Writer) {
		if st.VisitorName != "" {
			fmt.Fprintf(w, "Visitor\t%s\n", st.VisitorName)
		}
		fmt.Fprintf(w, "Inside\t%t\n", st.IsInside)
		fmt.Fprintf(w, "Walked in\t%s\n", formatTS(st.WalkedInAt))
		fmt.Fprintf(w, "Walked out\t%s\n", formatTS(st.WalkedOutAt))
		fmt.Fprintf(w, "Next\t%s\n", gate.Reason)
	})
}

func runVisitLookup(ctx context.Context, c *cli, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: walkin visit lookup <confirmation-code>")
	}
	a, err := c.app.Visits.Appointment(ctx, strings.ToUpper(args[0]))
	if err != nil {
		return err
	}
	return c.show(a, func(w io.Writer) { printAppointment(w, a) })
}

func printLogs(w io.Writer, logs []model.VisitorLog) {
	if len(logs) == 0 {
		fmt.Fprintln(w, "No visitors.")
		return
	}
	fmt.Fprintln(w, "ID\tCODE\tVISITOR\tEMPLOYEE\tIN\tOUT")
	for _, l := range logs {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			l.ID, l.ConfirmationCode, l.VisitorName, l.EmployeeName, formatTS(l.WalkedInAt), formatTS(l.WalkedOutAt))
	}
}

func runVisitToday(ctx context.Context, c *cli, args []string) error {
	logs, err := c.app.Visits.Today(ctx)
	if err != nil {
		return err
	}
	return c.show(logs, func(w io.Writer) { printLogs(w, logs) })
}

func runVisitAll(ctx context.Context, c *cli, args []string) error {
	logs, err := c.app.Visits.All(ctx)
	if err != nil {
		return err
	}
	return c.show(logs, func(w io.Writer) { printLogs(w, logs) })
}

func runVisitGet(ctx context.Context, c *cli, args []string) error {
	id, err := firstID(args, "visit get <id>")
	if err != nil {
		return err
	}
	l, err := c.app.Visits.Get(ctx, id)
	if err != nil {
		return err
	}
	return c.show(l, func(w io.Writer) { printLogs(w, []model.VisitorLog{*l}) })
}

func runVisitExport(ctx context.Context, c *cli, args []string) error {
	fs := newFlags("visit export")
	out := fs.String("o", "", "Output file (default visitors-YYYY-MM-DD.xlsx)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	path := *out
	if path == "" {
		path = fmt.Sprintf("visitors-%s.xlsx", time.Now().Format(time.DateOnly))
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	n, err := c.app.Visits.ExportToday(ctx, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return err
	}
	c.printf("Wrote %d visitors to %s.\n", n, path)
	return nil
}
