package main

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/dukerupert/walkin/internal/auth"
	"github.com/dukerupert/walkin/internal/model"
)

var authCommands = map[string]runFunc{
	"register": runRegister,
	"verify":   runVerify,
	"resend":   runResend,
	"login":    runLogin,
	"logout":   runLogout,
	"me":       runMe,
}

func runRegister(ctx context.Context, c *cli, args []string) error {
	fs := newFlags("auth register")
	name := fs.String("name", "", "Full name")
	email := fs.String("email", "", "Email address")
	phone := fs.String("phone", "", "Phone number (optional)")
	password := fs.String("password", "", "Password (prompted when empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	confirm := *password
	if *password == "" {
		*password = c.prompt("Password: ")
		confirm = c.prompt("Confirm password: ")
	}

	user, err := c.app.Accounts.Register(ctx, model.Registration{
		Name:     *name,
		Email:    *email,
		Phone:    *phone,
		Password: *password,
	}, confirm)
	if err != nil {
		return err
	}
	return c.show(user, func(w io.Writer) {
		fmt.Fprintf(w, "Account created for %s. Check your email for a verification link.\n", user.Email)
	})
}

func runVerify(ctx context.Context, c *cli, args []string) error {
	fs := newFlags("auth verify")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest, err := requireArgs(fs, 2, "<token> <email>")
	if err != nil {
		return err
	}
	if err := c.app.Accounts.VerifyEmail(ctx, rest[0], rest[1]); err != nil {
		return err
	}
	c.printf("Email verified. You can now log in.\n")
	return nil
}

func runResend(ctx context.Context, c *cli, args []string) error {
	fs := newFlags("auth resend")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest, err := requireArgs(fs, 1, "<email>")
	if err != nil {
		return err
	}
	if err := c.app.Accounts.ResendVerification(ctx, rest[0]); err != nil {
		return err
	}
	c.printf("Verification email sent to %s.\n", rest[0])
	return nil
}

func runLogin(ctx context.Context, c *cli, args []string) error {
	fs := newFlags("auth login")
	password := fs.String("password", "", "Password (prompted when empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest, err := requireArgs(fs, 1, "[-password p] <email>")
	if err != nil {
		return err
	}
	if *password == "" {
		*password = c.prompt("Password: ")
	}

	user, err := c.app.Accounts.Login(ctx, rest[0], *password)
	if err != nil {
		return err
	}
	route, err := c.app.Resolver.Resolve(ctx)
	if err != nil {
		return err
	}
	return c.show(map[string]any{"user": user, "route": route}, func(w io.Writer) {
		fmt.Fprintf(w, "Logged in as %s (%s).\n", user.Name, user.Role)
		fmt.Fprintln(w, routeHint(route))
	})
}

func runLogout(ctx context.Context, c *cli, args []string) error {
	if err := c.app.Accounts.Logout(ctx); err != nil {
		return err
	}
	c.printf("Logged out.\n")
	return nil
}

func runMe(ctx context.Context, c *cli, args []string) error {
	user, err := c.app.Client.Me(ctx)
	if err != nil {
		return err
	}
	return c.show(user, func(w io.Writer) {
		org := "-"
		if user.OrganizationID != nil {
			org = strconv.FormatInt(*user.OrganizationID, 10)
		}
		fmt.Fprintf(w, "ID\t%d\n", user.ID)
		fmt.Fprintf(w, "Name\t%s\n", user.Name)
		fmt.Fprintf(w, "Email\t%s\n", user.Email)
		fmt.Fprintf(w, "Role\t%s\n", user.Role)
		fmt.Fprintf(w, "Organization\t%s\n", org)
		fmt.Fprintf(w, "Organization status\t%s\n", user.OrganizationStatus)
	})
}

func runStatus(ctx context.Context, c *cli, args []string) error {
	route, err := c.app.Resolver.Resolve(ctx)
	if err != nil && route != auth.RouteLogin {
		return err
	}
	return c.show(map[string]any{"route": route}, func(w io.Writer) {
		fmt.Fprintln(w, routeHint(route))
	})
}

// runWait blocks on the approval poller until the membership is decided.
// Pressing Enter checks right away, sharing any check already in flight.
func runWait(ctx context.Context, c *cli, args []string) error {
	route, err := c.app.Resolver.Resolve(ctx)
	if err != nil {
		return err
	}
	if route != auth.RouteWaiting {
		c.printf("%s\n", routeHint(route))
		return nil
	}

	c.printf("Waiting for approval, checking every %s. Press Enter to check now or Ctrl-C to stop.\n", c.app.Config.PollInterval)
	changed := make(chan auth.Route, 1)
	report := func(r auth.Route) {
		select {
		case changed <- r:
		default:
		}
	}
	c.app.Poller.Start(ctx, report)
	defer c.app.Poller.Stop()

	checked := make(chan struct{}, 1)
	go func() {
		for {
			if _, err := c.in.ReadString('\n'); err != nil {
				return
			}
			r, err := c.app.Poller.Check(ctx)
			if ctx.Err() != nil {
				return
			}
			if r != auth.RouteWaiting {
				report(r)
				return
			}
			if err != nil {
				c.app.Logger.Warn("approval check", "error", err)
			}
			select {
			case checked <- struct{}{}:
			default:
			}
		}
	}()

	for {
		select {
		case r := <-changed:
			c.printf("%s\n", routeHint(r))
			return nil
		case <-checked:
			c.printf("Still waiting.\n")
		case <-ctx.Done():
			c.printf("Stopped waiting.\n")
			return nil
		}
	}
}

func routeHint(r auth.Route) string {
	switch r {
	case auth.RouteMainApp:
		return "You are a member of your organization."
	case auth.RouteWaiting:
		return "Your join request is waiting for approval. Run `walkin wait` to be told when it is decided."
	case auth.RouteOrganizationChoice:
		return "You are not in an organization yet. Use `walkin org create` or `walkin org join <code>`."
	default:
		return "You are not logged in. Use `walkin auth login <email>`."
	}
}
