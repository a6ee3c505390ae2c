package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dukerupert/walkin/internal/model"
	"github.com/dukerupert/walkin/internal/organization"
)

var orgCommands = map[string]runFunc{
	"create":   runOrgCreate,
	"join":     runOrgJoin,
	"preview":  runOrgPreview,
	"current":  runOrgCurrent,
	"members":  runOrgMembers,
	"requests": runOrgRequests,
	"approve":  runOrgApprove,
	"reject":   runOrgReject,
	"role":     runOrgRole,
	"remove":   runOrgRemove,
	"invite":   runOrgInvite,
	"share":    runOrgShare,
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func runOrgCreate(ctx context.Context, c *cli, args []string) error {
	fs := newFlags("org create")
	var d model.OrganizationDetails
	fs.StringVar(&d.Name, "name", "", "Organization name")
	fs.StringVar(&d.Description, "description", "", "Short description")
	fs.StringVar(&d.Address, "address", "", "Street address")
	fs.StringVar(&d.Phone, "phone", "", "Contact phone")
	fs.StringVar(&d.Email, "email", "", "Contact email")
	logoPath := fs.String("logo", "", "Path to a logo image (optional)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var logo *model.Logo
	if *logoPath != "" {
		data, err := os.ReadFile(*logoPath)
		if err != nil {
			return fmt.Errorf("read logo: %w", err)
		}
		logo = &model.Logo{
			Filename:    filepath.Base(*logoPath),
			ContentType: http.DetectContentType(data),
			Data:        data,
		}
	}

	org, err := c.app.Organizations.Create(ctx, d, logo)
	if err != nil {
		return err
	}
	return c.show(org, func(w io.Writer) {
		fmt.Fprintf(w, "Created %s. Share code %s with your team.\n", org.Name, org.Code)
	})
}

func runOrgJoin(ctx context.Context, c *cli, args []string) error {
	fs := newFlags("org join")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest, err := requireArgs(fs, 1, "<code>")
	if err != nil {
		return err
	}
	code := strings.ToUpper(strings.TrimSpace(rest[0]))

	jr, err := c.app.Organizations.Join(ctx, code)
	if err != nil {
		return err
	}
	return c.show(jr, func(w io.Writer) {
		fmt.Fprintln(w, "Join request sent. An administrator must approve it before you can continue.")
	})
}

func runOrgPreview(ctx context.Context, c *cli, args []string) error {
	fs := newFlags("org preview")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest, err := requireArgs(fs, 1, "<code>")
	if err != nil {
		return err
	}
	org, err := c.app.Organizations.Preview(ctx, strings.ToUpper(strings.TrimSpace(rest[0])))
	if err != nil {
		return err
	}
	if org == nil {
		return errors.New("no organization found for that code")
	}
	return c.show(org, func(w io.Writer) { printOrganization(w, org) })
}

func runOrgCurrent(ctx context.Context, c *cli, args []string) error {
	org, err := c.app.Organizations.Current(ctx)
	if err != nil {
		return err
	}
	return c.show(org, func(w io.Writer) { printOrganization(w, org) })
}

func printOrganization(w io.Writer, org *model.Organization) {
	fmt.Fprintf(w, "Name\t%s\n", org.Name)
	fmt.Fprintf(w, "Code\t%s\n", org.Code)
	if org.Description != "" {
		fmt.Fprintf(w, "Description\t%s\n", org.Description)
	}
	fmt.Fprintf(w, "Address\t%s\n", org.Address)
	fmt.Fprintf(w, "Phone\t%s\n", org.Phone)
	fmt.Fprintf(w, "Email\t%s\n", org.Email)
	if org.MemberCount > 0 {
		fmt.Fprintf(w, "Members\t%d\n", org.MemberCount)
	}
}

func runOrgMembers(ctx context.Context, c *cli, args []string) error {
	members, err := c.app.Organizations.Members(ctx)
	if err != nil {
		return err
	}
	return c.show(members, func(w io.Writer) {
		fmt.Fprintln(w, "ID\tNAME\tEMAIL\tROLE")
		for _, m := range members {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", m.ID, m.Name, m.Email, m.Role)
		}
	})
}

func runOrgRequests(ctx context.Context, c *cli, args []string) error {
	reqs, err := c.app.Organizations.PendingRequests(ctx)
	if err != nil {
		return err
	}
	return c.show(reqs, func(w io.Writer) {
		if len(reqs) == 0 {
			fmt.Fprintln(w, "No pending join requests.")
			return
		}
		fmt.Fprintln(w, "ID\tNAME\tEMAIL\tMESSAGE")
		for _, r := range reqs {
			name, email := "", ""
			if r.User != nil {
				name, email = r.User.Name, r.User.Email
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", r.ID, name, email, r.Message)
		}
	})
}

func runOrgApprove(ctx context.Context, c *cli, args []string) error {
	fs := newFlags("org approve")
	role := fs.String("role", string(model.RoleEmployee), "Role for the new member: admin|frontdesk|employee")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return handleJoin(ctx, c, fs.Args(), model.JoinApprove, model.NormalizeRole(*role))
}

func runOrgReject(ctx context.Context, c *cli, args []string) error {
	return handleJoin(ctx, c, args, model.JoinReject, "")
}

func handleJoin(ctx context.Context, c *cli, args []string, action model.JoinAction, role model.Role) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: walkin org %s <request-id>", action)
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	jr, err := c.app.Organizations.HandleJoinRequest(ctx, id, action, role)
	if err != nil {
		return err
	}
	return c.show(jr, func(w io.Writer) {
		fmt.Fprintf(w, "Request %d %s.\n", jr.ID, strings.ToLower(string(jr.Status)))
	})
}

func runOrgRole(ctx context.Context, c *cli, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: walkin org role <member-id> <admin|frontdesk|employee>")
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	// Load members so an empty response can be patched from cache.
	if _, err := c.app.Organizations.Members(ctx); err != nil {
		return err
	}
	m, err := c.app.Organizations.UpdateMemberRole(ctx, id, model.NormalizeRole(args[1]))
	if err != nil {
		return err
	}
	return c.show(m, func(w io.Writer) {
		fmt.Fprintf(w, "%s is now %s.\n", displayName(m.Name, m.ID), m.Role)
	})
}

func runOrgRemove(ctx context.Context, c *cli, args []string) error {
	fs := newFlags("org remove")
	yes := fs.Bool("yes", false, "Skip the confirmation prompt")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest, err := requireArgs(fs, 1, "[-yes] <member-id>")
	if err != nil {
		return err
	}
	id, err := parseID(rest[0])
	if err != nil {
		return err
	}
	if _, err := c.app.Organizations.Members(ctx); err != nil {
		return err
	}

	confirm := organization.ConfirmFunc(c.confirm)
	if *yes {
		confirm = func(string) bool { return true }
	}
	err = c.app.Organizations.RemoveMember(ctx, id, confirm)
	if errors.Is(err, organization.ErrNotConfirmed) {
		c.printf("Cancelled.\n")
		return nil
	}
	if err != nil {
		return err
	}
	c.printf("Member removed.\n")
	return nil
}

func runOrgInvite(ctx context.Context, c *cli, args []string) error {
	fs := newFlags("org invite")
	role := fs.String("role", string(model.RoleEmployee), "Role to offer: admin|frontdesk|employee")
	message := fs.String("message", "", "Personal note included in the email")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest, err := requireArgs(fs, 1, "[-role r] [-message m] <email>")
	if err != nil {
		return err
	}
	if err := c.app.Organizations.Invite(ctx, rest[0], model.NormalizeRole(*role), *message); err != nil {
		return err
	}
	c.printf("Invitation sent to %s.\n", rest[0])
	return nil
}

func runOrgShare(ctx context.Context, c *cli, args []string) error {
	org, err := c.app.Organizations.Current(ctx)
	if err != nil {
		return err
	}
	msg := organization.ShareMessage(org.Code, org.Name)
	return c.show(map[string]string{"code": org.Code, "message": msg}, func(w io.Writer) {
		fmt.Fprintln(w, msg)
	})
}

func displayName(name string, id int64) string {
	if name != "" {
		return name
	}
	return fmt.Sprintf("Member %d", id)
}
