package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dukerupert/walkin/internal/model"
)

var notifCommands = map[string]runFunc{
	"list":       runNotifList,
	"read":       runNotifRead,
	"read-all":   runNotifReadAll,
	"delete":     runNotifDelete,
	"unread":     runNotifUnread,
	"settings":   runNotifSettings,
	"register":   runNotifRegister,
	"unregister": runNotifUnregister,
}

var themeCommands = map[string]runFunc{
	"get": runThemeGet,
	"set": runThemeSet,
}

func runNotifList(ctx context.Context, c *cli, args []string) error {
	fs := newFlags("notif list")
	page := fs.Int("page", 1, "Page number")
	limit := fs.Int("limit", 20, "Page size")
	if err := fs.Parse(args); err != nil {
		return err
	}
	p, err := c.app.Notifications.List(ctx, *page, *limit)
	if err != nil {
		return err
	}
	return c.show(p, func(w io.Writer) {
		if len(p.Notifications) == 0 {
			fmt.Fprintln(w, "No notifications.")
			return
		}
		fmt.Fprintln(w, "ID\t\tTYPE\tTITLE\tMESSAGE")
		for _, n := range p.Notifications {
			mark := " "
			if !n.Read {
				mark = "*"
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", n.ID, mark, n.Type, n.Title, n.Message)
		}
	})
}

func runNotifRead(ctx context.Context, c *cli, args []string) error {
	id, err := firstID(args, "notif read <id>")
	if err != nil {
		return err
	}
	if err := c.app.Notifications.MarkRead(ctx, id); err != nil {
		return err
	}
	c.printf("Marked %d as read.\n", id)
	return nil
}

func runNotifReadAll(ctx context.Context, c *cli, args []string) error {
	if err := c.app.Notifications.MarkAllRead(ctx); err != nil {
		return err
	}
	c.printf("All notifications marked as read.\n")
	return nil
}

func runNotifDelete(ctx context.Context, c *cli, args []string) error {
	id, err := firstID(args, "notif delete <id>")
	if err != nil {
		return err
	}
	if err := c.app.Notifications.Delete(ctx, id); err != nil {
		return err
	}
	c.printf("Notification %d deleted.\n", id)
	return nil
}

func runNotifUnread(ctx context.Context, c *cli, args []string) error {
	n, err := c.app.Notifications.UnreadCount(ctx)
	if err != nil {
		return err
	}
	return c.show(map[string]int{"count": n}, func(w io.Writer) {
		fmt.Fprintf(w, "%d unread\n", n)
	})
}

// runNotifSettings prints the settings, or updates them when flags are set.
func runNotifSettings(ctx context.Context, c *cli, args []string) error {
	set, err := c.app.Notifications.Settings(ctx)
	if err != nil {
		return err
	}

	fs := newFlags("notif settings")
	fs.BoolVar(&set.SMS, "sms", set.SMS, "SMS notifications")
	fs.BoolVar(&set.Email, "email", set.Email, "Email notifications")
	fs.BoolVar(&set.InApp, "in-app", set.InApp, "In-app notifications")
	fs.BoolVar(&set.PushNotifications, "push", set.PushNotifications, "Push notifications")
	fs.BoolVar(&set.AppointmentReminders, "reminders", set.AppointmentReminders, "Appointment reminders")
	fs.BoolVar(&set.AppointmentUpdates, "updates", set.AppointmentUpdates, "Appointment updates")
	fs.BoolVar(&set.OrganizationUpdates, "org-updates", set.OrganizationUpdates, "Organization updates")
	fs.BoolVar(&set.MarketingEmails, "marketing", set.MarketingEmails, "Marketing emails")
	fs.IntVar(&set.ReminderMinutesBefore, "remind-before", set.ReminderMinutesBefore, "Reminder lead time in minutes")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NFlag() > 0 {
		if set, err = c.app.Notifications.UpdateSettings(ctx, *set); err != nil {
			return err
		}
	}
	return c.show(set, func(w io.Writer) { printSettings(w, set) })
}

func printSettings(w io.Writer, s *model.NotificationSettings) {
	rows := []struct {
		name string
		on   bool
	}{
		{"SMS", s.SMS},
		{"Email", s.Email},
		{"In-app", s.InApp},
		{"Push", s.PushNotifications},
		{"Appointment reminders", s.AppointmentReminders},
		{"Appointment updates", s.AppointmentUpdates},
		{"Organization updates", s.OrganizationUpdates},
		{"Marketing emails", s.MarketingEmails},
	}
	for _, r := range rows {
		state := "off"
		if r.on {
			state = "on"
		}
		fmt.Fprintf(w, "%s\t%s\n", r.name, state)
	}
	fmt.Fprintf(w, "Remind before\t%d min\n", s.ReminderMinutesBefore)
}

func runNotifRegister(ctx context.Context, c *cli, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: walkin notif register <push-token> <ios|android|web>")
	}
	if err := c.app.Notifications.RegisterDevice(ctx, args[0], args[1]); err != nil {
		return err
	}
	c.printf("Device registered for push notifications.\n")
	return nil
}

func runNotifUnregister(ctx context.Context, c *cli, args []string) error {
	if err := c.app.Notifications.UnregisterDevice(ctx); err != nil {
		return err
	}
	c.printf("Device unregistered.\n")
	return nil
}

func runThemeGet(ctx context.Context, c *cli, args []string) error {
	theme := c.app.Theme()
	return c.show(map[string]string{"theme": string(theme)}, func(w io.Writer) {
		fmt.Fprintln(w, theme)
	})
}

func runThemeSet(ctx context.Context, c *cli, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: walkin theme set <light|dark|system>")
	}
	theme, ok := model.ParseTheme(strings.ToLower(args[0]))
	if !ok {
		return fmt.Errorf("unknown theme %q", args[0])
	}
	if err := c.app.SetTheme(theme); err != nil {
		return err
	}
	c.printf("Theme set to %s.\n", theme)
	return nil
}
