package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/dukerupert/walkin/internal/api"
	"github.com/dukerupert/walkin/internal/app"
	"github.com/dukerupert/walkin/internal/auth"
	"github.com/dukerupert/walkin/internal/config"
	"github.com/dukerupert/walkin/internal/logging"
)

type runFunc func(ctx context.Context, c *cli, args []string) error

// groups maps "walkin <group> <command>" to handlers. Single-word commands
// use the empty command name.
var groups = map[string]map[string]runFunc{
	"auth":   authCommands,
	"status": {"": runStatus},
	"wait":   {"": runWait},
	"org":    orgCommands,
	"appt":   apptCommands,
	"visit":  visitCommands,
	"notif":  notifCommands,
	"theme":  themeCommands,
}

// needsSession lists groups whose commands act as the signed-in user.
var needsSession = map[string]bool{
	"org":   true,
	"appt":  true,
	"visit": true,
	"notif": true,
}

type cli struct {
	app  *app.App
	out  io.Writer
	in   *bufio.Reader
	json bool
}

func main() {
	envFile := flag.String("env-file", ".env", "dotenv file to load before the environment")
	apiURL := flag.String("api", "", "Override API base URL (e.g. https://api.example.com/api/v1)")
	jsonOut := flag.Bool("json", false, "Print results as JSON")
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	cmds, ok := groups[args[0]]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n", args[0])
		usage()
		os.Exit(2)
	}
	name, rest := "", args[1:]
	if _, single := cmds[""]; !single {
		if len(rest) == 0 {
			fmt.Fprintf(os.Stderr, "usage: walkin %s <%s>\n", args[0], strings.Join(commandNames(cmds), "|"))
			os.Exit(2)
		}
		name, rest = rest[0], rest[1:]
	}
	run, ok := cmds[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q for %s\n", name, args[0])
		os.Exit(2)
	}

	cfg := config.LoadFile(*envFile)
	if *apiURL != "" {
		cfg.APIURL = strings.TrimRight(*apiURL, "/")
	}
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	a, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("failed to start", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	c := &cli{app: a, out: os.Stdout, in: bufio.NewReader(os.Stdin), json: *jsonOut}
	if needsSession[args[0]] {
		err = c.signIn(ctx)
	}
	if err == nil {
		err = run(ctx, c, rest)
	}
	stop()

	closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if cerr := a.Close(closeCtx); cerr != nil {
		logger.Warn("close", "error", cerr)
	}

	if err != nil {
		printError(err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: walkin [-env-file path] [-api url] [-json] <command> [args]")
	fmt.Fprintln(os.Stderr)
	names := make([]string, 0, len(groups))
	for g := range groups {
		names = append(names, g)
	}
	sort.Strings(names)
	for _, g := range names {
		if sub := commandNames(groups[g]); len(sub) > 0 {
			fmt.Fprintf(os.Stderr, "  %-7s %s\n", g, strings.Join(sub, "|"))
		} else {
			fmt.Fprintf(os.Stderr, "  %s\n", g)
		}
	}
	fmt.Fprintln(os.Stderr)
	flag.PrintDefaults()
}

func commandNames(cmds map[string]runFunc) []string {
	var names []string
	for n := range cmds {
		if n != "" {
			names = append(names, n)
		}
	}
	sort.Strings(names)
	return names
}

// printError shows the user-facing text of err. Field errors are prefixed
// with the field name.
func printError(err error) {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		if apiErr.Field != "" {
			fmt.Fprintf(os.Stderr, "%s: %s\n", apiErr.Field, apiErr.UserMessage())
			return
		}
		fmt.Fprintln(os.Stderr, "Error:", apiErr.UserMessage())
		return
	}
	fmt.Fprintln(os.Stderr, "Error:", err)
}

// signIn loads the signed-in user into state so permission checks see it.
func (c *cli) signIn(ctx context.Context) error {
	route, err := c.app.Resolver.Resolve(ctx)
	if err != nil {
		return err
	}
	if route == auth.RouteLogin {
		return errors.New(routeHint(route))
	}
	return nil
}

// show prints v as JSON in -json mode and through text otherwise.
func (c *cli) show(v any, text func(w io.Writer)) error {
	if c.json {
		enc := json.NewEncoder(c.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	text(tw)
	return tw.Flush()
}

func (c *cli) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

// prompt reads one line from stdin after printing label.
func (c *cli) prompt(label string) string {
	fmt.Fprint(c.out, label)
	line, _ := c.in.ReadString('\n')
	return strings.TrimSpace(line)
}

// confirm asks a yes/no question; anything but y or yes is a no.
func (c *cli) confirm(question string) bool {
	switch strings.ToLower(c.prompt(question + " [y/N] ")) {
	case "y", "yes":
		return true
	}
	return false
}

// newFlags returns a FlagSet for "walkin group cmd" that reports errors
// instead of exiting.
func newFlags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet("walkin "+name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	return fs
}

// requireArgs returns the positional arguments left after parsing, failing
// when fewer than n remain.
func requireArgs(fs *flag.FlagSet, n int, names string) ([]string, error) {
	if fs.NArg() < n {
		return nil, fmt.Errorf("usage: %s %s", fs.Name(), names)
	}
	return fs.Args(), nil
}
