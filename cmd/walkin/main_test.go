package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dukerupert/walkin/internal/app"
	"github.com/dukerupert/walkin/internal/config"
	"github.com/dukerupert/walkin/internal/logging"
	"github.com/dukerupert/walkin/internal/model"
)

func setupCLI(t *testing.T, handler http.HandlerFunc, input string) (*cli, *bytes.Buffer) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	a, err := app.New(config.Config{
		APIURL: srv.URL,
		DBPath: filepath.Join(t.TempDir(), "walkin.db"),
	}, logging.Discard())
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	t.Cleanup(func() { a.Close(context.Background()) })

	var out bytes.Buffer
	return &cli{app: a, out: &out, in: bufio.NewReader(strings.NewReader(input))}, &out
}

func TestEveryGroupHasCommands(t *testing.T) {
	for name, cmds := range groups {
		if len(cmds) == 0 {
			t.Errorf("group %q has no commands", name)
		}
	}
	if got := commandNames(orgCommands); got[0] != "approve" {
		t.Errorf("first org command = %q, want sorted names", got[0])
	}
}

func TestParseID(t *testing.T) {
	if id, err := parseID("42"); err != nil || id != 42 {
		t.Errorf("parseID(42) = %d, %v", id, err)
	}
	for _, bad := range []string{"", "0", "-3", "abc"} {
		if _, err := parseID(bad); err == nil {
			t.Errorf("parseID(%q) should fail", bad)
		}
	}
}

func TestConfirm(t *testing.T) {
	c, _ := setupCLI(t, http.NotFound, "yes\nn\n")
	if !c.confirm("Remove?") {
		t.Error("yes should confirm")
	}
	if c.confirm("Remove?") {
		t.Error("n should decline")
	}
	if c.confirm("Remove?") {
		t.Error("EOF should decline")
	}
}

func TestThemeCommands(t *testing.T) {
	c, out := setupCLI(t, http.NotFound, "")
	ctx := context.Background()

	if err := runThemeSet(ctx, c, []string{"Dark"}); err != nil {
		t.Fatalf("theme set: %v", err)
	}
	if c.app.Theme() != model.ThemeDark {
		t.Errorf("theme = %q", c.app.Theme())
	}
	out.Reset()
	if err := runThemeGet(ctx, c, nil); err != nil {
		t.Fatalf("theme get: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != "dark" {
		t.Errorf("output = %q, want %q", got, "dark")
	}
	if err := runThemeSet(ctx, c, []string{"neon"}); err == nil {
		t.Error("expected error for unknown theme")
	}
}

func TestUnreadJSON(t *testing.T) {
	c, out := setupCLI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"data":{"count":3}}`))
	}, "")
	c.json = true

	if err := runNotifUnread(context.Background(), c, nil); err != nil {
		t.Fatalf("unread: %v", err)
	}
	if !strings.Contains(out.String(), `"count": 3`) {
		t.Errorf("output = %q", out.String())
	}
}

func writeData(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"success": true, "data": data})
}

// approvalServer answers the profile endpoint as pending for the first
// pendingCalls requests and as approved after that.
func approvalServer(pendingCalls int32, meCalls *atomic.Int32) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/auth/me"):
			user := map[string]any{"id": 7, "name": "Ada", "organizationStatus": "PENDING_APPROVAL"}
			if meCalls.Add(1) > pendingCalls {
				user["organizationStatus"] = "APPROVED"
				user["organizationId"] = 42
			}
			writeData(w, map[string]any{"user": user})
		case strings.HasSuffix(r.URL.Path, "/organizations/current"):
			writeData(w, map[string]any{"organization": map[string]any{"id": 42, "name": "Acme", "code": "ACME01"}})
		default:
			http.NotFound(w, r)
		}
	}
}

func TestWaitEnterChecksNow(t *testing.T) {
	var meCalls atomic.Int32
	c, out := setupCLI(t, approvalServer(1, &meCalls), "\n")
	if err := c.app.Credentials.Set(model.Session{AuthToken: "tok"}); err != nil {
		t.Fatalf("set session: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := runWait(ctx, c, nil); err != nil {
		t.Fatalf("wait: %v", err)
	}

	if !strings.Contains(out.String(), "You are a member of your organization.") {
		t.Errorf("output = %q, want the approved message", out.String())
	}
	if n := meCalls.Load(); n != 2 {
		t.Errorf("profile requests = %d, want 2", n)
	}
}

func TestWaitEnterWhileStillPending(t *testing.T) {
	var meCalls atomic.Int32
	c, out := setupCLI(t, approvalServer(100, &meCalls), "\n")
	if err := c.app.Credentials.Set(model.Session{AuthToken: "tok"}); err != nil {
		t.Fatalf("set session: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	if err := runWait(ctx, c, nil); err != nil {
		t.Fatalf("wait: %v", err)
	}

	got := out.String()
	if !strings.Contains(got, "Still waiting.") {
		t.Errorf("output = %q, want a still waiting line", got)
	}
	if !strings.Contains(got, "Stopped waiting.") {
		t.Errorf("output = %q, want the stop line", got)
	}
}
